// SPDX-License-Identifier: MPL-2.0

package jsengine

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/dop251/goja"
	"github.com/spf13/afero"

	"github.com/lintcage/lintcage/internal/fileaccess"
	"github.com/lintcage/lintcage/internal/namespace"
	"github.com/lintcage/lintcage/pkg/container"
	"github.com/lintcage/lintcage/pkg/platform"
)

type harness struct {
	engine *Engine
	ns     *namespace.Namespace
	stdout bytes.Buffer
	stderr bytes.Buffer
}

func newHarness(t *testing.T, units []container.Unit, reader fileaccess.Reader) *harness {
	t.Helper()
	h := &harness{}
	if reader == nil {
		reader = fileaccess.New(afero.NewMemMapFs())
	}
	engine, err := New(Options{
		Reader: reader,
		Stdout: &h.stdout,
		Stderr: &h.stderr,
		Argv:   []string{"lintcage", "/r/main.js", "--fix"},
		Env:    map[string]string{"HOME": "/home/test"},
		Cwd:    "/work",
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	h.engine = engine
	h.ns = namespace.New(units, engine, namespace.WithRoot("/r"))
	return h
}

func (h *harness) get(t *testing.T, id string) goja.Value {
	t.Helper()
	v, err := h.ns.Get(id)
	if err != nil {
		t.Fatalf("Get(%s) error = %v", id, err)
	}
	return v.(goja.Value)
}

func TestExecute_ExampleScenario(t *testing.T) {
	t.Parallel()

	h := newHarness(t, []container.Unit{
		{
			Name:         "main.js",
			Dependencies: []container.Dependency{{Reference: "./lib", Target: "lib.js"}},
			Content:      "const lib = require('./lib');\n// require('./unused')\nmodule.exports = () => lib() + 1;\n",
		},
		{Name: "lib.js", Content: "module.exports = function () { return 41; };"},
	}, nil)

	fn, ok := goja.AssertFunction(h.get(t, "main.js"))
	if !ok {
		t.Fatal("main exports should be callable")
	}
	got, err := fn(goja.Undefined())
	if err != nil {
		t.Fatalf("main() error = %v", err)
	}
	if got.ToInteger() != 42 {
		t.Errorf("main() = %v, want 42", got)
	}
}

func TestExecute_CycleSeesPartialExports(t *testing.T) {
	t.Parallel()

	h := newHarness(t, []container.Unit{
		{
			Name:         "a.js",
			Dependencies: []container.Dependency{{Reference: "./b", Target: "b.js"}},
			Content:      "exports.early = 1; exports.fromB = require('./b').seen; exports.late = 2;",
		},
		{
			Name:         "b.js",
			Dependencies: []container.Dependency{{Reference: "./a", Target: "a.js"}},
			Content:      "const a = require('./a'); exports.seen = Object.keys(a).join(',');",
		},
	}, nil)

	a := h.get(t, "a.js").ToObject(h.engine.Runtime())
	if got := a.Get("fromB").String(); got != "early" {
		t.Errorf("b saw %q, want %q", got, "early")
	}
	if a.Get("late").ToInteger() != 2 {
		t.Error("a should be complete")
	}
}

func TestExecute_ModuleContext(t *testing.T) {
	t.Parallel()

	h := newHarness(t, []container.Unit{
		{
			Name:         "pkg/lib/main.js",
			Dependencies: []container.Dependency{{Reference: "../conf", Target: "pkg/conf.json"}},
			Content: "#!/usr/bin/env node\n" +
				"const path = require('path');\n" +
				"module.exports = {\n" +
				"  filename: __filename,\n" +
				"  dirname: __dirname,\n" +
				"  resolved: require.resolve('../conf'),\n" +
				"  joined: path.join(__dirname, '..', 'x.js'),\n" +
				"  conf: require('../conf').level,\n" +
				"  argv: process.argv.slice(2).join(' '),\n" +
				"  home: require('node:os').homedir(),\n" +
				"  cwd: process.cwd(),\n" +
				"  platform: process.platform + '/' + require('os').platform(),\n" +
				"  arch: process.arch + '/' + require('os').arch(),\n" +
				"};",
		},
		{Name: "pkg/conf.json", Content: "{\n  // comment\n  \"level\": \"warn\",\n}"},
	}, nil)

	exports := h.get(t, "pkg/lib/main.js").ToObject(h.engine.Runtime())
	nodePlatform, nodeArch := platform.Current()
	want := map[string]string{
		"filename": "/r/pkg/lib/main.js",
		"dirname":  "/r/pkg/lib",
		"resolved": "/r/pkg/conf.json",
		"joined":   "/r/pkg/x.js",
		"conf":     "warn",
		"argv":     "--fix",
		"home":     "/home/test",
		"cwd":      "/work",
		"platform": nodePlatform + "/" + nodePlatform,
		"arch":     nodeArch + "/" + nodeArch,
	}
	for key, w := range want {
		if got := exports.Get(key).String(); got != w {
			t.Errorf("%s = %q, want %q", key, got, w)
		}
	}
}

func TestExecute_Console(t *testing.T) {
	t.Parallel()

	h := newHarness(t, []container.Unit{
		{Name: "main.js", Content: "console.log('%d problems', 3); console.error('bad', 'news');"},
	}, nil)
	h.get(t, "main.js")

	if got := h.stdout.String(); got != "3 problems\n" {
		t.Errorf("stdout = %q", got)
	}
	if got := h.stderr.String(); got != "bad news\n" {
		t.Errorf("stderr = %q", got)
	}
}

func TestExecute_ProcessExit(t *testing.T) {
	t.Parallel()

	h := newHarness(t, []container.Unit{
		{
			Name:         "main.js",
			Dependencies: []container.Dependency{{Reference: "./quit", Target: "quit.js"}},
			Content:      "try { require('./quit'); } catch (e) {}\nglobalThis.after = true;",
		},
		{Name: "quit.js", Content: "process.exitCode = 3; process.exit();\nglobalThis.after = true;"},
	}, nil)

	_, err := h.ns.Get("main.js")
	var exit *ExitError
	if !errors.As(err, &exit) {
		t.Fatalf("Get() error = %v, want ExitError", err)
	}
	if exit.Code != 3 {
		t.Errorf("exit code = %d, want 3", exit.Code)
	}
	h.engine.ClearExit()
	if v := h.engine.Runtime().Get("after"); v != nil && !goja.IsUndefined(v) {
		t.Error("no code should run after process.exit")
	}
}

func TestExecute_ExitCode(t *testing.T) {
	t.Parallel()

	h := newHarness(t, []container.Unit{{Name: "main.js", Content: "process.exitCode = 1;"}}, nil)
	if h.engine.ExitCode() != 0 {
		t.Error("exit code should start at zero")
	}
	h.get(t, "main.js")
	if h.engine.ExitCode() != 1 {
		t.Errorf("ExitCode() = %d, want 1", h.engine.ExitCode())
	}
}

func TestExecute_ThrownErrorPropagates(t *testing.T) {
	t.Parallel()

	h := newHarness(t, []container.Unit{
		{Name: "main.js", Content: "exports.partial = true; throw new Error('kaboom');"},
	}, nil)

	_, err := h.ns.Get("main.js")
	var exception *goja.Exception
	if !errors.As(err, &exception) || !strings.Contains(err.Error(), "kaboom") {
		t.Fatalf("Get() error = %v, want kaboom exception", err)
	}
	v, err := h.ns.Get("main.js")
	if err != nil {
		t.Fatalf("second Get() error = %v", err)
	}
	if !v.(goja.Value).ToObject(h.engine.Runtime()).Get("partial").ToBoolean() {
		t.Error("partial exports should stay memoized")
	}
}

func TestExecute_UnknownBuiltinThrows(t *testing.T) {
	t.Parallel()

	h := newHarness(t, []container.Unit{
		{Name: "main.js", Content: "let msg = ''; try { require('left-pad'); } catch (e) { msg = 'caught'; } exports.msg = msg;"},
	}, nil)
	if got := h.get(t, "main.js").ToObject(h.engine.Runtime()).Get("msg").String(); got != "caught" {
		t.Errorf("msg = %q, want caught", got)
	}
}

func TestFS_ReadsThroughReader(t *testing.T) {
	t.Parallel()

	disk := afero.NewMemMapFs()
	if err := afero.WriteFile(disk, "/work/notes.txt", []byte("on disk"), 0o644); err != nil {
		t.Fatal(err)
	}
	reader := fileaccess.Intercept(fileaccess.New(disk), "/work/.eslintrc.json", "utf8", []byte(`{"rules":{}}`))

	h := newHarness(t, []container.Unit{{
		Name: "main.js",
		Content: "const fs = require('fs');\n" +
			"exports.config = fs.readFileSync('/work/.eslintrc.json', 'utf8');\n" +
			"exports.notes = fs.readFileSync('/work/notes.txt', {encoding: 'utf8'});\n" +
			"exports.exists = fs.existsSync('/work/notes.txt') && !fs.existsSync('/work/none');\n" +
			"exports.isFile = fs.statSync('/work/notes.txt').isFile();\n" +
			"try { fs.readFileSync('/work/none', 'utf8'); } catch (e) { exports.code = e.code; }\n",
	}}, reader)

	exports := h.get(t, "main.js").ToObject(h.engine.Runtime())
	if got := exports.Get("config").String(); got != `{"rules":{}}` {
		t.Errorf("config = %q", got)
	}
	if got := exports.Get("notes").String(); got != "on disk" {
		t.Errorf("notes = %q", got)
	}
	if !exports.Get("exists").ToBoolean() || !exports.Get("isFile").ToBoolean() {
		t.Error("existsSync/statSync should see the reader's filesystem")
	}
	if got := exports.Get("code").String(); got != "ENOENT" {
		t.Errorf("code = %q, want ENOENT", got)
	}
}

func TestParseData(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil, nil)
	v, err := h.engine.ParseData("/r/x.json", `{"a": [1, 2,], /* note */ "b": "c"}`)
	if err != nil {
		t.Fatalf("ParseData() error = %v", err)
	}
	obj := v.(goja.Value).ToObject(h.engine.Runtime())
	if obj.Get("b").String() != "c" {
		t.Errorf("b = %v", obj.Get("b"))
	}
	if _, err := h.engine.ParseData("/r/bad.json", `{"a":`); err == nil {
		t.Error("ParseData() should fail on truncated input")
	}
}

func TestWrapLoader(t *testing.T) {
	t.Parallel()

	h := newHarness(t, []container.Unit{
		{Name: "conf/recommended.js", Content: "module.exports = {rules: {semi: 'error'}};"},
		{
			Name:         "main.js",
			Dependencies: []container.Dependency{{Reference: "import-fresh", Target: "import-fresh/index.js"}},
			Content:      "exports.semi = require('import-fresh')('/r/conf/recommended.js').rules.semi;",
		},
	}, nil)
	if err := h.ns.InstallBridge("import-fresh/index.js", "conf/recommended.js"); err != nil {
		t.Fatalf("InstallBridge() error = %v", err)
	}

	if got := h.get(t, "main.js").ToObject(h.engine.Runtime()).Get("semi").String(); got != "error" {
		t.Errorf("semi = %q, want error", got)
	}
}

func TestResolvePath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		segments []string
		want     string
	}{
		{segments: nil, want: "/cwd"},
		{segments: []string{"a", "b"}, want: "/cwd/a/b"},
		{segments: []string{"/x", "y", "../z"}, want: "/x/z"},
		{segments: []string{"a", "/abs", "c"}, want: "/abs/c"},
		{segments: []string{"", "a"}, want: "/cwd/a"},
	}
	for _, tt := range tests {
		if got := resolvePath("/cwd", tt.segments); got != tt.want {
			t.Errorf("resolvePath(%v) = %q, want %q", tt.segments, got, tt.want)
		}
	}
}

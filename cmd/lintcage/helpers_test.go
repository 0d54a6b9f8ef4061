// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"context"
	"testing"

	"github.com/spf13/afero"

	"github.com/lintcage/lintcage/internal/config"
	"github.com/lintcage/lintcage/internal/testutil"
)

const (
	testWorkDir    = "/work"
	testExecutable = "/opt/lintcage/lintcage"
	testContainer  = "/opt/lintcage/eslint.bundle"
)

// lintProgram is a miniature lint program laid out like eslint: a bin
// script, a CLI engine that loads formatters by computed name, a linter
// with a computed parser reference and an optional js-yaml, and the
// import-fresh loader used to read the recommended configuration.
var lintProgram = map[string]string{
	"/work/node_modules/eslint/package.json": `{"name":"eslint","version":"1.0.0","_from":"eslint@latest","_resolved":"https://registry.example/eslint.tgz"}`,
	"/work/node_modules/eslint/bin/eslint.js": `#!/usr/bin/env node
"use strict";
const pkg = require("../package.json");
const cli = require("../lib/cli-engine");
const fs = require("fs");
const config = JSON.parse(fs.readFileSync(process.cwd() + "/.eslintrc.json", "utf8"));
const result = cli.lint(process.argv.slice(2), config);
console.log(pkg.name + " " + pkg.version + ": " + result.output);
process.exitCode = result.errors > 0 ? 1 : 0;
`,
	"/work/node_modules/eslint/lib/cli-engine.js": `"use strict";
const path = require("path");
const importFresh = require("import-fresh");
const linter = require("./linter");
const formatters = "./formatters/";
module.exports.lint = function (files, config) {
	const recommended = importFresh(path.join(__dirname, "../conf/eslint-recommended.js"));
	const format = require(formatters + (config.format || "stylish"));
	const errors = linter.verify(files, Object.assign({}, recommended, config));
	return { output: format(files, errors), errors: errors };
};
`,
	"/work/node_modules/eslint/lib/formatters/stylish.js": `module.exports = function (files, errors) { return files.length + " files, " + errors + " problems"; };`,
	"/work/node_modules/eslint/lib/formatters/compact.js": `module.exports = function (files, errors) { return "compact:" + errors; };`,
	"/work/node_modules/eslint/lib/linter.js": `"use strict";
const parserName = ["es", "pree"].join("");
const parser = require(parserName);
let yaml = null;
try { yaml = require("js-yaml"); } catch (e) { yaml = null; }
module.exports.verify = function (files, config) {
	parser.parse("");
	if (yaml !== null) { throw new Error("js-yaml should not be bundled"); }
	return config.rules && config.rules.semi === "error" ? files.length : 0;
};
`,
	"/work/node_modules/eslint/conf/eslint-recommended.js":         `module.exports = { rules: { "no-undef": "error" } };`,
	"/work/node_modules/eslint/node_modules/js-yaml/index.js":      `module.exports = {};`,
	"/work/node_modules/eslint/node_modules/import-fresh/index.js": `module.exports = function () { throw new Error("import-fresh cannot run bundled"); };`,
	"/work/node_modules/espree/package.json":                       `{"name":"espree","main":"espree.js"}`,
	"/work/node_modules/espree/espree.js":                          `module.exports.parse = function () { return {}; };`,
	"/work/.eslintrc.json":                                         `{"rules":{"semi":"error"}}`,
}

type staticProvider struct {
	cfg *config.Config
	err error
}

func (p staticProvider) Load(context.Context, config.LoadOptions) (*config.Config, error) {
	return p.cfg, p.err
}

// testConfig returns the default configuration pointed at the test layout.
func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Bundle.Output = testContainer
	cfg.Run.Sandbox = false
	return cfg
}

func newTestApp(t *testing.T, fs afero.Fs, deps Dependencies) (*App, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	deps.FS = fs
	deps.Stdout = stdout
	deps.Stderr = stderr
	if deps.Config == nil {
		deps.Config = staticProvider{cfg: testConfig()}
	}
	deps.Executable = func() (string, error) { return testExecutable, nil }
	deps.Getwd = func() (string, error) { return testWorkDir, nil }
	return NewApp(deps), stdout, stderr
}

// newProgramFs returns a filesystem holding lintProgram.
func newProgramFs(t *testing.T) afero.Fs {
	t.Helper()
	return testutil.WriteTree(t, afero.NewMemMapFs(), lintProgram)
}

// execute runs the command tree with args against app.
func execute(t *testing.T, app *App, args ...string) error {
	t.Helper()
	root := NewRootCommand(app)
	root.SetArgs(args)
	root.SetOut(app.stdout)
	root.SetErr(app.stderr)
	return root.ExecuteContext(context.Background())
}

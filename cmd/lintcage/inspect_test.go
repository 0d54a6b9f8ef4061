// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"
	"go.yaml.in/yaml/v3"

	"github.com/lintcage/lintcage/pkg/container"
)

var cyclicUnits = []container.Unit{
	{Name: "app/a.js", Dependencies: []container.Dependency{{Reference: "./b", Target: "app/b.js"}, {Reference: "./data.json", Target: "app/data.json"}}, Content: `require("./b"); require("./data.json");`},
	{Name: "app/b.js", Dependencies: []container.Dependency{{Reference: "./a", Target: "app/a.js"}}, Content: `require("./a");`},
	{Name: "app/data.json", Content: `{}`},
}

var acyclicUnits = []container.Unit{
	{Name: "app/a.js", Dependencies: []container.Dependency{{Reference: "./b", Target: "app/b.js"}, {Reference: "./data.json", Target: "app/data.json"}}, Content: `require("./b"); require("./data.json");`},
	{Name: "app/b.js", Content: `module.exports = 1;`},
	{Name: "app/data.json", Content: `{}`},
}

func writeCyclicContainer(t *testing.T, compress bool) afero.Fs {
	t.Helper()
	return writeContainer(t, cyclicUnits, compress)
}

func writeContainer(t *testing.T, units []container.Unit, compress bool) afero.Fs {
	t.Helper()
	var buf bytes.Buffer
	if err := container.Encode(&buf, units); err != nil {
		t.Fatal(err)
	}
	data := buf.Bytes()
	if compress {
		data = container.Compress(data)
	}
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, testContainer, data, 0o644); err != nil {
		t.Fatal(err)
	}
	return fs
}

func TestBuildReport(t *testing.T) {
	t.Parallel()

	app, _, _ := newTestApp(t, writeCyclicContainer(t, true), Dependencies{})
	loaded, err := app.readContainer(testContainer)
	if err != nil {
		t.Fatalf("readContainer: %v", err)
	}

	report := buildReport(loaded)
	if !report.Compressed {
		t.Error("Compressed = false")
	}
	if report.Digest != container.Digest(loaded.Raw) {
		t.Errorf("Digest = %s", report.Digest)
	}
	if len(report.Units) != 3 || report.Units[0].Size != len(cyclicUnits[0].Content) {
		t.Errorf("Units = %+v", report.Units)
	}
	if want := [][]string{{"app/a.js", "app/b.js"}}; !reflect.DeepEqual(report.Cycles, want) {
		t.Errorf("Cycles = %v, want %v", report.Cycles, want)
	}
	if report.LoadOrder != nil {
		t.Errorf("LoadOrder = %v, want none for a cyclic container", report.LoadOrder)
	}
}

func TestBuildReport_LoadOrder(t *testing.T) {
	t.Parallel()

	app, _, _ := newTestApp(t, writeContainer(t, acyclicUnits, false), Dependencies{})
	loaded, err := app.readContainer(testContainer)
	if err != nil {
		t.Fatalf("readContainer: %v", err)
	}

	report := buildReport(loaded)
	if len(report.Cycles) != 0 {
		t.Errorf("Cycles = %v, want none", report.Cycles)
	}
	want := []string{"app/data.json", "app/b.js", "app/a.js"}
	if !reflect.DeepEqual(report.LoadOrder, want) {
		t.Errorf("LoadOrder = %v, want %v", report.LoadOrder, want)
	}
}

func TestInspectCommand_Formats(t *testing.T) {
	t.Parallel()

	decoders := map[string]func([]byte, any) error{
		formatJSON: json.Unmarshal,
		formatYAML: yaml.Unmarshal,
		formatTOML: toml.Unmarshal,
	}

	for format, decode := range decoders {
		t.Run(format, func(t *testing.T) {
			t.Parallel()

			app, stdout, _ := newTestApp(t, writeCyclicContainer(t, false), Dependencies{})
			if err := execute(t, app, "inspect", "--format", format); err != nil {
				t.Fatalf("inspect: %v", err)
			}

			var report inspectReport
			if err := decode(stdout.Bytes(), &report); err != nil {
				t.Fatalf("decode %s output: %v\n%s", format, err, stdout.String())
			}
			if report.Path != testContainer {
				t.Errorf("Path = %q", report.Path)
			}
			if len(report.Units) != 3 || report.Units[0].Dependencies["./b"] != "app/b.js" {
				t.Errorf("Units = %+v", report.Units)
			}
			if len(report.Cycles) != 1 {
				t.Errorf("Cycles = %v", report.Cycles)
			}
		})
	}
}

func TestInspectCommand_Text(t *testing.T) {
	t.Parallel()

	app, stdout, _ := newTestApp(t, writeCyclicContainer(t, false), Dependencies{})
	if err := execute(t, app, "inspect", testContainer); err != nil {
		t.Fatalf("inspect: %v", err)
	}

	out := stdout.String()
	for _, want := range []string{"Units (3)", "app/data.json", "Reference cycles (1)", "app/a.js -> app/b.js"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestInspectCommand_UnknownFormat(t *testing.T) {
	t.Parallel()

	app, _, _ := newTestApp(t, writeCyclicContainer(t, false), Dependencies{})
	if err := execute(t, app, "inspect", "--format", "xml"); err == nil {
		t.Fatal("expected an error for an unknown format")
	}
}

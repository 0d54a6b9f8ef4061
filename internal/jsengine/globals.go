// SPDX-License-Identifier: MPL-2.0

package jsengine

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"

	"github.com/dop251/goja"

	"github.com/lintcage/lintcage/pkg/platform"
)

// nodeVersion is reported as process.version.
const nodeVersion = "v10.24.1"

func (e *Engine) installGlobals() error {
	console, err := e.newConsole()
	if err != nil {
		return err
	}
	if err := e.vm.Set("console", console); err != nil {
		return err
	}

	process, err := e.newProcess()
	if err != nil {
		return err
	}
	e.process = process
	return e.vm.Set("process", process)
}

func (e *Engine) newConsole() (*goja.Object, error) {
	console := e.vm.NewObject()
	for name, w := range map[string]io.Writer{
		"log":   e.opts.Stdout,
		"info":  e.opts.Stdout,
		"debug": e.opts.Stdout,
		"warn":  e.opts.Stderr,
		"error": e.opts.Stderr,
	} {
		if err := console.Set(name, e.printer(w)); err != nil {
			return nil, err
		}
	}
	return console, nil
}

// printer formats its arguments with util.format and writes one line to w.
func (e *Engine) printer(w io.Writer) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		line, err := e.format(call.Arguments)
		if err != nil {
			e.throw(err)
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			e.throw(err)
		}
		return goja.Undefined()
	}
}

func (e *Engine) format(args []goja.Value) (string, error) {
	util, err := e.require.Require("util")
	if err != nil {
		return "", err
	}
	format, ok := goja.AssertFunction(util.ToObject(e.vm).Get("format"))
	if !ok {
		return "", fmt.Errorf("util.format: %w", ErrNotCallable)
	}
	out, err := format(goja.Undefined(), args...)
	if err != nil {
		return "", err
	}
	return out.String(), nil
}

func (e *Engine) newProcess() (*goja.Object, error) {
	process := e.vm.NewObject()

	env := e.vm.NewObject()
	keys := make([]string, 0, len(e.opts.Env))
	for k := range e.opts.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := env.Set(k, e.opts.Env[k]); err != nil {
			return nil, err
		}
	}

	argv := make([]any, len(e.opts.Argv))
	for i, a := range e.opts.Argv {
		argv[i] = a
	}

	nodePlatform, nodeArch := platform.Current()
	props := map[string]any{
		"argv":     e.vm.NewArray(argv...),
		"env":      env,
		"platform": nodePlatform,
		"arch":     nodeArch,
		"version":  nodeVersion,
		"versions": map[string]any{"node": nodeVersion[1:]},
		"pid":      0,
		"exitCode": goja.Undefined(),
		"stdout":   e.stream(e.opts.Stdout),
		"stderr":   e.stream(e.opts.Stderr),
		"cwd": func(goja.FunctionCall) goja.Value {
			return e.vm.ToValue(e.opts.Cwd)
		},
		"exit": func(call goja.FunctionCall) goja.Value {
			code := call.Argument(0)
			if goja.IsUndefined(code) || goja.IsNull(code) {
				code = process.Get("exitCode")
			}
			e.vm.Interrupt(&ExitError{Code: toExitCode(code)})
			return goja.Undefined()
		},
		"on": func(goja.FunctionCall) goja.Value {
			return process
		},
	}
	for name, v := range props {
		if err := process.Set(name, v); err != nil {
			return nil, err
		}
	}
	return process, nil
}

func (e *Engine) stream(w io.Writer) *goja.Object {
	s := e.vm.NewObject()
	_ = s.Set("write", func(call goja.FunctionCall) goja.Value {
		if _, err := io.WriteString(w, call.Argument(0).String()); err != nil {
			e.throw(err)
		}
		return e.vm.ToValue(true)
	})
	_ = s.Set("isTTY", false)
	return s
}

// ExitCode returns process.exitCode, or zero when the script never set it.
func (e *Engine) ExitCode() int {
	return toExitCode(e.process.Get("exitCode"))
}

func toExitCode(v goja.Value) int {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return 0
	}
	return int(v.ToInteger())
}

func dirname(filename string) string {
	return filepath.Dir(filename)
}

// SPDX-License-Identifier: MPL-2.0

package jsengine

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dop251/goja"
	"github.com/dop251/goja_nodejs/require"
	"github.com/spf13/afero"
	"github.com/tidwall/jsonc"

	// Registers the util core module used by console formatting.
	_ "github.com/dop251/goja_nodejs/util"

	"github.com/lintcage/lintcage/internal/fileaccess"
	"github.com/lintcage/lintcage/internal/namespace"
)

const (
	moduleWrapperHead = "(function (exports, require, module, __filename, __dirname) {"
	moduleWrapperTail = "\n})"
	nodeScheme        = "node:"
)

// ErrNotCallable is returned when a wrapped module body does not evaluate to a function.
var ErrNotCallable = errors.New("module wrapper is not callable")

type (
	// Options configures an Engine.
	Options struct {
		// Reader serves fs built-in reads. Defaults to the OS filesystem.
		Reader fileaccess.Reader
		// Stdout and Stderr receive console and process stream output.
		Stdout io.Writer
		Stderr io.Writer
		// Argv is exposed as process.argv.
		Argv []string
		// Env is exposed as process.env.
		Env map[string]string
		// Cwd is returned by process.cwd().
		Cwd string
	}

	// Engine runs units on a single goja runtime. It is not safe for
	// concurrent use.
	Engine struct {
		opts    Options
		vm      *goja.Runtime
		require *require.RequireModule
		process *goja.Object
		parse   goja.Callable
	}

	// ExitError reports a call to process.exit.
	ExitError struct {
		Code int
	}
)

var _ namespace.Engine = (*Engine)(nil)

// Error implements the error interface.
func (e *ExitError) Error() string {
	return fmt.Sprintf("process exited with code %d", e.Code)
}

// New creates an Engine with its globals installed.
func New(opts Options) (*Engine, error) {
	if opts.Reader == nil {
		opts.Reader = fileaccess.New(afero.NewOsFs())
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	if opts.Cwd == "" {
		if wd, err := os.Getwd(); err == nil {
			opts.Cwd = wd
		}
	}

	e := &Engine{opts: opts, vm: goja.New()}

	registry := require.NewRegistry(require.WithLoader(func(string) ([]byte, error) {
		return nil, require.ModuleFileDoesNotExistError
	}))
	registry.RegisterNativeModule("fs", e.fsModule)
	registry.RegisterNativeModule("path", e.pathModule)
	registry.RegisterNativeModule("os", e.osModule)
	e.require = registry.Enable(e.vm)

	parse, ok := goja.AssertFunction(e.vm.Get("JSON").ToObject(e.vm).Get("parse"))
	if !ok {
		return nil, fmt.Errorf("JSON.parse: %w", ErrNotCallable)
	}
	e.parse = parse

	if err := e.installGlobals(); err != nil {
		return nil, err
	}
	return e, nil
}

// Runtime returns the underlying goja runtime.
func (e *Engine) Runtime() *goja.Runtime {
	return e.vm
}

// NewExports implements namespace.Engine.
func (e *Engine) NewExports() any {
	return e.vm.NewObject()
}

// ParseData implements namespace.Engine. Comments and trailing commas are
// tolerated.
func (e *Engine) ParseData(filename, content string) (any, error) {
	clean := jsonc.ToJSON([]byte(content))
	v, err := e.parse(goja.Undefined(), e.vm.ToValue(string(clean)))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return v, nil
}

// Execute implements namespace.Engine.
func (e *Engine) Execute(m *namespace.Module, content string) error {
	program, err := goja.Compile(m.Filename, moduleWrapperHead+stripShebang(content)+moduleWrapperTail, false)
	if err != nil {
		return err
	}
	wrapper, err := e.vm.RunProgram(program)
	if err != nil {
		return e.translate(err)
	}
	fn, ok := goja.AssertFunction(wrapper)
	if !ok {
		return fmt.Errorf("%s: %w", m.Filename, ErrNotCallable)
	}

	exports := e.value(m.Exports)
	module := e.vm.NewObject()
	for name, v := range map[string]any{
		"id":       m.ID,
		"filename": m.Filename,
		"exports":  exports,
		"loaded":   false,
	} {
		if err := module.Set(name, v); err != nil {
			return err
		}
	}

	req, err := e.requireFunction(m)
	if err != nil {
		return err
	}

	_, err = fn(exports, exports, req, module, e.vm.ToValue(m.Filename), e.vm.ToValue(dirname(m.Filename)))
	if err != nil {
		return e.translate(err)
	}
	m.Exports = module.Get("exports")
	return module.Set("loaded", true)
}

// Fallback implements namespace.Engine by loading a built-in module.
func (e *Engine) Fallback(reference string) (any, error) {
	return e.require.Require(strings.TrimPrefix(reference, nodeScheme))
}

// WrapLoader implements namespace.Engine.
func (e *Engine) WrapLoader(fn func(id string) (any, error)) any {
	return e.vm.ToValue(func(call goja.FunctionCall) goja.Value {
		v, err := fn(call.Argument(0).String())
		if err != nil {
			e.throw(err)
		}
		return e.value(v)
	})
}

func (e *Engine) requireFunction(m *namespace.Module) (*goja.Object, error) {
	req := e.vm.ToValue(func(call goja.FunctionCall) goja.Value {
		v, err := m.Require(call.Argument(0).String())
		if err != nil {
			e.throw(err)
		}
		return e.value(v)
	}).ToObject(e.vm)

	resolve := func(call goja.FunctionCall) goja.Value {
		p, err := m.Resolve(call.Argument(0).String())
		if err != nil {
			e.throw(err)
		}
		return e.vm.ToValue(p)
	}
	if err := req.Set("resolve", resolve); err != nil {
		return nil, err
	}
	if err := req.Set("cache", e.vm.NewObject()); err != nil {
		return nil, err
	}
	return req, nil
}

// value converts a Go value into a runtime value.
func (e *Engine) value(v any) goja.Value {
	if gv, ok := v.(goja.Value); ok {
		return gv
	}
	return e.vm.ToValue(v)
}

// throw raises err inside the running script. A pending process exit is
// re-armed instead so it cannot be caught by script code.
func (e *Engine) throw(err error) {
	var exit *ExitError
	if errors.As(err, &exit) {
		e.vm.Interrupt(exit)
		panic(e.vm.ToValue(exit.Error()))
	}
	panic(e.vm.NewGoError(err))
}

// translate maps interrupts raised by process.exit back to *ExitError.
func (e *Engine) translate(err error) error {
	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) {
		if exit, ok := interrupted.Value().(*ExitError); ok {
			return exit
		}
	}
	return err
}

// ClearExit resets a pending process exit so the runtime can be reused.
func (e *Engine) ClearExit() {
	e.vm.ClearInterrupt()
}

func stripShebang(content string) string {
	if strings.HasPrefix(content, "#!") {
		return "//" + content[2:]
	}
	return content
}

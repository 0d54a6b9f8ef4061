// SPDX-License-Identifier: MPL-2.0

package jsengine

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/dop251/goja"

	"github.com/lintcage/lintcage/pkg/platform"
)

// errnoCodes maps the errors fs built-ins surface to Node error codes.
var errnoCodes = []struct {
	err  error
	code string
}{
	{fs.ErrNotExist, "ENOENT"},
	{fs.ErrPermission, "EACCES"},
	{syscall.ENOSYS, "ENOSYS"},
	{syscall.EPERM, "EPERM"},
	{syscall.EISDIR, "EISDIR"},
}

func exportsOf(module *goja.Object) *goja.Object {
	return module.Get("exports").(*goja.Object)
}

func (e *Engine) fsModule(vm *goja.Runtime, module *goja.Object) {
	exports := exportsOf(module)

	_ = exports.Set("readFileSync", func(call goja.FunctionCall) goja.Value {
		path := call.Argument(0).String()
		encoding := encodingArgument(vm, call.Argument(1))
		data, err := e.opts.Reader.ReadFile(path, encoding)
		if err != nil {
			panic(e.nodeError(err, "open", path))
		}
		if encoding == "" {
			return vm.ToValue(vm.NewArrayBuffer(data))
		}
		return vm.ToValue(string(data))
	})

	_ = exports.Set("existsSync", func(call goja.FunctionCall) goja.Value {
		_, err := e.opts.Reader.Stat(call.Argument(0).String())
		return vm.ToValue(err == nil)
	})

	stat := func(call goja.FunctionCall) goja.Value {
		path := call.Argument(0).String()
		info, err := e.opts.Reader.Stat(path)
		if err != nil {
			panic(e.nodeError(err, "stat", path))
		}
		return e.statObject(info)
	}
	_ = exports.Set("statSync", stat)
	_ = exports.Set("lstatSync", stat)
}

func (e *Engine) statObject(info os.FileInfo) goja.Value {
	s := e.vm.NewObject()
	_ = s.Set("size", info.Size())
	_ = s.Set("mode", uint32(info.Mode()))
	_ = s.Set("mtimeMs", info.ModTime().UnixMilli())
	_ = s.Set("isFile", func(goja.FunctionCall) goja.Value { return e.vm.ToValue(info.Mode().IsRegular()) })
	_ = s.Set("isDirectory", func(goja.FunctionCall) goja.Value { return e.vm.ToValue(info.IsDir()) })
	_ = s.Set("isSymbolicLink", func(goja.FunctionCall) goja.Value {
		return e.vm.ToValue(info.Mode()&os.ModeSymlink != 0)
	})
	return s
}

// nodeError builds an Error carrying a Node style code property.
func (e *Engine) nodeError(err error, syscallName, path string) *goja.Object {
	obj := e.vm.NewGoError(err)
	for _, c := range errnoCodes {
		if errors.Is(err, c.err) {
			_ = obj.Set("code", c.code)
			break
		}
	}
	_ = obj.Set("syscall", syscallName)
	_ = obj.Set("path", path)
	return obj
}

// encodingArgument accepts either an encoding string or an options object.
func encodingArgument(vm *goja.Runtime, v goja.Value) string {
	if goja.IsUndefined(v) || goja.IsNull(v) {
		return ""
	}
	if obj, ok := v.(*goja.Object); ok {
		enc := obj.Get("encoding")
		if enc == nil || goja.IsUndefined(enc) || goja.IsNull(enc) {
			return ""
		}
		return enc.String()
	}
	return v.String()
}

func (e *Engine) pathModule(vm *goja.Runtime, module *goja.Object) {
	exports := exportsOf(module)

	strs := func(args []goja.Value) []string {
		out := make([]string, len(args))
		for i, a := range args {
			out[i] = a.String()
		}
		return out
	}

	_ = exports.Set("sep", string(filepath.Separator))
	_ = exports.Set("delimiter", string(filepath.ListSeparator))
	_ = exports.Set("join", func(call goja.FunctionCall) goja.Value {
		joined := filepath.Join(strs(call.Arguments)...)
		if joined == "" {
			joined = "."
		}
		return vm.ToValue(joined)
	})
	_ = exports.Set("resolve", func(call goja.FunctionCall) goja.Value {
		return vm.ToValue(resolvePath(e.opts.Cwd, strs(call.Arguments)))
	})
	_ = exports.Set("normalize", func(call goja.FunctionCall) goja.Value {
		return vm.ToValue(filepath.Clean(call.Argument(0).String()))
	})
	_ = exports.Set("isAbsolute", func(call goja.FunctionCall) goja.Value {
		return vm.ToValue(filepath.IsAbs(call.Argument(0).String()))
	})
	_ = exports.Set("dirname", func(call goja.FunctionCall) goja.Value {
		return vm.ToValue(filepath.Dir(call.Argument(0).String()))
	})
	_ = exports.Set("extname", func(call goja.FunctionCall) goja.Value {
		return vm.ToValue(filepath.Ext(call.Argument(0).String()))
	})
	_ = exports.Set("basename", func(call goja.FunctionCall) goja.Value {
		base := filepath.Base(call.Argument(0).String())
		if ext := call.Argument(1); !goja.IsUndefined(ext) {
			base = strings.TrimSuffix(base, ext.String())
		}
		return vm.ToValue(base)
	})
	_ = exports.Set("relative", func(call goja.FunctionCall) goja.Value {
		from := resolvePath(e.opts.Cwd, []string{call.Argument(0).String()})
		to := resolvePath(e.opts.Cwd, []string{call.Argument(1).String()})
		rel, err := filepath.Rel(from, to)
		if err != nil {
			e.throw(err)
		}
		if rel == "." {
			rel = ""
		}
		return vm.ToValue(rel)
	})
	_ = exports.Set("posix", exports)
}

// resolvePath applies segments right to left until an absolute path is formed.
func resolvePath(cwd string, segments []string) string {
	resolved := ""
	for i := len(segments) - 1; i >= 0; i-- {
		if segments[i] == "" {
			continue
		}
		resolved = filepath.Join(segments[i], resolved)
		if filepath.IsAbs(resolved) {
			return filepath.Clean(resolved)
		}
	}
	return filepath.Join(cwd, resolved)
}

func (e *Engine) osModule(vm *goja.Runtime, module *goja.Object) {
	exports := exportsOf(module)

	_ = exports.Set("EOL", "\n")
	nodePlatform, nodeArch := platform.Current()
	_ = exports.Set("platform", func(goja.FunctionCall) goja.Value {
		return vm.ToValue(nodePlatform)
	})
	_ = exports.Set("arch", func(goja.FunctionCall) goja.Value {
		return vm.ToValue(nodeArch)
	})
	_ = exports.Set("homedir", func(goja.FunctionCall) goja.Value {
		return vm.ToValue(e.opts.Env["HOME"])
	})
	_ = exports.Set("tmpdir", func(goja.FunctionCall) goja.Value {
		return vm.ToValue(os.TempDir())
	})
}

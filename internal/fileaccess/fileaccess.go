// SPDX-License-Identifier: MPL-2.0

// Package fileaccess provides the file reader the execution engine uses for
// fs built-ins, and a decorator that answers one configuration file from
// memory once the process can no longer open files.
package fileaccess

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/afero"
)

// ErrUnsupportedEncoding is returned for encodings other than utf8 and raw.
var ErrUnsupportedEncoding = errors.New("unsupported encoding")

type (
	// Reader reads whole files. An empty encoding returns raw bytes; "utf8"
	// and "utf-8" return text.
	Reader interface {
		ReadFile(path, encoding string) ([]byte, error)
		Stat(path string) (os.FileInfo, error)
	}

	fsReader struct {
		fs afero.Fs
	}

	interceptor struct {
		next     Reader
		path     string
		encoding string
		content  []byte
	}
)

// New returns a Reader over fs.
func New(fs afero.Fs) Reader {
	return &fsReader{fs: fs}
}

func (r *fsReader) ReadFile(path, encoding string) ([]byte, error) {
	if err := checkEncoding(encoding); err != nil {
		return nil, err
	}
	return afero.ReadFile(r.fs, path)
}

func (r *fsReader) Stat(path string) (os.FileInfo, error) {
	return r.fs.Stat(path)
}

// Intercept returns a Reader that serves content for exactly the
// (path, encoding) pair and delegates every other read to next. Both are
// compared verbatim: "/work/./x" and "UTF-8" do not match "/work/x" and
// "utf8".
func Intercept(next Reader, path, encoding string, content []byte) Reader {
	return &interceptor{
		next:     next,
		path:     path,
		encoding: encoding,
		content:  content,
	}
}

func (i *interceptor) ReadFile(path, encoding string) ([]byte, error) {
	if path == i.path && encoding == i.encoding {
		out := make([]byte, len(i.content))
		copy(out, i.content)
		return out, nil
	}
	return i.next.ReadFile(path, encoding)
}

func (i *interceptor) Stat(path string) (os.FileInfo, error) {
	return i.next.Stat(path)
}

func normalizeEncoding(encoding string) string {
	switch e := strings.ToLower(encoding); e {
	case "utf-8":
		return "utf8"
	default:
		return e
	}
}

func checkEncoding(encoding string) error {
	switch normalizeEncoding(encoding) {
	case "", "utf8":
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedEncoding, encoding)
	}
}

// SPDX-License-Identifier: MPL-2.0

// Package jsengine executes bundled CommonJS units on the goja runtime.
//
// An [Engine] implements namespace.Engine. Every code unit is compiled
// inside the usual module wrapper and receives a require function backed by
// the unit's recorded dependencies. References the container does not
// record fall back to a goja_nodejs require registry holding the native
// built-ins (fs, path, os and util). File reads made through the fs
// built-in go through an injected fileaccess.Reader.
package jsengine

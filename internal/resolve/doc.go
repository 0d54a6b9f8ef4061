// SPDX-License-Identifier: MPL-2.0

// Package resolve implements CommonJS module-identity resolution over an
// afero filesystem.
//
// The algorithm is the one the packaged program would see when run
// unmodified: built-in module names resolve to themselves, path-like
// references are tried as a file (exact, then with .js, .json and .node
// appended) and then as a directory (package.json "main", then index
// files), and bare references are looked up in every node_modules
// directory from the referrer's directory up to the filesystem root.
//
// Parsed package.json "main" fields are kept in an LRU cache because large
// dependency trees consult the same manifests many times.
package resolve

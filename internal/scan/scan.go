// SPDX-License-Identifier: MPL-2.0

// Package scan extracts require() references from CommonJS source text.
//
// It is a heuristic, not a lexer: block comments and string literals that
// happen to contain "require(" are not understood. The only comment form
// recognized is a "//" earlier on the same line as the call.
package scan

import (
	"regexp"
	"strings"
)

var requirePattern = regexp.MustCompile(`\brequire\s*\(\s*['"]([^'"]+)`)

// References returns the literal strings passed to require in content, in
// source order. Duplicates are kept.
func References(content string) []string {
	var refs []string
	for _, m := range requirePattern.FindAllStringSubmatchIndex(content, -1) {
		if commentedOut(content, m[0]) {
			continue
		}
		refs = append(refs, content[m[2]:m[3]])
	}
	return refs
}

// commentedOut reports whether a "//" sits between the start of the line
// and the match at index.
func commentedOut(content string, index int) bool {
	before := content[:index]
	return strings.LastIndex(before, "//") > strings.LastIndex(before, "\n")
}

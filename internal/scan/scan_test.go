// SPDX-License-Identifier: MPL-2.0

package scan

import (
	"slices"
	"testing"
)

func TestReferences(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{
			name:    "single quoted",
			content: "const lib = require('lib');",
			want:    []string{"lib"},
		},
		{
			name:    "double quoted with spaces",
			content: `const x = require ( "./x" );`,
			want:    []string{"./x"},
		},
		{
			name:    "duplicates preserved",
			content: "require('a');\nrequire('b');\nrequire('a');",
			want:    []string{"a", "b", "a"},
		},
		{
			name:    "same-line comment excludes",
			content: "const lib = require('lib'); // require('unused')",
			want:    []string{"lib"},
		},
		{
			name:    "comment on previous line does not exclude",
			content: "// see below\nrequire('lib');",
			want:    []string{"lib"},
		},
		{
			name:    "commented line",
			content: "// require('unused');\nrequire('lib');",
			want:    []string{"lib"},
		},
		{
			name:    "word boundary required",
			content: "myrequire('nope'); require('yes')",
			want:    []string{"yes"},
		},
		{
			name:    "template literal ignored",
			content: "require(`dynamic`); require(name)",
			want:    nil,
		},
		{
			name:    "block comments are not understood",
			content: "/* require('inside') */",
			want:    []string{"inside"},
		},
		{
			name:    "match at start of text",
			content: "require('first')",
			want:    []string{"first"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := References(tt.content)
			if !slices.Equal(got, tt.want) {
				t.Errorf("References() = %q, want %q", got, tt.want)
			}
		})
	}
}

// SPDX-License-Identifier: MPL-2.0

// Package override holds out-of-band corrections for units that static
// scanning cannot describe correctly.
//
// An entry either suppresses a unit entirely or injects extra references
// that the unit only materializes at runtime (for example from a directory
// listing). The table remembers which entries were consulted so that stale
// entries can be reported once resolution finishes.
package override

import "slices"

type (
	// Entry is the policy for one canonical identity.
	Entry struct {
		// Ignore excludes the unit and treats every reference to it as absent.
		Ignore bool
		// AdditionalReferences are resolved as if they appeared in the
		// unit's content.
		AdditionalReferences []string
	}

	// Table maps canonical identities to entries and tracks their use.
	Table struct {
		entries map[string]*tracked
		order   []string
	}

	tracked struct {
		entry Entry
		used  bool
	}
)

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{entries: make(map[string]*tracked)}
}

// Set adds or replaces the entry for identity. Replacing keeps the
// original insertion position and clears the used mark.
func (t *Table) Set(identity string, entry Entry) {
	if existing, ok := t.entries[identity]; ok {
		existing.entry = entry
		existing.used = false
		return
	}
	t.entries[identity] = &tracked{entry: entry}
	t.order = append(t.order, identity)
}

// Lookup returns the entry for identity and marks it used. Identities
// without an entry get the zero Entry.
func (t *Table) Lookup(identity string) (Entry, bool) {
	tr, ok := t.entries[identity]
	if !ok {
		return Entry{}, false
	}
	tr.used = true
	return Entry{
		Ignore:               tr.entry.Ignore,
		AdditionalReferences: slices.Clone(tr.entry.AdditionalReferences),
	}, true
}

// Len returns the number of entries.
func (t *Table) Len() int {
	return len(t.order)
}

// Unused returns, in insertion order, the identities never looked up.
func (t *Table) Unused() []string {
	var unused []string
	for _, identity := range t.order {
		if !t.entries[identity].used {
			unused = append(unused, identity)
		}
	}
	return unused
}

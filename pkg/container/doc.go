// SPDX-License-Identifier: MPL-2.0

// Package container implements the lintcage container format: a flat
// sequence of unit records, each made of length-prefixed UTF-8 strings.
//
// Every string is preceded by a big-endian uint32 header. The top bit of the
// header is a boolean flag and the remaining 31 bits are the byte length:
//
//	Container    := UnitRecord*
//	UnitRecord   := NameEntry DepEntry* ContentEntry
//	NameEntry    := Entry   // flag set iff the unit has no dependencies
//	DepEntry     := KeyEntry TargetEntry
//	KeyEntry     := Entry   // flag set on the last dependency of the record
//	TargetEntry  := Entry   // flag always clear
//	ContentEntry := Entry   // flag always clear
//
// Records appear in first-discovery order. Readers must not assume that a
// dependency precedes the units that reference it.
//
// The package also provides optional zstd framing ([Compress],
// [Decompress]) and a BLAKE3 [Digest] used to pin a container in run
// configurations.
package container

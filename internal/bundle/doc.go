// SPDX-License-Identifier: MPL-2.0

// Package bundle discovers the units a CommonJS program needs and turns
// them into container records.
//
// Discovery starts from one or more entry references. Each code unit is
// scanned for require() literals ([scan.References]), each literal is
// resolved with the host algorithm, and every newly seen identity is
// registered before its content is read so that a unit found twice while
// its first read is still outstanding is never queued twice. Reads of one
// breadth-first level run concurrently; their results are processed in
// registration order, which keeps the container byte-for-byte
// reproducible.
//
// The [override.Table] supplied by the caller can suppress units or inject
// references the scanner cannot see. Entries never consulted during a run
// are reported as warnings.
package bundle

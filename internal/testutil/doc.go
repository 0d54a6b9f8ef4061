// SPDX-License-Identifier: MPL-2.0

// Package testutil provides fixture helpers that fail the test on error:
// MustWriteFile for host files and WriteTree for afero filesystems.
package testutil

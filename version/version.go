// Package version compares the ASCII/UTF-8 component version strings
// carried in GetFirmwareParameters and PassComponentTable bodies
// (§3). Most firmware vendors tag images with a semver-shaped
// string, so this package prefers blang/semver for the comparison and
// falls back to byte equality for anything that doesn't parse — PLDM
// never mandates semver, it only mandates a type tag and bytes.
package version

import (
	"bytes"

	"github.com/blang/semver"
)

// Compare orders two version strings. It returns -1, 0, or 1 like
// bytes.Compare. When both strings parse as semver, semver ordering
// wins; otherwise it falls back to byte comparison so opaque
// vendor-defined strings still have a total order.
func Compare(a, b []byte) int {
	va, errA := semver.Parse(string(a))
	vb, errB := semver.Parse(string(b))
	if errA == nil && errB == nil {
		return va.Compare(vb)
	}
	return bytes.Compare(a, b)
}

// Equal reports whether two version strings identify the same
// component image, used to decide whether PassComponentTable should
// report a component as already up to date.
func Equal(a, b []byte) bool {
	return Compare(a, b) == 0
}

// IsNewer reports whether candidate is a newer version than current.
func IsNewer(candidate, current []byte) bool {
	return Compare(candidate, current) > 0
}

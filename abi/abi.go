// Package abi classifies resolved wai types for the canonical ABI: linear
// memory layout on one side, core value flattening on the other.
//
// Layout follows the canonical ABI rules. Integers and floats take their
// natural size and alignment, strings and lists are (pointer, length)
// pairs, records place fields in declaration order with padding, and
// discriminated types put the smallest discriminant that fits ahead of an
// aligned payload slot sized for the largest case.
//
// Flattening maps a type onto core wasm scalars for call signatures. A
// signature whose flattened parameters exceed MaxFlatParams is passed
// through one pointer into linear memory instead; a result with more than
// MaxFlatResults slots moves behind a caller-provided return pointer.
package abi

// Flattening limits from the canonical ABI.
const (
	MaxFlatParams  = 16
	MaxFlatResults = 1
)

// AlignTo rounds ptr up to the next multiple of align. Align must be a
// power of two.
func AlignTo(ptr, align uint32) uint32 {
	return (ptr + align - 1) &^ (align - 1)
}

// DiscriminantSize returns the byte width of the smallest unsigned integer
// that can index numCases cases: 1 for up to 256, 2 for up to 65536, else 4.
func DiscriminantSize(numCases int) uint32 {
	if numCases <= 256 {
		return 1
	} else if numCases <= 65536 {
		return 2
	}
	return 4
}

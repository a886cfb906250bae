// Package transcoder moves Go values across the canonical ABI boundary.
//
// Lowering (Encoder) turns Go values into core stack slots plus linear
// memory writes; lifting (Decoder) reads them back. Both sides share one
// layout calculator so offsets always agree.
//
// The Go value model is dynamic. Primitives map to their obvious Go
// types, records to map[string]any, tuples and lists to []any (with a
// []byte fast path for byte lists), and the discriminated types to the
// small wrapper structs in this package. Handles cross as Handle.
//
// Signatures whose flattened parameters exceed the ABI limit are spilled
// into one memory block addressed by a single pointer; oversized results
// are read back through a return pointer. Every allocation made while
// lowering is tracked in an AllocationList so the caller can free it
// after the call completes, or on error.
package transcoder

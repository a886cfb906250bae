// Package resource implements the refcounted handle tables backing
// resource types.
//
// Each resource type gets its own Table mapping integer handles to host
// values. Handles are reference counted: Insert creates a handle with one
// reference, Clone adds one, Drop removes one. When the count reaches
// zero the table runs the type's destructor exactly once and recycles the
// slot. Handle 0 is reserved and always invalid.
//
// Dropping a handle more times than it was referenced is a contract
// violation and reported as an error; the destructor never runs twice.
//
// # Lifecycle safety net
//
// Host code that owns a handle through an Owned wrapper gets a GC cleanup
// as backstop: if the wrapper becomes unreachable while its handle is
// still live, the handle is dropped and a warning is logged. Explicit
// Drop remains the correct way to release a resource; the cleanup only
// catches leaks.
package resource

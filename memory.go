package wai

// Memory is the linear memory that lowered values are written into and
// lifted from. Multi-byte reads and writes are little-endian.
type Memory interface {
	Read(offset uint32, length uint32) ([]byte, error)
	Write(offset uint32, data []byte) error
	ReadU8(offset uint32) (uint8, error)
	ReadU16(offset uint32) (uint16, error)
	ReadU32(offset uint32) (uint32, error)
	ReadU64(offset uint32) (uint64, error)
	WriteU8(offset uint32, value uint8) error
	WriteU16(offset uint32, value uint16) error
	WriteU32(offset uint32, value uint32) error
	WriteU64(offset uint32, value uint64) error
}

// Allocator is the allocator export contract generated glue relies on.
// Realloc follows grow/realloc semantics: given the old pointer, old size,
// required alignment, and new size it returns a pointer whose overlapping
// prefix preserves the old contents. Alloc is Realloc from a nil block.
type Allocator interface {
	Alloc(size, align uint32) (uint32, error)
	Realloc(ptr, oldSize, align, newSize uint32) (uint32, error)
	Free(ptr, size, align uint32)
}

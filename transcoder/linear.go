package transcoder

import (
	"encoding/binary"

	"github.com/wasmerio/wai/abi"
	"github.com/wasmerio/wai/errors"
)

// LinearMemory is a byte-slice backed Memory with a bump allocator. It
// backs tests and in-process hosting; Free is a no-op, so callers reclaim
// space by dropping the whole memory.
type LinearMemory struct {
	data []byte
	next uint32
}

// NewLinearMemory creates a memory with the given initial capacity. The
// memory grows on demand. Offset 0 is reserved as the null pointer.
func NewLinearMemory(size uint32) *LinearMemory {
	if size < 8 {
		size = 8
	}
	return &LinearMemory{
		data: make([]byte, size),
		next: 8,
	}
}

func (m *LinearMemory) bounds(offset, length uint32) error {
	end := uint64(offset) + uint64(length)
	if end > uint64(len(m.data)) {
		return errors.New(errors.PhaseDecode, errors.KindOverflow).
			Detail("memory access [%d, %d) out of bounds (size %d)", offset, end, len(m.data)).
			Build()
	}
	return nil
}

func (m *LinearMemory) Read(offset, length uint32) ([]byte, error) {
	if err := m.bounds(offset, length); err != nil {
		return nil, err
	}
	out := make([]byte, length)
	copy(out, m.data[offset:offset+length])
	return out, nil
}

func (m *LinearMemory) Write(offset uint32, data []byte) error {
	if err := m.bounds(offset, uint32(len(data))); err != nil {
		return err
	}
	copy(m.data[offset:], data)
	return nil
}

func (m *LinearMemory) ReadU8(offset uint32) (uint8, error) {
	if err := m.bounds(offset, 1); err != nil {
		return 0, err
	}
	return m.data[offset], nil
}

func (m *LinearMemory) ReadU16(offset uint32) (uint16, error) {
	if err := m.bounds(offset, 2); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(m.data[offset:]), nil
}

func (m *LinearMemory) ReadU32(offset uint32) (uint32, error) {
	if err := m.bounds(offset, 4); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(m.data[offset:]), nil
}

func (m *LinearMemory) ReadU64(offset uint32) (uint64, error) {
	if err := m.bounds(offset, 8); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(m.data[offset:]), nil
}

func (m *LinearMemory) WriteU8(offset uint32, value uint8) error {
	if err := m.bounds(offset, 1); err != nil {
		return err
	}
	m.data[offset] = value
	return nil
}

func (m *LinearMemory) WriteU16(offset uint32, value uint16) error {
	if err := m.bounds(offset, 2); err != nil {
		return err
	}
	binary.LittleEndian.PutUint16(m.data[offset:], value)
	return nil
}

func (m *LinearMemory) WriteU32(offset uint32, value uint32) error {
	if err := m.bounds(offset, 4); err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(m.data[offset:], value)
	return nil
}

func (m *LinearMemory) WriteU64(offset uint32, value uint64) error {
	if err := m.bounds(offset, 8); err != nil {
		return err
	}
	binary.LittleEndian.PutUint64(m.data[offset:], value)
	return nil
}

func (m *LinearMemory) Alloc(size, align uint32) (uint32, error) {
	if size > MaxAlloc {
		return 0, errors.New(errors.PhaseEncode, errors.KindOverflow).
			Detail("allocation of %d bytes exceeds limit", size).
			Build()
	}
	if align == 0 {
		align = 1
	}
	ptr := abi.AlignTo(m.next, align)
	end := uint64(ptr) + uint64(size)
	for end > uint64(len(m.data)) {
		m.data = append(m.data, make([]byte, len(m.data))...)
	}
	m.next = uint32(end)
	return ptr, nil
}

func (m *LinearMemory) Realloc(ptr, oldSize, align, newSize uint32) (uint32, error) {
	if ptr == 0 || oldSize == 0 {
		return m.Alloc(newSize, align)
	}
	newPtr, err := m.Alloc(newSize, align)
	if err != nil {
		return 0, err
	}
	n := oldSize
	if newSize < n {
		n = newSize
	}
	copy(m.data[newPtr:newPtr+n], m.data[ptr:ptr+n])
	return newPtr, nil
}

func (m *LinearMemory) Free(ptr, size, align uint32) {}

// Size returns the current memory size in bytes.
func (m *LinearMemory) Size() uint32 {
	return uint32(len(m.data))
}

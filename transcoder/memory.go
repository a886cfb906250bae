package transcoder

import (
	"sync"

	"github.com/wasmerio/wai"
)

type Memory = wai.Memory
type Allocator = wai.Allocator

// Safety limits applied while lifting untrusted memory.
const (
	MaxStringSize = 16 << 20 // 16 MB
	MaxListLength = 1 << 20  // 1M elements
	MaxAlloc      = 1 << 30  // 1 GB
)

// Allocation is one block handed out by the allocator during lowering.
type Allocation struct {
	Ptr   uint32
	Size  uint32
	Align uint32
}

// AllocationList tracks the allocations made while lowering one call so
// they can be freed together.
type AllocationList struct {
	allocations []Allocation
}

var allocationListPool = sync.Pool{
	New: func() any {
		return &AllocationList{allocations: make([]Allocation, 0, 8)}
	},
}

func NewAllocationList() *AllocationList {
	return allocationListPool.Get().(*AllocationList)
}

const maxPooledAllocationCapacity = 128

// Release returns the list to the pool. The list is invalid afterwards.
func (al *AllocationList) Release() {
	if cap(al.allocations) > maxPooledAllocationCapacity {
		return
	}
	al.Reset()
	allocationListPool.Put(al)
}

func (al *AllocationList) FreeAndRelease(allocator Allocator) {
	al.Free(allocator)
	al.Release()
}

func (al *AllocationList) Add(ptr, size, align uint32) {
	al.allocations = append(al.allocations, Allocation{
		Ptr:   ptr,
		Size:  size,
		Align: align,
	})
}

func (al *AllocationList) Free(allocator Allocator) {
	if allocator == nil {
		return
	}
	for _, a := range al.allocations {
		if a.Ptr != 0 {
			allocator.Free(a.Ptr, a.Size, a.Align)
		}
	}
}

func (al *AllocationList) Reset() {
	al.allocations = al.allocations[:0]
}

func (al *AllocationList) Count() int {
	return len(al.allocations)
}

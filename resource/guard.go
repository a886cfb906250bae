package resource

import (
	"runtime"

	"go.uber.org/zap"

	"github.com/wasmerio/wai"
)

// Owned ties a handle's reference to the lifetime of a Go value. Drop
// releases the reference explicitly; if the wrapper becomes unreachable
// first, a GC cleanup drops the handle and logs a warning.
type Owned struct {
	table   *Table
	handle  Handle
	gen     uint64
	cleanup runtime.Cleanup
}

type cleanupArgs struct {
	table  *Table
	handle Handle
	gen    uint64
}

// InsertOwned stores a value and wraps the resulting handle. The caller
// should call Drop when done with it.
func (t *Table) InsertOwned(value any) (*Owned, error) {
	handle, gen, err := t.insert(value)
	if err != nil {
		return nil, err
	}
	o := &Owned{table: t, handle: handle, gen: gen}
	// The cleanup must not reference o itself or it would never run.
	o.cleanup = runtime.AddCleanup(o, dropLeaked, cleanupArgs{table: t, handle: handle, gen: gen})
	return o, nil
}

// Handle returns the wrapped handle.
func (o *Owned) Handle() Handle {
	return o.handle
}

// Value returns the wrapped value, or an error if the handle was already
// dropped out from under the wrapper.
func (o *Owned) Value() (any, error) {
	return o.table.Get(o.handle)
}

// Drop releases the wrapper's reference and disarms the GC backstop.
// Calling Drop twice returns the table's contract violation error.
func (o *Owned) Drop() error {
	o.cleanup.Stop()
	return o.table.Drop(o.handle)
}

func dropLeaked(args cleanupArgs) {
	// The generation check keeps the cleanup away from a slot a later
	// Insert recycled.
	if !args.table.dropRef(args.handle, args.gen, true) {
		return
	}
	wai.Logger().Warn("handle leaked, dropped by GC cleanup",
		zap.String("resource", args.table.Name()),
		zap.Uint32("handle", uint32(args.handle)))
}

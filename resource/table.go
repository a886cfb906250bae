package resource

import (
	"sync"

	"go.uber.org/zap"

	"github.com/wasmerio/wai"
	"github.com/wasmerio/wai/errors"
)

// Handle is an opaque reference into a table. Handle 0 is reserved and
// always invalid.
type Handle uint32

// Destructor runs exactly once when a value's last reference is dropped.
type Destructor func(value any)

// Table is the handle table for one resource type. All methods are safe
// for concurrent use.
type Table struct {
	name      string
	dtor      Destructor
	mu        sync.Mutex
	entries   []entry
	freeList  []Handle
	observers []Observer
	live      int
	closed    bool
}

type entry struct {
	value any
	refs  uint32
	gen   uint64 // bumped on every reuse of the slot
	valid bool
}

// NewTable creates a table for the named resource type. dtor may be nil
// for values that need no cleanup.
func NewTable(name string, dtor Destructor) *Table {
	return &Table{
		name:     name,
		dtor:     dtor,
		entries:  make([]entry, 0, 64),
		freeList: make([]Handle, 0, 16),
	}
}

// Name returns the resource type name the table was created for.
func (t *Table) Name() string {
	return t.name
}

// Insert stores a value and returns a fresh handle holding one reference.
func (t *Table) Insert(value any) (Handle, error) {
	handle, _, err := t.insert(value)
	return handle, err
}

// insert also returns the slot generation so the Owned cleanup can tell a
// recycled slot apart from the handle it was armed for.
func (t *Table) insert(value any) (Handle, uint64, error) {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return 0, 0, errors.New(errors.PhaseRuntime, errors.KindClosed).
			Name(t.name).
			Detail("table is closed").
			Build()
	}

	e := entry{value: value, refs: 1, valid: true}
	var handle Handle
	if n := len(t.freeList); n > 0 {
		handle = t.freeList[n-1]
		t.freeList = t.freeList[:n-1]
		e.gen = t.entries[handle-1].gen + 1
		t.entries[handle-1] = e
	} else {
		t.entries = append(t.entries, e)
		handle = Handle(len(t.entries))
	}
	gen := e.gen
	t.live++
	t.mu.Unlock()

	t.notify(Event{Type: EventCreated, Handle: handle, Value: value})
	return handle, gen, nil
}

// Get returns the value a live handle refers to.
func (t *Table) Get(handle Handle) (any, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e := t.lookup(handle)
	if e == nil {
		return nil, errors.InvalidHandle(uint32(handle))
	}
	return e.value, nil
}

// Clone adds one reference to a live handle.
func (t *Table) Clone(handle Handle) error {
	t.mu.Lock()
	e := t.lookup(handle)
	if e == nil {
		t.mu.Unlock()
		return errors.InvalidHandle(uint32(handle))
	}
	e.refs++
	value := e.value
	t.mu.Unlock()

	t.notify(Event{Type: EventCloned, Handle: handle, Value: value})
	return nil
}

// Drop removes one reference. The destructor runs when the last reference
// goes away. Dropping a dead handle is a contract violation.
func (t *Table) Drop(handle Handle) error {
	if !t.dropRef(handle, 0, false) {
		return errors.Contract("handle %d of %s dropped after its last reference", handle, t.name)
	}
	return nil
}

// dropRef removes one reference and reports whether it acted. With
// matchGen set it only acts while the slot still carries gen, so a slot
// recycled by a later Insert is left alone.
func (t *Table) dropRef(handle Handle, gen uint64, matchGen bool) bool {
	t.mu.Lock()
	e := t.lookup(handle)
	if e == nil || (matchGen && e.gen != gen) {
		t.mu.Unlock()
		return false
	}

	e.refs--
	if e.refs > 0 {
		value := e.value
		t.mu.Unlock()
		t.notify(Event{Type: EventDropped, Handle: handle, Value: value})
		return true
	}

	value := t.release(handle, e)
	t.mu.Unlock()

	t.destroy(value)
	t.notify(Event{Type: EventDropped, Handle: handle, Value: value})
	t.notify(Event{Type: EventDestroyed, Handle: handle, Value: value})
	return true
}

// Refs returns the current reference count of a handle, zero for dead
// handles.
func (t *Table) Refs(handle Handle) uint32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	e := t.lookup(handle)
	if e == nil {
		return 0
	}
	return e.refs
}

// Live returns the number of live handles.
func (t *Table) Live() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.live
}

// LeakCheck returns the handles still live in the table. Tests use it to
// assert every handle was dropped.
func (t *Table) LeakCheck() []Handle {
	t.mu.Lock()
	defer t.mu.Unlock()
	var live []Handle
	for i := range t.entries {
		if t.entries[i].valid {
			live = append(live, Handle(i+1))
		}
	}
	return live
}

// Close destroys every live handle and rejects further inserts. Leaked
// handles are logged. Close is idempotent.
func (t *Table) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true

	var leaked []any
	var handles []Handle
	for i := range t.entries {
		if t.entries[i].valid {
			h := Handle(i + 1)
			leaked = append(leaked, t.release(h, &t.entries[i]))
			handles = append(handles, h)
		}
	}
	t.mu.Unlock()

	if len(leaked) > 0 {
		wai.Logger().Warn("closing table with live handles",
			zap.String("resource", t.name),
			zap.Int("leaked", len(leaked)))
	}
	for i, value := range leaked {
		t.destroy(value)
		t.notify(Event{Type: EventDestroyed, Handle: handles[i], Value: value})
	}
	return nil
}

// lookup returns the entry for a live handle, or nil. Callers hold t.mu.
func (t *Table) lookup(handle Handle) *entry {
	if handle == 0 || int(handle) > len(t.entries) {
		return nil
	}
	e := &t.entries[handle-1]
	if !e.valid {
		return nil
	}
	return e
}

// release invalidates an entry and recycles its slot. Callers hold t.mu.
func (t *Table) release(handle Handle, e *entry) any {
	value := e.value
	e.valid = false
	e.value = nil
	e.refs = 0
	t.freeList = append(t.freeList, handle)
	t.live--
	return value
}

func (t *Table) destroy(value any) {
	if t.dtor != nil {
		t.dtor(value)
	}
}

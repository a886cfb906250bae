package resource

// EventType classifies lifecycle events.
type EventType uint8

const (
	EventCreated EventType = iota
	EventCloned
	EventDropped
	EventDestroyed
)

// Event is one lifecycle notification. EventDropped fires on every
// reference release; EventDestroyed fires once after the destructor ran.
type Event struct {
	Value  any
	Handle Handle
	Type   EventType
}

// Observer receives lifecycle events.
type Observer interface {
	OnResourceEvent(Event)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(Event)

func (f ObserverFunc) OnResourceEvent(e Event) { f(e) }

// Subscribe registers an observer for this table's events.
func (t *Table) Subscribe(o Observer) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.observers = append(t.observers, o)
}

// notify snapshots the observer list and invokes callbacks without
// holding the table lock.
func (t *Table) notify(e Event) {
	t.mu.Lock()
	observers := t.observers
	t.mu.Unlock()
	for _, o := range observers {
		o.OnResourceEvent(e)
	}
}

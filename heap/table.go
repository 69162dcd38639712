package heap

import (
	"fmt"
	"sync"

	"github.com/wippyai/wbg-runtime/errors"
	"github.com/wippyai/wbg-runtime/jsvalue"
)

// Handle is an index into a Table.
type Handle uint32

// Reserved handles.
const (
	HandleUndefined Handle = 0
	HandleNull      Handle = 1
	HandleTrue      Handle = 2
	HandleFalse     Handle = 3

	reservedCount = 4
)

// EventType identifies a handle lifecycle notification.
type EventType uint8

const (
	EventCreated EventType = iota
	EventDropped
)

func (e EventType) String() string {
	switch e {
	case EventCreated:
		return "created"
	case EventDropped:
		return "dropped"
	}
	return fmt.Sprintf("event(%d)", uint8(e))
}

// Event describes a handle being created or released.
type Event struct {
	Value  any
	Handle Handle
	Type   EventType
}

// Observer receives notifications about handle lifecycle events.
type Observer interface {
	OnHandleEvent(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

// OnHandleEvent implements Observer.
func (f ObserverFunc) OnHandleEvent(e Event) { f(e) }

// Dropper is implemented by values that release host resources when their
// last handle goes away.
type Dropper interface {
	Drop()
}

type slot struct {
	value any
	next  Handle
	live  bool
}

// Table maps handles to host values.
type Table struct {
	slots     []slot
	observers []Observer
	free      Handle // head of the free list; len(slots) when empty
	live      int
	mu        sync.Mutex
}

// NewTable creates a table with the reserved slots populated.
func NewTable() *Table {
	t := &Table{}
	t.init()
	return t
}

func (t *Table) init() {
	t.slots = make([]slot, reservedCount, 128)
	t.slots[HandleUndefined] = slot{value: jsvalue.Undefined{}, live: true}
	t.slots[HandleNull] = slot{value: jsvalue.Null{}, live: true}
	t.slots[HandleTrue] = slot{value: true, live: true}
	t.slots[HandleFalse] = slot{value: false, live: true}
	t.free = Handle(len(t.slots))
	t.live = 0
}

// Subscribe registers an observer.
func (t *Table) Subscribe(o Observer) {
	t.mu.Lock()
	t.observers = append(t.observers, o)
	t.mu.Unlock()
}

// Reserved returns the reserved handle for v, if any.
func Reserved(v any) (Handle, bool) {
	switch x := jsvalue.Normalize(v).(type) {
	case jsvalue.Undefined:
		return HandleUndefined, true
	case jsvalue.Null:
		return HandleNull, true
	case bool:
		if x {
			return HandleTrue, true
		}
		return HandleFalse, true
	}
	return 0, false
}

// IsReserved reports whether h is one of the four permanent slots.
func IsReserved(h Handle) bool {
	return h < reservedCount
}

// Alloc stores v and returns its handle. The four singleton values map to
// their reserved slots.
func (t *Table) Alloc(v any) Handle {
	v = jsvalue.Normalize(v)
	if h, ok := Reserved(v); ok {
		return h
	}

	t.mu.Lock()
	h := t.free
	if int(h) == len(t.slots) {
		t.slots = append(t.slots, slot{})
		t.free = Handle(len(t.slots))
	} else {
		t.free = t.slots[h].next
	}
	t.slots[h] = slot{value: v, live: true}
	t.live++
	observers := t.observers
	t.mu.Unlock()

	notify(observers, Event{Type: EventCreated, Handle: h, Value: v})
	return h
}

// Get returns the value behind h. A stale handle panics.
func (t *Table) Get(h Handle) any {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.slotLocked(h).value
}

// Lookup is the non-panicking form of Get.
func (t *Table) Lookup(h Handle) (any, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if int(h) >= len(t.slots) || !t.slots[h].live {
		return nil, false
	}
	return t.slots[h].value, true
}

// Free releases h. Freeing a reserved slot does nothing; freeing a stale
// handle panics.
func (t *Table) Free(h Handle) {
	if IsReserved(h) {
		return
	}
	v, observers := t.release(h)
	if d, ok := v.(Dropper); ok {
		d.Drop()
	}
	notify(observers, Event{Type: EventDropped, Handle: h, Value: v})
}

func (t *Table) release(h Handle) (any, []Observer) {
	t.mu.Lock()
	defer t.mu.Unlock()
	v := t.slotLocked(h).value
	t.slots[h] = slot{next: t.free}
	t.free = h
	t.live--
	return v, t.observers
}

// Take returns the value behind h and frees the handle.
func (t *Table) Take(h Handle) any {
	v := t.Get(h)
	t.Free(h)
	return v
}

// Clone allocates a second handle for the value behind h.
func (t *Table) Clone(h Handle) Handle {
	return t.Alloc(t.Get(h))
}

// Len returns the number of live, non-reserved handles.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.live
}

// Cap returns the number of slots, reserved and free ones included.
func (t *Table) Cap() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.slots)
}

// Each calls fn for every live non-reserved handle in index order.
// fn must not call back into the table.
func (t *Table) Each(fn func(Handle, any) bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := reservedCount; i < len(t.slots); i++ {
		if t.slots[i].live && !fn(Handle(i), t.slots[i].value) {
			return
		}
	}
}

// Reset drops every non-reserved handle.
func (t *Table) Reset() {
	t.mu.Lock()
	var dropped []Event
	for i := reservedCount; i < len(t.slots); i++ {
		if t.slots[i].live {
			dropped = append(dropped, Event{Type: EventDropped, Handle: Handle(i), Value: t.slots[i].value})
		}
	}
	t.init()
	observers := t.observers
	t.mu.Unlock()

	for _, e := range dropped {
		if d, ok := e.Value.(Dropper); ok {
			d.Drop()
		}
		notify(observers, e)
	}
}

func (t *Table) slotLocked(h Handle) *slot {
	if int(h) >= len(t.slots) {
		panic(errors.ContractViolation(errors.PhaseHeap, "handle %d out of range (%d slots)", h, len(t.slots)))
	}
	s := &t.slots[h]
	if !s.live {
		panic(errors.ContractViolation(errors.PhaseHeap, "handle %d is not live", h))
	}
	return s
}

func notify(observers []Observer, e Event) {
	for _, o := range observers {
		o.OnHandleEvent(e)
	}
}

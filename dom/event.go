package dom

import (
	"context"
	stderrors "errors"

	"github.com/wippyai/wbg-runtime/jsvalue"
)

// Event is the base of every dispatched event. Specific event types embed
// it and extend GetProperty.
type Event struct {
	Type          string
	Target        any
	CurrentTarget any
	prevented     bool
	stopped       bool
}

// NewEvent creates an event of the given type.
func NewEvent(typ string) *Event {
	return &Event{Type: typ}
}

// EventBase implements Dispatchable.
func (e *Event) EventBase() *Event { return e }

// PreventDefault cancels the event's default action.
func (e *Event) PreventDefault() { e.prevented = true }

// DefaultPrevented reports whether PreventDefault was called.
func (e *Event) DefaultPrevented() bool { return e.prevented }

// StopImmediatePropagation skips the remaining listeners.
func (e *Event) StopImmediatePropagation() { e.stopped = true }

// ClassName implements jsvalue.ClassNamer.
func (e *Event) ClassName() string { return "Event" }

// GetProperty implements jsvalue.PropertyGetter.
func (e *Event) GetProperty(name string) (any, bool) {
	switch name {
	case "type":
		return e.Type, true
	case "target":
		return orNull(e.Target), true
	case "currentTarget":
		return orNull(e.CurrentTarget), true
	case "defaultPrevented":
		return e.prevented, true
	case "preventDefault":
		return jsvalue.NewFunc("preventDefault", func(context.Context, any, []any) (any, error) {
			e.PreventDefault()
			return jsvalue.Undefined{}, nil
		}), true
	}
	return nil, false
}

func orNull(v any) any {
	if v == nil {
		return jsvalue.Null{}
	}
	return v
}

// Dispatchable is any event embedding Event.
type Dispatchable interface {
	EventBase() *Event
}

type listener struct {
	fn   any
	once bool
}

// EventTarget holds listeners and on<type> handler properties. The zero
// value is ready to use.
type EventTarget struct {
	listeners map[string][]listener
	handlers  map[string]any
}

// AddEventListener registers fn for typ. Registering the same function twice
// has no effect.
func (t *EventTarget) AddEventListener(typ string, fn any) {
	t.addListener(typ, fn, false)
}

// AddOnceListener registers fn to run at most once.
func (t *EventTarget) AddOnceListener(typ string, fn any) {
	t.addListener(typ, fn, true)
}

func (t *EventTarget) addListener(typ string, fn any, once bool) {
	if !jsvalue.IsFunction(fn) {
		return
	}
	for _, l := range t.listeners[typ] {
		if l.fn == fn {
			return
		}
	}
	if t.listeners == nil {
		t.listeners = make(map[string][]listener)
	}
	t.listeners[typ] = append(t.listeners[typ], listener{fn: fn, once: once})
}

// RemoveEventListener removes fn for typ.
func (t *EventTarget) RemoveEventListener(typ string, fn any) {
	ls := t.listeners[typ]
	for i, l := range ls {
		if l.fn == fn {
			t.listeners[typ] = append(ls[:i:i], ls[i+1:]...)
			return
		}
	}
}

// SetHandler sets the on<typ> property. A non-function clears it.
func (t *EventTarget) SetHandler(typ string, fn any) {
	if !jsvalue.IsFunction(fn) {
		delete(t.handlers, typ)
		return
	}
	if t.handlers == nil {
		t.handlers = make(map[string]any)
	}
	t.handlers[typ] = fn
}

// Handler returns the on<typ> property or nil.
func (t *EventTarget) Handler(typ string) any {
	return t.handlers[typ]
}

// HasListeners reports whether anything would observe typ.
func (t *EventTarget) HasListeners(typ string) bool {
	return t.handlers[typ] != nil || len(t.listeners[typ]) > 0
}

// Dispatch delivers ev to the handler property and then the listeners, in
// registration order. self becomes the event target. A throwing listener
// does not stop later ones; the errors are joined. It reports whether the
// default action should run.
func (t *EventTarget) Dispatch(ctx context.Context, self any, ev Dispatchable) (bool, error) {
	e := ev.EventBase()
	if e.Target == nil {
		e.Target = self
	}
	e.CurrentTarget = self

	var fns []any
	if h := t.handlers[e.Type]; h != nil {
		fns = append(fns, h)
	}
	ls := t.listeners[e.Type]
	for _, l := range ls {
		fns = append(fns, l.fn)
		if l.once {
			t.RemoveEventListener(e.Type, l.fn)
		}
	}

	var errs []error
	for _, fn := range fns {
		if e.stopped {
			break
		}
		if _, err := jsvalue.Call(ctx, fn, self, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return !e.prevented, stderrors.Join(errs...)
}

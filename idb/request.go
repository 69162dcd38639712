package idb

import (
	"strings"

	"github.com/wippyai/wbg-runtime/dom"
	"github.com/wippyai/wbg-runtime/jsvalue"
)

// Request is an IDBRequest. Its result becomes readable once the success
// or error event fires.
type Request struct {
	dom.EventTarget
	source any
	tx     *Transaction
	result any
	err    *jsvalue.Error
	done   bool
}

func newRequest(source any, tx *Transaction) *Request {
	return &Request{source: source, tx: tx}
}

func (r *Request) succeed(v any) {
	r.done = true
	r.result = v
	r.err = nil
}

func (r *Request) fail(err *jsvalue.Error) {
	r.done = true
	r.result = jsvalue.Undefined{}
	r.err = err
}

// Result returns the request result, or InvalidStateError while pending.
func (r *Request) Result() (any, error) {
	if !r.done {
		return nil, stateError("the request has not finished")
	}
	if r.result == nil {
		return jsvalue.Undefined{}, nil
	}
	return r.result, nil
}

// Error returns the failure, nil on success, or InvalidStateError while
// pending.
func (r *Request) Error() (*jsvalue.Error, error) {
	if !r.done {
		return nil, stateError("the request has not finished")
	}
	return r.err, nil
}

// ReadyState is "pending" or "done".
func (r *Request) ReadyState() string {
	if r.done {
		return "done"
	}
	return "pending"
}

// Transaction returns the owning transaction, nil for open requests
// outside an upgrade.
func (r *Request) Transaction() *Transaction { return r.tx }

// ClassName implements jsvalue.ClassNamer.
func (r *Request) ClassName() string { return "IDBRequest" }

// GetProperty implements jsvalue.PropertyGetter.
func (r *Request) GetProperty(name string) (any, bool) {
	switch name {
	case "result":
		v, err := r.Result()
		if err != nil {
			return jsvalue.Undefined{}, true
		}
		return v, true
	case "error":
		if r.err == nil {
			return jsvalue.Null{}, true
		}
		return r.err, true
	case "readyState":
		return r.ReadyState(), true
	case "source":
		if r.source == nil {
			return jsvalue.Null{}, true
		}
		return r.source, true
	case "transaction":
		if r.tx == nil {
			return jsvalue.Null{}, true
		}
		return r.tx, true
	}
	return nil, false
}

// SetProperty routes on<type> assignments to event handlers.
func (r *Request) SetProperty(name string, v any) error {
	setHandler(&r.EventTarget, name, v)
	return nil
}

func setHandler(t *dom.EventTarget, name string, v any) {
	if typ, ok := strings.CutPrefix(name, "on"); ok {
		t.SetHandler(typ, v)
	}
}

// OpenRequest is the request returned by Factory.Open and
// Factory.DeleteDatabase. It additionally fires upgradeneeded and blocked.
type OpenRequest struct {
	Request
}

// ClassName implements jsvalue.ClassNamer.
func (r *OpenRequest) ClassName() string { return "IDBOpenDBRequest" }

// InstanceOf implements jsvalue.Instancer.
func (r *OpenRequest) InstanceOf(class string) bool {
	return class == "IDBOpenDBRequest" || class == "IDBRequest" || class == "EventTarget"
}

// VersionChangeEvent is an IDBVersionChangeEvent. NewVersion is nil when
// the database is being deleted.
type VersionChangeEvent struct {
	dom.Event
	OldVersion int64
	NewVersion *int64
}

func newVersionEvent(typ string, oldV int64, newV *int64) *VersionChangeEvent {
	return &VersionChangeEvent{Event: *dom.NewEvent(typ), OldVersion: oldV, NewVersion: newV}
}

// ClassName implements jsvalue.ClassNamer.
func (e *VersionChangeEvent) ClassName() string { return "IDBVersionChangeEvent" }

// GetProperty implements jsvalue.PropertyGetter.
func (e *VersionChangeEvent) GetProperty(name string) (any, bool) {
	switch name {
	case "oldVersion":
		return float64(e.OldVersion), true
	case "newVersion":
		if e.NewVersion == nil {
			return jsvalue.Null{}, true
		}
		return float64(*e.NewVersion), true
	}
	return e.Event.GetProperty(name)
}

// StringList is a DOMStringList.
type StringList []string

// Length returns the number of names.
func (l StringList) Length() int { return len(l) }

// Item returns name i, ok=false when out of range.
func (l StringList) Item(i int) (string, bool) {
	if i < 0 || i >= len(l) {
		return "", false
	}
	return l[i], true
}

// Contains reports whether s is in the list.
func (l StringList) Contains(s string) bool {
	for _, n := range l {
		if n == s {
			return true
		}
	}
	return false
}

// ClassName implements jsvalue.ClassNamer.
func (l StringList) ClassName() string { return "DOMStringList" }

// GetProperty implements jsvalue.PropertyGetter.
func (l StringList) GetProperty(name string) (any, bool) {
	if name == "length" {
		return float64(len(l)), true
	}
	v, err := jsvalue.Get(l.Array(), name)
	if err != nil {
		return nil, false
	}
	return v, true
}

// Array converts the list to a guest array.
func (l StringList) Array() *jsvalue.Array {
	arr := jsvalue.NewArray()
	for _, s := range l {
		arr.Push(s)
	}
	return arr
}

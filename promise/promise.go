// Package promise bridges asynchronous host operations into the guest's
// completion model.
//
// A Promise settles once. Reactions registered with Then run as microtasks
// on the owning event loop, never synchronously, so a guest callback can
// never re-enter the code that resolved the promise.
//
// Guest futures are bridged through Resolvers: one resolve/reject pair per
// pending operation, usable once. Whichever fires first settles the promise
// and both become inert.
package promise

import (
	"context"
	"sync"

	"github.com/wippyai/wbg-runtime/eventloop"
	"github.com/wippyai/wbg-runtime/jsvalue"
)

// State is a promise settlement state.
type State int

const (
	Pending State = iota
	Fulfilled
	Rejected
)

func (s State) String() string {
	switch s {
	case Fulfilled:
		return "fulfilled"
	case Rejected:
		return "rejected"
	}
	return "pending"
}

// Handler reacts to a settled value. Returning an error rejects the
// derived promise.
type Handler func(v any) (any, error)

type reaction struct {
	onFulfilled Handler
	onRejected  Handler
	next        *Promise
}

// Promise is a host promise bound to an event loop.
type Promise struct {
	loop      *eventloop.Loop
	value     any
	reactions []reaction
	state     State
	handled   bool
	mu        sync.Mutex
}

// NewPending creates an unsettled promise.
func NewPending(loop *eventloop.Loop) *Promise {
	return &Promise{loop: loop}
}

// Resolved returns a promise fulfilled with v, or v itself when it is
// already a promise.
func Resolved(loop *eventloop.Loop, v any) *Promise {
	if p, ok := v.(*Promise); ok {
		return p
	}
	p := NewPending(loop)
	p.Resolve(v)
	return p
}

// RejectedWith returns a promise rejected with reason.
func RejectedWith(loop *eventloop.Loop, reason any) *Promise {
	p := NewPending(loop)
	p.Reject(reason)
	return p
}

// New runs executor synchronously with a fresh resolver pair. An error from
// the executor rejects the promise unless it already settled.
func New(loop *eventloop.Loop, executor func(r *Resolvers) error) *Promise {
	p, r := WithResolvers(loop)
	if err := executor(r); err != nil {
		r.Reject(Reason(err))
	}
	return p
}

// Loop returns the owning event loop.
func (p *Promise) Loop() *eventloop.Loop { return p.loop }

// State returns the current state and the settled value or reason.
func (p *Promise) State() (State, any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state, p.value
}

// Resolve fulfills the promise with v. A promise value is adopted: this
// promise follows its outcome.
func (p *Promise) Resolve(v any) {
	v = jsvalue.Normalize(v)
	if other, ok := v.(*Promise); ok {
		if other == p {
			p.Reject(jsvalue.NewTypeError("Chaining cycle detected for promise"))
			return
		}
		other.Then(func(x any) (any, error) {
			p.Resolve(x)
			return nil, nil
		}, func(r any) (any, error) {
			p.Reject(r)
			return nil, nil
		})
		return
	}
	p.settle(Fulfilled, v)
}

// Reject rejects the promise with reason.
func (p *Promise) Reject(reason any) {
	p.settle(Rejected, jsvalue.Normalize(reason))
}

func (p *Promise) settle(state State, v any) {
	p.mu.Lock()
	if p.state != Pending {
		p.mu.Unlock()
		return
	}
	p.state = state
	p.value = v
	reactions := p.reactions
	p.reactions = nil
	p.mu.Unlock()

	for _, r := range reactions {
		p.schedule(r, state, v)
	}
}

// Then registers reactions and returns the derived promise. Either handler
// may be nil, in which case the outcome passes through.
func (p *Promise) Then(onFulfilled, onRejected Handler) *Promise {
	next := NewPending(p.loop)
	r := reaction{onFulfilled: onFulfilled, onRejected: onRejected, next: next}

	p.mu.Lock()
	p.handled = true
	if p.state == Pending {
		p.reactions = append(p.reactions, r)
		p.mu.Unlock()
		return next
	}
	state, v := p.state, p.value
	p.mu.Unlock()

	p.schedule(r, state, v)
	return next
}

// Catch is Then(nil, onRejected).
func (p *Promise) Catch(onRejected Handler) *Promise {
	return p.Then(nil, onRejected)
}

// Handled reports whether any reaction was registered.
func (p *Promise) Handled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.handled
}

func (p *Promise) schedule(r reaction, state State, v any) {
	p.loop.QueueMicrotask(func() {
		h := r.onFulfilled
		if state == Rejected {
			h = r.onRejected
		}
		if h == nil {
			if state == Rejected {
				r.next.Reject(v)
			} else {
				r.next.Resolve(v)
			}
			return
		}
		out, err := h(v)
		if err != nil {
			r.next.Reject(Reason(err))
			return
		}
		r.next.Resolve(out)
	})
}

// ClassName implements jsvalue.ClassNamer.
func (p *Promise) ClassName() string { return "Promise" }

// GetProperty exposes then and catch for reflective calls.
func (p *Promise) GetProperty(name string) (any, bool) {
	switch name {
	case "then":
		return jsvalue.NewFunc("then", func(ctx context.Context, _ any, args []any) (any, error) {
			return p.Then(CallbackHandler(ctx, arg(args, 0)), CallbackHandler(ctx, arg(args, 1))), nil
		}), true
	case "catch":
		return jsvalue.NewFunc("catch", func(ctx context.Context, _ any, args []any) (any, error) {
			return p.Catch(CallbackHandler(ctx, arg(args, 0))), nil
		}), true
	}
	return nil, false
}

func arg(args []any, i int) any {
	if i < len(args) {
		return args[i]
	}
	return jsvalue.Undefined{}
}

// CallbackHandler adapts a host callable into a Handler. Non-callable
// values yield a nil Handler, matching then's pass-through behavior.
func CallbackHandler(ctx context.Context, fn any) Handler {
	c, ok := fn.(jsvalue.Callable)
	if !ok {
		return nil
	}
	return func(v any) (any, error) {
		return c.Call(ctx, jsvalue.Undefined{}, v)
	}
}

// Reason converts a Go error into a rejection reason. Host exceptions are
// kept as they are; other errors become Error values.
func Reason(err error) any {
	if je, ok := err.(*jsvalue.Error); ok {
		return je
	}
	if rj, ok := err.(*RejectionError); ok {
		return rj.Reason
	}
	return &jsvalue.Error{Name: "Error", Message: err.Error(), Cause: err}
}

// RejectionError carries a non-error rejection reason through Go error
// returns.
type RejectionError struct {
	Reason any
}

func (e *RejectionError) Error() string {
	return "promise rejected: " + jsvalue.DebugString(e.Reason)
}

// ReasonError converts a rejection reason back into a Go error.
func ReasonError(reason any) error {
	switch r := reason.(type) {
	case *jsvalue.Error:
		if cause, ok := r.Cause.(error); ok {
			return cause
		}
		return r
	case error:
		return r
	}
	return &RejectionError{Reason: reason}
}

// Await blocks until p settles or ctx is done. The loop must be running on
// another goroutine.
func Await(ctx context.Context, p *Promise) (any, error) {
	type result struct {
		v   any
		err error
	}
	ch := make(chan result, 1)
	p.Then(func(v any) (any, error) {
		ch <- result{v: v}
		return nil, nil
	}, func(r any) (any, error) {
		ch <- result{err: ReasonError(r)}
		return nil, nil
	})
	select {
	case res := <-ch:
		return res.v, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

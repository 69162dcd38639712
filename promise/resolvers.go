package promise

import (
	"context"
	"sync"

	"github.com/wippyai/wbg-runtime/eventloop"
	"github.com/wippyai/wbg-runtime/jsvalue"
)

// Resolvers is the one-shot resolve/reject pair of a pending promise.
type Resolvers struct {
	p    *Promise
	mu   sync.Mutex
	used bool
}

// WithResolvers creates a pending promise and its resolver pair.
func WithResolvers(loop *eventloop.Loop) (*Promise, *Resolvers) {
	p := NewPending(loop)
	return p, &Resolvers{p: p}
}

func (r *Resolvers) take() (*Promise, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.used {
		return nil, false
	}
	r.used = true
	p := r.p
	r.p = nil
	return p, true
}

// Resolve settles the promise with v. It reports false if either function
// was already invoked.
func (r *Resolvers) Resolve(v any) bool {
	p, ok := r.take()
	if ok {
		p.Resolve(v)
	}
	return ok
}

// Reject settles the promise with reason. It reports false if either
// function was already invoked.
func (r *Resolvers) Reject(reason any) bool {
	p, ok := r.take()
	if ok {
		p.Reject(reason)
	}
	return ok
}

// Used reports whether the pair has fired.
func (r *Resolvers) Used() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.used
}

// Funcs returns the pair as host functions for handing to the guest.
func (r *Resolvers) Funcs() (resolve, reject *jsvalue.Func) {
	resolve = jsvalue.NewFunc("resolve", func(_ context.Context, _ any, args []any) (any, error) {
		r.Resolve(arg(args, 0))
		return jsvalue.Undefined{}, nil
	})
	reject = jsvalue.NewFunc("reject", func(_ context.Context, _ any, args []any) (any, error) {
		r.Reject(arg(args, 0))
		return jsvalue.Undefined{}, nil
	})
	return resolve, reject
}

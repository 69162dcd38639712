package closure

import (
	"context"
	"fmt"
	"runtime"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/wippyai/wbg-runtime/errors"
)

// Kind selects the borrow discipline of a closure.
type Kind uint8

const (
	// Mut closures zero their environment pointer while running.
	Mut Kind = iota
	// Shared closures may be invoked re-entrantly.
	Shared
)

func (k Kind) String() string {
	if k == Shared {
		return "shared"
	}
	return "mut"
}

// Dispatcher performs the guest side of invocation and destruction.
type Dispatcher interface {
	Invoke(ctx context.Context, fn, a, b uint32, args []any) (any, error)
	Destroy(ctx context.Context, dtor, a, b uint32) error
}

// deadDetail is the detail of the contract violation raised when a closure
// is invoked recursively or after being dropped.
const deadDetail = "closure invoked recursively or after being dropped"

type state struct {
	reg  *Registry
	a    uint32
	b    uint32
	dtor uint32
	fn   uint32
	cnt  int32
	kind Kind
	dead bool
}

// Func is a guest closure seen from the host. It implements
// jsvalue.Callable. All methods must be called from the event loop.
type Func struct {
	st      *state
	cleanup runtime.Cleanup
	name    string
}

// Registry creates closures and tracks their lifetimes for one instance.
type Registry struct {
	ctx       context.Context
	d         Dispatcher
	post      func(func())
	log       *zap.Logger
	created   atomic.Int64
	destroyed atomic.Int64
	collected atomic.Int64
}

// NewRegistry creates a registry. post schedules work on the event loop and
// is used by the garbage collection safety net; ctx is the context passed
// to destructors run from there.
func NewRegistry(ctx context.Context, d Dispatcher, post func(func()), log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{ctx: ctx, d: d, post: post, log: log}
}

// New wraps the guest closure (a, b) with its invoke and destroy functions.
func (r *Registry) New(a, b, dtor, fn uint32, kind Kind) *Func {
	st := &state{reg: r, a: a, b: b, dtor: dtor, fn: fn, cnt: 1, kind: kind}
	f := &Func{st: st, name: fmt.Sprintf("closure%d", fn)}
	f.cleanup = runtime.AddCleanup(f, collect, st)
	r.created.Add(1)
	return f
}

// Live returns the number of closures not yet destroyed.
func (r *Registry) Live() int64 {
	return r.created.Load() - r.destroyed.Load()
}

// Destroyed returns the number of closures destroyed so far.
func (r *Registry) Destroyed() int64 {
	return r.destroyed.Load()
}

// Collected returns how many closures were destroyed by the garbage
// collection safety net rather than explicitly.
func (r *Registry) Collected() int64 {
	return r.collected.Load()
}

func collect(st *state) {
	st.reg.post(func() {
		if st.dead {
			return
		}
		st.reg.collected.Add(1)
		st.reg.log.Debug("closure collected without drop", zap.Uint32("fn", st.fn))
		if err := st.reg.destroy(st.reg.ctx, st, st.a); err != nil {
			st.reg.log.Warn("closure destructor failed", zap.Error(err))
		}
	})
}

func (r *Registry) destroy(ctx context.Context, st *state, a uint32) error {
	st.dead = true
	st.a = 0
	r.destroyed.Add(1)
	return r.d.Destroy(ctx, st.dtor, a, st.b)
}

// Call invokes the closure. A dead closure, or a Mut closure already
// running, yields a contract violation without reaching the guest.
func (f *Func) Call(ctx context.Context, _ any, args ...any) (any, error) {
	st := f.st
	if st.dead || (st.kind == Mut && st.a == 0) {
		return nil, errors.ContractViolation(errors.PhaseClosure, "%s", deadDetail)
	}

	st.cnt++
	a := st.a
	if st.kind == Mut {
		st.a = 0
	}

	res, err := st.reg.d.Invoke(ctx, st.fn, a, st.b, args)

	st.cnt--
	if st.cnt == 0 {
		f.cleanup.Stop()
		if derr := st.reg.destroy(ctx, st, a); derr != nil && err == nil {
			err = derr
		}
	} else if st.kind == Mut {
		st.a = a
	}
	return res, err
}

// Drop releases the guest's reference. It reports true when that was the
// last reference, in which case the closure is dead and the guest frees the
// environment itself. While a call is in flight Drop reports false and the
// destructor runs when the call returns.
func (f *Func) Drop() (bool, error) {
	st := f.st
	if st.dead {
		return false, errors.ContractViolation(errors.PhaseClosure, "drop of dead closure %s", f.name)
	}
	st.cnt--
	if st.cnt == 0 {
		st.a = 0
		st.dead = true
		st.reg.destroyed.Add(1)
		f.cleanup.Stop()
		return true, nil
	}
	return false, nil
}

// Alive reports whether the closure can still be invoked.
func (f *Func) Alive() bool { return !f.st.dead }

// Refs returns the current reference count.
func (f *Func) Refs() int { return int(f.st.cnt) }

// Kind returns the closure flavor.
func (f *Func) Kind() Kind { return f.st.kind }

// FuncName implements jsvalue.Namer.
func (f *Func) FuncName() string { return f.name }

// ClassName implements jsvalue.ClassNamer.
func (f *Func) ClassName() string { return "Function" }

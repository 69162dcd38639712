package promise

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/wbg-runtime/eventloop"
	"github.com/wippyai/wbg-runtime/jsvalue"
)

func run(t *testing.T, l *eventloop.Loop) {
	t.Helper()
	require.NoError(t, l.Run(context.Background()))
}

func TestPromise_ThenRunsAsMicrotask(t *testing.T) {
	l := eventloop.New()
	var order []string

	l.Post(func() {
		p := Resolved(l, 1)
		p.Then(func(v any) (any, error) {
			order = append(order, "then")
			return nil, nil
		}, nil)
		order = append(order, "sync")
	})
	run(t, l)

	assert.Equal(t, []string{"sync", "then"}, order)
}

func TestPromise_Chaining(t *testing.T) {
	l := eventloop.New()
	var got any

	p := NewPending(l)
	p.Then(func(v any) (any, error) {
		return v.(float64) * 2, nil
	}, nil).Then(func(v any) (any, error) {
		return nil, stderrors.New("fail")
	}, nil).Then(func(any) (any, error) {
		t.Error("fulfillment handler ran after rejection")
		return nil, nil
	}, nil).Catch(func(r any) (any, error) {
		got = r
		return "recovered", nil
	})

	p.Resolve(21)
	run(t, l)

	jsErr, ok := got.(*jsvalue.Error)
	require.True(t, ok, "reason %T", got)
	assert.Equal(t, "fail", jsErr.Message)
}

func TestPromise_AdoptsPromiseValue(t *testing.T) {
	l := eventloop.New()
	inner := NewPending(l)
	outer := NewPending(l)
	outer.Resolve(inner)

	l.Post(func() { inner.Resolve("inner value") })
	run(t, l)

	state, v := outer.State()
	assert.Equal(t, Fulfilled, state)
	assert.Equal(t, "inner value", v)
}

func TestPromise_SelfResolutionIsTypeError(t *testing.T) {
	l := eventloop.New()
	p := NewPending(l)
	p.Resolve(p)

	state, reason := p.State()
	assert.Equal(t, Rejected, state)
	assert.True(t, jsvalue.InstanceOf(reason, "TypeError"))
}

func TestPromise_SettlesOnce(t *testing.T) {
	l := eventloop.New()
	p := NewPending(l)
	p.Resolve("first")
	p.Reject("second")
	p.Resolve("third")

	state, v := p.State()
	assert.Equal(t, Fulfilled, state)
	assert.Equal(t, "first", v)
}

func TestResolvers_FireAtMostOnce(t *testing.T) {
	l := eventloop.New()
	p, r := WithResolvers(l)

	assert.True(t, r.Reject("nope"))
	assert.False(t, r.Resolve("late"))
	assert.False(t, r.Reject("again"))
	assert.True(t, r.Used())
	assert.Nil(t, r.p, "promise reference should be released on first use")

	state, v := p.State()
	assert.Equal(t, Rejected, state)
	assert.Equal(t, "nope", v)
}

func TestResolvers_FuncsShareOnceFlag(t *testing.T) {
	l := eventloop.New()
	ctx := context.Background()
	p := New(l, func(r *Resolvers) error {
		resolve, reject := r.Funcs()
		_, _ = resolve.Call(ctx, nil, "ok")
		_, _ = reject.Call(ctx, nil, "ignored")
		return nil
	})

	state, v := p.State()
	assert.Equal(t, Fulfilled, state)
	assert.Equal(t, "ok", v)
}

func TestNew_ExecutorErrorRejects(t *testing.T) {
	l := eventloop.New()
	p := New(l, func(*Resolvers) error {
		return jsvalue.NewError(jsvalue.AbortError, "aborted")
	})
	state, reason := p.State()
	assert.Equal(t, Rejected, state)
	assert.True(t, jsvalue.InstanceOf(reason, jsvalue.AbortError))
}

func TestAwait(t *testing.T) {
	l := eventloop.New()
	release := l.Hold()
	done := make(chan error, 1)
	go func() { done <- l.Run(context.Background()) }()

	p := NewPending(l)
	go func() {
		time.Sleep(10 * time.Millisecond)
		l.Post(func() { p.Resolve("value") })
	}()

	v, err := Await(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, "value", v)

	rejected := RejectedWith(l, jsvalue.NewError("Error", "bad"))
	_, err = Await(context.Background(), rejected)
	var jsErr *jsvalue.Error
	require.ErrorAs(t, err, &jsErr)
	assert.Equal(t, "bad", jsErr.Message)

	release()
	require.NoError(t, <-done)
}

func TestReasonRoundTrip(t *testing.T) {
	cause := stderrors.New("disk full")
	assert.Equal(t, cause, ReasonError(Reason(cause)))

	err := ReasonError(42.0)
	var rj *RejectionError
	require.ErrorAs(t, err, &rj)
	assert.Equal(t, 42.0, Reason(err))
}

func TestPromise_ReflectiveThen(t *testing.T) {
	l := eventloop.New()
	ctx := context.Background()
	p := Resolved(l, 5)

	var seen any
	cb := jsvalue.NewFunc("cb", func(_ context.Context, _ any, args []any) (any, error) {
		seen = args[0]
		return nil, nil
	})
	then, err := jsvalue.Get(p, "then")
	require.NoError(t, err)
	_, err = jsvalue.Call(ctx, then, p, cb)
	require.NoError(t, err)
	run(t, l)

	assert.Equal(t, 5.0, seen)
	assert.True(t, jsvalue.InstanceOf(p, "Promise"))
}

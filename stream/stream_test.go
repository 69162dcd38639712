package stream

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/wbg-runtime/errors"
	"github.com/wippyai/wbg-runtime/eventloop"
	"github.com/wippyai/wbg-runtime/heap"
	"github.com/wippyai/wbg-runtime/jsvalue"
	"github.com/wippyai/wbg-runtime/promise"
)

// runLoop runs l in the background until the test ends.
func runLoop(t *testing.T, l *eventloop.Loop) {
	t.Helper()
	release := l.Hold()
	done := make(chan error, 1)
	go func() { done <- l.Run(context.Background()) }()
	t.Cleanup(func() {
		release()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Error("loop did not stop")
		}
	})
}

type fakeGuest struct {
	calls []string
	fns   map[string]func(args []uint64) []uint64
}

func newFakeGuest(l *eventloop.Loop) (*Guest, *fakeGuest) {
	f := &fakeGuest{fns: make(map[string]func([]uint64) []uint64)}
	g := &Guest{Loop: l, Heap: heap.NewTable()}
	g.Call = func(_ context.Context, name string, args ...uint64) ([]uint64, error) {
		f.calls = append(f.calls, name)
		if fn, ok := f.fns[name]; ok {
			return fn(args), nil
		}
		return nil, nil
	}
	return g, f
}

func TestReadableStream_FromReader(t *testing.T) {
	l := eventloop.New()
	s := FromReader(context.Background(), l, io.NopCloser(strings.NewReader("hello world")), 4)
	r, err := s.GetReader()
	require.NoError(t, err)

	var got bytes.Buffer
	var done bool
	var step func()
	step = func() {
		r.Read().Then(func(v any) (any, error) {
			res := v.(*jsvalue.Object)
			d, _ := res.Get("done")
			if d == true {
				done = true
				return nil, nil
			}
			chunk, _ := res.Get("value")
			got.Write(chunk.(*jsvalue.Uint8Array).Bytes())
			step()
			return nil, nil
		}, nil)
	}
	l.Post(step)

	require.NoError(t, l.Run(context.Background()))
	assert.True(t, done)
	assert.Equal(t, "hello world", got.String())
}

func TestReadableStream_Lock(t *testing.T) {
	l := eventloop.New()
	s := FromReader(context.Background(), l, io.NopCloser(strings.NewReader("")), 0)

	r, err := s.GetReader()
	require.NoError(t, err)
	assert.True(t, s.Locked())

	_, err = s.GetReader()
	require.Error(t, err)

	r.ReleaseLock()
	assert.False(t, s.Locked())
	_, err = s.GetReader()
	require.NoError(t, err)
}

type staticSource struct {
	chunks   []string
	canceled any
}

func (s *staticSource) Pull(_ context.Context, c *DefaultController) (*promise.Promise, error) {
	if len(s.chunks) == 0 {
		return nil, c.Close()
	}
	err := c.Enqueue(s.chunks[0])
	s.chunks = s.chunks[1:]
	return nil, err
}

func (s *staticSource) Cancel(_ context.Context, reason any) error {
	s.canceled = reason
	return nil
}

func TestReadableStream_Cancel(t *testing.T) {
	l := eventloop.New()
	src := &staticSource{chunks: []string{"a", "b"}}
	s := New(context.Background(), l, src)
	r, err := s.GetReader()
	require.NoError(t, err)

	var states []bool
	l.Post(func() {
		r.Cancel("bored")
		r.Read().Then(func(v any) (any, error) {
			d, _ := v.(*jsvalue.Object).Get("done")
			states = append(states, d == true)
			return nil, nil
		}, nil)
	})
	require.NoError(t, l.Run(context.Background()))
	assert.Equal(t, "bored", src.canceled)
	assert.Equal(t, []bool{true}, states)
}

func TestController_EnqueueAfterClose(t *testing.T) {
	q := &queue{}
	c := newDefaultController(q, 2)
	require.NoError(t, c.Enqueue("x"))
	assert.Equal(t, float64(1), c.DesiredSize())
	require.NoError(t, c.Close())
	assert.Error(t, c.Enqueue("y"))
	assert.Error(t, c.Close())
}

func TestBYOBRequest_Respond(t *testing.T) {
	q := &queue{}
	c := newByteController(q, 0)
	req := c.request(4)
	assert.Same(t, req, c.ByobRequest())

	copy(req.View().Bytes(), "abcd")
	err := req.Respond(5)
	require.Error(t, err)

	require.NoError(t, req.Respond(3))
	assert.Nil(t, req.View())
	assert.Nil(t, c.ByobRequest())
	require.Error(t, req.Respond(1))

	chunk, st, _ := q.next()
	require.Equal(t, stateChunk, st)
	assert.Equal(t, []byte("abc"), chunk.(*jsvalue.Uint8Array).Bytes())
}

func TestSource_ReadAll(t *testing.T) {
	l := eventloop.New()
	runLoop(t, l)
	g, f := newFakeGuest(l)

	parts := []string{"hello", " ", "world"}
	f.fns["intounderlyingsource_pull"] = func(args []uint64) []uint64 {
		assert.Equal(t, uint64(42), args[0])
		c := g.Heap.Take(heap.Handle(args[1])).(*DefaultController)
		if len(parts) == 0 {
			assert.NoError(t, c.Close())
			return []uint64{uint64(heap.HandleUndefined)}
		}
		assert.NoError(t, c.Enqueue(jsvalue.Uint8ArrayOf([]byte(parts[0]))))
		parts = parts[1:]
		return []uint64{uint64(heap.HandleUndefined)}
	}

	src := NewSource(context.Background(), g, 42)
	data, err := io.ReadAll(src)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(data))
	assert.Equal(t, 0, g.Heap.Len())

	require.NoError(t, src.Close())
	assert.Contains(t, f.calls, "intounderlyingsource_cancel")

	// The pointer is consumed.
	_, err = src.Read(make([]byte, 1))
	assert.Error(t, err)
	assert.NoError(t, src.Close())
}

func TestSource_PullRejection(t *testing.T) {
	l := eventloop.New()
	runLoop(t, l)
	g, f := newFakeGuest(l)

	f.fns["intounderlyingsource_pull"] = func(args []uint64) []uint64 {
		g.Heap.Free(heap.Handle(args[1]))
		p := promise.RejectedWith(l, jsvalue.NewError("Error", "disk on fire"))
		return []uint64{uint64(g.Heap.Alloc(p))}
	}

	src := NewSource(context.Background(), g, 7)
	_, err := src.Read(make([]byte, 8))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk on fire")
}

func TestByteSource_BYOB(t *testing.T) {
	l := eventloop.New()
	runLoop(t, l)
	g, f := newFakeGuest(l)

	payload := []byte("0123456789")
	f.fns["intounderlyingbytesource_type"] = func([]uint64) []uint64 { return []uint64{0} }
	f.fns["intounderlyingbytesource_autoAllocateChunkSize"] = func([]uint64) []uint64 { return []uint64{4} }
	f.fns["intounderlyingbytesource_start"] = func(args []uint64) []uint64 {
		g.Heap.Free(heap.Handle(args[1]))
		return nil
	}
	f.fns["intounderlyingbytesource_pull"] = func(args []uint64) []uint64 {
		c := g.Heap.Take(heap.Handle(args[1])).(*ByteController)
		if len(payload) == 0 {
			assert.NoError(t, c.Close())
			return nil
		}
		req := c.ByobRequest()
		if !assert.NotNil(t, req) {
			return nil
		}
		n := copy(req.View().Bytes(), payload)
		payload = payload[n:]
		assert.NoError(t, req.Respond(uint32(n)))
		return nil
	}

	src := NewByteSource(context.Background(), g, 9)
	typ, err := src.Type()
	require.NoError(t, err)
	assert.Equal(t, "bytes", typ)

	buf := make([]byte, 16)
	n, err := src.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "0123", string(buf[:n]))

	rest, err := io.ReadAll(src)
	require.NoError(t, err)
	assert.Equal(t, "456789", string(rest))
	assert.Equal(t, 1, countCalls(f.calls, "intounderlyingbytesource_start"))
}

func TestSink_WriteClose(t *testing.T) {
	l := eventloop.New()
	runLoop(t, l)
	g, f := newFakeGuest(l)

	var written bytes.Buffer
	f.fns["intounderlyingsink_write"] = func(args []uint64) []uint64 {
		chunk := g.Heap.Take(heap.Handle(args[1])).(*jsvalue.Uint8Array)
		written.Write(chunk.Bytes())
		return []uint64{uint64(g.Heap.Alloc(promise.Resolved(l, jsvalue.Undefined{})))}
	}

	sink := NewSink(context.Background(), g, 3)
	n, err := io.WriteString(sink, "abc")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	_, err = sink.Write([]byte("def"))
	require.NoError(t, err)
	assert.Equal(t, "abcdef", written.String())

	require.NoError(t, sink.Close())
	assert.Contains(t, f.calls, "intounderlyingsink_close")

	_, err = sink.Write([]byte("x"))
	var e *errors.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, errors.KindClosed, e.Kind)
}

func TestSink_Abort(t *testing.T) {
	l := eventloop.New()
	runLoop(t, l)
	g, f := newFakeGuest(l)

	var reason any
	f.fns["intounderlyingsink_abort"] = func(args []uint64) []uint64 {
		assert.Equal(t, uint64(5), args[0])
		reason = g.Heap.Take(heap.Handle(args[1]))
		return nil
	}
	sink := NewSink(context.Background(), g, 5)
	require.NoError(t, sink.Abort("stop"))
	assert.Equal(t, "stop", reason)
	assert.Error(t, sink.Abort("again"))
	assert.NoError(t, sink.Free())
	assert.NotContains(t, f.calls, "__wbg_intounderlyingsink_free")
}

func TestSource_Free(t *testing.T) {
	l := eventloop.New()
	runLoop(t, l)
	g, f := newFakeGuest(l)

	src := NewSource(context.Background(), g, 11)
	require.NoError(t, src.Free())
	assert.Equal(t, []string{"__wbg_intounderlyingsource_free"}, f.calls)
	assert.NoError(t, src.Close())
	assert.Len(t, f.calls, 1)
}

func countCalls(calls []string, name string) int {
	n := 0
	for _, c := range calls {
		if c == name {
			n++
		}
	}
	return n
}

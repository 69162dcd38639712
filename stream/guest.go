package stream

import (
	"context"
	"io"
	"runtime"
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/wbg-runtime/errors"
	"github.com/wippyai/wbg-runtime/eventloop"
	"github.com/wippyai/wbg-runtime/heap"
	"github.com/wippyai/wbg-runtime/jsvalue"
	"github.com/wippyai/wbg-runtime/promise"
)

// Guest is the slice of an instance the adapters need. Call invokes a guest
// export and must only be used on the loop goroutine.
type Guest struct {
	Loop *eventloop.Loop
	Heap *heap.Table
	Call func(ctx context.Context, name string, args ...uint64) ([]uint64, error)
	Log  *zap.Logger
}

// object owns the pointer of an exported guest class instance.
type object struct {
	g       *Guest
	class   string
	ptr     uint32
	cleanup runtime.Cleanup
	mu      sync.Mutex
}

type finalizer struct {
	g     *Guest
	class string
	ptr   uint32
}

func newObject(g *Guest, class string, ptr uint32) *object {
	o := &object{g: g, class: class, ptr: ptr}
	o.cleanup = runtime.AddCleanup(o, finalize, finalizer{g: g, class: class, ptr: ptr})
	return o
}

func finalize(f finalizer) {
	f.g.Loop.Post(func() {
		_, err := f.g.Call(context.Background(), "__wbg_"+f.class+"_free", uint64(f.ptr), 1)
		if err != nil && f.g.Log != nil {
			f.g.Log.Warn("finalizer free failed", zap.String("class", f.class), zap.Error(err))
		}
	})
}

// raw returns the live pointer.
func (o *object) raw() (uint32, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.ptr == 0 {
		return 0, errors.Closed(errors.PhaseStream, o.class)
	}
	return o.ptr, nil
}

// take zeroes the pointer and hands ownership to the caller.
func (o *object) take() (uint32, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.ptr == 0 {
		return 0, errors.Closed(errors.PhaseStream, o.class)
	}
	ptr := o.ptr
	o.ptr = 0
	o.cleanup.Stop()
	return ptr, nil
}

// free releases the guest object without invoking any other method.
func (o *object) free(ctx context.Context) error {
	ptr, err := o.take()
	if err != nil {
		return nil
	}
	var cerr error
	if err := o.g.Loop.Exec(ctx, func() {
		_, cerr = o.g.Call(ctx, "__wbg_"+o.class+"_free", uint64(ptr), 0)
	}); err != nil {
		return err
	}
	return cerr
}

// call runs an export on the loop and converts a returned promise handle.
// The wait continues until the promise settles.
func (o *object) call(ctx context.Context, name string, args ...any) error {
	var (
		p    *promise.Promise
		cerr error
	)
	err := o.g.Loop.Exec(ctx, func() {
		raw := make([]uint64, len(args))
		for i, a := range args {
			switch v := a.(type) {
			case uint32:
				raw[i] = uint64(v)
			default:
				raw[i] = uint64(o.g.Heap.Alloc(v))
			}
		}
		res, err := o.g.Call(ctx, name, raw...)
		if err != nil {
			cerr = err
			return
		}
		if len(res) == 0 {
			return
		}
		if pr, ok := o.g.Heap.Take(heap.Handle(uint32(res[0]))).(*promise.Promise); ok {
			p = pr
		}
	})
	if err != nil {
		return err
	}
	if cerr != nil {
		return cerr
	}
	if p == nil {
		return nil
	}
	_, err = promise.Await(ctx, p)
	return err
}

// Source adapts a guest IntoUnderlyingSource to io.ReadCloser.
type Source struct {
	ctx     context.Context
	obj     *object
	q       *queue
	ctrl    *DefaultController
	pending []byte
}

// NewSource takes ownership of the guest IntoUnderlyingSource at ptr.
func NewSource(ctx context.Context, g *Guest, ptr uint32) *Source {
	q := &queue{}
	return &Source{
		ctx:  ctx,
		obj:  newObject(g, "intounderlyingsource", ptr),
		q:    q,
		ctrl: newDefaultController(q, 1),
	}
}

// Read implements io.Reader, pulling from the guest when the queue is
// empty.
func (s *Source) Read(p []byte) (int, error) {
	return readQueue(p, &s.pending, s.q, func() error {
		ptr, err := s.obj.raw()
		if err != nil {
			return err
		}
		if err := s.obj.call(s.ctx, "intounderlyingsource_pull", ptr, s.ctrl); err != nil {
			s.q.fail(promise.Reason(err))
		}
		return nil
	})
}

// Close cancels the source, consuming the guest object.
func (s *Source) Close() error {
	ptr, err := s.obj.take()
	if err != nil {
		return nil
	}
	s.q.cancel()
	return s.obj.call(s.ctx, "intounderlyingsource_cancel", ptr)
}

// Free releases the guest object without cancelling it.
func (s *Source) Free() error { return s.obj.free(s.ctx) }

// ByteSource adapts a guest IntoUnderlyingByteSource to io.ReadCloser.
// When the source declares an auto-allocate chunk size, reads go through
// BYOB requests sized to the caller's buffer.
type ByteSource struct {
	ctx      context.Context
	obj      *object
	q        *queue
	ctrl     *ByteController
	pending  []byte
	autoSize uint32
	started  bool
}

// NewByteSource takes ownership of the guest IntoUnderlyingByteSource at ptr.
func NewByteSource(ctx context.Context, g *Guest, ptr uint32) *ByteSource {
	q := &queue{}
	return &ByteSource{
		ctx:  ctx,
		obj:  newObject(g, "intounderlyingbytesource", ptr),
		q:    q,
		ctrl: newByteController(q, 0),
	}
}

// Type returns the stream type, always "bytes".
func (s *ByteSource) Type() (string, error) {
	v, err := s.scalar("intounderlyingbytesource_type")
	if err != nil {
		return "", err
	}
	if v != 0 {
		return "", errors.ContractViolation(errors.PhaseStream, "unknown stream type %d", v)
	}
	return "bytes", nil
}

// AutoAllocateChunkSize returns the source's preferred BYOB size.
func (s *ByteSource) AutoAllocateChunkSize() (uint32, error) {
	return s.scalar("intounderlyingbytesource_autoAllocateChunkSize")
}

func (s *ByteSource) scalar(name string) (uint32, error) {
	ptr, err := s.obj.raw()
	if err != nil {
		return 0, err
	}
	var (
		v    uint32
		cerr error
	)
	err = s.obj.g.Loop.Exec(s.ctx, func() {
		res, err := s.obj.g.Call(s.ctx, name, uint64(ptr))
		if err != nil {
			cerr = err
			return
		}
		if len(res) > 0 {
			v = uint32(res[0])
		}
	})
	if err != nil {
		return 0, err
	}
	return v, cerr
}

func (s *ByteSource) start() error {
	if s.started {
		return nil
	}
	s.started = true
	size, err := s.AutoAllocateChunkSize()
	if err != nil {
		return err
	}
	s.autoSize = size
	ptr, err := s.obj.raw()
	if err != nil {
		return err
	}
	return s.obj.call(s.ctx, "intounderlyingbytesource_start", ptr, s.ctrl)
}

// Read implements io.Reader.
func (s *ByteSource) Read(p []byte) (int, error) {
	if err := s.start(); err != nil {
		return 0, err
	}
	return readQueue(p, &s.pending, s.q, func() error {
		ptr, err := s.obj.raw()
		if err != nil {
			return err
		}
		if s.autoSize > 0 && s.ctrl.byob == nil {
			n := len(p)
			if n == 0 || uint32(n) > s.autoSize {
				n = int(s.autoSize)
			}
			s.ctrl.request(n)
		}
		if err := s.obj.call(s.ctx, "intounderlyingbytesource_pull", ptr, s.ctrl); err != nil {
			s.q.fail(promise.Reason(err))
		}
		return nil
	})
}

// Close cancels the source, consuming the guest object.
func (s *ByteSource) Close() error {
	ptr, err := s.obj.take()
	if err != nil {
		return nil
	}
	s.q.cancel()
	return s.obj.call(s.ctx, "intounderlyingbytesource_cancel", ptr)
}

// Free releases the guest object without cancelling it.
func (s *ByteSource) Free() error { return s.obj.free(s.ctx) }

// readQueue serves p from leftover bytes or the queue, calling pull while
// the queue is empty and open.
func readQueue(p []byte, pending *[]byte, q *queue, pull func() error) (int, error) {
	for {
		if len(*pending) > 0 {
			n := copy(p, *pending)
			*pending = (*pending)[n:]
			return n, nil
		}
		chunk, st, reason := q.next()
		switch st {
		case stateChunk:
			b, err := chunkBytes(chunk)
			if err != nil {
				return 0, err
			}
			*pending = b
			continue
		case stateDone:
			return 0, io.EOF
		case stateErrored:
			return 0, promise.ReasonError(reason)
		}
		before := q.queuedSize()
		if err := pull(); err != nil {
			return 0, err
		}
		if q.queuedSize() == before && !q.settled() {
			return 0, io.ErrNoProgress
		}
	}
}

// Sink adapts a guest IntoUnderlyingSink to io.WriteCloser.
type Sink struct {
	ctx context.Context
	obj *object
}

// NewSink takes ownership of the guest IntoUnderlyingSink at ptr.
func NewSink(ctx context.Context, g *Guest, ptr uint32) *Sink {
	return &Sink{ctx: ctx, obj: newObject(g, "intounderlyingsink", ptr)}
}

// Write passes a copy of p to the guest as a Uint8Array chunk and waits for
// the write promise.
func (s *Sink) Write(p []byte) (int, error) {
	ptr, err := s.obj.raw()
	if err != nil {
		return 0, err
	}
	chunk := jsvalue.Uint8ArrayOf(append([]byte(nil), p...))
	if err := s.obj.call(s.ctx, "intounderlyingsink_write", ptr, chunk); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Close closes the sink, consuming the guest object.
func (s *Sink) Close() error {
	ptr, err := s.obj.take()
	if err != nil {
		return nil
	}
	return s.obj.call(s.ctx, "intounderlyingsink_close", ptr)
}

// Abort aborts the sink with reason, consuming the guest object.
func (s *Sink) Abort(reason any) error {
	ptr, err := s.obj.take()
	if err != nil {
		return err
	}
	return s.obj.call(s.ctx, "intounderlyingsink_abort", ptr, reason)
}

// Free releases the guest object without closing it.
func (s *Sink) Free() error { return s.obj.free(s.ctx) }

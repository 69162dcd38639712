package stream

import (
	"context"
	"io"

	"github.com/wippyai/wbg-runtime/eventloop"
	"github.com/wippyai/wbg-runtime/jsvalue"
	"github.com/wippyai/wbg-runtime/promise"
)

// DefaultChunkSize is the read size used by FromReader.
const DefaultChunkSize = 64 * 1024

// UnderlyingSource feeds a ReadableStream. Pull is called on the loop when
// a read finds the queue empty; a returned promise delays the next pull
// until it settles.
type UnderlyingSource interface {
	Pull(ctx context.Context, c *DefaultController) (*promise.Promise, error)
	Cancel(ctx context.Context, reason any) error
}

// ReadableStream is a host readable stream bound to an event loop.
type ReadableStream struct {
	ctx     context.Context
	loop    *eventloop.Loop
	src     UnderlyingSource
	q       *queue
	ctrl    *DefaultController
	reader  *Reader
	waiting int
	pulling bool
}

// New creates a stream over src.
func New(ctx context.Context, loop *eventloop.Loop, src UnderlyingSource) *ReadableStream {
	q := &queue{}
	return &ReadableStream{
		ctx:  ctx,
		loop: loop,
		src:  src,
		q:    q,
		ctrl: newDefaultController(q, 1),
	}
}

// FromReader creates a byte stream that reads r in chunks of chunkSize.
// Reads run off the loop; r is closed at end of stream or on cancel.
func FromReader(ctx context.Context, loop *eventloop.Loop, r io.ReadCloser, chunkSize int) *ReadableStream {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return New(ctx, loop, &readerSource{loop: loop, r: r, size: chunkSize})
}

// Controller returns the stream's controller.
func (s *ReadableStream) Controller() *DefaultController { return s.ctrl }

// Locked reports whether a reader holds the stream.
func (s *ReadableStream) Locked() bool { return s.reader != nil }

// GetReader locks the stream to a new default reader.
func (s *ReadableStream) GetReader() (*Reader, error) {
	if s.reader != nil {
		return nil, jsvalue.NewTypeError("ReadableStream is locked")
	}
	s.reader = &Reader{s: s, loop: s.loop}
	return s.reader, nil
}

// Cancel discards queued chunks, closes the stream and cancels the source.
func (s *ReadableStream) Cancel(reason any) *promise.Promise {
	if s.q.settled() {
		return promise.Resolved(s.loop, jsvalue.Undefined{})
	}
	s.q.cancel()
	if err := s.src.Cancel(s.ctx, reason); err != nil {
		return promise.RejectedWith(s.loop, promise.Reason(err))
	}
	return promise.Resolved(s.loop, jsvalue.Undefined{})
}

// ClassName implements jsvalue.ClassNamer.
func (s *ReadableStream) ClassName() string { return "ReadableStream" }

// GetProperty implements jsvalue.PropertyGetter.
func (s *ReadableStream) GetProperty(name string) (any, bool) {
	if name == "locked" {
		return s.Locked(), true
	}
	return nil, false
}

func (s *ReadableStream) serve(r *promise.Resolvers) {
	chunk, st, reason := s.q.next()
	switch st {
	case stateChunk:
		r.Resolve(jsvalue.IterResult(false, chunk))
		return
	case stateDone:
		r.Resolve(jsvalue.IterResult(true, jsvalue.Undefined{}))
		return
	case stateErrored:
		r.Reject(reason)
		return
	}

	s.waiting++
	s.q.onChange(func() {
		s.loop.Post(func() {
			s.waiting--
			s.serve(r)
		})
	})
	s.pull()
}

func (s *ReadableStream) pull() {
	if s.pulling || s.q.settled() {
		return
	}
	s.pulling = true
	p, err := s.src.Pull(s.ctx, s.ctrl)
	if err != nil {
		s.pulling = false
		s.ctrl.Error(promise.Reason(err))
		return
	}
	if p == nil {
		s.pulling = false
		return
	}
	p.Then(func(any) (any, error) {
		s.pulling = false
		if s.waiting > 0 && s.q.queuedSize() == 0 {
			s.pull()
		}
		return nil, nil
	}, func(reason any) (any, error) {
		s.pulling = false
		s.ctrl.Error(reason)
		return nil, nil
	})
}

// Reader is a ReadableStreamDefaultReader.
type Reader struct {
	s    *ReadableStream
	loop *eventloop.Loop
}

// Read returns a promise of {done, value}.
func (r *Reader) Read() *promise.Promise {
	if r.s == nil {
		return promise.RejectedWith(r.loop, jsvalue.NewTypeError("reader has been released"))
	}
	p, res := promise.WithResolvers(r.s.loop)
	r.s.serve(res)
	return p
}

// ReleaseLock unlocks the stream.
func (r *Reader) ReleaseLock() {
	if r.s != nil {
		r.s.reader = nil
		r.s = nil
	}
}

// Cancel cancels the underlying stream.
func (r *Reader) Cancel(reason any) *promise.Promise {
	if r.s == nil {
		return promise.RejectedWith(r.loop, jsvalue.NewTypeError("reader has been released"))
	}
	return r.s.Cancel(reason)
}

// ClassName implements jsvalue.ClassNamer.
func (r *Reader) ClassName() string { return "ReadableStreamDefaultReader" }

type readerSource struct {
	loop *eventloop.Loop
	r    io.ReadCloser
	size int
}

func (rs *readerSource) Pull(_ context.Context, c *DefaultController) (*promise.Promise, error) {
	p, res := promise.WithResolvers(rs.loop)
	release := rs.loop.Hold()
	go func() {
		buf := make([]byte, rs.size)
		n, err := rs.r.Read(buf)
		rs.loop.Post(func() {
			defer release()
			if n > 0 {
				_ = c.Enqueue(jsvalue.Uint8ArrayOf(buf[:n]))
			}
			switch {
			case err == io.EOF:
				_ = rs.r.Close()
				_ = c.Close()
			case err != nil:
				_ = rs.r.Close()
				c.Error(promise.Reason(err))
			}
			res.Resolve(jsvalue.Undefined{})
		})
	}()
	return p, nil
}

func (rs *readerSource) Cancel(context.Context, any) error {
	return rs.r.Close()
}

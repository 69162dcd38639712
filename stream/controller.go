package stream

import (
	"github.com/wippyai/wbg-runtime/jsvalue"
)

// DefaultController is the ReadableStreamDefaultController handed to
// underlying sources.
type DefaultController struct {
	q             *queue
	highWaterMark int
}

func newDefaultController(q *queue, hwm int) *DefaultController {
	return &DefaultController{q: q, highWaterMark: hwm}
}

// Enqueue appends a chunk. It fails once the stream is closed or errored.
func (c *DefaultController) Enqueue(chunk any) error {
	return c.q.push(chunk)
}

// Close closes the stream after queued chunks are read.
func (c *DefaultController) Close() error {
	return c.q.close()
}

// Error errors the stream, discarding queued chunks.
func (c *DefaultController) Error(reason any) {
	c.q.fail(reason)
}

// DesiredSize is the high water mark minus the queued size.
func (c *DefaultController) DesiredSize() float64 {
	return float64(c.highWaterMark - c.q.queuedSize())
}

// ClassName implements jsvalue.ClassNamer.
func (c *DefaultController) ClassName() string { return "ReadableStreamDefaultController" }

// GetProperty implements jsvalue.PropertyGetter.
func (c *DefaultController) GetProperty(name string) (any, bool) {
	if name == "desiredSize" {
		return c.DesiredSize(), true
	}
	return nil, false
}

// ByteController is the ReadableByteStreamController handed to byte
// sources. Chunks are always Uint8Array copies.
type ByteController struct {
	DefaultController
	byob *BYOBRequest
}

func newByteController(q *queue, hwm int) *ByteController {
	return &ByteController{DefaultController: DefaultController{q: q, highWaterMark: hwm}}
}

// Enqueue copies the viewed bytes into the queue and invalidates any
// pending BYOB request.
func (c *ByteController) Enqueue(chunk any) error {
	b, err := chunkBytes(chunk)
	if err != nil {
		return err
	}
	if len(b) == 0 {
		return jsvalue.NewTypeError("chunk must have non-zero byteLength")
	}
	if err := c.q.push(jsvalue.Uint8ArrayOf(append([]byte(nil), b...))); err != nil {
		return err
	}
	if c.byob != nil {
		c.byob.invalidate()
		c.byob = nil
	}
	return nil
}

// ByobRequest returns the pending request or nil.
func (c *ByteController) ByobRequest() *BYOBRequest {
	return c.byob
}

func (c *ByteController) request(n int) *BYOBRequest {
	r := &BYOBRequest{c: c, view: jsvalue.NewUint8Array(n)}
	c.byob = r
	return r
}

// ClassName implements jsvalue.ClassNamer.
func (c *ByteController) ClassName() string { return "ReadableByteStreamController" }

// GetProperty implements jsvalue.PropertyGetter.
func (c *ByteController) GetProperty(name string) (any, bool) {
	if name == "byobRequest" {
		if c.byob == nil {
			return jsvalue.Null{}, true
		}
		return c.byob, true
	}
	return c.DefaultController.GetProperty(name)
}

// BYOBRequest is a read into a buffer supplied by the consumer.
type BYOBRequest struct {
	c         *ByteController
	view      *jsvalue.Uint8Array
	responded bool
}

// View returns the buffer to fill, or nil once the request is answered.
func (r *BYOBRequest) View() *jsvalue.Uint8Array {
	if r.responded {
		return nil
	}
	return r.view
}

// Respond reports that n bytes were written into the view.
func (r *BYOBRequest) Respond(n uint32) error {
	if r.responded {
		return jsvalue.NewTypeError("BYOB request already answered")
	}
	if int(n) > r.view.Length {
		return jsvalue.NewError("RangeError", "bytesWritten out of range")
	}
	r.responded = true
	if r.c.byob == r {
		r.c.byob = nil
	}
	if n == 0 {
		return nil
	}
	return r.c.q.push(jsvalue.Uint8ArrayOf(append([]byte(nil), r.view.Bytes()[:n]...)))
}

func (r *BYOBRequest) invalidate() { r.responded = true }

// ClassName implements jsvalue.ClassNamer.
func (r *BYOBRequest) ClassName() string { return "ReadableStreamBYOBRequest" }

// GetProperty implements jsvalue.PropertyGetter.
func (r *BYOBRequest) GetProperty(name string) (any, bool) {
	if name == "view" {
		if v := r.View(); v != nil {
			return v, true
		}
		return jsvalue.Null{}, true
	}
	return nil, false
}

package stream

import (
	"sync"

	"github.com/wippyai/wbg-runtime/jsvalue"
)

type queue struct {
	chunks  []any
	watch   []func()
	reason  any
	size    int
	mu      sync.Mutex
	closed  bool
	errored bool
}

func (q *queue) push(chunk any) error {
	q.mu.Lock()
	if q.closed || q.errored {
		q.mu.Unlock()
		return jsvalue.NewTypeError("enqueue on a closed stream")
	}
	q.chunks = append(q.chunks, chunk)
	q.size += chunkSize(chunk)
	watch := q.drainWatchLocked()
	q.mu.Unlock()
	run(watch)
	return nil
}

func (q *queue) close() error {
	q.mu.Lock()
	if q.closed || q.errored {
		q.mu.Unlock()
		return jsvalue.NewTypeError("stream is already closed")
	}
	q.closed = true
	watch := q.drainWatchLocked()
	q.mu.Unlock()
	run(watch)
	return nil
}

func (q *queue) fail(reason any) {
	q.mu.Lock()
	if q.errored || (q.closed && len(q.chunks) == 0) {
		q.mu.Unlock()
		return
	}
	q.errored = true
	q.reason = reason
	q.chunks = nil
	q.size = 0
	watch := q.drainWatchLocked()
	q.mu.Unlock()
	run(watch)
}

// cancel drops queued chunks and closes the queue.
func (q *queue) cancel() {
	q.mu.Lock()
	q.chunks = nil
	q.size = 0
	q.closed = true
	watch := q.drainWatchLocked()
	q.mu.Unlock()
	run(watch)
}

type readState uint8

const (
	stateEmpty readState = iota
	stateChunk
	stateDone
	stateErrored
)

// next removes the head chunk if there is one.
func (q *queue) next() (any, readState, any) {
	q.mu.Lock()
	defer q.mu.Unlock()
	switch {
	case q.errored:
		return nil, stateErrored, q.reason
	case len(q.chunks) > 0:
		c := q.chunks[0]
		q.chunks[0] = nil
		q.chunks = q.chunks[1:]
		q.size -= chunkSize(c)
		return c, stateChunk, nil
	case q.closed:
		return nil, stateDone, nil
	}
	return nil, stateEmpty, nil
}

// onChange registers a one-shot callback for the next push, close or
// error. It runs on the goroutine that caused the change.
func (q *queue) onChange(fn func()) {
	q.mu.Lock()
	q.watch = append(q.watch, fn)
	q.mu.Unlock()
}

func (q *queue) queuedSize() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.size
}

func (q *queue) settled() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed || q.errored
}

func (q *queue) drainWatchLocked() []func() {
	w := q.watch
	q.watch = nil
	return w
}

func run(fns []func()) {
	for _, fn := range fns {
		fn()
	}
}

func chunkSize(c any) int {
	switch v := c.(type) {
	case *jsvalue.Uint8Array:
		return v.Length
	case *jsvalue.ArrayBuffer:
		return len(v.Data)
	}
	return 1
}

// chunkBytes extracts the bytes of a byte-like chunk.
func chunkBytes(c any) ([]byte, error) {
	switch v := c.(type) {
	case *jsvalue.Uint8Array:
		return v.Bytes(), nil
	case *jsvalue.ArrayBuffer:
		return v.Data, nil
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	}
	return nil, jsvalue.NewTypeError("chunk is not a byte array: " + jsvalue.DebugString(c))
}

// Package eventloop runs guest callbacks one at a time on a single
// goroutine, the way a browser main thread does.
//
// Work reaches the loop three ways:
//
//	Post(task)                  - a macrotask, from any goroutine
//	QueueMicrotask(fn)          - drained after every task and frame
//	RequestAnimationFrame(cb)   - batched and paced at the frame rate
//
// Host operations that complete later (a fetch, a database request) take a
// Hold while in flight so Run does not exit before their result is posted.
package eventloop

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/wippyai/wbg-runtime/errors"
)

// DefaultFrameRate is the animation frame rate when none is configured.
const DefaultFrameRate = 60

// FrameCallback receives the frame timestamp in milliseconds.
type FrameCallback func(timestamp float64)

// Option configures a Loop.
type Option func(*Loop)

// WithFrameRate sets the animation frame rate. Zero or negative disables
// pacing, running frames as fast as they are requested.
func WithFrameRate(fps float64) Option {
	return func(l *Loop) {
		if fps <= 0 {
			l.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		l.limiter = rate.NewLimiter(rate.Limit(fps), 1)
	}
}

// WithLogger sets the loop logger.
func WithLogger(log *zap.Logger) Option {
	return func(l *Loop) {
		l.log = log
	}
}

// Loop is a cooperative single-goroutine scheduler.
type Loop struct {
	start   time.Time
	limiter *rate.Limiter
	log     *zap.Logger
	wake    chan struct{}
	frames  map[int]FrameCallback
	current map[int]FrameCallback
	tasks   []func()
	micro   []func()
	holds   int
	nextID  int
	frameNo uint64
	stopped bool
	running bool
	mu      sync.Mutex
}

// New creates a loop.
func New(opts ...Option) *Loop {
	l := &Loop{
		start:  time.Now(),
		wake:   make(chan struct{}, 1),
		frames: make(map[int]FrameCallback),
		log:    Logger(),
	}
	WithFrameRate(DefaultFrameRate)(l)
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Now returns milliseconds since the loop was created.
func (l *Loop) Now() float64 {
	return float64(time.Since(l.start).Microseconds()) / 1000
}

// Frames returns the number of animation frames run so far.
func (l *Loop) Frames() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.frameNo
}

// Post schedules a task. Safe to call from any goroutine.
func (l *Loop) Post(task func()) {
	l.mu.Lock()
	l.tasks = append(l.tasks, task)
	l.mu.Unlock()
	l.signal()
}

// QueueMicrotask schedules fn to run after the current task, before any
// other task or frame.
func (l *Loop) QueueMicrotask(fn func()) {
	l.mu.Lock()
	l.micro = append(l.micro, fn)
	l.mu.Unlock()
	l.signal()
}

// RequestAnimationFrame schedules cb for the next frame and returns an id
// for CancelAnimationFrame.
func (l *Loop) RequestAnimationFrame(cb FrameCallback) int {
	l.mu.Lock()
	l.nextID++
	id := l.nextID
	l.frames[id] = cb
	l.mu.Unlock()
	l.signal()
	return id
}

// CancelAnimationFrame removes a pending frame callback, including one
// still waiting its turn in the frame being run.
func (l *Loop) CancelAnimationFrame(id int) {
	l.mu.Lock()
	delete(l.frames, id)
	delete(l.current, id)
	l.mu.Unlock()
}

// Hold keeps Run alive until the returned release is called. Release is
// idempotent.
func (l *Loop) Hold() (release func()) {
	l.mu.Lock()
	l.holds++
	l.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			l.holds--
			l.mu.Unlock()
			l.signal()
		})
	}
}

// Exec runs fn on the loop and waits for it to return. The loop must be
// running on another goroutine; calling Exec from a loop task deadlocks.
func (l *Loop) Exec(ctx context.Context, fn func()) error {
	release := l.Hold()
	defer release()

	done := make(chan struct{})
	l.Post(func() {
		defer close(done)
		fn()
	})
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Pending reports queued tasks, frame callbacks and holds.
func (l *Loop) Pending() (tasks, frames, holds int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.tasks) + len(l.micro), len(l.frames), l.holds
}

// Stop makes Run return after the current task.
func (l *Loop) Stop() {
	l.mu.Lock()
	l.stopped = true
	l.mu.Unlock()
	l.signal()
}

func (l *Loop) signal() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Run processes work until the loop is idle, Stop is called or ctx is
// done. A panic inside a task stops the loop and is returned as an error.
func (l *Loop) Run(ctx context.Context) (err error) {
	l.mu.Lock()
	if l.running {
		l.mu.Unlock()
		return errors.New(errors.PhaseRuntime, errors.KindInvalidState).Detail("event loop already running").Build()
	}
	l.running = true
	l.stopped = false
	l.mu.Unlock()

	defer func() {
		l.mu.Lock()
		l.running = false
		l.mu.Unlock()
	}()
	defer func() {
		if r := recover(); r != nil {
			err = panicError(r)
			l.log.Error("task panicked", zap.Error(err))
		}
	}()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		l.drainMicrotasks()

		l.mu.Lock()
		if l.stopped {
			l.mu.Unlock()
			return nil
		}
		if len(l.tasks) > 0 {
			task := l.tasks[0]
			l.tasks[0] = nil
			l.tasks = l.tasks[1:]
			l.mu.Unlock()
			task()
			continue
		}
		hasFrames := len(l.frames) > 0
		idle := !hasFrames && l.holds == 0 && len(l.micro) == 0
		l.mu.Unlock()

		if idle {
			return nil
		}

		if hasFrames {
			if ok, err := l.waitFrame(ctx); err != nil {
				return err
			} else if ok {
				l.runFrame()
			}
			continue
		}

		select {
		case <-l.wake:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// waitFrame blocks until the limiter admits a frame. It returns false when
// other work arrived first.
func (l *Loop) waitFrame(ctx context.Context) (bool, error) {
	r := l.limiter.Reserve()
	delay := r.Delay()
	if delay <= 0 {
		return true, nil
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true, nil
	case <-l.wake:
		r.Cancel()
		l.mu.Lock()
		busy := len(l.tasks) > 0 || len(l.micro) > 0 || l.stopped
		l.mu.Unlock()
		if busy {
			// keep the wake for the main loop
			l.signal()
		}
		return false, nil
	case <-ctx.Done():
		r.Cancel()
		return false, ctx.Err()
	}
}

func (l *Loop) runFrame() {
	l.mu.Lock()
	ids := make([]int, 0, len(l.frames))
	for id := range l.frames {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	l.current = l.frames
	l.frames = make(map[int]FrameCallback)
	l.frameNo++
	l.mu.Unlock()

	ts := l.Now()
	for _, id := range ids {
		l.mu.Lock()
		cb, ok := l.current[id]
		delete(l.current, id)
		l.mu.Unlock()
		if !ok {
			continue
		}
		cb(ts)
		l.drainMicrotasks()
	}

	l.mu.Lock()
	l.current = nil
	l.mu.Unlock()
}

func (l *Loop) drainMicrotasks() {
	for {
		l.mu.Lock()
		if len(l.micro) == 0 {
			l.mu.Unlock()
			return
		}
		fn := l.micro[0]
		l.micro[0] = nil
		l.micro = l.micro[1:]
		l.mu.Unlock()
		fn()
	}
}

func panicError(r any) error {
	if err, ok := r.(error); ok {
		return errors.Wrap(errors.PhaseRuntime, errors.KindException, err, "task panicked")
	}
	return errors.New(errors.PhaseRuntime, errors.KindException).Detail("task panicked: %s", fmt.Sprint(r)).Build()
}

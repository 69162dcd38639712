package audio

import (
	"context"

	"go.uber.org/zap"

	"github.com/wippyai/wbg-runtime/dom"
	"github.com/wippyai/wbg-runtime/eventloop"
	"github.com/wippyai/wbg-runtime/jsvalue"
	"github.com/wippyai/wbg-runtime/promise"
)

// Context states.
const (
	StateSuspended = "suspended"
	StateRunning   = "running"
	StateClosed    = "closed"
)

// DefaultSampleRate is the rate of contexts created without WithSampleRate.
const DefaultSampleRate = 48000

// Option configures a Context.
type Option func(*Context)

// WithSampleRate sets the context sample rate.
func WithSampleRate(rate float64) Option {
	return func(c *Context) { c.SampleRate = rate }
}

// WithDecoder sets the decoder behind decodeAudioData.
func WithDecoder(d Decoder) Option {
	return func(c *Context) { c.decoder = d }
}

// WithLogger sets the context logger.
func WithLogger(log *zap.Logger) Option {
	return func(c *Context) { c.log = log }
}

// Context is an AudioContext. Its clock is the event loop clock and only
// advances while the context is running. No samples are produced.
type Context struct {
	dom.EventTarget
	SampleRate float64

	loop        *eventloop.Loop
	log         *zap.Logger
	decoder     Decoder
	state       string
	elapsed     float64
	mark        float64
	destination *Destination
	sources     map[*BufferSource]struct{}
}

// NewContext creates a running context.
func NewContext(loop *eventloop.Loop, opts ...Option) *Context {
	c := &Context{
		SampleRate: DefaultSampleRate,
		loop:       loop,
		state:      StateRunning,
		mark:       loop.Now(),
		sources:    make(map[*BufferSource]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = Logger()
	}
	c.destination = &Destination{AudioNode: AudioNode{ctx: c, inputs: 1}, MaxChannelCount: 2}
	return c
}

// Loop returns the owning event loop.
func (c *Context) Loop() *eventloop.Loop { return c.loop }

// State returns suspended, running or closed.
func (c *Context) State() string { return c.state }

// CurrentTime returns the context time in seconds.
func (c *Context) CurrentTime() float64 {
	if c.state != StateRunning {
		return c.elapsed
	}
	return c.elapsed + (c.loop.Now()-c.mark)/1000
}

// Destination returns the final node of the graph.
func (c *Context) Destination() *Destination { return c.destination }

// ActiveSources returns the number of started sources that have not ended.
func (c *Context) ActiveSources() int { return len(c.sources) }

func (c *Context) setState(ctx context.Context, state string) {
	if c.state == state {
		return
	}
	if c.state == StateRunning {
		c.elapsed = c.CurrentTime()
	}
	if state == StateRunning {
		c.mark = c.loop.Now()
	}
	c.state = state
	if _, err := c.Dispatch(ctx, c, dom.NewEvent("statechange")); err != nil {
		c.log.Warn("statechange handler failed", zap.Error(err))
	}
}

func (c *Context) closedError() *jsvalue.Error {
	return jsvalue.NewError(jsvalue.InvalidStateError, "The AudioContext has been closed.")
}

// Resume starts the clock.
func (c *Context) Resume(ctx context.Context) *promise.Promise {
	if c.state == StateClosed {
		return promise.RejectedWith(c.loop, c.closedError())
	}
	c.setState(ctx, StateRunning)
	return promise.Resolved(c.loop, jsvalue.Undefined{})
}

// Suspend freezes the clock.
func (c *Context) Suspend(ctx context.Context) *promise.Promise {
	if c.state == StateClosed {
		return promise.RejectedWith(c.loop, c.closedError())
	}
	c.setState(ctx, StateSuspended)
	return promise.Resolved(c.loop, jsvalue.Undefined{})
}

// Close stops every source and releases the context.
func (c *Context) Close(ctx context.Context) *promise.Promise {
	if c.state == StateClosed {
		return promise.RejectedWith(c.loop, c.closedError())
	}
	for s := range c.sources {
		s.cancelTimer()
		delete(c.sources, s)
	}
	c.setState(ctx, StateClosed)
	return promise.Resolved(c.loop, jsvalue.Undefined{})
}

// NewGain creates a GainNode with gain 1.
func (c *Context) NewGain() (*GainNode, error) {
	if c.state == StateClosed {
		return nil, c.closedError()
	}
	return &GainNode{
		AudioNode: AudioNode{ctx: c, inputs: 1, outputs: 1},
		Gain:      NewParam("gain", 1, -maxFloat32, maxFloat32),
	}, nil
}

// NewBufferSource creates an AudioBufferSourceNode.
func (c *Context) NewBufferSource() (*BufferSource, error) {
	if c.state == StateClosed {
		return nil, c.closedError()
	}
	return &BufferSource{
		AudioNode:    AudioNode{ctx: c, outputs: 1},
		PlaybackRate: NewParam("playbackRate", 1, -maxFloat32, maxFloat32),
	}, nil
}

// NewPlaybackPosition creates a PlaybackPositionNode.
func (c *Context) NewPlaybackPosition() (*PlaybackPosition, error) {
	if c.state == StateClosed {
		return nil, c.closedError()
	}
	return newPlaybackPosition(c), nil
}

// ClassName implements jsvalue.ClassNamer.
func (c *Context) ClassName() string { return "AudioContext" }

// InstanceOf implements jsvalue.Instancer.
func (c *Context) InstanceOf(class string) bool {
	return class == "AudioContext" || class == "BaseAudioContext" || class == "EventTarget"
}

// GetProperty implements jsvalue.PropertyGetter.
func (c *Context) GetProperty(name string) (any, bool) {
	switch name {
	case "currentTime":
		return c.CurrentTime(), true
	case "sampleRate":
		return c.SampleRate, true
	case "state":
		return c.state, true
	case "destination":
		return c.destination, true
	case "resume":
		return jsvalue.NewFunc("resume", func(ctx context.Context, _ any, _ []any) (any, error) {
			return c.Resume(ctx), nil
		}), true
	case "suspend":
		return jsvalue.NewFunc("suspend", func(ctx context.Context, _ any, _ []any) (any, error) {
			return c.Suspend(ctx), nil
		}), true
	case "close":
		return jsvalue.NewFunc("close", func(ctx context.Context, _ any, _ []any) (any, error) {
			return c.Close(ctx), nil
		}), true
	case "createGain":
		return jsvalue.NewFunc("createGain", func(context.Context, any, []any) (any, error) {
			return c.NewGain()
		}), true
	case "createBufferSource":
		return jsvalue.NewFunc("createBufferSource", func(context.Context, any, []any) (any, error) {
			return c.NewBufferSource()
		}), true
	case "decodeAudioData":
		return jsvalue.NewFunc("decodeAudioData", func(ctx context.Context, _ any, args []any) (any, error) {
			var data any = jsvalue.Undefined{}
			if len(args) > 0 {
				data = args[0]
			}
			return c.DecodeAudioData(ctx, data), nil
		}), true
	case "onstatechange":
		if h := c.Handler("statechange"); h != nil {
			return h, true
		}
		return jsvalue.Null{}, true
	}
	return nil, false
}

// SetProperty implements jsvalue.PropertySetter.
func (c *Context) SetProperty(name string, v any) error {
	if name == "onstatechange" {
		c.SetHandler("statechange", v)
		return nil
	}
	return jsvalue.NewTypeError("Cannot set property " + name + " of AudioContext")
}

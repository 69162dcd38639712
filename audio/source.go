package audio

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/wippyai/wbg-runtime/dom"
	"github.com/wippyai/wbg-runtime/jsvalue"
)

// Buffer is an AudioBuffer of planar float32 samples.
type Buffer struct {
	SampleRate float64
	channels   [][]float32
}

// NewBuffer allocates a silent buffer.
func NewBuffer(channels, length int, sampleRate float64) (*Buffer, error) {
	if channels < 1 || length < 1 || sampleRate <= 0 {
		return nil, jsvalue.NewError(jsvalue.NotSupportedError, "invalid AudioBuffer dimensions")
	}
	data := make([][]float32, channels)
	for i := range data {
		data[i] = make([]float32, length)
	}
	return &Buffer{SampleRate: sampleRate, channels: data}, nil
}

// BufferOf wraps existing channel data. All channels must have the same
// length.
func BufferOf(sampleRate float64, channels ...[]float32) (*Buffer, error) {
	if len(channels) == 0 || sampleRate <= 0 {
		return nil, jsvalue.NewError(jsvalue.NotSupportedError, "invalid AudioBuffer dimensions")
	}
	for _, ch := range channels[1:] {
		if len(ch) != len(channels[0]) {
			return nil, jsvalue.NewError(jsvalue.NotSupportedError, "channel lengths differ")
		}
	}
	return &Buffer{SampleRate: sampleRate, channels: channels}, nil
}

// Length returns the frame count.
func (b *Buffer) Length() int { return len(b.channels[0]) }

// Duration returns the length in seconds.
func (b *Buffer) Duration() float64 { return float64(b.Length()) / b.SampleRate }

// NumberOfChannels returns the channel count.
func (b *Buffer) NumberOfChannels() int { return len(b.channels) }

// ChannelData returns channel i.
func (b *Buffer) ChannelData(i int) ([]float32, error) {
	if i < 0 || i >= len(b.channels) {
		return nil, jsvalue.NewError(jsvalue.IndexSizeError, "channel index out of range")
	}
	return b.channels[i], nil
}

// ClassName implements jsvalue.ClassNamer.
func (b *Buffer) ClassName() string { return "AudioBuffer" }

// GetProperty implements jsvalue.PropertyGetter.
func (b *Buffer) GetProperty(name string) (any, bool) {
	switch name {
	case "sampleRate":
		return b.SampleRate, true
	case "length":
		return float64(b.Length()), true
	case "duration":
		return b.Duration(), true
	case "numberOfChannels":
		return float64(len(b.channels)), true
	case "getChannelData":
		return jsvalue.NewFunc("getChannelData", func(_ context.Context, _ any, args []any) (any, error) {
			var i float64
			if len(args) > 0 {
				i, _ = jsvalue.ToNumber(args[0])
			}
			data, err := b.ChannelData(int(i))
			if err != nil {
				return nil, err
			}
			return jsvalue.Float32ArrayOf(data), nil
		}), true
	}
	return nil, false
}

// BufferSource is an AudioBufferSourceNode. Playback is timed against the
// context clock; ended fires on the loop when the buffer runs out or at the
// stop time.
type BufferSource struct {
	AudioNode
	dom.EventTarget
	Buffer       *Buffer
	Loop         bool
	PlaybackRate *Param

	started bool
	ended   bool
	startAt float64
	offset  float64
	timer   *time.Timer
	release func()
}

// Started reports whether Start was called.
func (s *BufferSource) Started() bool { return s.started }

// Playing reports whether the source started and has not ended.
func (s *BufferSource) Playing() bool { return s.started && !s.ended }

// Position returns the playback position in the buffer, in seconds.
func (s *BufferSource) Position() float64 {
	if !s.started || s.Buffer == nil {
		return 0
	}
	elapsed := s.ctx.CurrentTime() - s.startAt
	if elapsed < 0 {
		return s.offset
	}
	pos := s.offset + elapsed*float64(s.PlaybackRate.Value())
	if s.Loop {
		return math.Mod(pos, s.Buffer.Duration())
	}
	return min(pos, s.Buffer.Duration())
}

// Start schedules playback at when (context seconds) from offset seconds
// into the buffer. A source can be started once.
func (s *BufferSource) Start(when, offset float64) error {
	if s.started {
		return jsvalue.NewError(jsvalue.InvalidStateError, "cannot call start more than once.")
	}
	if when < 0 || offset < 0 {
		return jsvalue.NewError("RangeError", "start time and offset must be non-negative")
	}
	if s.ctx.State() == StateClosed {
		return s.ctx.closedError()
	}
	now := s.ctx.CurrentTime()
	s.started = true
	s.startAt = max(when, now)
	s.offset = offset
	s.ctx.sources[s] = struct{}{}
	if s.Buffer != nil && !s.Loop {
		rate := float64(s.PlaybackRate.Value())
		if rate > 0 {
			remain := max(s.Buffer.Duration()-offset, 0)
			s.schedule(s.startAt + remain/rate - now)
		}
	}
	return nil
}

// Stop ends playback at when (context seconds), or now.
func (s *BufferSource) Stop(when float64) error {
	if !s.started {
		return jsvalue.NewError(jsvalue.InvalidStateError, "cannot call stop without calling start first.")
	}
	if s.ended {
		return nil
	}
	s.schedule(when - s.ctx.CurrentTime())
	return nil
}

func (s *BufferSource) schedule(delay float64) {
	s.cancelTimer()
	loop := s.ctx.Loop()
	release := loop.Hold()
	var t *time.Timer
	t = time.AfterFunc(time.Duration(max(delay, 0)*float64(time.Second)), func() {
		loop.Post(func() {
			release()
			if s.timer == t {
				s.timer, s.release = nil, nil
				s.finish(context.Background())
			}
		})
	})
	s.timer, s.release = t, release
}

func (s *BufferSource) cancelTimer() {
	if s.timer == nil {
		return
	}
	if s.timer.Stop() {
		s.release()
	}
	s.timer, s.release = nil, nil
}

func (s *BufferSource) finish(ctx context.Context) {
	if s.ended {
		return
	}
	s.ended = true
	delete(s.ctx.sources, s)
	if _, err := s.Dispatch(ctx, s, dom.NewEvent("ended")); err != nil {
		s.ctx.log.Warn("ended handler failed", zap.Error(err))
	}
}

// ClassName implements jsvalue.ClassNamer.
func (s *BufferSource) ClassName() string { return "AudioBufferSourceNode" }

// InstanceOf implements jsvalue.Instancer.
func (s *BufferSource) InstanceOf(class string) bool {
	switch class {
	case "AudioBufferSourceNode", "AudioScheduledSourceNode", "AudioNode", "EventTarget":
		return true
	}
	return false
}

func numberArg(args []any, i int) float64 {
	if i >= len(args) || jsvalue.IsNullish(args[i]) {
		return 0
	}
	f, _ := jsvalue.ToNumber(args[i])
	return f
}

// GetProperty implements jsvalue.PropertyGetter.
func (s *BufferSource) GetProperty(name string) (any, bool) {
	switch name {
	case "buffer":
		if s.Buffer == nil {
			return jsvalue.Null{}, true
		}
		return s.Buffer, true
	case "loop":
		return s.Loop, true
	case "playbackRate":
		return s.PlaybackRate, true
	case "start":
		return jsvalue.NewFunc("start", func(_ context.Context, _ any, args []any) (any, error) {
			return jsvalue.Undefined{}, s.Start(numberArg(args, 0), numberArg(args, 1))
		}), true
	case "stop":
		return jsvalue.NewFunc("stop", func(_ context.Context, _ any, args []any) (any, error) {
			return jsvalue.Undefined{}, s.Stop(numberArg(args, 0))
		}), true
	case "onended":
		if h := s.Handler("ended"); h != nil {
			return h, true
		}
		return jsvalue.Null{}, true
	}
	return s.AudioNode.GetProperty(name)
}

// SetProperty implements jsvalue.PropertySetter.
func (s *BufferSource) SetProperty(name string, v any) error {
	switch name {
	case "buffer":
		if jsvalue.IsNullish(v) {
			s.Buffer = nil
			return nil
		}
		b, ok := v.(*Buffer)
		if !ok {
			return jsvalue.NewTypeError("Failed to set the 'buffer' property on 'AudioBufferSourceNode': The provided value is not of type 'AudioBuffer'.")
		}
		if s.Buffer != nil {
			return jsvalue.NewError(jsvalue.InvalidStateError, "Cannot set buffer to non-null after it has been already been set to a non-null buffer.")
		}
		s.Buffer = b
		return nil
	case "loop":
		s.Loop = jsvalue.Truthy(v)
		return nil
	case "onended":
		s.SetHandler("ended", v)
		return nil
	}
	return jsvalue.NewTypeError("Cannot set property " + name + " of AudioBufferSourceNode")
}

// PlaybackPosition is the engine's PlaybackPositionNode: it integrates its
// playbackRate over context time, so the engine can read how far a track
// has advanced under a varying rate.
type PlaybackPosition struct {
	AudioNode
	PlaybackRate *Param

	position float64
	last     float64
}

func newPlaybackPosition(c *Context) *PlaybackPosition {
	p := &PlaybackPosition{
		AudioNode:    AudioNode{ctx: c, inputs: 1, outputs: 1},
		PlaybackRate: NewParam("playbackRate", 1, 0, maxFloat32),
		last:         c.CurrentTime(),
	}
	p.PlaybackRate.observe = func() { p.Position() }
	return p
}

// Position returns the accumulated playback position in seconds.
func (p *PlaybackPosition) Position() float64 {
	now := p.ctx.CurrentTime()
	p.position += (now - p.last) * float64(p.PlaybackRate.Value())
	p.last = now
	return p.position
}

// Reset sets the position.
func (p *PlaybackPosition) Reset(pos float64) {
	p.position = pos
	p.last = p.ctx.CurrentTime()
}

// ClassName implements jsvalue.ClassNamer.
func (p *PlaybackPosition) ClassName() string { return "PlaybackPositionNode" }

// InstanceOf implements jsvalue.Instancer.
func (p *PlaybackPosition) InstanceOf(class string) bool {
	switch class {
	case "PlaybackPositionNode", "AudioWorkletNode", "AudioNode":
		return true
	}
	return false
}

// GetProperty implements jsvalue.PropertyGetter.
func (p *PlaybackPosition) GetProperty(name string) (any, bool) {
	switch name {
	case "playbackRate":
		return p.PlaybackRate, true
	case "position":
		return p.Position(), true
	case "reset":
		return jsvalue.NewFunc("reset", func(_ context.Context, _ any, args []any) (any, error) {
			p.Reset(numberArg(args, 0))
			return jsvalue.Undefined{}, nil
		}), true
	}
	return p.AudioNode.GetProperty(name)
}

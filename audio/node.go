package audio

import (
	"context"
	"math"
	"slices"

	"github.com/wippyai/wbg-runtime/jsvalue"
)

const maxFloat32 = math.MaxFloat32

// Node is any audio graph node.
type Node interface {
	base() *AudioNode
}

// AudioNode holds the graph edges of a node.
type AudioNode struct {
	ctx     *Context
	inputs  int
	outputs int
	targets []Node
}

func (n *AudioNode) base() *AudioNode { return n }

// Context returns the owning context.
func (n *AudioNode) Context() *Context { return n.ctx }

// Targets returns the nodes this node feeds.
func (n *AudioNode) Targets() []Node { return n.targets }

// Connect adds an edge to dst and returns dst. Repeated connections are
// kept once.
func (n *AudioNode) Connect(dst Node) (Node, error) {
	if dst == nil {
		return nil, jsvalue.NewTypeError("Failed to execute 'connect' on 'AudioNode': parameter 1 is not of type 'AudioNode'.")
	}
	d := dst.base()
	if d.ctx != n.ctx {
		return nil, jsvalue.NewError(jsvalue.InvalidAccessError, "cannot connect to an AudioNode belonging to a different audio context.")
	}
	if d.inputs == 0 {
		return nil, jsvalue.NewError(jsvalue.IndexSizeError, "input index (0) exceeds number of inputs (0).")
	}
	if !slices.Contains(n.targets, dst) {
		n.targets = append(n.targets, dst)
	}
	return dst, nil
}

// Disconnect removes the edge to dst, or every outgoing edge when dst is
// nil.
func (n *AudioNode) Disconnect(dst Node) error {
	if dst == nil {
		n.targets = nil
		return nil
	}
	i := slices.Index(n.targets, dst)
	if i < 0 {
		return jsvalue.NewError(jsvalue.InvalidAccessError, "the given destination is not connected.")
	}
	n.targets = slices.Delete(n.targets, i, i+1)
	return nil
}

// Reaches reports whether dst is reachable from n.
func (n *AudioNode) Reaches(dst Node) bool {
	seen := map[*AudioNode]bool{}
	var walk func(a *AudioNode) bool
	walk = func(a *AudioNode) bool {
		if seen[a] {
			return false
		}
		seen[a] = true
		for _, t := range a.targets {
			if t == dst || walk(t.base()) {
				return true
			}
		}
		return false
	}
	return walk(n)
}

// GetProperty implements jsvalue.PropertyGetter.
func (n *AudioNode) GetProperty(name string) (any, bool) {
	switch name {
	case "context":
		return n.ctx, true
	case "numberOfInputs":
		return float64(n.inputs), true
	case "numberOfOutputs":
		return float64(n.outputs), true
	case "connect":
		return jsvalue.NewFunc("connect", func(_ context.Context, _ any, args []any) (any, error) {
			var dst Node
			if len(args) > 0 {
				dst, _ = args[0].(Node)
			}
			return n.Connect(dst)
		}), true
	case "disconnect":
		return jsvalue.NewFunc("disconnect", func(_ context.Context, _ any, args []any) (any, error) {
			var dst Node
			if len(args) > 0 && !jsvalue.IsNullish(args[0]) {
				var ok bool
				if dst, ok = args[0].(Node); !ok {
					return nil, jsvalue.NewTypeError("Failed to execute 'disconnect' on 'AudioNode': parameter 1 is not of type 'AudioNode'.")
				}
			}
			return jsvalue.Undefined{}, n.Disconnect(dst)
		}), true
	}
	return nil, false
}

// Destination is the AudioDestinationNode.
type Destination struct {
	AudioNode
	MaxChannelCount int
}

// ClassName implements jsvalue.ClassNamer.
func (d *Destination) ClassName() string { return "AudioDestinationNode" }

// InstanceOf implements jsvalue.Instancer.
func (d *Destination) InstanceOf(class string) bool {
	return class == "AudioDestinationNode" || class == "AudioNode"
}

// GetProperty implements jsvalue.PropertyGetter.
func (d *Destination) GetProperty(name string) (any, bool) {
	if name == "maxChannelCount" {
		return float64(d.MaxChannelCount), true
	}
	return d.AudioNode.GetProperty(name)
}

// GainNode scales its input by Gain.
type GainNode struct {
	AudioNode
	Gain *Param
}

// ClassName implements jsvalue.ClassNamer.
func (g *GainNode) ClassName() string { return "GainNode" }

// InstanceOf implements jsvalue.Instancer.
func (g *GainNode) InstanceOf(class string) bool {
	return class == "GainNode" || class == "AudioNode"
}

// GetProperty implements jsvalue.PropertyGetter.
func (g *GainNode) GetProperty(name string) (any, bool) {
	if name == "gain" {
		return g.Gain, true
	}
	return g.AudioNode.GetProperty(name)
}

// Param is an AudioParam. Only the intrinsic value is modeled; automation
// events are not.
type Param struct {
	Name         string
	DefaultValue float32
	MinValue     float32
	MaxValue     float32
	value        float32
	observe      func()
}

// NewParam creates a param holding def.
func NewParam(name string, def, lo, hi float32) *Param {
	return &Param{Name: name, DefaultValue: def, MinValue: lo, MaxValue: hi, value: def}
}

// Value returns the current value.
func (p *Param) Value() float32 { return p.value }

// SetValue sets the value, clamped to the nominal range.
func (p *Param) SetValue(v float32) {
	if p.observe != nil {
		p.observe()
	}
	p.value = min(max(v, p.MinValue), p.MaxValue)
}

// ClassName implements jsvalue.ClassNamer.
func (p *Param) ClassName() string { return "AudioParam" }

// GetProperty implements jsvalue.PropertyGetter.
func (p *Param) GetProperty(name string) (any, bool) {
	switch name {
	case "value":
		return float64(p.value), true
	case "defaultValue":
		return float64(p.DefaultValue), true
	case "minValue":
		return float64(p.MinValue), true
	case "maxValue":
		return float64(p.MaxValue), true
	}
	return nil, false
}

// SetProperty implements jsvalue.PropertySetter.
func (p *Param) SetProperty(name string, v any) error {
	if name != "value" {
		return jsvalue.NewTypeError("Cannot set property " + name + " of AudioParam")
	}
	f, err := jsvalue.ToNumber(v)
	if err != nil {
		return err
	}
	p.SetValue(float32(f))
	return nil
}

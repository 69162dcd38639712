package input

import (
	"context"
	"sync"

	"github.com/wippyai/wbg-runtime/dom"
	"github.com/wippyai/wbg-runtime/jsvalue"
)

// MaxGamepads is the number of gamepad slots exposed to the guest.
const MaxGamepads = 4

// GamepadButton is one button state.
type GamepadButton struct {
	Pressed bool
	Touched bool
	Value   float64
}

// ClassName implements jsvalue.ClassNamer.
func (b *GamepadButton) ClassName() string { return "GamepadButton" }

// GetProperty implements jsvalue.PropertyGetter.
func (b *GamepadButton) GetProperty(name string) (any, bool) {
	switch name {
	case "pressed":
		return b.Pressed, true
	case "touched":
		return b.Touched, true
	case "value":
		return b.Value, true
	}
	return nil, false
}

// Gamepad is a snapshot of one connected controller.
type Gamepad struct {
	Index     int
	ID        string
	Mapping   string
	Connected bool
	Timestamp float64
	Buttons   []GamepadButton
	Axes      []float64
}

// ClassName implements jsvalue.ClassNamer.
func (g *Gamepad) ClassName() string { return "Gamepad" }

// GetProperty implements jsvalue.PropertyGetter.
func (g *Gamepad) GetProperty(name string) (any, bool) {
	switch name {
	case "index":
		return float64(g.Index), true
	case "id":
		return g.ID, true
	case "mapping":
		return g.Mapping, true
	case "connected":
		return g.Connected, true
	case "timestamp":
		return g.Timestamp, true
	case "buttons":
		arr := jsvalue.NewArray()
		for i := range g.Buttons {
			arr.Push(&g.Buttons[i])
		}
		return arr, true
	case "axes":
		arr := jsvalue.NewArray()
		for _, a := range g.Axes {
			arr.Push(a)
		}
		return arr, true
	}
	return nil, false
}

func (g *Gamepad) clone() *Gamepad {
	c := *g
	c.Buttons = append([]GamepadButton(nil), g.Buttons...)
	c.Axes = append([]float64(nil), g.Axes...)
	return &c
}

// GamepadEvent is gamepadconnected / gamepaddisconnected.
type GamepadEvent struct {
	dom.Event
	Gamepad *Gamepad
}

// ClassName implements jsvalue.ClassNamer.
func (e *GamepadEvent) ClassName() string { return "GamepadEvent" }

// GetProperty implements jsvalue.PropertyGetter.
func (e *GamepadEvent) GetProperty(name string) (any, bool) {
	if name == "gamepad" {
		return e.Gamepad, true
	}
	return e.Event.GetProperty(name)
}

// Target receives dispatched events.
type Target interface {
	Dispatch(ctx context.Context, self any, ev dom.Dispatchable) (bool, error)
}

// Gamepads is the controller registry behind navigator.getGamepads().
// Devices are updated from any goroutine; the guest reads snapshots taken
// on the loop.
type Gamepads struct {
	mu    sync.Mutex
	slots [MaxGamepads]*Gamepad
	now   func() float64
}

// NewGamepads creates an empty registry. now stamps updates.
func NewGamepads(now func() float64) *Gamepads {
	if now == nil {
		now = func() float64 { return 0 }
	}
	return &Gamepads{now: now}
}

// Connect occupies the first free slot and returns its index, or -1 when
// every slot is taken.
func (g *Gamepads) Connect(id string, buttons, axes int) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	for i, s := range g.slots {
		if s == nil {
			g.slots[i] = &Gamepad{
				Index:     i,
				ID:        id,
				Mapping:   "standard",
				Connected: true,
				Timestamp: g.now(),
				Buttons:   make([]GamepadButton, buttons),
				Axes:      make([]float64, axes),
			}
			return i
		}
	}
	return -1
}

// Disconnect frees slot i.
func (g *Gamepads) Disconnect(i int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if i >= 0 && i < MaxGamepads {
		g.slots[i] = nil
	}
}

// SetButton updates button b of pad i. Values above 0.5 count as pressed.
func (g *Gamepads) SetButton(i, b int, value float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	p := g.pad(i)
	if p == nil || b < 0 || b >= len(p.Buttons) {
		return
	}
	p.Buttons[b] = GamepadButton{Pressed: value > 0.5, Touched: value > 0, Value: value}
	p.Timestamp = g.now()
}

// SetAxis updates axis a of pad i, clamped to [-1, 1].
func (g *Gamepads) SetAxis(i, a int, value float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	p := g.pad(i)
	if p == nil || a < 0 || a >= len(p.Axes) {
		return
	}
	p.Axes[a] = max(-1, min(1, value))
	p.Timestamp = g.now()
}

func (g *Gamepads) pad(i int) *Gamepad {
	if i < 0 || i >= MaxGamepads {
		return nil
	}
	return g.slots[i]
}

// Get returns a snapshot of pad i or nil.
func (g *Gamepads) Get(i int) *Gamepad {
	g.mu.Lock()
	defer g.mu.Unlock()
	if p := g.pad(i); p != nil {
		return p.clone()
	}
	return nil
}

// Snapshot returns the getGamepads() array: one entry per slot, null for
// empty slots.
func (g *Gamepads) Snapshot() *jsvalue.Array {
	g.mu.Lock()
	defer g.mu.Unlock()
	arr := jsvalue.NewArray()
	for _, p := range g.slots {
		if p == nil {
			arr.Push(jsvalue.Null{})
			continue
		}
		arr.Push(p.clone())
	}
	return arr
}

// Announce dispatches gamepadconnected or gamepaddisconnected for pad i.
// It must run on the loop.
func (g *Gamepads) Announce(ctx context.Context, target Target, self any, i int, connected bool) error {
	pad := g.Get(i)
	typ := "gamepadconnected"
	if !connected {
		typ = "gamepaddisconnected"
		pad = &Gamepad{Index: i}
	}
	if pad == nil {
		return nil
	}
	_, err := target.Dispatch(ctx, self, &GamepadEvent{Event: dom.Event{Type: typ}, Gamepad: pad})
	return err
}

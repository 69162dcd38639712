package input

import (
	"github.com/wippyai/wbg-runtime/dom"
	"github.com/wippyai/wbg-runtime/jsvalue"
)

// Modifiers is the modifier key state shared by mouse and keyboard events.
type Modifiers struct {
	Alt, Ctrl, Meta, Shift bool
}

func (m Modifiers) get(name string) (any, bool) {
	switch name {
	case "altKey":
		return m.Alt, true
	case "ctrlKey":
		return m.Ctrl, true
	case "metaKey":
		return m.Meta, true
	case "shiftKey":
		return m.Shift, true
	}
	return nil, false
}

func classOf(class string, chain ...string) bool {
	for _, c := range chain {
		if c == class {
			return true
		}
	}
	return class == "Event" || class == "Object"
}

// UIEvent is the base of input events.
type UIEvent struct {
	dom.Event
	Detail int32
}

// MouseEvent carries pointer position in several coordinate spaces.
// Offset coordinates are relative to the target's bounding box.
type MouseEvent struct {
	UIEvent
	Modifiers
	Button               int16
	Buttons              uint16
	ClientX, ClientY     float64
	OffsetX, OffsetY     float64
	PageX, PageY         float64
	MovementX, MovementY float64
}

// NewMouseEvent creates a mouse event of the given type.
func NewMouseEvent(typ string) *MouseEvent {
	return &MouseEvent{UIEvent: UIEvent{Event: dom.Event{Type: typ}}}
}

// ClassName implements jsvalue.ClassNamer.
func (e *MouseEvent) ClassName() string { return "MouseEvent" }

// InstanceOf implements jsvalue.Instancer.
func (e *MouseEvent) InstanceOf(class string) bool {
	return classOf(class, "MouseEvent", "UIEvent")
}

// GetProperty implements jsvalue.PropertyGetter.
func (e *MouseEvent) GetProperty(name string) (any, bool) {
	switch name {
	case "button":
		return float64(e.Button), true
	case "buttons":
		return float64(e.Buttons), true
	case "clientX", "x":
		return e.ClientX, true
	case "clientY", "y":
		return e.ClientY, true
	case "offsetX":
		return e.OffsetX, true
	case "offsetY":
		return e.OffsetY, true
	case "pageX":
		return e.PageX, true
	case "pageY":
		return e.PageY, true
	case "movementX":
		return e.MovementX, true
	case "movementY":
		return e.MovementY, true
	case "detail":
		return float64(e.Detail), true
	}
	if v, ok := e.Modifiers.get(name); ok {
		return v, true
	}
	return e.Event.GetProperty(name)
}

// PointerEvent extends MouseEvent with pointer identity.
type PointerEvent struct {
	MouseEvent
	PointerID   int32
	PointerType string
	IsPrimary   bool
	Pressure    float64
}

// NewPointerEvent creates a pointer event of the given type.
func NewPointerEvent(typ, pointerType string) *PointerEvent {
	return &PointerEvent{MouseEvent: *NewMouseEvent(typ), PointerType: pointerType, IsPrimary: true}
}

// ClassName implements jsvalue.ClassNamer.
func (e *PointerEvent) ClassName() string { return "PointerEvent" }

// InstanceOf implements jsvalue.Instancer.
func (e *PointerEvent) InstanceOf(class string) bool {
	return classOf(class, "PointerEvent", "MouseEvent", "UIEvent")
}

// GetProperty implements jsvalue.PropertyGetter.
func (e *PointerEvent) GetProperty(name string) (any, bool) {
	switch name {
	case "pointerId":
		return float64(e.PointerID), true
	case "pointerType":
		return e.PointerType, true
	case "isPrimary":
		return e.IsPrimary, true
	case "pressure":
		return e.Pressure, true
	}
	return e.MouseEvent.GetProperty(name)
}

// Wheel delta modes.
const (
	DeltaPixel uint32 = 0
	DeltaLine  uint32 = 1
	DeltaPage  uint32 = 2
)

// WheelEvent extends MouseEvent with scroll deltas.
type WheelEvent struct {
	MouseEvent
	DeltaX, DeltaY, DeltaZ float64
	DeltaMode              uint32
}

// NewWheelEvent creates a wheel event.
func NewWheelEvent(dx, dy float64, mode uint32) *WheelEvent {
	return &WheelEvent{MouseEvent: *NewMouseEvent("wheel"), DeltaX: dx, DeltaY: dy, DeltaMode: mode}
}

// ClassName implements jsvalue.ClassNamer.
func (e *WheelEvent) ClassName() string { return "WheelEvent" }

// InstanceOf implements jsvalue.Instancer.
func (e *WheelEvent) InstanceOf(class string) bool {
	return classOf(class, "WheelEvent", "MouseEvent", "UIEvent")
}

// GetProperty implements jsvalue.PropertyGetter.
func (e *WheelEvent) GetProperty(name string) (any, bool) {
	switch name {
	case "deltaX":
		return e.DeltaX, true
	case "deltaY":
		return e.DeltaY, true
	case "deltaZ":
		return e.DeltaZ, true
	case "deltaMode":
		return float64(e.DeltaMode), true
	}
	return e.MouseEvent.GetProperty(name)
}

// KeyboardEvent reports a key by its logical value (Key) and physical
// position (Code).
type KeyboardEvent struct {
	UIEvent
	Modifiers
	Key    string
	Code   string
	Repeat bool
}

// NewKeyboardEvent creates a keyboard event.
func NewKeyboardEvent(typ, key, code string) *KeyboardEvent {
	return &KeyboardEvent{UIEvent: UIEvent{Event: dom.Event{Type: typ}}, Key: key, Code: code}
}

// ClassName implements jsvalue.ClassNamer.
func (e *KeyboardEvent) ClassName() string { return "KeyboardEvent" }

// InstanceOf implements jsvalue.Instancer.
func (e *KeyboardEvent) InstanceOf(class string) bool {
	return classOf(class, "KeyboardEvent", "UIEvent")
}

// GetProperty implements jsvalue.PropertyGetter.
func (e *KeyboardEvent) GetProperty(name string) (any, bool) {
	switch name {
	case "key":
		return e.Key, true
	case "code":
		return e.Code, true
	case "repeat":
		return e.Repeat, true
	}
	if v, ok := e.Modifiers.get(name); ok {
		return v, true
	}
	return e.Event.GetProperty(name)
}

// Touch is one contact point.
type Touch struct {
	Identifier       int32
	Target           any
	ClientX, ClientY float64
	PageX, PageY     float64
	Force            float64
}

// ClassName implements jsvalue.ClassNamer.
func (t *Touch) ClassName() string { return "Touch" }

// GetProperty implements jsvalue.PropertyGetter.
func (t *Touch) GetProperty(name string) (any, bool) {
	switch name {
	case "identifier":
		return float64(t.Identifier), true
	case "target":
		if t.Target == nil {
			return jsvalue.Null{}, true
		}
		return t.Target, true
	case "clientX":
		return t.ClientX, true
	case "clientY":
		return t.ClientY, true
	case "pageX":
		return t.PageX, true
	case "pageY":
		return t.PageY, true
	case "force":
		return t.Force, true
	}
	return nil, false
}

// TouchList is an ordered list of touches.
type TouchList []*Touch

// Length returns the number of touches.
func (l TouchList) Length() uint32 { return uint32(len(l)) }

// Item returns touch i or nil.
func (l TouchList) Item(i uint32) *Touch {
	if int(i) >= len(l) {
		return nil
	}
	return l[i]
}

// ClassName implements jsvalue.ClassNamer.
func (l TouchList) ClassName() string { return "TouchList" }

// GetProperty implements jsvalue.PropertyGetter.
func (l TouchList) GetProperty(name string) (any, bool) {
	if name == "length" {
		return float64(len(l)), true
	}
	return nil, false
}

// TouchEvent carries the active and changed touches.
type TouchEvent struct {
	UIEvent
	Modifiers
	Touches        TouchList
	TargetTouches  TouchList
	ChangedTouches TouchList
}

// NewTouchEvent creates a touch event. All touches count as changed.
func NewTouchEvent(typ string, touches ...*Touch) *TouchEvent {
	return &TouchEvent{UIEvent: UIEvent{Event: dom.Event{Type: typ}}, ChangedTouches: touches}
}

// ClassName implements jsvalue.ClassNamer.
func (e *TouchEvent) ClassName() string { return "TouchEvent" }

// InstanceOf implements jsvalue.Instancer.
func (e *TouchEvent) InstanceOf(class string) bool {
	return classOf(class, "TouchEvent", "UIEvent")
}

// GetProperty implements jsvalue.PropertyGetter.
func (e *TouchEvent) GetProperty(name string) (any, bool) {
	switch name {
	case "touches":
		return e.Touches, true
	case "targetTouches":
		return e.TargetTouches, true
	case "changedTouches":
		return e.ChangedTouches, true
	}
	if v, ok := e.Modifiers.get(name); ok {
		return v, true
	}
	return e.Event.GetProperty(name)
}

// FocusEvent is fired on focus changes.
type FocusEvent struct {
	UIEvent
	RelatedTarget any
}

// NewFocusEvent creates a focus event.
func NewFocusEvent(typ string, related any) *FocusEvent {
	return &FocusEvent{UIEvent: UIEvent{Event: dom.Event{Type: typ}}, RelatedTarget: related}
}

// ClassName implements jsvalue.ClassNamer.
func (e *FocusEvent) ClassName() string { return "FocusEvent" }

// InstanceOf implements jsvalue.Instancer.
func (e *FocusEvent) InstanceOf(class string) bool {
	return classOf(class, "FocusEvent", "UIEvent")
}

// GetProperty implements jsvalue.PropertyGetter.
func (e *FocusEvent) GetProperty(name string) (any, bool) {
	if name == "relatedTarget" {
		if e.RelatedTarget == nil {
			return jsvalue.Null{}, true
		}
		return e.RelatedTarget, true
	}
	return e.Event.GetProperty(name)
}

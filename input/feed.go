package input

import (
	"context"
	"strings"
	"unicode"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/wippyai/wbg-runtime/dom"
	"github.com/wippyai/wbg-runtime/eventloop"
)

// Feed converts terminal input into DOM events on a target. Terminals
// report presses only, so every key becomes a keydown followed by a keyup.
type Feed struct {
	loop   *eventloop.Loop
	target Target
	self   any
	log    *zap.Logger

	// CellWidth and CellHeight scale terminal cells to CSS pixels.
	CellWidth, CellHeight float64

	lastX, lastY float64
	buttons      uint16
	lastKey      string
}

// NewFeed creates a feed dispatching to target with self as event target.
func NewFeed(loop *eventloop.Loop, target Target, self any, log *zap.Logger) *Feed {
	if log == nil {
		log = zap.NewNop()
	}
	return &Feed{loop: loop, target: target, self: self, log: log, CellWidth: 8, CellHeight: 16}
}

// Key posts keydown and keyup events for msg. It reports false when the key
// has no DOM equivalent.
func (f *Feed) Key(msg tea.KeyMsg) bool {
	key, code, mods, ok := translateKey(msg)
	if !ok {
		return false
	}
	repeat := f.lastKey == code
	f.lastKey = code
	f.loop.Post(func() {
		down := NewKeyboardEvent("keydown", key, code)
		down.Modifiers, down.Repeat = mods, repeat
		f.dispatch(down)
		up := NewKeyboardEvent("keyup", key, code)
		up.Modifiers = mods
		f.dispatch(up)
	})
	return true
}

// Mouse posts pointer, mouse and wheel events for msg.
func (f *Feed) Mouse(msg tea.MouseMsg) {
	x, y := float64(msg.X)*f.CellWidth, float64(msg.Y)*f.CellHeight
	dx, dy := x-f.lastX, y-f.lastY
	f.lastX, f.lastY = x, y
	mods := Modifiers{Alt: msg.Alt, Ctrl: msg.Ctrl, Shift: msg.Shift}

	if wx, wy, ok := wheelDelta(msg.Button); ok {
		f.loop.Post(func() {
			ev := NewWheelEvent(wx, wy, DeltaLine)
			ev.Modifiers = mods
			ev.ClientX, ev.ClientY = x, y
			f.dispatch(ev)
		})
		return
	}

	button := domButton(msg.Button)
	var typ string
	switch msg.Action {
	case tea.MouseActionPress:
		typ = "down"
		if button >= 0 {
			f.buttons |= 1 << uint(button)
		}
	case tea.MouseActionRelease:
		typ = "up"
		if button >= 0 {
			f.buttons &^= 1 << uint(button)
		} else {
			f.buttons = 0
		}
	default:
		typ = "move"
	}
	buttons := f.buttons
	f.loop.Post(func() {
		pe := NewPointerEvent("pointer"+typ, "mouse")
		fill(&pe.MouseEvent, mods, button, buttons, x, y, dx, dy)
		f.dispatch(pe)
		me := NewMouseEvent("mouse" + typ)
		fill(me, mods, button, buttons, x, y, dx, dy)
		f.dispatch(me)
	})
}

func fill(e *MouseEvent, mods Modifiers, button int16, buttons uint16, x, y, dx, dy float64) {
	e.Modifiers = mods
	e.Button = max(button, 0)
	e.Buttons = buttons
	e.ClientX, e.ClientY = x, y
	e.OffsetX, e.OffsetY = x, y
	e.PageX, e.PageY = x, y
	e.MovementX, e.MovementY = dx, dy
}

func (f *Feed) dispatch(ev dom.Dispatchable) {
	if _, err := f.target.Dispatch(context.Background(), f.self, ev); err != nil {
		f.log.Warn("input listener failed", zap.String("type", ev.EventBase().Type), zap.Error(err))
	}
}

func domButton(b tea.MouseButton) int16 {
	switch b {
	case tea.MouseButtonLeft:
		return 0
	case tea.MouseButtonMiddle:
		return 1
	case tea.MouseButtonRight:
		return 2
	case tea.MouseButtonBackward:
		return 3
	case tea.MouseButtonForward:
		return 4
	}
	return -1
}

func wheelDelta(b tea.MouseButton) (dx, dy float64, ok bool) {
	switch b {
	case tea.MouseButtonWheelUp:
		return 0, -1, true
	case tea.MouseButtonWheelDown:
		return 0, 1, true
	case tea.MouseButtonWheelLeft:
		return -1, 0, true
	case tea.MouseButtonWheelRight:
		return 1, 0, true
	}
	return 0, 0, false
}

var namedKeys = map[tea.KeyType][2]string{
	tea.KeyUp:        {"ArrowUp", "ArrowUp"},
	tea.KeyDown:      {"ArrowDown", "ArrowDown"},
	tea.KeyLeft:      {"ArrowLeft", "ArrowLeft"},
	tea.KeyRight:     {"ArrowRight", "ArrowRight"},
	tea.KeyEnter:     {"Enter", "Enter"},
	tea.KeyEsc:       {"Escape", "Escape"},
	tea.KeyTab:       {"Tab", "Tab"},
	tea.KeyBackspace: {"Backspace", "Backspace"},
	tea.KeyDelete:    {"Delete", "Delete"},
	tea.KeyHome:      {"Home", "Home"},
	tea.KeyEnd:       {"End", "End"},
	tea.KeyPgUp:      {"PageUp", "PageUp"},
	tea.KeyPgDown:    {"PageDown", "PageDown"},
	tea.KeyInsert:    {"Insert", "Insert"},
	tea.KeySpace:     {" ", "Space"},
	tea.KeyF1:        {"F1", "F1"},
	tea.KeyF2:        {"F2", "F2"},
	tea.KeyF3:        {"F3", "F3"},
	tea.KeyF4:        {"F4", "F4"},
	tea.KeyF5:        {"F5", "F5"},
	tea.KeyF6:        {"F6", "F6"},
	tea.KeyF7:        {"F7", "F7"},
	tea.KeyF8:        {"F8", "F8"},
	tea.KeyF9:        {"F9", "F9"},
	tea.KeyF10:       {"F10", "F10"},
	tea.KeyF11:       {"F11", "F11"},
	tea.KeyF12:       {"F12", "F12"},
}

var shiftedKeys = map[tea.KeyType]tea.KeyType{
	tea.KeyShiftUp:    tea.KeyUp,
	tea.KeyShiftDown:  tea.KeyDown,
	tea.KeyShiftLeft:  tea.KeyLeft,
	tea.KeyShiftRight: tea.KeyRight,
	tea.KeyShiftTab:   tea.KeyTab,
}

var punctCodes = map[rune]string{
	'-': "Minus", '=': "Equal", '[': "BracketLeft", ']': "BracketRight",
	'\\': "Backslash", ';': "Semicolon", '\'': "Quote", '`': "Backquote",
	',': "Comma", '.': "Period", '/': "Slash",
}

// translateKey maps a terminal key to DOM key and code values.
func translateKey(msg tea.KeyMsg) (key, code string, mods Modifiers, ok bool) {
	mods.Alt = msg.Alt
	typ := msg.Type
	if base, shifted := shiftedKeys[typ]; shifted {
		typ = base
		mods.Shift = true
	}
	if names, found := namedKeys[typ]; found {
		return names[0], names[1], mods, true
	}
	if typ >= tea.KeyCtrlA && typ <= tea.KeyCtrlZ {
		r := rune('a' + int(typ-tea.KeyCtrlA))
		mods.Ctrl = true
		return string(r), "Key" + strings.ToUpper(string(r)), mods, true
	}
	if typ != tea.KeyRunes || len(msg.Runes) != 1 {
		return "", "", mods, false
	}
	r := msg.Runes[0]
	switch {
	case unicode.IsLetter(r) && r < unicode.MaxASCII:
		mods.Shift = unicode.IsUpper(r)
		return string(r), "Key" + strings.ToUpper(string(r)), mods, true
	case r >= '0' && r <= '9':
		return string(r), "Digit" + string(r), mods, true
	case r == ' ':
		return " ", "Space", mods, true
	}
	if c, found := punctCodes[r]; found {
		return string(r), c, mods, true
	}
	return string(r), "", mods, true
}

package input

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/wbg-runtime/dom"
	"github.com/wippyai/wbg-runtime/eventloop"
	"github.com/wippyai/wbg-runtime/jsvalue"
)

func TestEvents_Reflection(t *testing.T) {
	wheel := NewWheelEvent(0, 3, DeltaLine)
	wheel.ClientX = 12
	wheel.Shift = true

	v, err := jsvalue.Get(wheel, "deltaY")
	require.NoError(t, err)
	assert.Equal(t, 3.0, v)
	v, _ = jsvalue.Get(wheel, "deltaMode")
	assert.Equal(t, 1.0, v)
	v, _ = jsvalue.Get(wheel, "clientX")
	assert.Equal(t, 12.0, v)
	v, _ = jsvalue.Get(wheel, "shiftKey")
	assert.Equal(t, true, v)
	v, _ = jsvalue.Get(wheel, "type")
	assert.Equal(t, "wheel", v)

	assert.True(t, jsvalue.InstanceOf(wheel, "WheelEvent"))
	assert.True(t, jsvalue.InstanceOf(wheel, "MouseEvent"))
	assert.False(t, jsvalue.InstanceOf(wheel, "KeyboardEvent"))

	key := NewKeyboardEvent("keydown", "a", "KeyA")
	key.Repeat = true
	v, _ = jsvalue.Get(key, "code")
	assert.Equal(t, "KeyA", v)
	v, _ = jsvalue.Get(key, "repeat")
	assert.Equal(t, true, v)
}

func TestTouchList(t *testing.T) {
	a := &Touch{Identifier: 7, ClientX: 1}
	b := &Touch{Identifier: 9}
	ev := NewTouchEvent("touchstart", a, b)

	list, _ := jsvalue.Get(ev, "changedTouches")
	n, _ := jsvalue.Get(list, "length")
	assert.Equal(t, 2.0, n)
	assert.Same(t, b, ev.ChangedTouches.Item(1))
	assert.Nil(t, ev.ChangedTouches.Item(2))

	id, _ := jsvalue.Get(a, "identifier")
	assert.Equal(t, 7.0, id)
	target, _ := jsvalue.Get(a, "target")
	assert.Equal(t, jsvalue.Null{}, target)
}

func TestGamepads(t *testing.T) {
	pads := NewGamepads(func() float64 { return 42 })
	i := pads.Connect("pad", 4, 2)
	require.Equal(t, 0, i)
	pads.SetButton(i, 1, 0.75)
	pads.SetAxis(i, 0, 3)
	pads.SetButton(i, 9, 1)

	snap := pads.Snapshot()
	require.Len(t, snap.Elems, MaxGamepads)
	assert.Equal(t, jsvalue.Null{}, snap.Elems[1])

	pad := snap.Elems[0].(*Gamepad)
	assert.True(t, pad.Buttons[1].Pressed)
	assert.Equal(t, 1.0, pad.Axes[0])
	assert.Equal(t, 42.0, pad.Timestamp)

	pads.SetAxis(i, 0, -0.5)
	assert.Equal(t, 1.0, pad.Axes[0], "snapshots are copies")

	for j := 1; j < MaxGamepads; j++ {
		pads.Connect("extra", 1, 1)
	}
	assert.Equal(t, -1, pads.Connect("overflow", 1, 1))
	pads.Disconnect(2)
	assert.Nil(t, pads.Get(2))
	assert.Equal(t, 2, pads.Connect("again", 1, 1))
}

func TestGamepads_NavigatorAndAnnounce(t *testing.T) {
	loop := eventloop.New()
	w := dom.NewWindow(loop)
	pads := NewGamepads(loop.Now)
	w.Navigator.Gamepads = pads.Snapshot

	var got *GamepadEvent
	w.AddEventListener("gamepadconnected", jsvalue.NewFunc("connected", func(_ context.Context, _ any, args []any) (any, error) {
		got = args[0].(*GamepadEvent)
		return jsvalue.Undefined{}, nil
	}))

	i := pads.Connect("pad", 17, 4)
	require.NoError(t, pads.Announce(context.Background(), w, w, i, true))
	require.NotNil(t, got)
	assert.Equal(t, "pad", got.Gamepad.ID)

	fn, _ := jsvalue.Get(w.Navigator, "getGamepads")
	arr, err := jsvalue.Call(context.Background(), fn, w.Navigator)
	require.NoError(t, err)
	assert.IsType(t, &Gamepad{}, arr.(*jsvalue.Array).Elems[0])
}

func TestTranslateKey(t *testing.T) {
	tests := []struct {
		msg   tea.KeyMsg
		key   string
		code  string
		shift bool
		ctrl  bool
	}{
		{tea.KeyMsg{Type: tea.KeyUp}, "ArrowUp", "ArrowUp", false, false},
		{tea.KeyMsg{Type: tea.KeyShiftLeft}, "ArrowLeft", "ArrowLeft", true, false},
		{tea.KeyMsg{Type: tea.KeySpace}, " ", "Space", false, false},
		{tea.KeyMsg{Type: tea.KeyEnter}, "Enter", "Enter", false, false},
		{tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'w'}}, "w", "KeyW", false, false},
		{tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'W'}}, "W", "KeyW", true, false},
		{tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'3'}}, "3", "Digit3", false, false},
		{tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'/'}}, "/", "Slash", false, false},
		{tea.KeyMsg{Type: tea.KeyCtrlC}, "c", "KeyC", false, true},
	}
	for _, tt := range tests {
		key, code, mods, ok := translateKey(tt.msg)
		require.True(t, ok, tt.msg.String())
		assert.Equal(t, tt.key, key)
		assert.Equal(t, tt.code, code)
		assert.Equal(t, tt.shift, mods.Shift, tt.msg.String())
		assert.Equal(t, tt.ctrl, mods.Ctrl, tt.msg.String())
	}

	_, _, _, ok := translateKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("ab")})
	assert.False(t, ok, "pasted text is not a key")
}

func TestFeed(t *testing.T) {
	loop := eventloop.New()
	var target dom.EventTarget
	var seen []string
	record := jsvalue.NewFunc("record", func(_ context.Context, _ any, args []any) (any, error) {
		ev := args[0].(dom.Dispatchable).EventBase()
		seen = append(seen, ev.Type)
		return jsvalue.Undefined{}, nil
	})
	for _, typ := range []string{"keydown", "keyup", "pointerdown", "mousedown", "pointermove", "mousemove", "wheel"} {
		target.AddEventListener(typ, record)
	}

	feed := NewFeed(loop, &target, &target, nil)
	assert.True(t, feed.Key(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'d'}}))
	feed.Mouse(tea.MouseMsg{X: 2, Y: 1, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	feed.Mouse(tea.MouseMsg{X: 3, Y: 1, Action: tea.MouseActionMotion})
	feed.Mouse(tea.MouseMsg{X: 3, Y: 1, Action: tea.MouseActionPress, Button: tea.MouseButtonWheelDown})
	require.NoError(t, loop.Run(context.Background()))

	assert.Equal(t, []string{"keydown", "keyup", "pointerdown", "mousedown", "pointermove", "mousemove", "wheel"}, seen)
}

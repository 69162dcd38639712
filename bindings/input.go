package bindings

import (
	"context"

	"github.com/wippyai/wbg-runtime/jsvalue"
)

// Input serves mouse, wheel, keyboard, touch and gamepad event fields.
var Input = Group{Name: "input", Define: defineInput}

func defineInput(c *Catalog) {
	for _, p := range []string{
		"button", "buttons", "clientX", "clientY", "offsetX", "offsetY", "pageX", "pageY",
		"movementX", "movementY", "deltaX", "deltaY", "deltaZ", "deltaMode", "identifier",
		"pointerId", "pressure", "force", "timestamp", "index",
	} {
		c.numeric("__wbg_"+p, p)
	}
	for _, p := range []string{"altKey", "ctrlKey", "metaKey", "shiftKey", "repeat", "isPrimary", "pressed", "touched", "connected"} {
		c.getter("__wbg_"+p, p, RetBool, false)
	}
	for _, p := range []string{"code", "key", "pointerType", "id", "mapping"} {
		c.getter("__wbg_"+p, p, RetStr, false)
	}
	for _, p := range []string{"touches", "targetTouches", "changedTouches", "axes"} {
		c.getter("__wbg_"+p, p, Handle, false)
	}
	// MouseEvent.buttons is a bitmask, Gamepad.buttons a list.
	c.Method("Gamepad", "__wbg_buttons", Sig(Handle, Ref), false, prop("buttons"))
	c.getter("__wbg_gamepad", "gamepad", Handle, false)
	c.getter("__wbg_relatedTarget", "relatedTarget", OptHandle, false)
	c.getter("__wbg_navigator", "navigator", Handle, false)

	c.Catch("__wbg_getGamepads", Sig(Handle, Ref), func(ctx context.Context, env *Env, args Args) (any, error) {
		if env.Gamepads != nil {
			return env.Gamepads.Snapshot(), nil
		}
		if fn, err := jsvalue.Get(args.Val(0), "getGamepads"); err == nil && jsvalue.IsFunction(fn) {
			return jsvalue.Call(ctx, fn, args.Val(0))
		}
		return jsvalue.NewArray(), nil
	})
}

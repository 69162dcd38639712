package bindings

import (
	"context"

	"github.com/wippyai/wbg-runtime/jsvalue"
)

// Scope is globalThis when no Global is set: the window plus the
// capabilities the runtime attaches to it.
type Scope struct {
	env *Env
}

// ClassName implements jsvalue.ClassNamer.
func (s *Scope) ClassName() string { return "Window" }

// InstanceOf implements jsvalue.Instancer.
func (s *Scope) InstanceOf(class string) bool {
	if s.env.Window != nil {
		return s.env.Window.InstanceOf(class)
	}
	return class == "Object"
}

// GetProperty implements jsvalue.PropertyGetter.
func (s *Scope) GetProperty(name string) (any, bool) {
	switch name {
	case "window", "self", "globalThis":
		return s, true
	case "indexedDB":
		if s.env.IDB == nil {
			return jsvalue.Undefined{}, true
		}
		return s.env.IDB, true
	case "fetch":
		if s.env.Fetch == nil {
			return nil, false
		}
		return jsvalue.NewFunc("fetch", func(ctx context.Context, _ any, args []any) (any, error) {
			return s.env.Fetch.Fetch(ctx, s.env.Loop, argAt(args, 0), argAt(args, 1)), nil
		}), true
	}
	if s.env.Window != nil {
		return s.env.Window.GetProperty(name)
	}
	return nil, false
}

func argAt(args []any, i int) any {
	if i < len(args) {
		return args[i]
	}
	return jsvalue.Undefined{}
}

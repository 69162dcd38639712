package jsvalue

import (
	"math/big"
	"strings"
)

// DebugString formats any value for diagnostics. It never fails: objects
// that cannot be serialized fall back to their class name.
func DebugString(v any) string {
	v = Normalize(v)
	switch x := v.(type) {
	case float64, bool, Undefined, Null:
		return ToString(x)
	case *big.Int:
		return x.String() + "n"
	case string:
		return `"` + x + `"`
	case *Symbol:
		if x.Anonymous {
			return "Symbol"
		}
		return "Symbol(" + x.Description + ")"
	case Callable:
		if name := funcName(x); name != "" {
			return "Function(" + name + ")"
		}
		return "Function"
	case *Array:
		var b strings.Builder
		b.WriteByte('[')
		for i, e := range x.Elems {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(DebugString(e))
		}
		b.WriteByte(']')
		return b.String()
	case *Object:
		s, ok, err := Stringify(x)
		if err != nil || !ok {
			return "Object"
		}
		return "Object(" + s + ")"
	case *Error:
		return x.Name + ": " + x.Message + "\n" + x.Stack
	}
	return className(v)
}

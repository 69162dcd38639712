package jsvalue

import (
	"context"
	"fmt"
	"math"
	"math/big"
	"reflect"
	"strconv"
	"strings"
)

// MaxSafeInteger is Number.MAX_SAFE_INTEGER.
const MaxSafeInteger = 1<<53 - 1

// Normalize converts Go numeric kinds to float64 and nil to Undefined so
// the rest of the package only sees canonical shapes.
func Normalize(v any) any {
	switch x := v.(type) {
	case nil:
		return Undefined{}
	case int:
		return float64(x)
	case int8:
		return float64(x)
	case int16:
		return float64(x)
	case int32:
		return float64(x)
	case int64:
		return float64(x)
	case uint:
		return float64(x)
	case uint8:
		return float64(x)
	case uint16:
		return float64(x)
	case uint32:
		return float64(x)
	case uint64:
		return float64(x)
	case float32:
		return float64(x)
	}
	return v
}

// TypeOf implements the typeof operator.
func TypeOf(v any) string {
	switch Normalize(v).(type) {
	case Undefined:
		return "undefined"
	case Null:
		return "object"
	case bool:
		return "boolean"
	case float64:
		return "number"
	case *big.Int:
		return "bigint"
	case string:
		return "string"
	case *Symbol:
		return "symbol"
	case Callable:
		return "function"
	}
	return "object"
}

// IsObject reports typeof v === 'object' && v !== null.
func IsObject(v any) bool {
	_, isNull := v.(Null)
	return !isNull && TypeOf(v) == "object"
}

// IsFunction reports typeof v === 'function'.
func IsFunction(v any) bool {
	_, ok := v.(Callable)
	return ok
}

// IsArray implements Array.isArray.
func IsArray(v any) bool {
	_, ok := v.(*Array)
	return ok
}

// IsSafeInteger implements Number.isSafeInteger.
func IsSafeInteger(v any) bool {
	f, ok := Normalize(v).(float64)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return false
	}
	return math.Abs(f) <= MaxSafeInteger
}

// Truthy implements ToBoolean.
func Truthy(v any) bool {
	switch x := Normalize(v).(type) {
	case Undefined, Null:
		return false
	case bool:
		return x
	case float64:
		return x != 0 && !math.IsNaN(x)
	case *big.Int:
		return x.Sign() != 0
	case string:
		return x != ""
	}
	return true
}

// StrictEquals implements ===.
func StrictEquals(a, b any) bool {
	a, b = Normalize(a), Normalize(b)
	switch x := a.(type) {
	case float64:
		y, ok := b.(float64)
		return ok && x == y
	case *big.Int:
		y, ok := b.(*big.Int)
		return ok && x.Cmp(y) == 0
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb || !ta.Comparable() {
		return false
	}
	return a == b
}

// LooseEquals implements ==. Objects compare by identity; an object is
// never loosely equal to a primitive.
func LooseEquals(a, b any) bool {
	a, b = Normalize(a), Normalize(b)
	if IsNullish(a) || IsNullish(b) {
		return IsNullish(a) && IsNullish(b)
	}
	if TypeOf(a) == TypeOf(b) {
		return StrictEquals(a, b)
	}
	if x, ok := a.(bool); ok {
		return LooseEquals(boolNumber(x), b)
	}
	if y, ok := b.(bool); ok {
		return LooseEquals(a, boolNumber(y))
	}
	switch x := a.(type) {
	case float64:
		switch y := b.(type) {
		case string:
			return x == stringToNumber(y)
		case *big.Int:
			return bigEqualsNumber(y, x)
		}
	case string:
		switch y := b.(type) {
		case float64:
			return stringToNumber(x) == y
		case *big.Int:
			n, ok := new(big.Int).SetString(strings.TrimSpace(x), 10)
			return ok && n.Cmp(y) == 0
		}
	case *big.Int:
		switch y := b.(type) {
		case float64:
			return bigEqualsNumber(x, y)
		case string:
			return LooseEquals(y, x)
		}
	}
	return false
}

func boolNumber(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func bigEqualsNumber(b *big.Int, f float64) bool {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return false
	}
	return new(big.Float).SetFloat64(f).Cmp(new(big.Float).SetInt(b)) == 0
}

// ToNumber implements unary plus. BigInt and Symbol operands are a
// TypeError, as in the language.
func ToNumber(v any) (float64, error) {
	switch x := Normalize(v).(type) {
	case Undefined:
		return math.NaN(), nil
	case Null:
		return 0, nil
	case bool:
		return boolNumber(x), nil
	case float64:
		return x, nil
	case string:
		return stringToNumber(x), nil
	case *big.Int:
		return 0, NewTypeError("Cannot convert a BigInt value to a number")
	case *Symbol:
		return 0, NewTypeError("Cannot convert a Symbol value to a number")
	case *Array:
		switch len(x.Elems) {
		case 0:
			return 0, nil
		case 1:
			return ToNumber(x.Elems[0])
		}
	}
	return math.NaN(), nil
}

func stringToNumber(s string) float64 {
	s = strings.TrimSpace(s)
	switch s {
	case "":
		return 0
	case "Infinity", "+Infinity":
		return math.Inf(1)
	case "-Infinity":
		return math.Inf(-1)
	}
	if len(s) > 2 && s[0] == '0' {
		base := 0
		switch s[1] {
		case 'x', 'X':
			base = 16
		case 'o', 'O':
			base = 8
		case 'b', 'B':
			base = 2
		}
		if base != 0 {
			n, err := strconv.ParseUint(s[2:], base, 64)
			if err != nil {
				return math.NaN()
			}
			return float64(n)
		}
	}
	// ParseFloat accepts forms the language does not.
	if strings.ContainsAny(s, "_xXpP") {
		return math.NaN()
	}
	switch strings.ToLower(strings.TrimLeft(s, "+-")) {
	case "inf", "infinity", "nan":
		return math.NaN()
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
			return f
		}
		return math.NaN()
	}
	return f
}

// FormatNumber renders a number the way Number.prototype.toString does.
func FormatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0:
		return "0"
	}
	abs := math.Abs(f)
	if abs >= 1e21 || abs < 1e-6 {
		s := strconv.FormatFloat(f, 'e', -1, 64)
		// Go pads the exponent to two digits: 1e-07 vs 1e-7.
		mant, exp, _ := strings.Cut(s, "e")
		sign := exp[0]
		digits := strings.TrimLeft(exp[1:], "0")
		return mant + "e" + string(sign) + digits
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// ToString implements String(v).
func ToString(v any) string {
	switch x := Normalize(v).(type) {
	case Undefined:
		return "undefined"
	case Null:
		return "null"
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return FormatNumber(x)
	case *big.Int:
		return x.String()
	case string:
		return x
	case *Symbol:
		return "Symbol(" + x.Description + ")"
	case *Array:
		parts := make([]string, len(x.Elems))
		for i, e := range x.Elems {
			if !IsNullish(e) {
				parts[i] = ToString(e)
			}
		}
		return strings.Join(parts, ",")
	case *Error:
		return x.Error()
	case fmt.Stringer:
		return x.String()
	case Callable:
		return "function " + funcName(x) + "() { [native code] }"
	}
	return "[object " + className(v) + "]"
}

// InstanceOf reports whether v is an instance of the named class.
func InstanceOf(v any, class string) bool {
	switch x := v.(type) {
	case *Error:
		return class == "Error" || class == x.Name
	case *Array:
		return class == "Array" || class == "Object"
	case *Object:
		return class == "Object"
	case *ArrayBuffer:
		return class == "ArrayBuffer" || class == "Object"
	case *Uint8Array:
		return class == "Uint8Array" || class == "Object"
	case *Float32Array:
		return class == "Float32Array" || class == "Object"
	case *Int32Array:
		return class == "Int32Array" || class == "Object"
	}
	if in, ok := v.(Instancer); ok {
		return in.InstanceOf(class)
	}
	if cn, ok := v.(ClassNamer); ok && cn.ClassName() == class {
		return true
	}
	if class == "Function" {
		return IsFunction(v)
	}
	return class == "Object" && IsObject(v)
}

// Call invokes fn with the given receiver. A non-callable fn is a TypeError.
func Call(ctx context.Context, fn, this any, args ...any) (any, error) {
	c, ok := fn.(Callable)
	if !ok {
		return nil, NewTypeError(DebugString(fn) + " is not a function")
	}
	res, err := c.Call(ctx, this, args...)
	if err != nil {
		return nil, err
	}
	return Normalize(res), nil
}

func className(v any) string {
	switch x := v.(type) {
	case ClassNamer:
		return x.ClassName()
	case *Object:
		return "Object"
	case *Array:
		return "Array"
	case *ArrayBuffer:
		return "ArrayBuffer"
	case *Uint8Array:
		return "Uint8Array"
	case *Float32Array:
		return "Float32Array"
	case *Int32Array:
		return "Int32Array"
	case Callable:
		return "Function"
	}
	t := reflect.TypeOf(v)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Name() == "" {
		return "Object"
	}
	return t.Name()
}

func funcName(c Callable) string {
	if n, ok := c.(Namer); ok {
		return n.FuncName()
	}
	return ""
}

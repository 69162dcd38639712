package jsvalue

import (
	"context"
	"math"
	"math/big"
	"strconv"
)

// PropertyKey converts a key operand into its property name. Symbols other
// than Symbol.iterator have no string form and return ok=false.
func PropertyKey(key any) (string, bool) {
	switch k := Normalize(key).(type) {
	case string:
		return k, true
	case float64:
		return FormatNumber(k), true
	case *Symbol:
		if k == SymbolIterator {
			return "@@iterator", true
		}
		return "", false
	case bool, Undefined, Null, *big.Int:
		return ToString(k), true
	}
	return "", false
}

// Get implements obj[key]. Reading from undefined or null is a TypeError.
func Get(obj, key any) (any, error) {
	obj = Normalize(obj)
	if IsNullish(obj) {
		return nil, NewTypeError("Cannot read properties of " + ToString(obj) + " (reading '" + ToString(key) + "')")
	}
	name, ok := PropertyKey(key)
	if !ok {
		return Undefined{}, nil
	}
	switch o := obj.(type) {
	case *Object:
		if v, ok := o.Get(name); ok {
			return v, nil
		}
		return Undefined{}, nil
	case *Array:
		return arrayGet(o, name), nil
	case string:
		if name == "length" {
			return float64(len([]rune(o))), nil
		}
		if i, ok := arrayIndex(name); ok {
			r := []rune(o)
			if i < len(r) {
				return string(r[i]), nil
			}
		}
		return Undefined{}, nil
	case *Uint8Array:
		switch name {
		case "length", "byteLength":
			return float64(o.Length), nil
		case "byteOffset":
			return float64(o.Offset), nil
		case "buffer":
			return o.Buffer, nil
		}
		if i, ok := arrayIndex(name); ok && i < o.Length {
			return float64(o.Bytes()[i]), nil
		}
		return Undefined{}, nil
	case *Float32Array:
		switch name {
		case "length":
			return float64(o.Length), nil
		case "byteLength":
			return float64(4 * o.Length), nil
		}
		if i, ok := arrayIndex(name); ok && i < o.Length {
			return float64(o.At(i)), nil
		}
		return Undefined{}, nil
	case *Int32Array:
		switch name {
		case "length":
			return float64(o.Length), nil
		case "byteLength":
			return float64(4 * o.Length), nil
		}
		if i, ok := arrayIndex(name); ok && i < o.Length {
			return float64(o.At(i)), nil
		}
		return Undefined{}, nil
	case *ArrayBuffer:
		if name == "byteLength" {
			return float64(len(o.Data)), nil
		}
		return Undefined{}, nil
	case *Error:
		switch name {
		case "name":
			return o.Name, nil
		case "message":
			return o.Message, nil
		case "stack":
			return o.Stack, nil
		case "cause":
			if o.Cause == nil {
				return Undefined{}, nil
			}
			return o.Cause, nil
		}
		return Undefined{}, nil
	case PropertyGetter:
		if v, ok := o.GetProperty(name); ok {
			return Normalize(v), nil
		}
	}
	if n, ok := obj.(Namer); ok && name == "name" {
		return n.FuncName(), nil
	}
	return Undefined{}, nil
}

// Set implements obj[key] = v.
func Set(obj, key, v any) error {
	obj = Normalize(obj)
	if IsNullish(obj) {
		return NewTypeError("Cannot set properties of " + ToString(obj) + " (setting '" + ToString(key) + "')")
	}
	name, ok := PropertyKey(key)
	if !ok {
		return nil
	}
	v = Normalize(v)
	switch o := obj.(type) {
	case *Object:
		o.Set(name, v)
	case *Array:
		if name == "length" {
			n, err := ToNumber(v)
			if err != nil {
				return err
			}
			if n < 0 || n != math.Trunc(n) || n > math.MaxUint32 {
				return NewError("RangeError", "Invalid array length")
			}
			resizeArray(o, int(n))
			return nil
		}
		if i, ok := arrayIndex(name); ok {
			if i >= len(o.Elems) {
				resizeArray(o, i+1)
			}
			o.Elems[i] = v
		}
	case *Uint8Array:
		if i, ok := arrayIndex(name); ok && i < o.Length {
			n, err := ToNumber(v)
			if err != nil {
				return err
			}
			o.Bytes()[i] = byte(int64(n))
		}
	case *Error:
		s := ToString(v)
		switch name {
		case "name":
			o.Name = s
		case "message":
			o.Message = s
		case "stack":
			o.Stack = s
		case "cause":
			o.Cause = v
		}
	case PropertySetter:
		return o.SetProperty(name, v)
	}
	return nil
}

// Has implements the in operator. The right operand must be an object.
func Has(obj, key any) (bool, error) {
	obj = Normalize(obj)
	if !IsObject(obj) && !IsFunction(obj) {
		return false, NewTypeError("Cannot use 'in' operator to search for '" + ToString(key) + "' in " + ToString(obj))
	}
	name, ok := PropertyKey(key)
	if !ok {
		return false, nil
	}
	switch o := obj.(type) {
	case *Object:
		_, found := o.Get(name)
		return found, nil
	case *Array:
		if name == "length" || name == "@@iterator" {
			return true, nil
		}
		i, ok := arrayIndex(name)
		return ok && i < len(o.Elems), nil
	case PropertyGetter:
		_, found := o.GetProperty(name)
		return found, nil
	}
	v, err := Get(obj, name)
	if err != nil {
		return false, err
	}
	_, undef := v.(Undefined)
	return !undef, nil
}

// GetString reads a string property, reporting ok=false for other types.
func GetString(obj any, key string) (string, bool) {
	v, err := Get(obj, key)
	if err != nil {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func arrayGet(a *Array, name string) any {
	switch name {
	case "length":
		return float64(len(a.Elems))
	case "@@iterator":
		return NewFunc("values", func(context.Context, any, []any) (any, error) {
			return NewIterator(a), nil
		})
	case "push":
		return NewFunc("push", func(_ context.Context, _ any, args []any) (any, error) {
			n := 0
			for _, v := range args {
				n = a.Push(Normalize(v))
			}
			return float64(n), nil
		})
	}
	if i, ok := arrayIndex(name); ok {
		return a.At(i)
	}
	return Undefined{}
}

func resizeArray(a *Array, n int) {
	for len(a.Elems) < n {
		a.Elems = append(a.Elems, Undefined{})
	}
	a.Elems = a.Elems[:n]
}

func arrayIndex(name string) (int, bool) {
	if name == "" || (len(name) > 1 && name[0] == '0') {
		return 0, false
	}
	i, err := strconv.ParseUint(name, 10, 32)
	if err != nil {
		return 0, false
	}
	return int(i), true
}

// Iterator walks an array following the iterator protocol.
type Iterator struct {
	arr *Array
	pos int
}

// NewIterator creates an iterator over a.
func NewIterator(a *Array) *Iterator {
	return &Iterator{arr: a}
}

// Next returns the next {done, value} result.
func (it *Iterator) Next() *Object {
	if it.pos >= len(it.arr.Elems) {
		return IterResult(true, Undefined{})
	}
	v := it.arr.Elems[it.pos]
	it.pos++
	return IterResult(false, v)
}

// GetProperty implements PropertyGetter.
func (it *Iterator) GetProperty(name string) (any, bool) {
	if name == "next" {
		return NewFunc("next", func(context.Context, any, []any) (any, error) {
			return it.Next(), nil
		}), true
	}
	return nil, false
}

// ClassName implements ClassNamer.
func (it *Iterator) ClassName() string { return "Array Iterator" }

package jsvalue

import (
	"bytes"
	"encoding/json"
	"io"
	"math"
	"math/big"
	"sort"
	"strconv"
	"strings"
)

const maxStringifyDepth = 512

// Stringify implements JSON.stringify. ok is false when the result is
// undefined (the value itself is undefined, a function or a symbol).
func Stringify(v any) (s string, ok bool, err error) {
	var b bytes.Buffer
	enc := &jsonEncoder{buf: &b, seen: make(map[any]bool)}
	ok, err = enc.encode(Normalize(v), 0)
	if err != nil || !ok {
		return "", ok, err
	}
	return b.String(), true, nil
}

type jsonEncoder struct {
	buf  *bytes.Buffer
	seen map[any]bool
}

func skipped(v any) bool {
	switch v.(type) {
	case Undefined, *Symbol:
		return true
	case Callable:
		return true
	}
	return false
}

func (e *jsonEncoder) encode(v any, depth int) (bool, error) {
	if depth > maxStringifyDepth {
		return false, NewError("RangeError", "Maximum call stack size exceeded")
	}
	if skipped(v) {
		return false, nil
	}
	switch x := v.(type) {
	case Null:
		e.buf.WriteString("null")
	case bool:
		e.buf.WriteString(strconv.FormatBool(x))
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			e.buf.WriteString("null")
		} else {
			e.buf.WriteString(FormatNumber(x))
		}
	case string:
		e.quote(x)
	case *big.Int:
		return false, NewTypeError("Do not know how to serialize a BigInt")
	case *Array:
		if err := e.enter(x); err != nil {
			return false, err
		}
		defer delete(e.seen, x)
		e.buf.WriteByte('[')
		for i, el := range x.Elems {
			if i > 0 {
				e.buf.WriteByte(',')
			}
			ok, err := e.encode(Normalize(el), depth+1)
			if err != nil {
				return false, err
			}
			if !ok {
				e.buf.WriteString("null")
			}
		}
		e.buf.WriteByte(']')
	case *Object:
		if err := e.enter(x); err != nil {
			return false, err
		}
		defer delete(e.seen, x)
		e.buf.WriteByte('{')
		first := true
		for _, k := range x.keys {
			val := Normalize(x.props[k])
			if skipped(val) {
				continue
			}
			if !first {
				e.buf.WriteByte(',')
			}
			first = false
			e.quote(k)
			e.buf.WriteByte(':')
			if _, err := e.encode(val, depth+1); err != nil {
				return false, err
			}
		}
		e.buf.WriteByte('}')
	case *Uint8Array:
		e.buf.WriteByte('{')
		for i, c := range x.Bytes() {
			if i > 0 {
				e.buf.WriteByte(',')
			}
			e.quote(strconv.Itoa(i))
			e.buf.WriteByte(':')
			e.buf.WriteString(strconv.Itoa(int(c)))
		}
		e.buf.WriteByte('}')
	case json.Marshaler:
		raw, err := x.MarshalJSON()
		if err != nil {
			return false, NewTypeError(err.Error())
		}
		e.buf.Write(raw)
	default:
		e.buf.WriteString("{}")
	}
	return true, nil
}

func (e *jsonEncoder) enter(v any) error {
	if e.seen[v] {
		return NewTypeError("Converting circular structure to JSON")
	}
	e.seen[v] = true
	return nil
}

func (e *jsonEncoder) quote(s string) {
	var b bytes.Buffer
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	e.buf.Write(bytes.TrimSuffix(b.Bytes(), []byte{'\n'}))
}

// Parse implements JSON.parse, preserving object key order.
func Parse(text string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()
	v, err := parseValue(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, NewError("SyntaxError", "Unexpected non-whitespace character after JSON")
	}
	return v, nil
}

func parseValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, NewError("SyntaxError", err.Error())
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			obj := NewObject()
			for dec.More() {
				kt, err := dec.Token()
				if err != nil {
					return nil, NewError("SyntaxError", err.Error())
				}
				key, _ := kt.(string)
				val, err := parseValue(dec)
				if err != nil {
					return nil, err
				}
				obj.Set(key, val)
			}
			if _, err := dec.Token(); err != nil {
				return nil, NewError("SyntaxError", err.Error())
			}
			return obj, nil
		case '[':
			arr := NewArray()
			for dec.More() {
				val, err := parseValue(dec)
				if err != nil {
					return nil, err
				}
				arr.Push(val)
			}
			if _, err := dec.Token(); err != nil {
				return nil, NewError("SyntaxError", err.Error())
			}
			return arr, nil
		}
		return nil, NewError("SyntaxError", "unexpected "+t.String())
	case json.Number:
		f, err := strconv.ParseFloat(string(t), 64)
		if err != nil {
			return nil, NewError("SyntaxError", err.Error())
		}
		return f, nil
	case string:
		return t, nil
	case bool:
		return t, nil
	case nil:
		return Null{}, nil
	}
	return nil, NewError("SyntaxError", "unexpected token")
}

// FromGo converts plain Go data (maps, slices, numbers, byte slices,
// errors) into host values. Map keys are sorted for a stable order.
func FromGo(v any) any {
	switch x := v.(type) {
	case nil:
		return Null{}
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		o := NewObject()
		for _, k := range keys {
			o.Set(k, FromGo(x[k]))
		}
		return o
	case []any:
		a := &Array{Elems: make([]any, len(x))}
		for i, e := range x {
			a.Elems[i] = FromGo(e)
		}
		return a
	case []string:
		a := &Array{Elems: make([]any, len(x))}
		for i, e := range x {
			a.Elems[i] = e
		}
		return a
	case []byte:
		return Uint8ArrayOf(x)
	case *Error:
		return x
	case error:
		return NewError("Error", x.Error())
	}
	return Normalize(v)
}

// ToGo converts host values into plain Go data. Nullish values become nil.
func ToGo(v any) any {
	switch x := Normalize(v).(type) {
	case Undefined, Null:
		return nil
	case *Object:
		m := make(map[string]any, x.Len())
		for _, k := range x.keys {
			m[k] = ToGo(x.props[k])
		}
		return m
	case *Array:
		out := make([]any, len(x.Elems))
		for i, e := range x.Elems {
			out[i] = ToGo(e)
		}
		return out
	case *Uint8Array:
		return append([]byte(nil), x.Bytes()...)
	default:
		return x
	}
}

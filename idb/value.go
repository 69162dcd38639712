package idb

import (
	"encoding/base64"
	"encoding/json"
	"math"
	"math/big"

	"github.com/wippyai/wbg-runtime/jsvalue"
)

// Stored values are JSON with a type tag per node so that binary views,
// undefined and non-finite numbers survive the round trip:
//
//	["u"] ["n"] ["b",true] ["d",1.5] ["D","NaN"] ["s","x"] ["I","123"]
//	["a",[...]] ["o",["k",v,...]] ["B","<base64>"] ["F","<base64>"] ["A","<base64>"]

const maxCloneDepth = 256

func encodeValue(v any) (string, error) {
	node, err := cloneNode(jsvalue.Normalize(v), 0, make(map[any]bool))
	if err != nil {
		return "", err
	}
	b, err := json.Marshal(node)
	if err != nil {
		return "", dataError(err.Error())
	}
	return string(b), nil
}

func cloneNode(v any, depth int, seen map[any]bool) ([]any, error) {
	if depth > maxCloneDepth {
		return nil, dataError("value nesting too deep")
	}
	switch x := v.(type) {
	case nil, jsvalue.Undefined:
		return []any{"u"}, nil
	case jsvalue.Null:
		return []any{"n"}, nil
	case bool:
		return []any{"b", x}, nil
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return []any{"D", jsvalue.FormatNumber(x)}, nil
		}
		return []any{"d", x}, nil
	case string:
		return []any{"s", x}, nil
	case *big.Int:
		return []any{"I", x.String()}, nil
	case *jsvalue.Uint8Array:
		return []any{"B", base64.StdEncoding.EncodeToString(x.Bytes())}, nil
	case *jsvalue.Float32Array:
		data := x.Buffer.Data[x.Offset : x.Offset+4*x.Length]
		return []any{"F", base64.StdEncoding.EncodeToString(data)}, nil
	case *jsvalue.ArrayBuffer:
		return []any{"A", base64.StdEncoding.EncodeToString(x.Data)}, nil
	case *jsvalue.Array:
		if seen[x] {
			return nil, dataError("cyclic value")
		}
		seen[x] = true
		defer delete(seen, x)
		elems := make([]any, 0, len(x.Elems))
		for _, e := range x.Elems {
			n, err := cloneNode(jsvalue.Normalize(e), depth+1, seen)
			if err != nil {
				return nil, err
			}
			elems = append(elems, n)
		}
		return []any{"a", elems}, nil
	case *jsvalue.Object:
		if seen[x] {
			return nil, dataError("cyclic value")
		}
		seen[x] = true
		defer delete(seen, x)
		kv := make([]any, 0, 2*x.Len())
		for _, k := range x.Keys() {
			pv, _ := x.Get(k)
			n, err := cloneNode(jsvalue.Normalize(pv), depth+1, seen)
			if err != nil {
				return nil, err
			}
			kv = append(kv, k, n)
		}
		return []any{"o", kv}, nil
	}
	return nil, domError("DataCloneError", jsvalue.DebugString(v)+" could not be cloned")
}

func decodeValue(s string) (any, error) {
	var node []any
	if err := json.Unmarshal([]byte(s), &node); err != nil {
		return nil, dataError("corrupt stored value: " + err.Error())
	}
	return restoreNode(node)
}

func restoreNode(node []any) (any, error) {
	if len(node) == 0 {
		return nil, dataError("corrupt stored value")
	}
	tag, _ := node[0].(string)
	arg := func() any {
		if len(node) > 1 {
			return node[1]
		}
		return nil
	}
	str := func() string {
		s, _ := arg().(string)
		return s
	}
	switch tag {
	case "u":
		return jsvalue.Undefined{}, nil
	case "n":
		return jsvalue.Null{}, nil
	case "b":
		b, _ := arg().(bool)
		return b, nil
	case "d":
		f, _ := arg().(float64)
		return f, nil
	case "D":
		switch str() {
		case "Infinity":
			return math.Inf(1), nil
		case "-Infinity":
			return math.Inf(-1), nil
		}
		return math.NaN(), nil
	case "s":
		return str(), nil
	case "I":
		i, ok := new(big.Int).SetString(str(), 10)
		if !ok {
			return nil, dataError("corrupt bigint")
		}
		return i, nil
	case "B", "F", "A":
		raw, err := base64.StdEncoding.DecodeString(str())
		if err != nil {
			return nil, dataError("corrupt binary value")
		}
		switch tag {
		case "B":
			return jsvalue.Uint8ArrayOf(raw), nil
		case "F":
			return &jsvalue.Float32Array{Buffer: &jsvalue.ArrayBuffer{Data: raw}, Length: len(raw) / 4}, nil
		}
		return &jsvalue.ArrayBuffer{Data: raw}, nil
	case "a":
		elems, _ := arg().([]any)
		arr := jsvalue.NewArray()
		for _, e := range elems {
			n, _ := e.([]any)
			v, err := restoreNode(n)
			if err != nil {
				return nil, err
			}
			arr.Push(v)
		}
		return arr, nil
	case "o":
		kv, _ := arg().([]any)
		obj := jsvalue.NewObject()
		for i := 0; i+1 < len(kv); i += 2 {
			k, _ := kv[i].(string)
			n, _ := kv[i+1].([]any)
			v, err := restoreNode(n)
			if err != nil {
				return nil, err
			}
			obj.Set(k, v)
		}
		return obj, nil
	}
	return nil, dataError("unknown value tag " + tag)
}

// cloneValue produces the structured clone stored by put and add.
func cloneValue(v any) (any, string, error) {
	s, err := encodeValue(v)
	if err != nil {
		return nil, "", err
	}
	c, err := decodeValue(s)
	return c, s, err
}

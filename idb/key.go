package idb

import (
	"bytes"
	"encoding/binary"
	"math"
	"strings"
	"unicode/utf16"

	"github.com/wippyai/wbg-runtime/jsvalue"
)

// Key type tags, ordered the way IndexedDB orders key types.
const (
	tagEnd    byte = 0x00
	tagNumber byte = 0x10
	tagString byte = 0x30
	tagBinary byte = 0x40
	tagArray  byte = 0x50
)

// EncodeKey returns the order-preserving binary form of a valid key.
// Numbers, strings, binary views and arrays of keys are valid; bytes.Compare
// on encodings matches IndexedDB key order.
func EncodeKey(k any) ([]byte, error) {
	var buf bytes.Buffer
	if err := encodeKey(&buf, jsvalue.Normalize(k), 0); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeKey(buf *bytes.Buffer, k any, depth int) error {
	if depth > 64 {
		return dataError("key nesting too deep")
	}
	switch v := k.(type) {
	case float64:
		if math.IsNaN(v) {
			return dataError("NaN is not a valid key")
		}
		if v == 0 {
			v = 0 // -0 and +0 are the same key
		}
		buf.WriteByte(tagNumber)
		bits := math.Float64bits(v)
		if bits&(1<<63) != 0 {
			bits = ^bits
		} else {
			bits |= 1 << 63
		}
		var b [8]byte
		binary.BigEndian.PutUint64(b[:], bits)
		buf.Write(b[:])
	case string:
		buf.WriteByte(tagString)
		escape(buf, stringUnits(v))
	case *jsvalue.Uint8Array:
		buf.WriteByte(tagBinary)
		escape(buf, v.Bytes())
	case *jsvalue.ArrayBuffer:
		buf.WriteByte(tagBinary)
		escape(buf, v.Data)
	case *jsvalue.Array:
		buf.WriteByte(tagArray)
		for _, e := range v.Elems {
			if err := encodeKey(buf, jsvalue.Normalize(e), depth+1); err != nil {
				return err
			}
		}
		buf.WriteByte(tagEnd)
	default:
		return dataError("the parameter is not a valid key: " + jsvalue.DebugString(k))
	}
	return nil
}

// stringUnits returns s as big-endian UTF-16 code units, so byte order
// matches the code unit order IndexedDB compares strings by.
func stringUnits(s string) []byte {
	units := utf16.Encode([]rune(s))
	out := make([]byte, 2*len(units))
	for i, u := range units {
		binary.BigEndian.PutUint16(out[2*i:], u)
	}
	return out
}

func unitsString(b []byte) (string, error) {
	if len(b)%2 != 0 {
		return "", dataError("odd length string key")
	}
	units := make([]uint16, len(b)/2)
	for i := range units {
		units[i] = binary.BigEndian.Uint16(b[2*i:])
	}
	return string(utf16.Decode(units)), nil
}

// escape writes b terminated by 0x00, with 0x00 and 0x01 escaped so the
// terminator sorts before any content.
func escape(buf *bytes.Buffer, b []byte) {
	for _, c := range b {
		switch c {
		case 0x00:
			buf.Write([]byte{0x01, 0x01})
		case 0x01:
			buf.Write([]byte{0x01, 0x02})
		default:
			buf.WriteByte(c)
		}
	}
	buf.WriteByte(tagEnd)
}

// DecodeKey reverses EncodeKey.
func DecodeKey(b []byte) (any, error) {
	k, rest, err := decodeKey(b)
	if err != nil {
		return nil, err
	}
	if len(rest) != 0 {
		return nil, dataError("trailing bytes after key")
	}
	return k, nil
}

func decodeKey(b []byte) (any, []byte, error) {
	if len(b) == 0 {
		return nil, nil, dataError("truncated key")
	}
	switch b[0] {
	case tagNumber:
		if len(b) < 9 {
			return nil, nil, dataError("truncated number key")
		}
		bits := binary.BigEndian.Uint64(b[1:9])
		if bits&(1<<63) != 0 {
			bits &^= 1 << 63
		} else {
			bits = ^bits
		}
		return math.Float64frombits(bits), b[9:], nil
	case tagString:
		raw, rest, err := unescape(b[1:])
		if err != nil {
			return nil, nil, err
		}
		str, err := unitsString(raw)
		return str, rest, err
	case tagBinary:
		raw, rest, err := unescape(b[1:])
		return jsvalue.Uint8ArrayOf(raw), rest, err
	case tagArray:
		arr := jsvalue.NewArray()
		rest := b[1:]
		for {
			if len(rest) == 0 {
				return nil, nil, dataError("unterminated array key")
			}
			if rest[0] == tagEnd {
				return arr, rest[1:], nil
			}
			var (
				e   any
				err error
			)
			e, rest, err = decodeKey(rest)
			if err != nil {
				return nil, nil, err
			}
			arr.Push(e)
		}
	}
	return nil, nil, dataError("unknown key tag")
}

func unescape(b []byte) ([]byte, []byte, error) {
	out := make([]byte, 0, len(b))
	for i := 0; i < len(b); i++ {
		switch b[i] {
		case tagEnd:
			return out, b[i+1:], nil
		case 0x01:
			if i+1 >= len(b) {
				return nil, nil, dataError("truncated escape")
			}
			i++
			out = append(out, b[i]-1)
		default:
			out = append(out, b[i])
		}
	}
	return nil, nil, dataError("unterminated key")
}

// CompareKeys implements indexedDB.cmp.
func CompareKeys(a, b any) (int, error) {
	ea, err := EncodeKey(a)
	if err != nil {
		return 0, err
	}
	eb, err := EncodeKey(b)
	if err != nil {
		return 0, err
	}
	return bytes.Compare(ea, eb), nil
}

// KeyRange is an IDBKeyRange over encoded bounds. A nil bound is open
// ended.
type KeyRange struct {
	Lower, Upper         any
	lower, upper         []byte
	LowerOpen, UpperOpen bool
}

// NewKeyRange validates and encodes the bounds. Pass nil for no bound.
func NewKeyRange(lower, upper any, lowerOpen, upperOpen bool) (*KeyRange, error) {
	r := &KeyRange{Lower: lower, Upper: upper, LowerOpen: lowerOpen, UpperOpen: upperOpen}
	var err error
	if lower != nil {
		if r.lower, err = EncodeKey(lower); err != nil {
			return nil, err
		}
	}
	if upper != nil {
		if r.upper, err = EncodeKey(upper); err != nil {
			return nil, err
		}
	}
	if r.lower != nil && r.upper != nil {
		c := bytes.Compare(r.lower, r.upper)
		if c > 0 || (c == 0 && (lowerOpen || upperOpen)) {
			return nil, dataError("the lower bound is greater than the upper bound")
		}
	}
	return r, nil
}

// Only is the range holding exactly k.
func Only(k any) (*KeyRange, error) {
	return NewKeyRange(k, k, false, false)
}

// Includes reports whether the encoded key lies in the range.
func (r *KeyRange) includes(enc []byte) bool {
	if r == nil {
		return true
	}
	if r.lower != nil {
		c := bytes.Compare(enc, r.lower)
		if c < 0 || (c == 0 && r.LowerOpen) {
			return false
		}
	}
	if r.upper != nil {
		c := bytes.Compare(enc, r.upper)
		if c > 0 || (c == 0 && r.UpperOpen) {
			return false
		}
	}
	return true
}

// Includes reports whether k lies in the range.
func (r *KeyRange) Includes(k any) (bool, error) {
	enc, err := EncodeKey(k)
	if err != nil {
		return false, err
	}
	return r.includes(enc), nil
}

// ClassName implements jsvalue.ClassNamer.
func (r *KeyRange) ClassName() string { return "IDBKeyRange" }

// toRange accepts a KeyRange, a key, or nullish for everything.
func toRange(q any) (*KeyRange, error) {
	q = jsvalue.Normalize(q)
	if q == nil || jsvalue.IsNullish(q) {
		return nil, nil
	}
	if r, ok := q.(*KeyRange); ok {
		return r, nil
	}
	return Only(q)
}

// KeyPath is a parsed key path: empty, one dotted path, or a list.
type KeyPath struct {
	Paths []string
	List  bool
}

// ParseKeyPath accepts nullish, a string or an array of strings.
func ParseKeyPath(v any) (KeyPath, error) {
	switch p := jsvalue.Normalize(v).(type) {
	case nil, jsvalue.Undefined, jsvalue.Null:
		return KeyPath{}, nil
	case string:
		if !validPath(p) {
			return KeyPath{}, syntaxError("invalid key path " + p)
		}
		return KeyPath{Paths: []string{p}}, nil
	case *jsvalue.Array:
		kp := KeyPath{List: true}
		if len(p.Elems) == 0 {
			return KeyPath{}, syntaxError("empty key path list")
		}
		for _, e := range p.Elems {
			s, ok := e.(string)
			if !ok || s == "" || !validPath(s) {
				return KeyPath{}, syntaxError("invalid key path element")
			}
			kp.Paths = append(kp.Paths, s)
		}
		return kp, nil
	}
	return KeyPath{}, syntaxError("invalid key path " + jsvalue.DebugString(v))
}

func validPath(p string) bool {
	if p == "" {
		return true
	}
	for _, part := range strings.Split(p, ".") {
		if part == "" {
			return false
		}
	}
	return true
}

// None reports an absent key path (out-of-line keys).
func (kp KeyPath) None() bool { return len(kp.Paths) == 0 }

// Value returns the key path as a guest value.
func (kp KeyPath) Value() any {
	switch {
	case kp.None():
		return jsvalue.Null{}
	case kp.List:
		arr := jsvalue.NewArray()
		for _, p := range kp.Paths {
			arr.Push(p)
		}
		return arr
	}
	return kp.Paths[0]
}

func (kp KeyPath) String() string {
	if kp.List {
		return "[" + strings.Join(kp.Paths, ",") + "]"
	}
	if kp.None() {
		return ""
	}
	return kp.Paths[0]
}

// Extract evaluates the key path against value. ok is false when a
// component is missing.
func (kp KeyPath) Extract(value any) (any, bool) {
	if !kp.List {
		return extractOne(value, kp.Paths[0])
	}
	arr := jsvalue.NewArray()
	for _, p := range kp.Paths {
		v, ok := extractOne(value, p)
		if !ok {
			return nil, false
		}
		arr.Push(v)
	}
	return arr, true
}

func extractOne(value any, path string) (any, bool) {
	if path == "" {
		return value, true
	}
	cur := value
	for _, part := range strings.Split(path, ".") {
		if o, ok := cur.(*jsvalue.Object); ok {
			v, found := o.Get(part)
			if !found {
				return nil, false
			}
			cur = v
			continue
		}
		if jsvalue.IsNullish(cur) {
			return nil, false
		}
		v, err := jsvalue.Get(cur, part)
		if err != nil {
			return nil, false
		}
		if _, undef := v.(jsvalue.Undefined); undef {
			return nil, false
		}
		cur = v
	}
	return cur, true
}

// inject stores key at a single dotted path, creating objects on the way.
func (kp KeyPath) inject(value any, key any) error {
	if kp.List || kp.None() {
		return dataError("cannot inject key into compound key path")
	}
	parts := strings.Split(kp.Paths[0], ".")
	cur, ok := value.(*jsvalue.Object)
	if !ok {
		return dataError("value is not an object")
	}
	for _, part := range parts[:len(parts)-1] {
		next, found := cur.Get(part)
		if !found {
			o := jsvalue.NewObject()
			cur.Set(part, o)
			cur = o
			continue
		}
		obj, ok := next.(*jsvalue.Object)
		if !ok {
			return dataError("key path does not lead to an object")
		}
		cur = obj
	}
	cur.Set(parts[len(parts)-1], key)
	return nil
}

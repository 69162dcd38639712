package jsvalue

import (
	"context"
	"encoding/binary"
	"math"
	"math/big"
)

// Undefined is the undefined value.
type Undefined struct{}

// Null is the null value.
type Null struct{}

// Symbol is a unique symbol value. Two symbols are equal only if they are
// the same pointer.
type Symbol struct {
	Description string
	// Anonymous is set for Symbol() created without a description.
	Anonymous bool
}

// NewSymbol creates a fresh symbol.
func NewSymbol(desc string) *Symbol {
	return &Symbol{Description: desc}
}

// SymbolIterator is the well-known Symbol.iterator.
var SymbolIterator = &Symbol{Description: "Symbol.iterator"}

// Callable is implemented by every value typeof reports as "function".
type Callable interface {
	Call(ctx context.Context, this any, args ...any) (any, error)
}

// FuncImpl is the Go signature behind a Func.
type FuncImpl func(ctx context.Context, this any, args []any) (any, error)

// Func adapts a Go function into a Callable host function.
type Func struct {
	Name string
	Fn   FuncImpl
}

// NewFunc creates a named host function.
func NewFunc(name string, fn FuncImpl) *Func {
	return &Func{Name: name, Fn: fn}
}

// Call implements Callable.
func (f *Func) Call(ctx context.Context, this any, args ...any) (any, error) {
	return f.Fn(ctx, this, args)
}

// FuncName returns the function's name property.
func (f *Func) FuncName() string { return f.Name }

// Namer is implemented by callables that expose a name property.
type Namer interface {
	FuncName() string
}

// PropertyGetter exposes named properties of a host object.
type PropertyGetter interface {
	GetProperty(name string) (any, bool)
}

// PropertySetter accepts property assignments on a host object.
type PropertySetter interface {
	SetProperty(name string, v any) error
}

// ClassNamer reports the class name used by instanceof checks and
// diagnostic output.
type ClassNamer interface {
	ClassName() string
}

// Instancer reports membership in a class hierarchy, e.g. a canvas is
// both an HTMLCanvasElement and an Element.
type Instancer interface {
	InstanceOf(class string) bool
}

// Object is an ordinary object with insertion-ordered own properties.
type Object struct {
	keys  []string
	props map[string]any
}

// NewObject creates an empty object.
func NewObject() *Object {
	return &Object{props: make(map[string]any)}
}

// ObjectOf builds an object from alternating key/value pairs.
func ObjectOf(kv ...any) *Object {
	o := NewObject()
	for i := 0; i+1 < len(kv); i += 2 {
		o.Set(kv[i].(string), kv[i+1])
	}
	return o
}

// Get returns the own property value.
func (o *Object) Get(key string) (any, bool) {
	v, ok := o.props[key]
	return v, ok
}

// Set assigns an own property, appending new keys in order.
func (o *Object) Set(key string, v any) {
	if _, ok := o.props[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.props[key] = v
}

// Delete removes an own property.
func (o *Object) Delete(key string) bool {
	if _, ok := o.props[key]; !ok {
		return false
	}
	delete(o.props, key)
	for i, k := range o.keys {
		if k == key {
			o.keys = append(o.keys[:i], o.keys[i+1:]...)
			break
		}
	}
	return true
}

// Keys returns own property names in insertion order.
func (o *Object) Keys() []string {
	out := make([]string, len(o.keys))
	copy(out, o.keys)
	return out
}

// Len returns the number of own properties.
func (o *Object) Len() int { return len(o.keys) }

// Array is a dense array.
type Array struct {
	Elems []any
}

// NewArray creates an array holding the given elements.
func NewArray(elems ...any) *Array {
	return &Array{Elems: elems}
}

// Push appends and returns the new length.
func (a *Array) Push(v any) int {
	a.Elems = append(a.Elems, v)
	return len(a.Elems)
}

// At returns the element at i or Undefined.
func (a *Array) At(i int) any {
	if i < 0 || i >= len(a.Elems) {
		return Undefined{}
	}
	return a.Elems[i]
}

// ArrayBuffer is raw byte storage. Data may alias guest linear memory, in
// which case it goes stale once memory grows.
type ArrayBuffer struct {
	Data []byte
}

// Uint8Array is a byte view over an ArrayBuffer.
type Uint8Array struct {
	Buffer *ArrayBuffer
	Offset int
	Length int
}

// NewUint8Array allocates a zeroed view of n bytes.
func NewUint8Array(n int) *Uint8Array {
	return &Uint8Array{Buffer: &ArrayBuffer{Data: make([]byte, n)}, Length: n}
}

// Uint8ArrayOf wraps b without copying.
func Uint8ArrayOf(b []byte) *Uint8Array {
	return &Uint8Array{Buffer: &ArrayBuffer{Data: b}, Length: len(b)}
}

// Bytes returns the viewed bytes.
func (u *Uint8Array) Bytes() []byte {
	return u.Buffer.Data[u.Offset : u.Offset+u.Length]
}

// Subarray returns a view sharing the same buffer. Negative indices count
// from the end; bounds are clamped.
func (u *Uint8Array) Subarray(begin, end int) *Uint8Array {
	begin = clampIndex(begin, u.Length)
	end = clampIndex(end, u.Length)
	if end < begin {
		end = begin
	}
	return &Uint8Array{Buffer: u.Buffer, Offset: u.Offset + begin, Length: end - begin}
}

func clampIndex(i, n int) int {
	if i < 0 {
		i += n
		if i < 0 {
			return 0
		}
	}
	if i > n {
		return n
	}
	return i
}

// Float32Array is a little-endian float32 view over an ArrayBuffer.
type Float32Array struct {
	Buffer *ArrayBuffer
	Offset int // bytes
	Length int // elements
}

// Float32ArrayOf copies values into a new buffer.
func Float32ArrayOf(values []float32) *Float32Array {
	data := make([]byte, 4*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint32(data[4*i:], math.Float32bits(v))
	}
	return &Float32Array{Buffer: &ArrayBuffer{Data: data}, Length: len(values)}
}

// At returns element i.
func (f *Float32Array) At(i int) float32 {
	off := f.Offset + 4*i
	return math.Float32frombits(binary.LittleEndian.Uint32(f.Buffer.Data[off:]))
}

// Values copies the viewed elements.
func (f *Float32Array) Values() []float32 {
	out := make([]float32, f.Length)
	for i := range out {
		out[i] = f.At(i)
	}
	return out
}

// Int32Array is a little-endian int32 view over an ArrayBuffer.
type Int32Array struct {
	Buffer *ArrayBuffer
	Offset int // bytes
	Length int // elements
}

// NewInt32Array allocates a zeroed array of n elements.
func NewInt32Array(n int) *Int32Array {
	return &Int32Array{Buffer: &ArrayBuffer{Data: make([]byte, 4*n)}, Length: n}
}

// At returns element i.
func (a *Int32Array) At(i int) int32 {
	return int32(binary.LittleEndian.Uint32(a.Buffer.Data[a.Offset+4*i:]))
}

// SetAt stores v at element i.
func (a *Int32Array) SetAt(i int, v int32) {
	binary.LittleEndian.PutUint32(a.Buffer.Data[a.Offset+4*i:], uint32(v))
}

// Error is a thrown exception value. It satisfies the Go error interface
// so host code can return it directly.
type Error struct {
	Name    string
	Message string
	Stack   string
	Cause   any
}

// NewError creates an Error with the given name ("Error", "TypeError", ...).
func NewError(name, msg string) *Error {
	return &Error{Name: name, Message: msg}
}

// Error implements error.
func (e *Error) Error() string {
	if e.Message == "" {
		return e.Name
	}
	return e.Name + ": " + e.Message
}

// ClassName implements ClassNamer.
func (e *Error) ClassName() string { return e.Name }

// DOMException names used by host capabilities.
const (
	AbortError         = "AbortError"
	ConstraintError    = "ConstraintError"
	DataError          = "DataError"
	EncodingError      = "EncodingError"
	IndexSizeError     = "IndexSizeError"
	InvalidAccessError = "InvalidAccessError"
	InvalidStateError  = "InvalidStateError"
	NotFoundError      = "NotFoundError"
	NotSupportedError  = "NotSupportedError"
	TypeErrorName      = "TypeError"
	VersionError       = "VersionError"
)

// NewTypeError creates a TypeError.
func NewTypeError(msg string) *Error {
	return NewError(TypeErrorName, msg)
}

// IsNullish reports whether v is undefined or null.
func IsNullish(v any) bool {
	switch v.(type) {
	case nil, Undefined, Null:
		return true
	}
	return false
}

// BigIntFromUint64 creates a BigInt.
func BigIntFromUint64(u uint64) *big.Int {
	return new(big.Int).SetUint64(u)
}

// BigIntFromInt64 creates a BigInt.
func BigIntFromInt64(i int64) *big.Int {
	return big.NewInt(i)
}

// IterResult builds an iterator result object {done, value}.
func IterResult(done bool, value any) *Object {
	return ObjectOf("done", done, "value", value)
}

package memory

import (
	"context"
	"encoding/binary"
	"math"
	"unicode/utf8"

	"github.com/wippyai/wbg-runtime/errors"
	"github.com/wippyai/wbg-runtime/jsvalue"
)

// Buffer is the part of a guest memory the bridge depends on.
// wazero's api.Memory satisfies it.
type Buffer interface {
	Size() uint32
	Read(offset, byteCount uint32) ([]byte, bool)
}

// Allocator hands out guest heap memory.
type Allocator interface {
	Malloc(ctx context.Context, size, align uint32) (uint32, error)
	Free(ctx context.Context, ptr, size, align uint32) error
}

// Bridge provides cached views and marshaling helpers over a Buffer.
// It is not safe for concurrent use; all access happens on the instance's
// event loop.
type Bridge struct {
	buf       Buffer
	u8        []byte
	f32       Float32View
	i32       Int32View
	dv        DataView
	refreshes int
}

// NewBridge creates a bridge over buf.
func NewBridge(buf Buffer) *Bridge {
	return &Bridge{buf: buf}
}

// Size returns the current memory size in bytes.
func (b *Bridge) Size() uint32 {
	return b.buf.Size()
}

// Refreshes returns how many times the cached views were rebuilt.
func (b *Bridge) Refreshes() int {
	return b.refreshes
}

// Invalidate drops the cached views. The next access rebuilds them.
func (b *Bridge) Invalidate() {
	b.u8 = nil
}

// Uint8 returns a byte view over the whole memory.
func (b *Bridge) Uint8() []byte {
	size := b.buf.Size()
	if b.u8 != nil && size > 0 && uint32(len(b.u8)) == size {
		if head, ok := b.buf.Read(0, 1); ok && &head[0] == &b.u8[0] {
			return b.u8
		}
	}
	b.rebuild(size)
	return b.u8
}

// Float32 returns a float32 view over the whole memory.
func (b *Bridge) Float32() Float32View {
	b.Uint8()
	return b.f32
}

// Int32 returns an int32 view over the whole memory.
func (b *Bridge) Int32() Int32View {
	b.Uint8()
	return b.i32
}

// DataView returns a little-endian accessor over the whole memory.
func (b *Bridge) DataView() DataView {
	b.Uint8()
	return b.dv
}

func (b *Bridge) rebuild(size uint32) {
	data, ok := b.buf.Read(0, size)
	if !ok {
		data = nil
	}
	b.u8 = data
	b.f32 = Float32View{data: data}
	b.i32 = Int32View{data: data}
	b.dv = DataView{data: data}
	b.refreshes++
}

func (b *Bridge) bounds(ptr, n uint32) error {
	size := b.buf.Size()
	if uint64(ptr)+uint64(n) > uint64(size) {
		return errors.OutOfBounds(errors.PhaseMarshal, ptr, n, uint64(size))
	}
	return nil
}

// Read returns a view of n bytes at ptr. The slice aliases guest memory.
func (b *Bridge) Read(ptr, n uint32) ([]byte, error) {
	if err := b.bounds(ptr, n); err != nil {
		return nil, err
	}
	return b.Uint8()[ptr : ptr+n], nil
}

// CopyBytes returns a copy of n bytes at ptr.
func (b *Bridge) CopyBytes(ptr, n uint32) ([]byte, error) {
	view, err := b.Read(ptr, n)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, view)
	return out, nil
}

// Write copies data into memory at ptr.
func (b *Bridge) Write(ptr uint32, data []byte) error {
	if err := b.bounds(ptr, uint32(len(data))); err != nil {
		return err
	}
	copy(b.Uint8()[ptr:], data)
	return nil
}

// ReadString decodes a UTF-8 string. Invalid sequences are an error.
func (b *Bridge) ReadString(ptr, n uint32) (string, error) {
	view, err := b.Read(ptr, n)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(view) {
		return "", errors.InvalidUTF8(errors.PhaseMarshal, ptr, view)
	}
	return string(view), nil
}

// ReadOwnedString decodes a string the guest handed over and frees its
// buffer, whether or not decoding succeeded.
func (b *Bridge) ReadOwnedString(ctx context.Context, alloc Allocator, ptr, n uint32) (string, error) {
	s, err := b.ReadString(ptr, n)
	if ferr := alloc.Free(ctx, ptr, n, 1); ferr != nil && err == nil {
		err = ferr
	}
	return s, err
}

// PassString copies s into a fresh guest allocation and returns (ptr, len).
func (b *Bridge) PassString(ctx context.Context, alloc Allocator, s string) (uint32, uint32, error) {
	ptr, err := alloc.Malloc(ctx, uint32(len(s)), 1)
	if err != nil {
		return 0, 0, err
	}
	if err := b.bounds(ptr, uint32(len(s))); err != nil {
		return 0, 0, err
	}
	copy(b.Uint8()[ptr:], s)
	return ptr, uint32(len(s)), nil
}

// PassBytes copies data into a fresh guest allocation and returns (ptr, len).
func (b *Bridge) PassBytes(ctx context.Context, alloc Allocator, data []byte) (uint32, uint32, error) {
	ptr, err := alloc.Malloc(ctx, uint32(len(data)), 1)
	if err != nil {
		return 0, 0, err
	}
	if err := b.Write(ptr, data); err != nil {
		return 0, 0, err
	}
	return ptr, uint32(len(data)), nil
}

// ReadFloat32s copies n float32 values starting at ptr.
func (b *Bridge) ReadFloat32s(ptr, n uint32) ([]float32, error) {
	if err := b.bounds(ptr, 4*n); err != nil {
		return nil, err
	}
	view := b.Float32()
	out := make([]float32, n)
	for i := range out {
		out[i] = view.At(ptr + 4*uint32(i))
	}
	return out, nil
}

// ReadInt32s copies n int32 values starting at ptr.
func (b *Bridge) ReadInt32s(ptr, n uint32) ([]int32, error) {
	if err := b.bounds(ptr, 4*n); err != nil {
		return nil, err
	}
	view := b.Int32()
	out := make([]int32, n)
	for i := range out {
		out[i] = view.At(ptr + 4*uint32(i))
	}
	return out, nil
}

// WriteI32 stores a little-endian int32 at ptr.
func (b *Bridge) WriteI32(ptr uint32, v int32) error {
	if err := b.bounds(ptr, 4); err != nil {
		return err
	}
	b.DataView().SetInt32(ptr, v)
	return nil
}

// WriteF64 stores a little-endian float64 at ptr.
func (b *Bridge) WriteF64(ptr uint32, v float64) error {
	if err := b.bounds(ptr, 8); err != nil {
		return err
	}
	b.DataView().SetFloat64(ptr, v)
	return nil
}

// WriteI64 stores a little-endian int64 at ptr.
func (b *Bridge) WriteI64(ptr uint32, v int64) error {
	if err := b.bounds(ptr, 8); err != nil {
		return err
	}
	b.DataView().SetBigInt64(ptr, v)
	return nil
}

// WriteStringResult passes s to the guest and stores (ptr, len) at retptr.
// When present is false both slots are zero.
func (b *Bridge) WriteStringResult(ctx context.Context, alloc Allocator, retptr uint32, s string, present bool) error {
	var ptr, n uint32
	if present {
		var err error
		ptr, n, err = b.PassString(ctx, alloc, s)
		if err != nil {
			return err
		}
	}
	if err := b.WriteI32(retptr+4, int32(n)); err != nil {
		return err
	}
	return b.WriteI32(retptr, int32(ptr))
}

// WriteBytesResult passes data to the guest and stores (ptr, len) at retptr.
func (b *Bridge) WriteBytesResult(ctx context.Context, alloc Allocator, retptr uint32, data []byte) error {
	ptr, n, err := b.PassBytes(ctx, alloc, data)
	if err != nil {
		return err
	}
	if err := b.WriteI32(retptr+4, int32(n)); err != nil {
		return err
	}
	return b.WriteI32(retptr, int32(ptr))
}

// WriteOptionF64 stores an optional float64 at retptr.
func (b *Bridge) WriteOptionF64(retptr uint32, v float64, ok bool) error {
	if !ok {
		v = 0
	}
	if err := b.WriteF64(retptr+8, v); err != nil {
		return err
	}
	return b.WriteI32(retptr, boolI32(ok))
}

// WriteOptionI64 stores an optional int64 at retptr.
func (b *Bridge) WriteOptionI64(retptr uint32, v int64, ok bool) error {
	if !ok {
		v = 0
	}
	if err := b.WriteI64(retptr+8, v); err != nil {
		return err
	}
	return b.WriteI32(retptr, boolI32(ok))
}

func boolI32(ok bool) int32 {
	if ok {
		return 1
	}
	return 0
}

// Float32View reads float32 values by byte offset.
type Float32View struct{ data []byte }

// Len returns the number of whole elements in the view.
func (v Float32View) Len() int { return len(v.data) / 4 }

// At reads the float32 at byte offset off.
func (v Float32View) At(off uint32) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(v.data[off:]))
}

// Int32View reads int32 values by byte offset.
type Int32View struct{ data []byte }

// Len returns the number of whole elements in the view.
func (v Int32View) Len() int { return len(v.data) / 4 }

// At reads the int32 at byte offset off.
func (v Int32View) At(off uint32) int32 {
	return int32(binary.LittleEndian.Uint32(v.data[off:]))
}

// DataView is a little-endian accessor over memory.
type DataView struct{ data []byte }

// ByteLength returns the view length.
func (d DataView) ByteLength() int { return len(d.data) }

// GetInt32 reads an int32.
func (d DataView) GetInt32(off uint32) int32 {
	return int32(binary.LittleEndian.Uint32(d.data[off:]))
}

// SetInt32 writes an int32.
func (d DataView) SetInt32(off uint32, v int32) {
	binary.LittleEndian.PutUint32(d.data[off:], uint32(v))
}

// GetFloat64 reads a float64.
func (d DataView) GetFloat64(off uint32) float64 {
	return math.Float64frombits(binary.LittleEndian.Uint64(d.data[off:]))
}

// SetFloat64 writes a float64.
func (d DataView) SetFloat64(off uint32, v float64) {
	binary.LittleEndian.PutUint64(d.data[off:], math.Float64bits(v))
}

// SetBigInt64 writes an int64.
func (d DataView) SetBigInt64(off uint32, v int64) {
	binary.LittleEndian.PutUint64(d.data[off:], uint64(v))
}

// Object is the guest memory as seen through __wbindgen_memory: a
// WebAssembly.Memory whose buffer property is the current backing store.
type Object struct {
	b *Bridge
}

// JSObject returns the WebAssembly.Memory host object for this bridge.
func (b *Bridge) JSObject() *Object {
	return &Object{b: b}
}

// GetProperty implements jsvalue.PropertyGetter.
func (o *Object) GetProperty(name string) (any, bool) {
	if name == "buffer" {
		return &jsvalue.ArrayBuffer{Data: o.b.Uint8()}, true
	}
	return nil, false
}

// ClassName implements jsvalue.ClassNamer.
func (o *Object) ClassName() string { return "Memory" }

// Bridge returns the underlying bridge.
func (o *Object) Bridge() *Bridge { return o.b }

package memory

import (
	"context"
	stderrors "errors"
	"math"
	"testing"

	"github.com/tetratelabs/wazero"

	"github.com/wippyai/wbg-runtime/errors"
	"github.com/wippyai/wbg-runtime/jsvalue"
)

type fakeBuffer struct {
	data []byte
}

func newFakeBuffer(size int) *fakeBuffer {
	return &fakeBuffer{data: make([]byte, size)}
}

func (f *fakeBuffer) Size() uint32 { return uint32(len(f.data)) }

func (f *fakeBuffer) Read(off, n uint32) ([]byte, bool) {
	if uint64(off)+uint64(n) > uint64(len(f.data)) {
		return nil, false
	}
	return f.data[off : off+n : off+n], true
}

// grow reallocates like a memory.grow that could not extend in place.
func (f *fakeBuffer) grow(n int) {
	nd := make([]byte, len(f.data)+n)
	copy(nd, f.data)
	f.data = nd
}

// detach moves the backing store without changing its length.
func (f *fakeBuffer) detach() {
	nd := make([]byte, len(f.data))
	copy(nd, f.data)
	f.data = nd
}

type bumpAllocator struct {
	next  uint32
	freed []uint32
	fail  bool
}

func (a *bumpAllocator) Malloc(_ context.Context, size, _ uint32) (uint32, error) {
	if a.fail {
		return 0, errors.AllocationFailed(errors.PhaseMarshal, size, 1)
	}
	p := a.next
	a.next += size
	return p, nil
}

func (a *bumpAllocator) Free(_ context.Context, ptr, _, _ uint32) error {
	a.freed = append(a.freed, ptr)
	return nil
}

func TestBridge_ViewCache(t *testing.T) {
	buf := newFakeBuffer(64)
	b := NewBridge(buf)

	v1 := b.Uint8()
	v2 := b.Uint8()
	if &v1[0] != &v2[0] || b.Refreshes() != 1 {
		t.Fatalf("view rebuilt without a change: refreshes=%d", b.Refreshes())
	}

	buf.grow(64)
	v3 := b.Uint8()
	if len(v3) != 128 {
		t.Errorf("view after growth has len %d, want 128", len(v3))
	}
	if b.Refreshes() != 2 {
		t.Errorf("refreshes = %d, want 2", b.Refreshes())
	}

	buf.detach()
	v4 := b.Uint8()
	if &v4[0] == &v3[0] {
		t.Error("view not rebuilt after the backing store moved")
	}
	v4[5] = 9
	if buf.data[5] != 9 {
		t.Error("refreshed view does not alias current memory")
	}

	b.Invalidate()
	b.Uint8()
	if b.Refreshes() != 4 {
		t.Errorf("refreshes = %d after Invalidate, want 4", b.Refreshes())
	}
}

func TestBridge_ZeroLengthAlwaysRefreshes(t *testing.T) {
	buf := newFakeBuffer(0)
	b := NewBridge(buf)
	b.Uint8()
	b.Uint8()
	if b.Refreshes() != 2 {
		t.Errorf("refreshes = %d, zero-length view must be rebuilt each time", b.Refreshes())
	}
	buf.grow(16)
	if len(b.Uint8()) != 16 {
		t.Error("view did not pick up first growth")
	}
}

func TestBridge_TypedViewsFollowGrowth(t *testing.T) {
	buf := newFakeBuffer(8)
	b := NewBridge(buf)
	if b.Float32().Len() != 2 {
		t.Fatalf("Float32 len = %d", b.Float32().Len())
	}
	buf.grow(8)
	if b.Float32().Len() != 4 || b.Int32().Len() != 4 || b.DataView().ByteLength() != 16 {
		t.Error("typed views not rebuilt after growth")
	}
}

func TestBridge_StringRoundTrip(t *testing.T) {
	ctx := context.Background()
	tests := []string{
		"",
		"hello, world",
		"~!@#$%^&*()_+`-=[]{}|;':\",./<>?",
		"héllo wörld",
		"日本語テキスト",
		"emoji 🎮🔦 mix",
		"\u0000embedded nul",
	}

	buf := newFakeBuffer(4096)
	b := NewBridge(buf)
	alloc := &bumpAllocator{next: 8}

	for _, s := range tests {
		ptr, n, err := b.PassString(ctx, alloc, s)
		if err != nil {
			t.Fatalf("PassString(%q): %v", s, err)
		}
		if int(n) != len(s) {
			t.Errorf("len = %d, want %d", n, len(s))
		}
		got, err := b.ReadString(ptr, n)
		if err != nil {
			t.Fatalf("ReadString(%q): %v", s, err)
		}
		if got != s {
			t.Errorf("round trip = %q, want %q", got, s)
		}
	}
}

func TestBridge_ReadStringInvalidUTF8(t *testing.T) {
	buf := newFakeBuffer(16)
	copy(buf.data[4:], []byte{'o', 'k', 0xff, 0xfe})
	b := NewBridge(buf)

	_, err := b.ReadString(4, 4)
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseMarshal, Kind: errors.KindInvalidUTF8}) {
		t.Fatalf("err = %v, want invalid_utf8", err)
	}

	s, err := b.ReadString(4, 2)
	if err != nil || s != "ok" {
		t.Errorf("valid prefix = %q, %v", s, err)
	}
}

func TestBridge_ReadOwnedStringFrees(t *testing.T) {
	ctx := context.Background()
	buf := newFakeBuffer(32)
	copy(buf.data[10:], "owned")
	b := NewBridge(buf)
	alloc := &bumpAllocator{}

	s, err := b.ReadOwnedString(ctx, alloc, 10, 5)
	if err != nil || s != "owned" {
		t.Fatalf("ReadOwnedString = %q, %v", s, err)
	}
	if len(alloc.freed) != 1 || alloc.freed[0] != 10 {
		t.Errorf("freed = %v, want [10]", alloc.freed)
	}
}

func TestBridge_OutOfBounds(t *testing.T) {
	b := NewBridge(newFakeBuffer(16))
	oob := &errors.Error{Phase: errors.PhaseMarshal, Kind: errors.KindOutOfBounds}

	if _, err := b.Read(10, 10); !stderrors.Is(err, oob) {
		t.Errorf("Read err = %v", err)
	}
	if err := b.WriteI32(14, 1); !stderrors.Is(err, oob) {
		t.Errorf("WriteI32 err = %v", err)
	}
	if _, err := b.ReadFloat32s(8, 3); !stderrors.Is(err, oob) {
		t.Errorf("ReadFloat32s err = %v", err)
	}
	if err := b.WriteF64(math.MaxUint32-2, 1); !stderrors.Is(err, oob) {
		t.Errorf("WriteF64 near 4GiB err = %v", err)
	}
}

func TestBridge_AllocationFailure(t *testing.T) {
	b := NewBridge(newFakeBuffer(16))
	_, _, err := b.PassString(context.Background(), &bumpAllocator{fail: true}, "x")
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseMarshal, Kind: errors.KindAllocation}) {
		t.Errorf("err = %v, want allocation error", err)
	}
}

func TestBridge_RetptrLayouts(t *testing.T) {
	ctx := context.Background()
	buf := newFakeBuffer(256)
	b := NewBridge(buf)
	alloc := &bumpAllocator{next: 128}

	if err := b.WriteOptionF64(0, 2.5, true); err != nil {
		t.Fatal(err)
	}
	dv := b.DataView()
	if dv.GetInt32(0) != 1 || dv.GetFloat64(8) != 2.5 {
		t.Errorf("option<f64> = (%d, %v)", dv.GetInt32(0), dv.GetFloat64(8))
	}

	if err := b.WriteOptionI64(16, -7, false); err != nil {
		t.Fatal(err)
	}
	if dv.GetInt32(16) != 0 || dv.GetFloat64(24) != 0 {
		t.Error("none should zero both slots")
	}

	if err := b.WriteStringResult(ctx, alloc, 32, "abc", true); err != nil {
		t.Fatal(err)
	}
	ptr, n := uint32(dv.GetInt32(32)), uint32(dv.GetInt32(36))
	if s, _ := b.ReadString(ptr, n); s != "abc" {
		t.Errorf("string result = %q", s)
	}

	if err := b.WriteStringResult(ctx, alloc, 40, "", false); err != nil {
		t.Fatal(err)
	}
	if dv.GetInt32(40) != 0 || dv.GetInt32(44) != 0 {
		t.Error("absent string should write (0, 0)")
	}
}

func TestBridge_ReadFloat32s(t *testing.T) {
	buf := newFakeBuffer(16)
	b := NewBridge(buf)
	want := []float32{1.5, -2, 3.25}
	arr := jsvalue.Float32ArrayOf(want)
	copy(buf.data[4:], arr.Buffer.Data)

	got, err := b.ReadFloat32s(4, 3)
	if err != nil {
		t.Fatal(err)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestObject_BufferTracksMemory(t *testing.T) {
	buf := newFakeBuffer(8)
	b := NewBridge(buf)
	obj := b.JSObject()

	v, err := jsvalue.Get(obj, "buffer")
	if err != nil {
		t.Fatal(err)
	}
	if len(v.(*jsvalue.ArrayBuffer).Data) != 8 {
		t.Error("buffer length mismatch")
	}
	buf.grow(8)
	v, _ = jsvalue.Get(obj, "buffer")
	if len(v.(*jsvalue.ArrayBuffer).Data) != 16 {
		t.Error("buffer did not follow growth")
	}
	if !jsvalue.InstanceOf(obj, "Memory") {
		t.Error("memory object should report its class")
	}
}

// memoryWASM is a minimal module exporting one page of memory as "memory".
var memoryWASM = []byte{
	0x00, 0x61, 0x73, 0x6d,
	0x01, 0x00, 0x00, 0x00,
	0x05, 0x03, 0x01, 0x00, 0x01,
	0x07, 0x0a, 0x01,
	0x06, 0x6d, 0x65, 0x6d, 0x6f, 0x72, 0x79,
	0x02, 0x00,
}

func TestBridge_WazeroMemory(t *testing.T) {
	ctx := context.Background()
	rt := wazero.NewRuntime(ctx)
	defer rt.Close(ctx)

	mod, err := rt.Instantiate(ctx, memoryWASM)
	if err != nil {
		t.Fatalf("instantiate: %v", err)
	}
	mem := mod.ExportedMemory("memory")
	b := NewBridge(mem)

	if b.Size() != 65536 {
		t.Fatalf("Size = %d, want one page", b.Size())
	}
	if err := b.Write(100, []byte("héllo")); err != nil {
		t.Fatal(err)
	}
	if s, err := b.ReadString(100, 6); err != nil || s != "héllo" {
		t.Errorf("ReadString = %q, %v", s, err)
	}

	before := b.Refreshes()
	if _, ok := mem.Grow(1); !ok {
		t.Fatal("grow failed")
	}
	if len(b.Uint8()) != 2*65536 {
		t.Errorf("view len = %d after grow", len(b.Uint8()))
	}
	if b.Refreshes() != before+1 {
		t.Error("grow did not refresh the view")
	}
	if s, _ := b.ReadString(100, 6); s != "héllo" {
		t.Error("contents lost across grow")
	}
}

package wasm_test

import (
	"bytes"
	"math"
	"testing"

	"github.com/wippyai/wbg-runtime/wasm"
)

func TestLEB128Unsigned(t *testing.T) {
	tests := []struct {
		encoded []byte
		value   uint32
	}{
		{[]byte{0x00}, 0},
		{[]byte{0x7f}, 127},
		{[]byte{0x80, 0x01}, 128},
		{[]byte{0xe5, 0x8e, 0x26}, 624485},
		{[]byte{0xff, 0xff, 0xff, 0xff, 0x0f}, math.MaxUint32},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		wasm.WriteLEB128u(&buf, tt.value)
		if !bytes.Equal(buf.Bytes(), tt.encoded) {
			t.Errorf("encode %d: got %x, want %x", tt.value, buf.Bytes(), tt.encoded)
		}
	}
}

func TestLEB128Signed(t *testing.T) {
	tests := []struct {
		encoded []byte
		value   int64
	}{
		{[]byte{0x00}, 0},
		{[]byte{0x7f}, -1},
		{[]byte{0x3f}, 63},
		{[]byte{0xc0, 0x00}, 64},
		{[]byte{0x40}, -64},
		{[]byte{0x80, 0x7f}, -128},
		{[]byte{0xff, 0x7e}, -129},
		{[]byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x80, 0x7f}, math.MinInt64},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		wasm.WriteLEB128s64(&buf, tt.value)
		if !bytes.Equal(buf.Bytes(), tt.encoded) {
			t.Errorf("encode %d: got %x, want %x", tt.value, buf.Bytes(), tt.encoded)
		}
		if tt.value >= math.MinInt32 && tt.value <= math.MaxInt32 {
			buf.Reset()
			wasm.WriteLEB128s(&buf, int32(tt.value))
			if !bytes.Equal(buf.Bytes(), tt.encoded) {
				t.Errorf("WriteLEB128s(%d) = %x, want %x", tt.value, buf.Bytes(), tt.encoded)
			}
		}
	}
}

func TestWriteFloats(t *testing.T) {
	var buf bytes.Buffer
	wasm.WriteFloat32(&buf, 1.5)
	wasm.WriteFloat64(&buf, -2)
	want := []byte{0x00, 0x00, 0xc0, 0x3f, 0, 0, 0, 0, 0, 0, 0x00, 0xc0}
	if !bytes.Equal(buf.Bytes(), want) {
		t.Errorf("got %x, want %x", buf.Bytes(), want)
	}
}

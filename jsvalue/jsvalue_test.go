package jsvalue

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/big"
	"testing"
)

func TestTypeOf(t *testing.T) {
	fn := NewFunc("f", func(context.Context, any, []any) (any, error) { return nil, nil })
	tests := []struct {
		v    any
		want string
	}{
		{Undefined{}, "undefined"},
		{nil, "undefined"},
		{Null{}, "object"},
		{true, "boolean"},
		{1.5, "number"},
		{7, "number"},
		{big.NewInt(3), "bigint"},
		{"s", "string"},
		{NewSymbol("x"), "symbol"},
		{fn, "function"},
		{NewObject(), "object"},
		{NewArray(), "object"},
		{NewError("Error", "boom"), "object"},
	}
	for _, tt := range tests {
		if got := TypeOf(tt.v); got != tt.want {
			t.Errorf("TypeOf(%#v) = %q, want %q", tt.v, got, tt.want)
		}
	}
}

func TestStrictAndLooseEquals(t *testing.T) {
	obj := NewObject()
	sym := NewSymbol("s")
	tests := []struct {
		name   string
		a, b   any
		strict bool
		loose  bool
	}{
		{"same number", 1.0, 1, true, true},
		{"nan", math.NaN(), math.NaN(), false, false},
		{"null undefined", Null{}, Undefined{}, false, true},
		{"number string", 1.0, "1", false, true},
		{"bool number", true, 1.0, false, true},
		{"bigint number", big.NewInt(2), 2.0, false, true},
		{"bigint string", big.NewInt(10), "10", false, true},
		{"object identity", obj, obj, true, true},
		{"distinct objects", obj, NewObject(), false, false},
		{"object vs primitive", obj, "[object Object]", false, false},
		{"symbol identity", sym, sym, true, true},
		{"distinct symbols", sym, NewSymbol("s"), false, false},
		{"null zero", Null{}, 0.0, false, false},
		{"empty string zero", "", 0.0, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StrictEquals(tt.a, tt.b); got != tt.strict {
				t.Errorf("StrictEquals = %v, want %v", got, tt.strict)
			}
			if got := LooseEquals(tt.a, tt.b); got != tt.loose {
				t.Errorf("LooseEquals = %v, want %v", got, tt.loose)
			}
		})
	}
}

func TestToNumber(t *testing.T) {
	tests := []struct {
		v    any
		want float64
	}{
		{Null{}, 0},
		{true, 1},
		{" 42 ", 42},
		{"0x10", 16},
		{"", 0},
		{"-Infinity", math.Inf(-1)},
		{NewArray(5.0), 5},
	}
	for _, tt := range tests {
		got, err := ToNumber(tt.v)
		if err != nil {
			t.Fatalf("ToNumber(%v): %v", tt.v, err)
		}
		if got != tt.want {
			t.Errorf("ToNumber(%#v) = %v, want %v", tt.v, got, tt.want)
		}
	}

	for _, v := range []any{Undefined{}, "abc", "1_000", "inf", "+infinity", "-infinity", "-Inf", "NaN", NewObject()} {
		got, err := ToNumber(v)
		if err != nil || !math.IsNaN(got) {
			t.Errorf("ToNumber(%#v) = %v, %v; want NaN", v, got, err)
		}
	}

	if _, err := ToNumber(big.NewInt(1)); err == nil {
		t.Error("BigInt conversion should be a TypeError")
	}
	var jsErr *Error
	if _, err := ToNumber(NewSymbol("x")); !errors.As(err, &jsErr) || jsErr.Name != "TypeError" {
		t.Errorf("Symbol conversion err = %v, want TypeError", err)
	}
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		f    float64
		want string
	}{
		{0, "0"},
		{math.Copysign(0, -1), "0"},
		{1, "1"},
		{-2.5, "-2.5"},
		{0.1, "0.1"},
		{1e21, "1e+21"},
		{1.5e-7, "1.5e-7"},
		{123456789012, "123456789012"},
		{math.NaN(), "NaN"},
		{math.Inf(-1), "-Infinity"},
	}
	for _, tt := range tests {
		if got := FormatNumber(tt.f); got != tt.want {
			t.Errorf("FormatNumber(%v) = %q, want %q", tt.f, got, tt.want)
		}
	}
}

func TestDebugString(t *testing.T) {
	named := NewFunc("onFrame", nil)
	anon := NewFunc("", nil)
	obj := ObjectOf("a", 1.0, "b", "x")
	err := &Error{Name: "TypeError", Message: "bad", Stack: "at f"}

	tests := []struct {
		v    any
		want string
	}{
		{1.0, "1"},
		{true, "true"},
		{Null{}, "null"},
		{Undefined{}, "undefined"},
		{"hi", `"hi"`},
		{NewSymbol("tag"), "Symbol(tag)"},
		{&Symbol{Anonymous: true}, "Symbol"},
		{named, "Function(onFrame)"},
		{anon, "Function"},
		{NewArray(1.0, "a", NewArray()), `[1, "a", []]`},
		{obj, `Object({"a":1,"b":"x"})`},
		{err, "TypeError: bad\nat f"},
		{&ArrayBuffer{}, "ArrayBuffer"},
	}
	for _, tt := range tests {
		if got := DebugString(tt.v); got != tt.want {
			t.Errorf("DebugString(%#v) = %q, want %q", tt.v, got, tt.want)
		}
	}
}

func TestStringify(t *testing.T) {
	fn := NewFunc("f", nil)
	obj := ObjectOf(
		"n", 1.5,
		"s", "a<b",
		"skip", Undefined{},
		"fn", fn,
		"arr", NewArray(Undefined{}, math.NaN(), Null{}, true),
	)
	got, ok, err := Stringify(obj)
	if err != nil || !ok {
		t.Fatalf("Stringify: %v %v", ok, err)
	}
	want := `{"n":1.5,"s":"a<b","arr":[null,null,null,true]}`
	if got != want {
		t.Errorf("Stringify = %s, want %s", got, want)
	}

	if _, ok, _ := Stringify(Undefined{}); ok {
		t.Error("Stringify(undefined) should be undefined")
	}
	if _, _, err := Stringify(big.NewInt(1)); err == nil {
		t.Error("Stringify(BigInt) should fail")
	}

	cyc := NewObject()
	cyc.Set("self", cyc)
	if _, _, err := Stringify(cyc); err == nil {
		t.Error("circular structure should fail")
	}

	shared := NewArray(1.0)
	twice := NewArray(shared, shared)
	if s, _, err := Stringify(twice); err != nil || s != "[[1],[1]]" {
		t.Errorf("repeated non-circular reference = %q, %v", s, err)
	}
}

func TestParse(t *testing.T) {
	v, err := Parse(`{"z":1,"a":[true,null,"s"],"m":{"k":2.5}}`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	obj, ok := v.(*Object)
	if !ok {
		t.Fatalf("Parse returned %T", v)
	}
	keys := obj.Keys()
	if len(keys) != 3 || keys[0] != "z" || keys[1] != "a" || keys[2] != "m" {
		t.Errorf("keys = %v, want insertion order", keys)
	}
	back, _, _ := Stringify(obj)
	if back != `{"z":1,"a":[true,null,"s"],"m":{"k":2.5}}` {
		t.Errorf("round trip = %s", back)
	}

	for _, bad := range []string{"{", "1 2", "[1,]"} {
		if _, err := Parse(bad); err == nil {
			t.Errorf("Parse(%q) should fail", bad)
		}
	}
}

func TestGetSetHas(t *testing.T) {
	obj := NewObject()
	if err := Set(obj, "k", 3); err != nil {
		t.Fatal(err)
	}
	v, err := Get(obj, "k")
	if err != nil || v != 3.0 {
		t.Fatalf("Get = %v, %v", v, err)
	}
	if has, _ := Has(obj, "k"); !has {
		t.Error("Has(k) = false")
	}
	if has, _ := Has(obj, "missing"); has {
		t.Error("Has(missing) = true")
	}
	if _, err := Has("str", "length"); err == nil {
		t.Error("in operator on a primitive should fail")
	}
	if _, err := Get(Undefined{}, "x"); err == nil {
		t.Error("reading from undefined should fail")
	}
	if err := Set(Null{}, "x", 1); err == nil {
		t.Error("writing to null should fail")
	}

	arr := NewArray("a", "b")
	if v, _ := Get(arr, 1.0); v != "b" {
		t.Errorf("arr[1] = %v", v)
	}
	if v, _ := Get(arr, "length"); v != 2.0 {
		t.Errorf("arr.length = %v", v)
	}
	if err := Set(arr, 3.0, "d"); err != nil {
		t.Fatal(err)
	}
	if len(arr.Elems) != 4 || arr.Elems[2] != (Undefined{}) {
		t.Errorf("sparse write = %#v", arr.Elems)
	}

	u8 := Uint8ArrayOf([]byte{1, 2, 3, 4})
	sub := u8.Subarray(1, -1)
	if v, _ := Get(sub, "length"); v != 2.0 {
		t.Errorf("subarray length = %v", v)
	}
	_ = Set(sub, 0.0, 9)
	if u8.Bytes()[1] != 9 {
		t.Error("subarray should share the buffer")
	}
}

func TestIteratorProtocol(t *testing.T) {
	ctx := context.Background()
	arr := NewArray(1.0, 2.0)
	fn, err := Get(arr, SymbolIterator)
	if err != nil {
		t.Fatal(err)
	}
	it, err := Call(ctx, fn, arr)
	if err != nil {
		t.Fatal(err)
	}
	next, _ := Get(it, "next")

	var got []any
	for {
		res, err := Call(ctx, next, it)
		if err != nil {
			t.Fatal(err)
		}
		done, _ := Get(res, "done")
		if done == true {
			break
		}
		v, _ := Get(res, "value")
		got = append(got, v)
	}
	if len(got) != 2 || got[0] != 1.0 || got[1] != 2.0 {
		t.Errorf("iterated %v", got)
	}

	if _, err := Call(ctx, "notfn", nil); err == nil {
		t.Error("calling a string should fail")
	}
}

type canvasStub struct{}

func (canvasStub) ClassName() string { return "HTMLCanvasElement" }
func (canvasStub) InstanceOf(class string) bool {
	return class == "HTMLCanvasElement" || class == "HTMLElement" || class == "Element"
}

func TestInstanceOf(t *testing.T) {
	if !InstanceOf(NewError("TypeError", ""), "Error") {
		t.Error("TypeError should be an Error")
	}
	if !InstanceOf(canvasStub{}, "Element") {
		t.Error("canvas should be an Element")
	}
	if InstanceOf(canvasStub{}, "Window") {
		t.Error("canvas is not a Window")
	}
	if InstanceOf(NewArray(), "Error") {
		t.Error("array is not an Error")
	}
	if !InstanceOf(Uint8ArrayOf(nil), "Uint8Array") {
		t.Error("Uint8Array check failed")
	}
}

func TestIsSafeInteger(t *testing.T) {
	for _, v := range []any{0, 1.0, float64(MaxSafeInteger), -float64(MaxSafeInteger)} {
		if !IsSafeInteger(v) {
			t.Errorf("IsSafeInteger(%v) = false", v)
		}
	}
	for _, v := range []any{1.5, float64(MaxSafeInteger + 1), math.NaN(), "1"} {
		if IsSafeInteger(v) {
			t.Errorf("IsSafeInteger(%v) = true", v)
		}
	}
}

func TestFromGoToGo(t *testing.T) {
	in := map[string]any{"b": []any{1, "x"}, "a": nil, "raw": []byte{7}}
	v := FromGo(in)
	obj := v.(*Object)
	if keys := obj.Keys(); keys[0] != "a" || keys[1] != "b" || keys[2] != "raw" {
		t.Errorf("keys = %v, want sorted", keys)
	}
	out := ToGo(v).(map[string]any)
	if out["a"] != nil {
		t.Errorf("a = %v", out["a"])
	}
	if list := out["b"].([]any); list[0] != 1.0 || list[1] != "x" {
		t.Errorf("b = %v", list)
	}
	if raw := out["raw"].([]byte); len(raw) != 1 || raw[0] != 7 {
		t.Errorf("raw = %v", raw)
	}
}

func TestThrowAndThrown(t *testing.T) {
	je := NewError("RangeError", "too big")
	if Throw(je) != error(je) {
		t.Error("Error values should be thrown as-is")
	}
	if v := Thrown(Throw(7)); v != 7.0 {
		t.Errorf("Thrown(Throw(7)) = %#v", v)
	}

	wrapped := fmt.Errorf("call failed: %w", Throw("str"))
	if v := Thrown(wrapped); v != "str" {
		t.Errorf("Thrown through wrapping = %#v", v)
	}

	plain := errors.New("io")
	v, ok := Thrown(plain).(*Error)
	if !ok || v.Message != "io" || v.Cause != plain {
		t.Errorf("Thrown(plain) = %#v", Thrown(plain))
	}
}

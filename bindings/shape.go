package bindings

import (
	"context"
	"math"
	"math/big"

	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/wbg-runtime/errors"
	"github.com/wippyai/wbg-runtime/heap"
	"github.com/wippyai/wbg-runtime/jsvalue"
)

// Param is how one logical argument is lowered to core wasm values.
type Param uint8

const (
	Ref      Param = iota + 1 // borrowed handle
	Own                       // handle released by the call
	I32                       // i32
	U32                       // i32 read as unsigned
	Bool                      // i32, nonzero is true
	F32                       // f32
	F64                       // f64
	I64                       // i64
	U64                       // i64 read as unsigned
	Str                       // (ptr, len) UTF-8 owned by the guest
	OwnStr                    // (ptr, len) UTF-8 freed after decoding
	Bytes                     // (ptr, len) copied out
	OptBytes                  // (ptr, len), ptr 0 is absent
	F32s                      // (ptr, len) float32 elements
	I32s                      // (ptr, len) int32 elements
	OptF64                    // (present, value)
)

var paramNames = [...]string{
	Ref: "ref", Own: "own", I32: "i32", U32: "u32", Bool: "bool", F32: "f32", F64: "f64",
	I64: "i64", U64: "u64", Str: "str", OwnStr: "own-str", Bytes: "bytes", OptBytes: "opt-bytes",
	F32s: "f32s", I32s: "i32s", OptF64: "opt-f64",
}

func (p Param) String() string {
	if int(p) < len(paramNames) && paramNames[p] != "" {
		return paramNames[p]
	}
	return "param?"
}

func (p Param) types() []api.ValueType {
	switch p {
	case F32:
		return []api.ValueType{api.ValueTypeF32}
	case F64:
		return []api.ValueType{api.ValueTypeF64}
	case I64, U64:
		return []api.ValueType{api.ValueTypeI64}
	case Str, OwnStr, Bytes, OptBytes, F32s, I32s:
		return []api.ValueType{api.ValueTypeI32, api.ValueTypeI32}
	case OptF64:
		return []api.ValueType{api.ValueTypeI32, api.ValueTypeF64}
	}
	return []api.ValueType{api.ValueTypeI32}
}

// Result is how a thunk's return value is raised back to the guest.
type Result uint8

const (
	Void       Result = iota
	Handle            // i32 handle, allocated for the guest
	OptHandle         // i32 handle, 0 when nullish
	RetI32            // i32
	RetU32            // i32 from an unsigned number
	RetBool           // i32 0 or 1
	RetOptBool        // i32 0 or 1, 0xFFFFFF when nullish
	RetF32            // f32
	RetF64            // f64
	RetStr            // retptr: (ptr, len)
	RetOptStr         // retptr: (ptr, len), ptr 0 unless a string
	RetOptF64         // retptr: present at +0, f64 at +8
	RetOptI64         // retptr: present at +0, i64 at +8
)

// retptr reports whether the result is written through a leading pointer.
func (r Result) retptr() bool {
	switch r {
	case RetStr, RetOptStr, RetOptF64, RetOptI64:
		return true
	}
	return false
}

func (r Result) types() []api.ValueType {
	switch r {
	case Void, RetStr, RetOptStr, RetOptF64, RetOptI64:
		return nil
	case RetF32:
		return []api.ValueType{api.ValueTypeF32}
	case RetF64:
		return []api.ValueType{api.ValueTypeF64}
	}
	return []api.ValueType{api.ValueTypeI32}
}

// Shape is the lowered signature of a def.
type Shape struct {
	Params []Param
	Result Result
}

// Sig builds a Shape.
func Sig(r Result, params ...Param) Shape {
	return Shape{Params: params, Result: r}
}

// Types returns the core wasm signature.
func (s Shape) Types() (params, results []api.ValueType) {
	if s.Result.retptr() {
		params = append(params, api.ValueTypeI32)
	}
	for _, p := range s.Params {
		params = append(params, p.types()...)
	}
	return params, s.Result.types()
}

// Matches reports whether the shape lowers to exactly params and results.
func (s Shape) Matches(params, results []api.ValueType) bool {
	p, r := s.Types()
	return sameTypes(p, params) && sameTypes(r, results)
}

func sameTypes(a, b []api.ValueType) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Args are decoded logical arguments. Accessors return the zero value when
// the argument has a different type.
type Args []any

func (a Args) Val(i int) any {
	if i < len(a) {
		return a[i]
	}
	return jsvalue.Undefined{}
}

func (a Args) Str(i int) string {
	s, _ := a.Val(i).(string)
	return s
}

func (a Args) I32(i int) int32 {
	v, _ := a.Val(i).(int32)
	return v
}

func (a Args) U32(i int) uint32 {
	v, _ := a.Val(i).(uint32)
	return v
}

func (a Args) Bool(i int) bool {
	v, _ := a.Val(i).(bool)
	return v
}

func (a Args) F32(i int) float32 {
	v, _ := a.Val(i).(float32)
	return v
}

func (a Args) F64(i int) float64 {
	v, _ := a.Val(i).(float64)
	return v
}

func (a Args) I64(i int) int64 {
	v, _ := a.Val(i).(int64)
	return v
}

func (a Args) U64(i int) uint64 {
	v, _ := a.Val(i).(uint64)
	return v
}

func (a Args) Bytes(i int) []byte {
	v, _ := a.Val(i).([]byte)
	return v
}

func (a Args) F32s(i int) []float32 {
	v, _ := a.Val(i).([]float32)
	return v
}

func (a Args) I32s(i int) []int32 {
	v, _ := a.Val(i).([]int32)
	return v
}

func (a Args) Maybe(i int) (float64, bool) {
	v, ok := a.Val(i).(*float64)
	return deref(v), ok && v != nil
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

// As asserts v to T or returns a TypeError naming the expected class.
func As[T any](v any, class string) (T, error) {
	t, ok := v.(T)
	if !ok {
		return t, jsvalue.NewTypeError("expected " + class + ", got " + jsvalue.DebugString(v))
	}
	return t, nil
}

// Opt is As that maps null and undefined to the zero T.
func Opt[T any](v any, class string) (T, error) {
	if jsvalue.IsNullish(v) {
		var zero T
		return zero, nil
	}
	return As[T](v, class)
}

// decode lowers the wasm stack into Args. It returns the retptr, if any.
func decode(ctx context.Context, env *Env, s Shape, stack []uint64) (Args, uint32, error) {
	var retptr uint32
	i := 0
	if s.Result.retptr() {
		retptr = api.DecodeU32(stack[0])
		i++
	}
	args := make(Args, len(s.Params))
	for n, p := range s.Params {
		switch p {
		case Ref:
			args[n] = env.Heap.Get(heap.Handle(api.DecodeU32(stack[i])))
		case Own:
			args[n] = env.Heap.Take(heap.Handle(api.DecodeU32(stack[i])))
		case I32:
			args[n] = api.DecodeI32(stack[i])
		case U32:
			args[n] = api.DecodeU32(stack[i])
		case Bool:
			args[n] = api.DecodeU32(stack[i]) != 0
		case F32:
			args[n] = api.DecodeF32(stack[i])
		case F64:
			args[n] = api.DecodeF64(stack[i])
		case I64:
			args[n] = int64(stack[i])
		case U64:
			args[n] = stack[i]
		case OptF64:
			if api.DecodeU32(stack[i]) != 0 {
				v := api.DecodeF64(stack[i+1])
				args[n] = &v
			} else {
				args[n] = (*float64)(nil)
			}
		default:
			ptr, length := api.DecodeU32(stack[i]), api.DecodeU32(stack[i+1])
			v, err := decodeSlice(ctx, env, p, ptr, length)
			if err != nil {
				return nil, 0, err
			}
			args[n] = v
		}
		i += len(p.types())
	}
	return args, retptr, nil
}

func decodeSlice(ctx context.Context, env *Env, p Param, ptr, length uint32) (any, error) {
	switch p {
	case Str:
		return env.Memory.ReadString(ptr, length)
	case OwnStr:
		return env.Memory.ReadOwnedString(ctx, env.Alloc, ptr, length)
	case Bytes:
		return env.Memory.CopyBytes(ptr, length)
	case OptBytes:
		if ptr == 0 {
			return []byte(nil), nil
		}
		return env.Memory.CopyBytes(ptr, length)
	case F32s:
		return env.Memory.ReadFloat32s(ptr, length)
	case I32s:
		return env.Memory.ReadInt32s(ptr, length)
	}
	return nil, errors.ContractViolation(errors.PhaseBind, "unknown param kind %d", p)
}

// encode raises v into the result slot or through retptr.
func encode(ctx context.Context, env *Env, r Result, v any, retptr uint32, stack []uint64) error {
	v = jsvalue.Normalize(v)
	switch r {
	case Void:
		return nil
	case Handle:
		stack[0] = api.EncodeU32(uint32(env.Heap.Alloc(v)))
	case OptHandle:
		if jsvalue.IsNullish(v) {
			stack[0] = 0
		} else {
			stack[0] = api.EncodeU32(uint32(env.Heap.Alloc(v)))
		}
	case RetI32:
		stack[0] = api.EncodeI32(toInt32(v))
	case RetU32:
		stack[0] = api.EncodeU32(uint32(toInt32(v)))
	case RetBool:
		stack[0] = boolWord(jsvalue.Truthy(v))
	case RetOptBool:
		if jsvalue.IsNullish(v) {
			stack[0] = 0xFFFFFF
		} else {
			stack[0] = boolWord(jsvalue.Truthy(v))
		}
	case RetF32:
		f, _ := jsvalue.ToNumber(v)
		stack[0] = api.EncodeF32(float32(f))
	case RetF64:
		f, _ := jsvalue.ToNumber(v)
		stack[0] = api.EncodeF64(f)
	case RetStr:
		return env.Memory.WriteStringResult(ctx, env.Alloc, retptr, jsvalue.ToString(v), true)
	case RetOptStr:
		s, ok := v.(string)
		return env.Memory.WriteStringResult(ctx, env.Alloc, retptr, s, ok)
	case RetOptF64:
		f, ok := v.(float64)
		return env.Memory.WriteOptionF64(retptr, f, ok)
	case RetOptI64:
		b, ok := v.(*big.Int)
		var n int64
		if ok {
			n = b.Int64()
		}
		return env.Memory.WriteOptionI64(retptr, n, ok)
	}
	return nil
}

// toInt32 applies ToInt32: NaN and infinities become 0, other numbers
// wrap modulo 2^32.
func toInt32(v any) int32 {
	if b, ok := v.(bool); ok {
		if b {
			return 1
		}
		return 0
	}
	f, err := jsvalue.ToNumber(v)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return int32(uint32(int64(math.Mod(math.Trunc(f), 1<<32))))
}

func boolWord(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

package runtime

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strings"
	"sync"

	"go.bytecodealliance.org/wit"

	"github.com/wippyai/wbg-runtime/errors"
	"github.com/wippyai/wbg-runtime/memory"
)

// Signature is the WIT type of an exported function.
type Signature struct {
	Params  []wit.Type
	Results []wit.Type
}

var (
	sigCache sync.Map // string -> *Signature

	funcPattern = regexp.MustCompile(`^\s*(?:export\s+)?(?:[a-zA-Z_][a-zA-Z0-9_-]*\s*:\s*)?func\s*\(([^)]*)\)(?:\s*->\s*([^;]+))?;?\s*$`)
)

// ParseSignature parses WIT function text such as
// "func(a: u32, name: string) -> f64". A leading "name:" is accepted.
func ParseSignature(text string) (*Signature, error) {
	if v, ok := sigCache.Load(text); ok {
		return v.(*Signature), nil
	}
	match := funcPattern.FindStringSubmatch(text)
	if match == nil {
		return nil, errors.InvalidInput(errors.PhaseRuntime, "not a WIT function signature: "+text)
	}

	sig := &Signature{}
	for _, p := range splitParams(strings.TrimSpace(match[1])) {
		typStr := p
		if idx := strings.LastIndex(p, ":"); idx != -1 {
			typStr = strings.TrimSpace(p[idx+1:])
		}
		t, err := parseWitType(typStr)
		if err != nil {
			return nil, errors.Wrap(errors.PhaseRuntime, errors.KindInvalidData, err, "parse param type "+typStr)
		}
		sig.Params = append(sig.Params, t)
	}

	resultStr := strings.TrimSpace(match[2])
	if resultStr != "" && resultStr != "()" {
		t, err := parseWitType(resultStr)
		if err != nil {
			return nil, errors.Wrap(errors.PhaseRuntime, errors.KindInvalidData, err, "parse result type "+resultStr)
		}
		sig.Results = []wit.Type{t}
	}

	sigCache.Store(text, sig)
	return sig, nil
}

// splitParams splits parameter list, handling nested angle brackets.
func splitParams(s string) []string {
	var result []string
	var current strings.Builder
	depth := 0

	for _, ch := range s {
		switch ch {
		case '(', '<':
			depth++
			current.WriteRune(ch)
		case ')', '>':
			depth--
			current.WriteRune(ch)
		case ',':
			if depth == 0 {
				if str := strings.TrimSpace(current.String()); str != "" {
					result = append(result, str)
				}
				current.Reset()
			} else {
				current.WriteRune(ch)
			}
		default:
			current.WriteRune(ch)
		}
	}

	if str := strings.TrimSpace(current.String()); str != "" {
		result = append(result, str)
	}

	return result
}

func parseWitType(s string) (wit.Type, error) {
	s = strings.TrimSpace(s)
	return wit.ParseType(s)
}

// CallTyped calls an export through its WIT signature. Parameters and
// results are primitives or strings; a string result is returned through
// a retptr slot as the generator does.
func (inst *Instance) CallTyped(ctx context.Context, name, signature string, args ...any) (any, error) {
	sig, err := ParseSignature(signature)
	if err != nil {
		return nil, err
	}
	if len(args) != len(sig.Params) {
		return nil, errors.New(errors.PhaseRuntime, errors.KindInvalidInput).
			Path(name).
			Detail("want %d arguments, got %d", len(sig.Params), len(args)).
			Build()
	}
	if len(sig.Results) > 1 {
		return nil, errors.Unsupported(errors.PhaseRuntime, "multiple results")
	}

	env := inst.env
	var raw []uint64
	var retptr uint32
	stringResult := len(sig.Results) == 1 && isString(sig.Results[0])
	if stringResult {
		if env.Alloc == nil {
			return nil, errors.NotInitialized(errors.PhaseRuntime, memory.ExportMalloc)
		}
		if retptr, err = env.Alloc.Malloc(ctx, 8, 4); err != nil {
			return nil, err
		}
		raw = append(raw, uint64(retptr))
	}

	for i, t := range sig.Params {
		lowered, err := inst.lower(ctx, t, args[i])
		if err != nil {
			return nil, errors.Wrap(errors.PhaseRuntime, errors.KindTypeError, err, name)
		}
		raw = append(raw, lowered...)
	}

	res, err := inst.Call(ctx, name, raw...)
	if err != nil {
		return nil, err
	}

	switch {
	case stringResult:
		dv := env.Memory.DataView()
		ptr, n := uint32(dv.GetInt32(retptr)), uint32(dv.GetInt32(retptr+4))
		if err := env.Alloc.Free(ctx, retptr, 8, 4); err != nil {
			return nil, err
		}
		return env.Memory.ReadOwnedString(ctx, env.Alloc, ptr, n)
	case len(sig.Results) == 0:
		return nil, nil
	case len(res) == 0:
		return nil, errors.ContractViolation(errors.PhaseRuntime, "%s returned no value", name)
	}
	return lift(sig.Results[0], res[0])
}

func isString(t wit.Type) bool {
	_, ok := t.(wit.String)
	return ok
}

func (inst *Instance) lower(ctx context.Context, t wit.Type, v any) ([]uint64, error) {
	if isString(t) {
		s, ok := v.(string)
		if !ok {
			return nil, errors.TypeError(errors.PhaseRuntime, "string", v)
		}
		if inst.env.Alloc == nil {
			return nil, errors.NotInitialized(errors.PhaseRuntime, memory.ExportMalloc)
		}
		ptr, n, err := inst.env.Memory.PassString(ctx, inst.env.Alloc, s)
		if err != nil {
			return nil, err
		}
		return []uint64{uint64(ptr), uint64(n)}, nil
	}

	if b, ok := v.(bool); ok {
		if _, isBool := t.(wit.Bool); !isBool {
			return nil, errors.TypeError(errors.PhaseRuntime, "number", v)
		}
		if b {
			return []uint64{1}, nil
		}
		return []uint64{0}, nil
	}
	f, ok := number(v)
	if !ok {
		return nil, errors.TypeError(errors.PhaseRuntime, "number", v)
	}
	switch t.(type) {
	case wit.S8, wit.S16, wit.S32, wit.U8, wit.U16, wit.U32, wit.Char, wit.Bool:
		return []uint64{uint64(uint32(int64(f)))}, nil
	case wit.S64, wit.U64:
		switch n := v.(type) {
		case int64:
			return []uint64{uint64(n)}, nil
		case uint64:
			return []uint64{n}, nil
		}
		return []uint64{uint64(int64(f))}, nil
	case wit.F32:
		return []uint64{uint64(math.Float32bits(float32(f)))}, nil
	case wit.F64:
		return []uint64{math.Float64bits(f)}, nil
	}
	return nil, errors.Unsupported(errors.PhaseRuntime, fmt.Sprintf("WIT type %T", t))
}

func lift(t wit.Type, raw uint64) (any, error) {
	switch t.(type) {
	case wit.Bool:
		return uint32(raw) != 0, nil
	case wit.S8:
		return int8(raw), nil
	case wit.S16:
		return int16(raw), nil
	case wit.S32:
		return int32(raw), nil
	case wit.U8:
		return uint8(raw), nil
	case wit.U16:
		return uint16(raw), nil
	case wit.U32:
		return uint32(raw), nil
	case wit.Char:
		return rune(uint32(raw)), nil
	case wit.S64:
		return int64(raw), nil
	case wit.U64:
		return raw, nil
	case wit.F32:
		return math.Float32frombits(uint32(raw)), nil
	case wit.F64:
		return math.Float64frombits(raw), nil
	}
	return nil, errors.Unsupported(errors.PhaseRuntime, fmt.Sprintf("WIT type %T", t))
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

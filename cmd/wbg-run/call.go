package main

import (
	"fmt"
	"math"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/tetratelabs/wazero/api"
	"go.bytecodealliance.org/wit"

	"github.com/wippyai/wbg-runtime/runtime"
)

var callCmd = &cobra.Command{
	Use:   "call <module.wasm|url> <export> [args...]",
	Short: "Start a guest and call one export",
	Long: `call instantiates the guest, runs __wbindgen_start and calls an export.

With --wit the arguments and result follow a WIT function signature and
strings are passed through guest memory. Without it the arguments are
parsed against the export's core wasm parameter types.`,
	Args: cobra.MinimumNArgs(2),
	RunE: callExport,
}

func init() {
	callCmd.Flags().String("wit", "", `WIT signature, e.g. "func(name: string) -> string"`)
}

func callExport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, log, err := setup(nil)
	if err != nil {
		return err
	}
	defer log.Sync()

	rt, err := runtime.New(ctx, cfg.Runtime(log))
	if err != nil {
		return err
	}
	defer rt.Close(ctx)

	inst, err := rt.Init(ctx, args[0])
	if err != nil {
		return err
	}
	defer inst.Close(ctx)

	name, raw := args[1], args[2:]
	out := cmd.OutOrStdout()

	if sigText, _ := cmd.Flags().GetString("wit"); sigText != "" {
		sig, err := runtime.ParseSignature(sigText)
		if err != nil {
			return err
		}
		if len(raw) != len(sig.Params) {
			return fmt.Errorf("%s takes %d arguments, got %d", name, len(sig.Params), len(raw))
		}
		typed := make([]any, len(raw))
		for i, s := range raw {
			if typed[i], err = convertArg(s, sig.Params[i]); err != nil {
				return fmt.Errorf("argument %d: %w", i, err)
			}
		}
		result, err := inst.CallTyped(ctx, name, sigText, typed...)
		if err != nil {
			return err
		}
		if result != nil {
			fmt.Fprintln(out, result)
		}
		return nil
	}

	params, results, ok := exportTypes(inst.Module(), name)
	if !ok {
		return fmt.Errorf("no exported function %q", name)
	}
	if len(raw) != len(params) {
		return fmt.Errorf("%s takes %d arguments, got %d", name, len(params), len(raw))
	}
	values := make([]uint64, len(raw))
	for i, s := range raw {
		if values[i], err = encodeValue(s, params[i]); err != nil {
			return fmt.Errorf("argument %d: %w", i, err)
		}
	}
	res, err := inst.Call(ctx, name, values...)
	if err != nil {
		return err
	}
	for i, v := range res {
		fmt.Fprintln(out, decodeValue(v, results[i]))
	}
	return nil
}

func exportTypes(mod *runtime.Module, name string) (params, results []api.ValueType, ok bool) {
	for _, e := range mod.Exports() {
		if e.Name == name {
			return e.Params, e.Results, true
		}
	}
	return nil, nil, false
}

// convertArg parses a command line argument as WIT type t.
func convertArg(value string, t wit.Type) (any, error) {
	switch t.(type) {
	case wit.String:
		return value, nil
	case wit.Char:
		r := []rune(value)
		if len(r) != 1 {
			return nil, fmt.Errorf("char wants one character, got %q", value)
		}
		return uint32(r[0]), nil
	case wit.U8, wit.U16, wit.U32:
		v, err := strconv.ParseUint(value, 0, 32)
		return uint32(v), err
	case wit.S8, wit.S16, wit.S32:
		v, err := strconv.ParseInt(value, 0, 32)
		return int32(v), err
	case wit.U64:
		return strconv.ParseUint(value, 0, 64)
	case wit.S64:
		return strconv.ParseInt(value, 0, 64)
	case wit.F32:
		v, err := strconv.ParseFloat(value, 32)
		return float32(v), err
	case wit.F64:
		return strconv.ParseFloat(value, 64)
	case wit.Bool:
		return strconv.ParseBool(value)
	}
	return nil, fmt.Errorf("unsupported WIT type %T", t)
}

func encodeValue(s string, t api.ValueType) (uint64, error) {
	switch t {
	case api.ValueTypeI32:
		v, err := strconv.ParseInt(s, 0, 64)
		if err != nil {
			return 0, err
		}
		if v < math.MinInt32 || v > math.MaxUint32 {
			return 0, fmt.Errorf("%s does not fit i32", s)
		}
		return api.EncodeI32(int32(v)), nil
	case api.ValueTypeI64:
		v, err := strconv.ParseInt(s, 0, 64)
		return api.EncodeI64(v), err
	case api.ValueTypeF32:
		v, err := strconv.ParseFloat(s, 32)
		return api.EncodeF32(float32(v)), err
	case api.ValueTypeF64:
		v, err := strconv.ParseFloat(s, 64)
		return api.EncodeF64(v), err
	}
	return 0, fmt.Errorf("cannot pass %s from the command line", api.ValueTypeName(t))
}

func decodeValue(v uint64, t api.ValueType) string {
	switch t {
	case api.ValueTypeI32:
		return strconv.FormatInt(int64(api.DecodeI32(v)), 10)
	case api.ValueTypeI64:
		return strconv.FormatInt(int64(v), 10)
	case api.ValueTypeF32:
		return strconv.FormatFloat(float64(api.DecodeF32(v)), 'g', -1, 32)
	case api.ValueTypeF64:
		return strconv.FormatFloat(api.DecodeF64(v), 'g', -1, 64)
	}
	return fmt.Sprintf("0x%x", v)
}

package runtime

import (
	"context"
	"sort"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/wbg-runtime/bindings"
	"github.com/wippyai/wbg-runtime/errors"
)

// Module is a compiled guest with its wbg imports resolved.
type Module struct {
	runtime  *Runtime
	compiled wazero.CompiledModule
	plan     *bindings.Plan
	name     string
}

func (r *Runtime) compile(ctx context.Context, name string, wasm []byte) (*Module, error) {
	compiled, err := r.wz.CompileModule(ctx, wasm)
	if err != nil {
		return nil, errors.Load("compile "+name, err)
	}
	return &Module{
		runtime:  r,
		compiled: compiled,
		plan:     r.cat.Plan(compiled),
		name:     name,
	}, nil
}

// Name returns the module name derived from its source.
func (m *Module) Name() string { return m.name }

// Plan returns the resolution of the wbg imports.
func (m *Module) Plan() *bindings.Plan { return m.plan }

// Missing lists every unresolved import: wbg imports the catalog cannot
// serve and other imports no registered host provides.
func (m *Module) Missing() []string {
	missing := append([]string(nil), m.plan.Missing()...)
	for _, fn := range m.compiled.ImportedFunctions() {
		module, name, ok := fn.Import()
		if !ok || module == bindings.Namespace || m.runtime.hosts.Has(module, name) {
			continue
		}
		missing = append(missing, module+"#"+name)
	}
	return missing
}

// Check returns a MissingImportsError when Missing is not empty.
func (m *Module) Check() error {
	if missing := m.Missing(); len(missing) > 0 {
		return errors.NewMissingImportsError(missing)
	}
	return nil
}

// Export describes an exported function.
type Export struct {
	Name    string
	Params  []api.ValueType
	Results []api.ValueType
}

// Exports returns the exported functions, sorted by name.
func (m *Module) Exports() []Export {
	defs := m.compiled.ExportedFunctions()
	out := make([]Export, 0, len(defs))
	for name, def := range defs {
		out = append(out, Export{Name: name, Params: def.ParamTypes(), Results: def.ResultTypes()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Close releases the compiled code.
func (m *Module) Close(ctx context.Context) error {
	return m.compiled.Close(ctx)
}

package bindings

import (
	"context"
	"sort"
	"strings"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/wbg-runtime/errors"
)

// Namespace is the import module the generator emits for host functions.
const Namespace = "wbg"

// Plan is the resolution of one guest's imports from Namespace.
type Plan struct {
	bindings map[string]*Binding
	missing  []string
}

// Plan resolves every Namespace import of compiled against the catalog.
// Imports from other modules are ignored.
func (c *Catalog) Plan(compiled wazero.CompiledModule) *Plan {
	p := &Plan{bindings: make(map[string]*Binding)}
	for _, fn := range compiled.ImportedFunctions() {
		module, name, ok := fn.Import()
		if !ok || module != Namespace {
			continue
		}
		if b := c.Resolve(name, fn.ParamTypes(), fn.ResultTypes()); b != nil {
			p.bindings[name] = b
			continue
		}
		p.missing = append(p.missing, module+"#"+name+signature(fn.ParamTypes(), fn.ResultTypes()))
	}
	return p
}

// Missing lists unresolved imports as module#name(params)->(results).
func (p *Plan) Missing() []string { return p.missing }

// Err returns a MissingImportsError when any import is unresolved.
func (p *Plan) Err() error {
	if len(p.missing) == 0 {
		return nil
	}
	return errors.NewMissingImportsError(p.missing)
}

// Len returns the number of resolved imports.
func (p *Plan) Len() int { return len(p.bindings) }

// Binding returns the binding of a full import name.
func (p *Plan) Binding(importName string) *Binding { return p.bindings[importName] }

// Groups counts resolved imports per def group.
func (p *Plan) Groups() map[string]int {
	out := make(map[string]int)
	for _, b := range p.bindings {
		out[b.defs[0].Group]++
	}
	return out
}

// Instantiate builds the Namespace host module into rt, replacing a host
// module of the same name left by a previous guest.
func (p *Plan) Instantiate(ctx context.Context, rt wazero.Runtime) (api.Module, error) {
	if err := p.Err(); err != nil {
		return nil, err
	}
	if old := rt.Module(Namespace); old != nil {
		if err := old.Close(ctx); err != nil {
			return nil, errors.Registration(errors.PhaseBind, Namespace, "close", err)
		}
	}

	names := make([]string, 0, len(p.bindings))
	for name := range p.bindings {
		names = append(names, name)
	}
	sort.Strings(names)

	builder := rt.NewHostModuleBuilder(Namespace)
	for _, name := range names {
		b := p.bindings[name]
		builder.NewFunctionBuilder().
			WithGoModuleFunction(b.Handler(), b.params, b.results).
			WithName(name).
			Export(name)
	}
	mod, err := builder.Instantiate(ctx)
	if err != nil {
		return nil, errors.Registration(errors.PhaseBind, Namespace, "instantiate", err)
	}
	return mod, nil
}

// Link resolves compiled's imports against c and instantiates the host
// module into rt.
func Link(ctx context.Context, rt wazero.Runtime, compiled wazero.CompiledModule, c *Catalog) (api.Module, error) {
	return c.Plan(compiled).Instantiate(ctx, rt)
}

func signature(params, results []api.ValueType) string {
	var sb strings.Builder
	sb.WriteByte('(')
	for i, t := range params {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(api.ValueTypeName(t))
	}
	sb.WriteString(")->(")
	for i, t := range results {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(api.ValueTypeName(t))
	}
	sb.WriteByte(')')
	return sb.String()
}

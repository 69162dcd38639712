package bindings

import (
	"context"
	"sort"
	"sync"

	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/wbg-runtime/errors"
	"github.com/wippyai/wbg-runtime/heap"
	"github.com/wippyai/wbg-runtime/jsvalue"
)

// Thunk implements one host function over decoded arguments.
type Thunk func(ctx context.Context, env *Env, args Args) (any, error)

// Def defines a host function.
type Def struct {
	// Name is the import base name, without the generator's hash suffix.
	Name  string
	Shape Shape
	// Catch turns errors into guest exceptions instead of traps.
	Catch bool
	// Recv restricts the def to receivers of this class when several defs
	// share a name and signature. Empty matches any receiver.
	Recv  string
	Fn    Thunk
	Group string
}

// Group is a set of defs installed together, one per host capability.
type Group struct {
	Name   string
	Define func(c *Catalog)
}

// Catalog holds defs by base name.
// Thread-safe.
type Catalog struct {
	defs    map[string][]*Def
	aliases map[string]string
	group   string
	mu      sync.RWMutex
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		defs:    make(map[string][]*Def),
		aliases: make(map[string]string),
	}
}

// Install runs each group's Define, tagging the defs with the group name.
func (c *Catalog) Install(groups ...Group) *Catalog {
	for _, g := range groups {
		c.mu.Lock()
		c.group = g.Name
		c.mu.Unlock()
		g.Define(c)
	}
	c.mu.Lock()
	c.group = ""
	c.mu.Unlock()
	return c
}

// Define registers d. A def with the same name, wasm signature and
// receiver class is replaced.
func (c *Catalog) Define(d *Def) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if d.Group == "" {
		d.Group = c.group
	}
	list := c.defs[d.Name]
	for i, old := range list {
		if old.Recv == d.Recv && sameShape(old.Shape, d.Shape) {
			list[i] = d
			return
		}
	}
	c.defs[d.Name] = append(list, d)
}

// Func defines a non-catching def.
func (c *Catalog) Func(name string, s Shape, fn Thunk) {
	c.Define(&Def{Name: name, Shape: s, Fn: fn})
}

// Catch defines a catching def.
func (c *Catalog) Catch(name string, s Shape, fn Thunk) {
	c.Define(&Def{Name: name, Shape: s, Catch: true, Fn: fn})
}

// Method defines a def bound to receivers of class.
func (c *Catalog) Method(class, name string, s Shape, catch bool, fn Thunk) {
	c.Define(&Def{Name: name, Shape: s, Catch: catch, Recv: class, Fn: fn})
}

// Alias resolves the full import name to the def base name target.
func (c *Catalog) Alias(importName, target string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.aliases[importName] = target
}

// Names returns the defined base names, sorted.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.defs))
	for name := range c.defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Defs returns the defs registered under a base name.
func (c *Catalog) Defs(name string) []*Def {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]*Def(nil), c.defs[name]...)
}

// Len returns the number of defs.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	n := 0
	for _, list := range c.defs {
		n += len(list)
	}
	return n
}

// Resolve finds the defs serving an import with the given wasm signature.
// It returns nil when none match.
func (c *Catalog) Resolve(importName string, params, results []api.ValueType) *Binding {
	c.mu.RLock()
	defer c.mu.RUnlock()

	name, ok := c.aliases[importName]
	if !ok {
		name = errors.StripHash(importName)
	}
	var match []*Def
	for _, d := range c.defs[name] {
		if d.Shape.Matches(params, results) {
			match = append(match, d)
		}
	}
	if len(match) == 0 {
		return nil
	}
	// Receiver-specific defs are tried before the fallback.
	sort.SliceStable(match, func(i, j int) bool {
		return match[i].Recv != "" && match[j].Recv == ""
	})
	return &Binding{Import: importName, defs: match, params: params, results: results}
}

func sameShape(a, b Shape) bool {
	ap, ar := a.Types()
	bp, br := b.Types()
	return sameTypes(ap, bp) && sameTypes(ar, br)
}

// Binding is an import resolved to one or more defs.
type Binding struct {
	Import  string
	defs    []*Def
	params  []api.ValueType
	results []api.ValueType
}

// Defs returns the candidate defs, receiver-specific first.
func (b *Binding) Defs() []*Def { return b.defs }

// Types returns the wasm signature of the import.
func (b *Binding) Types() (params, results []api.ValueType) { return b.params, b.results }

// pick selects the def for the receiver on the stack.
func (b *Binding) pick(env *Env, stack []uint64) *Def {
	if len(b.defs) == 1 {
		return b.defs[0]
	}
	first := b.defs[0].Shape
	if len(first.Params) == 0 || first.Params[0] != Ref {
		return b.defs[len(b.defs)-1]
	}
	i := 0
	if first.Result.retptr() {
		i = 1
	}
	recv, ok := env.Heap.Lookup(heap.Handle(api.DecodeU32(stack[i])))
	if !ok {
		return b.defs[len(b.defs)-1]
	}
	for _, d := range b.defs {
		if d.Recv == "" || jsvalue.InstanceOf(recv, d.Recv) {
			return d
		}
	}
	return b.defs[len(b.defs)-1]
}

// Handler returns the wazero host function for the binding.
func (b *Binding) Handler() api.GoModuleFunc {
	return func(ctx context.Context, _ api.Module, stack []uint64) {
		env := EnvFrom(ctx)
		if env == nil {
			panic(errors.NotInitialized(errors.PhaseBind, "bindings env for "+b.Import))
		}
		d := b.pick(env, stack)
		if err := invoke(ctx, env, d, stack); err != nil {
			panic(err)
		}
	}
}

// invoke runs d over the stack. A returned error traps the guest.
func invoke(ctx context.Context, env *Env, d *Def, stack []uint64) error {
	args, retptr, err := decode(ctx, env, d.Shape, stack)
	if err == nil {
		var res any
		res, err = d.Fn(ctx, env, args)
		if err == nil {
			err = encode(ctx, env, d.Shape.Result, res, retptr, stack)
		}
	}
	if err == nil {
		return nil
	}
	if !d.Catch {
		return errors.Wrap(errors.PhaseHost, errors.KindException, err, d.Name)
	}
	for i := range d.Shape.Result.types() {
		stack[i] = 0
	}
	env.logger().Debug("host exception", zap.String("def", d.Name), zap.Error(err))
	return env.Throw(ctx, err)
}

package runtime

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/tetratelabs/wazero"

	"github.com/wippyai/wbg-runtime/bindings"
	"github.com/wippyai/wbg-runtime/errors"
)

// Host is the interface for struct-based host modules.
// All exported methods (except Namespace) are registered as host functions.
type Host interface {
	// Namespace returns the import module name (e.g., "env").
	Namespace() string
}

// ExplicitRegistrar allows hosts to provide exact import names when
// automatic PascalCase-to-kebab-case conversion doesn't apply
// (e.g., "emscripten_get_now").
type ExplicitRegistrar interface {
	Register() map[string]any
}

// HostRegistry holds host functions for import modules other than the
// wbg namespace.
type HostRegistry struct {
	funcs map[string]map[string]any
	bound map[string]bool
	mu    sync.RWMutex
}

func NewHostRegistry() *HostRegistry {
	return &HostRegistry{
		funcs: make(map[string]map[string]any),
		bound: make(map[string]bool),
	}
}

func (r *HostRegistry) RegisterHost(h Host) error {
	ns := h.Namespace()
	if err := checkNamespace(ns); err != nil {
		return err
	}

	if er, ok := h.(ExplicitRegistrar); ok {
		for name, fn := range er.Register() {
			if err := r.RegisterFunc(ns, name, fn); err != nil {
				return err
			}
		}
		return nil
	}

	rv := reflect.ValueOf(h)
	rt := rv.Type()
	for i := 0; i < rt.NumMethod(); i++ {
		method := rt.Method(i)
		if !method.IsExported() || method.Name == "Namespace" {
			continue
		}
		if err := r.RegisterFunc(ns, toKebabCase(method.Name), rv.Method(i).Interface()); err != nil {
			return err
		}
	}
	return nil
}

func (r *HostRegistry) RegisterFunc(namespace, name string, fn any) error {
	if err := checkNamespace(namespace); err != nil {
		return err
	}
	if name == "" {
		return errors.InvalidInput(errors.PhaseHost, "function name cannot be empty")
	}

	rv := reflect.ValueOf(fn)
	if rv.Kind() != reflect.Func {
		return errors.New(errors.PhaseHost, errors.KindTypeError).
			Type(reflect.TypeOf(fn).String()).
			Detail("handler must be a function").
			Build()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.bound[namespace] {
		return errors.New(errors.PhaseHost, errors.KindInvalidState).
			Path(namespace, name).
			Detail("namespace already instantiated").
			Build()
	}
	if r.funcs[namespace] == nil {
		r.funcs[namespace] = make(map[string]any)
	}
	r.funcs[namespace][name] = fn
	return nil
}

func checkNamespace(ns string) error {
	switch ns {
	case "":
		return errors.InvalidInput(errors.PhaseHost, "namespace cannot be empty")
	case bindings.Namespace:
		return errors.InvalidInput(errors.PhaseHost, "namespace "+ns+" is reserved for the host call surface")
	}
	return nil
}

// Has reports whether namespace#name is registered.
func (r *HostRegistry) Has(namespace, name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.funcs[namespace][name]
	return ok
}

// Namespaces returns the registered import modules, sorted.
func (r *HostRegistry) Namespaces() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.funcs))
	for ns := range r.funcs {
		out = append(out, ns)
	}
	sort.Strings(out)
	return out
}

// Bind instantiates a host module per namespace not yet bound to rt.
func (r *HostRegistry) Bind(ctx context.Context, rt wazero.Runtime) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for ns, funcs := range r.funcs {
		if r.bound[ns] {
			continue
		}
		names := make([]string, 0, len(funcs))
		for name := range funcs {
			names = append(names, name)
		}
		sort.Strings(names)

		builder := rt.NewHostModuleBuilder(ns)
		for _, name := range names {
			if err := export(builder, name, funcs[name]); err != nil {
				return errors.Registration(errors.PhaseHost, ns, name, err)
			}
		}
		if _, err := builder.Instantiate(ctx); err != nil {
			return errors.Registration(errors.PhaseHost, ns, "instantiate", err)
		}
		r.bound[ns] = true
	}
	return nil
}

// export adds fn to builder. wazero panics on signatures it cannot map.
func export(builder wazero.HostModuleBuilder, name string, fn any) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%v", p)
		}
	}()
	builder.NewFunctionBuilder().WithFunc(fn).Export(name)
	return nil
}

// toKebabCase converts PascalCase to kebab-case.
// Handles acronyms: GetHTTPURL -> get-http-url
func toKebabCase(s string) string {
	if len(s) == 0 {
		return ""
	}

	runes := []rune(s)
	var result strings.Builder

	for i := 0; i < len(runes); i++ {
		r := runes[i]

		if unicode.IsUpper(r) {
			acronymEnd := i + 1
			for acronymEnd < len(runes) && unicode.IsUpper(runes[acronymEnd]) {
				acronymEnd++
			}

			if acronymEnd > i+1 {
				// Last uppercase before lowercase starts next word, not part of acronym
				if acronymEnd < len(runes) && unicode.IsLower(runes[acronymEnd]) {
					acronymEnd--
				}
			}

			if i > 0 {
				result.WriteByte('-')
			}

			for j := i; j < acronymEnd; j++ {
				result.WriteRune(unicode.ToLower(runes[j]))
			}
			i = acronymEnd - 1 // -1 because loop will increment
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}

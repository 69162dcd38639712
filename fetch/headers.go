package fetch

import (
	"context"
	"net/http"
	"strings"

	"github.com/wippyai/wbg-runtime/jsvalue"
)

type headerEntry struct {
	name  string
	value string
}

// Headers is an ordered, case-insensitive header list.
type Headers struct {
	entries []headerEntry
}

// NewHeaders creates an empty header list.
func NewHeaders() *Headers { return &Headers{} }

func normalizeName(name string) (string, error) {
	if name == "" || strings.ContainsAny(name, " \t\r\n:()<>@,;\\\"/[]?={}") {
		return "", jsvalue.NewTypeError("Invalid header name: '" + name + "'")
	}
	return strings.ToLower(name), nil
}

func normalizeValue(v string) (string, error) {
	v = strings.Trim(v, " \t\r\n")
	if strings.ContainsAny(v, "\r\n\x00") {
		return "", jsvalue.NewTypeError("Invalid header value")
	}
	return v, nil
}

// Append adds a value without replacing existing ones.
func (h *Headers) Append(name, value string) error {
	n, err := normalizeName(name)
	if err != nil {
		return err
	}
	v, err := normalizeValue(value)
	if err != nil {
		return err
	}
	h.entries = append(h.entries, headerEntry{name: n, value: v})
	return nil
}

// Set replaces every value for name.
func (h *Headers) Set(name, value string) error {
	n, err := normalizeName(name)
	if err != nil {
		return err
	}
	v, err := normalizeValue(value)
	if err != nil {
		return err
	}
	h.remove(n)
	h.entries = append(h.entries, headerEntry{name: n, value: v})
	return nil
}

// Get returns the combined value for name, joined with ", ".
func (h *Headers) Get(name string) (string, bool) {
	n := strings.ToLower(name)
	var vals []string
	for _, e := range h.entries {
		if e.name == n {
			vals = append(vals, e.value)
		}
	}
	if vals == nil {
		return "", false
	}
	return strings.Join(vals, ", "), true
}

// Has reports whether name is present.
func (h *Headers) Has(name string) bool {
	_, ok := h.Get(name)
	return ok
}

// Delete removes every value for name.
func (h *Headers) Delete(name string) error {
	n, err := normalizeName(name)
	if err != nil {
		return err
	}
	h.remove(n)
	return nil
}

func (h *Headers) remove(n string) {
	out := h.entries[:0]
	for _, e := range h.entries {
		if e.name != n {
			out = append(out, e)
		}
	}
	h.entries = out
}

// Len returns the number of entries.
func (h *Headers) Len() int { return len(h.entries) }

// HTTP converts the list into an http.Header.
func (h *Headers) HTTP() http.Header {
	out := make(http.Header, len(h.entries))
	for _, e := range h.entries {
		out.Add(e.name, e.value)
	}
	return out
}

// HeadersFromHTTP copies an http.Header.
func HeadersFromHTTP(src http.Header) *Headers {
	h := NewHeaders()
	for name, vals := range src {
		for _, v := range vals {
			h.entries = append(h.entries, headerEntry{name: strings.ToLower(name), value: v})
		}
	}
	return h
}

// headersFrom converts a HeadersInit value: Headers, a record object or an
// array of pairs.
func headersFrom(v any) (*Headers, error) {
	switch src := v.(type) {
	case nil, jsvalue.Undefined, jsvalue.Null:
		return NewHeaders(), nil
	case *Headers:
		return &Headers{entries: append([]headerEntry(nil), src.entries...)}, nil
	case *jsvalue.Object:
		h := NewHeaders()
		for _, k := range src.Keys() {
			val, _ := src.Get(k)
			if err := h.Append(k, jsvalue.ToString(val)); err != nil {
				return nil, err
			}
		}
		return h, nil
	case *jsvalue.Array:
		h := NewHeaders()
		for _, pair := range src.Elems {
			p, ok := pair.(*jsvalue.Array)
			if !ok || len(p.Elems) != 2 {
				return nil, jsvalue.NewTypeError("Failed to construct 'Headers': Invalid value")
			}
			if err := h.Append(jsvalue.ToString(p.Elems[0]), jsvalue.ToString(p.Elems[1])); err != nil {
				return nil, err
			}
		}
		return h, nil
	}
	return nil, jsvalue.NewTypeError("Failed to construct 'Headers': The provided value is not of type 'HeadersInit'")
}

// ClassName implements jsvalue.ClassNamer.
func (h *Headers) ClassName() string { return "Headers" }

// GetProperty implements jsvalue.PropertyGetter.
func (h *Headers) GetProperty(name string) (any, bool) {
	str := func(args []any, i int) string {
		if i < len(args) {
			return jsvalue.ToString(args[i])
		}
		return "undefined"
	}
	switch name {
	case "append":
		return jsvalue.NewFunc("append", func(_ context.Context, _ any, args []any) (any, error) {
			return jsvalue.Undefined{}, h.Append(str(args, 0), str(args, 1))
		}), true
	case "set":
		return jsvalue.NewFunc("set", func(_ context.Context, _ any, args []any) (any, error) {
			return jsvalue.Undefined{}, h.Set(str(args, 0), str(args, 1))
		}), true
	case "get":
		return jsvalue.NewFunc("get", func(_ context.Context, _ any, args []any) (any, error) {
			if v, ok := h.Get(str(args, 0)); ok {
				return v, nil
			}
			return jsvalue.Null{}, nil
		}), true
	case "has":
		return jsvalue.NewFunc("has", func(_ context.Context, _ any, args []any) (any, error) {
			return h.Has(str(args, 0)), nil
		}), true
	case "delete":
		return jsvalue.NewFunc("delete", func(_ context.Context, _ any, args []any) (any, error) {
			return jsvalue.Undefined{}, h.Delete(str(args, 0))
		}), true
	}
	return nil, false
}

package fetch

import (
	"context"
	"strings"
	"sync"

	"github.com/wippyai/wbg-runtime/dom"
	"github.com/wippyai/wbg-runtime/jsvalue"
)

// Enumerations in the order the guest encodes them.
var (
	RequestModes       = []string{"same-origin", "no-cors", "cors", "navigate"}
	RequestCredentials = []string{"omit", "same-origin", "include"}
)

// RequestInit holds the options of new Request(url, init) and fetch.
type RequestInit struct {
	Method      string
	Mode        string
	Credentials string
	Headers     *Headers
	Body        any
	Signal      *AbortSignal
}

// InitFrom reads a RequestInit from a dictionary object. Absent members
// keep their zero value.
func InitFrom(v any) (*RequestInit, error) {
	init := &RequestInit{}
	if jsvalue.IsNullish(v) {
		return init, nil
	}
	if ri, ok := v.(*RequestInit); ok {
		return ri, nil
	}
	if !jsvalue.IsObject(v) {
		return nil, jsvalue.NewTypeError("Failed to construct 'Request': The provided value is not of type 'RequestInit'.")
	}
	get := func(name string) any {
		val, _ := jsvalue.Get(v, name)
		if jsvalue.IsNullish(val) {
			return nil
		}
		return val
	}
	if m := get("method"); m != nil {
		init.Method = jsvalue.ToString(m)
	}
	if m := get("mode"); m != nil {
		init.Mode = jsvalue.ToString(m)
	}
	if c := get("credentials"); c != nil {
		init.Credentials = jsvalue.ToString(c)
	}
	if h := get("headers"); h != nil {
		hs, err := headersFrom(h)
		if err != nil {
			return nil, err
		}
		init.Headers = hs
	}
	init.Body = get("body")
	if s := get("signal"); s != nil {
		sig, ok := s.(*AbortSignal)
		if !ok {
			return nil, jsvalue.NewTypeError("Failed to construct 'Request': member signal is not of type AbortSignal.")
		}
		init.Signal = sig
	}
	return init, nil
}

var forbiddenMethods = map[string]bool{"CONNECT": true, "TRACE": true, "TRACK": true}

// Request is a fetch request. URL is kept as given; the client resolves it
// against its base.
type Request struct {
	Method      string
	URL         string
	Mode        string
	Credentials string
	Headers     *Headers
	Signal      *AbortSignal
	body        []byte
}

// NewRequest implements new Request(url, init).
func NewRequest(url string, init *RequestInit) (*Request, error) {
	if init == nil {
		init = &RequestInit{}
	}
	r := &Request{
		Method:      "GET",
		URL:         url,
		Mode:        "cors",
		Credentials: "same-origin",
		Headers:     init.Headers,
		Signal:      init.Signal,
	}
	if init.Method != "" {
		m := strings.ToUpper(init.Method)
		if forbiddenMethods[m] {
			return nil, jsvalue.NewTypeError("Failed to construct 'Request': '" + init.Method + "' HTTP method is unsupported.")
		}
		r.Method = m
	}
	if init.Mode != "" {
		r.Mode = init.Mode
	}
	if init.Credentials != "" {
		r.Credentials = init.Credentials
	}
	if r.Headers == nil {
		r.Headers = NewHeaders()
	}
	if r.Signal == nil {
		r.Signal = &AbortSignal{}
	}
	body, ct, err := extractBody(init.Body)
	if err != nil {
		return nil, err
	}
	if body != nil && (r.Method == "GET" || r.Method == "HEAD") {
		return nil, jsvalue.NewTypeError("Failed to construct 'Request': Request with GET/HEAD method cannot have body.")
	}
	r.body = body
	if ct != "" && !r.Headers.Has("content-type") {
		_ = r.Headers.Set("content-type", ct)
	}
	return r, nil
}

// Body returns the request payload.
func (r *Request) Body() []byte { return r.body }

// ClassName implements jsvalue.ClassNamer.
func (r *Request) ClassName() string { return "Request" }

// GetProperty implements jsvalue.PropertyGetter.
func (r *Request) GetProperty(name string) (any, bool) {
	switch name {
	case "method":
		return r.Method, true
	case "url":
		return r.URL, true
	case "mode":
		return r.Mode, true
	case "credentials":
		return r.Credentials, true
	case "headers":
		return r.Headers, true
	case "signal":
		return r.Signal, true
	}
	return nil, false
}

// AbortSignal reports cancellation to fetch and to guest listeners.
type AbortSignal struct {
	dom.EventTarget
	mu       sync.Mutex
	aborted  bool
	reason   any
	watchers []func()
}

// Aborted reports whether abort was signaled.
func (s *AbortSignal) Aborted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.aborted
}

// Reason returns the abort reason.
func (s *AbortSignal) Reason() any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reason
}

// OnAbort registers fn to run once on abort; it runs immediately if the
// signal already fired. The returned function unregisters it.
func (s *AbortSignal) OnAbort(fn func()) (stop func()) {
	s.mu.Lock()
	if s.aborted {
		s.mu.Unlock()
		fn()
		return func() {}
	}
	s.watchers = append(s.watchers, fn)
	idx := len(s.watchers) - 1
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if idx < len(s.watchers) {
			s.watchers[idx] = nil
		}
	}
}

func (s *AbortSignal) abort(ctx context.Context, reason any) error {
	s.mu.Lock()
	if s.aborted {
		s.mu.Unlock()
		return nil
	}
	s.aborted = true
	if jsvalue.IsNullish(reason) {
		reason = jsvalue.NewError(jsvalue.AbortError, "signal is aborted without reason")
	}
	s.reason = reason
	watchers := s.watchers
	s.watchers = nil
	s.mu.Unlock()

	for _, w := range watchers {
		if w != nil {
			w()
		}
	}
	_, err := s.Dispatch(ctx, s, dom.NewEvent("abort"))
	return err
}

// ClassName implements jsvalue.ClassNamer.
func (s *AbortSignal) ClassName() string { return "AbortSignal" }

// GetProperty implements jsvalue.PropertyGetter.
func (s *AbortSignal) GetProperty(name string) (any, bool) {
	switch name {
	case "aborted":
		return s.Aborted(), true
	case "reason":
		if r := s.Reason(); r != nil {
			return r, true
		}
		return jsvalue.Undefined{}, true
	case "onabort":
		if h := s.Handler("abort"); h != nil {
			return h, true
		}
		return jsvalue.Null{}, true
	}
	return nil, false
}

// SetProperty implements jsvalue.PropertySetter.
func (s *AbortSignal) SetProperty(name string, v any) error {
	if name == "onabort" {
		s.SetHandler("abort", v)
		return nil
	}
	return jsvalue.NewTypeError("Cannot set property " + name + " of AbortSignal")
}

// AbortController owns an AbortSignal.
type AbortController struct {
	signal *AbortSignal
}

// NewAbortController creates a controller with a fresh signal.
func NewAbortController() *AbortController {
	return &AbortController{signal: &AbortSignal{}}
}

// Signal returns the controlled signal.
func (c *AbortController) Signal() *AbortSignal { return c.signal }

// Abort fires the signal. Later calls do nothing.
func (c *AbortController) Abort(ctx context.Context, reason any) error {
	return c.signal.abort(ctx, reason)
}

// ClassName implements jsvalue.ClassNamer.
func (c *AbortController) ClassName() string { return "AbortController" }

// GetProperty implements jsvalue.PropertyGetter.
func (c *AbortController) GetProperty(name string) (any, bool) {
	switch name {
	case "signal":
		return c.signal, true
	case "abort":
		return jsvalue.NewFunc("abort", func(ctx context.Context, _ any, args []any) (any, error) {
			var reason any
			if len(args) > 0 {
				reason = args[0]
			}
			return jsvalue.Undefined{}, c.Abort(ctx, reason)
		}), true
	}
	return nil, false
}

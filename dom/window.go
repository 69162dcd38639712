package dom

import (
	"context"
	"crypto/rand"
	"net/url"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wippyai/wbg-runtime/eventloop"
	"github.com/wippyai/wbg-runtime/jsvalue"
	"github.com/wippyai/wbg-runtime/store"
)

// Overlay is the loading screen state driven by the engine: a progress
// title, a progress value with an optional total, and an error message.
type Overlay struct {
	Title    string
	Progress float64
	Total    float64
	HasTotal bool
	Error    string
}

// WindowOption configures a Window.
type WindowOption func(*Window)

// WithHref sets location.href.
func WithHref(href string) WindowOption {
	return func(w *Window) { w.Location.Href = href }
}

// WithDevicePixelRatio sets window.devicePixelRatio.
func WithDevicePixelRatio(r float64) WindowOption {
	return func(w *Window) { w.DevicePixelRatio = r }
}

// WithStorage backs window.localStorage with db, namespaced by the origin
// of location.href.
func WithStorage(db *store.DB) WindowOption {
	return func(w *Window) { w.db = db }
}

// WithOverlayHook observes overlay changes.
func WithOverlayHook(fn func(Overlay)) WindowOption {
	return func(w *Window) { w.onOverlay = fn }
}

// WithLogger sets the logger used for console output and diagnostics.
func WithLogger(log *zap.Logger) WindowOption {
	return func(w *Window) { w.log = log }
}

// Window is the global object seen by the guest.
type Window struct {
	EventTarget
	Document         *Document
	Location         *Location
	Performance      *Performance
	Crypto           *Crypto
	Navigator        *Navigator
	DevicePixelRatio float64

	loop      *eventloop.Loop
	log       *zap.Logger
	db        *store.DB
	storage   *Storage
	overlay   Overlay
	onOverlay func(Overlay)
}

// NewWindow creates a window with an empty document.
func NewWindow(loop *eventloop.Loop, opts ...WindowOption) *Window {
	w := &Window{
		Location:         &Location{Href: "about:blank"},
		DevicePixelRatio: 1,
		loop:             loop,
		Crypto:           &Crypto{},
		Navigator:        &Navigator{UserAgent: "wbg-runtime"},
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.log == nil {
		w.log = Logger()
	}
	w.Performance = &Performance{loop: loop}
	w.Document = NewDocument(loop, w.log)
	return w
}

// Loop returns the owning event loop.
func (w *Window) Loop() *eventloop.Loop { return w.loop }

// Origin returns scheme://host of location.href, or "null" for opaque
// locations.
func (w *Window) Origin() string {
	u, err := url.Parse(w.Location.Href)
	if err != nil || u.Host == "" {
		return "null"
	}
	return u.Scheme + "://" + u.Host
}

// LocalStorage returns the storage area, or nil when no database backs it.
func (w *Window) LocalStorage() *Storage {
	if w.db == nil {
		return nil
	}
	if w.storage == nil {
		w.storage = &Storage{ls: w.db.LocalStorage(w.Origin())}
	}
	return w.storage
}

// Overlay returns the loading overlay state.
func (w *Window) Overlay() Overlay { return w.overlay }

// ShowError displays an error on the overlay.
func (w *Window) ShowError(msg string) {
	w.log.Error("engine error", zap.String("message", msg))
	w.overlay.Error = msg
	w.notifyOverlay()
}

// SetProgressTitle sets the overlay title.
func (w *Window) SetProgressTitle(title string) {
	w.overlay.Title = title
	w.notifyOverlay()
}

// SetProgress updates the overlay progress. A nil total means indefinite.
func (w *Window) SetProgress(progress float64, total *float64) {
	w.overlay.Progress = progress
	w.overlay.HasTotal = total != nil
	w.overlay.Total = 0
	if total != nil {
		w.overlay.Total = *total
	}
	w.notifyOverlay()
}

func (w *Window) notifyOverlay() {
	if w.onOverlay != nil {
		w.onOverlay(w.overlay)
	}
}

// ClassName implements jsvalue.ClassNamer.
func (w *Window) ClassName() string { return "Window" }

// InstanceOf implements jsvalue.Instancer.
func (w *Window) InstanceOf(class string) bool {
	switch class {
	case "Window", "EventTarget", "Object":
		return true
	}
	return false
}

// GetProperty implements jsvalue.PropertyGetter.
func (w *Window) GetProperty(name string) (any, bool) {
	switch name {
	case "window", "self", "globalThis":
		return w, true
	case "document":
		return w.Document, true
	case "location":
		return w.Location, true
	case "performance":
		return w.Performance, true
	case "crypto":
		return w.Crypto, true
	case "navigator":
		return w.Navigator, true
	case "devicePixelRatio":
		return w.DevicePixelRatio, true
	case "localStorage":
		if s := w.LocalStorage(); s != nil {
			return s, true
		}
		return jsvalue.Null{}, true
	case "queueMicrotask":
		return jsvalue.NewFunc("queueMicrotask", func(ctx context.Context, _ any, args []any) (any, error) {
			fn := argAt(args, 0)
			if !jsvalue.IsFunction(fn) {
				return nil, jsvalue.NewTypeError("Failed to execute 'queueMicrotask' on 'Window': parameter 1 is not of type 'Function'.")
			}
			w.loop.QueueMicrotask(func() {
				if _, err := jsvalue.Call(ctx, fn, jsvalue.Undefined{}); err != nil {
					w.log.Warn("microtask threw", zap.Error(err))
				}
			})
			return jsvalue.Undefined{}, nil
		}), true
	case "addEventListener":
		return listenerFunc("addEventListener", w.AddEventListener), true
	case "removeEventListener":
		return listenerFunc("removeEventListener", w.RemoveEventListener), true
	}
	return nil, false
}

// Location is window.location.
type Location struct {
	Href string
}

// ClassName implements jsvalue.ClassNamer.
func (l *Location) ClassName() string { return "Location" }

// GetProperty implements jsvalue.PropertyGetter.
func (l *Location) GetProperty(name string) (any, bool) {
	u, _ := url.Parse(l.Href)
	if u == nil {
		u = &url.URL{}
	}
	switch name {
	case "href":
		return l.Href, true
	case "protocol":
		return u.Scheme + ":", true
	case "host":
		return u.Host, true
	case "hostname":
		return u.Hostname(), true
	case "pathname":
		return u.Path, true
	case "search":
		if u.RawQuery == "" {
			return "", true
		}
		return "?" + u.RawQuery, true
	}
	return nil, false
}

// Performance is window.performance.
type Performance struct {
	loop *eventloop.Loop
}

// Now returns milliseconds since the loop started.
func (p *Performance) Now() float64 { return p.loop.Now() }

// ClassName implements jsvalue.ClassNamer.
func (p *Performance) ClassName() string { return "Performance" }

// GetProperty implements jsvalue.PropertyGetter.
func (p *Performance) GetProperty(name string) (any, bool) {
	if name == "now" {
		return jsvalue.NewFunc("now", func(context.Context, any, []any) (any, error) {
			return p.Now(), nil
		}), true
	}
	return nil, false
}

// maxRandomBytes is the getRandomValues quota.
const maxRandomBytes = 65536

// Crypto is window.crypto.
type Crypto struct{}

// GetRandomValues fills b with random bytes.
func (c *Crypto) GetRandomValues(b []byte) error {
	if len(b) > maxRandomBytes {
		return jsvalue.NewError("QuotaExceededError",
			"Failed to execute 'getRandomValues' on 'Crypto': The ArrayBufferView's byte length exceeds the number of bytes of entropy available via this API (65536).")
	}
	_, err := rand.Read(b)
	return err
}

// RandomUUID returns a version 4 UUID.
func (c *Crypto) RandomUUID() string { return uuid.NewString() }

// ClassName implements jsvalue.ClassNamer.
func (c *Crypto) ClassName() string { return "Crypto" }

// GetProperty implements jsvalue.PropertyGetter.
func (c *Crypto) GetProperty(name string) (any, bool) {
	switch name {
	case "getRandomValues":
		return jsvalue.NewFunc("getRandomValues", func(_ context.Context, _ any, args []any) (any, error) {
			u, ok := argAt(args, 0).(*jsvalue.Uint8Array)
			if !ok {
				return nil, jsvalue.NewTypeError("Failed to execute 'getRandomValues' on 'Crypto': parameter 1 is not of type 'ArrayBufferView'.")
			}
			return u, c.GetRandomValues(u.Bytes())
		}), true
	case "randomUUID":
		return jsvalue.NewFunc("randomUUID", func(context.Context, any, []any) (any, error) {
			return c.RandomUUID(), nil
		}), true
	}
	return nil, false
}

// Navigator is window.navigator. Gamepads supplies getGamepads().
type Navigator struct {
	UserAgent string
	Gamepads  func() *jsvalue.Array
}

// ClassName implements jsvalue.ClassNamer.
func (n *Navigator) ClassName() string { return "Navigator" }

// GetProperty implements jsvalue.PropertyGetter.
func (n *Navigator) GetProperty(name string) (any, bool) {
	switch name {
	case "userAgent":
		return n.UserAgent, true
	case "getGamepads":
		return jsvalue.NewFunc("getGamepads", func(context.Context, any, []any) (any, error) {
			if n.Gamepads == nil {
				return jsvalue.NewArray(), nil
			}
			return n.Gamepads(), nil
		}), true
	}
	return nil, false
}

// Storage is the localStorage area. Storage errors surface as exceptions.
type Storage struct {
	ls *store.LocalStorage
}

// GetItem returns the value and whether it exists.
func (s *Storage) GetItem(ctx context.Context, key string) (string, bool, error) {
	return s.ls.GetItem(ctx, key)
}

// SetItem stores value under key.
func (s *Storage) SetItem(ctx context.Context, key, value string) error {
	return s.ls.SetItem(ctx, key, value)
}

// RemoveItem deletes key.
func (s *Storage) RemoveItem(ctx context.Context, key string) error {
	return s.ls.RemoveItem(ctx, key)
}

// Clear deletes every key.
func (s *Storage) Clear(ctx context.Context) error { return s.ls.Clear(ctx) }

// ClassName implements jsvalue.ClassNamer.
func (s *Storage) ClassName() string { return "Storage" }

// GetProperty implements jsvalue.PropertyGetter.
func (s *Storage) GetProperty(name string) (any, bool) {
	switch name {
	case "length":
		n, err := s.ls.Length(context.Background())
		if err != nil {
			return float64(0), true
		}
		return float64(n), true
	case "getItem":
		return jsvalue.NewFunc("getItem", func(ctx context.Context, _ any, args []any) (any, error) {
			v, ok, err := s.GetItem(ctx, jsvalue.ToString(argAt(args, 0)))
			if err != nil {
				return nil, err
			}
			if !ok {
				return jsvalue.Null{}, nil
			}
			return v, nil
		}), true
	case "setItem":
		return jsvalue.NewFunc("setItem", func(ctx context.Context, _ any, args []any) (any, error) {
			return jsvalue.Undefined{}, s.SetItem(ctx, jsvalue.ToString(argAt(args, 0)), jsvalue.ToString(argAt(args, 1)))
		}), true
	case "removeItem":
		return jsvalue.NewFunc("removeItem", func(ctx context.Context, _ any, args []any) (any, error) {
			return jsvalue.Undefined{}, s.RemoveItem(ctx, jsvalue.ToString(argAt(args, 0)))
		}), true
	case "clear":
		return jsvalue.NewFunc("clear", func(ctx context.Context, _ any, _ []any) (any, error) {
			return jsvalue.Undefined{}, s.Clear(ctx)
		}), true
	}
	return nil, false
}

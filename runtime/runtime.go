package runtime

import (
	"context"
	"net/http"
	"sync"

	"github.com/tetratelabs/wazero"
	"go.uber.org/zap"

	"github.com/wippyai/wbg-runtime/audio"
	"github.com/wippyai/wbg-runtime/bindings"
	"github.com/wippyai/wbg-runtime/dom"
	"github.com/wippyai/wbg-runtime/errors"
)

// Config configures a Runtime. The zero value is usable.
type Config struct {
	// MemoryLimitPages caps guest memory in 64KiB pages. Zero keeps the
	// wazero default.
	MemoryLimitPages uint32
	// CacheDir persists compiled modules across runs when set.
	CacheDir string

	// FrameRate paces requestAnimationFrame. Zero uses the loop default.
	FrameRate float64
	// Href is window.location.href. It also names the storage origin.
	Href             string
	DevicePixelRatio float64
	UserAgent        string

	// BaseURL resolves relative fetch URLs; FileRoot serves file: URLs.
	BaseURL    string
	FileRoot   string
	HTTPClient *http.Client

	// StoragePath is the SQLite database behind localStorage and IndexedDB.
	// Empty keeps storage in memory for the instance lifetime.
	StoragePath string

	SampleRate float64
	Decoder    audio.Decoder

	// Catalog serves the wbg namespace; nil uses bindings.Standard.
	Catalog *bindings.Catalog
	// OnOverlay observes the loader overlay (title, progress, errors).
	OnOverlay func(dom.Overlay)
	Logger    *zap.Logger
}

// Runtime compiles guest modules and owns the hosts they link against.
// One guest instance is live at a time: the wbg host module is rebuilt
// for each instantiation.
type Runtime struct {
	wz    wazero.Runtime
	cache wazero.CompilationCache
	hosts *HostRegistry
	cat   *bindings.Catalog
	cfg   Config
	log   *zap.Logger

	mu   sync.Mutex
	init *Instance
}

// New creates a runtime. cfg may be nil.
func New(ctx context.Context, cfg *Config) (*Runtime, error) {
	r := &Runtime{hosts: NewHostRegistry()}
	if cfg != nil {
		r.cfg = *cfg
	}
	r.log = r.cfg.Logger
	if r.log == nil {
		r.log = Logger()
	}
	r.cat = r.cfg.Catalog
	if r.cat == nil {
		r.cat = bindings.Standard()
	}

	wcfg := wazero.NewRuntimeConfig().WithCloseOnContextDone(true)
	if r.cfg.MemoryLimitPages > 0 {
		wcfg = wcfg.WithMemoryLimitPages(r.cfg.MemoryLimitPages)
	}
	if r.cfg.CacheDir != "" {
		cache, err := wazero.NewCompilationCacheWithDir(r.cfg.CacheDir)
		if err != nil {
			return nil, errors.Load("open compilation cache "+r.cfg.CacheDir, err)
		}
		r.cache = cache
		wcfg = wcfg.WithCompilationCache(cache)
	}
	r.wz = wazero.NewRuntimeWithConfig(ctx, wcfg)
	return r, nil
}

// Close releases the runtime and every instance created from it.
func (r *Runtime) Close(ctx context.Context) error {
	r.mu.Lock()
	inst := r.init
	r.init = nil
	r.mu.Unlock()
	if inst != nil {
		if err := inst.Close(ctx); err != nil {
			r.log.Warn("close instance", zap.Error(err))
		}
	}
	err := r.wz.Close(ctx)
	if r.cache != nil {
		if cerr := r.cache.Close(ctx); err == nil {
			err = cerr
		}
	}
	return err
}

// RegisterHost registers all exported methods of h as host functions.
// Must be called BEFORE loading modules that import these functions.
// Method names are converted from PascalCase to kebab-case (GetValue -> get-value).
func (r *Runtime) RegisterHost(h Host) error {
	return r.hosts.RegisterHost(h)
}

// RegisterFunc registers fn as namespace#name. fn takes an optional
// context.Context and api.Module followed by numeric parameters.
func (r *Runtime) RegisterFunc(namespace, name string, fn any) error {
	return r.hosts.RegisterFunc(namespace, name, fn)
}

func (r *Runtime) Hosts() *HostRegistry {
	return r.hosts
}

// Catalog returns the catalog serving the wbg namespace.
func (r *Runtime) Catalog() *bindings.Catalog {
	return r.cat
}

// Init loads input and instantiates it the first time it is called. Later
// calls return the same instance and ignore input.
func (r *Runtime) Init(ctx context.Context, input any) (*Instance, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.init != nil {
		return r.init, nil
	}
	mod, err := r.Load(ctx, input)
	if err != nil {
		return nil, err
	}
	inst, err := mod.Instantiate(ctx)
	if err != nil {
		return nil, err
	}
	r.init = inst
	return inst, nil
}

package runtime

import (
	"context"
	"io"
	"net/url"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/wbg-runtime/audio"
	"github.com/wippyai/wbg-runtime/bindings"
	"github.com/wippyai/wbg-runtime/closure"
	"github.com/wippyai/wbg-runtime/dom"
	"github.com/wippyai/wbg-runtime/errors"
	"github.com/wippyai/wbg-runtime/eventloop"
	"github.com/wippyai/wbg-runtime/fetch"
	"github.com/wippyai/wbg-runtime/heap"
	"github.com/wippyai/wbg-runtime/idb"
	"github.com/wippyai/wbg-runtime/input"
	"github.com/wippyai/wbg-runtime/memory"
	"github.com/wippyai/wbg-runtime/store"
	"github.com/wippyai/wbg-runtime/stream"
	"github.com/wippyai/wbg-runtime/webgl"
)

// ExportStart is the guest's entry point, run once after instantiation.
const ExportStart = "__wbindgen_start"

// Instance is one instantiated guest and everything it owns: memory
// bridge, handle table, closures, event loop and host capabilities.
// Guest calls must happen on the loop goroutine, or before Run starts it.
type Instance struct {
	module *Module
	mod    api.Module
	host   api.Module
	env    *bindings.Env
	db     *store.DB
	ctx    context.Context
	log    *zap.Logger

	glMu sync.Mutex
	gl   []*webgl.Context

	closeOnce sync.Once
	closeErr  error
}

// Instantiate links the module against the wbg catalog and the registered
// hosts, instantiates it and runs its start export.
func (m *Module) Instantiate(ctx context.Context) (*Instance, error) {
	r := m.runtime
	if err := m.Check(); err != nil {
		return nil, err
	}
	if err := r.hosts.Bind(ctx, r.wz); err != nil {
		return nil, err
	}
	host, err := m.plan.Instantiate(ctx, r.wz)
	if err != nil {
		return nil, err
	}

	inst := &Instance{module: m, host: host, log: r.log.Named(m.name)}
	if err := inst.setup(ctx, &r.cfg); err != nil {
		_ = host.Close(ctx)
		return nil, err
	}

	mod, err := r.wz.InstantiateModule(inst.withEnv(ctx), m.compiled,
		wazero.NewModuleConfig().WithName(m.name).WithStartFunctions())
	if err != nil {
		inst.release(ctx)
		return nil, errors.Instantiation(err)
	}
	inst.mod = mod
	if err := inst.bind(); err != nil {
		inst.release(ctx)
		return nil, err
	}

	if start := mod.ExportedFunction(ExportStart); start != nil {
		if _, err := start.Call(inst.ctx); err != nil {
			inst.release(ctx)
			return nil, errors.Instantiation(err)
		}
	}
	inst.log.Debug("instantiated",
		zap.Int("imports", m.plan.Len()),
		zap.Uint32("memory", inst.env.Memory.Size()))
	return inst, nil
}

// setup builds the env and the host capabilities from cfg.
func (inst *Instance) setup(ctx context.Context, cfg *Config) error {
	log := inst.log
	loopOpts := []eventloop.Option{eventloop.WithLogger(log.Named("loop"))}
	if cfg.FrameRate != 0 {
		loopOpts = append(loopOpts, eventloop.WithFrameRate(cfg.FrameRate))
	}
	loop := eventloop.New(loopOpts...)

	path := cfg.StoragePath
	if path == "" {
		path = ":memory:"
	}
	db, err := store.Open(ctx, path, store.WithLogger(log.Named("store")))
	if err != nil {
		return err
	}
	inst.db = db

	winOpts := []dom.WindowOption{dom.WithStorage(db), dom.WithLogger(log.Named("dom"))}
	if cfg.Href != "" {
		winOpts = append(winOpts, dom.WithHref(cfg.Href))
	}
	if cfg.DevicePixelRatio > 0 {
		winOpts = append(winOpts, dom.WithDevicePixelRatio(cfg.DevicePixelRatio))
	}
	if cfg.OnOverlay != nil {
		winOpts = append(winOpts, dom.WithOverlayHook(cfg.OnOverlay))
	}
	win := dom.NewWindow(loop, winOpts...)
	if cfg.UserAgent != "" {
		win.Navigator.UserAgent = cfg.UserAgent
	}

	gl := webgl.Factory(loop, webgl.WithLogger(log.Named("webgl")))
	track := func(c *dom.Canvas, attrs any) (any, error) {
		v, err := gl(c, attrs)
		if glc, ok := v.(*webgl.Context); ok {
			inst.glMu.Lock()
			inst.gl = append(inst.gl, glc)
			inst.glMu.Unlock()
		}
		return v, err
	}
	win.Document.RegisterContext("webgl", track)
	win.Document.RegisterContext("experimental-webgl", track)

	pads := input.NewGamepads(loop.Now)
	win.Navigator.Gamepads = pads.Snapshot

	fetchOpts := []fetch.Option{fetch.WithLogger(log.Named("fetch"))}
	base := cfg.BaseURL
	if base == "" {
		base = cfg.Href
	}
	if u, err := url.Parse(base); err == nil && u.Scheme != "" {
		fetchOpts = append(fetchOpts, fetch.WithBaseURL(u))
	}
	if cfg.FileRoot != "" {
		fetchOpts = append(fetchOpts, fetch.WithFileRoot(cfg.FileRoot))
	}
	if cfg.HTTPClient != nil {
		fetchOpts = append(fetchOpts, fetch.WithHTTPClient(cfg.HTTPClient))
	}
	if cfg.UserAgent != "" {
		fetchOpts = append(fetchOpts, fetch.WithUserAgent(cfg.UserAgent))
	}

	audioOpts := []audio.Option{audio.WithLogger(log.Named("audio"))}
	if cfg.SampleRate > 0 {
		audioOpts = append(audioOpts, audio.WithSampleRate(cfg.SampleRate))
	}
	if cfg.Decoder != nil {
		audioOpts = append(audioOpts, audio.WithDecoder(cfg.Decoder))
	}

	inst.env = &bindings.Env{
		Heap:     heap.NewTable(),
		Loop:     loop,
		Window:   win,
		Fetch:    fetch.NewClient(fetchOpts...),
		Gamepads: pads,
		Audio:    audioOpts,
		Console:  log.Named("console"),
		Log:      log.Named("bindings"),
	}
	inst.ctx = inst.withEnv(context.Background())
	inst.env.IDB = idb.NewFactory(inst.ctx, db, loop, win.Origin(), idb.WithLogger(log.Named("idb")))
	return nil
}

// bind attaches the guest's memory, allocator and closure exports.
func (inst *Instance) bind() error {
	env := inst.env
	mem := inst.mod.Memory()
	if mem == nil {
		return errors.NotFound(errors.PhaseLoad, "export", "memory")
	}
	env.Memory = memory.NewBridge(mem)
	if alloc := memory.NewGuestAllocator(inst.mod); alloc != nil {
		env.Alloc = alloc
	}
	d, err := closure.NewGuestDispatcher(inst.mod, env.Heap)
	if err != nil {
		return err
	}
	if d != nil {
		d.Scope = inst.withEnv
		env.Invoker = d
	}
	env.Closures = closure.NewRegistry(inst.ctx, env.Invoker, env.Loop.Post, inst.log.Named("closure"))
	env.Bind(inst.mod)
	env.Memory.Invalidate()
	return nil
}

func (inst *Instance) withEnv(ctx context.Context) context.Context {
	return bindings.WithEnv(ctx, inst.env)
}

// Call invokes an exported function with raw wasm values.
func (inst *Instance) Call(ctx context.Context, name string, args ...uint64) ([]uint64, error) {
	fn := inst.mod.ExportedFunction(name)
	if fn == nil {
		return nil, errors.NotFound(errors.PhaseRuntime, "export", name)
	}
	return fn.Call(inst.withEnv(ctx), args...)
}

// Exec runs fn on the event loop and waits for it. Use it to reach the
// guest from other goroutines while Run is active.
func (inst *Instance) Exec(ctx context.Context, fn func(ctx context.Context)) error {
	return inst.env.Loop.Exec(ctx, func() { fn(inst.withEnv(ctx)) })
}

// Run drives the event loop until ctx is done, Stop is called or no work
// remains.
func (inst *Instance) Run(ctx context.Context) error {
	return inst.env.Loop.Run(inst.withEnv(ctx))
}

// Stop makes Run return.
func (inst *Instance) Stop() { inst.env.Loop.Stop() }

// Close stops the loop and releases the guest and its storage.
func (inst *Instance) Close(ctx context.Context) error {
	inst.closeOnce.Do(func() {
		inst.env.Loop.Stop()
		inst.closeErr = inst.release(ctx)

		r := inst.module.runtime
		r.mu.Lock()
		if r.init == inst {
			r.init = nil
		}
		r.mu.Unlock()
	})
	return inst.closeErr
}

func (inst *Instance) release(ctx context.Context) error {
	var first error
	keep := func(err error) {
		if err != nil && first == nil {
			first = err
		}
	}
	if inst.mod != nil {
		keep(inst.mod.Close(ctx))
	}
	if inst.host != nil {
		keep(inst.host.Close(ctx))
	}
	if inst.db != nil {
		keep(inst.db.Close())
	}
	return first
}

func (inst *Instance) Module() *Module { return inst.module }

// Env returns the state host functions see.
func (inst *Instance) Env() *bindings.Env { return inst.env }

func (inst *Instance) Heap() *heap.Table { return inst.env.Heap }

func (inst *Instance) Memory() *memory.Bridge { return inst.env.Memory }

func (inst *Instance) Loop() *eventloop.Loop { return inst.env.Loop }

func (inst *Instance) Window() *dom.Window { return inst.env.Window }

func (inst *Instance) Gamepads() *input.Gamepads { return inst.env.Gamepads }

func (inst *Instance) Closures() *closure.Registry { return inst.env.Closures }

// GL returns the WebGL contexts the guest created.
func (inst *Instance) GL() []*webgl.Context {
	inst.glMu.Lock()
	defer inst.glMu.Unlock()
	return append([]*webgl.Context(nil), inst.gl...)
}

// Stats is a snapshot of instance activity.
type Stats struct {
	Handles           int
	HandleCapacity    int
	ClosuresLive      int64
	ClosuresDropped   int64
	ClosuresCollected int64
	Frames            uint64
	MemoryBytes       uint32
	GL                webgl.Stats
}

// Stats collects counters. Call it on the loop.
func (inst *Instance) Stats() Stats {
	env := inst.env
	s := Stats{
		Handles:        env.Heap.Len(),
		HandleCapacity: env.Heap.Cap(),
		Frames:         env.Loop.Frames(),
	}
	if env.Memory != nil {
		s.MemoryBytes = env.Memory.Size()
	}
	if env.Closures != nil {
		s.ClosuresLive = env.Closures.Live()
		s.ClosuresDropped = env.Closures.Destroyed()
		s.ClosuresCollected = env.Closures.Collected()
	}
	for _, c := range inst.GL() {
		gs := c.Stats()
		s.GL.DrawCalls += gs.DrawCalls
		s.GL.BufferBytes += gs.BufferBytes
		s.GL.TextureUploads += gs.TextureUploads
		s.GL.Last.DrawCalls += gs.Last.DrawCalls
		s.GL.Last.Vertices += gs.Last.Vertices
		s.GL.Last.Instances += gs.Last.Instances
		s.GL.Last.Clears += gs.Last.Clears
	}
	return s
}

func (inst *Instance) guest() *stream.Guest {
	return &stream.Guest{
		Loop: inst.env.Loop,
		Heap: inst.env.Heap,
		Call: inst.Call,
		Log:  inst.log.Named("stream"),
	}
}

// Source adopts the guest IntoUnderlyingSource at ptr as a reader.
func (inst *Instance) Source(ptr uint32) *stream.Source {
	return stream.NewSource(inst.ctx, inst.guest(), ptr)
}

// ByteSource adopts the guest IntoUnderlyingByteSource at ptr as a reader.
func (inst *Instance) ByteSource(ptr uint32) *stream.ByteSource {
	return stream.NewByteSource(inst.ctx, inst.guest(), ptr)
}

// Sink adopts the guest IntoUnderlyingSink at ptr as a writer.
func (inst *Instance) Sink(ptr uint32) *stream.Sink {
	return stream.NewSink(inst.ctx, inst.guest(), ptr)
}

// ReadableStream exposes r to the guest as a byte ReadableStream.
func (inst *Instance) ReadableStream(r io.ReadCloser) *stream.ReadableStream {
	return stream.FromReader(inst.ctx, inst.env.Loop, r, 0)
}

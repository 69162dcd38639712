package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/wbg-runtime/config"
	"github.com/wippyai/wbg-runtime/dom"
	"github.com/wippyai/wbg-runtime/runtime"
)

var runCmd = &cobra.Command{
	Use:   "run <module.wasm|url>",
	Short: "Load a guest, run __wbindgen_start and drive the event loop",
	Args:  cobra.ExactArgs(1),
	RunE:  runModule,
}

func init() {
	f := runCmd.Flags()
	f.BoolP("interactive", "i", false, "show the inspector and forward keys to the guest")
	f.BoolP("watch", "w", false, "restart when the module file changes")
	f.String("storage", "", "SQLite file for localStorage and IndexedDB")
	f.String("href", "", "window.location.href")
	f.Float64("frame-rate", 0, "requestAnimationFrame rate")
}

func bindRunFlags(cmd *cobra.Command) func(v *viper.Viper) {
	return func(v *viper.Viper) {
		_ = v.BindPFlag("storage.path", cmd.Flags().Lookup("storage"))
		_ = v.BindPFlag("window.href", cmd.Flags().Lookup("href"))
		_ = v.BindPFlag("window.frame_rate", cmd.Flags().Lookup("frame-rate"))
	}
}

func runModule(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	interactive, _ := cmd.Flags().GetBool("interactive")
	watch, _ := cmd.Flags().GetBool("watch")

	cfg, log, err := setup(bindRunFlags(cmd))
	if err != nil {
		return err
	}
	defer log.Sync()

	if interactive && !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("--interactive needs a terminal")
	}

	s := &session{
		id:     uuid.NewString(),
		source: args[0],
		cfg:    cfg,
		watch:  watch,
	}
	if interactive {
		// The inspector owns the terminal; logs go to a file next to the
		// module instead.
		s.log, err = fileLogger(cfg, s.source)
		if err != nil {
			return err
		}
	} else {
		s.log = log
	}
	s.log = s.log.With(zap.String("session", s.id))

	if interactive {
		return s.runInteractive(ctx)
	}
	return s.run(ctx)
}

// session runs one module, restarting it on change when watching.
type session struct {
	id     string
	source string
	cfg    *config.Config
	log    *zap.Logger
	watch  bool
}

func (s *session) run(ctx context.Context) error {
	for {
		reload, err := s.once(ctx, nil)
		if !reload {
			return err
		}
		if err != nil {
			s.log.Error("guest failed; waiting for a change", zap.Error(err))
		}
		s.log.Info("module changed, restarting", zap.String("module", s.source))
	}
}

func (s *session) runInteractive(ctx context.Context) error {
	model := newInspector(s.source, s.id)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		for {
			reload, err := s.once(ctx, p)
			if err != nil {
				p.Send(errMsg{err})
			}
			if !reload {
				done <- err
				return
			}
		}
	}()

	_, err := p.Run()
	cancel()
	runErr := <-done
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	if errors.Is(runErr, context.Canceled) {
		return nil
	}
	return runErr
}

// once instantiates the guest and runs its loop. It reports reload when
// the watcher stopped the loop because the module changed.
func (s *session) once(ctx context.Context, p *tea.Program) (reload bool, err error) {
	var (
		changed <-chan struct{}
		stopW   func()
	)
	if s.watch {
		if changed, stopW, err = watchFile(s.source, s.log); err != nil {
			return false, err
		}
		defer stopW()
	}

	rc := s.cfg.Runtime(s.log)
	rc.OnOverlay = func(o dom.Overlay) {
		if p != nil {
			go p.Send(overlayMsg(o))
			return
		}
		if o.Error != "" {
			s.log.Error("guest reported an error", zap.String("error", o.Error))
			return
		}
		s.log.Info("loading", zap.String("title", o.Title), zap.Float64("progress", o.Progress), zap.Float64("total", o.Total))
	}

	rt, err := runtime.New(ctx, rc)
	if err != nil {
		return false, err
	}
	defer rt.Close(ctx)

	inst, err := rt.Init(ctx, s.source)
	if err != nil {
		if s.watch {
			return waitChange(ctx, changed), err
		}
		return false, err
	}
	defer inst.Close(ctx)
	s.log.Info("guest started",
		zap.String("module", inst.Module().Name()),
		zap.Int("imports", inst.Module().Plan().Len()))

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var reloaded atomic.Bool
	if changed != nil {
		go func() {
			select {
			case <-changed:
				reloaded.Store(true)
				inst.Stop()
			case <-runCtx.Done():
			}
		}()
	}

	if p != nil {
		// Keep the loop alive while the inspector is open.
		release := inst.Loop().Hold()
		defer release()
		p.Send(startedMsg{inst: inst})
	}

	err = inst.Run(runCtx)
	cancel()
	if reloaded.Load() {
		return true, err
	}
	if err == nil && s.watch && ctx.Err() == nil {
		s.log.Info("guest is idle; waiting for a change")
		return waitChange(ctx, changed), nil
	}
	if p == nil {
		st := inst.Stats()
		s.log.Info("guest idle",
			zap.Uint64("frames", st.Frames),
			zap.Int("handles", st.Handles),
			zap.Int64("closures", st.ClosuresLive),
			zap.Int64("draw_calls", st.GL.DrawCalls))
	}
	return false, err
}

func waitChange(ctx context.Context, changed <-chan struct{}) bool {
	select {
	case <-changed:
		return true
	case <-ctx.Done():
		return false
	}
}

func fileLogger(cfg *config.Config, source string) (*zap.Logger, error) {
	zc := zap.NewDevelopmentConfig()
	if cfg.Log.Format == "json" {
		zc = zap.NewProductionConfig()
	}
	level, err := zap.ParseAtomicLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	zc.Level = level
	path := fmt.Sprintf("%s.log", moduleBase(source))
	zc.OutputPaths = []string{path}
	zc.ErrorOutputPaths = []string{path}
	return zc.Build()
}

package main

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const debouncePeriod = 300 * time.Millisecond

// watchFile signals on the returned channel once path has been rewritten
// and stayed quiet for debouncePeriod. The parent directory is watched
// because build tools replace the file instead of writing it in place.
func watchFile(source string, log *zap.Logger) (<-chan struct{}, func(), error) {
	path, err := localPath(source)
	if err != nil {
		return nil, nil, err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(path)); err != nil {
		w.Close()
		return nil, nil, fmt.Errorf("watch %s: %w", path, err)
	}

	changed := make(chan struct{})
	var (
		once  sync.Once
		mu    sync.Mutex
		timer *time.Timer
	)
	fire := func() { once.Do(func() { close(changed) }) }

	go func() {
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != path || !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
					continue
				}
				log.Debug("module file changed", zap.String("file", ev.Name), zap.String("op", ev.Op.String()))
				mu.Lock()
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(debouncePeriod, fire)
				mu.Unlock()
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				log.Warn("watcher error", zap.Error(err))
			}
		}
	}()

	stop := func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
		w.Close()
	}
	return changed, stop, nil
}

// localPath resolves a module source to an absolute file path. Only local
// files can be watched.
func localPath(source string) (string, error) {
	if u, err := url.Parse(source); err == nil && len(u.Scheme) > 1 {
		if u.Scheme != "file" {
			return "", fmt.Errorf("cannot watch %s: not a local file", source)
		}
		source = u.Path
	}
	abs, err := filepath.Abs(source)
	if err != nil {
		return "", err
	}
	return filepath.Clean(abs), nil
}

func moduleBase(source string) string {
	base := filepath.Base(source)
	if i := strings.IndexAny(base, "?#"); i >= 0 {
		base = base[:i]
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}

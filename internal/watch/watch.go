// Package watch re-runs an export whenever its input file changes.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Run calls fn once, then again each time path is written or replaced,
// until ctx is cancelled. Bursts of events within debounce trigger a single
// call. Errors from fn are logged and do not stop the watch.
func Run(ctx context.Context, path string, debounce time.Duration, log *zap.Logger, fn func() error) error {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("watch")

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory: editors often save by writing a new file and
	// renaming it over the old one, which drops a watch on the file itself.
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(abs), err)
	}

	run := func() {
		if err := fn(); err != nil {
			log.Error("export failed", zap.String("input", abs), zap.Error(err))
		}
	}
	run()
	log.Info("watching for changes", zap.String("input", abs))

	timer := time.NewTimer(debounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			log.Debug("input event", zap.String("op", event.Op.String()))
			timer.Reset(debounce)

		case <-timer.C:
			log.Info("input changed, exporting", zap.String("input", abs))
			run()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn("watcher error", zap.Error(err))
		}
	}
}

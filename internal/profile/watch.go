package profile

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/soar/padmapper/internal/binding"
)

// reloadDelay coalesces the burst of events an editor produces on save.
const reloadDelay = 200 * time.Millisecond

// Watch reloads the profile at path whenever it changes and hands every
// successfully loaded profile to fn. A profile that fails to load is
// logged and the previous one stays in use. Watch returns when ctx is done.
func (l *Loader) Watch(ctx context.Context, path string, fn func(*binding.Profile)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("profile watcher: %w", err)
	}
	defer w.Close()

	// Editors often replace the file, so watch its directory.
	clean := filepath.Clean(path)
	if err := w.Add(filepath.Dir(clean)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(clean), err)
	}
	l.logger.Info("watching profile", "path", clean)

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != clean {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(reloadDelay)
			} else {
				timer.Reset(reloadDelay)
			}
			fire = timer.C
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			l.logger.Warn("profile watcher", "error", err)
		case <-fire:
			fire = nil
			p, err := l.LoadFile(clean)
			if err != nil {
				l.logger.Error("profile reload failed, keeping the current one", "error", err)
				continue
			}
			l.logger.Info("profile reloaded", "path", clean)
			fn(p)
		}
	}
}

package source

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// Invalidator drops cached results read from a ref.
type Invalidator interface {
	Invalidate(ref string) int
}

// Watch invalidates cached days whenever a feed file under the root is
// written, replaced or removed. It blocks until ctx is cancelled.
//
// The root and every existing feed directory are watched; feed directories
// created later are picked up from their Create event.
func (d *Dir) Watch(ctx context.Context, inv Invalidator) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()

	if err := w.Add(d.root); err != nil {
		return fmt.Errorf("watch %s: %w", d.root, err)
	}
	entries, err := os.ReadDir(d.root)
	if err != nil {
		return fmt.Errorf("read %s: %w", d.root, err)
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		sub := filepath.Join(d.root, e.Name())
		if err := w.Add(sub); err != nil {
			slog.Warn("feed directory not watched", "dir", sub, "error", err)
		}
	}

	slog.Info("feed watcher started", "root", d.root)
	for {
		select {
		case <-ctx.Done():
			slog.Info("feed watcher stopped")
			return nil

		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			d.handleEvent(w, inv, event)

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			slog.Error("feed watcher error", "error", err)
		}
	}
}

func (d *Dir) handleEvent(w *fsnotify.Watcher, inv Invalidator, event fsnotify.Event) {
	if event.Has(fsnotify.Create) && filepath.Dir(event.Name) == d.root {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.Add(event.Name); err != nil {
				slog.Warn("feed directory not watched", "dir", event.Name, "error", err)
			}
			return
		}
	}

	if !strings.HasSuffix(event.Name, FileExt) {
		return
	}
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return
	}

	n := inv.Invalidate(event.Name)
	slog.Debug("feed file changed", "path", event.Name, "op", event.Op.String(), "invalidated", n)
}

package blob

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// EventCallback is called for out-of-band changes in the uploads directory.
// kind is "added" or "removed"; id is the blob file id.
type EventCallback func(kind, id string)

// Watch starts an fsnotify watcher on the uploads root and reports blobs that
// appear or disappear outside the API (an operator pruning disk, a restored
// backup) until ctx is cancelled. Stage documents keep referencing removed
// blobs; the callback is how dashboards learn a reference went dangling.
func Watch(ctx context.Context, store *Store, logger *slog.Logger, cb EventCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(store.Root()); err != nil {
		return err
	}
	logger.Info("blob watcher: started", slog.String("root", store.Root()))

	for {
		select {
		case <-ctx.Done():
			logger.Info("blob watcher: stopped")
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			id := filepath.Base(ev.Name)
			// Ignore in-flight uploads; Put renames them into place.
			if strings.HasPrefix(id, ".") {
				continue
			}
			switch {
			case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				logger.Warn("blob watcher: blob removed out-of-band", slog.String("id", id))
				if cb != nil {
					cb("removed", id)
				}
			case ev.Op&fsnotify.Create != 0:
				logger.Debug("blob watcher: blob added", slog.String("id", id))
				if cb != nil {
					cb("added", id)
				}
			}

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("blob watcher: error", slog.String("error", err.Error()))
		}
	}
}

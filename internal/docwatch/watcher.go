package docwatch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/taskdeck/taskdeck/pkg/cerr"
)

// DebounceInterval is the delay after an fsnotify event before notifying,
// letting a burst of writes settle into a single notification.
const DebounceInterval = 500 * time.Millisecond

// Watcher observes a directory of task documents on local disk and
// invokes a callback when any document changes outside the process,
// for example when a document is edited by hand or synced in.
type Watcher struct {
	dir      string
	onChange func()
}

func New(dir string, onChange func()) *Watcher {
	return &Watcher{dir: dir, onChange: onChange}
}

// Run blocks until ctx is cancelled or the underlying watcher fails.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return cerr.NewError(cerr.Internal, "failed to create document watcher", err)
	}
	defer watcher.Close()

	// The directory appears on the first document write; create it up
	// front so the watch can be established immediately.
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return cerr.NewError(cerr.Internal, "failed to create document directory", err)
	}

	// Watch the directory rather than individual files. Atomic saves
	// (write temp file, rename) change the inode, and directory events
	// catch the rename.
	if err := watcher.Add(w.dir); err != nil {
		return cerr.NewError(cerr.Internal, "failed to watch document directory", err)
	}
	slog.Info("watching task documents", "dir", w.dir)

	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !relevant(event) {
				continue
			}
			slog.Debug("document event", "op", event.Op.String(), "name", event.Name)

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(DebounceInterval, w.onChange)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("document watcher error", "error", err)

		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func relevant(event fsnotify.Event) bool {
	if filepath.Ext(event.Name) != ".yaml" {
		return false
	}
	// Create covers atomic renames landing in the directory.
	return event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Remove) != 0
}

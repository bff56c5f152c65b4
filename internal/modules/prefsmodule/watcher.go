package prefsmodule

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/hashicorp/go-hclog"
	"github.com/kodiview/kodiview/internal/events"
)

// Watcher reloads the preferences file when it changes on disk, so edits
// made outside the API (or by another instance) take effect without a
// restart.
type Watcher struct {
	store   *Store
	bus     events.EventBus
	logger  hclog.Logger
	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewWatcher watches the store's backing file. The parent directory is
// watched rather than the file itself because atomic saves replace the
// inode on every write.
func NewWatcher(store *Store, bus events.EventBus, logger hclog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(filepath.Dir(store.Path())); err != nil {
		fsw.Close()
		return nil, err
	}

	w := &Watcher{
		store:   store,
		bus:     bus,
		logger:  logger.Named("prefs-watcher"),
		watcher: fsw,
		done:    make(chan struct{}),
	}
	go w.run()
	return w, nil
}

func (w *Watcher) run() {
	target := filepath.Clean(w.store.Path())
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if w.store.Reload() {
				w.logger.Info("preferences reloaded from disk")
				if w.bus != nil {
					w.bus.PublishAsync(events.NewEventWithData(events.EventPreferencesReloaded, "module:preferences", "Preferences reloaded", "", map[string]interface{}{
						"path": w.store.Path(),
					}))
				}
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("preferences watcher error", "error", err)
		case <-w.done:
			return
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.watcher.Close()
}

package knowledge

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/inquesthq/inquest/internal/logging"
)

// ReloadFunc is called with the freshly loaded base when the knowledge file
// is successfully reloaded. If it returns an error, the error is logged but
// the watcher continues watching.
type ReloadFunc func(base *Base) error

// WatcherConfig holds configuration for the Watcher.
type WatcherConfig struct {
	// Path is the knowledge-base YAML file to watch
	Path string

	// DebounceMillis is the debounce period in milliseconds.
	// Multiple file change events within this period are coalesced into a
	// single reload. Default: 500ms.
	DebounceMillis int
}

// Watcher watches the knowledge-base file for changes and triggers reloads
// with debouncing, so editor save sequences and atomic writes do not cause
// reload storms.
//
// A file that fails to load during a reload is logged and skipped; the
// previously loaded base stays active.
type Watcher struct {
	config WatcherConfig
	reload ReloadFunc
	logger *logging.Logger

	cancel  context.CancelFunc
	stopped chan struct{}
	ready   chan struct{} // closed once the fsnotify watcher is registered

	mu sync.Mutex
	// debounceTimer coalesces bursts of file change events
	debounceTimer *time.Timer
}

// NewWatcher creates a watcher for the given knowledge file. The reload func
// is invoked with the initial base during Start and again after every
// successful reload.
func NewWatcher(config WatcherConfig, reload ReloadFunc) (*Watcher, error) {
	if config.Path == "" {
		return nil, fmt.Errorf("Path cannot be empty")
	}
	if reload == nil {
		return nil, fmt.Errorf("reload func cannot be nil")
	}
	if config.DebounceMillis == 0 {
		config.DebounceMillis = 500
	}

	return &Watcher{
		config:  config,
		reload:  reload,
		logger:  logging.GetLogger("knowledge.watcher"),
		stopped: make(chan struct{}),
		ready:   make(chan struct{}),
	}, nil
}

// Name implements lifecycle.Component.
func (w *Watcher) Name() string {
	return "knowledge-watcher"
}

// Start loads the initial base, hands it to the reload func, and begins
// watching the file for changes. It returns once the file watch is
// registered, so changes made after Start returns are never missed.
//
// Returns an error if the initial load fails or the reload func rejects the
// initial base.
func (w *Watcher) Start(ctx context.Context) error {
	initial, err := LoadFile(w.config.Path)
	if err != nil {
		return fmt.Errorf("failed to load initial knowledge base: %w", err)
	}
	if err := w.reload(initial); err != nil {
		return fmt.Errorf("initial reload failed: %w", err)
	}

	w.logger.Info("Loaded %d knowledge entries from %s", initial.Len(), w.config.Path)

	watchCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	go w.watchLoop(watchCtx)

	select {
	case <-w.ready:
	case <-ctx.Done():
		cancel()
		return ctx.Err()
	case <-time.After(5 * time.Second):
		cancel()
		return fmt.Errorf("timeout waiting for file watcher to initialize")
	}

	return nil
}

// signalReady closes the ready channel exactly once.
func (w *Watcher) signalReady() {
	w.mu.Lock()
	defer w.mu.Unlock()
	select {
	case <-w.ready:
	default:
		close(w.ready)
	}
}

// watchLoop is the main file watching loop.
func (w *Watcher) watchLoop(ctx context.Context) {
	defer close(w.stopped)
	defer w.signalReady() // unblock Start even on error paths

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		w.logger.Error("Failed to create file watcher: %v", err)
		return
	}
	defer watcher.Close()

	if err := watcher.Add(w.config.Path); err != nil {
		w.logger.Error("Failed to watch %s: %v", w.config.Path, err)
		return
	}

	w.logger.Debug("Watching %s for changes (debounce: %dms)",
		w.config.Path, w.config.DebounceMillis)

	w.signalReady()

	for {
		select {
		case <-ctx.Done():
			w.logger.Debug("Context cancelled, stopping watch loop")
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}

			// Write covers in-place saves; Create, Rename, and Remove cover
			// atomic writes where the old file is unlinked or renamed away
			// before the new file appears under the watched path.
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}

			// After a rename or remove the watched inode is gone, so the
			// watch must be re-added against the new file.
			if event.Op&(fsnotify.Rename|fsnotify.Remove) != 0 {
				// Small delay to let the rename or recreate complete
				time.Sleep(50 * time.Millisecond)
				if err := watcher.Add(w.config.Path); err != nil {
					w.logger.Warn("Failed to re-add watch after %s: %v", event.Op, err)
				}
			}
			w.handleFileChange(ctx)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("Watcher error: %v", err)
		}
	}
}

// handleFileChange resets the debounce timer; the reload runs only after the
// debounce period passes without further events.
func (w *Watcher) handleFileChange(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(
		time.Duration(w.config.DebounceMillis)*time.Millisecond,
		func() {
			w.reloadBase(ctx)
		},
	)
}

// reloadBase reloads the knowledge file and hands the new base to the reload
// func. Load failures keep the previous base active.
func (w *Watcher) reloadBase(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	base, err := LoadFile(w.config.Path)
	if err != nil {
		w.logger.Warn("Failed to reload knowledge base (keeping previous): %v", err)
		return
	}

	if err := w.reload(base); err != nil {
		w.logger.Warn("Reload func rejected new base (continuing to watch): %v", err)
		return
	}

	w.logger.Info("Knowledge base reloaded: %d entries", base.Len())
}

// Stop implements lifecycle.Component. It cancels the watch loop and waits
// for it to exit or for the context to run out.
func (w *Watcher) Stop(ctx context.Context) error {
	if w.cancel == nil {
		return nil
	}
	w.cancel()

	select {
	case <-w.stopped:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("timeout waiting for watcher to stop: %w", ctx.Err())
	}
}

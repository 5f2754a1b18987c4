package store

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"screenmatch/internal/errors"
)

// FileWatcher watches the store's backing file and reloads the in-memory
// collection when an external tool rewrites it. Events are debounced so an
// editor's write-then-rename sequence triggers a single reload.
type FileWatcher struct {
	mu sync.Mutex

	store       *FileStore
	lastModTime time.Time

	fsWatcher     *fsnotify.Watcher
	debounceDelay time.Duration
	debounceTimer *time.Timer

	stopChan   chan struct{}
	reloadChan chan struct{}

	logger  *errors.Logger
	running bool
}

// NewFileWatcher creates a watcher for the given FileStore.
func NewFileWatcher(store *FileStore, debounceDelay time.Duration, logger *errors.Logger) *FileWatcher {
	if debounceDelay == 0 {
		debounceDelay = time.Second
	}
	return &FileWatcher{
		store:         store,
		debounceDelay: debounceDelay,
		stopChan:      make(chan struct{}),
		reloadChan:    make(chan struct{}, 1), // Buffered to prevent blocking
		logger:        logger,
	}
}

// Start begins watching the store file for changes.
func (fw *FileWatcher) Start() error {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	if fw.running {
		return fmt.Errorf("store file watcher is already running")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	fw.fsWatcher = watcher

	if stat, err := os.Stat(fw.store.Path()); err == nil {
		fw.lastModTime = stat.ModTime()
	}

	// Watch the directory rather than the file: atomic replaces (rename onto
	// the file) would otherwise detach the watch.
	dir := filepath.Dir(fw.store.Path())
	if err := fw.fsWatcher.Add(dir); err != nil {
		fw.fsWatcher.Close()
		return fmt.Errorf("failed to watch store directory %s: %w", dir, err)
	}

	fw.running = true
	go fw.watchLoop()

	if fw.logger != nil {
		fw.logger.Info("Store file watcher started",
			"path", fw.store.Path(),
			"debounce_delay", fw.debounceDelay)
	}
	return nil
}

// Stop stops the watcher.
func (fw *FileWatcher) Stop() error {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	if !fw.running {
		return nil
	}

	close(fw.stopChan)
	if fw.debounceTimer != nil {
		fw.debounceTimer.Stop()
	}
	if err := fw.fsWatcher.Close(); err != nil {
		if fw.logger != nil {
			fw.logger.LogError(err, "Failed to close file system watcher")
		}
		return err
	}

	fw.running = false
	if fw.logger != nil {
		fw.logger.Info("Store file watcher stopped")
	}
	return nil
}

func (fw *FileWatcher) watchLoop() {
	for {
		select {
		case event, ok := <-fw.fsWatcher.Events:
			if !ok {
				return
			}
			if fw.shouldProcessEvent(event) {
				fw.scheduleReload()
			}

		case err, ok := <-fw.fsWatcher.Errors:
			if !ok {
				return
			}
			if fw.logger != nil {
				fw.logger.LogError(err, "Store file watcher error")
			}

		case <-fw.reloadChan:
			if fw.hasFileChanged() {
				if fw.logger != nil {
					fw.logger.Info("Store file changed externally, reloading",
						"path", fw.store.Path())
				}
				fw.store.Reload()
			}

		case <-fw.stopChan:
			return
		}
	}
}

func (fw *FileWatcher) shouldProcessEvent(event fsnotify.Event) bool {
	if filepath.Base(event.Name) != filepath.Base(fw.store.Path()) {
		return false
	}
	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0
}

// hasFileChanged compares the file's modification time against the last one
// seen, which filters out the store's own writes arriving after a reload.
func (fw *FileWatcher) hasFileChanged() bool {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	stat, err := os.Stat(fw.store.Path())
	if err != nil {
		if os.IsNotExist(err) && !fw.lastModTime.IsZero() {
			fw.lastModTime = time.Time{}
			return true
		}
		return false
	}
	if fw.lastModTime.IsZero() || stat.ModTime().After(fw.lastModTime) {
		fw.lastModTime = stat.ModTime()
		return true
	}
	return false
}

func (fw *FileWatcher) scheduleReload() {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	if fw.debounceTimer != nil {
		fw.debounceTimer.Stop()
	}
	fw.debounceTimer = time.AfterFunc(fw.debounceDelay, func() {
		select {
		case fw.reloadChan <- struct{}{}:
		default:
			// Reload already scheduled
		}
	})
}

// IsRunning reports whether the watcher is active.
func (fw *FileWatcher) IsRunning() bool {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	return fw.running
}

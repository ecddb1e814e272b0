package session

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"jobscout/internal/errors"

	"github.com/fsnotify/fsnotify"
)

// tokenFileWatcher watches the session token file so that a sign-in or
// sign-out performed by another process is reflected here. The file may not
// exist yet (signed out), so the containing directory is watched as well.
type tokenFileWatcher struct {
	mu sync.RWMutex

	file string

	lastModTime time.Time
	fileExisted bool

	fsWatcher     *fsnotify.Watcher
	debounceDelay time.Duration
	debounceTimer *time.Timer

	stopChan   chan struct{}
	reloadChan chan struct{}

	changeCallback func()
	logger         *errors.Logger

	running bool
}

func newTokenFileWatcher(file string, debounceDelay time.Duration, changeCallback func(), logger *errors.Logger) (*tokenFileWatcher, error) {
	if debounceDelay == 0 {
		debounceDelay = time.Second
	}

	return &tokenFileWatcher{
		file:           file,
		debounceDelay:  debounceDelay,
		stopChan:       make(chan struct{}),
		reloadChan:     make(chan struct{}, 1), // Buffered to prevent blocking
		changeCallback: changeCallback,
		logger:         logger,
	}, nil
}

// Start begins watching the token file for changes
func (tw *tokenFileWatcher) Start() error {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	if tw.running {
		return fmt.Errorf("session file watcher is already running")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	tw.fsWatcher = watcher

	tw.recordModTime()

	if err := tw.addToWatcher(); err != nil {
		tw.cleanupWatcher()
		return err
	}

	tw.running = true
	go tw.watchLoop()

	if tw.logger != nil {
		tw.logger.Debug("Session file watcher started",
			"file", tw.file,
			"debounce_delay", tw.debounceDelay)
	}
	return nil
}

// Stop stops the token file watcher
func (tw *tokenFileWatcher) Stop() error {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	if !tw.running {
		return nil
	}

	close(tw.stopChan)

	if tw.debounceTimer != nil {
		tw.debounceTimer.Stop()
	}

	if tw.fsWatcher != nil {
		if err := tw.fsWatcher.Close(); err != nil {
			if tw.logger != nil {
				tw.logger.LogError(err, "Failed to close file system watcher")
			}
			return err
		}
	}

	tw.running = false

	if tw.logger != nil {
		tw.logger.Debug("Session file watcher stopped")
	}

	return nil
}

// IsRunning returns whether the watcher is currently running
func (tw *tokenFileWatcher) IsRunning() bool {
	tw.mu.RLock()
	defer tw.mu.RUnlock()
	return tw.running
}

func (tw *tokenFileWatcher) cleanupWatcher() {
	if tw.fsWatcher != nil {
		if closeErr := tw.fsWatcher.Close(); closeErr != nil && tw.logger != nil {
			tw.logger.LogError(closeErr, "Failed to close file watcher during cleanup")
		}
	}
}

// addToWatcher watches the file and its directory. The directory watch
// catches atomic writes (rename operations) and creation of a missing file.
func (tw *tokenFileWatcher) addToWatcher() error {
	dir := filepath.Dir(tw.file)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create session directory %s: %w", dir, err)
	}
	if err := tw.fsWatcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch directory %s: %w", dir, err)
	}

	if err := tw.fsWatcher.Add(tw.file); err != nil && !os.IsNotExist(err) {
		if tw.logger != nil {
			tw.logger.Warn("Failed to watch session file directly",
				"file", tw.file, "error", err)
		}
	}

	return nil
}

// recordModTime stores the current modification state of the token file
func (tw *tokenFileWatcher) recordModTime() {
	if stat, err := os.Stat(tw.file); err == nil {
		tw.lastModTime = stat.ModTime()
		tw.fileExisted = true
	} else {
		tw.fileExisted = false
	}
}

// hasFileChanged checks if the token file has changed since last check
func (tw *tokenFileWatcher) hasFileChanged() bool {
	stat, err := os.Stat(tw.file)
	if err != nil {
		if os.IsNotExist(err) && tw.fileExisted {
			// File was deleted (sign-out)
			tw.fileExisted = false
			tw.lastModTime = time.Time{}
			return true
		}
		return false
	}

	if !tw.fileExisted || stat.ModTime().After(tw.lastModTime) {
		tw.fileExisted = true
		tw.lastModTime = stat.ModTime()
		return true
	}

	return false
}

// watchLoop is the main event loop for file watching
func (tw *tokenFileWatcher) watchLoop() {
	for {
		select {
		case event, ok := <-tw.fsWatcher.Events:
			if !ok {
				return
			}

			if tw.shouldProcessEvent(event) {
				tw.scheduleReload()
			}

		case err, ok := <-tw.fsWatcher.Errors:
			if !ok {
				return
			}
			if tw.logger != nil {
				tw.logger.LogError(err, "Session file watcher error")
			}

		case <-tw.reloadChan:
			// Debounced reload trigger
			if tw.hasFileChanged() {
				if tw.logger != nil {
					tw.logger.Debug("Session file changed externally")
				}
				tw.changeCallback()
			}

		case <-tw.stopChan:
			return
		}
	}
}

// shouldProcessEvent determines if a file system event concerns the token file
func (tw *tokenFileWatcher) shouldProcessEvent(event fsnotify.Event) bool {
	if event.Name != tw.file && filepath.Base(event.Name) != filepath.Base(tw.file) {
		return false
	}

	// Process write, create, rename, and remove events
	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) != 0
}

// scheduleReload schedules a debounced reload
func (tw *tokenFileWatcher) scheduleReload() {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	if tw.debounceTimer != nil {
		tw.debounceTimer.Stop()
	}

	tw.debounceTimer = time.AfterFunc(tw.debounceDelay, func() {
		select {
		case tw.reloadChan <- struct{}{}:
			// Reload scheduled
		default:
			// Channel is full, reload already scheduled
		}
	})
}

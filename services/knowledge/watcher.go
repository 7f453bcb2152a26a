// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package knowledge

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// RebuildHandler is called with the result of each triggered rebuild.
type RebuildHandler func(result *AnalysisResult, err error)

// WatcherOptions configures the Watcher.
type WatcherOptions struct {
	// DebounceWindow is how long to wait for more changes before
	// rebuilding. Default: 500ms
	DebounceWindow time.Duration

	// BufferSize is the size of the change buffer channel.
	// Default: 1000
	BufferSize int
}

// DefaultWatcherOptions returns sensible defaults.
func DefaultWatcherOptions() WatcherOptions {
	return WatcherOptions{
		DebounceWindow: 500 * time.Millisecond,
		BufferSize:     1000,
	}
}

// watchIgnoredDirs are never watched. Build output and dependency trees
// churn constantly and are excluded from analysis anyway.
var watchIgnoredDirs = []string{
	".git", "node_modules", "dist", "build", "vendor", "coverage", "out", "__pycache__", ".idea", ".vscode",
}

// Watcher rebuilds the knowledge graph when watched source files change.
//
// # Description
//
// Watches the engine's project root recursively and batches change
// events with a debounce window, so a burst of editor writes triggers
// one rebuild rather than many. Each rebuild constructs a complete
// fresh graph and passes it to the handler.
//
// # Thread Safety
//
// Safe for concurrent use. The handler is called from a single
// goroutine.
type Watcher struct {
	engine   *Engine
	watcher  *fsnotify.Watcher
	handler  RebuildHandler
	debounce time.Duration
	logger   *slog.Logger

	changes  chan string
	done     chan struct{}
	stopOnce sync.Once

	mu       sync.RWMutex
	watching bool
}

// NewWatcher creates a watcher driving rebuilds of the given engine.
//
// # Inputs
//
//   - engine: Configured engine; its Root is the watched directory.
//   - handler: Called with each rebuild result. Must not be nil.
//   - opts: Optional configuration (nil uses defaults).
//
// # Outputs
//
//   - *Watcher: Ready to use (call Start to begin watching).
//   - error: Non-nil if the underlying watcher could not be created.
func NewWatcher(engine *Engine, handler RebuildHandler, opts *WatcherOptions) (*Watcher, error) {
	if opts == nil {
		defaults := DefaultWatcherOptions()
		opts = &defaults
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		engine:   engine,
		watcher:  watcher,
		handler:  handler,
		debounce: opts.DebounceWindow,
		logger:   engine.logger,
		changes:  make(chan string, opts.BufferSize),
		done:     make(chan struct{}),
	}, nil
}

// Start begins watching and rebuilding.
//
// Spawns two goroutines: an event processor converting fsnotify events
// into change notifications, and a debouncer that triggers rebuilds.
// Both exit when Stop is called or the context is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.watching {
		w.mu.Unlock()
		return nil
	}
	w.watching = true
	w.mu.Unlock()

	if err := w.addRecursive(w.engine.cfg.Root); err != nil {
		return err
	}

	go w.processEvents(ctx)
	go w.debounceLoop(ctx)

	return nil
}

// Stop stops the watcher.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		w.watcher.Close()

		w.mu.Lock()
		w.watching = false
		w.mu.Unlock()
	})
}

// IsWatching returns true while the watcher is active.
func (w *Watcher) IsWatching() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.watching
}

// addRecursive adds a directory and all subdirectories to the watch list.
func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if w.shouldIgnore(path) {
			return filepath.SkipDir
		}
		return w.watcher.Add(path)
	})
}

// shouldIgnore checks whether a path falls under an ignored directory.
func (w *Watcher) shouldIgnore(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") && base != "." {
		return true
	}
	for _, dir := range watchIgnoredDirs {
		if base == dir || strings.Contains(path, string(filepath.Separator)+dir+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// relevantChange reports whether an event path should trigger a rebuild.
// Only files the analyzers understand matter.
func (w *Watcher) relevantChange(path string) bool {
	if w.shouldIgnore(path) {
		return false
	}
	_, err := w.engine.registry.ForFile(path)
	return err == nil
}

// processEvents converts fsnotify events into change notifications.
func (w *Watcher) processEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			// New directories join the watch list immediately.
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if !w.shouldIgnore(event.Name) {
						_ = w.watcher.Add(event.Name)
					}
					continue
				}
			}

			if !w.relevantChange(event.Name) {
				continue
			}

			select {
			case w.changes <- event.Name:
			default:
				// Buffer full; the pending rebuild covers this change too.
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("file watcher error", "error", err)
		}
	}
}

// debounceLoop batches changes and rebuilds after the window expires.
func (w *Watcher) debounceLoop(ctx context.Context) {
	var pending int
	var timer *time.Timer
	var timerC <-chan time.Time

	rebuild := func() {
		if pending == 0 {
			return
		}
		w.logger.Info("source changes detected, rebuilding graph", "changes", pending)
		pending = 0
		result, err := w.engine.Construct(ctx)
		if w.handler != nil {
			w.handler(result, err)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case <-w.changes:
			pending++
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				timer.Reset(w.debounce)
			}

		case <-timerC:
			timer = nil
			timerC = nil
			rebuild()
		}
	}
}

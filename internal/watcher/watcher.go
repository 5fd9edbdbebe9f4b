// Package watcher reloads snippet bundles when their files change on
// disk.
package watcher

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"expandd/internal/logging"
	"expandd/internal/snippet"
)

// Applier receives per-file trigger diffs. The expansion engine
// implements it.
type Applier interface {
	ApplySourceDiff(file string, added []snippet.Snippet, removed []string)
	SourceTriggers(file string) []string
}

// Watcher monitors snippet directories and pushes reload diffs to an
// Applier once a changed file has settled.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	dirs      []string
	debounce  time.Duration
	applier   Applier
	log       *logging.Logger

	// State tracking: path -> time of last observed write.
	stateMu sync.Mutex
	dirty   map[string]time.Time
	gone    map[string]bool

	done chan struct{}
	wg   sync.WaitGroup
}

// New creates a watcher over the given snippet directories. Diffs are
// applied after a file has been quiet for the debounce interval.
func New(dirs []string, debounce time.Duration, applier Applier) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		fsWatcher: fsWatcher,
		dirs:      dirs,
		debounce:  debounce,
		applier:   applier,
		log:       logging.Default().WithComponent("watcher"),
		dirty:     make(map[string]time.Time),
		gone:      make(map[string]bool),
		done:      make(chan struct{}),
	}, nil
}

// Start begins watching. Missing directories are logged and skipped so
// a user can create them later without restarting; they are not picked
// up until restart, matching initial load behavior.
func (w *Watcher) Start() error {
	watched := 0
	for _, dir := range w.dirs {
		abs, err := filepath.Abs(dir)
		if err != nil {
			return err
		}
		if _, err := os.Stat(abs); err != nil {
			w.log.Warn("skipping missing snippet directory", "dir", dir, "error", err)
			continue
		}
		if err := w.fsWatcher.Add(abs); err != nil {
			return err
		}
		watched++
	}

	w.log.Info("watching snippet directories", "count", watched, "debounce", w.debounce)

	w.wg.Add(2)
	go w.eventLoop()
	go w.debounceLoop()

	return nil
}

// Stop gracefully shuts down the watcher.
func (w *Watcher) Stop() error {
	close(w.done)
	w.wg.Wait()
	return w.fsWatcher.Close()
}

// eventLoop translates raw fsnotify events into pending state.
func (w *Watcher) eventLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if !isBundle(event.Name) {
				continue
			}

			switch {
			case event.Op&(fsnotify.Write|fsnotify.Create) != 0:
				w.stateMu.Lock()
				w.dirty[event.Name] = time.Now()
				delete(w.gone, event.Name)
				w.stateMu.Unlock()

			case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				w.stateMu.Lock()
				delete(w.dirty, event.Name)
				w.gone[event.Name] = true
				w.stateMu.Unlock()
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("watch error", "error", err)
		}
	}
}

// debounceLoop periodically flushes files that have settled.
func (w *Watcher) debounceLoop() {
	defer w.wg.Done()

	tick := w.debounce / 2
	if tick < 10*time.Millisecond {
		tick = 10 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			return
		case now := <-ticker.C:
			w.flushStable(now)
		}
	}
}

// flushStable applies diffs for files quiet past the debounce window
// and for removed files. File I/O happens outside the state lock so
// eventLoop never blocks on a slow parse.
func (w *Watcher) flushStable(now time.Time) {
	threshold := now.Add(-w.debounce)

	var stable, removed []string
	w.stateMu.Lock()
	for path, lastWrite := range w.dirty {
		if lastWrite.Before(threshold) {
			stable = append(stable, path)
			delete(w.dirty, path)
		}
	}
	for path := range w.gone {
		removed = append(removed, path)
		delete(w.gone, path)
	}
	w.stateMu.Unlock()

	for _, path := range removed {
		old := w.applier.SourceTriggers(path)
		if len(old) == 0 {
			continue
		}
		w.log.Info("snippet file removed", "path", path, "triggers", len(old))
		w.applier.ApplySourceDiff(path, nil, old)
	}

	for _, path := range stable {
		w.reloadFile(path)
	}
}

// reloadFile re-parses a changed bundle and diffs its trigger set
// against what the applier currently holds for that file.
func (w *Watcher) reloadFile(path string) {
	result, err := snippet.ParseFile(path)
	if err != nil {
		// Keep the previous registrations rather than dropping
		// triggers over a transient read failure.
		w.log.Warn("cannot reload snippet file", "path", path, "error", err)
		return
	}
	for _, perr := range result.Errors {
		w.log.Warn("snippet rejected during reload", "error", perr.Error())
	}

	var added []snippet.Snippet
	current := make(map[string]bool)
	for _, s := range result.Snippets {
		if s.Trigger == "" {
			continue
		}
		added = append(added, s)
		current[s.Trigger] = true
	}

	var stale []string
	for _, trigger := range w.applier.SourceTriggers(path) {
		if !current[trigger] {
			stale = append(stale, trigger)
		}
	}

	w.log.Info("snippet file reloaded",
		"path", path, "triggers", len(added), "removed", len(stale))
	w.applier.ApplySourceDiff(path, added, stale)
}

func isBundle(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".md")
}

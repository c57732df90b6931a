package livesync

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DirWatcher watches the diary and notes directories and nudges the
// main loop when something changes. It only requests an early
// reconciliation tick; all merging still happens on the tick path, so
// the single-writer model holds.
type DirWatcher struct {
	watcher  *fsnotify.Watcher
	dirs     map[string]struct{}
	onChange func(string)
	mu       sync.RWMutex
	done     chan struct{}
}

func NewDirWatcher(onChange func(string)) (*DirWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	dw := &DirWatcher{
		watcher:  watcher,
		dirs:     make(map[string]struct{}),
		onChange: onChange,
		done:     make(chan struct{}),
	}

	go dw.watch()
	return dw, nil
}

func (dw *DirWatcher) AddDir(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	dw.mu.Lock()
	defer dw.mu.Unlock()

	if _, exists := dw.dirs[absPath]; exists {
		return nil
	}

	if err := dw.watcher.Add(absPath); err != nil {
		return err
	}

	dw.dirs[absPath] = struct{}{}
	return nil
}

func (dw *DirWatcher) watch() {
	debounce := make(map[string]*time.Timer)

	for {
		select {
		case event, ok := <-dw.watcher.Events:
			if !ok {
				return
			}

			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				if filepath.Ext(event.Name) != ".md" {
					continue
				}
				// Editors fire bursts of events per save; coalesce them.
				if timer, exists := debounce[event.Name]; exists {
					timer.Stop()
				}
				name := event.Name
				debounce[name] = time.AfterFunc(100*time.Millisecond, func() {
					if dw.onChange != nil {
						dw.onChange(name)
					}
				})
			}

		case _, ok := <-dw.watcher.Errors:
			if !ok {
				return
			}

		case <-dw.done:
			return
		}
	}
}

func (dw *DirWatcher) Close() error {
	close(dw.done)
	return dw.watcher.Close()
}

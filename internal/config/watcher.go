// watcher.go — Hot reload for scenario profiles.
// Long soak runs benefit from pattern edits taking effect without a
// restart: the watcher re-reads the profile on every write and hands
// the result to the registered callback. Reload failures keep the last
// good profile and warn.
package config

import (
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/arun-kumar-codes/testcache/internal/util"
)

// ScenarioWatcher watches one scenario file and reports reloads.
type ScenarioWatcher struct {
	watcher *fsnotify.Watcher
	path    string
	done    chan struct{}
}

// WatchScenario starts watching path and invokes onReload with each
// successfully re-parsed profile. The parent directory is watched, not
// the file itself, so editors that replace the file (rename-over) keep
// triggering events.
func WatchScenario(path string, onReload func(*Scenario)) (*ScenarioWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("could not create scenario watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("could not watch scenario directory: %w", err)
	}

	sw := &ScenarioWatcher{
		watcher: watcher,
		path:    path,
		done:    make(chan struct{}),
	}

	util.SafeGo(func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != filepath.Clean(path) {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				scenario, err := LoadScenario(path)
				if err != nil {
					warnf("scenario reload skipped: %v", err)
					continue
				}
				onReload(scenario)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				warnf("scenario watcher: %v", err)
			case <-sw.done:
				return
			}
		}
	})

	return sw, nil
}

// Close stops the watcher. Safe to call once.
func (sw *ScenarioWatcher) Close() error {
	close(sw.done)
	return sw.watcher.Close()
}

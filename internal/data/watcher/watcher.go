// Package watcher re-triggers rendering when an event dump changes on disk.
package watcher

import (
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/cfnplot/cfnplot/internal/util"
)

const debounceWindow = 200 * time.Millisecond

// FileWatcher watches a single file and coalesces bursts of write events
// into one notification.
type FileWatcher struct {
	watcher *fsnotify.Watcher
	path    string
	events  chan struct{}
	done    chan struct{}
}

// New starts watching the given file. The containing directory is watched so
// editors that replace the file atomically still trigger.
func New(path string) (*FileWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return nil, err
	}

	fw := &FileWatcher{
		watcher: watcher,
		path:    abs,
		events:  make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	go fw.processEvents()
	return fw, nil
}

func (fw *FileWatcher) processEvents() {
	var debounce *time.Timer
	fire := func() {
		select {
		case fw.events <- struct{}{}:
		default:
		}
	}

	for {
		select {
		case ev, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != fw.path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(debounceWindow, fire)

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			util.LogError("File monitoring error: " + err.Error())

		case <-fw.done:
			if debounce != nil {
				debounce.Stop()
			}
			return
		}
	}
}

// Events signals once per coalesced change of the watched file.
func (fw *FileWatcher) Events() <-chan struct{} {
	return fw.events
}

func (fw *FileWatcher) Close() error {
	close(fw.done)
	return fw.watcher.Close()
}

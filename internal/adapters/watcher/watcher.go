// Package watcher reports changes to the files a plan depends on.
package watcher

import (
	"context"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/fsnotify/fsnotify"
	"go.trai.ch/ripple/internal/core/domain"
	"go.trai.ch/ripple/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Watcher = (*Watcher)(nil)

const eventChannelBuffer = 100

// Watcher implements ports.Watcher using fsnotify. The set of watched
// directories is fixed when Start is called; directories created later are not
// picked up.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	logger    ports.Logger
	events    chan ports.WatchEvent
}

// NewWatcher creates a new file system watcher.
func NewWatcher(logger ports.Logger) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrWatchFailed.Error())
	}
	return &Watcher{
		fsWatcher: fsWatcher,
		logger:    logger,
		events:    make(chan ports.WatchEvent, eventChannelBuffer),
	}, nil
}

// Start watches the directories covering every path. Paths may be files,
// directories or glob patterns. Directories that do not exist are skipped.
func (w *Watcher) Start(ctx context.Context, paths []string) error {
	for _, dir := range watchDirs(paths) {
		if err := w.fsWatcher.Add(dir); err != nil {
			return zerr.With(zerr.Wrap(err, domain.ErrWatchFailed.Error()), "dir", dir)
		}
	}

	go w.processEvents(ctx)

	return nil
}

// Stop stops the watcher and releases all resources.
func (w *Watcher) Stop() error {
	return w.fsWatcher.Close()
}

// Events returns an iterator of file system events. It ends when the watcher
// stops or the context passed to Start is done.
func (w *Watcher) Events() iter.Seq[ports.WatchEvent] {
	return func(yield func(ports.WatchEvent) bool) {
		for event := range w.events {
			if !yield(event) {
				return
			}
		}
	}
}

// watchDirs maps paths to the sorted set of existing directories to watch.
//
// A file is covered by its directory. A directory is covered with every
// directory below it. A glob pattern is covered from the deepest directory
// without wildcards, with the tree below it when a wildcard names a directory.
func watchDirs(paths []string) []string {
	set := make(map[string]struct{}, len(paths))
	for _, path := range paths {
		path = filepath.Clean(path)

		if prefix, recursive, ok := globBase(path); ok {
			if recursive {
				addTree(set, prefix)
			} else {
				addDir(set, prefix)
			}
			continue
		}

		if info, err := os.Stat(path); err == nil && info.IsDir() {
			addTree(set, path)
			continue
		}
		addDir(set, filepath.Dir(path))
	}

	dirs := make([]string, 0, len(set))
	for dir := range set {
		dirs = append(dirs, dir)
	}
	slices.Sort(dirs)
	return dirs
}

// globBase splits a glob pattern into the directory before its first wildcard
// and whether wildcards continue into directory names. It reports false for
// paths without wildcards.
func globBase(pattern string) (string, bool, bool) {
	i := strings.IndexAny(pattern, "*?[")
	if i < 0 {
		return "", false, false
	}
	prefix := filepath.Dir(pattern[:i+1])
	recursive := strings.ContainsRune(pattern[i:], filepath.Separator)
	return prefix, recursive, true
}

func addDir(set map[string]struct{}, dir string) {
	if info, err := os.Stat(dir); err == nil && info.IsDir() {
		set[dir] = struct{}{}
	}
}

// addTree adds dir and every directory below it. Unreadable subtrees are skipped.
func addTree(set map[string]struct{}, dir string) {
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			return fs.SkipDir
		}
		if d.IsDir() {
			set[path] = struct{}{}
		}
		return nil
	})
}

func (w *Watcher) processEvents(ctx context.Context) {
	defer close(w.events)

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}

			watchEvent, ok := convertEvent(event)
			if !ok {
				continue
			}

			select {
			case w.events <- watchEvent:
			case <-ctx.Done():
				return
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher: file system error: " + err.Error())
		}
	}
}

// convertEvent maps an fsnotify event to a ports.WatchEvent.
// Chmod-only events are dropped.
func convertEvent(event fsnotify.Event) (ports.WatchEvent, bool) {
	var op ports.WatchOp
	switch {
	case event.Has(fsnotify.Write):
		op = ports.OpWrite
	case event.Has(fsnotify.Create):
		op = ports.OpCreate
	case event.Has(fsnotify.Remove):
		op = ports.OpRemove
	case event.Has(fsnotify.Rename):
		op = ports.OpRename
	default:
		return ports.WatchEvent{}, false
	}
	return ports.WatchEvent{Path: event.Name, Operation: op}, true
}

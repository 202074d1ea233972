package fswatch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/sidkik/casync-sync/pkg/errors"
)

var fs = afero.NewOsFs()

// Watch watches the archive index at `index`. It sends an event on the
// returned channel whenever the index is written, replaced, or removed.
// Bursts of changes are combined into a single event. The watcher is closed
// when `ctx` is cancelled.
func Watch(ctx context.Context, index string) (<-chan struct{}, error) {
	pathsToWatch, err := getPathsToWatch(index)
	if err != nil {
		return nil, errors.WithContext(err, "get paths")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.WithContext(err, "create watcher")
	}

	for _, path := range pathsToWatch {
		if err := watcher.Add(path); err != nil {
			// Close the watcher so that we release the file handlers for the
			// previously added paths.
			if err := watcher.Close(); err != nil {
				log.WithError(err).Warn("Failed to close file watcher")
			}

			return nil, errors.WithContext(err, fmt.Sprintf("watch %q", path))
		}
	}

	go func() {
		<-ctx.Done()
		if err := watcher.Close(); err != nil {
			log.WithError(err).Warn("Failed to close file watcher")
		}
	}()
	go func() {
		for err := range watcher.Errors {
			log.WithError(err).WithField("index", index).Debug("File watcher error")
		}
	}()
	return combineUpdates(filterEvents(watcher.Events, filepath.Clean(index))), nil
}

// filterEvents drops events for files other than `path`. The parent
// directory is watched so that replacing the index by rename is noticed, but
// it usually also holds the chunk store, which changes constantly.
func filterEvents(events <-chan fsnotify.Event, path string) <-chan fsnotify.Event {
	filtered := make(chan fsnotify.Event)
	go func() {
		defer close(filtered)
		for event := range events {
			if filepath.Clean(event.Name) == path {
				filtered <- event
			}
		}
	}()
	return filtered
}

func combineUpdates(updates <-chan fsnotify.Event) <-chan struct{} {
	combined := make(chan struct{}, 1)
	go func() {
		for range updates {
			select {
			case combined <- struct{}{}:
			default:
			}
		}
	}()
	return combined
}

func getPathsToWatch(index string) ([]string, error) {
	fi, err := fs.Stat(index)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.FileNotFound{Path: index}
		}
		return nil, errors.WithContext(err, "stat")
	}

	if fi.IsDir() {
		return nil, errors.New("%q is a directory, not an archive index", index)
	}

	// Watch the parent directory as well as the file itself. This way, if the
	// index is removed and re-added we'll notice.
	return []string{index, filepath.Dir(index)}, nil
}

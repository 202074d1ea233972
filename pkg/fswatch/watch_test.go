package fswatch

import (
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sidkik/casync-sync/pkg/errors"
)

func TestGetPathsToWatch(t *testing.T) {
	fs = afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/srv/archives/default.castr", 0755))
	require.NoError(t, afero.WriteFile(fs, "/srv/archives/www.caidx", []byte("index"), 0644))

	paths, err := getPathsToWatch("/srv/archives/www.caidx")
	assert.NoError(t, err)
	assert.Equal(t, []string{"/srv/archives/www.caidx", "/srv/archives"}, paths)

	_, err = getPathsToWatch("/srv/archives/missing.caidx")
	assert.Equal(t, errors.FileNotFound{Path: "/srv/archives/missing.caidx"}, err)

	_, err = getPathsToWatch("/srv/archives/default.castr")
	assert.Error(t, err)
}

func TestFilterEvents(t *testing.T) {
	t.Parallel()

	events := make(chan fsnotify.Event, 3)
	events <- fsnotify.Event{Name: "/srv/archives/default.castr/0a1b/0a1b.cacnk"}
	events <- fsnotify.Event{Name: "/srv/archives/./www.caidx", Op: fsnotify.Create}
	events <- fsnotify.Event{Name: "/srv/archives/docs.caidx"}
	close(events)

	var names []string
	for event := range filterEvents(events, "/srv/archives/www.caidx") {
		names = append(names, event.Name)
	}
	assert.Equal(t, []string{"/srv/archives/./www.caidx"}, names)
}

func TestCombineUpdates(t *testing.T) {
	t.Parallel()

	updates := make(chan fsnotify.Event, 1024)
	addEvents := func(num int) {
		for i := 0; i < num; i++ {
			updates <- fsnotify.Event{}
		}
	}

	// Seed with events.
	numUpdates := 100
	addEvents(numUpdates)
	combined := combineUpdates(updates)

	// Assert that the events are being combined.
	numCombined := countEvents(combined)
	assert.True(t, numCombined < numUpdates,
		"expected less combined events (%d) than %d", numCombined, numUpdates)

	// Add more events.
	addEvents(100)
	<-combined
}

func countEvents(c <-chan struct{}) (n int) {
	// Block until the first event.
	<-c
	n++

	// Count the number of events until there hasn't been any new events in 500
	// milliseconds.
	for {
		select {
		case <-c:
			n++
		case <-time.After(500 * time.Millisecond):
			return n
		}
	}
}

package run

import (
	"context"
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/gofrs/flock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sidkik/casync-sync/cmd/util"
	"github.com/sidkik/casync-sync/pkg/casync"
	"github.com/sidkik/casync-sync/pkg/errors"
)

func TestRunAlreadyLocked(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "targets.json")

	other := flock.New(configPath + ".lock")
	locked, err := other.TryLock()
	require.NoError(t, err)
	require.True(t, locked)
	defer other.Unlock()

	err = run(context.Background(), configPath, "", casync.New("", 0))
	assert.IsType(t, errors.FriendlyError{}, err)
	assert.Contains(t, err.Error(), "already running")
}

func TestRunNoTargets(t *testing.T) {
	checkCasyncVersion = func(context.Context, util.Versioner) error { return nil }
	defer func() { checkCasyncVersion = util.CheckCasyncVersion }()

	configPath := filepath.Join(t.TempDir(), "targets.json")
	require.NoError(t, ioutil.WriteFile(configPath, []byte(`[{"interval": 1000}]`), 0644))

	err := run(context.Background(), configPath, "", casync.New("", 0))
	assert.IsType(t, errors.FriendlyError{}, err)

	// The lock is released when the daemon exits.
	lock := flock.New(configPath + ".lock")
	locked, err := lock.TryLock()
	require.NoError(t, err)
	assert.True(t, locked)
	require.NoError(t, lock.Unlock())
}

func TestRunStopsOnCancel(t *testing.T) {
	checkCasyncVersion = func(context.Context, util.Versioner) error { return nil }
	defer func() { checkCasyncVersion = util.CheckCasyncVersion }()

	dir := t.TempDir()
	configPath := filepath.Join(dir, "targets.json")
	config := `[{"interval": 3600000, "index": "` + filepath.Join(dir, "missing.caidx") +
		`", "destination": "` + filepath.Join(dir, "www") + `"}]`
	require.NoError(t, ioutil.WriteFile(configPath, []byte(config), 0644))

	// The casync binary doesn't exist, so every operation fails quickly.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := run(ctx, configPath, "", casync.New(filepath.Join(dir, "casync"), 0))
	assert.NoError(t, err)
}

package sync

import (
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/sidkik/casync-sync/pkg/casync"
	"github.com/sidkik/casync-sync/pkg/config"
	"github.com/sidkik/casync-sync/pkg/errors"
)

// Mocked out for unit testing.
var fs = afero.NewOsFs()

// destinationOptions are used when digesting the destination directory. The
// timestamp granularity has to match the options used when extracting and
// making archives, otherwise digests of identical trees won't compare equal.
var destinationOptions = casync.Options{casync.TwoSecondTime}

// primaryOptions are used for every operation on the primary archive. If the
// target doesn't configure a store, casync derives it from the index.
func primaryOptions(target config.Target) casync.Options {
	if target.Store == "" {
		return destinationOptions.Append()
	}
	return casync.Options{casync.Store(target.Store)}.Append(destinationOptions...)
}

// backupOptions are used for every operation on the backup archive.
func backupOptions(target config.Target) casync.Options {
	return casync.Options{casync.Store(target.BackupStore)}.Append(destinationOptions...)
}

// checkPullDestination checks that an archive can be extracted into `dir`.
// The destination is never created: a missing destination usually means
// that the drive it lives on isn't mounted.
func checkPullDestination(dir string) error {
	exists, err := afero.DirExists(fs, dir)
	if err != nil {
		return errors.WithContext(err, "stat")
	}
	if !exists {
		return errors.DirectoryMissing{Path: dir}
	}
	return nil
}

// checkPushSource checks that `dir` can be archived into `index`. Empty
// destinations are refused so that an unmounted drive never overwrites the
// backup.
func checkPushSource(dir, index string) error {
	if err := checkPullDestination(dir); err != nil {
		return err
	}

	empty, err := afero.IsEmpty(fs, dir)
	if err != nil {
		return errors.WithContext(err, "check empty")
	}
	if empty {
		return errors.DirectoryMissing{Path: dir, Reason: "is empty"}
	}

	indexDir := filepath.Dir(index)
	exists, err := afero.DirExists(fs, indexDir)
	if err != nil {
		return errors.WithContext(err, "stat")
	}
	if !exists {
		return errors.DirectoryMissing{Path: indexDir}
	}
	return nil
}

// Package meta reads and writes the metadata file that marks a generation of
// a published archive.
package meta

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/ghodss/yaml"
	"github.com/jonboulle/clockwork"
	"github.com/spf13/afero"

	"github.com/sidkik/casync-sync/pkg/errors"
)

// FileName is the name of the metadata file within an archived directory.
const FileName = ".casync-update-meta"

// Mocked out for unit testing.
var (
	fs    = afero.NewOsFs()
	clock = clockwork.NewRealClock()
)

// Meta identifies a generation of an archive.
type Meta struct {
	// UID identifies the archive.
	UID string `json:"UID"`

	// Timestamp is when the generation was published.
	Timestamp time.Time `json:"timestamp"`
}

// Save writes metadata for a new generation of `uid` into `dir`.
func Save(uid, dir string) (Meta, error) {
	meta := Meta{UID: uid, Timestamp: clock.Now().UTC()}

	// Write JSON rather than YAML so that the file stays readable by
	// consumers that don't use this package.
	metaBytes, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return Meta{}, errors.WithContext(err, "marshal")
	}

	if err := afero.WriteFile(fs, filepath.Join(dir, FileName), metaBytes, 0644); err != nil {
		return Meta{}, errors.WithContext(err, "write")
	}
	return meta, nil
}

// Load reads the metadata in `dir`.
func Load(dir string) (Meta, error) {
	path := filepath.Join(dir, FileName)
	metaBytes, err := afero.ReadFile(fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return Meta{}, errors.FileNotFound{Path: path}
		}
		return Meta{}, errors.WithContext(err, "read")
	}

	var meta Meta
	if err := yaml.Unmarshal(metaBytes, &meta); err != nil {
		return Meta{}, errors.WithContext(err, "parse")
	}
	return meta, nil
}

// Newer returns whether `src` is a more recent generation than `dst`. Both
// must be complete for the comparison to succeed.
func Newer(src, dst Meta) bool {
	return src.UID != "" && !src.Timestamp.IsZero() &&
		dst.UID != "" && !dst.Timestamp.IsZero() &&
		src.Timestamp.After(dst.Timestamp)
}

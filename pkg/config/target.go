package config

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/ghodss/yaml"
	"github.com/sirupsen/logrus"

	"github.com/sidkik/casync-sync/pkg/errors"
)

// DefaultTimeout bounds each casync operation when an entry doesn't set
// `timeout`.
const DefaultTimeout = 30 * time.Minute

// Target describes one directory that's kept in sync with an archive.
type Target struct {
	// Name identifies the target in logs and metrics. It defaults to the
	// destination.
	Name string

	// Index and Store locate the primary archive. Store is optional, in
	// which case casync derives it from the index location.
	Index string
	Store string

	// BackupIndex and BackupStore locate the backup archive. The backup is
	// only used when both are set.
	BackupIndex string
	BackupStore string

	// Destination is the local directory the archive is extracted into.
	Destination string

	Interval time.Duration
	Timeout  time.Duration

	// Watch triggers an extra reconciliation whenever the primary index
	// changes on disk.
	Watch bool
}

// HasBackup returns whether a backup archive is configured.
func (t Target) HasBackup() bool {
	return t.BackupIndex != "" && t.BackupStore != ""
}

// entry is the on-disk format of a Target.
type entry struct {
	Name        string `json:"name,omitempty"`
	Interval    int64  `json:"interval"`
	Index       string `json:"index"`
	Store       string `json:"store,omitempty"`
	BackupIndex string `json:"backupIndex,omitempty"`
	BackupStore string `json:"backupStore,omitempty"`
	Destination string `json:"destination"`
	Timeout     int64  `json:"timeout,omitempty"`
	Watch       bool   `json:"watch,omitempty"`
}

// ParseTargets parses the targets defined in the file at `path`. The file
// holds an array of entries, in either JSON or YAML.
// Invalid entries are logged and skipped so that one bad entry doesn't stop
// the other targets from syncing. An error is only returned if the file
// itself can't be used.
func ParseTargets(log logrus.FieldLogger, path string) ([]Target, error) {
	configBytes, err := readConfig(path)
	if err != nil {
		return nil, err
	}

	var rawEntries []json.RawMessage
	if err := yaml.Unmarshal(configBytes, &rawEntries); err != nil {
		return nil, errors.NewFriendlyError(parseConfigErrTemplate, path, err)
	}

	var targets []Target
	destinations := map[string]string{}
	for i, raw := range rawEntries {
		target, err := parseEntry(log, i, raw)
		if err != nil {
			log.WithError(err).WithField("config", path).Error(
				"Skipping invalid configuration entry")
			continue
		}

		if other, ok := destinations[target.Destination]; ok {
			log.WithFields(logrus.Fields{
				"destination": target.Destination,
				"targets":     []string{other, target.Name},
			}).Warn("Multiple targets share a destination. " +
				"Their reconciliations will never run concurrently, " +
				"but they will overwrite each other's content.")
		}
		destinations[target.Destination] = target.Name
		targets = append(targets, target)
	}
	return targets, nil
}

// maxMillis is the largest millisecond count that fits in a time.Duration.
const maxMillis = math.MaxInt64 / int64(time.Millisecond)

func parseEntry(log logrus.FieldLogger, i int, raw json.RawMessage) (Target, error) {
	var e entry
	if err := yaml.UnmarshalStrict(raw, &e, yaml.DisallowUnknownFields); err != nil {
		return Target{}, errors.ConfigInvalid{Entry: i, Reason: err.Error()}
	}

	switch {
	case e.Interval <= 0:
		if e.Interval == 0 {
			return Target{}, invalidField(i, "interval")
		}
		return Target{}, errors.ConfigInvalid{Entry: i, Reason: "interval must be positive"}
	case e.Index == "":
		return Target{}, invalidField(i, "index")
	case e.Destination == "":
		return Target{}, invalidField(i, "destination")
	case e.Interval > maxMillis:
		return Target{}, errors.ConfigInvalid{Entry: i, Reason: "interval is too large"}
	case e.Timeout < 0:
		return Target{}, errors.ConfigInvalid{Entry: i, Reason: "timeout must be positive"}
	case e.Timeout > maxMillis:
		return Target{}, errors.ConfigInvalid{Entry: i, Reason: "timeout is too large"}
	}

	target := Target{
		Name:     e.Name,
		Interval: time.Duration(e.Interval) * time.Millisecond,
		Timeout:  time.Duration(e.Timeout) * time.Millisecond,
		Watch:    e.Watch,
	}
	if target.Timeout == 0 {
		target.Timeout = DefaultTimeout
	}

	paths := []struct {
		dst *string
		src string
	}{
		{&target.Index, e.Index},
		{&target.Store, e.Store},
		{&target.BackupIndex, e.BackupIndex},
		{&target.BackupStore, e.BackupStore},
		{&target.Destination, e.Destination},
	}
	for _, p := range paths {
		expanded, err := expandPath(p.src)
		if err != nil {
			return Target{}, errors.ConfigInvalid{Entry: i, Reason: err.Error()}
		}
		*p.dst = expanded
	}

	if IsRemote(target.Destination) {
		return Target{}, errors.ConfigInvalid{Entry: i,
			Reason: fmt.Sprintf("destination %q must be a local directory", target.Destination)}
	}

	if target.Name == "" {
		target.Name = target.Destination
	}

	if (target.BackupIndex == "") != (target.BackupStore == "") {
		log.WithField("target", target.Name).Warn(
			"Both backupIndex and backupStore are required to enable backups. " +
				"Backups are disabled for this target.")
		target.BackupIndex = ""
		target.BackupStore = ""
	}
	return target, nil
}

func invalidField(i int, field string) error {
	return errors.ConfigInvalid{Entry: i, Reason: errors.MissingFieldError{Field: field}.Error()}
}

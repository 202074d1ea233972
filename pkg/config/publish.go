package config

import (
	"github.com/ghodss/yaml"

	"github.com/sidkik/casync-sync/pkg/errors"
)

// Publish configures the server side job that archives a source directory.
type Publish struct {
	// Index is the archive index that's created or updated.
	Index string `json:"index"`

	// Store is the chunk store the archive's chunks are written to.
	Store string `json:"store"`

	// Source is the directory that's archived.
	Source string `json:"source"`
}

// ParsePublish parses the publish configuration at `path`.
func ParsePublish(path string) (Publish, error) {
	configBytes, err := readConfig(path)
	if err != nil {
		return Publish{}, err
	}

	var config Publish
	if err := yaml.UnmarshalStrict(configBytes, &config, yaml.DisallowUnknownFields); err != nil {
		return Publish{}, errors.NewFriendlyError(parseConfigErrTemplate, path, err)
	}

	required := []struct {
		name  string
		value *string
	}{
		{"index", &config.Index},
		{"store", &config.Store},
		{"source", &config.Source},
	}
	for _, field := range required {
		if *field.value == "" {
			return Publish{}, errors.MissingFieldError{Field: field.name}
		}

		expanded, err := expandPath(*field.value)
		if err != nil {
			return Publish{}, errors.WithContext(err, field.name)
		}
		*field.value = expanded
	}
	return config, nil
}

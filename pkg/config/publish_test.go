package config

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sidkik/casync-sync/pkg/errors"
)

func TestParsePublish(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		expConfig Publish
		expError  error
	}{
		{
			name: "Valid",
			input: `{"index": "/srv/www.caidx", "store": "/srv/default.castr",
				"source": "~/www"}`,
			expConfig: Publish{
				Index:  "/srv/www.caidx",
				Store:  "/srv/default.castr",
				Source: "/home/sync/www",
			},
		},
		{
			name:     "MissingStore",
			input:    `{"index": "/srv/www.caidx", "source": "/www"}`,
			expError: errors.MissingFieldError{Field: "store"},
		},
		{
			name:     "MissingSource",
			input:    `{"index": "/srv/www.caidx", "store": "/srv/default.castr"}`,
			expError: errors.MissingFieldError{Field: "source"},
		},
	}

	for _, test := range tests {
		setupFs(t, test.input)
		config, err := ParsePublish(configPath)
		assert.Equal(t, test.expConfig, config, test.name)
		assert.Equal(t, test.expError, err, test.name)
	}
}

func TestParsePublishExtraFields(t *testing.T) {
	setupFs(t, `{"index": "a", "store": "b", "source": "c", "extra": 1}`)
	_, err := ParsePublish(configPath)
	assert.IsType(t, errors.FriendlyError{}, err)
}

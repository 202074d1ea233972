package meta

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sidkik/casync-sync/pkg/errors"
)

func TestSaveLoad(t *testing.T) {
	fs = afero.NewMemMapFs()
	fakeClock := clockwork.NewFakeClockAt(time.Date(2020, 3, 14, 15, 9, 26, 0, time.UTC))
	clock = fakeClock
	require.NoError(t, fs.MkdirAll("/srv/www", 0755))

	saved, err := Save("www", "/srv/www")
	require.NoError(t, err)
	assert.Equal(t, Meta{UID: "www", Timestamp: fakeClock.Now()}, saved)

	contents, err := afero.ReadFile(fs, "/srv/www/.casync-update-meta")
	require.NoError(t, err)
	assert.JSONEq(t, `{"UID": "www", "timestamp": "2020-03-14T15:09:26Z"}`, string(contents))

	loaded, err := Load("/srv/www")
	require.NoError(t, err)
	assert.True(t, saved.Timestamp.Equal(loaded.Timestamp))
	assert.Equal(t, saved.UID, loaded.UID)

	_, err = Load("/srv/docs")
	assert.Equal(t, errors.FileNotFound{Path: "/srv/docs/.casync-update-meta"}, err)
}

func TestLoadMalformed(t *testing.T) {
	fs = afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/srv/www/.casync-update-meta", []byte(`{"timestamp": 5`), 0644))

	_, err := Load("/srv/www")
	assert.Error(t, err)
}

func TestNewer(t *testing.T) {
	older := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	newer := older.Add(time.Hour)

	tests := []struct {
		name string
		src  Meta
		dst  Meta
		exp  bool
	}{
		{
			name: "Newer",
			src:  Meta{UID: "www", Timestamp: newer},
			dst:  Meta{UID: "www", Timestamp: older},
			exp:  true,
		},
		{
			name: "Older",
			src:  Meta{UID: "www", Timestamp: older},
			dst:  Meta{UID: "www", Timestamp: newer},
		},
		{
			name: "Same",
			src:  Meta{UID: "www", Timestamp: older},
			dst:  Meta{UID: "www", Timestamp: older},
		},
		{
			name: "MissingSourceUID",
			src:  Meta{Timestamp: newer},
			dst:  Meta{UID: "www", Timestamp: older},
		},
		{
			name: "MissingDestinationTimestamp",
			src:  Meta{UID: "www", Timestamp: newer},
			dst:  Meta{UID: "www"},
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.exp, Newer(test.src, test.dst))
		})
	}
}

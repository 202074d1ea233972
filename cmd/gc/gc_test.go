package gc

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/sidkik/casync-sync/pkg/casync"
	"github.com/sidkik/casync-sync/pkg/casync/mocks"
	"github.com/sidkik/casync-sync/pkg/errors"
)

func TestGC(t *testing.T) {
	archiver := &mocks.Archiver{}
	archiver.On("GC", mock.Anything, "/srv/www.caidx", casync.Options(nil)).
		Return(casync.Output{Stdout: "Removed 3 chunks\n"}, nil)
	archiver.On("GC", mock.Anything, "/srv/www.caidx",
		casync.Options{casync.Store("/srv/default.castr")}).
		Return(casync.Output{}, errors.New("store is locked"))

	var out bytes.Buffer
	assert.NoError(t, gc(context.Background(), &out, archiver, "/srv/www.caidx", ""))
	assert.Equal(t, "Removed 3 chunks\n", out.String())

	err := gc(context.Background(), &out, archiver, "/srv/www.caidx", "/srv/default.castr")
	assert.EqualError(t, err, "gc: store is locked")
	archiver.AssertExpectations(t)
}

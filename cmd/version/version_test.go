package version

import (
	"bytes"
	"context"
	"testing"

	goversion "github.com/hashicorp/go-version"
	"github.com/stretchr/testify/assert"

	"github.com/sidkik/casync-sync/pkg/errors"
)

type fakeVersioner struct {
	version *goversion.Version
	err     error
}

func (v fakeVersioner) Version(context.Context) (*goversion.Version, error) {
	return v.version, v.err
}

func TestPrintVersions(t *testing.T) {
	var out bytes.Buffer
	printVersions(context.Background(), &out,
		fakeVersioner{version: goversion.Must(goversion.NewVersion("2.1"))})
	assert.Equal(t, "casync-sync version: dev\ncasync version:      2.1.0\n", out.String())

	out.Reset()
	printVersions(context.Background(), &out, fakeVersioner{err: errors.New("not found")})
	assert.Equal(t, "casync-sync version: dev\ncasync version:      unknown\n", out.String())
}

package casync

import (
	"context"
	"fmt"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sidkik/casync-sync/pkg/errors"
)

// fakeRun replaces runCommand for the duration of a test. It records the
// arguments of every command and writes the given output.
func fakeRun(t *testing.T, stdout, stderr string, err error) *[][]string {
	var calls [][]string
	oldRun := runCommand
	runCommand = func(cmd *exec.Cmd) error {
		calls = append(calls, cmd.Args)
		fmt.Fprint(cmd.Stdout, stdout)
		fmt.Fprint(cmd.Stderr, stderr)
		return err
	}
	t.Cleanup(func() { runCommand = oldRun })
	return &calls
}

func TestOptionsArgs(t *testing.T) {
	args, err := Options{Store("/srv/default.castr"), TwoSecondTime}.Args()
	require.NoError(t, err)
	assert.Equal(t, []string{"--store=/srv/default.castr", "--with=2sec-time"}, args)

	tests := []struct {
		name   string
		opt    Option
		reason string
	}{
		{"empty name", Option{Value: "x"}, "empty name"},
		{"unknown", Option{Name: "exec", Value: "rm -rf /"}, "unknown option"},
		{"empty value", Option{Name: "store"}, "empty value"},
		{"newline", Option{Name: "store", Value: "a\n--delete"}, "value contains control characters"},
	}
	for _, test := range tests {
		_, err := Options{TwoSecondTime, test.opt}.Args()
		assert.Equal(t, InvalidOptionError{test.opt, test.reason}, err, test.name)
	}
}

func TestOptionsAppendDoesNotMutate(t *testing.T) {
	base := make(Options, 1, 4)
	base[0] = TwoSecondTime

	a := base.Append(Store("a"))
	b := base.Append(Store("b"))
	assert.Equal(t, Options{TwoSecondTime, Store("a")}, a)
	assert.Equal(t, Options{TwoSecondTime, Store("b")}, b)
	assert.Len(t, base, 1)
}

func TestCommand(t *testing.T) {
	args, err := Command("extract", Options{TwoSecondTime}, "http://host/a b.caidx", "-dst")
	require.NoError(t, err)
	assert.Equal(t, []string{"extract", "--with=2sec-time", "http://host/a b.caidx", "./-dst"}, args)

	_, err = Command("digest", nil, "")
	assert.Error(t, err)

	_, err = Command("digest", Options{{Name: "bogus", Value: "1"}}, "/dst")
	assert.IsType(t, InvalidOptionError{}, err)
}

func TestDigest(t *testing.T) {
	calls := fakeRun(t, "  abc123\n", "", nil)
	client := New("/usr/bin/casync", time.Minute)

	digest, err := client.Digest(context.Background(), "/srv/a.caidx", Options{TwoSecondTime})
	require.NoError(t, err)
	assert.Equal(t, "abc123", digest)
	assert.Equal(t, [][]string{
		{"/usr/bin/casync", "digest", "--with=2sec-time", "/srv/a.caidx"},
	}, *calls)
}

func TestDigestErrors(t *testing.T) {
	client := New("", 0)

	fakeRun(t, "", "", nil)
	_, err := client.Digest(context.Background(), "/srv/a.caidx", nil)
	assert.Equal(t, errors.ErrEmptyDigest, err)

	fakeRun(t, "", "Failed to acquire index\n", assert.AnError)
	_, err = client.Digest(context.Background(), "/srv/a.caidx", nil)
	var opErr errors.ArchiveOperationFailed
	require.True(t, errors.As(err, &opErr))
	assert.Equal(t, []string{"casync", "digest", "/srv/a.caidx"}, opErr.Command)
	assert.Equal(t, assert.AnError, opErr.Err)

	// Digest tolerates warnings as long as a digest is printed.
	fakeRun(t, "abc\n", "warning: slow store\n", nil)
	digest, err := client.Digest(context.Background(), "/srv/a.caidx", nil)
	assert.NoError(t, err)
	assert.Equal(t, "abc", digest)

	// Malformed options never start a process.
	calls := fakeRun(t, "abc", "", nil)
	_, err = client.Digest(context.Background(), "/srv/a.caidx", Options{{Name: "store"}})
	assert.Error(t, err)
	assert.Empty(t, *calls)
}

func TestExtractStderrIsFailure(t *testing.T) {
	fakeRun(t, "", "Failed to open store: No such file\n", nil)
	client := New("", 0)

	out, err := client.Extract(context.Background(), "/srv/a.caidx", "/dst", nil)
	assert.Equal(t, "Failed to open store: No such file\n", out.Stderr)
	assert.Equal(t, errors.ArchiveOperationFailed{
		Command: []string{"casync", "extract", "/srv/a.caidx", "/dst"},
		Stderr:  "Failed to open store: No such file\n",
	}, err)
}

func TestMake(t *testing.T) {
	calls := fakeRun(t, "def456\n", "", nil)
	client := New("", 0)

	out, err := client.Make(context.Background(), "/bak/a.caidx", "/dst",
		Options{Store("/bak/default.castr"), TwoSecondTime})
	require.NoError(t, err)
	assert.Equal(t, "def456\n", out.Stdout)
	assert.Equal(t, [][]string{{"casync", "make", "--store=/bak/default.castr",
		"--with=2sec-time", "/bak/a.caidx", "/dst"}}, *calls)
}

func TestGC(t *testing.T) {
	calls := fakeRun(t, "", "", nil)
	client := New("", 0)

	_, err := client.GC(context.Background(), "/srv/a.caidx", Options{Store("/srv/default.castr")})
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"casync", "gc", "--store=/srv/default.castr", "/srv/a.caidx"}}, *calls)
}

func TestTimeout(t *testing.T) {
	oldRun := runCommand
	runCommand = func(cmd *exec.Cmd) error {
		time.Sleep(50 * time.Millisecond)
		return assert.AnError
	}
	defer func() { runCommand = oldRun }()

	client := New("", time.Millisecond)
	_, err := client.Extract(context.Background(), "/srv/a.caidx", "/dst", nil)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestParseVersion(t *testing.T) {
	v, err := ParseVersion("casync 2\n")
	require.NoError(t, err)
	assert.False(t, v.LessThan(MinimumVersion))

	v, err = ParseVersion("casync 1")
	require.NoError(t, err)
	assert.True(t, v.LessThan(MinimumVersion))

	_, err = ParseVersion("")
	assert.Error(t, err)

	_, err = ParseVersion("casync unknown")
	assert.Error(t, err)
}

func TestVersion(t *testing.T) {
	calls := fakeRun(t, "casync 2\n", "", nil)
	v, err := New("", 0).Version(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2.0.0", v.String())
	assert.Equal(t, [][]string{{"casync", "--version"}}, *calls)
}

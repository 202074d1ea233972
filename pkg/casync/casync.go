// Package casync wraps the casync command line tool. Commands are always
// executed with an argument list, never through a shell.
package casync

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"time"

	goversion "github.com/hashicorp/go-version"
	log "github.com/sirupsen/logrus"

	"github.com/sidkik/casync-sync/pkg/errors"
)

// DefaultBinary is the casync executable looked up in $PATH.
const DefaultBinary = "casync"

// MinimumVersion is the oldest casync release that supports every flag we
// pass.
var MinimumVersion = goversion.Must(goversion.NewVersion("2"))

// Mocked out for unit testing.
var runCommand = func(cmd *exec.Cmd) error {
	return cmd.Run()
}

// Archiver is the set of casync operations used to reconcile directories.
type Archiver interface {
	// Make creates or updates the archive at `index` from the directory
	// `source`.
	Make(ctx context.Context, index, source string, opts Options) (Output, error)

	// Extract materializes the archive at `index` into `destination`.
	Extract(ctx context.Context, index, destination string, opts Options) (Output, error)

	// Digest returns the digest of an index, directory or device.
	Digest(ctx context.Context, target string, opts Options) (string, error)

	// GC removes chunks from the store that aren't referenced by `index`.
	GC(ctx context.Context, index string, opts Options) (Output, error)
}

// Output is what a casync command printed.
type Output struct {
	Stdout string
	Stderr string
}

// Client runs the casync binary.
type Client struct {
	// Binary is the path to the casync executable.
	Binary string

	// Timeout bounds every command. Zero means no bound other than the
	// caller's context.
	Timeout time.Duration
}

// New returns a Client for the given binary.
func New(binary string, timeout time.Duration) *Client {
	if binary == "" {
		binary = DefaultBinary
	}
	return &Client{Binary: binary, Timeout: timeout}
}

// Make runs `casync make`. Anything written to stderr is treated as a
// failure.
func (c *Client) Make(ctx context.Context, index, source string, opts Options) (Output, error) {
	out, err := c.run(ctx, "make", opts, index, source)
	if err != nil {
		return out, err
	}
	return out, c.checkStderr(out, "make", index, source)
}

// Extract runs `casync extract`. Anything written to stderr is treated as a
// failure.
func (c *Client) Extract(ctx context.Context, index, destination string, opts Options) (Output, error) {
	out, err := c.run(ctx, "extract", opts, index, destination)
	if err != nil {
		return out, err
	}
	return out, c.checkStderr(out, "extract", index, destination)
}

// Digest runs `casync digest` and returns the trimmed digest.
func (c *Client) Digest(ctx context.Context, target string, opts Options) (string, error) {
	out, err := c.run(ctx, "digest", opts, target)
	if err != nil {
		return "", err
	}

	if stderr := strings.TrimSpace(out.Stderr); stderr != "" {
		log.WithField("target", target).WithField("stderr", stderr).Debug(
			"casync digest wrote to stderr")
	}

	digest := strings.TrimSpace(out.Stdout)
	if digest == "" {
		return "", errors.ErrEmptyDigest
	}
	return digest, nil
}

// GC runs `casync gc`.
func (c *Client) GC(ctx context.Context, index string, opts Options) (Output, error) {
	out, err := c.run(ctx, "gc", opts, index)
	if err != nil {
		return out, err
	}
	return out, c.checkStderr(out, "gc", index)
}

// Version returns the version of the casync binary.
func (c *Client) Version(ctx context.Context) (*goversion.Version, error) {
	out, err := c.exec(ctx, []string{"--version"})
	if err != nil {
		return nil, err
	}
	return ParseVersion(out.Stdout)
}

// ParseVersion parses the output of `casync --version`, e.g. "casync 2".
func ParseVersion(output string) (*goversion.Version, error) {
	fields := strings.Fields(output)
	if len(fields) == 0 {
		return nil, errors.New("empty version output")
	}

	v, err := goversion.NewVersion(fields[len(fields)-1])
	if err != nil {
		return nil, errors.WithContext(err, "parse version")
	}
	return v, nil
}

// Command returns the argument list for a casync command, without the
// binary.
func Command(verb string, opts Options, paths ...string) ([]string, error) {
	flags, err := opts.Args()
	if err != nil {
		return nil, err
	}

	args := append([]string{verb}, flags...)
	for _, path := range paths {
		if path == "" {
			return nil, errors.New("%s: empty path argument", verb)
		}
		if strings.ContainsRune(path, 0) {
			return nil, errors.New("%s: path contains a NUL byte", verb)
		}
		args = append(args, positional(path))
	}
	return args, nil
}

// positional keeps paths that start with a dash from being parsed as flags.
func positional(path string) string {
	if strings.HasPrefix(path, "-") {
		return "./" + path
	}
	return path
}

func (c *Client) run(ctx context.Context, verb string, opts Options, paths ...string) (Output, error) {
	args, err := Command(verb, opts, paths...)
	if err != nil {
		return Output{}, err
	}
	return c.exec(ctx, args)
}

func (c *Client) exec(ctx context.Context, args []string) (Output, error) {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, c.Binary, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	log.WithField("args", args).Debug("Running casync")
	err := runCommand(cmd)
	out := Output{Stdout: stdout.String(), Stderr: stderr.String()}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		return out, errors.ArchiveOperationFailed{
			Command: append([]string{c.Binary}, args...),
			Stdout:  out.Stdout,
			Stderr:  out.Stderr,
			Err:     err,
		}
	}
	return out, nil
}

func (c *Client) checkStderr(out Output, verb string, paths ...string) error {
	if strings.TrimSpace(out.Stderr) == "" {
		return nil
	}
	return errors.ArchiveOperationFailed{
		Command: append([]string{c.Binary, verb}, paths...),
		Stdout:  out.Stdout,
		Stderr:  out.Stderr,
	}
}

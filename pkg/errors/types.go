package errors

import (
	"fmt"
	"strings"
)

// ErrEmptyDigest is returned when casync exits cleanly but prints no digest.
var ErrEmptyDigest = New("casync returned an empty digest")

// MissingFieldError represents a missing required field.
type MissingFieldError struct {
	Field string
}

func (err MissingFieldError) Error() string {
	return fmt.Sprintf("missing required field: %s", err.Field)
}

// FileNotFound represents when we were unable to access a file
// because the path didn't exist.
type FileNotFound struct {
	Path string
}

func (err FileNotFound) Error() string {
	return fmt.Sprintf("%q does not exist", err.Path)
}

// DirectoryMissing is returned when a directory required by a pull or push
// doesn't satisfy the operation's preconditions.
type DirectoryMissing struct {
	Path   string
	Reason string
}

func (err DirectoryMissing) Error() string {
	if err.Reason == "" {
		return fmt.Sprintf("directory %q does not exist", err.Path)
	}
	return fmt.Sprintf("directory %q %s", err.Path, err.Reason)
}

// DigestUnavailable is returned when the digest of an archive couldn't be
// read, usually because the archive is unreachable.
type DigestUnavailable struct {
	Target string
	Err    error
}

func (err DigestUnavailable) Error() string {
	return fmt.Sprintf("digest of %q unavailable: %s", err.Target, err.Err)
}

func (err DigestUnavailable) Unwrap() error {
	return err.Err
}

// ArchiveOperationFailed is returned when a casync command exits with an
// error, or writes anything to stderr.
type ArchiveOperationFailed struct {
	Command []string
	Stdout  string
	Stderr  string
	Err     error
}

func (err ArchiveOperationFailed) Error() string {
	msg := fmt.Sprintf("%s failed", strings.Join(err.Command, " "))
	if err.Err != nil {
		msg += ": " + err.Err.Error()
	}
	if stderr := strings.TrimSpace(err.Stderr); stderr != "" {
		msg += ": " + stderr
	}
	return msg
}

func (err ArchiveOperationFailed) Unwrap() error {
	return err.Err
}

// ConfigInvalid is returned when a configuration entry can't be used.
type ConfigInvalid struct {
	Entry  int
	Reason string
}

func (err ConfigInvalid) Error() string {
	return fmt.Sprintf("invalid configuration entry %d: %s", err.Entry, err.Reason)
}

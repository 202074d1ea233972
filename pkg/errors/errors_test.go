package errors

import (
	goErrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithContext(t *testing.T) {
	assert.Nil(t, WithContext(nil, "noop"))

	cause := New("boom")
	err := WithContext(WithContext(cause, "extract"), "pull primary")
	assert.EqualError(t, err, "pull primary: extract: boom")
	assert.Equal(t, cause, RootCause(err))
	assert.True(t, Is(err, cause))
}

func TestRootCauseTyped(t *testing.T) {
	err := WithContext(DirectoryMissing{Path: "/dst"}, "check destination")
	_, ok := RootCause(err).(DirectoryMissing)
	assert.True(t, ok)

	var dirErr DirectoryMissing
	assert.True(t, As(err, &dirErr))
	assert.Equal(t, "/dst", dirErr.Path)
}

func TestArchiveOperationFailed(t *testing.T) {
	err := ArchiveOperationFailed{
		Command: []string{"casync", "extract", "a.caidx", "/dst"},
		Stderr:  "Failed to open store\n",
	}
	assert.EqualError(t, err, "casync extract a.caidx /dst failed: Failed to open store")

	exitErr := goErrors.New("exit status 1")
	err = ArchiveOperationFailed{Command: []string{"casync", "gc"}, Err: exitErr}
	assert.EqualError(t, err, "casync gc failed: exit status 1")
	assert.True(t, Is(WithContext(err, "gc"), exitErr))
}

func TestDirectoryMissing(t *testing.T) {
	assert.EqualError(t, DirectoryMissing{Path: "/dst"}, `directory "/dst" does not exist`)
	assert.EqualError(t, DirectoryMissing{Path: "/dst", Reason: "is empty"},
		`directory "/dst" is empty`)
}

func TestFriendlyError(t *testing.T) {
	err := WithContext(NewFriendlyError("config %q is broken", "a.json"), "load")
	friendly, ok := RootCause(err).(FriendlyError)
	assert.True(t, ok)
	assert.Equal(t, `config "a.json" is broken`, friendly.FriendlyMessage())
}

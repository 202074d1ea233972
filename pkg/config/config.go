package config

import (
	"os"
	"path/filepath"
	"strings"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"

	"github.com/sidkik/casync-sync/pkg/errors"
)

// parseConfigErrTemplate is a template for when we fail to parse a
// configuration file. The yaml library constructs errors in a way that loses
// context, so we can only pass the error message on.
const parseConfigErrTemplate = "Configuration file could not be parsed. " +
	"Please review %q.\n" +
	"Common pitfalls include:\n" +
	" - Using the wrong types for fields\n" +
	" - Having extra fields inside the config file\n\n" +
	"For reference, here is the error from the parser:\n" +
	"%s"

// homedirExpand will be overridden in mock tests
var homedirExpand = homedir.Expand

func readConfig(path string) ([]byte, error) {
	configBytes, err := afero.ReadFile(fs, path)
	if err != nil {
		if isPathNotFoundError(err) {
			return nil, errors.FileNotFound{Path: path}
		}
		return nil, errors.WithContext(err, "read file")
	}
	return configBytes, nil
}

func isPathNotFoundError(err error) bool {
	if fileErr, ok := err.(*os.PathError); ok &&
		fileErr.Op == "open" && os.IsNotExist(fileErr.Err) {
		return true
	}
	return false
}

// IsRemote returns whether the path refers to an archive served over the
// network (e.g. https:// or ssh://) rather than a local file.
func IsRemote(path string) bool {
	return strings.Contains(path, "://")
}

// expandPath expands `~` and cleans local paths. Remote locations are
// returned untouched.
func expandPath(path string) (string, error) {
	if path == "" || IsRemote(path) {
		return path, nil
	}

	expanded, err := homedirExpand(path)
	if err != nil {
		return "", errors.WithContext(err, "expand homedir")
	}
	return filepath.Clean(expanded), nil
}

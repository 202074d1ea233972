// Package version holds the version of casync-sync.
package version

// Unset is the version of binaries that weren't built with
// `-ldflags "-X github.com/sidkik/casync-sync/pkg/version.Version=<tag>"`,
// such as unit tests.
const Unset = "dev"

// Version is the git tag the binary was built from.
var Version = Unset

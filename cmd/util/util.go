package util

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	goversion "github.com/hashicorp/go-version"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sidkik/casync-sync/pkg/casync"
	"github.com/sidkik/casync-sync/pkg/errors"
)

// CasyncFlag is the name of the global flag that sets the casync binary.
const CasyncFlag = "casync"

// Mocked out for unit testing.
var exit = os.Exit

// HandleFatalError handles errors that are severe enough to terminate the
// program. Friendly errors are printed as is, since they're meant to be read
// by the user.
func HandleFatalError(err error) {
	if friendlyErr, ok := errors.RootCause(err).(errors.FriendlyError); ok {
		fmt.Fprintln(os.Stderr, friendlyErr.FriendlyMessage())
	} else {
		log.WithError(err).Error("Fatal error")
	}
	exit(1)
}

// HandlePanic logs the stack trace of a panic before exiting. It must be
// deferred.
func HandlePanic() {
	if r := recover(); r != nil {
		log.WithField("stack", string(debug.Stack())).Errorf("Panic: %v", r)
		exit(2)
	}
}

// SignalContext returns a context that's cancelled when the process is asked
// to stop.
func SignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// CasyncClient returns a client for the casync binary selected by the
// global flag.
func CasyncClient(cmd *cobra.Command, timeout time.Duration) *casync.Client {
	binary, err := cmd.Flags().GetString(CasyncFlag)
	if err != nil {
		log.WithError(err).Debug("Failed to get casync flag. Using the default binary.")
	}
	return casync.New(binary, timeout)
}

// Versioner reports the version of casync.
type Versioner interface {
	Version(ctx context.Context) (*goversion.Version, error)
}

// CheckCasyncVersion returns a friendly error if casync isn't installed, or
// is too old.
func CheckCasyncVersion(ctx context.Context, client Versioner) error {
	installed, err := client.Version(ctx)
	if err != nil {
		return errors.NewFriendlyError("Failed to get the version of casync. "+
			"Is it installed?\n\n"+
			"For reference, here is the error:\n%s", err)
	}

	if installed.LessThan(casync.MinimumVersion) {
		return errors.NewFriendlyError("casync %s is installed, but at least "+
			"version %s is required.", installed, casync.MinimumVersion)
	}

	log.WithField("version", installed).Debug("Found casync")
	return nil
}

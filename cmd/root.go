package cmd

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sidkik/casync-sync/cmd/drives"
	"github.com/sidkik/casync-sync/cmd/gc"
	"github.com/sidkik/casync-sync/cmd/once"
	"github.com/sidkik/casync-sync/cmd/publish"
	"github.com/sidkik/casync-sync/cmd/run"
	"github.com/sidkik/casync-sync/cmd/util"
	"github.com/sidkik/casync-sync/cmd/version"
	"github.com/sidkik/casync-sync/pkg/casync"
)

// verboseLogKey is the environment variable used to enable verbose logging.
// When it's set to `true`, Debug events are logged, rather than just Info and
// above.
const verboseLogKey = "CASYNC_SYNC_LOG_VERBOSE"

// Execute runs the main CLI process.
func Execute() {
	if os.Getenv(verboseLogKey) == "true" {
		log.SetLevel(log.DebugLevel)
	}

	rootCmd := &cobra.Command{
		Use:          "casync-sync",
		Short:        "Keep directories in sync with casync archives",
		SilenceUsage: true,

		// The call to rootCmd.Execute prints the error, so we silence errors
		// here to avoid double printing.
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().String(util.CasyncFlag, casync.DefaultBinary,
		"Path to the casync binary.")
	rootCmd.AddCommand(
		drives.New(),
		gc.New(),
		once.New(),
		publish.New(),
		run.New(),
		version.New(),
	)

	if err := rootCmd.Execute(); err != nil {
		util.HandleFatalError(err)
	}
}

package version

import (
	"context"
	"fmt"
	"io"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sidkik/casync-sync/cmd/util"
	"github.com/sidkik/casync-sync/pkg/version"
)

// New creates a new `version` command.
func New() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version of casync-sync and casync.",
		Run: func(cmd *cobra.Command, _ []string) {
			ctx, cancel := util.SignalContext()
			defer cancel()

			printVersions(ctx, os.Stdout, util.CasyncClient(cmd, 0))
		},
	}
}

func printVersions(ctx context.Context, out io.Writer, casync util.Versioner) {
	fmt.Fprintf(out, "casync-sync version: %s\n", version.Version)

	casyncVersion, err := casync.Version(ctx)
	if err != nil {
		log.WithError(err).Debug("Failed to get casync version")
		fmt.Fprintln(out, "casync version:      unknown")
		return
	}
	fmt.Fprintf(out, "casync version:      %s\n", casyncVersion)
}

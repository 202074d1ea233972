package once

import (
	"context"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sidkik/casync-sync/cmd/util"
	"github.com/sidkik/casync-sync/pkg/casync"
	"github.com/sidkik/casync-sync/pkg/config"
	"github.com/sidkik/casync-sync/pkg/errors"
	"github.com/sidkik/casync-sync/pkg/sync"
)

// New creates a new `once` command.
func New() *cobra.Command {
	return &cobra.Command{
		Use:   "once <config>",
		Short: "Reconcile every target once, and exit",
		Long: "Run a single reconciliation cycle for every target in the\n" +
			"configuration file. Exits with an error if any pull or push failed.",
		Args: cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			ctx, cancel := util.SignalContext()
			defer cancel()

			client := util.CasyncClient(cmd, 0)
			if err := util.CheckCasyncVersion(ctx, client); err != nil {
				util.HandleFatalError(err)
			}

			targets, err := config.ParseTargets(log.StandardLogger(), args[0])
			if err != nil {
				util.HandleFatalError(errors.WithContext(err, "parse config"))
			}

			if err := runOnce(ctx, log.StandardLogger(), client, targets); err != nil {
				util.HandleFatalError(err)
			}
		},
	}
}

// runOnce runs one cycle per target, in the order of the configuration.
func runOnce(ctx context.Context, logger log.FieldLogger, archiver casync.Archiver,
	targets []config.Target) error {
	reconciler := sync.NewReconciler(logger, archiver, sync.NewMemoryCache(), nil)

	var failed []string
	for _, target := range targets {
		res := reconciler.RunCycle(ctx, target)
		logger.WithFields(log.Fields{
			"target":  target.Name,
			"primary": res.Primary,
			"backup":  res.Backup,
			"pulled":  res.Pulled,
			"pushed":  res.Pushed,
		}).Debug("Finished reconciliation")

		if res.Failed() {
			failed = append(failed, target.Name)
		}
	}

	if len(failed) != 0 {
		return errors.NewFriendlyError("Reconciliation failed for: %s\n"+
			"See the errors above for details.", strings.Join(failed, ", "))
	}
	return nil
}

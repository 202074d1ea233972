package run

import (
	"context"
	"net/http"

	"github.com/gofrs/flock"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/sidkik/casync-sync/cmd/util"
	"github.com/sidkik/casync-sync/pkg/casync"
	"github.com/sidkik/casync-sync/pkg/config"
	"github.com/sidkik/casync-sync/pkg/errors"
	"github.com/sidkik/casync-sync/pkg/sync"
)

// metricsNamespace prefixes every exported metric.
const metricsNamespace = "casync_sync"

// Mocked out for unit testing.
var checkCasyncVersion = util.CheckCasyncVersion

// New creates a new `run` command.
func New() *cobra.Command {
	var metricsAddr string
	cmd := &cobra.Command{
		Use:   "run <config>",
		Short: "Keep the configured directories in sync with their archives",
		Long: "Reconcile every target in the configuration file on its interval,\n" +
			"until interrupted. Only one daemon may run per configuration file.",
		Args: cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			ctx, cancel := util.SignalContext()
			defer cancel()

			if err := run(ctx, args[0], metricsAddr, util.CasyncClient(cmd, 0)); err != nil {
				util.HandleFatalError(err)
			}
		},
	}
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "",
		"Address to serve Prometheus metrics on, e.g. :9090. Disabled if empty.")
	return cmd
}

func run(ctx context.Context, configPath, metricsAddr string, client *casync.Client) error {
	lock := flock.New(configPath + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return errors.WithContext(err, "lock config")
	}
	if !locked {
		return errors.NewFriendlyError("Another casync-sync daemon is already "+
			"running with %s.\nIt holds the lock %s.", configPath, lock.Path())
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			log.WithError(err).Warn("Failed to release lock")
		}
	}()

	if err := checkCasyncVersion(ctx, client); err != nil {
		return err
	}

	targets, err := config.ParseTargets(log.StandardLogger(), configPath)
	if err != nil {
		return errors.WithContext(err, "parse config")
	}
	if len(targets) == 0 {
		return errors.NewFriendlyError("No valid targets in %s. "+
			"See the errors above for details.", configPath)
	}

	metrics := sync.NopMetrics()
	group, ctx := errgroup.WithContext(ctx)
	if metricsAddr != "" {
		metrics = sync.PrometheusMetrics(metricsNamespace)
		server := &http.Server{Addr: metricsAddr, Handler: promhttp.Handler()}
		group.Go(func() error {
			log.WithField("address", metricsAddr).Info("Serving metrics")
			if err := server.ListenAndServe(); err != http.ErrServerClosed {
				return errors.WithContext(err, "serve metrics")
			}
			return nil
		})
		group.Go(func() error {
			<-ctx.Done()
			return server.Shutdown(context.Background())
		})
	}

	reconciler := sync.NewReconciler(log.StandardLogger(), client, sync.NewMemoryCache(), metrics)
	scheduler := sync.NewScheduler(log.StandardLogger(), reconciler)
	group.Go(func() error {
		log.WithField("targets", len(targets)).Info("Starting reconciliation")
		scheduler.Run(ctx, targets)
		log.Info("Stopped reconciliation")
		return nil
	})
	return group.Wait()
}

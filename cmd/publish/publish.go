package publish

import (
	"context"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sidkik/casync-sync/cmd/util"
	"github.com/sidkik/casync-sync/pkg/casync"
	"github.com/sidkik/casync-sync/pkg/config"
	"github.com/sidkik/casync-sync/pkg/errors"
	"github.com/sidkik/casync-sync/pkg/meta"
)

// Mocked out for unit testing.
var (
	saveMeta = meta.Save
	loadMeta = meta.Load
)

type options struct {
	gc      bool
	metaUID string
}

// New creates a new `publish` command.
func New() *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:   "publish <config>",
		Short: "Archive a source directory, if it changed",
		Long: "Create or update the archive described by the configuration file.\n" +
			"The archive is only remade if the source directory differs from it.",
		Args: cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			ctx, cancel := util.SignalContext()
			defer cancel()

			cfg, err := config.ParsePublish(args[0])
			if err != nil {
				util.HandleFatalError(errors.WithContext(err, "parse config"))
			}

			client := util.CasyncClient(cmd, 0)
			if err := util.CheckCasyncVersion(ctx, client); err != nil {
				util.HandleFatalError(err)
			}

			if err := publish(ctx, log.StandardLogger(), client, cfg, opts); err != nil {
				util.HandleFatalError(err)
			}
		},
	}
	cmd.Flags().BoolVar(&opts.gc, "gc", false,
		"Remove unreferenced chunks from the store after updating the archive.")
	cmd.Flags().StringVar(&opts.metaUID, "meta", "",
		"Write a metadata file with this UID into the source before archiving it.")
	return cmd
}

func publish(ctx context.Context, logger log.FieldLogger, archiver casync.Archiver,
	cfg config.Publish, opts options) error {
	archiveOpts := casync.Options{casync.Store(cfg.Store), casync.TwoSecondTime}
	logger = logger.WithFields(log.Fields{
		"index":  cfg.Index,
		"source": cfg.Source,
	})

	// Either digest may fail, e.g. because the archive doesn't exist yet.
	// In that case the archive is made unconditionally.
	indexDigest, indexErr := archiver.Digest(ctx, cfg.Index, archiveOpts)
	if indexErr != nil {
		logger.WithError(indexErr).Info("Failed to digest archive")
	}
	sourceDigest, sourceErr := archiver.Digest(ctx, cfg.Source, casync.Options{casync.TwoSecondTime})
	if sourceErr != nil {
		logger.WithError(sourceErr).Warn("Failed to digest source")
	}

	if indexErr == nil && sourceErr == nil && indexDigest == sourceDigest {
		logger.WithField("digest", indexDigest).Info("Source not changed")
		return nil
	}

	if opts.metaUID != "" {
		previous, loadErr := loadMeta(cfg.Source)
		saved, err := saveMeta(opts.metaUID, cfg.Source)
		if err != nil {
			return errors.WithContext(err, "save metadata")
		}

		metaLog := logger.WithField("timestamp", saved.Timestamp)
		if loadErr == nil && !meta.Newer(saved, previous) {
			metaLog.WithField("previous", previous.Timestamp).Warn(
				"Saved metadata isn't newer than the previous generation. " +
					"Consumers may not notice the update.")
		} else {
			metaLog.Debug("Saved metadata")
		}
	}

	out, err := archiver.Make(ctx, cfg.Index, cfg.Source, archiveOpts)
	if err != nil {
		return errors.WithContext(err, "make archive")
	}
	logger.WithField("digest", strings.TrimSpace(out.Stdout)).Info("Created archive")

	if opts.gc {
		if _, err := archiver.GC(ctx, cfg.Index, casync.Options{casync.Store(cfg.Store)}); err != nil {
			return errors.WithContext(err, "gc")
		}
		logger.Info("Removed unreferenced chunks")
	}
	return nil
}

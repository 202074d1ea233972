package gc

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/sidkik/casync-sync/cmd/util"
	"github.com/sidkik/casync-sync/pkg/casync"
	"github.com/sidkik/casync-sync/pkg/errors"
)

// New creates a new `gc` command.
func New() *cobra.Command {
	var store string
	cmd := &cobra.Command{
		Use:   "gc <index>",
		Short: "Remove chunks that the archive doesn't reference from its store",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			ctx, cancel := util.SignalContext()
			defer cancel()

			if err := gc(ctx, os.Stdout, util.CasyncClient(cmd, 0), args[0], store); err != nil {
				util.HandleFatalError(err)
			}
		},
	}
	cmd.Flags().StringVar(&store, "store", "",
		"The chunk store to clean up. Derived from the index location if empty.")
	return cmd
}

func gc(ctx context.Context, out io.Writer, archiver casync.Archiver, index, store string) error {
	var opts casync.Options
	if store != "" {
		opts = append(opts, casync.Store(store))
	}

	output, err := archiver.GC(ctx, index, opts)
	if err != nil {
		return errors.WithContext(err, "gc")
	}
	fmt.Fprint(out, output.Stdout)
	return nil
}

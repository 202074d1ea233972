package drives

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/buger/goterm"
	"github.com/jonboulle/clockwork"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sidkik/casync-sync/cmd/util"
	"github.com/sidkik/casync-sync/pkg/drive"
)

// New creates a new `drives` command.
func New() *cobra.Command {
	var interval time.Duration
	cmd := &cobra.Command{
		Use:   "drives",
		Short: "Print removable drives as they're attached and mounted",
		Run: func(_ *cobra.Command, _ []string) {
			ctx, cancel := util.SignalContext()
			defer cancel()

			monitor := drive.NewMonitor(log.StandardLogger(), clockwork.NewRealClock(), interval)
			go monitor.Run(ctx)
			printEvents(ctx, os.Stdout, monitor.Events())
			printAttached(os.Stdout, monitor.Drives())
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", 2*time.Second, "How often to scan for drives.")
	return cmd
}

func printEvents(ctx context.Context, out io.Writer, events <-chan drive.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			fmt.Fprintln(out, formatEvent(event))
		}
	}
}

// printAttached lists the drives that are still attached when the command
// exits.
func printAttached(out io.Writer, drives []drive.Drive) {
	if len(drives) == 0 {
		return
	}

	fmt.Fprintln(out, goterm.Bold("Attached drives:"))
	for _, d := range drives {
		state := "not mounted"
		if d.Mounted() {
			state = fmt.Sprintf("mounted at %s", d.Mountpoint)
		}
		fmt.Fprintf(out, "  %s on %s, %s\n", d.Filesystem, d.Disk, state)
	}
}

func formatEvent(event drive.Event) string {
	d := event.Drive
	var details string
	switch event.Type {
	case drive.Mount:
		details = fmt.Sprintf("mounted at %s (%s, %s used)", d.Mountpoint, d.Type, d.UsePercent)
	case drive.Update:
		details = fmt.Sprintf("%s used, %d bytes available", d.UsePercent, d.Available)
	case drive.Unmount:
		details = "unmounted"
	case drive.Attach:
		details = fmt.Sprintf("attached on %s", d.Disk)
	case drive.Detach:
		details = fmt.Sprintf("detached from %s", d.Disk)
	}
	return fmt.Sprintf("%s %s %s", goterm.Color(string(event.Type), eventColor(event.Type)),
		d.Filesystem, details)
}

func eventColor(eventType drive.EventType) int {
	switch eventType {
	case drive.Attach, drive.Mount:
		return goterm.GREEN
	case drive.Unmount:
		return goterm.YELLOW
	case drive.Detach:
		return goterm.RED
	default:
		return goterm.BLUE
	}
}

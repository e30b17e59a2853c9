package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/dyluth/pinboard/internal/printer"
	"github.com/dyluth/pinboard/internal/watch"
	"github.com/spf13/cobra"
)

var watchOutput string

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream live updates of a board",
	Long: `Stream live updates of a board as other sessions change it.

Output formats:
  default  one human readable line per update
  jsonl    one JSON object per update

Press Ctrl+C to stop.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVarP(&watchOutput, "output", "o", "default", "Output format (default or jsonl)")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	format, err := watch.ParseOutputFormat(watchOutput)
	if err != nil {
		return printer.Error("invalid output format", err.Error(), nil)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := watch.NewPrinter(printer.Out(), format)
	e, sess, err := openBoard(ctx, out.Listener())
	if err != nil {
		return err
	}
	defer e.Close()
	defer sess.Close()

	eng := sess.Engine()
	out.WithNames(func(id string) string {
		snap := eng.Snapshot()
		if l := snap.List(id); l != nil {
			return l.Title
		}
		if c := snap.Card(id); c != nil {
			return c.Title
		}
		return ""
	})

	if format == watch.OutputFormatDefault {
		printer.Info("Watching board '%s' (Ctrl+C to stop)\n", eng.Snapshot().Board.Title)
	}

	<-ctx.Done()
	return nil
}

package commands

import (
	"context"

	"github.com/dyluth/pinboard/internal/engine"
	"github.com/dyluth/pinboard/internal/printer"
	"github.com/spf13/cobra"
)

var labelCmd = &cobra.Command{
	Use:   "label",
	Short: "Manage the board's labels",
}

var labelAddCmd = &cobra.Command{
	Use:   "add <name> <color>",
	Short: "Create a label, e.g. 'pinboard label add bug #eb5a46'",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withBoard(func(ctx context.Context, eng *engine.Engine) error {
			l, err := eng.CreateLabel(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			printer.Success("Created label '%s' (%s)\n", l.Name, l.Color)
			return nil
		})
	},
}

var labelLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List the board's labels",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withBoard(func(ctx context.Context, eng *engine.Engine) error {
			labels := eng.Snapshot().Labels
			if len(labels) == 0 {
				printer.Println("No labels yet")
				return nil
			}
			printer.Printf("%-10s %-8s %s\n", "ID", "COLOR", "NAME")
			for _, l := range labels {
				printer.Printf("%-10s %-8s %s\n", shortID(l.ID), l.Color, l.Name)
			}
			return nil
		})
	},
}

func init() {
	labelCmd.AddCommand(labelAddCmd, labelLsCmd)
	rootCmd.AddCommand(labelCmd)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

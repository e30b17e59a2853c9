package commands

import (
	"context"
	"strconv"

	"github.com/dyluth/pinboard/internal/engine"
	"github.com/dyluth/pinboard/internal/printer"
	"github.com/dyluth/pinboard/internal/resolver"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Add, rename, remove and reorder lists",
	Long: `Add, rename, remove and reorder the lists of the current board.

Lists are referenced by title (case-insensitive), full ID or an ID prefix
of at least 6 characters.`,
}

var listAddCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Append a list to the board",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withBoard(func(ctx context.Context, eng *engine.Engine) error {
			l, err := eng.CreateList(ctx, args[0])
			if err != nil {
				return err
			}
			printer.Success("Added list '%s' (%s)\n", l.Title, l.ID)
			return nil
		})
	},
}

var listRenameCmd = &cobra.Command{
	Use:   "rename <list> <title>",
	Short: "Rename a list",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withBoard(func(ctx context.Context, eng *engine.Engine) error {
			id, err := resolver.ResolveList(eng.Snapshot(), args[0])
			if err != nil {
				return err
			}
			l, err := eng.RenameList(ctx, id, args[1])
			if err != nil {
				return err
			}
			printer.Success("Renamed list to '%s'\n", l.Title)
			return nil
		})
	},
}

var listRmCmd = &cobra.Command{
	Use:   "rm <list>",
	Short: "Delete a list and its cards",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withBoard(func(ctx context.Context, eng *engine.Engine) error {
			id, err := resolver.ResolveList(eng.Snapshot(), args[0])
			if err != nil {
				return err
			}
			if err := eng.DeleteList(ctx, id); err != nil {
				return err
			}
			printer.Success("Deleted list %s\n", id)
			return nil
		})
	},
}

var listMoveCmd = &cobra.Command{
	Use:   "move <list> <index>",
	Short: "Move a list to a zero-based index",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		to, err := strconv.Atoi(args[1])
		if err != nil || to < 0 {
			return printer.Error("invalid index", "The index must be a non-negative integer.", nil)
		}

		return withBoard(func(ctx context.Context, eng *engine.Engine) error {
			snap := eng.Snapshot()
			id, err := resolver.ResolveList(snap, args[0])
			if err != nil {
				return err
			}
			if err := eng.ReorderList(ctx, snap.ListIndex(id), to); err != nil {
				return err
			}
			printer.Success("Moved list %s to position %d\n", id, min(to, len(snap.Lists)-1))
			return nil
		})
	},
}

func init() {
	listCmd.AddCommand(listAddCmd, listRenameCmd, listRmCmd, listMoveCmd)
	rootCmd.AddCommand(listCmd)
}

package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/dyluth/pinboard/internal/boardview"
	"github.com/dyluth/pinboard/internal/config"
	"github.com/dyluth/pinboard/internal/engine"
	"github.com/dyluth/pinboard/internal/filter"
	"github.com/dyluth/pinboard/internal/printer"
	"github.com/dyluth/pinboard/internal/resolver"
	"github.com/dyluth/pinboard/internal/timespec"
	"github.com/dyluth/pinboard/pkg/board"
	"github.com/spf13/cobra"
)

var (
	boardVisibility string
	boardColor      string
	boardUse        bool
	setVisibility   string
	setColor        string

	showOutput    string
	showActivity  bool
	showLabel     string
	showAssignee  string
	showTitle     string
	showDueAfter  string
	showDueBefore string
)

var boardCmd = &cobra.Command{
	Use:   "board",
	Short: "Create, inspect and manage boards",
}

var boardCreateCmd = &cobra.Command{
	Use:   "create <title>",
	Short: "Create a board owned by the current user",
	Args:  cobra.ExactArgs(1),
	RunE:  runBoardCreate,
}

var boardLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List the boards you can see",
	Args:  cobra.NoArgs,
	RunE:  runBoardLs,
}

var boardShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show a board's lists and cards",
	Long: `Show a board's lists and cards.

Filters narrow the cards shown (all filters must match):
  --label      label name or ID
  --assignee   user ID, email or display name
  --title      case-insensitive glob, e.g. '*login*'
  --due-after / --due-before
               dates (2025-10-29), RFC3339 timestamps or durations from now (72h)

Output formats:
  default  one table per list
  jsonl    one card per line
  json     the whole board`,
	Args: cobra.NoArgs,
	RunE: runBoardShow,
}

var boardRenameCmd = &cobra.Command{
	Use:   "rename <title>",
	Short: "Rename the board",
	Args:  cobra.ExactArgs(1),
	RunE:  runBoardRename,
}

var boardSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Change the board's visibility or background colour",
	Args:  cobra.NoArgs,
	RunE:  runBoardSet,
}

var boardDeleteCmd = &cobra.Command{
	Use:   "delete <board>",
	Short: "Delete a board and everything on it",
	Args:  cobra.ExactArgs(1),
	RunE:  runBoardDelete,
}

var boardUseCmd = &cobra.Command{
	Use:   "use <board>",
	Short: "Make a board the default in pinboard.yml",
	Args:  cobra.ExactArgs(1),
	RunE:  runBoardUse,
}

func init() {
	boardCreateCmd.Flags().StringVar(&boardVisibility, "visibility", string(board.VisibilityPrivate), "Board visibility (private or workspace)")
	boardCreateCmd.Flags().StringVar(&boardColor, "color", "", "Background colour as a hex value, e.g. #0079bf")
	boardCreateCmd.Flags().BoolVar(&boardUse, "use", false, "Make the new board the default in pinboard.yml")

	boardSetCmd.Flags().StringVar(&setVisibility, "visibility", "", "Board visibility (private or workspace)")
	boardSetCmd.Flags().StringVar(&setColor, "color", "", "Background colour as a hex value")

	boardShowCmd.Flags().StringVarP(&showOutput, "output", "o", "default", "Output format (default, jsonl, json)")
	boardShowCmd.Flags().BoolVar(&showActivity, "activity", false, "Also show recent activity")
	boardShowCmd.Flags().StringVar(&showLabel, "label", "", "Only cards with this label")
	boardShowCmd.Flags().StringVar(&showAssignee, "assignee", "", "Only cards assigned to this user")
	boardShowCmd.Flags().StringVar(&showTitle, "title", "", "Only cards whose title matches this glob")
	boardShowCmd.Flags().StringVar(&showDueAfter, "due-after", "", "Only cards due on or after this date")
	boardShowCmd.Flags().StringVar(&showDueBefore, "due-before", "", "Only cards due on or before this date")

	boardCmd.AddCommand(boardCreateCmd, boardLsCmd, boardShowCmd, boardRenameCmd, boardSetCmd, boardDeleteCmd, boardUseCmd)
	rootCmd.AddCommand(boardCmd)
}

func runBoardCreate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	e, err := connect(ctx)
	if err != nil {
		return err
	}
	defer e.Close()
	if err := e.requireUser(); err != nil {
		return err
	}

	b, err := e.client.CreateBoard(ctx, args[0], board.Visibility(boardVisibility), boardColor)
	if err != nil {
		return printer.Error("failed to create board", err.Error(), nil)
	}

	printer.Success("Created board '%s' (%s)\n", b.Title, b.ID)
	if boardUse {
		return useBoard(e.cfg, b.ID)
	}
	return nil
}

func runBoardLs(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	e, err := connect(ctx)
	if err != nil {
		return err
	}
	defer e.Close()
	if err := e.requireUser(); err != nil {
		return err
	}

	boards, err := e.client.ListBoards(ctx)
	if err != nil {
		return fmt.Errorf("failed to list boards: %w", err)
	}
	boardview.FormatBoards(printer.Out(), boards, time.Now())
	return nil
}

func runBoardShow(cmd *cobra.Command, args []string) error {
	from, to, err := timespec.ParseDueWindow(showDueAfter, showDueBefore, time.Now())
	if err != nil {
		return printer.Error("invalid due window", err.Error(), nil)
	}
	criteria := filter.Criteria{
		DueAfter:  from,
		DueBefore: to,
		TitleGlob: showTitle,
		Label:     showLabel,
		Assignee:  showAssignee,
	}

	return withBoard(func(ctx context.Context, eng *engine.Engine) error {
		snap := eng.Snapshot()
		if criteria.HasFilters() {
			snap.Lists = criteria.Lists(snap.Lists)
		}

		out := printer.Out()
		switch showOutput {
		case "jsonl":
			return boardview.FormatCardsJSONL(out, snap.Lists)
		case "json":
			return boardview.FormatJSON(out, snap)
		case "default", "":
			boardview.FormatBoard(out, snap)
			if showActivity {
				printer.Printf("\nRecent activity:\n")
				boardview.FormatActivity(out, snap.Activities, time.Now())
			}
			return nil
		default:
			return printer.Error("invalid output format", fmt.Sprintf("'%s' is not one of: default, jsonl, json", showOutput), nil)
		}
	})
}

func runBoardRename(cmd *cobra.Command, args []string) error {
	title := args[0]
	return withBoard(func(ctx context.Context, eng *engine.Engine) error {
		b, err := eng.UpdateBoard(ctx, board.BoardPatch{Title: &title})
		if err != nil {
			return err
		}
		printer.Success("Renamed board to '%s'\n", b.Title)
		return nil
	})
}

func runBoardSet(cmd *cobra.Command, args []string) error {
	var patch board.BoardPatch
	if setVisibility != "" {
		v := board.Visibility(setVisibility)
		patch.Visibility = &v
	}
	if setColor != "" {
		color := setColor
		patch.BackgroundColor = &color
	}
	if patch.Visibility == nil && patch.BackgroundColor == nil {
		return printer.Error("nothing to change", "Pass --visibility and/or --color.", nil)
	}

	return withBoard(func(ctx context.Context, eng *engine.Engine) error {
		b, err := eng.UpdateBoard(ctx, patch)
		if err != nil {
			return err
		}
		printer.Success("Updated board '%s' (visibility %s)\n", b.Title, b.Visibility)
		return nil
	})
}

func runBoardDelete(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	e, err := connect(ctx)
	if err != nil {
		return err
	}
	defer e.Close()
	if err := e.requireUser(); err != nil {
		return err
	}

	id, err := resolver.ResolveBoard(ctx, e.client, args[0])
	if err != nil {
		return explain(err)
	}
	if err := e.client.DeleteBoard(ctx, id); err != nil {
		return printer.Error("failed to delete board", err.Error(), nil)
	}

	printer.Success("Deleted board %s\n", id)
	if e.cfg.Board == id {
		printer.Warning("%s still names the deleted board, run 'pinboard board use' to pick another\n", configPath)
	}
	return nil
}

func runBoardUse(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	e, err := connect(ctx)
	if err != nil {
		return err
	}
	defer e.Close()
	if err := e.requireUser(); err != nil {
		return err
	}

	id, err := resolver.ResolveBoard(ctx, e.client, args[0])
	if err != nil {
		return explain(err)
	}
	return useBoard(e.cfg, id)
}

// useBoard records boardID as the default board in the configuration file.
func useBoard(cfg *config.PinboardConfig, boardID string) error {
	cfg.Board = boardID
	if err := config.Write(configPath, cfg, true); err != nil {
		return err
	}
	printer.Success("Default board set to %s in %s\n", boardID, configPath)
	return nil
}

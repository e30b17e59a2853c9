package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dyluth/pinboard/internal/boardview"
	"github.com/dyluth/pinboard/internal/engine"
	"github.com/dyluth/pinboard/internal/printer"
	"github.com/dyluth/pinboard/internal/resolver"
	"github.com/dyluth/pinboard/internal/snapshot"
	"github.com/dyluth/pinboard/internal/timespec"
	"github.com/dyluth/pinboard/pkg/board"
	"github.com/spf13/cobra"
)

var (
	cardDescription string
	cardDue         string

	editTitle       string
	editDescription string
	editDue         string
	editClearDue    bool
	editArchive     bool
	editRestore     bool

	moveIndex int
	showJSON  bool
	unsetFlag bool
	unassign  bool
)

var cardCmd = &cobra.Command{
	Use:   "card",
	Short: "Add, edit, move and discuss cards",
	Long: `Add, edit, move and discuss the cards of the current board.

Cards and lists are referenced by title (case-insensitive), full ID or an
ID prefix of at least 6 characters.`,
}

var cardAddCmd = &cobra.Command{
	Use:   "add <list> <title>",
	Short: "Append a card to a list",
	Args:  cobra.ExactArgs(2),
	RunE:  runCardAdd,
}

var cardEditCmd = &cobra.Command{
	Use:   "edit <card>",
	Short: "Change a card's title, description, due date or archive state",
	Args:  cobra.ExactArgs(1),
	RunE:  runCardEdit,
}

var cardRmCmd = &cobra.Command{
	Use:   "rm <card>",
	Short: "Delete a card",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withBoard(func(ctx context.Context, eng *engine.Engine) error {
			c, err := findCard(eng.Snapshot(), args[0])
			if err != nil {
				return err
			}
			if err := eng.DeleteCard(ctx, c.ListID, c.ID); err != nil {
				return err
			}
			printer.Success("Deleted card '%s'\n", c.Title)
			return nil
		})
	},
}

var cardMoveCmd = &cobra.Command{
	Use:   "move <card> <list>",
	Short: "Move a card to another list (or another place in its list)",
	Args:  cobra.ExactArgs(2),
	RunE:  runCardMove,
}

var cardShowCmd = &cobra.Command{
	Use:   "show <card>",
	Short: "Show a card with its comments",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withBoard(func(ctx context.Context, eng *engine.Engine) error {
			c, err := findCard(eng.Snapshot(), args[0])
			if err != nil {
				return err
			}
			eng.Select(snapshot.Selection{ListID: c.ListID, CardID: c.ID})
			if _, err := eng.Comments(ctx, c.ID); err != nil {
				return err
			}
			c = eng.Snapshot().Card(c.ID)
			if c == nil {
				return &engine.NotFoundError{Kind: "card", ID: args[0]}
			}

			if showJSON {
				return boardview.FormatJSON(printer.Out(), c)
			}
			boardview.FormatCard(printer.Out(), c, time.Now())
			return nil
		})
	},
}

var cardCommentCmd = &cobra.Command{
	Use:   "comment <card> <text>",
	Short: "Add a comment to a card",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withBoard(func(ctx context.Context, eng *engine.Engine) error {
			c, err := findCard(eng.Snapshot(), args[0])
			if err != nil {
				return err
			}
			if _, err := eng.AddComment(ctx, c.ID, args[1]); err != nil {
				return err
			}
			printer.Success("Commented on '%s'\n", c.Title)
			return nil
		})
	},
}

var cardLabelCmd = &cobra.Command{
	Use:   "label <card> <label>",
	Short: "Attach a label to a card (or detach it with --remove)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withBoard(func(ctx context.Context, eng *engine.Engine) error {
			snap := eng.Snapshot()
			c, err := findCard(snap, args[0])
			if err != nil {
				return err
			}
			labelID, err := resolver.ResolveLabel(snap, args[1])
			if err != nil {
				return err
			}

			if unsetFlag {
				err = eng.RemoveCardLabel(ctx, c.ID, labelID)
			} else {
				err = eng.AddCardLabel(ctx, c.ID, labelID)
			}
			if err != nil {
				return err
			}
			printer.Success("Updated labels of '%s'\n", c.Title)
			return nil
		})
	},
}

var cardAssignCmd = &cobra.Command{
	Use:   "assign <card> <member>",
	Short: "Assign a board member to a card (or unassign with --remove)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withBoard(func(ctx context.Context, eng *engine.Engine) error {
			snap := eng.Snapshot()
			c, err := findCard(snap, args[0])
			if err != nil {
				return err
			}
			userID, err := resolver.ResolveMember(snap, args[1])
			if err != nil {
				return err
			}

			if unassign {
				err = eng.RemoveCardAssignee(ctx, c.ID, userID)
			} else {
				err = eng.AddCardAssignee(ctx, c.ID, userID)
			}
			if err != nil {
				return err
			}
			printer.Success("Updated assignees of '%s'\n", c.Title)
			return nil
		})
	},
}

func init() {
	cardAddCmd.Flags().StringVarP(&cardDescription, "description", "d", "", "Card description")
	cardAddCmd.Flags().StringVar(&cardDue, "due", "", "Due date (2025-10-29, RFC3339 or a duration from now such as 72h)")

	cardEditCmd.Flags().StringVarP(&editTitle, "title", "t", "", "New title")
	cardEditCmd.Flags().StringVarP(&editDescription, "description", "d", "", "New description")
	cardEditCmd.Flags().StringVar(&editDue, "due", "", "New due date")
	cardEditCmd.Flags().BoolVar(&editClearDue, "clear-due", false, "Remove the due date")
	cardEditCmd.Flags().BoolVar(&editArchive, "archive", false, "Archive the card (hides it from the board)")
	cardEditCmd.Flags().BoolVar(&editRestore, "restore", false, "Un-archive the card")
	cardEditCmd.MarkFlagsMutuallyExclusive("due", "clear-due")
	cardEditCmd.MarkFlagsMutuallyExclusive("archive", "restore")

	cardMoveCmd.Flags().IntVarP(&moveIndex, "index", "i", -1, "Zero-based position in the target list (default: end)")
	cardShowCmd.Flags().BoolVar(&showJSON, "json", false, "Output the card as JSON")
	cardLabelCmd.Flags().BoolVar(&unsetFlag, "remove", false, "Detach the label instead")
	cardAssignCmd.Flags().BoolVar(&unassign, "remove", false, "Unassign instead")

	cardCmd.AddCommand(cardAddCmd, cardEditCmd, cardRmCmd, cardMoveCmd, cardShowCmd, cardCommentCmd, cardLabelCmd, cardAssignCmd)
	rootCmd.AddCommand(cardCmd)
}

// findCard resolves a card reference and returns a copy of the card.
func findCard(snap *snapshot.Snapshot, ref string) (*board.Card, error) {
	id, err := resolver.ResolveCard(snap, ref)
	if err != nil {
		return nil, err
	}
	c := snap.Card(id)
	if c == nil {
		return nil, &engine.NotFoundError{Kind: "card", ID: id}
	}
	return c, nil
}

func runCardAdd(cmd *cobra.Command, args []string) error {
	var patch board.CardPatch
	if cardDescription != "" {
		patch.Description = &cardDescription
	}
	if cardDue != "" {
		due, err := timespec.ParseDueDate(cardDue, time.Now())
		if err != nil {
			return printer.Error("invalid due date", err.Error(), nil)
		}
		patch.DueDate = &due
	}

	return withBoard(func(ctx context.Context, eng *engine.Engine) error {
		listID, err := resolver.ResolveList(eng.Snapshot(), args[0])
		if err != nil {
			return err
		}
		c, err := eng.CreateCard(ctx, listID, args[1])
		if err != nil {
			return err
		}
		if !patch.IsEmpty() {
			if c, err = eng.UpdateCard(ctx, c.ID, patch); err != nil {
				return err
			}
		}
		printer.Success("Added card '%s' (%s)\n", c.Title, c.ID)
		return nil
	})
}

func runCardEdit(cmd *cobra.Command, args []string) error {
	var patch board.CardPatch
	if cmd.Flags().Changed("title") {
		patch.Title = &editTitle
	}
	if cmd.Flags().Changed("description") {
		patch.Description = &editDescription
	}
	if editDue != "" {
		due, err := timespec.ParseDueDate(editDue, time.Now())
		if err != nil {
			return printer.Error("invalid due date", err.Error(), nil)
		}
		patch.DueDate = &due
	}
	patch.ClearDueDate = editClearDue
	if editRestore {
		restore := false
		patch.Archived = &restore
		return restoreCard(args[0], patch)
	}
	if patch.IsEmpty() && !editArchive {
		return printer.Error("nothing to change", "Pass at least one of --title, --description, --due, --clear-due, --archive or --restore.", nil)
	}

	return withBoard(func(ctx context.Context, eng *engine.Engine) error {
		c, err := findCard(eng.Snapshot(), args[0])
		if err != nil {
			return err
		}
		if !patch.IsEmpty() {
			if _, err := eng.UpdateCard(ctx, c.ID, patch); err != nil {
				return err
			}
		}
		if editArchive {
			if err := eng.ArchiveCard(ctx, c.ListID, c.ID); err != nil {
				return err
			}
			printer.Success("Archived card '%s'\n", c.Title)
			return nil
		}
		printer.Success("Updated card '%s'\n", c.ID)
		return nil
	})
}

// restoreCard un-archives a card. Archived cards are not part of a loaded
// board, so the card is addressed by its full ID and written to the store
// directly.
func restoreCard(cardID string, patch board.CardPatch) error {
	ctx := context.Background()
	e, err := connect(ctx)
	if err != nil {
		return err
	}
	defer e.Close()
	if err := e.requireUser(); err != nil {
		return err
	}
	boardID, err := e.boardID(ctx)
	if err != nil {
		return err
	}

	c, err := e.client.UpdateCard(ctx, boardID, cardID, patch)
	switch {
	case errors.Is(err, board.ErrNotFound):
		return printer.Error("card not found", fmt.Sprintf("No card %s on this board.", cardID),
			[]string{"Archived cards are addressed by their full ID"})
	case errors.Is(err, board.ErrForbidden):
		return printer.Error("permission denied", "Your role on this board does not allow this change.", nil)
	case err != nil:
		return printer.Error("failed to restore card", err.Error(), nil)
	}

	if err := e.client.Publish(ctx, boardID, board.Event{Type: board.EventCardUpdated, CardID: c.ID}); err != nil {
		e.log.WithError(err).Warn("Failed to broadcast restore")
	}
	printer.Success("Restored card '%s'\n", c.Title)
	return nil
}

func runCardMove(cmd *cobra.Command, args []string) error {
	return withBoard(func(ctx context.Context, eng *engine.Engine) error {
		snap := eng.Snapshot()
		c, err := findCard(snap, args[0])
		if err != nil {
			return err
		}
		toListID, err := resolver.ResolveList(snap, args[1])
		if err != nil {
			return err
		}

		target := snap.List(toListID)
		index := moveIndex
		if index < 0 {
			index = len(target.Cards)
			if toListID == c.ListID {
				index = len(target.Cards) - 1
			}
		}

		if err := eng.MoveCard(ctx, c.ListID, toListID, c.ID, index); err != nil {
			return err
		}
		printer.Success("Moved card '%s' to '%s'\n", c.Title, target.Title)
		return nil
	})
}

package commands

import (
	"context"

	"github.com/dyluth/pinboard/internal/boardview"
	"github.com/dyluth/pinboard/internal/engine"
	"github.com/dyluth/pinboard/internal/printer"
	"github.com/dyluth/pinboard/internal/resolver"
	"github.com/dyluth/pinboard/pkg/board"
	"github.com/spf13/cobra"
)

var inviteRole string

var memberCmd = &cobra.Command{
	Use:   "member",
	Short: "Invite, remove and list board members",
}

var memberInviteCmd = &cobra.Command{
	Use:   "invite <email>",
	Short: "Invite an existing user to the board (owners only)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withBoard(func(ctx context.Context, eng *engine.Engine) error {
			m, err := eng.InviteMember(ctx, args[0], board.Role(inviteRole))
			if err != nil {
				return err
			}
			printer.Success("Invited %s as %s\n", m.Email, m.Role)
			return nil
		})
	},
}

var memberRmCmd = &cobra.Command{
	Use:   "rm <member>",
	Short: "Remove a member from the board (owners only)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withBoard(func(ctx context.Context, eng *engine.Engine) error {
			userID, err := resolver.ResolveMember(eng.Snapshot(), args[0])
			if err != nil {
				return err
			}
			if err := eng.RemoveMember(ctx, userID); err != nil {
				return err
			}
			printer.Success("Removed member %s\n", userID)
			return nil
		})
	},
}

var memberLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List the board's members",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withBoard(func(ctx context.Context, eng *engine.Engine) error {
			members, err := eng.Members(ctx)
			if err != nil {
				return err
			}
			boardview.FormatMembers(printer.Out(), members)
			return nil
		})
	},
}

func init() {
	memberInviteCmd.Flags().StringVar(&inviteRole, "role", string(board.RoleEditor), "Role to grant (owner, editor, viewer)")
	memberCmd.AddCommand(memberInviteCmd, memberRmCmd, memberLsCmd)
	rootCmd.AddCommand(memberCmd)
}

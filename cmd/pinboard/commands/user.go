package commands

import (
	"context"

	"github.com/dyluth/pinboard/internal/config"
	"github.com/dyluth/pinboard/internal/printer"
	"github.com/spf13/cobra"
)

var userUse bool

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage store users",
}

var userAddCmd = &cobra.Command{
	Use:   "add <email> <display-name>",
	Short: "Register a user in the store",
	Long: `Register a user in the store.

Users are identified by a store-issued ID. Pass --use to record the new user
as the acting user in pinboard.yml.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		e, err := connect(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		u, err := e.client.CreateUser(ctx, args[0], args[1])
		if err != nil {
			return printer.Error("failed to create user", err.Error(), nil)
		}
		printer.Success("Created user %s <%s> (%s)\n", u.DisplayName, u.Email, u.ID)

		if !userUse {
			return nil
		}
		e.cfg.User = config.UserConfig{ID: u.ID, DisplayName: u.DisplayName}
		if err := config.Write(configPath, e.cfg, true); err != nil {
			return err
		}
		printer.Success("Acting user set to %s in %s\n", u.DisplayName, configPath)
		return nil
	},
}

func init() {
	userAddCmd.Flags().BoolVar(&userUse, "use", false, "Make the new user the acting user in pinboard.yml")
	userCmd.AddCommand(userAddCmd)
	rootCmd.AddCommand(userCmd)
}

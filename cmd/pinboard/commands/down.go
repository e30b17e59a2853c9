package commands

import (
	"context"
	"errors"
	"fmt"

	dockerpkg "github.com/dyluth/pinboard/internal/docker"
	"github.com/dyluth/pinboard/internal/instance"
	"github.com/dyluth/pinboard/internal/printer"
	"github.com/spf13/cobra"
)

var (
	downInstanceName string
	downPurge        bool
)

var downCmd = &cobra.Command{
	Use:   "down",
	Short: "Stop a local store instance",
	Long: `Stop and remove the Docker resources of a local store instance.

This includes:
  • The Redis container
  • The Docker network

Board data survives in the instance's volume unless --purge is given.
The instance is inferred when exactly one is running.

Examples:
  # Stop the only running instance
  pinboard down

  # Stop a specific instance and delete its data
  pinboard down --name prod --purge`,
	Args: cobra.NoArgs,
	RunE: runDown,
}

func init() {
	downCmd.Flags().StringVarP(&downInstanceName, "name", "n", "", "Target instance name (auto-inferred if omitted)")
	downCmd.Flags().BoolVar(&downPurge, "purge", false, "Also delete the instance's data volume")
	rootCmd.AddCommand(downCmd)
}

func runDown(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cli, err := dockerpkg.NewClient(ctx)
	if err != nil {
		return err
	}
	defer cli.Close()

	name := downInstanceName
	if name == "" {
		name, err = instance.InferInstance(ctx, cli)
		switch {
		case errors.Is(err, instance.ErrNoInstances):
			return printer.Error(
				"no pinboard instances found",
				"No running instances found.",
				[]string{"Start an instance first:\n  pinboard up"},
			)
		case errors.Is(err, instance.ErrMultipleInstances):
			return printer.Error(
				"multiple instances found",
				"Found multiple running instances.",
				[]string{
					"Specify which instance to stop:\n  pinboard down --name <instance-name>",
					"List instances:\n  pinboard ls",
				},
			)
		case err != nil:
			return fmt.Errorf("failed to infer instance: %w", err)
		}
	}

	exists, err := instance.CheckNameCollision(ctx, cli, name)
	if err != nil {
		return err
	}
	if !exists {
		return printer.Error(
			fmt.Sprintf("instance '%s' not found", name),
			fmt.Sprintf("No containers found with instance name '%s'.", name),
			[]string{"Run 'pinboard ls' to see available instances"},
		)
	}

	if err := removeInstance(ctx, cli, name, downPurge); err != nil {
		return err
	}

	printer.Success("\nInstance '%s' removed successfully\n", name)
	return nil
}

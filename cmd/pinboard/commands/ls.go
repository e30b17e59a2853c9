package commands

import (
	"context"
	"time"

	"github.com/dyluth/pinboard/internal/boardview"
	dockerpkg "github.com/dyluth/pinboard/internal/docker"
	"github.com/dyluth/pinboard/internal/instance"
	"github.com/dyluth/pinboard/internal/printer"
	"github.com/spf13/cobra"
)

var (
	lsJSON bool
)

var lsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List local store instances",
	Long: `List local store instances by querying Docker for containers with the pinboard.project label.

For each instance, displays:
  • Instance name
  • Status (Running/Degraded/Stopped)
  • Redis URL
  • Uptime (for running instances)

Use --json for machine-readable output.`,
	Args: cobra.NoArgs,
	RunE: runLs,
}

func init() {
	lsCmd.Flags().BoolVar(&lsJSON, "json", false, "Output in JSON format")
	rootCmd.AddCommand(lsCmd)
}

func runLs(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cli, err := dockerpkg.NewClient(ctx)
	if err != nil {
		return err
	}
	defer cli.Close()

	infos, err := instance.ListInstances(ctx, cli, time.Now())
	if err != nil {
		return err
	}

	if lsJSON {
		return boardview.FormatJSON(printer.Out(), infos)
	}

	if len(infos) == 0 {
		printer.Println("No pinboard instances found.")
		printer.Println()
		printer.Println("Run 'pinboard up' to start a new instance.")
		return nil
	}

	printer.Printf("%-15s %-10s %-28s %s\n", "INSTANCE", "STATUS", "REDIS", "UPTIME")
	for _, info := range infos {
		url := info.RedisURL
		if url == "" {
			url = "-"
		}
		printer.Printf("%-15s %-10s %-28s %s\n", info.Name, info.Status, url, info.Uptime)
	}
	return nil
}

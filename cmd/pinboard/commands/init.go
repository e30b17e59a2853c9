package commands

import (
	"github.com/dyluth/pinboard/internal/config"
	"github.com/dyluth/pinboard/internal/printer"
	"github.com/spf13/cobra"
)

var (
	forceInit    bool
	initRedisURL string
	initNS       string
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a pinboard.yml with default settings",
	Long: `Create a pinboard.yml configuration file in the current directory.

The file records where boards are stored (a Redis URL or a local instance),
the key namespace, the acting user and the default board.

Use --force to overwrite an existing file.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVarP(&forceInit, "force", "f", false, "Overwrite an existing configuration file")
	initCmd.Flags().StringVar(&initRedisURL, "redis-url", "", "Redis URL of the store (omit to use a local instance)")
	initCmd.Flags().StringVar(&initNS, "namespace", config.DefaultNamespace, "Key namespace inside Redis")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	cfg.Store.RedisURL = initRedisURL
	cfg.Store.Namespace = initNS
	if err := cfg.Validate(); err != nil {
		return printer.Error("invalid settings", err.Error(), nil)
	}

	if err := config.Write(configPath, cfg, forceInit); err != nil {
		return printer.Error(
			"configuration already exists",
			err.Error(),
			[]string{"Keep the existing file", "Overwrite it:\n  pinboard init --force"},
		)
	}

	printer.Success("Created %s\n\n", configPath)
	printer.Info("Next steps:\n")
	if cfg.Store.RedisURL == "" {
		printer.Info("  1. Run 'pinboard up' to start a local store\n")
	} else {
		printer.Info("  1. Store: %s\n", cfg.Store.RedisURL)
	}
	printer.Info("  2. Run 'pinboard user add <email> <name> --use' to create your user\n")
	printer.Info("  3. Run 'pinboard board create <title> --use' to start a board\n")
	return nil
}

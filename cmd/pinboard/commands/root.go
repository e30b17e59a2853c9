package commands

import (
	"fmt"

	"github.com/dyluth/pinboard/internal/config"
	"github.com/spf13/cobra"
)

var (
	version string
	commit  string
	date    string
)

// Global flags
var (
	configPath   string
	logLevelFlag string
	boardFlag    string
	instanceFlag string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "pinboard",
	Short: "Pinboard - collaborative Kanban boards in your terminal",
	Long: `Pinboard is a collaborative Kanban board backed by Redis.

Boards contain ordered lists, lists contain ordered cards. Every change is
applied locally first, confirmed against the store and broadcast to every
other open session of the same board.

Start a local store with 'pinboard up' or point store.redis_url in
pinboard.yml at an existing Redis.`,
	Version: version,
	// Prevent silent success when unknown flags are passed to root command
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
	FParseErrWhitelist: cobra.FParseErrWhitelist{},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	// We print formatted colored errors directly in the printer package
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
	return rootCmd.Execute()
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", v, c, d)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultFileName, "Path to pinboard.yml")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Log level (overrides log_level in pinboard.yml)")
	rootCmd.PersistentFlags().StringVarP(&boardFlag, "board", "b", "", "Board ID, ID prefix or title (defaults to 'board' in pinboard.yml)")
	rootCmd.PersistentFlags().StringVar(&instanceFlag, "instance", "", "Local instance to use when no redis_url is configured")
}

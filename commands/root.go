// Package commands implements the taskquest command line.
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cppla/taskquest/config"
	"github.com/cppla/taskquest/utils"
)

var (
	version = "dev"
	commit  string
	date    string
)

// rootCmd runs the HTTP server when called without a subcommand.
var rootCmd = &cobra.Command{
	Use:   "taskquest",
	Short: "taskquest - XP, levels, streaks and badges for completed tasks",
	Long: `taskquest turns task completion events into experience points, levels,
a daily completion streak and unlockable badges.

Run without a subcommand to start the HTTP API.`,
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		return utils.InitLogger(cfg)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd, args)
	},
}

// Execute runs the root command. It is called once by main.main.
func Execute() error {
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
	err := rootCmd.Execute()
	if err != nil {
		printError(err)
	}
	_ = utils.Logger.Sync()
	return err
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", v, c, d)
}

func init() {
	rootCmd.AddCommand(serveCmd, seedCmd, completeCmd, uncompleteCmd, showCmd)
}

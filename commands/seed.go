package commands

import (
	"github.com/spf13/cobra"

	"github.com/cppla/taskquest/config"
)

var seedSync bool

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the badge catalog",
	Long: `Seed inserts the configured badge catalog when the badges table is empty.

With --sync, definitions whose code is not stored yet are added to a non-empty
catalog as well. Existing badges are never modified.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(config.Get())
		if err != nil {
			return err
		}
		defer a.close()

		if !seedSync {
			if err := a.badges.EnsureSeeded(cmd.Context()); err != nil {
				return err
			}
			printSuccess("badge catalog seeded\n")
			return nil
		}

		n, err := a.badges.AddMissing(cmd.Context(), a.catalog)
		if err != nil {
			return err
		}
		printSuccess("badge catalog synced, %d new badge(s)\n", n)
		return nil
	},
}

func init() {
	seedCmd.Flags().BoolVar(&seedSync, "sync", false, "add catalog entries missing from a non-empty table")
}

package commands

import (
	"github.com/spf13/cobra"

	"github.com/cppla/taskquest/config"
)

var eventSubject string

var completeCmd = &cobra.Command{
	Use:   "complete",
	Short: "Record a task completion for a subject",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(config.Get())
		if err != nil {
			return err
		}
		defer a.close()

		res, err := a.tracker.OnTaskCompleted(cmd.Context(), subjectOrDefault(eventSubject))
		if err != nil {
			return err
		}
		printResult(res)
		return nil
	},
}

var uncompleteCmd = &cobra.Command{
	Use:   "uncomplete",
	Short: "Record a task going back to incomplete (rewards are kept)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(config.Get())
		if err != nil {
			return err
		}
		defer a.close()

		res, err := a.tracker.OnTaskUncompleted(cmd.Context(), subjectOrDefault(eventSubject))
		if err != nil {
			return err
		}
		printResult(res)
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show a subject's profile and badges",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(config.Get())
		if err != nil {
			return err
		}
		defer a.close()

		subject := subjectOrDefault(eventSubject)
		p, err := a.tracker.Profile(cmd.Context(), subject)
		if err != nil {
			return err
		}
		statuses, err := a.tracker.CatalogFor(cmd.Context(), subject)
		if err != nil {
			return err
		}
		printProfile(p)
		printBadges(statuses)
		return nil
	},
}

func subjectOrDefault(s string) string {
	if s == "" {
		return config.Get().DefaultSubject
	}
	return s
}

func init() {
	for _, c := range []*cobra.Command{completeCmd, uncompleteCmd, showCmd} {
		c.Flags().StringVarP(&eventSubject, "subject", "s", "", "subject id (defaults to DEFAULT_SUBJECT)")
	}
}

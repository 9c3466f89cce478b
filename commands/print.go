package commands

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/cppla/taskquest/models"
	"github.com/cppla/taskquest/progress"
)

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed, color.Bold)
	faint  = color.New(color.Faint)
	bold   = color.New(color.Bold)

	out io.Writer = os.Stdout
)

func printSuccess(format string, a ...any) {
	green.Fprintf(out, "✓ "+format, a...)
}

func printError(err error) {
	red.Fprintf(os.Stderr, "Error: %v\n", err)
}

func printResult(res progress.Result) {
	printProfile(res.Profile)
	for _, b := range res.NewlyAwarded {
		yellow.Fprintf(out, "%s badge unlocked: %s (%s)\n", iconOr(b.Icon), b.Title, b.Code)
	}
}

func printProfile(p models.Profile) {
	bold.Fprintf(out, "%s\n", p.SubjectID)
	fmt.Fprintf(out, "  level      %d\n", p.Level)
	fmt.Fprintf(out, "  xp         %d  %s\n", p.XP, levelBar(p.XP))
	fmt.Fprintf(out, "  streak     %d day(s)\n", p.StreakCount)
	fmt.Fprintf(out, "  completed  %d\n", p.CompletedCount)
	if p.LastCompletedAt != nil {
		fmt.Fprintf(out, "  last       %s\n", p.LastCompletedAt.UTC().Format("2006-01-02 15:04 MST"))
	}
}

func printBadges(statuses []progress.BadgeStatus) {
	fmt.Fprintln(out)
	for _, st := range statuses {
		line := fmt.Sprintf("  %s %-16s %s (%s >= %d)\n", iconOr(st.Icon), st.Title, st.Description, st.Criteria, st.Threshold)
		if st.Unlocked {
			green.Fprint(out, line)
		} else {
			faint.Fprint(out, line)
		}
	}
}

// levelBar renders progress within the current level as ten cells.
func levelBar(xp int) string {
	filled := (xp % progress.XPPerLevel) * 10 / progress.XPPerLevel
	return "[" + strings.Repeat("#", filled) + strings.Repeat(".", 10-filled) + "]"
}

func iconOr(icon string) string {
	if icon == "" {
		return "*"
	}
	return icon
}

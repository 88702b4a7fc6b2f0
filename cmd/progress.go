package cmd

import (
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/chris-regnier/dailyctl/internal/ui"
)

var (
	progressDate  string
	progressDates bool
)

var progressCmd = &cobra.Command{
	Use:   "progress <account-id>",
	Short: "Show where an account stands in its game's levels",
	Example: `  dailyctl progress 3
  dailyctl progress 3 --date 2025-07-01
  dailyctl progress 3 --dates`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if progressDates {
			exitOn(levelDatesRun(os.Stdout, args[0]))
			return nil
		}
		date := progressDate
		if date == "" {
			date = time.Now().Format(dateLayout)
		}
		exitOn(progressRun(os.Stdout, args[0], date))
		return nil
	},
}

func progressRun(w io.Writer, accountArg, date string) error {
	id, err := parseID("account", accountArg)
	if err != nil {
		return err
	}
	p, err := scheduler.AccountProgress(id, date)
	if err != nil {
		return err
	}
	return output(w, p, func(w io.Writer) { ui.FormatProgress(w, p) })
}

func levelDatesRun(w io.Writer, accountArg string) error {
	id, err := parseID("account", accountArg)
	if err != nil {
		return err
	}
	dates, err := scheduler.LevelDates(id)
	if err != nil {
		return err
	}
	return output(w, dates, func(w io.Writer) { ui.FormatLevelDates(w, dates) })
}

func init() {
	progressCmd.Flags().StringVar(&progressDate, "date", "", "target date YYYY-MM-DD (default today)")
	progressCmd.Flags().BoolVar(&progressDates, "dates", false, "list the calendar date of every level")
	rootCmd.AddCommand(progressCmd)
}

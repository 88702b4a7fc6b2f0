package cmd

import (
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/chris-regnier/dailyctl/internal/ui"
)

var (
	dueDate    string
	dueNoCache bool
)

var dueCmd = &cobra.Command{
	Use:   "due <account-id>",
	Short: "Render the requests due for an account",
	Long: `Render every request due for an account on a date: a session and an
event request per level not yet completed, and a session and an event
request per scheduled purchase not yet completed.

Results are cached per account and day so durations stay the same when
asked again; --no-cache recomputes them.`,
	Example: `  dailyctl due 3
  dailyctl due 3 --date 2025-07-01 --json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		date := dueDate
		if date == "" {
			date = time.Now().Format(dateLayout)
		}
		exitOn(dueRun(os.Stdout, args[0], date, dueNoCache))
		return nil
	},
}

func dueRun(w io.Writer, accountArg, date string, noCache bool) error {
	id, err := parseID("account", accountArg)
	if err != nil {
		return err
	}
	if noCache {
		if err := planner.Invalidate(rootContext(), id); err != nil {
			return err
		}
	}
	dr, err := planner.Requests(rootContext(), id, date)
	if err != nil {
		return err
	}
	return output(w, dr, func(w io.Writer) { ui.FormatDailyRequests(w, dr) })
}

func init() {
	dueCmd.Flags().StringVar(&dueDate, "date", "", "target date YYYY-MM-DD (default today)")
	dueCmd.Flags().BoolVar(&dueNoCache, "no-cache", false, "recompute instead of using cached durations")
	rootCmd.AddCommand(dueCmd)
}

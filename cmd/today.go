package cmd

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/chris-regnier/dailyctl/internal/daily"
	"github.com/chris-regnier/dailyctl/internal/ui"
)

var (
	todayDate  string
	todayBoard bool
)

var todayCmd = &cobra.Command{
	Use:   "today",
	Short: "Plan the day's requests across every account",
	Long: `Compute the due requests of every account of every game, group each
session with its event, and interleave the groups into batches holding at
most one group per game.

With --board the plan opens in an interactive list where tasks can be
viewed and marked completed.`,
	Example: `  dailyctl today
  dailyctl today --board
  dailyctl today --date 2025-07-01 --json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		date := todayDate
		if date == "" {
			date = time.Now().Format(dateLayout)
		}
		if todayBoard {
			exitOn(todayBoardRun(cmd.Context(), date))
			return nil
		}
		exitOn(todayRun(cmd.Context(), os.Stdout, date))
		return nil
	},
}

func todayRun(ctx context.Context, w io.Writer, date string) error {
	plan, err := planner.Today(ctx, date)
	if err != nil {
		return err
	}
	return output(w, plan, func(w io.Writer) { ui.FormatPlan(w, plan) })
}

// completeGroup marks every milestone behind a board task done.
func completeGroup(ctx context.Context, g daily.Group) error {
	levels := make(map[int64]bool)
	purchases := make(map[int64]bool)
	for _, r := range g.Requests {
		switch {
		case r.LevelID != nil && !levels[*r.LevelID]:
			levels[*r.LevelID] = true
			if _, err := planner.CompleteLevel(ctx, store, g.AccountID, *r.LevelID, true); err != nil {
				return err
			}
		case r.LevelID == nil && r.PurchaseEventID != 0 && !purchases[r.PurchaseEventID]:
			purchases[r.PurchaseEventID] = true
			if _, err := planner.CompletePurchase(ctx, store, g.AccountID, r.PurchaseEventID, true); err != nil {
				return err
			}
		}
	}
	return nil
}

func todayBoardRun(ctx context.Context, date string) error {
	plan, err := planner.Today(ctx, date)
	if err != nil {
		return err
	}
	return ui.RunBoard(plan, ui.BoardConfig{
		MaxWidth: 120,
		Theme:    ui.ResolveTheme(appConfig.Theme),
		Complete: func(g daily.Group) error {
			return completeGroup(ctx, g)
		},
	})
}

func init() {
	todayCmd.Flags().StringVar(&todayDate, "date", "", "target date YYYY-MM-DD (default today)")
	todayCmd.Flags().BoolVar(&todayBoard, "board", false, "open the interactive board")
	rootCmd.AddCommand(todayCmd)
}

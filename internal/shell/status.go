package shell

import (
	"context"

	"github.com/chris-regnier/dailyctl/internal/daily"
)

// ComputeStatus plans date across every account and reports how many
// requests are still pending and how many accounts have something due.
func ComputeStatus(ctx context.Context, planner *daily.Planner, date string) (pending, accountsDue int, err error) {
	plan, err := planner.Today(ctx, date)
	if err != nil {
		return 0, 0, err
	}
	return plan.Pending(), len(plan.Accounts), nil
}

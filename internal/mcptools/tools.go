package mcptools

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/chris-regnier/dailyctl/internal/shell"
)

// ComputeDailyRequestsHandler returns the handler function for the compute_daily_requests MCP tool.
func ComputeDailyRequestsHandler(d *Deps) func(ctx context.Context, req *mcp.CallToolRequest, input DailyRequestsInput) (*mcp.CallToolResult, DailyRequestsOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input DailyRequestsInput) (*mcp.CallToolResult, DailyRequestsOutput, error) {
		d.mu.Lock()
		defer d.mu.Unlock()

		dr, err := d.Planner.Requests(ctx, input.AccountID, dateOrToday(input.Date, d.Scheduler.Now()))
		if err != nil {
			return nil, DailyRequestsOutput{}, err
		}

		out := DailyRequestsOutput{
			AccountID:   dr.AccountID,
			AccountName: dr.AccountName,
			TargetDate:  dr.TargetDate,
			DaysPassed:  dr.DaysPassed,
			Requests:    make([]RequestResult, 0, len(dr.Requests)),
		}
		for _, r := range dr.Requests {
			out.Requests = append(out.Requests, RequestResult{
				RequestType:     r.RequestType,
				EventToken:      r.EventToken,
				LevelID:         r.LevelID,
				PurchaseEventID: r.PurchaseEventID,
				TimeSpent:       r.TimeSpent,
				Timestamp:       r.Timestamp,
				Content:         r.Content,
			})
		}
		return nil, out, nil
	}
}

// AccountProgressHandler returns the handler function for the account_progress MCP tool.
func AccountProgressHandler(d *Deps) func(ctx context.Context, req *mcp.CallToolRequest, input ProgressInput) (*mcp.CallToolResult, ProgressOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input ProgressInput) (*mcp.CallToolResult, ProgressOutput, error) {
		d.mu.Lock()
		defer d.mu.Unlock()

		p, err := d.Scheduler.AccountProgress(input.AccountID, dateOrToday(input.Date, d.Scheduler.Now()))
		if err != nil {
			return nil, ProgressOutput{}, err
		}

		out := ProgressOutput{
			AccountName:     p.AccountName,
			TargetDate:      p.TargetDate,
			DaysPassed:      p.DaysPassed,
			CompletedLevels: make([]LevelResult, 0, len(p.CompletedLevels)),
			RemainingLevels: len(p.RemainingLevels),
		}
		if p.CurrentLevel != nil {
			lr := levelResult(*p.CurrentLevel)
			out.CurrentLevel = &lr
		}
		if p.NextLevel != nil {
			lr := levelResult(*p.NextLevel)
			out.NextLevel = &lr
		}
		for _, l := range p.CompletedLevels {
			out.CompletedLevels = append(out.CompletedLevels, levelResult(l))
		}
		return nil, out, nil
	}
}

// ListAccountsHandler returns the handler function for the list_accounts MCP tool.
func ListAccountsHandler(d *Deps) func(ctx context.Context, req *mcp.CallToolRequest, input ListAccountsInput) (*mcp.CallToolResult, ListAccountsOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input ListAccountsInput) (*mcp.CallToolResult, ListAccountsOutput, error) {
		d.mu.Lock()
		defer d.mu.Unlock()

		limit := input.Limit
		if limit <= 0 {
			limit = 50
		}
		accounts, err := d.Store.ListAccounts(input.GameID)
		if err != nil {
			return nil, ListAccountsOutput{}, err
		}

		results := make([]AccountResult, 0, len(accounts))
		for _, a := range accounts {
			if len(results) >= limit {
				break
			}
			results = append(results, AccountResult{
				ID:          a.ID,
				GameID:      a.GameID,
				Name:        truncate(a.Name, 100),
				StartDate:   a.StartDate,
				StartTime:   a.StartTime,
				HasTemplate: a.RequestTemplate != "",
			})
		}
		return nil, ListAccountsOutput{Accounts: results}, nil
	}
}

// CompleteLevelHandler returns the handler function for the complete_level MCP tool.
func CompleteLevelHandler(d *Deps) func(ctx context.Context, req *mcp.CallToolRequest, input CompleteLevelInput) (*mcp.CallToolResult, CompleteLevelOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input CompleteLevelInput) (*mcp.CallToolResult, CompleteLevelOutput, error) {
		d.mu.Lock()
		defer d.mu.Unlock()

		lp, err := d.Planner.CompleteLevel(ctx, d.Store, input.AccountID, input.LevelID, !input.Undo)
		if err != nil {
			return nil, CompleteLevelOutput{}, err
		}

		// Invalidate shell prompt cache (best-effort)
		if d.DataDir != "" {
			_ = shell.InvalidateCache(d.DataDir)
		}

		out := CompleteLevelOutput{
			AccountID:   lp.AccountID,
			LevelID:     lp.LevelID,
			IsCompleted: lp.IsCompleted,
		}
		if lp.CompletedAt != nil {
			out.CompletedAt = lp.CompletedAt.Format(time.RFC3339)
		}
		return nil, out, nil
	}
}

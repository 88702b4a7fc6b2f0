package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/bytedance/sonic"

	"github.com/chris-regnier/dailyctl/internal/daily"
	"github.com/chris-regnier/dailyctl/internal/model"
	"github.com/chris-regnier/dailyctl/internal/schedule"
)

const timestampLayout = "2006-01-02 15:04"

// FormatCreated confirms a new record.
func FormatCreated(w io.Writer, kind string, id int64, name string) {
	fmt.Fprintf(w, "Created %s %d (%s)\n", kind, id, name)
}

// FormatUpdated confirms a changed record.
func FormatUpdated(w io.Writer, kind string, id int64) {
	fmt.Fprintf(w, "Updated %s %d\n", kind, id)
}

// FormatDeleted confirms a removal.
func FormatDeleted(w io.Writer, kind string, id int64) {
	fmt.Fprintf(w, "Deleted %s %d.\n", kind, id)
}

// DeleteResult is the JSON form of a delete confirmation.
type DeleteResult struct {
	Kind    string `json:"kind"`
	ID      int64  `json:"id"`
	Deleted bool   `json:"deleted"`
}

func FormatGameList(w io.Writer, games []model.Game) {
	if len(games) == 0 {
		fmt.Fprintln(w, "No games found.")
		return
	}
	for _, g := range games {
		fmt.Fprintf(w, "%d  %s  %s\n", g.ID, g.Name, g.CreatedAt.Local().Format(timestampLayout))
	}
}

func FormatAccountList(w io.Writer, accounts []model.Account) {
	if len(accounts) == 0 {
		fmt.Fprintln(w, "No accounts found.")
		return
	}
	for _, a := range accounts {
		fmt.Fprintf(w, "%d  game %d  %s  started %s %s\n", a.ID, a.GameID, a.Name, a.StartDate, a.StartTime)
	}
}

// FormatAccountFull shows an account with its request template.
func FormatAccountFull(w io.Writer, a model.Account) {
	fmt.Fprintf(w, "Account: %s\n", a.Name)
	fmt.Fprintf(w, "ID: %d\n", a.ID)
	fmt.Fprintf(w, "Game: %d\n", a.GameID)
	fmt.Fprintf(w, "Start: %s %s\n", a.StartDate, a.StartTime)
	fmt.Fprintf(w, "Created: %s\n", a.CreatedAt.Local().Format(timestampLayout))
	fmt.Fprintln(w)
	if a.RequestTemplate == "" {
		fmt.Fprintln(w, "(no request template)")
		return
	}
	fmt.Fprintln(w, a.RequestTemplate)
}

func FormatLevelList(w io.Writer, levels []model.Level) {
	if len(levels) == 0 {
		fmt.Fprintln(w, "No levels found.")
		return
	}
	for _, l := range levels {
		var flags []string
		if l.SessionOnly() {
			flags = append(flags, "session-only")
		}
		if l.IsBonus {
			flags = append(flags, "bonus")
		}
		line := fmt.Sprintf("%d  day %-3d  %-20s  %-12s  time %d", l.ID, l.DaysOffset, l.EventToken, l.LevelName, l.TimeSpent)
		if len(flags) > 0 {
			line += "  [" + strings.Join(flags, ",") + "]"
		}
		fmt.Fprintln(w, line)
	}
}

func FormatPurchaseEventList(w io.Writer, events []model.PurchaseEvent) {
	if len(events) == 0 {
		fmt.Fprintln(w, "No purchase events found.")
		return
	}
	for _, e := range events {
		limit := "any day"
		if e.IsRestricted && e.MaxDaysOffset != nil {
			limit = fmt.Sprintf("before day %d", *e.MaxDaysOffset)
		}
		fmt.Fprintf(w, "%d  %s  %s\n", e.ID, e.EventToken, limit)
	}
}

// FormatPurchaseSchedule lists an account's scheduled purchases, naming
// each by its catalog token.
func FormatPurchaseSchedule(w io.Writer, progress []model.PurchaseProgress, events []model.PurchaseEvent) {
	if len(progress) == 0 {
		fmt.Fprintln(w, "No purchases scheduled.")
		return
	}
	tokens := make(map[int64]string, len(events))
	for _, e := range events {
		tokens[e.ID] = e.EventToken
	}
	for _, p := range progress {
		token, ok := tokens[p.PurchaseEventID]
		if !ok {
			token = fmt.Sprintf("event %d", p.PurchaseEventID)
		}
		fmt.Fprintf(w, "%d  day %-3d  %-20s  time %d  %s\n", p.PurchaseEventID, p.DaysOffset, token, p.TimeSpent, doneMark(p.IsCompleted))
	}
}

func doneMark(done bool) string {
	if done {
		return "done"
	}
	return "pending"
}

// FormatDailyRequests writes each due request's raw content under a short
// header so the output can be replayed or piped.
func FormatDailyRequests(w io.Writer, dr schedule.DailyRequests) {
	fmt.Fprintf(w, "%s  %s  day %d\n", dr.AccountName, dr.TargetDate, dr.DaysPassed)
	if len(dr.Requests) == 0 {
		fmt.Fprintln(w, "Nothing due.")
		return
	}
	for _, r := range dr.Requests {
		fmt.Fprintf(w, "\n### %s %s time=%d ts=%s\n", r.RequestType, r.EventToken, r.TimeSpent, r.Timestamp)
		fmt.Fprintln(w, strings.TrimRight(r.Content, "\n"))
	}
}

func levelLabel(l *model.Level) string {
	if l == nil {
		return "-"
	}
	return fmt.Sprintf("%s (day %d)", l.EventToken, l.DaysOffset)
}

func FormatProgress(w io.Writer, p schedule.Progress) {
	fmt.Fprintf(w, "Account: %s\n", p.AccountName)
	fmt.Fprintf(w, "Date: %s (day %d)\n", p.TargetDate, p.DaysPassed)
	fmt.Fprintf(w, "Current: %s\n", levelLabel(p.CurrentLevel))
	fmt.Fprintf(w, "Next: %s\n", levelLabel(p.NextLevel))
	fmt.Fprintf(w, "Completed: %d  Remaining: %d\n", len(p.CompletedLevels), len(p.RemainingLevels))
}

func FormatLevelDates(w io.Writer, dates []schedule.LevelDate) {
	if len(dates) == 0 {
		fmt.Fprintln(w, "No levels found.")
		return
	}
	for _, d := range dates {
		fmt.Fprintf(w, "%s  day %-3d  %-20s  %s\n", d.Date, d.DaysOffset, d.EventToken, doneMark(d.Completed))
	}
}

// FormatPlan prints the day's batches in order, one line per group.
func FormatPlan(w io.Writer, plan daily.Plan) {
	if len(plan.Batches) == 0 {
		fmt.Fprintf(w, "Nothing due on %s.\n", plan.Date)
	}
	for _, b := range plan.Batches {
		fmt.Fprintf(w, "Batch %d\n", b.Index+1)
		for _, g := range b.Groups {
			fmt.Fprintf(w, "  %-12s %-16s %-20s %d request(s)  time %d", g.GameName, g.AccountName, g.EventToken, len(g.Requests), g.TimeSpent)
			if g.Offset > 0 {
				fmt.Fprintf(w, "  +%s", g.Offset)
			}
			fmt.Fprintln(w)
		}
	}
	for _, e := range plan.Errors {
		fmt.Fprintf(w, "error: account %d (%s): %s\n", e.AccountID, e.AccountName, e.Error)
	}
}

// FormatJSON writes v as indented JSON.
func FormatJSON(w io.Writer, v any) error {
	b, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s\n", b)
	return err
}

package daily

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/chris-regnier/dailyctl/internal/cache"
	"github.com/chris-regnier/dailyctl/internal/model"
	"github.com/chris-regnier/dailyctl/internal/schedule"
	"github.com/chris-regnier/dailyctl/internal/storage"
	"github.com/chris-regnier/dailyctl/internal/storage/memory"
)

const tmpl = "POST /session HTTP/1.1\n\n{\"t\":{time_spent},\"e\":\"{event_token}\"}"

func seed(t *testing.T, s *memory.Store, game string, accounts ...string) (model.Game, []model.Account) {
	t.Helper()
	g, err := s.CreateGame(model.NewGame{Name: game})
	if err != nil {
		t.Fatalf("CreateGame: %v", err)
	}
	var out []model.Account
	for _, name := range accounts {
		a, err := s.CreateAccount(model.NewAccount{
			GameID: g.ID, Name: name, StartDate: "2025-01-01", StartTime: "09:00", RequestTemplate: tmpl,
		})
		if err != nil {
			t.Fatalf("CreateAccount: %v", err)
		}
		out = append(out, a)
	}
	return g, out
}

func level(t *testing.T, s *memory.Store, gameID int64, token string, day, spent int) model.Level {
	t.Helper()
	l, err := s.CreateLevel(model.NewLevel{GameID: gameID, EventToken: token, LevelName: token, DaysOffset: day, TimeSpent: spent})
	if err != nil {
		t.Fatalf("CreateLevel: %v", err)
	}
	return l
}

func TestGroupRequests(t *testing.T) {
	reqs := []schedule.Request{
		{RequestType: "session", EventToken: "b", TimeSpent: 50},
		{RequestType: "event", EventToken: "b", TimeSpent: 50},
		{RequestType: "session", EventToken: "a", TimeSpent: 20},
		{RequestType: "event", EventToken: "a", TimeSpent: 20},
		{RequestType: "session", EventToken: "c", TimeSpent: 20},
	}
	groups, err := GroupRequests(reqs)
	if err != nil {
		t.Fatalf("GroupRequests: %v", err)
	}
	if len(groups) != 3 {
		t.Fatalf("groups = %d, want 3", len(groups))
	}
	wantTokens := []string{"a", "c", "b"}
	wantSizes := []int{2, 1, 2}
	for i, g := range groups {
		if g.EventToken != wantTokens[i] || len(g.Requests) != wantSizes[i] {
			t.Errorf("group %d = %s with %d requests", i, g.EventToken, len(g.Requests))
		}
		if len(g.ID) != idLength {
			t.Errorf("group %d id = %q", i, g.ID)
		}
	}
	if groups[0].Requests[0].RequestType != "session" {
		t.Error("session should stay ahead of its event")
	}
	if groups[2].Offset != 30*time.Second {
		t.Errorf("offset = %v, want 30s", groups[2].Offset)
	}
}

func TestInterleave(t *testing.T) {
	g := func(tok string) Group { return Group{EventToken: tok} }
	perGame := [][]AccountPlan{
		{
			{AccountName: "a1", Groups: []Group{g("a1-1"), g("a1-2")}},
			{AccountName: "a2", Groups: []Group{g("a2-1")}},
		},
		{
			{AccountName: "b1", Groups: []Group{g("b1-1")}},
		},
	}
	batches := Interleave(perGame)
	want := [][]string{{"a1-1", "b1-1"}, {"a1-2"}, {"a2-1"}}
	if len(batches) != len(want) {
		t.Fatalf("batches = %d, want %d", len(batches), len(want))
	}
	for i, b := range batches {
		if b.Index != i || len(b.Groups) != len(want[i]) {
			t.Fatalf("batch %d = %+v", i, b)
		}
		for j, grp := range b.Groups {
			if grp.EventToken != want[i][j] {
				t.Errorf("batch %d group %d = %s, want %s", i, j, grp.EventToken, want[i][j])
			}
		}
	}
	if len(Interleave(nil)) != 0 {
		t.Error("empty input should give no batches")
	}
}

func TestPlannerToday(t *testing.T) {
	s := memory.New()
	g1, _ := seed(t, s, "Galaxy", "main", "alt")
	g2, _ := seed(t, s, "Farm", "farmer")
	level(t, s, g1.ID, "g1l0", 0, 10)
	level(t, s, g1.ID, "g1l0b", 0, 40)
	level(t, s, g2.ID, "g2l0", 0, 20)

	sched := schedule.New(s, schedule.WithRand(schedule.NewRand(1)))
	p := NewPlanner(s, sched, nil, time.Hour)
	plan, err := p.Today(context.Background(), "2025-01-01")
	if err != nil {
		t.Fatalf("Today: %v", err)
	}
	if len(plan.Accounts) != 3 {
		t.Fatalf("accounts = %d, want 3", len(plan.Accounts))
	}
	if plan.Pending() != 10 {
		t.Errorf("pending = %d, want 10", plan.Pending())
	}
	// Galaxy: main has 2 groups, alt has 2; Farm: farmer has 1.
	if len(plan.Batches) != 4 {
		t.Fatalf("batches = %d, want 4", len(plan.Batches))
	}
	first := plan.Batches[0]
	if len(first.Groups) != 2 || first.Groups[0].GameName != "Galaxy" || first.Groups[1].GameName != "Farm" {
		t.Errorf("first batch = %+v", first)
	}
	for _, b := range plan.Batches[1:] {
		for _, grp := range b.Groups {
			if grp.GameName != "Galaxy" {
				t.Errorf("later batch holds %s", grp.GameName)
			}
		}
	}
}

func TestPlannerRecordsAccountErrors(t *testing.T) {
	s := memory.New()
	g, _ := seed(t, s, "Galaxy", "main")
	if _, err := s.CreateAccount(model.NewAccount{
		GameID: g.ID, Name: "late", StartDate: "2025-06-01", StartTime: "09:00",
	}); err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	level(t, s, g.ID, "l0", 0, 10)

	plan, err := NewPlanner(s, schedule.New(s), nil, time.Hour).Today(context.Background(), "2025-01-01")
	if err != nil {
		t.Fatalf("Today: %v", err)
	}
	if len(plan.Errors) != 1 || plan.Errors[0].AccountName != "late" {
		t.Errorf("errors = %+v", plan.Errors)
	}
	if len(plan.Accounts) != 1 {
		t.Errorf("accounts = %d, want 1", len(plan.Accounts))
	}
}

func TestPlannerCachesDurations(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	g, accounts := seed(t, s, "Galaxy", "main")
	l := level(t, s, g.ID, "l0", 0, 30)
	c, err := cache.NewFile(t.TempDir())
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}
	p := NewPlanner(s, schedule.New(s), c, time.Hour)
	id := accounts[0].ID

	first, err := p.Requests(ctx, id, "2025-01-01")
	if err != nil {
		t.Fatalf("Requests: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := p.Requests(ctx, id, "2025-01-01")
		if err != nil {
			t.Fatalf("Requests: %v", err)
		}
		if again.Requests[0].TimeSpent != first.Requests[0].TimeSpent {
			t.Fatalf("cached duration changed: %d -> %d", first.Requests[0].TimeSpent, again.Requests[0].TimeSpent)
		}
	}

	if _, err := s.EnsureLevelProgress(id, l.ID); err != nil {
		t.Fatalf("EnsureLevelProgress: %v", err)
	}
	if _, err := s.SetLevelCompleted(id, l.ID, true); err != nil {
		t.Fatalf("SetLevelCompleted: %v", err)
	}
	if err := p.Invalidate(ctx, id); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}
	after, err := p.Requests(ctx, id, "2025-01-01")
	if err != nil {
		t.Fatalf("Requests: %v", err)
	}
	if len(after.Requests) != 0 {
		t.Errorf("completed level still planned: %+v", after.Requests)
	}
}

func TestPlannerPropagatesScheduleErrors(t *testing.T) {
	s := memory.New()
	_, err := NewPlanner(s, schedule.New(s), nil, time.Hour).Requests(context.Background(), 42, "2025-01-01")
	if !errors.Is(err, schedule.ErrAccountNotFound) {
		t.Errorf("error = %v, want ErrAccountNotFound", err)
	}
}

func TestReadyAt(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	a := model.Account{StartDate: "2025-01-01", StartTime: "09:30"}
	got := ReadyAt(a, 90, now)
	want := time.Date(2025, 1, 1, 9, 31, 30, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("ReadyAt = %v, want %v", got, want)
	}
	if got := ReadyAt(model.Account{StartDate: "bad", StartTime: "09:30"}, 90, now); !got.Equal(now) {
		t.Errorf("fallback = %v, want now", got)
	}
}

func TestCompleteLevel(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	g, accounts := seed(t, s, "Galaxy", "main")
	other, _ := seed(t, s, "Farm")
	l := level(t, s, g.ID, "l0", 0, 30)
	foreign := level(t, s, other.ID, "f0", 0, 30)
	id := accounts[0].ID

	c, err := cache.NewFile(t.TempDir())
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}
	p := NewPlanner(s, schedule.New(s), c, time.Hour)
	if dr, err := p.Requests(ctx, id, "2025-01-01"); err != nil || len(dr.Requests) != 2 {
		t.Fatalf("Requests = %+v, %v", dr, err)
	}

	lp, err := p.CompleteLevel(ctx, s, id, l.ID, true)
	if err != nil {
		t.Fatalf("CompleteLevel: %v", err)
	}
	if !lp.IsCompleted || lp.CompletedAt == nil {
		t.Errorf("progress = %+v", lp)
	}
	if dr, _ := p.Requests(ctx, id, "2025-01-01"); len(dr.Requests) != 0 {
		t.Errorf("cached plan survived completion: %+v", dr.Requests)
	}

	if _, err := p.CompleteLevel(ctx, s, id, foreign.ID, true); !errors.Is(err, storage.ErrValidation) {
		t.Errorf("foreign level: %v", err)
	}
	if _, err := p.CompleteLevel(ctx, s, id, 9999, true); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("missing level: %v", err)
	}
}

func TestCompletePurchase(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	g, accounts := seed(t, s, "Galaxy", "main")
	pe, err := s.CreatePurchaseEvent(model.NewPurchaseEvent{GameID: g.ID, EventToken: "starter"})
	if err != nil {
		t.Fatalf("CreatePurchaseEvent: %v", err)
	}
	id := accounts[0].ID
	p := NewPlanner(s, schedule.New(s), nil, time.Hour)

	if _, err := p.CompletePurchase(ctx, s, id, pe.ID, true); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("unscheduled purchase: %v", err)
	}
	if _, err := s.UpsertPurchaseProgress(model.NewPurchaseProgress{AccountID: id, PurchaseEventID: pe.ID, DaysOffset: 0, TimeSpent: 10}); err != nil {
		t.Fatalf("UpsertPurchaseProgress: %v", err)
	}
	pp, err := p.CompletePurchase(ctx, s, id, pe.ID, true)
	if err != nil {
		t.Fatalf("CompletePurchase: %v", err)
	}
	if !pp.IsCompleted || pp.CompletedAt == nil {
		t.Errorf("progress = %+v", pp)
	}
}

// Package daily builds the day's work plan across every account: due
// requests grouped into session/event pairs and interleaved across games.
package daily

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	gonanoid "github.com/matoous/go-nanoid/v2"
	log "github.com/sirupsen/logrus"

	"github.com/chris-regnier/dailyctl/internal/cache"
	"github.com/chris-regnier/dailyctl/internal/model"
	"github.com/chris-regnier/dailyctl/internal/schedule"
)

const (
	idAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	idLength   = 8
)

// NewID generates a task ID.
func NewID() (string, error) {
	return gonanoid.Generate(idAlphabet, idLength)
}

// Source lists the games and accounts to plan for.
type Source interface {
	ListGames() ([]model.Game, error)
	ListAccounts(gameID int64) ([]model.Account, error)
}

// Group is one task: the requests of a single milestone for one account,
// usually a session and its event. Offset is how long after the account's
// first group this one should run.
type Group struct {
	ID          string             `json:"id"`
	AccountID   int64              `json:"account_id"`
	AccountName string             `json:"account_name"`
	GameID      int64              `json:"game_id"`
	GameName    string             `json:"game_name"`
	EventToken  string             `json:"event_token"`
	TimeSpent   int                `json:"time_spent"`
	Offset      time.Duration      `json:"offset"`
	Requests    []schedule.Request `json:"requests"`
}

// Batch holds at most one group per game.
type Batch struct {
	Index  int     `json:"index"`
	Groups []Group `json:"groups"`
}

// AccountPlan is the grouped work for one account.
type AccountPlan struct {
	AccountID   int64     `json:"account_id"`
	AccountName string    `json:"account_name"`
	GameID      int64     `json:"game_id"`
	DaysPassed  int       `json:"days_passed"`
	ReadyAt     time.Time `json:"ready_at"`
	Groups      []Group   `json:"groups"`
}

// AccountError records an account that could not be planned.
type AccountError struct {
	AccountID   int64  `json:"account_id"`
	AccountName string `json:"account_name"`
	Error       string `json:"error"`
}

// Plan is the full day.
type Plan struct {
	Date     string         `json:"date"`
	Accounts []AccountPlan  `json:"accounts"`
	Batches  []Batch        `json:"batches"`
	Errors   []AccountError `json:"errors,omitempty"`
}

// Pending counts the requests across every batch.
func (p Plan) Pending() int {
	n := 0
	for _, b := range p.Batches {
		for _, g := range b.Groups {
			n += len(g.Requests)
		}
	}
	return n
}

// Planner computes daily requests through a cache so durations stay stable
// for the rest of the day.
type Planner struct {
	src   Source
	sched *schedule.Scheduler
	cache cache.Cache
	ttl   time.Duration
}

// NewPlanner creates a Planner. A nil cache disables caching.
func NewPlanner(src Source, sched *schedule.Scheduler, c cache.Cache, ttl time.Duration) *Planner {
	if c == nil {
		c = cache.None{}
	}
	return &Planner{src: src, sched: sched, cache: c, ttl: ttl}
}

func cacheKey(accountID int64, date string) string {
	return accountPrefix(accountID) + date
}

func accountPrefix(accountID int64) string {
	return "daily:" + strconv.FormatInt(accountID, 10) + ":"
}

// Requests returns the account's due requests for date, computing and caching
// them on a miss. Cache failures are logged and otherwise ignored.
func (p *Planner) Requests(ctx context.Context, accountID int64, date string) (schedule.DailyRequests, error) {
	key := cacheKey(accountID, date)
	if data, ok, err := p.cache.Get(ctx, key); err != nil {
		log.WithError(err).WithField("key", key).Warn("reading daily cache")
	} else if ok {
		var out schedule.DailyRequests
		if err := sonic.Unmarshal(data, &out); err == nil {
			log.WithField("key", key).Debug("daily cache hit")
			return out, nil
		}
	}

	out, err := p.sched.ComputeDailyRequests(accountID, date)
	if err != nil {
		return schedule.DailyRequests{}, err
	}
	data, err := sonic.Marshal(out)
	if err == nil {
		err = p.cache.Set(ctx, key, data, p.ttl)
	}
	if err != nil {
		log.WithError(err).WithField("key", key).Warn("writing daily cache")
	}
	return out, nil
}

// Invalidate drops every cached day of the account.
func (p *Planner) Invalidate(ctx context.Context, accountID int64) error {
	if err := p.cache.DeletePrefix(ctx, accountPrefix(accountID)); err != nil {
		return fmt.Errorf("invalidating daily cache for account %d: %w", accountID, err)
	}
	return nil
}

// Today plans every account of every game for date. Accounts that fail are
// listed in Plan.Errors; storage failures listing games or accounts abort.
func (p *Planner) Today(ctx context.Context, date string) (Plan, error) {
	games, err := p.src.ListGames()
	if err != nil {
		return Plan{}, fmt.Errorf("listing games: %w", err)
	}

	plan := Plan{Date: date, Accounts: []AccountPlan{}, Batches: []Batch{}}
	var perGame [][]AccountPlan
	for _, g := range games {
		accounts, err := p.src.ListAccounts(g.ID)
		if err != nil {
			return Plan{}, fmt.Errorf("listing accounts for game %s: %w", g.Name, err)
		}
		var gamePlans []AccountPlan
		for _, a := range accounts {
			dr, err := p.Requests(ctx, a.ID, date)
			if err != nil {
				log.WithError(err).WithField("account", a.Name).Warn("planning account")
				plan.Errors = append(plan.Errors, AccountError{AccountID: a.ID, AccountName: a.Name, Error: err.Error()})
				continue
			}
			if len(dr.Requests) == 0 {
				continue
			}
			groups, err := GroupRequests(dr.Requests)
			if err != nil {
				return Plan{}, err
			}
			for i := range groups {
				groups[i].AccountID = a.ID
				groups[i].AccountName = a.Name
				groups[i].GameID = g.ID
				groups[i].GameName = g.Name
			}
			ap := AccountPlan{
				AccountID:   a.ID,
				AccountName: a.Name,
				GameID:      g.ID,
				DaysPassed:  dr.DaysPassed,
				ReadyAt:     ReadyAt(a, groups[0].TimeSpent, p.sched.Now()),
				Groups:      groups,
			}
			gamePlans = append(gamePlans, ap)
			plan.Accounts = append(plan.Accounts, ap)
		}
		if len(gamePlans) > 0 {
			perGame = append(perGame, gamePlans)
		}
	}
	plan.Batches = Interleave(perGame)
	return plan, nil
}

// GroupRequests pairs requests sharing (event_token, time_spent), keeping
// first-seen order within a group, and sorts the groups by duration.
func GroupRequests(reqs []schedule.Request) ([]Group, error) {
	type key struct {
		token string
		spent int
	}
	index := map[key]int{}
	var groups []Group
	for _, r := range reqs {
		k := key{r.EventToken, r.TimeSpent}
		i, ok := index[k]
		if !ok {
			id, err := NewID()
			if err != nil {
				return nil, fmt.Errorf("generating task ID: %w", err)
			}
			i = len(groups)
			index[k] = i
			groups = append(groups, Group{ID: id, EventToken: r.EventToken, TimeSpent: r.TimeSpent})
		}
		groups[i].Requests = append(groups[i].Requests, r)
	}
	sort.SliceStable(groups, func(i, j int) bool { return groups[i].TimeSpent < groups[j].TimeSpent })
	for i := range groups {
		groups[i].Offset = time.Duration(groups[i].TimeSpent-groups[0].TimeSpent) * time.Second
	}
	return groups, nil
}

// Interleave builds batches by taking, per round, the next group of the
// first account in each game that still has groups left.
func Interleave(perGame [][]AccountPlan) []Batch {
	next := make([][]int, len(perGame))
	for g := range perGame {
		next[g] = make([]int, len(perGame[g]))
	}

	batches := []Batch{}
	for {
		var round []Group
		for g, accounts := range perGame {
			for a, ap := range accounts {
				if next[g][a] < len(ap.Groups) {
					round = append(round, ap.Groups[next[g][a]])
					next[g][a]++
					break
				}
			}
		}
		if len(round) == 0 {
			return batches
		}
		batches = append(batches, Batch{Index: len(batches), Groups: round})
	}
}

// ReadyAt is the earliest time the account's first request may be sent: its
// start date and time plus the first group's duration in seconds. Unparseable
// start values fall back to now.
func ReadyAt(a model.Account, firstTimeSpent int, now time.Time) time.Time {
	start, err := schedule.ParseStartDate(a.StartDate, now)
	if err != nil {
		return now
	}
	clock, err := parseClock(a.StartTime)
	if err != nil {
		return now
	}
	return start.Add(clock).Add(time.Duration(firstTimeSpent) * time.Second)
}

func parseClock(s string) (time.Duration, error) {
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute + time.Duration(t.Second())*time.Second, nil
		}
	}
	return 0, fmt.Errorf("invalid start time %q", s)
}

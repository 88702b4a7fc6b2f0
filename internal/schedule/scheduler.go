// Package schedule works out which milestones an account has due on a date
// and renders them into request payloads.
package schedule

import (
	"errors"
	"fmt"
	"time"

	"github.com/chris-regnier/dailyctl/internal/model"
	"github.com/chris-regnier/dailyctl/internal/storage"
	"github.com/chris-regnier/dailyctl/internal/template"
)

// Request kinds.
const (
	RequestSession = "session"
	RequestEvent   = "event"
)

// Reader is the read-only storage surface the scheduler needs.
type Reader interface {
	GetAccount(id int64) (model.Account, error)
	ListLevelsByGame(gameID int64) ([]model.Level, error)
	ListLevelProgress(accountID int64) ([]model.LevelProgress, error)
	ListPurchaseEventsByGame(gameID int64) ([]model.PurchaseEvent, error)
	ListPurchaseProgress(accountID int64) ([]model.PurchaseProgress, error)
}

// Request is one rendered payload. LevelID is nil for purchase events.
type Request struct {
	RequestType     string `json:"request_type"`
	Content         string `json:"content"`
	EventToken      string `json:"event_token"`
	LevelID         *int64 `json:"level_id"`
	TimeSpent       int    `json:"time_spent"`
	Timestamp       string `json:"timestamp"`
	LevelName       string `json:"level_name,omitempty"`
	PurchaseEventID int64  `json:"purchase_event_id,omitempty"`
}

// DailyRequests is every request due for an account on a target date.
type DailyRequests struct {
	AccountID   int64     `json:"account_id"`
	AccountName string    `json:"account_name"`
	TargetDate  string    `json:"target_date"`
	DaysPassed  int       `json:"days_passed"`
	Requests    []Request `json:"requests"`
}

// Scheduler computes due requests. It holds no lock; callers that share one
// across goroutines serialize calls themselves.
type Scheduler struct {
	store             Reader
	rand              Rand
	now               func() time.Time
	purchaseDurations PurchaseDurations
	legacyPayload     bool
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithRand sets the random source for durations.
func WithRand(r Rand) Option {
	return func(s *Scheduler) { s.rand = r }
}

// WithClock sets the clock used to resolve year-less start dates.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// WithPurchaseDurations selects how purchase durations are produced.
func WithPurchaseDurations(mode PurchaseDurations) Option {
	return func(s *Scheduler) { s.purchaseDurations = mode }
}

// WithLegacyPayload renders template.LegacyPayload for accounts that have
// no request template.
func WithLegacyPayload(enabled bool) Option {
	return func(s *Scheduler) { s.legacyPayload = enabled }
}

// New creates a Scheduler reading from store.
func New(store Reader, opts ...Option) *Scheduler {
	s := &Scheduler{
		store:             store,
		now:               time.Now,
		purchaseDurations: DurationJitter,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rand == nil {
		s.rand = defaultRand()
	}
	return s
}

// Now returns the scheduler's current time.
func (s *Scheduler) Now() time.Time {
	return s.now()
}

func lookupErr(action string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrUpstreamLookup, action, err)
}

// loadAccount fetches an account, mapping storage.ErrNotFound.
func (s *Scheduler) loadAccount(accountID int64) (model.Account, error) {
	account, err := s.store.GetAccount(accountID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return model.Account{}, fmt.Errorf("%w: %d", ErrAccountNotFound, accountID)
		}
		return model.Account{}, lookupErr("getting account", err)
	}
	return account, nil
}

// ComputeDailyRequests renders every milestone due for the account on
// targetDate (YYYY-MM-DD): levels first in catalog order, then purchase
// events in progress order.
func (s *Scheduler) ComputeDailyRequests(accountID int64, targetDate string) (DailyRequests, error) {
	account, err := s.loadAccount(accountID)
	if err != nil {
		return DailyRequests{}, err
	}
	days, err := ResolveDaysPassed(account.StartDate, targetDate, s.now())
	if err != nil {
		return DailyRequests{}, err
	}

	levels, err := s.store.ListLevelsByGame(account.GameID)
	if err != nil {
		return DailyRequests{}, lookupErr("listing levels", err)
	}
	levelProgress, err := s.store.ListLevelProgress(account.ID)
	if err != nil {
		return DailyRequests{}, lookupErr("listing level progress", err)
	}
	events, err := s.store.ListPurchaseEventsByGame(account.GameID)
	if err != nil {
		return DailyRequests{}, lookupErr("listing purchase events", err)
	}
	purchaseProgress, err := s.store.ListPurchaseProgress(account.ID)
	if err != nil {
		return DailyRequests{}, lookupErr("listing purchase progress", err)
	}

	tmpl := account.RequestTemplate
	if tmpl == "" && s.legacyPayload {
		tmpl = template.LegacyPayload
	}

	out := DailyRequests{
		AccountID:   account.ID,
		AccountName: account.Name,
		TargetDate:  targetDate,
		DaysPassed:  days,
		Requests:    []Request{},
	}

	for _, l := range DueLevels(levels, CompletedLevelIDs(levelProgress), days) {
		token := template.SanitizeToken(l.EventToken)
		spent := Jitter(l.TimeSpent, s.rand)
		session := template.Render(tmpl, template.Vars{
			EventToken:  token,
			TimeSpent:   spent,
			AccountName: account.Name,
			GameID:      account.GameID,
			LevelName:   l.LevelName,
			DaysOffset:  l.DaysOffset,
		})
		id := l.ID
		req := Request{
			RequestType: RequestSession,
			Content:     session,
			EventToken:  token,
			LevelID:     &id,
			TimeSpent:   spent,
			Timestamp:   targetDate,
			LevelName:   l.LevelName,
		}
		out.Requests = append(out.Requests, req)
		if !l.SessionOnly() {
			req.RequestType = RequestEvent
			req.Content = template.EventVariant(session)
			out.Requests = append(out.Requests, req)
		}
	}

	for _, d := range DuePurchases(purchaseProgress, catalogByID(events), days) {
		token := template.SanitizeToken(d.Event.EventToken)
		spent := d.Progress.TimeSpent
		if s.purchaseDurations != DurationStored {
			spent = Jitter(spent, s.rand)
		}
		session := template.Render(tmpl, template.Vars{
			EventToken:  token,
			TimeSpent:   spent,
			AccountName: account.Name,
			GameID:      account.GameID,
			LevelName:   token,
			DaysOffset:  d.Progress.DaysOffset,
		})
		req := Request{
			RequestType:     RequestSession,
			Content:         session,
			EventToken:      token,
			TimeSpent:       spent,
			Timestamp:       targetDate,
			PurchaseEventID: d.Event.ID,
		}
		out.Requests = append(out.Requests, req)
		req.RequestType = RequestEvent
		req.Content = template.EventVariant(session)
		out.Requests = append(out.Requests, req)
	}

	return out, nil
}

// Package model holds the catalog and progress records tracked by dailyctl:
// games, their accounts, the level and purchase-event milestones defined per
// game, and the per-account progress through those milestones.
package model

import (
	"strings"
	"time"
)

const (
	// DateLayout is the ISO calendar date format used for start and target dates.
	DateLayout = "2006-01-02"
	// ShortDateLayout is the year-less "day-month" start date form, e.g. "14-Dec".
	ShortDateLayout = "2-Jan"
	// SessionOnlyLevelName marks a level that produces no event request.
	SessionOnlyLevelName = "-"
)

// Game is a title whose accounts progress through levels and purchase events.
type Game struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Account is a player account of a game. RequestTemplate is the raw request
// text with {placeholder} tokens that due milestones are rendered into.
type Account struct {
	ID              int64     `json:"id"`
	GameID          int64     `json:"game_id"`
	Name            string    `json:"name"`
	StartDate       string    `json:"start_date"`
	StartTime       string    `json:"start_time"`
	RequestTemplate string    `json:"request_template"`
	CreatedAt       time.Time `json:"created_at"`
}

// Level is a milestone due DaysOffset days after an account's start date.
type Level struct {
	ID         int64  `json:"id"`
	GameID     int64  `json:"game_id"`
	EventToken string `json:"event_token"`
	LevelName  string `json:"level_name"`
	DaysOffset int    `json:"days_offset"`
	TimeSpent  int    `json:"time_spent"`
	IsBonus    bool   `json:"is_bonus"`
}

// SessionOnly reports whether the level renders only a session request.
func (l Level) SessionOnly() bool {
	return l.LevelName == SessionOnlyLevelName
}

// PurchaseEvent is a purchase milestone. Its scheduling lives on the
// per-account PurchaseProgress row, not on the catalog entry.
type PurchaseEvent struct {
	ID            int64     `json:"id"`
	GameID        int64     `json:"game_id"`
	EventToken    string    `json:"event_token"`
	IsRestricted  bool      `json:"is_restricted"`
	MaxDaysOffset *int      `json:"max_days_offset"`
	CreatedAt     time.Time `json:"created_at"`
}

// AllowsDay reports whether the event may be scheduled on the given day offset.
// Restricted events must land strictly before MaxDaysOffset.
func (p PurchaseEvent) AllowsDay(day int) bool {
	if day < 0 {
		return false
	}
	if !p.IsRestricted || p.MaxDaysOffset == nil {
		return true
	}
	return day < *p.MaxDaysOffset
}

// LevelProgress records whether an account has completed a level.
type LevelProgress struct {
	AccountID   int64      `json:"account_id"`
	LevelID     int64      `json:"level_id"`
	IsCompleted bool       `json:"is_completed"`
	CompletedAt *time.Time `json:"completed_at"`
}

// PurchaseProgress schedules a purchase event for one account. DaysOffset and
// TimeSpent override scheduling per account.
type PurchaseProgress struct {
	AccountID       int64      `json:"account_id"`
	PurchaseEventID int64      `json:"purchase_event_id"`
	IsCompleted     bool       `json:"is_completed"`
	DaysOffset      int        `json:"days_offset"`
	TimeSpent       int        `json:"time_spent"`
	CompletedAt     *time.Time `json:"completed_at"`
}

// IsShortDate reports whether s uses the year-less start date form.
func IsShortDate(s string) bool {
	return strings.Contains(s, "-") && len(s) <= 6
}

// ShortDateIn resolves a "14-Dec" start date in the given year. It reports
// false when s does not parse or names a day the year lacks, such as 29-Feb
// outside a leap year.
func ShortDateIn(s string, year int) (time.Time, bool) {
	t, err := time.Parse(ShortDateLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	d := time.Date(year, t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	if d.Month() != t.Month() || d.Day() != t.Day() {
		return time.Time{}, false
	}
	return d, true
}

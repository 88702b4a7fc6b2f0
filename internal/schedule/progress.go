package schedule

import (
	"math"
	"sort"
	"strconv"

	"github.com/chris-regnier/dailyctl/internal/model"
	"github.com/chris-regnier/dailyctl/internal/template"
)

// Progress summarizes where an account stands in its game's levels.
type Progress struct {
	AccountID       int64         `json:"account_id"`
	GameID          int64         `json:"game_id"`
	AccountName     string        `json:"account_name"`
	TargetDate      string        `json:"target_date"`
	DaysPassed      int           `json:"days_passed"`
	CurrentLevel    *model.Level  `json:"current_level,omitempty"`
	NextLevel       *model.Level  `json:"next_level,omitempty"`
	CompletedLevels []model.Level `json:"completed_levels"`
	RemainingLevels []model.Level `json:"remaining_levels"`
}

// AccountProgress reports the account's current and next level on
// targetDate plus which levels are completed. The current level is the last
// one scheduled on or before the target day.
func (s *Scheduler) AccountProgress(accountID int64, targetDate string) (Progress, error) {
	account, err := s.loadAccount(accountID)
	if err != nil {
		return Progress{}, err
	}
	days, err := ResolveDaysPassed(account.StartDate, targetDate, s.now())
	if err != nil {
		return Progress{}, err
	}
	levels, err := s.store.ListLevelsByGame(account.GameID)
	if err != nil {
		return Progress{}, lookupErr("listing levels", err)
	}
	progress, err := s.store.ListLevelProgress(account.ID)
	if err != nil {
		return Progress{}, lookupErr("listing level progress", err)
	}

	done := CompletedLevelIDs(progress)
	p := Progress{
		AccountID:       account.ID,
		GameID:          account.GameID,
		AccountName:     account.Name,
		TargetDate:      targetDate,
		DaysPassed:      days,
		CompletedLevels: []model.Level{},
		RemainingLevels: []model.Level{},
	}
	for i := range levels {
		l := levels[i]
		if l.DaysOffset <= days {
			p.CurrentLevel = &l
		} else if p.NextLevel == nil {
			p.NextLevel = &l
		}
		if done[l.ID] {
			p.CompletedLevels = append(p.CompletedLevels, l)
		} else {
			p.RemainingLevels = append(p.RemainingLevels, l)
		}
	}
	return p, nil
}

// LevelDate is the calendar date a level falls on for one account.
type LevelDate struct {
	LevelID    int64  `json:"level_id"`
	LevelName  string `json:"level_name"`
	EventToken string `json:"event_token"`
	DaysOffset int    `json:"days_offset"`
	Date       string `json:"date"`
	Completed  bool   `json:"completed"`
}

// LevelDates lists every level of the account's game with its calendar date.
func (s *Scheduler) LevelDates(accountID int64) ([]LevelDate, error) {
	account, err := s.loadAccount(accountID)
	if err != nil {
		return nil, err
	}
	levels, err := s.store.ListLevelsByGame(account.GameID)
	if err != nil {
		return nil, lookupErr("listing levels", err)
	}
	progress, err := s.store.ListLevelProgress(account.ID)
	if err != nil {
		return nil, lookupErr("listing level progress", err)
	}
	done := CompletedLevelIDs(progress)

	now := s.now()
	out := make([]LevelDate, 0, len(levels))
	for _, l := range levels {
		date, err := DateForOffset(account.StartDate, l.DaysOffset, now)
		if err != nil {
			return nil, err
		}
		out = append(out, LevelDate{
			LevelID:    l.ID,
			LevelName:  l.LevelName,
			EventToken: template.SanitizeToken(l.EventToken),
			DaysOffset: l.DaysOffset,
			Date:       date,
			Completed:  done[l.ID],
		})
	}
	return out, nil
}

func byOffset(levels []model.Level) []model.Level {
	sorted := append([]model.Level(nil), levels...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].DaysOffset < sorted[j].DaysOffset })
	return sorted
}

// InterpolateTimeSpent estimates the duration for day from the levels around
// it. An exact match wins; before the first level the first duration is
// scaled by (day+1)/(first+1); between two levels it is linear; after the last
// level the last duration holds. No levels yields 0.
func InterpolateTimeSpent(day int, levels []model.Level) int {
	if len(levels) == 0 {
		return 0
	}
	sorted := byOffset(levels)
	for _, l := range sorted {
		if l.DaysOffset == day {
			return l.TimeSpent
		}
	}

	var prev, next *model.Level
	for i := range sorted {
		if sorted[i].DaysOffset < day {
			prev = &sorted[i]
		} else if next == nil {
			next = &sorted[i]
		}
	}

	switch {
	case prev == nil:
		step := float64(next.TimeSpent) / float64(next.DaysOffset+1)
		return int(math.Round(float64(day+1) * step))
	case next == nil:
		return prev.TimeSpent
	}
	return lerp(*prev, *next, day)
}

func lerp(left, right model.Level, day int) int {
	if right.DaysOffset == left.DaysOffset {
		return left.TimeSpent
	}
	ratio := float64(day-left.DaysOffset) / float64(right.DaysOffset-left.DaysOffset)
	return int(math.Round(float64(left.TimeSpent) + ratio*float64(right.TimeSpent-left.TimeSpent)))
}

// SyntheticToken is the event token of a gap-filling level.
func SyntheticToken(token string, day int) string {
	return template.SanitizeToken(token) + "_day" + strconv.Itoa(day)
}

// FillGaps returns session-only levels for every day strictly between two
// consecutive levels that are more than a day apart. Each takes the token of
// the level after the gap and an interpolated duration.
func FillGaps(levels []model.Level) []model.NewLevel {
	sorted := byOffset(levels)
	var out []model.NewLevel
	for i := 0; i+1 < len(sorted); i++ {
		left, right := sorted[i], sorted[i+1]
		for d := left.DaysOffset + 1; d < right.DaysOffset; d++ {
			out = append(out, model.NewLevel{
				GameID:     right.GameID,
				EventToken: SyntheticToken(right.EventToken, d),
				LevelName:  model.SessionOnlyLevelName,
				DaysOffset: d,
				TimeSpent:  lerp(left, right, d),
			})
		}
	}
	return out
}

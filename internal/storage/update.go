package storage

import (
	"strings"
	"time"
)

// Assignment sets one column in a partial update. When KeepExisting is set the
// column only takes Value if it is currently NULL.
type Assignment struct {
	Column       string
	Value        any
	KeepExisting bool
}

// UpdateSet is the ordered list of column assignments produced by a typed
// partial update. Column names come from the fixed tables below, never from
// caller input.
type UpdateSet []Assignment

func (s UpdateSet) set(column string, value any) UpdateSet {
	return append(s, Assignment{Column: column, Value: value})
}

// Clause renders the SET clause with positional placeholders produced by
// placeholder(n), n counting from 1, and returns the bound values in order.
func (s UpdateSet) Clause(placeholder func(n int) string) (string, []any) {
	parts := make([]string, 0, len(s))
	args := make([]any, 0, len(s))
	for i, a := range s {
		p := placeholder(i + 1)
		if a.KeepExisting {
			parts = append(parts, a.Column+" = COALESCE("+a.Column+", "+p+")")
		} else {
			parts = append(parts, a.Column+" = "+p)
		}
		args = append(args, a.Value)
	}
	return strings.Join(parts, ", "), args
}

// Columns lists the assigned column names.
func (s UpdateSet) Columns() []string {
	cols := make([]string, len(s))
	for i, a := range s {
		cols[i] = a.Column
	}
	return cols
}

// GameUpdate is a partial update of a game.
type GameUpdate struct {
	Name *string `json:"name" validate:"omitempty,min=1,max=100"`
}

// Assignments maps the set fields of the update to games columns.
func (u GameUpdate) Assignments() UpdateSet {
	var s UpdateSet
	if u.Name != nil {
		s = s.set("name", *u.Name)
	}
	return s
}

// AccountUpdate is a partial update of an account.
type AccountUpdate struct {
	Name            *string `json:"name" validate:"omitempty,min=1,max=100"`
	StartDate       *string `json:"start_date" validate:"omitempty,startdate"`
	StartTime       *string `json:"start_time" validate:"omitempty,starttime"`
	RequestTemplate *string `json:"request_template"`
}

// Assignments maps the set fields of the update to accounts columns.
func (u AccountUpdate) Assignments() UpdateSet {
	var s UpdateSet
	if u.Name != nil {
		s = s.set("name", *u.Name)
	}
	if u.StartDate != nil {
		s = s.set("start_date", *u.StartDate)
	}
	if u.StartTime != nil {
		s = s.set("start_time", *u.StartTime)
	}
	if u.RequestTemplate != nil {
		s = s.set("request_template", *u.RequestTemplate)
	}
	return s
}

// LevelUpdate is a partial update of a level.
type LevelUpdate struct {
	EventToken *string `json:"event_token" validate:"omitempty,eventtoken"`
	LevelName  *string `json:"level_name" validate:"omitempty,min=1,max=50"`
	DaysOffset *int    `json:"days_offset" validate:"omitempty,gte=0,lte=365"`
	TimeSpent  *int    `json:"time_spent" validate:"omitempty,gte=0,lte=1000000"`
	IsBonus    *bool   `json:"is_bonus"`
}

// Assignments maps the set fields of the update to levels columns.
func (u LevelUpdate) Assignments() UpdateSet {
	var s UpdateSet
	if u.EventToken != nil {
		s = s.set("event_token", *u.EventToken)
	}
	if u.LevelName != nil {
		s = s.set("level_name", *u.LevelName)
	}
	if u.DaysOffset != nil {
		s = s.set("days_offset", *u.DaysOffset)
	}
	if u.TimeSpent != nil {
		s = s.set("time_spent", *u.TimeSpent)
	}
	if u.IsBonus != nil {
		s = s.set("is_bonus", *u.IsBonus)
	}
	return s
}

// PurchaseEventUpdate is a partial update of a purchase event.
// ClearMaxDaysOffset sets max_days_offset to NULL and wins over MaxDaysOffset.
type PurchaseEventUpdate struct {
	EventToken         *string `json:"event_token" validate:"omitempty,eventtoken"`
	IsRestricted       *bool   `json:"is_restricted"`
	MaxDaysOffset      *int    `json:"max_days_offset" validate:"omitempty,gte=0,lte=365"`
	ClearMaxDaysOffset bool    `json:"clear_max_days_offset"`
}

// Assignments maps the set fields of the update to purchase_events columns.
func (u PurchaseEventUpdate) Assignments() UpdateSet {
	var s UpdateSet
	if u.EventToken != nil {
		s = s.set("event_token", *u.EventToken)
	}
	if u.IsRestricted != nil {
		s = s.set("is_restricted", *u.IsRestricted)
	}
	switch {
	case u.ClearMaxDaysOffset:
		s = s.set("max_days_offset", nil)
	case u.MaxDaysOffset != nil:
		s = s.set("max_days_offset", *u.MaxDaysOffset)
	}
	return s
}

// PurchaseProgressUpdate is a partial update of an account's purchase progress.
type PurchaseProgressUpdate struct {
	IsCompleted *bool `json:"is_completed"`
	DaysOffset  *int  `json:"days_offset" validate:"omitempty,gte=0,lte=365"`
	TimeSpent   *int  `json:"time_spent" validate:"omitempty,gte=0,lte=1000000"`
}

// Assignments maps the update to columns. Completing stamps completed_at with
// now unless it is already set; un-completing clears it.
func (u PurchaseProgressUpdate) Assignments(now time.Time) UpdateSet {
	var s UpdateSet
	if u.IsCompleted != nil {
		s = s.set("is_completed", *u.IsCompleted)
		s = append(s, CompletionAssignment(*u.IsCompleted, now))
	}
	if u.DaysOffset != nil {
		s = s.set("days_offset", *u.DaysOffset)
	}
	if u.TimeSpent != nil {
		s = s.set("time_spent", *u.TimeSpent)
	}
	return s
}

// CompletionAssignment returns the completed_at assignment for a completion
// flag change.
func CompletionAssignment(completed bool, now time.Time) Assignment {
	if completed {
		return Assignment{Column: "completed_at", Value: now, KeepExisting: true}
	}
	return Assignment{Column: "completed_at", Value: nil}
}

// Now returns the storage timestamp for the current instant.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}

package model

import (
	"strings"
	"testing"
	"time"
)

func TestValidStartDate(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"2025-01-01", true},
		{"14-Dec", true},
		{"1-Jan", true},
		{"2025-13-01", false},
		{"14-Foo", false},
		{"", false},
		{"14 Dec", false},
		{"2025/01/01", false},
	}
	for _, tt := range tests {
		if got := ValidStartDate(tt.in); got != tt.want {
			t.Errorf("ValidStartDate(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestShortDateIn(t *testing.T) {
	tests := []struct {
		in     string
		year   int
		want   time.Time
		wantOK bool
	}{
		{"14-Dec", 2025, time.Date(2025, 12, 14, 0, 0, 0, 0, time.UTC), true},
		{"1-Jan", 2026, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), true},
		{"29-Feb", 2024, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), true},
		{"29-Feb", 2026, time.Time{}, false},
		{"29-Feb", 2100, time.Time{}, false},
		{"31-Apr", 2025, time.Time{}, false},
		{"14-Foo", 2025, time.Time{}, false},
	}
	for _, tt := range tests {
		got, ok := ShortDateIn(tt.in, tt.year)
		if ok != tt.wantOK || !got.Equal(tt.want) {
			t.Errorf("ShortDateIn(%q, %d) = %v, %v; want %v, %v", tt.in, tt.year, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestValidateNewAccount(t *testing.T) {
	ok := NewAccount{GameID: 1, Name: "main", StartDate: "2025-01-01", StartTime: "09:30"}
	if err := Validate(ok); err != nil {
		t.Fatalf("Validate(valid account): %v", err)
	}

	bad := NewAccount{GameID: 0, Name: "", StartDate: "yesterday", StartTime: "9am"}
	err := Validate(bad)
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, field := range []string{"game_id", "name", "start_date", "start_time"} {
		if !strings.Contains(err.Error(), field) {
			t.Errorf("error %q does not mention %s", err, field)
		}
	}
}

func TestValidateNewLevelEventToken(t *testing.T) {
	l := NewLevel{GameID: 1, EventToken: "lvl 1", LevelName: "L1"}
	err := Validate(l)
	if err == nil || !strings.Contains(err.Error(), "event_token") {
		t.Fatalf("expected event_token error, got %v", err)
	}

	l.EventToken = "lvl_1-a"
	if err := Validate(l); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestPurchaseEventAllowsDay(t *testing.T) {
	limit := 10
	tests := []struct {
		name string
		ev   PurchaseEvent
		day  int
		want bool
	}{
		{"unrestricted", PurchaseEvent{}, 300, true},
		{"restricted below cap", PurchaseEvent{IsRestricted: true, MaxDaysOffset: &limit}, 9, true},
		{"restricted at cap", PurchaseEvent{IsRestricted: true, MaxDaysOffset: &limit}, 10, false},
		{"restricted without cap", PurchaseEvent{IsRestricted: true}, 50, true},
		{"negative day", PurchaseEvent{}, -1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.ev.AllowsDay(tt.day); got != tt.want {
				t.Errorf("AllowsDay(%d) = %v, want %v", tt.day, got, tt.want)
			}
		})
	}
}

func TestLevelSessionOnly(t *testing.T) {
	if !(Level{LevelName: "-"}).SessionOnly() {
		t.Error("level named '-' should be session-only")
	}
	if (Level{LevelName: "L1"}).SessionOnly() {
		t.Error("named level should not be session-only")
	}
}

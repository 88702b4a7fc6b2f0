package cmd

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/chris-regnier/dailyctl/internal/storage"
)

func TestLevelFill(t *testing.T) {
	setupTestEnv(t)
	g := mustGame(t, "Galaxy")
	mustLevel(t, g.ID, "a", 0, 10)
	mustLevel(t, g.ID, "b", 3, 40)

	var buf bytes.Buffer
	if err := levelFillRun(&buf, "1", true); err != nil {
		t.Fatalf("dry run: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "Would create 2 level(s).") {
		t.Errorf("dry run output = %q", buf.String())
	}
	if levels, _ := store.ListLevelsByGame(g.ID); len(levels) != 2 {
		t.Fatalf("dry run created levels: %d", len(levels))
	}

	buf.Reset()
	if err := levelFillRun(&buf, "1", false); err != nil {
		t.Fatalf("fill: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "Created 2 level(s).") {
		t.Errorf("fill output = %q", buf.String())
	}
	levels, _ := store.ListLevelsByGame(g.ID)
	if len(levels) != 4 {
		t.Fatalf("levels = %d, want 4", len(levels))
	}
	if levels[1].EventToken != "b_day1" || levels[1].TimeSpent != 20 || !levels[1].SessionOnly() {
		t.Errorf("filled level = %+v", levels[1])
	}

	buf.Reset()
	if err := levelFillRun(&buf, "1", false); err != nil {
		t.Fatalf("second fill: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "Created 0 level(s).") {
		t.Errorf("second fill output = %q", buf.String())
	}
}

func TestLevelCreateValidates(t *testing.T) {
	setupTestEnv(t)
	mustGame(t, "Galaxy")

	levelToken, levelName, levelDay, levelTime = "bad token!", "One", 0, 10
	t.Cleanup(func() { levelToken, levelName, levelDay, levelTime = "", "", 0, 0 })

	var buf bytes.Buffer
	if err := levelCreateRun(&buf, "1"); !errors.Is(err, storage.ErrValidation) {
		t.Errorf("err = %v, want ErrValidation", err)
	}
	levelToken = "one"
	if err := levelCreateRun(&buf, "1"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := levelCreateRun(&buf, "1"); !errors.Is(err, storage.ErrConflict) {
		t.Errorf("duplicate token err = %v, want ErrConflict", err)
	}
}

func TestLevelCompleteWrongGame(t *testing.T) {
	setupTestEnv(t)
	g1 := mustGame(t, "Galaxy")
	g2 := mustGame(t, "Nebula")
	a := mustAccount(t, g1.ID, "main", "2025-06-15")
	l := mustLevel(t, g2.ID, "other", 0, 10)

	var buf bytes.Buffer
	err := levelCompleteRun(&buf, itoa(a.ID), itoa(l.ID), true)
	if !errors.Is(err, storage.ErrValidation) {
		t.Errorf("err = %v, want ErrValidation", err)
	}
}

package cmd

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/chris-regnier/dailyctl/internal/cache"
	"github.com/chris-regnier/dailyctl/internal/daily"
	"github.com/chris-regnier/dailyctl/internal/schedule"
	"github.com/chris-regnier/dailyctl/internal/storage"
)

func TestGameCommands(t *testing.T) {
	setupTestEnv(t)
	var buf bytes.Buffer

	if err := gameCreateRun(&buf, "Tower Siege"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "Created game 1 (Tower Siege)") {
		t.Errorf("create output = %q", buf.String())
	}
	if err := gameCreateRun(&buf, "Tower Siege"); !errors.Is(err, storage.ErrConflict) {
		t.Errorf("duplicate create err = %v", err)
	}

	buf.Reset()
	if err := gameRenameRun(&buf, "1", "Tower Siege II"); err != nil {
		t.Fatalf("rename: %v", err)
	}
	buf.Reset()
	if err := gameListRun(&buf); err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(buf.String(), "Tower Siege II") {
		t.Errorf("list output = %q", buf.String())
	}

	buf.Reset()
	jsonOutput = true
	if err := gameDeleteRun(&buf, 1); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !strings.Contains(buf.String(), `"deleted": true`) {
		t.Errorf("delete JSON = %q", buf.String())
	}
	if err := gameRenameRun(&buf, "1", "x"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("rename after delete err = %v", err)
	}
}

func TestGameDeleteDropsCachedPlans(t *testing.T) {
	s := setupTestEnv(t)
	fc, err := cache.NewFile(t.TempDir())
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}
	planner = daily.NewPlanner(s, scheduler, fc, 24*time.Hour)

	g := mustGame(t, "Galaxy")
	a := mustAccount(t, g.ID, "main", "2025-06-15")
	mustLevel(t, g.ID, "intro", 0, 30)

	var buf bytes.Buffer
	if err := dueRun(&buf, itoa(a.ID), "2025-06-15", false); err != nil {
		t.Fatalf("due: %v", err)
	}
	if err := gameDeleteRun(&buf, g.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	buf.Reset()
	err = dueRun(&buf, itoa(a.ID), "2025-06-15", false)
	if !errors.Is(err, schedule.ErrAccountNotFound) {
		t.Fatalf("due after game delete err = %v, output %q; want ErrAccountNotFound", err, buf.String())
	}
}

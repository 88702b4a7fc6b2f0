package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/chris-regnier/dailyctl/internal/model"
	"github.com/chris-regnier/dailyctl/internal/schedule"
	"github.com/chris-regnier/dailyctl/internal/storage"
)

func TestPurchaseSchedule(t *testing.T) {
	setupTestEnv(t)
	g := mustGame(t, "Galaxy")
	a := mustAccount(t, g.ID, "main", "2025-06-10")
	mustLevel(t, g.ID, "l0", 0, 10)
	mustLevel(t, g.ID, "l4", 4, 50)
	maxDay := 3
	limited, err := store.CreatePurchaseEvent(model.NewPurchaseEvent{GameID: g.ID, EventToken: "offer", IsRestricted: true, MaxDaysOffset: &maxDay})
	if err != nil {
		t.Fatalf("CreatePurchaseEvent: %v", err)
	}

	var buf bytes.Buffer
	if err := purchaseScheduleRun(&buf, itoa(a.ID), itoa(limited.ID), 3, 0, false); !errors.Is(err, storage.ErrValidation) {
		t.Errorf("day at the limit err = %v, want ErrValidation", err)
	}
	if err := purchaseScheduleRun(&buf, itoa(a.ID), itoa(limited.ID), -1, 0, false); !errors.Is(err, storage.ErrValidation) {
		t.Errorf("negative day err = %v, want ErrValidation", err)
	}

	if err := purchaseScheduleRun(&buf, itoa(a.ID), itoa(limited.ID), 2, 0, false); err != nil {
		t.Fatalf("schedule: %v", err)
	}
	progress, _ := store.ListPurchaseProgress(a.ID)
	if len(progress) != 1 || progress[0].DaysOffset != 2 || progress[0].TimeSpent != 30 {
		t.Fatalf("progress = %+v, want day 2 with interpolated time 30", progress)
	}

	if err := purchaseScheduleRun(&buf, itoa(a.ID), itoa(limited.ID), 1, 99, true); err != nil {
		t.Fatalf("reschedule: %v", err)
	}
	progress, _ = store.ListPurchaseProgress(a.ID)
	if len(progress) != 1 || progress[0].DaysOffset != 1 || progress[0].TimeSpent != 99 {
		t.Errorf("rescheduled progress = %+v", progress)
	}

	buf.Reset()
	if err := purchaseScheduledRun(&buf, itoa(a.ID)); err != nil {
		t.Fatalf("scheduled: %v", err)
	}
	if !strings.Contains(buf.String(), "offer") {
		t.Errorf("scheduled output = %q", buf.String())
	}
}

func TestPurchaseScheduleOtherGame(t *testing.T) {
	setupTestEnv(t)
	g1 := mustGame(t, "Galaxy")
	g2 := mustGame(t, "Nebula")
	a := mustAccount(t, g1.ID, "main", "2025-06-10")
	e, err := store.CreatePurchaseEvent(model.NewPurchaseEvent{GameID: g2.ID, EventToken: "pack"})
	if err != nil {
		t.Fatalf("CreatePurchaseEvent: %v", err)
	}
	var buf bytes.Buffer
	if err := purchaseScheduleRun(&buf, itoa(a.ID), itoa(e.ID), 1, 5, true); !errors.Is(err, storage.ErrValidation) {
		t.Errorf("err = %v, want ErrValidation", err)
	}
}

func TestPurchaseCompleteDropsFromDue(t *testing.T) {
	setupTestEnv(t)
	g := mustGame(t, "Galaxy")
	a := mustAccount(t, g.ID, "main", "2025-06-13")
	e, err := store.CreatePurchaseEvent(model.NewPurchaseEvent{GameID: g.ID, EventToken: "pack"})
	if err != nil {
		t.Fatalf("CreatePurchaseEvent: %v", err)
	}
	var buf bytes.Buffer
	if err := purchaseScheduleRun(&buf, itoa(a.ID), itoa(e.ID), 2, 60, true); err != nil {
		t.Fatalf("schedule: %v", err)
	}

	buf.Reset()
	if err := dueRun(&buf, itoa(a.ID), "2025-06-15", false); err != nil {
		t.Fatalf("due: %v", err)
	}
	if !strings.Contains(buf.String(), "### session pack") || !strings.Contains(buf.String(), "### event pack") {
		t.Errorf("due output = %q", buf.String())
	}

	buf.Reset()
	if err := purchaseCompleteRun(&buf, itoa(a.ID), itoa(e.ID), true); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if !strings.Contains(buf.String(), "completed") {
		t.Errorf("complete output = %q", buf.String())
	}

	buf.Reset()
	if err := dueRun(&buf, itoa(a.ID), "2025-06-15", false); err != nil {
		t.Fatalf("due: %v", err)
	}
	if !strings.Contains(buf.String(), "Nothing due.") {
		t.Errorf("due after completion = %q", buf.String())
	}
}

func TestDuePurchaseRequestTypes(t *testing.T) {
	setupTestEnv(t)
	g := mustGame(t, "Galaxy")
	a := mustAccount(t, g.ID, "main", "2025-06-15")
	e, err := store.CreatePurchaseEvent(model.NewPurchaseEvent{GameID: g.ID, EventToken: "pack"})
	if err != nil {
		t.Fatalf("CreatePurchaseEvent: %v", err)
	}
	var buf bytes.Buffer
	if err := purchaseScheduleRun(&buf, itoa(a.ID), itoa(e.ID), 0, 60, true); err != nil {
		t.Fatalf("schedule: %v", err)
	}

	jsonOutput = true
	buf.Reset()
	if err := dueRun(&buf, itoa(a.ID), "2025-06-15", false); err != nil {
		t.Fatalf("due: %v", err)
	}
	var dr schedule.DailyRequests
	if err := json.Unmarshal(buf.Bytes(), &dr); err != nil {
		t.Fatalf("decoding due output: %v", err)
	}
	got := map[string]int{}
	for _, r := range dr.Requests {
		if r.PurchaseEventID == e.ID {
			got[r.RequestType]++
		}
	}
	want := map[string]int{schedule.RequestSession: 1, schedule.RequestEvent: 1}
	for typ, n := range want {
		if got[typ] != n {
			t.Errorf("%s requests = %d, want %d (all: %v)", typ, got[typ], n, got)
		}
	}
	if len(got) != len(want) {
		t.Errorf("unexpected request types %v", got)
	}

	help := strings.Join(strings.Fields(dueCmd.Long), " ")
	if !strings.Contains(help, "a session and an event request per scheduled purchase") {
		t.Errorf("due help misdescribes purchase requests: %q", help)
	}
}

package schedule

import "github.com/chris-regnier/dailyctl/internal/model"

// DuePurchase is a purchase progress row due today with its catalog entry.
type DuePurchase struct {
	Progress model.PurchaseProgress
	Event    model.PurchaseEvent
}

// DueLevels returns the levels scheduled on day that are not completed, in
// catalog order.
func DueLevels(levels []model.Level, completed map[int64]bool, day int) []model.Level {
	var due []model.Level
	for _, l := range levels {
		if l.DaysOffset == day && !completed[l.ID] {
			due = append(due, l)
		}
	}
	return due
}

// DuePurchases returns the incomplete progress rows scheduled on day, in
// progress order. Rows whose event is missing from catalog are skipped.
func DuePurchases(progress []model.PurchaseProgress, catalog map[int64]model.PurchaseEvent, day int) []DuePurchase {
	var due []DuePurchase
	for _, p := range progress {
		if p.DaysOffset != day || p.IsCompleted {
			continue
		}
		ev, ok := catalog[p.PurchaseEventID]
		if !ok {
			continue
		}
		due = append(due, DuePurchase{Progress: p, Event: ev})
	}
	return due
}

func catalogByID(events []model.PurchaseEvent) map[int64]model.PurchaseEvent {
	m := make(map[int64]model.PurchaseEvent, len(events))
	for _, e := range events {
		m[e.ID] = e
	}
	return m
}

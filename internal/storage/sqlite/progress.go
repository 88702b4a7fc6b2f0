package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/chris-regnier/dailyctl/internal/model"
	"github.com/chris-regnier/dailyctl/internal/storage"
)

func scanLevelProgress(row scanner) (model.LevelProgress, error) {
	var p model.LevelProgress
	var completed sql.NullString
	if err := row.Scan(&p.AccountID, &p.LevelID, &p.IsCompleted, &completed); err != nil {
		return model.LevelProgress{}, err
	}
	var err error
	p.CompletedAt, err = parseNullTime(completed)
	return p, err
}

func scanPurchaseProgress(row scanner) (model.PurchaseProgress, error) {
	var p model.PurchaseProgress
	var completed sql.NullString
	if err := row.Scan(&p.AccountID, &p.PurchaseEventID, &p.IsCompleted, &p.DaysOffset, &p.TimeSpent, &completed); err != nil {
		return model.PurchaseProgress{}, err
	}
	var err error
	p.CompletedAt, err = parseNullTime(completed)
	return p, err
}

const (
	levelProgressQuery = "SELECT account_id, level_id, is_completed, completed_at FROM account_level_progress"
	purchProgressQuery = "SELECT account_id, purchase_event_id, is_completed, days_offset, time_spent, completed_at FROM account_purchase_event_progress"
)

func (s *Store) getLevelProgress(accountID, levelID int64) (model.LevelProgress, error) {
	return getOne(s, scanLevelProgress, "level progress",
		levelProgressQuery+" WHERE account_id = ? AND level_id = ?", accountID, levelID)
}

func (s *Store) getPurchaseProgress(accountID, purchaseEventID int64) (model.PurchaseProgress, error) {
	return getOne(s, scanPurchaseProgress, "purchase progress",
		purchProgressQuery+" WHERE account_id = ? AND purchase_event_id = ?", accountID, purchaseEventID)
}

type ref struct {
	table string
	id    int64
}

// requireRows reports ErrNotFound for the first referenced row that is missing.
func requireRows(tx *sql.Tx, refs ...ref) error {
	for _, r := range refs {
		ok, err := exists(tx, r.table, r.id)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: %s %d", storage.ErrNotFound, r.table, r.id)
		}
	}
	return nil
}

// EnsureLevelProgress creates an incomplete progress row unless one exists.
func (s *Store) EnsureLevelProgress(accountID, levelID int64) (model.LevelProgress, error) {
	err := s.withTx(func(tx *sql.Tx) error {
		if err := requireRows(tx, ref{"accounts", accountID}, ref{"levels", levelID}); err != nil {
			return err
		}
		_, err := tx.Exec(
			"INSERT OR IGNORE INTO account_level_progress (account_id, level_id, is_completed) VALUES (?, ?, 0)",
			accountID, levelID,
		)
		if err != nil {
			return fmt.Errorf("%w: inserting level progress: %v", storage.ErrStorage, err)
		}
		return nil
	})
	if err != nil {
		return model.LevelProgress{}, err
	}
	return s.getLevelProgress(accountID, levelID)
}

// SetLevelCompleted marks a level progress row completed or not. completed_at
// is stamped on the first completion and cleared when un-completed.
func (s *Store) SetLevelCompleted(accountID, levelID int64, completed bool) (model.LevelProgress, error) {
	set := storage.UpdateSet{
		{Column: "is_completed", Value: completed},
		storage.CompletionAssignment(completed, s.now()),
	}
	if err := update(s.db, "account_level_progress", "updating level progress", set,
		"account_id = ? AND level_id = ?", accountID, levelID); err != nil {
		return model.LevelProgress{}, err
	}
	return s.getLevelProgress(accountID, levelID)
}

// ListLevelProgress returns an account's level progress ordered by level ID.
func (s *Store) ListLevelProgress(accountID int64) ([]model.LevelProgress, error) {
	return list(s, scanLevelProgress, "level progress",
		levelProgressQuery+" WHERE account_id = ? ORDER BY level_id", accountID)
}

// UpsertPurchaseProgress schedules a purchase event for an account, replacing
// the offset and duration of an existing row but keeping its completion.
func (s *Store) UpsertPurchaseProgress(in model.NewPurchaseProgress) (model.PurchaseProgress, error) {
	if err := storage.Validate(in); err != nil {
		return model.PurchaseProgress{}, err
	}
	err := s.withTx(func(tx *sql.Tx) error {
		if err := requireRows(tx, ref{"accounts", in.AccountID}, ref{"purchase_events", in.PurchaseEventID}); err != nil {
			return err
		}
		_, err := tx.Exec(
			`INSERT INTO account_purchase_event_progress
			   (account_id, purchase_event_id, is_completed, days_offset, time_spent)
			 VALUES (?, ?, 0, ?, ?)
			 ON CONFLICT (account_id, purchase_event_id)
			 DO UPDATE SET days_offset = excluded.days_offset, time_spent = excluded.time_spent`,
			in.AccountID, in.PurchaseEventID, in.DaysOffset, in.TimeSpent,
		)
		if err != nil {
			return fmt.Errorf("%w: upserting purchase progress: %v", storage.ErrStorage, err)
		}
		return nil
	})
	if err != nil {
		return model.PurchaseProgress{}, err
	}
	return s.getPurchaseProgress(in.AccountID, in.PurchaseEventID)
}

// UpdatePurchaseProgress applies a partial update to a purchase progress row.
func (s *Store) UpdatePurchaseProgress(accountID, purchaseEventID int64, u storage.PurchaseProgressUpdate) (model.PurchaseProgress, error) {
	if err := storage.Validate(u); err != nil {
		return model.PurchaseProgress{}, err
	}
	err := update(s.db, "account_purchase_event_progress", "updating purchase progress", u.Assignments(s.now()),
		"account_id = ? AND purchase_event_id = ?", accountID, purchaseEventID)
	if err != nil {
		return model.PurchaseProgress{}, err
	}
	return s.getPurchaseProgress(accountID, purchaseEventID)
}

// ListPurchaseProgress returns an account's purchase progress ordered by event ID.
func (s *Store) ListPurchaseProgress(accountID int64) ([]model.PurchaseProgress, error) {
	return list(s, scanPurchaseProgress, "purchase progress",
		purchProgressQuery+" WHERE account_id = ? ORDER BY purchase_event_id", accountID)
}

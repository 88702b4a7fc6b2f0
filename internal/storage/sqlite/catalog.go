package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/chris-regnier/dailyctl/internal/model"
	"github.com/chris-regnier/dailyctl/internal/storage"
)

const (
	gameColumns     = "id, name, created_at"
	accountColumns  = "id, game_id, name, start_date, start_time, request_template, created_at"
	levelColumns    = "id, game_id, event_token, level_name, days_offset, time_spent, is_bonus"
	purchaseColumns = "id, game_id, event_token, is_restricted, max_days_offset, created_at"
)

func scanGame(row scanner) (model.Game, error) {
	var g model.Game
	var created string
	if err := row.Scan(&g.ID, &g.Name, &created); err != nil {
		return model.Game{}, err
	}
	var err error
	g.CreatedAt, err = parseTime(created)
	return g, err
}

func scanAccount(row scanner) (model.Account, error) {
	var a model.Account
	var created string
	if err := row.Scan(&a.ID, &a.GameID, &a.Name, &a.StartDate, &a.StartTime, &a.RequestTemplate, &created); err != nil {
		return model.Account{}, err
	}
	var err error
	a.CreatedAt, err = parseTime(created)
	return a, err
}

func scanLevel(row scanner) (model.Level, error) {
	var l model.Level
	err := row.Scan(&l.ID, &l.GameID, &l.EventToken, &l.LevelName, &l.DaysOffset, &l.TimeSpent, &l.IsBonus)
	return l, err
}

func scanPurchase(row scanner) (model.PurchaseEvent, error) {
	var p model.PurchaseEvent
	var maxDays sql.NullInt64
	var created string
	if err := row.Scan(&p.ID, &p.GameID, &p.EventToken, &p.IsRestricted, &maxDays, &created); err != nil {
		return model.PurchaseEvent{}, err
	}
	if maxDays.Valid {
		v := int(maxDays.Int64)
		p.MaxDaysOffset = &v
	}
	var err error
	p.CreatedAt, err = parseTime(created)
	return p, err
}

// getOne runs a single-row query and maps sql.ErrNoRows to ErrNotFound.
func getOne[T any](s *Store, scan func(scanner) (T, error), what, query string, args ...any) (T, error) {
	v, err := scan(s.db.QueryRow(query, args...))
	if err != nil {
		var zero T
		if errors.Is(err, sql.ErrNoRows) {
			return zero, storage.ErrNotFound
		}
		if errors.Is(err, storage.ErrStorage) {
			return zero, err
		}
		return zero, fmt.Errorf("%w: querying %s: %v", storage.ErrStorage, what, err)
	}
	return v, nil
}

func list[T any](s *Store, scan func(scanner) (T, error), what, query string, args ...any) ([]T, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: listing %s: %v", storage.ErrStorage, what, err)
	}
	defer rows.Close()

	out := []T{}
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			if errors.Is(err, storage.ErrStorage) {
				return nil, err
			}
			return nil, fmt.Errorf("%w: scanning %s: %v", storage.ErrStorage, what, err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: listing %s: %v", storage.ErrStorage, what, err)
	}
	return out, nil
}

// --- games ---

// CreateGame inserts a game.
func (s *Store) CreateGame(in model.NewGame) (model.Game, error) {
	if err := storage.Validate(in); err != nil {
		return model.Game{}, err
	}
	var id int64
	err := s.db.QueryRow(
		"INSERT INTO games (name, created_at) VALUES (?, ?) RETURNING id",
		in.Name, formatTime(s.now()),
	).Scan(&id)
	if err != nil {
		return model.Game{}, writeErr("inserting game", err)
	}
	return s.GetGame(id)
}

// GetGame retrieves a game by ID.
func (s *Store) GetGame(id int64) (model.Game, error) {
	return getOne(s, scanGame, "game", "SELECT "+gameColumns+" FROM games WHERE id = ?", id)
}

// GetGameByName retrieves a game by its unique name.
func (s *Store) GetGameByName(name string) (model.Game, error) {
	return getOne(s, scanGame, "game", "SELECT "+gameColumns+" FROM games WHERE name = ?", name)
}

// ListGames returns every game ordered by ID.
func (s *Store) ListGames() ([]model.Game, error) {
	return list(s, scanGame, "games", "SELECT "+gameColumns+" FROM games ORDER BY id")
}

// UpdateGame applies a partial update to a game.
func (s *Store) UpdateGame(id int64, u storage.GameUpdate) (model.Game, error) {
	if err := storage.Validate(u); err != nil {
		return model.Game{}, err
	}
	if err := update(s.db, "games", "updating game", u.Assignments(), "id = ?", id); err != nil {
		return model.Game{}, err
	}
	return s.GetGame(id)
}

// DeleteGame removes a game with its accounts, catalog and progress.
func (s *Store) DeleteGame(id int64) error {
	return s.withTx(func(tx *sql.Tx) error {
		stmts := []string{
			"DELETE FROM account_level_progress WHERE account_id IN (SELECT id FROM accounts WHERE game_id = ?)",
			"DELETE FROM account_purchase_event_progress WHERE account_id IN (SELECT id FROM accounts WHERE game_id = ?)",
			"DELETE FROM account_level_progress WHERE level_id IN (SELECT id FROM levels WHERE game_id = ?)",
			"DELETE FROM account_purchase_event_progress WHERE purchase_event_id IN (SELECT id FROM purchase_events WHERE game_id = ?)",
			"DELETE FROM accounts WHERE game_id = ?",
			"DELETE FROM levels WHERE game_id = ?",
			"DELETE FROM purchase_events WHERE game_id = ?",
		}
		for _, stmt := range stmts {
			if _, err := tx.Exec(stmt, id); err != nil {
				return fmt.Errorf("%w: deleting game: %v", storage.ErrStorage, err)
			}
		}
		return deleteByID(tx, "games", "deleting game", id)
	})
}

// --- accounts ---

// CreateAccount inserts an account for an existing game.
func (s *Store) CreateAccount(in model.NewAccount) (model.Account, error) {
	if err := storage.Validate(in); err != nil {
		return model.Account{}, err
	}
	var id int64
	err := s.withTx(func(tx *sql.Tx) error {
		ok, err := exists(tx, "games", in.GameID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: game %d", storage.ErrNotFound, in.GameID)
		}
		err = tx.QueryRow(
			`INSERT INTO accounts (game_id, name, start_date, start_time, request_template, created_at)
			 VALUES (?, ?, ?, ?, ?, ?) RETURNING id`,
			in.GameID, in.Name, in.StartDate, in.StartTime, in.RequestTemplate, formatTime(s.now()),
		).Scan(&id)
		if err != nil {
			return writeErr("inserting account", err)
		}
		return nil
	})
	if err != nil {
		return model.Account{}, err
	}
	return s.GetAccount(id)
}

// GetAccount retrieves an account by ID.
func (s *Store) GetAccount(id int64) (model.Account, error) {
	return getOne(s, scanAccount, "account", "SELECT "+accountColumns+" FROM accounts WHERE id = ?", id)
}

// GetAccountByName retrieves an account by game and name.
func (s *Store) GetAccountByName(gameID int64, name string) (model.Account, error) {
	return getOne(s, scanAccount, "account",
		"SELECT "+accountColumns+" FROM accounts WHERE game_id = ? AND name = ?", gameID, name)
}

// ListAccounts returns the accounts of a game, or of every game when gameID is 0.
func (s *Store) ListAccounts(gameID int64) ([]model.Account, error) {
	if gameID == 0 {
		return list(s, scanAccount, "accounts", "SELECT "+accountColumns+" FROM accounts ORDER BY id")
	}
	return list(s, scanAccount, "accounts",
		"SELECT "+accountColumns+" FROM accounts WHERE game_id = ? ORDER BY id", gameID)
}

// UpdateAccount applies a partial update to an account.
func (s *Store) UpdateAccount(id int64, u storage.AccountUpdate) (model.Account, error) {
	if err := storage.Validate(u); err != nil {
		return model.Account{}, err
	}
	if err := update(s.db, "accounts", "updating account", u.Assignments(), "id = ?", id); err != nil {
		return model.Account{}, err
	}
	return s.GetAccount(id)
}

// DeleteAccount removes an account and its progress rows.
func (s *Store) DeleteAccount(id int64) error {
	return s.withTx(func(tx *sql.Tx) error {
		for _, table := range []string{"account_level_progress", "account_purchase_event_progress"} {
			if _, err := tx.Exec("DELETE FROM "+table+" WHERE account_id = ?", id); err != nil {
				return fmt.Errorf("%w: deleting account progress: %v", storage.ErrStorage, err)
			}
		}
		return deleteByID(tx, "accounts", "deleting account", id)
	})
}

// --- levels ---

// CreateLevel inserts a level for an existing game.
func (s *Store) CreateLevel(in model.NewLevel) (model.Level, error) {
	if err := storage.Validate(in); err != nil {
		return model.Level{}, err
	}
	var id int64
	err := s.withTx(func(tx *sql.Tx) error {
		ok, err := exists(tx, "games", in.GameID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: game %d", storage.ErrNotFound, in.GameID)
		}
		err = tx.QueryRow(
			`INSERT INTO levels (game_id, event_token, level_name, days_offset, time_spent, is_bonus)
			 VALUES (?, ?, ?, ?, ?, ?) RETURNING id`,
			in.GameID, in.EventToken, in.LevelName, in.DaysOffset, in.TimeSpent, bind(in.IsBonus),
		).Scan(&id)
		if err != nil {
			return writeErr("inserting level", err)
		}
		return nil
	})
	if err != nil {
		return model.Level{}, err
	}
	return s.GetLevel(id)
}

// GetLevel retrieves a level by ID.
func (s *Store) GetLevel(id int64) (model.Level, error) {
	return getOne(s, scanLevel, "level", "SELECT "+levelColumns+" FROM levels WHERE id = ?", id)
}

// ListLevelsByGame returns a game's levels in schedule order.
func (s *Store) ListLevelsByGame(gameID int64) ([]model.Level, error) {
	return list(s, scanLevel, "levels",
		"SELECT "+levelColumns+" FROM levels WHERE game_id = ? ORDER BY days_offset, id", gameID)
}

// UpdateLevel applies a partial update to a level.
func (s *Store) UpdateLevel(id int64, u storage.LevelUpdate) (model.Level, error) {
	if err := storage.Validate(u); err != nil {
		return model.Level{}, err
	}
	if err := update(s.db, "levels", "updating level", u.Assignments(), "id = ?", id); err != nil {
		return model.Level{}, err
	}
	return s.GetLevel(id)
}

// DeleteLevel removes a level and the progress rows referencing it.
func (s *Store) DeleteLevel(id int64) error {
	return s.withTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec("DELETE FROM account_level_progress WHERE level_id = ?", id); err != nil {
			return fmt.Errorf("%w: deleting level progress: %v", storage.ErrStorage, err)
		}
		return deleteByID(tx, "levels", "deleting level", id)
	})
}

// --- purchase events ---

// CreatePurchaseEvent inserts a purchase event for an existing game.
func (s *Store) CreatePurchaseEvent(in model.NewPurchaseEvent) (model.PurchaseEvent, error) {
	if err := storage.Validate(in); err != nil {
		return model.PurchaseEvent{}, err
	}
	var maxDays any
	if in.MaxDaysOffset != nil {
		maxDays = *in.MaxDaysOffset
	}
	var id int64
	err := s.withTx(func(tx *sql.Tx) error {
		ok, err := exists(tx, "games", in.GameID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: game %d", storage.ErrNotFound, in.GameID)
		}
		err = tx.QueryRow(
			`INSERT INTO purchase_events (game_id, event_token, is_restricted, max_days_offset, created_at)
			 VALUES (?, ?, ?, ?, ?) RETURNING id`,
			in.GameID, in.EventToken, bind(in.IsRestricted), maxDays, formatTime(s.now()),
		).Scan(&id)
		if err != nil {
			return writeErr("inserting purchase event", err)
		}
		return nil
	})
	if err != nil {
		return model.PurchaseEvent{}, err
	}
	return s.GetPurchaseEvent(id)
}

// GetPurchaseEvent retrieves a purchase event by ID.
func (s *Store) GetPurchaseEvent(id int64) (model.PurchaseEvent, error) {
	return getOne(s, scanPurchase, "purchase event",
		"SELECT "+purchaseColumns+" FROM purchase_events WHERE id = ?", id)
}

// ListPurchaseEventsByGame returns a game's purchase events ordered by ID.
func (s *Store) ListPurchaseEventsByGame(gameID int64) ([]model.PurchaseEvent, error) {
	return list(s, scanPurchase, "purchase events",
		"SELECT "+purchaseColumns+" FROM purchase_events WHERE game_id = ? ORDER BY id", gameID)
}

// UpdatePurchaseEvent applies a partial update to a purchase event.
func (s *Store) UpdatePurchaseEvent(id int64, u storage.PurchaseEventUpdate) (model.PurchaseEvent, error) {
	if err := storage.Validate(u); err != nil {
		return model.PurchaseEvent{}, err
	}
	if err := update(s.db, "purchase_events", "updating purchase event", u.Assignments(), "id = ?", id); err != nil {
		return model.PurchaseEvent{}, err
	}
	return s.GetPurchaseEvent(id)
}

// DeletePurchaseEvent removes a purchase event and the progress rows referencing it.
func (s *Store) DeletePurchaseEvent(id int64) error {
	return s.withTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec("DELETE FROM account_purchase_event_progress WHERE purchase_event_id = ?", id); err != nil {
			return fmt.Errorf("%w: deleting purchase progress: %v", storage.ErrStorage, err)
		}
		return deleteByID(tx, "purchase_events", "deleting purchase event", id)
	})
}

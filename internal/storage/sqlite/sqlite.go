package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chris-regnier/dailyctl/internal/storage"
	_ "github.com/tursodatabase/go-libsql"
	_ "modernc.org/sqlite"
)

// Driver names accepted by New.
const (
	DriverLibSQL = "libsql"
	DriverSQLite = "sqlite"
)

// Store implements storage.Storage using SQLite, through either Turso/libSQL
// or the pure-Go modernc driver.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// New creates a new SQLite storage backend in dataDir. An empty driver
// selects libSQL.
func New(dataDir, driver string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("%w: creating data directory: %v", storage.ErrStorage, err)
	}

	dbPath := filepath.Join(dataDir, "dailyctl.db")
	var dsn string
	switch driver {
	case "", DriverLibSQL:
		driver, dsn = DriverLibSQL, "file:"+dbPath
	case DriverSQLite:
		dsn = dbPath
	default:
		return nil, fmt.Errorf("%w: unknown sqlite driver %q", storage.ErrStorage, driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: opening database: %v", storage.ErrStorage, err)
	}
	// A single connection keeps pragmas in effect and serializes writers.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: opening database: %v", storage.ErrStorage, err)
	}

	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA foreign_keys=ON"} {
		rows, err := db.Query(pragma)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("%w: %s: %v", storage.ErrStorage, pragma, err)
		}
		rows.Close()
	}

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, now: storage.Now}, nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS games (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		name       TEXT NOT NULL UNIQUE,
		created_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS accounts (
		id               INTEGER PRIMARY KEY AUTOINCREMENT,
		game_id          INTEGER NOT NULL REFERENCES games(id) ON DELETE CASCADE,
		name             TEXT NOT NULL,
		start_date       TEXT NOT NULL,
		start_time       TEXT NOT NULL,
		request_template TEXT NOT NULL DEFAULT '',
		created_at       TEXT NOT NULL,
		UNIQUE(game_id, name)
	)`,
	`CREATE TABLE IF NOT EXISTS levels (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		game_id     INTEGER NOT NULL REFERENCES games(id) ON DELETE CASCADE,
		event_token TEXT NOT NULL,
		level_name  TEXT NOT NULL,
		days_offset INTEGER NOT NULL,
		time_spent  INTEGER NOT NULL,
		is_bonus    INTEGER NOT NULL DEFAULT 0,
		UNIQUE(game_id, event_token)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_levels_schedule ON levels(game_id, days_offset)`,
	`CREATE TABLE IF NOT EXISTS purchase_events (
		id              INTEGER PRIMARY KEY AUTOINCREMENT,
		game_id         INTEGER NOT NULL REFERENCES games(id) ON DELETE CASCADE,
		event_token     TEXT NOT NULL,
		is_restricted   INTEGER NOT NULL DEFAULT 0,
		max_days_offset INTEGER,
		created_at      TEXT NOT NULL,
		UNIQUE(game_id, event_token)
	)`,
	`CREATE TABLE IF NOT EXISTS account_level_progress (
		account_id   INTEGER NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
		level_id     INTEGER NOT NULL REFERENCES levels(id) ON DELETE CASCADE,
		is_completed INTEGER NOT NULL DEFAULT 0,
		completed_at TEXT,
		PRIMARY KEY (account_id, level_id)
	)`,
	`CREATE TABLE IF NOT EXISTS account_purchase_event_progress (
		account_id        INTEGER NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
		purchase_event_id INTEGER NOT NULL REFERENCES purchase_events(id) ON DELETE CASCADE,
		is_completed      INTEGER NOT NULL DEFAULT 0,
		days_offset       INTEGER NOT NULL,
		time_spent        INTEGER NOT NULL,
		completed_at      TEXT,
		PRIMARY KEY (account_id, purchase_event_id)
	)`,
}

func createSchema(db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("%w: creating schema: %v", storage.ErrStorage, err)
		}
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
	QueryRow(query string, args ...any) *sql.Row
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: parsing timestamp %q: %v", storage.ErrStorage, s, err)
	}
	return t, nil
}

func parseNullTime(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid {
		return nil, nil
	}
	t, err := parseTime(ns.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// bind converts values to the column representations used in this schema.
func bind(v any) any {
	switch x := v.(type) {
	case bool:
		if x {
			return 1
		}
		return 0
	case time.Time:
		return formatTime(x)
	}
	return v
}

func isUnique(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// writeErr classifies a failed write.
func writeErr(action string, err error) error {
	if isUnique(err) {
		return fmt.Errorf("%w: %s: %v", storage.ErrConflict, action, err)
	}
	return fmt.Errorf("%w: %s: %v", storage.ErrStorage, action, err)
}

// update applies set to the single row selected by where. It reports
// ErrNotFound when no row matches.
func update(q execer, table, action string, set storage.UpdateSet, where string, whereArgs ...any) error {
	if len(set) == 0 {
		var n int
		if err := q.QueryRow("SELECT COUNT(*) FROM "+table+" WHERE "+where, whereArgs...).Scan(&n); err != nil {
			return fmt.Errorf("%w: %s: %v", storage.ErrStorage, action, err)
		}
		if n == 0 {
			return storage.ErrNotFound
		}
		return nil
	}

	clause, args := set.Clause(func(int) string { return "?" })
	for i := range args {
		args[i] = bind(args[i])
	}
	args = append(args, whereArgs...)

	result, err := q.Exec("UPDATE "+table+" SET "+clause+" WHERE "+where, args...)
	if err != nil {
		return writeErr(action, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: checking rows affected: %v", storage.ErrStorage, err)
	}
	if rows == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func deleteByID(q execer, table, action string, id int64) error {
	result, err := q.Exec("DELETE FROM "+table+" WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", storage.ErrStorage, action, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: checking rows affected: %v", storage.ErrStorage, err)
	}
	if rows == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func exists(q execer, table string, id int64) (bool, error) {
	var n int
	if err := q.QueryRow("SELECT COUNT(*) FROM "+table+" WHERE id = ?", id).Scan(&n); err != nil {
		return false, fmt.Errorf("%w: checking %s: %v", storage.ErrStorage, table, err)
	}
	return n > 0, nil
}

// withTx runs fn inside a transaction. fn must use only the transaction.
func (s *Store) withTx(fn func(tx *sql.Tx) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("%w: beginning transaction: %v", storage.ErrStorage, err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: committing: %v", storage.ErrStorage, err)
	}
	return nil
}

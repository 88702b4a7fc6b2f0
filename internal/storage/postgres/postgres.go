// Package postgres implements storage.Storage on PostgreSQL through GORM.
package postgres

import (
	"errors"
	"fmt"
	"time"

	"github.com/chris-regnier/dailyctl/internal/model"
	"github.com/chris-regnier/dailyctl/internal/storage"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

type gameRow struct {
	ID        int64  `gorm:"primaryKey"`
	Name      string `gorm:"not null;uniqueIndex"`
	CreatedAt time.Time
}

func (gameRow) TableName() string { return "games" }

type accountRow struct {
	ID              int64  `gorm:"primaryKey"`
	GameID          int64  `gorm:"not null;uniqueIndex:idx_accounts_game_name"`
	Name            string `gorm:"not null;uniqueIndex:idx_accounts_game_name"`
	StartDate       string `gorm:"not null"`
	StartTime       string `gorm:"not null"`
	RequestTemplate string `gorm:"not null;default:''"`
	CreatedAt       time.Time
}

func (accountRow) TableName() string { return "accounts" }

type levelRow struct {
	ID         int64  `gorm:"primaryKey"`
	GameID     int64  `gorm:"not null;uniqueIndex:idx_levels_game_token;index:idx_levels_schedule,priority:1"`
	EventToken string `gorm:"not null;uniqueIndex:idx_levels_game_token"`
	LevelName  string `gorm:"not null"`
	DaysOffset int    `gorm:"not null;index:idx_levels_schedule,priority:2"`
	TimeSpent  int    `gorm:"not null"`
	IsBonus    bool   `gorm:"not null;default:false"`
}

func (levelRow) TableName() string { return "levels" }

type purchaseRow struct {
	ID            int64  `gorm:"primaryKey"`
	GameID        int64  `gorm:"not null;uniqueIndex:idx_purchase_events_game_token"`
	EventToken    string `gorm:"not null;uniqueIndex:idx_purchase_events_game_token"`
	IsRestricted  bool   `gorm:"not null;default:false"`
	MaxDaysOffset *int
	CreatedAt     time.Time
}

func (purchaseRow) TableName() string { return "purchase_events" }

type levelProgressRow struct {
	AccountID   int64 `gorm:"primaryKey;autoIncrement:false"`
	LevelID     int64 `gorm:"primaryKey;autoIncrement:false"`
	IsCompleted bool  `gorm:"not null;default:false"`
	CompletedAt *time.Time
}

func (levelProgressRow) TableName() string { return "account_level_progress" }

type purchaseProgressRow struct {
	AccountID       int64 `gorm:"primaryKey;autoIncrement:false"`
	PurchaseEventID int64 `gorm:"primaryKey;autoIncrement:false"`
	IsCompleted     bool  `gorm:"not null;default:false"`
	DaysOffset      int   `gorm:"not null"`
	TimeSpent       int   `gorm:"not null"`
	CompletedAt     *time.Time
}

func (purchaseProgressRow) TableName() string { return "account_purchase_event_progress" }

// Store implements storage.Storage on PostgreSQL.
type Store struct {
	db  *gorm.DB
	now func() time.Time
}

// New connects to dsn and migrates the schema.
func New(dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("%w: postgres_dsn is required", storage.ErrStorage)
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: opening database: %v", storage.ErrStorage, err)
	}
	if err := db.AutoMigrate(
		&gameRow{}, &accountRow{}, &levelRow{}, &purchaseRow{},
		&levelProgressRow{}, &purchaseProgressRow{},
	); err != nil {
		return nil, fmt.Errorf("%w: migrating schema: %v", storage.ErrStorage, err)
	}
	return &Store{db: db, now: storage.Now}, nil
}

// Close closes the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func dbErr(action string, err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return storage.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %s: %v", storage.ErrConflict, action, err)
	}
	return fmt.Errorf("%w: %s: %v", storage.ErrStorage, action, err)
}

// updates converts an UpdateSet into a GORM column map.
func updates(set storage.UpdateSet) map[string]any {
	m := make(map[string]any, len(set))
	for _, a := range set {
		if a.KeepExisting {
			m[a.Column] = gorm.Expr("COALESCE("+a.Column+", ?)", a.Value)
			continue
		}
		m[a.Column] = a.Value
	}
	return m
}

// apply runs a partial update against the rows matched by q and reports
// ErrNotFound when none match.
func apply(q *gorm.DB, action string, set storage.UpdateSet) error {
	if len(set) == 0 {
		var n int64
		if err := q.Count(&n).Error; err != nil {
			return dbErr(action, err)
		}
		if n == 0 {
			return storage.ErrNotFound
		}
		return nil
	}
	res := q.Updates(updates(set))
	if res.Error != nil {
		return dbErr(action, res.Error)
	}
	if res.RowsAffected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func requireRow(tx *gorm.DB, row any, id int64, what string) error {
	var n int64
	if err := tx.Model(row).Where("id = ?", id).Count(&n).Error; err != nil {
		return dbErr("checking "+what, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s %d", storage.ErrNotFound, what, id)
	}
	return nil
}

func deleteRow(tx *gorm.DB, row any, id int64, action string) error {
	res := tx.Where("id = ?", id).Delete(row)
	if res.Error != nil {
		return dbErr(action, res.Error)
	}
	if res.RowsAffected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// --- games ---

func (r gameRow) model() model.Game {
	return model.Game{ID: r.ID, Name: r.Name, CreatedAt: r.CreatedAt.UTC()}
}

func (s *Store) CreateGame(in model.NewGame) (model.Game, error) {
	if err := storage.Validate(in); err != nil {
		return model.Game{}, err
	}
	row := gameRow{Name: in.Name, CreatedAt: s.now()}
	if err := s.db.Create(&row).Error; err != nil {
		return model.Game{}, dbErr("inserting game", err)
	}
	return row.model(), nil
}

func (s *Store) GetGame(id int64) (model.Game, error) {
	var row gameRow
	if err := s.db.First(&row, id).Error; err != nil {
		return model.Game{}, dbErr("querying game", err)
	}
	return row.model(), nil
}

func (s *Store) GetGameByName(name string) (model.Game, error) {
	var row gameRow
	if err := s.db.Where("name = ?", name).First(&row).Error; err != nil {
		return model.Game{}, dbErr("querying game", err)
	}
	return row.model(), nil
}

func (s *Store) ListGames() ([]model.Game, error) {
	var rows []gameRow
	if err := s.db.Order("id").Find(&rows).Error; err != nil {
		return nil, dbErr("listing games", err)
	}
	out := make([]model.Game, len(rows))
	for i, r := range rows {
		out[i] = r.model()
	}
	return out, nil
}

func (s *Store) UpdateGame(id int64, u storage.GameUpdate) (model.Game, error) {
	if err := storage.Validate(u); err != nil {
		return model.Game{}, err
	}
	if err := apply(s.db.Model(&gameRow{}).Where("id = ?", id), "updating game", u.Assignments()); err != nil {
		return model.Game{}, err
	}
	return s.GetGame(id)
}

func (s *Store) DeleteGame(id int64) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		accounts := tx.Model(&accountRow{}).Select("id").Where("game_id = ?", id)
		levels := tx.Model(&levelRow{}).Select("id").Where("game_id = ?", id)
		purchases := tx.Model(&purchaseRow{}).Select("id").Where("game_id = ?", id)
		deletes := []struct {
			row   any
			where string
			args  []any
		}{
			{&levelProgressRow{}, "account_id IN (?) OR level_id IN (?)", []any{accounts, levels}},
			{&purchaseProgressRow{}, "account_id IN (?) OR purchase_event_id IN (?)", []any{accounts, purchases}},
			{&accountRow{}, "game_id = ?", []any{id}},
			{&levelRow{}, "game_id = ?", []any{id}},
			{&purchaseRow{}, "game_id = ?", []any{id}},
		}
		for _, d := range deletes {
			if err := tx.Where(d.where, d.args...).Delete(d.row).Error; err != nil {
				return dbErr("deleting game", err)
			}
		}
		return deleteRow(tx, &gameRow{}, id, "deleting game")
	})
}

// --- accounts ---

func (r accountRow) model() model.Account {
	return model.Account{
		ID:              r.ID,
		GameID:          r.GameID,
		Name:            r.Name,
		StartDate:       r.StartDate,
		StartTime:       r.StartTime,
		RequestTemplate: r.RequestTemplate,
		CreatedAt:       r.CreatedAt.UTC(),
	}
}

func (s *Store) CreateAccount(in model.NewAccount) (model.Account, error) {
	if err := storage.Validate(in); err != nil {
		return model.Account{}, err
	}
	row := accountRow{
		GameID:          in.GameID,
		Name:            in.Name,
		StartDate:       in.StartDate,
		StartTime:       in.StartTime,
		RequestTemplate: in.RequestTemplate,
		CreatedAt:       s.now(),
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := requireRow(tx, &gameRow{}, in.GameID, "game"); err != nil {
			return err
		}
		if err := tx.Create(&row).Error; err != nil {
			return dbErr("inserting account", err)
		}
		return nil
	})
	if err != nil {
		return model.Account{}, err
	}
	return row.model(), nil
}

func (s *Store) GetAccount(id int64) (model.Account, error) {
	var row accountRow
	if err := s.db.First(&row, id).Error; err != nil {
		return model.Account{}, dbErr("querying account", err)
	}
	return row.model(), nil
}

func (s *Store) GetAccountByName(gameID int64, name string) (model.Account, error) {
	var row accountRow
	if err := s.db.Where("game_id = ? AND name = ?", gameID, name).First(&row).Error; err != nil {
		return model.Account{}, dbErr("querying account", err)
	}
	return row.model(), nil
}

func (s *Store) ListAccounts(gameID int64) ([]model.Account, error) {
	q := s.db.Order("id")
	if gameID != 0 {
		q = q.Where("game_id = ?", gameID)
	}
	var rows []accountRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, dbErr("listing accounts", err)
	}
	out := make([]model.Account, len(rows))
	for i, r := range rows {
		out[i] = r.model()
	}
	return out, nil
}

func (s *Store) UpdateAccount(id int64, u storage.AccountUpdate) (model.Account, error) {
	if err := storage.Validate(u); err != nil {
		return model.Account{}, err
	}
	if err := apply(s.db.Model(&accountRow{}).Where("id = ?", id), "updating account", u.Assignments()); err != nil {
		return model.Account{}, err
	}
	return s.GetAccount(id)
}

func (s *Store) DeleteAccount(id int64) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("account_id = ?", id).Delete(&levelProgressRow{}).Error; err != nil {
			return dbErr("deleting account progress", err)
		}
		if err := tx.Where("account_id = ?", id).Delete(&purchaseProgressRow{}).Error; err != nil {
			return dbErr("deleting account progress", err)
		}
		return deleteRow(tx, &accountRow{}, id, "deleting account")
	})
}

// --- levels ---

func (r levelRow) model() model.Level {
	return model.Level{
		ID:         r.ID,
		GameID:     r.GameID,
		EventToken: r.EventToken,
		LevelName:  r.LevelName,
		DaysOffset: r.DaysOffset,
		TimeSpent:  r.TimeSpent,
		IsBonus:    r.IsBonus,
	}
}

func (s *Store) CreateLevel(in model.NewLevel) (model.Level, error) {
	if err := storage.Validate(in); err != nil {
		return model.Level{}, err
	}
	row := levelRow{
		GameID:     in.GameID,
		EventToken: in.EventToken,
		LevelName:  in.LevelName,
		DaysOffset: in.DaysOffset,
		TimeSpent:  in.TimeSpent,
		IsBonus:    in.IsBonus,
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := requireRow(tx, &gameRow{}, in.GameID, "game"); err != nil {
			return err
		}
		if err := tx.Create(&row).Error; err != nil {
			return dbErr("inserting level", err)
		}
		return nil
	})
	if err != nil {
		return model.Level{}, err
	}
	return row.model(), nil
}

func (s *Store) GetLevel(id int64) (model.Level, error) {
	var row levelRow
	if err := s.db.First(&row, id).Error; err != nil {
		return model.Level{}, dbErr("querying level", err)
	}
	return row.model(), nil
}

func (s *Store) ListLevelsByGame(gameID int64) ([]model.Level, error) {
	var rows []levelRow
	if err := s.db.Where("game_id = ?", gameID).Order("days_offset, id").Find(&rows).Error; err != nil {
		return nil, dbErr("listing levels", err)
	}
	out := make([]model.Level, len(rows))
	for i, r := range rows {
		out[i] = r.model()
	}
	return out, nil
}

func (s *Store) UpdateLevel(id int64, u storage.LevelUpdate) (model.Level, error) {
	if err := storage.Validate(u); err != nil {
		return model.Level{}, err
	}
	if err := apply(s.db.Model(&levelRow{}).Where("id = ?", id), "updating level", u.Assignments()); err != nil {
		return model.Level{}, err
	}
	return s.GetLevel(id)
}

func (s *Store) DeleteLevel(id int64) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("level_id = ?", id).Delete(&levelProgressRow{}).Error; err != nil {
			return dbErr("deleting level progress", err)
		}
		return deleteRow(tx, &levelRow{}, id, "deleting level")
	})
}

// --- purchase events ---

func (r purchaseRow) model() model.PurchaseEvent {
	return model.PurchaseEvent{
		ID:            r.ID,
		GameID:        r.GameID,
		EventToken:    r.EventToken,
		IsRestricted:  r.IsRestricted,
		MaxDaysOffset: r.MaxDaysOffset,
		CreatedAt:     r.CreatedAt.UTC(),
	}
}

func (s *Store) CreatePurchaseEvent(in model.NewPurchaseEvent) (model.PurchaseEvent, error) {
	if err := storage.Validate(in); err != nil {
		return model.PurchaseEvent{}, err
	}
	row := purchaseRow{
		GameID:        in.GameID,
		EventToken:    in.EventToken,
		IsRestricted:  in.IsRestricted,
		MaxDaysOffset: in.MaxDaysOffset,
		CreatedAt:     s.now(),
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := requireRow(tx, &gameRow{}, in.GameID, "game"); err != nil {
			return err
		}
		if err := tx.Create(&row).Error; err != nil {
			return dbErr("inserting purchase event", err)
		}
		return nil
	})
	if err != nil {
		return model.PurchaseEvent{}, err
	}
	return row.model(), nil
}

func (s *Store) GetPurchaseEvent(id int64) (model.PurchaseEvent, error) {
	var row purchaseRow
	if err := s.db.First(&row, id).Error; err != nil {
		return model.PurchaseEvent{}, dbErr("querying purchase event", err)
	}
	return row.model(), nil
}

func (s *Store) ListPurchaseEventsByGame(gameID int64) ([]model.PurchaseEvent, error) {
	var rows []purchaseRow
	if err := s.db.Where("game_id = ?", gameID).Order("id").Find(&rows).Error; err != nil {
		return nil, dbErr("listing purchase events", err)
	}
	out := make([]model.PurchaseEvent, len(rows))
	for i, r := range rows {
		out[i] = r.model()
	}
	return out, nil
}

func (s *Store) UpdatePurchaseEvent(id int64, u storage.PurchaseEventUpdate) (model.PurchaseEvent, error) {
	if err := storage.Validate(u); err != nil {
		return model.PurchaseEvent{}, err
	}
	if err := apply(s.db.Model(&purchaseRow{}).Where("id = ?", id), "updating purchase event", u.Assignments()); err != nil {
		return model.PurchaseEvent{}, err
	}
	return s.GetPurchaseEvent(id)
}

func (s *Store) DeletePurchaseEvent(id int64) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("purchase_event_id = ?", id).Delete(&purchaseProgressRow{}).Error; err != nil {
			return dbErr("deleting purchase progress", err)
		}
		return deleteRow(tx, &purchaseRow{}, id, "deleting purchase event")
	})
}

// --- progress ---

func (r levelProgressRow) model() model.LevelProgress {
	return model.LevelProgress{
		AccountID:   r.AccountID,
		LevelID:     r.LevelID,
		IsCompleted: r.IsCompleted,
		CompletedAt: utcPtr(r.CompletedAt),
	}
}

func (r purchaseProgressRow) model() model.PurchaseProgress {
	return model.PurchaseProgress{
		AccountID:       r.AccountID,
		PurchaseEventID: r.PurchaseEventID,
		IsCompleted:     r.IsCompleted,
		DaysOffset:      r.DaysOffset,
		TimeSpent:       r.TimeSpent,
		CompletedAt:     utcPtr(r.CompletedAt),
	}
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

func (s *Store) getLevelProgress(accountID, levelID int64) (model.LevelProgress, error) {
	var row levelProgressRow
	err := s.db.Where("account_id = ? AND level_id = ?", accountID, levelID).First(&row).Error
	if err != nil {
		return model.LevelProgress{}, dbErr("querying level progress", err)
	}
	return row.model(), nil
}

func (s *Store) getPurchaseProgress(accountID, purchaseEventID int64) (model.PurchaseProgress, error) {
	var row purchaseProgressRow
	err := s.db.Where("account_id = ? AND purchase_event_id = ?", accountID, purchaseEventID).First(&row).Error
	if err != nil {
		return model.PurchaseProgress{}, dbErr("querying purchase progress", err)
	}
	return row.model(), nil
}

func (s *Store) EnsureLevelProgress(accountID, levelID int64) (model.LevelProgress, error) {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := requireRow(tx, &accountRow{}, accountID, "account"); err != nil {
			return err
		}
		if err := requireRow(tx, &levelRow{}, levelID, "level"); err != nil {
			return err
		}
		row := levelProgressRow{AccountID: accountID, LevelID: levelID}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row).Error; err != nil {
			return dbErr("inserting level progress", err)
		}
		return nil
	})
	if err != nil {
		return model.LevelProgress{}, err
	}
	return s.getLevelProgress(accountID, levelID)
}

func (s *Store) SetLevelCompleted(accountID, levelID int64, completed bool) (model.LevelProgress, error) {
	set := storage.UpdateSet{
		{Column: "is_completed", Value: completed},
		storage.CompletionAssignment(completed, s.now()),
	}
	q := s.db.Model(&levelProgressRow{}).Where("account_id = ? AND level_id = ?", accountID, levelID)
	if err := apply(q, "updating level progress", set); err != nil {
		return model.LevelProgress{}, err
	}
	return s.getLevelProgress(accountID, levelID)
}

func (s *Store) ListLevelProgress(accountID int64) ([]model.LevelProgress, error) {
	var rows []levelProgressRow
	if err := s.db.Where("account_id = ?", accountID).Order("level_id").Find(&rows).Error; err != nil {
		return nil, dbErr("listing level progress", err)
	}
	out := make([]model.LevelProgress, len(rows))
	for i, r := range rows {
		out[i] = r.model()
	}
	return out, nil
}

func (s *Store) UpsertPurchaseProgress(in model.NewPurchaseProgress) (model.PurchaseProgress, error) {
	if err := storage.Validate(in); err != nil {
		return model.PurchaseProgress{}, err
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := requireRow(tx, &accountRow{}, in.AccountID, "account"); err != nil {
			return err
		}
		if err := requireRow(tx, &purchaseRow{}, in.PurchaseEventID, "purchase event"); err != nil {
			return err
		}
		row := purchaseProgressRow{
			AccountID:       in.AccountID,
			PurchaseEventID: in.PurchaseEventID,
			DaysOffset:      in.DaysOffset,
			TimeSpent:       in.TimeSpent,
		}
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "account_id"}, {Name: "purchase_event_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"days_offset", "time_spent"}),
		}).Create(&row).Error
		if err != nil {
			return dbErr("upserting purchase progress", err)
		}
		return nil
	})
	if err != nil {
		return model.PurchaseProgress{}, err
	}
	return s.getPurchaseProgress(in.AccountID, in.PurchaseEventID)
}

func (s *Store) UpdatePurchaseProgress(accountID, purchaseEventID int64, u storage.PurchaseProgressUpdate) (model.PurchaseProgress, error) {
	if err := storage.Validate(u); err != nil {
		return model.PurchaseProgress{}, err
	}
	q := s.db.Model(&purchaseProgressRow{}).Where("account_id = ? AND purchase_event_id = ?", accountID, purchaseEventID)
	if err := apply(q, "updating purchase progress", u.Assignments(s.now())); err != nil {
		return model.PurchaseProgress{}, err
	}
	return s.getPurchaseProgress(accountID, purchaseEventID)
}

func (s *Store) ListPurchaseProgress(accountID int64) ([]model.PurchaseProgress, error) {
	var rows []purchaseProgressRow
	if err := s.db.Where("account_id = ?", accountID).Order("purchase_event_id").Find(&rows).Error; err != nil {
		return nil, dbErr("listing purchase progress", err)
	}
	out := make([]model.PurchaseProgress, len(rows))
	for i, r := range rows {
		out[i] = r.model()
	}
	return out, nil
}

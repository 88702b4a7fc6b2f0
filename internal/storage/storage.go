package storage

import (
	"errors"
	"fmt"

	"github.com/chris-regnier/dailyctl/internal/model"
)

// Sentinel errors for storage operations.
var (
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("already exists")
	ErrStorage    = errors.New("storage error")
	ErrValidation = errors.New("validation error")
)

// Storage defines persistence for the game catalog and per-account progress.
//
// Levels are listed in schedule order (days_offset, then id). Deleting a game
// removes its accounts, levels, purchase events and every progress row that
// references them; deleting an account removes its progress rows.
type Storage interface {
	// Game methods
	CreateGame(g model.NewGame) (model.Game, error)
	GetGame(id int64) (model.Game, error)
	GetGameByName(name string) (model.Game, error)
	ListGames() ([]model.Game, error)
	UpdateGame(id int64, u GameUpdate) (model.Game, error)
	DeleteGame(id int64) error

	// Account methods. ListAccounts with gameID 0 lists every account.
	CreateAccount(a model.NewAccount) (model.Account, error)
	GetAccount(id int64) (model.Account, error)
	GetAccountByName(gameID int64, name string) (model.Account, error)
	ListAccounts(gameID int64) ([]model.Account, error)
	UpdateAccount(id int64, u AccountUpdate) (model.Account, error)
	DeleteAccount(id int64) error

	// Level methods
	CreateLevel(l model.NewLevel) (model.Level, error)
	GetLevel(id int64) (model.Level, error)
	ListLevelsByGame(gameID int64) ([]model.Level, error)
	UpdateLevel(id int64, u LevelUpdate) (model.Level, error)
	DeleteLevel(id int64) error

	// Purchase event methods
	CreatePurchaseEvent(p model.NewPurchaseEvent) (model.PurchaseEvent, error)
	GetPurchaseEvent(id int64) (model.PurchaseEvent, error)
	ListPurchaseEventsByGame(gameID int64) ([]model.PurchaseEvent, error)
	UpdatePurchaseEvent(id int64, u PurchaseEventUpdate) (model.PurchaseEvent, error)
	DeletePurchaseEvent(id int64) error

	// Progress methods
	EnsureLevelProgress(accountID, levelID int64) (model.LevelProgress, error)
	SetLevelCompleted(accountID, levelID int64, completed bool) (model.LevelProgress, error)
	ListLevelProgress(accountID int64) ([]model.LevelProgress, error)
	UpsertPurchaseProgress(p model.NewPurchaseProgress) (model.PurchaseProgress, error)
	UpdatePurchaseProgress(accountID, purchaseEventID int64, u PurchaseProgressUpdate) (model.PurchaseProgress, error)
	ListPurchaseProgress(accountID int64) ([]model.PurchaseProgress, error)

	Close() error
}

// Validate checks a create or update input and wraps failures in ErrValidation.
func Validate(v any) error {
	if err := model.Validate(v); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return nil
}

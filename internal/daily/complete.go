package daily

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/chris-regnier/dailyctl/internal/model"
	"github.com/chris-regnier/dailyctl/internal/storage"
)

// Completer is the storage surface that marks milestones done.
type Completer interface {
	GetAccount(id int64) (model.Account, error)
	GetLevel(id int64) (model.Level, error)
	EnsureLevelProgress(accountID, levelID int64) (model.LevelProgress, error)
	SetLevelCompleted(accountID, levelID int64, completed bool) (model.LevelProgress, error)
	UpdatePurchaseProgress(accountID, purchaseEventID int64, u storage.PurchaseProgressUpdate) (model.PurchaseProgress, error)
}

// CompleteLevel marks a level completed (or not) for an account, creating the
// progress row when needed, and drops the account's cached plans.
func (p *Planner) CompleteLevel(ctx context.Context, c Completer, accountID, levelID int64, completed bool) (model.LevelProgress, error) {
	account, err := c.GetAccount(accountID)
	if err != nil {
		return model.LevelProgress{}, err
	}
	level, err := c.GetLevel(levelID)
	if err != nil {
		return model.LevelProgress{}, err
	}
	if level.GameID != account.GameID {
		return model.LevelProgress{}, fmt.Errorf("%w: level %d is not part of account %s's game", storage.ErrValidation, levelID, account.Name)
	}
	if _, err := c.EnsureLevelProgress(accountID, levelID); err != nil {
		return model.LevelProgress{}, err
	}
	lp, err := c.SetLevelCompleted(accountID, levelID, completed)
	if err != nil {
		return model.LevelProgress{}, err
	}
	p.invalidate(ctx, accountID)
	return lp, nil
}

// CompletePurchase marks a scheduled purchase event completed (or not).
func (p *Planner) CompletePurchase(ctx context.Context, c Completer, accountID, purchaseEventID int64, completed bool) (model.PurchaseProgress, error) {
	pp, err := c.UpdatePurchaseProgress(accountID, purchaseEventID, storage.PurchaseProgressUpdate{IsCompleted: &completed})
	if err != nil {
		return model.PurchaseProgress{}, err
	}
	p.invalidate(ctx, accountID)
	return pp, nil
}

// invalidate logs instead of failing; the progress change already landed.
func (p *Planner) invalidate(ctx context.Context, accountID int64) {
	if err := p.Invalidate(ctx, accountID); err != nil {
		log.WithError(err).Warn("dropping cached plan")
	}
}

// Package memory implements storage.Storage in process memory. It backs
// tests and the "memory" storage setting; nothing survives Close.
package memory

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/chris-regnier/dailyctl/internal/model"
	"github.com/chris-regnier/dailyctl/internal/storage"
)

type levelKey struct{ account, level int64 }
type purchaseKey struct{ account, event int64 }

// Store implements storage.Storage with maps guarded by a mutex.
type Store struct {
	mu     sync.Mutex
	nextID int64
	now    func() time.Time

	games     map[int64]model.Game
	accounts  map[int64]model.Account
	levels    map[int64]model.Level
	purchases map[int64]model.PurchaseEvent
	levelProg map[levelKey]model.LevelProgress
	purchProg map[purchaseKey]model.PurchaseProgress
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		now:       storage.Now,
		games:     map[int64]model.Game{},
		accounts:  map[int64]model.Account{},
		levels:    map[int64]model.Level{},
		purchases: map[int64]model.PurchaseEvent{},
		levelProg: map[levelKey]model.LevelProgress{},
		purchProg: map[purchaseKey]model.PurchaseProgress{},
	}
}

// Close is a no-op.
func (s *Store) Close() error { return nil }

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

func sortByID[T any](items []T, id func(T) int64) []T {
	sort.Slice(items, func(i, j int) bool { return id(items[i]) < id(items[j]) })
	return items
}

// --- games ---

func (s *Store) CreateGame(in model.NewGame) (model.Game, error) {
	if err := storage.Validate(in); err != nil {
		return model.Game{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, g := range s.games {
		if g.Name == in.Name {
			return model.Game{}, fmt.Errorf("%w: game %q", storage.ErrConflict, in.Name)
		}
	}
	g := model.Game{ID: s.id(), Name: in.Name, CreatedAt: s.now()}
	s.games[g.ID] = g
	return g, nil
}

func (s *Store) GetGame(id int64) (model.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.games[id]
	if !ok {
		return model.Game{}, storage.ErrNotFound
	}
	return g, nil
}

func (s *Store) GetGameByName(name string) (model.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, g := range s.games {
		if g.Name == name {
			return g, nil
		}
	}
	return model.Game{}, storage.ErrNotFound
}

func (s *Store) ListGames() ([]model.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Game, 0, len(s.games))
	for _, g := range s.games {
		out = append(out, g)
	}
	return sortByID(out, func(g model.Game) int64 { return g.ID }), nil
}

func (s *Store) UpdateGame(id int64, u storage.GameUpdate) (model.Game, error) {
	if err := storage.Validate(u); err != nil {
		return model.Game{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.games[id]
	if !ok {
		return model.Game{}, storage.ErrNotFound
	}
	if u.Name != nil {
		for _, other := range s.games {
			if other.ID != id && other.Name == *u.Name {
				return model.Game{}, fmt.Errorf("%w: game %q", storage.ErrConflict, *u.Name)
			}
		}
		g.Name = *u.Name
	}
	s.games[id] = g
	return g, nil
}

func (s *Store) DeleteGame(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.games[id]; !ok {
		return storage.ErrNotFound
	}
	for aid, a := range s.accounts {
		if a.GameID == id {
			s.deleteAccountLocked(aid)
		}
	}
	for lid, l := range s.levels {
		if l.GameID == id {
			s.deleteLevelLocked(lid)
		}
	}
	for pid, p := range s.purchases {
		if p.GameID == id {
			s.deletePurchaseLocked(pid)
		}
	}
	delete(s.games, id)
	return nil
}

// --- accounts ---

func (s *Store) CreateAccount(in model.NewAccount) (model.Account, error) {
	if err := storage.Validate(in); err != nil {
		return model.Account{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.games[in.GameID]; !ok {
		return model.Account{}, fmt.Errorf("%w: game %d", storage.ErrNotFound, in.GameID)
	}
	if s.accountNameTaken(in.GameID, in.Name, 0) {
		return model.Account{}, fmt.Errorf("%w: account %q", storage.ErrConflict, in.Name)
	}
	a := model.Account{
		ID:              s.id(),
		GameID:          in.GameID,
		Name:            in.Name,
		StartDate:       in.StartDate,
		StartTime:       in.StartTime,
		RequestTemplate: in.RequestTemplate,
		CreatedAt:       s.now(),
	}
	s.accounts[a.ID] = a
	return a, nil
}

func (s *Store) accountNameTaken(gameID int64, name string, except int64) bool {
	for _, a := range s.accounts {
		if a.ID != except && a.GameID == gameID && a.Name == name {
			return true
		}
	}
	return false
}

func (s *Store) GetAccount(id int64) (model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return model.Account{}, storage.ErrNotFound
	}
	return a, nil
}

func (s *Store) GetAccountByName(gameID int64, name string) (model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.accounts {
		if a.GameID == gameID && a.Name == name {
			return a, nil
		}
	}
	return model.Account{}, storage.ErrNotFound
}

func (s *Store) ListAccounts(gameID int64) ([]model.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.Account{}
	for _, a := range s.accounts {
		if gameID == 0 || a.GameID == gameID {
			out = append(out, a)
		}
	}
	return sortByID(out, func(a model.Account) int64 { return a.ID }), nil
}

func (s *Store) UpdateAccount(id int64, u storage.AccountUpdate) (model.Account, error) {
	if err := storage.Validate(u); err != nil {
		return model.Account{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[id]
	if !ok {
		return model.Account{}, storage.ErrNotFound
	}
	if u.Name != nil {
		if s.accountNameTaken(a.GameID, *u.Name, id) {
			return model.Account{}, fmt.Errorf("%w: account %q", storage.ErrConflict, *u.Name)
		}
		a.Name = *u.Name
	}
	if u.StartDate != nil {
		a.StartDate = *u.StartDate
	}
	if u.StartTime != nil {
		a.StartTime = *u.StartTime
	}
	if u.RequestTemplate != nil {
		a.RequestTemplate = *u.RequestTemplate
	}
	s.accounts[id] = a
	return a, nil
}

func (s *Store) DeleteAccount(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[id]; !ok {
		return storage.ErrNotFound
	}
	s.deleteAccountLocked(id)
	return nil
}

func (s *Store) deleteAccountLocked(id int64) {
	for k := range s.levelProg {
		if k.account == id {
			delete(s.levelProg, k)
		}
	}
	for k := range s.purchProg {
		if k.account == id {
			delete(s.purchProg, k)
		}
	}
	delete(s.accounts, id)
}

// --- levels ---

func (s *Store) levelTokenTaken(gameID int64, token string, except int64) bool {
	for _, l := range s.levels {
		if l.ID != except && l.GameID == gameID && l.EventToken == token {
			return true
		}
	}
	return false
}

func (s *Store) purchaseTokenTaken(gameID int64, token string, except int64) bool {
	for _, p := range s.purchases {
		if p.ID != except && p.GameID == gameID && p.EventToken == token {
			return true
		}
	}
	return false
}

func (s *Store) CreateLevel(in model.NewLevel) (model.Level, error) {
	if err := storage.Validate(in); err != nil {
		return model.Level{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.games[in.GameID]; !ok {
		return model.Level{}, fmt.Errorf("%w: game %d", storage.ErrNotFound, in.GameID)
	}
	if s.levelTokenTaken(in.GameID, in.EventToken, 0) {
		return model.Level{}, fmt.Errorf("%w: level %q", storage.ErrConflict, in.EventToken)
	}
	l := model.Level{
		ID:         s.id(),
		GameID:     in.GameID,
		EventToken: in.EventToken,
		LevelName:  in.LevelName,
		DaysOffset: in.DaysOffset,
		TimeSpent:  in.TimeSpent,
		IsBonus:    in.IsBonus,
	}
	s.levels[l.ID] = l
	return l, nil
}

func (s *Store) GetLevel(id int64) (model.Level, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.levels[id]
	if !ok {
		return model.Level{}, storage.ErrNotFound
	}
	return l, nil
}

func (s *Store) ListLevelsByGame(gameID int64) ([]model.Level, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.Level{}
	for _, l := range s.levels {
		if l.GameID == gameID {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DaysOffset != out[j].DaysOffset {
			return out[i].DaysOffset < out[j].DaysOffset
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) UpdateLevel(id int64, u storage.LevelUpdate) (model.Level, error) {
	if err := storage.Validate(u); err != nil {
		return model.Level{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.levels[id]
	if !ok {
		return model.Level{}, storage.ErrNotFound
	}
	if u.EventToken != nil {
		if s.levelTokenTaken(l.GameID, *u.EventToken, id) {
			return model.Level{}, fmt.Errorf("%w: level %q", storage.ErrConflict, *u.EventToken)
		}
		l.EventToken = *u.EventToken
	}
	if u.LevelName != nil {
		l.LevelName = *u.LevelName
	}
	if u.DaysOffset != nil {
		l.DaysOffset = *u.DaysOffset
	}
	if u.TimeSpent != nil {
		l.TimeSpent = *u.TimeSpent
	}
	if u.IsBonus != nil {
		l.IsBonus = *u.IsBonus
	}
	s.levels[id] = l
	return l, nil
}

func (s *Store) DeleteLevel(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.levels[id]; !ok {
		return storage.ErrNotFound
	}
	s.deleteLevelLocked(id)
	return nil
}

func (s *Store) deleteLevelLocked(id int64) {
	for k := range s.levelProg {
		if k.level == id {
			delete(s.levelProg, k)
		}
	}
	delete(s.levels, id)
}

// --- purchase events ---

func (s *Store) CreatePurchaseEvent(in model.NewPurchaseEvent) (model.PurchaseEvent, error) {
	if err := storage.Validate(in); err != nil {
		return model.PurchaseEvent{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.games[in.GameID]; !ok {
		return model.PurchaseEvent{}, fmt.Errorf("%w: game %d", storage.ErrNotFound, in.GameID)
	}
	if s.purchaseTokenTaken(in.GameID, in.EventToken, 0) {
		return model.PurchaseEvent{}, fmt.Errorf("%w: purchase event %q", storage.ErrConflict, in.EventToken)
	}
	p := model.PurchaseEvent{
		ID:            s.id(),
		GameID:        in.GameID,
		EventToken:    in.EventToken,
		IsRestricted:  in.IsRestricted,
		MaxDaysOffset: copyInt(in.MaxDaysOffset),
		CreatedAt:     s.now(),
	}
	s.purchases[p.ID] = p
	return p, nil
}

func copyInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func (s *Store) GetPurchaseEvent(id int64) (model.PurchaseEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.purchases[id]
	if !ok {
		return model.PurchaseEvent{}, storage.ErrNotFound
	}
	p.MaxDaysOffset = copyInt(p.MaxDaysOffset)
	return p, nil
}

func (s *Store) ListPurchaseEventsByGame(gameID int64) ([]model.PurchaseEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.PurchaseEvent{}
	for _, p := range s.purchases {
		if p.GameID == gameID {
			p.MaxDaysOffset = copyInt(p.MaxDaysOffset)
			out = append(out, p)
		}
	}
	return sortByID(out, func(p model.PurchaseEvent) int64 { return p.ID }), nil
}

func (s *Store) UpdatePurchaseEvent(id int64, u storage.PurchaseEventUpdate) (model.PurchaseEvent, error) {
	if err := storage.Validate(u); err != nil {
		return model.PurchaseEvent{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.purchases[id]
	if !ok {
		return model.PurchaseEvent{}, storage.ErrNotFound
	}
	if u.EventToken != nil {
		if s.purchaseTokenTaken(p.GameID, *u.EventToken, id) {
			return model.PurchaseEvent{}, fmt.Errorf("%w: purchase event %q", storage.ErrConflict, *u.EventToken)
		}
		p.EventToken = *u.EventToken
	}
	if u.IsRestricted != nil {
		p.IsRestricted = *u.IsRestricted
	}
	switch {
	case u.ClearMaxDaysOffset:
		p.MaxDaysOffset = nil
	case u.MaxDaysOffset != nil:
		p.MaxDaysOffset = copyInt(u.MaxDaysOffset)
	}
	s.purchases[id] = p
	p.MaxDaysOffset = copyInt(p.MaxDaysOffset)
	return p, nil
}

func (s *Store) DeletePurchaseEvent(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.purchases[id]; !ok {
		return storage.ErrNotFound
	}
	s.deletePurchaseLocked(id)
	return nil
}

func (s *Store) deletePurchaseLocked(id int64) {
	for k := range s.purchProg {
		if k.event == id {
			delete(s.purchProg, k)
		}
	}
	delete(s.purchases, id)
}

// --- progress ---

func (s *Store) EnsureLevelProgress(accountID, levelID int64) (model.LevelProgress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[accountID]; !ok {
		return model.LevelProgress{}, fmt.Errorf("%w: account %d", storage.ErrNotFound, accountID)
	}
	if _, ok := s.levels[levelID]; !ok {
		return model.LevelProgress{}, fmt.Errorf("%w: level %d", storage.ErrNotFound, levelID)
	}
	k := levelKey{accountID, levelID}
	if p, ok := s.levelProg[k]; ok {
		return p, nil
	}
	p := model.LevelProgress{AccountID: accountID, LevelID: levelID}
	s.levelProg[k] = p
	return p, nil
}

func (s *Store) SetLevelCompleted(accountID, levelID int64, completed bool) (model.LevelProgress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := levelKey{accountID, levelID}
	p, ok := s.levelProg[k]
	if !ok {
		return model.LevelProgress{}, storage.ErrNotFound
	}
	p.IsCompleted = completed
	p.CompletedAt = stampCompletion(p.CompletedAt, completed, s.now())
	s.levelProg[k] = p
	return p, nil
}

func stampCompletion(prev *time.Time, completed bool, now time.Time) *time.Time {
	if !completed {
		return nil
	}
	if prev != nil {
		return prev
	}
	return &now
}

func (s *Store) ListLevelProgress(accountID int64) ([]model.LevelProgress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.LevelProgress{}
	for k, p := range s.levelProg {
		if k.account == accountID {
			out = append(out, p)
		}
	}
	return sortByID(out, func(p model.LevelProgress) int64 { return p.LevelID }), nil
}

func (s *Store) UpsertPurchaseProgress(in model.NewPurchaseProgress) (model.PurchaseProgress, error) {
	if err := storage.Validate(in); err != nil {
		return model.PurchaseProgress{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[in.AccountID]; !ok {
		return model.PurchaseProgress{}, fmt.Errorf("%w: account %d", storage.ErrNotFound, in.AccountID)
	}
	if _, ok := s.purchases[in.PurchaseEventID]; !ok {
		return model.PurchaseProgress{}, fmt.Errorf("%w: purchase event %d", storage.ErrNotFound, in.PurchaseEventID)
	}
	k := purchaseKey{in.AccountID, in.PurchaseEventID}
	p, ok := s.purchProg[k]
	if !ok {
		p = model.PurchaseProgress{AccountID: in.AccountID, PurchaseEventID: in.PurchaseEventID}
	}
	p.DaysOffset = in.DaysOffset
	p.TimeSpent = in.TimeSpent
	s.purchProg[k] = p
	return p, nil
}

func (s *Store) UpdatePurchaseProgress(accountID, purchaseEventID int64, u storage.PurchaseProgressUpdate) (model.PurchaseProgress, error) {
	if err := storage.Validate(u); err != nil {
		return model.PurchaseProgress{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	k := purchaseKey{accountID, purchaseEventID}
	p, ok := s.purchProg[k]
	if !ok {
		return model.PurchaseProgress{}, storage.ErrNotFound
	}
	if u.IsCompleted != nil {
		p.IsCompleted = *u.IsCompleted
		p.CompletedAt = stampCompletion(p.CompletedAt, p.IsCompleted, s.now())
	}
	if u.DaysOffset != nil {
		p.DaysOffset = *u.DaysOffset
	}
	if u.TimeSpent != nil {
		p.TimeSpent = *u.TimeSpent
	}
	s.purchProg[k] = p
	return p, nil
}

func (s *Store) ListPurchaseProgress(accountID int64) ([]model.PurchaseProgress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.PurchaseProgress{}
	for k, p := range s.purchProg {
		if k.account == accountID {
			out = append(out, p)
		}
	}
	return sortByID(out, func(p model.PurchaseProgress) int64 { return p.PurchaseEventID }), nil
}

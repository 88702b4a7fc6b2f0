package storage_test

import (
	"errors"
	"os"
	"testing"

	"github.com/chris-regnier/dailyctl/internal/model"
	"github.com/chris-regnier/dailyctl/internal/storage"
	"github.com/chris-regnier/dailyctl/internal/storage/memory"
	"github.com/chris-regnier/dailyctl/internal/storage/postgres"
	"github.com/chris-regnier/dailyctl/internal/storage/sqlite"
	pgdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type storageFactory func(t *testing.T) storage.Storage

func memoryFactory(t *testing.T) storage.Storage {
	t.Helper()
	return memory.New()
}

func sqliteFactory(driver string) storageFactory {
	return func(t *testing.T) storage.Storage {
		t.Helper()
		s, err := sqlite.New(t.TempDir(), driver)
		if err != nil {
			t.Fatalf("creating sqlite storage: %v", err)
		}
		t.Cleanup(func() { s.Close() })
		return s
	}
}

func postgresFactory(dsn string) storageFactory {
	return func(t *testing.T) storage.Storage {
		t.Helper()
		s, err := postgres.New(dsn)
		if err != nil {
			t.Fatalf("creating postgres storage: %v", err)
		}
		t.Cleanup(func() { s.Close() })

		db, err := gorm.Open(pgdriver.Open(dsn), &gorm.Config{})
		if err != nil {
			t.Fatalf("opening postgres for reset: %v", err)
		}
		err = db.Exec(`TRUNCATE games, accounts, levels, purchase_events,
			account_level_progress, account_purchase_event_progress RESTART IDENTITY`).Error
		if err != nil {
			t.Fatalf("truncating tables: %v", err)
		}
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
		return s
	}
}

func TestStorageContract(t *testing.T) {
	runContractTests(t, "memory", memoryFactory)
	runContractTests(t, "sqlite-libsql", sqliteFactory(sqlite.DriverLibSQL))
	runContractTests(t, "sqlite-modernc", sqliteFactory(sqlite.DriverSQLite))
	if dsn := os.Getenv("DAILYCTL_TEST_POSTGRES_DSN"); dsn != "" {
		runContractTests(t, "postgres", postgresFactory(dsn))
	}
}

func ptr[T any](v T) *T { return &v }

// fixture creates a game with one account and returns both.
func fixture(t *testing.T, s storage.Storage) (model.Game, model.Account) {
	t.Helper()
	g, err := s.CreateGame(model.NewGame{Name: "Galaxy"})
	if err != nil {
		t.Fatalf("CreateGame: %v", err)
	}
	a, err := s.CreateAccount(model.NewAccount{
		GameID:          g.ID,
		Name:            "main",
		StartDate:       "2025-01-01",
		StartTime:       "09:00",
		RequestTemplate: "POST /session HTTP/1.1\n\n{}",
	})
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}
	return g, a
}

func mustLevel(t *testing.T, s storage.Storage, gameID int64, token string, day, spent int) model.Level {
	t.Helper()
	l, err := s.CreateLevel(model.NewLevel{
		GameID: gameID, EventToken: token, LevelName: token, DaysOffset: day, TimeSpent: spent,
	})
	if err != nil {
		t.Fatalf("CreateLevel(%s): %v", token, err)
	}
	return l
}

func mustPurchase(t *testing.T, s storage.Storage, gameID int64, token string) model.PurchaseEvent {
	t.Helper()
	p, err := s.CreatePurchaseEvent(model.NewPurchaseEvent{GameID: gameID, EventToken: token})
	if err != nil {
		t.Fatalf("CreatePurchaseEvent(%s): %v", token, err)
	}
	return p
}

func runContractTests(t *testing.T, name string, factory storageFactory) {
	t.Run(name, func(t *testing.T) {
		t.Run("Game create and get", func(t *testing.T) {
			s := factory(t)
			g, err := s.CreateGame(model.NewGame{Name: "Galaxy"})
			if err != nil {
				t.Fatalf("CreateGame: %v", err)
			}
			if g.ID == 0 || g.CreatedAt.IsZero() {
				t.Errorf("game not populated: %+v", g)
			}
			got, err := s.GetGameByName("Galaxy")
			if err != nil {
				t.Fatalf("GetGameByName: %v", err)
			}
			if got.ID != g.ID {
				t.Errorf("id = %d, want %d", got.ID, g.ID)
			}
		})

		t.Run("Game name conflict", func(t *testing.T) {
			s := factory(t)
			if _, err := s.CreateGame(model.NewGame{Name: "Galaxy"}); err != nil {
				t.Fatalf("CreateGame: %v", err)
			}
			_, err := s.CreateGame(model.NewGame{Name: "Galaxy"})
			if !errors.Is(err, storage.ErrConflict) {
				t.Errorf("expected ErrConflict, got: %v", err)
			}
		})

		t.Run("Game validation", func(t *testing.T) {
			s := factory(t)
			_, err := s.CreateGame(model.NewGame{Name: ""})
			if !errors.Is(err, storage.ErrValidation) {
				t.Errorf("expected ErrValidation, got: %v", err)
			}
		})

		t.Run("Get not found", func(t *testing.T) {
			s := factory(t)
			if _, err := s.GetGame(999); !errors.Is(err, storage.ErrNotFound) {
				t.Errorf("GetGame: expected ErrNotFound, got: %v", err)
			}
			if _, err := s.GetAccount(999); !errors.Is(err, storage.ErrNotFound) {
				t.Errorf("GetAccount: expected ErrNotFound, got: %v", err)
			}
			if _, err := s.GetLevel(999); !errors.Is(err, storage.ErrNotFound) {
				t.Errorf("GetLevel: expected ErrNotFound, got: %v", err)
			}
			if _, err := s.GetPurchaseEvent(999); !errors.Is(err, storage.ErrNotFound) {
				t.Errorf("GetPurchaseEvent: expected ErrNotFound, got: %v", err)
			}
		})

		t.Run("Account for missing game", func(t *testing.T) {
			s := factory(t)
			_, err := s.CreateAccount(model.NewAccount{
				GameID: 42, Name: "x", StartDate: "2025-01-01", StartTime: "09:00",
			})
			if !errors.Is(err, storage.ErrNotFound) {
				t.Errorf("expected ErrNotFound, got: %v", err)
			}
		})

		t.Run("Account update and lookup", func(t *testing.T) {
			s := factory(t)
			g, a := fixture(t, s)
			if a.RequestTemplate == "" {
				t.Fatal("template not stored")
			}
			updated, err := s.UpdateAccount(a.ID, storage.AccountUpdate{
				StartDate: ptr("14-Dec"),
				Name:      ptr("alt"),
			})
			if err != nil {
				t.Fatalf("UpdateAccount: %v", err)
			}
			if updated.StartDate != "14-Dec" || updated.Name != "alt" || updated.StartTime != "09:00" {
				t.Errorf("updated = %+v", updated)
			}
			got, err := s.GetAccountByName(g.ID, "alt")
			if err != nil {
				t.Fatalf("GetAccountByName: %v", err)
			}
			if got.ID != a.ID {
				t.Errorf("id = %d, want %d", got.ID, a.ID)
			}
		})

		t.Run("Account empty update", func(t *testing.T) {
			s := factory(t)
			_, a := fixture(t, s)
			if _, err := s.UpdateAccount(a.ID, storage.AccountUpdate{}); err != nil {
				t.Errorf("empty update: %v", err)
			}
			if _, err := s.UpdateAccount(a.ID+100, storage.AccountUpdate{}); !errors.Is(err, storage.ErrNotFound) {
				t.Errorf("expected ErrNotFound, got: %v", err)
			}
		})

		t.Run("List accounts", func(t *testing.T) {
			s := factory(t)
			g, _ := fixture(t, s)
			other, err := s.CreateGame(model.NewGame{Name: "Other"})
			if err != nil {
				t.Fatalf("CreateGame: %v", err)
			}
			if _, err := s.CreateAccount(model.NewAccount{
				GameID: other.ID, Name: "main", StartDate: "2025-01-01", StartTime: "09:00",
			}); err != nil {
				t.Fatalf("CreateAccount: %v", err)
			}
			byGame, err := s.ListAccounts(g.ID)
			if err != nil {
				t.Fatalf("ListAccounts: %v", err)
			}
			all, err := s.ListAccounts(0)
			if err != nil {
				t.Fatalf("ListAccounts(0): %v", err)
			}
			if len(byGame) != 1 || len(all) != 2 {
				t.Errorf("byGame = %d, all = %d", len(byGame), len(all))
			}
		})

		t.Run("Levels in schedule order", func(t *testing.T) {
			s := factory(t)
			g, _ := fixture(t, s)
			mustLevel(t, s, g.ID, "c", 10, 300)
			mustLevel(t, s, g.ID, "a", 0, 100)
			mustLevel(t, s, g.ID, "b", 5, 200)
			levels, err := s.ListLevelsByGame(g.ID)
			if err != nil {
				t.Fatalf("ListLevelsByGame: %v", err)
			}
			var tokens []string
			for _, l := range levels {
				tokens = append(tokens, l.EventToken)
			}
			if len(tokens) != 3 || tokens[0] != "a" || tokens[1] != "b" || tokens[2] != "c" {
				t.Errorf("order = %v", tokens)
			}
		})

		t.Run("Level token conflict", func(t *testing.T) {
			s := factory(t)
			g, _ := fixture(t, s)
			mustLevel(t, s, g.ID, "lvl1", 0, 100)
			_, err := s.CreateLevel(model.NewLevel{GameID: g.ID, EventToken: "lvl1", LevelName: "dup"})
			if !errors.Is(err, storage.ErrConflict) {
				t.Errorf("expected ErrConflict, got: %v", err)
			}
			l2 := mustLevel(t, s, g.ID, "lvl2", 1, 100)
			if _, err := s.UpdateLevel(l2.ID, storage.LevelUpdate{EventToken: ptr("lvl1")}); !errors.Is(err, storage.ErrConflict) {
				t.Errorf("update: expected ErrConflict, got: %v", err)
			}
		})

		t.Run("Level partial update", func(t *testing.T) {
			s := factory(t)
			g, _ := fixture(t, s)
			l := mustLevel(t, s, g.ID, "lvl1", 3, 100)
			got, err := s.UpdateLevel(l.ID, storage.LevelUpdate{TimeSpent: ptr(250), IsBonus: ptr(true)})
			if err != nil {
				t.Fatalf("UpdateLevel: %v", err)
			}
			if got.TimeSpent != 250 || !got.IsBonus || got.DaysOffset != 3 || got.LevelName != "lvl1" {
				t.Errorf("level = %+v", got)
			}
		})

		t.Run("Purchase event max days", func(t *testing.T) {
			s := factory(t)
			g, _ := fixture(t, s)
			p, err := s.CreatePurchaseEvent(model.NewPurchaseEvent{
				GameID: g.ID, EventToken: "starter", IsRestricted: true, MaxDaysOffset: ptr(7),
			})
			if err != nil {
				t.Fatalf("CreatePurchaseEvent: %v", err)
			}
			if p.MaxDaysOffset == nil || *p.MaxDaysOffset != 7 {
				t.Fatalf("max days = %v", p.MaxDaysOffset)
			}
			p, err = s.UpdatePurchaseEvent(p.ID, storage.PurchaseEventUpdate{ClearMaxDaysOffset: true})
			if err != nil {
				t.Fatalf("UpdatePurchaseEvent: %v", err)
			}
			if p.MaxDaysOffset != nil || !p.IsRestricted {
				t.Errorf("event = %+v", p)
			}
		})

		t.Run("Level progress lifecycle", func(t *testing.T) {
			s := factory(t)
			g, a := fixture(t, s)
			l := mustLevel(t, s, g.ID, "lvl1", 0, 100)

			if _, err := s.SetLevelCompleted(a.ID, l.ID, true); !errors.Is(err, storage.ErrNotFound) {
				t.Errorf("completing without row: expected ErrNotFound, got: %v", err)
			}

			p, err := s.EnsureLevelProgress(a.ID, l.ID)
			if err != nil {
				t.Fatalf("EnsureLevelProgress: %v", err)
			}
			if p.IsCompleted || p.CompletedAt != nil {
				t.Errorf("new progress = %+v", p)
			}

			done, err := s.SetLevelCompleted(a.ID, l.ID, true)
			if err != nil {
				t.Fatalf("SetLevelCompleted: %v", err)
			}
			if !done.IsCompleted || done.CompletedAt == nil {
				t.Fatalf("completed progress = %+v", done)
			}
			first := *done.CompletedAt

			again, err := s.SetLevelCompleted(a.ID, l.ID, true)
			if err != nil {
				t.Fatalf("SetLevelCompleted again: %v", err)
			}
			if again.CompletedAt == nil || !again.CompletedAt.Equal(first) {
				t.Errorf("completed_at changed: %v -> %v", first, again.CompletedAt)
			}

			if _, err := s.EnsureLevelProgress(a.ID, l.ID); err != nil {
				t.Fatalf("EnsureLevelProgress again: %v", err)
			}
			rows, err := s.ListLevelProgress(a.ID)
			if err != nil {
				t.Fatalf("ListLevelProgress: %v", err)
			}
			if len(rows) != 1 || !rows[0].IsCompleted {
				t.Errorf("ensure must not reset completion: %+v", rows)
			}

			undone, err := s.SetLevelCompleted(a.ID, l.ID, false)
			if err != nil {
				t.Fatalf("SetLevelCompleted(false): %v", err)
			}
			if undone.IsCompleted || undone.CompletedAt != nil {
				t.Errorf("uncompleted progress = %+v", undone)
			}
		})

		t.Run("Level progress for missing level", func(t *testing.T) {
			s := factory(t)
			_, a := fixture(t, s)
			if _, err := s.EnsureLevelProgress(a.ID, 999); !errors.Is(err, storage.ErrNotFound) {
				t.Errorf("expected ErrNotFound, got: %v", err)
			}
		})

		t.Run("Purchase progress upsert", func(t *testing.T) {
			s := factory(t)
			g, a := fixture(t, s)
			pe := mustPurchase(t, s, g.ID, "starter")

			p, err := s.UpsertPurchaseProgress(model.NewPurchaseProgress{
				AccountID: a.ID, PurchaseEventID: pe.ID, DaysOffset: 3, TimeSpent: 120,
			})
			if err != nil {
				t.Fatalf("UpsertPurchaseProgress: %v", err)
			}
			if p.DaysOffset != 3 || p.TimeSpent != 120 || p.IsCompleted {
				t.Errorf("progress = %+v", p)
			}

			if _, err := s.UpdatePurchaseProgress(a.ID, pe.ID, storage.PurchaseProgressUpdate{IsCompleted: ptr(true)}); err != nil {
				t.Fatalf("UpdatePurchaseProgress: %v", err)
			}

			p, err = s.UpsertPurchaseProgress(model.NewPurchaseProgress{
				AccountID: a.ID, PurchaseEventID: pe.ID, DaysOffset: 5, TimeSpent: 90,
			})
			if err != nil {
				t.Fatalf("UpsertPurchaseProgress again: %v", err)
			}
			if p.DaysOffset != 5 || p.TimeSpent != 90 {
				t.Errorf("upsert did not replace schedule: %+v", p)
			}
			if !p.IsCompleted || p.CompletedAt == nil {
				t.Errorf("upsert must keep completion: %+v", p)
			}

			rows, err := s.ListPurchaseProgress(a.ID)
			if err != nil {
				t.Fatalf("ListPurchaseProgress: %v", err)
			}
			if len(rows) != 1 {
				t.Errorf("rows = %d, want 1", len(rows))
			}
		})

		t.Run("Purchase progress partial update", func(t *testing.T) {
			s := factory(t)
			g, a := fixture(t, s)
			pe := mustPurchase(t, s, g.ID, "starter")
			if _, err := s.UpdatePurchaseProgress(a.ID, pe.ID, storage.PurchaseProgressUpdate{TimeSpent: ptr(1)}); !errors.Is(err, storage.ErrNotFound) {
				t.Errorf("expected ErrNotFound, got: %v", err)
			}
			if _, err := s.UpsertPurchaseProgress(model.NewPurchaseProgress{
				AccountID: a.ID, PurchaseEventID: pe.ID, DaysOffset: 3, TimeSpent: 120,
			}); err != nil {
				t.Fatalf("UpsertPurchaseProgress: %v", err)
			}
			p, err := s.UpdatePurchaseProgress(a.ID, pe.ID, storage.PurchaseProgressUpdate{DaysOffset: ptr(9)})
			if err != nil {
				t.Fatalf("UpdatePurchaseProgress: %v", err)
			}
			if p.DaysOffset != 9 || p.TimeSpent != 120 || p.IsCompleted {
				t.Errorf("progress = %+v", p)
			}
			p, err = s.UpdatePurchaseProgress(a.ID, pe.ID, storage.PurchaseProgressUpdate{IsCompleted: ptr(false)})
			if err != nil {
				t.Fatalf("UpdatePurchaseProgress(false): %v", err)
			}
			if p.CompletedAt != nil {
				t.Errorf("completed_at = %v, want nil", p.CompletedAt)
			}
		})

		t.Run("Delete account removes progress", func(t *testing.T) {
			s := factory(t)
			g, a := fixture(t, s)
			l := mustLevel(t, s, g.ID, "lvl1", 0, 100)
			if _, err := s.EnsureLevelProgress(a.ID, l.ID); err != nil {
				t.Fatalf("EnsureLevelProgress: %v", err)
			}
			if err := s.DeleteAccount(a.ID); err != nil {
				t.Fatalf("DeleteAccount: %v", err)
			}
			rows, err := s.ListLevelProgress(a.ID)
			if err != nil {
				t.Fatalf("ListLevelProgress: %v", err)
			}
			if len(rows) != 0 {
				t.Errorf("progress survived account delete: %+v", rows)
			}
			if err := s.DeleteAccount(a.ID); !errors.Is(err, storage.ErrNotFound) {
				t.Errorf("second delete: expected ErrNotFound, got: %v", err)
			}
		})

		t.Run("Delete game cascades", func(t *testing.T) {
			s := factory(t)
			g, a := fixture(t, s)
			l := mustLevel(t, s, g.ID, "lvl1", 0, 100)
			pe := mustPurchase(t, s, g.ID, "starter")
			if _, err := s.EnsureLevelProgress(a.ID, l.ID); err != nil {
				t.Fatalf("EnsureLevelProgress: %v", err)
			}
			if _, err := s.UpsertPurchaseProgress(model.NewPurchaseProgress{
				AccountID: a.ID, PurchaseEventID: pe.ID, DaysOffset: 1, TimeSpent: 10,
			}); err != nil {
				t.Fatalf("UpsertPurchaseProgress: %v", err)
			}

			if err := s.DeleteGame(g.ID); err != nil {
				t.Fatalf("DeleteGame: %v", err)
			}
			if _, err := s.GetAccount(a.ID); !errors.Is(err, storage.ErrNotFound) {
				t.Errorf("account survived: %v", err)
			}
			if _, err := s.GetLevel(l.ID); !errors.Is(err, storage.ErrNotFound) {
				t.Errorf("level survived: %v", err)
			}
			if _, err := s.GetPurchaseEvent(pe.ID); !errors.Is(err, storage.ErrNotFound) {
				t.Errorf("purchase event survived: %v", err)
			}
			purch, err := s.ListPurchaseProgress(a.ID)
			if err != nil {
				t.Fatalf("ListPurchaseProgress: %v", err)
			}
			if len(purch) != 0 {
				t.Errorf("purchase progress survived: %+v", purch)
			}
		})

		t.Run("Delete level removes its progress", func(t *testing.T) {
			s := factory(t)
			g, a := fixture(t, s)
			l := mustLevel(t, s, g.ID, "lvl1", 0, 100)
			keep := mustLevel(t, s, g.ID, "lvl2", 1, 100)
			for _, id := range []int64{l.ID, keep.ID} {
				if _, err := s.EnsureLevelProgress(a.ID, id); err != nil {
					t.Fatalf("EnsureLevelProgress: %v", err)
				}
			}
			if err := s.DeleteLevel(l.ID); err != nil {
				t.Fatalf("DeleteLevel: %v", err)
			}
			rows, err := s.ListLevelProgress(a.ID)
			if err != nil {
				t.Fatalf("ListLevelProgress: %v", err)
			}
			if len(rows) != 1 || rows[0].LevelID != keep.ID {
				t.Errorf("rows = %+v", rows)
			}
		})
	})
}

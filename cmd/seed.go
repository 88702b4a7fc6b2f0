package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/chris-regnier/dailyctl/internal/model"
	"github.com/chris-regnier/dailyctl/internal/storage"
)

const seedTemplate = `POST /session HTTP/1.1
Host: api.example.com
Content-Type: application/json
Content-Length: 0

{"account":"{account_name}","game":{game_id},"event":"{event_token}","level":"{level_name}","day":{days_offset},"time_spent":{time_spent}}`

type seedLevel struct {
	token string
	name  string
	day   int
	time  int
}

type seedPurchase struct {
	token  string
	maxDay *int
	// day schedules the event for every seeded account; -1 leaves it unscheduled.
	day int
}

type seedAccount struct {
	name     string
	daysAgo  int
	startsAt string
}

type seedGame struct {
	name      string
	levels    []seedLevel
	purchases []seedPurchase
	accounts  []seedAccount
}

func intPtr(n int) *int { return &n }

var seedGames = []seedGame{
	{
		name: "Tower Siege",
		levels: []seedLevel{
			{"ts_tutorial", "Tutorial", 0, 25},
			{"ts_level_2", "Outpost", 1, 35},
			{"ts_level_3", "River Crossing", 3, 50},
			{"ts_level_5", "Citadel", 7, 80},
			{"ts_bonus", "Night Raid", 14, 120},
		},
		purchases: []seedPurchase{
			{"ts_starter_pack", nil, 2},
			{"ts_launch_offer", intPtr(7), 5},
			{"ts_season_pass", nil, -1},
		},
		accounts: []seedAccount{
			{"scout", 2, "09:00"},
			{"ranger", 5, "10:30"},
			{"warden", 10, "08:15:30"},
		},
	},
	{
		name: "Gem Cascade",
		levels: []seedLevel{
			{"gc_world_1", "Meadow", 0, 20},
			{"gc_world_2", "Caverns", 2, 40},
			{"gc_world_3", "Volcano", 6, 70},
		},
		purchases: []seedPurchase{
			{"gc_gem_bundle", nil, 1},
		},
		accounts: []seedAccount{
			{"sparkle", 1, "12:00"},
			{"facet", 6, "19:45"},
		},
	},
}

var seedReset bool

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create demo games, levels, purchase events and accounts",
	Long: `Populate storage with two demo games, their levels and purchase events,
and a few accounts started on recent days so that "dailyctl today" has
work to show. Fails when a demo game already exists unless --reset is set,
which deletes the demo games first.`,
	Example: `  dailyctl seed
  dailyctl seed --reset`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		exitOn(seedRun(os.Stdout, time.Now(), seedReset))
		return nil
	},
}

func seedRun(w io.Writer, now time.Time, reset bool) error {
	for _, sg := range seedGames {
		existing, err := store.GetGameByName(sg.name)
		switch {
		case err == nil && reset:
			if err := store.DeleteGame(existing.ID); err != nil {
				return err
			}
		case err == nil:
			return fmt.Errorf("%w: game %q (use --reset to recreate)", storage.ErrConflict, sg.name)
		case !errors.Is(err, storage.ErrNotFound):
			return err
		}
	}

	var levels, purchases, accounts int
	for _, sg := range seedGames {
		game, err := store.CreateGame(model.NewGame{Name: sg.name})
		if err != nil {
			return err
		}
		for _, l := range sg.levels {
			if _, err := store.CreateLevel(model.NewLevel{
				GameID: game.ID, EventToken: l.token, LevelName: l.name, DaysOffset: l.day, TimeSpent: l.time,
			}); err != nil {
				return err
			}
			levels++
		}

		var events []model.PurchaseEvent
		for _, p := range sg.purchases {
			e, err := store.CreatePurchaseEvent(model.NewPurchaseEvent{
				GameID: game.ID, EventToken: p.token, IsRestricted: p.maxDay != nil, MaxDaysOffset: p.maxDay,
			})
			if err != nil {
				return err
			}
			events = append(events, e)
			purchases++
		}

		for _, sa := range sg.accounts {
			a, err := store.CreateAccount(model.NewAccount{
				GameID:          game.ID,
				Name:            sa.name,
				StartDate:       now.AddDate(0, 0, -sa.daysAgo).Format(dateLayout),
				StartTime:       sa.startsAt,
				RequestTemplate: seedTemplate,
			})
			if err != nil {
				return err
			}
			accounts++
			for i, p := range sg.purchases {
				if p.day < 0 {
					continue
				}
				if _, err := schedulePurchase(a.ID, events[i].ID, p.day, nil); err != nil {
					return err
				}
			}
		}
	}

	fmt.Fprintf(w, "Seeded %d games, %d levels, %d purchase events and %d accounts.\n",
		len(seedGames), levels, purchases, accounts)
	return nil
}

func init() {
	seedCmd.Flags().BoolVar(&seedReset, "reset", false, "delete the demo games before seeding")
	rootCmd.AddCommand(seedCmd)
}

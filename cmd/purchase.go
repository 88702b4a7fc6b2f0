package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/chris-regnier/dailyctl/internal/model"
	"github.com/chris-regnier/dailyctl/internal/schedule"
	"github.com/chris-regnier/dailyctl/internal/storage"
	"github.com/chris-regnier/dailyctl/internal/ui"
)

var (
	purchaseToken      string
	purchaseMaxDay     int
	purchaseUnlimited  bool
	purchaseDay        int
	purchaseTime       int
	purchaseRestricted bool
)

var purchaseCmd = &cobra.Command{
	Use:   "purchase",
	Short: "Manage purchase events and their per-account schedule",
	Long: `Purchase events are a game's catalog of purchase milestones. Each account
schedules the ones it needs on a day of its own, with its own time spent.
A restricted event must be scheduled before its max day.`,
}

var purchaseListCmd = &cobra.Command{
	Use:   "list <game-id>",
	Short: "List a game's purchase events",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		exitOn(purchaseListRun(os.Stdout, args[0]))
		return nil
	},
}

var purchaseCreateCmd = &cobra.Command{
	Use:   "create <game-id>",
	Short: "Create a purchase event",
	Example: `  dailyctl purchase create 1 --token starter_pack
  dailyctl purchase create 1 --token launch_offer --max-day 7`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in := model.NewPurchaseEvent{EventToken: purchaseToken}
		if cmd.Flags().Changed("max-day") {
			in.IsRestricted = true
			in.MaxDaysOffset = &purchaseMaxDay
		}
		exitOn(purchaseCreateRun(os.Stdout, args[0], in))
		return nil
	},
}

var purchaseUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update a purchase event",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var u storage.PurchaseEventUpdate
		flags := cmd.Flags()
		if flags.Changed("token") {
			u.EventToken = &purchaseToken
		}
		if flags.Changed("max-day") {
			u.MaxDaysOffset = &purchaseMaxDay
			restricted := true
			u.IsRestricted = &restricted
		}
		if flags.Changed("restricted") {
			u.IsRestricted = &purchaseRestricted
		}
		if purchaseUnlimited {
			restricted := false
			u.IsRestricted = &restricted
			u.ClearMaxDaysOffset = true
		}
		exitOn(purchaseUpdateRun(os.Stdout, args[0], u))
		return nil
	},
}

var purchaseDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a purchase event and every account's schedule for it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		exitOn(purchaseDeleteRun(os.Stdout, args[0]))
		return nil
	},
}

var purchaseScheduleCmd = &cobra.Command{
	Use:   "schedule <account-id> <event-id>",
	Short: "Schedule a purchase event for an account",
	Long: `Schedule a purchase event on a day offset for one account. Scheduling
again moves it. Without --time, the time spent is interpolated from the
game's levels around that day.`,
	Example: `  dailyctl purchase schedule 3 2 --day 5
  dailyctl purchase schedule 3 2 --day 5 --time 40`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		timeSet := cmd.Flags().Changed("time")
		exitOn(purchaseScheduleRun(os.Stdout, args[0], args[1], purchaseDay, purchaseTime, timeSet))
		return nil
	},
}

var purchaseScheduledCmd = &cobra.Command{
	Use:   "scheduled <account-id>",
	Short: "List an account's scheduled purchases",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		exitOn(purchaseScheduledRun(os.Stdout, args[0]))
		return nil
	},
}

var purchaseCompleteCmd = &cobra.Command{
	Use:   "complete <account-id> <event-id>",
	Short: "Mark a scheduled purchase completed",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		exitOn(purchaseCompleteRun(os.Stdout, args[0], args[1], !undo))
		return nil
	},
}

func purchaseListRun(w io.Writer, gameArg string) error {
	gameID, err := parseID("game", gameArg)
	if err != nil {
		return err
	}
	events, err := store.ListPurchaseEventsByGame(gameID)
	if err != nil {
		return err
	}
	return output(w, events, func(w io.Writer) { ui.FormatPurchaseEventList(w, events) })
}

func purchaseCreateRun(w io.Writer, gameArg string, in model.NewPurchaseEvent) error {
	gameID, err := parseID("game", gameArg)
	if err != nil {
		return err
	}
	in.GameID = gameID
	e, err := store.CreatePurchaseEvent(in)
	if err != nil {
		return err
	}
	return output(w, e, func(w io.Writer) { ui.FormatCreated(w, "purchase event", e.ID, e.EventToken) })
}

func purchaseUpdateRun(w io.Writer, idArg string, u storage.PurchaseEventUpdate) error {
	id, err := parseID("purchase event", idArg)
	if err != nil {
		return err
	}
	e, err := store.UpdatePurchaseEvent(id, u)
	if err != nil {
		return err
	}
	invalidateGame(e.GameID)
	return output(w, e, func(w io.Writer) { ui.FormatUpdated(w, "purchase event", e.ID) })
}

func purchaseDeleteRun(w io.Writer, idArg string) error {
	id, err := parseID("purchase event", idArg)
	if err != nil {
		return err
	}
	e, err := store.GetPurchaseEvent(id)
	if err != nil {
		return err
	}
	if err := store.DeletePurchaseEvent(id); err != nil {
		return err
	}
	invalidateGame(e.GameID)
	return output(w, ui.DeleteResult{Kind: "purchase event", ID: id, Deleted: true}, func(w io.Writer) {
		ui.FormatDeleted(w, "purchase event", id)
	})
}

// schedulePurchase validates the day against the event's restriction and
// stores the account's schedule. A nil timeSpent interpolates one from the
// game's levels.
func schedulePurchase(accountID, eventID int64, day int, timeSpent *int) (model.PurchaseProgress, error) {
	account, err := store.GetAccount(accountID)
	if err != nil {
		return model.PurchaseProgress{}, err
	}
	event, err := store.GetPurchaseEvent(eventID)
	if err != nil {
		return model.PurchaseProgress{}, err
	}
	if event.GameID != account.GameID {
		return model.PurchaseProgress{}, fmt.Errorf("%w: purchase event %d is not part of account %s's game",
			storage.ErrValidation, eventID, account.Name)
	}
	if day < 0 {
		return model.PurchaseProgress{}, fmt.Errorf("%w: day must be >= 0", storage.ErrValidation)
	}
	if !event.AllowsDay(day) {
		return model.PurchaseProgress{}, fmt.Errorf("%w: %s must be scheduled before day %d",
			storage.ErrValidation, event.EventToken, *event.MaxDaysOffset)
	}

	spent := 0
	if timeSpent != nil {
		spent = *timeSpent
	} else {
		levels, err := store.ListLevelsByGame(account.GameID)
		if err != nil {
			return model.PurchaseProgress{}, err
		}
		spent = schedule.InterpolateTimeSpent(day, levels)
	}

	p, err := store.UpsertPurchaseProgress(model.NewPurchaseProgress{
		AccountID:       accountID,
		PurchaseEventID: eventID,
		DaysOffset:      day,
		TimeSpent:       spent,
	})
	if err != nil {
		return model.PurchaseProgress{}, err
	}
	_ = planner.Invalidate(rootContext(), accountID)
	return p, nil
}

func purchaseScheduleRun(w io.Writer, accountArg, eventArg string, day, timeSpent int, timeSet bool) error {
	accountID, err := parseID("account", accountArg)
	if err != nil {
		return err
	}
	eventID, err := parseID("purchase event", eventArg)
	if err != nil {
		return err
	}
	var spent *int
	if timeSet {
		spent = &timeSpent
	}
	p, err := schedulePurchase(accountID, eventID, day, spent)
	if err != nil {
		return err
	}
	return output(w, p, func(w io.Writer) {
		fmt.Fprintf(w, "Scheduled purchase event %d for account %d on day %d (time %d).\n",
			p.PurchaseEventID, p.AccountID, p.DaysOffset, p.TimeSpent)
	})
}

func purchaseScheduledRun(w io.Writer, accountArg string) error {
	accountID, err := parseID("account", accountArg)
	if err != nil {
		return err
	}
	account, err := store.GetAccount(accountID)
	if err != nil {
		return err
	}
	progress, err := store.ListPurchaseProgress(accountID)
	if err != nil {
		return err
	}
	events, err := store.ListPurchaseEventsByGame(account.GameID)
	if err != nil {
		return err
	}
	return output(w, progress, func(w io.Writer) { ui.FormatPurchaseSchedule(w, progress, events) })
}

func purchaseCompleteRun(w io.Writer, accountArg, eventArg string, completed bool) error {
	accountID, err := parseID("account", accountArg)
	if err != nil {
		return err
	}
	eventID, err := parseID("purchase event", eventArg)
	if err != nil {
		return err
	}
	p, err := planner.CompletePurchase(rootContext(), store, accountID, eventID, completed)
	if err != nil {
		return err
	}
	return output(w, p, func(w io.Writer) {
		fmt.Fprintf(w, "Purchase event %d %s for account %d.\n", eventID, doneWord(completed), accountID)
	})
}

func init() {
	for _, c := range []*cobra.Command{purchaseCreateCmd, purchaseUpdateCmd} {
		c.Flags().StringVar(&purchaseToken, "token", "", "event token")
		c.Flags().IntVar(&purchaseMaxDay, "max-day", 0, "restrict to days before this offset")
	}
	_ = purchaseCreateCmd.MarkFlagRequired("token")
	purchaseUpdateCmd.Flags().BoolVar(&purchaseRestricted, "restricted", false, "enforce the max day")
	purchaseUpdateCmd.Flags().BoolVar(&purchaseUnlimited, "unlimited", false, "drop the restriction and max day")

	purchaseScheduleCmd.Flags().IntVar(&purchaseDay, "day", 0, "days after the account start date")
	purchaseScheduleCmd.Flags().IntVar(&purchaseTime, "time", 0, "time spent (default: interpolated from levels)")
	_ = purchaseScheduleCmd.MarkFlagRequired("day")

	purchaseCompleteCmd.Flags().BoolVar(&undo, "undo", false, "mark not completed")

	purchaseCmd.AddCommand(purchaseListCmd, purchaseCreateCmd, purchaseUpdateCmd, purchaseDeleteCmd,
		purchaseScheduleCmd, purchaseScheduledCmd, purchaseCompleteCmd)
	rootCmd.AddCommand(purchaseCmd)
}

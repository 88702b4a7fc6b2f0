package cmd

import (
	"fmt"
	"io"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/chris-regnier/dailyctl/internal/model"
	"github.com/chris-regnier/dailyctl/internal/schedule"
	"github.com/chris-regnier/dailyctl/internal/storage"
	"github.com/chris-regnier/dailyctl/internal/ui"
)

var (
	levelToken  string
	levelName   string
	levelDay    int
	levelTime   int
	levelBonus  bool
	levelDryRun bool
	undo        bool
)

var levelCmd = &cobra.Command{
	Use:   "level",
	Short: "Manage a game's levels",
	Long: `Manage a game's levels. A level is due days_offset days after an
account's start date. A level named "-" renders only a session request.`,
}

var levelListCmd = &cobra.Command{
	Use:   "list <game-id>",
	Short: "List a game's levels in schedule order",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		exitOn(levelListRun(os.Stdout, args[0]))
		return nil
	},
}

var levelCreateCmd = &cobra.Command{
	Use:     "create <game-id>",
	Short:   "Create a level",
	Example: `  dailyctl level create 1 --token lvl3 --name "Level 3" --day 2 --time 45`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		exitOn(levelCreateRun(os.Stdout, args[0]))
		return nil
	},
}

var levelUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update a level",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var u storage.LevelUpdate
		flags := cmd.Flags()
		if flags.Changed("token") {
			u.EventToken = &levelToken
		}
		if flags.Changed("name") {
			u.LevelName = &levelName
		}
		if flags.Changed("day") {
			u.DaysOffset = &levelDay
		}
		if flags.Changed("time") {
			u.TimeSpent = &levelTime
		}
		if flags.Changed("bonus") {
			u.IsBonus = &levelBonus
		}
		exitOn(levelUpdateRun(os.Stdout, args[0], u))
		return nil
	},
}

var levelDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a level and its progress rows",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		exitOn(levelDeleteRun(os.Stdout, args[0]))
		return nil
	},
}

var levelFillCmd = &cobra.Command{
	Use:   "fill <game-id>",
	Short: "Add session-only levels for the days between levels",
	Long: `Create a session-only level for every day that falls strictly between
two levels more than a day apart. Each new level is named "-", takes the
token of the following level with a _day<N> suffix, and an interpolated
time spent.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		exitOn(levelFillRun(os.Stdout, args[0], levelDryRun))
		return nil
	},
}

var levelCompleteCmd = &cobra.Command{
	Use:   "complete <account-id> <level-id>",
	Short: "Mark a level completed for an account",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		exitOn(levelCompleteRun(os.Stdout, args[0], args[1], !undo))
		return nil
	},
}

func levelListRun(w io.Writer, gameArg string) error {
	gameID, err := parseID("game", gameArg)
	if err != nil {
		return err
	}
	if _, err := store.GetGame(gameID); err != nil {
		return err
	}
	levels, err := store.ListLevelsByGame(gameID)
	if err != nil {
		return err
	}
	return output(w, levels, func(w io.Writer) { ui.FormatLevelList(w, levels) })
}

func levelCreateRun(w io.Writer, gameArg string) error {
	gameID, err := parseID("game", gameArg)
	if err != nil {
		return err
	}
	l, err := store.CreateLevel(model.NewLevel{
		GameID:     gameID,
		EventToken: levelToken,
		LevelName:  levelName,
		DaysOffset: levelDay,
		TimeSpent:  levelTime,
		IsBonus:    levelBonus,
	})
	if err != nil {
		return err
	}
	invalidateGame(l.GameID)
	return output(w, l, func(w io.Writer) { ui.FormatCreated(w, "level", l.ID, l.EventToken) })
}

func levelUpdateRun(w io.Writer, idArg string, u storage.LevelUpdate) error {
	id, err := parseID("level", idArg)
	if err != nil {
		return err
	}
	l, err := store.UpdateLevel(id, u)
	if err != nil {
		return err
	}
	invalidateGame(l.GameID)
	return output(w, l, func(w io.Writer) { ui.FormatUpdated(w, "level", l.ID) })
}

func levelDeleteRun(w io.Writer, idArg string) error {
	id, err := parseID("level", idArg)
	if err != nil {
		return err
	}
	l, err := store.GetLevel(id)
	if err != nil {
		return err
	}
	if err := store.DeleteLevel(id); err != nil {
		return err
	}
	invalidateGame(l.GameID)
	return output(w, ui.DeleteResult{Kind: "level", ID: id, Deleted: true}, func(w io.Writer) {
		ui.FormatDeleted(w, "level", id)
	})
}

func levelFillRun(w io.Writer, gameArg string, dryRun bool) error {
	gameID, err := parseID("game", gameArg)
	if err != nil {
		return err
	}
	levels, err := store.ListLevelsByGame(gameID)
	if err != nil {
		return err
	}

	missing := schedule.FillGaps(levels)
	created := make([]model.Level, 0, len(missing))
	for _, in := range missing {
		if dryRun {
			created = append(created, model.Level{
				GameID: in.GameID, EventToken: in.EventToken, LevelName: in.LevelName,
				DaysOffset: in.DaysOffset, TimeSpent: in.TimeSpent,
			})
			continue
		}
		l, err := store.CreateLevel(in)
		if err != nil {
			return fmt.Errorf("creating %s: %w", in.EventToken, err)
		}
		created = append(created, l)
	}
	if !dryRun && len(created) > 0 {
		invalidateGame(gameID)
	}
	return output(w, created, func(w io.Writer) {
		verb := "Created"
		if dryRun {
			verb = "Would create"
		}
		fmt.Fprintf(w, "%s %d level(s).\n", verb, len(created))
		if len(created) > 0 {
			ui.FormatLevelList(w, created)
		}
	})
}

func levelCompleteRun(w io.Writer, accountArg, levelArg string, completed bool) error {
	accountID, err := parseID("account", accountArg)
	if err != nil {
		return err
	}
	levelID, err := parseID("level", levelArg)
	if err != nil {
		return err
	}
	p, err := planner.CompleteLevel(rootContext(), store, accountID, levelID, completed)
	if err != nil {
		return err
	}
	return output(w, p, func(w io.Writer) {
		fmt.Fprintf(w, "Level %d %s for account %d.\n", levelID, doneWord(completed), accountID)
	})
}

func doneWord(completed bool) string {
	if completed {
		return "completed"
	}
	return "reopened"
}

// invalidateGame drops cached requests for every account of a game after
// its levels or purchase events change.
func invalidateGame(gameID int64) {
	accounts, err := store.ListAccounts(gameID)
	if err != nil {
		log.WithError(err).Warn("listing accounts for cache invalidation")
		return
	}
	for _, a := range accounts {
		if err := planner.Invalidate(rootContext(), a.ID); err != nil {
			log.WithError(err).WithField("account", a.ID).Warn("invalidating cached requests")
		}
	}
}

func init() {
	for _, c := range []*cobra.Command{levelCreateCmd, levelUpdateCmd} {
		c.Flags().StringVar(&levelToken, "token", "", "event token")
		c.Flags().StringVar(&levelName, "name", "", `level name ("-" for session only)`)
		c.Flags().IntVar(&levelDay, "day", 0, "days after the account start date")
		c.Flags().IntVar(&levelTime, "time", 0, "time spent")
		c.Flags().BoolVar(&levelBonus, "bonus", false, "bonus level")
	}
	_ = levelCreateCmd.MarkFlagRequired("token")
	_ = levelCreateCmd.MarkFlagRequired("name")

	levelFillCmd.Flags().BoolVar(&levelDryRun, "dry-run", false, "list the levels without creating them")
	levelCompleteCmd.Flags().BoolVar(&undo, "undo", false, "mark not completed")

	levelCmd.AddCommand(levelListCmd, levelCreateCmd, levelUpdateCmd, levelDeleteCmd, levelFillCmd, levelCompleteCmd)
	rootCmd.AddCommand(levelCmd)
}

package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/chris-regnier/dailyctl/internal/model"
	"github.com/chris-regnier/dailyctl/internal/storage"
	"github.com/chris-regnier/dailyctl/internal/ui"
)

var forceDelete bool

var gameCmd = &cobra.Command{
	Use:   "game",
	Short: "Manage games",
}

var gameListCmd = &cobra.Command{
	Use:   "list",
	Short: "List games",
	RunE: func(cmd *cobra.Command, args []string) error {
		exitOn(gameListRun(os.Stdout))
		return nil
	},
}

var gameCreateCmd = &cobra.Command{
	Use:     "create <name>",
	Short:   "Create a game",
	Example: `  dailyctl game create "Kingdom Rush"`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		exitOn(gameCreateRun(os.Stdout, args[0]))
		return nil
	},
}

var gameRenameCmd = &cobra.Command{
	Use:   "rename <id> <name>",
	Short: "Rename a game",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		exitOn(gameRenameRun(os.Stdout, args[0], args[1]))
		return nil
	},
}

var gameDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a game with its accounts, levels and purchase events",
	Long:  "Permanently delete a game and everything under it. Requires confirmation unless --force is used.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID("game", args[0])
		exitOn(err)
		if !forceDelete {
			ok, err := ui.ConfirmDelete("game", id, "accounts, levels and purchase events", ui.ResolveTheme(appConfig.Theme))
			exitOn(err)
			if !ok {
				fmt.Fprintln(os.Stdout, "Cancelled.")
				return nil
			}
		}
		exitOn(gameDeleteRun(os.Stdout, id))
		return nil
	},
}

func gameListRun(w io.Writer) error {
	games, err := store.ListGames()
	if err != nil {
		return err
	}
	return output(w, games, func(w io.Writer) { ui.FormatGameList(w, games) })
}

func gameCreateRun(w io.Writer, name string) error {
	g, err := store.CreateGame(model.NewGame{Name: name})
	if err != nil {
		return err
	}
	return output(w, g, func(w io.Writer) { ui.FormatCreated(w, "game", g.ID, g.Name) })
}

func gameRenameRun(w io.Writer, idArg, name string) error {
	id, err := parseID("game", idArg)
	if err != nil {
		return err
	}
	g, err := store.UpdateGame(id, storage.GameUpdate{Name: &name})
	if err != nil {
		return err
	}
	return output(w, g, func(w io.Writer) { ui.FormatUpdated(w, "game", g.ID) })
}

func gameDeleteRun(w io.Writer, id int64) error {
	// The cascade removes the game's accounts, so their cached plans go first.
	invalidateGame(id)
	if err := store.DeleteGame(id); err != nil {
		return err
	}
	return output(w, ui.DeleteResult{Kind: "game", ID: id, Deleted: true}, func(w io.Writer) {
		ui.FormatDeleted(w, "game", id)
	})
}

func init() {
	gameDeleteCmd.Flags().BoolVar(&forceDelete, "force", false, "skip confirmation prompt")
	gameCmd.AddCommand(gameListCmd, gameCreateCmd, gameRenameCmd, gameDeleteCmd)
	rootCmd.AddCommand(gameCmd)
}

package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/chris-regnier/dailyctl/internal/editor"
	"github.com/chris-regnier/dailyctl/internal/model"
	"github.com/chris-regnier/dailyctl/internal/storage"
	"github.com/chris-regnier/dailyctl/internal/template"
	"github.com/chris-regnier/dailyctl/internal/ui"
)

var (
	accountGameID       string
	accountName         string
	accountStartDate    string
	accountStartTime    string
	accountTemplateFile string
)

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Manage accounts and their request templates",
}

var accountListCmd = &cobra.Command{
	Use:   "list",
	Short: "List accounts",
	Example: `  dailyctl account list
  dailyctl account list --game 2`,
	RunE: func(cmd *cobra.Command, args []string) error {
		exitOn(accountListRun(os.Stdout, accountGameID))
		return nil
	},
}

var accountShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show an account and its request template",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		exitOn(accountShowRun(os.Stdout, args[0]))
		return nil
	},
}

var accountCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an account",
	Long: `Create an account for a game.

The start date is YYYY-MM-DD or the year-less D-Mon form (14-Dec), which
resolves against the current year. The request template is read from
--template-file ("-" for stdin).`,
	Example: `  dailyctl account create --game 1 --name alice --start-date 2025-06-01 --start-time 09:30
  cat session.http | dailyctl account create --game 1 --name bob --start-date 14-Dec --start-time 08:00 --template-file -`,
	RunE: func(cmd *cobra.Command, args []string) error {
		exitOn(accountCreateRun(os.Stdout, os.Stdin))
		return nil
	},
}

var accountUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update an account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var u storage.AccountUpdate
		if cmd.Flags().Changed("name") {
			u.Name = &accountName
		}
		if cmd.Flags().Changed("start-date") {
			u.StartDate = &accountStartDate
		}
		if cmd.Flags().Changed("start-time") {
			u.StartTime = &accountStartTime
		}
		if cmd.Flags().Changed("template-file") {
			data, err := readInput(accountTemplateFile, os.Stdin)
			exitOn(err)
			tmpl := string(data)
			u.RequestTemplate = &tmpl
		}
		exitOn(accountUpdateRun(os.Stdout, args[0], u))
		return nil
	},
}

var accountDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an account and its progress",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID("account", args[0])
		exitOn(err)
		if !forceDelete {
			ok, err := ui.ConfirmDelete("account", id, "progress", ui.ResolveTheme(appConfig.Theme))
			exitOn(err)
			if !ok {
				fmt.Fprintln(os.Stdout, "Cancelled.")
				return nil
			}
		}
		exitOn(accountDeleteRun(os.Stdout, id))
		return nil
	},
}

var accountImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Create or update an account from a template file",
	Long: `Import a request template file. YAML front matter names the account
and game; the rest of the file is the request template.

  ---
  account: alice
  game: Kingdom Rush
  start_date: 2025-06-01
  start_time: "09:30"
  ---
  POST /session HTTP/1.1
  ...

The game is created when it does not exist. An existing account keeps any
start date or time the file leaves out.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		exitOn(accountImportRun(os.Stdout, args[0], os.Stdin))
		return nil
	},
}

var accountExportCmd = &cobra.Command{
	Use:   "export <id>",
	Short: "Print an account as an importable template file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		exitOn(accountExportRun(os.Stdout, args[0]))
		return nil
	},
}

var accountEditCmd = &cobra.Command{
	Use:   "edit-template <id>",
	Short: "Edit an account's request template in your editor",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		exitOn(accountEditRun(os.Stdout, args[0], editor.ResolveEditor(appConfig.Editor)))
		return nil
	},
}

func accountListRun(w io.Writer, gameArg string) error {
	var gameID int64
	if gameArg != "" {
		id, err := parseID("game", gameArg)
		if err != nil {
			return err
		}
		gameID = id
	}
	accounts, err := store.ListAccounts(gameID)
	if err != nil {
		return err
	}
	return output(w, accounts, func(w io.Writer) { ui.FormatAccountList(w, accounts) })
}

func accountShowRun(w io.Writer, idArg string) error {
	id, err := parseID("account", idArg)
	if err != nil {
		return err
	}
	a, err := store.GetAccount(id)
	if err != nil {
		return err
	}
	return output(w, a, func(w io.Writer) {
		ui.FormatAccountFull(w, a)
		if unknown := template.Unknown(a.RequestTemplate); len(unknown) > 0 {
			fmt.Fprintf(w, "\nwarning: unrecognized placeholders left as is: %v\n", unknown)
		}
	})
}

func accountCreateRun(w io.Writer, stdin io.Reader) error {
	gameID, err := parseID("game", accountGameID)
	if err != nil {
		return err
	}
	in := model.NewAccount{
		GameID:    gameID,
		Name:      accountName,
		StartDate: accountStartDate,
		StartTime: accountStartTime,
	}
	if accountTemplateFile != "" {
		data, err := readInput(accountTemplateFile, stdin)
		if err != nil {
			return err
		}
		in.RequestTemplate = string(data)
	}
	a, err := store.CreateAccount(in)
	if err != nil {
		return err
	}
	return output(w, a, func(w io.Writer) { ui.FormatCreated(w, "account", a.ID, a.Name) })
}

func accountUpdateRun(w io.Writer, idArg string, u storage.AccountUpdate) error {
	id, err := parseID("account", idArg)
	if err != nil {
		return err
	}
	a, err := store.UpdateAccount(id, u)
	if err != nil {
		return err
	}
	if err := planner.Invalidate(rootContext(), a.ID); err != nil {
		log.WithError(err).Warn("invalidating cached requests")
	}
	return output(w, a, func(w io.Writer) { ui.FormatUpdated(w, "account", a.ID) })
}

func accountDeleteRun(w io.Writer, id int64) error {
	if err := store.DeleteAccount(id); err != nil {
		return err
	}
	_ = planner.Invalidate(rootContext(), id)
	return output(w, ui.DeleteResult{Kind: "account", ID: id, Deleted: true}, func(w io.Writer) {
		ui.FormatDeleted(w, "account", id)
	})
}

// applyTemplateFile creates or updates the account a template file names.
func applyTemplateFile(f template.File) (model.Account, bool, error) {
	game, err := store.GetGameByName(f.Game)
	if errors.Is(err, storage.ErrNotFound) {
		game, err = store.CreateGame(model.NewGame{Name: f.Game})
	}
	if err != nil {
		return model.Account{}, false, err
	}

	existing, err := store.GetAccountByName(game.ID, f.Account)
	if errors.Is(err, storage.ErrNotFound) {
		a, err := store.CreateAccount(model.NewAccount{
			GameID:          game.ID,
			Name:            f.Account,
			StartDate:       f.StartDate,
			StartTime:       f.StartTime,
			RequestTemplate: f.Template,
		})
		return a, true, err
	}
	if err != nil {
		return model.Account{}, false, err
	}

	u := storage.AccountUpdate{RequestTemplate: &f.Template}
	if f.StartDate != "" {
		u.StartDate = &f.StartDate
	}
	if f.StartTime != "" {
		u.StartTime = &f.StartTime
	}
	a, err := store.UpdateAccount(existing.ID, u)
	if err != nil {
		return model.Account{}, false, err
	}
	if err := planner.Invalidate(rootContext(), a.ID); err != nil {
		log.WithError(err).Warn("invalidating cached requests")
	}
	return a, false, nil
}

func accountImportRun(w io.Writer, path string, stdin io.Reader) error {
	data, err := readInput(path, stdin)
	if err != nil {
		return err
	}
	f, err := template.ParseFile(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	a, created, err := applyTemplateFile(f)
	if err != nil {
		return err
	}
	return output(w, a, func(w io.Writer) {
		if created {
			ui.FormatCreated(w, "account", a.ID, a.Name)
		} else {
			ui.FormatUpdated(w, "account", a.ID)
		}
	})
}

// accountFile builds the template file form of an account.
func accountFile(a model.Account) (template.File, error) {
	game, err := store.GetGame(a.GameID)
	if err != nil {
		return template.File{}, err
	}
	return template.File{
		Account:   a.Name,
		Game:      game.Name,
		StartDate: a.StartDate,
		StartTime: a.StartTime,
		Template:  a.RequestTemplate,
	}, nil
}

func accountExportRun(w io.Writer, idArg string) error {
	id, err := parseID("account", idArg)
	if err != nil {
		return err
	}
	a, err := store.GetAccount(id)
	if err != nil {
		return err
	}
	f, err := accountFile(a)
	if err != nil {
		return err
	}
	_, err = w.Write(f.Marshal())
	return err
}

func accountEditRun(w io.Writer, idArg, editorCmd string) error {
	id, err := parseID("account", idArg)
	if err != nil {
		return err
	}
	a, err := store.GetAccount(id)
	if err != nil {
		return err
	}
	f, err := accountFile(a)
	if err != nil {
		return err
	}
	edited, changed, err := editor.EditTemplate(editorCmd, f)
	if err != nil {
		return err
	}
	if !changed {
		fmt.Fprintf(w, "No changes for account %d.\n", a.ID)
		return nil
	}
	if edited.Game != f.Game {
		return fmt.Errorf("%w: moving an account to another game is not supported", errUsage)
	}
	if edited.Account != f.Account {
		if _, err := store.UpdateAccount(a.ID, storage.AccountUpdate{Name: &edited.Account}); err != nil {
			return err
		}
	}
	updated, _, err := applyTemplateFile(edited)
	if err != nil {
		return err
	}
	return output(w, updated, func(w io.Writer) { ui.FormatUpdated(w, "account", updated.ID) })
}

func init() {
	accountListCmd.Flags().StringVar(&accountGameID, "game", "", "only accounts of this game ID")

	accountCreateCmd.Flags().StringVar(&accountGameID, "game", "", "game ID")
	for _, c := range []*cobra.Command{accountCreateCmd, accountUpdateCmd} {
		c.Flags().StringVar(&accountName, "name", "", "account name")
		c.Flags().StringVar(&accountStartDate, "start-date", "", "start date (YYYY-MM-DD or D-Mon)")
		c.Flags().StringVar(&accountStartTime, "start-time", "", "start time (HH:MM or HH:MM:SS)")
		c.Flags().StringVar(&accountTemplateFile, "template-file", "", "request template file, - for stdin")
	}
	_ = accountCreateCmd.MarkFlagRequired("game")
	_ = accountCreateCmd.MarkFlagRequired("name")

	accountDeleteCmd.Flags().BoolVar(&forceDelete, "force", false, "skip confirmation prompt")

	accountCmd.AddCommand(accountListCmd, accountShowCmd, accountCreateCmd, accountUpdateCmd,
		accountDeleteCmd, accountImportCmd, accountExportCmd, accountEditCmd)
	rootCmd.AddCommand(accountCmd)
}

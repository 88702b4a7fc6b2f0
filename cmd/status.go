package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/template"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/chris-regnier/dailyctl/internal/shell"
)

// statusData holds the template data for status formatting.
type statusData struct {
	Icon        string
	Pending     int
	AccountsDue int
	Backend     string
	HasPending  bool
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show today's pending request count for the shell prompt",
	Long: `Show how many requests are still due today, for shell prompt integration.

Reads from the prompt cache when fresh and plans the day when stale.

Use --env to output shell environment variable assignments.
Use --refresh to force a cache refresh.
Use --format with a Go template for custom output.`,
	Example: `  dailyctl status
  dailyctl status --env
  dailyctl status --refresh
  dailyctl status --format "{{.Icon}} {{.Pending}}/{{.AccountsDue}}"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		envFlag, _ := cmd.Flags().GetBool("env")
		refreshFlag, _ := cmd.Flags().GetBool("refresh")
		formatFlag, _ := cmd.Flags().GetString("format")

		c, err := promptStatus(refreshFlag, time.Now())
		exitOn(err)
		data := buildStatusData(c)

		switch {
		case envFlag:
			writeStatusEnv(os.Stdout, data)
		case formatFlag != "":
			exitOn(writeStatusTemplate(os.Stdout, data, formatFlag))
		default:
			writeStatusDefault(os.Stdout, data)
		}
		return nil
	},
}

// promptStatus returns the cached prompt status, recomputing it when stale.
func promptStatus(refresh bool, now time.Time) (*shell.PromptCache, error) {
	ttl, err := time.ParseDuration(appConfig.Shell.CacheTTL)
	if err != nil {
		ttl = 5 * time.Minute
	}

	c := shell.ReadCache(appConfig.DataDir)
	if !refresh && c.FreshAt(now, ttl) {
		return c, nil
	}

	date := now.Format(dateLayout)
	pending, accountsDue, err := shell.ComputeStatus(rootContext(), planner, date)
	if err != nil {
		return nil, err
	}
	c = &shell.PromptCache{
		Pending:        pending,
		AccountsDue:    accountsDue,
		TodayDate:      date,
		StorageBackend: appConfig.Storage,
		UpdatedAt:      now,
	}
	if err := shell.WriteCache(appConfig.DataDir, c); err != nil {
		log.WithError(err).Warn("could not write prompt cache")
	}
	return c, nil
}

func buildStatusData(c *shell.PromptCache) statusData {
	icon := appConfig.Shell.ClearIcon
	if c.Pending > 0 {
		icon = appConfig.Shell.DueIcon
	}
	return statusData{
		Icon:        icon,
		Pending:     c.Pending,
		AccountsDue: c.AccountsDue,
		Backend:     c.StorageBackend,
		HasPending:  c.Pending > 0,
	}
}

func writeStatusEnv(w io.Writer, data statusData) {
	fmt.Fprintf(w, "export DAILYCTL_ICON=%q\n", data.Icon)
	fmt.Fprintf(w, "export DAILYCTL_PENDING=%q\n", fmt.Sprint(data.Pending))
	fmt.Fprintf(w, "export DAILYCTL_ACCOUNTS_DUE=%q\n", fmt.Sprint(data.AccountsDue))
	if data.Backend != "" {
		fmt.Fprintf(w, "export DAILYCTL_BACKEND=%q\n", data.Backend)
	}
}

func writeStatusTemplate(w io.Writer, data statusData, format string) error {
	tmpl, err := template.New("status").Parse(format)
	if err != nil {
		return fmt.Errorf("%w: invalid format template: %v", errUsage, err)
	}
	if err := tmpl.Execute(w, data); err != nil {
		return fmt.Errorf("executing format template: %w", err)
	}
	fmt.Fprintln(w)
	return nil
}

func writeStatusDefault(w io.Writer, data statusData) {
	parts := []string{data.Icon}
	if data.HasPending {
		parts[0] = fmt.Sprintf("%s %d", data.Icon, data.Pending)
	}
	if appConfig.Shell.ShowAccounts && data.HasPending {
		parts = append(parts, fmt.Sprintf("(%d accounts)", data.AccountsDue))
	}
	if appConfig.Shell.ShowBackend && data.Backend != "" {
		parts = append(parts, data.Backend)
	}
	fmt.Fprintln(w, strings.Join(parts, " "))
}

func init() {
	statusCmd.Flags().Bool("env", false, "output shell environment variable assignments")
	statusCmd.Flags().Bool("refresh", false, "force cache refresh")
	statusCmd.Flags().String("format", "", "Go template format string")
	rootCmd.AddCommand(statusCmd)
}

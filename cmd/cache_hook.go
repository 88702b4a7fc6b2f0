package cmd

import (
	"github.com/spf13/cobra"

	"github.com/chris-regnier/dailyctl/internal/shell"
)

// invalidateCachePostRun is a PostRunE hook that drops the prompt cache after
// commands that change what is due.
func invalidateCachePostRun(cmd *cobra.Command, args []string) error {
	if appConfig == nil {
		return nil
	}
	// Best-effort: a stale prompt must not fail a command that succeeded.
	_ = shell.InvalidateCache(appConfig.DataDir)
	return nil
}

func init() {
	for _, c := range []*cobra.Command{
		gameDeleteCmd,
		accountCreateCmd, accountUpdateCmd, accountDeleteCmd, accountImportCmd, accountEditCmd,
		levelCreateCmd, levelUpdateCmd, levelDeleteCmd, levelFillCmd, levelCompleteCmd,
		purchaseUpdateCmd, purchaseDeleteCmd, purchaseScheduleCmd, purchaseCompleteCmd,
		todayCmd, seedCmd,
	} {
		c.PostRunE = invalidateCachePostRun
	}
}

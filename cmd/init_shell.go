package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/chris-regnier/dailyctl/internal/shell"
)

var shellInits = map[string]func(io.Writer){
	"bash": shell.WriteBashInit,
	"zsh":  shell.WriteZshInit,
}

var initShellCmd = &cobra.Command{
	Use:   "init <bash|zsh>",
	Short: "Print the shell integration script",
	Long: `Print a script to eval from your shell rc file. It installs completions
and a prompt hook that keeps DAILYCTL_ICON, DAILYCTL_PENDING and
DAILYCTL_ACCOUNTS_DUE current, plus a dailyctl_prompt_info function that
prints the status only while requests are pending.`,
	Example: `  eval "$(dailyctl init bash)"   # ~/.bashrc
  eval "$(dailyctl init zsh)"    # ~/.zshrc`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"bash", "zsh"},
	RunE: func(cmd *cobra.Command, args []string) error {
		write, ok := shellInits[args[0]]
		if !ok {
			exitOn(fmt.Errorf("%w: unsupported shell %q (supported: bash, zsh)", errUsage, args[0]))
		}
		write(os.Stdout)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initShellCmd)
}

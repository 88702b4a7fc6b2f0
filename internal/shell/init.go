package shell

import (
	"fmt"
	"io"
)

// promptFuncs is shared by both shells: the hook refreshes the DAILYCTL_*
// variables and dailyctl_prompt_info prints the compact status.
const promptFuncs = `# dailyctl shell integration
__dailyctl_prompt_hook() {
  eval "$(command dailyctl status --env 2>/dev/null)"
}

dailyctl_prompt_info() {
  [ "${DAILYCTL_PENDING:-0}" -gt 0 ] && command dailyctl status 2>/dev/null
}
`

func writeInit(w io.Writer, shell, hook string) {
	fmt.Fprint(w, promptFuncs)
	fmt.Fprintln(w)
	fmt.Fprint(w, hook)
	fmt.Fprintf(w, "\neval \"$(command dailyctl completion %s 2>/dev/null)\"\n", shell)
}

// WriteBashInit writes the bash integration script, chaining onto PROMPT_COMMAND.
func WriteBashInit(w io.Writer) {
	writeInit(w, "bash", `if [[ -z "$PROMPT_COMMAND" ]]; then
  PROMPT_COMMAND="__dailyctl_prompt_hook"
else
  PROMPT_COMMAND="__dailyctl_prompt_hook;${PROMPT_COMMAND}"
fi
`)
}

// WriteZshInit writes the zsh integration script using a precmd hook.
func WriteZshInit(w io.Writer) {
	writeInit(w, "zsh", `autoload -Uz add-zsh-hook
add-zsh-hook precmd __dailyctl_prompt_hook
`)
}

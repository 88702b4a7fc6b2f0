package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/chris-regnier/dailyctl/internal/schedule"
	"github.com/chris-regnier/dailyctl/internal/storage"
	"github.com/chris-regnier/dailyctl/internal/ui"
)

const dateLayout = "2006-01-02"

// errUsage marks bad command-line input.
var errUsage = errors.New("invalid argument")

// exitCode maps an error to the process exit status: 1 for anything the
// user can fix, 2 for storage and lookup failures.
func exitCode(err error) int {
	switch {
	case errors.Is(err, errUsage),
		errors.Is(err, storage.ErrNotFound),
		errors.Is(err, storage.ErrConflict),
		errors.Is(err, storage.ErrValidation),
		errors.Is(err, schedule.ErrAccountNotFound),
		errors.Is(err, schedule.ErrInvalidDateFormat),
		errors.Is(err, schedule.ErrDateBeforeStart):
		return 1
	}
	return 2
}

// exitOn prints err and exits with its code. A nil err is a no-op.
func exitOn(err error) {
	if err == nil {
		return
	}
	fmt.Fprintln(os.Stderr, "Error:", err)
	closeResources()
	os.Exit(exitCode(err))
}

func parseID(kind, s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %s id %q", errUsage, kind, s)
	}
	return id, nil
}

// readInput reads a file, or stdin when path is "-".
func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}

// output writes v as JSON when --json is set, otherwise calls human.
func output(w io.Writer, v any, human func(io.Writer)) error {
	if jsonOutput {
		return ui.FormatJSON(w, v)
	}
	human(w)
	return nil
}

func rootContext() context.Context {
	if ctx := rootCmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

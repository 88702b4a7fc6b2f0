// Package editor opens request templates in the user's editor.
package editor

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/chris-regnier/dailyctl/internal/template"
)

// ResolveEditor picks the configured editor, then $EDITOR, then $VISUAL, then vi.
func ResolveEditor(configEditor string) string {
	for _, ed := range []string{configEditor, os.Getenv("EDITOR"), os.Getenv("VISUAL")} {
		if ed != "" {
			return ed
		}
	}
	return "vi"
}

// run opens path with editorCmd, which may carry arguments ("code --wait").
func run(editorCmd, path string) error {
	parts := strings.Fields(editorCmd)
	if len(parts) == 0 {
		return errors.New("empty editor command")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin, cmd.Stdout, cmd.Stderr = os.Stdin, os.Stdout, os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("editor exited with error: %w", err)
	}
	return nil
}

// edit round-trips text through a temp file. An emptied file or whitespace-only
// change reports changed=false.
func edit(editorCmd, text string) (string, bool, error) {
	tmp, err := os.CreateTemp("", "dailyctl-template-*.md")
	if err != nil {
		return "", false, fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	_, err = tmp.WriteString(text)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", false, fmt.Errorf("writing temp file: %w", err)
	}

	if err := run(editorCmd, tmp.Name()); err != nil {
		return "", false, err
	}
	data, err := os.ReadFile(tmp.Name())
	if err != nil {
		return "", false, fmt.Errorf("reading edited file: %w", err)
	}

	out := strings.TrimSpace(string(data))
	switch out {
	case "":
		return "", false, nil
	case strings.TrimSpace(text):
		return text, false, nil
	}
	return string(data), true, nil
}

// EditTemplate opens a request template file, front matter included, in the
// editor and parses the result. An emptied file or unchanged content returns
// f with changed=false.
func EditTemplate(editorCmd string, f template.File) (template.File, bool, error) {
	content, changed, err := edit(editorCmd, string(f.Marshal()))
	if err != nil || !changed {
		return f, false, err
	}
	edited, err := template.ParseFile(bytes.NewReader([]byte(content)))
	if err != nil {
		return f, false, fmt.Errorf("parsing edited template: %w", err)
	}
	if edited == f {
		return f, false, nil
	}
	return edited, true, nil
}

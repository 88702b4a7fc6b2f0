package template

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/adrg/frontmatter"
)

// File is a request template on disk. Account metadata lives in YAML front
// matter; everything after it is the template text.
type File struct {
	Account   string `yaml:"account"`
	Game      string `yaml:"game"`
	StartDate string `yaml:"start_date"`
	StartTime string `yaml:"start_time"`
	Template  string `yaml:"-"`
}

// ParseFile reads a template file. Blank lines around the template text are
// dropped.
func ParseFile(r io.Reader) (File, error) {
	var f File
	rest, err := frontmatter.Parse(r, &f)
	if err != nil {
		return File{}, fmt.Errorf("parsing front matter: %w", err)
	}
	if f.Account == "" || f.Game == "" {
		return File{}, errors.New("front matter must set account and game")
	}
	f.Template = strings.Trim(string(rest), "\r\n")
	return f, nil
}

// Marshal renders f in the format read by ParseFile.
func (f File) Marshal() []byte {
	var b bytes.Buffer
	b.WriteString("---\n")
	fmt.Fprintf(&b, "account: %s\n", strconv.Quote(f.Account))
	fmt.Fprintf(&b, "game: %s\n", strconv.Quote(f.Game))
	if f.StartDate != "" {
		fmt.Fprintf(&b, "start_date: %s\n", strconv.Quote(f.StartDate))
	}
	if f.StartTime != "" {
		fmt.Fprintf(&b, "start_time: %s\n", strconv.Quote(f.StartTime))
	}
	b.WriteString("---\n\n")
	b.WriteString(f.Template)
	b.WriteString("\n")
	return b.Bytes()
}

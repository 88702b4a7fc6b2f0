// Package template renders account request templates for due milestones.
package template

import (
	"regexp"
	"strconv"
	"strings"
)

// Vars are the values substituted into a request template for one due item.
type Vars struct {
	EventToken  string
	TimeSpent   int
	AccountName string
	GameID      int64
	LevelName   string
	DaysOffset  int
}

// Placeholders lists the recognized placeholder tokens.
var Placeholders = []string{
	"{event_token}",
	"{time_spent}",
	"{account_name}",
	"{game_id}",
	"{level_name}",
	"{days_offset}",
}

func (v Vars) replacer() *strings.Replacer {
	return strings.NewReplacer(
		"{event_token}", v.EventToken,
		"{time_spent}", strconv.Itoa(v.TimeSpent),
		"{account_name}", v.AccountName,
		"{game_id}", strconv.FormatInt(v.GameID, 10),
		"{level_name}", v.LevelName,
		"{days_offset}", strconv.Itoa(v.DaysOffset),
	)
}

var placeholderPattern = regexp.MustCompile(`\{[A-Za-z_][A-Za-z0-9_]*\}`)

// Unknown returns the distinct placeholder-shaped tokens in tmpl that Render
// leaves untouched, in order of first appearance.
func Unknown(tmpl string) []string {
	known := make(map[string]bool, len(Placeholders))
	for _, p := range Placeholders {
		known[p] = true
	}
	var out []string
	seen := map[string]bool{}
	for _, m := range placeholderPattern.FindAllString(tmpl, -1) {
		if known[m] || seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
	}
	return out
}

// LegacyPayload is the fixed request used by accounts without a template
// when legacy payloads are enabled.
const LegacyPayload = "POST /session HTTP/1.1\n" +
	"Host: localhost\n" +
	"Content-Type: application/json\n" +
	"\n" +
	`{"event_token":"{event_token}","level_name":"{level_name}","time_spent":{time_spent},` +
	`"account_name":"{account_name}","game_id":{game_id},"days_offset":{days_offset}}`

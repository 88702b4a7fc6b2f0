package template

import (
	"strconv"
	"strings"
)

const (
	sessionMarker = "POST /session"
	eventMarker   = "POST /event"
	dayMarker     = "_day"
)

// Render produces the session variant of a request from a raw template.
//
// Every recognized placeholder is replaced in a single pass, so values that
// themselves look like placeholders are never expanded again. Unrecognized
// placeholders stay in the output verbatim. The substituted text then goes
// through RepairContentLength.
//
// Recognized placeholders:
//   - {event_token}  - the sanitized event token
//   - {time_spent}   - the synthesized duration
//   - {account_name} - the account name
//   - {game_id}      - the game ID
//   - {level_name}   - the level name, or the sanitized token for purchase events
//   - {days_offset}  - the item's day offset
//
// Example:
//
//	body := Render("POST /session\n\n{\"t\":{time_spent}}", Vars{TimeSpent: 30512})
//	// body = "POST /session\nContent-Length: 11\n\n{\"t\":30512}"
func Render(tmpl string, v Vars) string {
	return RepairContentLength(Substitute(tmpl, v))
}

// Substitute replaces the recognized placeholders in tmpl without any
// structural repair.
func Substitute(tmpl string, v Vars) string {
	return v.replacer().Replace(tmpl)
}

// RepairContentLength inserts a Content-Length header when the text has a
// header block, separated from the body by a blank line, that lacks one. The
// length is the byte length of everything after the separator. Text without
// a separator, or whose header block already carries Content-Length, is
// returned unchanged. CRLF separators keep CRLF line endings.
func RepairContentLength(s string) string {
	idx, sep := splitHeader(s)
	if idx < 0 {
		return s
	}
	header, body := s[:idx], s[idx+len(sep):]
	for _, line := range strings.Split(header, "\n") {
		if hasHeader(strings.TrimRight(line, "\r"), "Content-Length") {
			return s
		}
	}

	eol := sep[:len(sep)/2]
	field := "Content-Length: " + strconv.Itoa(len(body))
	if header == "" {
		return field + sep + body
	}
	return header + eol + field + sep + body
}

// splitHeader finds the first blank-line separator.
func splitHeader(s string) (int, string) {
	lf := strings.Index(s, "\n\n")
	crlf := strings.Index(s, "\r\n\r\n")
	switch {
	case lf < 0 && crlf < 0:
		return -1, ""
	case lf < 0:
		return crlf, "\r\n\r\n"
	case crlf < 0 || lf < crlf:
		return lf, "\n\n"
	default:
		return crlf, "\r\n\r\n"
	}
}

func hasHeader(line, name string) bool {
	return len(line) > len(name) && line[len(name)] == ':' && strings.EqualFold(line[:len(name)], name)
}

// EventVariant rewrites the first line's POST /session marker to POST /event.
// Text without the marker is returned unchanged.
func EventVariant(s string) string {
	first, rest, found := strings.Cut(s, "\n")
	first = strings.Replace(first, sessionMarker, eventMarker, 1)
	if !found {
		return first
	}
	return first + "\n" + rest
}

// SanitizeToken drops everything from the first "_day" on, which strips the
// suffix added to keep synthetic level tokens unique within a game.
func SanitizeToken(token string) string {
	before, _, _ := strings.Cut(token, dayMarker)
	return before
}

package ui

import (
	"regexp"
	"strings"
)

var ansiSGR = regexp.MustCompile(`\x1b\[[0-9;]*m`)

// stripANSI drops color codes so views can be compared as plain text.
func stripANSI(s string) string {
	return ansiSGR.ReplaceAllString(s, "")
}

// countLines returns the number of lines in the given string.
func countLines(s string) int {
	if s == "" {
		return 0
	}
	return strings.Count(s, "\n") + 1
}

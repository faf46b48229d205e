package ranking

import (
	"regexp"
	"strings"
)

var wordRegex = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// Terms splits a search query into whitespace-delimited terms.
// Stores render the terms as an AND conjunction in their own query syntax.
func Terms(q string) []string {
	return strings.Fields(q)
}

// Words returns the distinct lowercase word tokens of text.
func Words(text string) map[string]struct{} {
	matches := wordRegex.FindAllString(strings.ToLower(text), -1)
	set := make(map[string]struct{}, len(matches))
	for _, m := range matches {
		set[m] = struct{}{}
	}
	return set
}

// Package token estimates model token cost and splits text to fit token windows.
package token

import "unicode/utf8"

// DefaultCharsPerToken is the character-to-token ratio used when none is configured.
const DefaultCharsPerToken = 4

// Estimator approximates token counts from character counts.
// It never calls a model and is monotonic in text length.
type Estimator struct {
	charsPerToken int
}

// NewEstimator creates an estimator; charsPerToken <= 0 selects DefaultCharsPerToken.
func NewEstimator(charsPerToken int) Estimator {
	if charsPerToken <= 0 {
		charsPerToken = DefaultCharsPerToken
	}
	return Estimator{charsPerToken: charsPerToken}
}

// Estimate returns floor(runes / charsPerToken).
func (e Estimator) Estimate(text string) int {
	return e.EstimateLen(utf8.RuneCountInString(text))
}

// EstimateLen applies the estimate to a rune count already known to the caller.
func (e Estimator) EstimateLen(runes int) int {
	return runes / e.ratio()
}

// CharLimit returns how many characters fit into the given token budget.
func (e Estimator) CharLimit(tokens int) int {
	return tokens * e.ratio()
}

// Truncate returns the longest rune-aligned prefix of text that fits the budget.
func (e Estimator) Truncate(text string, tokens int) string {
	limit := e.CharLimit(tokens)
	if limit <= 0 {
		return ""
	}
	n := 0
	for i := range text {
		if n == limit {
			return text[:i]
		}
		n++
	}
	return text
}

func (e Estimator) ratio() int {
	if e.charsPerToken <= 0 {
		return DefaultCharsPerToken
	}
	return e.charsPerToken
}

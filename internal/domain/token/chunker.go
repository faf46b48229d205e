package token

import (
	"iter"
	"slices"
	"strings"
	"unicode/utf8"
)

// Chunker splits text into whitespace-delimited pieces whose estimate fits a token limit.
type Chunker struct {
	est Estimator
}

// NewChunker creates a chunker over the given estimator.
func NewChunker(est Estimator) Chunker {
	return Chunker{est: est}
}

// Chunks yields pieces of text in order. Text within the limit is yielded unchanged;
// otherwise words are packed greedily and joined by single spaces. A word that alone
// exceeds the limit becomes its own piece. Ranging over the sequence again restarts it.
func (c Chunker) Chunks(text string, maxTokens int) iter.Seq[string] {
	return func(yield func(string) bool) {
		if c.est.Estimate(text) <= maxTokens {
			yield(text)
			return
		}

		var piece []string
		pieceLen := 0
		for _, word := range strings.Fields(text) {
			wordLen := utf8.RuneCountInString(word)
			next := pieceLen + wordLen
			if len(piece) > 0 {
				next++
			}
			if len(piece) > 0 && c.est.EstimateLen(next) > maxTokens {
				if !yield(strings.Join(piece, " ")) {
					return
				}
				piece = piece[:0]
				next = wordLen
			}
			piece = append(piece, word)
			pieceLen = next
		}
		if len(piece) > 0 {
			yield(strings.Join(piece, " "))
		}
	}
}

// Chunk collects Chunks into a slice.
func (c Chunker) Chunk(text string, maxTokens int) []string {
	return slices.Collect(c.Chunks(text, maxTokens))
}

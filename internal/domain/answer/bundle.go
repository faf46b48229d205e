package answer

import "github.com/kailas-cloud/kbassist/internal/domain/article"

// Mode records how the context text was produced.
type Mode string

// Assembly modes.
const (
	ModeEmpty      Mode = "empty"
	ModeVerbatim   Mode = "verbatim"
	ModeSummarized Mode = "summarized"
	ModeTruncated  Mode = "truncated"
)

// Bundle is the assembled context for one question.
type Bundle struct {
	Articles []article.Article
	Text     string
	Mode     Mode
	Tokens   int
}

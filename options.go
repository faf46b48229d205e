package kbassist

import "go.uber.org/zap"

// Option configures a Client.
type Option func(*clientConfig)

type clientConfig struct {
	driver   string
	path     string
	addrs    []string
	password string

	completer Completer
	logger    *zap.Logger

	charsPerToken      int
	contextBudget      int
	maxContextArticles int
	temperature        *float64
	maxCandidates      int
}

// WithSQLite stores articles in an embedded SQLite database at path.
func WithSQLite(path string) Option {
	return func(c *clientConfig) {
		c.driver = driverSQLite
		c.path = path
	}
}

// WithRedis stores articles in Redis 8+ (query engine required).
func WithRedis(addrs ...string) Option {
	return func(c *clientConfig) {
		c.driver = driverRedis
		c.addrs = addrs
	}
}

// WithPassword sets the Redis password.
func WithPassword(password string) Option {
	return func(c *clientConfig) { c.password = password }
}

// WithCompleter sets the text completion backend used for summaries and answers.
// Without one, AnswerQuestion reports a failed answer whenever context is present.
func WithCompleter(c Completer) Option {
	return func(cfg *clientConfig) { cfg.completer = c }
}

// WithLogger sets the logger passed to every pipeline stage.
func WithLogger(l *zap.Logger) Option {
	return func(c *clientConfig) { c.logger = l }
}

// WithContextBudget sets the token budget for assembled answer context.
// The summarization input window grows to at least three times the budget.
func WithContextBudget(tokens int) Option {
	return func(c *clientConfig) { c.contextBudget = tokens }
}

// WithCharsPerToken sets the character-to-token ratio of the estimator.
func WithCharsPerToken(n int) Option {
	return func(c *clientConfig) { c.charsPerToken = n }
}

// WithMaxContextArticles caps how many articles feed one answer.
func WithMaxContextArticles(n int) Option {
	return func(c *clientConfig) { c.maxContextArticles = n }
}

// WithTemperature sets the sampling temperature for summaries and answers.
func WithTemperature(t float64) Option {
	return func(c *clientConfig) { c.temperature = &t }
}

// WithMaxCandidates sets how many store hits are fetched per page while ranking a search.
func WithMaxCandidates(n int) Option {
	return func(c *clientConfig) { c.maxCandidates = n }
}

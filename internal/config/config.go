package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Supported database drivers and completion providers.
const (
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"

	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
)

// Config holds the kbassist configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Database   DatabaseConfig   `yaml:"database"`
	Completion CompletionConfig `yaml:"completion"`
	Pipeline   PipelineConfig   `yaml:"pipeline"`
	Search     SearchConfig     `yaml:"search"`
	Cache      CacheConfig      `yaml:"cache"`
	Auth       AuthConfig       `yaml:"auth"`
	Storage    StorageConfig    `yaml:"storage"`
	Seed       SeedConfig       `yaml:"seed"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error (default: determined by env)
	Format string `yaml:"format"` // json, console (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // sqlite, redis (default: sqlite)
	Path             string   `yaml:"path"`   // sqlite only
	Addrs            []string `yaml:"addrs"`  // redis only
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// CompletionConfig selects the text completion provider and its guards.
type CompletionConfig struct {
	Provider   string                    `yaml:"provider"` // openai, anthropic, gemini
	Providers  map[string]ProviderConfig `yaml:"providers"`
	TimeoutSec int                       `yaml:"timeout_sec"`
	Budget     BudgetConfig              `yaml:"budget"`
	RateLimit  RateLimitConfig           `yaml:"rate_limit"`
}

// ProviderConfig holds completion provider settings.
type ProviderConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
	User    string `yaml:"user"` // openai only
}

// BudgetConfig holds token budget settings.
type BudgetConfig struct {
	DailyTokenLimit   int64  `yaml:"daily_token_limit"`   // 0 = unlimited
	MonthlyTokenLimit int64  `yaml:"monthly_token_limit"` // 0 = unlimited
	Action            string `yaml:"action"`              // "reject" | "warn" (default)
}

// RateLimitConfig throttles outbound completion calls. RPS 0 disables the limiter.
type RateLimitConfig struct {
	RPS        float64 `yaml:"rps"`
	Burst      int     `yaml:"burst"`
	MaxWaitSec int     `yaml:"max_wait_sec"`
}

// PipelineConfig holds context assembly and answer generation settings.
type PipelineConfig struct {
	CharsPerToken       int      `yaml:"chars_per_token"`
	ContextBudgetTokens int      `yaml:"context_budget_tokens"`
	SummaryInputTokens  int      `yaml:"summary_input_tokens"`
	SummaryMaxTokens    int      `yaml:"summary_max_tokens"`
	AnswerMaxTokens     int      `yaml:"answer_max_tokens"`
	Temperature         *float64 `yaml:"temperature"` // absent: 0.3; 0 is deterministic
	MaxContextArticles  int      `yaml:"max_context_articles"`
}

// SearchConfig holds ranked search settings.
type SearchConfig struct {
	MaxCandidates int `yaml:"max_candidates"` // store page size while ranking
}

// CacheConfig holds summary cache settings.
type CacheConfig struct {
	SummaryDisabled bool `yaml:"summary_disabled"`
	SummaryTTLSec   int  `yaml:"summary_ttl_sec"`
}

// StorageConfig holds storage settings.
type StorageConfig struct {
	KeyPrefix string `yaml:"key_prefix"`
}

// SeedConfig holds fixture loading settings.
type SeedConfig struct {
	Path      string `yaml:"path"`
	OnStartup bool   `yaml:"on_startup"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse expands env variables in data, then decodes, defaults and validates it.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 120
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.Driver == "" {
		c.Database.Driver = DriverSQLite
	}
	if c.Database.Path == "" {
		c.Database.Path = filepath.Join("data", "kbassist.db")
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	c.applyCompletionDefaults()
	c.applyPipelineDefaults()
	if c.Search.MaxCandidates <= 0 {
		c.Search.MaxCandidates = 200
	}
	if c.Cache.SummaryTTLSec <= 0 {
		c.Cache.SummaryTTLSec = 86400
	}
	if c.Storage.KeyPrefix == "" {
		c.Storage.KeyPrefix = "kb:"
	}
	if c.Seed.Path == "" {
		c.Seed.Path = filepath.Join("config", "seed", "articles.yaml")
	}
}

func (c *Config) applyCompletionDefaults() {
	if c.Completion.Provider == "" {
		c.Completion.Provider = ProviderOpenAI
	}
	if c.Completion.TimeoutSec <= 0 {
		c.Completion.TimeoutSec = 60
	}
	if c.Completion.Budget.Action == "" {
		c.Completion.Budget.Action = "warn"
	}
	if c.Completion.RateLimit.Burst <= 0 {
		c.Completion.RateLimit.Burst = 1
	}
}

func (c *Config) applyPipelineDefaults() {
	p := &c.Pipeline
	if p.CharsPerToken <= 0 {
		p.CharsPerToken = 4
	}
	if p.ContextBudgetTokens <= 0 {
		p.ContextBudgetTokens = 4000
	}
	if p.SummaryInputTokens <= 0 {
		p.SummaryInputTokens = 12000
	}
	if p.SummaryMaxTokens <= 0 {
		p.SummaryMaxTokens = 2000
	}
	if p.AnswerMaxTokens <= 0 {
		p.AnswerMaxTokens = 500
	}
	if p.Temperature == nil {
		t := 0.3
		p.Temperature = &t
	}
	if p.MaxContextArticles <= 0 {
		p.MaxContextArticles = 5
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}

	switch c.Database.Driver {
	case DriverSQLite:
	case DriverRedis:
		if len(c.Database.Addrs) == 0 {
			return fmt.Errorf("database.addrs is required for driver %q", DriverRedis)
		}
	default:
		return fmt.Errorf("database.driver must be %q or %q, got %q", DriverSQLite, DriverRedis, c.Database.Driver)
	}

	if err := c.validateCompletion(); err != nil {
		return err
	}

	if t := c.Pipeline.Temperature; t != nil && (*t < 0 || *t > 2) {
		return fmt.Errorf("pipeline.temperature must be between 0 and 2, got %g", *t)
	}
	if c.Pipeline.SummaryInputTokens < c.Pipeline.ContextBudgetTokens {
		return fmt.Errorf("pipeline.summary_input_tokens (%d) must not be below context_budget_tokens (%d)",
			c.Pipeline.SummaryInputTokens, c.Pipeline.ContextBudgetTokens)
	}
	return nil
}

func (c *Config) validateCompletion() error {
	known := []string{ProviderOpenAI, ProviderAnthropic, ProviderGemini}
	if !slices.Contains(known, c.Completion.Provider) {
		return fmt.Errorf("completion.provider must be one of %s, got %q",
			strings.Join(known, ", "), c.Completion.Provider)
	}
	p, ok := c.Completion.Providers[c.Completion.Provider]
	if !ok {
		return fmt.Errorf("completion.providers.%s is required", c.Completion.Provider)
	}
	if p.Model == "" {
		return fmt.Errorf("completion.providers.%s.model is required", c.Completion.Provider)
	}

	switch c.Completion.Budget.Action {
	case "warn", "reject":
	default:
		return fmt.Errorf("completion.budget.action must be \"warn\" or \"reject\", got %q", c.Completion.Budget.Action)
	}
	if c.Completion.RateLimit.RPS < 0 {
		return fmt.Errorf("completion.rate_limit.rps must not be negative, got %g", c.Completion.RateLimit.RPS)
	}
	return nil
}

// ActiveProvider returns the settings of the selected completion provider.
func (c *Config) ActiveProvider() ProviderConfig {
	return c.Completion.Providers[c.Completion.Provider]
}

// CompletionTimeout returns the per-call completion timeout.
func (c *Config) CompletionTimeout() time.Duration {
	return time.Duration(c.Completion.TimeoutSec) * time.Second
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}

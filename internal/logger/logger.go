// Package logger builds the process logger and carries request-scoped loggers in contexts.
package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Output encodings accepted in Options.Format.
const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// Options selects the logger flavour.
type Options struct {
	Env    string // prod, dev, local, docker or test
	Level  string // debug, info, warn, error; empty keeps the env default
	Format string // json or console; empty keeps the env default
}

// New builds a logger for opts. prod logs JSON at info, every other env logs colored
// console output at debug, and test discards everything.
func New(opts Options) (*zap.Logger, error) {
	var cfg zap.Config
	switch opts.Env {
	case "prod":
		cfg = zap.NewProductionConfig()
	case "local", "dev", "docker":
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	case "test":
		return zap.NewNop(), nil
	default:
		return nil, fmt.Errorf("unknown environment %q for logger", opts.Env)
	}

	if opts.Level != "" {
		level, err := zapcore.ParseLevel(opts.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
		cfg.Level = zap.NewAtomicLevelAt(level)
	}

	switch opts.Format {
	case "":
	case FormatJSON:
		cfg.Encoding = FormatJSON
		cfg.EncoderConfig.EncodeLevel = zapcore.LowercaseLevelEncoder
	case FormatConsole:
		cfg.Encoding = FormatConsole
	default:
		return nil, fmt.Errorf("invalid log format %q", opts.Format)
	}

	l, err := cfg.Build(zap.AddStacktrace(zapcore.ErrorLevel))
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return l.With(zap.String("env", opts.Env)), nil
}

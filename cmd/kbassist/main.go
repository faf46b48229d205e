// Command kbassist serves and drives the knowledge base search and question answering pipeline.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/kbassist/internal/config"
	"github.com/kailas-cloud/kbassist/internal/domain"
	logpkg "github.com/kailas-cloud/kbassist/internal/logger"
	"github.com/kailas-cloud/kbassist/internal/metrics"
	"github.com/kailas-cloud/kbassist/internal/version"
)

// Shared by every subcommand after PersistentPreRunE.
var (
	env    string
	cfg    config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:           "kbassist",
	Short:         "Knowledge base search and question answering",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if cmd.Name() == versionCmd.Name() {
			return nil
		}
		return setup()
	},
	PersistentPostRun: func(*cobra.Command, []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version.String())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&env, "env", "", "config environment (default: $ENV or local)")
	rootCmd.AddCommand(serveCmd, seedCmd, searchCmd, askCmd, versionCmd)
}

func setup() error {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	if env == "" {
		env = config.GetEnv()
	}

	var err error
	cfg, err = config.Load(env)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err = logpkg.New(logpkg.Options{
		Env:    env,
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}

	domain.KeyPrefix = cfg.Storage.KeyPrefix
	metrics.RegisterPipelineMetrics()
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "kbassist:", err)
		os.Exit(1)
	}
}

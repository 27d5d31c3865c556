package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/aman-zulfiqar/coinquery/internal/config"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	cfg    *config.Config
	logger *logrus.Logger

	dataDirFlag  string
	logLevelFlag string
)

// env bootstrap function
func loadEnv(logger *logrus.Logger) {
	// Get the project root directory (where go.mod is)
	_, filename, _, _ := runtime.Caller(0)
	projectRoot := filepath.Join(filepath.Dir(filename), "../..")
	envPath := filepath.Join(projectRoot, ".env")

	if err := godotenv.Load(envPath); err != nil {
		// Fall back to the working directory for installed binaries
		if err := godotenv.Load(); err != nil {
			logger.Debugf("no .env file found at %s, using system environment variables", envPath)
		}
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "coinquery",
		Short: "Ask questions about cryptocurrency price history in plain language",
		Long: `coinquery turns a question into SQL with an LLM, runs it against the
per-coin SQLite price histories and draws a chart when the question asks for one.`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" {
				return nil
			}
			cfg = config.Load()
			if dataDirFlag != "" {
				cfg.DataDir = dataDirFlag
			}
			if logLevelFlag != "" {
				cfg.LogLevel = logLevelFlag
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			logger = cfg.NewLogger()
			logger.SetOutput(cmd.ErrOrStderr())
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&dataDirFlag, "data-dir", "", "Directory holding the coin databases (overrides COINQUERY_DATA_DIR)")
	root.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "Log level (overrides LOG_LEVEL)")

	root.AddCommand(newAskCmd())
	root.AddCommand(newReplCmd())
	root.AddCommand(newTranscribeCmd())
	root.AddCommand(newModelsCmd())
	root.AddCommand(newIngestCmd())
	return root
}

func main() {
	// CLI output stays quiet until the config sets the real level
	boot := logrus.New()
	boot.SetLevel(logrus.WarnLevel)
	loadEnv(boot)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

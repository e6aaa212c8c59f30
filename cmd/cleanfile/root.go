package main

import (
	"log/slog"

	"github.com/JonMunkholm/cleanfile/internal/config"
	"github.com/JonMunkholm/cleanfile/internal/logging"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// app holds state shared by every subcommand once the root command's
// PersistentPreRunE has run.
type app struct {
	envFile   string
	logLevel  string
	logFormat string

	cfg    *config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "cleanfile",
		Short: "Clean unwanted characters out of tabular files",
		Long: `cleanfile strips commas, quotes, line breaks, control characters,
non-printable characters and leading or trailing whitespace from every text
cell of an Excel workbook, CSV or tab-delimited text file.

Excel files are written back as .xlsx, text and CSV files as tab-delimited .txt.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}

	root.PersistentFlags().StringVar(&a.envFile, "env-file", "", "load environment variables from this file (default .env if present)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error (default from LOG_LEVEL)")
	root.PersistentFlags().StringVar(&a.logFormat, "log-format", "", "log format: text or json (default from LOG_FORMAT)")

	root.AddCommand(newCleanCmd(a))
	root.AddCommand(newHistoryCmd(a))
	return root
}

// setup loads the environment and configuration and routes logs to stderr,
// keeping stdout for the summary.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	if a.envFile != "" {
		if err := godotenv.Load(a.envFile); err != nil {
			return err
		}
	} else {
		// .env is optional; values already in the environment win
		_ = godotenv.Load()
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	a.cfg = cfg

	level, format := cfg.Logging.Level, cfg.Logging.Format
	if a.logLevel != "" {
		level = a.logLevel
	}
	if a.logFormat != "" {
		format = a.logFormat
	}
	a.logger = logging.New(cmd.ErrOrStderr(), level, format)
	slog.SetDefault(a.logger)
	return nil
}

package main

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/JonMunkholm/cleanfile/internal/core"
	"github.com/JonMunkholm/cleanfile/internal/service"
	"github.com/JonMunkholm/cleanfile/internal/store"
	"github.com/JonMunkholm/cleanfile/internal/summary"
	"github.com/spf13/cobra"
)

type cleanFlags struct {
	out              string
	name             string
	preserveHeader   bool
	keepNullLiterals bool
	workers          int
	record           bool
}

func newCleanCmd(a *app) *cobra.Command {
	var f cleanFlags

	cmd := &cobra.Command{
		Use:   "clean <input>",
		Short: "Clean one file and print a summary of what was removed",
		Example: `  cleanfile clean customers.xlsx
  cleanfile clean export.csv --out ./clean --name export_fixed
  cleanfile clean report.txt --preserve-header=false`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClean(cmd, a, f, args[0])
		},
	}

	cmd.Flags().StringVarP(&f.out, "out", "o", "", "existing folder for the cleaned file (default: the input's folder)")
	cmd.Flags().StringVarP(&f.name, "name", "n", "", "name of the cleaned file; the extension is set from the input (default: <input>_cleaned)")
	cmd.Flags().BoolVar(&f.preserveHeader, "preserve-header", false, "leave the first row unchanged; =false cleans it like any row (default from CLEAN_PRESERVE_HEADER, true when unset)")
	cmd.Flags().BoolVar(&f.keepNullLiterals, "keep-null-literals", false, `treat "nan", "NaT" and similar cells as text`)
	cmd.Flags().IntVarP(&f.workers, "workers", "w", 0, "goroutines cleaning rows (default from CLEAN_WORKERS)")
	cmd.Flags().BoolVar(&f.record, "record", false, "save the run to the history database (requires DATABASE_URL)")
	return cmd
}

func runClean(cmd *cobra.Command, a *app, f cleanFlags, input string) error {
	ctx := cmd.Context()

	opts := service.OptionsFromConfig(a.cfg.Clean)
	opts.KeepNullLiterals = opts.KeepNullLiterals || f.keepNullLiterals
	if f.workers > 0 {
		opts.Workers = f.workers
	}

	var history service.History
	if f.record {
		if !a.cfg.Database.HistoryEnabled() {
			return userError(service.ErrHistoryDisabled)
		}
		pool, err := store.Connect(ctx, a.cfg.Database)
		if err != nil {
			return err
		}
		defer pool.Close()
		if err := store.AutoMigrate(ctx, pool); err != nil {
			return err
		}
		history = store.New(pool)
	}

	svc, err := service.New(opts, history)
	if err != nil {
		return err
	}

	out := f.out
	if out == "" {
		out = filepath.Dir(input)
	}

	header := service.HeaderDefault
	if cmd.Flags().Changed("preserve-header") {
		header = service.HeaderClean
		if f.preserveHeader {
			header = service.HeaderPreserve
		}
	}

	run, err := svc.CleanFile(ctx, input, out, f.name, header)
	if err != nil {
		return userError(err)
	}

	w := cmd.OutOrStdout()
	fmt.Fprint(w, summary.Text(run.Report))
	fmt.Fprintf(w, "\nCleaned file written to %s\n", run.OutputPath)
	return nil
}

// userError replaces err with its user-facing message when one is known, so
// cobra prints something a person can act on. The technical error is logged.
func userError(err error) error {
	if !core.IsUserFacing(err) {
		return err
	}
	slog.Debug("clean failed", "error", err)
	return errors.New(core.FormatUserError(err))
}

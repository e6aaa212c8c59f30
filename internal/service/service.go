// Package service runs cleaning jobs end to end: read a file, clean every
// cell, write the cleaned file and record the result.
//
// The web server and the CLI both drive a Service. It owns the run limiter,
// the cumulative statistics, the recent runs kept for download and, when a
// database is configured, the persisted run history.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/JonMunkholm/cleanfile/internal/config"
	"github.com/JonMunkholm/cleanfile/internal/core"
	"github.com/JonMunkholm/cleanfile/internal/logging"
	"github.com/JonMunkholm/cleanfile/internal/store"
	"github.com/JonMunkholm/cleanfile/internal/tabular"
	"github.com/google/uuid"
)

var (
	// ErrNoFile is returned when a request carries no input.
	ErrNoFile = errors.New("no file provided")

	// ErrHistoryDisabled is returned by history queries when no database is configured.
	ErrHistoryDisabled = errors.New("history disabled: DATABASE_URL is not configured")

	// ErrRunNotFound is returned for unknown or expired run IDs.
	ErrRunNotFound = store.ErrRunNotFound

	// ErrPathNotFound is returned when an input file or output folder is missing.
	ErrPathNotFound = errors.New("path does not exist")
)

// History persists finished runs.
type History interface {
	Save(ctx context.Context, rec store.Record) error
	Get(ctx context.Context, id uuid.UUID) (store.Record, error)
	List(ctx context.Context, limit, offset int) (*store.Page, error)
	Totals(ctx context.Context) (core.Totals, error)
}

// Options configures a Service.
type Options struct {
	MaxFileSize      int64
	MaxConcurrent    int
	MaxWaitTime      time.Duration
	Timeout          time.Duration
	Workers          int
	PreserveHeader   bool
	KeepNullLiterals bool
	OutputDir        string // where web runs write their output
	RetainRuns       int    // recent runs kept in memory for download
}

// OptionsFromConfig maps the CLEAN_* settings onto Options.
func OptionsFromConfig(c config.CleanConfig) Options {
	return Options{
		MaxFileSize:      c.MaxFileSize,
		MaxConcurrent:    c.MaxConcurrent,
		MaxWaitTime:      c.MaxWaitTime,
		Timeout:          c.Timeout,
		Workers:          c.Workers,
		PreserveHeader:   c.PreserveHeader,
		KeepNullLiterals: c.KeepNullLiterals,
		OutputDir:        c.OutputDir,
		RetainRuns:       c.RetainRuns,
	}
}

// Request describes one file to clean.
type Request struct {
	// FileName is the name of the input; its extension selects the reader.
	FileName string
	Input    io.Reader

	// OutputFolder defaults to a per-run folder under Options.OutputDir.
	OutputFolder string

	// OutputName defaults to the input name with a "_cleaned" suffix. The
	// extension is always replaced by the one matching the input format.
	OutputName string

	// Header overrides Options.PreserveHeader for this run.
	Header HeaderMode
}

// HeaderMode says whether a run cleans row 0.
type HeaderMode int

const (
	HeaderDefault  HeaderMode = iota // follow Options.PreserveHeader
	HeaderPreserve                   // copy row 0 through unchanged
	HeaderClean                      // clean row 0 like any other row
)

// Preserve resolves m against the configured default.
func (m HeaderMode) Preserve(def bool) bool {
	switch m {
	case HeaderPreserve:
		return true
	case HeaderClean:
		return false
	default:
		return def
	}
}

// Run is a finished cleaning run.
type Run struct {
	ID         uuid.UUID      `json:"id"`
	FileName   string         `json:"file_name"`
	Source     tabular.Source `json:"-"`
	Format     string         `json:"format"`
	OutputName string         `json:"output_name"`
	OutputPath string         `json:"-"`
	Report     core.Report    `json:"report"`
	Started    time.Time      `json:"started"`
	Duration   time.Duration  `json:"duration"`

	// owned outputs live under Options.OutputDir and are removed on eviction.
	owned bool
}

// Service runs cleaning jobs.
type Service struct {
	opts    Options
	history History
	limiter *RunLimiter
	stats   core.Accumulator

	mu    sync.RWMutex
	runs  map[uuid.UUID]*Run
	order []uuid.UUID // oldest first
}

// New creates a Service. history may be nil, in which case history queries
// return ErrHistoryDisabled.
func New(opts Options, history History) (*Service, error) {
	if opts.OutputDir == "" {
		opts.OutputDir = filepath.Join(os.TempDir(), "cleanfile")
	}
	if opts.RetainRuns <= 0 {
		opts.RetainRuns = 50
	}
	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	return &Service{
		opts:    opts,
		history: history,
		limiter: NewRunLimiter(opts.MaxConcurrent, opts.MaxWaitTime),
		runs:    make(map[uuid.UUID]*Run),
	}, nil
}

// Clean reads req.Input, cleans it and writes the result.
func (s *Service) Clean(ctx context.Context, req Request) (*Run, error) {
	if req.Input == nil {
		return nil, ErrNoFile
	}
	format, err := tabular.DetectFormat(req.FileName)
	if err != nil {
		return nil, err
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	run := &Run{
		ID:       uuid.New(),
		FileName: filepath.Base(req.FileName),
		Format:   format.String(),
		Started:  time.Now(),
	}
	ctx = core.ContextWithRunID(ctx, run.ID.String())
	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}

	logger := logging.WithFields(ctx, "file", run.FileName, "format", run.Format)
	logger.Info("run started")

	table, src, err := tabular.Read(req.Input, req.FileName, tabular.ReadOptions{
		MaxSize:          s.opts.MaxFileSize,
		KeepNullLiterals: s.opts.KeepNullLiterals,
	})
	if err != nil {
		logger.Warn("run failed", "stage", "read", "error", err)
		return nil, err
	}
	run.Source = src

	cleaned, report, err := core.ProcessContext(ctx, table, core.ProcessOptions{
		PreserveHeader: req.Header.Preserve(s.opts.PreserveHeader),
		Workers:        s.opts.Workers,
	})
	if err != nil {
		logger.Warn("run failed", "stage", "clean", "error", err)
		return nil, err
	}
	run.Report = report

	folder := req.OutputFolder
	if folder == "" {
		folder = filepath.Join(s.opts.OutputDir, run.ID.String())
		if err := os.MkdirAll(folder, 0o755); err != nil {
			return nil, fmt.Errorf("create output folder: %w", err)
		}
		run.owned = true
	}
	name := req.OutputName
	if name == "" {
		name = DefaultOutputName(req.FileName)
	}
	run.OutputPath = tabular.OutputPath(folder, name, src.Format)
	run.OutputName = filepath.Base(run.OutputPath)

	if err := tabular.WriteFile(run.OutputPath, cleaned, src.Format); err != nil {
		logger.Error("run failed", "stage", "write", "error", err)
		if run.owned {
			os.RemoveAll(folder)
		}
		return nil, err
	}
	run.Duration = time.Since(run.Started)

	s.stats.Add(report)
	s.remember(run)
	s.record(ctx, run)

	logger.Info("run completed",
		"rows", report.Rows,
		"cells", report.Cells,
		"removed", report.Total,
		"skipped", report.SkippedCells,
		"output", run.OutputName,
		"duration_ms", run.Duration.Milliseconds(),
	)
	return run, nil
}

// CleanFile cleans the file at inputPath into outputFolder/outputName.
// Both the input file and the output folder must already exist.
func (s *Service) CleanFile(ctx context.Context, inputPath, outputFolder, outputName string, header HeaderMode) (*Run, error) {
	if err := ValidatePaths(inputPath, outputFolder); err != nil {
		return nil, err
	}
	format, err := tabular.DetectFormat(inputPath)
	if err != nil {
		return nil, err
	}
	if outputName == "" {
		outputName = DefaultOutputName(inputPath)
	}
	if sameFile(inputPath, tabular.OutputPath(outputFolder, outputName, format)) {
		return nil, fmt.Errorf("output %q would overwrite the input", outputName)
	}

	f, err := os.Open(inputPath)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	return s.Clean(ctx, Request{
		FileName:     inputPath,
		Input:        f,
		OutputFolder: outputFolder,
		OutputName:   outputName,
		Header:       header,
	})
}

// ValidatePaths checks that inputPath is an existing file and outputFolder an
// existing directory.
func ValidatePaths(inputPath, outputFolder string) error {
	info, err := os.Stat(inputPath)
	if err != nil {
		return fmt.Errorf("input %q: %w", inputPath, ErrPathNotFound)
	}
	if info.IsDir() {
		return fmt.Errorf("input %q: not a file", inputPath)
	}

	info, err = os.Stat(outputFolder)
	if err != nil {
		return fmt.Errorf("output folder %q: %w", outputFolder, ErrPathNotFound)
	}
	if !info.IsDir() {
		return fmt.Errorf("output folder %q: not a directory", outputFolder)
	}
	return nil
}

// DefaultOutputName derives an output name from the input file name.
func DefaultOutputName(inputName string) string {
	base := filepath.Base(inputName)
	return strings.TrimSuffix(base, filepath.Ext(base)) + "_cleaned"
}

func sameFile(a, b string) bool {
	ai, err := os.Stat(a)
	if err != nil {
		return false
	}
	bi, err := os.Stat(b)
	if err != nil {
		return false
	}
	return os.SameFile(ai, bi)
}

// remember keeps run for download, evicting the oldest beyond RetainRuns.
func (s *Service) remember(run *Run) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.runs[run.ID] = run
	s.order = append(s.order, run.ID)
	for len(s.order) > s.opts.RetainRuns {
		oldest := s.runs[s.order[0]]
		delete(s.runs, s.order[0])
		s.order = s.order[1:]
		if oldest != nil && oldest.owned {
			os.RemoveAll(filepath.Dir(oldest.OutputPath))
		}
	}
}

// record saves run to history. Failures are logged, never returned: the
// cleaned file has already been written.
func (s *Service) record(ctx context.Context, run *Run) {
	if s.history == nil {
		return
	}
	ip, ua := core.ClientFromContext(ctx)
	rec := store.Record{
		ID:           run.ID,
		FileName:     run.FileName,
		OutputName:   run.OutputName,
		Format:       run.Format,
		Rows:         run.Report.Rows,
		Cells:        run.Report.Cells,
		ChangedCells: run.Report.ChangedCells,
		SkippedCells: run.Report.SkippedCells,
		Total:        run.Report.Total,
		Counts:       run.Report.Counts,
		DurationMS:   run.Duration.Milliseconds(),
		ClientIP:     ip,
		UserAgent:    ua,
		CreatedAt:    run.Started,
	}
	// The run context may be close to its deadline.
	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.history.Save(saveCtx, rec); err != nil {
		logging.FromContext(ctx).Warn("failed to record run history", "error", err)
	}
}

// Run returns a recent run by ID.
func (s *Service) Run(id uuid.UUID) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return run, nil
}

// RecentRuns returns the runs still available for download, newest first.
func (s *Service) RecentRuns() []*Run {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Run, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		out = append(out, s.runs[s.order[i]])
	}
	return out
}

// Stats returns totals since the service started.
func (s *Service) Stats() core.Totals {
	return s.stats.Snapshot()
}

// HistoryEnabled reports whether runs are persisted.
func (s *Service) HistoryEnabled() bool {
	return s.history != nil
}

// History returns a page of persisted runs.
func (s *Service) History(ctx context.Context, limit, offset int) (*store.Page, error) {
	if s.history == nil {
		return nil, ErrHistoryDisabled
	}
	return s.history.List(ctx, limit, offset)
}

// HistoryRecord returns one persisted run.
func (s *Service) HistoryRecord(ctx context.Context, id uuid.UUID) (store.Record, error) {
	if s.history == nil {
		return store.Record{}, ErrHistoryDisabled
	}
	return s.history.Get(ctx, id)
}

// HistoryTotals sums every persisted run.
func (s *Service) HistoryTotals(ctx context.Context) (core.Totals, error) {
	if s.history == nil {
		return core.Totals{}, ErrHistoryDisabled
	}
	return s.history.Totals(ctx)
}

// LimiterStatus reports how many runs are in progress.
func (s *Service) LimiterStatus() LimiterStatus {
	return s.limiter.Status()
}

// WaitForRuns blocks until in-progress runs finish or ctx is done.
func (s *Service) WaitForRuns(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

// Close removes every output the service wrote under its output dir.
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	for _, run := range s.runs {
		if run.owned {
			if err := os.RemoveAll(filepath.Dir(run.OutputPath)); err != nil {
				errs = append(errs, err)
			}
		}
	}
	s.runs = make(map[uuid.UUID]*Run)
	s.order = nil
	return errors.Join(errs...)
}

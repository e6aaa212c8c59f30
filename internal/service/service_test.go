package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/JonMunkholm/cleanfile/internal/core"
	"github.com/JonMunkholm/cleanfile/internal/store"
	"github.com/JonMunkholm/cleanfile/internal/tabular"
	"github.com/google/uuid"
)

// fakeHistory keeps records in memory.
type fakeHistory struct {
	mu      sync.Mutex
	records []store.Record
	saveErr error
}

func (h *fakeHistory) Save(_ context.Context, rec store.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.saveErr != nil {
		return h.saveErr
	}
	h.records = append(h.records, rec)
	return nil
}

func (h *fakeHistory) Get(_ context.Context, id uuid.UUID) (store.Record, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, r := range h.records {
		if r.ID == id {
			return r, nil
		}
	}
	return store.Record{}, store.ErrRunNotFound
}

func (h *fakeHistory) List(_ context.Context, limit, offset int) (*store.Page, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return &store.Page{Records: h.records, TotalCount: int64(len(h.records)), Limit: limit, Offset: offset}, nil
}

func (h *fakeHistory) Totals(_ context.Context) (core.Totals, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	var t core.Totals
	for _, r := range h.records {
		t.Runs++
		t.Total += r.Total
		t.Counts.Merge(r.Counts)
	}
	return t, nil
}

func newTestService(t *testing.T, history History, mutate ...func(*Options)) *Service {
	t.Helper()
	opts := Options{
		MaxConcurrent: 2,
		OutputDir:     t.TempDir(),
		RetainRuns:    10,
	}
	for _, m := range mutate {
		m(&opts)
	}
	svc, err := New(opts, history)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return svc
}

// ============================================================================
// Clean
// ============================================================================

func TestClean_Delimited(t *testing.T) {
	history := &fakeHistory{}
	svc := newTestService(t, history)

	ctx := core.ContextWithClient(context.Background(), "10.0.0.7", "test-agent")
	run, err := svc.Clean(ctx, Request{
		FileName: "customers.csv",
		Input:    strings.NewReader("name,note\n\"  O'Brien, Pat \",\"said \"\"hi\"\"\"\n"),
	})
	if err != nil {
		t.Fatalf("Clean: %v", err)
	}

	if run.OutputName != "customers_cleaned.txt" {
		t.Errorf("OutputName = %q, want customers_cleaned.txt", run.OutputName)
	}
	data, err := os.ReadFile(run.OutputPath)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if got, want := string(data), "name\tnote\nOBrien Pat\tsaid hi\n"; got != want {
		t.Errorf("output = %q, want %q", got, want)
	}

	// 3 edge spaces, 1 quote, 1 comma, 2 double quotes
	if run.Report.Total != 7 {
		t.Errorf("Total = %d, want 7", run.Report.Total)
	}

	if got, err := svc.Run(run.ID); err != nil || got != run {
		t.Errorf("Run(%s) = %v, %v", run.ID, got, err)
	}
	if stats := svc.Stats(); stats.Runs != 1 || stats.Total != 7 {
		t.Errorf("Stats = %+v", stats)
	}

	if len(history.records) != 1 {
		t.Fatalf("history has %d records, want 1", len(history.records))
	}
	rec := history.records[0]
	if rec.ID != run.ID || rec.ClientIP != "10.0.0.7" || rec.UserAgent != "test-agent" || rec.Total != 7 {
		t.Errorf("history record = %+v", rec)
	}
}

func TestClean_PreserveHeader(t *testing.T) {
	const input = "Name, Full\tAmount\nACME, Inc.\t1,000\n"
	const kept = "Name, Full\tAmount\nACME Inc.\t1000\n"
	const cleaned = "Name Full\tAmount\nACME Inc.\t1000\n"

	tests := []struct {
		name       string
		defaultOn  bool
		header     HeaderMode
		wantOutput string
		wantTotal  int
	}{
		{"default off", false, HeaderDefault, cleaned, 3},
		{"default on", true, HeaderDefault, kept, 2},
		{"preserve overrides off", false, HeaderPreserve, kept, 2},
		{"clean overrides on", true, HeaderClean, cleaned, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(t, nil, func(o *Options) { o.PreserveHeader = tt.defaultOn })
			run, err := svc.Clean(context.Background(), Request{
				FileName: "data.txt",
				Input:    strings.NewReader(input),
				Header:   tt.header,
			})
			if err != nil {
				t.Fatalf("Clean: %v", err)
			}
			data, _ := os.ReadFile(run.OutputPath)
			if got := string(data); got != tt.wantOutput {
				t.Errorf("output = %q, want %q", got, tt.wantOutput)
			}
			if run.Report.Total != tt.wantTotal {
				t.Errorf("Total = %d, want %d", run.Report.Total, tt.wantTotal)
			}
		})
	}
}

func TestClean_Errors(t *testing.T) {
	svc := newTestService(t, nil, func(o *Options) { o.MaxFileSize = 8 })

	tests := []struct {
		name string
		req  Request
		want error
	}{
		{"no input", Request{FileName: "a.csv"}, ErrNoFile},
		{"unsupported", Request{FileName: "a.pdf", Input: strings.NewReader("x")}, tabular.ErrUnsupportedFormat},
		{"empty", Request{FileName: "a.csv", Input: strings.NewReader("")}, tabular.ErrEmptyFile},
		{"too large", Request{FileName: "a.csv", Input: strings.NewReader("a,b,c,d,e,f\n")}, tabular.ErrFileTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Clean(context.Background(), tt.req)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}

	if stats := svc.Stats(); stats.Runs != 0 {
		t.Errorf("failed runs were counted: %+v", stats)
	}
}

func TestClean_EvictsOldRuns(t *testing.T) {
	svc := newTestService(t, nil, func(o *Options) { o.RetainRuns = 1 })
	ctx := context.Background()

	first, err := svc.Clean(ctx, Request{FileName: "a.csv", Input: strings.NewReader("a,b\n")})
	if err != nil {
		t.Fatalf("Clean: %v", err)
	}
	second, err := svc.Clean(ctx, Request{FileName: "b.csv", Input: strings.NewReader("c,d\n")})
	if err != nil {
		t.Fatalf("Clean: %v", err)
	}

	if _, err := svc.Run(first.ID); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("Run(first) err = %v, want ErrRunNotFound", err)
	}
	if _, err := os.Stat(first.OutputPath); !os.IsNotExist(err) {
		t.Errorf("evicted output still exists: %v", err)
	}
	if runs := svc.RecentRuns(); len(runs) != 1 || runs[0].ID != second.ID {
		t.Errorf("RecentRuns = %v", runs)
	}

	if err := svc.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := os.Stat(second.OutputPath); !os.IsNotExist(err) {
		t.Errorf("output survived Close: %v", err)
	}
}

func TestClean_HistoryFailureIsNotFatal(t *testing.T) {
	svc := newTestService(t, &fakeHistory{saveErr: errors.New("connection refused")})
	if _, err := svc.Clean(context.Background(), Request{FileName: "a.csv", Input: strings.NewReader("x,y\n")}); err != nil {
		t.Fatalf("Clean: %v", err)
	}
}

// ============================================================================
// CleanFile
// ============================================================================

func TestCleanFile(t *testing.T) {
	svc := newTestService(t, nil)
	inDir, outDir := t.TempDir(), t.TempDir()
	input := filepath.Join(inDir, "report.csv")
	os.WriteFile(input, []byte("id,name\n1,\"A, B\"\n"), 0o644)

	run, err := svc.CleanFile(context.Background(), input, outDir, "clean_report", HeaderDefault)
	if err != nil {
		t.Fatalf("CleanFile: %v", err)
	}
	if want := filepath.Join(outDir, "clean_report.txt"); run.OutputPath != want {
		t.Errorf("OutputPath = %q, want %q", run.OutputPath, want)
	}
	if run.Report.Total != 1 {
		t.Errorf("Total = %d, want 1", run.Report.Total)
	}
}

func TestCleanFile_PathErrors(t *testing.T) {
	svc := newTestService(t, nil)
	dir := t.TempDir()
	input := filepath.Join(dir, "in.txt")
	os.WriteFile(input, []byte("a\tb\n"), 0o644)

	tests := []struct {
		name    string
		input   string
		folder  string
		outName string
		wantMsg string
	}{
		{"missing input", filepath.Join(dir, "nope.csv"), dir, "x", "path does not exist"},
		{"missing folder", input, filepath.Join(dir, "nope"), "x", "path does not exist"},
		{"input is a folder", dir, dir, "x", "not a file"},
		{"folder is a file", input, input, "x", "not a directory"},
		{"would overwrite input", input, dir, "in", "overwrite the input"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CleanFile(context.Background(), tt.input, tt.folder, tt.outName, HeaderDefault)
			if err == nil || !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("err = %v, want message containing %q", err, tt.wantMsg)
			}
			if core.MapError(err).Code != "FILE008" {
				t.Errorf("MapError code = %q, want FILE008", core.MapError(err).Code)
			}
		})
	}
}

func TestDefaultOutputName(t *testing.T) {
	tests := map[string]string{
		"report.xlsx":     "report_cleaned",
		"/tmp/data.csv":   "data_cleaned",
		"archive.tar.csv": "archive.tar_cleaned",
		"noext":           "noext_cleaned",
	}
	for in, want := range tests {
		if got := DefaultOutputName(in); got != want {
			t.Errorf("DefaultOutputName(%q) = %q, want %q", in, got, want)
		}
	}
}

// ============================================================================
// History
// ============================================================================

func TestHistory_Disabled(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	if svc.HistoryEnabled() {
		t.Error("HistoryEnabled = true without a store")
	}
	if _, err := svc.History(ctx, 10, 0); !errors.Is(err, ErrHistoryDisabled) {
		t.Errorf("History err = %v", err)
	}
	if _, err := svc.HistoryRecord(ctx, uuid.New()); !errors.Is(err, ErrHistoryDisabled) {
		t.Errorf("HistoryRecord err = %v", err)
	}
	if _, err := svc.HistoryTotals(ctx); !errors.Is(err, ErrHistoryDisabled) {
		t.Errorf("HistoryTotals err = %v", err)
	}
	if got := core.MapError(ErrHistoryDisabled).Code; got != "RUN005" {
		t.Errorf("MapError code = %q, want RUN005", got)
	}
}

func TestHistory_Enabled(t *testing.T) {
	history := &fakeHistory{}
	svc := newTestService(t, history)
	ctx := context.Background()

	run, err := svc.Clean(ctx, Request{FileName: "a.csv", Input: strings.NewReader("a,\"b,c\"\n")})
	if err != nil {
		t.Fatalf("Clean: %v", err)
	}

	page, err := svc.History(ctx, 10, 0)
	if err != nil || page.TotalCount != 1 {
		t.Fatalf("History = %+v, %v", page, err)
	}
	rec, err := svc.HistoryRecord(ctx, run.ID)
	if err != nil || rec.Counts.Get(core.Comma) != 1 {
		t.Errorf("HistoryRecord = %+v, %v", rec, err)
	}
	totals, err := svc.HistoryTotals(ctx)
	if err != nil || totals.Runs != 1 || totals.Total != 1 {
		t.Errorf("HistoryTotals = %+v, %v", totals, err)
	}
}

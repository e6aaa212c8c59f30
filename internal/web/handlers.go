package web

import (
	"mime"
	"net/http"
	"os"

	"github.com/JonMunkholm/cleanfile/internal/core"
	"github.com/JonMunkholm/cleanfile/internal/logging"
	"github.com/JonMunkholm/cleanfile/internal/service"
	"github.com/JonMunkholm/cleanfile/internal/store"
	"github.com/JonMunkholm/cleanfile/internal/summary"
	"github.com/JonMunkholm/cleanfile/internal/web/templates"
)

// runResponse is the JSON view of a finished run.
type runResponse struct {
	*service.Run
	Summary     string         `json:"summary"`
	Lines       []summary.Line `json:"lines"`
	DownloadURL string         `json:"download_url"`
}

func newRunResponse(run *service.Run) runResponse {
	return runResponse{
		Run:         run,
		Summary:     summary.Text(run.Report),
		Lines:       summary.Lines(run.Report.Counts),
		DownloadURL: downloadURL(run.ID),
	}
}

// handleHealth reports liveness and how busy the cleaner is.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"runs":    s.service.LimiterStatus(),
		"history": s.service.HistoryEnabled(),
	})
}

// handleIndex renders the upload form with session totals and recent runs.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	runs := s.service.RecentRuns()
	rows := make([]templates.RunRow, len(runs))
	for i, run := range runs {
		rows[i] = templates.RunRow{
			ID:         run.ID.String(),
			FileName:   run.FileName,
			OutputName: run.OutputName,
			Total:      run.Report.Total,
			Started:    run.Started,
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	templates.Index(templates.IndexParams{
		Runs:           rows,
		Stats:          s.service.Stats(),
		PreserveHeader: s.cfg.Clean.PreserveHeader,
		HistoryEnabled: s.service.HistoryEnabled(),
		MaxFileSize:    s.cfg.Clean.MaxFileSize,
	}).Render(r.Context(), w)
}

// handleCleanForm cleans a file posted from the upload form and redirects
// to the run page.
func (s *Server) handleCleanForm(w http.ResponseWriter, r *http.Request) {
	run, ok := s.clean(w, r)
	if !ok {
		return
	}
	http.Redirect(w, r, "/runs/"+run.ID.String(), http.StatusSeeOther)
}

// handleCleanAPI cleans a posted file and returns the run as JSON.
func (s *Server) handleCleanAPI(w http.ResponseWriter, r *http.Request) {
	run, ok := s.clean(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusCreated, newRunResponse(run))
}

// clean runs the upload through the service, writing the error response
// itself on failure.
func (s *Server) clean(w http.ResponseWriter, r *http.Request) (*service.Run, bool) {
	req, file, err := s.readCleanRequest(w, r)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return nil, false
	}
	defer file.Close()

	logging.FromContext(r.Context()).Debug("file received", "name", req.FileName)

	run, err := s.service.Clean(r.Context(), req)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return nil, false
	}
	return run, true
}

// handleRunPage renders the summary of a recent run.
func (s *Server) handleRunPage(w http.ResponseWriter, r *http.Request) {
	run, ok := s.lookupRun(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	templates.RunDetail(templates.RunParams{
		ID:          run.ID.String(),
		FileName:    run.FileName,
		Format:      run.Format,
		OutputName:  run.OutputName,
		DownloadURL: downloadURL(run.ID),
		Report:      run.Report,
		Duration:    run.Duration,
	}).Render(r.Context(), w)
}

// handleListRuns returns the recent runs, newest first.
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	runs := s.service.RecentRuns()
	out := make([]runResponse, len(runs))
	for i, run := range runs {
		out[i] = newRunResponse(run)
	}
	writeJSON(w, http.StatusOK, out)
}

// handleGetRun returns one recent run.
func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, ok := s.lookupRun(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, newRunResponse(run))
}

// handleRunSummary returns the plain text summary of a run.
func (s *Server) handleRunSummary(w http.ResponseWriter, r *http.Request) {
	run, ok := s.lookupRun(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(summary.Text(run.Report)))
}

// handleDownload streams the cleaned file of a recent run.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	run, ok := s.lookupRun(w, r)
	if !ok {
		return
	}

	f, err := os.Open(run.OutputPath)
	if err != nil {
		if os.IsNotExist(err) {
			err = service.ErrRunNotFound
		}
		respondError(w, r, err, statusFor(err))
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", run.Source.Format.ContentType())
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": run.OutputName}))
	http.ServeContent(w, r, run.OutputName, info.ModTime(), f)
}

func (s *Server) lookupRun(w http.ResponseWriter, r *http.Request) (*service.Run, bool) {
	id, err := parseRunID(r)
	if err == nil {
		var run *service.Run
		if run, err = s.service.Run(id); err == nil {
			return run, true
		}
	}
	respondError(w, r, err, statusFor(err))
	return nil, false
}

// statsResponse reports totals since startup.
type statsResponse struct {
	core.Totals
	Summary    string                `json:"summary"`
	Lines      []summary.Line        `json:"lines"`
	InProgress service.LimiterStatus `json:"in_progress"`
}

// handleStats returns cumulative counts since the server started.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	totals := s.service.Stats()
	writeJSON(w, http.StatusOK, statsResponse{
		Totals:     totals,
		Summary:    summary.Headline(totals.Total),
		Lines:      summary.Lines(totals.Counts),
		InProgress: s.service.LimiterStatus(),
	})
}

// handleListHistory returns a page of persisted runs.
func (s *Server) handleListHistory(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageParams(r)
	page, err := s.service.History(r.Context(), limit, offset)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// handleGetHistory returns one persisted run.
func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	id, err := parseRunID(r)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	rec, err := s.service.HistoryRecord(r.Context(), id)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// handleHistoryTotals returns counts summed over every persisted run.
func (s *Server) handleHistoryTotals(w http.ResponseWriter, r *http.Request) {
	totals, err := s.service.HistoryTotals(r.Context())
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, totals)
}

// handleHistoryPage renders persisted runs.
func (s *Server) handleHistoryPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	limit, offset := pageParams(r)

	page, err := s.service.History(ctx, limit, offset)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}
	totals, err := s.service.HistoryTotals(ctx)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	templates.HistoryPage(templates.HistoryParams{
		Rows:       historyRows(page.Records),
		Totals:     totals,
		TotalCount: page.TotalCount,
		Limit:      page.Limit,
		Offset:     page.Offset,
	}).Render(ctx, w)
}

func historyRows(records []store.Record) []templates.HistoryRow {
	rows := make([]templates.HistoryRow, len(records))
	for i, rec := range records {
		rows[i] = templates.HistoryRow{
			FileName:   rec.FileName,
			OutputName: rec.OutputName,
			Format:     rec.Format,
			Rows:       rec.Rows,
			Total:      rec.Total,
			CreatedAt:  rec.CreatedAt,
		}
	}
	return rows
}

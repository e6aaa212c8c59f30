// Package templates renders the HTML pages of the web UI.
//
// The .templ files are the source; run `templ generate` after editing them.
package templates

import (
	"fmt"
	"strconv"
	"time"

	"github.com/JonMunkholm/cleanfile/internal/core"
)

// RunRow is one row of the recent runs table.
type RunRow struct {
	ID         string
	FileName   string
	OutputName string
	Total      int
	Started    time.Time
}

// IndexParams holds the data for the home page.
type IndexParams struct {
	Runs           []RunRow
	Stats          core.Totals
	PreserveHeader bool
	HistoryEnabled bool
	MaxFileSize    int64
}

// RunParams holds the data for a finished run page.
type RunParams struct {
	ID          string
	FileName    string
	Format      string
	OutputName  string
	DownloadURL string
	Report      core.Report
	Duration    time.Duration
}

// HistoryRow is one persisted run.
type HistoryRow struct {
	FileName   string
	OutputName string
	Format     string
	Rows       int
	Total      int
	CreatedAt  time.Time
}

// HistoryParams holds one page of persisted runs.
type HistoryParams struct {
	Rows       []HistoryRow
	Totals     core.Totals
	TotalCount int64
	Limit      int
	Offset     int
}

// HasNewer reports whether a page before this one exists.
func (p HistoryParams) HasNewer() bool { return p.Offset > 0 }

// HasOlder reports whether a page after this one exists.
func (p HistoryParams) HasOlder() bool { return int64(p.Offset+p.Limit) < p.TotalCount }

// NewerURL links to the previous page, clamped at the first.
func (p HistoryParams) NewerURL() string {
	return historyURL(p.Limit, max(p.Offset-p.Limit, 0))
}

// OlderURL links to the next page.
func (p HistoryParams) OlderURL() string {
	return historyURL(p.Limit, p.Offset+p.Limit)
}

func historyURL(limit, offset int) string {
	return "/history?limit=" + strconv.Itoa(limit) + "&offset=" + strconv.Itoa(offset)
}

// formatTime renders t for tables; the zero time renders as a dash.
func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02 15:04:05")
}

// formatDuration rounds d for display.
func formatDuration(d time.Duration) string {
	switch {
	case d < time.Millisecond:
		return d.String()
	case d < time.Second:
		return d.Round(time.Millisecond).String()
	default:
		return d.Round(10 * time.Millisecond).String()
	}
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return strconv.FormatInt(n, 10) + " B"
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}

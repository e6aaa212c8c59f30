package core

import (
	"sync"
	"time"
)

// MaxWarnings caps the warnings kept on a single report. Further warnings are
// still counted in DroppedWarnings.
var MaxWarnings = 100

// Report summarises one cleaning run.
type Report struct {
	Counts          Counts    `json:"counts"`
	Total           int       `json:"total"`
	Rows            int       `json:"rows"`
	Cells           int       `json:"cells"`
	TextCells       int       `json:"text_cells"`
	ChangedCells    int       `json:"changed_cells"`
	SkippedCells    int       `json:"skipped_cells"`
	Warnings        []Warning `json:"warnings,omitempty"`
	DroppedWarnings int       `json:"dropped_warnings,omitempty"`
}

// AddCell records the result of cleaning one text cell.
func (r *Report) AddCell(c Counts) {
	r.TextCells++
	if n := c.Total(); n > 0 {
		r.ChangedCells++
		r.Total += n
		r.Counts.Merge(c)
	}
}

// Warn records a non-fatal condition.
func (r *Report) Warn(err error) {
	if len(r.Warnings) >= MaxWarnings {
		r.DroppedWarnings++
		return
	}
	r.Warnings = append(r.Warnings, warningFor(err))
}

// Merge adds other into r. Merge is commutative and associative over the
// numeric fields; warnings are appended in call order.
func (r *Report) Merge(other Report) {
	r.Counts.Merge(other.Counts)
	r.Total += other.Total
	r.Rows += other.Rows
	r.Cells += other.Cells
	r.TextCells += other.TextCells
	r.ChangedCells += other.ChangedCells
	r.SkippedCells += other.SkippedCells
	r.DroppedWarnings += other.DroppedWarnings
	for _, w := range other.Warnings {
		if len(r.Warnings) >= MaxWarnings {
			r.DroppedWarnings++
			continue
		}
		r.Warnings = append(r.Warnings, w)
	}
}

// Count returns the removal count for cat.
func (r Report) Count(cat Category) int {
	return r.Counts.Get(cat)
}

// Consistent reports whether Total equals the sum of the category counts.
func (r Report) Consistent() bool {
	return r.Total == r.Counts.Total()
}

// Accumulator collects cumulative statistics across runs. The zero value is
// ready to use and safe for concurrent use.
type Accumulator struct {
	mu      sync.Mutex
	runs    int
	report  Report
	since   time.Time
	lastRun time.Time
}

// Totals is a snapshot of an Accumulator.
type Totals struct {
	Runs    int       `json:"runs"`
	Counts  Counts    `json:"counts"`
	Total   int       `json:"total"`
	Rows    int       `json:"rows"`
	Cells   int       `json:"cells"`
	Since   time.Time `json:"since,omitempty"`
	LastRun time.Time `json:"last_run,omitempty"`
}

// Add folds a finished run into the accumulator.
func (a *Accumulator) Add(r Report) {
	a.mu.Lock()
	defer a.mu.Unlock()

	now := time.Now()
	if a.runs == 0 {
		a.since = now
	}
	a.runs++
	a.lastRun = now
	a.report.Counts.Merge(r.Counts)
	a.report.Total += r.Total
	a.report.Rows += r.Rows
	a.report.Cells += r.Cells
}

// Snapshot returns the current totals.
func (a *Accumulator) Snapshot() Totals {
	a.mu.Lock()
	defer a.mu.Unlock()

	return Totals{
		Runs:    a.runs,
		Counts:  a.report.Counts,
		Total:   a.report.Total,
		Rows:    a.report.Rows,
		Cells:   a.report.Cells,
		Since:   a.since,
		LastRun: a.lastRun,
	}
}

// Reset clears all totals.
func (a *Accumulator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.runs = 0
	a.report = Report{}
	a.since = time.Time{}
	a.lastRun = time.Time{}
}

package core

import (
	"errors"
	"sync"
	"testing"
)

func TestReport_AddCell(t *testing.T) {
	var r Report
	var dirty Counts
	dirty.Add(Comma, 2)
	dirty.Add(Newline, 1)

	r.AddCell(dirty)
	r.AddCell(Counts{})

	if r.TextCells != 2 || r.ChangedCells != 1 {
		t.Errorf("TextCells/ChangedCells = %d/%d, want 2/1", r.TextCells, r.ChangedCells)
	}
	if r.Total != 3 || r.Count(Comma) != 2 || r.Count(Newline) != 1 {
		t.Errorf("report = %+v", r)
	}
	if !r.Consistent() {
		t.Error("report should be consistent")
	}
}

func TestReport_Merge(t *testing.T) {
	var a, b Report
	var c Counts
	c.Add(SingleQuote, 4)
	a.AddCell(c)
	a.Rows, a.Cells = 1, 3
	b.AddCell(c)
	b.Rows, b.Cells = 2, 5
	b.Warn(ErrEmptyTable)

	ab, ba := a, b
	ab.Merge(b)
	ba.Merge(a)

	if ab.Total != 8 || ab.Rows != 3 || ab.Cells != 8 || ab.Count(SingleQuote) != 8 {
		t.Errorf("merged report = %+v", ab)
	}
	if ab.Counts != ba.Counts || ab.Total != ba.Total || ab.Rows != ba.Rows {
		t.Error("Merge should be commutative over counts")
	}
	if len(ab.Warnings) != 1 {
		t.Errorf("Warnings = %+v, want 1", ab.Warnings)
	}
}

func TestReport_WarningCap(t *testing.T) {
	old := MaxWarnings
	MaxWarnings = 2
	defer func() { MaxWarnings = old }()

	var r Report
	for i := 0; i < 5; i++ {
		r.Warn(errors.New("something"))
	}
	if len(r.Warnings) != 2 || r.DroppedWarnings != 3 {
		t.Errorf("Warnings/Dropped = %d/%d, want 2/3", len(r.Warnings), r.DroppedWarnings)
	}

	var other Report
	other.Warn(errors.New("more"))
	r.Merge(other)
	if len(r.Warnings) != 2 || r.DroppedWarnings != 4 {
		t.Errorf("after merge Warnings/Dropped = %d/%d, want 2/4", len(r.Warnings), r.DroppedWarnings)
	}
	if r.Warnings[0].Code != "CLN000" {
		t.Errorf("generic warning code = %q, want CLN000", r.Warnings[0].Code)
	}
}

func TestAccumulator(t *testing.T) {
	var acc Accumulator

	if snap := acc.Snapshot(); snap.Runs != 0 || !snap.Since.IsZero() {
		t.Errorf("zero Accumulator snapshot = %+v", snap)
	}

	_, report := Process(TextTable([][]string{{"a,b", "c\"d"}}))

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			acc.Add(report)
		}()
	}
	wg.Wait()

	snap := acc.Snapshot()
	if snap.Runs != 10 || snap.Total != 20 || snap.Rows != 10 || snap.Cells != 20 {
		t.Errorf("snapshot = %+v", snap)
	}
	if snap.Counts.Get(Comma) != 10 || snap.Counts.Get(DoubleQuote) != 10 {
		t.Errorf("counts = %v", snap.Counts.Map())
	}
	if snap.Since.IsZero() || snap.LastRun.Before(snap.Since) {
		t.Errorf("Since/LastRun = %v/%v", snap.Since, snap.LastRun)
	}

	acc.Reset()
	if snap := acc.Snapshot(); snap.Runs != 0 || snap.Total != 0 {
		t.Errorf("after Reset snapshot = %+v", snap)
	}
}

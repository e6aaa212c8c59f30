package core

// aggregate.go drives the cleaning engine over a whole table.
//
// Cells are visited in row-major order. Text cells are cleaned, every other
// kind is copied through unchanged. The input table is never modified; the
// cleaned table is a new value of identical shape.

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// ContextCheckInterval is how often (in rows) ProcessContext checks for
// cancellation on the sequential path.
var ContextCheckInterval = 100

// minRowsPerWorker keeps small tables on the sequential path.
const minRowsPerWorker = 256

// ProcessOptions tunes a cleaning run.
type ProcessOptions struct {
	// PreserveHeader copies row 0 through unchanged and uncounted.
	PreserveHeader bool

	// Workers > 1 cleans blocks of rows concurrently. Results are identical
	// to the sequential path.
	Workers int
}

// Process cleans every text cell of t and returns the cleaned table and the
// run report. It never fails.
func Process(t Table) (Table, Report) {
	out, report, _ := ProcessContext(context.Background(), t, ProcessOptions{})
	return out, report
}

// ProcessWith is Process with options.
func ProcessWith(t Table, opts ProcessOptions) (Table, Report) {
	out, report, _ := ProcessContext(context.Background(), t, opts)
	return out, report
}

// ProcessContext is ProcessWith that stops early when ctx is done. The only
// error it returns is the context's.
func ProcessContext(ctx context.Context, t Table, opts ProcessOptions) (Table, Report, error) {
	out := Table{Name: t.Name, Rows: make([]Row, len(t.Rows))}
	var report Report

	if len(t.Rows) == 0 {
		report.Warn(ErrEmptyTable)
		return out, report, nil
	}

	workers := opts.Workers
	if workers > 1 && len(t.Rows) >= workers*minRowsPerWorker {
		if err := processParallel(ctx, t, out, &report, opts, workers); err != nil {
			return out, report, err
		}
		return out, report, nil
	}

	for i := range t.Rows {
		if i%ContextCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return out, report, fmt.Errorf("cleaning cancelled at row %d: %w", i+1, err)
			}
		}
		out.Rows[i] = cleanRow(i, t.Rows[i], &report, opts.PreserveHeader && i == 0)
	}
	return out, report, nil
}

// processParallel splits t into one contiguous block per worker. Each block
// fills its own slice of out and its own Report; reports are merged in block
// order so warnings stay in row-major order.
func processParallel(ctx context.Context, t Table, out Table, report *Report, opts ProcessOptions, workers int) error {
	blockSize := (len(t.Rows) + workers - 1) / workers
	partials := make([]Report, 0, workers)
	for start := 0; start < len(t.Rows); start += blockSize {
		partials = append(partials, Report{})
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for b := range partials {
		start := b * blockSize
		end := min(start+blockSize, len(t.Rows))
		part := &partials[b]
		g.Go(func() error {
			for i := start; i < end; i++ {
				if (i-start)%ContextCheckInterval == 0 {
					if err := gctx.Err(); err != nil {
						return fmt.Errorf("cleaning cancelled at row %d: %w", i+1, err)
					}
				}
				out.Rows[i] = cleanRow(i, t.Rows[i], part, opts.PreserveHeader && i == 0)
			}
			return nil
		})
	}
	err := g.Wait()

	for _, p := range partials {
		report.Merge(p)
	}
	return err
}

// cleanRow cleans one row into a new Row and folds its counts into report.
func cleanRow(rowIdx int, row Row, report *Report, passThrough bool) Row {
	report.Rows++
	report.Cells += len(row)

	cleaned := make(Row, len(row))
	if passThrough {
		copy(cleaned, row)
		return cleaned
	}

	for j, cell := range row {
		switch cell.Kind {
		case KindText:
			value, counts := Clean(cell.Text)
			report.AddCell(counts)
			cleaned[j] = Text(value)
		case KindInvalid:
			report.SkippedCells++
			report.Warn(&MalformedCellError{Row: rowIdx, Column: j, Err: cell.Err})
			cleaned[j] = cell
		default:
			cleaned[j] = cell
		}
	}
	return cleaned
}

package core

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// CellKind tags the variant held by a Cell.
type CellKind int

const (
	KindEmpty CellKind = iota
	KindText
	KindNumber
	KindInvalid // value could not be coerced to text
)

func (k CellKind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindText:
		return "text"
	case KindNumber:
		return "number"
	case KindInvalid:
		return "invalid"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Cell is one table position's value. Only Text cells are cleaned.
type Cell struct {
	Kind CellKind
	Text string  // KindText value, or the source spelling of a KindNumber
	Num  float64 // KindNumber value
	Raw  any     // KindInvalid source value
	Err  error   // KindInvalid coercion failure
}

// Text returns a text cell.
func Text(s string) Cell {
	return Cell{Kind: KindText, Text: s}
}

// Number returns a numeric cell. The source spelling is derived from f.
func Number(f float64) Cell {
	return Cell{Kind: KindNumber, Num: f, Text: strconv.FormatFloat(f, 'f', -1, 64)}
}

// Empty returns an empty cell.
func Empty() Cell {
	return Cell{Kind: KindEmpty}
}

// Invalid returns a cell holding a value that could not be read as text.
func Invalid(raw any, err error) Cell {
	return Cell{Kind: KindInvalid, Raw: raw, Err: err}
}

// NewCell coerces an arbitrary reader value into a Cell. Values that have no
// text form become KindInvalid rather than failing.
func NewCell(v any) Cell {
	switch x := v.(type) {
	case nil:
		return Empty()
	case Cell:
		return x
	case string:
		// Bytes that are not valid UTF-8 are still text; Clean removes
		// each one as NonPrintable.
		if x == "" {
			return Empty()
		}
		return Text(x)
	case []byte:
		return NewCell(string(x))
	case float64:
		if math.IsNaN(x) {
			return Empty()
		}
		return Number(x)
	case float32:
		return NewCell(float64(x))
	case int:
		return Number(float64(x))
	case int32:
		return Number(float64(x))
	case int64:
		return Number(float64(x))
	case uint:
		return Number(float64(x))
	case uint32:
		return Number(float64(x))
	case uint64:
		return Number(float64(x))
	case bool:
		return Text(strconv.FormatBool(x))
	case time.Time:
		if x.IsZero() {
			return Empty()
		}
		return Text(x.Format(time.RFC3339))
	case fmt.Stringer:
		return NewCell(x.String())
	default:
		return Invalid(v, fmt.Errorf("unsupported cell value type %T", v))
	}
}

// String returns the value as it should be written back out.
func (c Cell) String() string {
	switch c.Kind {
	case KindText, KindNumber:
		return c.Text
	case KindInvalid:
		if s, ok := c.Raw.(string); ok {
			return s
		}
		if c.Raw == nil {
			return ""
		}
		return fmt.Sprint(c.Raw)
	default:
		return ""
	}
}

// Row is an ordered sequence of cells.
type Row []Cell

// Table is an ordered sequence of rows. Rows may have different lengths.
type Table struct {
	Name string // source sheet name, if any
	Rows []Row
}

// NewTable builds a Table from raw reader values.
func NewTable(values [][]any) Table {
	t := Table{Rows: make([]Row, len(values))}
	for i, vals := range values {
		row := make(Row, len(vals))
		for j, v := range vals {
			row[j] = NewCell(v)
		}
		t.Rows[i] = row
	}
	return t
}

// TextTable builds a Table of text cells from string records, as produced by
// delimited text readers. Empty strings become empty cells.
func TextTable(records [][]string) Table {
	t := Table{Rows: make([]Row, len(records))}
	for i, rec := range records {
		row := make(Row, len(rec))
		for j, s := range rec {
			row[j] = NewCell(s)
		}
		t.Rows[i] = row
	}
	return t
}

// Len returns the number of rows.
func (t Table) Len() int {
	return len(t.Rows)
}

// CellCount returns the number of cells across all rows.
func (t Table) CellCount() int {
	n := 0
	for _, row := range t.Rows {
		n += len(row)
	}
	return n
}

// Records returns the table as string records for writers.
func (t Table) Records() [][]string {
	out := make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		rec := make([]string, len(row))
		for j, c := range row {
			rec[j] = c.String()
		}
		out[i] = rec
	}
	return out
}

// SameShape reports whether a and b have the same row count and, per row,
// the same column count.
func SameShape(a, b Table) bool {
	if len(a.Rows) != len(b.Rows) {
		return false
	}
	for i := range a.Rows {
		if len(a.Rows[i]) != len(b.Rows[i]) {
			return false
		}
	}
	return true
}

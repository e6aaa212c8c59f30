package core

import (
	"errors"
	"fmt"
)

// ErrEmptyTable is recorded as a warning when a table has no rows.
// The run still completes with an all-zero report.
var ErrEmptyTable = errors.New("empty table: no rows to clean")

// MalformedCellError describes a cell whose value could not be read as text.
// It is never fatal: the cell is passed through unchanged and counts zero.
type MalformedCellError struct {
	Row    int // zero-based
	Column int // zero-based
	Err    error
}

func (e *MalformedCellError) Error() string {
	return fmt.Sprintf("malformed cell at row %d, column %d: %v", e.Row+1, e.Column+1, e.Err)
}

func (e *MalformedCellError) Unwrap() error {
	return e.Err
}

// Warning is a non-fatal condition recorded during a run.
type Warning struct {
	Code    string `json:"code"`
	Row     int    `json:"row,omitempty"`    // one-based, 0 when not cell specific
	Column  int    `json:"column,omitempty"` // one-based, 0 when not cell specific
	Message string `json:"message"`
}

// Warning codes.
const (
	WarnEmptyTable    = "CLN001"
	WarnMalformedCell = "CLN002"
)

func warningFor(err error) Warning {
	var mce *MalformedCellError
	switch {
	case errors.As(err, &mce):
		return Warning{
			Code:    WarnMalformedCell,
			Row:     mce.Row + 1,
			Column:  mce.Column + 1,
			Message: err.Error(),
		}
	case errors.Is(err, ErrEmptyTable):
		return Warning{Code: WarnEmptyTable, Message: err.Error()}
	default:
		return Warning{Code: "CLN000", Message: err.Error()}
	}
}

package tabular

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/JonMunkholm/cleanfile/internal/core"
)

// nullLiterals are spellings that spreadsheet and dataframe exports use for
// missing values. They are read as empty cells.
var nullLiterals = map[string]bool{
	"nan": true, "NaN": true, "-nan": true, "-NaN": true,
	"NaT": true, "<NA>": true, "None": true,
	"NULL": true, "null": true,
	"#N/A": true, "#NA": true, "N/A": true, "n/a": true, "NA": true,
}

// IsNullLiteral reports whether s is a missing-value spelling.
func IsNullLiteral(s string) bool {
	return nullLiterals[s]
}

// ReadDelimited parses comma or tab separated text. The delimiter is sniffed
// from the first line. If the sniffed delimiter yields rows of differing
// lengths and the other delimiter splits every row into the same number of
// columns (more than one), the other one wins. Otherwise the
// sniffed delimiter is used and ragged rows are kept as they are.
func ReadDelimited(r io.Reader, opts ReadOptions) (core.Table, rune, error) {
	data, err := readAll(skipBOM(r), opts.MaxSize)
	if err != nil {
		return core.Table{}, 0, err
	}

	delim := sniffDelimiter(data)
	records, strictErr := parseDelimited(data, delim, true)
	if strictErr != nil {
		alt := otherDelimiter(delim)
		if altRecords, err := parseDelimited(data, alt, true); err == nil && len(altRecords) > 0 && len(altRecords[0]) > 1 {
			records, delim = altRecords, alt
		} else {
			var lenientErr error
			records, lenientErr = parseDelimited(data, delim, false)
			if lenientErr != nil {
				return core.Table{}, 0, fmt.Errorf("parse delimited text: %w", errors.Join(strictErr, lenientErr))
			}
		}
	}

	t := core.Table{Rows: make([]core.Row, len(records))}
	for i, rec := range records {
		row := make(core.Row, len(rec))
		for j, s := range rec {
			if !opts.KeepNullLiterals && IsNullLiteral(s) {
				row[j] = core.Empty()
				continue
			}
			row[j] = core.NewCell(s)
		}
		t.Rows[i] = row
	}
	return t, delim, nil
}

// parseDelimited reads every record. strict requires all records to have the
// field count of the first.
func parseDelimited(data []byte, delim rune, strict bool) ([][]string, error) {
	cr := csv.NewReader(bytes.NewReader(data))
	cr.Comma = delim
	cr.LazyQuotes = true
	if !strict {
		cr.FieldsPerRecord = -1
	}
	return cr.ReadAll()
}

// sniffDelimiter picks tab when the first line has more tabs than commas.
func sniffDelimiter(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}
	if bytes.Count(line, []byte{'\t'}) > bytes.Count(line, []byte{','}) {
		return '\t'
	}
	return ','
}

func otherDelimiter(d rune) rune {
	if d == '\t' {
		return ','
	}
	return '\t'
}

// WriteDelimited writes t as tab-separated text.
func WriteDelimited(w io.Writer, t core.Table) error {
	cw := csv.NewWriter(w)
	cw.Comma = '\t'
	if err := cw.WriteAll(t.Records()); err != nil {
		return fmt.Errorf("write delimited text: %w", err)
	}
	return nil
}

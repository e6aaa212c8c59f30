package tabular

import (
	"bytes"
	"fmt"
	"io"
	"strconv"

	"github.com/JonMunkholm/cleanfile/internal/core"
	"github.com/extrame/xls"
)

// ReadXLS reads the first worksheet of a legacy BIFF (.xls) workbook.
// The format carries no reliable per-cell type, so values that parse as
// numbers become number cells and everything else text.
func ReadXLS(r io.Reader, opts ReadOptions) (t core.Table, err error) {
	data, err := readAll(r, opts.MaxSize)
	if err != nil {
		return core.Table{}, err
	}

	// The BIFF decoder panics on some truncated files.
	defer func() {
		if p := recover(); p != nil {
			t, err = core.Table{}, fmt.Errorf("open legacy workbook: malformed file: %v", p)
		}
	}()

	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return core.Table{}, fmt.Errorf("open legacy workbook: %w", err)
	}
	if wb.NumSheets() == 0 {
		return core.Table{}, nil
	}
	sheet := wb.GetSheet(0)
	if sheet == nil {
		return core.Table{}, nil
	}

	t = core.Table{Name: sheet.Name}
	last := -1
	for i := 0; i <= int(sheet.MaxRow); i++ {
		src := sheet.Row(i)
		if src == nil {
			t.Rows = append(t.Rows, core.Row{})
			continue
		}
		last = i
		row := make(core.Row, src.LastCol())
		for j := range row {
			row[j] = xlsCell(src.Col(j), opts)
		}
		t.Rows = append(t.Rows, row)
	}
	// Trailing missing rows are padding, not data.
	t.Rows = t.Rows[:last+1]
	return t, nil
}

func xlsCell(raw string, opts ReadOptions) core.Cell {
	if raw == "" {
		return core.Empty()
	}
	if !opts.KeepNullLiterals && IsNullLiteral(raw) {
		return core.Empty()
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return core.Cell{Kind: core.KindNumber, Num: f, Text: raw}
	}
	return core.NewCell(raw)
}

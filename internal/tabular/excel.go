package tabular

import (
	"bytes"
	"fmt"
	"io"
	"strconv"

	"github.com/JonMunkholm/cleanfile/internal/core"
	"github.com/xuri/excelize/v2"
)

// DefaultSheetName is used when writing a table that has no source sheet name.
const DefaultSheetName = "Sheet1"

// ReadXLSX reads the first worksheet of an .xlsx/.xlsm workbook.
func ReadXLSX(r io.Reader, opts ReadOptions) (core.Table, error) {
	data, err := readAll(r, opts.MaxSize)
	if err != nil {
		return core.Table{}, err
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return core.Table{}, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return core.Table{}, nil
	}
	sheet := sheets[0]

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return core.Table{}, fmt.Errorf("read sheet %q: %w", sheet, err)
	}

	t := core.Table{Name: sheet, Rows: make([]core.Row, len(rows))}
	for i, values := range rows {
		row := make(core.Row, len(values))
		for j, raw := range values {
			name, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				row[j] = core.Invalid(raw, err)
				continue
			}
			typ, err := f.GetCellType(sheet, name)
			if err != nil {
				row[j] = core.Invalid(raw, err)
				continue
			}
			row[j] = xlsxCell(typ, raw, opts)
		}
		t.Rows[i] = row
	}
	return t, nil
}

// xlsxCell maps a stored cell to the Cell variant it represents.
func xlsxCell(typ excelize.CellType, raw string, opts ReadOptions) core.Cell {
	if raw == "" {
		return core.Empty()
	}
	switch typ {
	case excelize.CellTypeError:
		// #N/A, #DIV/0! and friends carry no data.
		return core.Empty()
	case excelize.CellTypeBool:
		if raw == "1" {
			return core.Text("TRUE")
		}
		return core.Text("FALSE")
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString, excelize.CellTypeFormula, excelize.CellTypeDate:
		if !opts.KeepNullLiterals && IsNullLiteral(raw) {
			return core.Empty()
		}
		return core.NewCell(raw)
	default:
		// Numbers are usually stored without a type attribute.
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			return core.Cell{Kind: core.KindNumber, Num: f, Text: raw}
		}
		return core.NewCell(raw)
	}
}

// WriteXLSX writes t as a single-sheet .xlsx workbook.
func WriteXLSX(w io.Writer, t core.Table) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := DefaultSheetName
	if t.Name != "" && t.Name != DefaultSheetName {
		if err := f.SetSheetName(DefaultSheetName, t.Name); err != nil {
			return fmt.Errorf("name sheet %q: %w", t.Name, err)
		}
		sheet = t.Name
	}

	for i, row := range t.Rows {
		if len(row) == 0 {
			continue
		}
		values := make([]any, len(row))
		for j, c := range row {
			switch c.Kind {
			case core.KindNumber:
				values[j] = c.Num
			case core.KindEmpty:
				values[j] = nil
			default:
				values[j] = c.String()
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

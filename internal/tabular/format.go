// Package tabular reads and writes the file formats the cleaner accepts:
// Excel workbooks (.xlsx, .xlsm, legacy .xls) and delimited text (.csv, .txt,
// comma or tab separated).
//
// Readers load the whole file into a core.Table; writers persist a cleaned
// table in the output format that matches the input family. Excel inputs are
// written as .xlsx, delimited inputs as tab-separated .txt.
package tabular

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Format identifies a supported input family.
type Format int

const (
	FormatUnknown Format = iota
	FormatXLSX
	FormatXLS
	FormatDelimited
)

func (f Format) String() string {
	switch f {
	case FormatXLSX:
		return "xlsx"
	case FormatXLS:
		return "xls"
	case FormatDelimited:
		return "delimited"
	default:
		return "unknown"
	}
}

// IsExcel reports whether f is one of the workbook formats.
func (f Format) IsExcel() bool {
	return f == FormatXLSX || f == FormatXLS
}

// OutputExtension returns the extension cleaned files of this family are
// written with.
func (f Format) OutputExtension() string {
	if f.IsExcel() {
		return ".xlsx"
	}
	return ".txt"
}

// ContentType returns the MIME type of the cleaned output.
func (f Format) ContentType() string {
	if f.IsExcel() {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/tab-separated-values; charset=utf-8"
}

var (
	// ErrUnsupportedFormat is returned for files that are not Excel, text or CSV.
	ErrUnsupportedFormat = errors.New("unsupported file type: must be Excel, Text as comma or tab delimited, or CSV")

	// ErrEmptyFile is returned when the input has no bytes.
	ErrEmptyFile = errors.New("empty file")

	// ErrFileTooLarge is returned when the input exceeds the configured size.
	ErrFileTooLarge = errors.New("file too large")
)

// DetectFormat returns the format implied by the file extension.
func DetectFormat(filename string) (Format, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	case ".xls":
		return FormatXLS, nil
	case ".csv", ".txt", ".tsv":
		return FormatDelimited, nil
	default:
		return FormatUnknown, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Base(filename))
	}
}

// OutputPath joins folder and name and forces the extension of format.
// Any extension already present on name is replaced.
func OutputPath(folder, name string, format Format) string {
	base := filepath.Base(name)
	if ext := filepath.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	return filepath.Join(folder, base+format.OutputExtension())
}

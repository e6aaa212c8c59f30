package tabular

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		filename string
		want     Format
		wantErr  bool
	}{
		{"report.xlsx", FormatXLSX, false},
		{"REPORT.XLSX", FormatXLSX, false},
		{"macros.xlsm", FormatXLSX, false},
		{"old.xls", FormatXLS, false},
		{"data.csv", FormatDelimited, false},
		{"data.txt", FormatDelimited, false},
		{"data.tsv", FormatDelimited, false},
		{"/tmp/dir.with.dots/data.csv", FormatDelimited, false},
		{"notes.pdf", FormatUnknown, true},
		{"noextension", FormatUnknown, true},
	}
	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			got, err := DetectFormat(tt.filename)
			if got != tt.want {
				t.Errorf("DetectFormat(%q) = %s, want %s", tt.filename, got, tt.want)
			}
			if tt.wantErr && !errors.Is(err, ErrUnsupportedFormat) {
				t.Errorf("DetectFormat(%q) err = %v, want ErrUnsupportedFormat", tt.filename, err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("DetectFormat(%q) unexpected err: %v", tt.filename, err)
			}
		})
	}
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		name   string
		folder string
		file   string
		format Format
		want   string
	}{
		{"excel gets xlsx", "out", "cleaned", FormatXLSX, filepath.Join("out", "cleaned.xlsx")},
		{"legacy excel gets xlsx", "out", "cleaned", FormatXLS, filepath.Join("out", "cleaned.xlsx")},
		{"csv gets txt", "out", "cleaned", FormatDelimited, filepath.Join("out", "cleaned.txt")},
		{"extension replaced", "out", "cleaned.csv", FormatDelimited, filepath.Join("out", "cleaned.txt")},
		{"directories in name ignored", "out", "../../etc/cleaned", FormatXLSX, filepath.Join("out", "cleaned.xlsx")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := OutputPath(tt.folder, tt.file, tt.format); got != tt.want {
				t.Errorf("OutputPath() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormat_Output(t *testing.T) {
	if FormatXLS.OutputExtension() != ".xlsx" || FormatDelimited.OutputExtension() != ".txt" {
		t.Error("unexpected output extensions")
	}
	if !FormatXLS.IsExcel() || FormatDelimited.IsExcel() {
		t.Error("IsExcel mismatch")
	}
}

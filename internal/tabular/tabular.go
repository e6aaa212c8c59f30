package tabular

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/JonMunkholm/cleanfile/internal/core"
)

// ReadOptions controls how input files are loaded.
type ReadOptions struct {
	// MaxSize rejects inputs larger than this many bytes. 0 means unlimited.
	MaxSize int64

	// KeepNullLiterals reads "nan", "NaT", "#N/A" and similar as text instead
	// of empty cells.
	KeepNullLiterals bool
}

// Source describes a file that was read.
type Source struct {
	Format    Format
	Delimiter rune // delimited inputs only
}

// Read loads r as the format implied by filename.
func Read(r io.Reader, filename string, opts ReadOptions) (core.Table, Source, error) {
	format, err := DetectFormat(filename)
	if err != nil {
		return core.Table{}, Source{}, err
	}

	src := Source{Format: format}
	var t core.Table
	switch format {
	case FormatXLSX:
		t, err = ReadXLSX(r, opts)
	case FormatXLS:
		t, err = ReadXLS(r, opts)
	case FormatDelimited:
		t, src.Delimiter, err = ReadDelimited(r, opts)
	}
	if err != nil {
		return core.Table{}, src, fmt.Errorf("read %s: %w", filepath.Base(filename), err)
	}
	return t, src, nil
}

// ReadFile opens and reads the file at path.
func ReadFile(path string, opts ReadOptions) (core.Table, Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return core.Table{}, Source{}, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	if opts.MaxSize > 0 {
		if info, err := f.Stat(); err == nil && info.Size() > opts.MaxSize {
			return core.Table{}, Source{}, fmt.Errorf("%w: %d bytes exceeds %d", ErrFileTooLarge, info.Size(), opts.MaxSize)
		}
	}
	return Read(f, path, opts)
}

// Write writes t in the output format of format's family.
func Write(w io.Writer, t core.Table, format Format) error {
	if format.IsExcel() {
		return WriteXLSX(w, t)
	}
	return WriteDelimited(w, t)
}

// WriteFile writes t to path. The file is written to a temporary name in the
// same directory and renamed into place, so a failed write never leaves a
// partial output behind.
func WriteFile(path string, t core.Table, format Format) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".cleanfile-*")
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if err := Write(tmp, t, format); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod output: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close output: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("move output into place: %w", err)
	}
	return nil
}

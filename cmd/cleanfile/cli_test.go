package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/JonMunkholm/cleanfile/internal/store"
	"github.com/spf13/cobra"
)

// execute runs the root command with args and returns stdout and the error.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_URL", "")

	var stdout, stderr bytes.Buffer
	root := newRootCmd()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)

	err := root.Execute()
	return stdout.String(), err
}

func writeInput(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	return path
}

// ============================================================================
// clean
// ============================================================================

func TestCleanCmd(t *testing.T) {
	input := writeInput(t, "customers.csv", "name,note\n\"  O'Brien, Pat \",\"said \"\"hi\"\"\"\n")
	out := t.TempDir()

	stdout, err := execute(t, "clean", input, "--out", out, "--name", "result", "--log-level", "error")
	if err != nil {
		t.Fatalf("clean: %v", err)
	}

	for _, want := range []string{
		"Total count of bad characters: 7\n",
		"Individual character counts:\n",
		filepath.Join(out, "result.txt"),
	} {
		if !strings.Contains(stdout, want) {
			t.Errorf("stdout missing %q:\n%s", want, stdout)
		}
	}

	data, err := os.ReadFile(filepath.Join(out, "result.txt"))
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if got, want := string(data), "name\tnote\nOBrien Pat\tsaid hi\n"; got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestCleanCmd_DefaultsToInputFolder(t *testing.T) {
	input := writeInput(t, "data.txt", "a\tb\n")

	if _, err := execute(t, "clean", input, "--preserve-header", "--workers", "2"); err != nil {
		t.Fatalf("clean: %v", err)
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(input), "data_cleaned.txt")); err != nil {
		t.Errorf("default output missing: %v", err)
	}
}

func TestCleanCmd_Header(t *testing.T) {
	const input = "Name, Full\tAmount\nACME, Inc.\t1,000\n"

	tests := []struct {
		name string
		env  string
		args []string
		want string
	}{
		{"kept by default", "", nil, "Name, Full\tAmount\nACME Inc.\t1000\n"},
		{"flag cleans it", "", []string{"--preserve-header=false"}, "Name Full\tAmount\nACME Inc.\t1000\n"},
		{"env cleans it", "false", nil, "Name Full\tAmount\nACME Inc.\t1000\n"},
		{"flag overrides env", "false", []string{"--preserve-header"}, "Name, Full\tAmount\nACME Inc.\t1000\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("CLEAN_PRESERVE_HEADER", tt.env)
			in := writeInput(t, "data.txt", input)
			args := append([]string{"clean", in, "--log-level", "error"}, tt.args...)
			if _, err := execute(t, args...); err != nil {
				t.Fatalf("clean: %v", err)
			}
			data, err := os.ReadFile(filepath.Join(filepath.Dir(in), "data_cleaned.txt"))
			if err != nil {
				t.Fatalf("read output: %v", err)
			}
			if got := string(data); got != tt.want {
				t.Errorf("output = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCleanCmd_Errors(t *testing.T) {
	dir := t.TempDir()
	existing := writeInput(t, "in.csv", "a,b\n")

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing input", []string{"clean", filepath.Join(dir, "nope.csv")}, "Code: FILE008"},
		{"missing folder", []string{"clean", existing, "--out", filepath.Join(dir, "nope")}, "Code: FILE008"},
		{"unsupported", []string{"clean", writeInput(t, "notes.pdf", "x")}, "Code: FILE002"},
		{"overwrite input", []string{"clean", writeInput(t, "same.txt", "x\n"), "--name", "same"}, "Code: FILE008"},
		{"no args", []string{"clean"}, "accepts 1 arg"},
		{"record without database", []string{"clean", existing, "--record"}, "Code: RUN005"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want it to contain %q", err, tt.want)
			}
		})
	}
}

// ============================================================================
// history
// ============================================================================

func TestHistoryCmd_Disabled(t *testing.T) {
	_, err := execute(t, "history")
	if err == nil || !strings.Contains(err.Error(), "RUN005") {
		t.Errorf("err = %v, want RUN005", err)
	}
}

func TestPrintHistory(t *testing.T) {
	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)

	page := &store.Page{
		Records: []store.Record{
			{FileName: "a.csv", OutputName: "a_cleaned.txt", Rows: 3, Total: 5, CreatedAt: time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)},
		},
		TotalCount: 4,
		Limit:      1,
	}
	if err := printHistory(cmd, page, 12, 4); err != nil {
		t.Fatalf("printHistory: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"Total count of bad characters: 12 across 4 run(s)", "a_cleaned.txt", "3 more; use --offset 1"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

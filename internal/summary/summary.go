// Package summary renders a cleaning report for people to read.
package summary

import (
	"fmt"
	"strings"

	"github.com/JonMunkholm/cleanfile/internal/core"
)

// Line is one category row of a summary.
type Line struct {
	Category core.Category `json:"category"`
	Name     string        `json:"name"`
	Label    string        `json:"label"`
	Count    int           `json:"count"`
}

// Lines returns the non-zero categories of c in display order.
func Lines(c core.Counts) []Line {
	var lines []Line
	for _, cat := range core.Categories() {
		if n := c.Get(cat); n > 0 {
			lines = append(lines, Line{Category: cat, Name: cat.String(), Label: cat.Label(), Count: n})
		}
	}
	return lines
}

// Headline is the one-line total shown after every run.
func Headline(total int) string {
	return fmt.Sprintf("Total count of bad characters: %d", total)
}

// Text renders the full summary: the headline, then one line per category
// that removed anything.
func Text(r core.Report) string {
	var b strings.Builder
	b.WriteString(Headline(r.Total))
	b.WriteString("\n")

	lines := Lines(r.Counts)
	if len(lines) > 0 {
		b.WriteString("\nIndividual character counts:\n")
		for _, l := range lines {
			fmt.Fprintf(&b, "%s: %d\n", l.Label, l.Count)
		}
	}

	if r.SkippedCells > 0 {
		fmt.Fprintf(&b, "\n%d cell(s) could not be read as text and were left unchanged.\n", r.SkippedCells)
	}
	return b.String()
}

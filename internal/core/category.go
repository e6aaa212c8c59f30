package core

import (
	"encoding/json"
	"fmt"
)

// Category classifies a removed character. Every removed character is counted
// under exactly one category.
type Category int

const (
	Comma Category = iota
	DoubleQuote
	SingleQuote
	CarriageReturn
	Newline
	OtherControlChar
	NonPrintable
	LeadingWhitespace
	TrailingWhitespace

	numCategories
)

// categoryNames are the stable machine names used in JSON and persisted history.
var categoryNames = [numCategories]string{
	Comma:              "comma",
	DoubleQuote:        "double_quote",
	SingleQuote:        "single_quote",
	CarriageReturn:     "carriage_return",
	Newline:            "newline",
	OtherControlChar:   "control",
	NonPrintable:       "non_printable",
	LeadingWhitespace:  "leading_whitespace",
	TrailingWhitespace: "trailing_whitespace",
}

// categoryLabels are the human-readable names shown in summaries.
var categoryLabels = [numCategories]string{
	Comma:              "Comma (,)",
	DoubleQuote:        `Double quote (")`,
	SingleQuote:        "Single quote / apostrophe (')",
	CarriageReturn:     `Carriage return (\r)`,
	Newline:            `Newline (\n)`,
	OtherControlChar:   "Other control character",
	NonPrintable:       "Non-printable / non-ASCII",
	LeadingWhitespace:  "Leading whitespace",
	TrailingWhitespace: "Trailing whitespace",
}

// Categories returns every category in display order.
func Categories() []Category {
	cats := make([]Category, numCategories)
	for i := range cats {
		cats[i] = Category(i)
	}
	return cats
}

// Valid reports whether c is one of the defined categories.
func (c Category) Valid() bool {
	return c >= 0 && c < numCategories
}

// String returns the machine name of the category.
func (c Category) String() string {
	if !c.Valid() {
		return fmt.Sprintf("category(%d)", int(c))
	}
	return categoryNames[c]
}

// Label returns the display name of the category.
func (c Category) Label() string {
	if !c.Valid() {
		return c.String()
	}
	return categoryLabels[c]
}

// ParseCategory returns the category with the given machine name.
func ParseCategory(name string) (Category, bool) {
	for i, n := range categoryNames {
		if n == name {
			return Category(i), true
		}
	}
	return 0, false
}

// Counts holds per-category removal counts.
type Counts [numCategories]int

// Add increments the count for c by n.
func (c *Counts) Add(cat Category, n int) {
	c[cat] += n
}

// Merge adds every count in other into c.
func (c *Counts) Merge(other Counts) {
	for i := range c {
		c[i] += other[i]
	}
}

// Get returns the count for cat.
func (c Counts) Get(cat Category) int {
	if !cat.Valid() {
		return 0
	}
	return c[cat]
}

// Total returns the sum of all category counts.
func (c Counts) Total() int {
	total := 0
	for _, n := range c {
		total += n
	}
	return total
}

// IsZero reports whether nothing was counted.
func (c Counts) IsZero() bool {
	return c == Counts{}
}

// Map returns the non-zero counts keyed by category machine name.
func (c Counts) Map() map[string]int {
	m := make(map[string]int)
	for i, n := range c {
		if n != 0 {
			m[categoryNames[i]] = n
		}
	}
	return m
}

// MarshalJSON encodes every category, including zeros, keyed by machine name.
func (c Counts) MarshalJSON() ([]byte, error) {
	m := make(map[string]int, numCategories)
	for i, n := range c {
		m[categoryNames[i]] = n
	}
	return json.Marshal(m)
}

// UnmarshalJSON decodes counts keyed by machine name. Unknown keys are ignored.
func (c *Counts) UnmarshalJSON(data []byte) error {
	var m map[string]int
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*c = Counts{}
	for name, n := range m {
		if cat, ok := ParseCategory(name); ok {
			c[cat] = n
		}
	}
	return nil
}

package core

// clean.go is the character cleaning engine.
//
// A cell value is cleaned in three steps:
//  1. Edge whitespace runs are stripped.
//  2. Interior runes are classified against the ordered rule list and
//     removed on the first match.
//  3. Spaces exposed at the edges by step 2 are trimmed.
//
// Every removed rune is attributed to exactly one Category by the same
// rule list, so edge "\r" and "\n" count as CarriageReturn/Newline rather
// than edge whitespace.

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Position describes where a rune sits relative to the cleaned value.
type Position int

const (
	Interior Position = iota
	LeadingEdge
	TrailingEdge
)

// Rule maps a class of runes to the category it is counted under.
type Rule struct {
	Category Category
	match    func(r rune, pos Position) bool
}

// Matches reports whether the rule removes r at pos.
func (r Rule) Matches(c rune, pos Position) bool {
	return r.match(c, pos)
}

// rules is evaluated top to bottom; the first match wins.
var rules = []Rule{
	{CarriageReturn, func(r rune, _ Position) bool { return r == '\r' }},
	{Newline, func(r rune, _ Position) bool { return r == '\n' }},
	{LeadingWhitespace, func(r rune, pos Position) bool { return pos == LeadingEdge && unicode.IsSpace(r) }},
	{TrailingWhitespace, func(r rune, pos Position) bool { return pos == TrailingEdge && unicode.IsSpace(r) }},
	{Comma, func(r rune, _ Position) bool { return r == ',' }},
	{DoubleQuote, func(r rune, _ Position) bool { return r == '"' }},
	{SingleQuote, func(r rune, _ Position) bool { return r == '\'' }},
	{OtherControlChar, func(r rune, _ Position) bool { return r < 0x20 || r == 0x7F }},
	{NonPrintable, func(r rune, _ Position) bool { return r > 0x7E }},
}

// Rules returns a copy of the ordered rule list.
func Rules() []Rule {
	out := make([]Rule, len(rules))
	copy(out, rules)
	return out
}

// Classify returns the category r is removed under at pos, or false if r is kept.
func Classify(r rune, pos Position) (Category, bool) {
	// Fast path: printable ASCII in the interior is kept unless it is one of
	// the three punctuation characters.
	if pos == Interior && r >= 0x20 && r < 0x7F && r != ',' && r != '"' && r != '\'' {
		return 0, false
	}
	for _, rule := range rules {
		if rule.match(r, pos) {
			return rule.Category, true
		}
	}
	return 0, false
}

// Clean strips disallowed characters from raw and returns the cleaned value
// with the number of runes removed per category. It never fails.
func Clean(raw string) (string, Counts) {
	var counts Counts
	if raw == "" {
		return "", counts
	}

	// 1. Edge whitespace. A value that is only whitespace is all leading edge.
	start := 0
	for start < len(raw) {
		r, size := utf8.DecodeRuneInString(raw[start:])
		if !unicode.IsSpace(r) {
			break
		}
		countRemoved(&counts, r, LeadingEdge)
		start += size
	}
	end := len(raw)
	for end > start {
		r, size := utf8.DecodeLastRuneInString(raw[start:end])
		if !unicode.IsSpace(r) {
			break
		}
		countRemoved(&counts, r, TrailingEdge)
		end -= size
	}
	interior := raw[start:end]

	// 2. Interior scan.
	var b strings.Builder
	b.Grow(len(interior))
	for i := 0; i < len(interior); {
		r, size := utf8.DecodeRuneInString(interior[i:])
		i += size
		if cat, remove := Classify(r, Interior); remove {
			counts[cat]++
			continue
		}
		b.WriteRune(r)
	}
	cleaned := b.String()

	// 3. Only ASCII space can survive the interior pass as whitespace.
	if trimmed := strings.TrimLeft(cleaned, " "); len(trimmed) != len(cleaned) {
		counts[LeadingWhitespace] += len(cleaned) - len(trimmed)
		cleaned = trimmed
	}
	if trimmed := strings.TrimRight(cleaned, " "); len(trimmed) != len(cleaned) {
		counts[TrailingWhitespace] += len(cleaned) - len(trimmed)
		cleaned = trimmed
	}

	return cleaned, counts
}

// countRemoved attributes an edge rune to its category.
func countRemoved(counts *Counts, r rune, pos Position) {
	if cat, ok := Classify(r, pos); ok {
		counts[cat]++
	}
}

// IsClean reports whether s would be returned unchanged by Clean. It applies
// the same rule list, so undecodable bytes count as NonPrintable here too.
func IsClean(s string) bool {
	if s == "" {
		return true
	}
	first, _ := utf8.DecodeRuneInString(s)
	last, _ := utf8.DecodeLastRuneInString(s)
	if unicode.IsSpace(first) || unicode.IsSpace(last) {
		return false
	}
	for _, r := range s {
		if _, remove := Classify(r, Interior); remove {
			return false
		}
	}
	return true
}

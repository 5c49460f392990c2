package layout

import (
	"strconv"
	"strings"
	"unicode"
)

// NormalizeText collapses whitespace and lowercases. Used for raw text
// comparisons such as the "Description of Work" header check and week-label
// map keys.
func NormalizeText(value string) string {
	return strings.ToLower(strings.Join(strings.Fields(value), " "))
}

// NormalizeLabel lowercases and maps every non-alphanumeric run to a single
// space. This is the lenient form used to classify sub-header slots:
// "q-ty" -> "q ty", "Man/hour" -> "man hour".
func NormalizeLabel(value string) string {
	var b strings.Builder
	b.Grow(len(value))
	for _, r := range strings.ToLower(value) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			continue
		}
		b.WriteRune(' ')
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// NormalizeKey lowercases and drops every non-alphanumeric rune, spaces
// included. This is the single strict rule for cross-sheet row matching in
// both transfer variants: "Man/Hour", "man hour" and "MAN-HOUR" all collapse
// to "manhour".
func NormalizeKey(value string) string {
	var b strings.Builder
	b.Grow(len(value))
	for _, r := range strings.ToLower(value) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// CollapseSpaces trims and collapses inner whitespace without changing case.
// Section labels keep this form for display.
func CollapseSpaces(value string) string {
	return strings.Join(strings.Fields(value), " ")
}

// ParseNumber parses a cell value into a float, nil when the cell is blank or
// not numeric. Embedded spaces are thousands separators. A comma is a decimal
// mark unless a dot is also present, in which case the comma separates
// thousands: "1,5" -> 1.5, "1 234,5" -> 1234.5, "1,234.5" -> 1234.5.
// It never fails; unparseable text is simply nil.
func ParseNumber(raw string) *float64 {
	text := strings.TrimSpace(raw)
	if text == "" {
		return nil
	}
	text = strings.ReplaceAll(text, " ", "")
	if strings.Contains(text, ",") {
		if strings.Contains(text, ".") {
			text = strings.ReplaceAll(text, ",", "")
		} else {
			text = strings.ReplaceAll(text, ",", ".")
		}
	}
	value, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil
	}
	return &value
}

// Package sections groups sheet rows into logical work sections. A row whose
// key cell has text but whose watched data columns hold no parseable number
// is a section header; every data row after it belongs to that section until
// the next header. The walk is a single top-to-bottom fold carrying the
// current section label, nothing is cached between calls.
package sections

import (
	"costsync/layout"
	"costsync/xlsx"
)

// NoSection labels data rows that appear before the first section header.
// Such rows are attributed, never dropped.
const NoSection = "__NO_SECTION__"

// Row is one parsed data row. Section and RawKey keep their display form
// (whitespace collapsed); Key and SectionKey are the strict normalized forms
// used for cross-sheet matching. Values holds one parsed number per requested
// alias, nil for blank or non-numeric cells.
type Row struct {
	Index      int
	Section    string
	SectionKey string
	RawKey     string
	Key        string
	Values     map[string]*float64
}

// CompositeKey is the section-qualified match key.
func (r Row) CompositeKey() Key {
	return Key{Section: r.SectionKey, Material: r.Key}
}

// Key identifies a row for matching. Section is empty when matching by
// material name alone.
type Key struct {
	Section  string
	Material string
}

// Options controls one parse pass.
type Options struct {
	KeyColumn int
	StartRow  int
	// WatchedColumns are checked for numeric content to tell section headers
	// from data rows.
	WatchedColumns []int
	// ValueColumns maps an alias to the column extracted into Row.Values.
	ValueColumns map[string]int
	// DetectSections false treats every keyed row as data under NoSection.
	DetectSections bool
}

// Parse walks the sheet from StartRow to its last populated row and returns
// data rows in sheet order. Rows with a blank key are skipped; section header
// rows update the running section and emit nothing.
func Parse(sheet *xlsx.Sheet, opts Options) []Row {
	var rows []Row
	currentSection := NoSection
	maxRow := sheet.MaxRow()

	for r := opts.StartRow; r <= maxRow; r++ {
		rawKey := sheet.Cell(r, opts.KeyColumn)
		key := layout.NormalizeKey(rawKey)
		if key == "" {
			continue
		}

		if opts.DetectSections && isSectionHeader(sheet, r, opts.WatchedColumns) {
			currentSection = layout.CollapseSpaces(rawKey)
			continue
		}

		values := make(map[string]*float64, len(opts.ValueColumns))
		for alias, col := range opts.ValueColumns {
			values[alias] = layout.ParseNumber(sheet.Cell(r, col))
		}
		rows = append(rows, Row{
			Index:      r,
			Section:    currentSection,
			SectionKey: layout.NormalizeKey(currentSection),
			RawKey:     layout.CollapseSpaces(rawKey),
			Key:        key,
			Values:     values,
		})
	}
	return rows
}

// isSectionHeader: no watched column parses as a number.
func isSectionHeader(sheet *xlsx.Sheet, row int, watched []int) bool {
	for _, col := range watched {
		if layout.ParseNumber(sheet.Cell(row, col)) != nil {
			return false
		}
	}
	return true
}

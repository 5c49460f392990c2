// Package layout locates the repeating weekly column blocks and the first
// data row of a cost-tracking sheet. Detection is purely content-based: a
// merged 5-column label on the label row plus a matching sub-header pattern.
// There is no fixed schema beyond that convention.
package layout

import (
	"regexp"
	"sort"

	"costsync/xlsx"
)

// BlockWidth is the fixed week-block width: planned qty, planned manhours,
// actual qty, actual manhours, timesheet.
const BlockWidth = 5

// Grid carries the fixed row/column conventions of the tracked sheets.
type Grid struct {
	LabelRow     int // merged week labels, e.g. "WK8"
	HeaderRow    int // sub-headers: Q-ty / Man/hour / ... / Timesheet
	KeyColumn    int // "Description of Work"
	DataStartRow int // first candidate data row
	ScanWindow   int // lookahead cap for FindDataStartRow
}

// DefaultGrid matches the progress-report and cost-control templates.
func DefaultGrid() Grid {
	return Grid{
		LabelRow:     10,
		HeaderRow:    13,
		KeyColumn:    3,
		DataStartRow: 14,
		ScanWindow:   50,
	}
}

// WeekBlock is one detected 5-column group. Immutable once detected;
// EndCol is always StartCol+4.
type WeekBlock struct {
	Label    string
	StartCol int
	EndCol   int
}

func (b WeekBlock) PlannedQtyCol() int { return b.StartCol }
func (b WeekBlock) ActualQtyCol() int  { return b.StartCol + 2 }
func (b WeekBlock) TimesheetCol() int  { return b.StartCol + 4 }

var monthNames = map[string]bool{
	"january": true, "february": true, "march": true, "april": true,
	"may": true, "june": true, "july": true, "august": true,
	"september": true, "october": true, "november": true, "december": true,
}

// IsMonthLabel reports whether the normalized label is a bare month name.
// Month labels share the merged-cell convention but never head a week block.
func IsMonthLabel(label string) bool {
	return monthNames[NormalizeText(label)]
}

func isQtyHeader(value string) bool {
	text := NormalizeLabel(value)
	return text == "qty" || text == "q ty"
}

func isManhourHeader(value string) bool {
	switch NormalizeLabel(value) {
	case "m hour", "man hour", "man hours", "manhour":
		return true
	}
	return false
}

func isTimesheetHeader(value string) bool {
	switch NormalizeLabel(value) {
	case "timesheet", "time sheet", "timesheet hours", "timesheet h":
		return true
	}
	return false
}

// headerPatternMatches checks the 5-slot sub-header signature:
// qty, manhour, qty, manhour, timesheet.
func headerPatternMatches(values []string) bool {
	if len(values) != BlockWidth {
		return false
	}
	return isQtyHeader(values[0]) &&
		isManhourHeader(values[1]) &&
		isQtyHeader(values[2]) &&
		isManhourHeader(values[3]) &&
		isTimesheetHeader(values[4])
}

// DetectWeekBlocks finds week blocks on the sheet, ordered by start column.
// Merged label regions are tried first; when the sheet carries no usable
// merges (some exports flatten them) a linear 5-column window scan over the
// label row is the fallback.
func DetectWeekBlocks(sheet *xlsx.Sheet, grid Grid) []WeekBlock {
	blocks := detectFromMerges(sheet, grid)
	if len(blocks) == 0 {
		blocks = detectLinear(sheet, grid)
	}
	sort.Slice(blocks, func(i, j int) bool {
		return blocks[i].StartCol < blocks[j].StartCol
	})
	return blocks
}

func detectFromMerges(sheet *xlsx.Sheet, grid Grid) []WeekBlock {
	var blocks []WeekBlock
	for _, merged := range sheet.MergedRanges() {
		if merged.MinRow != grid.LabelRow || merged.MaxRow != grid.LabelRow {
			continue
		}
		if merged.MaxCol-merged.MinCol != BlockWidth-1 {
			continue
		}
		if block, ok := blockAt(sheet, grid, merged.MinCol); ok {
			blocks = append(blocks, block)
		}
	}
	return blocks
}

func detectLinear(sheet *xlsx.Sheet, grid Grid) []WeekBlock {
	var blocks []WeekBlock
	maxCol := sheet.MaxCol()
	for col := 1; col+BlockWidth-1 <= maxCol; {
		block, ok := blockAt(sheet, grid, col)
		if !ok {
			col++
			continue
		}
		blocks = append(blocks, block)
		col += BlockWidth
	}
	return blocks
}

// blockAt validates a candidate block starting at startCol: non-blank,
// non-month label plus the full sub-header pattern.
func blockAt(sheet *xlsx.Sheet, grid Grid, startCol int) (WeekBlock, bool) {
	label := sheet.Cell(grid.LabelRow, startCol)
	if NormalizeText(label) == "" || IsMonthLabel(label) {
		return WeekBlock{}, false
	}
	headers := make([]string, BlockWidth)
	for i := range headers {
		headers[i] = sheet.Cell(grid.HeaderRow, startCol+i)
	}
	if !headerPatternMatches(headers) {
		return WeekBlock{}, false
	}
	return WeekBlock{
		Label:    CollapseSpaces(label),
		StartCol: startCol,
		EndCol:   startCol + BlockWidth - 1,
	}, true
}

// FindDataStartRow scans down the key column from just below the sub-header
// row and returns the first row whose key cell holds something other than the
// column's own header label. The scan is capped at grid.ScanWindow rows so a
// sparse sheet never triggers a full-sheet walk; when nothing qualifies the
// default start row is returned unchanged.
func FindDataStartRow(sheet *xlsx.Sheet, grid Grid) int {
	maxRow := sheet.MaxRow()
	last := grid.DataStartRow + grid.ScanWindow
	if maxRow < last {
		last = maxRow
	}
	for row := grid.DataStartRow; row <= last; row++ {
		text := NormalizeText(sheet.Cell(row, grid.KeyColumn))
		if text == "" || text == "description of work" {
			continue
		}
		return row
	}
	return grid.DataStartRow
}

var weekNumberPattern = regexp.MustCompile(`\d+`)

// ExtractWeekNumber pulls the first integer out of a week label, "" when the
// label carries none.
func ExtractWeekNumber(label string) string {
	return weekNumberPattern.FindString(label)
}

// BuildWeekMap indexes blocks by normalized label.
func BuildWeekMap(blocks []WeekBlock) map[string]WeekBlock {
	byLabel := make(map[string]WeekBlock, len(blocks))
	for _, block := range blocks {
		byLabel[NormalizeText(block.Label)] = block
	}
	return byLabel
}

// MatchWeekLabel resolves a selected label against detected blocks: exact
// normalized match first, then loose matching on the embedded week number, so
// "WK8" pairs with "Week 8 - Feb 19".
func MatchWeekLabel(selected string, byLabel map[string]WeekBlock) (WeekBlock, bool) {
	normalized := NormalizeText(selected)
	if block, ok := byLabel[normalized]; ok {
		return block, true
	}
	number := ExtractWeekNumber(normalized)
	if number == "" {
		return WeekBlock{}, false
	}
	labels := make([]string, 0, len(byLabel))
	for label := range byLabel {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	for _, label := range labels {
		if ExtractWeekNumber(label) == number {
			return byLabel[label], true
		}
	}
	return WeekBlock{}, false
}

package layout

import (
	"testing"

	"costsync/xlsx"
)

func newTestSheet(t *testing.T) *xlsx.Sheet {
	t.Helper()
	workbook := xlsx.NewWorkbook()
	t.Cleanup(func() { _ = workbook.Close() })
	sheet, err := workbook.AddSheet("Report")
	if err != nil {
		t.Fatalf("add sheet: %v", err)
	}
	return sheet
}

// writeWeekBlock places a label plus the 5-slot sub-header pattern starting
// at startCol, optionally merging the label across the block.
func writeWeekBlock(t *testing.T, sheet *xlsx.Sheet, grid Grid, startCol int, label string, merge bool) {
	t.Helper()
	if err := sheet.SetCellValue(grid.LabelRow, startCol, label); err != nil {
		t.Fatalf("set label: %v", err)
	}
	headers := []string{"Q-ty", "Man/hour", "Q-ty", "Man/hour", "Timesheet"}
	for i, header := range headers {
		if err := sheet.SetCellValue(grid.HeaderRow, startCol+i, header); err != nil {
			t.Fatalf("set header: %v", err)
		}
	}
	if merge {
		if err := sheet.MergeCells(grid.LabelRow, startCol, grid.LabelRow, startCol+BlockWidth-1); err != nil {
			t.Fatalf("merge label: %v", err)
		}
	}
}

func TestDetectWeekBlocks_FromMergedLabels(t *testing.T) {
	t.Parallel()

	grid := DefaultGrid()
	sheet := newTestSheet(t)
	writeWeekBlock(t, sheet, grid, 13, "Week 9 - Feb 26", true)
	writeWeekBlock(t, sheet, grid, 8, "WK8", true)
	// month labels share the merge convention but never head a block
	writeWeekBlock(t, sheet, grid, 18, "February", true)

	blocks := DetectWeekBlocks(sheet, grid)
	if len(blocks) != 2 {
		t.Fatalf("expected 2 blocks, got %d: %v", len(blocks), blocks)
	}
	if blocks[0].Label != "WK8" || blocks[0].StartCol != 8 || blocks[0].EndCol != 12 {
		t.Fatalf("unexpected first block: %+v", blocks[0])
	}
	if blocks[1].Label != "Week 9 - Feb 26" || blocks[1].StartCol != 13 {
		t.Fatalf("unexpected second block: %+v", blocks[1])
	}
	if blocks[0].PlannedQtyCol() != 8 || blocks[0].ActualQtyCol() != 10 || blocks[0].TimesheetCol() != 12 {
		t.Fatalf("unexpected field columns: %+v", blocks[0])
	}
}

func TestDetectWeekBlocks_LinearFallbackWithoutMerges(t *testing.T) {
	t.Parallel()

	grid := DefaultGrid()
	sheet := newTestSheet(t)
	writeWeekBlock(t, sheet, grid, 8, "WK8", false)
	writeWeekBlock(t, sheet, grid, 13, "WK9", false)

	blocks := DetectWeekBlocks(sheet, grid)
	if len(blocks) != 2 {
		t.Fatalf("expected 2 blocks via linear scan, got %d: %v", len(blocks), blocks)
	}
	if blocks[0].StartCol != 8 || blocks[1].StartCol != 13 {
		t.Fatalf("unexpected block columns: %+v", blocks)
	}
}

func TestDetectWeekBlocks_RejectsBrokenHeaderPattern(t *testing.T) {
	t.Parallel()

	grid := DefaultGrid()
	sheet := newTestSheet(t)
	writeWeekBlock(t, sheet, grid, 8, "WK8", true)
	// break one slot of the signature
	if err := sheet.SetCellValue(grid.HeaderRow, 10, "Total"); err != nil {
		t.Fatalf("set header: %v", err)
	}

	if blocks := DetectWeekBlocks(sheet, grid); len(blocks) != 0 {
		t.Fatalf("expected no blocks, got %v", blocks)
	}
}

func TestFindDataStartRow(t *testing.T) {
	t.Parallel()

	grid := DefaultGrid()
	sheet := newTestSheet(t)
	// row 14 blank, row 15 repeats the column header, row 16 is real data
	if err := sheet.SetCellValue(15, grid.KeyColumn, "Description of Work"); err != nil {
		t.Fatalf("set cell: %v", err)
	}
	if err := sheet.SetCellValue(16, grid.KeyColumn, "Section A"); err != nil {
		t.Fatalf("set cell: %v", err)
	}

	if got := FindDataStartRow(sheet, grid); got != 16 {
		t.Fatalf("expected start row 16, got %d", got)
	}
}

func TestFindDataStartRow_EmptySheetKeepsDefault(t *testing.T) {
	t.Parallel()

	grid := DefaultGrid()
	sheet := newTestSheet(t)

	if got := FindDataStartRow(sheet, grid); got != grid.DataStartRow {
		t.Fatalf("expected default start row %d, got %d", grid.DataStartRow, got)
	}
}

func TestExtractWeekNumber(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  string
	}{
		{input: "WK8", want: "8"},
		{input: "Week 12 - Mar 18", want: "12"},
		{input: "wk 8", want: "8"},
		{input: "no digits", want: ""},
	}

	for _, tc := range tests {
		if got := ExtractWeekNumber(tc.input); got != tc.want {
			t.Fatalf("ExtractWeekNumber(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestMatchWeekLabel(t *testing.T) {
	t.Parallel()

	byLabel := BuildWeekMap([]WeekBlock{
		{Label: "WK8", StartCol: 8, EndCol: 12},
		{Label: "Week 9 - Feb 26", StartCol: 13, EndCol: 17},
	})

	exact, ok := MatchWeekLabel("wk8", byLabel)
	if !ok || exact.StartCol != 8 {
		t.Fatalf("expected exact match on WK8, got %+v ok=%v", exact, ok)
	}

	loose, ok := MatchWeekLabel("WK9", byLabel)
	if !ok || loose.StartCol != 13 {
		t.Fatalf("expected loose match on week number 9, got %+v ok=%v", loose, ok)
	}

	if _, ok := MatchWeekLabel("WK10", byLabel); ok {
		t.Fatalf("expected no match for WK10")
	}
	if _, ok := MatchWeekLabel("no digits", byLabel); ok {
		t.Fatalf("expected no match for label without a number")
	}
}

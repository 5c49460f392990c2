package xlsx

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// Sheet reads and writes one worksheet by (row, column). Read accessors
// swallow coordinate errors and return zero values: the scanners probe cells
// freely and treat anything unreadable as blank.
type Sheet struct {
	file *excelize.File
	name string
}

func (s *Sheet) Name() string {
	return s.name
}

// Cell returns the cell's displayed value, "" when blank or out of range.
func (s *Sheet) Cell(row, col int) string {
	axis, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return ""
	}
	value, _ := s.file.GetCellValue(s.name, axis)
	return value
}

// IsFormula reports whether the cell holds a formula. This is the explicit
// capability query the engines use for write protection; the serialization
// detail (how formulas are stored) stays behind excelize.
func (s *Sheet) IsFormula(row, col int) bool {
	axis, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return false
	}
	formula, _ := s.file.GetCellFormula(s.name, axis)
	return formula != ""
}

func (s *Sheet) SetCellFloat(row, col int, value float64) error {
	axis, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return fmt.Errorf("cell (%d,%d): %w", row, col, err)
	}
	if err := s.file.SetCellFloat(s.name, axis, value, -1, 64); err != nil {
		return fmt.Errorf("set cell %s: %w", axis, err)
	}
	return nil
}

func (s *Sheet) SetCellValue(row, col int, value any) error {
	axis, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return fmt.Errorf("cell (%d,%d): %w", row, col, err)
	}
	if err := s.file.SetCellValue(s.name, axis, value); err != nil {
		return fmt.Errorf("set cell %s: %w", axis, err)
	}
	return nil
}

func (s *Sheet) SetCellFormula(row, col int, formula string) error {
	axis, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return fmt.Errorf("cell (%d,%d): %w", row, col, err)
	}
	if err := s.file.SetCellFormula(s.name, axis, formula); err != nil {
		return fmt.Errorf("set formula %s: %w", axis, err)
	}
	return nil
}

// MergeCells merges the inclusive rectangle. Used by fixture builders and the
// tests; production sheets arrive with merges already in place.
func (s *Sheet) MergeCells(minRow, minCol, maxRow, maxCol int) error {
	start, err := excelize.CoordinatesToCellName(minCol, minRow)
	if err != nil {
		return fmt.Errorf("merge start (%d,%d): %w", minRow, minCol, err)
	}
	end, err := excelize.CoordinatesToCellName(maxCol, maxRow)
	if err != nil {
		return fmt.Errorf("merge end (%d,%d): %w", maxRow, maxCol, err)
	}
	if err := s.file.MergeCell(s.name, start, end); err != nil {
		return fmt.Errorf("merge %s:%s: %w", start, end, err)
	}
	return nil
}

// MergedRanges enumerates merged regions in 1-based coordinates.
func (s *Sheet) MergedRanges() []MergedRange {
	merged, err := s.file.GetMergeCells(s.name)
	if err != nil {
		return nil
	}
	ranges := make([]MergedRange, 0, len(merged))
	for _, cell := range merged {
		minCol, minRow, err := excelize.CellNameToCoordinates(cell.GetStartAxis())
		if err != nil {
			continue
		}
		maxCol, maxRow, err := excelize.CellNameToCoordinates(cell.GetEndAxis())
		if err != nil {
			continue
		}
		ranges = append(ranges, MergedRange{
			MinRow: minRow,
			MaxRow: maxRow,
			MinCol: minCol,
			MaxCol: maxCol,
		})
	}
	return ranges
}

// MaxRow returns the last populated row, 0 for an empty sheet.
func (s *Sheet) MaxRow() int {
	rows, err := s.file.GetRows(s.name)
	if err != nil {
		return 0
	}
	return len(rows)
}

// MaxCol returns the widest populated column across all rows.
func (s *Sheet) MaxCol() int {
	rows, err := s.file.GetRows(s.name)
	if err != nil {
		return 0
	}
	maxCol := 0
	for _, row := range rows {
		if len(row) > maxCol {
			maxCol = len(row)
		}
	}
	return maxCol
}

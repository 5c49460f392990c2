package transfer

import (
	"fmt"

	"costsync/sections"
	"costsync/xlsx"
)

// CumulativeLayout carries the fixed columns of the cumulative transfer: the
// cost-control "done from beginning" quantity on the source side and the
// material/quantity columns of the progress-tracking target sheets.
type CumulativeLayout struct {
	SourceKeyColumn      int
	SourceDoneColumn     int
	SourceStartRow       int
	TargetMaterialColumn int
	TargetQtyColumn      int
	TargetStartRow       int
}

// DefaultCumulativeLayout matches the cost-control and PPC templates.
func DefaultCumulativeLayout() CumulativeLayout {
	return CumulativeLayout{
		SourceKeyColumn:      3,
		SourceDoneColumn:     8,
		SourceStartRow:       13,
		TargetMaterialColumn: 2,
		TargetQtyColumn:      7,
		TargetStartRow:       2,
	}
}

// CumulativeDiff is one proposed write of a cumulative done-quantity into a
// target sheet row. Only matches are emitted; a source key with no target row
// produces nothing.
type CumulativeDiff struct {
	SheetName  string   `json:"sheetName"`
	Section    string   `json:"section"`
	Material   string   `json:"material"`
	SrcDone    *float64 `json:"srcDone"`
	TgtCurrent string   `json:"tgtCurrent"`
	Action     Action   `json:"action"`
	Reason     string   `json:"reason"`
	TargetRow  int      `json:"targetRow"`
}

// CumulativeReport is the analyze output for the cumulative variant.
type CumulativeReport struct {
	Diffs   []CumulativeDiff `json:"diffs"`
	Logs    []string         `json:"logs"`
	Summary Summary          `json:"summary"`
}

// CumulativeEngine transfers the cumulative done quantity from one
// cost-control sheet into any number of progress-tracking sheets. A material
// matching rows on several sheets, or several rows on one sheet, gets one
// diff per match; there is no first-match-only mode in this variant.
type CumulativeEngine struct {
	source   *xlsx.Sheet
	targets  []*xlsx.Sheet
	layout   CumulativeLayout
	settings Settings
}

func NewCumulativeEngine(source *xlsx.Sheet, targets []*xlsx.Sheet, cumLayout CumulativeLayout, settings Settings) *CumulativeEngine {
	return &CumulativeEngine{
		source:   source,
		targets:  targets,
		layout:   cumLayout,
		settings: settings,
	}
}

// Analyze computes the intended writes without mutating any sheet.
func (e *CumulativeEngine) Analyze() *CumulativeReport {
	report := &CumulativeReport{}
	totals, order, duplicateSources := e.aggregateSource()
	report.Summary.DuplicateSourceKeys = duplicateSources

	matched := make(map[sections.Key]bool, len(order))
	for _, target := range e.targets {
		index, duplicateTargets := e.buildTargetIndex(target)
		report.Summary.DuplicateTargetKeys += duplicateTargets

		for _, key := range order {
			lookup := key.Key
			if !e.settings.MatchBySection {
				lookup = sections.Key{Material: key.Key.Material}
			}
			rows, ok := index[lookup]
			if !ok {
				continue
			}
			matched[key.Key] = true
			if len(rows) > 1 {
				report.Logs = append(report.Logs, fmt.Sprintf("duplicate target key %s on sheet %s: writing all %d matches", key.Material, target.Name(), len(rows)))
			}

			for _, row := range rows {
				diff := CumulativeDiff{
					SheetName:  target.Name(),
					Section:    key.Section,
					Material:   key.Material,
					SrcDone:    totals[key.Key],
					TgtCurrent: target.Cell(row, e.layout.TargetQtyColumn),
					Action:     ActionWrite,
					Reason:     "update",
					TargetRow:  row,
				}
				if !e.settings.OverwriteFormulas && target.IsFormula(row, e.layout.TargetQtyColumn) {
					diff.Action = ActionSkip
					diff.Reason = "formula protected"
					report.Summary.SkippedFormulaCells++
				}
				report.Diffs = append(report.Diffs, diff)
			}
		}
	}

	report.Summary.MatchedKeys = len(matched)
	report.Summary.MissingTargetKeys = len(order) - len(matched)
	return report
}

// Execute applies Write diffs and returns the number of cells written.
func (e *CumulativeEngine) Execute(diffs []CumulativeDiff) (int, error) {
	byName := make(map[string]*xlsx.Sheet, len(e.targets))
	for _, target := range e.targets {
		byName[target.Name()] = target
	}

	written := 0
	for _, diff := range diffs {
		if diff.Action != ActionWrite || diff.SrcDone == nil {
			continue
		}
		target, ok := byName[diff.SheetName]
		if !ok {
			continue
		}
		if !e.settings.OverwriteFormulas && target.IsFormula(diff.TargetRow, e.layout.TargetQtyColumn) {
			continue
		}
		if err := target.SetCellFloat(diff.TargetRow, e.layout.TargetQtyColumn, *diff.SrcDone); err != nil {
			return written, fmt.Errorf("write %s row %d on sheet %s: %w", diff.Material, diff.TargetRow, diff.SheetName, err)
		}
		written++
	}
	return written, nil
}

// aggregateSource sums done quantities per normalized (section, material)
// key in first-seen order, keeping the first-seen spelling for display. Rows
// that never contribute a number are dropped, not zeroed.
func (e *CumulativeEngine) aggregateSource() (map[sections.Key]*float64, []sourceKey, int) {
	rows := sections.Parse(e.source, sections.Options{
		KeyColumn:      e.layout.SourceKeyColumn,
		StartRow:       e.layout.SourceStartRow,
		WatchedColumns: []int{e.layout.SourceDoneColumn},
		ValueColumns:   map[string]int{"done": e.layout.SourceDoneColumn},
		DetectSections: true,
	})

	totals := make(map[sections.Key]*float64, len(rows))
	contributions := make(map[sections.Key]int, len(rows))
	var order []sourceKey
	for _, row := range rows {
		done := row.Values["done"]
		if done == nil {
			continue
		}
		key := row.CompositeKey()
		contributions[key]++
		if existing, seen := totals[key]; seen {
			totals[key] = addOptional(existing, done)
			continue
		}
		order = append(order, sourceKey{Key: key, Section: row.Section, Material: row.RawKey})
		totals[key] = done
	}

	duplicates := 0
	for _, count := range contributions {
		if count > 1 {
			duplicates++
		}
	}
	return totals, order, duplicates
}

// buildTargetIndex indexes one target sheet by material name, or by
// (section, material) when section matching is enabled.
func (e *CumulativeEngine) buildTargetIndex(target *xlsx.Sheet) (map[sections.Key][]int, int) {
	rows := sections.Parse(target, sections.Options{
		KeyColumn:      e.layout.TargetMaterialColumn,
		StartRow:       e.layout.TargetStartRow,
		WatchedColumns: []int{e.layout.TargetQtyColumn},
		DetectSections: e.settings.MatchBySection,
	})

	index := make(map[sections.Key][]int, len(rows))
	for _, row := range rows {
		key := sections.Key{Material: row.Key}
		if e.settings.MatchBySection {
			key = row.CompositeKey()
		}
		index[key] = append(index[key], row.Index)
	}

	duplicates := 0
	for _, positions := range index {
		if len(positions) > 1 {
			duplicates++
		}
	}
	return index, duplicates
}

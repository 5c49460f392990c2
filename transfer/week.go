package transfer

import (
	"fmt"
	"strings"

	"costsync/layout"
	"costsync/sections"
	"costsync/xlsx"
)

// WeekPair couples a source block with the target block it transfers into.
type WeekPair struct {
	Source layout.WeekBlock
	Target layout.WeekBlock
}

// WeekDiff is one proposed (or applied) row transfer for a week block.
// Source values are the aggregated planned/actual/timesheet numbers; target
// values are the raw cell texts before any write.
type WeekDiff struct {
	Week         string   `json:"week"`
	Section      string   `json:"section"`
	Material     string   `json:"material"`
	SrcPlanned   *float64 `json:"srcPlanned"`
	SrcActual    *float64 `json:"srcActual"`
	SrcTimesheet *float64 `json:"srcTimesheet"`
	TgtPlanned   string   `json:"tgtPlanned"`
	TgtActual    string   `json:"tgtActual"`
	TgtTimesheet string   `json:"tgtTimesheet"`
	Action       Action   `json:"action"`
	Reason       string   `json:"reason"`
	TargetRow    int      `json:"targetRow"`
}

// WeekReport is the analyze output: ordered diffs plus counters and the
// human-readable duplicate/missing-key log.
type WeekReport struct {
	Diffs   []WeekDiff `json:"diffs"`
	Logs    []string   `json:"logs"`
	Summary Summary    `json:"summary"`
}

// WeekEngine transfers weekly planned/actual/timesheet figures from a
// progress report into a cost-control sheet, matching rows by
// (section, material).
type WeekEngine struct {
	source   *xlsx.Sheet
	target   *xlsx.Sheet
	grid     layout.Grid
	watched  []int
	pairs    []WeekPair
	settings Settings

	targetByWeek map[string]layout.WeekBlock
}

// NewWeekEngine builds an engine over already-detected block pairs. watched
// are the columns checked to tell section headers from data rows; the blocks'
// own quantity columns are always included.
func NewWeekEngine(source, target *xlsx.Sheet, grid layout.Grid, watched []int, pairs []WeekPair, settings Settings) *WeekEngine {
	targetByWeek := make(map[string]layout.WeekBlock, len(pairs))
	for _, pair := range pairs {
		targetByWeek[pair.Source.Label] = pair.Target
	}
	return &WeekEngine{
		source:       source,
		target:       target,
		grid:         grid,
		watched:      watched,
		pairs:        pairs,
		settings:     settings,
		targetByWeek: targetByWeek,
	}
}

type weekTotals struct {
	planned   *float64
	actual    *float64
	timesheet *float64
}

func (t weekTotals) empty() bool {
	return t.planned == nil && t.actual == nil && t.timesheet == nil
}

// Analyze computes the intended transfer without touching any cell. Calling
// it twice on unmutated sheets yields identical reports.
func (e *WeekEngine) Analyze() *WeekReport {
	report := &WeekReport{}

	targetIndex, duplicateTargets := e.buildTargetIndex()
	report.Summary.DuplicateTargetKeys = duplicateTargets

	for _, pair := range e.pairs {
		totals, order, duplicateSources := e.aggregateSource(pair.Source)
		report.Summary.DuplicateSourceKeys += duplicateSources

		for _, key := range order {
			sourceTotals := totals[key.Key]
			if sourceTotals.empty() {
				continue
			}

			targetRows, ok := targetIndex[key.Key]
			if !ok {
				report.Summary.MissingTargetKeys++
				report.Logs = append(report.Logs, fmt.Sprintf("missing target key: %s / %s", key.Section, key.Material))
				report.Diffs = append(report.Diffs, WeekDiff{
					Week:         pair.Source.Label,
					Section:      key.Section,
					Material:     key.Material,
					SrcPlanned:   sourceTotals.planned,
					SrcActual:    sourceTotals.actual,
					SrcTimesheet: sourceTotals.timesheet,
					Action:       ActionSkip,
					Reason:       "missing target key",
				})
				continue
			}

			report.Summary.MatchedKeys++
			if len(targetRows) > 1 {
				if e.settings.WriteAllDuplicates {
					report.Logs = append(report.Logs, fmt.Sprintf("duplicate target key %s / %s: writing all %d matches", key.Section, key.Material, len(targetRows)))
				} else {
					report.Logs = append(report.Logs, fmt.Sprintf("duplicate target key %s / %s: writing first match only", key.Section, key.Material))
					targetRows = targetRows[:1]
				}
			}

			for _, row := range targetRows {
				report.Diffs = append(report.Diffs, e.buildRowDiff(pair, key, sourceTotals, row, &report.Summary))
			}
		}
	}

	return report
}

// buildRowDiff classifies one (key, target row) pair. Protection is per cell:
// the row stays a Write as long as at least one non-null source field lands
// on a writable cell, and Execute re-checks every cell again.
func (e *WeekEngine) buildRowDiff(pair WeekPair, key sourceKey, totals weekTotals, row int, summary *Summary) WeekDiff {
	block := pair.Target
	diff := WeekDiff{
		Week:         pair.Source.Label,
		Section:      key.Section,
		Material:     key.Material,
		SrcPlanned:   totals.planned,
		SrcActual:    totals.actual,
		SrcTimesheet: totals.timesheet,
		TgtPlanned:   e.target.Cell(row, block.PlannedQtyCol()),
		TgtActual:    e.target.Cell(row, block.ActualQtyCol()),
		TgtTimesheet: e.target.Cell(row, block.TimesheetCol()),
		TargetRow:    row,
	}

	writable := 0
	var reasons []string
	check := func(source *float64, col int, field string) {
		if source == nil {
			return
		}
		if e.settings.OverwriteFormulas || !e.target.IsFormula(row, col) {
			writable++
			return
		}
		reasons = append(reasons, field+" has formula")
		summary.SkippedFormulaCells++
	}
	check(totals.planned, block.PlannedQtyCol(), "planned")
	check(totals.actual, block.ActualQtyCol(), "actual")
	check(totals.timesheet, block.TimesheetCol(), "timesheet")

	if writable > 0 {
		diff.Action = ActionWrite
		diff.Reason = strings.Join(reasons, ", ")
	} else {
		diff.Action = ActionSkip
		diff.Reason = "formula protected"
	}
	return diff
}

// Execute applies Write diffs from the most recent Analyze against the same,
// unmutated target sheet and returns the number of cells written. Formula
// protection is enforced again per cell, so a partially protected row writes
// only its unprotected fields.
func (e *WeekEngine) Execute(diffs []WeekDiff) (int, error) {
	written := 0
	for _, diff := range diffs {
		if diff.Action != ActionWrite || diff.TargetRow == 0 {
			continue
		}
		block, ok := e.targetByWeek[diff.Week]
		if !ok {
			continue
		}

		fields := []struct {
			source *float64
			col    int
		}{
			{diff.SrcPlanned, block.PlannedQtyCol()},
			{diff.SrcActual, block.ActualQtyCol()},
			{diff.SrcTimesheet, block.TimesheetCol()},
		}
		for _, field := range fields {
			if field.source == nil {
				continue
			}
			if !e.settings.OverwriteFormulas && e.target.IsFormula(diff.TargetRow, field.col) {
				continue
			}
			if err := e.target.SetCellFloat(diff.TargetRow, field.col, *field.source); err != nil {
				return written, fmt.Errorf("write %s row %d: %w", diff.Material, diff.TargetRow, err)
			}
			written++
		}
	}
	return written, nil
}

// sourceKey pairs a normalized composite key with the first-seen display
// spelling of its section and material. Aggregation and matching use Key
// only; the display fields are carried for diffs and logs.
type sourceKey struct {
	Key      sections.Key
	Section  string
	Material string
}

// aggregateSource sums the block's three fields per normalized
// (section, material) key, preserving first-seen key order and the first-seen
// spelling of each key. Nulls are additive identity unless every contribution
// is null.
func (e *WeekEngine) aggregateSource(block layout.WeekBlock) (map[sections.Key]weekTotals, []sourceKey, int) {
	rows := sections.Parse(e.source, sections.Options{
		KeyColumn: e.grid.KeyColumn,
		StartRow:  layout.FindDataStartRow(e.source, e.grid),
		WatchedColumns: appendUnique(e.watched,
			block.PlannedQtyCol(), block.ActualQtyCol()),
		ValueColumns: map[string]int{
			"planned":   block.PlannedQtyCol(),
			"actual":    block.ActualQtyCol(),
			"timesheet": block.TimesheetCol(),
		},
		DetectSections: true,
	})

	totals := make(map[sections.Key]weekTotals, len(rows))
	contributions := make(map[sections.Key]int, len(rows))
	var order []sourceKey
	for _, row := range rows {
		key := row.CompositeKey()
		contributions[key]++
		existing, seen := totals[key]
		if !seen {
			order = append(order, sourceKey{Key: key, Section: row.Section, Material: row.RawKey})
			totals[key] = weekTotals{
				planned:   row.Values["planned"],
				actual:    row.Values["actual"],
				timesheet: row.Values["timesheet"],
			}
			continue
		}
		totals[key] = weekTotals{
			planned:   addOptional(existing.planned, row.Values["planned"]),
			actual:    addOptional(existing.actual, row.Values["actual"]),
			timesheet: addOptional(existing.timesheet, row.Values["timesheet"]),
		}
	}

	duplicates := 0
	for _, count := range contributions {
		if count > 1 {
			duplicates++
		}
	}
	return totals, order, duplicates
}

// buildTargetIndex maps composite keys to target row positions in sheet
// order and counts keys carried by more than one row.
func (e *WeekEngine) buildTargetIndex() (map[sections.Key][]int, int) {
	rows := sections.Parse(e.target, sections.Options{
		KeyColumn:      e.grid.KeyColumn,
		StartRow:       layout.FindDataStartRow(e.target, e.grid),
		WatchedColumns: e.watched,
		DetectSections: true,
	})

	index := make(map[sections.Key][]int, len(rows))
	for _, row := range rows {
		key := row.CompositeKey()
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

func appendUnique(base []int, extra ...int) []int {
	out := append([]int(nil), base...)
	for _, candidate := range extra {
		present := false
		for _, existing := range out {
			if existing == candidate {
				present = true
				break
			}
		}
		if !present {
			out = append(out, candidate)
		}
	}
	return out
}


// Package transfer computes and applies cell transfers between cost-tracking
// sheets. Both engine variants share the same two-phase contract: Analyze is
// pure and produces an ordered diff list, Execute applies only diffs marked
// Write and re-checks formula protection per cell.
//
// Diffs capture target row positions by value at analyze time. Mutating the
// target sheet between Analyze and Execute therefore yields undefined row
// positions; callers re-analyze instead. Workbooks are single-writer state,
// concurrent calls against the same workbook must be serialized by the
// caller.
package transfer

// Action is the row-level decision shown in a diff preview.
type Action string

const (
	ActionWrite Action = "write"
	ActionSkip  Action = "skip"
)

// Settings are the caller-owned policy toggles.
type Settings struct {
	// OverwriteFormulas lifts per-cell formula protection.
	OverwriteFormulas bool
	// WriteAllDuplicates writes every target row sharing a key; false writes
	// only the topmost match.
	WriteAllDuplicates bool
	// MatchBySection qualifies the cumulative target key with the section
	// label. The week-block variant always matches by (section, material).
	MatchBySection bool
}

// Summary is the counter set reported to the shell after analyze/execute.
type Summary struct {
	WrittenCells        int `json:"writtenCells"`
	MatchedKeys         int `json:"matchedKeys"`
	MissingTargetKeys   int `json:"missingTargetKeys"`
	DuplicateSourceKeys int `json:"duplicateSourceKeys"`
	DuplicateTargetKeys int `json:"duplicateTargetKeys"`
	SkippedFormulaCells int `json:"skippedFormulaCells"`
}

// addOptional sums two optional values: nil+nil stays nil, otherwise nil acts
// as zero. This keeps "no source data" distinct from "source says zero".
func addOptional(a, b *float64) *float64 {
	if a == nil && b == nil {
		return nil
	}
	sum := value(a) + value(b)
	return &sum
}

func value(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

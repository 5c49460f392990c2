package transfer

import "costsync/layout"

// PairWeeks resolves selected week labels into source/target block pairs.
// Source blocks are matched by exact normalized label; target blocks match
// loosely via the embedded week number, so differently formatted labels still
// pair. An empty selection means every detected source block. Labels that
// cannot be paired come back in missing.
func PairWeeks(sourceBlocks, targetBlocks []layout.WeekBlock, selected []string) ([]WeekPair, []string) {
	if len(selected) == 0 {
		for _, block := range sourceBlocks {
			selected = append(selected, block.Label)
		}
	}

	sourceByLabel := layout.BuildWeekMap(sourceBlocks)
	targetByLabel := layout.BuildWeekMap(targetBlocks)

	var pairs []WeekPair
	var missing []string
	for _, label := range selected {
		source, ok := layout.MatchWeekLabel(label, sourceByLabel)
		if !ok {
			missing = append(missing, label)
			continue
		}
		target, ok := layout.MatchWeekLabel(label, targetByLabel)
		if !ok {
			missing = append(missing, label)
			continue
		}
		pairs = append(pairs, WeekPair{Source: source, Target: target})
	}
	return pairs, missing
}

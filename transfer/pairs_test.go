package transfer

import (
	"testing"

	"costsync/layout"
)

func TestPairWeeks(t *testing.T) {
	t.Parallel()

	sourceBlocks := []layout.WeekBlock{
		{Label: "WK8", StartCol: 8, EndCol: 12},
		{Label: "WK9", StartCol: 13, EndCol: 17},
	}
	targetBlocks := []layout.WeekBlock{
		{Label: "Week 8 - Feb 19", StartCol: 8, EndCol: 12},
		{Label: "Week 9 - Feb 26", StartCol: 13, EndCol: 17},
	}

	t.Run("empty selection pairs all source blocks", func(t *testing.T) {
		t.Parallel()
		pairs, missing := PairWeeks(sourceBlocks, targetBlocks, nil)
		if len(missing) > 0 {
			t.Fatalf("unexpected missing labels: %v", missing)
		}
		if len(pairs) != 2 {
			t.Fatalf("expected 2 pairs, got %+v", pairs)
		}
		if pairs[0].Source.Label != "WK8" || pairs[0].Target.Label != "Week 8 - Feb 19" {
			t.Fatalf("unexpected first pair: %+v", pairs[0])
		}
	})

	t.Run("selected label pairs loosely by week number", func(t *testing.T) {
		t.Parallel()
		pairs, missing := PairWeeks(sourceBlocks, targetBlocks, []string{"wk9"})
		if len(missing) > 0 || len(pairs) != 1 {
			t.Fatalf("unexpected result: pairs=%+v missing=%v", pairs, missing)
		}
		if pairs[0].Target.StartCol != 13 {
			t.Fatalf("unexpected target block: %+v", pairs[0])
		}
	})

	t.Run("unknown label is reported missing", func(t *testing.T) {
		t.Parallel()
		pairs, missing := PairWeeks(sourceBlocks, targetBlocks, []string{"WK8", "WK12"})
		if len(pairs) != 1 {
			t.Fatalf("expected the matchable label paired, got %+v", pairs)
		}
		if len(missing) != 1 || missing[0] != "WK12" {
			t.Fatalf("unexpected missing labels: %v", missing)
		}
	})

	t.Run("label missing on target side only", func(t *testing.T) {
		t.Parallel()
		pairs, missing := PairWeeks(sourceBlocks, targetBlocks[:1], []string{"WK9"})
		if len(pairs) != 0 || len(missing) != 1 {
			t.Fatalf("expected WK9 missing, got pairs=%+v missing=%v", pairs, missing)
		}
	})
}

package layout

import "testing"

func TestParseNumber(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  float64
		null  bool
	}{
		{name: "empty", input: "", null: true},
		{name: "blank", input: "   ", null: true},
		{name: "integer", input: "12", want: 12},
		{name: "decimal dot", input: "3.5", want: 3.5},
		{name: "decimal comma", input: "1,5", want: 1.5},
		{name: "space thousands with comma decimal", input: "1 234,5", want: 1234.5},
		{name: "comma thousands with dot decimal", input: "1,234.5", want: 1234.5},
		{name: "negative", input: "-3.5", want: -3.5},
		{name: "padded", input: " 42 ", want: 42},
		{name: "text", input: "abc", null: true},
		{name: "mixed text", input: "12abc", null: true},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := ParseNumber(tc.input)
			if tc.null {
				if got != nil {
					t.Fatalf("expected nil for %q, got %v", tc.input, *got)
				}
				return
			}
			if got == nil {
				t.Fatalf("expected %v for %q, got nil", tc.want, tc.input)
			}
			if *got != tc.want {
				t.Fatalf("unexpected value for %q: want %v, got %v", tc.input, tc.want, *got)
			}
		})
	}
}

func TestNormalizeKey_EquivalentSpellings(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		inputs []string
		want   string
	}{
		{name: "separator variants", inputs: []string{"Man/Hour", "man hour", "MAN-HOUR", "man_hour"}, want: "manhour"},
		{name: "case and padding", inputs: []string{"Steel Rebar", "  steel   rebar ", "STEEL REBAR"}, want: "steelrebar"},
		{name: "punctuation dropped", inputs: []string{"Concrete (C30)", "concrete c30"}, want: "concretec30"},
		{name: "blankish", inputs: []string{"", "  ", "--"}, want: ""},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			for _, input := range tc.inputs {
				if got := NormalizeKey(input); got != tc.want {
					t.Fatalf("NormalizeKey(%q) = %q, want %q", input, got, tc.want)
				}
			}
		})
	}
}

func TestNormalizeLabel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  string
	}{
		{input: "Q-ty", want: "q ty"},
		{input: "Man/hour", want: "man hour"},
		{input: "  Time  Sheet ", want: "time sheet"},
		{input: "Timesheet", want: "timesheet"},
		{input: "***", want: ""},
	}

	for _, tc := range tests {
		if got := NormalizeLabel(tc.input); got != tc.want {
			t.Fatalf("NormalizeLabel(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestCollapseSpaces_KeepsCase(t *testing.T) {
	t.Parallel()

	if got := CollapseSpaces("  Section   A  "); got != "Section A" {
		t.Fatalf("unexpected collapsed text: %q", got)
	}
}

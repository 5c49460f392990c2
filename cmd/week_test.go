package cmd

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"costsync/config"
	"costsync/transfer"
)

func TestFormatOptional(t *testing.T) {
	t.Parallel()

	if got := formatOptional(nil); got != "-" {
		t.Fatalf("nil must render as dash, got %q", got)
	}
	value := 12.5
	if got := formatOptional(&value); got != "12.5" {
		t.Fatalf("unexpected rendering: %q", got)
	}
	zero := 0.0
	if got := formatOptional(&zero); got != "0" {
		t.Fatalf("zero must render as 0, got %q", got)
	}
}

func TestResolveHistoryPath(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{History: config.HistoryConfig{DBPath: "./costsync.db"}}

	if got := resolveHistoryPath(cfg, ""); got != "./costsync.db" {
		t.Fatalf("expected config default, got %q", got)
	}
	if got := resolveHistoryPath(cfg, "  "); got != "./costsync.db" {
		t.Fatalf("blank flag must fall back to config, got %q", got)
	}
	if got := resolveHistoryPath(cfg, "/tmp/other.db"); got != "/tmp/other.db" {
		t.Fatalf("flag must win, got %q", got)
	}
}

func TestWriteWeekReport_CSV(t *testing.T) {
	t.Parallel()

	planned := 120.0
	report := &transfer.WeekReport{
		Diffs: []transfer.WeekDiff{
			{
				Week:       "WK8",
				Section:    "Section Alpha",
				Material:   "Steel Rebar",
				SrcPlanned: &planned,
				Action:     transfer.ActionWrite,
				TargetRow:  15,
			},
		},
	}

	path := filepath.Join(t.TempDir(), "diffs.csv")
	if err := writeWeekReport(path, report); err != nil {
		t.Fatalf("write report: %v", err)
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open report: %v", err)
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	want := [][]string{
		{"Week", "Section", "Material", "Planned", "Actual", "Timesheet", "Action", "Reason", "TargetRow"},
		{"WK8", "Section Alpha", "Steel Rebar", "120", "-", "-", "write", "", "15"},
	}
	if !reflect.DeepEqual(records, want) {
		t.Fatalf("unexpected report content: %v", records)
	}
}

func TestWriteWeekReport_RejectsUnknownExtension(t *testing.T) {
	t.Parallel()

	if err := writeWeekReport(filepath.Join(t.TempDir(), "diffs.txt"), &transfer.WeekReport{}); err == nil {
		t.Fatalf("expected error for unsupported report format")
	}
}

package web

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"costsync/config"
	"costsync/xlsx"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.ValidateYAMLContent([]byte(config.ExampleYAML()))
	if err != nil {
		t.Fatalf("default config: %v", err)
	}
	return cfg
}

func newTestServer(t *testing.T) (*httptest.Server, string) {
	t.Helper()
	dir := t.TempDir()
	historyPath := filepath.Join(dir, "history.db")
	ts := httptest.NewServer(NewServer(testConfig(t), historyPath))
	t.Cleanup(ts.Close)
	return ts, dir
}

// writeWeekFixtures saves a source report and a target cost sheet with one
// matching steel row under paired WK8 blocks.
func writeWeekFixtures(t *testing.T, dir string) (string, string) {
	t.Helper()

	sourcePath := filepath.Join(dir, "report.xlsx")
	source := xlsx.NewWorkbook()
	defer source.Close()
	sourceSheet, err := source.AddSheet("Report")
	if err != nil {
		t.Fatalf("add source sheet: %v", err)
	}
	writeBlock(t, sourceSheet, 8, "WK8")
	mustSet(t, sourceSheet, 14, 3, "Section Alpha")
	mustSet(t, sourceSheet, 15, 3, "Steel Rebar")
	mustSet(t, sourceSheet, 15, 8, "100")
	mustSet(t, sourceSheet, 15, 10, "50")
	mustSet(t, sourceSheet, 15, 12, "10")
	if err := source.SaveAs(sourcePath); err != nil {
		t.Fatalf("save source: %v", err)
	}

	targetPath := filepath.Join(dir, "cost.xlsx")
	target := xlsx.NewWorkbook()
	defer target.Close()
	targetSheet, err := target.AddSheet("Cost")
	if err != nil {
		t.Fatalf("add target sheet: %v", err)
	}
	writeBlock(t, targetSheet, 13, "Week 8 - Feb 19")
	mustSet(t, targetSheet, 14, 3, "Section Alpha")
	mustSet(t, targetSheet, 15, 4, "1")
	mustSet(t, targetSheet, 15, 3, "Steel Rebar")
	if err := target.SaveAs(targetPath); err != nil {
		t.Fatalf("save target: %v", err)
	}

	return sourcePath, targetPath
}

func writeBlock(t *testing.T, sheet *xlsx.Sheet, startCol int, label string) {
	t.Helper()
	mustSet(t, sheet, 10, startCol, label)
	headers := []string{"Q-ty", "Man/hour", "Q-ty", "Man/hour", "Timesheet"}
	for i, header := range headers {
		mustSet(t, sheet, 13, startCol+i, header)
	}
	if err := sheet.MergeCells(10, startCol, 10, startCol+4); err != nil {
		t.Fatalf("merge label: %v", err)
	}
}

func mustSet(t *testing.T, sheet *xlsx.Sheet, row, col int, value any) {
	t.Helper()
	if err := sheet.SetCellValue(row, col, value); err != nil {
		t.Fatalf("set cell (%d,%d): %v", row, col, err)
	}
}

func postJSON(t *testing.T, url string, payload any) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("post %s: %v", url, err)
	}
	return resp
}

func TestServer_IndexServesPage(t *testing.T) {
	t.Parallel()

	ts, _ := newTestServer(t)
	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatalf("request index: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "costsync") {
		t.Fatalf("index page missing title")
	}
}

func TestServer_BlocksEndpoint(t *testing.T) {
	t.Parallel()

	ts, dir := newTestServer(t)
	sourcePath, _ := writeWeekFixtures(t, dir)

	resp, err := http.Get(ts.URL + "/api/blocks?file=" + sourcePath)
	if err != nil {
		t.Fatalf("request blocks: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, body)
	}
	var views []sheetBlocksView
	if err := json.NewDecoder(resp.Body).Decode(&views); err != nil {
		t.Fatalf("decode blocks: %v", err)
	}
	if len(views) != 1 || views[0].Sheet != "Report" {
		t.Fatalf("unexpected views: %+v", views)
	}
	if len(views[0].Blocks) != 1 || views[0].Blocks[0].Label != "WK8" || views[0].Blocks[0].StartCol != 8 {
		t.Fatalf("unexpected blocks: %+v", views[0].Blocks)
	}
}

func TestServer_BlocksEndpointRequiresFile(t *testing.T) {
	t.Parallel()

	ts, _ := newTestServer(t)
	resp, err := http.Get(ts.URL + "/api/blocks")
	if err != nil {
		t.Fatalf("request blocks: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestServer_WeekAnalyzeDoesNotWrite(t *testing.T) {
	t.Parallel()

	ts, dir := newTestServer(t)
	sourcePath, targetPath := writeWeekFixtures(t, dir)

	resp := postJSON(t, ts.URL+"/api/week/analyze", map[string]any{
		"source": sourcePath,
		"target": targetPath,
		"weeks":  []string{"WK8"},
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, body)
	}
	var report weekResponse
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if len(report.Diffs) != 1 || report.Diffs[0].Material != "Steel Rebar" {
		t.Fatalf("unexpected diffs: %+v", report.Diffs)
	}
	if report.SavedTo != "" {
		t.Fatalf("analyze must not save: %+v", report)
	}

	// target file stays untouched
	workbook, err := xlsx.OpenWorkbook(targetPath)
	if err != nil {
		t.Fatalf("reopen target: %v", err)
	}
	defer workbook.Close()
	sheet, err := workbook.Sheet("Cost")
	if err != nil {
		t.Fatalf("target sheet: %v", err)
	}
	if got := sheet.Cell(15, 13); got != "" {
		t.Fatalf("analyze wrote to target: %q", got)
	}
}

func TestServer_WeekExecuteWritesAndRecordsHistory(t *testing.T) {
	t.Parallel()

	ts, dir := newTestServer(t)
	sourcePath, targetPath := writeWeekFixtures(t, dir)
	outPath := filepath.Join(dir, "cost_updated.xlsx")

	resp := postJSON(t, ts.URL+"/api/week/execute", map[string]any{
		"source": sourcePath,
		"target": targetPath,
		"weeks":  []string{"WK8"},
		"out":    outPath,
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, body)
	}
	var report weekResponse
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if report.SavedTo != outPath {
		t.Fatalf("unexpected saved path: %+v", report)
	}
	if report.Summary.WrittenCells != 3 {
		t.Fatalf("unexpected summary: %+v", report.Summary)
	}

	workbook, err := xlsx.OpenWorkbook(outPath)
	if err != nil {
		t.Fatalf("open saved workbook: %v", err)
	}
	defer workbook.Close()
	sheet, err := workbook.Sheet("Cost")
	if err != nil {
		t.Fatalf("saved sheet: %v", err)
	}
	if got := sheet.Cell(15, 13); got != "100" {
		t.Fatalf("planned not written: %q", got)
	}
	if got := sheet.Cell(15, 17); got != "10" {
		t.Fatalf("timesheet not written: %q", got)
	}

	historyResp, err := http.Get(ts.URL + "/api/history")
	if err != nil {
		t.Fatalf("request history: %v", err)
	}
	defer historyResp.Body.Close()
	var runs []runView
	if err := json.NewDecoder(historyResp.Body).Decode(&runs); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(runs) != 1 || runs[0].Action != "week" || runs[0].TargetFile != outPath {
		t.Fatalf("unexpected history: %+v", runs)
	}
}

func TestServer_WeekAnalyzeRejectsBadRequests(t *testing.T) {
	t.Parallel()

	ts, _ := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/week/analyze", map[string]any{"source": "only.xlsx"})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing target, got %d", resp.StatusCode)
	}

	unknown := postJSON(t, ts.URL+"/api/week/analyze", map[string]any{
		"source": "a.xlsx", "target": "b.xlsx", "bogus": true,
	})
	defer unknown.Body.Close()
	if unknown.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown field, got %d", unknown.StatusCode)
	}
}

func TestServer_HistoryRejectsBadLimit(t *testing.T) {
	t.Parallel()

	ts, _ := newTestServer(t)
	resp, err := http.Get(ts.URL + "/api/history?limit=abc")
	if err != nil {
		t.Fatalf("request history: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

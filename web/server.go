// Package web serves a localhost-only single-user UI; it intentionally has no
// auth/CSRF protection in this mode.
package web

import (
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strconv"
	"strings"

	"costsync/config"
	"costsync/layout"
	"costsync/storage"
	"costsync/transfer"
	"costsync/xlsx"
)

//go:embed templates/*.html
var templateFS embed.FS

type Server struct {
	cfg         *config.Config
	historyPath string
	mux         *http.ServeMux
}

type weekRequest struct {
	Source            string   `json:"source"`
	Target            string   `json:"target"`
	SourceSheet       string   `json:"sourceSheet"`
	TargetSheet       string   `json:"targetSheet"`
	Weeks             []string `json:"weeks"`
	Out               string   `json:"out"`
	OverwriteFormulas *bool    `json:"overwriteFormulas"`
	FirstMatchOnly    *bool    `json:"firstMatchOnly"`
}

type cumulativeRequest struct {
	Source            string   `json:"source"`
	Target            string   `json:"target"`
	SourceSheet       string   `json:"sourceSheet"`
	TargetSheets      []string `json:"targetSheets"`
	Out               string   `json:"out"`
	OverwriteFormulas *bool    `json:"overwriteFormulas"`
	MatchBySection    *bool    `json:"matchBySection"`
}

type weekResponse struct {
	Diffs   []transfer.WeekDiff `json:"diffs"`
	Logs    []string            `json:"logs"`
	Summary transfer.Summary    `json:"summary"`
	SavedTo string              `json:"savedTo,omitempty"`
}

type cumulativeResponse struct {
	Diffs   []transfer.CumulativeDiff `json:"diffs"`
	Logs    []string                  `json:"logs"`
	Summary transfer.Summary          `json:"summary"`
	SavedTo string                    `json:"savedTo,omitempty"`
}

type blockView struct {
	Label    string `json:"label"`
	StartCol int    `json:"startCol"`
	EndCol   int    `json:"endCol"`
}

type sheetBlocksView struct {
	Sheet        string      `json:"sheet"`
	Blocks       []blockView `json:"blocks"`
	DataStartRow int         `json:"dataStartRow"`
}

type runView struct {
	ID          int64            `json:"id"`
	Action      string           `json:"action"`
	SourceFile  string           `json:"sourceFile"`
	TargetFile  string           `json:"targetFile"`
	SourceSheet string           `json:"sourceSheet"`
	TargetSheet string           `json:"targetSheet"`
	WeekLabel   string           `json:"weekLabel"`
	Summary     transfer.Summary `json:"summary"`
	CreatedAt   string           `json:"createdAt"`
}

type indexView struct {
	Title string
}

func NewServer(cfg *config.Config, historyPath string) http.Handler {
	server := &Server{
		cfg:         cfg,
		historyPath: historyPath,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", server.handleIndex)
	mux.HandleFunc("GET /api/blocks", server.handleAPIBlocks)
	mux.HandleFunc("POST /api/week/analyze", server.handleAPIWeekAnalyze)
	mux.HandleFunc("POST /api/week/execute", server.handleAPIWeekExecute)
	mux.HandleFunc("POST /api/cumulative/analyze", server.handleAPICumulativeAnalyze)
	mux.HandleFunc("POST /api/cumulative/execute", server.handleAPICumulativeExecute)
	mux.HandleFunc("GET /api/history", server.handleAPIHistory)
	server.mux = mux

	return server
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if err := renderTemplate(w, "index.html", indexView{Title: "costsync"}); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) handleAPIBlocks(w http.ResponseWriter, r *http.Request) {
	file := strings.TrimSpace(r.URL.Query().Get("file"))
	if file == "" {
		http.Error(w, "missing file parameter", http.StatusBadRequest)
		return
	}
	sheetFilter := strings.TrimSpace(r.URL.Query().Get("sheet"))

	workbook, err := xlsx.OpenWorkbook(file)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer workbook.Close()

	grid := s.cfg.Grid()
	names := workbook.SheetNames()
	views := make([]sheetBlocksView, 0, len(names))
	for _, name := range names {
		if sheetFilter != "" && name != sheetFilter {
			continue
		}
		sheet, err := workbook.Sheet(name)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		blocks := layout.DetectWeekBlocks(sheet, grid)
		view := sheetBlocksView{Sheet: name, Blocks: make([]blockView, 0, len(blocks))}
		for _, block := range blocks {
			view.Blocks = append(view.Blocks, blockView{
				Label:    block.Label,
				StartCol: block.StartCol,
				EndCol:   block.EndCol,
			})
		}
		if len(blocks) > 0 {
			view.DataStartRow = layout.FindDataStartRow(sheet, grid)
		}
		views = append(views, view)
	}
	if sheetFilter != "" && len(views) == 0 {
		http.Error(w, fmt.Sprintf("sheet %q not found in %s", sheetFilter, file), http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleAPIWeekAnalyze(w http.ResponseWriter, r *http.Request) {
	s.runWeek(w, r, false)
}

func (s *Server) handleAPIWeekExecute(w http.ResponseWriter, r *http.Request) {
	s.runWeek(w, r, true)
}

func (s *Server) runWeek(w http.ResponseWriter, r *http.Request, execute bool) {
	var req weekRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Source) == "" || strings.TrimSpace(req.Target) == "" {
		http.Error(w, "source and target are required", http.StatusBadRequest)
		return
	}

	settings := s.cfg.Settings()
	if req.OverwriteFormulas != nil {
		settings.OverwriteFormulas = *req.OverwriteFormulas
	}
	if req.FirstMatchOnly != nil {
		settings.WriteAllDuplicates = !*req.FirstMatchOnly
	}

	source, err := openSheet(req.Source, req.SourceSheet)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer source.workbook.Close()

	target, err := openSheet(req.Target, req.TargetSheet)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer target.workbook.Close()

	grid := s.cfg.Grid()
	sourceBlocks := layout.DetectWeekBlocks(source.sheet, grid)
	if len(sourceBlocks) == 0 {
		http.Error(w, fmt.Sprintf("no week blocks detected on source sheet %q", source.sheet.Name()), http.StatusUnprocessableEntity)
		return
	}
	targetBlocks := layout.DetectWeekBlocks(target.sheet, grid)
	if len(targetBlocks) == 0 {
		http.Error(w, fmt.Sprintf("no week blocks detected on target sheet %q", target.sheet.Name()), http.StatusUnprocessableEntity)
		return
	}

	pairs, missing := transfer.PairWeeks(sourceBlocks, targetBlocks, req.Weeks)
	if len(missing) > 0 {
		http.Error(w, "no matching week blocks for: "+strings.Join(missing, ", "), http.StatusUnprocessableEntity)
		return
	}

	engine := transfer.NewWeekEngine(source.sheet, target.sheet, grid, s.cfg.SectionCheckColumns(), pairs, settings)
	report := engine.Analyze()
	response := weekResponse{Diffs: report.Diffs, Logs: report.Logs, Summary: report.Summary}

	if execute {
		written, err := engine.Execute(report.Diffs)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		response.Summary.WrittenCells = written

		outPath := req.Out
		if outPath == "" {
			outPath = req.Target
		}
		if err := target.workbook.SaveAs(outPath); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		response.SavedTo = outPath

		if err := s.recordRun(storage.Run{
			Action:      "week",
			SourceFile:  req.Source,
			TargetFile:  outPath,
			SourceSheet: source.sheet.Name(),
			TargetSheet: target.sheet.Name(),
			WeekLabel:   strings.Join(req.Weeks, ", "),
			Summary:     response.Summary,
		}); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}

	writeJSON(w, http.StatusOK, response)
}

func (s *Server) handleAPICumulativeAnalyze(w http.ResponseWriter, r *http.Request) {
	s.runCumulative(w, r, false)
}

func (s *Server) handleAPICumulativeExecute(w http.ResponseWriter, r *http.Request) {
	s.runCumulative(w, r, true)
}

func (s *Server) runCumulative(w http.ResponseWriter, r *http.Request, execute bool) {
	var req cumulativeRequest
	if err := decodeJSON(r, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Source) == "" || strings.TrimSpace(req.Target) == "" {
		http.Error(w, "source and target are required", http.StatusBadRequest)
		return
	}

	settings := s.cfg.Settings()
	if req.OverwriteFormulas != nil {
		settings.OverwriteFormulas = *req.OverwriteFormulas
	}
	if req.MatchBySection != nil {
		settings.MatchBySection = *req.MatchBySection
	}

	source, err := openSheet(req.Source, req.SourceSheet)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer source.workbook.Close()

	targetWorkbook, err := xlsx.OpenWorkbook(req.Target)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer targetWorkbook.Close()

	targetNames := req.TargetSheets
	if len(targetNames) == 0 {
		targetNames = targetWorkbook.SheetNames()
	}
	targets := make([]*xlsx.Sheet, 0, len(targetNames))
	for _, name := range targetNames {
		sheet, err := targetWorkbook.Sheet(name)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		targets = append(targets, sheet)
	}

	engine := transfer.NewCumulativeEngine(source.sheet, targets, s.cfg.CumulativeLayout(), settings)
	report := engine.Analyze()
	response := cumulativeResponse{Diffs: report.Diffs, Logs: report.Logs, Summary: report.Summary}

	if execute {
		written, err := engine.Execute(report.Diffs)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		response.Summary.WrittenCells = written

		outPath := req.Out
		if outPath == "" {
			outPath = req.Target
		}
		if err := targetWorkbook.SaveAs(outPath); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		response.SavedTo = outPath

		if err := s.recordRun(storage.Run{
			Action:      "cumulative",
			SourceFile:  req.Source,
			TargetFile:  outPath,
			SourceSheet: source.sheet.Name(),
			TargetSheet: strings.Join(targetNames, ", "),
			Summary:     response.Summary,
		}); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}

	writeJSON(w, http.StatusOK, response)
}

func (s *Server) handleAPIHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			http.Error(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	store, err := storage.OpenRunStore(s.historyPath)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	defer store.Close()

	runs, err := store.ListRuns(limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	views := make([]runView, 0, len(runs))
	for _, run := range runs {
		views = append(views, runView{
			ID:          run.ID,
			Action:      run.Action,
			SourceFile:  run.SourceFile,
			TargetFile:  run.TargetFile,
			SourceSheet: run.SourceSheet,
			TargetSheet: run.TargetSheet,
			WeekLabel:   run.WeekLabel,
			Summary:     run.Summary,
			CreatedAt:   run.CreatedAt.Format("2006-01-02 15:04:05"),
		})
	}
	writeJSON(w, http.StatusOK, views)
}

type openedSheet struct {
	workbook *xlsx.Workbook
	sheet    *xlsx.Sheet
}

func openSheet(path, sheetName string) (openedSheet, error) {
	workbook, err := xlsx.OpenWorkbook(path)
	if err != nil {
		return openedSheet{}, err
	}
	if sheetName == "" {
		names := workbook.SheetNames()
		if len(names) == 0 {
			workbook.Close()
			return openedSheet{}, fmt.Errorf("workbook %s has no sheets", path)
		}
		sheetName = names[0]
	}
	sheet, err := workbook.Sheet(sheetName)
	if err != nil {
		workbook.Close()
		return openedSheet{}, err
	}
	return openedSheet{workbook: workbook, sheet: sheet}, nil
}

func (s *Server) recordRun(run storage.Run) error {
	store, err := storage.OpenRunStore(s.historyPath)
	if err != nil {
		return err
	}
	defer store.Close()

	if _, err := store.InsertRun(run); err != nil {
		return err
	}
	return nil
}

func decodeJSON(r *http.Request, out any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(out); err != nil {
		return err
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return fmt.Errorf("request body must contain a single JSON object")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func renderTemplate(w http.ResponseWriter, pageTemplate string, data any) error {
	tmpl, err := template.ParseFS(templateFS, "templates/"+pageTemplate)
	if err != nil {
		return fmt.Errorf("parse template %s: %w", pageTemplate, err)
	}
	if err := tmpl.Execute(w, data); err != nil {
		return fmt.Errorf("render template %s: %w", pageTemplate, err)
	}
	return nil
}

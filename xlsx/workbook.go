// Package xlsx is the workbook access layer. It wraps excelize behind the
// small cell/merge/formula surface the detection and transfer code needs, so
// the rest of the tool works with 1-based (row, column) coordinates and never
// touches axis strings.
package xlsx

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

type Workbook struct {
	file *excelize.File
	path string
}

// MergedRange is a merged cell region in 1-based coordinates, inclusive.
type MergedRange struct {
	MinRow int
	MaxRow int
	MinCol int
	MaxCol int
}

func OpenWorkbook(path string) (*Workbook, error) {
	file, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", path, err)
	}
	return &Workbook{file: file, path: path}, nil
}

// NewWorkbook creates an empty in-memory workbook with a single sheet.
func NewWorkbook() *Workbook {
	return &Workbook{file: excelize.NewFile()}
}

func (w *Workbook) Close() error {
	return w.file.Close()
}

func (w *Workbook) Path() string {
	return w.path
}

func (w *Workbook) SheetNames() []string {
	return w.file.GetSheetList()
}

func (w *Workbook) Sheet(name string) (*Sheet, error) {
	index, err := w.file.GetSheetIndex(name)
	if err != nil || index < 0 {
		return nil, fmt.Errorf("workbook has no sheet %q", name)
	}
	return &Sheet{file: w.file, name: name}, nil
}

// AddSheet creates the named sheet if missing and returns it. The first
// default sheet is renamed instead of adding a second one.
func (w *Workbook) AddSheet(name string) (*Sheet, error) {
	if index, err := w.file.GetSheetIndex(name); err == nil && index >= 0 {
		return &Sheet{file: w.file, name: name}, nil
	}
	sheets := w.file.GetSheetList()
	if len(sheets) == 1 && sheets[0] == "Sheet1" {
		if err := w.file.SetSheetName("Sheet1", name); err != nil {
			return nil, fmt.Errorf("rename default sheet to %q: %w", name, err)
		}
		return &Sheet{file: w.file, name: name}, nil
	}
	if _, err := w.file.NewSheet(name); err != nil {
		return nil, fmt.Errorf("add sheet %q: %w", name, err)
	}
	return &Sheet{file: w.file, name: name}, nil
}

// SaveAs writes the workbook to path. Only cells the engines touched change;
// everything else round-trips through excelize untouched.
func (w *Workbook) SaveAs(path string) error {
	if err := w.file.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook %s: %w", path, err)
	}
	return nil
}

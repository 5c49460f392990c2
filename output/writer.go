// Package output writes diff reports to files for archiving or review
// outside the tool.
package output

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Report is a flat tabular view of an analyze result.
type Report struct {
	Headers []string
	Rows    [][]string
}

type Writer interface {
	Write(path string, report Report) error
}

// WriterForPath picks a writer from the file extension.
func WriterForPath(path string) (Writer, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return &CSVWriter{}, nil
	case ".xlsx":
		return &ExcelWriter{}, nil
	default:
		return nil, fmt.Errorf("unsupported report format for %s (want .csv or .xlsx)", path)
	}
}

package output

import (
	"encoding/csv"
	"fmt"
	"os"
)

type CSVWriter struct{}

func (w *CSVWriter) Write(path string, report Report) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv report %s: %w", path, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write(report.Headers); err != nil {
		return fmt.Errorf("write csv headers: %w", err)
	}
	for _, row := range report.Rows {
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush csv report: %w", err)
	}

	return nil
}

package output

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/xuri/excelize/v2"
)

func sampleReport() Report {
	return Report{
		Headers: []string{"Week", "Material", "Action"},
		Rows: [][]string{
			{"WK8", "Steel Rebar", "write"},
			{"WK8", "Gravel", "skip"},
		},
	}
}

func TestWriterForPath(t *testing.T) {
	t.Parallel()

	if writer, err := WriterForPath("diffs.csv"); err != nil {
		t.Fatalf("csv: %v", err)
	} else if _, ok := writer.(*CSVWriter); !ok {
		t.Fatalf("expected CSVWriter, got %T", writer)
	}

	if writer, err := WriterForPath("Diffs.XLSX"); err != nil {
		t.Fatalf("xlsx: %v", err)
	} else if _, ok := writer.(*ExcelWriter); !ok {
		t.Fatalf("expected ExcelWriter, got %T", writer)
	}

	if _, err := WriterForPath("diffs.txt"); err == nil {
		t.Fatalf("expected error for unsupported extension")
	}
}

func TestCSVWriter_WritesHeadersAndRows(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "diffs.csv")
	if err := (&CSVWriter{}).Write(path, sampleReport()); err != nil {
		t.Fatalf("write: %v", err)
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	want := [][]string{
		{"Week", "Material", "Action"},
		{"WK8", "Steel Rebar", "write"},
		{"WK8", "Gravel", "skip"},
	}
	if !reflect.DeepEqual(records, want) {
		t.Fatalf("unexpected csv content: %v", records)
	}
}

func TestExcelWriter_WritesHeadersAndRows(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "diffs.xlsx")
	if err := (&ExcelWriter{}).Write(path, sampleReport()); err != nil {
		t.Fatalf("write: %v", err)
	}

	file, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer file.Close()

	sheet := file.GetSheetName(0)
	rows, err := file.GetRows(sheet)
	if err != nil {
		t.Fatalf("get rows: %v", err)
	}
	want := [][]string{
		{"Week", "Material", "Action"},
		{"WK8", "Steel Rebar", "write"},
		{"WK8", "Gravel", "skip"},
	}
	if !reflect.DeepEqual(rows, want) {
		t.Fatalf("unexpected sheet content: %v", rows)
	}
}

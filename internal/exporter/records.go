package exporter

import (
	"encoding/csv"
	"fmt"
	"io"

	"sharescope/internal/dataset"
	"sharescope/pkg/contracts/domain"
)

// utf8BOM helps Excel recognize UTF-8 encoded CSV files
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// WriteRecordsCSV streams records as CSV to w, one row per record with
// the given columns as header. Used by the HTTP export endpoint.
func WriteRecordsCSV(w io.Writer, columns []string, records []domain.Record) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return fmt.Errorf("failed to write BOM: %w", err)
	}

	cw := csv.NewWriter(w)

	if err := cw.Write(columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	row := make([]string, len(columns))
	for i, r := range records {
		for j, col := range columns {
			row[j] = r.Value(col)
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// GroupCountHeaders returns the CSV header for a group-count table.
func GroupCountHeaders(column string) []string {
	return []string{column, "Count", "Share"}
}

// GroupCountRecords renders a group-count table as CSV rows. Share is
// formatted as a percentage with one decimal place.
func GroupCountRecords(counts []dataset.GroupCount) [][]string {
	rows := make([][]string, 0, len(counts))
	for _, gc := range counts {
		rows = append(rows, []string{
			gc.Value,
			fmt.Sprintf("%d", gc.Count),
			fmt.Sprintf("%.1f%%", gc.Share*100),
		})
	}
	return rows
}


// csv.go — CSV output formatter.
// Produces CSV output for bulk listings and piping.
package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"
)

// CSVFormatter produces CSV output.
type CSVFormatter struct{}

// Format writes the report's entry rows as CSV (header + N rows).
// Summary fields become a two-column name,value table when
// no entry rows are present.
func (f *CSVFormatter) Format(w io.Writer, rep *Report) error {
	cw := csv.NewWriter(w)

	if len(rep.Rows) == 0 {
		if err := cw.Write([]string{"name", "value"}); err != nil {
			return fmt.Errorf("write CSV header: %w", err)
		}
		for _, field := range rep.Fields {
			if err := cw.Write([]string{field.Name, field.Value}); err != nil {
				return fmt.Errorf("write CSV row: %w", err)
			}
		}
		cw.Flush()
		return cw.Error()
	}

	if err := cw.Write([]string{"key", "status", "body_bytes", "last_access"}); err != nil {
		return fmt.Errorf("write CSV header: %w", err)
	}
	for _, r := range rep.Rows {
		row := []string{
			r.Key,
			strconv.Itoa(r.Status),
			strconv.Itoa(r.BodyBytes),
			r.LastAccess.Format(time.RFC3339),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write CSV row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// json.go — JSON output formatter.
// Produces machine-parseable JSON output.
package output

import (
	"encoding/json"
	"io"
)

// JSONFormatter produces JSON output.
type JSONFormatter struct{}

// Format writes a JSON representation of the report.
func (f *JSONFormatter) Format(w io.Writer, rep *Report) error {
	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return err
	}

	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

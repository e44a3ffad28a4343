// human.go — Human-readable output formatter.
// Default format for interactive terminal use.
package output

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// HumanFormatter produces human-readable output.
type HumanFormatter struct{}

// Format writes an aligned representation of the report.
func (h *HumanFormatter) Format(w io.Writer, rep *Report) error {
	var sb strings.Builder

	width := 0
	for _, f := range rep.Fields {
		if len(f.Name) > width {
			width = len(f.Name)
		}
	}
	for _, f := range rep.Fields {
		sb.WriteString(fmt.Sprintf("%-*s  %s\n", width+1, f.Name+":", f.Value))
	}

	if len(rep.Rows) > 0 {
		if len(rep.Fields) > 0 {
			sb.WriteString("\n")
		}
		for _, r := range rep.Rows {
			sb.WriteString(fmt.Sprintf("%d  %8d  %s  %s\n",
				r.Status, r.BodyBytes, r.LastAccess.Format(time.RFC3339), r.Key))
		}
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

// types.go — Shared types for output formatting.
package output

import (
	"io"
	"time"
)

// Report is the printable outcome of one CLI command.
type Report struct {
	Command string  `json:"command"`
	Fields  []Field `json:"fields,omitempty"`
	Rows    []Row   `json:"entries,omitempty"`
}

// Field is one ordered name/value pair of a command summary.
type Field struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Row describes a single snapshot entry in listings.
type Row struct {
	Key        string    `json:"key"`
	Status     int       `json:"status"`
	BodyBytes  int       `json:"body_bytes"`
	LastAccess time.Time `json:"last_access"`
}

// Formatter is the interface for all output formatters.
type Formatter interface {
	Format(w io.Writer, rep *Report) error
}

// GetFormatter returns the formatter for the given format string.
func GetFormatter(format string) Formatter {
	switch format {
	case "json":
		return &JSONFormatter{}
	case "csv":
		return &CSVFormatter{}
	case "human":
		return &HumanFormatter{}
	default:
		return &HumanFormatter{} // fallback
	}
}

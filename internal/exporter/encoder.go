// Package exporter serializes query result rows into flat-file formats.
// Batches stream through a Writer one at a time, so exporting a large
// result set never holds more than one batch in memory.
package exporter

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// FileType selects the output serialization.
type FileType string

const (
	CSV   FileType = "csv"
	TXT   FileType = "txt"
	Excel FileType = "xlsx"
	PDF   FileType = "pdf"
)

// ParseFileType validates a format name from user input.
func ParseFileType(s string) (FileType, error) {
	switch strings.ToLower(s) {
	case "csv":
		return CSV, nil
	case "txt", "text":
		return TXT, nil
	case "xlsx", "excel":
		return Excel, nil
	case "pdf":
		return PDF, nil
	}
	return "", fmt.Errorf("unsupported file type %q (want csv, txt, xlsx or pdf)", s)
}

// Ext returns the file extension including the dot.
func (ft FileType) Ext() string {
	return "." + string(ft)
}

// ExportError wraps a sink write failure.
type ExportError struct {
	Path string
	Err  error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export to %s failed: %v", e.Path, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}

// encoder is the per-format serialization behind Writer. writeHeader is
// called at most once, before any writeRow.
type encoder interface {
	writeHeader(columns []string) error
	writeRow(values []any) error
	close() error
}

// toString renders a value for the text formats. NULLs become the
// empty-field convention.
func toString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []byte:
		return string(val)
	case time.Time:
		return val.Format("2006-01-02 15:04:05")
	case int64:
		return strconv.FormatInt(val, 10)
	case int:
		return strconv.Itoa(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprint(val)
	}
}

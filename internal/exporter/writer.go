package exporter

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"sql-executor/internal/db"
)

// Options configures a Writer. The zero value overwrites any existing
// file and writes a header before the first batch.
type Options struct {
	// Append extends an existing file instead of overwriting it. When
	// the file already exists the header is suppressed so appended runs
	// do not repeat it.
	Append bool
	// NoHeader disables the header entirely.
	NoHeader bool
	// Delimiter overrides the CSV field delimiter. Zero means comma.
	Delimiter rune

	Logger *slog.Logger
}

// Writer streams row batches into one output file. The file is only
// created when the first non-empty batch arrives, so statements that
// produce no data leave no file behind. Not safe for concurrent use.
type Writer struct {
	path     string
	ft       FileType
	opts     Options
	logger   *slog.Logger
	enc      encoder
	header   bool
	rowCount int64
}

// NewWriter prepares a writer for path, appending the format's
// extension when missing. No I/O happens until the first batch.
func NewWriter(path string, ft FileType, opts Options) *Writer {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{
		path:   EnsureExt(path, ft),
		ft:     ft,
		opts:   opts,
		logger: logger,
	}
}

// Path returns the resolved output path.
func (w *Writer) Path() string {
	return w.path
}

// Rows returns the number of rows written so far.
func (w *Writer) Rows() int64 {
	return w.rowCount
}

// WriteBatch appends one batch of rows, writing the header first when
// this is the file's first batch. Values are emitted in columns order;
// a column missing from a row renders as NULL.
func (w *Writer) WriteBatch(columns []string, rows []db.Row) error {
	if len(rows) == 0 {
		return nil
	}
	if w.enc == nil {
		if err := w.open(); err != nil {
			return &ExportError{Path: w.path, Err: err}
		}
		if w.header {
			if err := w.enc.writeHeader(columns); err != nil {
				return &ExportError{Path: w.path, Err: err}
			}
		}
	}
	values := make([]any, len(columns))
	for _, row := range rows {
		for i, col := range columns {
			values[i] = row[col]
		}
		if err := w.enc.writeRow(values); err != nil {
			return &ExportError{Path: w.path, Err: err}
		}
		w.rowCount++
	}
	return nil
}

// Close finalizes the file. When nothing was written no file is
// created and a warning is logged.
func (w *Writer) Close() error {
	if w.enc == nil {
		w.logger.Warn("No data to save, the file will not be created", "path", w.path)
		return nil
	}
	enc := w.enc
	w.enc = nil
	if err := enc.close(); err != nil {
		return &ExportError{Path: w.path, Err: err}
	}
	w.logger.Debug("Data saved", "path", w.path, "format", w.ft, "rows", w.rowCount)
	return nil
}

func (w *Writer) open() error {
	if dir := filepath.Dir(w.path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	existed := false
	if _, err := os.Stat(w.path); err == nil {
		existed = true
	}
	w.header = !w.opts.NoHeader && !(w.opts.Append && existed)

	switch w.ft {
	case CSV, TXT:
		flags := os.O_WRONLY | os.O_CREATE
		if w.opts.Append {
			flags |= os.O_APPEND
		} else {
			flags |= os.O_TRUNC
		}
		f, err := os.OpenFile(w.path, flags, 0644)
		if err != nil {
			return err
		}
		if w.ft == CSV {
			w.enc = newCSVEncoder(f, w.opts.Delimiter)
		} else {
			w.enc = newTXTEncoder(f)
		}
	case Excel:
		enc, err := newExcelEncoder(w.path, w.opts.Append)
		if err != nil {
			return err
		}
		if w.opts.Append && existed {
			w.header = false
		}
		w.enc = enc
	case PDF:
		// No append mode for PDF; each export is a fresh document.
		w.enc = newPDFEncoder(w.path)
		w.header = !w.opts.NoHeader
	default:
		return fmt.Errorf("unsupported file type %q", w.ft)
	}
	return nil
}

// SaveRows writes one in-memory result set to path in a single shot.
// Convenience wrapper over Writer for callers that already hold all the
// rows; empty input creates no file.
func SaveRows(path string, ft FileType, columns []string, rows []db.Row, opts Options) (string, error) {
	w := NewWriter(path, ft, opts)
	if err := w.WriteBatch(columns, rows); err != nil {
		w.Close()
		return w.Path(), err
	}
	return w.Path(), w.Close()
}

// EnsureExt appends the format's extension unless the path already
// carries it.
func EnsureExt(path string, ft FileType) string {
	if strings.EqualFold(filepath.Ext(path), ft.Ext()) {
		return path
	}
	return path + ft.Ext()
}

// NumberedPath derives the per-statement output path: base, an
// underscore, the 1-based statement index zero-padded to width digits,
// then the extension.
func NumberedPath(base string, index, width int, ft FileType) string {
	return EnsureExt(fmt.Sprintf("%s_%0*d", base, width, index), ft)
}

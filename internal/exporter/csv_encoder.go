package exporter

import (
	"bufio"
	"encoding/csv"
	"os"
)

// csvEncoder writes CSV through a buffered writer to keep syscalls off
// the per-row path.
type csvEncoder struct {
	f   *os.File
	buf *bufio.Writer
	w   *csv.Writer
}

func newCSVEncoder(f *os.File, delimiter rune) *csvEncoder {
	buf := bufio.NewWriterSize(f, 64*1024)
	w := csv.NewWriter(buf)
	if delimiter != 0 {
		w.Comma = delimiter
	}
	return &csvEncoder{f: f, buf: buf, w: w}
}

func (e *csvEncoder) writeHeader(columns []string) error {
	return e.w.Write(columns)
}

func (e *csvEncoder) writeRow(values []any) error {
	record := make([]string, len(values))
	for i, v := range values {
		record[i] = toString(v)
	}
	return e.w.Write(record)
}

func (e *csvEncoder) close() error {
	e.w.Flush()
	err := e.w.Error()
	if flushErr := e.buf.Flush(); err == nil {
		err = flushErr
	}
	if closeErr := e.f.Close(); err == nil {
		err = closeErr
	}
	return err
}

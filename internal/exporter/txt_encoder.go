package exporter

import (
	"bufio"
	"os"
	"strings"
)

// txtEncoder writes tab-separated text, one header line then one line
// per record.
type txtEncoder struct {
	f   *os.File
	buf *bufio.Writer
}

func newTXTEncoder(f *os.File) *txtEncoder {
	return &txtEncoder{f: f, buf: bufio.NewWriterSize(f, 64*1024)}
}

func (e *txtEncoder) writeHeader(columns []string) error {
	return e.writeLine(columns)
}

func (e *txtEncoder) writeRow(values []any) error {
	fields := make([]string, len(values))
	for i, v := range values {
		fields[i] = toString(v)
	}
	return e.writeLine(fields)
}

func (e *txtEncoder) writeLine(fields []string) error {
	if _, err := e.buf.WriteString(strings.Join(fields, "\t")); err != nil {
		return err
	}
	return e.buf.WriteByte('\n')
}

func (e *txtEncoder) close() error {
	err := e.buf.Flush()
	if closeErr := e.f.Close(); err == nil {
		err = closeErr
	}
	return err
}

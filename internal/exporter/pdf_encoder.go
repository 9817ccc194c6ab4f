package exporter

import (
	"github.com/go-pdf/fpdf"
)

// pdfEncoder renders a simple landscape grid. PDF has no append mode;
// each export produces a fresh document.
type pdfEncoder struct {
	pdf      *fpdf.Fpdf
	path     string
	colWidth float64
}

func newPDFEncoder(path string) *pdfEncoder {
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetFont("Arial", "", 10)
	pdf.AddPage()
	return &pdfEncoder{pdf: pdf, path: path}
}

func (e *pdfEncoder) writeHeader(columns []string) error {
	e.setColWidth(len(columns))
	e.pdf.SetFont("Arial", "B", 10)
	for _, col := range columns {
		e.pdf.CellFormat(e.colWidth, 7, col, "1", 0, "C", false, 0, "")
	}
	e.pdf.Ln(-1)
	e.pdf.SetFont("Arial", "", 10)
	return e.pdf.Error()
}

func (e *pdfEncoder) writeRow(values []any) error {
	e.setColWidth(len(values))
	for _, v := range values {
		e.pdf.CellFormat(e.colWidth, 6, toString(v), "1", 0, "L", false, 0, "")
	}
	e.pdf.Ln(-1)
	return e.pdf.Error()
}

func (e *pdfEncoder) setColWidth(n int) {
	if e.colWidth != 0 || n == 0 {
		return
	}
	pageWidth, _ := e.pdf.GetPageSize()
	left, _, right, _ := e.pdf.GetMargins()
	e.colWidth = (pageWidth - left - right) / float64(n)
}

func (e *pdfEncoder) close() error {
	return e.pdf.OutputFileAndClose(e.path)
}

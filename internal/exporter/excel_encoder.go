package exporter

import (
	"fmt"
	"os"

	"github.com/xuri/excelize/v2"
)

// excelMaxRows is the hard sheet limit of the xlsx format.
const excelMaxRows = 1048576

// excelEncoder writes one sheet, row 1 optionally a header. Appending
// loads the existing workbook and extends the first sheet instead of
// overwriting it.
type excelEncoder struct {
	f      *excelize.File
	path   string
	sheet  string
	rowIdx int
}

func newExcelEncoder(path string, append bool) (*excelEncoder, error) {
	if append {
		if _, err := os.Stat(path); err == nil {
			f, err := excelize.OpenFile(path)
			if err != nil {
				return nil, err
			}
			sheet := f.GetSheetName(0)
			rows, err := f.GetRows(sheet)
			if err != nil {
				f.Close()
				return nil, err
			}
			return &excelEncoder{f: f, path: path, sheet: sheet, rowIdx: len(rows) + 1}, nil
		}
	}
	f := excelize.NewFile()
	return &excelEncoder{f: f, path: path, sheet: f.GetSheetName(0), rowIdx: 1}, nil
}

func (e *excelEncoder) writeHeader(columns []string) error {
	row := make([]any, len(columns))
	for i, col := range columns {
		row[i] = col
	}
	return e.setRow(row)
}

func (e *excelEncoder) writeRow(values []any) error {
	row := make([]any, len(values))
	for i, v := range values {
		if b, ok := v.([]byte); ok {
			row[i] = string(b)
		} else {
			row[i] = v
		}
	}
	return e.setRow(row)
}

func (e *excelEncoder) setRow(row []any) error {
	if e.rowIdx > excelMaxRows {
		return fmt.Errorf("excel row limit exceeded (%d rows)", excelMaxRows)
	}
	cell, err := excelize.CoordinatesToCellName(1, e.rowIdx)
	if err != nil {
		return err
	}
	if err := e.f.SetSheetRow(e.sheet, cell, &row); err != nil {
		return err
	}
	e.rowIdx++
	return nil
}

func (e *excelEncoder) close() error {
	err := e.f.SaveAs(e.path)
	if closeErr := e.f.Close(); err == nil {
		err = closeErr
	}
	return err
}

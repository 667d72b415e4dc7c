package dataset

import (
	"errors"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/cleared-dev/tally/internal/model"
)

// XLSXReader reads the first sheet of an Excel workbook.
type XLSXReader struct{}

// Format returns the file extension handled.
func (x *XLSXReader) Format() string { return "xlsx" }

// Read parses the first sheet; its first row is the header.
func (x *XLSXReader) Read(r io.Reader) (model.Dataset, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return model.Dataset{}, fmt.Errorf("opening xlsx: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return model.Dataset{}, errors.New("workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return model.Dataset{}, fmt.Errorf("reading sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return model.Dataset{}, ErrEmptyFile
	}

	header := rows[0]
	body := rows[1:]
	for i, rec := range body {
		if len(rec) > len(header) {
			return model.Dataset{}, fmt.Errorf("row %d: expected at most %d cells, got %d", i+2, len(header), len(rec))
		}
	}
	return fromRecords(header, dropBlank(body)), nil
}

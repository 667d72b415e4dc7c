package dataset

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/cleared-dev/tally/internal/model"
)

var byteOrderMark = []byte{0xEF, 0xBB, 0xBF}

// ErrEmptyFile is returned when a file has no header row.
var ErrEmptyFile = errors.New("file is empty")

// CSVReader reads comma-separated files with a header row.
type CSVReader struct{}

// Format returns the file extension handled.
func (c *CSVReader) Format() string { return "csv" }

// Read parses a CSV stream. A leading byte-order mark is skipped; rows
// shorter than the header are padded with nulls.
func (c *CSVReader) Read(r io.Reader) (model.Dataset, error) {
	br := bufio.NewReader(r)
	if prefix, err := br.Peek(len(byteOrderMark)); err == nil && bytes.Equal(prefix, byteOrderMark) {
		_, _ = br.Discard(len(byteOrderMark))
	}

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return model.Dataset{}, fmt.Errorf("reading CSV: %w", err)
	}
	if len(records) == 0 {
		return model.Dataset{}, ErrEmptyFile
	}

	header := records[0]
	body := records[1:]
	for i, rec := range body {
		if len(rec) > len(header) {
			return model.Dataset{}, fmt.Errorf("row %d: expected at most %d fields, got %d", i+2, len(header), len(rec))
		}
	}
	return fromRecords(header, dropBlank(body)), nil
}

// WriteCSV writes ds with a header row of its declared columns.
func WriteCSV(w io.Writer, ds model.Dataset) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(ds.Columns); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for i, row := range ds.Rows {
		rec := make([]string, len(ds.Columns))
		for j, col := range ds.Columns {
			rec[j] = row.Get(col).String()
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func dropBlank(records [][]string) [][]string {
	out := records[:0:0]
	for _, rec := range records {
		blank := true
		for _, cell := range rec {
			if strings.TrimSpace(cell) != "" {
				blank = false
				break
			}
		}
		if !blank {
			out = append(out, rec)
		}
	}
	return out
}

package dataset

import (
	"strconv"
	"strings"

	"github.com/cleared-dev/tally/internal/model"
)

// maxExactInt is the largest integer a float64 holds exactly.
const maxExactInt = 1 << 53

// fromRecords builds a typed Dataset from a header and raw string rows.
// Each column gets a single type: number when every non-empty cell parses
// as a float without losing integer digits, bool when every non-empty cell is true/false, string
// otherwise. Empty cells are null.
func fromRecords(header []string, records [][]string) model.Dataset {
	cols := make([]string, len(header))
	copy(cols, header)

	kinds := make([]model.Kind, len(cols))
	for i := range cols {
		kinds[i] = inferKind(records, i)
	}

	rows := make([]model.Row, 0, len(records))
	for _, rec := range records {
		row := make(model.Row, len(cols))
		for i, col := range cols {
			if i >= len(rec) || rec[i] == "" {
				row[col] = model.Null()
				continue
			}
			row[col] = typedCell(rec[i], kinds[i])
		}
		rows = append(rows, row)
	}
	return model.Dataset{Columns: cols, Rows: rows}
}

func inferKind(records [][]string, col int) model.Kind {
	numeric, boolean, seen := true, true, false
	for _, rec := range records {
		if col >= len(rec) || rec[col] == "" {
			continue
		}
		seen = true
		cell := strings.TrimSpace(rec[col])
		if !exactFloat(cell) {
			numeric = false
		}
		if _, ok := parseBool(cell); !ok {
			boolean = false
		}
		if !numeric && !boolean {
			return model.KindString
		}
	}
	switch {
	case !seen:
		return model.KindNull
	case numeric:
		return model.KindNumber
	case boolean:
		return model.KindBool
	default:
		return model.KindString
	}
}

func typedCell(cell string, kind model.Kind) model.Value {
	switch kind {
	case model.KindNumber:
		f, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
		if err != nil {
			return model.String(cell)
		}
		return model.Number(f)
	case model.KindBool:
		b, ok := parseBool(strings.TrimSpace(cell))
		if !ok {
			return model.String(cell)
		}
		return model.Bool(b)
	default:
		return model.String(cell)
	}
}

// exactFloat reports whether cell parses as a float64 and, when it is
// written as an integer, keeps every digit. Long reference numbers fail and
// their column stays text.
func exactFloat(cell string) bool {
	if _, err := strconv.ParseFloat(cell, 64); err != nil {
		return false
	}
	if !isIntegerText(cell) {
		return true
	}
	n, err := strconv.ParseInt(cell, 10, 64)
	return err == nil && n <= maxExactInt && n >= -maxExactInt
}

func isIntegerText(s string) bool {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "-"), "+")
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func parseBool(s string) (bool, bool) {
	switch strings.ToLower(s) {
	case "true":
		return true, true
	case "false":
		return false, true
	}
	return false, false
}

package model

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Row maps column name to cell value. A missing column reads as null.
type Row map[string]Value

// Get returns the value for col, or null.
func (r Row) Get(col string) Value {
	return r[col]
}

// Clone returns a shallow copy of r.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Dataset is an ordered set of rows sharing a declared column list.
// Rows may be ragged; fields a row lacks are treated as null.
type Dataset struct {
	Columns []string
	Rows    []Row
}

// NewDataset builds a Dataset from a column list and rows.
func NewDataset(columns []string, rows ...Row) Dataset {
	return Dataset{Columns: columns, Rows: rows}
}

// Len returns the number of rows.
func (d Dataset) Len() int { return len(d.Rows) }

// HasColumn reports whether col is declared, with an exact name match.
func (d Dataset) HasColumn(col string) bool {
	for _, c := range d.Columns {
		if c == col {
			return true
		}
	}
	return false
}

// Clone returns a copy whose column slice and rows can be modified freely.
func (d Dataset) Clone() Dataset {
	cols := make([]string, len(d.Columns))
	copy(cols, d.Columns)
	rows := make([]Row, len(d.Rows))
	for i, r := range d.Rows {
		rows[i] = r.Clone()
	}
	return Dataset{Columns: cols, Rows: rows}
}

// Records returns every row with each declared column present.
func (d Dataset) Records() []Row {
	out := make([]Row, len(d.Rows))
	for i, r := range d.Rows {
		rec := make(Row, len(d.Columns))
		for _, c := range d.Columns {
			rec[c] = r.Get(c)
		}
		out[i] = rec
	}
	return out
}

// MarshalJSON encodes the dataset as an array of records.
func (d Dataset) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Records())
}

// Key is a hashable identity for a join-key value. Numbers and numeric
// text share one canonical decimal form, so 1001 read as a number joins
// "1001" read as text; all absent values share one key.
type Key string

// KeyOf returns the join identity of v.
func KeyOf(v Value) Key {
	if v.IsAbsent() {
		return "null:"
	}
	switch v.kind {
	case KindString:
		s := strings.TrimSpace(v.s)
		if d, err := decimal.NewFromString(s); err == nil {
			return Key("n:" + d.String())
		}
		return Key("s:" + s)
	case KindNumber:
		if math.IsInf(v.n, 0) {
			return Key("n:" + strconv.FormatFloat(v.n, 'g', -1, 64))
		}
		// NewFromFloat maps -0 to 0.
		return Key("n:" + decimal.NewFromFloat(v.n).String())
	case KindBool:
		return Key("b:" + strconv.FormatBool(v.b))
	case KindTime:
		return Key("t:" + v.t.UTC().Format(time.RFC3339Nano))
	}
	return "null:"
}

package dataset

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/tally/internal/model"
)

// CoerceNumeric returns a copy of ds in which every value of the named
// columns (matched case-insensitively) is a number or null. Strings that
// do not parse as a decimal become null. The second result counts values
// that were nulled.
func CoerceNumeric(ds model.Dataset, columns ...string) (model.Dataset, int) {
	want := make(map[string]bool, len(columns))
	for _, c := range columns {
		want[strings.ToLower(c)] = true
	}
	var targets []string
	for _, c := range ds.Columns {
		if want[strings.ToLower(c)] {
			targets = append(targets, c)
		}
	}

	out := ds.Clone()
	dropped := 0
	for _, row := range out.Rows {
		for _, col := range targets {
			v := row.Get(col)
			n, ok := toNumber(v)
			if !ok && !v.IsNull() {
				dropped++
			}
			row[col] = n
		}
	}
	return out, dropped
}

func toNumber(v model.Value) (model.Value, bool) {
	switch v.Kind() {
	case model.KindNumber:
		return v, true
	case model.KindString:
		s, _ := v.Str()
		d, err := decimal.NewFromString(strings.TrimSpace(s))
		if err != nil {
			return model.Null(), false
		}
		return model.Number(d.InexactFloat64()), true
	case model.KindBool:
		b, _ := v.Boolean()
		if b {
			return model.Number(1), true
		}
		return model.Number(0), true
	default:
		return model.Null(), false
	}
}

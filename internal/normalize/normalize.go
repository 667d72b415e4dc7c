// Package normalize canonicalizes datasets before they are compared:
// column names and free-text values are case-folded and trimmed, text
// columns can be parsed as dates, and nulls can be filled.
package normalize

import (
	"strings"
	"time"

	"github.com/itchyny/timefmt-go"
	"github.com/rs/zerolog"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/cleared-dev/tally/internal/model"
)

// Options controls a normalization pass.
type Options struct {
	DateFormat      string       // strftime or Go layout; empty disables date parsing
	IgnoreCase      bool         // lower-case column names and text values
	StripWhitespace bool         // trim column names and text values
	FillNA          *model.Value // replaces every absent value when set
}

// DefaultOptions lower-cases and trims, with no date parsing or fill.
func DefaultOptions() Options {
	return Options{IgnoreCase: true, StripWhitespace: true}
}

// Normalizer applies Options to datasets. It is safe for concurrent use.
type Normalizer struct {
	log zerolog.Logger
}

// New creates a Normalizer that reports non-fatal problems to log.
func New(log zerolog.Logger) *Normalizer {
	return &Normalizer{log: log}
}

// Normalize returns a normalized copy of ds. It never fails: columns whose
// date parsing cannot succeed are logged and left as text.
func (n *Normalizer) Normalize(ds model.Dataset, opts Options) model.Dataset {
	// Casers carry state and must not be shared across goroutines.
	lower := cases.Lower(language.Und)
	text := func(s string) string {
		if opts.StripWhitespace {
			s = strings.TrimSpace(s)
		}
		if opts.IgnoreCase {
			s = lower.String(s)
		}
		return s
	}

	out := n.renameColumns(ds, opts, lower)

	for _, col := range out.Columns {
		if !isTextColumn(out, col) {
			continue
		}
		for _, row := range out.Rows {
			if s, ok := row.Get(col).Str(); ok {
				row[col] = model.String(text(s))
			}
		}
		if opts.DateFormat != "" {
			n.parseDates(out, col, opts.DateFormat)
		}
	}

	if opts.FillNA != nil {
		fill := *opts.FillNA
		if s, ok := fill.Str(); ok {
			fill = model.String(text(s))
		}
		for _, row := range out.Rows {
			for _, col := range out.Columns {
				if row.Get(col).IsAbsent() {
					row[col] = fill
				}
			}
		}
	}
	return out
}

func (n *Normalizer) renameColumns(ds model.Dataset, opts Options, lower cases.Caser) model.Dataset {
	rename := func(c string) string {
		if opts.IgnoreCase {
			c = lower.String(c)
		}
		if opts.StripWhitespace {
			c = strings.TrimSpace(c)
		}
		return c
	}

	names := make(map[string]string, len(ds.Columns))
	var cols []string
	seen := make(map[string]bool, len(ds.Columns))
	for _, c := range ds.Columns {
		nc := rename(c)
		names[c] = nc
		if seen[nc] {
			n.log.Warn().Str("column", c).Str("normalized", nc).Msg("column name collides after normalization; later values win")
			continue
		}
		seen[nc] = true
		cols = append(cols, nc)
	}

	rows := make([]model.Row, len(ds.Rows))
	for i, r := range ds.Rows {
		row := make(model.Row, len(r))
		for _, c := range ds.Columns {
			if v, ok := r[c]; ok {
				row[names[c]] = v
			}
		}
		rows[i] = row
	}
	return model.Dataset{Columns: cols, Rows: rows}
}

// parseDates converts col in place. Values that do not parse become null,
// unless nothing in the column parses, in which case it is left alone.
func (n *Normalizer) parseDates(ds model.Dataset, col, format string) {
	converted := make([]model.Value, len(ds.Rows))
	parsed, failed := 0, 0
	for i, row := range ds.Rows {
		v := row.Get(col)
		switch v.Kind() {
		case model.KindTime:
			converted[i] = v
			parsed++
		case model.KindString:
			s, _ := v.Str()
			if t, ok := parseTime(format, s); ok {
				converted[i] = model.Time(t)
				parsed++
			} else {
				converted[i] = model.Null()
				failed++
			}
		case model.KindNull:
			converted[i] = v
		default:
			converted[i] = model.Null()
			failed++
		}
	}

	if parsed == 0 {
		n.log.Warn().Str("column", col).Str("format", format).Msg("date conversion failed for column; leaving values unconverted")
		return
	}
	if failed > 0 {
		n.log.Debug().Str("column", col).Int("unparsed", failed).Msg("unparseable dates set to null")
	}
	for i, row := range ds.Rows {
		row[col] = converted[i]
	}
}

// parseTime parses s with a strftime format ("%Y-%m-%d") or, when format
// has no '%', a Go layout. Month and meridiem names match in any case.
func parseTime(format, s string) (time.Time, bool) {
	parse := func(v string) (time.Time, error) { return time.Parse(format, v) }
	if strings.Contains(format, "%") {
		parse = func(v string) (time.Time, error) { return timefmt.ParseInLocation(v, format, time.UTC) }
	}
	for _, candidate := range []string{s, strings.ToLower(s), strings.ToUpper(s), titleCase(s)} {
		if t, err := parse(candidate); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// meridiem restores upper-case AM/PM after title-casing.
var meridiem = strings.NewReplacer("Am", "AM", "Pm", "PM")

// titleCase spells month and day names the way strftime prints them
// ("Jan", "Monday") and keeps AM/PM upper-case.
func titleCase(s string) string {
	return meridiem.Replace(cases.Title(language.Und).String(strings.ToLower(s)))
}

// isTextColumn reports whether col holds any string value. Purely numeric,
// boolean, time, or empty columns are not text.
func isTextColumn(ds model.Dataset, col string) bool {
	for _, row := range ds.Rows {
		if row.Get(col).Kind() == model.KindString {
			return true
		}
	}
	return false
}

// Package report renders reconciliation results as CSV, HTML, Markdown,
// or JSON.
//
// Every output method returns a Rendered value. On failure the Body holds
// a human-readable error in the target format and Err is set, so callers
// that only forward Body still show something meaningful.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"strings"

	md "github.com/nao1215/markdown"

	"github.com/cleared-dev/tally/internal/dataset"
	"github.com/cleared-dev/tally/internal/model"
)

// Section titles, in output order.
const (
	SectionMissingInSource = "Missing in Source"
	SectionMissingInTarget = "Missing in Target"
	SectionDiscrepancies   = "Discrepancies"
)

// Rendered is the output of one format call. Body is always set; Err is
// non-nil when Body carries an error message instead of a report.
type Rendered struct {
	Body string
	Err  error
}

// FormatError wraps a failure while rendering a format.
type FormatError struct {
	Format string
	Err    error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("rendering %s: %v", e.Format, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

var errNoResult = errors.New("no reconciliation result")

// Formatter renders one Result.
type Formatter struct {
	result *model.Result
}

// New creates a Formatter for result.
func New(result *model.Result) *Formatter {
	return &Formatter{result: result}
}

// CSV renders every non-empty section into one table with a leading
// Section column.
func (f *Formatter) CSV() Rendered {
	return f.render("csv", plainError, func(b *strings.Builder) error {
		secs, err := f.sections()
		if err != nil {
			return err
		}
		if len(secs) == 0 {
			return nil
		}
		return dataset.WriteCSV(b, combine(secs))
	})
}

// HTML renders one heading and table per non-empty section.
func (f *Formatter) HTML() Rendered {
	return f.render("html", htmlError, func(b *strings.Builder) error {
		secs, err := f.sections()
		if err != nil {
			return err
		}
		views := make([]htmlSection, 0, len(secs))
		for _, s := range secs {
			views = append(views, newHTMLSection(s))
		}
		return htmlReport.Execute(b, views)
	})
}

// Markdown renders the summary followed by one table per non-empty section.
func (f *Formatter) Markdown() Rendered {
	return f.render("markdown", plainError, func(b *strings.Builder) error {
		secs, err := f.sections()
		if err != nil {
			return err
		}
		s := f.result.Summary

		doc := md.NewMarkdown(b)
		doc.H2("Reconciliation Summary")
		doc.BulletList(
			fmt.Sprintf("Missing in source: %d", s.MissingInSourceCount),
			fmt.Sprintf("Missing in target: %d", s.MissingInTargetCount),
			fmt.Sprintf("Discrepancies: %d", s.DiscrepancyCount),
		)
		for _, sec := range secs {
			doc.LF()
			doc.H3(sec.title)
			doc.Table(md.TableSet{
				Header: sec.ds.Columns,
				Rows:   cells(sec.ds),
			})
		}
		return doc.Build()
	})
}

// JSON renders the result as indented JSON.
func (f *Formatter) JSON() Rendered {
	return f.render("json", plainError, func(b *strings.Builder) error {
		if f.result == nil {
			return errNoResult
		}
		out, err := json.MarshalIndent(f.result, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding result: %w", err)
		}
		b.Write(out)
		b.WriteByte('\n')
		return nil
	})
}

func (f *Formatter) render(format string, failure func(error) string, fn func(*strings.Builder) error) (out Rendered) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("panic: %v", r)
			out = Rendered{Body: failure(err), Err: &FormatError{Format: format, Err: err}}
		}
	}()

	var b strings.Builder
	if err := fn(&b); err != nil {
		return Rendered{Body: failure(err), Err: &FormatError{Format: format, Err: err}}
	}
	return Rendered{Body: b.String()}
}

func plainError(err error) string {
	return "Error: " + err.Error()
}

func htmlError(err error) string {
	return "<p>Error generating HTML: " + template.HTMLEscapeString(err.Error()) + "</p>"
}

type section struct {
	title string
	ds    model.Dataset
}

// sections returns the non-empty sections in output order. Discrepancies
// are flattened to a join-key column and a compact JSON details column.
func (f *Formatter) sections() ([]section, error) {
	if f.result == nil {
		return nil, errNoResult
	}
	disc, err := flattenDiscrepancies(f.result.Discrepancies)
	if err != nil {
		return nil, err
	}

	var out []section
	for _, s := range []section{
		{SectionMissingInSource, f.result.MissingInSource},
		{SectionMissingInTarget, f.result.MissingInTarget},
		{SectionDiscrepancies, disc},
	} {
		if s.ds.Len() > 0 {
			out = append(out, s)
		}
	}
	return out, nil
}

func flattenDiscrepancies(ds []model.Discrepancy) (model.Dataset, error) {
	if len(ds) == 0 {
		return model.Dataset{}, nil
	}
	col := ds[0].KeyField()
	out := model.Dataset{Columns: []string{col, model.DetailsField}}
	for _, d := range ds {
		details, err := json.Marshal(d.Details)
		if err != nil {
			return model.Dataset{}, fmt.Errorf("encoding discrepancy details: %w", err)
		}
		out.Rows = append(out.Rows, model.Row{
			col:                d.Key,
			model.DetailsField: model.String(string(details)),
		})
	}
	return out, nil
}

// combine stacks sections into one dataset whose columns are Section plus
// the union of section columns in first-appearance order.
func combine(secs []section) model.Dataset {
	cols := []string{"Section"}
	seen := map[string]bool{"Section": true}
	for _, s := range secs {
		for _, c := range s.ds.Columns {
			if !seen[c] {
				seen[c] = true
				cols = append(cols, c)
			}
		}
	}

	out := model.Dataset{Columns: cols}
	for _, s := range secs {
		for _, row := range s.ds.Rows {
			r := row.Clone()
			r["Section"] = model.String(s.title)
			out.Rows = append(out.Rows, r)
		}
	}
	return out
}

func cells(ds model.Dataset) [][]string {
	rows := make([][]string, len(ds.Rows))
	for i, row := range ds.Rows {
		rec := make([]string, len(ds.Columns))
		for j, c := range ds.Columns {
			rec[j] = row.Get(c).String()
		}
		rows[i] = rec
	}
	return rows
}

// Package reconcile matches a source dataset against a target dataset on a
// single join column and reports missing rows and discrepancies.
package reconcile

import (
	"math"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/tally/internal/model"
)

// Default column names, after normalization.
const (
	DefaultJoinColumn   = "txn refno"
	DefaultDebitColumn  = "debit"
	DefaultCreditColumn = "credit"
)

// Params configures one reconciliation.
type Params struct {
	JoinColumns   []string // exactly one column is supported
	IgnoreColumns []string // excluded from the other-field comparison only
	DebitColumn   string   // defaults to DefaultDebitColumn
	CreditColumn  string   // defaults to DefaultCreditColumn

	// StrictDoubleEntry requires the target to record the opposite side of
	// the source (debit against credit). When false, a target recording the
	// same side as the source is also accepted.
	StrictDoubleEntry bool
}

// Reconciler runs reconciliations. It holds no per-run state.
type Reconciler struct {
	log zerolog.Logger
}

// New creates a Reconciler logging to log.
func New(log zerolog.Logger) *Reconciler {
	return &Reconciler{log: log}
}

// Reconcile joins source and target on the configured column. Neither
// dataset is modified; result rows are copies.
func (r *Reconciler) Reconcile(source, target model.Dataset, p Params) (*model.Result, error) {
	if p.DebitColumn == "" {
		p.DebitColumn = DefaultDebitColumn
	}
	if p.CreditColumn == "" {
		p.CreditColumn = DefaultCreditColumn
	}
	join, err := checkParams(source, target, p)
	if err != nil {
		return nil, err
	}

	src := buildIndex(source, join)
	tgt := buildIndex(target, join)

	res := &model.Result{
		MissingInTarget: unmatched(source, join, tgt),
		MissingInSource: unmatched(target, join, src),
		Discrepancies:   duplicates(source, target, join, src, tgt),
	}

	cols := comparedColumns(source, target, join, p)
	pairs := 0
	for _, srow := range source.Rows {
		for _, ti := range tgt.rows[model.KeyOf(srow.Get(join))] {
			pairs++
			details := compareRows(srow, target.Rows[ti], cols, p)
			if details.Empty() {
				continue
			}
			res.Discrepancies = append(res.Discrepancies, model.Discrepancy{
				Column:  join,
				Key:     srow.Get(join),
				Details: details,
			})
		}
	}

	res.Summary = model.Summary{
		MissingInTargetCount: res.MissingInTarget.Len(),
		MissingInSourceCount: res.MissingInSource.Len(),
		DiscrepancyCount:     len(res.Discrepancies),
	}

	r.log.Debug().
		Str("join_column", join).
		Int("source_rows", source.Len()).
		Int("target_rows", target.Len()).
		Int("matched_pairs", pairs).
		Int("missing_in_target", res.Summary.MissingInTargetCount).
		Int("missing_in_source", res.Summary.MissingInSourceCount).
		Int("discrepancies", res.Summary.DiscrepancyCount).
		Msg("reconciled")

	return res, nil
}

func checkParams(source, target model.Dataset, p Params) (string, error) {
	if len(p.JoinColumns) == 0 {
		return "", &ConfigError{Message: "join column (unique transaction number) must be specified"}
	}
	if len(p.JoinColumns) != 1 {
		return "", &ConfigError{Message: "only one join column (unique transaction number) may be specified for this type of reconciliation"}
	}
	join := p.JoinColumns[0]
	if join == model.DetailsField {
		return "", &ConfigError{Column: join, Message: "join column name is reserved for discrepancy details in the output"}
	}
	for _, col := range []string{join, p.DebitColumn, p.CreditColumn} {
		if !source.HasColumn(col) || !target.HasColumn(col) {
			return "", &ConfigError{Column: col, Message: "required column not found in both datasets after normalization"}
		}
	}
	return join, nil
}

// index maps a join key to the positions of its rows, remembering the order
// in which keys first appear.
type index struct {
	rows  map[model.Key][]int
	order []model.Key
}

func buildIndex(ds model.Dataset, join string) index {
	idx := index{rows: make(map[model.Key][]int, ds.Len())}
	for i, row := range ds.Rows {
		k := model.KeyOf(row.Get(join))
		if _, ok := idx.rows[k]; !ok {
			idx.order = append(idx.order, k)
		}
		idx.rows[k] = append(idx.rows[k], i)
	}
	return idx
}

// unmatched returns the rows of ds whose key has no entry in other.
func unmatched(ds model.Dataset, join string, other index) model.Dataset {
	cols := make([]string, len(ds.Columns))
	copy(cols, ds.Columns)
	out := model.Dataset{Columns: cols, Rows: []model.Row{}}
	for _, row := range ds.Rows {
		if _, ok := other.rows[model.KeyOf(row.Get(join))]; !ok {
			out.Rows = append(out.Rows, row.Clone())
		}
	}
	return out
}

// duplicates reports every key that repeats within source or target, in
// order of first appearance (source keys first).
func duplicates(source, target model.Dataset, join string, src, tgt index) []model.Discrepancy {
	out := []model.Discrepancy{}
	pos := make(map[model.Key]int)
	add := func(ds model.Dataset, idx index, mark func(*model.Details)) {
		for _, k := range idx.order {
			if len(idx.rows[k]) < 2 {
				continue
			}
			i, ok := pos[k]
			if !ok {
				i = len(out)
				pos[k] = i
				out = append(out, model.Discrepancy{
					Column: join,
					Key:    ds.Rows[idx.rows[k][0]].Get(join),
				})
			}
			mark(&out[i].Details)
		}
	}
	add(source, src, func(d *model.Details) { d.DuplicateInSource = true })
	add(target, tgt, func(d *model.Details) { d.DuplicateInTarget = true })
	return out
}

// comparedColumns lists the source columns, in source order, that also
// exist in target and are not join, debit, credit, or ignored.
func comparedColumns(source, target model.Dataset, join string, p Params) []string {
	skip := map[string]bool{join: true, p.DebitColumn: true, p.CreditColumn: true}
	ignored := make(map[string]bool, len(p.IgnoreColumns))
	for _, c := range p.IgnoreColumns {
		ignored[strings.ToLower(strings.TrimSpace(c))] = true
	}

	var cols []string
	for _, c := range source.Columns {
		if skip[c] || ignored[strings.ToLower(strings.TrimSpace(c))] || !target.HasColumn(c) {
			continue
		}
		cols = append(cols, c)
	}
	return cols
}

func compareRows(srow, trow model.Row, cols []string, p Params) model.Details {
	var d model.Details
	s := readEntry(srow, p.DebitColumn, p.CreditColumn)
	t := readEntry(trow, p.DebitColumn, p.CreditColumn)

	d.DebitCreditMismatch = debitCreditMismatch(s, t, p.StrictDoubleEntry)

	switch {
	case s.hasAmount && t.hasAmount:
		if !s.amount.Equal(t.amount) {
			d.AmountMismatch = &model.FieldDiff{Source: s.amountValue(), Target: t.amountValue()}
		}
	case s.hasAmount != t.hasAmount:
		d.AmountMismatch = &model.FieldDiff{Source: s.amountValue(), Target: t.amountValue()}
	}

	for _, col := range cols {
		sv, tv := srow.Get(col), trow.Get(col)
		if sv.Equal(tv) {
			continue
		}
		if d.OtherDiscrepancies == nil {
			d.OtherDiscrepancies = make(map[string]model.FieldDiff)
		}
		d.OtherDiscrepancies[col] = model.FieldDiff{Source: sv, Target: tv}
	}
	return d
}

// entry is one side of a matched pair, read from its debit/credit columns.
type entry struct {
	isDebit   bool
	isCredit  bool
	hasAmount bool
	amount    decimal.Decimal
}

func readEntry(row model.Row, debitCol, creditCol string) entry {
	debit, debitOK := amountOf(row.Get(debitCol))
	credit, creditOK := amountOf(row.Get(creditCol))

	e := entry{
		isDebit:  debitOK && !debit.IsZero(),
		isCredit: creditOK && !credit.IsZero(),
	}
	switch {
	case e.isDebit:
		e.amount, e.hasAmount = debit, true
	case creditOK:
		e.amount, e.hasAmount = credit, true
	}
	return e
}

func (e entry) amountValue() model.Value {
	if !e.hasAmount {
		return model.Null()
	}
	return model.Number(e.amount.InexactFloat64())
}

// sameSide reports whether both entries record the same orientation.
func (e entry) sameSide(o entry) bool {
	return e.isDebit == o.isDebit && e.isCredit == o.isCredit
}

func debitCreditMismatch(s, t entry, strict bool) string {
	if !strict && s.sameSide(t) {
		return ""
	}
	switch {
	case s.isDebit && !t.isCredit:
		return model.MsgSourceDebit
	case s.isCredit && !t.isDebit:
		return model.MsgSourceCredit
	case !s.isDebit && !s.isCredit && (t.isDebit || t.isCredit):
		return model.MsgSourceNoAmount
	case (s.isDebit || s.isCredit) && !t.isDebit && !t.isCredit:
		return model.MsgTargetNoAmount
	}
	return ""
}

// amountOf reads a monetary amount from a numeric or numeric-text cell.
// Null, NaN, infinities, and anything else are absent.
func amountOf(v model.Value) (decimal.Decimal, bool) {
	if n, ok := v.Num(); ok {
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return decimal.Decimal{}, false
		}
		return decimal.NewFromFloat(n), true
	}
	if s, ok := v.Str(); ok {
		d, err := decimal.NewFromString(strings.TrimSpace(s))
		if err != nil {
			return decimal.Decimal{}, false
		}
		return d, true
	}
	return decimal.Decimal{}, false
}

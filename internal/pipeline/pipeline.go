// Package pipeline runs one reconciliation end to end: column validation,
// numeric coercion, normalization, and the reconciliation itself.
package pipeline

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/cleared-dev/tally/internal/config"
	"github.com/cleared-dev/tally/internal/dataset"
	"github.com/cleared-dev/tally/internal/model"
	"github.com/cleared-dev/tally/internal/normalize"
	"github.com/cleared-dev/tally/internal/reconcile"
)

// Settings is everything one run needs besides the two datasets.
type Settings struct {
	RequiredColumns []string // checked case-insensitively before normalization
	NumericColumns  []string // coerced to numbers before normalization
	Normalize       normalize.Options
	Reconcile       reconcile.Params
}

// SettingsFromConfig derives run settings from a project config.
func SettingsFromConfig(cfg *config.Config) Settings {
	opts := normalize.Options{
		DateFormat:      cfg.Normalize.DateFormat,
		IgnoreCase:      cfg.Normalize.IgnoreCase,
		StripWhitespace: cfg.Normalize.StripWhitespace,
	}
	if cfg.Normalize.FillNA != nil {
		fill := model.String(*cfg.Normalize.FillNA)
		opts.FillNA = &fill
	}

	var join []string
	if cfg.Columns.Join != "" {
		join = []string{cfg.Columns.Join}
	}

	return Settings{
		RequiredColumns: cfg.Columns.Required,
		NumericColumns:  []string{cfg.Columns.Debit, cfg.Columns.Credit},
		Normalize:       opts,
		Reconcile: reconcile.Params{
			JoinColumns:       join,
			IgnoreColumns:     cfg.Compare.IgnoreColumns,
			DebitColumn:       cfg.Columns.Debit,
			CreditColumn:      cfg.Columns.Credit,
			StrictDoubleEntry: cfg.Compare.StrictDoubleEntry,
		},
	}
}

// Outcome is the result of one run.
type Outcome struct {
	RunID     string
	StartedAt time.Time
	Duration  time.Duration
	Result    *model.Result
}

// Pipeline wires the normalizer and reconciler together.
type Pipeline struct {
	normalizer *normalize.Normalizer
	reconciler *reconcile.Reconciler
	log        zerolog.Logger
	now        func() time.Time
}

// New creates a Pipeline whose components all log to log.
func New(log zerolog.Logger) *Pipeline {
	return &Pipeline{
		normalizer: normalize.New(log),
		reconciler: reconcile.New(log),
		log:        log,
		now:        time.Now,
	}
}

// Run reconciles source against target. Validation failures are returned
// as *dataset.MissingColumnsError and settings failures as
// *reconcile.ConfigError, both reachable with errors.As.
func (p *Pipeline) Run(source, target model.Dataset, s Settings) (*Outcome, error) {
	start := p.now()
	runID := uuid.NewString()
	log := p.log.With().Str("run_id", runID).Logger()

	for _, in := range []struct {
		name string
		ds   model.Dataset
	}{{"source", source}, {"target", target}} {
		if err := dataset.ValidateColumns(in.ds, s.RequiredColumns); err != nil {
			return nil, fmt.Errorf("validating %s: %w", in.name, err)
		}
		log.Info().Str("dataset", in.name).Strs("columns", in.ds.Columns).Int("rows", in.ds.Len()).Msg("columns (original)")
	}

	source = p.coerce(log, "source", source, s.NumericColumns)
	target = p.coerce(log, "target", target, s.NumericColumns)

	source = p.normalizer.Normalize(source, s.Normalize)
	target = p.normalizer.Normalize(target, s.Normalize)
	log.Info().Strs("columns", source.Columns).Msg("source columns (normalized)")
	log.Info().Strs("columns", target.Columns).Msg("target columns (normalized)")
	log.Info().
		Strs("join_columns", s.Reconcile.JoinColumns).
		Strs("ignore_columns", s.Reconcile.IgnoreColumns).
		Msg("reconciling")

	res, err := p.reconciler.Reconcile(source, target, s.Reconcile)
	if err != nil {
		return nil, fmt.Errorf("reconciling: %w", err)
	}

	out := &Outcome{
		RunID:     runID,
		StartedAt: start,
		Duration:  p.now().Sub(start),
		Result:    res,
	}
	log.Info().
		Int("missing_in_source", res.Summary.MissingInSourceCount).
		Int("missing_in_target", res.Summary.MissingInTargetCount).
		Int("discrepancies", res.Summary.DiscrepancyCount).
		Dur("duration", out.Duration).
		Msg("reconciliation complete")
	return out, nil
}

func (p *Pipeline) coerce(log zerolog.Logger, name string, ds model.Dataset, columns []string) model.Dataset {
	for _, col := range columns {
		if !hasColumnFold(ds, col) {
			log.Warn().Str("dataset", name).Str("column", col).Msg("column not found for numeric conversion")
		}
	}
	out, dropped := dataset.CoerceNumeric(ds, columns...)
	if dropped > 0 {
		log.Warn().Str("dataset", name).Int("values", dropped).Msg("non-numeric amounts treated as missing")
	}
	return out
}

func hasColumnFold(ds model.Dataset, col string) bool {
	for _, c := range ds.Columns {
		if strings.EqualFold(c, col) {
			return true
		}
	}
	return false
}

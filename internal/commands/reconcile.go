package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cleared-dev/tally/internal/config"
	"github.com/cleared-dev/tally/internal/dataset"
	"github.com/cleared-dev/tally/internal/logging"
	"github.com/cleared-dev/tally/internal/pipeline"
	"github.com/cleared-dev/tally/internal/report"
	"github.com/cleared-dev/tally/internal/runlog"
)

// Output formats accepted by --format.
var reportFormats = []string{"json", "csv", "html", "markdown", "table"}

type reconcileFlags struct {
	source          string
	target          string
	format          string
	out             string
	ignoreColumns   string
	dateFormat      string
	fillNA          string
	ignoreCase      bool
	stripWhitespace bool
	strict          bool
}

func newReconcileCommand(v *viper.Viper) *cobra.Command {
	var f reconcileFlags

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Reconcile a source file against a target file",
		Long: "Reconcile a source transaction file against a target file (CSV or XLSX).\n" +
			"Rows are matched on the configured join column; rows missing on either\n" +
			"side and field-level discrepancies are reported.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReconcile(cmd, v, f)
		},
	}

	cmd.Flags().StringVar(&f.source, "source", "", "source file (required)")
	cmd.Flags().StringVar(&f.target, "target", "", "target file (required)")
	_ = cmd.MarkFlagRequired("source")
	_ = cmd.MarkFlagRequired("target")
	cmd.Flags().StringVar(&f.format, "format", "json", "output format: "+strings.Join(reportFormats, ", "))
	cmd.Flags().StringVar(&f.out, "out", "", "write the report to this file instead of stdout")
	cmd.Flags().StringVar(&f.ignoreColumns, "ignore-columns", "", "comma-separated columns to skip when comparing fields")
	cmd.Flags().StringVar(&f.dateFormat, "date-format", "", "parse text columns as dates with this format (e.g. %Y-%m-%d)")
	cmd.Flags().StringVar(&f.fillNA, "fill-na", "", "replace missing values with this text")
	cmd.Flags().BoolVar(&f.ignoreCase, "ignore-case", true, "lower-case column names and text values")
	cmd.Flags().BoolVar(&f.stripWhitespace, "strip-whitespace", true, "trim column names and text values")
	cmd.Flags().BoolVar(&f.strict, "strict", false, "require debits to match credits (no same-side matches)")

	return cmd
}

func runReconcile(cmd *cobra.Command, v *viper.Viper, f reconcileFlags) error {
	if !isReportFormat(f.format) {
		return fmt.Errorf("unknown format %q (want one of %s)", f.format, strings.Join(reportFormats, ", "))
	}

	cfgPath := v.GetString("config")
	cfg, found, err := loadConfig(cfgPath, cmd.Flags().Changed("config"))
	if err != nil {
		return err
	}
	applyFlags(cmd, cfg, f)
	if lvl := v.GetString("log.level"); lvl != "" {
		cfg.Log.Level = lvl
	}
	if format := v.GetString("log.format"); format != "" {
		cfg.Log.Format = format
	}

	logCfg := logging.DefaultConfig()
	logCfg.Level = cfg.Log.Level
	logCfg.Format = cfg.Log.Format
	log := logging.New(logCfg, cmd.ErrOrStderr())

	registry := dataset.DefaultRegistry()
	source, err := registry.Load(f.source)
	if err != nil {
		return fmt.Errorf("loading source: %w", err)
	}
	target, err := registry.Load(f.target)
	if err != nil {
		return fmt.Errorf("loading target: %w", err)
	}

	outcome, err := pipeline.New(log).Run(source, target, pipeline.SettingsFromConfig(cfg))
	if err != nil {
		return err
	}

	if err := writeReport(cmd.OutOrStdout(), f, outcome); err != nil {
		return err
	}

	// The run log lives next to a project config; ad-hoc runs leave no trace.
	if found && cfg.RunLog.Enabled {
		recordRun(log, runLogDir(cfgPath, cfg.RunLog.Dir), f, outcome)
	}
	return nil
}

// loadConfig reads the project config. A missing file falls back to
// defaults unless the path was given explicitly.
func loadConfig(path string, explicit bool) (*config.Config, bool, error) {
	cfg, err := config.Load(path)
	if err == nil {
		return cfg, true, nil
	}
	if errors.Is(err, os.ErrNotExist) && !explicit {
		return config.Default(""), false, nil
	}
	return nil, false, fmt.Errorf("loading %s: %w", path, err)
}

func applyFlags(cmd *cobra.Command, cfg *config.Config, f reconcileFlags) {
	flags := cmd.Flags()
	if flags.Changed("ignore-columns") {
		cfg.Compare.IgnoreColumns = config.ParseIgnoreColumns(f.ignoreColumns)
	}
	if flags.Changed("date-format") {
		cfg.Normalize.DateFormat = f.dateFormat
	}
	if flags.Changed("fill-na") {
		fill := f.fillNA
		cfg.Normalize.FillNA = &fill
	}
	if flags.Changed("ignore-case") {
		cfg.Normalize.IgnoreCase = f.ignoreCase
	}
	if flags.Changed("strip-whitespace") {
		cfg.Normalize.StripWhitespace = f.stripWhitespace
	}
	if flags.Changed("strict") {
		cfg.Compare.StrictDoubleEntry = f.strict
	}
}

func writeReport(stdout io.Writer, f reconcileFlags, outcome *pipeline.Outcome) error {
	w := stdout
	if f.out != "" {
		file, err := os.Create(f.out)
		if err != nil {
			return fmt.Errorf("creating %s: %w", f.out, err)
		}
		defer file.Close()
		w = file
	}

	if f.format == "table" {
		if err := writeSummaryTable(w, outcome); err != nil {
			return fmt.Errorf("writing summary table: %w", err)
		}
		return nil
	}

	fm := report.New(outcome.Result)
	var rendered report.Rendered
	switch f.format {
	case "csv":
		rendered = fm.CSV()
	case "html":
		rendered = fm.HTML()
	case "markdown":
		rendered = fm.Markdown()
	default:
		rendered = fm.JSON()
	}

	if _, err := io.WriteString(w, rendered.Body); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return rendered.Err
}

func recordRun(log zerolog.Logger, dir string, f reconcileFlags, outcome *pipeline.Outcome) {
	entry := runlog.NewEntry(outcome.StartedAt, outcome.RunID, f.source, f.target, outcome.Result.Summary)
	if err := runlog.Append(dir, []runlog.Entry{entry}); err != nil {
		log.Warn().Err(err).Str("dir", dir).Msg("failed to write run log")
	}
}

func runLogDir(cfgPath, dir string) string {
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(filepath.Dir(cfgPath), dir)
}

func isReportFormat(format string) bool {
	for _, f := range reportFormats {
		if f == format {
			return true
		}
	}
	return false
}

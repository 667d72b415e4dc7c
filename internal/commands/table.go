package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/cleared-dev/tally/internal/pipeline"
)

// writeSummaryTable prints the run summary and, when present, one row per
// discrepancy.
func writeSummaryTable(w io.Writer, outcome *pipeline.Outcome) error {
	res := outcome.Result

	fmt.Fprintf(w, "Run %s (%s)\n", outcome.RunID, outcome.Duration.Round(time.Millisecond))

	summary := tablewriter.NewTable(w)
	summary.Header("Check", "Count")
	for _, row := range [][]any{
		{"Missing in source", strconv.Itoa(res.Summary.MissingInSourceCount)},
		{"Missing in target", strconv.Itoa(res.Summary.MissingInTargetCount)},
		{"Discrepancies", strconv.Itoa(res.Summary.DiscrepancyCount)},
	} {
		if err := summary.Append(row...); err != nil {
			return err
		}
	}
	if err := summary.Render(); err != nil {
		return err
	}

	if len(res.Discrepancies) == 0 {
		return nil
	}

	details := tablewriter.NewTable(w)
	details.Header("Key", "Discrepancies")
	for _, d := range res.Discrepancies {
		body, err := json.Marshal(d.Details)
		if err != nil {
			return fmt.Errorf("encoding discrepancy %s: %w", d.Key, err)
		}
		if err := details.Append(d.Key.String(), string(body)); err != nil {
			return err
		}
	}
	return details.Render()
}

// Package runlog keeps an append-only CSV audit trail of completed
// reconciliation runs.
package runlog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cleared-dev/tally/internal/model"
)

// Entry is one row in the run log.
type Entry struct {
	Timestamp       time.Time
	RunID           string
	Source          string
	Target          string
	MissingInSource int
	MissingInTarget int
	Discrepancies   int
}

// Header is the CSV header for runs.csv.
const Header = "timestamp,run_id,source,target,missing_in_source,missing_in_target,discrepancies"

// FileName is the run log file inside the configured log directory.
const FileName = "runs.csv"

const (
	numFields          = 7
	colTimestamp       = 0
	colRunID           = 1
	colSource          = 2
	colTarget          = 3
	colMissingInSource = 4
	colMissingInTarget = 5
	colDiscrepancies   = 6
)

// NewEntry builds an entry from a run's summary counts.
func NewEntry(ts time.Time, runID, source, target string, s model.Summary) Entry {
	return Entry{
		Timestamp:       ts,
		RunID:           runID,
		Source:          source,
		Target:          target,
		MissingInSource: s.MissingInSourceCount,
		MissingInTarget: s.MissingInTargetCount,
		Discrepancies:   s.DiscrepancyCount,
	}
}

// MarshalEntry converts an Entry to a CSV row.
func MarshalEntry(e Entry) []string {
	row := make([]string, numFields)
	row[colTimestamp] = e.Timestamp.UTC().Format(time.RFC3339)
	row[colRunID] = e.RunID
	row[colSource] = e.Source
	row[colTarget] = e.Target
	row[colMissingInSource] = strconv.Itoa(e.MissingInSource)
	row[colMissingInTarget] = strconv.Itoa(e.MissingInTarget)
	row[colDiscrepancies] = strconv.Itoa(e.Discrepancies)
	return row
}

// UnmarshalEntry converts a CSV row to an Entry.
func UnmarshalEntry(record []string) (Entry, error) {
	if len(record) != numFields {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	ts, err := time.Parse(time.RFC3339, record[colTimestamp])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing timestamp %q: %w", record[colTimestamp], err)
	}

	counts := make([]int, 3)
	for i, col := range []int{colMissingInSource, colMissingInTarget, colDiscrepancies} {
		n, err := strconv.Atoi(record[col])
		if err != nil {
			return Entry{}, fmt.Errorf("parsing count %q: %w", record[col], err)
		}
		counts[i] = n
	}

	return Entry{
		Timestamp:       ts,
		RunID:           record[colRunID],
		Source:          record[colSource],
		Target:          record[colTarget],
		MissingInSource: counts[0],
		MissingInTarget: counts[1],
		Discrepancies:   counts[2],
	}, nil
}

// Append writes entries to <dir>/runs.csv, creating the directory, file,
// and header if needed.
func Append(dir string, entries []Entry) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating run log dir: %w", err)
	}

	path := filepath.Join(dir, FileName)
	needsHeader := false
	if _, err := os.Stat(path); os.IsNotExist(err) {
		needsHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening run log: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	defer cw.Flush()

	if needsHeader {
		if err := cw.Write(strings.Split(Header, ",")); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}

	for i, e := range entries {
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing entry %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// Read returns all entries from <dir>/runs.csv, or nil if it does not exist.
func Read(dir string) ([]Entry, error) {
	f, err := os.Open(filepath.Join(dir, FileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening run log: %w", err)
	}
	defer f.Close()

	return readEntries(f)
}

func readEntries(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading run log CSV: %w", err)
	}

	if len(records) <= 1 {
		return nil, nil
	}

	var entries []Entry
	for i, rec := range records[1:] {
		e, err := UnmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

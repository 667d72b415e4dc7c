package dataset

import (
	"fmt"
	"strings"

	"github.com/cleared-dev/tally/internal/model"
)

// DefaultRequiredColumns are the columns every input file must carry.
var DefaultRequiredColumns = []string{"Txn RefNo", "Debit", "Credit"}

// MissingColumnsError lists required columns absent from a dataset.
type MissingColumnsError struct {
	Missing []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("missing required columns (case-insensitive): %s", strings.Join(e.Missing, ", "))
}

// ValidateColumns checks that every required column exists in ds, comparing
// names case-insensitively without trimming. All missing names are reported.
func ValidateColumns(ds model.Dataset, required []string) error {
	have := make(map[string]bool, len(ds.Columns))
	for _, c := range ds.Columns {
		have[strings.ToLower(c)] = true
	}

	var missing []string
	for _, req := range required {
		if !have[strings.ToLower(req)] {
			missing = append(missing, req)
		}
	}
	if len(missing) > 0 {
		return &MissingColumnsError{Missing: missing}
	}
	return nil
}

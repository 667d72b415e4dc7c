package model

import "encoding/json"

// Debit/credit mismatch messages.
const (
	MsgSourceDebit    = "Source is Debit, Target is not Credit"
	MsgSourceCredit   = "Source is Credit, Target is not Debit"
	MsgSourceNoAmount = "Source has no amount, Target has amount"
	MsgTargetNoAmount = "Source has amount, Target has no amount"
)

// FieldDiff holds the two sides of a differing field.
type FieldDiff struct {
	Source Value `json:"source"`
	Target Value `json:"target"`
}

// Details lists every mismatch kind found for one key.
type Details struct {
	DuplicateInSource   bool                 `json:"duplicate_in_source,omitempty"`
	DuplicateInTarget   bool                 `json:"duplicate_in_target,omitempty"`
	DebitCreditMismatch string               `json:"debit_credit_mismatch,omitempty"`
	AmountMismatch      *FieldDiff           `json:"amount_mismatch,omitempty"`
	OtherDiscrepancies  map[string]FieldDiff `json:"other_discrepancies,omitempty"`
}

// Empty reports whether nothing was flagged.
func (d Details) Empty() bool {
	return !d.DuplicateInSource && !d.DuplicateInTarget &&
		d.DebitCreditMismatch == "" && d.AmountMismatch == nil &&
		len(d.OtherDiscrepancies) == 0
}

// Discrepancy is one flagged key. Column names the join column the key
// came from and becomes the key's field name in JSON.
type Discrepancy struct {
	Column  string
	Key     Value
	Details Details
}

// DetailsField is the field holding Details when a discrepancy is encoded.
const DetailsField = "discrepancies"

// KeyField returns the field name the key is encoded under: the join column,
// or "key" when the column is unset or would collide with DetailsField.
func (d Discrepancy) KeyField() string {
	if d.Column == "" || d.Column == DetailsField {
		return "key"
	}
	return d.Column
}

// MarshalJSON encodes as {"<join column>": key, "discrepancies": details}.
func (d Discrepancy) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{
		d.KeyField(): d.Key,
		DetailsField: d.Details,
	})
}

// Summary counts the three output collections.
type Summary struct {
	MissingInTargetCount int `json:"missing_in_target_count"`
	MissingInSourceCount int `json:"missing_in_source_count"`
	DiscrepancyCount     int `json:"discrepancy_count"`
}

// Result is the output of one reconciliation.
type Result struct {
	Summary         Summary       `json:"summary"`
	MissingInSource Dataset       `json:"missing_in_source"`
	MissingInTarget Dataset       `json:"missing_in_target"`
	Discrepancies   []Discrepancy `json:"discrepancies"`
}

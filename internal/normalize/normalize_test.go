package normalize

import (
	"bytes"
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/tally/internal/model"
)

func sample() model.Dataset {
	return model.NewDataset([]string{" Txn RefNo ", "Description", "Debit", "Date"},
		model.Row{" Txn RefNo ": model.Number(1), "Description": model.String("  GitHub PRO "), "Debit": model.Number(4), "Date": model.String("2025-01-03")},
		model.Row{" Txn RefNo ": model.Number(2), "Description": model.String("ÉCOLE"), "Debit": model.Number(math.NaN()), "Date": model.String("not a date")},
		model.Row{" Txn RefNo ": model.Number(3), "Debit": model.Number(7)},
	)
}

func TestNormalize_ColumnNames(t *testing.T) {
	n := New(zerolog.Nop())
	df := model.NewDataset([]string{"Column A"}, model.Row{"Column A": model.Number(1)})
	got := n.Normalize(df, DefaultOptions())
	assert.Equal(t, []string{"column a"}, got.Columns)

	got = n.Normalize(sample(), DefaultOptions())
	assert.Equal(t, []string{"txn refno", "description", "debit", "date"}, got.Columns)

	got = n.Normalize(sample(), Options{IgnoreCase: true})
	assert.Equal(t, " txn refno ", got.Columns[0], "no trimming when StripWhitespace is off")

	got = n.Normalize(sample(), Options{StripWhitespace: true})
	assert.Equal(t, "Txn RefNo", got.Columns[0])
}

func TestNormalize_TextValues(t *testing.T) {
	got := New(zerolog.Nop()).Normalize(sample(), DefaultOptions())

	assert.Equal(t, "github pro", got.Rows[0].Get("description").String())
	assert.Equal(t, "école", got.Rows[1].Get("description").String(), "unicode lower-casing")
	assert.True(t, got.Rows[2].Get("description").IsNull())
	assert.Equal(t, "2025-01-03", got.Rows[0].Get("date").String(), "no date parsing without a format")

	// Numeric columns are untouched.
	assert.True(t, got.Rows[0].Get("debit").Equal(model.Number(4)))
	assert.True(t, got.Rows[1].Get("debit").IsAbsent())
}

func TestNormalize_DoesNotMutateInput(t *testing.T) {
	in := sample()
	_ = New(zerolog.Nop()).Normalize(in, Options{IgnoreCase: true, StripWhitespace: true, DateFormat: "%Y-%m-%d"})
	assert.Equal(t, " Txn RefNo ", in.Columns[0])
	assert.Equal(t, "  GitHub PRO ", in.Rows[0].Get("Description").String())
	assert.Equal(t, model.KindString, in.Rows[0].Get("Date").Kind())
}

func TestNormalize_DateFormat(t *testing.T) {
	var buf bytes.Buffer
	n := New(zerolog.New(&buf))
	got := n.Normalize(sample(), Options{IgnoreCase: true, StripWhitespace: true, DateFormat: "%Y-%m-%d"})

	ts, ok := got.Rows[0].Get("date").Timestamp()
	require.True(t, ok)
	assert.True(t, ts.Equal(time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC)))
	assert.True(t, got.Rows[1].Get("date").IsNull(), "unparseable value becomes null")

	// Description never parses, so the column stays text and a warning is logged.
	assert.Equal(t, "github pro", got.Rows[0].Get("description").String())
	assert.Contains(t, buf.String(), "date conversion failed")
	assert.Contains(t, buf.String(), `"column":"description"`)
}

func TestNormalize_DateFormatCaseInsensitiveMonths(t *testing.T) {
	ds := model.NewDataset([]string{"when"},
		model.Row{"when": model.String("03-JAN-2025 02:15 PM")},
	)
	got := New(zerolog.Nop()).Normalize(ds, Options{IgnoreCase: true, DateFormat: "%d-%b-%Y %I:%M %p"})
	ts, ok := got.Rows[0].Get("when").Timestamp()
	require.True(t, ok)
	assert.Equal(t, 14, ts.Hour())
}

func TestNormalize_FillNA(t *testing.T) {
	fill := model.String(" N/A ")
	got := New(zerolog.Nop()).Normalize(sample(), Options{IgnoreCase: true, StripWhitespace: true, FillNA: &fill})

	assert.Equal(t, "n/a", got.Rows[2].Get("description").String(), "missing field filled")
	assert.Equal(t, "n/a", got.Rows[1].Get("debit").String(), "NaN filled")
	assert.Equal(t, "n/a", got.Rows[2].Get("date").String())
}

func TestNormalize_ColumnCollision(t *testing.T) {
	var buf bytes.Buffer
	ds := model.NewDataset([]string{"Debit", "debit"},
		model.Row{"Debit": model.Number(1), "debit": model.Number(2)},
	)
	got := New(zerolog.New(&buf)).Normalize(ds, DefaultOptions())
	assert.Equal(t, []string{"debit"}, got.Columns)
	assert.True(t, got.Rows[0].Get("debit").Equal(model.Number(2)))
	assert.Contains(t, buf.String(), "collides")
}

func TestNormalize_Idempotent(t *testing.T) {
	fill := model.String("N/A")
	optsList := []Options{
		DefaultOptions(),
		{},
		{IgnoreCase: true},
		{StripWhitespace: true},
		{IgnoreCase: true, StripWhitespace: true, DateFormat: "%Y-%m-%d"},
		{IgnoreCase: true, StripWhitespace: true, DateFormat: "2006-01-02", FillNA: &fill},
		{StripWhitespace: true, FillNA: &fill},
	}
	n := New(zerolog.Nop())
	for i, opts := range optsList {
		once := n.Normalize(sample(), opts)
		twice := n.Normalize(once, opts)
		require.Equal(t, once.Columns, twice.Columns, "options %d", i)
		require.Equal(t, once.Len(), twice.Len())
		for r := range once.Rows {
			for _, c := range once.Columns {
				assert.True(t, once.Rows[r].Get(c).Equal(twice.Rows[r].Get(c)),
					"options %d row %d column %q: %v vs %v", i, r, c, once.Rows[r].Get(c), twice.Rows[r].Get(c))
			}
		}
	}
}

func TestParseTime(t *testing.T) {
	tests := []struct {
		format string
		value  string
		want   time.Time
	}{
		{"%Y-%m-%d", "2025-01-03", time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC)},
		{"%Y%m%d", "20250103", time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC)},
		{"%d/%m/%Y %H:%M:%S", "03/01/2025 10:30:05", time.Date(2025, 1, 3, 10, 30, 5, 0, time.UTC)},
		{"%Y-%m-%dT%H:%M:%S.%f", "2025-01-03T10:30:00.250000", time.Date(2025, 1, 3, 10, 30, 0, 250_000_000, time.UTC)},
		{"%d %B %Y", "3 january 2025", time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC)},
		{"2006-01-02", "2025-01-03", time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			got, ok := parseTime(tt.format, tt.value)
			require.True(t, ok)
			assert.True(t, got.Equal(tt.want), "got %v", got)
		})
	}

	_, ok := parseTime("%Y-%m-%d", "03/01/2025")
	assert.False(t, ok)
}

package model

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueEqual(t *testing.T) {
	ts := time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{"null null", Null(), Null(), true},
		{"nan nan", Number(math.NaN()), Number(math.NaN()), true},
		{"nan null", Number(math.NaN()), Null(), true},
		{"null string", Null(), String(""), false},
		{"same string", String("abc"), String("abc"), true},
		{"different string", String("abc"), String("abd"), false},
		{"number vs string", Number(1), String("1"), false},
		{"same number", Number(10), Number(10.0), true},
		{"different number", Number(10), Number(5), false},
		{"bool", Bool(true), Bool(true), true},
		{"time across zones", Time(ts), Time(ts.In(time.FixedZone("X", 3600))), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Equal(tt.b))
			assert.Equal(t, tt.want, tt.b.Equal(tt.a))
		})
	}
}

func TestValueJSON(t *testing.T) {
	row := Row{
		"a": Number(math.Inf(1)),
		"b": Number(math.NaN()),
		"c": Number(12.5),
		"d": String("x"),
		"e": Null(),
		"f": Time(time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC)),
	}
	data, err := json.Marshal(row)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":null,"b":null,"c":12.5,"d":"x","e":null,"f":"2025-01-03T00:00:00Z"}`, string(data))
}

func TestValueString(t *testing.T) {
	assert.Equal(t, "10", Number(10).String())
	assert.Equal(t, "0.1", Number(0.1).String())
	assert.Empty(t, Number(math.NaN()).String())
	assert.Empty(t, Null().String())
	assert.Equal(t, "true", Bool(true).String())
}

func TestKeyOf(t *testing.T) {
	assert.Equal(t, KeyOf(Number(1)), KeyOf(Number(1.0)))
	assert.Equal(t, KeyOf(Null()), KeyOf(Number(math.NaN())))
	assert.Equal(t, KeyOf(Number(0)), KeyOf(Number(math.Copysign(0, -1))), "negative zero")
	assert.Equal(t, KeyOf(Number(1001)), KeyOf(String("1001")))
	assert.Equal(t, KeyOf(Number(1001)), KeyOf(String(" 1001.0 ")))
	assert.NotEqual(t, KeyOf(String("X-9")), KeyOf(String("x-9")))
	assert.NotEqual(t, KeyOf(String("20250103000000001")), KeyOf(String("20250103000000002")))
	assert.NotEqual(t, KeyOf(Bool(true)), KeyOf(String("true")))
	assert.NotEqual(t, KeyOf(Number(math.Inf(1))), KeyOf(Number(math.Inf(-1))))
}

func TestDatasetJSONRecords(t *testing.T) {
	ds := NewDataset([]string{"id", "memo"}, Row{"id": Number(1)})
	data, err := json.Marshal(ds)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":1,"memo":null}]`, string(data))

	empty, err := json.Marshal(NewDataset([]string{"id"}))
	require.NoError(t, err)
	assert.Equal(t, "[]", string(empty))
}

func TestDiscrepancyJSON(t *testing.T) {
	d := Discrepancy{
		Column: "txn refno",
		Key:    Number(7),
		Details: Details{
			DuplicateInSource: true,
			AmountMismatch:    &FieldDiff{Source: Number(10), Target: Null()},
		},
	}
	data, err := json.Marshal(d)
	require.NoError(t, err)
	assert.JSONEq(t, `{"txn refno":7,"discrepancies":{"duplicate_in_source":true,"amount_mismatch":{"source":10,"target":null}}}`, string(data))
}

func TestDiscrepancyJSON_KeyField(t *testing.T) {
	data, err := json.Marshal(Discrepancy{Key: String("a1"), Details: Details{DuplicateInTarget: true}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"key":"a1","discrepancies":{"duplicate_in_target":true}}`, string(data))

	d := Discrepancy{Column: DetailsField, Key: Number(3), Details: Details{DuplicateInSource: true}}
	assert.Equal(t, "key", d.KeyField())
	data, err = json.Marshal(d)
	require.NoError(t, err)
	assert.JSONEq(t, `{"key":3,"discrepancies":{"duplicate_in_source":true}}`, string(data))
}

func TestDetailsEmpty(t *testing.T) {
	assert.True(t, Details{}.Empty())
	assert.False(t, Details{DebitCreditMismatch: MsgSourceDebit}.Empty())
	assert.False(t, Details{OtherDiscrepancies: map[string]FieldDiff{"memo": {}}}.Empty())
}

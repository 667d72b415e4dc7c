package model

import (
	"encoding/json"
	"math"
	"strconv"
	"time"
)

// Kind identifies which payload a Value carries.
type Kind uint8

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
	KindTime
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindTime:
		return "time"
	default:
		return "null"
	}
}

// Value is a single dataset cell. The zero Value is null.
type Value struct {
	kind Kind
	s    string
	n    float64
	b    bool
	t    time.Time
}

// Null returns the null value.
func Null() Value { return Value{} }

// String returns a string value.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Number returns a numeric value. NaN is kept as a number but reads as absent.
func Number(n float64) Value { return Value{kind: KindNumber, n: n} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Time returns a timestamp value.
func Time(t time.Time) Value { return Value{kind: KindTime, t: t} }

// Kind returns the kind of payload held.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is the null value.
func (v Value) IsNull() bool { return v.kind == KindNull }

// IsAbsent reports whether v carries no usable data: null, or a NaN number.
func (v Value) IsAbsent() bool {
	return v.kind == KindNull || (v.kind == KindNumber && math.IsNaN(v.n))
}

// Str returns the string payload.
func (v Value) Str() (string, bool) { return v.s, v.kind == KindString }

// Num returns the numeric payload.
func (v Value) Num() (float64, bool) { return v.n, v.kind == KindNumber }

// Boolean returns the boolean payload.
func (v Value) Boolean() (bool, bool) { return v.b, v.kind == KindBool }

// Timestamp returns the time payload.
func (v Value) Timestamp() (time.Time, bool) { return v.t, v.kind == KindTime }

// Equal is a strict, type-sensitive comparison. Two absent values are
// equal to each other; an absent value never equals a present one.
func (v Value) Equal(o Value) bool {
	if v.IsAbsent() || o.IsAbsent() {
		return v.IsAbsent() && o.IsAbsent()
	}
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindString:
		return v.s == o.s
	case KindNumber:
		return v.n == o.n
	case KindBool:
		return v.b == o.b
	case KindTime:
		return v.t.Equal(o.t)
	}
	return false
}

// String renders v for tabular output. Absent and non-finite values render empty.
func (v Value) String() string {
	switch v.kind {
	case KindString:
		return v.s
	case KindNumber:
		if math.IsNaN(v.n) || math.IsInf(v.n, 0) {
			return ""
		}
		return strconv.FormatFloat(v.n, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindTime:
		return v.t.Format(time.RFC3339)
	default:
		return ""
	}
}

// MarshalJSON encodes null and non-finite numbers as JSON null.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindString:
		return json.Marshal(v.s)
	case KindNumber:
		if math.IsNaN(v.n) || math.IsInf(v.n, 0) {
			return []byte("null"), nil
		}
		return json.Marshal(v.n)
	case KindBool:
		return json.Marshal(v.b)
	case KindTime:
		return json.Marshal(v.t.Format(time.RFC3339))
	default:
		return []byte("null"), nil
	}
}

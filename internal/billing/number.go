package billing

import (
	"bytes"
	"math"
	"strconv"
)

// Number is a permissive numeric request field. The legacy API accepted
// quantity, price, discount and tax percent as JSON numbers or numeric
// strings and defaulted anything unparseable instead of rejecting the
// request. That contract is intentional and kept here: callers pick the
// default through Or or Positive.
type Number struct {
	Value float64
	Valid bool
}

// Num builds a valid Number, mostly for tests and internal recomputes.
func Num(v float64) Number {
	return Number{Value: v, Valid: true}
}

// UnmarshalJSON accepts a JSON number, a numeric string, or null. Anything
// else leaves the Number invalid without failing the decode.
func (n *Number) UnmarshalJSON(data []byte) error {
	n.Value = 0
	n.Valid = false

	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '"' {
		s, err := strconv.Unquote(string(data))
		if err != nil {
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil
		}
		n.set(v)
		return nil
	}
	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return nil
	}
	n.set(v)
	return nil
}

func (n *Number) set(v float64) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return
	}
	n.Value = v
	n.Valid = true
}

// Or returns the value, or def when the field was absent or unparseable.
func (n Number) Or(def float64) float64 {
	if !n.Valid {
		return def
	}
	return n.Value
}

// Positive returns the value when it is valid and strictly positive,
// otherwise def.
func (n Number) Positive(def float64) float64 {
	if !n.Valid || n.Value <= 0 {
		return def
	}
	return n.Value
}

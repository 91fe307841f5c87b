package models

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Amount is a numeric request field. The product catalog sends numbers both
// as JSON numbers and as strings ("22500"), so decoding accepts either and
// never fails: anything unusable is recorded in Invalid and reads as zero.
type Amount struct {
	Value   float64
	Present bool
	Invalid string
}

// Num builds a present Amount.
func Num(v float64) Amount {
	return Amount{Value: v, Present: true}
}

// Or returns the value when present, otherwise the fallback.
func (a Amount) Or(fallback float64) float64 {
	if a.Present {
		return a.Value
	}
	return fallback
}

// UnmarshalJSON implements json.Unmarshaler.
func (a *Amount) UnmarshalJSON(data []byte) error {
	raw := bytes.TrimSpace(data)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		*a = Amount{}
		return nil
	}

	text := string(raw)
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			*a = Amount{Invalid: text}
			return nil
		}
		text = strings.TrimSpace(s)
		if text == "" {
			*a = Amount{}
			return nil
		}
	}

	v, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		*a = Amount{Invalid: text}
		return nil
	}

	*a = Amount{Value: v, Present: true}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.Value)
}

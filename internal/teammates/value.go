package teammates

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Value is a numeric cell that may be absent. The zero Value is absent.
type Value struct {
	Num     float64
	Present bool
}

func Num(v float64) Value { return Value{Num: v, Present: true} }

// Absent is the missing-value marker.
var Absent = Value{}

// Coerce turns a raw cell into a Value. Empty cells, "no response" and
// anything that does not parse as a finite number are absent.
func Coerce(cell string) Value {
	s := strings.TrimSpace(cell)
	if s == "" || strings.EqualFold(s, "no response") {
		return Absent
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return Absent
	}
	return Num(f)
}

// Or returns the number, or def when absent.
func (v Value) Or(def float64) float64 {
	if !v.Present {
		return def
	}
	return v.Num
}

func (v Value) MarshalJSON() ([]byte, error) {
	if !v.Present {
		return []byte("null"), nil
	}
	return json.Marshal(v.Num)
}

func (v *Value) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*v = Absent
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*v = Num(f)
	return nil
}

// coerceAll converts cells and drops the trailing run of absent values.
// Interior absences are kept.
func coerceAll(cells []string) []Value {
	out := make([]Value, 0, len(cells))
	for _, c := range cells {
		out = append(out, Coerce(c))
	}
	n := len(out)
	for n > 0 && !out[n-1].Present {
		n--
	}
	return out[:n]
}

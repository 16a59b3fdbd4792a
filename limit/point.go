package limit

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidPoint is returned by ParsePoint for text that is neither a
// number nor an infinity marker.
var ErrInvalidPoint = errors.New("limit: invalid point")

// Point is the value the variable approaches: a finite real or a signed
// infinity.
type Point struct {
	value float64
	inf   int
}

var (
	PosInf = Point{inf: 1}
	NegInf = Point{inf: -1}
)

// At returns the finite point v.
func At(v float64) Point { return Point{value: v} }

func (p Point) IsInf() bool { return p.inf != 0 }

// Sign is +1 or -1 for an infinite point and 0 otherwise.
func (p Point) Sign() int { return p.inf }

// Float64 returns the point as a float, with ±Inf for infinite points.
func (p Point) Float64() float64 {
	if p.inf != 0 {
		return math.Inf(p.inf)
	}
	return p.value
}

func (p Point) String() string {
	switch p.inf {
	case 1:
		return "infinity"
	case -1:
		return "-infinity"
	}
	return strconv.FormatFloat(p.value, 'g', -1, 64)
}

// ParsePoint accepts a decimal number or one of inf, +inf, -inf,
// infinity, oo and ∞ (each optionally signed).
func ParsePoint(s string) (Point, error) {
	t := strings.ToLower(strings.TrimSpace(s))
	sign := 1
	switch {
	case strings.HasPrefix(t, "-"):
		sign, t = -1, t[1:]
	case strings.HasPrefix(t, "+"):
		t = t[1:]
	}
	switch t {
	case "inf", "infinity", "oo", "∞":
		return Point{inf: sign}, nil
	}
	v, err := strconv.ParseFloat(t, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return Point{}, fmt.Errorf("%w: %q", ErrInvalidPoint, s)
	}
	return At(float64(sign) * v), nil
}

func (p Point) MarshalJSON() ([]byte, error) {
	if p.inf != 0 {
		return json.Marshal(infinityText(p.inf))
	}
	return json.Marshal(p.value)
}

func (p *Point) UnmarshalJSON(data []byte) error {
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		*p = At(f)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidPoint, data)
	}
	parsed, err := ParsePoint(s)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

func infinityText(sign int) string {
	if sign < 0 {
		return "-Infinity"
	}
	return "Infinity"
}

// Value is a limit outcome: a finite number, a signed infinity, or null
// when the limit could not be determined.
type Value struct {
	v   float64
	set bool
}

// Null is the zero Value.
var Null = Value{}

func Number(v float64) Value { return Value{v: v, set: true} }

func Infinity(sign int) Value { return Value{v: math.Inf(sign), set: true} }

func (v Value) IsNull() bool { return !v.set }

func (v Value) IsInf() bool { return v.set && math.IsInf(v.v, 0) }

// Float64 reports the value and whether it is set.
func (v Value) Float64() (float64, bool) { return v.v, v.set }

func (v Value) String() string {
	switch {
	case !v.set:
		return "null"
	case math.IsInf(v.v, 1):
		return "infinity"
	case math.IsInf(v.v, -1):
		return "-infinity"
	}
	return strconv.FormatFloat(v.v, 'g', 12, 64)
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch {
	case !v.set:
		return []byte("null"), nil
	case math.IsInf(v.v, 0):
		sign := 1
		if v.v < 0 {
			sign = -1
		}
		return json.Marshal(infinityText(sign))
	}
	return json.Marshal(v.v)
}

func (v *Value) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*v = Null
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		*v = Number(f)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case "Infinity":
		*v = Infinity(1)
	case "-Infinity":
		*v = Infinity(-1)
	default:
		return fmt.Errorf("limit: invalid value %q", s)
	}
	return nil
}

package music

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"strings"
)

// Duration is an exact rational multiple of a quarter note. It is a
// comparable value type, so it can be used as a map key (Markov rhythm states).
// The zero value is a zero-length duration.
type Duration struct {
	num int64
	den int64
}

var (
	Whole        = NewDuration(4, 1)
	DottedHalf   = NewDuration(3, 1)
	Half         = NewDuration(2, 1)
	DottedQtr    = NewDuration(3, 2)
	Quarter      = NewDuration(1, 1)
	DottedEighth = NewDuration(3, 4)
	Eighth       = NewDuration(1, 2)
	Sixteenth    = NewDuration(1, 4)
	ThirtySecond = NewDuration(1, 8)
)

// maxDenominator bounds float conversions (960 ticks per quarter resolution)
const maxDenominator = 960

// NewDuration returns num/den quarter notes in lowest terms
func NewDuration(num, den int64) Duration {
	if den == 0 {
		return Duration{}
	}
	if den < 0 {
		num, den = -num, -den
	}
	if num == 0 {
		return Duration{}
	}
	g := gcd(abs64(num), den)
	return Duration{num: num / g, den: den / g}
}

// Quarters returns n quarter notes
func Quarters(n int64) Duration {
	return NewDuration(n, 1)
}

// DurationFromFloat converts a float quarter-length, snapping to 1/960 when
// the binary value has no short exact form (0.1, 1/3 ...)
func DurationFromFloat(f float64) Duration {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Duration{}
	}
	r := new(big.Rat).SetFloat64(f)
	if r != nil && r.Denom().IsInt64() && r.Denom().Int64() <= maxDenominator && r.Num().IsInt64() {
		return NewDuration(r.Num().Int64(), r.Denom().Int64())
	}
	return NewDuration(int64(math.Round(f*maxDenominator)), maxDenominator)
}

// ParseDuration accepts "1/2", "0.5", "2" or "3/2"
func ParseDuration(s string) (Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Duration{}, fmt.Errorf("empty duration")
	}
	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return Duration{}, fmt.Errorf("invalid duration %q", s)
	}
	if !r.Num().IsInt64() || !r.Denom().IsInt64() {
		return Duration{}, fmt.Errorf("duration %q out of range", s)
	}
	return NewDuration(r.Num().Int64(), r.Denom().Int64()), nil
}

func (d Duration) Num() int64 { return d.num }

func (d Duration) Den() int64 {
	if d.den == 0 {
		return 1
	}
	return d.den
}

func (d Duration) IsZero() bool { return d.num == 0 }

func (d Duration) IsPositive() bool { return d.num > 0 }

func (d Duration) Add(o Duration) Duration {
	return NewDuration(d.num*o.Den()+o.num*d.Den(), d.Den()*o.Den())
}

func (d Duration) Sub(o Duration) Duration {
	return NewDuration(d.num*o.Den()-o.num*d.Den(), d.Den()*o.Den())
}

func (d Duration) Mul(o Duration) Duration {
	return NewDuration(d.num*o.num, d.Den()*o.Den())
}

// Div returns d / o; dividing by zero yields zero
func (d Duration) Div(o Duration) Duration {
	if o.num == 0 {
		return Duration{}
	}
	return NewDuration(d.num*o.Den(), d.Den()*o.num)
}

// Scale multiplies by an integer factor
func (d Duration) Scale(n int64) Duration {
	return NewDuration(d.num*n, d.Den())
}

// Cmp returns -1, 0 or +1
func (d Duration) Cmp(o Duration) int {
	l, r := d.num*o.Den(), o.num*d.Den()
	switch {
	case l < r:
		return -1
	case l > r:
		return 1
	}
	return 0
}

func (d Duration) Less(o Duration) bool { return d.Cmp(o) < 0 }

func (d Duration) Min(o Duration) Duration {
	if o.Less(d) {
		return o
	}
	return d
}

func (d Duration) Float64() float64 {
	return float64(d.num) / float64(d.Den())
}

// Ticks converts to MIDI ticks at the given resolution
func (d Duration) Ticks(perQuarter int64) int64 {
	return d.num * perQuarter / d.Den()
}

// String renders "3", "1/2" or "3/2"
func (d Duration) String() string {
	if d.Den() == 1 {
		return fmt.Sprintf("%d", d.num)
	}
	return fmt.Sprintf("%d/%d", d.num, d.Den())
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// UnmarshalJSON accepts both numbers (0.5) and strings ("1/2")
func (d *Duration) UnmarshalJSON(data []byte) error {
	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		*d = DurationFromFloat(f)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("duration must be a number or fraction string: %w", err)
	}
	return d.UnmarshalText([]byte(s))
}

// SumDurations adds a sequence of durations
func SumDurations(ds []Duration) Duration {
	total := Duration{}
	for _, d := range ds {
		total = total.Add(d)
	}
	return total
}

func gcd(a, b int64) int64 {
	for b != 0 {
		a, b = b, a%b
	}
	if a == 0 {
		return 1
	}
	return a
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

package motif

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/Conceptual-Machines/composer-api/internal/agents/shared/sampling"
	apperrors "github.com/Conceptual-Machines/composer-api/internal/errors"
	"github.com/Conceptual-Machines/composer-api/internal/music"
	"github.com/Conceptual-Machines/composer-api/internal/patterns"
)

// Technique is a motif development operation
type Technique int

const (
	Transpose Technique = iota
	Invert
	Retrograde
	Augment
	Diminish
	Fragment
	Sequence
)

var techniqueNames = map[Technique]string{
	Transpose:  "transpose",
	Invert:     "invert",
	Retrograde: "retrograde",
	Augment:    "augment",
	Diminish:   "diminish",
	Fragment:   "fragment",
	Sequence:   "sequence",
}

// Techniques lists every operation in declaration order
func Techniques() []Technique {
	return []Technique{Transpose, Invert, Retrograde, Augment, Diminish, Fragment, Sequence}
}

func (t Technique) String() string {
	if name, ok := techniqueNames[t]; ok {
		return name
	}
	return fmt.Sprintf("technique(%d)", int(t))
}

// ParseTechnique rejects anything outside the closed set
func ParseTechnique(s string) (Technique, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for t, n := range techniqueNames {
		if n == name {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", apperrors.ErrUnknownTechnique, s)
}

func (t Technique) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *Technique) UnmarshalText(text []byte) error {
	parsed, err := ParseTechnique(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

const (
	transposeDecay  = 0.9
	invertDecay     = 0.85
	retrogradeDecay = 0.8
	augmentDecay    = 0.9
	diminishDecay   = 0.9
	fragmentDecay   = 0.7

	minFragmentable = 3
	minRepetitions  = 2
	maxRepetitions  = 3
)

var (
	transpositionChoices = []int{-7, -5, -3, -2, 2, 3, 5, 7}
	sequenceSteps        = []int{2, -2, 3, -3}

	invertedContours = map[Contour]Contour{
		ContourAscending:    ContourDescending,
		ContourDescending:   ContourAscending,
		ContourArch:         ContourInvertedArch,
		ContourInvertedArch: ContourArch,
		ContourStable:       ContourStable,
		ContourMixed:        ContourMixed,
	}
)

type operation func(*Transformer, Cell) Cell

var operations = map[Technique]operation{
	Transpose:  (*Transformer).transpose,
	Invert:     (*Transformer).invert,
	Retrograde: (*Transformer).retrograde,
	Augment:    (*Transformer).augment,
	Diminish:   (*Transformer).diminish,
	Fragment:   (*Transformer).fragment,
	Sequence:   (*Transformer).sequence,
}

// Transformer applies development techniques. It owns the random source used
// by the randomized operations, so one Transformer serves one composition.
type Transformer struct {
	rng *rand.Rand
}

func NewTransformer(rng *rand.Rand) *Transformer {
	return &Transformer{rng: rng}
}

// Develop applies the technique to a copy of c
func (t *Transformer) Develop(c Cell, technique Technique) (Cell, error) {
	op, ok := operations[technique]
	if !ok {
		return Cell{}, fmt.Errorf("%w: %s", apperrors.ErrUnknownTechnique, technique)
	}
	return op(t, c.clone()), nil
}

// DevelopRandom applies a uniformly chosen technique
func (t *Transformer) DevelopRandom(c Cell) (Cell, Technique) {
	technique := sampling.Choice(Techniques(), t.rng)
	return operations[technique](t, c.clone()), technique
}

// transpose leaves intervals alone and moves the realized start pitch
func (t *Transformer) transpose(c Cell) Cell {
	c.Offset += sampling.Choice(transpositionChoices, t.rng)
	c.Importance *= transposeDecay
	return c
}

func (t *Transformer) invert(c Cell) Cell {
	for i := range c.Intervals {
		c.Intervals[i] = -c.Intervals[i]
	}
	for i := range c.Transpositions {
		c.Transpositions[i] = -c.Transpositions[i]
	}
	if flipped, ok := invertedContours[c.Contour]; ok {
		c.Contour = flipped
	} else {
		c.Contour = ContourMixed
	}
	c.Importance *= invertDecay
	return c
}

func (t *Transformer) retrograde(c Cell) Cell {
	reverse(c.Intervals)
	reverse(c.Rhythm)
	reverse(c.Transpositions)
	c.Contour = ContourMixed
	c.Importance *= retrogradeDecay
	return c
}

func (t *Transformer) augment(c Cell) Cell {
	for i := range c.Rhythm {
		c.Rhythm[i] = c.Rhythm[i].Scale(2)
	}
	c.Importance *= augmentDecay
	return c
}

func (t *Transformer) diminish(c Cell) Cell {
	for i := range c.Rhythm {
		c.Rhythm[i] = c.Rhythm[i].Div(music.Quarters(2))
	}
	c.Importance *= diminishDecay
	return c
}

// fragment keeps the first or second half; cells of two intervals or fewer are returned unchanged
func (t *Transformer) fragment(c Cell) Cell {
	if len(c.Intervals) < minFragmentable {
		return c
	}
	half := len(c.Intervals) / 2
	lo, hi := 0, half
	if t.rng.Float64() >= 0.5 {
		lo, hi = half, len(c.Intervals)
	}

	c.Intervals = c.Intervals[lo:hi]
	c.Rhythm = c.Rhythm[min(lo, len(c.Rhythm)):min(hi, len(c.Rhythm))]
	if c.Transpositions != nil {
		c.Transpositions = c.Transpositions[min(lo, len(c.Transpositions)):min(hi, len(c.Transpositions))]
	}
	c.Contour = ContourFragment
	c.Importance *= fragmentDecay
	return c
}

// sequence restates the cell 2-3 times. Each restatement i starts i*step
// semitones from the opening, recorded in Transpositions for render time.
func (t *Transformer) sequence(c Cell) Cell {
	repetitions := minRepetitions + t.rng.IntN(maxRepetitions-minRepetitions+1)
	n := c.Len()
	span := 0
	for _, iv := range c.Intervals[:n] {
		span += iv
	}
	for i := 0; i < n; i++ {
		span += c.shiftAt(i)
	}

	intervals := make([]int, 0, n*repetitions)
	rhythm := make([]music.Duration, 0, n*repetitions)
	shifts := make([]int, 0, n*repetitions)
	previous := 0
	for r := 0; r < repetitions; r++ {
		offset := 0
		if r > 0 {
			offset = r * sampling.Choice(sequenceSteps, t.rng)
		}
		for i := 0; i < n; i++ {
			shift := c.shiftAt(i)
			if i == 0 && r > 0 {
				// return to the opening pitch, then move by this restatement's offset
				shift += offset - previous - span
			}
			intervals = append(intervals, c.Intervals[i])
			rhythm = append(rhythm, c.Rhythm[i])
			shifts = append(shifts, shift)
		}
		previous = offset
	}

	c.Intervals = intervals
	c.Rhythm = rhythm
	c.Transpositions = shifts
	c.Contour = ContourSequence
	return c
}

func reverse[T any](s []T) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

// FromDescriptor builds a cell from a persisted motif descriptor. Descriptors
// without intervals are rejected; missing rhythm values default to eighths.
func FromDescriptor(d patterns.MotifDescriptor) (Cell, bool) {
	d = d.Resolve()
	if len(d.Intervals) == 0 {
		return Cell{}, false
	}
	rhythm := make([]music.Duration, len(d.Intervals))
	for i := range rhythm {
		if i < len(d.Rhythm) && d.Rhythm[i].IsPositive() {
			rhythm[i] = d.Rhythm[i]
		} else {
			rhythm[i] = music.Eighth
		}
	}
	importance := d.Importance
	if importance <= 0 || importance > 1 {
		importance = 0.8
	}
	contour := Contour(d.Contour)
	if contour == "" {
		contour = ContourMixed
	}
	return Cell{
		Name:       d.Name,
		Intervals:  append([]int(nil), d.Intervals...),
		Rhythm:     rhythm,
		Contour:    contour,
		Importance: importance,
	}, true
}

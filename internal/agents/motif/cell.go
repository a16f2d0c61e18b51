package motif

import (
	"math/rand/v2"

	"github.com/Conceptual-Machines/composer-api/internal/agents/core/musical"
	"github.com/Conceptual-Machines/composer-api/internal/agents/shared/sampling"
	"github.com/Conceptual-Machines/composer-api/internal/music"
)

// Contour is the coarse melodic shape of a cell
type Contour string

const (
	ContourAscending    Contour = "ascending"
	ContourDescending   Contour = "descending"
	ContourArch         Contour = "arch"
	ContourInvertedArch Contour = "inverted_arch"
	ContourStable       Contour = "stable"
	ContourMixed        Contour = "mixed"
	ContourFragment     Contour = "fragment"
	ContourSequence     Contour = "sequence"
)

// Cell is a motivic cell: one monophonic line described by relative
// intervals and their rhythm. Cells are values; transformations return new
// cells and never share slices with their input.
type Cell struct {
	Name       string           `json:"name,omitempty"`
	Intervals  []int            `json:"intervals"`
	Rhythm     []music.Duration `json:"rhythm"`
	Contour    Contour          `json:"contour"`
	Importance float64          `json:"importance"`

	// Offset shifts the realized start pitch (set by transposition)
	Offset int `json:"offset,omitempty"`
	// Transpositions, when present, run parallel to Intervals: entry i is
	// added to the running pitch before interval i is applied
	Transpositions []int `json:"transpositions,omitempty"`
}

// Len is the number of realizable notes
func (c Cell) Len() int {
	return min(len(c.Intervals), len(c.Rhythm))
}

// TotalDuration sums the rhythm of the realizable notes
func (c Cell) TotalDuration() music.Duration {
	return music.SumDurations(c.Rhythm[:c.Len()])
}

func (c Cell) clone() Cell {
	out := c
	out.Intervals = append([]int(nil), c.Intervals...)
	out.Rhythm = append([]music.Duration(nil), c.Rhythm...)
	if c.Transpositions != nil {
		out.Transpositions = append([]int(nil), c.Transpositions...)
	}
	return out
}

func (c Cell) shiftAt(i int) int {
	if i < len(c.Transpositions) {
		return c.Transpositions[i]
	}
	return 0
}

// Realize walks the cell from the context's last pitch (middle C when the
// history is empty), octave-wrapping every pitch into the melody range and
// pushing each one into the context history.
func Realize(c Cell, ctx *musical.Context) []music.Note {
	current, ok := ctx.LastPitch()
	if !ok {
		current = music.MiddleC
	}
	current += music.Pitch(c.Offset)

	n := c.Len()
	notes := make([]music.Note, 0, n)
	for i := 0; i < n; i++ {
		current += music.Pitch(c.shiftAt(i) + c.Intervals[i])
		current = music.ClampMelody(current)
		notes = append(notes, music.Note{Pitch: current, Duration: c.Rhythm[i]})
		ctx.PushPitch(current)
	}
	return notes
}

func eighths(n int) []music.Duration {
	out := make([]music.Duration, n)
	for i := range out {
		out[i] = music.Eighth
	}
	return out
}

// Seeds returns the primary motif catalogue
func Seeds() []Cell {
	return []Cell{
		{
			Name:       "fate",
			Intervals:  []int{0, 0, 0, -4},
			Rhythm:     []music.Duration{music.Eighth, music.Eighth, music.Eighth, music.DottedQtr},
			Contour:    ContourDescending,
			Importance: 1.0,
		},
		{
			Name:       "joy",
			Intervals:  []int{2, 2, 1, 2, 2, 1, 2},
			Rhythm:     eighths(7),
			Contour:    ContourArch,
			Importance: 0.9,
		},
		{
			Name:       "moonlight",
			Intervals:  []int{0, 0, 0},
			Rhythm:     eighths(3),
			Contour:    ContourStable,
			Importance: 0.8,
		},
		{
			Name:       "passion",
			Intervals:  []int{-1, -2, -2, 7},
			Rhythm:     []music.Duration{music.Sixteenth, music.Sixteenth, music.Sixteenth, music.DottedEighth},
			Contour:    ContourMixed,
			Importance: 0.95,
		},
	}
}

// SeedByName looks up a catalogue motif
func SeedByName(name string) (Cell, bool) {
	for _, c := range Seeds() {
		if c.Name == name {
			return c, true
		}
	}
	return Cell{}, false
}

// CreatePrimary draws one seed from the catalogue plus any extra candidates
func CreatePrimary(rng *rand.Rand, extra ...Cell) Cell {
	candidates := append(Seeds(), extra...)
	return sampling.Choice(candidates, rng).clone()
}

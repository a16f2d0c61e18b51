package musical

import (
	"github.com/Conceptual-Machines/composer-api/internal/music"
)

const (
	historySize = 8

	// tendencyWindow is how many recent pitches decide the melodic trend
	tendencyWindow    = 3
	tendencyThreshold = 2

	DefaultTempo = 120
)

// Tendency is the recent melodic direction
type Tendency int

const (
	TendencyNeutral Tendency = iota
	TendencyAscending
	TendencyDescending
	TendencyStable
)

func (t Tendency) String() string {
	switch t {
	case TendencyAscending:
		return "ascending"
	case TendencyDescending:
		return "descending"
	case TendencyStable:
		return "stable"
	}
	return "neutral"
}

// Context is the mutable per-composition state threaded through every
// generator. One Context belongs to one composition; it is not safe for
// concurrent use.
type Context struct {
	Key            music.Key
	Tempo          int
	Beats          int // beats per measure
	Dynamic        music.Dynamic
	PhrasePosition int
	SectionType    string
	HarmonicRhythm music.Duration

	tension float64
	recent  []music.Pitch
}

// New creates a context in the given key with neutral settings
func New(key music.Key) *Context {
	return &Context{
		Key:            key,
		Tempo:          DefaultTempo,
		Beats:          4,
		Dynamic:        music.DynamicMF,
		HarmonicRhythm: music.Quarter,
		tension:        0.5,
		recent:         make([]music.Pitch, 0, historySize),
	}
}

// Tension returns the current tension level in [0,1]
func (c *Context) Tension() float64 {
	return c.tension
}

// SetTension clamps t into [0,1]
func (c *Context) SetTension(t float64) {
	switch {
	case t < 0:
		t = 0
	case t > 1:
		t = 1
	}
	c.tension = t
}

// PushPitch appends p to the bounded history, evicting the oldest entry
func (c *Context) PushPitch(p music.Pitch) {
	if len(c.recent) == historySize {
		copy(c.recent, c.recent[1:])
		c.recent = c.recent[:historySize-1]
	}
	c.recent = append(c.recent, p)
}

// RecentPitches returns a copy of the history, oldest first
func (c *Context) RecentPitches() []music.Pitch {
	out := make([]music.Pitch, len(c.recent))
	copy(out, c.recent)
	return out
}

// LastPitch returns the most recent pitch, if any
func (c *Context) LastPitch() (music.Pitch, bool) {
	if len(c.recent) == 0 {
		return 0, false
	}
	return c.recent[len(c.recent)-1], true
}

// LastPitches returns up to n most recent pitches, oldest first
func (c *Context) LastPitches(n int) []music.Pitch {
	if n > len(c.recent) {
		n = len(c.recent)
	}
	out := make([]music.Pitch, n)
	copy(out, c.recent[len(c.recent)-n:])
	return out
}

// PitchTendency compares the first and last of the three most recent pitches.
// Fewer than three pitches is neutral.
func (c *Context) PitchTendency() Tendency {
	if len(c.recent) < tendencyWindow {
		return TendencyNeutral
	}
	window := c.recent[len(c.recent)-tendencyWindow:]
	first, last := window[0], window[len(window)-1]
	switch {
	case last > first+tendencyThreshold:
		return TendencyAscending
	case last < first-tendencyThreshold:
		return TendencyDescending
	}
	return TendencyStable
}

// MeasureLength is the duration of one measure in quarter notes
func (c *Context) MeasureLength() music.Duration {
	if c.Beats <= 0 {
		return music.Quarters(4)
	}
	return music.Quarters(int64(c.Beats))
}

// ApplyCharacter copies a character's settings into the context
func (c *Context) ApplyCharacter(ch Character) {
	s := SettingsFor(ch)
	c.SetTension(s.Tension)
	c.Dynamic = s.Dynamic
	c.HarmonicRhythm = s.HarmonicRhythm
}

package score

import (
	"github.com/Conceptual-Machines/composer-api/internal/music"
)

// ElementKind tags what an element sounds like
type ElementKind string

const (
	KindNote    ElementKind = "note"
	KindChord   ElementKind = "chord"
	KindRest    ElementKind = "rest"
	KindDynamic ElementKind = "dynamic"
)

// Element is one item inside a measure. Dynamic marks take no time.
type Element struct {
	Kind     ElementKind       `json:"kind"`
	Pitches  []music.Pitch     `json:"pitches,omitempty"`
	Duration music.Duration    `json:"duration"`
	Symbol   music.ChordSymbol `json:"symbol,omitempty"`
	Dynamic  music.Dynamic     `json:"dynamic,omitempty"`
	Fermata  bool              `json:"fermata,omitempty"`
}

func Note(n music.Note) Element {
	return Element{Kind: KindNote, Pitches: []music.Pitch{n.Pitch}, Duration: n.Duration}
}

func NotePitch(p music.Pitch, d music.Duration) Element {
	return Element{Kind: KindNote, Pitches: []music.Pitch{p}, Duration: d}
}

func Chord(c music.Chord) Element {
	return Element{
		Kind:     KindChord,
		Pitches:  append([]music.Pitch(nil), c.Pitches...),
		Duration: c.Duration,
		Symbol:   c.Symbol,
	}
}

func Rest(d music.Duration) Element {
	return Element{Kind: KindRest, Duration: d}
}

func DynamicMark(d music.Dynamic) Element {
	return Element{Kind: KindDynamic, Dynamic: d}
}

// Sounding reports whether the element occupies time
func (e Element) Sounding() bool {
	return e.Kind != KindDynamic
}

// Notes converts melody notes into elements
func Notes(notes []music.Note) []Element {
	out := make([]Element, len(notes))
	for i, n := range notes {
		out[i] = Note(n)
	}
	return out
}

// Measure is one bar of a part. Tempo, meter and key are set only where they change.
type Measure struct {
	Number     int       `json:"number"`
	Elements   []Element `json:"elements"`
	Tempo      int       `json:"tempo,omitempty"`
	TempoText  string    `json:"tempo_text,omitempty"`
	Beats      int       `json:"beats,omitempty"`
	BeatType   int       `json:"beat_type,omitempty"`
	Key        *KeySig   `json:"key,omitempty"`
	Ritardando bool      `json:"ritardando,omitempty"`
	Section    string    `json:"section,omitempty"`
}

// KeySig is a key signature as a count of sharps (negative for flats)
type KeySig struct {
	Fifths int    `json:"fifths"`
	Mode   string `json:"mode"`
}

// Length sums the durations of the sounding elements
func (m Measure) Length() music.Duration {
	total := music.Duration{}
	for _, e := range m.Elements {
		if e.Sounding() {
			total = total.Add(e.Duration)
		}
	}
	return total
}

const (
	ClefTreble = "treble"
	ClefBass   = "bass"
)

// Part is one voice of the score
type Part struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Clef     string    `json:"clef"`
	Measures []Measure `json:"measures"`
}

// Metadata describes how the score was made
type Metadata struct {
	Title    string `json:"title"`
	Composer string `json:"composer"`
	Form     string `json:"form,omitempty"`
	Seed     uint64 `json:"seed"`
	Key      string `json:"key,omitempty"`
}

// Score is a multi-part piece in a single meter
type Score struct {
	Metadata Metadata `json:"metadata"`
	Tempo    int      `json:"tempo"`
	Beats    int      `json:"beats"`
	BeatType int      `json:"beat_type"`
	Parts    []Part   `json:"parts"`
}

// New returns an empty 4/4 score at the given tempo
func New(meta Metadata, tempo int) *Score {
	return &Score{Metadata: meta, Tempo: tempo, Beats: 4, BeatType: 4}
}

// MeasureLength is the length of one bar in quarter notes
func (s *Score) MeasureLength() music.Duration {
	beatType := s.BeatType
	if beatType <= 0 {
		beatType = 4
	}
	return music.NewDuration(int64(s.Beats)*4, int64(beatType))
}

// MeasureCount is the length of the longest part
func (s *Score) MeasureCount() int {
	n := 0
	for _, p := range s.Parts {
		n = max(n, len(p.Measures))
	}
	return n
}

// Fit trims or rest-pads a run of elements to exactly length. A note crossing
// the boundary is shortened; dynamic marks are kept where they fall.
func Fit(elements []Element, length music.Duration) []Element {
	out := make([]Element, 0, len(elements)+1)
	elapsed := music.Duration{}
	for _, e := range elements {
		if !e.Sounding() {
			if elapsed.Less(length) {
				out = append(out, e)
			}
			continue
		}
		if !elapsed.Less(length) || !e.Duration.IsPositive() {
			continue
		}
		remaining := length.Sub(elapsed)
		if remaining.Less(e.Duration) {
			e.Duration = remaining
		}
		out = append(out, e)
		elapsed = elapsed.Add(e.Duration)
	}
	if elapsed.Less(length) {
		out = append(out, Rest(length.Sub(elapsed)))
	}
	return out
}

package music

import (
	"fmt"
	"strings"
)

// Mode of a key
type Mode int

const (
	Major Mode = iota
	Minor
)

func (m Mode) String() string {
	if m == Minor {
		return "minor"
	}
	return "major"
}

var (
	majorSteps = []int{0, 2, 4, 5, 7, 9, 11}
	minorSteps = []int{0, 2, 3, 5, 7, 8, 10}
)

// Key is a tonic plus mode. Tonic is kept in octave 4 (C major = 60).
type Key struct {
	Tonic Pitch `json:"tonic"`
	Mode  Mode  `json:"mode"`
}

var CMajor = Key{Tonic: MiddleC, Mode: Major}

// NewKey normalizes the tonic into octave 4
func NewKey(tonic Pitch, mode Mode) Key {
	return Key{Tonic: MiddleC + Pitch(tonic.Class()), Mode: mode}
}

// ScalePitchClasses returns the seven pitch classes of the key's scale
func (k Key) ScalePitchClasses() []int {
	steps := majorSteps
	if k.Mode == Minor {
		steps = minorSteps
	}
	classes := make([]int, len(steps))
	for i, s := range steps {
		classes[i] = (k.Tonic.Class() + s) % semitonesPerO
	}
	return classes
}

// InScale reports whether p belongs to the key's scale
func (k Key) InScale(p Pitch) bool {
	pc := p.Class()
	for _, c := range k.ScalePitchClasses() {
		if c == pc {
			return true
		}
	}
	return false
}

// Transpose shifts the tonic, keeping the mode
func (k Key) Transpose(semitones int) Key {
	return NewKey(k.Tonic+Pitch(semitones), k.Mode)
}

// Relative returns the relative minor of a major key and vice versa
func (k Key) Relative() Key {
	if k.Mode == Major {
		return NewKey(k.Tonic+9, Minor)
	}
	return NewKey(k.Tonic+3, Major)
}

// Parallel swaps the mode and keeps the tonic
func (k Key) Parallel() Key {
	if k.Mode == Major {
		return NewKey(k.Tonic, Minor)
	}
	return NewKey(k.Tonic, Major)
}

// Sharps returns the key-signature accidental count (negative = flats)
func (k Key) Sharps() int {
	tonic := k.Tonic.Class()
	if k.Mode == Minor {
		tonic = (tonic + 3) % semitonesPerO
	}
	// circle of fifths position of each major tonic pitch class
	fifths := [12]int{0, -5, 2, -3, 4, -1, 6, 1, -4, 3, -2, 5}
	return fifths[tonic]
}

func (k Key) String() string {
	return fmt.Sprintf("%s %s", sharpNames[k.Tonic.Class()], k.Mode)
}

// ParseKey accepts "C", "C major", "a minor", "F# minor", "Bb". A lower-case
// tonic without an explicit mode is read as minor.
func ParseKey(s string) (Key, error) {
	fields := strings.Fields(strings.TrimSpace(s))
	if len(fields) == 0 || len(fields) > 2 {
		return Key{}, fmt.Errorf("invalid key %q", s)
	}

	tonicName := fields[0]
	pc, err := PitchClassOf(tonicName)
	if err != nil {
		return Key{}, fmt.Errorf("invalid key %q: %w", s, err)
	}

	mode := Major
	if tonicName[0] >= 'a' && tonicName[0] <= 'g' {
		mode = Minor
	}
	if len(fields) == 2 {
		switch strings.ToLower(fields[1]) {
		case "major", "maj":
			mode = Major
		case "minor", "min":
			mode = Minor
		default:
			return Key{}, fmt.Errorf("invalid mode in key %q", s)
		}
	}
	return NewKey(MiddleC+Pitch(pc), mode), nil
}

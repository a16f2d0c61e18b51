package music

import (
	"fmt"
	"strings"
)

// Pitch is a MIDI note number (60 = middle C)
type Pitch int

const (
	MiddleC Pitch = 60

	// Playable range for generated melody lines
	MelodyLow  Pitch = 48
	MelodyHigh Pitch = 84

	// Root placement window for realized chords
	ChordRootLow  Pitch = 36
	ChordRootHigh Pitch = 48

	midiMax       = 127
	semitonesPerO = 12
)

var sharpNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// noteOffsets maps note letters and accidentals to semitone offsets from C
var noteOffsets = map[string]int{
	"C":  0,
	"C#": 1, "Db": 1,
	"D":  2,
	"D#": 3, "Eb": 3,
	"E":  4,
	"F":  5,
	"F#": 6, "Gb": 6,
	"G":  7,
	"G#": 8, "Ab": 8,
	"A":  9,
	"A#": 10, "Bb": 10,
	"B": 11,
}

// Class returns the pitch class (0 = C ... 11 = B)
func (p Pitch) Class() int {
	return ((int(p) % semitonesPerO) + semitonesPerO) % semitonesPerO
}

// Octave returns the scientific octave number (C4 = 60)
func (p Pitch) Octave() int {
	return int(p)/semitonesPerO - 1
}

// Name returns the sharp-spelled note name with octave, e.g. "C#4"
func (p Pitch) Name() string {
	return fmt.Sprintf("%s%d", sharpNames[p.Class()], p.Octave())
}

func (p Pitch) String() string {
	return p.Name()
}

// InRange reports whether p lies within [low, high]
func (p Pitch) InRange(low, high Pitch) bool {
	return p >= low && p <= high
}

// ClampToRange moves p by whole octaves until it lies within [low, high].
// Windows narrower than an octave fall back to a hard clamp.
func ClampToRange(p, low, high Pitch) Pitch {
	if high-low < semitonesPerO-1 {
		if p < low {
			return low
		}
		if p > high {
			return high
		}
		return p
	}
	if p < low {
		p += octavesToCover(low-p) * semitonesPerO
	}
	if p > high {
		p -= octavesToCover(p-high) * semitonesPerO
	}
	return p
}

// octavesToCover is the number of whole octaves needed to move d > 0 semitones
func octavesToCover(d Pitch) Pitch {
	return (d-1)/semitonesPerO + 1
}

// ClampMelody keeps p inside the playable melody range
func ClampMelody(p Pitch) Pitch {
	return ClampToRange(p, MelodyLow, MelodyHigh)
}

// NoteNameToMIDI converts a note name like "E1", "C4", "F#3", "Bb2" to a pitch
// Format: <note><accidental?><octave> where:
//   - note: A-G (case insensitive)
//   - accidental: # (sharp) or b (flat), optional
//   - octave: -1 to 9 (C4 = 60 = middle C)
func NoteNameToMIDI(noteName string) (Pitch, error) {
	root, rest, err := splitNoteName(noteName)
	if err != nil {
		return 0, err
	}
	if rest == "" {
		return 0, fmt.Errorf("missing octave in note name: %s", noteName)
	}

	var octave int
	if _, err := fmt.Sscanf(rest, "%d", &octave); err != nil {
		return 0, fmt.Errorf("invalid octave in note name %s: %w", noteName, err)
	}

	// (octave + 1) * 12 + semitone gives C-1 = 0, C4 = 60
	midiNote := (octave+1)*semitonesPerO + noteOffsets[root]
	if midiNote < 0 {
		midiNote = 0
	}
	if midiNote > midiMax {
		midiNote = midiMax
	}
	return Pitch(midiNote), nil
}

// PitchClassOf parses a bare note name ("F#", "bb", "E") into a pitch class
func PitchClassOf(name string) (int, error) {
	root, rest, err := splitNoteName(name)
	if err != nil {
		return 0, err
	}
	if rest != "" {
		return 0, fmt.Errorf("unexpected suffix %q in note name %s", rest, name)
	}
	return noteOffsets[root], nil
}

// splitNoteName extracts the normalized root ("C", "Db", ...) and the remainder
func splitNoteName(noteName string) (string, string, error) {
	noteName = strings.TrimSpace(noteName)
	if noteName == "" {
		return "", "", fmt.Errorf("empty note name")
	}

	letter := strings.ToUpper(noteName[:1])
	if letter < "A" || letter > "G" {
		return "", "", fmt.Errorf("invalid note letter: %s", letter)
	}

	root := letter
	idx := 1
	if idx < len(noteName) && (noteName[idx] == '#' || noteName[idx] == 'b') {
		root += string(noteName[idx])
		idx++
	}

	if _, ok := noteOffsets[root]; !ok {
		// E#, Fb, B#, Cb are not spelled by this catalogue
		return "", "", fmt.Errorf("invalid root note: %s", root)
	}
	return root, noteName[idx:], nil
}

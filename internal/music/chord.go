package music

import "strings"

// ChordSymbol is a roman-numeral chord function relative to the current key.
// The set is closed; see ChordSymbols.
type ChordSymbol string

const (
	ChordI    ChordSymbol = "I"
	ChordII   ChordSymbol = "ii"
	ChordIII  ChordSymbol = "iii"
	ChordIV   ChordSymbol = "IV"
	ChordV    ChordSymbol = "V"
	ChordVI   ChordSymbol = "vi"
	ChordVII  ChordSymbol = "vii°"
	chordNone ChordSymbol = ""
)

// ChordSymbols lists every symbol in scale-degree order
var ChordSymbols = []ChordSymbol{ChordI, ChordII, ChordIII, ChordIV, ChordV, ChordVI, ChordVII}

// Quality of a triad
type Quality string

const (
	QualityMajor      Quality = "major"
	QualityMinor      Quality = "minor"
	QualityDiminished Quality = "diminished"
)

var triadIntervals = map[Quality][]int{
	QualityMajor:      {0, 4, 7},
	QualityMinor:      {0, 3, 7},
	QualityDiminished: {0, 3, 6},
}

type chordInfo struct {
	degree  int // semitones above the tonic
	quality Quality
}

var chordTable = map[ChordSymbol]chordInfo{
	ChordI:   {0, QualityMajor},
	ChordII:  {2, QualityMinor},
	ChordIII: {4, QualityMinor},
	ChordIV:  {5, QualityMajor},
	ChordV:   {7, QualityMajor},
	ChordVI:  {9, QualityMinor},
	ChordVII: {11, QualityDiminished},
}

// ParseChordSymbol resolves a roman numeral. "vii°", "viio" and "vii0" are all
// accepted for the leading-tone triad.
func ParseChordSymbol(s string) (ChordSymbol, bool) {
	s = strings.TrimSpace(s)
	switch s {
	case "viio", "vii0", "VII°", "viidim":
		return ChordVII, true
	}
	sym := ChordSymbol(s)
	if _, ok := chordTable[sym]; ok {
		return sym, true
	}
	return chordNone, false
}

// SymbolOrTonic parses s and falls back to I for unknown input
func SymbolOrTonic(s string) ChordSymbol {
	if sym, ok := ParseChordSymbol(s); ok {
		return sym
	}
	return ChordI
}

// Valid reports whether the symbol belongs to the closed set
func (s ChordSymbol) Valid() bool {
	_, ok := chordTable[s]
	return ok
}

// Degree returns the root's semitone offset above the tonic
func (s ChordSymbol) Degree() int {
	return chordTable[s].degree
}

func (s ChordSymbol) Quality() Quality {
	if info, ok := chordTable[s]; ok {
		return info.quality
	}
	return QualityMajor
}

// IsResolution reports whether the chord can close a phrase
func (s ChordSymbol) IsResolution() bool {
	return s == ChordI || s == ChordVI
}

// Triad builds root-position pitches above root for the given quality
func Triad(root Pitch, quality Quality) []Pitch {
	intervals, ok := triadIntervals[quality]
	if !ok {
		intervals = triadIntervals[QualityMajor]
	}
	pitches := make([]Pitch, len(intervals))
	for i, iv := range intervals {
		pitches[i] = root + Pitch(iv)
	}
	return pitches
}

// SymbolFor maps a triad (root pitch class + quality) found in a key to its
// roman numeral. Chords outside the diatonic set report false.
func SymbolFor(key Key, rootClass int, quality Quality) (ChordSymbol, bool) {
	degree := ((rootClass-key.Tonic.Class())%semitonesPerO + semitonesPerO) % semitonesPerO
	for _, sym := range ChordSymbols {
		info := chordTable[sym]
		if info.degree == degree && info.quality == quality {
			return sym, true
		}
	}
	return chordNone, false
}

// IdentifyTriad finds a root and quality whose triad covers the given pitch
// classes. Only major, minor and diminished triads are recognized.
func IdentifyTriad(pitches []Pitch) (int, Quality, bool) {
	present := map[int]bool{}
	for _, p := range pitches {
		present[p.Class()] = true
	}
	if len(present) < 3 {
		return 0, "", false
	}
	for _, quality := range []Quality{QualityMajor, QualityMinor, QualityDiminished} {
		for root := 0; root < semitonesPerO; root++ {
			matched := true
			for _, iv := range triadIntervals[quality] {
				if !present[(root+iv)%semitonesPerO] {
					matched = false
					break
				}
			}
			if matched {
				return root, quality, true
			}
		}
	}
	return 0, "", false
}

// ChordName renders a letter-name symbol ("C", "Am", "Bdim")
func ChordName(rootClass int, quality Quality) string {
	name := sharpNames[((rootClass%semitonesPerO)+semitonesPerO)%semitonesPerO]
	switch quality {
	case QualityMinor:
		return name + "m"
	case QualityDiminished:
		return name + "dim"
	}
	return name
}

package music

import "fmt"

// Note is a single pitched event
type Note struct {
	Pitch    Pitch    `json:"pitch"`
	Duration Duration `json:"duration"`
}

// Chord is a realized chord symbol
type Chord struct {
	Symbol   ChordSymbol `json:"symbol"`
	Pitches  []Pitch     `json:"pitches"`
	Duration Duration    `json:"duration"`
}

// Dynamic is a loudness mark
type Dynamic string

const (
	DynamicPP  Dynamic = "pp"
	DynamicP   Dynamic = "p"
	DynamicMP  Dynamic = "mp"
	DynamicMF  Dynamic = "mf"
	DynamicF   Dynamic = "f"
	DynamicFF  Dynamic = "ff"
	DynamicFFF Dynamic = "fff"
)

var dynamicVelocities = map[Dynamic]uint8{
	DynamicPP:  33,
	DynamicP:   49,
	DynamicMP:  64,
	DynamicMF:  80,
	DynamicF:   96,
	DynamicFF:  112,
	DynamicFFF: 127,
}

// ParseDynamic validates a dynamic mark
func ParseDynamic(s string) (Dynamic, error) {
	d := Dynamic(s)
	if _, ok := dynamicVelocities[d]; !ok {
		return "", fmt.Errorf("unknown dynamic mark %q", s)
	}
	return d, nil
}

// Velocity returns the MIDI velocity for the mark (mf when unknown)
func (d Dynamic) Velocity() uint8 {
	if v, ok := dynamicVelocities[d]; ok {
		return v
	}
	return dynamicVelocities[DynamicMF]
}

// DynamicForVelocity picks the nearest mark for a MIDI velocity
func DynamicForVelocity(v uint8) Dynamic {
	best := DynamicMF
	bestDist := 256
	for _, d := range []Dynamic{DynamicPP, DynamicP, DynamicMP, DynamicMF, DynamicF, DynamicFF, DynamicFFF} {
		dist := int(v) - int(dynamicVelocities[d])
		if dist < 0 {
			dist = -dist
		}
		if dist < bestDist {
			best, bestDist = d, dist
		}
	}
	return best
}

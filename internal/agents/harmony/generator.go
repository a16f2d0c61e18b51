package harmony

import (
	"math/rand/v2"

	"github.com/Conceptual-Machines/composer-api/internal/agents/core/musical"
	"github.com/Conceptual-Machines/composer-api/internal/agents/shared/sampling"
	"github.com/Conceptual-Machines/composer-api/internal/music"
)

const (
	cadenceEvery    = 16
	cadenceTailSize = 3

	highTension     = 0.7
	lowTension      = 0.3
	dominantBoost   = 1.3
	resolutionBoost = 1.2

	SectionExposition  = "exposition"
	SectionDevelopment = "development"
)

// Rules maps each chord to its successor probabilities
type Rules map[music.ChordSymbol]map[music.ChordSymbol]float64

// DefaultRules are the hand-authored transition priors
func DefaultRules() Rules {
	return Rules{
		music.ChordI:   {music.ChordV: 0.3, music.ChordIV: 0.25, music.ChordVI: 0.2, music.ChordII: 0.15, music.ChordIII: 0.1},
		music.ChordII:  {music.ChordV: 0.6, music.ChordVII: 0.2, music.ChordIV: 0.2},
		music.ChordIII: {music.ChordVI: 0.4, music.ChordIV: 0.3, music.ChordI: 0.3},
		music.ChordIV:  {music.ChordV: 0.4, music.ChordI: 0.3, music.ChordII: 0.2, music.ChordVII: 0.1},
		music.ChordV:   {music.ChordI: 0.6, music.ChordVI: 0.25, music.ChordIV: 0.15},
		music.ChordVI:  {music.ChordII: 0.35, music.ChordIV: 0.35, music.ChordV: 0.3},
		music.ChordVII: {music.ChordI: 0.7, music.ChordV: 0.3},
	}
}

// Cadence patterns, each ending on I or vi
var (
	CadenceIIVI      = []music.ChordSymbol{music.ChordII, music.ChordV, music.ChordI}
	CadenceIVVI      = []music.ChordSymbol{music.ChordIV, music.ChordV, music.ChordI}
	CadenceIIVvi     = []music.ChordSymbol{music.ChordII, music.ChordV, music.ChordVI}
	CadencePlagal    = []music.ChordSymbol{music.ChordIV, music.ChordI}
	CadenceVI        = []music.ChordSymbol{music.ChordV, music.ChordI}
	CadenceLeading   = []music.ChordSymbol{music.ChordVII, music.ChordI}
	CadenceIVVvi     = []music.ChordSymbol{music.ChordIV, music.ChordV, music.ChordVI}
	CadenceDeceptive = []music.ChordSymbol{music.ChordV, music.ChordVI}

	expositionCadences  = [][]music.ChordSymbol{CadenceIIVI, CadenceIVVI}
	developmentCadences = [][]music.ChordSymbol{CadenceIIVvi, CadenceIVVvi, CadenceDeceptive}
)

var inversionChoices = []int{0, 0, 0, 1, 1, 2}

// Generator samples chord progressions from a rule table. The table is only
// written by ApplyProfile; callers serialize that against generation.
type Generator struct {
	rules Rules
}

func NewGenerator() *Generator {
	return &Generator{rules: DefaultRules()}
}

// Rules returns a copy of the current table
func (g *Generator) Rules() Rules {
	out := make(Rules, len(g.rules))
	for from, row := range g.rules {
		cp := make(map[music.ChordSymbol]float64, len(row))
		for to, p := range row {
			cp[to] = p
		}
		out[from] = cp
	}
	return out
}

// ApplyProfile replaces rows with learned transition weights. Rows and targets
// outside the closed chord set, and rows without positive weight, are ignored.
// It returns the number of rows replaced.
func (g *Generator) ApplyProfile(learned Rules) int {
	applied := 0
	for _, from := range music.ChordSymbols {
		row, ok := learned[from]
		if !ok {
			continue
		}
		weights := make([]float64, 0, len(row))
		targets := make([]music.ChordSymbol, 0, len(row))
		for _, to := range music.ChordSymbols {
			if p, ok := row[to]; ok && p > 0 {
				targets = append(targets, to)
				weights = append(weights, p)
			}
		}
		if len(targets) == 0 {
			continue
		}
		sampling.Normalize(weights)
		next := make(map[music.ChordSymbol]float64, len(targets))
		for i, to := range targets {
			next[to] = weights[i]
		}
		g.rules[from] = next
		applied++
	}
	return applied
}

// IsCadencePoint marks every 16th position and the last three of a progression
func IsCadencePoint(pos, length int) bool {
	return pos%cadenceEvery == cadenceEvery-1 || pos >= length-cadenceTailSize
}

// SelectCadence picks a cadence suited to the section: strong authentic
// cadences in expositions, deceptive ones in developments, ii-V-I otherwise
func SelectCadence(sectionType string, rng *rand.Rand) []music.ChordSymbol {
	switch sectionType {
	case SectionExposition:
		return sampling.Choice(expositionCadences, rng)
	case SectionDevelopment:
		return sampling.Choice(developmentCadences, rng)
	}
	return CadenceIIVI
}

// GenerateProgression returns exactly length chord symbols, starting on I.
// Cadences are spliced in at cadence points when they fit; a progression that
// would still end unresolved gets a V-I (V-vi in developments) tail.
func (g *Generator) GenerateProgression(length int, ctx *musical.Context, rng *rand.Rand) []music.ChordSymbol {
	if length <= 0 {
		return []music.ChordSymbol{}
	}

	progression := make([]music.ChordSymbol, 1, length+cadenceTailSize)
	progression[0] = music.ChordI

	for len(progression) < length {
		pos := len(progression)
		if IsCadencePoint(pos, length) {
			cadence := SelectCadence(ctx.SectionType, rng)
			if len(cadence) <= length-pos {
				// the cadence's first chord stands in for the current one
				progression = append(progression, cadence[1:]...)
				continue
			}
		}
		progression = append(progression, g.nextChord(progression[pos-1], ctx, rng))
	}
	progression = progression[:length]

	if length >= 2 && !progression[length-1].IsResolution() {
		final := music.ChordI
		if ctx.SectionType == SectionDevelopment {
			final = music.ChordVI
		}
		progression[length-2] = music.ChordV
		progression[length-1] = final
	}
	return progression
}

func (g *Generator) nextChord(current music.ChordSymbol, ctx *musical.Context, rng *rand.Rand) music.ChordSymbol {
	row, ok := g.rules[current]
	if !ok {
		return music.ChordI
	}

	targets := make([]music.ChordSymbol, 0, len(row))
	weights := make([]float64, 0, len(row))
	for _, to := range music.ChordSymbols {
		p, ok := row[to]
		if !ok {
			continue
		}
		switch {
		case ctx.Tension() > highTension && (to == music.ChordV || to == music.ChordVII):
			p *= dominantBoost
		case ctx.Tension() < lowTension && to.IsResolution():
			p *= resolutionBoost
		}
		targets = append(targets, to)
		weights = append(weights, p)
	}
	sampling.Normalize(weights)

	idx, ok := sampling.Weighted(weights, rng)
	if !ok {
		return music.ChordI
	}
	return targets[idx]
}

// RealizeChord voices a symbol in the context's key: root octave-normalized
// into [36,48], random inversion weighted toward root position. Unknown
// symbols are realized as the tonic.
func (g *Generator) RealizeChord(symbol music.ChordSymbol, ctx *musical.Context, rng *rand.Rand) music.Chord {
	if !symbol.Valid() {
		symbol = music.ChordI
	}

	root := ctx.Key.Tonic + music.Pitch(symbol.Degree())
	for root < music.ChordRootLow {
		root += 12
	}
	for root > music.ChordRootHigh {
		root -= 12
	}
	pitches := music.Triad(root, symbol.Quality())

	inversion := sampling.Choice(inversionChoices, rng)
	if inversion > 0 {
		voiced := make([]music.Pitch, 0, len(pitches))
		voiced = append(voiced, pitches[inversion:]...)
		for _, p := range pitches[:inversion] {
			voiced = append(voiced, p+12)
		}
		pitches = voiced
	}

	return music.Chord{
		Symbol:   symbol,
		Pitches:  pitches,
		Duration: ctx.HarmonicRhythm,
	}
}

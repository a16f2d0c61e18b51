package accompaniment

import (
	"math/rand/v2"

	"github.com/Conceptual-Machines/composer-api/internal/agents/core/musical"
	"github.com/Conceptual-Machines/composer-api/internal/music"
	"github.com/Conceptual-Machines/composer-api/internal/score"
)

// Style is a stylized left-hand realization of a chord sequence
type Style string

const (
	StyleAlberti   Style = "alberti"
	StyleSustained Style = "sustained"
	StyleTremolo   Style = "tremolo"
	StyleStandard  Style = "standard"
)

// ForCharacter dispatches a section character to its accompaniment style
func ForCharacter(ch musical.Character) Style {
	switch ch {
	case musical.CharacterEnergetic:
		return StyleAlberti
	case musical.CharacterLyrical:
		return StyleSustained
	case musical.CharacterIntense:
		return StyleTremolo
	}
	return StyleStandard
}

// Realizer voices a chord symbol in the current context
type Realizer interface {
	RealizeChord(symbol music.ChordSymbol, ctx *musical.Context, rng *rand.Rand) music.Chord
}

// figure is one note of a broken-chord template: which chord tone, for how long
type figure struct {
	tone     int
	duration music.Duration
}

// Templates for the broken-chord styles. Tone indexes refer to the voiced
// chord from the bottom; every template spans one beat except tremolo.
var (
	albertiFigure = []figure{
		{0, music.Sixteenth}, {1, music.Sixteenth}, {2, music.Sixteenth}, {1, music.Sixteenth},
	}
	tremoloAlternations = 8
)

type renderer func(symbols []music.ChordSymbol, voice func(music.ChordSymbol) music.Chord) []score.Element

var renderers = map[Style]renderer{
	StyleAlberti:   renderAlberti,
	StyleSustained: renderSustained,
	StyleTremolo:   renderTremolo,
	StyleStandard:  renderStandard,
}

// Render realizes one measure's worth of chord symbols (one per beat) in the
// given style. Unknown styles fall back to the standard pattern.
func Render(style Style, symbols []music.ChordSymbol, r Realizer, ctx *musical.Context, rng *rand.Rand) []score.Element {
	render, ok := renderers[style]
	if !ok {
		render = renderStandard
	}
	voice := func(sym music.ChordSymbol) music.Chord {
		return r.RealizeChord(sym, ctx, rng)
	}
	return render(symbols, voice)
}

// renderAlberti breaks each chord root-third-fifth-third in sixteenths
func renderAlberti(symbols []music.ChordSymbol, voice func(music.ChordSymbol) music.Chord) []score.Element {
	out := make([]score.Element, 0, len(symbols)*len(albertiFigure))
	for _, sym := range symbols {
		chord := voice(sym)
		for _, f := range albertiFigure {
			out = append(out, score.NotePitch(toneAt(chord, f.tone), f.duration))
		}
	}
	return out
}

// renderSustained holds each chord for a beat, tying repeated symbols into one longer chord
func renderSustained(symbols []music.ChordSymbol, voice func(music.ChordSymbol) music.Chord) []score.Element {
	var out []score.Element
	for i, sym := range symbols {
		if i > 0 && sym == symbols[i-1] && len(out) > 0 {
			last := &out[len(out)-1]
			last.Duration = last.Duration.Add(music.Quarter)
			continue
		}
		chord := voice(sym)
		chord.Duration = music.Quarter
		out = append(out, score.Chord(chord))
	}
	return out
}

// renderTremolo alternates the bass and the top of the triad in 32nds
func renderTremolo(symbols []music.ChordSymbol, voice func(music.ChordSymbol) music.Chord) []score.Element {
	out := make([]score.Element, 0, len(symbols)*tremoloAlternations*2)
	for _, sym := range symbols {
		chord := voice(sym)
		low, high := toneAt(chord, 0), toneAt(chord, 2)
		for i := 0; i < tremoloAlternations; i++ {
			out = append(out,
				score.NotePitch(low, music.ThirtySecond),
				score.NotePitch(high, music.ThirtySecond),
			)
		}
	}
	return out
}

// renderStandard plays the bass note then the upper voices, an eighth each
func renderStandard(symbols []music.ChordSymbol, voice func(music.ChordSymbol) music.Chord) []score.Element {
	out := make([]score.Element, 0, len(symbols)*2)
	for _, sym := range symbols {
		chord := voice(sym)
		out = append(out, score.NotePitch(toneAt(chord, 0), music.Eighth))
		if len(chord.Pitches) > 1 {
			out = append(out, score.Chord(music.Chord{
				Symbol:   chord.Symbol,
				Pitches:  chord.Pitches[1:],
				Duration: music.Eighth,
			}))
		} else {
			out = append(out, score.Rest(music.Eighth))
		}
	}
	return out
}

func toneAt(c music.Chord, i int) music.Pitch {
	if len(c.Pitches) == 0 {
		return music.ChordRootLow
	}
	return c.Pitches[min(i, len(c.Pitches)-1)]
}

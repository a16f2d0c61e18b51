package musical

import (
	"math/rand/v2"

	"github.com/Conceptual-Machines/composer-api/internal/music"
)

// Character is the expressive label a section plan carries
type Character string

const (
	CharacterEnergetic   Character = "energetic"
	CharacterLyrical     Character = "lyrical"
	CharacterIntense     Character = "intense"
	CharacterModulatory  Character = "modulatory"
	CharacterConclusive  Character = "conclusive"
	CharacterUnstable    Character = "unstable"
	CharacterProgressive Character = "progressive"
	CharacterPreparatory Character = "preparatory"
	CharacterStable      Character = "stable"
	CharacterFinal       Character = "final"
)

// Settings are the context values a character implies
type Settings struct {
	Tension        float64        `json:"tension"`
	Dynamic        music.Dynamic  `json:"dynamic"`
	HarmonicRhythm music.Duration `json:"harmonic_rhythm"`
}

var defaultSettings = Settings{Tension: 0.5, Dynamic: music.DynamicMF, HarmonicRhythm: music.Quarter}

var characterSettings = map[Character]Settings{
	CharacterEnergetic:  {Tension: 0.7, Dynamic: music.DynamicF, HarmonicRhythm: music.Quarter},
	CharacterLyrical:    {Tension: 0.3, Dynamic: music.DynamicP, HarmonicRhythm: music.Half},
	CharacterIntense:    {Tension: 0.9, Dynamic: music.DynamicFF, HarmonicRhythm: music.Eighth},
	CharacterModulatory: {Tension: 0.6, Dynamic: music.DynamicMF, HarmonicRhythm: music.Quarter},
	CharacterConclusive: {Tension: 0.2, Dynamic: music.DynamicF, HarmonicRhythm: music.Half},
	CharacterUnstable:   {Tension: 0.8, Dynamic: music.DynamicMF, HarmonicRhythm: music.Eighth},
}

var dynamicPalettes = map[Character][]music.Dynamic{
	CharacterEnergetic:  {music.DynamicF, music.DynamicMF, music.DynamicF, music.DynamicFF},
	CharacterLyrical:    {music.DynamicP, music.DynamicMP, music.DynamicP, music.DynamicPP},
	CharacterIntense:    {music.DynamicFF, music.DynamicF, music.DynamicFF, music.DynamicFFF},
	CharacterModulatory: {music.DynamicMF, music.DynamicMP, music.DynamicMF, music.DynamicF},
	CharacterConclusive: {music.DynamicF, music.DynamicMF, music.DynamicF, music.DynamicFF},
	CharacterUnstable:   {music.DynamicMP, music.DynamicMF, music.DynamicF, music.DynamicMF},
}

// SettingsFor returns the tension, dynamic and harmonic rhythm of ch.
// Unlisted characters get the neutral defaults.
func SettingsFor(ch Character) Settings {
	if s, ok := characterSettings[ch]; ok {
		return s
	}
	return defaultSettings
}

// Palette returns the dynamic marks a section of this character draws from
func Palette(ch Character) []music.Dynamic {
	if p, ok := dynamicPalettes[ch]; ok {
		return p
	}
	return []music.Dynamic{music.DynamicMF}
}

// PickDynamic draws one mark from ch's palette
func PickDynamic(ch Character, rng *rand.Rand) music.Dynamic {
	p := Palette(ch)
	return p[rng.IntN(len(p))]
}

// UsesMotifs reports whether sections of this character develop the seed motif
func (ch Character) UsesMotifs() bool {
	return ch == CharacterEnergetic || ch == CharacterIntense
}

package markov

import "github.com/Conceptual-Machines/composer-api/internal/music"

// DefaultPitchPatterns are the hand-authored phrases every model starts from:
// scale runs both ways, a tonic arpeggio, the fate motto and a rising figure
var DefaultPitchPatterns = [][]music.Pitch{
	{60, 62, 64, 65, 67, 69, 71, 72},
	{72, 71, 69, 67, 65, 64, 62, 60},
	{60, 64, 67, 72, 67, 64, 60},
	{60, 60, 60, 56, 57, 57, 57, 53},
	{60, 62, 64, 60, 64, 65, 67},
}

// DefaultRhythmPatterns are the hand-authored rhythmic cells
var DefaultRhythmPatterns = [][]music.Duration{
	{music.Quarter, music.Quarter, music.Quarter, music.Quarter},
	{music.Half, music.Quarter, music.Quarter},
	{music.Quarter, music.Eighth, music.Eighth, music.Quarter, music.Quarter},
	{music.Eighth, music.Eighth, music.Eighth, music.Eighth, music.Half},
	{music.DottedHalf, music.Quarter},
}

// TrainDefaults feeds the default patterns into m
func (m *Model) TrainDefaults() {
	for _, p := range DefaultPitchPatterns {
		m.TrainPitch(p)
	}
	for _, r := range DefaultRhythmPatterns {
		m.TrainRhythm(r)
	}
}

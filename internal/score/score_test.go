package score

import (
	"bytes"
	"strings"
	"testing"

	"github.com/Conceptual-Machines/composer-api/internal/music"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleScore() *Score {
	s := New(Metadata{Title: "Test Piece", Composer: "composer-api", Form: "sonata", Seed: 7}, 120)
	melody := Part{ID: "P1", Name: "Melody", Clef: ClefTreble, Measures: []Measure{
		{
			Number: 1, Tempo: 120, TempoText: "Allegro con brio", Beats: 4, BeatType: 4,
			Key: &KeySig{Fifths: 0, Mode: "major"},
			Elements: []Element{
				DynamicMark(music.DynamicF),
				NotePitch(60, music.Quarter),
				NotePitch(62, music.Quarter),
				NotePitch(64, music.Half),
			},
		},
		{
			Number: 2, Ritardando: true,
			Elements: []Element{
				Rest(music.Quarter),
				NotePitch(67, music.DottedHalf),
			},
		},
	}}
	melody.Measures[1].Elements[1].Fermata = true

	bass := Part{ID: "P2", Name: "Accompaniment", Clef: ClefBass, Measures: []Measure{
		{Number: 1, Elements: []Element{Chord(music.Chord{Symbol: music.ChordI, Pitches: []music.Pitch{48, 52, 55}, Duration: music.Whole})}},
		{Number: 2, Elements: []Element{Chord(music.Chord{Symbol: music.ChordV, Pitches: []music.Pitch{43, 47, 50}, Duration: music.Whole})}},
	}}
	s.Parts = []Part{melody, bass}
	return s
}

func TestFit(t *testing.T) {
	measure := music.Quarters(4)
	tests := []struct {
		name     string
		in       []Element
		expected []Element
	}{
		{
			name:     "pads short runs with a rest",
			in:       []Element{NotePitch(60, music.Half)},
			expected: []Element{NotePitch(60, music.Half), Rest(music.Half)},
		},
		{
			name:     "shortens the crossing note and drops the rest",
			in:       []Element{NotePitch(60, music.DottedHalf), NotePitch(62, music.Half), NotePitch(64, music.Quarter)},
			expected: []Element{NotePitch(60, music.DottedHalf), NotePitch(62, music.Quarter)},
		},
		{
			name:     "keeps dynamics inside the bar",
			in:       []Element{DynamicMark(music.DynamicP), NotePitch(60, music.Whole), DynamicMark(music.DynamicF)},
			expected: []Element{DynamicMark(music.DynamicP), NotePitch(60, music.Whole)},
		},
		{
			name:     "empty input becomes a whole-bar rest",
			in:       nil,
			expected: []Element{Rest(music.Whole)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Fit(tt.in, measure)
			assert.Equal(t, tt.expected, got)
			assert.Equal(t, measure, Measure{Elements: got}.Length())
		})
	}
}

func TestMIDIRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteMIDI(sampleScore(), &buf))

	back, err := ReadMIDI(&buf)
	require.NoError(t, err)
	assert.Equal(t, 120, back.Tempo)
	assert.Equal(t, 4, back.Beats)
	assert.Equal(t, "Test Piece", back.Metadata.Title)
	require.Len(t, back.Parts, 2)

	melody := back.Parts[0]
	assert.Equal(t, "Melody", melody.Name)
	require.Len(t, melody.Measures, 2)

	var pitches []music.Pitch
	for _, m := range melody.Measures {
		for _, e := range m.Elements {
			if e.Kind == KindNote {
				pitches = append(pitches, e.Pitches...)
			}
		}
	}
	assert.Equal(t, []music.Pitch{60, 62, 64, 67}, pitches)
	assert.Equal(t, music.DynamicF, melody.Measures[0].Elements[0].Dynamic)

	accompaniment := back.Parts[1]
	assert.Equal(t, ClefBass, accompaniment.Clef)
	chord := accompaniment.Measures[0].Elements[1]
	assert.Equal(t, KindChord, chord.Kind)
	assert.Equal(t, []music.Pitch{48, 52, 55}, chord.Pitches)
	assert.Equal(t, music.Whole, chord.Duration)
}

func TestWriteMusicXML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteMusicXML(sampleScore(), &buf))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "<?xml"))
	assert.Contains(t, out, `<score-partwise version="3.1">`)
	assert.Contains(t, out, "<work-title>Test Piece</work-title>")
	assert.Contains(t, out, "<divisions>480</divisions>")
	assert.Contains(t, out, "<words>Allegro con brio</words>")
	assert.Contains(t, out, `<sound tempo="120"></sound>`)
	assert.Contains(t, out, "<f></f>")
	assert.Contains(t, out, "<fermata></fermata>")
	assert.Contains(t, out, "<words>rit.</words>")
	assert.Contains(t, out, "<sign>F</sign>")
	assert.Contains(t, out, "<chord></chord>")
	assert.Equal(t, 2, strings.Count(out, "<score-part "))
}

func TestJSONRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	original := sampleScore()
	require.NoError(t, WriteJSON(original, &buf))
	assert.Contains(t, buf.String(), `"duration": "3"`)

	back, err := ReadJSON(&buf)
	require.NoError(t, err)
	assert.Equal(t, original, back)
}

func TestParseFormat(t *testing.T) {
	assert.Equal(t, FormatMIDI, ParseFormat(".mid"))
	assert.Equal(t, FormatMusicXML, ParseFormat("musicxml"))
	assert.Equal(t, FormatJSON, ParseFormat("anything"))
	assert.Equal(t, "audio/midi", FormatMIDI.ContentType())
}

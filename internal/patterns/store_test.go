package patterns

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	apperrors "github.com/Conceptual-Machines/composer-api/internal/errors"
	"github.com/Conceptual-Machines/composer-api/internal/music"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const legacyFile = `{
  "melodic_intervals": {"2": 40, "-1": 12, "(2, 2)": 30, "(-1, -2)": 12, "(x, 1)": 3},
  "harmonic_progressions": {"V->I": 30, "V->vi": 10, "G->C": 10, "Unknown->C": 4, "IV": 1},
  "rhythm_patterns": {"(1.0, 0.5, 0.5, 1.0)": 8, "(Fraction(1, 3), 1.0)": 2},
  "note_durations": {"0.5": 21.0},
  "dynamics": {},
  "key_signatures": {},
  "time_signatures": {"4/4": 2},
  "motifs": [[{"pitch": "C4", "duration": 0.5}, {"pitch": "E4", "duration": 0.5}, {"pitch": "G4", "duration": 1.0}]],
  "phrase_structures": [],
  "sections": {"exposition": 0.3}
}`

func TestDecode_LegacyFile(t *testing.T) {
	s, err := Decode([]byte(legacyFile), "legacy")
	require.NoError(t, err)
	assert.Equal(t, 0, s.Skipped)
	assert.Equal(t, 21, s.Histograms[CategoryNoteDurations]["0.5"])
	require.Len(t, s.Motifs, 1)
	assert.Contains(t, s.Extra, "sections")

	m := s.Motifs[0].Resolve()
	assert.Equal(t, []int{0, 4, 3}, m.Intervals)
	assert.Equal(t, []music.Duration{music.Eighth, music.Eighth, music.Quarter}, m.Rhythm)
}

func TestRoundTrip_KeepsEveryCategory(t *testing.T) {
	s, err := Decode([]byte(legacyFile), "legacy")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "nested", "patterns.json")
	require.NoError(t, s.Save(path))

	back, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, s.Histograms, back.Histograms)
	assert.Equal(t, len(s.Motifs), len(back.Motifs))
	assert.Equal(t, s.Motifs[0].Resolve().Intervals, back.Motifs[0].Resolve().Intervals)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var generic map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &generic))
	for _, c := range append(HistogramCategories, CategoryMotifs, CategoryPhraseStructures, "sections") {
		assert.Contains(t, generic, c)
	}
	assert.JSONEq(t, `{}`, string(generic[CategoryDynamics]))
	assert.JSONEq(t, `[]`, string(generic[CategoryPhraseStructures]))
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
	assert.True(t, apperrors.IsResourceError(err))
	assert.True(t, IsNotFound(err))
}

func TestDecode_MalformedCategory(t *testing.T) {
	s, err := Decode([]byte(`{"melodic_intervals": [1, 2], "motifs": [{"intervals": [1]}, 7]}`), "bad")
	require.NoError(t, err)
	assert.Equal(t, 2, s.Skipped)
	assert.Empty(t, s.Histograms[CategoryMelodicIntervals])
	assert.Len(t, s.Motifs, 1)

	_, err = Decode([]byte(`not json`), "bad")
	assert.True(t, apperrors.IsResourceError(err))
}

func TestIntervalPatterns(t *testing.T) {
	s, _ := Decode([]byte(legacyFile), "legacy")
	got, skipped := s.IntervalPatterns()
	assert.Equal(t, 1, skipped)
	assert.Equal(t, []IntervalPattern{
		{First: -1, Second: -2, Count: 12},
		{First: 2, Second: 2, Count: 30},
	}, got)
	assert.Equal(t, []music.Pitch{60, 62, 64}, got[1].Pitches())
}

func TestRhythmPatterns(t *testing.T) {
	s, _ := Decode([]byte(legacyFile), "legacy")
	got, skipped := s.RhythmPatterns()
	assert.Equal(t, 1, skipped)
	require.Len(t, got, 1)
	assert.Equal(t, []music.Duration{music.Quarter, music.Eighth, music.Eighth, music.Quarter}, got[0].Durations)
}

func TestChordTransitions(t *testing.T) {
	s, _ := Decode([]byte(legacyFile), "legacy")
	got, skipped := s.ChordTransitions()
	assert.Equal(t, 2, skipped)
	require.Contains(t, got, music.ChordV)
	// "G->C" reads as V->I in C
	assert.InDelta(t, 0.8, got[music.ChordV][music.ChordI], 1e-9)
	assert.InDelta(t, 0.2, got[music.ChordV][music.ChordVI], 1e-9)
}

func TestAverageTransitions(t *testing.T) {
	a := ChordTransitions{music.ChordV: {music.ChordI: 1}}
	b := ChordTransitions{music.ChordV: {music.ChordI: 0.5, music.ChordVI: 0.5}, music.ChordIV: {music.ChordV: 1}}
	avg := AverageTransitions(a, b)
	assert.InDelta(t, 0.75, avg[music.ChordV][music.ChordI], 1e-9)
	assert.InDelta(t, 0.25, avg[music.ChordV][music.ChordVI], 1e-9)
	assert.InDelta(t, 0.5, avg[music.ChordIV][music.ChordV], 1e-9)
	assert.Empty(t, AverageTransitions())
}

func TestMergeAndTopN(t *testing.T) {
	a := NewStore()
	a.Histogram(CategoryMelodicIntervals).Add("2", 3)
	a.AddMotif(MotifDescriptor{Intervals: []int{0, 2}, Rhythm: []music.Duration{music.Quarter, music.Quarter}})

	b := NewStore()
	b.Histogram(CategoryMelodicIntervals).Add("2", 2)
	b.Histogram(CategoryMelodicIntervals).Add("-2", 5)
	b.AddMotif(MotifDescriptor{Intervals: []int{0, 2}, Rhythm: []music.Duration{music.Quarter, music.Quarter}})

	a.Merge(b)
	assert.Equal(t, []Entry{{Key: "-2", Count: 5}, {Key: "2", Count: 5}}, a.TopN(CategoryMelodicIntervals, 5))
	require.Len(t, a.Motifs, 1)
	assert.Equal(t, 2, a.Motifs[0].Count)
	assert.Equal(t, 3, a.Count())
	assert.Nil(t, a.TopN("unknown", 3))
}

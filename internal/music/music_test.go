package music

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoteNameToMIDI(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Pitch
		wantErr  bool
	}{
		{name: "middle C", input: "C4", expected: 60},
		{name: "sharp", input: "F#3", expected: 54},
		{name: "flat", input: "Bb2", expected: 46},
		{name: "lower case", input: "e1", expected: 28},
		{name: "negative octave", input: "C-1", expected: 0},
		{name: "clamped high", input: "G10", expected: 127},
		{name: "missing octave", input: "C", wantErr: true},
		{name: "bad letter", input: "H4", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NoteNameToMIDI(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestPitchName(t *testing.T) {
	assert.Equal(t, "C4", Pitch(60).Name())
	assert.Equal(t, "A#3", Pitch(58).Name())
	assert.Equal(t, 11, Pitch(-1).Class())
}

func TestClampToRange(t *testing.T) {
	assert.Equal(t, Pitch(84), ClampMelody(84))
	assert.Equal(t, Pitch(73), ClampMelody(85))
	assert.Equal(t, Pitch(48), ClampMelody(36))
	assert.Equal(t, Pitch(50), ClampMelody(14))
	assert.Equal(t, Pitch(79), ClampMelody(103))

	// narrow window clamps instead of looping
	assert.Equal(t, Pitch(64), ClampToRange(70, 60, 64))
}

func TestClampToRange_FarOutside(t *testing.T) {
	tests := []struct {
		name string
		in   Pitch
		want Pitch
	}{
		{"far above", 60 + 1_000_000_000_000_000_000, 76},
		{"far below", 60 - 1_000_000_000_000_000_000, 56},
		{"one octave above", 96, 84},
		{"one octave below", 36, 48},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClampMelody(tt.in)
			assert.Equal(t, tt.want, got)
			assert.True(t, got.InRange(MelodyLow, MelodyHigh))
			assert.Equal(t, tt.in.Class(), got.Class())
		})
	}
}

func TestDuration_Arithmetic(t *testing.T) {
	half := NewDuration(2, 4)
	assert.Equal(t, Eighth, half)
	assert.Equal(t, "1/2", half.String())
	assert.Equal(t, Quarter, half.Add(half))
	assert.Equal(t, NewDuration(3, 2), Quarter.Add(Eighth))
	assert.Equal(t, Eighth, Quarter.Div(Quarters(2)))
	assert.Equal(t, Quarter, Eighth.Scale(2))
	assert.Equal(t, Duration{}, Quarter.Div(Duration{}))
	assert.True(t, Eighth.Less(Quarter))
	assert.Equal(t, int64(240), Eighth.Ticks(480))
	assert.Equal(t, 0.75, DottedEighth.Float64())
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		input    string
		expected Duration
	}{
		{"1/2", Eighth},
		{"0.25", Sixteenth},
		{"2", Half},
		{"1.5", DottedQtr},
		{"6/4", DottedQtr},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseDuration(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}

	_, err := ParseDuration("quarter")
	assert.Error(t, err)
}

func TestDuration_JSON(t *testing.T) {
	var ds []Duration
	require.NoError(t, json.Unmarshal([]byte(`[0.5, "3/2", 1]`), &ds))
	assert.Equal(t, []Duration{Eighth, DottedQtr, Quarter}, ds)

	out, err := json.Marshal(ds)
	require.NoError(t, err)
	assert.JSONEq(t, `["1/2","3/2","1"]`, string(out))
}

func TestDurationFromFloat_SnapsRepeatingValues(t *testing.T) {
	assert.Equal(t, NewDuration(1, 3), DurationFromFloat(1.0/3.0))
	assert.Equal(t, Sixteenth, DurationFromFloat(0.25))
}

func TestParseKey(t *testing.T) {
	tests := []struct {
		input  string
		tonic  Pitch
		mode   Mode
		sharps int
	}{
		{"C", 60, Major, 0},
		{"C major", 60, Major, 0},
		{"a minor", 69, Minor, 0},
		{"a", 69, Minor, 0},
		{"F# minor", 66, Minor, 3},
		{"Bb", 70, Major, -2},
		{"Eb major", 63, Major, -3},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			k, err := ParseKey(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.tonic, k.Tonic)
			assert.Equal(t, tt.mode, k.Mode)
			assert.Equal(t, tt.sharps, k.Sharps())
		})
	}

	_, err := ParseKey("H major")
	assert.Error(t, err)
	_, err = ParseKey("C dorian")
	assert.Error(t, err)
}

func TestKey_InScale(t *testing.T) {
	assert.True(t, CMajor.InScale(64))
	assert.False(t, CMajor.InScale(61))

	aMinor := CMajor.Relative()
	assert.Equal(t, "A minor", aMinor.String())
	assert.True(t, aMinor.InScale(67))
	assert.Equal(t, "G major", CMajor.Transpose(7).String())
	assert.Equal(t, "C minor", CMajor.Parallel().String())
}

func TestParseChordSymbol(t *testing.T) {
	for _, s := range []string{"vii°", "viio", "vii0"} {
		sym, ok := ParseChordSymbol(s)
		assert.True(t, ok, s)
		assert.Equal(t, ChordVII, sym)
	}

	_, ok := ParseChordSymbol("bVII")
	assert.False(t, ok)
	assert.Equal(t, ChordI, SymbolOrTonic("N6"))
	assert.Equal(t, 7, ChordV.Degree())
	assert.Equal(t, QualityDiminished, ChordVII.Quality())
}

func TestIdentifyTriad(t *testing.T) {
	root, quality, ok := IdentifyTriad([]Pitch{55, 59, 62, 67})
	require.True(t, ok)
	assert.Equal(t, 7, root)
	assert.Equal(t, QualityMajor, quality)
	assert.Equal(t, "G", ChordName(root, quality))

	sym, ok := SymbolFor(CMajor, root, quality)
	require.True(t, ok)
	assert.Equal(t, ChordV, sym)

	_, _, ok = IdentifyTriad([]Pitch{60, 64})
	assert.False(t, ok)
}

func TestDynamicVelocity(t *testing.T) {
	assert.Equal(t, uint8(96), DynamicF.Velocity())
	assert.Equal(t, DynamicFF, DynamicForVelocity(110))
	assert.Equal(t, uint8(80), Dynamic("sfz").Velocity())

	_, err := ParseDynamic("sfz")
	assert.Error(t, err)
}

package motif

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/Conceptual-Machines/composer-api/internal/agents/core/musical"
	apperrors "github.com/Conceptual-Machines/composer-api/internal/errors"
	"github.com/Conceptual-Machines/composer-api/internal/music"
	"github.com/Conceptual-Machines/composer-api/internal/patterns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fate(t *testing.T) Cell {
	t.Helper()
	c, ok := SeedByName("fate")
	require.True(t, ok)
	return c
}

func TestParseTechnique(t *testing.T) {
	for _, tech := range Techniques() {
		parsed, err := ParseTechnique(tech.String())
		require.NoError(t, err)
		assert.Equal(t, tech, parsed)
	}

	parsed, err := ParseTechnique("  Retrograde ")
	require.NoError(t, err)
	assert.Equal(t, Retrograde, parsed)

	_, err = ParseTechnique("stretto")
	assert.True(t, errors.Is(err, apperrors.ErrUnknownTechnique))
}

func TestDevelop_UnknownTechnique(t *testing.T) {
	tr := NewTransformer(rand.New(rand.NewPCG(1, 1)))
	_, err := tr.Develop(fate(t), Technique(42))
	assert.ErrorIs(t, err, apperrors.ErrUnknownTechnique)
}

func TestInvert_Involution(t *testing.T) {
	tr := NewTransformer(rand.New(rand.NewPCG(1, 2)))
	for _, seed := range Seeds() {
		once, err := tr.Develop(seed, Invert)
		require.NoError(t, err)
		twice, err := tr.Develop(once, Invert)
		require.NoError(t, err)

		assert.Equal(t, seed.Intervals, twice.Intervals, seed.Name)
		assert.Equal(t, seed.Rhythm, twice.Rhythm, seed.Name)
		assert.Equal(t, seed.Contour, twice.Contour, seed.Name)
		assert.InDelta(t, seed.Importance*0.85*0.85, twice.Importance, 1e-9)
	}

	inv, _ := tr.Develop(fate(t), Invert)
	assert.Equal(t, []int{0, 0, 0, 4}, inv.Intervals)
	assert.Equal(t, ContourAscending, inv.Contour)
}

func TestInvert_UnknownContourBecomesMixed(t *testing.T) {
	tr := NewTransformer(rand.New(rand.NewPCG(1, 2)))
	c := fate(t)
	c.Contour = ContourFragment
	inv, err := tr.Develop(c, Invert)
	require.NoError(t, err)
	assert.Equal(t, ContourMixed, inv.Contour)
}

func TestRetrograde_Involution(t *testing.T) {
	tr := NewTransformer(rand.New(rand.NewPCG(3, 2)))
	for _, seed := range Seeds() {
		once, _ := tr.Develop(seed, Retrograde)
		twice, _ := tr.Develop(once, Retrograde)
		assert.Equal(t, seed.Intervals, twice.Intervals)
		assert.Equal(t, seed.Rhythm, twice.Rhythm)
		assert.Equal(t, ContourMixed, once.Contour)
	}
}

func TestAugmentDiminish_Exact(t *testing.T) {
	tr := NewTransformer(rand.New(rand.NewPCG(4, 2)))
	for _, seed := range Seeds() {
		aug, _ := tr.Develop(seed, Augment)
		assert.Equal(t, seed.TotalDuration().Scale(2), aug.TotalDuration())

		back, _ := tr.Develop(aug, Diminish)
		assert.Equal(t, seed.Rhythm, back.Rhythm)
		assert.Equal(t, seed.Intervals, back.Intervals)
		assert.InDelta(t, seed.Importance*0.9*0.9, back.Importance, 1e-9)
	}
}

func TestDevelop_DoesNotMutateInput(t *testing.T) {
	tr := NewTransformer(rand.New(rand.NewPCG(5, 2)))
	original := fate(t)
	snapshot := original.clone()
	for _, tech := range Techniques() {
		_, err := tr.Develop(original, tech)
		require.NoError(t, err)
	}
	assert.Equal(t, snapshot, original)
}

func TestFragment(t *testing.T) {
	tr := NewTransformer(rand.New(rand.NewPCG(6, 2)))

	joy, _ := SeedByName("joy")
	for i := 0; i < 20; i++ {
		frag, _ := tr.Develop(joy, Fragment)
		assert.Contains(t, []int{3, 4}, len(frag.Intervals))
		assert.Len(t, frag.Rhythm, len(frag.Intervals))
		assert.Equal(t, ContourFragment, frag.Contour)
		assert.InDelta(t, 0.9*0.7, frag.Importance, 1e-9)
	}

	short := Cell{Intervals: []int{2, -2}, Rhythm: []music.Duration{music.Quarter, music.Quarter}, Contour: ContourArch, Importance: 0.5}
	same, _ := tr.Develop(short, Fragment)
	assert.Equal(t, short, same)
}

func TestSequence(t *testing.T) {
	tr := NewTransformer(rand.New(rand.NewPCG(7, 2)))
	seed := fate(t)
	for i := 0; i < 20; i++ {
		seq, _ := tr.Develop(seed, Sequence)
		reps := len(seq.Intervals) / len(seed.Intervals)
		assert.Contains(t, []int{2, 3}, reps)
		assert.Len(t, seq.Rhythm, len(seq.Intervals))
		assert.Len(t, seq.Transpositions, len(seq.Intervals))
		assert.Equal(t, ContourSequence, seq.Contour)
		assert.Equal(t, seed.Importance, seq.Importance)
	}
}

func TestSequence_RestatesAtOffset(t *testing.T) {
	tr := NewTransformer(rand.New(rand.NewPCG(8, 2)))
	joy, _ := SeedByName("joy")
	joy.Intervals = []int{2, 2}
	joy.Rhythm = joy.Rhythm[:2]

	seq, _ := tr.Develop(joy, Sequence)
	ctx := musical.New(music.CMajor)
	ctx.PushPitch(60)
	notes := Realize(seq, ctx)
	require.Len(t, notes, len(seq.Intervals))

	// every restatement keeps the shape of the first
	for r := 1; r < len(notes)/2; r++ {
		assert.Equal(t, notes[1].Pitch-notes[0].Pitch, notes[2*r+1].Pitch-notes[2*r].Pitch)
	}
}

func TestTranspose_MovesStart(t *testing.T) {
	tr := NewTransformer(rand.New(rand.NewPCG(9, 2)))
	seed := fate(t)
	moved, _ := tr.Develop(seed, Transpose)
	assert.Equal(t, seed.Intervals, moved.Intervals)
	assert.Contains(t, transpositionChoices, moved.Offset)

	ctx := musical.New(music.CMajor)
	ctx.PushPitch(64)
	notes := Realize(moved, ctx)
	assert.Equal(t, music.ClampMelody(music.Pitch(64+moved.Offset)), notes[0].Pitch)
}

func TestRealize_StaysInRange(t *testing.T) {
	tr := NewTransformer(rand.New(rand.NewPCG(10, 2)))
	ctx := musical.New(music.CMajor)
	cell := CreatePrimary(rand.New(rand.NewPCG(10, 3)))

	for i := 0; i < 200; i++ {
		cell, _ = tr.DevelopRandom(cell)
		if cell.Len() == 0 {
			break
		}
		for _, n := range Realize(cell, ctx) {
			assert.True(t, n.Pitch.InRange(music.MelodyLow, music.MelodyHigh), "pitch %d", n.Pitch)
			assert.True(t, n.Duration.IsPositive())
		}
		if len(cell.Intervals) > 64 {
			cell = CreatePrimary(rand.New(rand.NewPCG(uint64(i), 3)))
		}
	}
}

func TestRealize_EmptyHistoryStartsAtMiddleC(t *testing.T) {
	ctx := musical.New(music.CMajor)
	notes := Realize(fate(t), ctx)
	require.Len(t, notes, 4)
	assert.Equal(t, music.Pitch(60), notes[0].Pitch)
	assert.Equal(t, music.Pitch(56), notes[3].Pitch)

	last, ok := ctx.LastPitch()
	require.True(t, ok)
	assert.Equal(t, music.Pitch(56), last)
}

func TestFromDescriptor(t *testing.T) {
	c, ok := FromDescriptor(patterns.MotifDescriptor{
		Name:      "learned",
		Intervals: []int{2, -1, 3},
		Rhythm:    []music.Duration{music.Quarter},
	})
	require.True(t, ok)
	assert.Equal(t, []music.Duration{music.Quarter, music.Eighth, music.Eighth}, c.Rhythm)
	assert.Equal(t, ContourMixed, c.Contour)
	assert.Equal(t, 0.8, c.Importance)

	_, ok = FromDescriptor(patterns.MotifDescriptor{})
	assert.False(t, ok)
}

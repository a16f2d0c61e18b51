package markov

import (
	"math/rand/v2"
	"testing"

	"github.com/Conceptual-Machines/composer-api/internal/agents/core/musical"
	"github.com/Conceptual-Machines/composer-api/internal/music"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRNG() *rand.Rand {
	return rand.New(rand.NewPCG(42, 1))
}

func TestTrainPitch_ScaleStateHasSingleSuccessor(t *testing.T) {
	m := New(2)
	m.TrainPitch([]music.Pitch{60, 62, 64, 65, 67, 69, 71, 72})

	assert.Equal(t, map[music.Pitch]int{64: 1}, m.PitchTransitions([]music.Pitch{60, 62}))

	ctx := musical.New(music.CMajor)
	rng := newRNG()
	for i := 0; i < 20; i++ {
		assert.Equal(t, music.Pitch(64), m.NextPitch([]music.Pitch{60, 62}, ctx, rng))
	}
}

func TestTrain_IsAdditive(t *testing.T) {
	m := New(1)
	m.TrainPitch([]music.Pitch{60, 62})
	m.TrainPitch([]music.Pitch{60, 62, 60, 64})

	assert.Equal(t, map[music.Pitch]int{62: 2, 64: 1}, m.PitchTransitions([]music.Pitch{60}))
	assert.Equal(t, 1, m.PitchTransitions([]music.Pitch{62})[60])
}

func TestNextPitch_NoHallucinatedTransitions(t *testing.T) {
	for order := 1; order <= 3; order++ {
		m := New(order)
		m.TrainDefaults()
		ctx := musical.New(music.CMajor)
		rng := newRNG()

		for _, pattern := range DefaultPitchPatterns {
			for i := 0; i+order < len(pattern); i++ {
				state := pattern[i : i+order]
				observed := m.PitchTransitions(state)
				require.NotEmpty(t, observed)

				for trial := 0; trial < 10; trial++ {
					ctx.SetTension(rng.Float64())
					next := m.NextPitch(state, ctx, rng)
					_, ok := observed[next]
					assert.True(t, ok, "order %d state %v produced unseen %d", order, state, next)
				}
			}
		}
	}
}

func TestNextPitch_UnknownStateUsesContext(t *testing.T) {
	m := New(2)
	ctx := musical.New(music.CMajor)
	rng := newRNG()

	for i := 0; i < 50; i++ {
		p := m.NextPitch([]music.Pitch{50, 52}, ctx, rng)
		assert.True(t, music.CMajor.InScale(p))
		assert.True(t, p >= 48 && p <= 59, "pitch %d outside a fifth of 52", p)
	}
}

func TestNextPitch_UnknownStateFollowsTrend(t *testing.T) {
	m := New(2)
	ctx := musical.New(music.CMajor)
	for _, p := range []music.Pitch{60, 62, 65} {
		ctx.PushPitch(p)
	}
	require.Equal(t, musical.TendencyAscending, ctx.PitchTendency())

	rng := newRNG()
	for i := 0; i < 50; i++ {
		assert.GreaterOrEqual(t, m.NextPitch([]music.Pitch{62, 65}, ctx, rng), music.Pitch(65))
	}
}

func TestNextPitch_NoCandidateRepeatsLast(t *testing.T) {
	m := New(1)
	ctx := musical.New(music.CMajor)
	rng := newRNG()

	// 95 is far above the playable range; no neighbour qualifies
	assert.Equal(t, music.Pitch(95), m.NextPitch([]music.Pitch{95}, ctx, rng))
	assert.Equal(t, music.MiddleC, m.NextPitch(nil, ctx, rng))
}

func TestNextPitch_TensionWeighting(t *testing.T) {
	// from 60: C# (chromatic step), D (scale step), F# (chromatic leap), G (scale leap)
	m := New(1)
	for _, next := range []music.Pitch{61, 62, 66, 67} {
		m.TrainPitch([]music.Pitch{60, next})
	}

	tests := []struct {
		name    string
		tension float64
		want    map[music.Pitch]float64
	}{
		{"high tension favors leaps", 0.9, map[music.Pitch]float64{
			61: 1 / 5.5, 62: 1.5 / 5.5, 66: 1.2 / 5.5, 67: 1.8 / 5.5,
		}},
		{"low tension favors steps", 0.1, map[music.Pitch]float64{
			61: 1.3 / 5.75, 62: 1.95 / 5.75, 66: 1 / 5.75, 67: 1.5 / 5.75,
		}},
	}

	const draws = 20000
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := musical.New(music.CMajor)
			ctx.SetTension(tt.tension)
			rng := newRNG()

			counts := map[music.Pitch]int{}
			for range draws {
				counts[m.NextPitch([]music.Pitch{60}, ctx, rng)]++
			}
			require.Len(t, counts, len(tt.want))
			for p, share := range tt.want {
				assert.InDelta(t, share, float64(counts[p])/draws, 0.02, "pitch %d", p)
			}
		})
	}
}

func TestNextRhythm(t *testing.T) {
	m := New(2)
	m.TrainDefaults()
	rng := newRNG()

	state := []music.Duration{music.Half, music.Quarter}
	observed := m.RhythmTransitions(state)
	require.Equal(t, map[music.Duration]int{music.Quarter: 1}, observed)
	assert.Equal(t, music.Quarter, m.NextRhythm(state, rng))

	unknown := []music.Duration{music.Whole, music.Whole}
	for i := 0; i < 20; i++ {
		assert.Contains(t, fallbackRhythms, m.NextRhythm(unknown, rng))
	}
}

func TestGenerateMelody_FillsLengthAndStaysInRange(t *testing.T) {
	m := New(2)
	m.TrainDefaults()
	rng := newRNG()
	ctx := musical.New(music.CMajor)

	for measure := 0; measure < 40; measure++ {
		ctx.SetTension(float64(measure%10) / 10)
		notes := m.GenerateMelody(ctx, music.Quarters(4), rng)
		require.NotEmpty(t, notes)

		var total music.Duration
		for _, n := range notes {
			assert.True(t, n.Pitch >= music.MelodyLow && n.Pitch <= music.MelodyHigh)
			total = total.Add(n.Duration)
		}
		assert.False(t, total.Less(music.Quarters(4)))
	}

	last, ok := ctx.LastPitch()
	require.True(t, ok)
	assert.True(t, last >= music.MelodyLow && last <= music.MelodyHigh)
}

func TestGenerateMelody_SameSeedSameOutput(t *testing.T) {
	m := New(2)
	m.TrainDefaults()

	run := func() []music.Note {
		rng := rand.New(rand.NewPCG(9, 9))
		ctx := musical.New(music.CMajor)
		var out []music.Note
		for i := 0; i < 8; i++ {
			out = append(out, m.GenerateMelody(ctx, music.Quarters(4), rng)...)
		}
		return out
	}

	assert.Equal(t, run(), run())
}

func TestSnapshotRestore(t *testing.T) {
	m := New(2)
	m.TrainDefaults()

	snap := m.Snapshot()
	snap.Pitch["x,y"] = map[string]int{"60": 1}
	snap.Rhythm["1,1"]["bogus"] = 3

	restored, skipped := Restore(snap)
	assert.Equal(t, 2, skipped)
	assert.Equal(t, m.Stats(), restored.Stats())
	assert.Equal(t, m.PitchTransitions([]music.Pitch{60, 62}), restored.PitchTransitions([]music.Pitch{60, 62}))
}

func TestNew_ClampsOrder(t *testing.T) {
	assert.Equal(t, 1, New(0).Order())
}

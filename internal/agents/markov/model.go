package markov

import (
	"math/rand/v2"
	"strconv"

	"github.com/Conceptual-Machines/composer-api/internal/agents/core/musical"
	"github.com/Conceptual-Machines/composer-api/internal/agents/shared/sampling"
	"github.com/Conceptual-Machines/composer-api/internal/music"
)

const (
	inScaleBoost  = 1.5
	leapBoost     = 1.2
	stepBoost     = 1.3
	highTension   = 0.7
	leapThreshold = 4
	stepThreshold = 2

	contextualSpan = 7

	// notes per GenerateMelody call, guards against zero-length rhythms
	maxNotesPerCall = 64
)

// fallbackRhythms are drawn uniformly when a rhythm state was never seen
var fallbackRhythms = []music.Duration{music.Eighth, music.Quarter, music.Quarter, music.Half}

// seedScale provides the opening state when the context has too little history
var seedScale = []music.Pitch{60, 62, 64, 65, 67, 69, 71, 72}

// Model is an order-N Markov model over pitches and rhythms. Training mutates
// it; sampling only reads, so a trained model can be shared by concurrent
// compositions as long as each brings its own context and random source.
type Model struct {
	order  int
	pitch  *chain[music.Pitch]
	rhythm *chain[music.Duration]
}

// Stats summarizes table sizes
type Stats struct {
	Order             int `json:"order"`
	PitchStates       int `json:"pitch_states"`
	PitchTransitions  int `json:"pitch_transitions"`
	RhythmStates      int `json:"rhythm_states"`
	RhythmTransitions int `json:"rhythm_transitions"`
}

// New creates an empty model. Orders below 1 are raised to 1.
func New(order int) *Model {
	if order < 1 {
		order = 1
	}
	return &Model{
		order: order,
		pitch: newChain(order,
			func(p music.Pitch) string { return strconv.Itoa(int(p)) },
			func(s string) (music.Pitch, error) {
				v, err := strconv.Atoi(s)
				return music.Pitch(v), err
			},
			func(a, b music.Pitch) bool { return a < b },
		),
		rhythm: newChain(order,
			music.Duration.String,
			music.ParseDuration,
			music.Duration.Less,
		),
	}
}

func (m *Model) Order() int { return m.order }

// TrainPitch counts every order-N window of seq and its successor
func (m *Model) TrainPitch(seq []music.Pitch) {
	m.pitch.train(seq)
}

// TrainRhythm counts every order-N window of seq and its successor
func (m *Model) TrainRhythm(seq []music.Duration) {
	m.rhythm.train(seq)
}

// PitchTransitions returns a copy of the counts recorded after state
func (m *Model) PitchTransitions(state []music.Pitch) map[music.Pitch]int {
	return m.pitch.copyRow(state)
}

// RhythmTransitions returns a copy of the counts recorded after state
func (m *Model) RhythmTransitions(state []music.Duration) map[music.Duration]int {
	return m.rhythm.copyRow(state)
}

func (m *Model) Stats() Stats {
	return Stats{
		Order:             m.order,
		PitchStates:       len(m.pitch.counts),
		PitchTransitions:  m.pitch.transitionCount(),
		RhythmStates:      len(m.rhythm.counts),
		RhythmTransitions: m.rhythm.transitionCount(),
	}
}

// NextPitch samples the pitch following state. Unknown states fall back to
// a scale-and-trend driven choice near the last pitch; it never fails.
func (m *Model) NextPitch(state []music.Pitch, ctx *musical.Context, rng *rand.Rand) music.Pitch {
	if len(state) == 0 {
		return music.MiddleC
	}
	if ctx == nil {
		ctx = musical.New(music.CMajor)
	}
	last := state[len(state)-1]

	candidates, counts := m.pitch.candidates(state)
	if len(candidates) == 0 {
		return contextualPitch(last, ctx, rng)
	}

	weights := make([]float64, len(candidates))
	for i, p := range candidates {
		w := float64(counts[i])
		if ctx.Key.InScale(p) {
			w *= inScaleBoost
		}
		interval := int(p - last)
		if interval < 0 {
			interval = -interval
		}
		if ctx.Tension() > highTension {
			if interval > leapThreshold {
				w *= leapBoost
			}
		} else if interval <= stepThreshold {
			w *= stepBoost
		}
		weights[i] = w
	}

	idx, ok := sampling.Weighted(weights, rng)
	if !ok {
		return last
	}
	return candidates[idx]
}

// contextualPitch picks an in-scale pitch within a fifth of last that follows
// the recent melodic trend
func contextualPitch(last music.Pitch, ctx *musical.Context, rng *rand.Rand) music.Pitch {
	tendency := ctx.PitchTendency()
	var candidates []music.Pitch
	for p := last - contextualSpan; p <= last+contextualSpan; p++ {
		if !p.InRange(music.MelodyLow, music.MelodyHigh) || !ctx.Key.InScale(p) {
			continue
		}
		if tendency == musical.TendencyAscending && p < last {
			continue
		}
		if tendency == musical.TendencyDescending && p > last {
			continue
		}
		candidates = append(candidates, p)
	}
	if len(candidates) == 0 {
		return last
	}
	return sampling.Choice(candidates, rng)
}

// NextRhythm samples the duration following state
func (m *Model) NextRhythm(state []music.Duration, rng *rand.Rand) music.Duration {
	candidates, counts := m.rhythm.candidates(state)
	if len(candidates) == 0 {
		return sampling.Choice(fallbackRhythms, rng)
	}
	weights := make([]float64, len(counts))
	for i, n := range counts {
		weights[i] = float64(n)
	}
	idx, ok := sampling.Weighted(weights, rng)
	if !ok {
		return state[len(state)-1]
	}
	return candidates[idx]
}

// GenerateMelody produces notes until length is filled, starting from the
// context's recent pitches. Every pitch is clamped into the melody range and
// pushed into the context history. The last note may overrun length; callers
// fitting notes into a measure trim it.
func (m *Model) GenerateMelody(ctx *musical.Context, length music.Duration, rng *rand.Rand) []music.Note {
	pitchState := ctx.LastPitches(m.order)
	if len(pitchState) < m.order {
		pitchState = defaultPitchState(m.order)
	}
	rhythmState := make([]music.Duration, m.order)
	for i := range rhythmState {
		rhythmState[i] = music.Quarter
	}

	var notes []music.Note
	total := music.Duration{}
	for total.Less(length) && len(notes) < maxNotesPerCall {
		p := music.ClampMelody(m.NextPitch(pitchState, ctx, rng))
		d := m.NextRhythm(rhythmState, rng)
		if !d.IsPositive() {
			d = music.Quarter
		}

		notes = append(notes, music.Note{Pitch: p, Duration: d})
		ctx.PushPitch(p)
		pitchState = append(pitchState[1:], p)
		rhythmState = append(rhythmState[1:], d)
		total = total.Add(d)
	}
	return notes
}

func defaultPitchState(order int) []music.Pitch {
	state := make([]music.Pitch, order)
	for i := range state {
		state[i] = seedScale[i%len(seedScale)]
	}
	return state
}

// Snapshot is the flat persisted form of a model
type Snapshot struct {
	Order  int                       `json:"order"`
	Pitch  map[string]map[string]int `json:"pitch"`
	Rhythm map[string]map[string]int `json:"rhythm"`
}

func (m *Model) Snapshot() Snapshot {
	return Snapshot{
		Order:  m.order,
		Pitch:  m.pitch.snapshot(),
		Rhythm: m.rhythm.snapshot(),
	}
}

// Restore rebuilds a model from a snapshot. Malformed entries are skipped and
// counted rather than failing the whole restore.
func Restore(s Snapshot) (*Model, int) {
	m := New(s.Order)
	skipped := m.pitch.restore(s.Pitch)
	skipped += m.rhythm.restore(s.Rhythm)
	return m, skipped
}

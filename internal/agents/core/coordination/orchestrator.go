package coordination

import (
	"context"
	"fmt"
	"log"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/Conceptual-Machines/composer-api/internal/agents/core/config"
	"github.com/Conceptual-Machines/composer-api/internal/agents/core/musical"
	"github.com/Conceptual-Machines/composer-api/internal/agents/harmony"
	"github.com/Conceptual-Machines/composer-api/internal/agents/markov"
	"github.com/Conceptual-Machines/composer-api/internal/agents/motif"
	"github.com/Conceptual-Machines/composer-api/internal/agents/shared/accompaniment"
	"github.com/Conceptual-Machines/composer-api/internal/agents/structure"
	apperrors "github.com/Conceptual-Machines/composer-api/internal/errors"
	"github.com/Conceptual-Machines/composer-api/internal/music"
	"github.com/Conceptual-Machines/composer-api/internal/patterns"
	"github.com/Conceptual-Machines/composer-api/internal/score"
)

const (
	beatsPerChord = 1
	dynamicEvery  = 4

	// learned patterns are replayed count/10 times, at most this often
	maxPatternRepeats = 5
	patternCountScale = 10

	RightHand = "Piano Right Hand"
	LeftHand  = "Piano Left Hand"
)

// Orchestrator coordinates the planner, harmony, melody and motif agents
// into a two-part score. Composition only reads the trained tables, so any
// number of Compose calls may run together; Train swaps them under a lock.
type Orchestrator struct {
	cfg *config.Config

	mu        sync.RWMutex
	model     *markov.Model
	harmony   *harmony.Generator
	motifs    []motif.Cell
	store     *patterns.Store
	trainedAt time.Time
}

// TrainingReport describes what a Train call learned
type TrainingReport struct {
	IntervalPatterns int          `json:"interval_patterns"`
	RhythmPatterns   int          `json:"rhythm_patterns"`
	ChordRows        int          `json:"chord_rows"`
	Motifs           int          `json:"motifs"`
	Skipped          int          `json:"skipped"`
	Model            markov.Stats `json:"model"`
}

// NewOrchestrator creates an orchestrator trained on the default patterns only
func NewOrchestrator(cfg *config.Config) *Orchestrator {
	if cfg == nil {
		cfg = config.Default()
	}
	o := &Orchestrator{cfg: cfg.Normalize()}
	o.Train(nil)
	return o
}

// Config returns the normalized engine configuration
func (o *Orchestrator) Config() config.Config {
	return *o.cfg
}

// Train rebuilds the models from a pattern store. A nil store trains on the
// built-in defaults alone. Malformed entries are skipped and counted.
func (o *Orchestrator) Train(store *patterns.Store) TrainingReport {
	start := time.Now()
	model := markov.New(o.cfg.MarkovOrder)
	gen := harmony.NewGenerator()
	var motifs []motif.Cell
	var report TrainingReport

	if store != nil {
		intervals, skipped := store.IntervalPatterns()
		report.Skipped += skipped
		for _, p := range intervals {
			for range repeats(p.Count) {
				model.TrainPitch(p.Pitches())
			}
		}
		report.IntervalPatterns = len(intervals)

		rhythms, skipped := store.RhythmPatterns()
		report.Skipped += skipped
		for _, r := range rhythms {
			for range repeats(r.Count) {
				model.TrainRhythm(r.Durations)
			}
		}
		report.RhythmPatterns = len(rhythms)

		transitions, skipped := store.ChordTransitions()
		report.Skipped += skipped
		report.ChordRows = gen.ApplyProfile(harmony.Rules(transitions))

		for _, d := range store.Motifs {
			cell, ok := motif.FromDescriptor(d)
			if !ok {
				report.Skipped++
				continue
			}
			motifs = append(motifs, cell)
		}
		report.Motifs = len(motifs)
	}
	model.TrainDefaults()
	report.Model = model.Stats()

	o.mu.Lock()
	o.model = model
	o.harmony = gen
	o.motifs = motifs
	o.store = store
	o.trainedAt = time.Now()
	o.mu.Unlock()

	log.Printf("🎓 Trained models in %v: %d interval patterns, %d rhythm patterns, %d chord rows, %d motifs, %d skipped",
		time.Since(start), report.IntervalPatterns, report.RhythmPatterns, report.ChordRows, report.Motifs, report.Skipped)
	return report
}

// repeats is how often a learned pattern with count occurrences is replayed
func repeats(count int) int {
	return min(count/patternCountScale, maxPatternRepeats)
}

// Patterns returns the store the models were last trained from (nil when
// only the defaults are loaded)
func (o *Orchestrator) Patterns() *patterns.Store {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.store
}

// ModelStats reports the size of the current Markov tables
func (o *Orchestrator) ModelStats() markov.Stats {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.model.Stats()
}

// TrainedAt is when the models were last rebuilt
func (o *Orchestrator) TrainedAt() time.Time {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.trainedAt
}

// Progression generates a standalone progression from the trained harmony
// rules, with each symbol voiced in the home key
func (o *Orchestrator) Progression(length int, sectionType string, tension float64, seed uint64) ([]music.ChordSymbol, []music.Chord) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	rng := NewRand(seed)
	mctx := musical.New(o.cfg.Key)
	mctx.SectionType = sectionType
	mctx.SetTension(tension)

	symbols := o.harmony.GenerateProgression(length, mctx, rng)
	chords := make([]music.Chord, len(symbols))
	for i, symbol := range symbols {
		chords[i] = o.harmony.RealizeChord(symbol, mctx, rng)
	}
	return symbols, chords
}

// Compose writes a piece of total measures in the given form, seeded from
// the configuration (or randomly when the configured seed is zero)
func (o *Orchestrator) Compose(ctx context.Context, total int, form structure.Form) (*score.Score, error) {
	seed := o.cfg.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	return o.ComposeWithSeed(ctx, total, form, seed)
}

// ComposeWithSeed is Compose with an explicit seed; the same seed, form and
// length always give the same score
func (o *Orchestrator) ComposeWithSeed(ctx context.Context, total int, form structure.Form, seed uint64) (*score.Score, error) {
	if total <= 0 {
		return nil, fmt.Errorf("%w: %d", apperrors.ErrInvalidMeasures, total)
	}
	start := time.Now()

	o.mu.RLock()
	defer o.mu.RUnlock()

	rng := NewRand(seed)
	plan := structure.Plan(total, form)
	mctx := musical.New(o.cfg.Key)
	mctx.Tempo = o.cfg.Tempo

	primary := motif.CreatePrimary(rng, o.motifs...)
	transformer := motif.NewTransformer(rng)
	log.Printf("🎼 Composing %d measures in %s form (seed %d, motif %q)", total, form, seed, primary.Name)

	right := score.Part{ID: "P1", Name: RightHand, Clef: score.ClefTreble}
	left := score.Part{ID: "P2", Name: LeftHand, Clef: score.ClefBass}
	currentKey := o.cfg.Key
	number := 1

	for _, section := range plan {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if section.Measures == 0 {
			continue
		}

		mctx.SectionType = section.ParentSection
		mctx.Key = structure.KeyFor(section.KeyRelation, o.cfg.Key)
		mctx.ApplyCharacter(section.Character)

		sectionStart := time.Now()
		r, l, developed := o.composeSection(section, number, primary, transformer, mctx, rng)
		if mctx.Key != currentKey {
			sig := keySig(mctx.Key)
			r[0].Key, l[0].Key = sig, sig
			currentKey = mctx.Key
		}
		right.Measures = append(right.Measures, r...)
		left.Measures = append(left.Measures, l...)
		number += section.Measures

		log.Printf("⏱️ Section %s (%d measures, %s, %s, motifs %v) in %v",
			section.Name, section.Measures, section.Character, mctx.Key, developed, time.Since(sectionStart))
	}

	s := score.New(score.Metadata{
		Title:    fmt.Sprintf(o.cfg.TitleFormat, formTitle(form)),
		Composer: o.cfg.Composer,
		Form:     string(form),
		Seed:     seed,
		Key:      o.cfg.Key.String(),
	}, o.cfg.Tempo)
	s.Parts = []score.Part{right, left}
	o.applyFinalTouches(s)

	log.Printf("✅ Composed %d measures in %v", s.MeasureCount(), time.Since(start))
	return s, nil
}

// composeSection generates the melody and accompaniment measures of one plan entry
func (o *Orchestrator) composeSection(section structure.SectionPlan, first int, primary motif.Cell,
	transformer *motif.Transformer, mctx *musical.Context, rng *rand.Rand) ([]score.Measure, []score.Measure, []motif.Technique) {

	length := mctx.MeasureLength()
	chordsPerMeasure := mctx.Beats / beatsPerChord
	progression := o.harmony.GenerateProgression(section.Measures*chordsPerMeasure, mctx, rng)
	style := accompaniment.ForCharacter(section.Character)

	right := make([]score.Measure, 0, section.Measures)
	var developed []motif.Technique
	for m := range section.Measures {
		var notes []music.Note
		if rng.Float64() < o.cfg.MotifProbability && section.Character.UsesMotifs() {
			variant, technique := transformer.DevelopRandom(primary)
			developed = append(developed, technique)
			notes = motif.Realize(variant, mctx)
		} else {
			notes = o.model.GenerateMelody(mctx, length, rng)
		}

		elements := score.Notes(notes)
		if m%dynamicEvery == 0 {
			mark := musical.PickDynamic(section.Character, rng)
			mctx.Dynamic = mark
			elements = append([]score.Element{score.DynamicMark(mark)}, elements...)
		}
		right = append(right, score.Measure{
			Number:   first + m,
			Elements: score.Fit(elements, length),
			Section:  section.Name,
		})
	}

	left := make([]score.Measure, 0, section.Measures)
	for m := range section.Measures {
		lo := min(m*chordsPerMeasure, len(progression))
		hi := min(lo+chordsPerMeasure, len(progression))
		elements := accompaniment.Render(style, progression[lo:hi], o.harmony, mctx, rng)
		left = append(left, score.Measure{
			Number:   first + m,
			Elements: score.Fit(elements, length),
			Section:  section.Name,
		})
	}
	return right, left, developed
}

// applyFinalTouches sets the opening tempo, meter and key, holds the last
// sounding element of each part and slows the final measure
func (o *Orchestrator) applyFinalTouches(s *score.Score) {
	if len(s.Parts) == 0 || len(s.Parts[0].Measures) == 0 {
		return
	}

	opening := &s.Parts[0].Measures[0]
	opening.Tempo = o.cfg.Tempo
	opening.TempoText = o.cfg.TempoText

	for i := range s.Parts {
		p := &s.Parts[i]
		if len(p.Measures) == 0 {
			continue
		}
		p.Measures[0].Beats = s.Beats
		p.Measures[0].BeatType = s.BeatType
		p.Measures[0].Key = keySig(o.cfg.Key)

		markLastSounding(p)
		p.Measures[len(p.Measures)-1].Ritardando = true
	}
}

func markLastSounding(p *score.Part) {
	for mi := len(p.Measures) - 1; mi >= 0; mi-- {
		elements := p.Measures[mi].Elements
		for ei := len(elements) - 1; ei >= 0; ei-- {
			if k := elements[ei].Kind; k == score.KindNote || k == score.KindChord {
				elements[ei].Fermata = true
				return
			}
		}
	}
}

func keySig(k music.Key) *score.KeySig {
	return &score.KeySig{Fifths: k.Sharps(), Mode: k.Mode.String()}
}

// formTitle renders "theme_variations" as "Theme Variations"
func formTitle(f structure.Form) string {
	words := strings.Fields(strings.ReplaceAll(string(f), "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// NewRand returns the deterministic random source used for one composition
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

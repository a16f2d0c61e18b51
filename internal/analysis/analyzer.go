// Package analysis extracts the statistics a pattern file records from a score.
package analysis

import (
	"fmt"
	"strconv"

	"github.com/Conceptual-Machines/composer-api/internal/music"
	"github.com/Conceptual-Machines/composer-api/internal/patterns"
	"github.com/Conceptual-Machines/composer-api/internal/score"
)

const (
	minMotifLength = 4
	maxMotifLength = 8

	rhythmWindow = 4
	rhythmStride = 2

	// a leap wider than this, or a note at least phraseHold long, ends a phrase
	phraseLeap = 7
)

var phraseHold = music.Half

// timedElement is a sounding element with its onset inside the measure
type timedElement struct {
	onset music.Duration
	score.Element
}

// Analyze collects interval, rhythm, harmony, motif and phrase statistics
// from every part of s into a fresh store.
func Analyze(s *score.Score) *patterns.Store {
	store := patterns.NewStore()
	for _, p := range s.Parts {
		melody := melodyNotes(p)
		analyzeIntervals(store, melody)
		analyzeRhythm(store, p)
		extractMotifs(store, melody)
		if lengths := phraseLengths(melody); len(lengths) > 0 {
			store.PhraseStructures = append(store.PhraseStructures, patterns.PhraseStructure{Part: p.Name, Lengths: lengths})
		}
		analyzeDynamics(store, p)
		analyzeSignatures(store, p)
	}
	analyzeHarmony(store, s)
	store.Histogram(patterns.CategoryTimeSignatures).Add(fmt.Sprintf("%d/%d", s.Beats, s.BeatType), 1)
	return store
}

// melodyNotes returns the single notes of a part in order, chords excluded
func melodyNotes(p score.Part) []music.Note {
	var notes []music.Note
	for _, m := range p.Measures {
		for _, e := range m.Elements {
			if e.Kind == score.KindNote && len(e.Pitches) == 1 {
				notes = append(notes, music.Note{Pitch: e.Pitches[0], Duration: e.Duration})
			}
		}
	}
	return notes
}

// analyzeIntervals records every interval plus each consecutive pair as "(a, b)"
func analyzeIntervals(store *patterns.Store, notes []music.Note) {
	h := store.Histogram(patterns.CategoryMelodicIntervals)
	for i := 0; i+1 < len(notes); i++ {
		first := int(notes[i+1].Pitch - notes[i].Pitch)
		h.Add(strconv.Itoa(first), 1)
		if i+2 < len(notes) {
			second := int(notes[i+2].Pitch - notes[i+1].Pitch)
			h.Add(patterns.FormatTuple(strconv.Itoa(first), strconv.Itoa(second)), 1)
		}
	}
}

// analyzeRhythm counts note lengths and four-element rhythm windows, stepping by two
func analyzeRhythm(store *patterns.Store, p score.Part) {
	durations := store.Histogram(patterns.CategoryNoteDurations)
	windows := store.Histogram(patterns.CategoryRhythmPatterns)

	var seq []string
	for _, m := range p.Measures {
		for _, e := range m.Elements {
			if !e.Sounding() || !e.Duration.IsPositive() {
				continue
			}
			key := e.Duration.String()
			durations.Add(key, 1)
			seq = append(seq, key)
		}
	}
	for i := 0; i+rhythmWindow <= len(seq); i += rhythmStride {
		windows.Add(patterns.FormatTuple(seq[i:i+rhythmWindow]...), 1)
	}
}

// extractMotifs records every interval/rhythm shape of 4 to 8 notes that
// recurs at least twice, transposition ignored
func extractMotifs(store *patterns.Store, notes []music.Note) {
	for length := minMotifLength; length <= maxMotifLength && length < len(notes); length++ {
		counts := make(map[string]int)
		first := make(map[string]int)
		var order []string
		for i := 0; i+length <= len(notes); i++ {
			key := motifDescriptor(notes[i : i+length]).Key()
			if _, seen := counts[key]; !seen {
				first[key] = i
				order = append(order, key)
			}
			counts[key]++
		}
		for _, key := range order {
			if counts[key] < 2 {
				continue
			}
			d := motifDescriptor(notes[first[key] : first[key]+length])
			d.Count = counts[key]
			store.AddMotif(d)
		}
	}
}

func motifDescriptor(notes []music.Note) patterns.MotifDescriptor {
	d := patterns.MotifDescriptor{
		Notes:     make([]patterns.MotifNote, len(notes)),
		Intervals: make([]int, len(notes)),
		Rhythm:    make([]music.Duration, len(notes)),
		Contour:   Contour(pitchesOf(notes)),
	}
	for i, n := range notes {
		d.Notes[i] = patterns.MotifNote{Pitch: n.Pitch.Name(), Duration: n.Duration}
		if i > 0 {
			d.Intervals[i] = int(n.Pitch - notes[i-1].Pitch)
		}
		d.Rhythm[i] = n.Duration
	}
	return d
}

// phraseLengths splits a line after wide leaps and long notes
func phraseLengths(notes []music.Note) []int {
	var lengths []int
	current := 0
	for i, n := range notes {
		current++
		if i+1 < len(notes) {
			leap := int(notes[i+1].Pitch - n.Pitch)
			if leap < 0 {
				leap = -leap
			}
			if leap > phraseLeap || !n.Duration.Less(phraseHold) {
				lengths = append(lengths, current)
				current = 0
			}
		}
	}
	if current > 0 {
		lengths = append(lengths, current)
	}
	return lengths
}

func analyzeDynamics(store *patterns.Store, p score.Part) {
	h := store.Histogram(patterns.CategoryDynamics)
	for _, m := range p.Measures {
		for _, e := range m.Elements {
			if e.Kind == score.KindDynamic {
				h.Add(string(e.Dynamic), 1)
			}
		}
	}
}

func analyzeSignatures(store *patterns.Store, p score.Part) {
	h := store.Histogram(patterns.CategoryKeySignatures)
	for _, m := range p.Measures {
		if m.Key != nil {
			h.Add(fmt.Sprintf("%d %s", m.Key.Fifths, m.Key.Mode), 1)
		}
	}
}

// analyzeHarmony identifies a triad on every beat of every bar, reading all
// parts together, and counts the roman-numeral moves within each bar. Beats
// that do not spell a diatonic triad in C major are left out.
func analyzeHarmony(store *patterns.Store, s *score.Score) {
	h := store.Histogram(patterns.CategoryHarmonicProgressions)
	window := music.Eighth
	beats := max(s.Beats, 1)

	for bar := 0; bar < s.MeasureCount(); bar++ {
		var timed []timedElement
		for _, p := range s.Parts {
			if bar < len(p.Measures) {
				timed = append(timed, timeline(p.Measures[bar])...)
			}
		}

		var chords []music.ChordSymbol
		for beat := 0; beat < beats; beat++ {
			start := music.Quarters(int64(beat))
			end := start.Add(window)
			var pitches []music.Pitch
			for _, te := range timed {
				if !te.onset.Less(start) && te.onset.Less(end) {
					pitches = append(pitches, te.Pitches...)
				}
			}
			if sym, ok := romanFor(pitches); ok {
				chords = append(chords, sym)
			}
		}
		for i := 0; i+1 < len(chords); i++ {
			h.Add(string(chords[i])+"->"+string(chords[i+1]), 1)
		}
	}
}

func timeline(m score.Measure) []timedElement {
	var out []timedElement
	onset := music.Duration{}
	for _, e := range m.Elements {
		if !e.Sounding() {
			continue
		}
		if e.Kind != score.KindRest {
			out = append(out, timedElement{onset: onset, Element: e})
		}
		onset = onset.Add(e.Duration)
	}
	return out
}

func romanFor(pitches []music.Pitch) (music.ChordSymbol, bool) {
	root, quality, ok := music.IdentifyTriad(pitches)
	if !ok {
		return "", false
	}
	return music.SymbolFor(music.CMajor, root, quality)
}

func pitchesOf(notes []music.Note) []music.Pitch {
	out := make([]music.Pitch, len(notes))
	for i, n := range notes {
		out[i] = n.Pitch
	}
	return out
}

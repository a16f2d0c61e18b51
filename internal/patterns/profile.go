package patterns

import (
	"sort"
	"strconv"
	"strings"

	"github.com/Conceptual-Machines/composer-api/internal/music"
)

// IntervalPattern is a learned pair of consecutive melodic intervals
type IntervalPattern struct {
	First  int `json:"first"`
	Second int `json:"second"`
	Count  int `json:"count"`
}

// Pitches spells the pattern as three pitches from middle C
func (p IntervalPattern) Pitches() []music.Pitch {
	return []music.Pitch{
		music.MiddleC,
		music.MiddleC + music.Pitch(p.First),
		music.MiddleC + music.Pitch(p.First+p.Second),
	}
}

// RhythmPattern is a learned run of note lengths
type RhythmPattern struct {
	Durations []music.Duration `json:"durations"`
	Count     int              `json:"count"`
}

// ChordTransitions maps a chord to its successor probabilities
type ChordTransitions map[music.ChordSymbol]map[music.ChordSymbol]float64

// IntervalPatterns extracts the "(a, b)" interval pairs. Single-interval keys
// are not patterns and are passed over; malformed pairs are counted as skipped.
func (s *Store) IntervalPatterns() ([]IntervalPattern, int) {
	h := s.Histograms[CategoryMelodicIntervals]
	var out []IntervalPattern
	skipped := 0
	for _, key := range sortedKeys(h) {
		fields, ok := parseTuple(key)
		if !ok {
			if _, err := strconv.Atoi(strings.TrimSpace(key)); err != nil {
				skipped++
			}
			continue
		}
		if len(fields) != 2 {
			skipped++
			continue
		}
		a, errA := strconv.Atoi(fields[0])
		b, errB := strconv.Atoi(fields[1])
		if errA != nil || errB != nil {
			skipped++
			continue
		}
		out = append(out, IntervalPattern{First: a, Second: b, Count: h[key]})
	}
	return out, skipped
}

// RhythmPatterns parses the "(1.0, 0.5, 0.5, 1.0)" rhythm keys
func (s *Store) RhythmPatterns() ([]RhythmPattern, int) {
	h := s.Histograms[CategoryRhythmPatterns]
	var out []RhythmPattern
	skipped := 0
	for _, key := range sortedKeys(h) {
		fields, ok := parseTuple(key)
		if !ok || len(fields) == 0 {
			skipped++
			continue
		}
		durations := make([]music.Duration, 0, len(fields))
		for _, f := range fields {
			d, err := music.ParseDuration(f)
			if err != nil || !d.IsPositive() {
				durations = nil
				break
			}
			durations = append(durations, d)
		}
		if durations == nil {
			skipped++
			continue
		}
		out = append(out, RhythmPattern{Durations: durations, Count: h[key]})
	}
	return out, skipped
}

// ChordTransitions turns "V->I" counts into per-chord probabilities. Both
// roman numerals and chord names read in C major ("G->C") are accepted;
// anything outside the closed chord set is skipped.
func (s *Store) ChordTransitions() (ChordTransitions, int) {
	h := s.Histograms[CategoryHarmonicProgressions]
	counts := make(map[music.ChordSymbol]map[music.ChordSymbol]int)
	skipped := 0
	for _, key := range sortedKeys(h) {
		from, to, ok := strings.Cut(key, "->")
		if !ok {
			skipped++
			continue
		}
		a, okA := chordFromLabel(from)
		b, okB := chordFromLabel(to)
		if !okA || !okB || h[key] <= 0 {
			skipped++
			continue
		}
		if counts[a] == nil {
			counts[a] = make(map[music.ChordSymbol]int)
		}
		counts[a][b] += h[key]
	}

	out := make(ChordTransitions, len(counts))
	for from, row := range counts {
		total := 0
		for _, n := range row {
			total += n
		}
		probs := make(map[music.ChordSymbol]float64, len(row))
		for to, n := range row {
			probs[to] = float64(n) / float64(total)
		}
		out[from] = probs
	}
	return out, skipped
}

// AverageTransitions averages probability tables from several analyses. Each
// row is divided by the number of tables, so rows seen in only some analyses
// keep proportionally less weight.
func AverageTransitions(tables ...ChordTransitions) ChordTransitions {
	out := make(ChordTransitions)
	if len(tables) == 0 {
		return out
	}
	for _, t := range tables {
		for from, row := range t {
			if out[from] == nil {
				out[from] = make(map[music.ChordSymbol]float64)
			}
			for to, p := range row {
				out[from][to] += p
			}
		}
	}
	n := float64(len(tables))
	for _, row := range out {
		for to := range row {
			row[to] /= n
		}
	}
	return out
}

func chordFromLabel(label string) (music.ChordSymbol, bool) {
	label = strings.TrimSpace(label)
	if sym, ok := music.ParseChordSymbol(label); ok {
		return sym, true
	}

	quality := music.QualityMajor
	name := label
	switch {
	case strings.HasSuffix(name, "dim"):
		quality, name = music.QualityDiminished, strings.TrimSuffix(name, "dim")
	case strings.HasSuffix(name, "m"):
		quality, name = music.QualityMinor, strings.TrimSuffix(name, "m")
	}
	class, err := music.PitchClassOf(name)
	if err != nil {
		return "", false
	}
	return music.SymbolFor(music.CMajor, class, quality)
}

// parseTuple splits "(a, b, c)" into trimmed fields
func parseTuple(key string) ([]string, bool) {
	key = strings.TrimSpace(key)
	if !strings.HasPrefix(key, "(") || !strings.HasSuffix(key, ")") {
		return nil, false
	}
	inner := strings.TrimSpace(key[1 : len(key)-1])
	if inner == "" {
		return nil, true
	}
	parts := strings.Split(inner, ",")
	fields := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			fields = append(fields, p)
		}
	}
	return fields, true
}

// FormatTuple renders fields in the same "(a, b)" form parseTuple reads
func FormatTuple(fields ...string) string {
	return "(" + strings.Join(fields, ", ") + ")"
}

func sortedKeys(h Histogram) []string {
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

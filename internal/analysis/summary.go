package analysis

import (
	"math"
	"sort"

	"github.com/Conceptual-Machines/composer-api/internal/music"
	"github.com/Conceptual-Machines/composer-api/internal/score"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// contour thresholds in semitones
const contourMargin = 2

// Contour classifies a line by its start, middle and end pitches
func Contour(pitches []music.Pitch) string {
	if len(pitches) < 3 {
		return "stable"
	}
	start := pitches[0]
	mid := pitches[len(pitches)/2]
	end := pitches[len(pitches)-1]

	switch {
	case end > start+contourMargin:
		return "ascending"
	case end < start-contourMargin:
		return "descending"
	case mid > max(start, end)+contourMargin:
		return "arch"
	case mid < min(start, end)-contourMargin:
		return "inverted_arch"
	}
	return "stable"
}

// Summary is a compact statistical description of a score
type Summary struct {
	Parts          int                `json:"parts"`
	Measures       int                `json:"measures"`
	Notes          int                `json:"notes"`
	Chords         int                `json:"chords"`
	LowestPitch    string             `json:"lowest_pitch,omitempty"`
	HighestPitch   string             `json:"highest_pitch,omitempty"`
	MeanPitch      float64            `json:"mean_pitch"`
	PitchStdDev    float64            `json:"pitch_std_dev"`
	MeanInterval   float64            `json:"mean_abs_interval"`
	IntervalBits   float64            `json:"interval_entropy_bits"`
	StepwiseRatio  float64            `json:"stepwise_ratio"`
	Contours       map[string]float64 `json:"contours"`
	MeanPhraseSize float64            `json:"mean_phrase_length"`
}

// Summarize computes pitch, interval, contour and phrase statistics
func Summarize(s *score.Score) Summary {
	sum := Summary{Parts: len(s.Parts), Measures: s.MeasureCount(), Contours: map[string]float64{}}

	var pitches, intervals, phrases []float64
	intervalCounts := map[int]float64{}
	contourCounts := map[string]float64{}

	for _, p := range s.Parts {
		for _, m := range p.Measures {
			for _, e := range m.Elements {
				switch e.Kind {
				case score.KindNote:
					sum.Notes++
				case score.KindChord:
					sum.Chords++
				}
			}
		}

		melody := melodyNotes(p)
		for i, n := range melody {
			pitches = append(pitches, float64(n.Pitch))
			if i > 0 {
				iv := int(n.Pitch - melody[i-1].Pitch)
				intervals = append(intervals, math.Abs(float64(iv)))
				intervalCounts[iv]++
			}
		}
		if len(melody) >= 3 {
			contourCounts[Contour(pitchesOf(melody))]++
		}
		for _, l := range phraseLengths(melody) {
			phrases = append(phrases, float64(l))
		}
	}

	if len(pitches) > 0 {
		sum.MeanPitch, sum.PitchStdDev = stat.MeanStdDev(pitches, nil)
		if len(pitches) == 1 {
			sum.PitchStdDev = 0
		}
		sum.LowestPitch = music.Pitch(floats.Min(pitches)).Name()
		sum.HighestPitch = music.Pitch(floats.Max(pitches)).Name()
	}
	if len(intervals) > 0 {
		sum.MeanInterval = stat.Mean(intervals, nil)
		steps := 0
		for _, iv := range intervals {
			if iv <= 2 {
				steps++
			}
		}
		sum.StepwiseRatio = float64(steps) / float64(len(intervals))
		sum.IntervalBits = entropyBits(intervalCounts)
	}
	if len(phrases) > 0 {
		sum.MeanPhraseSize = stat.Mean(phrases, nil)
	}
	if total := totalOf(contourCounts); total > 0 {
		for k, v := range contourCounts {
			sum.Contours[k] = v / total
		}
	}
	return sum
}

// entropyBits is the Shannon entropy of a histogram in bits
func entropyBits(counts map[int]float64) float64 {
	keys := make([]int, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	p := make([]float64, len(keys))
	for i, k := range keys {
		p[i] = counts[k]
	}
	floats.Scale(1/floats.Sum(p), p)
	return stat.Entropy(p) / math.Ln2
}

func totalOf(m map[string]float64) float64 {
	t := 0.0
	for _, v := range m {
		t += v
	}
	return t
}

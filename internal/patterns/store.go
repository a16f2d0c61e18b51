package patterns

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	apperrors "github.com/Conceptual-Machines/composer-api/internal/errors"
	"github.com/Conceptual-Machines/composer-api/internal/music"
)

// Categories of a pattern file
const (
	CategoryMelodicIntervals     = "melodic_intervals"
	CategoryHarmonicProgressions = "harmonic_progressions"
	CategoryRhythmPatterns       = "rhythm_patterns"
	CategoryNoteDurations        = "note_durations"
	CategoryDynamics             = "dynamics"
	CategoryKeySignatures        = "key_signatures"
	CategoryTimeSignatures       = "time_signatures"
	CategoryMotifs               = "motifs"
	CategoryPhraseStructures     = "phrase_structures"
)

// HistogramCategories are the categories holding key -> count maps
var HistogramCategories = []string{
	CategoryMelodicIntervals,
	CategoryHarmonicProgressions,
	CategoryRhythmPatterns,
	CategoryNoteDurations,
	CategoryDynamics,
	CategoryKeySignatures,
	CategoryTimeSignatures,
}

// Histogram counts occurrences of a pattern key
type Histogram map[string]int

// Add increments key by n
func (h Histogram) Add(key string, n int) {
	h[key] += n
}

func (h Histogram) Total() int {
	total := 0
	for _, n := range h {
		total += n
	}
	return total
}

// Entry is one histogram bucket
type Entry struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// TopN returns the n most frequent keys, ties broken by key
func (h Histogram) TopN(n int) []Entry {
	entries := make([]Entry, 0, len(h))
	for k, c := range h {
		entries = append(entries, Entry{Key: k, Count: c})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return entries[i].Key < entries[j].Key
	})
	if n >= 0 && n < len(entries) {
		entries = entries[:n]
	}
	return entries
}

// UnmarshalJSON accepts integer or float counts
func (h *Histogram) UnmarshalJSON(data []byte) error {
	var raw map[string]float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Histogram, len(raw))
	for k, v := range raw {
		out[k] = int(math.Round(v))
	}
	*h = out
	return nil
}

// MotifNote is one note of a recorded motif
type MotifNote struct {
	Pitch    string         `json:"pitch"`
	Duration music.Duration `json:"duration"`
}

// MotifDescriptor is a recurring melodic cell found during analysis. Either
// Notes or Intervals/Rhythm may be present; Resolve derives the latter.
type MotifDescriptor struct {
	Name       string           `json:"name,omitempty"`
	Notes      []MotifNote      `json:"notes,omitempty"`
	Intervals  []int            `json:"intervals,omitempty"`
	Rhythm     []music.Duration `json:"rhythm,omitempty"`
	Contour    string           `json:"contour,omitempty"`
	Importance float64          `json:"importance,omitempty"`
	Count      int              `json:"count,omitempty"`
}

// UnmarshalJSON also accepts the bare note-list form [{"pitch":"C4","duration":0.5}, ...]
func (d *MotifDescriptor) UnmarshalJSON(data []byte) error {
	var notes []MotifNote
	if err := json.Unmarshal(data, &notes); err == nil {
		*d = MotifDescriptor{Notes: notes}
		return nil
	}
	type plain MotifDescriptor
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*d = MotifDescriptor(p)
	return nil
}

// Resolve fills Intervals and Rhythm from Notes when they are missing. The
// first interval is 0 so a realized motif starts on the current pitch.
func (d MotifDescriptor) Resolve() MotifDescriptor {
	if len(d.Intervals) > 0 || len(d.Notes) == 0 {
		return d
	}
	intervals := make([]int, 0, len(d.Notes))
	rhythm := make([]music.Duration, 0, len(d.Notes))
	var prev music.Pitch
	for i, n := range d.Notes {
		p, err := music.NoteNameToMIDI(n.Pitch)
		if err != nil {
			return d
		}
		if i == 0 {
			intervals = append(intervals, 0)
		} else {
			intervals = append(intervals, int(p-prev))
		}
		rhythm = append(rhythm, n.Duration)
		prev = p
	}
	d.Intervals = intervals
	d.Rhythm = rhythm
	return d
}

// Key identifies a motif by shape, ignoring name and weight
func (d MotifDescriptor) Key() string {
	r := d.Resolve()
	var b strings.Builder
	for _, iv := range r.Intervals {
		fmt.Fprintf(&b, "%d,", iv)
	}
	b.WriteString("|")
	for _, dur := range r.Rhythm {
		b.WriteString(dur.String())
		b.WriteString(",")
	}
	return b.String()
}

// PhraseStructure records the phrase lengths (in notes) of one melodic line
type PhraseStructure struct {
	Part    string `json:"part,omitempty"`
	Lengths []int  `json:"lengths"`
}

// Store is the flat statistics file shared by analysis and training
type Store struct {
	Histograms       map[string]Histogram
	Motifs           []MotifDescriptor
	PhraseStructures []PhraseStructure

	// Extra keeps categories this version does not know about
	Extra map[string]json.RawMessage
	// Skipped counts malformed categories dropped while decoding
	Skipped int
}

func NewStore() *Store {
	s := &Store{
		Histograms:       make(map[string]Histogram, len(HistogramCategories)),
		Motifs:           []MotifDescriptor{},
		PhraseStructures: []PhraseStructure{},
		Extra:            map[string]json.RawMessage{},
	}
	for _, c := range HistogramCategories {
		s.Histograms[c] = Histogram{}
	}
	return s
}

// Histogram returns the named category, creating it if needed
func (s *Store) Histogram(category string) Histogram {
	h, ok := s.Histograms[category]
	if !ok {
		h = Histogram{}
		s.Histograms[category] = h
	}
	return h
}

// AddMotif records a motif, bumping the count of an identical shape
func (s *Store) AddMotif(d MotifDescriptor) {
	key := d.Key()
	for i := range s.Motifs {
		if s.Motifs[i].Key() == key {
			s.Motifs[i].Count += max(d.Count, 1)
			return
		}
	}
	if d.Count == 0 {
		d.Count = 1
	}
	s.Motifs = append(s.Motifs, d)
}

// Merge folds other into s
func (s *Store) Merge(other *Store) {
	for category, h := range other.Histograms {
		dst := s.Histogram(category)
		for k, n := range h {
			dst.Add(k, n)
		}
	}
	for _, m := range other.Motifs {
		s.AddMotif(m)
	}
	s.PhraseStructures = append(s.PhraseStructures, other.PhraseStructures...)
	for k, v := range other.Extra {
		if _, ok := s.Extra[k]; !ok {
			s.Extra[k] = v
		}
	}
}

// Count is the number of recorded entries over every category
func (s *Store) Count() int {
	n := len(s.Motifs) + len(s.PhraseStructures)
	for _, h := range s.Histograms {
		n += len(h)
	}
	return n
}

// TopN returns the most common entries of a histogram category
func (s *Store) TopN(category string, n int) []Entry {
	h, ok := s.Histograms[category]
	if !ok {
		return nil
	}
	return h.TopN(n)
}

func (s *Store) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(s.Histograms)+len(s.Extra)+2)
	for k, v := range s.Extra {
		out[k] = v
	}
	for _, c := range HistogramCategories {
		out[c] = s.Histogram(c)
	}
	for c, h := range s.Histograms {
		out[c] = h
	}
	motifs := s.Motifs
	if motifs == nil {
		motifs = []MotifDescriptor{}
	}
	phrases := s.PhraseStructures
	if phrases == nil {
		phrases = []PhraseStructure{}
	}
	out[CategoryMotifs] = motifs
	out[CategoryPhraseStructures] = phrases
	return json.Marshal(out)
}

// UnmarshalJSON decodes known categories and keeps the rest raw. A category
// whose value is malformed is dropped and counted in Skipped.
func (s *Store) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*s = *NewStore()
	for key, value := range raw {
		switch {
		case isHistogramCategory(key):
			var h Histogram
			if err := json.Unmarshal(value, &h); err != nil {
				s.Skipped++
				continue
			}
			s.Histograms[key] = h
		case key == CategoryMotifs:
			var motifs []json.RawMessage
			if err := json.Unmarshal(value, &motifs); err != nil {
				s.Skipped++
				continue
			}
			for _, m := range motifs {
				var d MotifDescriptor
				if err := json.Unmarshal(m, &d); err != nil {
					s.Skipped++
					continue
				}
				s.Motifs = append(s.Motifs, d)
			}
		case key == CategoryPhraseStructures:
			if err := json.Unmarshal(value, &s.PhraseStructures); err != nil {
				s.PhraseStructures = []PhraseStructure{}
				s.Skipped++
			}
		default:
			s.Extra[key] = value
		}
	}
	return nil
}

func isHistogramCategory(key string) bool {
	for _, c := range HistogramCategories {
		if c == key {
			return true
		}
	}
	return false
}

// Load reads a pattern file. A missing or unreadable file is a ResourceError.
func Load(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.NewResourceError(path, "read", err)
	}
	return Decode(data, path)
}

// Decode parses pattern-file bytes; source names the origin in errors
func Decode(data []byte, source string) (*Store, error) {
	s := NewStore()
	if err := json.Unmarshal(data, s); err != nil {
		return nil, apperrors.NewResourceError(source, "decode", err)
	}
	return s, nil
}

// Save writes the store atomically (temp file then rename)
func (s *Store) Save(path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return apperrors.NewResourceError(path, "encode", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return apperrors.NewResourceError(path, "write", err)
	}
	tmp, err := os.CreateTemp(dir, ".patterns-*.json")
	if err != nil {
		return apperrors.NewResourceError(path, "write", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return apperrors.NewResourceError(path, "write", err)
	}
	if err := tmp.Close(); err != nil {
		return apperrors.NewResourceError(path, "write", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return apperrors.NewResourceError(path, "write", err)
	}
	return nil
}

// IsNotFound reports whether a Load failed because the file does not exist
func IsNotFound(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}

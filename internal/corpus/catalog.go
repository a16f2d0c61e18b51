// Package corpus fetches the training scores the pattern store is built from.
package corpus

import (
	"sort"

	"github.com/Conceptual-Machines/composer-api/internal/music"
	"github.com/Conceptual-Machines/composer-api/internal/score"
)

// Period groups works by stylistic era
type Period string

const (
	PeriodEarly  Period = "early"
	PeriodMiddle Period = "middle"
	PeriodLate   Period = "late"
)

// Work is one catalogued piano sonata
type Work struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Period    Period `json:"period"`
	Year      int    `json:"year"`
	Movements int    `json:"movements"`
	Key       string `json:"key"`
}

var catalog = map[string]Work{
	"opus2no1":  {Title: "Piano Sonata No.1 in F minor, Op.2 No.1", Period: PeriodEarly, Year: 1795, Movements: 4, Key: "F minor"},
	"opus10no2": {Title: "Piano Sonata No.6 in F major, Op.10 No.2", Period: PeriodEarly, Year: 1797, Movements: 3, Key: "F major"},
	"opus13":    {Title: `Piano Sonata No.8 in C minor, Op.13 "Pathétique"`, Period: PeriodEarly, Year: 1798, Movements: 3, Key: "C minor"},
	"opus27no2": {Title: `Piano Sonata No.14 in C# minor, Op.27 No.2 "Moonlight"`, Period: PeriodMiddle, Year: 1801, Movements: 3, Key: "C# minor"},
	"opus31no2": {Title: `Piano Sonata No.17 in D minor, Op.31 No.2 "Tempest"`, Period: PeriodMiddle, Year: 1802, Movements: 3, Key: "D minor"},
	"opus53":    {Title: `Piano Sonata No.21 in C major, Op.53 "Waldstein"`, Period: PeriodMiddle, Year: 1804, Movements: 2, Key: "C major"},
	"opus57":    {Title: `Piano Sonata No.23 in F minor, Op.57 "Appassionata"`, Period: PeriodMiddle, Year: 1805, Movements: 3, Key: "F minor"},
	"opus81a":   {Title: `Piano Sonata No.26 in Eb major, Op.81a "Les Adieux"`, Period: PeriodMiddle, Year: 1810, Movements: 3, Key: "Eb major"},
	"opus106":   {Title: `Piano Sonata No.29 in Bb major, Op.106 "Hammerklavier"`, Period: PeriodLate, Year: 1818, Movements: 4, Key: "Bb major"},
	"opus111":   {Title: "Piano Sonata No.32 in C minor, Op.111", Period: PeriodLate, Year: 1822, Movements: 2, Key: "C minor"},
}

// Catalog lists every known work ordered by year
func Catalog() []Work {
	works := make([]Work, 0, len(catalog))
	for id, w := range catalog {
		w.ID = id
		works = append(works, w)
	}
	sort.Slice(works, func(i, j int) bool {
		if works[i].Year != works[j].Year {
			return works[i].Year < works[j].Year
		}
		return works[i].ID < works[j].ID
	})
	return works
}

// ByPeriod filters the catalog
func ByPeriod(p Period) []Work {
	var out []Work
	for _, w := range Catalog() {
		if w.Period == p {
			out = append(out, w)
		}
	}
	return out
}

// Lookup finds a work by its id
func Lookup(id string) (Work, bool) {
	w, ok := catalog[id]
	w.ID = id
	return w, ok
}

// Samples returns the built-in openings used when no corpus can be fetched
func Samples() map[string]*score.Score {
	return map[string]*score.Score{
		"waldstein_opening":    waldstein(),
		"appassionata_opening": appassionata(),
	}
}

// repeated eighths, then a leaping broken chord
func waldstein() *score.Score {
	var elements []score.Element
	for range 8 {
		elements = append(elements, score.NotePitch(music.MiddleC, music.Eighth))
	}
	for _, name := range []string{"E4", "G4", "C5", "G4", "E4", "C4", "G3", "C4"} {
		elements = append(elements, score.NotePitch(mustPitch(name), music.Eighth))
	}
	return sampleScore("Waldstein opening", "C major", elements)
}

// falling arpeggio, a silence, then a fortissimo chord
func appassionata() *score.Score {
	var elements []score.Element
	for _, name := range []string{"F5", "C5", "A4", "F4", "C4", "A3", "F3"} {
		elements = append(elements, score.NotePitch(mustPitch(name), music.Sixteenth))
	}
	elements = append(elements,
		score.Rest(music.Quarter),
		score.DynamicMark(music.DynamicFF),
		score.Chord(music.Chord{
			Pitches:  []music.Pitch{mustPitch("F3"), mustPitch("A3"), mustPitch("C4"), mustPitch("F4")},
			Duration: music.Half,
		}),
	)
	return sampleScore("Appassionata opening", "F minor", elements)
}

func sampleScore(title, key string, elements []score.Element) *score.Score {
	s := score.New(score.Metadata{Title: title, Composer: "Beethoven", Key: key}, 120)
	var measures []score.Measure
	length := s.MeasureLength()
	for i, start := 0, 0; start < len(elements); i++ {
		var bar []score.Element
		elapsed := music.Duration{}
		for start < len(elements) && elapsed.Less(length) {
			e := elements[start]
			bar = append(bar, e)
			if e.Sounding() {
				elapsed = elapsed.Add(e.Duration)
			}
			start++
		}
		measures = append(measures, score.Measure{Number: i + 1, Elements: score.Fit(bar, length)})
	}
	s.Parts = []score.Part{{ID: "P1", Name: "Piano", Clef: score.ClefTreble, Measures: measures}}
	return s
}

func mustPitch(name string) music.Pitch {
	p, err := music.NoteNameToMIDI(name)
	if err != nil {
		panic(err)
	}
	return p
}

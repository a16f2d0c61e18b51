package score

import (
	"encoding/xml"
	"fmt"
	"io"

	apperrors "github.com/Conceptual-Machines/composer-api/internal/errors"
	"github.com/Conceptual-Machines/composer-api/internal/music"
)

const (
	musicXMLHeader  = `<!DOCTYPE score-partwise PUBLIC "-//Recordare//DTD MusicXML 3.1 Partwise//EN" "http://www.musicxml.org/dtds/partwise.dtd">` + "\n"
	musicXMLVersion = "3.1"
)

type xmlScore struct {
	XMLName        xml.Name       `xml:"score-partwise"`
	Version        string         `xml:"version,attr"`
	Work           xmlWork        `xml:"work"`
	Identification xmlIdent       `xml:"identification"`
	PartList       []xmlScorePart `xml:"part-list>score-part"`
	Parts          []xmlPart      `xml:"part"`
}

type xmlWork struct {
	Title string `xml:"work-title"`
}

type xmlIdent struct {
	Creator  xmlCreator `xml:"creator"`
	Software string     `xml:"encoding>software"`
}

type xmlCreator struct {
	Type string `xml:"type,attr"`
	Name string `xml:",chardata"`
}

type xmlScorePart struct {
	ID   string `xml:"id,attr"`
	Name string `xml:"part-name"`
}

type xmlPart struct {
	ID       string       `xml:"id,attr"`
	Measures []xmlMeasure `xml:"measure"`
}

type xmlMeasure struct {
	Number     int            `xml:"number,attr"`
	Attributes *xmlAttributes `xml:"attributes,omitempty"`
	Items      []any
}

type xmlAttributes struct {
	Divisions int      `xml:"divisions"`
	Key       *xmlKey  `xml:"key,omitempty"`
	Time      *xmlTime `xml:"time,omitempty"`
	Clef      *xmlClef `xml:"clef,omitempty"`
}

type xmlKey struct {
	Fifths int    `xml:"fifths"`
	Mode   string `xml:"mode"`
}

type xmlTime struct {
	Beats    int `xml:"beats"`
	BeatType int `xml:"beat-type"`
}

type xmlClef struct {
	Sign string `xml:"sign"`
	Line int    `xml:"line"`
}

type xmlDirection struct {
	XMLName   xml.Name           `xml:"direction"`
	Placement string             `xml:"placement,attr,omitempty"`
	Types     []xmlDirectionType `xml:"direction-type"`
	Sound     *xmlSound          `xml:"sound,omitempty"`
}

type xmlDirectionType struct {
	Words    string       `xml:"words,omitempty"`
	Dynamics *xmlDynamics `xml:"dynamics,omitempty"`
}

// xmlDynamics holds a single mark whose element name is the dynamic itself (<f/>, <pp/>)
type xmlDynamics struct {
	Mark struct {
		XMLName xml.Name
	}
}

type xmlSound struct {
	Tempo int `xml:"tempo,attr,omitempty"`
}

type xmlNote struct {
	XMLName   xml.Name      `xml:"note"`
	Chord     *struct{}     `xml:"chord,omitempty"`
	Rest      *struct{}     `xml:"rest,omitempty"`
	Pitch     *xmlPitch     `xml:"pitch,omitempty"`
	Duration  int64         `xml:"duration"`
	Voice     int           `xml:"voice"`
	Type      string        `xml:"type,omitempty"`
	Dot       *struct{}     `xml:"dot,omitempty"`
	Notations *xmlNotations `xml:"notations,omitempty"`
}

type xmlPitch struct {
	Step   string `xml:"step"`
	Alter  int    `xml:"alter,omitempty"`
	Octave int    `xml:"octave"`
}

type xmlNotations struct {
	Fermata *struct{} `xml:"fermata,omitempty"`
}

var (
	pitchSteps  = [12]string{"C", "C", "D", "D", "E", "F", "F", "G", "G", "A", "A", "B"}
	pitchAlters = [12]int{0, 1, 0, 1, 0, 0, 1, 0, 1, 0, 1, 0}

	noteTypes = map[music.Duration]struct {
		name   string
		dotted bool
	}{
		music.Whole:        {"whole", false},
		music.DottedHalf:   {"half", true},
		music.Half:         {"half", false},
		music.DottedQtr:    {"quarter", true},
		music.Quarter:      {"quarter", false},
		music.DottedEighth: {"eighth", true},
		music.Eighth:       {"eighth", false},
		music.Sixteenth:    {"16th", false},
		music.ThirtySecond: {"32nd", false},
	}
)

// WriteMusicXML renders the score as partwise MusicXML 3.1
func WriteMusicXML(s *Score, w io.Writer) error {
	doc := xmlScore{
		Version: musicXMLVersion,
		Work:    xmlWork{Title: s.Metadata.Title},
		Identification: xmlIdent{
			Creator:  xmlCreator{Type: "composer", Name: s.Metadata.Composer},
			Software: "composer-api",
		},
	}
	for _, p := range s.Parts {
		doc.PartList = append(doc.PartList, xmlScorePart{ID: p.ID, Name: p.Name})
		doc.Parts = append(doc.Parts, toXMLPart(s, p))
	}

	if _, err := io.WriteString(w, xml.Header+musicXMLHeader); err != nil {
		return apperrors.NewResourceError("musicxml", "write", err)
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return apperrors.NewResourceError("musicxml", "write", err)
	}
	return nil
}

func toXMLPart(s *Score, p Part) xmlPart {
	out := xmlPart{ID: p.ID, Measures: make([]xmlMeasure, 0, len(p.Measures))}
	for i, m := range p.Measures {
		xm := xmlMeasure{Number: m.Number}
		if i == 0 || m.Key != nil || m.Beats > 0 {
			xm.Attributes = measureAttributes(s, p, m, i == 0)
		}
		if m.Tempo > 0 {
			text := m.TempoText
			if text == "" {
				text = fmt.Sprintf("q = %d", m.Tempo)
			}
			xm.Items = append(xm.Items, xmlDirection{
				Placement: "above",
				Types:     []xmlDirectionType{{Words: text}},
				Sound:     &xmlSound{Tempo: m.Tempo},
			})
		}
		if m.Ritardando {
			xm.Items = append(xm.Items, xmlDirection{
				Placement: "above",
				Types:     []xmlDirectionType{{Words: "rit."}},
			})
		}
		for _, e := range m.Elements {
			xm.Items = append(xm.Items, elementItems(e)...)
		}
		out.Measures = append(out.Measures, xm)
	}
	return out
}

func measureAttributes(s *Score, p Part, m Measure, first bool) *xmlAttributes {
	attrs := &xmlAttributes{Divisions: TicksPerQuarter}
	if first {
		clef := &xmlClef{Sign: "G", Line: 2}
		if p.Clef == ClefBass {
			clef = &xmlClef{Sign: "F", Line: 4}
		}
		attrs.Clef = clef
		attrs.Time = &xmlTime{Beats: s.Beats, BeatType: s.BeatType}
	}
	if m.Beats > 0 {
		attrs.Time = &xmlTime{Beats: m.Beats, BeatType: m.BeatType}
	}
	if m.Key != nil {
		attrs.Key = &xmlKey{Fifths: m.Key.Fifths, Mode: m.Key.Mode}
	}
	return attrs
}

func elementItems(e Element) []any {
	switch e.Kind {
	case KindDynamic:
		d := xmlDynamics{}
		d.Mark.XMLName = xml.Name{Local: string(e.Dynamic)}
		return []any{xmlDirection{Placement: "below", Types: []xmlDirectionType{{Dynamics: &d}}}}
	case KindRest:
		n := baseNote(e)
		n.Rest = &struct{}{}
		return []any{n}
	}

	items := make([]any, 0, len(e.Pitches))
	for i, p := range e.Pitches {
		n := baseNote(e)
		if i > 0 {
			n.Chord = &struct{}{}
		}
		n.Pitch = &xmlPitch{
			Step:   pitchSteps[p.Class()],
			Alter:  pitchAlters[p.Class()],
			Octave: p.Octave(),
		}
		items = append(items, n)
	}
	return items
}

func baseNote(e Element) xmlNote {
	n := xmlNote{Duration: e.Duration.Ticks(TicksPerQuarter), Voice: 1}
	if t, ok := noteTypes[e.Duration]; ok {
		n.Type = t.name
		if t.dotted {
			n.Dot = &struct{}{}
		}
	}
	if e.Fermata {
		n.Notations = &xmlNotations{Fermata: &struct{}{}}
	}
	return n
}

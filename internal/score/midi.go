package score

import (
	"fmt"
	"io"
	"sort"

	apperrors "github.com/Conceptual-Machines/composer-api/internal/errors"
	"github.com/Conceptual-Machines/composer-api/internal/music"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

const (
	TicksPerQuarter = 480

	// RitardandoTempo is where a closing ritardando lands
	RitardandoTempo = 80
)

// WriteMIDI renders the score as a type-1 SMF: a conductor track carrying
// tempo and meter, then one track per part on its own channel.
func WriteMIDI(s *Score, w io.Writer) error {
	file := smf.New()
	file.TimeFormat = smf.MetricTicks(TicksPerQuarter)

	if err := file.Add(conductorTrack(s)); err != nil {
		return apperrors.NewResourceError("midi", "write", err)
	}
	for i, p := range s.Parts {
		if err := file.Add(partTrack(p, uint8(i%16))); err != nil {
			return apperrors.NewResourceError("midi", "write", err)
		}
	}
	if _, err := file.WriteTo(w); err != nil {
		return apperrors.NewResourceError("midi", "write", err)
	}
	return nil
}

func conductorTrack(s *Score) smf.Track {
	var track smf.Track
	track.Add(0, smf.MetaTrackSequenceName(s.Metadata.Title))
	track.Add(0, smf.MetaMeter(uint8(s.Beats), uint8(s.BeatType)))
	track.Add(0, smf.MetaTempo(float64(s.Tempo)))

	if len(s.Parts) > 0 {
		var tick, last int64
		for _, m := range s.Parts[0].Measures {
			if m.Ritardando {
				track.Add(uint32(tick-last), smf.MetaTempo(RitardandoTempo))
				last = tick
			}
			tick += m.Length().Ticks(TicksPerQuarter)
		}
	}
	track.Close(0)
	return track
}

func partTrack(p Part, channel uint8) smf.Track {
	var track smf.Track
	track.Add(0, smf.MetaTrackSequenceName(p.Name))

	velocity := music.DynamicMF.Velocity()
	var pending uint32
	for _, m := range p.Measures {
		for _, e := range m.Elements {
			switch e.Kind {
			case KindDynamic:
				velocity = e.Dynamic.Velocity()
			case KindRest:
				pending += uint32(e.Duration.Ticks(TicksPerQuarter))
			case KindNote, KindChord:
				ticks := uint32(e.Duration.Ticks(TicksPerQuarter))
				if ticks == 0 || len(e.Pitches) == 0 {
					continue
				}
				for i, pitch := range e.Pitches {
					delta := uint32(0)
					if i == 0 {
						delta = pending
					}
					track.Add(delta, midi.NoteOn(channel, midiKey(pitch), velocity))
				}
				for i, pitch := range e.Pitches {
					delta := uint32(0)
					if i == 0 {
						delta = ticks
					}
					track.Add(delta, midi.NoteOff(channel, midiKey(pitch)))
				}
				pending = 0
			}
		}
	}
	track.Close(pending)
	return track
}

func midiKey(p music.Pitch) uint8 {
	return uint8(min(max(int(p), 0), 127))
}

type heldNote struct {
	start    int64
	end      int64
	key      uint8
	velocity uint8
}

// ReadMIDI imports a standard MIDI file for analysis. Onsets and lengths are
// quantized to sixteenths, simultaneous onsets become chords and every
// note-bearing track becomes a part split into measures of the file's meter.
func ReadMIDI(r io.Reader) (*Score, error) {
	file, err := smf.ReadFrom(r)
	if err != nil {
		return nil, apperrors.NewResourceError("midi", "read", err)
	}
	tpq := int64(TicksPerQuarter)
	if tf, ok := file.TimeFormat.(smf.MetricTicks); ok && tf > 0 {
		tpq = int64(tf)
	}

	s := New(Metadata{}, 120)
	var parts []Part
	for i, track := range file.Tracks {
		name := ""
		var notes []heldNote
		open := make(map[uint8]heldNote)
		var tick int64
		for _, ev := range track {
			tick += int64(ev.Delta)
			msg := ev.Message

			var bpm float64
			var num, den uint8
			var text string
			var ch, key, vel uint8
			switch {
			case msg.GetMetaTempo(&bpm):
				if tick == 0 && bpm > 0 {
					s.Tempo = int(bpm + 0.5)
				}
			case msg.GetMetaMeter(&num, &den):
				if tick == 0 && num > 0 && den > 0 {
					s.Beats, s.BeatType = int(num), int(den)
				}
			case msg.GetMetaTrackName(&text):
				name = text
			case midi.Message(msg).GetNoteStart(&ch, &key, &vel):
				open[key] = heldNote{start: tick, key: key, velocity: vel}
			case midi.Message(msg).GetNoteEnd(&ch, &key):
				if n, ok := open[key]; ok {
					n.end = tick
					notes = append(notes, n)
					delete(open, key)
				}
			}
		}
		if len(notes) == 0 {
			if name != "" && s.Metadata.Title == "" {
				s.Metadata.Title = name
			}
			continue
		}
		if name == "" {
			name = fmt.Sprintf("Track %d", i+1)
		}
		parts = append(parts, buildPart(fmt.Sprintf("P%d", len(parts)+1), name, notes, tpq, s.MeasureLength()))
	}
	s.Parts = parts
	return s, nil
}

func buildPart(id, name string, notes []heldNote, tpq int64, measureLen music.Duration) Part {
	step := tpq / 4
	if step <= 0 {
		step = 1
	}
	quantize := func(t int64) int64 { return (t + step/2) / step }

	// onset (in sixteenths) -> notes starting there
	groups := make(map[int64][]heldNote)
	for _, n := range notes {
		groups[quantize(n.start)] = append(groups[quantize(n.start)], n)
	}
	onsets := make([]int64, 0, len(groups))
	for on := range groups {
		onsets = append(onsets, on)
	}
	sort.Slice(onsets, func(i, j int) bool { return onsets[i] < onsets[j] })

	sixteenth := music.Sixteenth
	var elements []Element
	var cursor int64
	var lastDynamic music.Dynamic
	for i, on := range onsets {
		group := groups[on]
		if on > cursor {
			elements = append(elements, Rest(sixteenth.Scale(on-cursor)))
		}

		length := int64(0)
		var loudest uint8
		pitches := make([]music.Pitch, 0, len(group))
		for _, n := range group {
			length = max(length, quantize(n.end)-on)
			loudest = max(loudest, n.velocity)
			pitches = append(pitches, music.Pitch(n.key))
		}
		if i+1 < len(onsets) {
			length = min(length, onsets[i+1]-on)
		}
		length = max(length, 1)
		sort.Slice(pitches, func(a, b int) bool { return pitches[a] < pitches[b] })

		if dyn := music.DynamicForVelocity(loudest); dyn != lastDynamic {
			elements = append(elements, DynamicMark(dyn))
			lastDynamic = dyn
		}
		kind := KindNote
		if len(pitches) > 1 {
			kind = KindChord
		}
		elements = append(elements, Element{Kind: kind, Pitches: pitches, Duration: sixteenth.Scale(length)})
		cursor = on + length
	}

	return Part{ID: id, Name: name, Clef: clefFor(notes), Measures: splitMeasures(elements, measureLen)}
}

func clefFor(notes []heldNote) string {
	var sum int
	for _, n := range notes {
		sum += int(n.key)
	}
	if len(notes) > 0 && sum/len(notes) < int(music.MiddleC) {
		return ClefBass
	}
	return ClefTreble
}

// splitMeasures groups elements into bars by onset; an element crossing a
// barline stays in the bar it starts in
func splitMeasures(elements []Element, measureLen music.Duration) []Measure {
	var measures []Measure
	current := Measure{Number: 1}
	elapsed := music.Duration{}
	for _, e := range elements {
		if e.Sounding() && !elapsed.Less(measureLen) {
			measures = append(measures, current)
			current = Measure{Number: current.Number + 1}
			elapsed = elapsed.Sub(measureLen)
			for !elapsed.Less(measureLen) {
				// bar covered by a held note
				measures = append(measures, current)
				current = Measure{Number: current.Number + 1}
				elapsed = elapsed.Sub(measureLen)
			}
		}
		current.Elements = append(current.Elements, e)
		if e.Sounding() {
			elapsed = elapsed.Add(e.Duration)
		}
	}
	if len(current.Elements) > 0 {
		measures = append(measures, current)
	}
	return measures
}

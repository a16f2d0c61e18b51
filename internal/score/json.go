package score

import (
	"encoding/json"
	"io"

	apperrors "github.com/Conceptual-Machines/composer-api/internal/errors"
)

// WriteJSON encodes the score with durations as "n/d" strings
func WriteJSON(s *Score, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return apperrors.NewResourceError("json", "write", err)
	}
	return nil
}

func ReadJSON(r io.Reader) (*Score, error) {
	var s Score
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return nil, apperrors.NewResourceError("json", "read", err)
	}
	return &s, nil
}

// Format is an export format
type Format string

const (
	FormatJSON     Format = "json"
	FormatMIDI     Format = "midi"
	FormatMusicXML Format = "musicxml"
)

// ParseFormat maps a format name or file extension to a Format, defaulting to JSON
func ParseFormat(s string) Format {
	switch s {
	case "midi", "mid", ".mid", ".midi":
		return FormatMIDI
	case "musicxml", "xml", ".xml", ".musicxml":
		return FormatMusicXML
	}
	return FormatJSON
}

// ContentType is the MIME type served for the format
func (f Format) ContentType() string {
	switch f {
	case FormatMIDI:
		return "audio/midi"
	case FormatMusicXML:
		return "application/vnd.recordare.musicxml+xml"
	}
	return "application/json"
}

func (f Format) Extension() string {
	switch f {
	case FormatMIDI:
		return ".mid"
	case FormatMusicXML:
		return ".musicxml"
	}
	return ".json"
}

// Write exports the score in the given format
func Write(s *Score, f Format, w io.Writer) error {
	switch f {
	case FormatMIDI:
		return WriteMIDI(s, w)
	case FormatMusicXML:
		return WriteMusicXML(s, w)
	}
	return WriteJSON(s, w)
}

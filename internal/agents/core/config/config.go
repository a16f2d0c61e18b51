package config

import (
	"github.com/Conceptual-Machines/composer-api/internal/music"
)

const (
	DefaultMarkovOrder      = 2
	DefaultTempo            = 120
	DefaultTempoText        = "Allegro con brio"
	DefaultTitleFormat      = "Composition in %s Form"
	DefaultComposer         = "composer-api"
	DefaultMotifProbability = 0.7
)

// Config contains configuration for the composition engine
type Config struct {
	MarkovOrder      int       // context length of the pitch and rhythm chains
	Seed             uint64    // used when a request does not carry its own
	Key              music.Key // home key of every composition
	Tempo            int
	TempoText        string
	TitleFormat      string  // fmt pattern receiving the form's display name
	Composer         string  // composer tag written into score metadata
	MotifProbability float64 // chance that a motif-driven measure uses the motif
}

// Default returns the engine configuration used when nothing is overridden
func Default() *Config {
	return &Config{
		MarkovOrder:      DefaultMarkovOrder,
		Key:              music.CMajor,
		Tempo:            DefaultTempo,
		TempoText:        DefaultTempoText,
		TitleFormat:      DefaultTitleFormat,
		Composer:         DefaultComposer,
		MotifProbability: DefaultMotifProbability,
	}
}

// Normalize fills zero fields with defaults and clamps out-of-range values
func (c *Config) Normalize() *Config {
	d := Default()
	out := *c
	if out.MarkovOrder < 1 {
		out.MarkovOrder = d.MarkovOrder
	}
	if out.Key.Tonic == 0 {
		out.Key = d.Key
	}
	if out.Tempo <= 0 {
		out.Tempo = d.Tempo
	}
	if out.TempoText == "" {
		out.TempoText = d.TempoText
	}
	if out.TitleFormat == "" {
		out.TitleFormat = d.TitleFormat
	}
	if out.Composer == "" {
		out.Composer = d.Composer
	}
	if out.MotifProbability <= 0 || out.MotifProbability > 1 {
		out.MotifProbability = d.MotifProbability
	}
	return &out
}

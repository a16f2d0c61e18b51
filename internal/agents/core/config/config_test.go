package config

import (
	"testing"

	"github.com/Conceptual-Machines/composer-api/internal/music"
	"github.com/stretchr/testify/assert"
)

func TestNormalize_FillsDefaults(t *testing.T) {
	got := (&Config{}).Normalize()
	assert.Equal(t, Default(), got)
}

func TestNormalize_KeepsOverrides(t *testing.T) {
	key, err := music.ParseKey("a minor")
	assert.NoError(t, err)

	in := &Config{MarkovOrder: 3, Seed: 9, Key: key, Tempo: 96, MotifProbability: 1.5}
	got := in.Normalize()
	assert.Equal(t, 3, got.MarkovOrder)
	assert.Equal(t, uint64(9), got.Seed)
	assert.Equal(t, key, got.Key)
	assert.Equal(t, 96, got.Tempo)
	assert.Equal(t, DefaultMotifProbability, got.MotifProbability)
	assert.Equal(t, 1.5, in.MotifProbability, "input is left untouched")
}

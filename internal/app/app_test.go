package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Conceptual-Machines/composer-api/internal/config"
	"github.com/Conceptual-Machines/composer-api/internal/patterns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterSensitiveHeaders(t *testing.T) {
	got := FilterSensitiveHeaders(map[string]string{
		"Authorization": "Bearer abc",
		"Cookie":        "access_token=abc",
		"X-Api-Key":     "k",
		"Content-Type":  "application/json",
	})
	assert.Equal(t, map[string]string{
		"Authorization": "[REDACTED]",
		"Cookie":        "[REDACTED]",
		"X-Api-Key":     "[REDACTED]",
		"Content-Type":  "application/json",
	}, got)
}

func TestLoadPatterns(t *testing.T) {
	t.Run("embedded fallback", func(t *testing.T) {
		store, err := LoadPatterns(filepath.Join(t.TempDir(), "missing.json"))
		require.NoError(t, err)
		assert.Equal(t, 40, store.Histogram(patterns.CategoryHarmonicProgressions)["V->I"])
		assert.Len(t, store.Motifs, 2)
		assert.Zero(t, store.Skipped)
	})

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "patterns.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"melodic_intervals": {"(1, 1)": 11}}`), 0o600))
		store, err := LoadPatterns(path)
		require.NoError(t, err)
		assert.Equal(t, 11, store.Histogram(patterns.CategoryMelodicIntervals)["(1, 1)"])
	})

	t.Run("corrupt file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "patterns.json")
		require.NoError(t, os.WriteFile(path, []byte(`{`), 0o600))
		_, err := LoadPatterns(path)
		assert.Error(t, err)
	})
}

func TestNewOrchestrator_TrainsOnSampleProfile(t *testing.T) {
	cfg := &config.Config{MarkovOrder: 2, HomeKey: "D major", PatternsPath: ""}
	o, err := NewOrchestrator(cfg)
	require.NoError(t, err)
	require.NotNil(t, o.Patterns())
	assert.Equal(t, "D major", o.Config().Key.String())
}

package corpus

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	apperrors "github.com/Conceptual-Machines/composer-api/internal/errors"
	"github.com/Conceptual-Machines/composer-api/internal/score"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func midiServer(t *testing.T, paths ...string) *httptest.Server {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, score.WriteMIDI(Samples()["waldstein_opening"], &buf))

	served := map[string]bool{}
	for _, p := range paths {
		served[p] = true
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !served[r.URL.Path] {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "audio/midi")
		_, _ = w.Write(buf.Bytes())
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetcher_URL(t *testing.T) {
	f := NewFetcher("https://example.com/corpus/", 0)
	w, ok := Lookup("opus53")
	require.True(t, ok)
	assert.Equal(t, "https://example.com/corpus/opus53/opus53-02.mid", f.URL(w, 2))
}

func TestFetcher_Fetch(t *testing.T) {
	srv := midiServer(t, "/opus53/opus53-01.mid")
	f := NewFetcher(srv.URL, time.Second)
	w, _ := Lookup("opus53")

	s, err := f.Fetch(context.Background(), w, 1)
	require.NoError(t, err)
	assert.Equal(t, "C major", s.Metadata.Key)
	require.NotEmpty(t, s.Parts)
	assert.Equal(t, 2, s.MeasureCount())
}

func TestFetcher_FetchNotFound(t *testing.T) {
	srv := midiServer(t)
	f := NewFetcher(srv.URL, time.Second)
	w, _ := Lookup("opus57")

	_, err := f.Fetch(context.Background(), w, 1)
	require.Error(t, err)
	assert.True(t, apperrors.IsResourceError(err))
	assert.Contains(t, err.Error(), "404")
}

func TestFetcher_FetchPeriod(t *testing.T) {
	srv := midiServer(t, "/opus53/opus53-01.mid")
	f := NewFetcher(srv.URL, time.Second)

	scores, err := f.FetchPeriod(context.Background(), PeriodMiddle)
	require.NoError(t, err)
	assert.Len(t, scores, 1)
	assert.Contains(t, scores, "opus53")
}

func TestFetcher_FetchPeriodFallsBackToSamples(t *testing.T) {
	srv := midiServer(t)
	f := NewFetcher(srv.URL, time.Second)

	scores, err := f.FetchPeriod(context.Background(), PeriodLate)
	require.NoError(t, err)
	assert.Contains(t, scores, "waldstein_opening")
	assert.Contains(t, scores, "appassionata_opening")
}

func TestFetcher_FetchPeriodCancelled(t *testing.T) {
	srv := midiServer(t)
	f := NewFetcher(srv.URL, time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.FetchPeriod(ctx, PeriodMiddle)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCatalog(t *testing.T) {
	works := Catalog()
	require.Len(t, works, 10)
	assert.Equal(t, "opus2no1", works[0].ID)
	assert.Equal(t, "opus111", works[len(works)-1].ID)
	assert.Len(t, ByPeriod(PeriodMiddle), 5)

	_, ok := Lookup("opus999")
	assert.False(t, ok)
}

func TestSamples(t *testing.T) {
	samples := Samples()
	w := samples["waldstein_opening"]
	require.Len(t, w.Parts, 1)
	assert.Len(t, w.Parts[0].Measures, 2)
	for _, m := range w.Parts[0].Measures {
		assert.Equal(t, w.MeasureLength(), m.Length())
	}

	a := samples["appassionata_opening"]
	last := a.Parts[0].Measures[len(a.Parts[0].Measures)-1]
	assert.Equal(t, a.MeasureLength(), last.Length())
	assert.Equal(t, score.KindChord, last.Elements[len(last.Elements)-1].Kind)
}

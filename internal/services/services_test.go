package services

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/Conceptual-Machines/composer-api/internal/agents/core/coordination"
	"github.com/Conceptual-Machines/composer-api/internal/corpus"
	"github.com/Conceptual-Machines/composer-api/internal/database"
	apperrors "github.com/Conceptual-Machines/composer-api/internal/errors"
	"github.com/Conceptual-Machines/composer-api/internal/models"
	"github.com/Conceptual-Machines/composer-api/internal/patterns"
	"github.com/Conceptual-Machines/composer-api/internal/score"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Connect(database.InMemory)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func seed(n uint64) *uint64 { return &n }

func TestCompositionService_ComposeAndGet(t *testing.T) {
	svc := NewCompositionService(setupDB(t), coordination.NewOrchestrator(nil), 64)

	result, err := svc.Compose(context.Background(), models.CompositionRequest{
		Measures: 16,
		Form:     "rondo",
		Seed:     seed(21),
	}, "user-1")
	require.NoError(t, err)
	require.NotNil(t, result.Record)
	assert.Len(t, result.Record.ID, 36)
	assert.Equal(t, "rondo", result.Record.Form)
	assert.Equal(t, "21", result.Record.Seed)
	assert.Equal(t, "user-1", result.Record.UserID)

	got, err := svc.Get(result.Record.ID)
	require.NoError(t, err)
	assert.Equal(t, result.Record.Title, got.Title)

	sc, err := svc.LoadScore(got)
	require.NoError(t, err)
	assert.Equal(t, result.Score.MeasureCount(), sc.MeasureCount())
	assert.Equal(t, uint64(21), sc.Metadata.Seed)
}

func TestCompositionService_ComposeWithoutSave(t *testing.T) {
	db := setupDB(t)
	svc := NewCompositionService(db, coordination.NewOrchestrator(nil), 0)
	save := false

	result, err := svc.Compose(context.Background(), models.CompositionRequest{Measures: 8, Save: &save}, "")
	require.NoError(t, err)
	assert.Nil(t, result.Record)
	assert.Equal(t, "sonata", result.Score.Metadata.Form, "unknown or empty forms default to sonata")
	assert.Equal(t, 8, result.Score.MeasureCount())

	_, total, err := svc.List(models.ListOptions{})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestCompositionService_Validation(t *testing.T) {
	svc := NewCompositionService(setupDB(t), coordination.NewOrchestrator(nil), 32)

	_, err := svc.Compose(context.Background(), models.CompositionRequest{Measures: 0}, "")
	assert.ErrorIs(t, err, apperrors.ErrInvalidMeasures)

	_, err = svc.Compose(context.Background(), models.CompositionRequest{Measures: 33}, "")
	assert.ErrorIs(t, err, ErrTooManyMeasures)

	_, err = svc.Get("missing")
	assert.ErrorIs(t, err, ErrCompositionNotFound)
}

func TestCompositionService_List(t *testing.T) {
	svc := NewCompositionService(setupDB(t), coordination.NewOrchestrator(nil), 0)
	ctx := context.Background()

	for i, form := range []string{"sonata", "rondo", "rondo"} {
		user := "alice"
		if i == 2 {
			user = "bob"
		}
		_, err := svc.Compose(ctx, models.CompositionRequest{Measures: 8, Form: form, Seed: seed(uint64(i + 1))}, user)
		require.NoError(t, err)
	}

	tests := []struct {
		name      string
		opts      models.ListOptions
		wantTotal int64
		wantLen   int
	}{
		{"all", models.ListOptions{}, 3, 3},
		{"by form", models.ListOptions{Form: "rondo"}, 2, 2},
		{"by user", models.ListOptions{UserID: "alice"}, 2, 2},
		{"limited", models.ListOptions{Limit: 1}, 3, 1},
		{"offset past end", models.ListOptions{Offset: 5}, 3, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, total, err := svc.List(tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.wantTotal, total)
			assert.Len(t, records, tt.wantLen)
			for _, r := range records {
				assert.Empty(t, r.Score, "listing omits the score body")
			}
		})
	}
}

func TestTrainingService_TrainFromStore(t *testing.T) {
	db := setupDB(t)
	path := filepath.Join(t.TempDir(), "patterns.json")
	orchestrator := coordination.NewOrchestrator(nil)
	svc := NewTrainingService(db, orchestrator, nil, path)

	store := patterns.NewStore()
	store.Histogram(patterns.CategoryMelodicIntervals).Add("(2, -1)", 40)
	store.Histogram(patterns.CategoryHarmonicProgressions).Add("ii->V", 12)

	run, err := svc.TrainFromStore(context.Background(), store, models.TrainingSourceUpload, "admin")
	require.NoError(t, err)
	assert.Equal(t, 1, run.IntervalPatterns)
	assert.Equal(t, 1, run.ChordRows)
	assert.NotZero(t, run.ID)
	assert.Same(t, store, orchestrator.Patterns())

	saved, err := patterns.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 40, saved.Histogram(patterns.CategoryMelodicIntervals)["(2, -1)"])

	runs, err := svc.Runs(0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, models.TrainingSourceUpload, runs[0].Source)
}

func TestTrainingService_TrainFromCorpusSamples(t *testing.T) {
	svc := NewTrainingService(setupDB(t), coordination.NewOrchestrator(nil), nil, "")

	run, err := svc.TrainFromCorpus(context.Background(), corpus.PeriodMiddle, "")
	require.NoError(t, err)
	assert.Equal(t, models.TrainingSourceCorpus, run.Source)
	assert.Positive(t, run.IntervalPatterns+run.RhythmPatterns)
}

func TestAnalyzeAll(t *testing.T) {
	samples := corpus.Samples()
	merged := AnalyzeAll(samples)

	var notes int
	for _, n := range merged.Histogram(patterns.CategoryNoteDurations) {
		notes += n
	}
	assert.Positive(t, notes)

	single := AnalyzeAll(map[string]*score.Score{"only": samples["waldstein_opening"], "nil": nil})
	assert.Equal(t, 16, single.Histogram(patterns.CategoryNoteDurations)["1/2"])
}

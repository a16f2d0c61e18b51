package services

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/Conceptual-Machines/composer-api/internal/agents/core/coordination"
	"github.com/Conceptual-Machines/composer-api/internal/analysis"
	"github.com/Conceptual-Machines/composer-api/internal/corpus"
	"github.com/Conceptual-Machines/composer-api/internal/logger"
	"github.com/Conceptual-Machines/composer-api/internal/models"
	"github.com/Conceptual-Machines/composer-api/internal/patterns"
	"github.com/Conceptual-Machines/composer-api/internal/score"
	"gorm.io/gorm"
)

type TrainingService struct {
	db           *gorm.DB
	orchestrator *coordination.Orchestrator
	fetcher      *corpus.Fetcher
	patternsPath string
}

// NewTrainingService wires retraining. An empty patternsPath disables
// persisting the learned patterns; a nil fetcher trains corpus runs on the
// built-in samples.
func NewTrainingService(db *gorm.DB, orchestrator *coordination.Orchestrator, fetcher *corpus.Fetcher, patternsPath string) *TrainingService {
	return &TrainingService{db: db, orchestrator: orchestrator, fetcher: fetcher, patternsPath: patternsPath}
}

// TrainFromStore retrains the models on a pattern store and records the run
func (s *TrainingService) TrainFromStore(ctx context.Context, store *patterns.Store, source, userID string) (*models.TrainingRun, error) {
	start := time.Now()
	report := s.orchestrator.Train(store)

	run := &models.TrainingRun{
		UserID:           userID,
		Source:           source,
		IntervalPatterns: report.IntervalPatterns,
		RhythmPatterns:   report.RhythmPatterns,
		ChordRows:        report.ChordRows,
		Motifs:           report.Motifs,
		Skipped:          report.Skipped,
		PitchStates:      report.Model.PitchStates,
		DurationMS:       time.Since(start).Milliseconds(),
	}
	if s.db != nil {
		if err := s.db.Create(run).Error; err != nil {
			return nil, fmt.Errorf("failed to record training run: %w", err)
		}
	}

	if s.patternsPath != "" && store != nil {
		if err := store.Save(s.patternsPath); err != nil {
			// the models are already retrained, so a failed save only loses persistence
			logger.Error("Failed to persist patterns", err, logger.Fields{
				"path":   s.patternsPath,
				"source": source,
			})
		}
	}

	entries := 0
	if store != nil {
		entries = store.Count()
	}
	logger.LogTraining(ctx, source, entries, time.Since(start), logger.Fields{
		"motifs":  run.Motifs,
		"skipped": run.Skipped,
	})
	return run, nil
}

// TrainFromScores analyzes each score, merges the results and retrains
func (s *TrainingService) TrainFromScores(ctx context.Context, scores map[string]*score.Score, source, userID string) (*models.TrainingRun, *patterns.Store, error) {
	store := AnalyzeAll(scores)
	run, err := s.TrainFromStore(ctx, store, source, userID)
	return run, store, err
}

// TrainFromCorpus downloads the works of a period and retrains on them
func (s *TrainingService) TrainFromCorpus(ctx context.Context, period corpus.Period, userID string) (*models.TrainingRun, error) {
	scores := corpus.Samples()
	if s.fetcher != nil {
		fetched, err := s.fetcher.FetchPeriod(ctx, period)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch corpus: %w", err)
		}
		scores = fetched
	}
	run, _, err := s.TrainFromScores(ctx, scores, models.TrainingSourceCorpus, userID)
	return run, err
}

// Runs lists recent training runs, newest first
func (s *TrainingService) Runs(limit int) ([]models.TrainingRun, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	var runs []models.TrainingRun
	if err := s.db.Order("created_at DESC").Limit(min(limit, maxListLimit)).Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("failed to list training runs: %w", err)
	}
	return runs, nil
}

// AnalyzeAll merges the pattern statistics of several scores in name order
func AnalyzeAll(scores map[string]*score.Score) *patterns.Store {
	store := patterns.NewStore()
	for _, name := range slices.Sorted(maps.Keys(scores)) {
		if sc := scores[name]; sc != nil {
			store.Merge(analysis.Analyze(sc))
		}
	}
	return store
}

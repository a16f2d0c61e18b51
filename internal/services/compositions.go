package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Conceptual-Machines/composer-api/internal/agents/core/coordination"
	"github.com/Conceptual-Machines/composer-api/internal/agents/structure"
	apperrors "github.com/Conceptual-Machines/composer-api/internal/errors"
	"github.com/Conceptual-Machines/composer-api/internal/logger"
	"github.com/Conceptual-Machines/composer-api/internal/models"
	"github.com/Conceptual-Machines/composer-api/internal/score"
	"gorm.io/gorm"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

var (
	ErrCompositionNotFound = errors.New("composition not found")
	ErrTooManyMeasures     = errors.New("too many measures")
)

type CompositionService struct {
	db           *gorm.DB
	orchestrator *coordination.Orchestrator
	maxMeasures  int
}

func NewCompositionService(db *gorm.DB, orchestrator *coordination.Orchestrator, maxMeasures int) *CompositionService {
	return &CompositionService{db: db, orchestrator: orchestrator, maxMeasures: maxMeasures}
}

// ComposeResult is a generated score and, when it was saved, its record
type ComposeResult struct {
	Score    *score.Score
	Record   *models.Composition
	Duration time.Duration
}

// Compose generates a piece for the request and stores it unless the
// request opts out. Unknown forms fall back to sonata.
func (s *CompositionService) Compose(ctx context.Context, req models.CompositionRequest, userID string) (*ComposeResult, error) {
	if req.Measures <= 0 {
		return nil, fmt.Errorf("%w: %d", apperrors.ErrInvalidMeasures, req.Measures)
	}
	if s.maxMeasures > 0 && req.Measures > s.maxMeasures {
		return nil, fmt.Errorf("%w: %d exceeds %d", ErrTooManyMeasures, req.Measures, s.maxMeasures)
	}

	form := structure.ParseForm(req.Form)
	start := time.Now()
	var (
		sc  *score.Score
		err error
	)
	if req.Seed != nil {
		sc, err = s.orchestrator.ComposeWithSeed(ctx, req.Measures, form, *req.Seed)
	} else {
		sc, err = s.orchestrator.Compose(ctx, req.Measures, form)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to compose: %w", err)
	}
	result := &ComposeResult{Score: sc, Duration: time.Since(start)}

	logger.LogComposition(ctx, string(form), req.Measures, result.Duration, logger.Fields{
		"seed":    sc.Metadata.Seed,
		"user_id": userID,
	})

	if !req.ShouldSave() {
		logger.Debug("Composition not saved", logger.Fields{"form": string(form)})
		return result, nil
	}
	record, err := s.save(sc, req.Measures, userID, result.Duration)
	if err != nil {
		return nil, err
	}
	result.Record = record
	return result, nil
}

func (s *CompositionService) save(sc *score.Score, measures int, userID string, took time.Duration) (*models.Composition, error) {
	var buf bytes.Buffer
	if err := score.WriteJSON(sc, &buf); err != nil {
		return nil, fmt.Errorf("failed to encode score: %w", err)
	}
	record := &models.Composition{
		UserID:     userID,
		Title:      sc.Metadata.Title,
		Form:       sc.Metadata.Form,
		Measures:   measures,
		Seed:       strconv.FormatUint(sc.Metadata.Seed, 10),
		Key:        sc.Metadata.Key,
		DurationMS: took.Milliseconds(),
		Score:      buf.String(),
	}
	if err := s.db.Create(record).Error; err != nil {
		return nil, fmt.Errorf("failed to save composition: %w", err)
	}
	return record, nil
}

// List returns stored compositions newest first, with the total matching count
func (s *CompositionService) List(opts models.ListOptions) ([]models.Composition, int64, error) {
	query := s.db.Model(&models.Composition{})
	if opts.UserID != "" {
		query = query.Where("user_id = ?", opts.UserID)
	}
	if opts.Form != "" {
		query = query.Where("form = ?", opts.Form)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count compositions: %w", err)
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	limit = min(limit, maxListLimit)

	var records []models.Composition
	if err := query.Omit("score").Order("created_at DESC").Limit(limit).Offset(max(opts.Offset, 0)).
		Find(&records).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list compositions: %w", err)
	}
	return records, total, nil
}

// Get fetches one stored composition including its score
func (s *CompositionService) Get(id string) (*models.Composition, error) {
	var record models.Composition
	if err := s.db.Where("id = ?", strings.TrimSpace(id)).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrCompositionNotFound, id)
		}
		return nil, fmt.Errorf("failed to get composition: %w", err)
	}
	return &record, nil
}

// LoadScore decodes the score stored with a record
func (s *CompositionService) LoadScore(record *models.Composition) (*score.Score, error) {
	return score.ReadJSON(strings.NewReader(record.Score))
}

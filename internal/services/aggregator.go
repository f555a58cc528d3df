package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/wellbeam/burnout-backend/internal/logger"
	"github.com/wellbeam/burnout-backend/internal/repos"
)

// DefaultWindowDays is the trailing window used for burnout features,
// inclusive of the submission day.
const DefaultWindowDays = 7

// FeatureVector is the rolling mean of each score dimension over the
// qualifying window.
type FeatureVector struct {
	AvgTired      float64
	AvgCapable    float64
	AvgMeaningful float64
	// SampleCount is the number of rows that contributed. It can exceed
	// the window size when a day has duplicate submissions; every row
	// counts.
	SampleCount int
}

// AggregatorService computes the rolling feature vector for a user.
// Aggregate is a pure read: calling it twice against the same stored
// state yields the same result.
type AggregatorService interface {
	// Aggregate returns nil (not an error) when the trailing window
	// holds fewer than windowDays qualifying rows: the insufficient
	// history gate.
	Aggregate(ctx context.Context, tx *gorm.DB, userID uuid.UUID, asOf time.Time, windowDays int) (*FeatureVector, error)
}

type aggregatorService struct {
	db             *gorm.DB
	log            *logger.Logger
	assessmentRepo repos.AssessmentRepo
}

func NewAggregatorService(db *gorm.DB, log *logger.Logger, assessmentRepo repos.AssessmentRepo) AggregatorService {
	return &aggregatorService{
		db:             db,
		log:            log.With("service", "AggregatorService"),
		assessmentRepo: assessmentRepo,
	}
}

func (s *aggregatorService) Aggregate(ctx context.Context, tx *gorm.DB, userID uuid.UUID, asOf time.Time, windowDays int) (*FeatureVector, error) {
	if windowDays <= 0 {
		return nil, fmt.Errorf("window days must be positive, got %d", windowDays)
	}
	to := dayOf(asOf)
	from := to.AddDate(0, 0, -(windowDays - 1))

	rows, err := s.assessmentRepo.GetInWindow(ctx, tx, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("read rolling window: %w", err)
	}
	if len(rows) < windowDays {
		s.log.Debug("insufficient history for aggregation",
			"user_id", userID, "rows", len(rows), "window_days", windowDays)
		return nil, nil
	}

	var sumTired, sumCapable, sumMeaningful float64
	for _, row := range rows {
		sumTired += float64(row.TiredScore)
		sumCapable += float64(row.CapableScore)
		sumMeaningful += float64(row.MeaningfulScore)
	}
	n := float64(len(rows))
	return &FeatureVector{
		AvgTired:      sumTired / n,
		AvgCapable:    sumCapable / n,
		AvgMeaningful: sumMeaningful / n,
		SampleCount:   len(rows),
	}, nil
}

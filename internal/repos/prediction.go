package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/wellbeam/burnout-backend/internal/logger"
	"github.com/wellbeam/burnout-backend/internal/types"
)

type PredictionRepo interface {
	Create(ctx context.Context, tx *gorm.DB, predictions []*types.Prediction) ([]*types.Prediction, error)
	GetByAssessmentIDs(ctx context.Context, tx *gorm.DB, assessmentIDs []uuid.UUID) ([]*types.Prediction, error)
	// GetForDate returns predictions whose owning assessment falls on the
	// given day, newest first. Under duplicate same-day submissions the
	// first element is the tie-break winner.
	GetForDate(ctx context.Context, tx *gorm.DB, userID uuid.UUID, day time.Time) ([]*types.Prediction, error)
	// GetRecentBefore returns up to limit predictions whose assessment is
	// strictly before the given day, ordered by creation time descending.
	GetRecentBefore(ctx context.Context, tx *gorm.DB, userID uuid.UUID, day time.Time, limit int) ([]*types.Prediction, error)
}

type predictionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPredictionRepo(db *gorm.DB, baseLog *logger.Logger) PredictionRepo {
	return &predictionRepo{db: db, log: baseLog.With("repo", "PredictionRepo")}
}

func (r *predictionRepo) Create(ctx context.Context, tx *gorm.DB, predictions []*types.Prediction) ([]*types.Prediction, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(predictions) == 0 {
		return []*types.Prediction{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&predictions).Error; err != nil {
		return nil, err
	}
	return predictions, nil
}

func (r *predictionRepo) GetByAssessmentIDs(ctx context.Context, tx *gorm.DB, assessmentIDs []uuid.UUID) ([]*types.Prediction, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Prediction
	if len(assessmentIDs) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("assessment_id IN ?", assessmentIDs).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *predictionRepo) GetForDate(ctx context.Context, tx *gorm.DB, userID uuid.UUID, day time.Time) ([]*types.Prediction, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Prediction
	if userID == uuid.Nil {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Model(&types.Prediction{}).
		Select("prediction.*").
		Joins("JOIN assessment ON assessment.id = prediction.assessment_id").
		Where("assessment.user_id = ? AND assessment.date = ?", userID, day).
		Order("prediction.created_at DESC, prediction.id DESC").
		Preload("Assessment").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *predictionRepo) GetRecentBefore(ctx context.Context, tx *gorm.DB, userID uuid.UUID, day time.Time, limit int) ([]*types.Prediction, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Prediction
	if userID == uuid.Nil || limit <= 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Model(&types.Prediction{}).
		Select("prediction.*").
		Joins("JOIN assessment ON assessment.id = prediction.assessment_id").
		Where("assessment.user_id = ? AND assessment.date < ?", userID, day).
		Order("prediction.created_at DESC, prediction.id DESC").
		Limit(limit).
		Preload("Assessment").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

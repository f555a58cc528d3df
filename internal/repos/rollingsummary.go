package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/wellbeam/burnout-backend/internal/logger"
	"github.com/wellbeam/burnout-backend/internal/types"
)

type RollingSummaryRepo interface {
	Create(ctx context.Context, tx *gorm.DB, summaries []*types.RollingSummary) ([]*types.RollingSummary, error)
	GetLatestByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.RollingSummary, error)
}

type rollingSummaryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRollingSummaryRepo(db *gorm.DB, baseLog *logger.Logger) RollingSummaryRepo {
	return &rollingSummaryRepo{db: db, log: baseLog.With("repo", "RollingSummaryRepo")}
}

func (r *rollingSummaryRepo) Create(ctx context.Context, tx *gorm.DB, summaries []*types.RollingSummary) ([]*types.RollingSummary, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(summaries) == 0 {
		return []*types.RollingSummary{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&summaries).Error; err != nil {
		return nil, err
	}
	return summaries, nil
}

func (r *rollingSummaryRepo) GetLatestByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (*types.RollingSummary, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if userID == uuid.Nil {
		return nil, nil
	}
	var result types.RollingSummary
	err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		First(&result).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}

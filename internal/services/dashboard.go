package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/wellbeam/burnout-backend/internal/logger"
	"github.com/wellbeam/burnout-backend/internal/repos"
	"github.com/wellbeam/burnout-backend/internal/requestdata"
	"github.com/wellbeam/burnout-backend/internal/types"
)

// RecentPredictionLimit caps the dashboard history list.
const RecentPredictionLimit = 5

type PredictionView struct {
	Date         string  `json:"date"`
	BurnoutRisk  bool    `json:"burnout_risk"`
	Confidence   float64 `json:"confidence"`
	Label        string  `json:"label,omitempty"`
	ModelVersion string  `json:"model_version"`
}

type DashboardView struct {
	TodayPrediction   *PredictionView  `json:"today_prediction"`
	RecentPredictions []PredictionView `json:"recent_predictions"`
}

// DashboardService projects persisted predictions for display. Pure
// read: no aggregates are recomputed, no rows are written.
type DashboardService interface {
	Project(ctx context.Context, today time.Time) (*DashboardView, error)
}

type dashboardService struct {
	db             *gorm.DB
	log            *logger.Logger
	predictionRepo repos.PredictionRepo
	cache          *DashboardCache
}

func NewDashboardService(db *gorm.DB, log *logger.Logger, predictionRepo repos.PredictionRepo, cache *DashboardCache) DashboardService {
	return &dashboardService{
		db:             db,
		log:            log.With("service", "DashboardService"),
		predictionRepo: predictionRepo,
		cache:          cache,
	}
}

func (s *dashboardService) Project(ctx context.Context, today time.Time) (*DashboardView, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, ErrUnauthorized
	}
	userID := rd.UserID
	day := dayOf(today)

	if cached := s.cache.Get(ctx, userID, day); cached != nil {
		return cached, nil
	}

	// The two reads are independent, fetch them concurrently.
	var todays, recent []*types.Prediction
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		todays, err = s.predictionRepo.GetForDate(gctx, nil, userID, day)
		if err != nil {
			return fmt.Errorf("load today's prediction: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		recent, err = s.predictionRepo.GetRecentBefore(gctx, nil, userID, day, RecentPredictionLimit)
		if err != nil {
			return fmt.Errorf("load recent predictions: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	view := &DashboardView{
		RecentPredictions: make([]PredictionView, 0, len(recent)),
	}
	if len(todays) > 0 {
		// Duplicate same-day submissions: the repo orders newest first,
		// so element 0 is the documented tie-break winner.
		v := toPredictionView(todays[0])
		view.TodayPrediction = &v
	}
	for _, p := range recent {
		view.RecentPredictions = append(view.RecentPredictions, toPredictionView(p))
	}

	s.cache.Set(ctx, userID, day, view)
	return view, nil
}

func toPredictionView(p *types.Prediction) PredictionView {
	view := PredictionView{
		BurnoutRisk:  p.BurnoutRisk,
		Confidence:   p.Confidence,
		Label:        p.Label,
		ModelVersion: p.ModelVersion,
	}
	if p.Assessment != nil {
		view.Date = p.Assessment.Date.Format("2006-01-02")
	}
	return view
}

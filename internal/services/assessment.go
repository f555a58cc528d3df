package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/wellbeam/burnout-backend/internal/logger"
	"github.com/wellbeam/burnout-backend/internal/model"
	"github.com/wellbeam/burnout-backend/internal/repos"
	"github.com/wellbeam/burnout-backend/internal/requestdata"
	"github.com/wellbeam/burnout-backend/internal/types"
)

// InsufficientHistoryMessage is returned on the unscored branch. Not an
// error: the assessment is saved either way.
const InsufficientHistoryMessage = "Assessment saved. Burnout prediction will be available after 7 entries."

const (
	scoreMin = 0
	scoreMax = 6
)

// Pipeline states, logged per transition.
const (
	stateReceived   = "RECEIVED"
	stateAggregated = "AGGREGATED"
	stateScored     = "SCORED"
	stateUnscored   = "UNSCORED"
	statePersisted  = "PERSISTED"
)

// SubmitResult is the caller-visible outcome of one submission. Risk and
// Confidence are nil on the unscored branch, with Message explaining why.
type SubmitResult struct {
	AssessmentID uuid.UUID `json:"assessment_id"`
	BurnoutRisk  *bool     `json:"burnout_risk"`
	Confidence   *float64  `json:"confidence"`
	Label        string    `json:"label,omitempty"`
	ModelVersion string    `json:"model_version,omitempty"`
	Message      string    `json:"message,omitempty"`
}

// AssessmentService runs the submission pipeline: validate, persist the
// assessment, aggregate the trailing window, gate, score, persist the
// prediction. Assessment, prediction and summary commit in one
// transaction; the audit write is best-effort after commit.
type AssessmentService interface {
	Submit(ctx context.Context, tired, capable, meaningful int) (*SubmitResult, error)
}

type assessmentService struct {
	db             *gorm.DB
	log            *logger.Logger
	assessmentRepo repos.AssessmentRepo
	predictionRepo repos.PredictionRepo
	summaryRepo    repos.RollingSummaryRepo
	aggregator     AggregatorService
	artifact       *model.Artifact
	auditService   AuditService
	dashboardCache *DashboardCache
	tracer         trace.Tracer

	// now is swapped out by tests to pin the submission day.
	now func() time.Time
}

func NewAssessmentService(
	db *gorm.DB,
	log *logger.Logger,
	assessmentRepo repos.AssessmentRepo,
	predictionRepo repos.PredictionRepo,
	summaryRepo repos.RollingSummaryRepo,
	aggregator AggregatorService,
	artifact *model.Artifact,
	auditService AuditService,
	dashboardCache *DashboardCache,
) AssessmentService {
	return &assessmentService{
		db:             db,
		log:            log.With("service", "AssessmentService"),
		assessmentRepo: assessmentRepo,
		predictionRepo: predictionRepo,
		summaryRepo:    summaryRepo,
		aggregator:     aggregator,
		artifact:       artifact,
		auditService:   auditService,
		dashboardCache: dashboardCache,
		tracer:         otel.Tracer("assessment-pipeline"),
		now:            time.Now,
	}
}

func (s *assessmentService) Submit(ctx context.Context, tired, capable, meaningful int) (*SubmitResult, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.UserID == uuid.Nil {
		return nil, ErrUnauthorized
	}
	userID := rd.UserID

	ctx, span := s.tracer.Start(ctx, "assessment.submit")
	defer span.End()

	// RECEIVED: reject out-of-domain scores before anything is written.
	if err := validateScores(tired, capable, meaningful); err != nil {
		return nil, err
	}
	s.log.Debug("pipeline transition", "state", stateReceived, "user_id", userID)

	today := dayOf(s.now())
	assessment := &types.Assessment{
		UserID:          userID,
		Date:            today,
		TiredScore:      tired,
		CapableScore:    capable,
		MeaningfulScore: meaningful,
	}

	result := &SubmitResult{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// The new row is written first so it counts toward its own
		// window; aggregation always sees it.
		if _, err := s.assessmentRepo.Create(ctx, tx, []*types.Assessment{assessment}); err != nil {
			return fmt.Errorf("persist assessment: %w", err)
		}
		result.AssessmentID = assessment.ID

		features, err := s.aggregator.Aggregate(ctx, tx, userID, today, DefaultWindowDays)
		if err != nil {
			return err
		}
		s.log.Debug("pipeline transition", "state", stateAggregated, "user_id", userID)

		if features == nil {
			// Gate: legitimate outcome, the assessment stays with no
			// prediction attached.
			s.log.Debug("pipeline transition", "state", stateUnscored, "user_id", userID)
			result.Message = InsufficientHistoryMessage
			return nil
		}

		verdict := s.artifact.Score(features.AvgTired, features.AvgCapable, features.AvgMeaningful)
		span.SetAttributes(
			attribute.String("prediction.label", verdict.Label),
			attribute.Bool("prediction.risk", verdict.BurnoutRisk),
		)
		s.log.Debug("pipeline transition", "state", stateScored,
			"user_id", userID, "label", verdict.Label, "confidence", verdict.Confidence)

		prediction := &types.Prediction{
			AssessmentID: assessment.ID,
			BurnoutRisk:  verdict.BurnoutRisk,
			Label:        verdict.Label,
			Confidence:   verdict.Confidence,
			ModelVersion: verdict.ModelVersion,
		}
		if _, err := s.predictionRepo.Create(ctx, tx, []*types.Prediction{prediction}); err != nil {
			return fmt.Errorf("persist prediction: %w", err)
		}

		if err := s.writeSummary(ctx, tx, userID, today, features); err != nil {
			return err
		}

		risk := verdict.BurnoutRisk
		confidence := verdict.Confidence
		result.BurnoutRisk = &risk
		result.Confidence = &confidence
		result.Label = verdict.Label
		result.ModelVersion = verdict.ModelVersion
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Debug("pipeline transition", "state", statePersisted,
		"user_id", userID, "assessment_id", assessment.ID)

	s.dashboardCache.Invalidate(ctx, userID, today)

	// Audit is fire-and-forget: it must neither block nor fail the
	// submission, which is already committed.
	go func(assessmentID uuid.UUID) {
		auditCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.auditService.Record(auditCtx, userID, "submit_assessment", fmt.Sprintf("assessment_id=%s", assessmentID))
	}(assessment.ID)

	return result, nil
}

// writeSummary persists the derived rolling summary as an audit trail.
// It rides in the submission transaction but is never read back for
// correctness.
func (s *assessmentService) writeSummary(ctx context.Context, tx *gorm.DB, userID uuid.UUID, today time.Time, features *FeatureVector) error {
	featuresJSON, err := json.Marshal(map[string]float64{
		"avg_tired":      features.AvgTired,
		"avg_capable":    features.AvgCapable,
		"avg_meaningful": features.AvgMeaningful,
	})
	if err != nil {
		return fmt.Errorf("marshal summary features: %w", err)
	}
	summary := &types.RollingSummary{
		UserID:        userID,
		SummaryDate:   today,
		AvgTired:      features.AvgTired,
		AvgCapable:    features.AvgCapable,
		AvgMeaningful: features.AvgMeaningful,
		WindowSize:    DefaultWindowDays,
		Features:      datatypes.JSON(featuresJSON),
	}
	if _, err := s.summaryRepo.Create(ctx, tx, []*types.RollingSummary{summary}); err != nil {
		return fmt.Errorf("persist rolling summary: %w", err)
	}
	return nil
}

func validateScores(tired, capable, meaningful int) error {
	for _, sc := range []struct {
		field string
		value int
	}{
		{"tired_score", tired},
		{"capable_score", capable},
		{"meaningful_score", meaningful},
	} {
		if sc.value < scoreMin || sc.value > scoreMax {
			return &ValidationError{
				Field:  sc.field,
				Reason: fmt.Sprintf("must be between %d and %d, got %d", scoreMin, scoreMax, sc.value),
			}
		}
	}
	return nil
}

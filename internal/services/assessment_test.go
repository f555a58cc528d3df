package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/wellbeam/burnout-backend/internal/repos"
	"github.com/wellbeam/burnout-backend/internal/types"
)

func newTestAssessmentService(t *testing.T, gdb *gorm.DB, now time.Time) AssessmentService {
	t.Helper()
	log := testLogger(t)
	assessmentRepo := repos.NewAssessmentRepo(gdb, log)
	svc := NewAssessmentService(
		gdb,
		log,
		assessmentRepo,
		repos.NewPredictionRepo(gdb, log),
		repos.NewRollingSummaryRepo(gdb, log),
		NewAggregatorService(gdb, log, assessmentRepo),
		testArtifact(t),
		NewAuditService(gdb, log, repos.NewAuditLogRepo(gdb, log)),
		nil,
	)
	svc.(*assessmentService).now = func() time.Time { return now }
	return svc
}

func TestSubmit_FirstEntryIsGatedButPersisted(t *testing.T) {
	gdb := openTestDB(t)
	user := seedUser(t, gdb)
	now := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	svc := newTestAssessmentService(t, gdb, now)

	result, err := svc.Submit(authedCtx(user.ID), 4, 2, 3)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.BurnoutRisk != nil || result.Confidence != nil {
		t.Fatalf("expected nil risk/confidence on gated submission, got %+v", result)
	}
	if result.Message != InsufficientHistoryMessage {
		t.Fatalf("expected gate message %q, got %q", InsufficientHistoryMessage, result.Message)
	}

	var assessmentCount, predictionCount int64
	gdb.Model(&types.Assessment{}).Where("user_id = ?", user.ID).Count(&assessmentCount)
	gdb.Model(&types.Prediction{}).Count(&predictionCount)
	if assessmentCount != 1 {
		t.Fatalf("expected 1 persisted assessment, got %d", assessmentCount)
	}
	if predictionCount != 0 {
		t.Fatalf("gated submission must not write a prediction, got %d", predictionCount)
	}
}

func TestSubmit_SeventhEntryProducesPrediction(t *testing.T) {
	gdb := openTestDB(t)
	user := seedUser(t, gdb)
	now := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	svc := newTestAssessmentService(t, gdb, now)

	for i := 1; i <= 6; i++ {
		seedAssessment(t, gdb, user.ID, now.AddDate(0, 0, -i), 3, 3, 3)
	}

	result, err := svc.Submit(authedCtx(user.ID), 5, 1, 2)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.BurnoutRisk == nil || result.Confidence == nil {
		t.Fatalf("expected scored result at window threshold, got %+v", result)
	}
	if result.Message != "" {
		t.Fatalf("scored result must carry no gate message, got %q", result.Message)
	}
	if result.ModelVersion != "test-1" {
		t.Fatalf("expected model version test-1, got %q", result.ModelVersion)
	}
	if *result.Confidence <= 0 || *result.Confidence > 1 {
		t.Fatalf("confidence out of range: %v", *result.Confidence)
	}

	var prediction types.Prediction
	if err := gdb.Where("assessment_id = ?", result.AssessmentID).First(&prediction).Error; err != nil {
		t.Fatalf("load prediction: %v", err)
	}
	if prediction.BurnoutRisk != *result.BurnoutRisk {
		t.Fatalf("stored risk %v differs from returned %v", prediction.BurnoutRisk, *result.BurnoutRisk)
	}

	var summary types.RollingSummary
	if err := gdb.Where("user_id = ?", user.ID).First(&summary).Error; err != nil {
		t.Fatalf("load rolling summary: %v", err)
	}
	if summary.WindowSize != DefaultWindowDays || summary.AvgTired == 0 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
}

func TestSubmit_SixEntriesStayGated(t *testing.T) {
	gdb := openTestDB(t)
	user := seedUser(t, gdb)
	now := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	svc := newTestAssessmentService(t, gdb, now)

	for i := 1; i <= 5; i++ {
		seedAssessment(t, gdb, user.ID, now.AddDate(0, 0, -i), 3, 3, 3)
	}

	// Sixth row total: one short of the window.
	result, err := svc.Submit(authedCtx(user.ID), 3, 3, 3)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.BurnoutRisk != nil {
		t.Fatalf("expected gated result at 6 entries, got %+v", result)
	}
	if result.Message != InsufficientHistoryMessage {
		t.Fatalf("expected gate message, got %q", result.Message)
	}
}

func TestSubmit_OutOfRangeScoreWritesNothing(t *testing.T) {
	gdb := openTestDB(t)
	user := seedUser(t, gdb)
	svc := newTestAssessmentService(t, gdb, time.Now().UTC())

	cases := []struct {
		name                     string
		tired, capable, meaningful int
	}{
		{"tired below range", -1, 3, 3},
		{"tired above range", 7, 3, 3},
		{"capable above range", 3, 10, 3},
		{"meaningful below range", 3, 3, -2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Submit(authedCtx(user.ID), tc.tired, tc.capable, tc.meaningful)
			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
		})
	}

	var count int64
	gdb.Model(&types.Assessment{}).Count(&count)
	if count != 0 {
		t.Fatalf("rejected submissions must write nothing, found %d rows", count)
	}
}

func TestSubmit_RequiresIdentity(t *testing.T) {
	gdb := openTestDB(t)
	svc := newTestAssessmentService(t, gdb, time.Now().UTC())

	if _, err := svc.Submit(context.Background(), 3, 3, 3); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized without request identity, got %v", err)
	}
}

func TestPrediction_SecondRowPerAssessmentRejected(t *testing.T) {
	gdb := openTestDB(t)
	user := seedUser(t, gdb)
	a := seedAssessment(t, gdb, user.ID, time.Now().UTC(), 3, 3, 3)

	first := &types.Prediction{AssessmentID: a.ID, Label: "Low", Confidence: 0.9, ModelVersion: "test-1"}
	if err := gdb.Create(first).Error; err != nil {
		t.Fatalf("create first prediction: %v", err)
	}
	second := &types.Prediction{AssessmentID: a.ID, Label: "High", BurnoutRisk: true, Confidence: 0.8, ModelVersion: "test-1"}
	err := gdb.Create(second).Error
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Fatalf("expected duplicate key error for second prediction, got %v", err)
	}
}

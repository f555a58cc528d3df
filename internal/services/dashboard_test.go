package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/wellbeam/burnout-backend/internal/repos"
	"github.com/wellbeam/burnout-backend/internal/types"
)

func newTestDashboardService(t *testing.T, gdb *gorm.DB) DashboardService {
	t.Helper()
	log := testLogger(t)
	return NewDashboardService(gdb, log, repos.NewPredictionRepo(gdb, log), nil)
}

func seedPrediction(t *testing.T, gdb *gorm.DB, userID uuid.UUID, day time.Time, label string, createdAt time.Time) *types.Prediction {
	t.Helper()
	a := seedAssessment(t, gdb, userID, day, 3, 3, 3)
	p := &types.Prediction{
		AssessmentID: a.ID,
		BurnoutRisk:  label == "High",
		Label:        label,
		Confidence:   0.75,
		ModelVersion: "test-1",
		CreatedAt:    createdAt,
	}
	if err := gdb.Create(p).Error; err != nil {
		t.Fatalf("seed prediction: %v", err)
	}
	return p
}

func TestProject_EmptyHistory(t *testing.T) {
	gdb := openTestDB(t)
	user := seedUser(t, gdb)
	svc := newTestDashboardService(t, gdb)

	view, err := svc.Project(authedCtx(user.ID), time.Now().UTC())
	if err != nil {
		t.Fatalf("project: %v", err)
	}
	if view.TodayPrediction != nil {
		t.Fatalf("expected no today prediction, got %+v", view.TodayPrediction)
	}
	if len(view.RecentPredictions) != 0 {
		t.Fatalf("expected empty recent list, got %d entries", len(view.RecentPredictions))
	}
}

func TestProject_RecentCappedAndNewestFirst(t *testing.T) {
	gdb := openTestDB(t)
	user := seedUser(t, gdb)
	svc := newTestDashboardService(t, gdb)

	today := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)
	// Eight prior days, more than the dashboard shows.
	for i := 1; i <= 8; i++ {
		day := today.AddDate(0, 0, -i)
		seedPrediction(t, gdb, user.ID, day, "Moderate", day.Add(20*time.Hour))
	}

	view, err := svc.Project(authedCtx(user.ID), today)
	if err != nil {
		t.Fatalf("project: %v", err)
	}
	if len(view.RecentPredictions) != RecentPredictionLimit {
		t.Fatalf("expected %d recent predictions, got %d", RecentPredictionLimit, len(view.RecentPredictions))
	}
	// Newest first: yesterday leads, then strictly older days.
	prev := ""
	for i, p := range view.RecentPredictions {
		if i == 0 {
			if want := today.AddDate(0, 0, -1).Format("2006-01-02"); p.Date != want {
				t.Fatalf("expected most recent date %s first, got %s", want, p.Date)
			}
		} else if p.Date >= prev {
			t.Fatalf("recent predictions out of order: %s after %s", p.Date, prev)
		}
		prev = p.Date
	}
}

func TestProject_TodayExcludedFromRecent(t *testing.T) {
	gdb := openTestDB(t)
	user := seedUser(t, gdb)
	svc := newTestDashboardService(t, gdb)

	today := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)
	seedPrediction(t, gdb, user.ID, today, "High", today.Add(9*time.Hour))
	seedPrediction(t, gdb, user.ID, today.AddDate(0, 0, -1), "Low", today.Add(-15*time.Hour))

	view, err := svc.Project(authedCtx(user.ID), today)
	if err != nil {
		t.Fatalf("project: %v", err)
	}
	if view.TodayPrediction == nil || view.TodayPrediction.Label != "High" {
		t.Fatalf("expected today's High prediction, got %+v", view.TodayPrediction)
	}
	if !view.TodayPrediction.BurnoutRisk {
		t.Fatal("High label must project burnout_risk=true")
	}
	if len(view.RecentPredictions) != 1 || view.RecentPredictions[0].Label != "Low" {
		t.Fatalf("expected only yesterday's prediction in recent, got %+v", view.RecentPredictions)
	}
}

func TestProject_SameDayDuplicatesNewestWins(t *testing.T) {
	gdb := openTestDB(t)
	user := seedUser(t, gdb)
	svc := newTestDashboardService(t, gdb)

	today := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)
	seedPrediction(t, gdb, user.ID, today, "Low", today.Add(8*time.Hour))
	seedPrediction(t, gdb, user.ID, today, "High", today.Add(18*time.Hour))

	view, err := svc.Project(authedCtx(user.ID), today)
	if err != nil {
		t.Fatalf("project: %v", err)
	}
	if view.TodayPrediction == nil {
		t.Fatal("expected a today prediction")
	}
	if view.TodayPrediction.Label != "High" {
		t.Fatalf("expected the later submission to win, got %q", view.TodayPrediction.Label)
	}
}

func TestProject_RequiresIdentity(t *testing.T) {
	gdb := openTestDB(t)
	svc := newTestDashboardService(t, gdb)

	if _, err := svc.Project(context.Background(), time.Now()); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestProject_DoesNotWrite(t *testing.T) {
	gdb := openTestDB(t)
	user := seedUser(t, gdb)
	svc := newTestDashboardService(t, gdb)

	today := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)
	seedPrediction(t, gdb, user.ID, today.AddDate(0, 0, -1), "Low", today.Add(-10*time.Hour))

	var before, after int64
	gdb.Model(&types.Prediction{}).Count(&before)
	if _, err := svc.Project(authedCtx(user.ID), today); err != nil {
		t.Fatalf("project: %v", err)
	}
	gdb.Model(&types.Prediction{}).Count(&after)
	if before != after {
		t.Fatalf("projection wrote rows: before=%d after=%d", before, after)
	}
}

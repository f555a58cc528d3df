package services

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/wellbeam/burnout-backend/internal/repos"
)

func TestAggregate_ReturnsNilBelowWindowThreshold(t *testing.T) {
	gdb := openTestDB(t)
	log := testLogger(t)
	user := seedUser(t, gdb)
	agg := NewAggregatorService(gdb, log, repos.NewAssessmentRepo(gdb, log))

	today := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	for i := 0; i < DefaultWindowDays-1; i++ {
		seedAssessment(t, gdb, user.ID, today.AddDate(0, 0, -i), 3, 3, 3)
	}

	features, err := agg.Aggregate(context.Background(), nil, user.ID, today, DefaultWindowDays)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if features != nil {
		t.Fatalf("expected nil features with %d rows, got %+v", DefaultWindowDays-1, features)
	}
}

func TestAggregate_ExactMeanAtThreshold(t *testing.T) {
	gdb := openTestDB(t)
	log := testLogger(t)
	user := seedUser(t, gdb)
	agg := NewAggregatorService(gdb, log, repos.NewAssessmentRepo(gdb, log))

	// Seven consecutive days with tired scores 0..6: mean is exactly 3.
	today := time.Date(2026, 8, 28, 9, 30, 0, 0, time.UTC)
	for i := 0; i < DefaultWindowDays; i++ {
		seedAssessment(t, gdb, user.ID, today.AddDate(0, 0, -i), i, 2, 4)
	}

	features, err := agg.Aggregate(context.Background(), nil, user.ID, today, DefaultWindowDays)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if features == nil {
		t.Fatalf("expected features at %d rows, got nil", DefaultWindowDays)
	}
	if features.AvgTired != 3.0 {
		t.Fatalf("expected avg_tired=3.0, got %v", features.AvgTired)
	}
	if features.AvgCapable != 2.0 || features.AvgMeaningful != 4.0 {
		t.Fatalf("unexpected means: capable=%v meaningful=%v", features.AvgCapable, features.AvgMeaningful)
	}
	if features.SampleCount != DefaultWindowDays {
		t.Fatalf("expected sample_count=%d, got %d", DefaultWindowDays, features.SampleCount)
	}
}

func TestAggregate_DuplicateSameDayRowsAllCount(t *testing.T) {
	gdb := openTestDB(t)
	log := testLogger(t)
	user := seedUser(t, gdb)
	agg := NewAggregatorService(gdb, log, repos.NewAssessmentRepo(gdb, log))

	// Six distinct days plus a duplicate on today: eight rows in the
	// window, all of them contributing to the mean.
	today := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)
	for i := 1; i <= 6; i++ {
		seedAssessment(t, gdb, user.ID, today.AddDate(0, 0, -i), 2, 2, 2)
	}
	seedAssessment(t, gdb, user.ID, today, 6, 6, 6)
	seedAssessment(t, gdb, user.ID, today, 0, 0, 0)

	features, err := agg.Aggregate(context.Background(), nil, user.ID, today, DefaultWindowDays)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if features == nil {
		t.Fatal("expected features, got nil")
	}
	if features.SampleCount != 8 {
		t.Fatalf("expected sample_count=8, got %d", features.SampleCount)
	}
	want := (6.0*2 + 6 + 0) / 8.0
	if math.Abs(features.AvgTired-want) > 1e-9 {
		t.Fatalf("expected avg_tired=%v, got %v", want, features.AvgTired)
	}
}

func TestAggregate_ExcludesRowsOutsideWindow(t *testing.T) {
	gdb := openTestDB(t)
	log := testLogger(t)
	user := seedUser(t, gdb)
	agg := NewAggregatorService(gdb, log, repos.NewAssessmentRepo(gdb, log))

	today := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)
	// A sabotage row just outside the window. If it leaked in, the mean
	// would shift and the row count would hit the threshold.
	seedAssessment(t, gdb, user.ID, today.AddDate(0, 0, -DefaultWindowDays), 6, 6, 6)
	for i := 0; i < DefaultWindowDays-1; i++ {
		seedAssessment(t, gdb, user.ID, today.AddDate(0, 0, -i), 1, 1, 1)
	}

	features, err := agg.Aggregate(context.Background(), nil, user.ID, today, DefaultWindowDays)
	if err != nil {
		t.Fatalf("aggregate: %v", err)
	}
	if features != nil {
		t.Fatalf("row outside window leaked into aggregation: %+v", features)
	}
}

func TestAggregate_Idempotent(t *testing.T) {
	gdb := openTestDB(t)
	log := testLogger(t)
	user := seedUser(t, gdb)
	agg := NewAggregatorService(gdb, log, repos.NewAssessmentRepo(gdb, log))

	today := time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC)
	for i := 0; i < DefaultWindowDays; i++ {
		seedAssessment(t, gdb, user.ID, today.AddDate(0, 0, -i), i%7, (i+1)%7, (i+2)%7)
	}

	first, err := agg.Aggregate(context.Background(), nil, user.ID, today, DefaultWindowDays)
	if err != nil {
		t.Fatalf("first aggregate: %v", err)
	}
	second, err := agg.Aggregate(context.Background(), nil, user.ID, today, DefaultWindowDays)
	if err != nil {
		t.Fatalf("second aggregate: %v", err)
	}
	if *first != *second {
		t.Fatalf("aggregation not idempotent: first=%+v second=%+v", first, second)
	}
}

func TestAggregate_RejectsNonPositiveWindow(t *testing.T) {
	gdb := openTestDB(t)
	log := testLogger(t)
	user := seedUser(t, gdb)
	agg := NewAggregatorService(gdb, log, repos.NewAssessmentRepo(gdb, log))

	if _, err := agg.Aggregate(context.Background(), nil, user.ID, time.Now(), 0); err == nil {
		t.Fatal("expected error for zero window")
	}
}

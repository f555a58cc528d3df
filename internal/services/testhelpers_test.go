package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/wellbeam/burnout-backend/internal/db"
	"github.com/wellbeam/burnout-backend/internal/logger"
	"github.com/wellbeam/burnout-backend/internal/model"
	"github.com/wellbeam/burnout-backend/internal/requestdata"
	"github.com/wellbeam/burnout-backend/internal/types"
)

// openTestDB gives each test its own in-memory sqlite database migrated
// to the full schema. The shared cache keeps the database alive across
// the pooled connections gorm opens.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", t.Name(), time.Now().UnixNano())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := gdb.AutoMigrate(db.AllModels()...); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return gdb
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("init test logger: %v", err)
	}
	return log
}

func seedUser(t *testing.T, gdb *gorm.DB) *types.User {
	t.Helper()
	user := &types.User{
		Email:    fmt.Sprintf("%s@example.com", uuid.NewString()),
		Password: "not-a-real-hash",
		FullName: "Test User",
		IsActive: true,
	}
	if err := gdb.Create(user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func authedCtx(userID uuid.UUID) context.Context {
	return requestdata.WithRequestData(context.Background(), &requestdata.RequestData{UserID: userID})
}

// seedAssessment inserts one historical submission on the given day.
func seedAssessment(t *testing.T, gdb *gorm.DB, userID uuid.UUID, day time.Time, tired, capable, meaningful int) *types.Assessment {
	t.Helper()
	a := &types.Assessment{
		UserID:          userID,
		Date:            dayOf(day),
		TiredScore:      tired,
		CapableScore:    capable,
		MeaningfulScore: meaningful,
	}
	if err := gdb.Create(a).Error; err != nil {
		t.Fatalf("seed assessment: %v", err)
	}
	return a
}

const testArtifactYAML = `
version: test-1
labels: [Low, Moderate, High]
scaler:
  mean: [3.0, 3.0, 3.0]
  scale: [1.0, 1.0, 1.0]
classifier:
  weights:
    - [-1.0, 1.0, 1.0]
    - [0.0, 0.0, 0.0]
    - [1.0, -1.0, -1.0]
  intercepts: [0.0, 0.0, 0.0]
`

func testArtifact(t *testing.T) *model.Artifact {
	t.Helper()
	artifact, err := model.Parse([]byte(testArtifactYAML))
	if err != nil {
		t.Fatalf("parse test artifact: %v", err)
	}
	return artifact
}

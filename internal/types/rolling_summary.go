package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// RollingSummary is a derived audit-trail row, one per scored submission.
// It is never read back for correctness; the aggregator recomputes from
// assessment rows every time.
type RollingSummary struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	User          *User          `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	SummaryDate   time.Time      `gorm:"type:date;not null" json:"summary_date"`
	AvgTired      float64        `gorm:"not null;column:avg_tired" json:"avg_tired"`
	AvgCapable    float64        `gorm:"not null;column:avg_capable" json:"avg_capable"`
	AvgMeaningful float64        `gorm:"not null;column:avg_meaningful" json:"avg_meaningful"`
	WindowSize    int            `gorm:"not null;column:window_size" json:"window_size"`
	Features      datatypes.JSON `gorm:"column:features" json:"features"`
	CreatedAt     time.Time      `gorm:"not null" json:"created_at"`
}

func (RollingSummary) TableName() string { return "rolling_summary" }

func (s *RollingSummary) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Assessment is one daily self-assessment submission. Rows are immutable
// once written; the same (user, date) pair may appear more than once and
// every row counts toward the rolling window.
type Assessment struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID          uuid.UUID `gorm:"type:uuid;not null;index:idx_assessment_user_date" json:"user_id"`
	User            *User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	Date            time.Time `gorm:"type:date;not null;index:idx_assessment_user_date" json:"date"`
	TiredScore      int       `gorm:"not null;column:tired_score" json:"tired_score"`
	CapableScore    int       `gorm:"not null;column:capable_score" json:"capable_score"`
	MeaningfulScore int       `gorm:"not null;column:meaningful_score" json:"meaningful_score"`
	CreatedAt       time.Time `gorm:"not null" json:"created_at"`

	Prediction *Prediction `gorm:"foreignKey:AssessmentID;references:ID" json:"prediction,omitempty"`
}

func (Assessment) TableName() string { return "assessment" }

func (a *Assessment) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

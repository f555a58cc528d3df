package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Prediction is owned 1:1 by its Assessment. The unique index on
// assessment_id enforces at most one prediction per assessment.
type Prediction struct {
	ID           uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	AssessmentID uuid.UUID   `gorm:"type:uuid;not null;uniqueIndex" json:"assessment_id"`
	Assessment   *Assessment `gorm:"constraint:OnDelete:CASCADE;foreignKey:AssessmentID;references:ID" json:"assessment,omitempty"`
	BurnoutRisk  bool        `gorm:"not null;column:burnout_risk" json:"burnout_risk"`
	Label        string      `gorm:"not null;column:label" json:"label"`
	Confidence   float64     `gorm:"not null;column:confidence" json:"confidence"`
	ModelVersion string      `gorm:"not null;column:model_version" json:"model_version"`
	CreatedAt    time.Time   `gorm:"not null" json:"created_at"`
}

func (Prediction) TableName() string { return "prediction" }

func (p *Prediction) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

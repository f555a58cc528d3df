package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Email           string     `gorm:"uniqueIndex;not null;column:email" json:"email"`
	Password        string     `gorm:"not null;column:password" json:"-"`
	FullName        string     `gorm:"column:full_name" json:"full_name"`
	AvatarBucketKey string     `gorm:"column:avatar_bucket_key" json:"-"`
	AvatarURL       string     `gorm:"column:avatar_url" json:"avatar_url"`
	IsActive        bool       `gorm:"not null;default:true" json:"is_active"`
	LastLogin       *time.Time `gorm:"column:last_login" json:"last_login,omitempty"`
	CreatedAt       time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"not null" json:"updated_at"`
}

func (User) TableName() string { return "user" }

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

package models

import (
	"gatekeepr/src/types"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID            uuid.UUID  `gorm:"type:uuid;primarykey" json:"id"`
	Name          string     `json:"name,omitempty"`
	Email         string     `gorm:"uniqueIndex" json:"email,omitempty"`
	PasswordHash  string     `json:"-"`
	EmailVerified bool       `gorm:"default:false" json:"email_verified,omitempty"`
	VerifiedAt    *time.Time `json:"verified_at,omitempty"`
	OrganizerRef  *uuid.UUID `gorm:"type:uuid" json:"organizerRef,omitempty"`

	types.Timestamps
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

package models

import (
	"gatekeepr/src/types"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Ticket is one registrant's submission to an event. Immutable after insert
// except for the attendance flag and soft deletion.
type Ticket struct {
	ID        uuid.UUID      `gorm:"type:uuid;primarykey" json:"id"`
	EventUUID uuid.UUID      `gorm:"type:uuid;index" json:"eventid"`
	UserID    *uuid.UUID     `gorm:"type:uuid" json:"userid,omitempty"`
	FormData  types.FormData `gorm:"type:jsonb" json:"formdata"`
	Attended  bool           `gorm:"default:false" json:"status"`

	Event *Event `gorm:"foreignKey:event_uuid;references:event_uuid" json:"event,omitempty"`

	types.Timestamps
}

func (t *Ticket) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

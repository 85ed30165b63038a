package models

import (
	"gatekeepr/src/types"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Event carries a stable public UUID alongside its internal id. Tickets
// reference the public UUID, never the internal id.
type Event struct {
	ID        uint             `gorm:"primarykey" json:"id"`
	EventUUID uuid.UUID        `gorm:"type:uuid;uniqueIndex" json:"eventuuid"`
	Name      string           `json:"name,omitempty"`
	Slug      string           `json:"slug,omitempty"`
	Details   string           `json:"details,omitempty"`
	Category  string           `json:"category,omitempty"`
	Image     string           `json:"image,omitempty"`
	DateFrom  time.Time        `json:"date_from,omitempty"`
	DateTo    time.Time        `json:"date_to,omitempty"`
	Place     types.JSONB      `gorm:"type:jsonb" json:"place,omitempty"`
	FormData  types.JSONBArray `gorm:"type:jsonb" json:"formdata,omitempty"`
	// No db-side default: gorm skips zero-value fields that carry one, which
	// would turn an event created closed into an open one.
	Accepting bool `json:"accepting"`

	Organizers []*Organizer `gorm:"many2many:event_organizers;" json:"organizers,omitempty"`
	Tickets    []Ticket     `gorm:"foreignKey:event_uuid;references:event_uuid" json:"tickets,omitempty"`

	types.Timestamps
}

func (e *Event) BeforeCreate(tx *gorm.DB) error {
	if e.EventUUID == uuid.Nil {
		e.EventUUID = uuid.New()
	}
	return nil
}

// OwnedBy reports whether the given organizer manages this event. Organizers
// must be preloaded.
func (e *Event) OwnedBy(organizerUUID uuid.UUID) bool {
	for _, org := range e.Organizers {
		if org.UUID == organizerUUID {
			return true
		}
	}
	return false
}

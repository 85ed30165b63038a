package models

import (
	"gatekeepr/src/types"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Organizer struct {
	ID       uint        `gorm:"primarykey;uniqueIndex:slugid" json:"id"`
	UUID     uuid.UUID   `gorm:"type:uuid;uniqueIndex" json:"uuid"`
	Name     string      `json:"name,omitempty"`
	Bio      string      `json:"bio,omitempty"`
	Image    string      `json:"image,omitempty"`
	Location string      `json:"location,omitempty"`
	Socials  types.JSONB `gorm:"type:jsonb" json:"socialLinks,omitempty"`
	Verified bool        `gorm:"default:false" json:"verified,omitempty"`
	Slug     string      `gorm:"uniqueIndex:slugid" json:"slug"`

	// Members reference the organizer through User.OrganizerRef; membership
	// changes mutate that field only.
	Members []User   `gorm:"foreignKey:organizer_ref;references:uuid" json:"members,omitempty"`
	Events  []*Event `gorm:"many2many:event_organizers;" json:"-"`

	types.Timestamps
}

func (o *Organizer) BeforeCreate(tx *gorm.DB) error {
	if o.UUID == uuid.Nil {
		o.UUID = uuid.New()
	}
	return nil
}

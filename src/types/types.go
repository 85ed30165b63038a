package types

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"gorm.io/gorm"
)

type Timestamps struct {
	CreatedAt time.Time      `gorm:"autoCreateTime:nano" json:"created_at,omitempty"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime:nano" json:"updated_at,omitempty"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty,omitnil"`
}

type JSONB map[string]any
type JSONBArray []any

func (a JSONB) Value() (driver.Value, error) {
	valueString, err := json.Marshal(a)
	return string(valueString), err
}
func (a *JSONB) Scan(value any) error {
	b, ok := value.([]byte)
	if !ok {
		s, ok := value.(string)
		if !ok {
			return errors.New("type assertion to []byte failed")
		}
		b = []byte(s)
	}
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	return nil
}

func (a JSONBArray) Value() (driver.Value, error) {
	valueString, err := json.Marshal(a)
	return string(valueString), err
}
func (a *JSONBArray) Scan(value any) error {
	b, ok := value.([]byte)
	if !ok {
		s, ok := value.(string)
		if !ok {
			return errors.New("type assertion to []byte failed")
		}
		b = []byte(s)
	}
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	return nil
}

// FormData is the normalized flat mapping persisted with every ticket. Field
// names come from the event's form schema; values are always strings.
type FormData map[string]string

func (a FormData) Value() (driver.Value, error) {
	valueString, err := json.Marshal(a)
	return string(valueString), err
}
func (a *FormData) Scan(value any) error {
	b, ok := value.([]byte)
	if !ok {
		s, ok := value.(string)
		if !ok {
			return errors.New("type assertion to []byte failed")
		}
		b = []byte(s)
	}
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	return nil
}

type RegisterUserRequestBody struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type VerifyOTPRequestBody struct {
	UserID string `json:"userId" binding:"required,uuid"`
	Email  string `json:"email" binding:"required,email"`
	Code   string `json:"code" binding:"required,len=6,numeric"`
}

type ResendOTPRequestBody struct {
	UserID string `json:"userId" binding:"required,uuid"`
	Email  string `json:"email" binding:"required,email"`
}

type LoginRequestBody struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RegistrationQueryParams struct {
	EventID string `form:"eventId" binding:"required,uuid"`
	UserID  string `form:"userId" binding:"omitempty,uuid"`
}

type CreateEventRequestBody struct {
	Name      string     `json:"name" binding:"required"`
	Details   string     `json:"details"`
	Category  string     `json:"category"`
	Image     string     `json:"image"`
	DateFrom  string     `json:"date_from" binding:"required"`
	DateTo    string     `json:"date_to" binding:"required,gtdate=DateFrom"`
	Place     Place      `json:"place"`
	FormData  JSONBArray `json:"formdata"`
	Accepting bool       `json:"accepting"`
}

type UpdateEventRequestBody struct {
	Name     *string     `json:"name"`
	Details  *string     `json:"details"`
	Category *string     `json:"category"`
	Image    *string     `json:"image"`
	Place    *Place      `json:"place"`
	FormData *JSONBArray `json:"formdata"`
}

type Place struct {
	Title    string `json:"title"`
	Details  string `json:"details"`
	MapsLink string `json:"maps_link"`
}

type CreateOrganizerRequestBody struct {
	Name     string `json:"name" binding:"required"`
	Bio      string `json:"bio"`
	Image    string `json:"image"`
	Location string `json:"location"`
	Socials  JSONB  `json:"socialLinks"`
}

type MemberRequestBody struct {
	UserID string `json:"userId" binding:"required,uuid"`
}

type NotifyConfirmationRequestBody struct {
	Email string `json:"email" binding:"required,email"`
	Name  string `json:"name"`
}

type NotifyTicketRequestBody struct {
	Email    string `json:"email" binding:"required,email"`
	TicketID string `json:"ticketId" binding:"required,uuid"`
}

type BroadcastRequestBody struct {
	Subject    string   `json:"subject" binding:"required"`
	Body       string   `json:"body" binding:"required"`
	Recipients []string `json:"recipients" binding:"required,min=1,dive,email"`
}

type SimpleRequestParams struct {
	ID string `uri:"id" binding:"required,uuid"`
}

type Claims struct {
	Username  string `json:"username"`
	Organizer string `json:"organizer,omitempty"`
	jwt.RegisteredClaims
}

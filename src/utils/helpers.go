package utils

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"gatekeepr/src/models"
	"gatekeepr/src/types"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NormalizeForm flattens an inbound submission body into the string mapping
// persisted with the ticket. JSON and form-encoded bodies normalize to the
// same shape; file parts are dropped, not stored.
func NormalizeForm(ctx *gin.Context) (types.FormData, error) {
	contentType := ctx.ContentType()
	form := types.FormData{}

	if strings.Contains(contentType, "application/json") {
		var raw map[string]any
		if err := ctx.ShouldBindJSON(&raw); err != nil {
			return nil, err
		}
		for key, value := range raw {
			switch v := value.(type) {
			case string:
				form[key] = v
			case float64, bool:
				form[key] = fmt.Sprint(v)
			default:
				// nested objects and arrays have no column shape; skip them
			}
		}
		return form, nil
	}

	if strings.Contains(contentType, "multipart/form-data") {
		mf, err := ctx.MultipartForm()
		if err != nil {
			return nil, err
		}
		for key, values := range mf.Value {
			if len(values) > 0 {
				form[key] = values[0]
			}
		}
		return form, nil
	}

	if err := ctx.Request.ParseForm(); err != nil {
		return nil, err
	}
	for key, values := range ctx.Request.PostForm {
		if len(values) > 0 {
			form[key] = values[0]
		}
	}
	return form, nil
}

// RecipientFromForm extracts the notification payload from a submission. The
// display name falls back from the explicit name field to the first labeled
// field to empty.
func RecipientFromForm(form types.FormData) (email string, name string) {
	email = form["email"]
	name = form["name"]
	if name == "" {
		name = form["tm1"]
	}
	return email, name
}

// CreateTicketFromSubmission durably records one submission. The insert is
// deliberately not wrapped together with any notification work.
func CreateTicketFromSubmission(db *gorm.DB, event *models.Event, userID *uuid.UUID, form types.FormData) (*models.Ticket, error) {
	ticket := models.Ticket{
		EventUUID: event.EventUUID,
		UserID:    userID,
		FormData:  form,
	}
	if err := db.Create(&ticket).Error; err != nil {
		return nil, err
	}
	return &ticket, nil
}

// HasTicket reports whether the user already holds a ticket for the event.
func HasTicket(db *gorm.DB, eventUUID uuid.UUID, userID uuid.UUID) (bool, error) {
	var count int64
	err := db.
		Model(&models.Ticket{}).
		Where(&models.Ticket{EventUUID: eventUUID, UserID: &userID}).
		Count(&count).
		Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// LoadOwnedTicket fetches a ticket and checks that the caller's organizer
// manages its event. Authorization failure performs no mutation.
func LoadOwnedTicket(db *gorm.DB, ticketID uuid.UUID, organizerRef uuid.UUID) (*models.Ticket, error) {
	// Explicit conditions: the zero uuid must match nothing, not everything.
	var ticket models.Ticket
	if err := db.
		Where("id = ?", ticketID).
		First(&ticket).
		Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.ErrNotFound
		}
		return nil, err
	}
	var event models.Event
	if err := db.
		Where("event_uuid = ?", ticket.EventUUID).
		Preload("Organizers").
		First(&event).
		Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.ErrNotFound
		}
		return nil, err
	}
	if !event.OwnedBy(organizerRef) {
		return nil, types.ErrForbidden
	}
	ticket.Event = &event
	return &ticket, nil
}

// SetAttendance flips the attendance flag. Repeating the same call is a
// no-op success, not an error.
func SetAttendance(db *gorm.DB, ticketID uuid.UUID, organizerRef uuid.UUID, attended bool) (*models.Ticket, error) {
	ticket, err := LoadOwnedTicket(db, ticketID, organizerRef)
	if err != nil {
		return nil, err
	}
	if ticket.Attended == attended {
		return ticket, nil
	}
	if err := db.
		Model(&models.Ticket{}).
		Where("id = ?", ticketID).
		Update("attended", attended).
		Error; err != nil {
		return nil, err
	}
	ticket.Attended = attended
	return ticket, nil
}

// DeleteTicket is irreversible; later mutations against the id report not
// found.
func DeleteTicket(db *gorm.DB, ticketID uuid.UUID, organizerRef uuid.UUID) error {
	ticket, err := LoadOwnedTicket(db, ticketID, organizerRef)
	if err != nil {
		return err
	}
	return db.Delete(&models.Ticket{}, "id = ?", ticket.ID).Error
}

func GenerateJWT(email string, userID uuid.UUID, organizerRef *uuid.UUID) (string, error) {
	org := ""
	if organizerRef != nil {
		org = organizerRef.String()
	}
	claims := types.Claims{
		Username:  email,
		Organizer: org,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(os.Getenv("JWT_SECRET")))
	if err != nil {
		log.Printf("Error signing token: %s\n", err.Error())
		return "", err
	}
	return signed, nil
}

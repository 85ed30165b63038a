package main

import (
	"errors"
	"log"
	"net/http"

	"gatekeepr/src/config"
	"gatekeepr/src/lib/mailer"
	"gatekeepr/src/models"
	"gatekeepr/src/types"
	"gatekeepr/src/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// registrationHandlers accepts submitted forms and turns each into exactly
// one ticket. The confirmation mail is best effort; ticket durability is
// decoupled from notification durability.
func registrationHandlers(g *gin.RouterGroup, db *gorm.DB, dispatcher *mailer.Dispatcher) *gin.RouterGroup {
	g.
		POST("/registration", func(ctx *gin.Context) {
			var query types.RegistrationQueryParams
			if err := ctx.ShouldBindQuery(&query); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid registration request", "error": err.Error()})
				return
			}
			eventUUID, _ := uuid.Parse(query.EventID)

			// An explicit condition so the zero uuid matches nothing instead
			// of degenerating into an unfiltered lookup.
			var event models.Event
			if err := db.
				Where("event_uuid = ?", eventUUID).
				First(&event).
				Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					ctx.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Event not found"})
					return
				}
				log.Printf("Error retrieving Event [%s]: %s\n", query.EventID, err.Error())
				ctx.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Error processing submission", "error": err.Error()})
				return
			}
			if !event.Accepting {
				ctx.JSON(http.StatusForbidden, gin.H{"success": false, "message": types.ErrClosed.Error()})
				return
			}

			form, err := utils.NormalizeForm(ctx)
			if err != nil {
				log.Printf("Error normalizing submission body: %s\n", err.Error())
				ctx.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Malformed submission body", "error": err.Error()})
				return
			}

			var userID *uuid.UUID
			if query.UserID != "" {
				uid, err := uuid.Parse(query.UserID)
				if err != nil {
					ctx.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid userId", "error": err.Error()})
					return
				}
				userID = &uid
			}

			if userID != nil && !config.AllowDuplicateSubmissions() {
				exists, err := utils.HasTicket(db, event.EventUUID, *userID)
				if err != nil {
					ctx.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Error processing submission", "error": err.Error()})
					return
				}
				if exists {
					ctx.JSON(http.StatusConflict, gin.H{"success": false, "message": types.ErrDuplicate.Error()})
					return
				}
			}

			ticket, err := utils.CreateTicketFromSubmission(db, &event, userID, form)
			if err != nil {
				log.Printf("Error inserting ticket for event [%s]: %s\n", query.EventID, err.Error())
				ctx.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Ticket insert failed", "error": err.Error()})
				return
			}

			// The ticket is durable at this point. Whatever happens to the
			// confirmation mail stays out of the response.
			email, name := utils.RecipientFromForm(form)
			if email == "" {
				log.Printf("Submission [%s] has no email field; skipping confirmation\n", ticket.ID)
			} else {
				dispatcher.DispatchAsync(mailer.KindPreRegistration, email, &mailer.TemplateContext{
					Name:       name,
					EventName:  event.Name,
					EventImage: event.Image,
				})
			}

			ctx.JSON(http.StatusOK, gin.H{"success": true, "message": "Form data saved successfully", "data": ticket})
		})
	return g
}

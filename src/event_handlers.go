package main

import (
	"errors"
	"log"
	"net/http"
	"time"

	"gatekeepr/src/config"
	"gatekeepr/src/models"
	"gatekeepr/src/types"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

// publicEventHandlers serves the read side registration pages depend on.
func publicEventHandlers(g *gin.RouterGroup, db *gorm.DB) *gin.RouterGroup {
	g.
		GET("/events", func(ctx *gin.Context) {
			var events []models.Event
			if err := db.
				Where(&models.Event{Accepting: true}).
				Order("date_from asc").
				Find(&events).Error; err != nil {
				log.Printf("Error retrieving Events: %s\n", err.Error())
				ctx.Status(http.StatusInternalServerError)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": events})
		}).
		GET("/events/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			eventUUID, _ := uuid.Parse(params.ID)
			var event models.Event
			if err := db.
				Where("event_uuid = ?", eventUUID).
				Preload("Organizers").
				First(&event).
				Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					ctx.Status(http.StatusNotFound)
					return
				}
				ctx.Status(http.StatusInternalServerError)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": event})
		})
	return g
}

// eventHandlers covers organizer-side event management. Tickets always
// reference events by the public UUID, never the internal id.
func eventHandlers(g *gin.RouterGroup, db *gorm.DB) *gin.RouterGroup {
	g.
		POST("/events", func(ctx *gin.Context) {
			var body types.CreateEventRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			orgRef, ok := callerOrganizer(ctx)
			if !ok {
				return
			}
			dateFrom, err := time.Parse(config.TIME_PARSE_FORMAT, body.DateFrom)
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			dateTo, err := time.Parse(config.TIME_PARSE_FORMAT, body.DateTo)
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}

			event := models.Event{
				Name:      body.Name,
				Slug:      slug.Make(body.Name),
				Details:   body.Details,
				Category:  body.Category,
				Image:     body.Image,
				DateFrom:  dateFrom,
				DateTo:    dateTo,
				Place:     types.JSONB{"title": body.Place.Title, "details": body.Place.Details, "maps_link": body.Place.MapsLink},
				FormData:  body.FormData,
				Accepting: body.Accepting,
			}
			err = db.Transaction(func(tx *gorm.DB) error {
				var organizer models.Organizer
				if err := tx.
					Where(&models.Organizer{UUID: orgRef}).
					First(&organizer).
					Error; err != nil {
					return err
				}
				if err := tx.Create(&event).Error; err != nil {
					return err
				}
				return tx.Model(&event).Association("Organizers").Append(&organizer)
			})
			if err != nil {
				log.Printf("Error creating event: %s\n", err.Error())
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": event})
		}).
		PATCH("/events/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			var body types.UpdateEventRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			event := loadOwnedEvent(ctx, db, params.ID)
			if event == nil {
				return
			}
			updates := map[string]any{}
			if body.Name != nil {
				updates["name"] = *body.Name
				updates["slug"] = slug.Make(*body.Name)
			}
			if body.Details != nil {
				updates["details"] = *body.Details
			}
			if body.Category != nil {
				updates["category"] = *body.Category
			}
			if body.Image != nil {
				updates["image"] = *body.Image
			}
			if body.Place != nil {
				updates["place"] = types.JSONB{"title": body.Place.Title, "details": body.Place.Details, "maps_link": body.Place.MapsLink}
			}
			if body.FormData != nil {
				updates["form_data"] = *body.FormData
			}
			if len(updates) == 0 {
				ctx.JSON(http.StatusOK, gin.H{"data": event})
				return
			}
			if err := db.
				Model(event).
				Updates(updates).
				Error; err != nil {
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": event})
		}).
		PATCH("/events/:id/accepting", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			var body struct {
				Accepting bool `json:"accepting"`
			}
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			event := loadOwnedEvent(ctx, db, params.ID)
			if event == nil {
				return
			}
			if err := db.
				Model(&models.Event{}).
				Where("id = ?", event.ID).
				Update("accepting", body.Accepting).
				Error; err != nil {
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			ctx.Status(http.StatusOK)
		})
	return g
}

// loadOwnedEvent resolves an event by public UUID and checks ownership,
// writing the error response itself when the caller may not touch it.
func loadOwnedEvent(ctx *gin.Context, db *gorm.DB, id string) *models.Event {
	orgRef, ok := callerOrganizer(ctx)
	if !ok {
		return nil
	}
	eventUUID, _ := uuid.Parse(id)
	var event models.Event
	if err := db.
		Where("event_uuid = ?", eventUUID).
		Preload("Organizers").
		First(&event).
		Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.Status(http.StatusNotFound)
			return nil
		}
		ctx.Status(http.StatusInternalServerError)
		return nil
	}
	if !event.OwnedBy(orgRef) {
		ctx.Status(http.StatusForbidden)
		return nil
	}
	return &event
}

package main

import (
	"errors"
	"log"
	"net/http"

	"gatekeepr/src/lib"
	"gatekeepr/src/middlewares"
	"gatekeepr/src/models"
	"gatekeepr/src/types"
	"gatekeepr/src/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ticketHandlers exposes the organizer-scoped ticket lifecycle:
// Registered <-> Attended toggles plus irreversible deletion.
func ticketHandlers(g *gin.RouterGroup, db *gorm.DB) *gin.RouterGroup {
	g.
		GET("/tickets", func(ctx *gin.Context) {
			var query struct {
				EventID string `form:"eventId" binding:"required,uuid"`
			}
			if err := ctx.ShouldBindQuery(&query); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			orgRef, ok := callerOrganizer(ctx)
			if !ok {
				return
			}
			eventUUID, _ := uuid.Parse(query.EventID)
			var event models.Event
			if err := db.
				Where("event_uuid = ?", eventUUID).
				Preload("Organizers").
				First(&event).
				Error; err != nil {
				ctx.Status(http.StatusNotFound)
				return
			}
			if !event.OwnedBy(orgRef) {
				ctx.Status(http.StatusForbidden)
				return
			}
			var tickets []models.Ticket
			if err := db.
				Where(&models.Ticket{EventUUID: eventUUID}).
				Order("created_at desc").
				Find(&tickets).Error; err != nil {
				log.Printf("Error retrieving Tickets: %s\n", err.Error())
				ctx.Status(http.StatusInternalServerError)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": tickets})
		}).
		PATCH("/tickets/:id/attend", func(ctx *gin.Context) {
			mutateAttendance(ctx, db, true)
		}).
		PATCH("/tickets/:id/unattend", func(ctx *gin.Context) {
			mutateAttendance(ctx, db, false)
		}).
		DELETE("/tickets/:id", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			orgRef, ok := callerOrganizer(ctx)
			if !ok {
				return
			}
			ticketId, _ := uuid.Parse(params.ID)
			if err := utils.DeleteTicket(db, ticketId, orgRef); err != nil {
				ctx.JSON(ticketErrStatus(err), gin.H{"error": err.Error()})
				return
			}
			ctx.Status(http.StatusOK)
		}).
		GET("/tickets/:id/code", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			orgRef, ok := callerOrganizer(ctx)
			if !ok {
				return
			}
			ticketId, _ := uuid.Parse(params.ID)
			ticket, err := utils.LoadOwnedTicket(db, ticketId, orgRef)
			if err != nil {
				ctx.JSON(ticketErrStatus(err), gin.H{"error": err.Error()})
				return
			}
			filepath, err := lib.TicketCodeFile(ticket.ID.String())
			if err != nil {
				log.Printf("Could not render code for ticket [%s]: %s\n", ticket.ID, err.Error())
				ctx.Status(http.StatusInternalServerError)
				return
			}
			ctx.FileAttachment(filepath, "eticket.jpeg")
		})
	return g
}

func mutateAttendance(ctx *gin.Context, db *gorm.DB, attended bool) {
	var params types.SimpleRequestParams
	if err := ctx.ShouldBindUri(&params); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	orgRef, ok := callerOrganizer(ctx)
	if !ok {
		return
	}
	ticketId, _ := uuid.Parse(params.ID)
	ticket, err := utils.SetAttendance(db, ticketId, orgRef, attended)
	if err != nil {
		ctx.JSON(ticketErrStatus(err), gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"data": ticket})
}

func callerOrganizer(ctx *gin.Context) (uuid.UUID, bool) {
	ref, ok := middlewares.OrganizerRef(ctx)
	if !ok {
		ctx.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "caller is not an organizer member"})
		return uuid.Nil, false
	}
	orgRef, err := uuid.Parse(ref)
	if err != nil {
		ctx.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "caller is not an organizer member"})
		return uuid.Nil, false
	}
	return orgRef, true
}

func ticketErrStatus(err error) int {
	switch {
	case errors.Is(err, types.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, types.ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

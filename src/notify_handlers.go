package main

import (
	"errors"
	"net/http"

	"gatekeepr/src/lib/mailer"
	"gatekeepr/src/models"
	"gatekeepr/src/types"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// notifyHandlers exposes the dispatcher to direct callers. Unlike the
// submission path, these report the delivery outcome to the caller.
func notifyHandlers(g *gin.RouterGroup, db *gorm.DB, dispatcher *mailer.Dispatcher) *gin.RouterGroup {
	g.
		POST("/notify/confirmation", func(ctx *gin.Context) {
			var body types.NotifyConfirmationRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
				return
			}
			result := dispatcher.Send(ctx.Request.Context(), mailer.KindPreRegistration, body.Email, &mailer.TemplateContext{
				Name: body.Name,
			})
			respondDelivery(ctx, result)
		}).
		POST("/notify/ticket", func(ctx *gin.Context) {
			var body types.NotifyTicketRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
				return
			}
			ticketId, _ := uuid.Parse(body.TicketID)
			var ticket models.Ticket
			if err := db.
				Where("id = ?", ticketId).
				Preload("Event").
				First(&ticket).
				Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					ctx.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "ticket not found"})
					return
				}
				ctx.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
				return
			}
			tc := &mailer.TemplateContext{TicketID: ticket.ID.String()}
			if ticket.Event != nil {
				tc.EventName = ticket.Event.Name
				tc.EventImage = ticket.Event.Image
				tc.EventDate = ticket.Event.DateFrom
				if title, ok := ticket.Event.Place["title"].(string); ok {
					tc.PlaceTitle = title
				}
			}
			result := dispatcher.Send(ctx.Request.Context(), mailer.KindTicket, body.Email, tc)
			respondDelivery(ctx, result)
		}).
		POST("/notify/broadcast", func(ctx *gin.Context) {
			var body types.BroadcastRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
				return
			}
			result := dispatcher.Send(ctx.Request.Context(), mailer.KindBroadcast, "", &mailer.TemplateContext{
				Subject:    body.Subject,
				Body:       body.Body,
				Recipients: body.Recipients,
			})
			respondDelivery(ctx, result)
		})
	return g
}

func respondDelivery(ctx *gin.Context, result mailer.DeliveryResult) {
	if !result.Delivered {
		ctx.JSON(http.StatusBadGateway, gin.H{"ok": false, "error": result.Reason, "token": result.Token})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"ok": true, "token": result.Token})
}

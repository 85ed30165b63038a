package main

import (
	"errors"
	"log"
	"net/http"

	"gatekeepr/src/models"
	"gatekeepr/src/types"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

// publicOrganizerHandlers serves organizer profile pages.
func publicOrganizerHandlers(g *gin.RouterGroup, db *gorm.DB) *gin.RouterGroup {
	g.
		GET("/organizers/:slug", func(ctx *gin.Context) {
			var organizer models.Organizer
			if err := db.
				Where(&models.Organizer{Slug: ctx.Param("slug")}).
				Preload("Events").
				First(&organizer).
				Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					ctx.Status(http.StatusNotFound)
					return
				}
				ctx.Status(http.StatusInternalServerError)
				return
			}
			ctx.JSON(http.StatusOK, gin.H{"data": organizer})
		})
	return g
}

// organizerHandlers covers organizer creation and membership. Membership
// add/remove only ever mutates the member's organizer back-reference.
func organizerHandlers(g *gin.RouterGroup, db *gorm.DB) *gin.RouterGroup {
	g.
		POST("/organizers", func(ctx *gin.Context) {
			var body types.CreateOrganizerRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			userId, err := uuid.Parse(ctx.GetString("id"))
			if err != nil {
				ctx.Status(http.StatusUnauthorized)
				return
			}
			organizer := models.Organizer{
				Name:     body.Name,
				Bio:      body.Bio,
				Image:    body.Image,
				Location: body.Location,
				Socials:  body.Socials,
				Slug:     slug.Make(body.Name),
			}
			err = db.Transaction(func(tx *gorm.DB) error {
				if err := tx.Create(&organizer).Error; err != nil {
					return err
				}
				// The creator becomes the first member.
				return tx.
					Model(&models.User{}).
					Where(&models.User{ID: userId}).
					Update("organizer_ref", organizer.UUID).
					Error
			})
			if err != nil {
				log.Printf("Error creating organizer: %s\n", err.Error())
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": organizer})
		}).
		POST("/organizers/:id/members", func(ctx *gin.Context) {
			var params types.SimpleRequestParams
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			var body types.MemberRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			orgUUID, ok := requireMembership(ctx, params.ID)
			if !ok {
				return
			}
			// Never a struct condition here: the zero uuid would drop out of
			// the Where and retag every user.
			memberId, _ := uuid.Parse(body.UserID)
			if err := db.
				Model(&models.User{}).
				Where("id = ?", memberId).
				Update("organizer_ref", orgUUID).
				Error; err != nil {
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			ctx.Status(http.StatusOK)
		}).
		DELETE("/organizers/:id/members/:userId", func(ctx *gin.Context) {
			var params struct {
				ID     string `uri:"id" binding:"required,uuid"`
				UserID string `uri:"userId" binding:"required,uuid"`
			}
			if err := ctx.ShouldBindUri(&params); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			orgUUID, ok := requireMembership(ctx, params.ID)
			if !ok {
				return
			}
			memberId, _ := uuid.Parse(params.UserID)
			if err := db.
				Model(&models.User{}).
				Where("id = ? AND organizer_ref = ?", memberId, orgUUID).
				Update("organizer_ref", nil).
				Error; err != nil {
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			ctx.Status(http.StatusOK)
		})
	return g
}

// requireMembership checks that the caller belongs to the organizer they are
// trying to manage.
func requireMembership(ctx *gin.Context, id string) (uuid.UUID, bool) {
	orgRef, ok := callerOrganizer(ctx)
	if !ok {
		return uuid.Nil, false
	}
	orgUUID, err := uuid.Parse(id)
	if err != nil || orgUUID != orgRef {
		ctx.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "caller is not a member of this organizer"})
		return uuid.Nil, false
	}
	return orgUUID, true
}

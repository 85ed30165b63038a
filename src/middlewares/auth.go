package middlewares

import (
	"log"
	"os"
	"strings"

	"gatekeepr/src/models"
	"gatekeepr/src/types"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuthMiddleware validates the bearer token and loads the caller into the
// request context.
func AuthMiddleware(db *gorm.DB) gin.HandlerFunc {
	jwtKey := []byte(os.Getenv("JWT_SECRET"))
	return func(ctx *gin.Context) {
		bearerToken := ctx.Request.Header.Get("Authorization")
		if !strings.HasPrefix(bearerToken, "Bearer") {
			ctx.AbortWithStatus(401)
			return
		}
		reqToken := strings.Split(bearerToken, " ")[1]
		if reqToken == "" {
			ctx.AbortWithStatus(401)
			return
		}
		claims := &types.Claims{}
		tkn, err := jwt.ParseWithClaims(reqToken, claims, func(t *jwt.Token) (any, error) {
			return jwtKey, nil
		})
		if err != nil {
			log.Printf("token error: %s\n", err.Error())
			if err == jwt.ErrSignatureInvalid || err == jwt.ErrTokenMalformed {
				ctx.AbortWithStatus(401)
				return
			}
			ctx.AbortWithError(401, err)
			return
		}
		if !tkn.Valid {
			ctx.AbortWithStatus(401)
			return
		}

		uid, err := uuid.Parse(claims.Subject)
		if err != nil {
			log.Println("error parsing claims:", err.Error())
			ctx.AbortWithStatus(401)
			return
		}
		var user models.User
		if err := db.
			Model(&models.User{}).
			Where(&models.User{ID: uid}).
			First(&user).
			Error; err != nil {
			ctx.AbortWithStatus(401)
			return
		}
		ctx.Set("email", user.Email)
		ctx.Set("id", user.ID.String())
		if user.OrganizerRef != nil {
			ctx.Set("organizer", user.OrganizerRef.String())
		}
	}
}

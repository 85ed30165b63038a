package main

import (
	"log"

	"gatekeepr/src/controllers"

	"github.com/gin-gonic/gin"
)

func authHandlers(g *gin.RouterGroup, auth *controllers.Auth) *gin.RouterGroup {
	g.
		POST("/auth/register", func(ctx *gin.Context) {
			userId, status, err := auth.AuthRegister(ctx)
			if err != nil {
				log.Printf("[AuthRegister] error: %s\n", err.Error())
				ctx.JSON(status, gin.H{"ok": false, "error": err.Error()})
				return
			}
			ctx.JSON(status, gin.H{"ok": true, "userId": userId})
		}).
		POST("/auth/verify-otp", func(ctx *gin.Context) {
			status, err := auth.AuthVerifyOTP(ctx)
			if err != nil {
				log.Printf("[AuthVerifyOTP] error: %s\n", err.Error())
				ctx.JSON(status, gin.H{"ok": false, "error": err.Error()})
				return
			}
			ctx.JSON(status, gin.H{"ok": true})
		}).
		POST("/auth/resend-otp", func(ctx *gin.Context) {
			status, err := auth.AuthResendOTP(ctx)
			if err != nil {
				log.Printf("[AuthResendOTP] error: %s\n", err.Error())
				ctx.JSON(status, gin.H{"ok": false, "error": err.Error()})
				return
			}
			ctx.JSON(status, gin.H{"ok": true})
		}).
		POST("/auth/login", func(ctx *gin.Context) {
			token, status, err := auth.AuthLogin(ctx)
			if err != nil {
				log.Printf("[AuthLogin] error: %s\n", err.Error())
				ctx.JSON(status, gin.H{"ok": false, "error": err.Error()})
				return
			}
			ctx.JSON(status, gin.H{"ok": true, "token": token})
		})
	return g
}

package middlewares

import "github.com/gin-gonic/gin"

func SecureHeaders(ctx *gin.Context) {
	ctx.Header("X-Frame-Options", "DENY")
	ctx.Header("X-Content-Type-Options", "nosniff")
	ctx.Header("Referrer-Policy", "strict-origin-when-cross-origin")
	ctx.Next()
}

// OrganizerRef returns the caller's organizer identity, if any. Mutating
// endpoints reject callers without one.
func OrganizerRef(ctx *gin.Context) (string, bool) {
	ref := ctx.GetString("organizer")
	return ref, ref != ""
}

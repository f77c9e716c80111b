package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

// AdminChecker reports whether a user may use the admin views.
type AdminChecker interface {
	IsAdmin(ctx context.Context, userID string) (bool, error)
}

// AdminMiddleware must run after AuthMiddleware. Non-admins are sent
// back to the storefront.
func AdminMiddleware(admins AdminChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. Get userID from AuthMiddleware
		userID := UserID(c)
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "User ID not found in context (AuthMiddleware must run first)", "redirect": LoginRedirect})
			return
		}

		// 2. Look up the admin flag
		ok, err := admins.IsAdmin(c.Request.Context(), userID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to check admin access"})
			return
		}

		// 3. Check permission
		if !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Access denied: admin role required", "redirect": "/"})
			return
		}
		c.Next()
	}
}

// APIKeyMiddleware requires the public key in the apikey header, the
// same contract the hosted backend offers. An empty key disables it.
func APIKeyMiddleware(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if key == "" || c.GetHeader("apikey") == key {
			c.Next()
			return
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid API key"})
	}
}

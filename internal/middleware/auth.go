package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/01moynul/storefront-golang/internal/backend"
	"github.com/gin-gonic/gin"
)

// Context keys set by the auth middleware.
const (
	UserIDKey      = "userID"
	UserKey        = "user"
	AccessTokenKey = "accessToken"
)

const LoginRedirect = "/auth/login"

// UserResolver turns an access token into the signed in user.
type UserResolver interface {
	CurrentUser(ctx context.Context, accessToken string) (backend.User, error)
}

// bearerToken returns the token from "Authorization: Bearer <token>".
func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func setUser(c *gin.Context, user backend.User, token string) {
	c.Set(UserIDKey, user.ID)
	c.Set(UserKey, user)
	c.Set(AccessTokenKey, token)
	c.Request = c.Request.WithContext(backend.WithAccessToken(c.Request.Context(), token))
}

// AuthMiddleware rejects requests without a valid access token.
func AuthMiddleware(users UserResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. --- Get Authorization Header ---
		if c.GetHeader("Authorization") == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required", "redirect": LoginRedirect})
			return
		}
		token, ok := bearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token format (must be Bearer)", "redirect": LoginRedirect})
			return
		}

		// 2. --- Validate Token ---
		user, err := users.CurrentUser(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token", "redirect": LoginRedirect})
			return
		}

		// 3. --- Success ---
		setUser(c, user, token)
		c.Next()
	}
}

// OptionalAuth sets the user when a valid token is sent and lets the
// request through as anonymous otherwise.
func OptionalAuth(users UserResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, ok := bearerToken(c); ok {
			if user, err := users.CurrentUser(c.Request.Context(), token); err == nil {
				setUser(c, user, token)
			}
		}
		c.Next()
	}
}

// UserID returns the id set by AuthMiddleware or OptionalAuth, or "".
func UserID(c *gin.Context) string {
	v, _ := c.Get(UserIDKey)
	id, _ := v.(string)
	return id
}

// CurrentUser returns the user set by AuthMiddleware or OptionalAuth.
func CurrentUser(c *gin.Context) (backend.User, bool) {
	v, ok := c.Get(UserKey)
	if !ok {
		return backend.User{}, false
	}
	u, ok := v.(backend.User)
	return u, ok
}

// AccessToken returns the bearer token of the signed in user.
func AccessToken(c *gin.Context) string {
	v, _ := c.Get(AccessTokenKey)
	tok, _ := v.(string)
	return tok
}

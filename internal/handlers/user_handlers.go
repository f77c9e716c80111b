package handlers

import (
	"errors"
	"net/http"

	"github.com/01moynul/storefront-golang/internal/backend"
	"github.com/01moynul/storefront-golang/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

//
// --- Auth Handlers ---
//

const (
	oauthStateCookie = "oauth_state"
	oauthStateMaxAge = 10 * 60
	defaultProvider  = "google"
)

// SignUpInput holds the fields a visitor sends to register. The profile
// row is created alongside the auth user.
type SignUpInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	FullName string `json:"full_name"`
}

// SignUp is the handler for POST /v1/auth/signup
func (h *Handlers) SignUp(c *gin.Context) {
	// 1. --- Bind & Validate JSON ---
	var input SignUpInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// 2. --- Create User And Profile ---
	session, err := h.Gateway.SignUp(c.Request.Context(), input.Email, input.Password, input.FullName)
	if err != nil {
		h.fail(c, err, "Failed to create account")
		return
	}

	// 3. --- Send Success Response ---
	c.JSON(http.StatusCreated, gin.H{
		"message": "Account created successfully",
		"session": session,
	})
}

type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login is the handler for POST /v1/auth/login
func (h *Handlers) Login(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session, err := h.Gateway.SignIn(c.Request.Context(), input.Email, input.Password)
	if err != nil {
		h.fail(c, err, "Invalid email or password")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"session": session,
	})
}

// Logout is the handler for POST /v1/auth/logout
func (h *Handlers) Logout(c *gin.Context) {
	if err := h.Gateway.SignOut(c.Request.Context(), middleware.AccessToken(c)); err != nil {
		h.fail(c, err, "Failed to sign out")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Signed out"})
}

// Me is the handler for GET /v1/auth/me
// The profile is null for users whose profile has not been created yet.
func (h *Handlers) Me(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	profile, err := h.Gateway.UserProfile(c.Request.Context(), user.ID)
	if errors.Is(err, backend.ErrNotFound) {
		c.JSON(http.StatusOK, gin.H{"user": user, "profile": nil})
		return
	}
	if err != nil {
		h.fail(c, err, "Failed to load profile")
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user, "profile": profile})
}

// OAuthStart is the handler for GET /v1/auth/oauth/:provider
// It redirects the browser to the provider's consent page.
func (h *Handlers) OAuthStart(c *gin.Context) {
	state := uuid.NewString()
	target, err := h.Gateway.OAuthURL(c.Param("provider"), h.OAuthRedirectURL, state)
	if err != nil {
		h.fail(c, err, "OAuth provider is not available")
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(oauthStateCookie, state, oauthStateMaxAge, "/", "", h.SecureCookies, true)
	c.Redirect(http.StatusFound, target)
}

// OAuthCallback is the handler for GET /v1/auth/callback
// It finishes a server side OAuth sign in and creates the profile of a
// first-time user.
func (h *Handlers) OAuthCallback(c *gin.Context) {
	// 1. --- Check State ---
	state, err := c.Cookie(oauthStateCookie)
	if err != nil || state == "" || state != c.Query("state") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid OAuth state"})
		return
	}
	c.SetCookie(oauthStateCookie, "", -1, "/", "", h.SecureCookies, true)

	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing authorization code"})
		return
	}
	provider := c.DefaultQuery("provider", defaultProvider)

	// 2. --- Exchange Code ---
	session, err := h.Gateway.ExchangeCode(c.Request.Context(), provider, code)
	if err != nil {
		h.fail(c, err, "OAuth sign in failed")
		return
	}

	// 3. --- Ensure Profile ---
	profile, err := h.Gateway.EnsureProfile(c.Request.Context(), session.User)
	if err != nil {
		h.fail(c, err, "Failed to create profile")
		return
	}

	c.JSON(http.StatusOK, gin.H{"session": session, "profile": profile})
}

// CompleteOAuth is the handler for POST /v1/auth/callback
// Backends that finish OAuth in the browser call it with the new
// access token so the profile exists before the first order.
func (h *Handlers) CompleteOAuth(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	profile, err := h.Gateway.EnsureProfile(c.Request.Context(), user)
	if err != nil {
		h.fail(c, err, "Failed to create profile")
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user, "profile": profile})
}

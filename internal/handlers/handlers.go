package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/01moynul/storefront-golang/internal/admin"
	"github.com/01moynul/storefront-golang/internal/auth"
	"github.com/01moynul/storefront-golang/internal/backend"
	"github.com/01moynul/storefront-golang/internal/cart"
	"github.com/01moynul/storefront-golang/internal/checkout"
	"github.com/01moynul/storefront-golang/internal/gateway"
	"github.com/gin-gonic/gin"
)

// Handlers struct holds all dependencies for our handlers.
type Handlers struct {
	Gateway      *gateway.Gateway
	Carts        *cart.Manager
	CheckoutFlow *checkout.Workflow
	Admin        *admin.Workflow
	Log          *slog.Logger

	// OAuthRedirectURL is where providers send the browser back to.
	OAuthRedirectURL string
	// SecureCookies marks the session and state cookies Secure.
	SecureCookies bool
}

func (h *Handlers) logger() *slog.Logger {
	if h.Log == nil {
		return slog.Default()
	}
	return h.Log
}

// statusFor maps an error from the layers below to an HTTP status.
func statusFor(err error) int {
	var berr *backend.Error
	switch {
	case errors.Is(err, backend.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, backend.ErrInvalidLogin), errors.Is(err, backend.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, backend.ErrEmailRegistered):
		return http.StatusConflict
	case errors.Is(err, backend.ErrUnsupported):
		return http.StatusNotImplemented
	case errors.Is(err, auth.ErrWeakPassword),
		errors.Is(err, gateway.ErrInvalidStatus),
		errors.Is(err, gateway.ErrInvalidPrice),
		errors.Is(err, gateway.ErrInvalidStock),
		errors.Is(err, gateway.ErrNameRequired),
		errors.Is(err, backend.ErrInvalidValue),
		errors.Is(err, backend.ErrUnknownColumn):
		return http.StatusBadRequest
	case errors.As(err, &berr):
		if berr.Status == http.StatusConflict {
			return http.StatusConflict
		}
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// fail sends err to the client. Bad requests carry the error text and
// missing rows read "Not found"; everything else gets msg, and server
// side failures are logged.
func (h *Handlers) fail(c *gin.Context, err error, msg string) {
	status := statusFor(err)
	switch status {
	case http.StatusBadRequest:
		msg = err.Error()
	case http.StatusNotFound:
		msg = "Not found"
	}
	if status >= http.StatusInternalServerError {
		h.logger().Error(msg, "method", c.Request.Method, "path", c.FullPath(), "status", status, "error", err)
	}
	c.JSON(status, gin.H{"error": msg})
}

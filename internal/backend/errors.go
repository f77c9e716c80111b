package backend

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("no rows matched")
	ErrMultipleRows    = errors.New("more than one row matched")
	ErrUnknownTable    = errors.New("unknown table")
	ErrUnknownColumn   = errors.New("unknown column")
	ErrInvalidValue    = errors.New("invalid column value")
	ErrUnsupported     = errors.New("operation not supported by this backend")
	ErrInvalidLogin    = errors.New("invalid login credentials")
	ErrInvalidToken    = errors.New("invalid or expired token")
	ErrEmailRegistered = errors.New("email already registered")
)

// Error is a failure reported by the backend itself (as opposed to a
// transport failure). It is handed to callers unchanged.
type Error struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
	Hint    string `json:"hint,omitempty"`
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("backend error %d (%s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("backend error %d: %s", e.Status, e.Message)
}

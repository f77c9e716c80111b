package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/01moynul/storefront-golang/internal/backend"
)

// Auth is the GoTrue side of the hosted backend.
type Auth struct {
	c *Client
}

type goTrueUser struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	CreatedAt   time.Time `json:"created_at"`
	AppMetadata struct {
		Provider string `json:"provider"`
	} `json:"app_metadata"`
	UserMetadata struct {
		FullName string `json:"full_name"`
		Name     string `json:"name"`
	} `json:"user_metadata"`
}

func (u goTrueUser) toUser() backend.User {
	name := u.UserMetadata.FullName
	if name == "" {
		name = u.UserMetadata.Name
	}
	provider := u.AppMetadata.Provider
	if provider == "" {
		provider = "email"
	}
	return backend.User{
		ID:        u.ID,
		Email:     u.Email,
		Provider:  provider,
		FullName:  name,
		CreatedAt: u.CreatedAt,
	}
}

type goTrueSession struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	ExpiresIn   int         `json:"expires_in"`
	ExpiresAt   int64       `json:"expires_at"`
	User        *goTrueUser `json:"user"`
}

func (s goTrueSession) toSession() backend.Session {
	out := backend.Session{AccessToken: s.AccessToken, TokenType: s.TokenType}
	switch {
	case s.ExpiresAt > 0:
		out.ExpiresAt = time.Unix(s.ExpiresAt, 0).UTC()
	case s.ExpiresIn > 0:
		out.ExpiresAt = time.Now().Add(time.Duration(s.ExpiresIn) * time.Second).UTC()
	}
	if s.User != nil {
		out.User = s.User.toUser()
	}
	return out
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignUp registers a user. When the project requires email
// confirmation GoTrue answers with the bare user and no token; the
// returned Session then has an empty AccessToken.
func (a *Auth) SignUp(ctx context.Context, email, password string) (backend.Session, error) {
	_, data, err := a.c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/v1/signup",
		body:   credentials{Email: email, Password: password},
	})
	if err != nil {
		return backend.Session{}, mapAuthError(err)
	}

	var s goTrueSession
	if err := json.Unmarshal(data, &s); err != nil {
		return backend.Session{}, fmt.Errorf("decode signup: %w", err)
	}
	if s.User == nil {
		var u goTrueUser
		if err := json.Unmarshal(data, &u); err != nil {
			return backend.Session{}, fmt.Errorf("decode signup user: %w", err)
		}
		return backend.Session{User: u.toUser()}, nil
	}
	return s.toSession(), nil
}

func (a *Auth) SignIn(ctx context.Context, email, password string) (backend.Session, error) {
	_, data, err := a.c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/v1/token",
		query:  url.Values{"grant_type": {"password"}},
		body:   credentials{Email: email, Password: password},
	})
	if err != nil {
		return backend.Session{}, mapAuthError(err)
	}
	var s goTrueSession
	if err := json.Unmarshal(data, &s); err != nil {
		return backend.Session{}, fmt.Errorf("decode session: %w", err)
	}
	return s.toSession(), nil
}

func (a *Auth) SignOut(ctx context.Context, accessToken string) error {
	_, _, err := a.c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/v1/logout",
		token:  accessToken,
	})
	return mapAuthError(err)
}

func (a *Auth) User(ctx context.Context, accessToken string) (backend.User, error) {
	if accessToken == "" {
		return backend.User{}, backend.ErrInvalidToken
	}
	_, data, err := a.c.do(ctx, request{
		method: http.MethodGet,
		path:   "/auth/v1/user",
		token:  accessToken,
	})
	if err != nil {
		return backend.User{}, mapAuthError(err)
	}
	var u goTrueUser
	if err := json.Unmarshal(data, &u); err != nil {
		return backend.User{}, fmt.Errorf("decode user: %w", err)
	}
	return u.toUser(), nil
}

// OAuthURL points the browser at the hosted authorize endpoint. The
// backend finishes the flow itself and redirects to redirectTo.
func (a *Auth) OAuthURL(provider, redirectTo, state string) (string, error) {
	if provider == "" {
		return "", fmt.Errorf("oauth provider is required")
	}
	q := url.Values{"provider": {provider}}
	if redirectTo != "" {
		q.Set("redirect_to", redirectTo)
	}
	if state != "" {
		q.Set("state", state)
	}
	return a.c.endpoint("/auth/v1/authorize", q), nil
}

func (a *Auth) ExchangeCode(ctx context.Context, provider, code string) (backend.Session, error) {
	return backend.Session{}, backend.ErrUnsupported
}

// mapAuthError maps credential and token rejections onto the backend
// sentinels and leaves everything else alone.
func mapAuthError(err error) error {
	var be *backend.Error
	if !errors.As(err, &be) {
		return err
	}
	switch {
	case be.Code == "invalid_grant" || be.Code == "invalid_credentials":
		return fmt.Errorf("%w: %s", backend.ErrInvalidLogin, be.Message)
	case be.Code == "user_already_exists" || be.Status == http.StatusUnprocessableEntity && be.Message == "User already registered":
		return fmt.Errorf("%w: %s", backend.ErrEmailRegistered, be.Message)
	case be.Status == http.StatusUnauthorized || be.Code == "bad_jwt":
		return fmt.Errorf("%w: %s", backend.ErrInvalidToken, be.Message)
	}
	return err
}

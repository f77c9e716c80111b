package backend

import (
	"context"
	"time"
)

// User is an authenticated identity as the backend sees it.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Provider  string    `json:"provider"`
	FullName  string    `json:"full_name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Session is the result of a successful sign in.
type Session struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
	User        User      `json:"user"`
}

// Auth is the authentication side of a backend.
type Auth interface {
	SignUp(ctx context.Context, email, password string) (Session, error)
	SignIn(ctx context.Context, email, password string) (Session, error)
	SignOut(ctx context.Context, accessToken string) error
	User(ctx context.Context, accessToken string) (User, error)

	// OAuthURL is where the browser goes to start an OAuth sign in.
	OAuthURL(provider, redirectTo, state string) (string, error)
	// ExchangeCode finishes an OAuth sign in on the server. Backends that
	// complete the flow in the browser return ErrUnsupported.
	ExchangeCode(ctx context.Context, provider, code string) (Session, error)
}

type accessTokenKey struct{}

// WithAccessToken attaches the caller's access token to ctx. Adapters
// that enforce row level security send it instead of the public key.
func WithAccessToken(ctx context.Context, token string) context.Context {
	if token == "" {
		return ctx
	}
	return context.WithValue(ctx, accessTokenKey{}, token)
}

// AccessToken returns the token attached by WithAccessToken.
func AccessToken(ctx context.Context) (string, bool) {
	tok, ok := ctx.Value(accessTokenKey{}).(string)
	return tok, ok && tok != ""
}

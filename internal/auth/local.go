// Package auth implements sign in for backends that do not bring their
// own: users and sessions live in the auth_users and auth_sessions
// tables of the configured executor.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/01moynul/storefront-golang/internal/backend"
	"github.com/01moynul/storefront-golang/internal/models"
	"github.com/google/uuid"
)

const ProviderEmail = "email"

// MinPasswordLength matches what the hosted backend enforces.
const MinPasswordLength = 6

var ErrWeakPassword = fmt.Errorf("password must be at least %d characters", MinPasswordLength)

// Local implements backend.Auth over an Executor.
type Local struct {
	db     backend.Executor
	tokens *Tokens
	oauth  map[string]*OAuthProvider
	now    func() time.Time
}

func NewLocal(db backend.Executor, tokens *Tokens, providers ...*OAuthProvider) *Local {
	l := &Local{db: db, tokens: tokens, oauth: make(map[string]*OAuthProvider), now: time.Now}
	for _, p := range providers {
		l.oauth[p.Name] = p
	}
	return l
}

func (l *Local) SignUp(ctx context.Context, email, password string) (backend.Session, error) {
	// 1. --- Validate Input ---
	email = normalizeEmail(email)
	if email == "" {
		return backend.Session{}, errors.New("email is required")
	}
	if len(password) < MinPasswordLength {
		return backend.Session{}, ErrWeakPassword
	}

	// 2. --- Check Email Is Free ---
	if _, err := l.findUser(ctx, email); err == nil {
		return backend.Session{}, backend.ErrEmailRegistered
	} else if !errors.Is(err, backend.ErrNotFound) {
		return backend.Session{}, err
	}

	// 3. --- Hash Password ---
	var pw models.Password
	if err := pw.Set(password); err != nil {
		return backend.Session{}, fmt.Errorf("hash password: %w", err)
	}

	// 4. --- Insert User ---
	rows, err := backend.From(l.db, backend.TableAuthUsers).Insert(ctx, backend.Row{
		"id":            uuid.NewString(),
		"email":         email,
		"password_hash": pw.Hash,
		"provider":      ProviderEmail,
	})
	if err != nil {
		return backend.Session{}, err
	}
	if len(rows) == 0 {
		return backend.Session{}, errors.New("sign up: user was not stored")
	}

	// 5. --- Open Session ---
	return l.openSession(ctx, userFromRow(rows[0]))
}

func (l *Local) SignIn(ctx context.Context, email, password string) (backend.Session, error) {
	row, err := l.findUser(ctx, normalizeEmail(email))
	if errors.Is(err, backend.ErrNotFound) {
		return backend.Session{}, backend.ErrInvalidLogin
	}
	if err != nil {
		return backend.Session{}, err
	}

	// OAuth-only accounts have no password to match.
	pw := models.Password{Hash: row.String("password_hash")}
	if pw.Hash == "" {
		return backend.Session{}, backend.ErrInvalidLogin
	}
	ok, err := pw.Matches(password)
	if err != nil {
		return backend.Session{}, fmt.Errorf("compare password: %w", err)
	}
	if !ok {
		return backend.Session{}, backend.ErrInvalidLogin
	}
	return l.openSession(ctx, userFromRow(row))
}

// SignOut deletes the session behind the token. An unknown or expired
// token is not an error: the caller ends up signed out either way.
func (l *Local) SignOut(ctx context.Context, accessToken string) error {
	claims, err := l.tokens.ValidateToken(accessToken)
	if err != nil {
		return nil
	}
	_, err = backend.From(l.db, backend.TableAuthSessions).Eq("id", claims.SessionID).Delete(ctx)
	return err
}

func (l *Local) User(ctx context.Context, accessToken string) (backend.User, error) {
	// 1. Validate the signature and expiry.
	claims, err := l.tokens.ValidateToken(accessToken)
	if err != nil {
		return backend.User{}, fmt.Errorf("%w: %v", backend.ErrInvalidToken, err)
	}

	// 2. The session must still exist and belong to the subject.
	sess, err := backend.From(l.db, backend.TableAuthSessions).Eq("id", claims.SessionID).Single(ctx)
	if errors.Is(err, backend.ErrNotFound) {
		return backend.User{}, fmt.Errorf("%w: session revoked", backend.ErrInvalidToken)
	}
	if err != nil {
		return backend.User{}, err
	}
	if sess.String("user_id") != claims.Subject || !sess.Time("expires_at").After(l.now()) {
		return backend.User{}, fmt.Errorf("%w: session expired", backend.ErrInvalidToken)
	}

	// 3. Load the user.
	row, err := backend.From(l.db, backend.TableAuthUsers).Eq("id", claims.Subject).Single(ctx)
	if errors.Is(err, backend.ErrNotFound) {
		return backend.User{}, fmt.Errorf("%w: user deleted", backend.ErrInvalidToken)
	}
	if err != nil {
		return backend.User{}, err
	}
	return userFromRow(row), nil
}

func (l *Local) OAuthURL(provider, redirectTo, state string) (string, error) {
	p, ok := l.oauth[provider]
	if !ok {
		return "", fmt.Errorf("oauth provider %q: %w", provider, backend.ErrUnsupported)
	}
	return p.AuthURL(redirectTo, state), nil
}

// ExchangeCode completes an OAuth sign in: it trades the code for the
// provider's token, reads the user's email and signs them in, creating
// the auth user on first visit.
func (l *Local) ExchangeCode(ctx context.Context, provider, code string) (backend.Session, error) {
	p, ok := l.oauth[provider]
	if !ok {
		return backend.Session{}, fmt.Errorf("oauth provider %q: %w", provider, backend.ErrUnsupported)
	}
	info, err := p.Exchange(ctx, code)
	if err != nil {
		return backend.Session{}, err
	}

	email := normalizeEmail(info.Email)
	row, err := l.findUser(ctx, email)
	switch {
	case err == nil:
	case errors.Is(err, backend.ErrNotFound):
		rows, err := backend.From(l.db, backend.TableAuthUsers).Insert(ctx, backend.Row{
			"id":        uuid.NewString(),
			"email":     email,
			"provider":  provider,
			"full_name": info.Name,
		})
		if err != nil {
			return backend.Session{}, err
		}
		if len(rows) == 0 {
			return backend.Session{}, errors.New("oauth: user was not stored")
		}
		row = rows[0]
	default:
		return backend.Session{}, err
	}
	return l.openSession(ctx, userFromRow(row))
}

func (l *Local) findUser(ctx context.Context, email string) (backend.Row, error) {
	return backend.From(l.db, backend.TableAuthUsers).Eq("email", email).Single(ctx)
}

func (l *Local) openSession(ctx context.Context, user backend.User) (backend.Session, error) {
	sessionID := uuid.NewString()
	token, expiresAt, err := l.tokens.GenerateToken(user.ID, sessionID)
	if err != nil {
		return backend.Session{}, fmt.Errorf("sign token: %w", err)
	}
	_, err = backend.From(l.db, backend.TableAuthSessions).Insert(ctx, backend.Row{
		"id":         sessionID,
		"user_id":    user.ID,
		"expires_at": expiresAt,
	})
	if err != nil {
		return backend.Session{}, err
	}
	return backend.Session{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresAt:   expiresAt,
		User:        user,
	}, nil
}

func userFromRow(r backend.Row) backend.User {
	return backend.User{
		ID:        r.String("id"),
		Email:     r.String("email"),
		Provider:  r.String("provider"),
		FullName:  r.String("full_name"),
		CreatedAt: r.Time("created_at"),
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

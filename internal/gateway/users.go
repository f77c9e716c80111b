package gateway

import (
	"context"
	"errors"

	"github.com/01moynul/storefront-golang/internal/backend"
	"github.com/01moynul/storefront-golang/internal/models"
)

// SignUp registers the user and creates their profile row as the new
// user. A failed profile insert is logged and the session still
// returned: the auth user exists by then, and EnsureProfile creates the
// profile on the next callback.
func (g *Gateway) SignUp(ctx context.Context, email, password, fullName string) (backend.Session, error) {
	s, err := g.auth.SignUp(ctx, email, password)
	if err != nil {
		return backend.Session{}, err
	}
	if s.User.ID == "" {
		return s, nil
	}
	_, err = g.from(backend.TableUserProfiles).Insert(backend.WithAccessToken(ctx, s.AccessToken), backend.Row{
		"id":        s.User.ID,
		"email":     s.User.Email,
		"full_name": nullable(fullName),
		"is_admin":  false,
	})
	if err != nil {
		g.log.Warn("profile insert after sign up failed", "user_id", s.User.ID, "error", err)
	}
	return s, nil
}

func (g *Gateway) SignIn(ctx context.Context, email, password string) (backend.Session, error) {
	return g.auth.SignIn(ctx, email, password)
}

func (g *Gateway) SignOut(ctx context.Context, accessToken string) error {
	return g.auth.SignOut(ctx, accessToken)
}

func (g *Gateway) CurrentUser(ctx context.Context, accessToken string) (backend.User, error) {
	return g.auth.User(ctx, accessToken)
}

func (g *Gateway) OAuthURL(provider, redirectTo, state string) (string, error) {
	return g.auth.OAuthURL(provider, redirectTo, state)
}

func (g *Gateway) ExchangeCode(ctx context.Context, provider, code string) (backend.Session, error) {
	return g.auth.ExchangeCode(ctx, provider, code)
}

func (g *Gateway) UserProfile(ctx context.Context, userID string) (models.UserProfile, error) {
	row, err := g.from(backend.TableUserProfiles).Eq("id", userID).Single(ctx)
	if err != nil {
		return models.UserProfile{}, err
	}
	return profileFromRow(row), nil
}

// EnsureProfile creates the profile of a first-time OAuth user and
// returns the stored profile either way.
func (g *Gateway) EnsureProfile(ctx context.Context, user backend.User) (models.UserProfile, error) {
	p, err := g.UserProfile(ctx, user.ID)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, backend.ErrNotFound) {
		return models.UserProfile{}, err
	}

	rows, err := g.from(backend.TableUserProfiles).Insert(ctx, backend.Row{
		"id":        user.ID,
		"email":     user.Email,
		"full_name": nullable(user.FullName),
		"is_admin":  false,
	})
	if err != nil {
		return models.UserProfile{}, err
	}
	if len(rows) == 0 {
		return g.UserProfile(ctx, user.ID)
	}
	return profileFromRow(rows[0]), nil
}

// IsAdmin reports the profile's admin flag. A user without a profile is
// not an admin.
func (g *Gateway) IsAdmin(ctx context.Context, userID string) (bool, error) {
	row, err := g.from(backend.TableUserProfiles).Select("is_admin").Eq("id", userID).Single(ctx)
	if errors.Is(err, backend.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return row.Bool("is_admin"), nil
}

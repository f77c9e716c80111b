package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"

// OAuthUser is the part of the provider's profile we keep.
type OAuthUser struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// OAuthProvider is one configured OAuth identity provider.
type OAuthProvider struct {
	Name        string
	Config      *oauth2.Config
	UserInfoURL string
}

// NewGoogleProvider configures Google sign in.
func NewGoogleProvider(clientID, clientSecret, redirectURL string) *OAuthProvider {
	return &OAuthProvider{
		Name: "google",
		Config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
		UserInfoURL: googleUserInfoURL,
	}
}

// AuthURL is where the browser is sent to consent. redirectTo overrides
// the configured callback when set.
func (p *OAuthProvider) AuthURL(redirectTo, state string) string {
	var opts []oauth2.AuthCodeOption
	if redirectTo != "" {
		opts = append(opts, oauth2.SetAuthURLParam("redirect_uri", redirectTo))
	}
	return p.Config.AuthCodeURL(state, opts...)
}

// Exchange trades an authorization code for the user's profile.
func (p *OAuthProvider) Exchange(ctx context.Context, code string) (OAuthUser, error) {
	if code == "" {
		return OAuthUser{}, errors.New("oauth: missing authorization code")
	}
	tok, err := p.Config.Exchange(ctx, code)
	if err != nil {
		return OAuthUser{}, fmt.Errorf("oauth exchange: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.UserInfoURL, nil)
	if err != nil {
		return OAuthUser{}, err
	}
	resp, err := p.Config.Client(ctx, tok).Do(req)
	if err != nil {
		return OAuthUser{}, fmt.Errorf("oauth userinfo: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return OAuthUser{}, fmt.Errorf("oauth userinfo: status %d", resp.StatusCode)
	}

	var u OAuthUser
	if err := json.NewDecoder(resp.Body).Decode(&u); err != nil {
		return OAuthUser{}, fmt.Errorf("decode userinfo: %w", err)
	}
	if u.Email == "" {
		return OAuthUser{}, errors.New("oauth userinfo: no email on account")
	}
	return u, nil
}

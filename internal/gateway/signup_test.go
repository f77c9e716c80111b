package gateway

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/01moynul/storefront-golang/internal/backend"
	"github.com/01moynul/storefront-golang/internal/backend/rest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// hostedBackend fakes GoTrue sign up and records the Authorization
// header of the profile insert.
type hostedBackend struct {
	mu          sync.Mutex
	profileAuth string
	profileCode int
}

func (b *hostedBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch r.URL.Path {
	case "/auth/v1/signup":
		_, _ = io.WriteString(w, `{"access_token":"new-user-token","token_type":"bearer","expires_in":3600,
			"user":{"id":"u1","email":"ada@example.com","created_at":"2024-05-01T10:00:00Z"}}`)
	case "/rest/v1/user_profiles":
		b.mu.Lock()
		b.profileAuth = r.Header.Get("Authorization")
		code := b.profileCode
		b.mu.Unlock()
		if code != 0 {
			w.WriteHeader(code)
			_, _ = io.WriteString(w, `{"code":"42501","message":"new row violates row-level security policy"}`)
			return
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `[{"id":"u1","email":"ada@example.com","is_admin":false,"created_at":"2024-05-01T10:00:00Z"}]`)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newHostedGateway(t *testing.T, b *hostedBackend) *Gateway {
	t.Helper()
	srv := httptest.NewServer(b)
	t.Cleanup(srv.Close)
	c, err := rest.New(srv.URL, "anon-key", 5*time.Second, backend.StorefrontSchema())
	require.NoError(t, err)
	return New(c.Backend())
}

func TestSignUpInsertsProfileAsNewUser(t *testing.T) {
	b := &hostedBackend{}
	g := newHostedGateway(t, b)

	s, err := g.SignUp(context.Background(), "ada@example.com", "hunter22", "Ada")
	require.NoError(t, err)
	assert.Equal(t, "new-user-token", s.AccessToken)

	b.mu.Lock()
	defer b.mu.Unlock()
	assert.Equal(t, "Bearer new-user-token", b.profileAuth)
}

func TestSignUpSurvivesProfileInsertFailure(t *testing.T) {
	b := &hostedBackend{profileCode: http.StatusForbidden}
	g := newHostedGateway(t, b)

	s, err := g.SignUp(context.Background(), "ada@example.com", "hunter22", "Ada")
	require.NoError(t, err)
	assert.Equal(t, "u1", s.User.ID)
	assert.Equal(t, "new-user-token", s.AccessToken)
}

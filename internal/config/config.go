// Package config reads process settings from the environment, after
// loading a .env file when one is present.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Policy decides what happens when required settings are missing.
type Policy string

const (
	// PolicyFailFast refuses to start.
	PolicyFailFast Policy = "fail-fast"
	// PolicyWarn logs the problem and falls back to the in-memory backend.
	PolicyWarn Policy = "warn"
)

// MemoryBackendURL selects the in-memory backend.
const MemoryBackendURL = "memory://"

// Backend kinds, picked from the BACKEND_URL scheme.
const (
	BackendREST   = "rest"
	BackendMySQL  = "mysql"
	BackendMemory = "memory"
)

// Cart store kinds.
const (
	CartStoreFile     = "file"
	CartStoreDynamoDB = "dynamodb"
	CartStoreMemory   = "memory"
)

type Config struct {
	AppEnv   string
	LogLevel string
	HTTPPort int
	Policy   Policy

	BackendURL     string
	BackendAnonKey string
	BackendTimeout time.Duration
	// BackendServiceKey bypasses row level security on the hosted
	// backend. Only the order items reconciler uses it.
	BackendServiceKey string

	JWTSecret  string
	SessionTTL time.Duration
	CORSOrigin string

	CartStore         string
	CartStoreDir      string
	CartDynamoDBTable string
	AWSRegion         string

	OAuthGoogleClientID     string
	OAuthGoogleClientSecret string
	OAuthRedirectURL        string

	ReconcileInterval    time.Duration
	ReconcileMaxAttempts int

	// Warnings are problems the warn policy let through. The caller
	// logs them once a logger exists.
	Warnings []string
}

// ErrMissing is wrapped by the error Load returns under PolicyFailFast.
var ErrMissing = errors.New("missing required configuration")

// Load reads .env (if present) and then the process environment.
func Load() (Config, error) {
	var warnings []string
	if err := godotenv.Load(); err != nil {
		warnings = append(warnings, "could not find or load .env file, relying on system environment variables")
	}
	cfg, err := FromEnv(os.Getenv)
	cfg.Warnings = append(warnings, cfg.Warnings...)
	return cfg, err
}

// FromEnv builds a Config from getenv.
func FromEnv(getenv func(string) string) (Config, error) {
	env := lookup(getenv)

	appEnv := env.str("APP_ENV", "development")
	cfg := Config{
		AppEnv:   appEnv,
		LogLevel: env.str("LOG_LEVEL", "info"),
		HTTPPort: env.int("HTTP_PORT", 8080),
		Policy:   Policy(env.str("ENV_POLICY", string(defaultPolicy(appEnv)))),

		BackendURL:     strings.TrimSpace(getenv("BACKEND_URL")),
		BackendAnonKey: strings.TrimSpace(getenv("BACKEND_ANON_KEY")),
		BackendTimeout: env.duration("BACKEND_TIMEOUT", 10*time.Second),

		BackendServiceKey: strings.TrimSpace(getenv("BACKEND_SERVICE_KEY")),

		JWTSecret:  getenv("JWT_SECRET"),
		SessionTTL: env.duration("SESSION_TTL", 72*time.Hour),
		CORSOrigin: env.str("CORS_ORIGIN", "http://localhost:3000"),

		CartStore:         env.str("CART_STORE", CartStoreFile),
		CartStoreDir:      env.str("CART_STORE_DIR", "./data/carts"),
		CartDynamoDBTable: getenv("CART_DYNAMODB_TABLE"),
		AWSRegion:         getenv("AWS_REGION"),

		OAuthGoogleClientID:     getenv("OAUTH_GOOGLE_CLIENT_ID"),
		OAuthGoogleClientSecret: getenv("OAUTH_GOOGLE_CLIENT_SECRET"),
		OAuthRedirectURL:        getenv("OAUTH_REDIRECT_URL"),

		ReconcileInterval:    env.duration("RECONCILE_INTERVAL", time.Minute),
		ReconcileMaxAttempts: env.int("RECONCILE_MAX_ATTEMPTS", 5),
	}
	cfg.Warnings = env.warnings

	if cfg.Policy != PolicyFailFast && cfg.Policy != PolicyWarn {
		return cfg, fmt.Errorf("ENV_POLICY must be %q or %q, got %q", PolicyFailFast, PolicyWarn, cfg.Policy)
	}
	switch cfg.CartStore {
	case CartStoreFile, CartStoreDynamoDB, CartStoreMemory:
	default:
		return cfg, fmt.Errorf("CART_STORE must be file, dynamodb or memory, got %q", cfg.CartStore)
	}

	if missing := cfg.missing(); len(missing) > 0 {
		if cfg.Policy == PolicyFailFast {
			return cfg, fmt.Errorf("%w: %s", ErrMissing, strings.Join(missing, ", "))
		}
		cfg.applyFallbacks(missing)
	}
	if _, err := cfg.BackendKind(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// defaultPolicy is strict in production and lenient everywhere else.
func defaultPolicy(appEnv string) Policy {
	if appEnv == "production" {
		return PolicyFailFast
	}
	return PolicyWarn
}

// missing lists unset keys. The in-memory backend needs no public key,
// and the hosted backend brings its own auth; every other backend signs
// tokens with JWT_SECRET.
func (c Config) missing() []string {
	var out []string
	kind, err := c.BackendKind()
	if c.BackendURL == "" {
		out = append(out, "BACKEND_URL")
	}
	if c.BackendAnonKey == "" && kind != BackendMemory {
		out = append(out, "BACKEND_ANON_KEY")
	}
	if (err != nil || kind != BackendREST) && c.JWTSecret == "" {
		out = append(out, "JWT_SECRET")
	}
	if c.CartStore == CartStoreDynamoDB && c.CartDynamoDBTable == "" {
		out = append(out, "CART_DYNAMODB_TABLE")
	}
	return out
}

func (c *Config) applyFallbacks(missing []string) {
	for _, key := range missing {
		switch key {
		case "BACKEND_URL", "BACKEND_ANON_KEY":
			if c.BackendURL != MemoryBackendURL {
				c.warnf("%s is not set, falling back to the in-memory backend", key)
				c.BackendURL = MemoryBackendURL
			}
		case "JWT_SECRET":
			c.warnf("JWT_SECRET is not set, using a random secret: sessions will not survive a restart")
			c.JWTSecret = randomSecret()
		case "CART_DYNAMODB_TABLE":
			c.warnf("CART_DYNAMODB_TABLE is not set, keeping carts in memory")
			c.CartStore = CartStoreMemory
		}
	}
	if c.JWTSecret == "" {
		c.JWTSecret = randomSecret()
	}
}

// BackendKind maps the BACKEND_URL scheme to an adapter.
func (c Config) BackendKind() (string, error) {
	u, err := url.Parse(c.BackendURL)
	if err != nil {
		return "", fmt.Errorf("BACKEND_URL: %w", err)
	}
	switch u.Scheme {
	case "http", "https":
		return BackendREST, nil
	case "mysql":
		return BackendMySQL, nil
	case "memory":
		return BackendMemory, nil
	}
	return "", fmt.Errorf("BACKEND_URL: unsupported scheme %q", u.Scheme)
}

// ReconcilerToken is the access token the order items reconciler runs
// with. The backlog holds every user's orders, so on the hosted backend
// it needs the service key and is off (ok false) without one. Local
// backends have no row level security and need no token.
func (c Config) ReconcilerToken() (token string, ok bool) {
	kind, err := c.BackendKind()
	if err != nil {
		return "", false
	}
	if kind == BackendREST {
		return c.BackendServiceKey, c.BackendServiceKey != ""
	}
	return "", true
}

// IsDevelopment reports whether the process runs in development mode.
func (c Config) IsDevelopment() bool {
	return c.AppEnv == "development" || c.AppEnv == "dev"
}

// OAuthGoogleEnabled reports whether Google sign in is configured.
func (c Config) OAuthGoogleEnabled() bool {
	return c.OAuthGoogleClientID != "" && c.OAuthGoogleClientSecret != ""
}

func (c *Config) warnf(format string, args ...any) {
	c.Warnings = append(c.Warnings, fmt.Sprintf(format, args...))
}

func randomSecret() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b)
}

type envReader struct {
	getenv   func(string) string
	warnings []string
}

func lookup(getenv func(string) string) *envReader {
	return &envReader{getenv: getenv}
}

func (e *envReader) str(key, def string) string {
	if v := strings.TrimSpace(e.getenv(key)); v != "" {
		return v
	}
	return def
}

func (e *envReader) int(key string, def int) int {
	v := strings.TrimSpace(e.getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		e.warnings = append(e.warnings, fmt.Sprintf("%s=%q is not a number, using %d", key, v, def))
		return def
	}
	return n
}

func (e *envReader) duration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(e.getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		e.warnings = append(e.warnings, fmt.Sprintf("%s=%q is not a valid duration, using %s", key, v, def))
		return def
	}
	return d
}

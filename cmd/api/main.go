package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/01moynul/storefront-golang/internal/admin"
	"github.com/01moynul/storefront-golang/internal/auth"
	"github.com/01moynul/storefront-golang/internal/backend"
	"github.com/01moynul/storefront-golang/internal/backend/memory"
	"github.com/01moynul/storefront-golang/internal/backend/mysqldb"
	"github.com/01moynul/storefront-golang/internal/backend/rest"
	"github.com/01moynul/storefront-golang/internal/cart"
	"github.com/01moynul/storefront-golang/internal/checkout"
	"github.com/01moynul/storefront-golang/internal/config"
	"github.com/01moynul/storefront-golang/internal/database"
	"github.com/01moynul/storefront-golang/internal/gateway"
	"github.com/01moynul/storefront-golang/internal/handlers"
	"github.com/01moynul/storefront-golang/internal/logger"
	"github.com/01moynul/storefront-golang/internal/routes"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/gin-gonic/gin"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// 0. --- Load Configuration (.env + environment) ---
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	lg := logger.New(logger.Options{
		Service: "storefront-api",
		Env:     cfg.AppEnv,
		Level:   cfg.LogLevel,
	})
	for _, w := range cfg.Warnings {
		lg.Warn("config", "warning", w)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, lg); err != nil {
		lg.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, lg *slog.Logger) error {
	// 1. --- Backend Connection ---
	client, kind, closeBackend, err := openBackend(ctx, cfg, lg)
	if err != nil {
		return err
	}
	defer closeBackend()
	gw := gateway.New(client)

	if kind == config.BackendMemory {
		if err := seedDevelopment(ctx, gw, client.DB, lg); err != nil {
			return fmt.Errorf("seed memory backend: %w", err)
		}
	}

	// 2. --- Cart Persistence ---
	persister, err := openCartStore(ctx, cfg)
	if err != nil {
		return err
	}
	lg.Info("cart store ready", "kind", cfg.CartStore)

	// --- Application Setup ---
	app := &handlers.Handlers{
		Gateway:          gw,
		Carts:            cart.NewManager(persister),
		CheckoutFlow:     checkout.New(gw, lg),
		Admin:            admin.New(gw),
		Log:              lg,
		OAuthRedirectURL: cfg.OAuthRedirectURL,
		SecureCookies:    !cfg.IsDevelopment(),
	}

	// --- 3. Background Workers ---
	// Order items that failed at checkout are retried until they stick
	// or run out of attempts.
	if token, ok := cfg.ReconcilerToken(); ok {
		reconciler := checkout.NewReconciler(gw, cfg.ReconcileMaxAttempts, lg)
		go reconciler.Start(backend.WithAccessToken(ctx, token), cfg.ReconcileInterval)
		lg.Info("background worker started", "worker", "order-items-reconciler", "interval", cfg.ReconcileInterval.String())
	} else {
		lg.Warn("order items reconciler disabled: BACKEND_SERVICE_KEY is not set for the hosted backend")
	}

	// --- Router Setup ---
	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	opts := routes.Options{CORSOrigin: cfg.CORSOrigin}
	if kind != config.BackendREST {
		opts.APIKey = cfg.BackendAnonKey
	}
	router := routes.SetupRouter(app, opts)

	// --- Start Server ---
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		lg.Info("starting storefront API server", "addr", srv.Addr, "backend", kind)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	lg.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// openBackend builds the adapter selected by the BACKEND_URL scheme.
func openBackend(ctx context.Context, cfg config.Config, lg *slog.Logger) (backend.Client, string, func(), error) {
	noop := func() {}
	schema := backend.StorefrontSchema()

	kind, err := cfg.BackendKind()
	if err != nil {
		return backend.Client{}, "", noop, err
	}

	var providers []*auth.OAuthProvider
	if cfg.OAuthGoogleEnabled() {
		providers = append(providers, auth.NewGoogleProvider(cfg.OAuthGoogleClientID, cfg.OAuthGoogleClientSecret, cfg.OAuthRedirectURL))
	}
	localAuth := func(exec backend.Executor) (backend.Auth, error) {
		tokens, err := auth.NewTokens(cfg.JWTSecret, cfg.SessionTTL)
		if err != nil {
			return nil, err
		}
		return auth.NewLocal(exec, tokens, providers...), nil
	}

	switch kind {
	case config.BackendREST:
		c, err := rest.New(cfg.BackendURL, cfg.BackendAnonKey, cfg.BackendTimeout, schema)
		if err != nil {
			return backend.Client{}, "", noop, err
		}
		lg.Info("using hosted backend", "url", cfg.BackendURL)
		return c.Backend(), kind, noop, nil

	case config.BackendMySQL:
		dsn, err := database.DSNFromURL(cfg.BackendURL)
		if err != nil {
			return backend.Client{}, "", noop, err
		}
		db, err := database.OpenDBWithDSN(ctx, dsn)
		if err != nil {
			return backend.Client{}, "", noop, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := database.InitSchema(ctx, db); err != nil {
			db.Close()
			return backend.Client{}, "", noop, err
		}
		exec := mysqldb.New(db, schema)
		a, err := localAuth(exec)
		if err != nil {
			db.Close()
			return backend.Client{}, "", noop, err
		}
		return backend.Client{DB: exec, Auth: a}, kind, func() { db.Close() }, nil

	default:
		store := memory.New(schema)
		a, err := localAuth(store)
		if err != nil {
			return backend.Client{}, "", noop, err
		}
		lg.Warn("using in-memory backend: data is lost on restart")
		return backend.Client{DB: store, Auth: a}, kind, noop, nil
	}
}

func openCartStore(ctx context.Context, cfg config.Config) (cart.Persister, error) {
	switch cfg.CartStore {
	case config.CartStoreDynamoDB:
		var opts []func(*awsconfig.LoadOptions) error
		if cfg.AWSRegion != "" {
			opts = append(opts, awsconfig.WithRegion(cfg.AWSRegion))
		}
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		return cart.NewDynamoPersister(dynamodb.NewFromConfig(awsCfg), cfg.CartDynamoDBTable), nil
	case config.CartStoreMemory:
		return cart.NewMemoryPersister(), nil
	default:
		return cart.NewFilePersister(cfg.CartStoreDir)
	}
}

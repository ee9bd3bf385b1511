package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/exsettle/settlementd/internal/api"
	"github.com/exsettle/settlementd/internal/auth"
	"github.com/exsettle/settlementd/internal/config"
	"github.com/exsettle/settlementd/internal/crypto"
	"github.com/exsettle/settlementd/internal/metrics"
	"github.com/exsettle/settlementd/internal/middleware"
	"github.com/exsettle/settlementd/internal/service"
	"github.com/exsettle/settlementd/internal/storage/sqlite"
	"github.com/exsettle/settlementd/pkg/logging"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.IsProduction())

	// The store must be usable before any traffic is served; a schema
	// failure here is fatal.
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", cfg.DBPath)

	// Key derivation is deliberately slow; doing it once here keeps it
	// off the request path.
	cipher, err := crypto.NewMemoCipher(cfg.EncryptionKey)
	if err != nil {
		slog.Error("Failed to initialize memo cipher", "error", err)
		os.Exit(1)
	}

	svc := service.NewSettlementService(store, cipher, slog.Default(), cfg.EchoMemo)
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL)
	apiKeyVerifier := auth.NewAPIKeyVerifier(cfg.APIKey, cfg.AuthDisabled)
	if cfg.AuthDisabled {
		slog.Warn("Shared-secret gate is DISABLED; this must never happen outside a test harness")
	}

	router := api.NewRouter(api.RouterDeps{
		Handlers:    api.NewHandlers(svc, jwtManager, cfg.Service, cfg.IsProduction()),
		APIKey:      apiKeyVerifier,
		JWT:         jwtManager,
		Metrics:     metrics.New(),
		RateLimiter: middleware.NewRateLimiter(cfg.RateLimit, "/api/v1/health"),
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Settlement service starting",
			"address", server.Addr,
			"env", cfg.Env,
		)
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	case sig := <-stop:
		slog.Info("Shutting down", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			slog.Error("Graceful shutdown failed", "error", err)
			os.Exit(1)
		}
	}

	slog.Info("Server stopped")
}

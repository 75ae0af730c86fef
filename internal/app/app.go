package app

import (
	"context"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/pollchat/internal/auth"
	"github.com/vovakirdan/pollchat/internal/config"
	"github.com/vovakirdan/pollchat/internal/metrics"
	"github.com/vovakirdan/pollchat/internal/store"
	"github.com/vovakirdan/pollchat/internal/store/badgerstore"
	"github.com/vovakirdan/pollchat/internal/store/sqlite"
	transporthttp "github.com/vovakirdan/pollchat/internal/transport/http"
)

// App wires together store and transport layers.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	store           store.Store
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	st, err := OpenStore(cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}
	logger.Info().Str("driver", cfg.Store.Driver).Str("path", cfg.Store.Path).Msg("store initialized")

	var m *metrics.Metrics
	if cfg.MetricsEnabled {
		m = metrics.New()
		st = m.InstrumentStore(st)
	}

	var authService *auth.Service
	if cfg.JWT.Secret != "" {
		authService = auth.NewService(JWTConfig(cfg))
	} else {
		logger.Info().Msg("jwt secret not set, /api/user disabled")
	}

	server := transporthttp.NewServer(st, authService, m, cfg, logger)

	return &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		store:           st,
		log:             logger,
	}, nil
}

// OpenStore opens the backend selected by cfg.Driver.
func OpenStore(cfg config.StoreConfig) (store.Store, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		st, err := sqlite.New(cfg.Path)
		if err != nil {
			return nil, err
		}
		return st, nil
	case config.DriverBadger:
		st, err := badgerstore.New(cfg.Path)
		if err != nil {
			return nil, err
		}
		return st, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

// JWTConfig converts the token settings of cfg.
func JWTConfig(cfg *config.Config) *auth.JWTConfig {
	return &auth.JWTConfig{
		Secret:   []byte(cfg.JWT.Secret),
		Issuer:   cfg.JWT.Issuer,
		Audience: cfg.JWT.Audience,
		TTL:      cfg.JWT.TTL,
	}
}

// Handler exposes the HTTP handler, mainly for tests.
func (a *App) Handler() stdhttp.Handler {
	return a.server.Handler
}

// Run starts the HTTP server and blocks until context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	go func() {
		a.log.Info().Str("addr", a.server.Addr).Msg("http server listening")
		if err := a.server.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		a.cleanup()
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.cleanup()
			return err
		}

		a.cleanup()
		return <-serverErr
	}
}

// cleanup closes database and other resources.
func (a *App) cleanup() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close store")
		} else {
			a.log.Info().Msg("store closed")
		}
	}
}

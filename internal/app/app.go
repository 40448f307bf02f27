package app

import (
	"context"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/wireroom-server/internal/config"
	"github.com/vovakirdan/wireroom-server/internal/core"
	"github.com/vovakirdan/wireroom-server/internal/files"
	"github.com/vovakirdan/wireroom-server/internal/store"
	"github.com/vovakirdan/wireroom-server/internal/store/memory"
	"github.com/vovakirdan/wireroom-server/internal/store/mongodb"
	"github.com/vovakirdan/wireroom-server/internal/store/redisdb"
	"github.com/vovakirdan/wireroom-server/internal/store/sqlite"
	transporthttp "github.com/vovakirdan/wireroom-server/internal/transport/http"
)

const connectTimeout = 10 * time.Second

// App wires together core and transport layers.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	ctrl            *core.Controller
	store           store.Store
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	st, err := openStore(ctx, cfg.Store, cfg.Chat.HistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}
	logger.Info().Str("driver", cfg.Store.Driver).Msg("store initialized")

	docs, err := files.New(cfg.Documents.Dir, cfg.Documents.MaxUploadBytes, logger)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("init documents: %w", err)
	}

	ctrl := core.NewController(store.NewRooms(st), st, docs, core.Options{
		OptimisticStrokes: cfg.Whiteboard.OptimisticBroadcast,
		MaxMessageLength:  cfg.Chat.MaxTextLength,
		HistoryLimit:      cfg.Chat.HistoryLimit,
	}, logger)

	// Rosters left by a previous process refer to dead connections.
	if err := ctrl.Recover(ctx); err != nil {
		st.Close()
		return nil, fmt.Errorf("startup recovery: %w", err)
	}

	server := transporthttp.NewServer(ctrl, docs, cfg, logger)

	return &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		ctrl:            ctrl,
		store:           st,
		log:             logger,
	}, nil
}

func openStore(ctx context.Context, cfg config.StoreConfig, historyCap int) (store.Store, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	switch cfg.Driver {
	case config.DriverMemory:
		return memory.New(), nil
	case config.DriverSQLite:
		return sqlite.New(cfg.SQLitePath)
	case config.DriverMongo:
		return mongodb.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
	case config.DriverRedis:
		return redisdb.Connect(ctx, redisdb.Options{
			Addr:       cfg.RedisAddr,
			Password:   cfg.RedisPassword,
			DB:         cfg.RedisDB,
			HistoryCap: max(historyCap, 500),
		})
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
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

package foodadminpanel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/PRECISEKY/food-admin-panel/internal/authstate"
	"github.com/PRECISEKY/food-admin-panel/internal/backend"
	"github.com/PRECISEKY/food-admin-panel/internal/config"
	"github.com/PRECISEKY/food-admin-panel/internal/console"
	"github.com/PRECISEKY/food-admin-panel/internal/events"
	"github.com/PRECISEKY/food-admin-panel/internal/http/handlers/health"
	"github.com/PRECISEKY/food-admin-panel/internal/http/views"
	"github.com/PRECISEKY/food-admin-panel/internal/lib/jwt"
	"github.com/PRECISEKY/food-admin-panel/internal/lib/sl"
	"github.com/PRECISEKY/food-admin-panel/internal/locale"
	"github.com/PRECISEKY/food-admin-panel/internal/migrations"
	"github.com/PRECISEKY/food-admin-panel/internal/storage/repository"
	"github.com/PRECISEKY/food-admin-panel/internal/telemetry"
)

// ServiceName: имя сервиса в трассировках.
const ServiceName = "food-admin-panel"

type eventPublisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
	Close() error
}

// App: процесс консоли: HTTP-сервер, реестр клиентов и их зависимости.
type App struct {
	server    *http.Server
	logger    *slog.Logger
	db        *repository.Storage
	keeper    *authstate.Keeper
	registry  *console.Registry
	publisher eventPublisher
	shutdown  func(context.Context) error
}

// New подключается к PostgreSQL, redis и брокеру и собирает маршруты.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "app.New"

	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	keeper, err := authstate.InitServer(ctx, cfg.RedisConnection, logger)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var publisher eventPublisher = events.NopPublisher{}
	if cfg.AMQP.URL != "" {
		p, err := events.Connect(cfg.AMQP.URL, cfg.AMQP.Exchange, logger)
		if err != nil {
			_ = keeper.Close()
			_ = db.Close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		publisher = p
	} else {
		logger.Info("amqp url is empty, domain events are disabled")
	}

	tokens := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)
	auth := backend.NewService(db, tokens, backend.RedisKeeper{Keeper: keeper}, cfg.RefreshBefore, logger)

	registry := console.NewRegistry(console.Options{
		Connect: func(ctx context.Context, clientID string) (console.AuthClient, error) {
			c, err := auth.Client(ctx, clientID)
			if err != nil {
				return nil, err
			}
			return c, nil
		},
		Profiles:        db,
		Repository:      db,
		Publisher:       publisher,
		DefaultLanguage: locale.Language(cfg.Console.DefaultLanguage),
		IdleTTL:         cfg.Console.ClientIdleTTL,
	}, logger)

	pages, err := views.New()
	if err != nil {
		_ = publisher.Close()
		_ = keeper.Close()
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	router := chi.NewRouter()
	RegisterRoutes(router, logger, Deps{
		Registry: registry,
		Console:  cfg.Console,
		Pages:    pages,
		Checks: map[string]health.Pinger{
			"postgres": db,
			"redis": health.PingFunc(func(ctx context.Context) error {
				return keeper.Db.Ping(ctx).Err()
			}),
		},
	})

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      otelhttp.NewHandler(router, ServiceName),
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP + cfg.Console.LoginWait,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server:    srv,
		logger:    logger,
		db:        db,
		keeper:    keeper,
		registry:  registry,
		publisher: publisher,
		shutdown:  telemetry.Setup(ctx, ServiceName, cfg.Telemetry, logger),
	}, nil
}

// Run обслуживает запросы до отмены ctx, затем останавливает сервер и закрывает соединения.
func (a *App) Run(ctx context.Context) error {
	go a.registry.Run(ctx)

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	var err error
	select {
	case err = <-errCh:
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err = a.server.Shutdown(timeoutCtx)
		if tErr := a.shutdown(timeoutCtx); tErr != nil {
			a.logger.Warn("failed to stop tracer provider", sl.Err(tErr))
		}
	}

	a.registry.Close()
	if cErr := a.publisher.Close(); cErr != nil {
		a.logger.Warn("failed to close event publisher", sl.Err(cErr))
	}
	if cErr := a.keeper.Close(); cErr != nil {
		a.logger.Warn("failed to close redis", sl.Err(cErr))
	}
	if cErr := a.db.Close(); cErr != nil {
		a.logger.Warn("failed to close database", sl.Err(cErr))
	}
	return err
}

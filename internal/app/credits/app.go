package credits

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/card-credits/internal/cache"
	"github.com/magabrotheeeer/card-credits/internal/config"
	"github.com/magabrotheeeer/card-credits/internal/http/middlewarectx"
	"github.com/magabrotheeeer/card-credits/internal/lib/jwt"
	"github.com/magabrotheeeer/card-credits/internal/lib/sl"
	"github.com/magabrotheeeer/card-credits/internal/migrations"
	"github.com/magabrotheeeer/card-credits/internal/paymentprovider"
	"github.com/magabrotheeeer/card-credits/internal/rabbitmq"
	creditservice "github.com/magabrotheeeer/card-credits/internal/services/credits"
	"github.com/magabrotheeeer/card-credits/internal/storage/repository"
)

const shutdownTimeout = 15 * time.Second

// App — HTTP-сервис кредитного учёта.
type App struct {
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage
	cache  *cache.Cache
	conn   *amqp.Connection
	ch     *amqp.Channel
}

// New подключает хранилище, применяет миграции и собирает маршруты.
// Redis и RabbitMQ необязательны: без адреса кеш и публикация событий отключены.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB.DB, cfg.MigrationsPath); err != nil {
		_ = db.Close()
		return nil, err
	}

	app := &App{
		logger: logger,
		db:     db,
	}

	var packageCache creditservice.Cache
	if cfg.RedisAddress != "" {
		cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
		if err != nil {
			app.close()
			return nil, err
		}
		app.cache = cacheRedis
		packageCache = cacheRedis
	}

	var events creditservice.EventPublisher
	if cfg.RabbitURL != "" {
		conn, err := rabbitmq.Connect(cfg.RabbitURL, cfg.RabbitMQ.MaxRetries, cfg.RetryDelay)
		if err != nil {
			app.close()
			return nil, err
		}
		app.conn = conn
		ch, err := rabbitmq.SetupChannel(conn, cfg.Exchange, nil)
		if err != nil {
			app.close()
			return nil, err
		}
		app.ch = ch
		events = rabbitmq.NewEventPublisher(ch, cfg.Exchange)
	}

	service := creditservice.NewService(db, db, packageCache, events, logger)
	// Миграции могли изменить справочник пакетов.
	if err := service.RefreshPackages(ctx); err != nil {
		logger.Warn("failed to refresh package cache", sl.Err(err))
	}

	router := chi.NewRouter()
	RegisterRoutes(router, logger, Deps{
		Service:   service,
		Tokens:    jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL),
		Provider:  paymentprovider.NewClient(cfg.ShopID, cfg.SecretKey, cfg.APIURL, cfg.PaymentTimeout),
		Limiter:   middlewarectx.NewAccountLimiter(cfg.RPS, cfg.Burst),
		DB:        db,
		ReturnURL: cfg.ReturnURL,
	})

	app.server = &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return app, nil
}

// Run запускает HTTP-сервер и останавливает его при отмене ctx.
func (a *App) Run(ctx context.Context) error {
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

	select {
	case err := <-errCh:
		a.close()
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.close()
		return err
	}
}

func (a *App) close() {
	if a.ch != nil {
		if err := a.ch.Close(); err != nil {
			a.logger.Error("failed to close channel", sl.Err(err))
		}
	}
	if a.conn != nil {
		if err := a.conn.Close(); err != nil {
			a.logger.Error("failed to close connection", sl.Err(err))
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Error("failed to close redis", sl.Err(err))
		}
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close database", sl.Err(err))
	}
}

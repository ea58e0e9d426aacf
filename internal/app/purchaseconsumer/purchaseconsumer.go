// Package purchaseconsumer собирает консьюмер подтверждённых оплат пакетов кредитов.
package purchaseconsumer

import (
	"context"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/card-credits/internal/cache"
	"github.com/magabrotheeeer/card-credits/internal/config"
	"github.com/magabrotheeeer/card-credits/internal/lib/sl"
	"github.com/magabrotheeeer/card-credits/internal/rabbitmq"
	creditservice "github.com/magabrotheeeer/card-credits/internal/services/credits"
	"github.com/magabrotheeeer/card-credits/internal/services/purchases"
	"github.com/magabrotheeeer/card-credits/internal/storage/repository"
)

// App читает очередь подтверждений и зачисляет кредиты.
type App struct {
	conn      *amqp.Connection
	ch        *amqp.Channel
	db        *repository.Storage
	cache     *cache.Cache
	queue     string
	purchases *purchases.Service
	logger    *slog.Logger
}

// New подключается к хранилищу и брокеру и объявляет очередь покупок.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}

	var packageCache creditservice.Cache
	var cacheRedis *cache.Cache
	if cfg.RedisAddress != "" {
		cacheRedis, err = cache.InitServer(ctx, cfg.RedisConnection)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		packageCache = cacheRedis
	}

	conn, err := rabbitmq.Connect(cfg.RabbitURL, cfg.RabbitMQ.MaxRetries, cfg.RetryDelay)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	ch, err := rabbitmq.SetupChannel(conn, cfg.Exchange, rabbitmq.PurchaseQueues(cfg.Queue, cfg.RoutingKey))
	if err != nil {
		conn.Close()
		_ = db.Close()
		return nil, err
	}

	// Канал потребителя используется и для публикации событий журнала.
	events := rabbitmq.NewEventPublisher(ch, cfg.Exchange)
	service := creditservice.NewService(db, db, packageCache, events, logger)

	return &App{
		conn:      conn,
		ch:        ch,
		db:        db,
		cache:     cacheRedis,
		queue:     cfg.Queue,
		purchases: purchases.New(service, logger),
		logger:    logger,
	}, nil
}

// Run обрабатывает сообщения до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	waitDone, err := rabbitmq.ConsumerMessage(ctx, a.ch, a.queue, a.purchases.HandleConfirmation, a.logger)
	if err != nil {
		a.logger.Error("failed to start purchase consumer", slog.String("queue", a.queue), sl.Err(err))
		a.close()
		return err
	}
	a.logger.Info("purchase consumer started", slog.String("queue", a.queue))

	<-ctx.Done()
	a.logger.Info("purchase consumer shutting down gracefully")
	waitDone()
	a.close()
	return nil
}

func (a *App) close() {
	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", sl.Err(err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", sl.Err(err))
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

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/magabrotheeeer/card-credits/internal/app/purchaseconsumer"
	"github.com/magabrotheeeer/card-credits/internal/config"
	"github.com/magabrotheeeer/card-credits/internal/lib/sl"
)

func main() {
	cfg := config.MustLoad()
	logger := sl.SetupLogger(cfg.Env)

	logger.Info("starting purchase-consumer", slog.String("env", cfg.Env))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := purchaseconsumer.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize purchase-consumer", sl.Err(err))
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil {
		logger.Error("purchase-consumer stopped with error", sl.Err(err))
		os.Exit(1)
	}

	logger.Info("purchase-consumer stopped gracefully")
}

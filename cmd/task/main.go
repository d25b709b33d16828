package main

import (
	"log"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"nearbyu-loyalty/pkg/clock"
	"nearbyu-loyalty/pkg/config"
	"nearbyu-loyalty/pkg/db"
	"nearbyu-loyalty/pkg/docstore"
	"nearbyu-loyalty/pkg/logger"
	"nearbyu-loyalty/pkg/redis"
	"nearbyu-loyalty/pkg/task"
	"nearbyu-loyalty/services/coin"
)

func main() {
	opts := []fx.Option{
		config.Module,
		logger.Module,
		db.Module,
		redis.Module,
		docstore.Module,
		clock.Module,
		task.Server,
		coin.Worker,
		fxLogger,
	}

	if err := fx.ValidateApp(opts...); err != nil {
		log.Fatalf("fx validation failed: %v", err)
	}

	app := fx.New(opts...)

	app.Run()
}

var fxLogger = fx.WithLogger(func(cfg *config.Config, logger *zap.Logger) fxevent.Logger {
	return fxevent.NopLogger
})

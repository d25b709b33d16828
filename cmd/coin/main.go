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
	"nearbyu-loyalty/pkg/gen"
	"nearbyu-loyalty/pkg/health"
	"nearbyu-loyalty/pkg/logger"
	"nearbyu-loyalty/pkg/otelcol"
	"nearbyu-loyalty/pkg/profiling"
	"nearbyu-loyalty/pkg/redis"
	"nearbyu-loyalty/pkg/server"
	"nearbyu-loyalty/pkg/task"
	"nearbyu-loyalty/services/coin"
	"nearbyu-loyalty/services/review"
	"nearbyu-loyalty/services/shop"
	"nearbyu-loyalty/services/student"
)

func main() {
	opts := []fx.Option{
		config.Module,
		logger.Module,
		otelcol.Module,
		profiling.Module,
		db.Module,
		redis.Module,
		docstore.Module,
		clock.Module,
		gen.Module,
		task.Client,
		server.ProvideHTTPServer,
		server.ProvideGRPCServer,
		health.Module,
		health.GRPC,
		student.Module,
		shop.Module,
		review.Module,
		coin.Module,
		fxLogger,
	}

	if err := fx.ValidateApp(opts...); err != nil {
		log.Fatalf("fx validation failed: %v", err)
	}

	app := fx.New(opts...)

	app.Run()
}

var fxLogger = fx.WithLogger(func(cfg *config.Config, logger *zap.Logger) fxevent.Logger {
	if cfg.AppEnv == "production" {
		return fxevent.NopLogger
	}
	return &fxevent.ZapLogger{Logger: logger.Named("fx")}
})

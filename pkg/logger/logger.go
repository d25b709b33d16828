package logger

import (
	"nearbyu-loyalty/pkg/config"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var Module = fx.Module("zap",
	fx.Provide(New),
)

type ConfigParams struct {
	fx.In
	Cfg *config.Config
}

func New(p ConfigParams) (*zap.Logger, error) {
	return Build(p.Cfg)
}

// Build creates the process logger from cfg and installs it as the zap
// global. Production writes JSON to stdout; every other environment uses
// the console encoder.
func Build(cfg *config.Config) (*zap.Logger, error) {
	if cfg == nil {
		cfg = config.Default()
	}

	var zc zap.Config
	if cfg.AppEnv == "production" {
		zc = zap.NewProductionConfig()
		zc.EncoderConfig.TimeKey = "timestamp"
		zc.EncoderConfig.LevelKey = "severity"
		zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	} else {
		zc = zap.NewDevelopmentConfig()
	}
	zc.EncoderConfig.EncodeCaller = zapcore.ShortCallerEncoder

	if cfg.LogLevel != "" {
		level, err := zap.ParseAtomicLevel(cfg.LogLevel)
		if err != nil {
			return nil, err
		}
		zc.Level = level
	}

	log, err := zc.Build()
	if err != nil {
		return nil, err
	}
	log = log.With(
		zap.String("env", cfg.AppEnv),
		zap.String("service_name", cfg.AppName),
	)

	zap.ReplaceGlobals(log)
	return log, nil
}

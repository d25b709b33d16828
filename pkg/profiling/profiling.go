package profiling

import (
	"context"
	"strconv"

	"nearbyu-loyalty/pkg/config"

	"github.com/grafana/pyroscope-go"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("profiling", fx.Invoke(Start))

var profileTypes = []pyroscope.ProfileType{
	pyroscope.ProfileCPU,
	pyroscope.ProfileAllocSpace,
	pyroscope.ProfileInuseSpace,
	pyroscope.ProfileGoroutines,
	pyroscope.ProfileMutexDuration,
}

type Params struct {
	fx.In
	Lifecycle fx.Lifecycle
	Config    *config.Config
	Logger    *zap.Logger `optional:"true"`
}

// Start pushes continuous profiles to PYROSCOPE.ADDR. It does nothing when
// the address is empty.
func Start(p Params) error {
	cfg := p.Config
	if cfg.Pyroscope.Addr == "" {
		return nil
	}

	log := p.Logger
	if log == nil {
		log = zap.L()
	}
	log = log.Named("pyroscope").With(zap.String("addr", cfg.Pyroscope.Addr))

	profiler, err := pyroscope.Start(pyroscope.Config{
		ApplicationName: cfg.AppName,
		ServerAddress:   cfg.Pyroscope.Addr,
		ProfileTypes:    profileTypes,
		Tags: map[string]string{
			"env":     cfg.AppEnv,
			"version": cfg.AppVersion,
			"node_id": strconv.FormatInt(cfg.NodeID, 10),
		},
	})
	if err != nil {
		log.Warn("profiler not started", zap.Error(err))
		return nil
	}
	log.Info("profiler started")

	p.Lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return profiler.Stop()
		},
	})
	return nil
}

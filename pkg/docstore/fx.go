package docstore

import (
	"context"
	"fmt"
	"strings"

	"nearbyu-loyalty/pkg/config"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("docstore",
	fx.Provide(New),
)

type Params struct {
	fx.In
	Lifecycle fx.Lifecycle
	Config    *config.Config
	DB        *gorm.DB      `optional:"true"`
	Redis     *redis.Client `optional:"true"`
}

// New builds the backend named by STORE.BACKEND wrapped in the call guard.
func New(p Params) (Store, error) {
	sc := p.Config.Store

	var backend Store
	switch strings.ToLower(sc.Backend) {
	case "memory":
		backend = NewMemoryStore()
	case "redis":
		if p.Redis == nil {
			return nil, fmt.Errorf("docstore: redis backend selected but no redis client")
		}
		backend = NewRedisStore(p.Redis, sc.KeyPrefix, sc.MaxTxRetries)
	case "gorm", "":
		if p.DB == nil {
			return nil, fmt.Errorf("docstore: gorm backend selected but no database")
		}
		gs := NewGormStore(p.DB, sc.MaxTxRetries)
		p.Lifecycle.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				return gs.Migrate(ctx)
			},
		})
		backend = gs
	default:
		return nil, fmt.Errorf("docstore: unknown backend %q", sc.Backend)
	}

	zap.L().Info("[docstore] backend configured",
		zap.String("backend", sc.Backend),
		zap.Duration("call_timeout", sc.CallTimeout),
	)

	return WithTimeout(backend, sc.CallTimeout), nil
}

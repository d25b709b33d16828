package coin

import (
	"time"

	"nearbyu-loyalty/pkg/clock"
	"nearbyu-loyalty/pkg/config"
	"nearbyu-loyalty/pkg/docstore"
	"nearbyu-loyalty/pkg/gen"
	"nearbyu-loyalty/pkg/task"
	"nearbyu-loyalty/services/student"

	"go.opentelemetry.io/otel"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("nearbyu-loyalty/services/coin")

// Service issues coins to students and converts them into wallet balance.
type Service struct {
	store    docstore.Store
	clock    clock.Clock
	ids      gen.IDGenerator
	students *student.Service
	enqueuer task.Enqueuer
	logger   *zap.Logger

	window      time.Duration
	redeemCoins int64
	redeemValue int64
	payoutQueue string
}

type ServiceParams struct {
	fx.In
	Store    docstore.Store
	Clock    clock.Clock
	IDs      gen.IDGenerator
	Config   *config.Config
	Students *student.Service
	Enqueuer task.Enqueuer `optional:"true"`
	Logger   *zap.Logger   `optional:"true"`
}

func NewService(p ServiceParams) *Service {
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	cfg := p.Config
	redeemCoins := cfg.Coin.RedeemCoins
	if redeemCoins <= 0 {
		redeemCoins = 10
	}
	redeemValue := cfg.Coin.RedeemValue
	if redeemValue <= 0 {
		redeemValue = 10
	}

	return &Service{
		store:       p.Store,
		clock:       p.Clock,
		ids:         p.IDs,
		students:    p.Students,
		enqueuer:    p.Enqueuer,
		logger:      logger.Named("coin"),
		window:      cfg.Window(),
		redeemCoins: redeemCoins,
		redeemValue: redeemValue,
		payoutQueue: cfg.Coin.PayoutQueue,
	}
}

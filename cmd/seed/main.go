// Command seed loads a small demo campus into the configured store: a few
// shops, students with starting balances and recent reviews.
package main

import (
	"context"
	"log"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"nearbyu-loyalty/pkg/clock"
	"nearbyu-loyalty/pkg/config"
	"nearbyu-loyalty/pkg/db"
	"nearbyu-loyalty/pkg/docstore"
	"nearbyu-loyalty/pkg/errutil"
	"nearbyu-loyalty/pkg/gen"
	"nearbyu-loyalty/pkg/logger"
	"nearbyu-loyalty/pkg/redis"
	"nearbyu-loyalty/services/review"
	"nearbyu-loyalty/services/shop"
	"nearbyu-loyalty/services/student"
)

var shops = []shop.RegisterInput{
	{Name: "Cafe 1", Category: "food", VendorUsername: "vera", Products: []shop.Product{{Name: "Flat white", Price: 45}}},
	{Name: "Copy Corner", Category: "stationery", VendorUsername: "omar"},
	{Name: "Bike Fix", Category: "services", VendorUsername: "lena"},
}

type seedStudent struct {
	email  string
	name   string
	coins  int64
	review string // shop reviewed on seed day, empty for none
	rating int
}

var students = []seedStudent{
	{email: "ana@campus.edu", name: "Ana", coins: 9, review: "cafe_1", rating: 5},
	{email: "ben@campus.edu", name: "Ben", coins: 12, review: "copy_corner", rating: 3},
	{email: "chi@campus.edu", name: "Chi", coins: 0},
}

func main() {
	opts := []fx.Option{
		config.Module,
		logger.Module,
		db.Module,
		redis.Module,
		docstore.Module,
		clock.Module,
		gen.Module,
		fx.Provide(
			student.NewService,
			shop.NewService,
			review.NewService,
		),
		fx.Invoke(runSeed),
		fx.WithLogger(func() fxevent.Logger { return fxevent.NopLogger }),
	}

	if err := fx.ValidateApp(opts...); err != nil {
		log.Fatalf("fx validation failed: %v", err)
	}

	fx.New(opts...).Run()
}

type seedParams struct {
	fx.In
	Lifecycle  fx.Lifecycle
	Shutdowner fx.Shutdowner
	Store      docstore.Store
	Students   *student.Service
	Shops      *shop.Service
	Reviews    *review.Service
	Logger     *zap.Logger
}

func runSeed(p seedParams) {
	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			err := seed(ctx, p)
			if err != nil {
				p.Logger.Error("seed failed", zap.Error(err))
			}
			return p.Shutdowner.Shutdown(fx.ExitCode(exitCode(err)))
		},
	})
}

func exitCode(err error) int {
	if err != nil {
		return 1
	}
	return 0
}

func seed(ctx context.Context, p seedParams) error {
	for _, in := range shops {
		s, err := p.Shops.Register(ctx, in)
		if errutil.IsStatus(err, errutil.StatusConflict) {
			p.Logger.Info("shop already seeded", zap.String("name", in.Name))
			continue
		}
		if err != nil {
			return err
		}
		p.Logger.Info("shop seeded", zap.String("shop_id", s.ID))
	}

	for _, s := range students {
		st, err := p.Students.GetByEmail(ctx, s.email)
		if err != nil {
			return err
		}
		if st == nil {
			st, err = p.Students.Register(ctx, student.RegisterInput{Email: s.email, Name: s.name})
			if err != nil {
				return err
			}
			if err := p.Store.Update(ctx, student.Path(st.ID), map[string]any{"coins": s.coins}); err != nil {
				return err
			}
		}
		p.Logger.Info("student seeded", zap.String("student_id", st.ID), zap.String("email", s.email))

		if s.review == "" {
			continue
		}
		res, err := p.Reviews.Submit(ctx, review.SubmitInput{
			ShopID:       s.review,
			StudentEmail: s.email,
			Rating:       s.rating,
			Body:         "Seeded review",
		})
		if err != nil {
			return err
		}
		p.Logger.Info("review seeded", zap.String("shop_id", s.review), zap.String("outcome", string(res.Outcome)))
	}
	return nil
}

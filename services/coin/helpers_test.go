package coin

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"nearbyu-loyalty/pkg/clock"
	"nearbyu-loyalty/pkg/config"
	"nearbyu-loyalty/pkg/docstore"
	"nearbyu-loyalty/services/review"
	"nearbyu-loyalty/services/shop"
	"nearbyu-loyalty/services/student"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

var day0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

const oneDay = 24 * time.Hour

type seqIDs struct{ n atomic.Int64 }

func (s *seqIDs) NextID() string { return fmt.Sprintf("%06d", s.n.Add(1)) }

type recordingEnqueuer struct {
	mu    sync.Mutex
	tasks []*asynq.Task
	err   error
}

func (e *recordingEnqueuer) Enqueue(_ context.Context, t *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err != nil {
		return nil, e.err
	}
	e.tasks = append(e.tasks, t)
	return &asynq.TaskInfo{ID: fmt.Sprintf("%d", len(e.tasks))}, nil
}

type fixture struct {
	store    docstore.Store
	clock    *clock.Simulated
	students *student.Service
	reviews  *review.Service
	coins    *Service
	enqueuer *recordingEnqueuer
}

func newFixture(t *testing.T, store docstore.Store) *fixture {
	t.Helper()
	ctx := context.Background()
	cfg := config.Default()
	clk := clock.NewSimulated(day0)
	ids := &seqIDs{}

	students := student.NewService(student.ServiceParams{Store: store, IDs: ids})
	shops := shop.NewService(shop.ServiceParams{Store: store})
	_, err := shops.Register(ctx, shop.RegisterInput{Name: "Cafe 1", VendorUsername: "vera"})
	require.NoError(t, err)

	enq := &recordingEnqueuer{}
	return &fixture{
		store:    store,
		clock:    clk,
		students: students,
		reviews: review.NewService(review.ServiceParams{
			Store: store, Clock: clk, Config: cfg, Students: students,
		}),
		coins: NewService(ServiceParams{
			Store: store, Clock: clk, IDs: ids, Config: cfg, Students: students, Enqueuer: enq,
		}),
		enqueuer: enq,
	}
}

// addStudent registers a student and sets the starting balances.
func (f *fixture) addStudent(t *testing.T, email string, coins, wallet int64) *student.Student {
	t.Helper()
	ctx := context.Background()
	st, err := f.students.Register(ctx, student.RegisterInput{Email: email, Name: "Student " + email})
	require.NoError(t, err)
	require.NoError(t, f.store.Update(ctx, student.Path(st.ID), map[string]any{
		"coins": coins, "walletBalance": wallet,
	}))
	st.Coins, st.WalletBalance = coins, wallet
	return st
}

// putReview writes a review document directly, bypassing the once per cycle
// rule, so tests can place reviews at arbitrary ages.
func (f *fixture) putReview(t *testing.T, shopID, id, email, timestamp string) {
	t.Helper()
	require.NoError(t, f.store.Set(context.Background(), review.Path(shopID, id), review.Review{
		ID: id, ShopID: shopID, StudentEmail: email, Rating: 5, Body: "nice", Timestamp: timestamp,
	}))
}

func (f *fixture) balance(t *testing.T, id string) *student.Student {
	t.Helper()
	st, err := f.students.Get(context.Background(), id)
	require.NoError(t, err)
	return st
}

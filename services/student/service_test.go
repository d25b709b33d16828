package student

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"nearbyu-loyalty/pkg/docstore"
	"nearbyu-loyalty/pkg/errutil"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

type seqIDs struct{ n atomic.Int64 }

func (s *seqIDs) NextID() string { return fmt.Sprintf("%d", s.n.Add(1)) }

func newTestService() (*Service, docstore.Store) {
	store := docstore.NewMemoryStore()
	return NewService(ServiceParams{Store: store, IDs: &seqIDs{}}), store
}

func TestRegisterAndLookup(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	st, err := svc.Register(ctx, RegisterInput{Email: " a@u.edu ", Name: "Ann"})
	require.NoError(t, err)
	require.Equal(t, "a@u.edu", st.Email)
	require.Zero(t, st.Coins)
	require.Zero(t, st.WalletBalance)

	got, err := svc.Get(ctx, st.ID)
	require.NoError(t, err)
	require.Equal(t, "Ann", got.Name)

	byEmail, err := svc.GetByEmail(ctx, "a@u.edu")
	require.NoError(t, err)
	require.Equal(t, st.ID, byEmail.ID)

	// matching is case sensitive
	none, err := svc.GetByEmail(ctx, "A@u.edu")
	require.NoError(t, err)
	require.Nil(t, none)
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService()

	var g errgroup.Group
	var created atomic.Int32
	for i := 0; i < 5; i++ {
		g.Go(func() error {
			_, err := svc.Register(ctx, RegisterInput{Email: "dup@u.edu", Name: "Dup"})
			if err == nil {
				created.Add(1)
				return nil
			}
			if errutil.IsStatus(err, errutil.StatusConflict) {
				return nil
			}
			return err
		})
	}
	require.NoError(t, g.Wait())
	require.Equal(t, int32(1), created.Load())
}

func TestRegisterValidatesInput(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.Register(context.Background(), RegisterInput{Email: "not-an-email", Name: "X"})
	require.True(t, errutil.IsStatus(err, errutil.StatusBadRequest))

	_, err = svc.Register(context.Background(), RegisterInput{Email: "x@u.edu"})
	require.True(t, errutil.IsStatus(err, errutil.StatusBadRequest))
}

func TestGetByEmailPicksFirstOfDuplicates(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService()

	require.NoError(t, store.Set(ctx, Path("b"), Student{Email: "s@u.edu", Name: "B"}))
	require.NoError(t, store.Set(ctx, Path("a"), Student{Email: "s@u.edu", Name: "A"}))

	st, err := svc.GetByEmail(ctx, "s@u.edu")
	require.NoError(t, err)
	require.Equal(t, "a", st.ID)
	require.Equal(t, "A", st.Name)

	_, err = svc.Get(ctx, "missing")
	require.True(t, errutil.IsStatus(err, errutil.StatusNotFound))
}

package docstore_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"nearbyu-loyalty/pkg/docstore"
	"nearbyu-loyalty/pkg/docstore/mocks"
	"nearbyu-loyalty/pkg/errutil"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestGuardedMapsBackendFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	backend := mocks.NewMockStore(ctrl)
	cause := errors.New("connection refused")
	backend.EXPECT().Get(gomock.Any(), "students/1").Return(docstore.Document{}, cause)

	_, err := docstore.WithTimeout(backend, time.Second).Get(context.Background(), "students/1")
	require.ErrorIs(t, err, cause)
	require.True(t, errutil.IsStatus(err, errutil.StatusServiceUnavailable))
}

func TestGuardedMapsDeadline(t *testing.T) {
	ctrl := gomock.NewController(t)
	backend := mocks.NewMockStore(ctrl)
	backend.EXPECT().
		QueryByField(gomock.Any(), "students", "email", "a@u.edu").
		DoAndReturn(func(ctx context.Context, _, _ string, _ any) ([]docstore.Document, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		})

	_, err := docstore.WithTimeout(backend, 10*time.Millisecond).
		QueryByField(context.Background(), "students", "email", "a@u.edu")
	require.True(t, errutil.IsStatus(err, errutil.StatusTimeout))
}

func TestGuardedPassesThroughStoreErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	backend := mocks.NewMockStore(ctrl)
	backend.EXPECT().Get(gomock.Any(), "students/9").Return(docstore.Document{}, docstore.ErrNotFound)

	_, err := docstore.WithTimeout(backend, time.Second).Get(context.Background(), "students/9")
	require.ErrorIs(t, err, docstore.ErrNotFound)
	require.False(t, errutil.IsStatus(err, errutil.StatusServiceUnavailable))
}

func TestGuardedReturnsBodyErrorUnchanged(t *testing.T) {
	store := docstore.WithTimeout(docstore.NewMemoryStore(), time.Second)
	insufficient := errors.New("insufficient coins")

	err := store.Transact(context.Background(), []string{"students/1"}, func(tx docstore.Txn) error {
		return insufficient
	})
	require.Same(t, insufficient, err)
}

func TestGuardedMapsClientAndConflictErrors(t *testing.T) {
	store := docstore.WithTimeout(docstore.NewMemoryStore(), time.Second)
	ctx := context.Background()

	_, err := store.Get(ctx, "students/x.y")
	require.ErrorIs(t, err, docstore.ErrInvalidPath)
	require.True(t, errutil.IsStatus(err, errutil.StatusBadRequest))

	err = store.Transact(ctx, []string{"shops/cafe.1"}, func(tx docstore.Txn) error { return nil })
	require.True(t, errutil.IsStatus(err, errutil.StatusBadRequest))

	ctrl := gomock.NewController(t)
	backend := mocks.NewMockStore(ctrl)
	backend.EXPECT().Transact(gomock.Any(), []string{"students/1"}, gomock.Any()).Return(docstore.ErrConflict)

	err = docstore.WithTimeout(backend, time.Second).Transact(ctx, []string{"students/1"}, func(tx docstore.Txn) error { return nil })
	require.ErrorIs(t, err, docstore.ErrConflict)
	require.True(t, errutil.IsStatus(err, errutil.StatusConflict))
}

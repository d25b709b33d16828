package coin

import (
	"context"
	"errors"
	"testing"
	"time"

	"nearbyu-loyalty/pkg/clock"
	"nearbyu-loyalty/pkg/config"
	"nearbyu-loyalty/pkg/docstore"
	"nearbyu-loyalty/pkg/docstore/mocks"
	"nearbyu-loyalty/pkg/errutil"
	"nearbyu-loyalty/services/student"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newMockedService(t *testing.T, backend docstore.Store, timeout time.Duration) *Service {
	store := docstore.WithTimeout(backend, timeout)
	return NewService(ServiceParams{
		Store:    store,
		Clock:    clock.NewSimulated(day0),
		IDs:      &seqIDs{},
		Config:   config.Default(),
		Students: student.NewService(student.ServiceParams{Store: store, IDs: &seqIDs{}}),
	})
}

func TestAwardSurfacesTimeout(t *testing.T) {
	ctrl := gomock.NewController(t)
	backend := mocks.NewMockStore(ctrl)
	backend.EXPECT().
		QueryByField(gomock.Any(), student.Collection, "email", "a@u.edu").
		DoAndReturn(func(ctx context.Context, _, _ string, _ any) ([]docstore.Document, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		})

	svc := newMockedService(t, backend, 10*time.Millisecond)
	_, err := svc.AwardCoin(context.Background(), "cafe_1", "a@u.edu")
	require.True(t, errutil.IsStatus(err, errutil.StatusTimeout))
}

func TestAwardSurfacesUnavailable(t *testing.T) {
	ctrl := gomock.NewController(t)
	backend := mocks.NewMockStore(ctrl)
	backend.EXPECT().
		QueryByField(gomock.Any(), student.Collection, "email", "a@u.edu").
		Return([]docstore.Document{{Path: "students/1", Data: []byte(`{"email":"a@u.edu","coins":1}`)}}, nil)
	backend.EXPECT().
		QueryByField(gomock.Any(), "reviews/cafe_1", "studentEmail", "a@u.edu").
		Return([]docstore.Document{{Path: "reviews/cafe_1/r1", Data: []byte(`{"studentEmail":"a@u.edu","timestamp":"` + day0.Format(time.RFC3339Nano) + `"}`)}}, nil)
	backend.EXPECT().
		Transact(gomock.Any(), []string{"students/1", LogPath("cafe_1", "a@u.edu")}, gomock.Any()).
		Return(errors.New("connection reset by peer"))

	svc := newMockedService(t, backend, time.Second)
	_, err := svc.AwardCoin(context.Background(), "cafe_1", "a@u.edu")
	require.True(t, errutil.IsStatus(err, errutil.StatusServiceUnavailable))
}

func TestRedeemSurfacesUnavailable(t *testing.T) {
	ctrl := gomock.NewController(t)
	backend := mocks.NewMockStore(ctrl)
	backend.EXPECT().Transact(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("no route to host"))

	svc := newMockedService(t, backend, time.Second)
	_, err := svc.Redeem(context.Background(), "1")
	require.True(t, errutil.IsStatus(err, errutil.StatusServiceUnavailable))
}

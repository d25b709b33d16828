package shop

import (
	"context"
	"testing"

	"nearbyu-loyalty/pkg/docstore"
	"nearbyu-loyalty/pkg/errutil"

	"github.com/stretchr/testify/require"
)

func TestDeriveShopID(t *testing.T) {
	require.Equal(t, "cafe_1", DeriveShopID("Cafe 1"))
	require.Equal(t, "the_corner_bakery", DeriveShopID("  The Corner   Bakery! "))
	require.Equal(t, "", DeriveShopID("!!!"))
}

func TestRegisterGetAndFindByVendor(t *testing.T) {
	ctx := context.Background()
	svc := NewService(ServiceParams{Store: docstore.NewMemoryStore()})

	sh, err := svc.Register(ctx, RegisterInput{Name: "Cafe 1", VendorUsername: "vera", Category: "food"})
	require.NoError(t, err)
	require.Equal(t, "cafe_1", sh.ID)
	require.Equal(t, StatusOpen, sh.Status)

	_, err = svc.Register(ctx, RegisterInput{Name: "Book Nook", VendorUsername: "vera"})
	require.NoError(t, err)
	_, err = svc.Register(ctx, RegisterInput{Name: "Gym", VendorUsername: "gus"})
	require.NoError(t, err)

	got, err := svc.Get(ctx, "cafe_1")
	require.NoError(t, err)
	require.Equal(t, "Cafe 1", got.Name)

	shops, err := svc.FindByVendor(ctx, "vera")
	require.NoError(t, err)
	require.Len(t, shops, 2)
	require.Equal(t, "book_nook", shops[0].ID)
	require.Equal(t, "cafe_1", shops[1].ID)
}

func TestRegisterRejectsDuplicateAndInvalid(t *testing.T) {
	ctx := context.Background()
	svc := NewService(ServiceParams{Store: docstore.NewMemoryStore()})

	_, err := svc.Register(ctx, RegisterInput{Name: "Cafe 1", VendorUsername: "vera"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterInput{Name: "cafe-1", VendorUsername: "other"})
	require.True(t, errutil.IsStatus(err, errutil.StatusConflict))

	_, err = svc.Register(ctx, RegisterInput{Name: "???", VendorUsername: "x"})
	require.True(t, errutil.IsStatus(err, errutil.StatusBadRequest))

	_, err = svc.Get(ctx, "missing")
	require.True(t, errutil.IsStatus(err, errutil.StatusNotFound))
}

package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"miniapp-shop-api/models"
	"miniapp-shop-api/testutil"
)

func TestUserRepository_Upsert(t *testing.T) {
	ctx := context.Background()
	store := NewStore(testutil.NewDB(t))

	created, err := store.Users.Upsert(ctx, &models.User{TelegramID: "100", Name: "Ann", Role: models.RoleClient},
		"name", "username", "photo_url")
	require.NoError(t, err)
	assert.Equal(t, models.RoleClient, created.Role)

	require.NoError(t, store.Users.UpdateRole(ctx, created.ID, models.RoleCourier))

	again, err := store.Users.Upsert(ctx, &models.User{TelegramID: "100", Name: "Ann B", Role: models.RoleClient},
		"name", "username", "photo_url")
	require.NoError(t, err)
	assert.Equal(t, created.ID, again.ID)
	assert.Equal(t, "Ann B", again.Name)
	assert.Equal(t, models.RoleCourier, again.Role, "role is not among the updated columns")
}

func TestUserRepository_AdminShops(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	store := NewStore(db)
	a := testutil.CreateShop(t, db, "A")
	b := testutil.CreateShop(t, db, "B")
	u := testutil.CreateUser(t, db, "7", models.RoleAdmin)

	require.NoError(t, store.Users.ReplaceAdminShops(ctx, u.ID, []uint{b.ID, a.ID, b.ID}))
	got, err := store.Users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{a.ID, b.ID}, got.AdminShopIDs())
	require.NotNil(t, got.AdminShops[0].Shop)
	assert.Equal(t, "A", got.AdminShops[0].Shop.Name)

	require.NoError(t, store.Users.ClearAdminShops(ctx, u.ID))
	got, err = store.Users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, got.AdminShops)

	missing, err := store.Users.GetByID(ctx, 999)
	assert.NoError(t, err)
	assert.Nil(t, missing)
}

func TestProductRepository_DecrementStock(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	store := NewStore(db)
	p := testutil.CreateProduct(t, db, "Tea", "10", 3, nil)

	ok, err := store.Products.DecrementStock(ctx, p.ID, 2)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Products.DecrementStock(ctx, p.ID, 2)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := store.Products.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Stock)
}

func TestProductRepository_UpdateKeepsStock(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	store := NewStore(db)
	p := testutil.CreateProduct(t, db, "Tea", "10", 5, nil)

	p.Title = "Green tea"
	p.Stock = 0
	require.NoError(t, store.Products.Update(ctx, p, false))

	got, err := store.Products.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Green tea", got.Title)
	assert.Equal(t, 5, got.Stock)

	got.Stock = 0
	require.NoError(t, store.Products.Update(ctx, got, true))
	list, err := store.Products.List(ctx, ProductFilter{InStockOnly: true})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestOrderRepository_UpdateIfStatus(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	store := NewStore(db)
	buyer := testutil.CreateUser(t, db, "1", models.RoleClient)
	p := testutil.CreateProduct(t, db, "Tea", "10", 5, nil)

	order := &models.Order{
		UserID: buyer.ID, Status: models.StatusPending, PaymentMethod: "cash", DeliveryMethod: "pickup",
		Total: p.Price, Items: []models.OrderItem{{ProductID: p.ID, Quantity: 1, Price: p.Price}},
	}
	require.NoError(t, store.Orders.Create(ctx, order))

	changed, err := store.Orders.UpdateIfStatus(ctx, order.ID, models.StatusConfirmed, map[string]any{"status": models.StatusDelivering})
	require.NoError(t, err)
	assert.False(t, changed)

	changed, err = store.Orders.UpdateIfStatus(ctx, order.ID, models.StatusPending, map[string]any{"status": models.StatusConfirmed})
	require.NoError(t, err)
	assert.True(t, changed)

	got, err := store.Orders.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, got.Status)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "Tea", got.Items[0].Product.Title)

	n, err := store.Orders.CountItemsByProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestStore_TransactionRollsBack(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	store := NewStore(db)
	p := testutil.CreateProduct(t, db, "Tea", "10", 5, nil)

	err := store.Transaction(ctx, func(tx *Store) error {
		if _, err := tx.Products.DecrementStock(ctx, p.ID, 5); err != nil {
			return err
		}
		return assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)

	got, err := store.Products.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.Stock)
}

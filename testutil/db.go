// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"miniapp-shop-api/config"
	"miniapp-shop-api/models"
)

// NewDB opens a migrated in-memory database private to t. A single
// connection keeps every query on the same memory database.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, config.Migrate(db))
	return db
}

func CreateUser(t testing.TB, db *gorm.DB, telegramID string, role models.Role, shopIDs ...uint) *models.User {
	t.Helper()
	u := &models.User{TelegramID: telegramID, Name: "user " + telegramID, Role: role}
	require.NoError(t, db.Create(u).Error)
	for _, id := range shopIDs {
		require.NoError(t, db.Create(&models.AdminShop{UserID: u.ID, ShopID: id}).Error)
	}
	require.NoError(t, db.Preload("AdminShops", func(db *gorm.DB) *gorm.DB { return db.Order("shop_id") }).First(u, u.ID).Error)
	return u
}

func CreateShop(t testing.TB, db *gorm.DB, name string) *models.Shop {
	t.Helper()
	s := &models.Shop{Name: name, Status: models.ShopActive}
	require.NoError(t, db.Create(s).Error)
	return s
}

func CreateProduct(t testing.TB, db *gorm.DB, title string, price string, stock int, shopID *uint) *models.Product {
	t.Helper()
	p := &models.Product{Title: title, Price: decimal.RequireFromString(price), Stock: stock, ShopID: shopID}
	require.NoError(t, db.Create(p).Error)
	return p
}

func Ptr[T any](v T) *T { return &v }

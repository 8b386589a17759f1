package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"miniapp-shop-api/models"
)

type OrderFilter struct {
	UserID    *uint
	CourierID *uint
	Statuses  []models.OrderStatus
}

type OrderRepository interface {
	// Create inserts the order with its items.
	Create(ctx context.Context, order *models.Order) error
	AddHistory(ctx context.Context, h *models.OrderStatusHistory) error
	GetByID(ctx context.Context, id uint) (*models.Order, error)
	List(ctx context.Context, filter OrderFilter) ([]models.Order, error)
	// UpdateIfStatus applies fields only while the order is still in status
	// from. It reports whether a row changed.
	UpdateIfStatus(ctx context.Context, id uint, from models.OrderStatus, fields map[string]any) (bool, error)
	CountItemsByProduct(ctx context.Context, productID uint) (int64, error)
	History(ctx context.Context, orderID uint) ([]models.OrderStatusHistory, error)
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) preloaded(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("User").
		Preload("Courier").
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Items.Product").
		Preload("Items.Product.Shop")
}

func (r *orderRepository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Omit("User", "Courier", "StatusHistory").Create(order).Error
}

func (r *orderRepository) AddHistory(ctx context.Context, h *models.OrderStatusHistory) error {
	return r.db.WithContext(ctx).Create(h).Error
}

func (r *orderRepository) GetByID(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	err := r.preloaded(ctx).First(&order, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// List returns orders newest first.
func (r *orderRepository) List(ctx context.Context, filter OrderFilter) ([]models.Order, error) {
	q := r.preloaded(ctx).Order("created_at DESC").Order("id DESC")
	if filter.UserID != nil {
		q = q.Where("user_id = ?", *filter.UserID)
	}
	if filter.CourierID != nil {
		q = q.Where("courier_id = ?", *filter.CourierID)
	}
	if len(filter.Statuses) > 0 {
		q = q.Where("status IN ?", filter.Statuses)
	}
	var orders []models.Order
	if err := q.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *orderRepository) UpdateIfStatus(ctx context.Context, id uint, from models.OrderStatus, fields map[string]any) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND status = ?", id, from).
		Updates(fields)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *orderRepository) CountItemsByProduct(ctx context.Context, productID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.OrderItem{}).Where("product_id = ?", productID).Count(&n).Error
	return n, err
}

func (r *orderRepository) History(ctx context.Context, orderID uint) ([]models.OrderStatusHistory, error) {
	var rows []models.OrderStatusHistory
	err := r.db.WithContext(ctx).Where("order_id = ?", orderID).Order("id").Find(&rows).Error
	return rows, err
}

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus represents all possible states of an order
type OrderStatus string

const (
	StatusPending    OrderStatus = "PENDING"
	StatusConfirmed  OrderStatus = "CONFIRMED"
	StatusDelivering OrderStatus = "DELIVERING"
	StatusCompleted  OrderStatus = "COMPLETED"
	StatusCancelled  OrderStatus = "CANCELLED"
)

var orderStatuses = []OrderStatus{
	StatusPending, StatusConfirmed, StatusDelivering, StatusCompleted, StatusCancelled,
}

// Valid reports whether s is a known order status.
func (s OrderStatus) Valid() bool {
	for _, known := range orderStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// AllOrderStatuses lists every status in lifecycle order.
func AllOrderStatuses() []OrderStatus {
	out := make([]OrderStatus, len(orderStatuses))
	copy(out, orderStatuses)
	return out
}

type Order struct {
	ID             uint            `json:"id" gorm:"primaryKey"`
	UserID         uint            `json:"userId" gorm:"not null;index"`
	User           *User           `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Status         OrderStatus     `json:"status" gorm:"type:varchar(16);not null;default:'PENDING';index"`
	PaymentMethod  string          `json:"paymentMethod" gorm:"not null"`
	DeliveryMethod string          `json:"deliveryMethod" gorm:"not null"`
	Address        *string         `json:"address"`
	Total          decimal.Decimal `json:"total" gorm:"type:decimal(12,2);not null"`
	CourierID      *uint           `json:"courierId" gorm:"index"`
	Courier        *User           `json:"courier,omitempty" gorm:"foreignKey:CourierID"`
	// PaymentUnverified marks orders confirmed by the client-asserted
	// payment endpoint; no provider webhook ever vouched for them.
	PaymentUnverified bool                 `json:"paymentUnverified" gorm:"not null;default:false"`
	Items             []OrderItem          `json:"items,omitempty" gorm:"foreignKey:OrderID"`
	StatusHistory     []OrderStatusHistory `json:"statusHistory,omitempty" gorm:"foreignKey:OrderID"`
	CreatedAt         time.Time            `json:"createdAt"`
	UpdatedAt         time.Time            `json:"updatedAt"`
}

// OrderItem is an immutable snapshot of a line at purchase time.
type OrderItem struct {
	ID        uint            `json:"id" gorm:"primaryKey"`
	OrderID   uint            `json:"orderId" gorm:"not null;index"`
	ProductID uint            `json:"productId" gorm:"not null;index"`
	Product   *Product        `json:"product,omitempty" gorm:"foreignKey:ProductID"`
	Quantity  int             `json:"quantity" gorm:"not null"`
	Price     decimal.Decimal `json:"price" gorm:"type:decimal(12,2);not null"` // snapshot price at time of order
}

// OrderStatusHistory tracks every status change
type OrderStatusHistory struct {
	ID         uint        `json:"id" gorm:"primaryKey"`
	OrderID    uint        `json:"orderId" gorm:"not null;index"`
	FromStatus OrderStatus `json:"fromStatus"`
	ToStatus   OrderStatus `json:"toStatus" gorm:"not null"`
	ChangedBy  uint        `json:"changedBy"` // user ID who triggered the transition
	Note       string      `json:"note"`
	CreatedAt  time.Time   `json:"createdAt"`
}

// All lists every model for AutoMigrate.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Shop{},
		&AdminShop{},
		&Category{},
		&Product{},
		&Order{},
		&OrderItem{},
		&OrderStatusHistory{},
	}
}

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// The Mini App reads prices and totals as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

type ShopStatus string

const (
	ShopActive   ShopStatus = "ACTIVE"
	ShopInactive ShopStatus = "INACTIVE"
)

func (s ShopStatus) Valid() bool {
	return s == ShopActive || s == ShopInactive
}

// Shop is a top-level merchandising department and the unit of admin scope.
type Shop struct {
	ID          uint       `json:"id" gorm:"primaryKey"`
	Name        string     `json:"name" gorm:"not null"`
	Description *string    `json:"description"`
	ImageURL    *string    `json:"imageUrl"`
	Status      ShopStatus `json:"status" gorm:"type:varchar(16);not null;default:'ACTIVE'"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// Category is a node of the per-shop category tree.
type Category struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"not null"`
	ImageURL  *string   `json:"imageUrl"`
	ShopID    *uint     `json:"shopId" gorm:"index"`
	ParentID  *uint     `json:"parentId" gorm:"index"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Product struct {
	ID          uint            `json:"id" gorm:"primaryKey"`
	Title       string          `json:"title" gorm:"not null"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price" gorm:"type:decimal(12,2);not null"`
	Stock       int             `json:"stock" gorm:"not null;default:0"`
	ImageURLs   *string         `json:"imageUrls"`
	CategoryID  *uint           `json:"categoryId" gorm:"index"`
	Category    *Category       `json:"category,omitempty" gorm:"foreignKey:CategoryID"`
	ShopID      *uint           `json:"shopId" gorm:"index"`
	Shop        *Shop           `json:"shop,omitempty" gorm:"foreignKey:ShopID"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

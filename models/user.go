package models

import (
	"time"
)

// User is a Telegram account known to the shop.
type User struct {
	ID         uint        `json:"id" gorm:"primaryKey"`
	TelegramID string      `json:"telegramId" gorm:"uniqueIndex;not null"`
	Name       string      `json:"name"`
	Username   *string     `json:"username"`
	PhotoURL   *string     `json:"photoUrl"`
	Role       Role        `json:"role" gorm:"type:varchar(16);not null;default:'CLIENT';index"`
	AdminShops []AdminShop `json:"adminShops" gorm:"foreignKey:UserID"`
	CreatedAt  time.Time   `json:"createdAt"`
	UpdatedAt  time.Time   `json:"updatedAt"`
}

// AdminShop grants an ADMIN write scope over one shop.
type AdminShop struct {
	UserID uint  `json:"userId" gorm:"primaryKey"`
	ShopID uint  `json:"shopId" gorm:"primaryKey"`
	Shop   *Shop `json:"shop,omitempty" gorm:"foreignKey:ShopID"`
}

// AdminShopIDs returns the assigned shop ids in the order they were loaded.
func (u *User) AdminShopIDs() []uint {
	ids := make([]uint, 0, len(u.AdminShops))
	for _, as := range u.AdminShops {
		ids = append(ids, as.ShopID)
	}
	return ids
}

// HasShop reports whether shopID is in the user's admin scope.
func (u *User) HasShop(shopID uint) bool {
	for _, as := range u.AdminShops {
		if as.ShopID == shopID {
			return true
		}
	}
	return false
}

// Can checks the user's role against the capability table.
func (u *User) Can(c Capability) bool {
	return u != nil && u.Role.Can(c)
}

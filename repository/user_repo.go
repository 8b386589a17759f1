package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"miniapp-shop-api/models"
)

type UserRepository interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByTelegramID(ctx context.Context, telegramID string) (*models.User, error)
	// Upsert inserts u or, when its telegram id exists, overwrites only
	// the listed columns. The stored row is returned.
	Upsert(ctx context.Context, u *models.User, updateColumns ...string) (*models.User, error)
	List(ctx context.Context, role *models.Role) ([]models.User, error)
	UpdateRole(ctx context.Context, id uint, role models.Role) error
	ReplaceAdminShops(ctx context.Context, userID uint, shopIDs []uint) error
	ClearAdminShops(ctx context.Context, userID uint) error
	AddAdminShop(ctx context.Context, userID, shopID uint) error
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) withShops(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("AdminShops", func(db *gorm.DB) *gorm.DB { return db.Order("shop_id") }).
		Preload("AdminShops.Shop")
}

// GetByID returns nil, nil when the user does not exist.
func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := r.withShops(ctx).First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByTelegramID(ctx context.Context, telegramID string) (*models.User, error) {
	var user models.User
	err := r.withShops(ctx).Where("telegram_id = ?", telegramID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) Upsert(ctx context.Context, u *models.User, updateColumns ...string) (*models.User, error) {
	cols := append(append([]string{}, updateColumns...), "updated_at")
	err := r.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "telegram_id"}},
			DoUpdates: clause.AssignmentColumns(cols),
		}).
		Create(u).Error
	if err != nil {
		return nil, err
	}
	return r.GetByTelegramID(ctx, u.TelegramID)
}

// List returns users newest first, optionally restricted to one role.
func (r *userRepository) List(ctx context.Context, role *models.Role) ([]models.User, error) {
	var users []models.User
	q := r.withShops(ctx).Order("created_at DESC").Order("id DESC")
	if role != nil {
		q = q.Where("role = ?", *role)
	}
	if err := q.Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userRepository) UpdateRole(ctx context.Context, id uint, role models.Role) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Update("role", role)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ReplaceAdminShops deletes the user's links and inserts the new set as two
// separate statements.
func (r *userRepository) ReplaceAdminShops(ctx context.Context, userID uint, shopIDs []uint) error {
	if err := r.ClearAdminShops(ctx, userID); err != nil {
		return err
	}
	if len(shopIDs) == 0 {
		return nil
	}
	links := make([]models.AdminShop, 0, len(shopIDs))
	seen := make(map[uint]bool, len(shopIDs))
	for _, id := range shopIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		links = append(links, models.AdminShop{UserID: userID, ShopID: id})
	}
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(&links).Error
}

func (r *userRepository) ClearAdminShops(ctx context.Context, userID uint) error {
	return r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.AdminShop{}).Error
}

func (r *userRepository) AddAdminShop(ctx context.Context, userID, shopID uint) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.AdminShop{UserID: userID, ShopID: shopID}).Error
}

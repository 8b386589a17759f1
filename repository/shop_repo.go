package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"miniapp-shop-api/models"
)

type ShopRepository interface {
	List(ctx context.Context) ([]models.Shop, error)
	GetByID(ctx context.Context, id uint) (*models.Shop, error)
	Create(ctx context.Context, shop *models.Shop) error
	Save(ctx context.Context, shop *models.Shop) error
	Delete(ctx context.Context, id uint) error
	CountExisting(ctx context.Context, ids []uint) (int64, error)
}

type shopRepository struct {
	db *gorm.DB
}

func NewShopRepository(db *gorm.DB) ShopRepository {
	return &shopRepository{db: db}
}

func (r *shopRepository) List(ctx context.Context) ([]models.Shop, error) {
	var shops []models.Shop
	if err := r.db.WithContext(ctx).Order("id").Find(&shops).Error; err != nil {
		return nil, err
	}
	return shops, nil
}

func (r *shopRepository) GetByID(ctx context.Context, id uint) (*models.Shop, error) {
	var shop models.Shop
	err := r.db.WithContext(ctx).First(&shop, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &shop, nil
}

func (r *shopRepository) Create(ctx context.Context, shop *models.Shop) error {
	return r.db.WithContext(ctx).Create(shop).Error
}

func (r *shopRepository) Save(ctx context.Context, shop *models.Shop) error {
	return r.db.WithContext(ctx).Save(shop).Error
}

// Delete removes the shop and any admin links pointing at it.
func (r *shopRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("shop_id = ?", id).Delete(&models.AdminShop{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Shop{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *shopRepository) CountExisting(ctx context.Context, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Shop{}).Where("id IN ?", ids).Count(&n).Error
	return n, err
}

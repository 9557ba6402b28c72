package postgres

import (
	"context"
	"errors"
	"modaMarket/domain"

	"gorm.io/gorm"
)

type WishlistRepository struct {
	DB *gorm.DB
}

func NewWishlistRepository(db *gorm.DB) *WishlistRepository {
	return &WishlistRepository{
		DB: db,
	}
}

func (r *WishlistRepository) Add(ctx context.Context, item *domain.WishlistItem) error {
	var existing domain.WishlistItem

	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND article_id = ?", item.UserID, item.ArticleID).
		First(&existing).Error
	if err == nil {
		return domain.ErrConflict
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	return r.DB.WithContext(ctx).Create(&item).Error
}

func (r *WishlistRepository) FindByUser(ctx context.Context, userID uint) ([]domain.WishlistItem, error) {
	var items []domain.WishlistItem

	if err := r.DB.WithContext(ctx).Where("user_id = ?", userID).Find(&items).Error; err != nil {
		return nil, err
	}

	return items, nil
}

func (r *WishlistRepository) Remove(ctx context.Context, userID uint, articleID string) error {
	result := r.DB.WithContext(ctx).
		Where("user_id = ? AND article_id = ?", userID, articleID).
		Delete(&domain.WishlistItem{})
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}

	return nil
}

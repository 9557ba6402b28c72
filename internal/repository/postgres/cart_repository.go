package postgres

import (
	"context"
	"errors"
	"modaMarket/domain"

	"gorm.io/gorm"
)

type CartRepository struct {
	DB *gorm.DB
}

func NewCartRepository(db *gorm.DB) *CartRepository {
	return &CartRepository{
		DB: db,
	}
}

// Add inserts the article into the user's cart, or bumps the quantity if
// it is already there.
func (r *CartRepository) Add(ctx context.Context, item *domain.CartItem) error {
	var existing domain.CartItem

	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND article_id = ?", item.UserID, item.ArticleID).
		First(&existing).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return r.DB.WithContext(ctx).Create(&item).Error
		}
		return err
	}

	return r.DB.WithContext(ctx).Model(&existing).
		Update("qty", gorm.Expr("qty + ?", item.Qty)).Error
}

func (r *CartRepository) FindByUser(ctx context.Context, userID uint) ([]domain.CartItem, error) {
	var items []domain.CartItem

	if err := r.DB.WithContext(ctx).Where("user_id = ?", userID).Find(&items).Error; err != nil {
		return nil, err
	}

	return items, nil
}

func (r *CartRepository) Remove(ctx context.Context, userID uint, articleID string) error {
	result := r.DB.WithContext(ctx).
		Where("user_id = ? AND article_id = ?", userID, articleID).
		Delete(&domain.CartItem{})
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}

	return nil
}

func (r *CartRepository) Clear(ctx context.Context, userID uint) error {
	return r.DB.WithContext(ctx).Where("user_id = ?", userID).Delete(&domain.CartItem{}).Error
}

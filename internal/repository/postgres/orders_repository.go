package postgres

import (
	"context"
	"errors"
	"modaMarket/domain"
	"time"

	"gorm.io/gorm"
)

type OrdersRepository struct {
	DB *gorm.DB
}

func NewOrdersRepository(db *gorm.DB) *OrdersRepository {
	return &OrdersRepository{
		DB: db,
	}
}

// CreateOrder persists the order with its items inside one transaction,
// decrementing stock and appending purchase rows so the recommendation
// pipeline sees the new history on its next snapshot.
func (r *OrdersRepository) CreateOrder(ctx context.Context, order *domain.Order) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, item := range order.Items {
			result := tx.Model(&domain.Product{}).
				Where("article_id = ? AND stock >= ?", item.ArticleID, item.Qty).
				Update("stock", gorm.Expr("stock - ?", item.Qty))
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return domain.ErrInsufficientStock
			}
		}

		if err := tx.Create(&order).Error; err != nil {
			return err
		}

		now := time.Now()
		txns := make([]domain.Transaction, 0, len(order.Items))
		for _, item := range order.Items {
			for i := 0; i < item.Qty; i++ {
				txns = append(txns, domain.Transaction{
					UserID:      order.UserID,
					ArticleID:   item.ArticleID,
					Price:       item.Price,
					PurchasedAt: now,
				})
			}
		}

		return tx.Create(&txns).Error
	})
}

func (r *OrdersRepository) FindByID(ctx context.Context, id uint) (domain.Order, error) {
	var order domain.Order

	err := r.DB.WithContext(ctx).Preload("Items").First(&order, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Order{}, domain.ErrNotFound
		}
		return domain.Order{}, err
	}

	return order, nil
}

func (r *OrdersRepository) FindByUser(ctx context.Context, userID uint) ([]domain.Order, error) {
	var orders []domain.Order

	err := r.DB.WithContext(ctx).Preload("Items").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}

	return orders, nil
}

// FindByClientOrderID supports idempotent checkout retries.
func (r *OrdersRepository) FindByClientOrderID(ctx context.Context, clientOrderID string) (domain.Order, error) {
	var order domain.Order

	err := r.DB.WithContext(ctx).Preload("Items").
		Where("client_order_id = ?", clientOrderID).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Order{}, domain.ErrNotFound
		}
		return domain.Order{}, err
	}

	return order, nil
}

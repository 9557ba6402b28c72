package postgres

import (
	"context"
	"modaMarket/domain"
	"time"

	"gorm.io/gorm"
)

type InteractionRepository struct {
	DB *gorm.DB
}

func NewInteractionRepository(db *gorm.DB) *InteractionRepository {
	return &InteractionRepository{
		DB: db,
	}
}

func (r *InteractionRepository) Create(ctx context.Context, event *domain.UserInteraction) error {
	if err := r.DB.WithContext(ctx).Create(&event).Error; err != nil {
		return err
	}

	return nil
}

// CreateBatch writes impression batches from the serving path. Best
// effort there, so callers may ignore the error after logging it.
func (r *InteractionRepository) CreateBatch(ctx context.Context, events []domain.UserInteraction) error {
	if len(events) == 0 {
		return nil
	}

	if err := r.DB.WithContext(ctx).CreateInBatches(&events, 200).Error; err != nil {
		return err
	}

	return nil
}

func (r *InteractionRepository) FindByUserSince(ctx context.Context, userID uint, since time.Time) ([]domain.UserInteraction, error) {
	var events []domain.UserInteraction

	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND created_at >= ?", userID, since).
		Order("created_at DESC").
		Find(&events).Error
	if err != nil {
		return nil, err
	}

	return events, nil
}

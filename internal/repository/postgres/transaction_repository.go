package postgres

import (
	"context"
	"modaMarket/domain"
	"time"

	"gorm.io/gorm"
)

type TransactionRepository struct {
	DB *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) *TransactionRepository {
	return &TransactionRepository{
		DB: db,
	}
}

func (r *TransactionRepository) Create(ctx context.Context, txn *domain.Transaction) error {
	if err := r.DB.WithContext(ctx).Create(&txn).Error; err != nil {
		return err
	}

	return nil
}

func (r *TransactionRepository) CreateBatch(ctx context.Context, txns []domain.Transaction) error {
	if len(txns) == 0 {
		return nil
	}

	if err := r.DB.WithContext(ctx).CreateInBatches(&txns, 500).Error; err != nil {
		return err
	}

	return nil
}

// FindWindow returns all purchases with purchased_at in [from, to],
// oldest first. Both the retrieval snapshot and the trainer load through
// this query.
func (r *TransactionRepository) FindWindow(ctx context.Context, from, to time.Time) ([]domain.Transaction, error) {
	var txns []domain.Transaction

	err := r.DB.WithContext(ctx).
		Where("purchased_at >= ? AND purchased_at <= ?", from, to).
		Order("purchased_at ASC").
		Find(&txns).Error
	if err != nil {
		return nil, err
	}

	return txns, nil
}

func (r *TransactionRepository) FindByUserSince(ctx context.Context, userID uint, since time.Time) ([]domain.Transaction, error) {
	var txns []domain.Transaction

	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND purchased_at >= ?", userID, since).
		Order("purchased_at ASC").
		Find(&txns).Error
	if err != nil {
		return nil, err
	}

	return txns, nil
}

// LatestPurchaseAt returns the timestamp of the newest transaction, or the
// zero time when the table is empty.
func (r *TransactionRepository) LatestPurchaseAt(ctx context.Context) (time.Time, error) {
	var latest *time.Time

	err := r.DB.WithContext(ctx).Model(&domain.Transaction{}).
		Select("MAX(purchased_at)").
		Scan(&latest).Error
	if err != nil {
		return time.Time{}, err
	}
	if latest == nil {
		return time.Time{}, gorm.ErrRecordNotFound
	}

	return *latest, nil
}

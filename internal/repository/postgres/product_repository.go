package postgres

import (
	"context"
	"errors"
	"modaMarket/domain"

	"gorm.io/gorm"
)

type ProductRepository struct {
	DB *gorm.DB
}

func NewProductRepository(db *gorm.DB) *ProductRepository {
	return &ProductRepository{
		DB: db,
	}
}

func (r *ProductRepository) FindByID(ctx context.Context, articleID string) (domain.Product, error) {
	var product domain.Product

	err := r.DB.WithContext(ctx).Where("article_id = ?", articleID).First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Product{}, domain.ErrProductNotFound
		}
		return domain.Product{}, err
	}

	return product, nil
}

// FindByIDs returns the products present in the catalog for the given
// article ids. Missing ids are silently skipped, callers that care must
// compare lengths.
func (r *ProductRepository) FindByIDs(ctx context.Context, articleIDs []string) ([]domain.Product, error) {
	if len(articleIDs) == 0 {
		return nil, nil
	}

	var products []domain.Product
	if err := r.DB.WithContext(ctx).Where("article_id IN ?", articleIDs).Find(&products).Error; err != nil {
		return nil, err
	}

	return products, nil
}

func (r *ProductRepository) FindAll(ctx context.Context, limit, offset int) ([]domain.Product, error) {
	var products []domain.Product

	q := r.DB.WithContext(ctx).Order("article_id")
	if limit > 0 {
		q = q.Limit(limit).Offset(offset)
	}
	if err := q.Find(&products).Error; err != nil {
		return nil, err
	}

	return products, nil
}

// FindImagedByGroups returns imaged products in any of the given product
// groups, newest first. Used by the cold-start path of the For-You shelf.
func (r *ProductRepository) FindImagedByGroups(ctx context.Context, groups []string, limit int) ([]domain.Product, error) {
	if len(groups) == 0 {
		return nil, nil
	}

	var products []domain.Product
	err := r.DB.WithContext(ctx).
		Where("product_group_name IN ?", groups).
		Where("image_path <> ''").
		Order("created_at DESC").
		Limit(limit).
		Find(&products).Error
	if err != nil {
		return nil, err
	}

	return products, nil
}

// FindImaged returns every product that has an image, the similarity
// scorer's candidate pool.
func (r *ProductRepository) FindImaged(ctx context.Context) ([]domain.Product, error) {
	var products []domain.Product

	if err := r.DB.WithContext(ctx).Where("image_path <> ''").Find(&products).Error; err != nil {
		return nil, err
	}

	return products, nil
}

// DecrementStock atomically reduces stock, failing when not enough is left.
func (r *ProductRepository) DecrementStock(ctx context.Context, articleID string, qty int) error {
	result := r.DB.WithContext(ctx).Model(&domain.Product{}).
		Where("article_id = ? AND stock >= ?", articleID, qty).
		Update("stock", gorm.Expr("stock - ?", qty))
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return domain.ErrInsufficientStock
	}

	return nil
}

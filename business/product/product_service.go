package product

import (
	"context"
	"fmt"

	"modaMarket/domain"
)

const (
	defaultPageSize = 24
	maxPageSize     = 100
)

// ProductRepository contract interface
type ProductRepository interface {
	FindByID(ctx context.Context, articleID string) (domain.Product, error)
	FindAll(ctx context.Context, limit, offset int) ([]domain.Product, error)
}

type productService struct {
	productRepo ProductRepository
}

func NewProductService(productRepo ProductRepository) *productService {
	return &productService{
		productRepo: productRepo,
	}
}

func (s *productService) GetAllProducts(ctx context.Context, limit, offset int) ([]domain.Product, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}

	products, err := s.productRepo.FindAll(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	return products, nil
}

func (s *productService) GetProductByID(ctx context.Context, articleID string) (domain.Product, error) {
	if articleID == "" {
		return domain.Product{}, fmt.Errorf("%w: article id is required", domain.ErrBadParamInput)
	}

	return s.productRepo.FindByID(ctx, articleID)
}

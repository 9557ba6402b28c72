// Package cart covers the two pre-purchase surfaces, the shopping cart
// and the wishlist. Both feed the for-you shelf as activity signals.
package cart

import (
	"context"
	"fmt"

	"modaMarket/domain"
)

type CartRepository interface {
	Add(ctx context.Context, item *domain.CartItem) error
	FindByUser(ctx context.Context, userID uint) ([]domain.CartItem, error)
	Remove(ctx context.Context, userID uint, articleID string) error
}

type WishlistRepository interface {
	Add(ctx context.Context, item *domain.WishlistItem) error
	FindByUser(ctx context.Context, userID uint) ([]domain.WishlistItem, error)
	Remove(ctx context.Context, userID uint, articleID string) error
}

type ProductRepository interface {
	FindByID(ctx context.Context, articleID string) (domain.Product, error)
}

type cartService struct {
	cartRepo     CartRepository
	wishlistRepo WishlistRepository
	productRepo  ProductRepository
}

func NewCartService(cartRepo CartRepository, wishlistRepo WishlistRepository, productRepo ProductRepository) *cartService {
	return &cartService{
		cartRepo:     cartRepo,
		wishlistRepo: wishlistRepo,
		productRepo:  productRepo,
	}
}

func (s *cartService) AddToCart(ctx context.Context, userID uint, articleID string, qty int) error {
	if qty < 1 {
		return fmt.Errorf("%w: quantity must be at least 1", domain.ErrBadParamInput)
	}

	product, err := s.productRepo.FindByID(ctx, articleID)
	if err != nil {
		return err
	}
	if product.Stock < qty {
		return domain.ErrInsufficientStock
	}

	return s.cartRepo.Add(ctx, &domain.CartItem{
		UserID:    userID,
		ArticleID: articleID,
		Qty:       qty,
	})
}

func (s *cartService) GetCart(ctx context.Context, userID uint) ([]domain.CartItem, error) {
	return s.cartRepo.FindByUser(ctx, userID)
}

func (s *cartService) RemoveFromCart(ctx context.Context, userID uint, articleID string) error {
	return s.cartRepo.Remove(ctx, userID, articleID)
}

func (s *cartService) AddToWishlist(ctx context.Context, userID uint, articleID string) error {
	if _, err := s.productRepo.FindByID(ctx, articleID); err != nil {
		return err
	}

	return s.wishlistRepo.Add(ctx, &domain.WishlistItem{
		UserID:    userID,
		ArticleID: articleID,
	})
}

func (s *cartService) GetWishlist(ctx context.Context, userID uint) ([]domain.WishlistItem, error) {
	return s.wishlistRepo.FindByUser(ctx, userID)
}

func (s *cartService) RemoveFromWishlist(ctx context.Context, userID uint, articleID string) error {
	return s.wishlistRepo.Remove(ctx, userID, articleID)
}

package orders

import (
	"context"
	"errors"
	"fmt"

	"modaMarket/domain"
	"modaMarket/pkg/logger"

	"github.com/google/uuid"
)

type OrdersRepository interface {
	CreateOrder(ctx context.Context, order *domain.Order) error
	FindByID(ctx context.Context, id uint) (domain.Order, error)
	FindByUser(ctx context.Context, userID uint) ([]domain.Order, error)
	FindByClientOrderID(ctx context.Context, clientOrderID string) (domain.Order, error)
}

type CartRepository interface {
	FindByUser(ctx context.Context, userID uint) ([]domain.CartItem, error)
	Clear(ctx context.Context, userID uint) error
}

type ProductRepository interface {
	FindByIDs(ctx context.Context, articleIDs []string) ([]domain.Product, error)
}

// RecommendCache is invalidated after checkout so the next recommendation
// request reflects the new purchase instead of a stale shelf.
type RecommendCache interface {
	InvalidateUser(ctx context.Context, userID uint) error
}

type OrdersService struct {
	ordersRepo  OrdersRepository
	cartRepo    CartRepository
	productRepo ProductRepository
	cache       RecommendCache
}

func NewOrdersService(ordersRepo OrdersRepository, cartRepo CartRepository, productRepo ProductRepository, cache RecommendCache) *OrdersService {
	return &OrdersService{
		ordersRepo:  ordersRepo,
		cartRepo:    cartRepo,
		productRepo: productRepo,
		cache:       cache,
	}
}

// Checkout turns the user's cart into an order at current catalog prices.
// The clientOrderID makes retries idempotent: a repeated id returns the
// already-created order instead of charging twice.
func (s *OrdersService) Checkout(ctx context.Context, userID uint, clientOrderID string) (domain.Order, error) {
	if clientOrderID == "" {
		clientOrderID = uuid.NewString()
	} else {
		existing, err := s.ordersRepo.FindByClientOrderID(ctx, clientOrderID)
		if err == nil {
			return existing, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return domain.Order{}, fmt.Errorf("failed to check client order id: %w", err)
		}
	}

	cartItems, err := s.cartRepo.FindByUser(ctx, userID)
	if err != nil {
		return domain.Order{}, fmt.Errorf("failed to load cart: %w", err)
	}
	if len(cartItems) == 0 {
		return domain.Order{}, fmt.Errorf("%w: cart is empty", domain.ErrBadParamInput)
	}

	articleIDs := make([]string, 0, len(cartItems))
	for _, item := range cartItems {
		articleIDs = append(articleIDs, item.ArticleID)
	}

	products, err := s.productRepo.FindByIDs(ctx, articleIDs)
	if err != nil {
		return domain.Order{}, fmt.Errorf("failed to price cart: %w", err)
	}
	priceByArticle := make(map[string]float64, len(products))
	for _, p := range products {
		priceByArticle[p.ArticleID] = p.Price
	}

	order := domain.Order{
		UserID:        userID,
		ClientOrderID: clientOrderID,
	}
	for _, item := range cartItems {
		price, ok := priceByArticle[item.ArticleID]
		if !ok {
			return domain.Order{}, fmt.Errorf("%w: article %s no longer in catalog", domain.ErrProductNotFound, item.ArticleID)
		}

		order.Items = append(order.Items, domain.OrderItem{
			ArticleID: item.ArticleID,
			Qty:       item.Qty,
			Price:     price,
		})
		order.TotalAmount += price * float64(item.Qty)
	}

	if err := s.ordersRepo.CreateOrder(ctx, &order); err != nil {
		return domain.Order{}, err
	}

	if err := s.cartRepo.Clear(ctx, userID); err != nil {
		logger.Warn("failed to clear cart after checkout", "user_id", userID, "error", err)
	}

	if s.cache != nil {
		if err := s.cache.InvalidateUser(ctx, userID); err != nil {
			logger.Warn("failed to invalidate recommendation cache", "user_id", userID, "error", err)
		}
	}

	logger.Info("order created", "user_id", userID, "order_id", order.ID, "items", len(order.Items), "total", order.TotalAmount)
	return order, nil
}

func (s *OrdersService) GetOrder(ctx context.Context, userID, orderID uint) (domain.Order, error) {
	order, err := s.ordersRepo.FindByID(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	if order.UserID != userID {
		return domain.Order{}, domain.ErrNotFound
	}

	return order, nil
}

func (s *OrdersService) GetUserOrders(ctx context.Context, userID uint) ([]domain.Order, error) {
	return s.ordersRepo.FindByUser(ctx, userID)
}

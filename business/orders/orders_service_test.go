package orders

import (
	"context"
	"testing"

	"modaMarket/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memOrdersRepo struct {
	nextID uint
	orders []domain.Order
}

func (r *memOrdersRepo) CreateOrder(_ context.Context, order *domain.Order) error {
	r.nextID++
	order.ID = r.nextID
	r.orders = append(r.orders, *order)
	return nil
}

func (r *memOrdersRepo) FindByID(_ context.Context, id uint) (domain.Order, error) {
	for _, o := range r.orders {
		if o.ID == id {
			return o, nil
		}
	}
	return domain.Order{}, domain.ErrNotFound
}

func (r *memOrdersRepo) FindByUser(_ context.Context, userID uint) ([]domain.Order, error) {
	var out []domain.Order
	for _, o := range r.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (r *memOrdersRepo) FindByClientOrderID(_ context.Context, clientOrderID string) (domain.Order, error) {
	for _, o := range r.orders {
		if o.ClientOrderID == clientOrderID {
			return o, nil
		}
	}
	return domain.Order{}, domain.ErrNotFound
}

type memCartRepo struct {
	items   []domain.CartItem
	cleared bool
}

func (r *memCartRepo) FindByUser(_ context.Context, _ uint) ([]domain.CartItem, error) {
	if r.cleared {
		return nil, nil
	}
	return r.items, nil
}

func (r *memCartRepo) Clear(_ context.Context, _ uint) error {
	r.cleared = true
	return nil
}

type stubProducts struct {
	products map[string]domain.Product
}

func (s stubProducts) FindByIDs(_ context.Context, ids []string) ([]domain.Product, error) {
	var out []domain.Product
	for _, id := range ids {
		if p, ok := s.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

type memCache struct {
	invalidated []uint
}

func (c *memCache) InvalidateUser(_ context.Context, userID uint) error {
	c.invalidated = append(c.invalidated, userID)
	return nil
}

func testCatalog() stubProducts {
	return stubProducts{products: map[string]domain.Product{
		"A1": {ArticleID: "A1", Price: 49.9, Stock: 10},
		"A2": {ArticleID: "A2", Price: 19.9, Stock: 10},
	}}
}

func TestCheckout(t *testing.T) {
	ordersRepo := &memOrdersRepo{}
	cartRepo := &memCartRepo{items: []domain.CartItem{
		{UserID: 1, ArticleID: "A1", Qty: 2},
		{UserID: 1, ArticleID: "A2", Qty: 1},
	}}
	cache := &memCache{}

	svc := NewOrdersService(ordersRepo, cartRepo, testCatalog(), cache)

	order, err := svc.Checkout(context.Background(), 1, "")
	require.NoError(t, err)

	assert.NotZero(t, order.ID)
	assert.NotEmpty(t, order.ClientOrderID, "a client order id is generated when missing")
	require.Len(t, order.Items, 2)
	assert.InDelta(t, 2*49.9+19.9, order.TotalAmount, 1e-9)

	assert.True(t, cartRepo.cleared, "cart is emptied after checkout")
	assert.Equal(t, []uint{1}, cache.invalidated, "cached recommendations are dropped")
}

func TestCheckoutIdempotentRetry(t *testing.T) {
	ordersRepo := &memOrdersRepo{}
	cartRepo := &memCartRepo{items: []domain.CartItem{{UserID: 1, ArticleID: "A1", Qty: 1}}}

	svc := NewOrdersService(ordersRepo, cartRepo, testCatalog(), nil)
	ctx := context.Background()

	first, err := svc.Checkout(ctx, 1, "client-123")
	require.NoError(t, err)

	retry, err := svc.Checkout(ctx, 1, "client-123")
	require.NoError(t, err)

	assert.Equal(t, first.ID, retry.ID, "retry returns the original order")
	assert.Len(t, ordersRepo.orders, 1, "no duplicate order is created")
}

func TestCheckoutEmptyCart(t *testing.T) {
	svc := NewOrdersService(&memOrdersRepo{}, &memCartRepo{}, testCatalog(), nil)

	_, err := svc.Checkout(context.Background(), 1, "")
	assert.ErrorIs(t, err, domain.ErrBadParamInput)
}

func TestCheckoutUncataloguedArticle(t *testing.T) {
	cartRepo := &memCartRepo{items: []domain.CartItem{{UserID: 1, ArticleID: "GONE", Qty: 1}}}
	svc := NewOrdersService(&memOrdersRepo{}, cartRepo, testCatalog(), nil)

	_, err := svc.Checkout(context.Background(), 1, "")
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestGetOrderOwnership(t *testing.T) {
	ordersRepo := &memOrdersRepo{}
	cartRepo := &memCartRepo{items: []domain.CartItem{{UserID: 1, ArticleID: "A1", Qty: 1}}}
	svc := NewOrdersService(ordersRepo, cartRepo, testCatalog(), nil)
	ctx := context.Background()

	order, err := svc.Checkout(ctx, 1, "")
	require.NoError(t, err)

	got, err := svc.GetOrder(ctx, 1, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, got.ID)

	_, err = svc.GetOrder(ctx, 2, order.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound, "orders are not visible to other users")
}

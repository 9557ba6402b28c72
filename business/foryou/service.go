package foryou

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"time"

	"modaMarket/domain"
	"modaMarket/pkg/logger"
	"modaMarket/pkg/metrics"
)

type Config struct {
	PerSourceCount  int
	ColdStartLimit  int
	OverFetchFactor int
	CacheTTL        time.Duration

	// candidate pool bounds relative to the source price
	PriceFloorRatio   float64
	PriceCeilingRatio float64
}

const (
	defaultPerSourceCount    = 5
	defaultColdStartLimit    = 20
	defaultOverFetchFactor   = 2
	defaultForYouCacheTTL    = 5 * time.Minute
	defaultPriceFloorRatio   = 0.5
	defaultPriceCeilingRatio = 1.5

	// flat score assigned to preferred-category picks
	coldStartScore = 5.0
)

func DefaultConfig() Config {
	return Config{
		PerSourceCount:    defaultPerSourceCount,
		ColdStartLimit:    defaultColdStartLimit,
		OverFetchFactor:   defaultOverFetchFactor,
		CacheTTL:          defaultForYouCacheTTL,
		PriceFloorRatio:   defaultPriceFloorRatio,
		PriceCeilingRatio: defaultPriceCeilingRatio,
	}
}

type UserRepository interface {
	FindByID(ctx context.Context, id uint) (domain.User, error)
}

type CartRepository interface {
	FindByUser(ctx context.Context, userID uint) ([]domain.CartItem, error)
}

type WishlistRepository interface {
	FindByUser(ctx context.Context, userID uint) ([]domain.WishlistItem, error)
}

type OrdersRepository interface {
	FindByUser(ctx context.Context, userID uint) ([]domain.Order, error)
}

type ProductRepository interface {
	FindByIDs(ctx context.Context, articleIDs []string) ([]domain.Product, error)
	FindImaged(ctx context.Context) ([]domain.Product, error)
	FindImagedByGroups(ctx context.Context, groups []string, limit int) ([]domain.Product, error)
}

type Cache interface {
	GetForYou(ctx context.Context, userID uint) ([]domain.ForYouItem, error)
	SetForYou(ctx context.Context, userID uint, items []domain.ForYouItem, ttl time.Duration) error
}

// Service fills the For-You shelf: visually similar items around the
// user's cart, wishlist and order history, or preferred-category picks
// when there is no activity yet.
type Service struct {
	cfg      Config
	users    UserRepository
	cart     CartRepository
	wishlist WishlistRepository
	orders   OrdersRepository
	products ProductRepository
	cache    Cache
}

func NewService(cfg Config, users UserRepository, cart CartRepository, wishlist WishlistRepository, orders OrdersRepository, products ProductRepository, cache Cache) *Service {
	return &Service{
		cfg:      cfg,
		users:    users,
		cart:     cart,
		wishlist: wishlist,
		orders:   orders,
		products: products,
		cache:    cache,
	}
}

// ForYou assembles the shelf for one user. An empty shelf is a valid
// answer, not an error: a fresh user without preferred categories simply
// sees nothing here.
func (s *Service) ForYou(ctx context.Context, userID uint) ([]domain.ForYouItem, error) {
	metrics.ForYouRequests.Inc()

	if s.cache != nil {
		cached, err := s.cache.GetForYou(ctx, userID)
		if err != nil {
			logger.Warn("for-you cache read failed", "user_id", userID, "error", err)
		} else if cached != nil {
			return cached, nil
		}
	}

	activity, err := s.activityArticles(ctx, userID)
	if err != nil {
		return nil, err
	}

	var items []domain.ForYouItem
	if len(activity) == 0 {
		items, err = s.coldStart(ctx, userID)
	} else {
		items, err = s.similarToActivity(ctx, activity)
	}
	if err != nil {
		return nil, err
	}

	if s.cache != nil && len(items) > 0 {
		if err := s.cache.SetForYou(ctx, userID, items, s.cfg.CacheTTL); err != nil {
			logger.Warn("for-you cache write failed", "user_id", userID, "error", err)
		}
	}

	return items, nil
}

// activityArticles collects the distinct articles in the user's cart,
// wishlist and orders.
func (s *Service) activityArticles(ctx context.Context, userID uint) (map[string]struct{}, error) {
	activity := make(map[string]struct{})

	cartItems, err := s.cart.FindByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	for _, it := range cartItems {
		activity[it.ArticleID] = struct{}{}
	}

	wishlistItems, err := s.wishlist.FindByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load wishlist: %w", err)
	}
	for _, it := range wishlistItems {
		activity[it.ArticleID] = struct{}{}
	}

	orders, err := s.orders.FindByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load orders: %w", err)
	}
	for _, o := range orders {
		for _, it := range o.Items {
			activity[it.ArticleID] = struct{}{}
		}
	}

	return activity, nil
}

// similarToActivity picks the most similar imaged products around each
// activity product. Candidates are over-fetched and shuffled so the shelf
// varies between visits.
func (s *Service) similarToActivity(ctx context.Context, activity map[string]struct{}) ([]domain.ForYouItem, error) {
	ids := make([]string, 0, len(activity))
	for id := range activity {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	sources, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load activity products: %w", err)
	}
	rand.Shuffle(len(sources), func(i, j int) {
		sources[i], sources[j] = sources[j], sources[i]
	})

	pool, err := s.products.FindImaged(ctx)
	if err != nil {
		return nil, fmt.Errorf("load similarity pool: %w", err)
	}

	seen := make(map[string]struct{})
	var items []domain.ForYouItem
	for _, source := range sources {
		scored := s.scoreAgainst(source, pool, activity, seen)

		overFetch := s.cfg.PerSourceCount * s.cfg.OverFetchFactor
		if len(scored) > overFetch {
			scored = scored[:overFetch]
		}
		rand.Shuffle(len(scored), func(i, j int) {
			scored[i], scored[j] = scored[j], scored[i]
		})
		if len(scored) > s.cfg.PerSourceCount {
			scored = scored[:s.cfg.PerSourceCount]
		}

		for _, sc := range scored {
			seen[sc.product.ArticleID] = struct{}{}
			items = append(items, forYouItem(sc.product, sc.score,
				similarReason(source.Name), source.ArticleID))
		}
	}

	rand.Shuffle(len(items), func(i, j int) {
		items[i], items[j] = items[j], items[i]
	})

	return items, nil
}

type scoredProduct struct {
	product domain.Product
	score   float64
}

// scoreAgainst filters the pool to plausible matches for the source
// (same category when the source has one, price inside the band) and
// sorts them by similarity.
func (s *Service) scoreAgainst(source domain.Product, pool []domain.Product, activity, seen map[string]struct{}) []scoredProduct {
	minPrice := source.Price * s.cfg.PriceFloorRatio
	maxPrice := source.Price * s.cfg.PriceCeilingRatio

	var scored []scoredProduct
	for _, p := range pool {
		if p.ArticleID == source.ArticleID {
			continue
		}
		if _, ok := activity[p.ArticleID]; ok {
			continue
		}
		if _, ok := seen[p.ArticleID]; ok {
			continue
		}
		if source.ProductGroupName != "" && p.ProductGroupName != source.ProductGroupName {
			continue
		}
		if source.Price > 0 && (p.Price < minPrice || p.Price > maxPrice) {
			continue
		}

		scored = append(scored, scoredProduct{product: p, score: similarityScore(source, p)})
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].score != scored[j].score {
			return scored[i].score > scored[j].score
		}
		return scored[i].product.ArticleID < scored[j].product.ArticleID
	})

	return scored
}

// coldStart fills the shelf from the user's preferred categories. Missing
// preferences or an empty catalog both yield an empty shelf.
func (s *Service) coldStart(ctx context.Context, userID uint) ([]domain.ForYouItem, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	var categories []string
	for _, c := range strings.Split(user.PreferredCategories, ",") {
		if c = strings.TrimSpace(c); c != "" {
			categories = append(categories, c)
		}
	}
	if len(categories) == 0 {
		return nil, nil
	}

	products, err := s.products.FindImagedByGroups(ctx, categories, s.cfg.ColdStartLimit*s.cfg.OverFetchFactor)
	if err != nil {
		return nil, fmt.Errorf("load preferred-category products: %w", err)
	}

	inStock := products[:0]
	for _, p := range products {
		if p.Stock > 0 {
			inStock = append(inStock, p)
		}
	}

	rand.Shuffle(len(inStock), func(i, j int) {
		inStock[i], inStock[j] = inStock[j], inStock[i]
	})
	if len(inStock) > s.cfg.ColdStartLimit {
		inStock = inStock[:s.cfg.ColdStartLimit]
	}

	items := make([]domain.ForYouItem, 0, len(inStock))
	for _, p := range inStock {
		items = append(items, forYouItem(p, coldStartScore,
			fmt.Sprintf("Based on your interest in %s", p.ProductGroupName), ""))
	}

	return items, nil
}

func forYouItem(p domain.Product, score float64, reason, sourceArticleID string) domain.ForYouItem {
	return domain.ForYouItem{
		ArticleID:        p.ArticleID,
		Name:             p.Name,
		Price:            p.Price,
		ImagePath:        p.ImagePath,
		ProductGroupName: p.ProductGroupName,
		PrimaryColor:     p.PrimaryColor,
		ColorDescription: p.ColorDescription,
		Score:            score,
		Reason:           reason,
		SourceArticleID:  sourceArticleID,
	}
}

func similarReason(sourceName string) string {
	if len(sourceName) > 30 {
		sourceName = sourceName[:30] + "..."
	}
	return "Similar to " + sourceName
}

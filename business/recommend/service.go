package recommend

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"modaMarket/business/ranker"
	"modaMarket/domain"
	"modaMarket/pkg/logger"
	"modaMarket/pkg/metrics"
)

type Config struct {
	ModelPath      string
	TopNCandidates int
	DefaultK       int
	MaxK           int
	CacheTTL       time.Duration

	// persist an impression event per served item
	RecordImpressions bool
}

const (
	defaultTopNCandidates = 500
	defaultK              = 20
	defaultMaxK           = 100
	defaultCacheTTL       = 5 * time.Minute
)

func DefaultConfig(modelPath string) Config {
	return Config{
		ModelPath:         modelPath,
		TopNCandidates:    defaultTopNCandidates,
		DefaultK:          defaultK,
		MaxK:              defaultMaxK,
		CacheTTL:          defaultCacheTTL,
		RecordImpressions: true,
	}
}

type CandidateSource interface {
	CandidatesForUser(ctx context.Context, userID uint, topN int) ([]domain.Candidate, error)
}

type FeatureSource interface {
	BuildForCandidates(ctx context.Context, userID uint, candidates []domain.Candidate) ([]domain.FeatureVector, error)
}

type ProductRepository interface {
	FindByIDs(ctx context.Context, articleIDs []string) ([]domain.Product, error)
}

type ResultCache interface {
	GetRecommendations(ctx context.Context, userID uint) (*domain.RecommendResult, error)
	SetRecommendations(ctx context.Context, userID uint, result *domain.RecommendResult, ttl time.Duration) error
}

type ImpressionRecorder interface {
	CreateBatch(ctx context.Context, events []domain.UserInteraction) error
}

// Service serves personalized rankings. The model pointer is swapped
// atomically on reload; a request scores every candidate with the model
// it loaded at entry.
type Service struct {
	cfg         Config
	candidates  CandidateSource
	features    FeatureSource
	products    ProductRepository
	cache       ResultCache
	impressions ImpressionRecorder

	model atomic.Pointer[ranker.Model]
}

func NewService(cfg Config, candidates CandidateSource, features FeatureSource, products ProductRepository, cache ResultCache, impressions ImpressionRecorder) *Service {
	return &Service{
		cfg:         cfg,
		candidates:  candidates,
		features:    features,
		products:    products,
		cache:       cache,
		impressions: impressions,
	}
}

// LoadModel reads the configured artifact and installs it. Callers decide
// whether a failure is fatal; the server treats it as degraded mode.
func (s *Service) LoadModel() error {
	model, err := ranker.Load(s.cfg.ModelPath)
	if err != nil {
		return err
	}

	s.model.Store(model)
	metrics.ModelReloads.Inc()
	logger.Info("ranking model loaded",
		"path", s.cfg.ModelPath,
		"trees", len(model.Trees),
		"trained_at", model.TrainedAt)

	return nil
}

// ReloadIfNewer re-reads the artifact and swaps it in only when its
// TrainedAt is newer than the running model's. Returns whether a swap
// happened.
func (s *Service) ReloadIfNewer() (bool, error) {
	candidate, err := ranker.Load(s.cfg.ModelPath)
	if err != nil {
		return false, err
	}

	current := s.model.Load()
	if current != nil && !candidate.TrainedAt.After(current.TrainedAt) {
		return false, nil
	}

	s.model.Store(candidate)
	metrics.ModelReloads.Inc()
	logger.Info("ranking model hot-swapped", "trained_at", candidate.TrainedAt)

	return true, nil
}

func (s *Service) ModelLoaded() bool {
	return s.model.Load() != nil
}

// Recommend returns the top-k ranked items for the user. Without a usable
// model it falls back to the retrieval blend and flags the result as
// degraded; an empty candidate set yields an empty result, not an error.
func (s *Service) Recommend(ctx context.Context, userID uint, k int) (domain.RecommendResult, error) {
	start := time.Now()
	defer func() {
		metrics.RecommendLatency.Observe(time.Since(start).Seconds())
	}()
	metrics.RecommendRequests.Inc()

	if k <= 0 {
		k = s.cfg.DefaultK
	}
	if k > s.cfg.MaxK {
		k = s.cfg.MaxK
	}

	if s.cache != nil {
		cached, err := s.cache.GetRecommendations(ctx, userID)
		if err != nil {
			logger.Warn("recommendation cache read failed", "user_id", userID, "error", err)
		} else if cached != nil && len(cached.Items) >= k {
			cached.Items = cached.Items[:k]
			return *cached, nil
		}
	}

	candidates, err := s.candidates.CandidatesForUser(ctx, userID, s.cfg.TopNCandidates)
	if err != nil {
		return domain.RecommendResult{}, err
	}

	result := domain.RecommendResult{UserID: userID}
	if len(candidates) == 0 {
		return result, nil
	}

	vectors, err := s.features.BuildForCandidates(ctx, userID, candidates)
	if err != nil {
		return domain.RecommendResult{}, fmt.Errorf("build features: %w", err)
	}

	scores := make([]float64, len(vectors))
	if model := s.model.Load(); model != nil {
		scores = model.PredictBatch(vectors)
		result.ModelUsed = true
	} else {
		for i, fv := range vectors {
			scores[i] = fv.RetrievalScore
		}
		result.Degraded = true
		metrics.RecommendDegraded.Inc()
		logger.Warn("serving degraded ranking, model not loaded", "user_id", userID)
	}

	order := make([]int, len(vectors))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		if scores[order[a]] != scores[order[b]] {
			return scores[order[a]] > scores[order[b]]
		}
		return vectors[order[a]].ArticleID < vectors[order[b]].ArticleID
	})
	if len(order) > k {
		order = order[:k]
	}

	articleIDs := make([]string, len(order))
	for i, idx := range order {
		articleIDs[i] = vectors[idx].ArticleID
	}

	catalog := make(map[string]domain.Product)
	if s.products != nil {
		products, err := s.products.FindByIDs(ctx, articleIDs)
		if err != nil {
			return domain.RecommendResult{}, fmt.Errorf("enrich recommendations: %w", err)
		}
		for _, p := range products {
			catalog[p.ArticleID] = p
		}
	}

	for _, idx := range order {
		fv := vectors[idx]
		p, ok := catalog[fv.ArticleID]
		if !ok {
			// retrieval can surface articles already pulled from the catalog
			continue
		}

		result.Items = append(result.Items, domain.Recommendation{
			ArticleID:        fv.ArticleID,
			Score:            scores[idx],
			Reason:           fv.Reason,
			Name:             p.Name,
			Price:            p.Price,
			ImagePath:        p.ImagePath,
			ProductGroupName: p.ProductGroupName,
		})
	}

	if s.cache != nil {
		if err := s.cache.SetRecommendations(ctx, userID, &result, s.cfg.CacheTTL); err != nil {
			logger.Warn("recommendation cache write failed", "user_id", userID, "error", err)
		}
	}

	s.recordImpressions(ctx, userID, result.Items)

	return result, nil
}

// recordImpressions logs served items as interaction events, best effort.
func (s *Service) recordImpressions(ctx context.Context, userID uint, items []domain.Recommendation) {
	if !s.cfg.RecordImpressions || s.impressions == nil || len(items) == 0 {
		return
	}

	events := make([]domain.UserInteraction, 0, len(items))
	now := time.Now()
	for _, item := range items {
		events = append(events, domain.UserInteraction{
			UserID:    userID,
			ArticleID: item.ArticleID,
			EventType: domain.EventImpression,
			Value:     item.Score,
			CreatedAt: now,
		})
	}

	if err := s.impressions.CreateBatch(ctx, events); err != nil {
		logger.Warn("failed to record impressions", "user_id", userID, "error", err)
	}
}

package feature

import (
	"context"
	"sync/atomic"

	"modaMarket/business/retrieval"
	"modaMarket/domain"
)

type Config struct {
	PopShortWindowDays int
	PopLongWindowDays  int
	CoPurchaseSeeds    int

	// recency value for users with no purchase history
	RecencySentinelDays float64
}

const (
	defaultPopShortWindowDays  = 7
	defaultPopLongWindowDays   = 30
	defaultCoPurchaseSeeds     = 3
	defaultRecencySentinelDays = 9999
)

func DefaultConfig() Config {
	return Config{
		PopShortWindowDays:  defaultPopShortWindowDays,
		PopLongWindowDays:   defaultPopLongWindowDays,
		CoPurchaseSeeds:     defaultCoPurchaseSeeds,
		RecencySentinelDays: defaultRecencySentinelDays,
	}
}

// IndexProvider hands out the current transaction snapshot. The retrieval
// service satisfies it, so training and serving feed from the same index.
type IndexProvider interface {
	Index() *retrieval.TxnIndex
}

type ProductRepository interface {
	FindByIDs(ctx context.Context, articleIDs []string) ([]domain.Product, error)
}

// Builder turns retrieval candidates into the fixed feature rows the
// ranking model consumes. The same builder runs in the trainer and in the
// serving path so training and serving never diverge.
type Builder struct {
	cfg      Config
	indexes  IndexProvider
	products ProductRepository

	stats atomic.Pointer[itemStats]
}

func NewBuilder(cfg Config, indexes IndexProvider, products ProductRepository) *Builder {
	return &Builder{
		cfg:      cfg,
		indexes:  indexes,
		products: products,
	}
}

// BuildForCandidates computes the full feature row for every candidate.
// Sparse histories produce default values, never errors.
func (b *Builder) BuildForCandidates(ctx context.Context, userID uint, candidates []domain.Candidate) ([]domain.FeatureVector, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	idx := b.indexes.Index()
	if idx == nil {
		return nil, retrieval.ErrIndexNotReady
	}

	stats := b.itemStats(idx)

	articleIDs := make([]string, 0, len(candidates))
	for _, c := range candidates {
		articleIDs = append(articleIDs, c.ArticleID)
	}

	meta := make(map[string]domain.Product)
	if b.products != nil {
		products, err := b.products.FindByIDs(ctx, articleIDs)
		if err != nil {
			return nil, err
		}
		for _, p := range products {
			meta[p.ArticleID] = p
		}
	}

	userTxns := idx.UserTransactions(userID)
	totalPurchases := float64(len(userTxns))

	recencyDays := b.cfg.RecencySentinelDays
	if len(userTxns) > 0 {
		last := userTxns[len(userTxns)-1].PurchasedAt
		recencyDays = float64(int(idx.MaxDate().Sub(last).Hours() / 24))
	}

	ageBinCode := domain.AgeBinCode(idx.UserAgeBin(userID))

	recentSet := make(map[string]struct{})
	for _, a := range idx.RecentArticles(userID, b.cfg.PopShortWindowDays) {
		recentSet[a] = struct{}{}
	}

	coCounts := b.coPurchaseCounts(idx, userID, articleIDs)

	vectors := make([]domain.FeatureVector, 0, len(candidates))
	for _, c := range candidates {
		fv := domain.FeatureVector{
			UserID:    userID,
			ArticleID: c.ArticleID,

			RetrievalScore:          c.Score,
			RetrievalRecentShort:    c.RuleScores.RecentShort,
			RetrievalRecentLong:     c.RuleScores.RecentLong,
			RetrievalBoughtTogether: c.RuleScores.BoughtTogether,
			RetrievalPopularAge:     c.RuleScores.PopularAge,

			UserTotalPurchases: totalPurchases,
			UserRecencyDays:    recencyDays,
			UserAgeBin:         ageBinCode,

			ItemPopularity7d:  float64(stats.pop7[c.ArticleID]),
			ItemPopularity30d: float64(stats.pop30[c.ArticleID]),
			ItemPriceMean30d:  stats.priceMean30[c.ArticleID],
			ItemDepartmentNo:  -1,
			ItemGenderTag:     0,

			CoPurchaseWithLast3: float64(coCounts[c.ArticleID]),

			Reason: c.Reason,
		}

		if p, ok := meta[c.ArticleID]; ok {
			fv.ItemDepartmentNo = float64(p.DepartmentNo)
			fv.ItemGenderTag = float64(p.GenderTag)
		}
		if _, ok := recentSet[c.ArticleID]; ok {
			fv.RecentInteraction7d = 1
		}

		vectors = append(vectors, fv)
	}

	return vectors, nil
}

// coPurchaseCounts sums, over the user's last purchased articles, how
// often each candidate was bought by the customers who bought that
// article. Counts purchase rows, not distinct buyers.
func (b *Builder) coPurchaseCounts(idx *retrieval.TxnIndex, userID uint, articleIDs []string) map[string]int {
	seeds := lastDistinctArticles(idx, userID, b.cfg.CoPurchaseSeeds)
	if len(seeds) == 0 {
		return nil
	}

	wanted := make(map[string]struct{}, len(articleIDs))
	for _, a := range articleIDs {
		wanted[a] = struct{}{}
	}

	counts := make(map[string]int)
	for _, seed := range seeds {
		for _, buyer := range idx.Buyers(seed) {
			for _, t := range idx.UserTransactions(buyer) {
				if _, ok := wanted[t.ArticleID]; ok {
					counts[t.ArticleID]++
				}
			}
		}
	}

	return counts
}

func lastDistinctArticles(idx *retrieval.TxnIndex, userID uint, n int) []string {
	txns := idx.UserTransactions(userID)

	seen := make(map[string]struct{})
	var articles []string
	for i := len(txns) - 1; i >= 0 && len(articles) < n; i-- {
		a := txns[i].ArticleID
		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		articles = append(articles, a)
	}

	return articles
}

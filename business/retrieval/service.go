package retrieval

import (
	"context"
	"errors"
	"sort"
	"sync/atomic"
	"time"

	"modaMarket/domain"
	"modaMarket/pkg/logger"
)

var ErrIndexNotReady = errors.New("retrieval index is not ready")

// Service generates ranked candidate articles per user by combining the
// recency, cohort popularity and co-purchase rules over an immutable
// transaction snapshot.
type Service struct {
	cfg      Config
	txnRepo  TransactionRepository
	userRepo UserRepository
	popCache PopularityCache

	index atomic.Pointer[TxnIndex]
}

func NewService(cfg Config, txnRepo TransactionRepository, userRepo UserRepository, popCache PopularityCache) *Service {
	return &Service{
		cfg:      cfg,
		txnRepo:  txnRepo,
		userRepo: userRepo,
		popCache: popCache,
	}
}

// RefreshSnapshot rebuilds the transaction index from the configured
// rolling window and swaps it in atomically. Requests in flight keep the
// snapshot they started with.
func (s *Service) RefreshSnapshot(ctx context.Context) error {
	now := time.Now()
	from := now.AddDate(0, 0, -s.cfg.SnapshotWindowDays)

	txns, err := s.txnRepo.FindWindow(ctx, from, now)
	if err != nil {
		return err
	}

	users, err := s.userRepo.FindAll(ctx)
	if err != nil {
		return err
	}

	idx := NewTxnIndex(txns, users)
	s.index.Store(idx)

	logger.Info("retrieval snapshot refreshed",
		"transactions", len(txns),
		"users", len(users),
		"max_date", idx.MaxDate())

	return nil
}

// UseIndex installs a pre-built index. The trainer builds its index from
// an explicit window instead of the rolling snapshot.
func (s *Service) UseIndex(idx *TxnIndex) {
	s.index.Store(idx)
}

func (s *Service) Index() *TxnIndex {
	return s.index.Load()
}

// SnapshotReady reports whether a transaction index has been installed.
func (s *Service) SnapshotReady() bool {
	return s.index.Load() != nil
}

// CandidatesForUser runs every retrieval rule for the user, blends the
// quantile-normalized rule scores and returns the top candidates sorted
// by combined score. Fewer than topN candidates is a normal outcome for
// thin histories; an unknown user is an error.
func (s *Service) CandidatesForUser(ctx context.Context, userID uint, topN int) ([]domain.Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	idx := s.index.Load()
	if idx == nil {
		return nil, ErrIndexNotReady
	}
	if !idx.KnownUser(userID) {
		return nil, domain.ErrUserNotFound
	}
	if topN <= 0 {
		topN = s.cfg.TopN
	}

	recentShort := recentItems(idx, userID, s.cfg.RecentDaysShort, s.cfg.Decay)
	recentLong := recentItems(idx, userID, s.cfg.RecentDaysLong, s.cfg.Decay)

	var popular map[string]float64
	if ageBin := idx.UserAgeBin(userID); ageBin != "" {
		popular = s.cohortPopularity(ctx, idx, ageBin)
	}

	bought := make(map[string]float64)
	seeds := idx.RecentArticles(userID, s.cfg.RecentDaysLong)
	if len(seeds) > s.cfg.BoughtTogetherSeeds {
		seeds = seeds[:s.cfg.BoughtTogetherSeeds]
	}
	for _, seed := range seeds {
		for article, score := range boughtTogether(idx, seed, s.cfg.BoughtTogetherK) {
			if score > bought[article] {
				bought[article] = score
			}
		}
	}

	rules := make(map[string]domain.RuleScores)
	for article, score := range recentShort {
		rs := rules[article]
		rs.RecentShort = score
		rules[article] = rs
	}
	for article, score := range recentLong {
		rs := rules[article]
		rs.RecentLong = score
		rules[article] = rs
	}
	for article, score := range bought {
		rs := rules[article]
		rs.BoughtTogether = score
		rules[article] = rs
	}
	for article, score := range popular {
		rs := rules[article]
		rs.PopularAge = score
		rules[article] = rs
	}

	if len(rules) == 0 {
		return nil, nil
	}

	candidates := s.combine(userID, rules)
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].ArticleID < candidates[j].ArticleID
	})

	if len(candidates) > topN {
		candidates = candidates[:topN]
	}

	return candidates, nil
}

// combine quantile-normalizes each fired rule column across the user's
// candidate set and blends them with weights renormalized over the fired
// rules. Reason is the rule with the highest raw score.
func (s *Service) combine(userID uint, rules map[string]domain.RuleScores) []domain.Candidate {
	articles := make([]string, 0, len(rules))
	for a := range rules {
		articles = append(articles, a)
	}
	sort.Strings(articles)

	type column struct {
		weight float64
		raw    []float64
		norm   []float64
		fired  bool
	}
	cols := []*column{
		{weight: s.cfg.WeightRecentShort},
		{weight: s.cfg.WeightRecentLong},
		{weight: s.cfg.WeightBoughtTogether},
		{weight: s.cfg.WeightPopularAge},
	}
	for _, a := range articles {
		rs := rules[a]
		cols[0].raw = append(cols[0].raw, rs.RecentShort)
		cols[1].raw = append(cols[1].raw, rs.RecentLong)
		cols[2].raw = append(cols[2].raw, rs.BoughtTogether)
		cols[3].raw = append(cols[3].raw, rs.PopularAge)
	}

	totalWeight := 0.0
	for _, c := range cols {
		for _, v := range c.raw {
			if v > 0 {
				c.fired = true
				break
			}
		}
		if c.fired {
			c.norm = quantileNormalize(c.raw)
			totalWeight += c.weight
		}
	}

	candidates := make([]domain.Candidate, 0, len(articles))
	for i, a := range articles {
		score := 0.0
		for _, c := range cols {
			if c.fired {
				score += c.weight / totalWeight * c.norm[i]
			}
		}

		reason, _ := rules[a].Top()
		candidates = append(candidates, domain.Candidate{
			UserID:     userID,
			ArticleID:  a,
			Score:      score,
			Reason:     reason,
			RuleScores: rules[a],
		})
	}

	return candidates
}

// cohortPopularity reads the cohort's popularity scores through the cache,
// recomputing and re-caching on a miss. Cache failures degrade to a
// recompute, never to an error.
func (s *Service) cohortPopularity(ctx context.Context, idx *TxnIndex, ageBin string) map[string]float64 {
	if s.popCache != nil {
		scores, err := s.popCache.Get(ctx, ageBin, s.cfg.PopularWindowDays)
		if err != nil {
			logger.Warn("popularity cache read failed", "age_bin", ageBin, "error", err)
		} else if scores != nil {
			return scores
		}
	}

	scores := popularByAge(idx, ageBin, s.cfg.PopularK, s.cfg.PopularWindowDays)

	if s.popCache != nil && len(scores) > 0 {
		if err := s.popCache.Set(ctx, ageBin, s.cfg.PopularWindowDays, scores, s.cfg.PopularityCacheTTL); err != nil {
			logger.Warn("popularity cache write failed", "age_bin", ageBin, "error", err)
		}
	}

	return scores
}

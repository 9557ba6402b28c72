package retrieval

import (
	"context"
	"testing"
	"time"

	"modaMarket/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testBase = time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)

func txn(userID uint, articleID string, daysAgo int) domain.Transaction {
	return domain.Transaction{
		UserID:      userID,
		ArticleID:   articleID,
		Price:       19.90,
		PurchasedAt: testBase.AddDate(0, 0, -daysAgo),
	}
}

func testUsers() []domain.User {
	return []domain.User{
		{ID: 1, AgeBin: "18-25"},
		{ID: 2, AgeBin: "18-25"},
		{ID: 3, AgeBin: "18-25"}, // no purchase history
		{ID: 4, AgeBin: ""},      // no age bin
	}
}

func testTxns() []domain.Transaction {
	return []domain.Transaction{
		txn(1, "A1", 0),
		txn(1, "A2", 2),
		txn(1, "A3", 5),
		txn(1, "A9", 40), // outside every window
		txn(2, "A1", 1),
		txn(2, "A4", 1),
		txn(2, "A5", 3),
		txn(4, "A1", 2),
		txn(4, "A6", 2),
	}
}

func newTestService() *Service {
	svc := NewService(DefaultConfig(), nil, nil, NewMemoryPopularityCache())
	svc.UseIndex(NewTxnIndex(testTxns(), testUsers()))
	return svc
}

func TestDecayScore(t *testing.T) {
	p := DefaultDecayParams()

	prev := p.Score(0)
	for _, days := range []float64{1, 2, 3, 7, 14, 30} {
		s := p.Score(days)
		assert.Less(t, s, prev, "decay must decrease with age at %v days", days)
		assert.GreaterOrEqual(t, s, 0.0)
		prev = s
	}

	// clamped, not infinite
	assert.Equal(t, p.Score(0), p.Score(-5))
}

func TestQuantileNormalize(t *testing.T) {
	norm := quantileNormalize([]float64{3, 1, 2, 2})

	for _, v := range norm {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)
	}
	assert.Equal(t, 1.0, norm[0], "largest value maps to 1")
	assert.Equal(t, 0.0, norm[1], "smallest value maps to 0")
	assert.Equal(t, norm[2], norm[3], "ties share a rank")

	assert.Equal(t, []float64{0}, quantileNormalize([]float64{5}))
	assert.Empty(t, quantileNormalize(nil))
}

func TestTxnIndexRecentArticles(t *testing.T) {
	idx := NewTxnIndex(testTxns(), testUsers())

	require.Equal(t, testBase, idx.MaxDate())

	recent := idx.RecentArticles(1, 7)
	require.Equal(t, []string{"A1", "A2", "A3"}, recent, "most recent first, old purchases excluded")

	assert.Empty(t, idx.RecentArticles(3, 7))
}

func TestCandidatesForUser(t *testing.T) {
	svc := newTestService()

	candidates, err := svc.CandidatesForUser(context.Background(), 1, 0)
	require.NoError(t, err)
	require.NotEmpty(t, candidates)

	for i, c := range candidates {
		assert.Equal(t, uint(1), c.UserID)
		assert.GreaterOrEqual(t, c.Score, 0.0)
		assert.LessOrEqual(t, c.Score, 1.0)
		assert.False(t, c.RuleScores.IsZero(), "every candidate must carry the rule that produced it")
		assert.NotEmpty(t, c.Reason)
		if i > 0 {
			assert.LessOrEqual(t, c.Score, candidates[i-1].Score, "candidates must be sorted descending")
		}
	}
}

func TestCandidatesForUserTruncatesToTopN(t *testing.T) {
	svc := newTestService()

	candidates, err := svc.CandidatesForUser(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.Len(t, candidates, 2)
}

func TestCandidatesForHistorylessUser(t *testing.T) {
	svc := newTestService()

	// user 3 has an age bin but no purchases: cohort popularity only
	candidates, err := svc.CandidatesForUser(context.Background(), 3, 0)
	require.NoError(t, err)
	require.NotEmpty(t, candidates)

	for _, c := range candidates {
		assert.Equal(t, "popular_age", c.Reason)
		assert.Zero(t, c.RuleScores.RecentShort)
		assert.Zero(t, c.RuleScores.RecentLong)
		assert.Zero(t, c.RuleScores.BoughtTogether)
		assert.Greater(t, c.RuleScores.PopularAge, 0.0)
	}
}

func TestCandidatesForUnknownUser(t *testing.T) {
	svc := newTestService()

	_, err := svc.CandidatesForUser(context.Background(), 99, 0)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestCandidatesWithoutIndex(t *testing.T) {
	svc := NewService(DefaultConfig(), nil, nil, nil)

	_, err := svc.CandidatesForUser(context.Background(), 1, 0)
	assert.ErrorIs(t, err, ErrIndexNotReady)
}

func TestCohortPopularityUsesCache(t *testing.T) {
	cache := NewMemoryPopularityCache()
	svc := NewService(DefaultConfig(), nil, nil, cache)
	svc.UseIndex(NewTxnIndex(testTxns(), testUsers()))

	_, err := svc.CandidatesForUser(context.Background(), 3, 0)
	require.NoError(t, err)

	scores, err := cache.Get(context.Background(), "18-25", defaultPopularWindowDays)
	require.NoError(t, err)
	assert.NotEmpty(t, scores, "cohort scores must be cached after the first request")
}

func TestBoughtTogetherExcludesSeed(t *testing.T) {
	idx := NewTxnIndex(testTxns(), testUsers())

	scores := boughtTogether(idx, "A1", 50)
	require.NotEmpty(t, scores)
	_, hasSeed := scores["A1"]
	assert.False(t, hasSeed)
}

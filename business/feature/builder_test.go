package feature

import (
	"context"
	"testing"
	"time"

	"modaMarket/business/retrieval"
	"modaMarket/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testBase = time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)

type staticIndex struct {
	idx *retrieval.TxnIndex
}

func (s staticIndex) Index() *retrieval.TxnIndex { return s.idx }

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

func txn(userID uint, articleID string, daysAgo int, price float64) domain.Transaction {
	return domain.Transaction{
		UserID:      userID,
		ArticleID:   articleID,
		Price:       price,
		PurchasedAt: testBase.AddDate(0, 0, -daysAgo),
	}
}

func newTestBuilder() *Builder {
	idx := retrieval.NewTxnIndex(
		[]domain.Transaction{
			txn(1, "A1", 1, 10),
			txn(1, "A2", 3, 20),
			txn(2, "A1", 2, 10),
			txn(2, "A3", 2, 30),
			txn(2, "A3", 15, 28), // inside 30d window only
		},
		[]domain.User{
			{ID: 1, AgeBin: "26-35"},
			{ID: 2, AgeBin: "26-35"},
			{ID: 3, AgeBin: "36-45"}, // no history
		},
	)

	products := stubProducts{products: map[string]domain.Product{
		"A1": {ArticleID: "A1", DepartmentNo: 7, GenderTag: 2},
		"A3": {ArticleID: "A3", DepartmentNo: 4, GenderTag: 1},
	}}

	return NewBuilder(DefaultConfig(), staticIndex{idx}, products)
}

func candidate(userID uint, articleID string, score float64) domain.Candidate {
	return domain.Candidate{
		UserID:    userID,
		ArticleID: articleID,
		Score:     score,
		Reason:    "recent_short",
		RuleScores: domain.RuleScores{
			RecentShort: score,
		},
	}
}

func TestBuildForCandidates(t *testing.T) {
	b := newTestBuilder()

	vectors, err := b.BuildForCandidates(context.Background(), 1, []domain.Candidate{
		candidate(1, "A1", 0.9),
		candidate(1, "A3", 0.4),
	})
	require.NoError(t, err)
	require.Len(t, vectors, 2)

	a1 := vectors[0]
	assert.Equal(t, "A1", a1.ArticleID)
	assert.Equal(t, 0.9, a1.RetrievalScore)
	assert.Equal(t, 0.9, a1.RetrievalRecentShort, "rule scores carried through")
	assert.Equal(t, 2.0, a1.UserTotalPurchases)
	assert.Equal(t, 1.0, a1.UserRecencyDays)
	assert.Equal(t, domain.AgeBinCode("26-35"), a1.UserAgeBin)
	assert.Equal(t, 2.0, a1.ItemPopularity7d, "two purchases of A1 in the last 7 days")
	assert.Equal(t, 2.0, a1.ItemPopularity30d)
	assert.Equal(t, 10.0, a1.ItemPriceMean30d)
	assert.Equal(t, 7.0, a1.ItemDepartmentNo)
	assert.Equal(t, 2.0, a1.ItemGenderTag)
	assert.Equal(t, 1.0, a1.RecentInteraction7d, "user bought A1 in the last 7 days")

	a3 := vectors[1]
	assert.Equal(t, 2.0, a3.ItemPopularity30d, "both A3 purchases inside 30 days")
	assert.Equal(t, 1.0, a3.ItemPopularity7d)
	assert.Equal(t, 29.0, a3.ItemPriceMean30d)
	assert.Zero(t, a3.RecentInteraction7d, "user never bought A3")
	assert.Greater(t, a3.CoPurchaseWithLast3, 0.0, "A3 co-purchased with A1 by user 2")
}

func TestBuildForHistorylessUser(t *testing.T) {
	b := newTestBuilder()

	vectors, err := b.BuildForCandidates(context.Background(), 3, []domain.Candidate{
		candidate(3, "A2", 0.5),
	})
	require.NoError(t, err)
	require.Len(t, vectors, 1)

	fv := vectors[0]
	assert.Zero(t, fv.UserTotalPurchases)
	assert.Equal(t, defaultRecencySentinelDays, int(fv.UserRecencyDays))
	assert.Equal(t, domain.AgeBinCode("36-45"), fv.UserAgeBin)
	assert.Zero(t, fv.RecentInteraction7d)
	assert.Zero(t, fv.CoPurchaseWithLast3)
	assert.Equal(t, -1.0, fv.ItemDepartmentNo, "unknown product gets the default department")
	assert.Zero(t, fv.ItemGenderTag)
}

func TestBuildForNoCandidates(t *testing.T) {
	b := newTestBuilder()

	vectors, err := b.BuildForCandidates(context.Background(), 1, nil)
	require.NoError(t, err)
	assert.Empty(t, vectors)
}

func TestFeatureRowMatchesSchema(t *testing.T) {
	b := newTestBuilder()

	vectors, err := b.BuildForCandidates(context.Background(), 1, []domain.Candidate{
		candidate(1, "A1", 0.9),
	})
	require.NoError(t, err)
	require.Len(t, vectors, 1)

	row := vectors[0].Row()
	require.Len(t, row, len(domain.FeatureColumns))
	assert.Equal(t, float64(vectors[0].UserAgeBin), row[domain.AgeBinFeatureIndex])
}

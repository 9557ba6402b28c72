package recommend

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"modaMarket/business/ranker"
	"modaMarket/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCandidates struct {
	candidates []domain.Candidate
	err        error
}

func (s stubCandidates) CandidatesForUser(_ context.Context, _ uint, _ int) ([]domain.Candidate, error) {
	return s.candidates, s.err
}

type stubFeatures struct{}

func (stubFeatures) BuildForCandidates(_ context.Context, userID uint, candidates []domain.Candidate) ([]domain.FeatureVector, error) {
	out := make([]domain.FeatureVector, len(candidates))
	for i, c := range candidates {
		out[i] = domain.FeatureVector{
			UserID:         userID,
			ArticleID:      c.ArticleID,
			RetrievalScore: c.Score,
			Reason:         c.Reason,
		}
	}
	return out, nil
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
	results map[uint]*domain.RecommendResult
}

func (c *memCache) GetRecommendations(_ context.Context, userID uint) (*domain.RecommendResult, error) {
	return c.results[userID], nil
}

func (c *memCache) SetRecommendations(_ context.Context, userID uint, result *domain.RecommendResult, _ time.Duration) error {
	c.results[userID] = result
	return nil
}

type memImpressions struct {
	events []domain.UserInteraction
}

func (m *memImpressions) CreateBatch(_ context.Context, events []domain.UserInteraction) error {
	m.events = append(m.events, events...)
	return nil
}

func testCandidates() []domain.Candidate {
	return []domain.Candidate{
		{UserID: 1, ArticleID: "A1", Score: 0.9, Reason: "recent_short"},
		{UserID: 1, ArticleID: "A2", Score: 0.3, Reason: "popular_age"},
		{UserID: 1, ArticleID: "A3", Score: 0.6, Reason: "bought_together"},
	}
}

func testCatalog() stubProducts {
	return stubProducts{products: map[string]domain.Product{
		"A1": {ArticleID: "A1", Name: "Slim Jeans", Price: 49.9},
		"A2": {ArticleID: "A2", Name: "Knit Sweater", Price: 39.9},
		"A3": {ArticleID: "A3", Name: "Canvas Belt", Price: 14.9},
	}}
}

func newTestService(t *testing.T, modelPath string) *Service {
	t.Helper()

	cfg := DefaultConfig(modelPath)
	cfg.RecordImpressions = false
	return NewService(cfg, stubCandidates{candidates: testCandidates()}, stubFeatures{}, testCatalog(), nil, nil)
}

// writeLeafModel persists a hand-built single-split ensemble that scores
// by retrieval score.
func writeLeafModel(t *testing.T, path string, trainedAt time.Time) {
	t.Helper()

	model := &ranker.Model{
		Trees: []*ranker.TreeNode{{
			Feature:   0, // retrieval_score
			Threshold: 0.5,
			Left:      &ranker.TreeNode{Value: -2},
			Right:     &ranker.TreeNode{Value: 2},
		}},
		LearningRate: 1,
		Columns:      domain.FeatureColumns,
		TrainedAt:    trainedAt,
	}
	require.NoError(t, model.Save(path))
}

// writeInvertedLeafModel persists the opposite ensemble: low retrieval
// scores land on the positive leaf.
func writeInvertedLeafModel(t *testing.T, path string, trainedAt time.Time) {
	t.Helper()

	model := &ranker.Model{
		Trees: []*ranker.TreeNode{{
			Feature:   0, // retrieval_score
			Threshold: 0.5,
			Left:      &ranker.TreeNode{Value: 2},
			Right:     &ranker.TreeNode{Value: -2},
		}},
		LearningRate: 1,
		Columns:      domain.FeatureColumns,
		TrainedAt:    trainedAt,
	}
	require.NoError(t, model.Save(path))
}

// swappingFeatures replaces the artifact and hot-reloads it while a
// request is between candidate generation and scoring.
type swappingFeatures struct {
	t       *testing.T
	svc     *Service
	path    string
	swapped bool
}

func (f *swappingFeatures) BuildForCandidates(ctx context.Context, userID uint, candidates []domain.Candidate) ([]domain.FeatureVector, error) {
	writeInvertedLeafModel(f.t, f.path, time.Now())

	swapped, err := f.svc.ReloadIfNewer()
	require.NoError(f.t, err)
	f.swapped = swapped

	return stubFeatures{}.BuildForCandidates(ctx, userID, candidates)
}

func TestRecommendSingleModelVersionAcrossReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json")
	writeLeafModel(t, path, time.Now().Add(-time.Hour))

	cfg := DefaultConfig(path)
	cfg.RecordImpressions = false
	features := &swappingFeatures{t: t, path: path}
	svc := NewService(cfg, stubCandidates{candidates: testCandidates()}, features, testCatalog(), nil, nil)
	features.svc = svc
	require.NoError(t, svc.LoadModel())

	result, err := svc.Recommend(context.Background(), 1, 3)
	require.NoError(t, err)
	require.True(t, features.swapped, "the artifact must have been replaced mid-request")
	assert.True(t, result.ModelUsed)
	require.Len(t, result.Items, 3)

	// every item must carry a score from the version loaded at entry,
	// never a mixture of the old and new ensembles
	current, err := ranker.Load(path)
	require.NoError(t, err)
	byArticle := make(map[string]domain.Candidate)
	for _, c := range testCandidates() {
		byArticle[c.ArticleID] = c
	}
	for _, item := range result.Items {
		c := byArticle[item.ArticleID]
		fv := domain.FeatureVector{UserID: 1, ArticleID: c.ArticleID, RetrievalScore: c.Score, Reason: c.Reason}
		assert.InDelta(t, current.PredictRow(fv.Row()), item.Score, 1e-12)
	}
	assert.Equal(t, "A2", result.Items[0].ArticleID, "the swapped ensemble ranks the low-retrieval candidate first")
}

func TestRecommendDegradedWithoutModel(t *testing.T) {
	svc := newTestService(t, filepath.Join(t.TempDir(), "missing.json"))

	result, err := svc.Recommend(context.Background(), 1, 10)
	require.NoError(t, err)

	assert.True(t, result.Degraded)
	assert.False(t, result.ModelUsed)
	require.Len(t, result.Items, 3)
	assert.Equal(t, "A1", result.Items[0].ArticleID, "fallback ranks by retrieval score")
	assert.Equal(t, "A3", result.Items[1].ArticleID)
	assert.Equal(t, "Slim Jeans", result.Items[0].Name, "items enriched from the catalog")
}

func TestRecommendWithModel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json")
	writeLeafModel(t, path, time.Now())

	svc := newTestService(t, path)
	require.NoError(t, svc.LoadModel())

	result, err := svc.Recommend(context.Background(), 1, 2)
	require.NoError(t, err)

	assert.True(t, result.ModelUsed)
	assert.False(t, result.Degraded)
	require.Len(t, result.Items, 2)
	assert.Equal(t, "A1", result.Items[0].ArticleID, "only A1 clears the split threshold")
	for _, item := range result.Items {
		assert.GreaterOrEqual(t, item.Score, 0.0)
		assert.LessOrEqual(t, item.Score, 1.0)
	}
}

func TestRecommendEmptyCandidates(t *testing.T) {
	cfg := DefaultConfig(filepath.Join(t.TempDir(), "missing.json"))
	svc := NewService(cfg, stubCandidates{}, stubFeatures{}, testCatalog(), nil, nil)

	result, err := svc.Recommend(context.Background(), 1, 10)
	require.NoError(t, err)
	assert.Empty(t, result.Items, "thin histories under-fill, they do not error")
	assert.False(t, result.Degraded)
}

func TestRecommendDropsUncataloguedArticles(t *testing.T) {
	cfg := DefaultConfig(filepath.Join(t.TempDir(), "missing.json"))
	catalog := stubProducts{products: map[string]domain.Product{
		"A1": {ArticleID: "A1", Name: "Slim Jeans"},
	}}
	svc := NewService(cfg, stubCandidates{candidates: testCandidates()}, stubFeatures{}, catalog, nil, nil)

	result, err := svc.Recommend(context.Background(), 1, 10)
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.Equal(t, "A1", result.Items[0].ArticleID)
}

func TestRecommendServesFromCache(t *testing.T) {
	cache := &memCache{results: map[uint]*domain.RecommendResult{
		1: {UserID: 1, ModelUsed: true, Items: []domain.Recommendation{
			{ArticleID: "C1"}, {ArticleID: "C2"},
		}},
	}}

	cfg := DefaultConfig(filepath.Join(t.TempDir(), "missing.json"))
	svc := NewService(cfg, stubCandidates{candidates: testCandidates()}, stubFeatures{}, testCatalog(), cache, nil)

	result, err := svc.Recommend(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.Equal(t, "C1", result.Items[0].ArticleID)
}

func TestRecommendRecordsImpressions(t *testing.T) {
	recorder := &memImpressions{}
	cfg := DefaultConfig(filepath.Join(t.TempDir(), "missing.json"))
	svc := NewService(cfg, stubCandidates{candidates: testCandidates()}, stubFeatures{}, testCatalog(), nil, recorder)

	_, err := svc.Recommend(context.Background(), 1, 10)
	require.NoError(t, err)

	require.Len(t, recorder.events, 3)
	assert.Equal(t, "impression", recorder.events[0].EventType)
	assert.Equal(t, uint(1), recorder.events[0].UserID)
}

func TestReloadIfNewer(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "model.json")

	writeLeafModel(t, path, time.Now().Add(-time.Hour))
	svc := newTestService(t, path)
	require.NoError(t, svc.LoadModel())

	// same artifact: no swap
	swapped, err := svc.ReloadIfNewer()
	require.NoError(t, err)
	assert.False(t, swapped)

	// newer artifact: swap
	writeLeafModel(t, path, time.Now())
	swapped, err = svc.ReloadIfNewer()
	require.NoError(t, err)
	assert.True(t, swapped)
}

func TestLoadModelMissingFileFailsOpen(t *testing.T) {
	svc := newTestService(t, filepath.Join(t.TempDir(), "absent.json"))

	assert.Error(t, svc.LoadModel())
	assert.False(t, svc.ModelLoaded())
}

package ranker

import (
	"math/rand"
	"path/filepath"
	"testing"

	"modaMarket/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAUC(t *testing.T) {
	labels := []float64{0, 0, 1, 1}

	assert.Equal(t, 1.0, AUC(labels, []float64{0.1, 0.2, 0.8, 0.9}), "perfect ranking")
	assert.Equal(t, 0.0, AUC(labels, []float64{0.9, 0.8, 0.2, 0.1}), "inverted ranking")
	assert.Equal(t, 0.5, AUC(labels, []float64{0.5, 0.5, 0.5, 0.5}), "all tied")
	assert.Equal(t, 0.5, AUC([]float64{1, 1}, []float64{0.1, 0.9}), "single class")
}

func TestAveragePrecisionAtK(t *testing.T) {
	assert.Equal(t, 1.0, averagePrecisionAtK([]int{1, 1, 0, 0}, 10, 2), "all positives on top")
	assert.Equal(t, 0.0, averagePrecisionAtK([]int{0, 0, 0}, 10, 1), "no hit inside k")

	// one positive at rank 2: AP = (1/2) / min(10, 1)
	assert.InDelta(t, 0.5, averagePrecisionAtK([]int{0, 1, 0}, 10, 1), 1e-9)
}

// separablePairs labels a pair positive when its retrieval score clears
// 0.5, with the remaining features as noise.
func separablePairs(n int, seed int64) []domain.LabeledPair {
	rng := rand.New(rand.NewSource(seed))

	pairs := make([]domain.LabeledPair, n)
	for i := range pairs {
		score := rng.Float64()
		label := 0
		if score > 0.5 {
			label = 1
		}
		pairs[i] = domain.LabeledPair{
			FeatureVector: domain.FeatureVector{
				UserID:             uint(i%10 + 1),
				ArticleID:          string(rune('A' + i%26)),
				RetrievalScore:     score,
				UserTotalPurchases: rng.Float64() * 10,
				UserAgeBin:         rng.Intn(5),
				ItemPopularity7d:   rng.Float64() * 5,
			},
			Label: label,
		}
	}

	return pairs
}

func quickParams() Params {
	p := DefaultParams()
	p.NumRounds = 60
	p.EarlyStopPatience = 15
	p.MinChildSamples = 5
	p.MaxDepth = 3
	return p
}

func TestTrainerFitsSeparableData(t *testing.T) {
	train := separablePairs(600, 1)
	val := separablePairs(150, 2)

	model, err := NewTrainer(quickParams()).Fit(train, val)
	require.NoError(t, err)
	require.NotEmpty(t, model.Trees)

	_, yval := toMatrix(val)
	scores := make([]float64, len(val))
	for i, p := range val {
		scores[i] = model.PredictRow(p.Row())
	}
	assert.Greater(t, AUC(yval, scores), 0.95, "model must separate a separable problem")

	require.NotEmpty(t, model.Metrics.Importance)
	assert.Equal(t, "retrieval_score", model.Metrics.Importance[0].Feature,
		"the label-defining feature must dominate gain importance")

	for _, p := range val {
		prob := model.PredictRow(p.Row())
		assert.GreaterOrEqual(t, prob, 0.0)
		assert.LessOrEqual(t, prob, 1.0)
	}
}

func TestTrainerCategoricalSignal(t *testing.T) {
	rng := rand.New(rand.NewSource(3))

	// label depends only on the categorical age bin
	var pairs []domain.LabeledPair
	for i := 0; i < 500; i++ {
		bin := rng.Intn(5)
		label := 0
		if bin == 2 {
			label = 1
		}
		pairs = append(pairs, domain.LabeledPair{
			FeatureVector: domain.FeatureVector{
				UserID:         uint(i + 1),
				ArticleID:      "A",
				UserAgeBin:     bin,
				RetrievalScore: rng.Float64(),
			},
			Label: label,
		})
	}

	model, err := NewTrainer(quickParams()).Fit(pairs[:400], pairs[400:])
	require.NoError(t, err)

	_, y := toMatrix(pairs[400:])
	scores := make([]float64, 100)
	for i, p := range pairs[400:] {
		scores[i] = model.PredictRow(p.Row())
	}
	assert.Greater(t, AUC(y, scores), 0.95, "equality splits must capture the categorical signal")
}

func TestTrainerRejectsEmptyTrainingSet(t *testing.T) {
	_, err := NewTrainer(DefaultParams()).Fit(nil, nil)
	assert.ErrorIs(t, err, ErrEmptyTrainingSet)
}

func TestModelSaveLoadRoundTrip(t *testing.T) {
	train := separablePairs(300, 4)
	model, err := NewTrainer(quickParams()).Fit(train, separablePairs(80, 5))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, model.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)

	for _, p := range train[:20] {
		assert.InDelta(t, model.PredictRow(p.Row()), loaded.PredictRow(p.Row()), 1e-12,
			"reloaded model must score identically")
	}
	assert.Equal(t, model.TrainedAt.Unix(), loaded.TrainedAt.Unix())
}

func TestLoadRejectsMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}

func TestSavedArtifactCarriesRankingMetrics(t *testing.T) {
	train := separablePairs(600, 8)
	val := separablePairs(200, 9)

	model, err := NewTrainer(quickParams()).Fit(train, val)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, model.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)

	require.Len(t, loaded.Metrics.MAPAtK, len(EvalKs), "artifact must carry MAP@K for every k")
	require.Len(t, loaded.Metrics.RecallAtK, len(EvalKs), "artifact must carry Recall@K for every k")
	for _, k := range EvalKs {
		mapK, ok := loaded.Metrics.MAPAtK[k]
		require.True(t, ok)
		assert.GreaterOrEqual(t, mapK, 0.0)
		assert.LessOrEqual(t, mapK, 1.0)

		recallK, ok := loaded.Metrics.RecallAtK[k]
		require.True(t, ok)
		assert.GreaterOrEqual(t, recallK, 0.0)
		assert.LessOrEqual(t, recallK, 1.0)
	}
}

func TestRankingMetrics(t *testing.T) {
	train := separablePairs(600, 6)
	val := separablePairs(200, 7)

	model, err := NewTrainer(quickParams()).Fit(train, val)
	require.NoError(t, err)

	mapAtK, recallAtK := RankingMetrics(model, val, EvalKs)

	for _, k := range EvalKs {
		assert.GreaterOrEqual(t, mapAtK[k], 0.0)
		assert.LessOrEqual(t, mapAtK[k], 1.0)
		assert.GreaterOrEqual(t, recallAtK[k], 0.0)
		assert.LessOrEqual(t, recallAtK[k], 1.0)
	}

	assert.LessOrEqual(t, recallAtK[10], recallAtK[20], "recall cannot shrink as k grows")
	assert.LessOrEqual(t, recallAtK[20], recallAtK[30])
}

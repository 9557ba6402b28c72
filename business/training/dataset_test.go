package training

import (
	"context"
	"math/rand"
	"path/filepath"
	"testing"
	"time"

	"modaMarket/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testBase = time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)

func TestDeriveWindows(t *testing.T) {
	w := DeriveWindows(testBase)

	assert.Equal(t, testBase, w.TargetEnd)
	assert.Equal(t, testBase.AddDate(0, 0, -6), w.TargetStart)
	assert.Equal(t, testBase.AddDate(0, 0, -7), w.TrainEnd)
	assert.Equal(t, testBase.AddDate(0, 0, -35), w.TrainStart)
	assert.True(t, w.TrainEnd.Before(w.TargetStart), "train window must end before the target window starts")
}

func TestPositivesFromTransactions(t *testing.T) {
	w := DeriveWindows(testBase)

	txns := []domain.Transaction{
		{UserID: 1, ArticleID: "A1", PurchasedAt: testBase.AddDate(0, 0, -1)},  // in target
		{UserID: 1, ArticleID: "A2", PurchasedAt: testBase.AddDate(0, 0, -10)}, // before target
		{UserID: 2, ArticleID: "A3", PurchasedAt: testBase},                    // boundary, in target
	}

	positives := PositivesFromTransactions(txns, w)
	require.Len(t, positives, 2)
	assert.Contains(t, positives[uint(1)], "A1")
	assert.NotContains(t, positives[uint(1)], "A2")
	assert.Contains(t, positives[uint(2)], "A3")
}

func makePairs(userID uint, nPos, nNeg int) []domain.LabeledPair {
	var pairs []domain.LabeledPair
	for i := 0; i < nPos; i++ {
		pairs = append(pairs, domain.LabeledPair{
			FeatureVector: domain.FeatureVector{UserID: userID, ArticleID: "P"},
			Label:         1,
		})
	}
	for i := 0; i < nNeg; i++ {
		pairs = append(pairs, domain.LabeledPair{
			FeatureVector: domain.FeatureVector{UserID: userID, ArticleID: "N"},
			Label:         0,
		})
	}
	return pairs
}

func TestSampleNegativesPreservesPositives(t *testing.T) {
	pairs := append(makePairs(1, 10, 200), makePairs(2, 5, 100)...)
	rng := rand.New(rand.NewSource(1))

	sampled, zeroNeg := sampleNegatives(pairs, 4.0, rng)

	nPos, nNeg := 0, 0
	for _, p := range sampled {
		if p.Label == 1 {
			nPos++
		} else {
			nNeg++
		}
	}
	assert.Equal(t, 15, nPos, "all positives must survive sampling")
	assert.InDelta(t, 60, nNeg, 2, "negatives downsampled to the 4:1 target")
	assert.Zero(t, zeroNeg)
}

func TestSampleNegativesCountsZeroNegativeUsers(t *testing.T) {
	pairs := append(makePairs(1, 3, 0), makePairs(2, 2, 100)...)
	rng := rand.New(rand.NewSource(1))

	_, zeroNeg := sampleNegatives(pairs, 4.0, rng)
	assert.Equal(t, 1, zeroNeg)
}

func TestSampleNegativesKeepsAllWhenUnderTarget(t *testing.T) {
	pairs := makePairs(1, 10, 20) // 20 < 10*4
	rng := rand.New(rand.NewSource(1))

	sampled, _ := sampleNegatives(pairs, 4.0, rng)
	assert.Len(t, sampled, 30)
}

func TestSplitStratified(t *testing.T) {
	pairs := makePairs(1, 50, 200)
	rng := rand.New(rand.NewSource(1))

	train, val := splitStratified(pairs, 0.1, rng)

	assert.Len(t, train, 225)
	assert.Len(t, val, 25)

	valPos := 0
	for _, p := range val {
		valPos += p.Label
	}
	assert.Equal(t, 5, valPos, "validation holds its share of positives")
}

type stubCandidates struct {
	byUser map[uint][]domain.Candidate
}

func (s stubCandidates) CandidatesForUser(_ context.Context, userID uint, _ int) ([]domain.Candidate, error) {
	return s.byUser[userID], nil
}

type stubFeatures struct{}

func (stubFeatures) BuildForCandidates(_ context.Context, userID uint, candidates []domain.Candidate) ([]domain.FeatureVector, error) {
	var out []domain.FeatureVector
	for _, c := range candidates {
		out = append(out, domain.FeatureVector{
			UserID:         userID,
			ArticleID:      c.ArticleID,
			RetrievalScore: c.Score,
		})
	}
	return out, nil
}

func TestBuildFailsOnInsufficientPositives(t *testing.T) {
	candidates := stubCandidates{byUser: map[uint][]domain.Candidate{
		1: {{UserID: 1, ArticleID: "A1", Score: 0.5}},
	}}

	c := NewConstructor(DefaultConfig(), candidates, stubFeatures{})

	w := DeriveWindows(testBase)
	_, err := c.Build(context.Background(), []uint{1}, nil, w)
	assert.ErrorIs(t, err, domain.ErrInsufficientPositives)
}

func TestBuildLabelsAndSplits(t *testing.T) {
	byUser := make(map[uint][]domain.Candidate)
	positives := make(map[uint]map[string]struct{})
	for u := uint(1); u <= 20; u++ {
		var cands []domain.Candidate
		for _, a := range []string{"A1", "A2", "A3", "A4", "A5"} {
			cands = append(cands, domain.Candidate{UserID: u, ArticleID: a, Score: 0.5})
		}
		byUser[u] = cands
		positives[u] = map[string]struct{}{"A1": {}}
	}

	cfg := DefaultConfig()
	c := NewConstructor(cfg, stubCandidates{byUser: byUser}, stubFeatures{})

	w := DeriveWindows(testBase)
	ds, err := c.Build(context.Background(), activeUserIDs(20), positives, w)
	require.NoError(t, err)

	assert.Equal(t, 20, ds.Meta.Positives)
	assert.Equal(t, 80, ds.Meta.NegativesBefore)
	assert.NotEmpty(t, ds.Meta.RunID)
	assert.Equal(t, len(ds.Train)+len(ds.Val), ds.Meta.Positives+ds.Meta.NegativesAfter)

	for _, p := range ds.Train {
		if p.Label == 1 {
			assert.Equal(t, "A1", p.ArticleID)
		}
	}
}

func activeUserIDs(n int) []uint {
	ids := make([]uint, n)
	for i := range ids {
		ids[i] = uint(i + 1)
	}
	return ids
}

func TestPairsCSVRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "train.csv")

	pairs := []domain.LabeledPair{
		{
			FeatureVector: domain.FeatureVector{
				UserID:          1,
				ArticleID:       "A1",
				RetrievalScore:  0.75,
				UserAgeBin:      2,
				UserRecencyDays: 9999,
			},
			Label: 1,
		},
	}

	require.NoError(t, WritePairsCSV(path, pairs))

	got, err := ReadPairsCSV(path)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, pairs[0], got[0])
}

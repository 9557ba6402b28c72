package ranker

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"modaMarket/domain"
	"modaMarket/pkg/logger"
)

type Params struct {
	LearningRate      float64 `json:"learning_rate"`
	MaxDepth          int     `json:"max_depth"`
	MinChildSamples   int     `json:"min_child_samples"`
	Subsample         float64 `json:"subsample"`
	ColSample         float64 `json:"colsample"`
	NumRounds         int     `json:"num_rounds"`
	EarlyStopPatience int     `json:"early_stop_patience"`
	Seed              int64   `json:"seed"`
}

const (
	defaultLearningRate      = 0.03
	defaultMaxDepth          = 8
	defaultMinChildSamples   = 20
	defaultSubsample         = 0.8
	defaultColSample         = 0.7
	defaultNumRounds         = 2000
	defaultEarlyStopPatience = 50
	defaultTrainSeed         = 42
)

func DefaultParams() Params {
	return Params{
		LearningRate:      defaultLearningRate,
		MaxDepth:          defaultMaxDepth,
		MinChildSamples:   defaultMinChildSamples,
		Subsample:         defaultSubsample,
		ColSample:         defaultColSample,
		NumRounds:         defaultNumRounds,
		EarlyStopPatience: defaultEarlyStopPatience,
		Seed:              defaultTrainSeed,
	}
}

var ErrEmptyTrainingSet = errors.New("training set is empty")

// Trainer fits a gradient boosted tree ensemble with logistic loss.
type Trainer struct {
	params Params
}

func NewTrainer(params Params) *Trainer {
	return &Trainer{params: params}
}

// Fit boosts trees on the train split, evaluating validation AUC after
// every round. Boosting stops when validation AUC has not improved for
// the configured patience, and the ensemble is truncated back to the best
// round. With an empty validation split all rounds run.
func (t *Trainer) Fit(train, val []domain.LabeledPair) (*Model, error) {
	if len(train) == 0 {
		return nil, ErrEmptyTrainingSet
	}

	X, y := toMatrix(train)
	Xval, yval := toMatrix(val)

	posRate := 0.0
	for _, label := range y {
		posRate += label
	}
	posRate = clamp(posRate/float64(len(y)), 1e-6, 1-1e-6)
	baseScore := math.Log(posRate / (1 - posRate))

	scores := filled(len(y), baseScore)
	valScores := filled(len(yval), baseScore)

	rng := rand.New(rand.NewSource(t.params.Seed))
	builder := &treeBuilder{
		X:          X,
		maxDepth:   t.params.MaxDepth,
		minChild:   t.params.MinChildSamples,
		categorial: map[int]bool{domain.AgeBinFeatureIndex: true},
		gains:      make(map[int]float64),
	}

	var trees []*TreeNode
	grad := make([]float64, len(y))
	hess := make([]float64, len(y))

	bestRound := -1
	bestValAUC := math.Inf(-1)
	bestTrainAUC := 0.0
	sinceImproved := 0

	start := time.Now()
	for round := 0; round < t.params.NumRounds; round++ {
		for i := range y {
			p := sigmoid(scores[i])
			grad[i] = p - y[i]
			hess[i] = p * (1 - p)
		}
		builder.grad = grad
		builder.hess = hess

		rows := sampleWithout(len(y), t.params.Subsample, rng)
		feats := sampleFeatures(len(domain.FeatureColumns), t.params.ColSample, rng)

		tree := builder.build(rows, feats, 0)
		trees = append(trees, tree)

		for i := range scores {
			scores[i] += t.params.LearningRate * tree.Predict(X[i])
		}
		for i := range valScores {
			valScores[i] += t.params.LearningRate * tree.Predict(Xval[i])
		}

		if len(yval) == 0 {
			bestRound = round
			continue
		}

		valAUC := AUC(yval, valScores)
		if valAUC > bestValAUC {
			bestValAUC = valAUC
			bestRound = round
			bestTrainAUC = AUC(y, scores)
			sinceImproved = 0
		} else {
			sinceImproved++
			if sinceImproved >= t.params.EarlyStopPatience {
				logger.Info("early stopping",
					"round", round,
					"best_round", bestRound,
					"best_val_auc", bestValAUC)
				break
			}
		}
	}

	trees = trees[:bestRound+1]

	metrics := EvalMetrics{
		TrainAUC:   bestTrainAUC,
		Importance: rankImportance(builder.gains),
	}
	if len(yval) > 0 {
		metrics.ValAUC = bestValAUC
	} else {
		metrics.TrainAUC = AUC(y, scores)
	}

	model := &Model{
		Trees:              trees,
		BaseScore:          baseScore,
		LearningRate:       t.params.LearningRate,
		Columns:            append([]string(nil), domain.FeatureColumns...),
		CategoricalIndexes: []int{domain.AgeBinFeatureIndex},
		Params:             t.params,
		BestIteration:      bestRound,
		Metrics:            metrics,
		TrainedAt:          time.Now().UTC(),
	}

	if len(val) > 0 {
		model.Metrics.MAPAtK, model.Metrics.RecallAtK = RankingMetrics(model, val, EvalKs)
	}

	logger.Info("model trained",
		"trees", len(trees),
		"train_auc", fmt.Sprintf("%.4f", model.Metrics.TrainAUC),
		"val_auc", fmt.Sprintf("%.4f", model.Metrics.ValAUC),
		"elapsed", time.Since(start).Round(time.Millisecond))

	return model, nil
}

func toMatrix(pairs []domain.LabeledPair) ([][]float64, []float64) {
	X := make([][]float64, len(pairs))
	y := make([]float64, len(pairs))
	for i, p := range pairs {
		X[i] = p.Row()
		y[i] = float64(p.Label)
	}
	return X, y
}

// sampleFeatures picks a colsample fraction of feature indexes, always at
// least one.
func sampleFeatures(n int, fraction float64, rng *rand.Rand) []int {
	k := int(float64(n) * fraction)
	if k < 1 {
		k = 1
	}
	if k >= n {
		all := make([]int, n)
		for i := range all {
			all[i] = i
		}
		return all
	}

	return rng.Perm(n)[:k]
}

func filled(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

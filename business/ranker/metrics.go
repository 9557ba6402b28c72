package ranker

import (
	"sort"

	"modaMarket/domain"
)

type EvalMetrics struct {
	TrainAUC   float64             `json:"train_auc"`
	ValAUC     float64             `json:"val_auc"`
	MAPAtK     map[int]float64     `json:"map_at_k,omitempty"`
	RecallAtK  map[int]float64     `json:"recall_at_k,omitempty"`
	Importance []FeatureImportance `json:"feature_importance,omitempty"`
}

type FeatureImportance struct {
	Feature string  `json:"feature"`
	Gain    float64 `json:"gain"`
}

// EvalKs are the cutoffs reported for the ranking metrics.
var EvalKs = []int{10, 20, 30}

// AUC computes the area under the ROC curve by rank sum, averaging ranks
// over ties. Degenerate one-class inputs return 0.5.
func AUC(labels, scores []float64) float64 {
	n := len(labels)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		return scores[order[a]] < scores[order[b]]
	})

	ranks := make([]float64, n)
	for i := 0; i < n; {
		j := i
		for j+1 < n && scores[order[j+1]] == scores[order[i]] {
			j++
		}
		avg := float64(i+j)/2 + 1
		for k := i; k <= j; k++ {
			ranks[order[k]] = avg
		}
		i = j + 1
	}

	var nPos, nNeg, rankSum float64
	for i, label := range labels {
		if label == 1 {
			nPos++
			rankSum += ranks[i]
		} else {
			nNeg++
		}
	}
	if nPos == 0 || nNeg == 0 {
		return 0.5
	}

	return (rankSum - nPos*(nPos+1)/2) / (nPos * nNeg)
}

// RankingMetrics scores the validation pairs with the model and reports
// MAP@K and Recall@K averaged over users. Users without a single positive
// pair carry no signal and are skipped.
func RankingMetrics(m *Model, val []domain.LabeledPair, ks []int) (mapAtK, recallAtK map[int]float64) {
	type scored struct {
		article string
		score   float64
		label   int
	}

	byUser := make(map[uint][]scored)
	for _, p := range val {
		byUser[p.UserID] = append(byUser[p.UserID], scored{
			article: p.ArticleID,
			score:   m.PredictRow(p.Row()),
			label:   p.Label,
		})
	}

	mapSums := make(map[int]float64)
	recallSums := make(map[int]float64)
	users := 0

	for _, items := range byUser {
		positives := 0
		for _, it := range items {
			positives += it.label
		}
		if positives == 0 {
			continue
		}
		users++

		sort.Slice(items, func(a, b int) bool {
			if items[a].score != items[b].score {
				return items[a].score > items[b].score
			}
			return items[a].article < items[b].article
		})

		labels := make([]int, len(items))
		for i, it := range items {
			labels[i] = it.label
		}

		for _, k := range ks {
			mapSums[k] += averagePrecisionAtK(labels, k, positives)

			hits := 0
			for i := 0; i < k && i < len(labels); i++ {
				hits += labels[i]
			}
			recallSums[k] += float64(hits) / float64(positives)
		}
	}

	mapAtK = make(map[int]float64, len(ks))
	recallAtK = make(map[int]float64, len(ks))
	for _, k := range ks {
		if users > 0 {
			mapAtK[k] = mapSums[k] / float64(users)
			recallAtK[k] = recallSums[k] / float64(users)
		}
	}

	return mapAtK, recallAtK
}

// averagePrecisionAtK divides by min(k, positives) so a user with fewer
// positives than k can still reach a perfect score.
func averagePrecisionAtK(labels []int, k, positives int) float64 {
	hits := 0
	sum := 0.0
	for i := 0; i < k && i < len(labels); i++ {
		if labels[i] == 1 {
			hits++
			sum += float64(hits) / float64(i+1)
		}
	}

	divisor := k
	if positives < divisor {
		divisor = positives
	}
	if divisor == 0 {
		return 0
	}

	return sum / float64(divisor)
}

// rankImportance turns accumulated split gains into a descending ranking.
func rankImportance(gains map[int]float64) []FeatureImportance {
	out := make([]FeatureImportance, 0, len(gains))
	for f, gain := range gains {
		out = append(out, FeatureImportance{Feature: domain.FeatureColumns[f], Gain: gain})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Gain != out[j].Gain {
			return out[i].Gain > out[j].Gain
		}
		return out[i].Feature < out[j].Feature
	})

	return out
}

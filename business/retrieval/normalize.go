package retrieval

import "sort"

// quantileNormalize maps values to [0, 1] by their empirical quantile,
// averaging ranks for ties. A single value maps to 0, matching a uniform
// quantile transform fit on one sample.
func quantileNormalize(values []float64) []float64 {
	n := len(values)
	out := make([]float64, n)
	if n == 0 {
		return out
	}
	if n == 1 {
		return out
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		return values[order[a]] < values[order[b]]
	})

	// average rank over each run of equal values
	for i := 0; i < n; {
		j := i
		for j+1 < n && values[order[j+1]] == values[order[i]] {
			j++
		}
		avgRank := float64(i+j) / 2
		for k := i; k <= j; k++ {
			out[order[k]] = avgRank / float64(n-1)
		}
		i = j + 1
	}

	return out
}

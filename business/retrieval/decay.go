package retrieval

import "math"

// DecayParams parameterizes the recency score r = a/sqrt(x) + b*exp(-c*x) - d
// where x is days since purchase.
type DecayParams struct {
	A float64
	B float64
	C float64
	D float64
}

func DefaultDecayParams() DecayParams {
	return DecayParams{A: 1.0, B: 1.0, C: 0.1, D: 0.0}
}

// Score evaluates the decay curve. Days at or below zero are clamped to
// 0.01 to keep the inverse square root finite, and the result is floored
// at zero.
func (p DecayParams) Score(days float64) float64 {
	if days <= 0 {
		days = 0.01
	}

	score := p.A/math.Sqrt(days) + p.B*math.Exp(-p.C*days) - p.D
	if score < 0 {
		return 0
	}

	return score
}

package foryou

import (
	"math"
	"strings"

	"modaMarket/domain"
)

// stop words ignored when comparing product names
var stopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "but": {}, "in": {},
	"on": {}, "at": {}, "to": {}, "for": {}, "of": {}, "with": {}, "by": {},
	"from": {}, "as": {}, "is": {}, "was": {}, "are": {}, "were": {}, "be": {},
	"this": {}, "that": {}, "these": {}, "those": {},
}

// extractKeywords lowercases the name, splits on spaces, dashes and
// slashes, and keeps words longer than two characters that are not stop
// words.
func extractKeywords(name string) map[string]struct{} {
	replaced := strings.NewReplacer("-", " ", "/", " ").Replace(strings.ToLower(name))

	keywords := make(map[string]struct{})
	for _, w := range strings.Fields(replaced) {
		if len(w) <= 2 {
			continue
		}
		if _, stop := stopWords[w]; stop {
			continue
		}
		keywords[w] = struct{}{}
	}

	return keywords
}

// nameSimilarity is the Jaccard overlap of the two keyword sets scaled to
// [0, 5].
func nameSimilarity(name1, name2 string) float64 {
	k1 := extractKeywords(name1)
	k2 := extractKeywords(name2)
	if len(k1) == 0 || len(k2) == 0 {
		return 0
	}

	intersection := 0
	for w := range k1 {
		if _, ok := k2[w]; ok {
			intersection++
		}
	}
	union := len(k1) + len(k2) - intersection

	return float64(intersection) / float64(union) * nameWeight
}

const (
	nameWeight         = 5.0
	primaryColorWeight = 4.0
	categoryWeight     = 3.0
	colorOverlapWeight = 2.0
	priceWeight        = 1.5
	priceBand          = 0.2
)

// similarityScore grades how alike two products look on the shelf. Name
// overlap dominates, then primary color, category, shared colors and a
// price within the band.
func similarityScore(source, other domain.Product) float64 {
	score := nameSimilarity(source.Name, other.Name)

	if source.PrimaryColor != "" && other.PrimaryColor != "" &&
		strings.EqualFold(source.PrimaryColor, other.PrimaryColor) {
		score += primaryColorWeight
	}

	if source.ProductGroupName != "" && source.ProductGroupName == other.ProductGroupName {
		score += categoryWeight
	}

	sourceColors := source.ColorSet()
	for c := range other.ColorSet() {
		if _, ok := sourceColors[c]; ok {
			score += colorOverlapWeight
		}
	}

	if source.Price > 0 && other.Price > 0 {
		maxPrice := math.Max(source.Price, other.Price)
		if math.Abs(source.Price-other.Price)/maxPrice <= priceBand {
			score += priceWeight
		}
	}

	return score
}

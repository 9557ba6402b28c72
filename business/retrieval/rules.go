package retrieval

import "sort"

// recentItems scores the user's purchases inside the window with the time
// decay curve, keeping the best score per article. Days since purchase are
// whole days relative to the snapshot's max date.
func recentItems(idx *TxnIndex, userID uint, days int, decay DecayParams) map[string]float64 {
	cutoff := idx.MaxDate().AddDate(0, 0, -days)

	scores := make(map[string]float64)
	for _, t := range idx.UserTransactions(userID) {
		if t.PurchasedAt.Before(cutoff) {
			continue
		}

		daysSince := int(idx.MaxDate().Sub(t.PurchasedAt).Hours() / 24)
		s := decay.Score(float64(daysSince))
		if s > scores[t.ArticleID] {
			scores[t.ArticleID] = s
		}
	}

	return scores
}

// popularByAge counts purchases inside the window among users sharing the
// age bin, keeps the top k articles and normalizes counts by the maximum.
func popularByAge(idx *TxnIndex, ageBin string, k, windowDays int) map[string]float64 {
	cohort := idx.CohortUsers(ageBin)
	if len(cohort) == 0 {
		return nil
	}

	cutoff := idx.MaxDate().AddDate(0, 0, -windowDays)
	counts := make(map[string]int)
	for _, userID := range cohort {
		for _, t := range idx.UserTransactions(userID) {
			if !t.PurchasedAt.Before(cutoff) {
				counts[t.ArticleID]++
			}
		}
	}

	return normalizeTopCounts(counts, k)
}

// boughtTogether counts, over the whole snapshot, the other articles
// purchased by the buyers of the seed article, keeps the top k and
// normalizes counts by the maximum.
func boughtTogether(idx *TxnIndex, seedArticleID string, k int) map[string]float64 {
	buyers := idx.Buyers(seedArticleID)
	if len(buyers) == 0 {
		return nil
	}

	counts := make(map[string]int)
	for _, userID := range buyers {
		for _, t := range idx.UserTransactions(userID) {
			if t.ArticleID != seedArticleID {
				counts[t.ArticleID]++
			}
		}
	}

	return normalizeTopCounts(counts, k)
}

// normalizeTopCounts keeps the k highest counts (ties broken by article id
// for determinism) and divides by the maximum so scores land in (0, 1].
func normalizeTopCounts(counts map[string]int, k int) map[string]float64 {
	if len(counts) == 0 {
		return nil
	}

	type pair struct {
		article string
		count   int
	}
	pairs := make([]pair, 0, len(counts))
	for a, c := range counts {
		pairs = append(pairs, pair{a, c})
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].count != pairs[j].count {
			return pairs[i].count > pairs[j].count
		}
		return pairs[i].article < pairs[j].article
	})

	if len(pairs) > k {
		pairs = pairs[:k]
	}

	max := float64(pairs[0].count)
	scores := make(map[string]float64, len(pairs))
	for _, p := range pairs {
		scores[p.article] = float64(p.count) / max
	}

	return scores
}

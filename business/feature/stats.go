package feature

import (
	"time"

	"modaMarket/business/retrieval"
)

// itemStats holds per-article popularity and price aggregates for one
// snapshot, keyed by the snapshot's max date. Rebuilt copy-and-swap when
// the snapshot moves; readers always see a complete table.
type itemStats struct {
	asOf        time.Time
	pop7        map[string]int
	pop30       map[string]int
	priceMean30 map[string]float64
}

func (b *Builder) itemStats(idx *retrieval.TxnIndex) *itemStats {
	if cached := b.stats.Load(); cached != nil && cached.asOf.Equal(idx.MaxDate()) {
		return cached
	}

	stats := buildItemStats(idx, b.cfg.PopShortWindowDays, b.cfg.PopLongWindowDays)
	b.stats.Store(stats)

	return stats
}

// buildItemStats aggregates both windows in a single pass over the
// snapshot's transactions.
func buildItemStats(idx *retrieval.TxnIndex, shortDays, longDays int) *itemStats {
	maxDate := idx.MaxDate()
	cutoffShort := maxDate.AddDate(0, 0, -shortDays)
	cutoffLong := maxDate.AddDate(0, 0, -longDays)

	stats := &itemStats{
		asOf:        maxDate,
		pop7:        make(map[string]int),
		pop30:       make(map[string]int),
		priceMean30: make(map[string]float64),
	}

	priceSum := make(map[string]float64)
	for _, t := range idx.Transactions() {
		if t.PurchasedAt.Before(cutoffLong) {
			continue
		}
		stats.pop30[t.ArticleID]++
		priceSum[t.ArticleID] += t.Price
		if !t.PurchasedAt.Before(cutoffShort) {
			stats.pop7[t.ArticleID]++
		}
	}

	for article, sum := range priceSum {
		stats.priceMean30[article] = sum / float64(stats.pop30[article])
	}

	return stats
}

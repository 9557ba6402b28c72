package retrieval

import (
	"sort"
	"time"

	"modaMarket/domain"
)

// TxnIndex is an immutable snapshot of purchase history, pre-grouped by
// user and by article so the retrieval rules never scan the full log.
// Snapshots are swapped whole; a built index is never mutated.
type TxnIndex struct {
	txns          []domain.Transaction
	byUser        map[uint][]domain.Transaction // sorted by PurchasedAt ascending
	buyersByItem  map[string][]uint             // distinct buyer ids per article
	usersByAgeBin map[string][]uint
	ageBinByUser  map[uint]string
	maxDate       time.Time
}

// NewTxnIndex groups the given transactions and user roster. The users
// slice must cover every user the index will answer for; users without
// purchases are still registered so historyless lookups resolve.
func NewTxnIndex(txns []domain.Transaction, users []domain.User) *TxnIndex {
	idx := &TxnIndex{
		txns:          txns,
		byUser:        make(map[uint][]domain.Transaction),
		buyersByItem:  make(map[string][]uint),
		usersByAgeBin: make(map[string][]uint),
		ageBinByUser:  make(map[uint]string, len(users)),
	}

	for _, u := range users {
		idx.ageBinByUser[u.ID] = u.AgeBin
		if u.AgeBin != "" {
			idx.usersByAgeBin[u.AgeBin] = append(idx.usersByAgeBin[u.AgeBin], u.ID)
		}
	}

	seenBuyer := make(map[string]map[uint]struct{})
	for _, t := range txns {
		idx.byUser[t.UserID] = append(idx.byUser[t.UserID], t)

		if seenBuyer[t.ArticleID] == nil {
			seenBuyer[t.ArticleID] = make(map[uint]struct{})
		}
		if _, ok := seenBuyer[t.ArticleID][t.UserID]; !ok {
			seenBuyer[t.ArticleID][t.UserID] = struct{}{}
			idx.buyersByItem[t.ArticleID] = append(idx.buyersByItem[t.ArticleID], t.UserID)
		}

		if t.PurchasedAt.After(idx.maxDate) {
			idx.maxDate = t.PurchasedAt
		}
	}

	for _, userTxns := range idx.byUser {
		sort.Slice(userTxns, func(i, j int) bool {
			return userTxns[i].PurchasedAt.Before(userTxns[j].PurchasedAt)
		})
	}

	return idx
}

// MaxDate is the reference date for every recency window in the snapshot.
func (idx *TxnIndex) MaxDate() time.Time {
	return idx.maxDate
}

func (idx *TxnIndex) Transactions() []domain.Transaction {
	return idx.txns
}

// UserTransactions returns the user's purchases oldest first.
func (idx *TxnIndex) UserTransactions(userID uint) []domain.Transaction {
	return idx.byUser[userID]
}

// KnownUser reports whether the user was in the roster at snapshot time.
func (idx *TxnIndex) KnownUser(userID uint) bool {
	_, ok := idx.ageBinByUser[userID]
	return ok
}

func (idx *TxnIndex) UserAgeBin(userID uint) string {
	return idx.ageBinByUser[userID]
}

func (idx *TxnIndex) CohortUsers(ageBin string) []uint {
	return idx.usersByAgeBin[ageBin]
}

// Buyers returns the distinct users who purchased the article.
func (idx *TxnIndex) Buyers(articleID string) []uint {
	return idx.buyersByItem[articleID]
}

// ActiveUsers returns the ids of users with at least one purchase in the
// snapshot, in ascending order for determinism.
func (idx *TxnIndex) ActiveUsers() []uint {
	ids := make([]uint, 0, len(idx.byUser))
	for id := range idx.byUser {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	return ids
}

// RecentArticles returns the user's distinct articles purchased within
// the window, most recent first.
func (idx *TxnIndex) RecentArticles(userID uint, days int) []string {
	cutoff := idx.maxDate.AddDate(0, 0, -days)
	userTxns := idx.byUser[userID]

	seen := make(map[string]struct{})
	var articles []string
	for i := len(userTxns) - 1; i >= 0; i-- {
		t := userTxns[i]
		if t.PurchasedAt.Before(cutoff) {
			break
		}
		if _, ok := seen[t.ArticleID]; ok {
			continue
		}
		seen[t.ArticleID] = struct{}{}
		articles = append(articles, t.ArticleID)
	}

	return articles
}

package retrieval

import (
	"context"
	"time"

	"modaMarket/domain"
)

type Config struct {
	RecentDaysShort int
	RecentDaysLong  int

	PopularK          int
	PopularWindowDays int

	BoughtTogetherK     int
	BoughtTogetherSeeds int

	// blend weights; renormalized per user over the rules that fired
	WeightRecentShort    float64
	WeightRecentLong     float64
	WeightBoughtTogether float64
	WeightPopularAge     float64

	Decay DecayParams

	TopN               int
	SnapshotWindowDays int
	PopularityCacheTTL time.Duration
}

const (
	defaultRecentDaysShort      = 3
	defaultRecentDaysLong       = 7
	defaultPopularK             = 200
	defaultPopularWindowDays    = 7
	defaultBoughtTogetherK      = 50
	defaultBoughtTogetherSeeds  = 10
	defaultWeightRecentShort    = 0.4
	defaultWeightRecentLong     = 0.2
	defaultWeightBoughtTogether = 0.3
	defaultWeightPopularAge     = 0.3
	defaultTopN                 = 500
	defaultSnapshotWindowDays   = 90
	defaultPopularityCacheTTL   = 1 * time.Hour
)

func DefaultConfig() Config {
	return Config{
		RecentDaysShort: defaultRecentDaysShort,
		RecentDaysLong:  defaultRecentDaysLong,

		PopularK:          defaultPopularK,
		PopularWindowDays: defaultPopularWindowDays,

		BoughtTogetherK:     defaultBoughtTogetherK,
		BoughtTogetherSeeds: defaultBoughtTogetherSeeds,

		WeightRecentShort:    defaultWeightRecentShort,
		WeightRecentLong:     defaultWeightRecentLong,
		WeightBoughtTogether: defaultWeightBoughtTogether,
		WeightPopularAge:     defaultWeightPopularAge,

		Decay: DefaultDecayParams(),

		TopN:               defaultTopN,
		SnapshotWindowDays: defaultSnapshotWindowDays,
		PopularityCacheTTL: defaultPopularityCacheTTL,
	}
}

// load the purchase history and user roster for index snapshots.
type TransactionRepository interface {
	FindWindow(ctx context.Context, from, to time.Time) ([]domain.Transaction, error)
}

type UserRepository interface {
	FindAll(ctx context.Context) ([]domain.User, error)
}

// PopularityCache stores cohort popularity per (age bin, window). A miss
// is (nil, nil). Backed by redis in the server and by an in-memory fake
// in tests and the trainer.
type PopularityCache interface {
	Get(ctx context.Context, ageBin string, windowDays int) (map[string]float64, error)
	Set(ctx context.Context, ageBin string, windowDays int, scores map[string]float64, ttl time.Duration) error
}

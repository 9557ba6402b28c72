package training

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"modaMarket/domain"
	"modaMarket/pkg/logger"

	"github.com/google/uuid"
)

type Config struct {
	NegPosRatio  float64
	ValFraction  float64
	MinPositives int
	Seed         int64
	TopN         int
}

const (
	defaultNegPosRatio  = 4.0
	defaultValFraction  = 0.1
	defaultMinPositives = 10
	defaultSeed         = 42
	defaultTopN         = 500
)

func DefaultConfig() Config {
	return Config{
		NegPosRatio:  defaultNegPosRatio,
		ValFraction:  defaultValFraction,
		MinPositives: defaultMinPositives,
		Seed:         defaultSeed,
		TopN:         defaultTopN,
	}
}

// candidate and feature generation, computed against the train window index.
type CandidateSource interface {
	CandidatesForUser(ctx context.Context, userID uint, topN int) ([]domain.Candidate, error)
}

type FeatureSource interface {
	BuildForCandidates(ctx context.Context, userID uint, candidates []domain.Candidate) ([]domain.FeatureVector, error)
}

// RunMeta records everything needed to reproduce or audit one dataset build.
type RunMeta struct {
	RunID             string    `json:"run_id"`
	Windows           Windows   `json:"windows"`
	Users             int       `json:"users"`
	Positives         int       `json:"positives"`
	NegativesBefore   int       `json:"negatives_before_sampling"`
	NegativesAfter    int       `json:"negatives_after_sampling"`
	ZeroNegativeUsers int       `json:"zero_negative_users"`
	NegPosRatio       float64   `json:"neg_pos_ratio"`
	ValFraction       float64   `json:"val_fraction"`
	Seed              int64     `json:"seed"`
	CreatedAt         time.Time `json:"created_at"`
}

type Dataset struct {
	Train []domain.LabeledPair
	Val   []domain.LabeledPair
	Meta  RunMeta
}

// Constructor assembles labeled train/val sets from candidates generated
// against the train window. The caller is responsible for pointing the
// candidate and feature sources at an index truncated to the train window
// end; handing them the serving index would leak target purchases into
// the features.
type Constructor struct {
	cfg        Config
	candidates CandidateSource
	features   FeatureSource
}

func NewConstructor(cfg Config, candidates CandidateSource, features FeatureSource) *Constructor {
	return &Constructor{
		cfg:        cfg,
		candidates: candidates,
		features:   features,
	}
}

// PositivesFromTransactions collects the (user, article) pairs purchased
// inside the target window.
func PositivesFromTransactions(txns []domain.Transaction, w Windows) map[uint]map[string]struct{} {
	positives := make(map[uint]map[string]struct{})
	for _, t := range txns {
		if t.PurchasedAt.Before(w.TargetStart) || t.PurchasedAt.After(w.TargetEnd) {
			continue
		}
		if positives[t.UserID] == nil {
			positives[t.UserID] = make(map[string]struct{})
		}
		positives[t.UserID][t.ArticleID] = struct{}{}
	}

	return positives
}

// Build generates candidates and features for every given user, labels
// them against the target-window purchases, downsamples negatives and
// splits train/val stratified by label.
func (c *Constructor) Build(ctx context.Context, userIDs []uint, positives map[uint]map[string]struct{}, w Windows) (*Dataset, error) {
	rng := rand.New(rand.NewSource(c.cfg.Seed))

	var pairs []domain.LabeledPair
	for _, userID := range userIDs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		candidates, err := c.candidates.CandidatesForUser(ctx, userID, c.cfg.TopN)
		if err != nil {
			return nil, fmt.Errorf("candidates for user %d: %w", userID, err)
		}
		if len(candidates) == 0 {
			continue
		}

		vectors, err := c.features.BuildForCandidates(ctx, userID, candidates)
		if err != nil {
			return nil, fmt.Errorf("features for user %d: %w", userID, err)
		}

		for _, fv := range vectors {
			label := 0
			if _, ok := positives[userID][fv.ArticleID]; ok {
				label = 1
			}
			pairs = append(pairs, domain.LabeledPair{FeatureVector: fv, Label: label})
		}
	}

	nPos := 0
	for _, p := range pairs {
		nPos += p.Label
	}
	if nPos < c.cfg.MinPositives {
		return nil, fmt.Errorf("%w: %d positives (need %d) for %s",
			domain.ErrInsufficientPositives, nPos, c.cfg.MinPositives, w)
	}

	sampled, zeroNegUsers := sampleNegatives(pairs, c.cfg.NegPosRatio, rng)
	if zeroNegUsers > 0 {
		logger.Warn("users with positives but no negatives", "count", zeroNegUsers)
	}

	train, val := splitStratified(sampled, c.cfg.ValFraction, rng)

	meta := RunMeta{
		RunID:             uuid.NewString(),
		Windows:           w,
		Users:             len(userIDs),
		Positives:         nPos,
		NegativesBefore:   len(pairs) - nPos,
		NegativesAfter:    len(sampled) - nPos,
		ZeroNegativeUsers: zeroNegUsers,
		NegPosRatio:       c.cfg.NegPosRatio,
		ValFraction:       c.cfg.ValFraction,
		Seed:              c.cfg.Seed,
		CreatedAt:         time.Now(),
	}

	logger.Info("training dataset built",
		"run_id", meta.RunID,
		"train", len(train),
		"val", len(val),
		"positives", meta.Positives,
		"negatives", meta.NegativesAfter)

	return &Dataset{Train: train, Val: val, Meta: meta}, nil
}

// sampleNegatives downsamples negatives to the target ratio, proportional
// to each user's share of the negative pool. Every positive is kept. The
// second return value counts users that contributed positives but no
// negatives at all.
func sampleNegatives(pairs []domain.LabeledPair, ratio float64, rng *rand.Rand) ([]domain.LabeledPair, int) {
	var positives, negatives []domain.LabeledPair
	for _, p := range pairs {
		if p.Label == 1 {
			positives = append(positives, p)
		} else {
			negatives = append(negatives, p)
		}
	}

	negByUser := make(map[uint][]domain.LabeledPair)
	for _, n := range negatives {
		negByUser[n.UserID] = append(negByUser[n.UserID], n)
	}

	zeroNegUsers := 0
	posUsers := make(map[uint]struct{})
	for _, p := range positives {
		posUsers[p.UserID] = struct{}{}
	}
	for u := range posUsers {
		if len(negByUser[u]) == 0 {
			zeroNegUsers++
		}
	}

	target := int(float64(len(positives)) * ratio)
	if target >= len(negatives) {
		out := append(append([]domain.LabeledPair{}, positives...), negatives...)
		shuffle(out, rng)
		return out, zeroNegUsers
	}

	userIDs := make([]uint, 0, len(negByUser))
	for u := range negByUser {
		userIDs = append(userIDs, u)
	}
	sort.Slice(userIDs, func(i, j int) bool { return userIDs[i] < userIDs[j] })

	out := append([]domain.LabeledPair{}, positives...)
	for _, u := range userIDs {
		userNegs := negByUser[u]
		n := int(float64(len(userNegs))/float64(len(negatives))*float64(target) + 0.5)
		if n >= len(userNegs) {
			out = append(out, userNegs...)
			continue
		}

		perm := rng.Perm(len(userNegs))
		for _, i := range perm[:n] {
			out = append(out, userNegs[i])
		}
	}

	shuffle(out, rng)
	return out, zeroNegUsers
}

// splitStratified holds out valFraction of positives and negatives
// separately so both splits keep the class balance.
func splitStratified(pairs []domain.LabeledPair, valFraction float64, rng *rand.Rand) (train, val []domain.LabeledPair) {
	var positives, negatives []domain.LabeledPair
	for _, p := range pairs {
		if p.Label == 1 {
			positives = append(positives, p)
		} else {
			negatives = append(negatives, p)
		}
	}

	splitClass := func(class []domain.LabeledPair) (tr, va []domain.LabeledPair) {
		perm := rng.Perm(len(class))
		nVal := int(float64(len(class)) * valFraction)
		for i, idx := range perm {
			if i < nVal {
				va = append(va, class[idx])
			} else {
				tr = append(tr, class[idx])
			}
		}
		return tr, va
	}

	trPos, vaPos := splitClass(positives)
	trNeg, vaNeg := splitClass(negatives)

	train = append(trPos, trNeg...)
	val = append(vaPos, vaNeg...)
	shuffle(train, rng)
	shuffle(val, rng)

	return train, val
}

func shuffle(pairs []domain.LabeledPair, rng *rand.Rand) {
	rng.Shuffle(len(pairs), func(i, j int) {
		pairs[i], pairs[j] = pairs[j], pairs[i]
	})
}

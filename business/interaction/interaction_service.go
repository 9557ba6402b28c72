package interaction

import (
	"context"
	"fmt"
	"time"

	"modaMarket/domain"
)

// Event types accepted from clients. Impressions are recorded server-side
// by the recommendation service, never posted directly.
var clientEventTypes = map[string]struct{}{
	domain.EventView:      {},
	domain.EventClick:     {},
	domain.EventAddToCart: {},
}

type InteractionRepository interface {
	Create(ctx context.Context, event *domain.UserInteraction) error
	FindByUserSince(ctx context.Context, userID uint, since time.Time) ([]domain.UserInteraction, error)
}

type interactionService struct {
	repo InteractionRepository
}

func NewInteractionService(repo InteractionRepository) *interactionService {
	return &interactionService{
		repo: repo,
	}
}

func (s *interactionService) Record(ctx context.Context, event *domain.UserInteraction) error {
	if event.ArticleID == "" {
		return fmt.Errorf("%w: article id is required", domain.ErrBadParamInput)
	}
	if _, ok := clientEventTypes[event.EventType]; !ok {
		return fmt.Errorf("%w: unknown event type %q", domain.ErrBadParamInput, event.EventType)
	}

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	return s.repo.Create(ctx, event)
}

func (s *interactionService) RecentByUser(ctx context.Context, userID uint, window time.Duration) ([]domain.UserInteraction, error) {
	return s.repo.FindByUserSince(ctx, userID, time.Now().Add(-window))
}

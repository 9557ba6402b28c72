package rest

import (
	"context"
	"net/http"

	"modaMarket/domain"
	"modaMarket/pkg/logger"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type RecommendService interface {
	Recommend(ctx context.Context, userID uint, k int) (domain.RecommendResult, error)
	ReloadIfNewer() (bool, error)
	ModelLoaded() bool
}

type ForYouService interface {
	ForYou(ctx context.Context, userID uint) ([]domain.ForYouItem, error)
}

// SnapshotInfo reports whether the in-memory transaction snapshot is ready.
type SnapshotInfo interface {
	SnapshotReady() bool
}

type RecommendHandler struct {
	recommendService RecommendService
	forYouService    ForYouService
	snapshot         SnapshotInfo
	validate         *validator.Validate
}

func NewRecommendHandler(recommendService RecommendService, forYouService ForYouService, snapshot SnapshotInfo) *RecommendHandler {
	return &RecommendHandler{
		recommendService: recommendService,
		forYouService:    forYouService,
		snapshot:         snapshot,
		validate:         validator.New(),
	}
}

type RecommendationsQuery struct {
	K int `query:"k" validate:"omitempty,min=1,max=100"`
}

// GET /api/v1/recommendations?k=20
func (h *RecommendHandler) Recommendations(c echo.Context) error {
	userID, ok := c.Get("user_id").(uint)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ResponseError{Message: "unauthorized"})
	}

	var q RecommendationsQuery
	if err := c.Bind(&q); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validate.Struct(&q); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	result, err := h.recommendService.Recommend(c.Request().Context(), userID, q.K)
	if err != nil {
		logger.Error("failed to build recommendations", "user_id", userID, "error", err)
		return c.JSON(errorStatus(err), ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(result))
}

// GET /api/v1/recommendations/health
func (h *RecommendHandler) Health(c echo.Context) error {
	status := map[string]interface{}{
		"model_loaded":   h.recommendService.ModelLoaded(),
		"snapshot_ready": h.snapshot.SnapshotReady(),
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(status))
}

// POST /api/v1/admin/recommendations/reload swaps in a newer model artifact
// without a restart.
func (h *RecommendHandler) Reload(c echo.Context) error {
	swapped, err := h.recommendService.ReloadIfNewer()
	if err != nil {
		logger.Error("model reload failed", "error", err)
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(map[string]interface{}{
		"reloaded": swapped,
	}))
}

// GET /api/v1/foryou
func (h *RecommendHandler) ForYou(c echo.Context) error {
	userID, ok := c.Get("user_id").(uint)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ResponseError{Message: "unauthorized"})
	}

	items, err := h.forYouService.ForYou(c.Request().Context(), userID)
	if err != nil {
		logger.Error("failed to build for-you shelf", "user_id", userID, "error", err)
		return c.JSON(errorStatus(err), ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(items))
}

package rest

import (
	"context"
	"net/http"

	"modaMarket/domain"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"gorm.io/datatypes"
)

type InteractionService interface {
	Record(ctx context.Context, event *domain.UserInteraction) error
}

type InteractionHandler struct {
	interactionService InteractionService
	validator          *validator.Validate
}

func NewInteractionHandler(interactionService InteractionService) *InteractionHandler {
	return &InteractionHandler{
		interactionService: interactionService,
		validator:          validator.New(),
	}
}

type InteractionRequest struct {
	ArticleID string                 `json:"article_id" validate:"required"`
	EventType string                 `json:"event_type" validate:"required,oneof=view click add_to_cart"`
	Value     float64                `json:"value,omitempty"`
	Context   map[string]interface{} `json:"context,omitempty"`
}

func (h *InteractionHandler) Record(c echo.Context) error {
	userID, ok := c.Get("user_id").(uint)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ResponseError{Message: "unauthorized"})
	}

	var req InteractionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validator.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	event := domain.UserInteraction{
		UserID:    userID,
		ArticleID: req.ArticleID,
		EventType: req.EventType,
		Value:     req.Value,
		Context:   datatypes.JSONMap(req.Context),
	}

	if err := h.interactionService.Record(c.Request().Context(), &event); err != nil {
		return c.JSON(errorStatus(err), ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusCreated, fres.Response.StatusCreated("event recorded"))
}

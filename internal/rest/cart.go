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

type CartService interface {
	AddToCart(ctx context.Context, userID uint, articleID string, qty int) error
	GetCart(ctx context.Context, userID uint) ([]domain.CartItem, error)
	RemoveFromCart(ctx context.Context, userID uint, articleID string) error
	AddToWishlist(ctx context.Context, userID uint, articleID string) error
	GetWishlist(ctx context.Context, userID uint) ([]domain.WishlistItem, error)
	RemoveFromWishlist(ctx context.Context, userID uint, articleID string) error
}

type CartHandler struct {
	cartService CartService
	validator   *validator.Validate
}

func NewCartHandler(cartService CartService) *CartHandler {
	return &CartHandler{
		cartService: cartService,
		validator:   validator.New(),
	}
}

type CartAddRequest struct {
	ArticleID string `json:"article_id" validate:"required"`
	Qty       int    `json:"qty" validate:"omitempty,min=1"`
}

type WishlistAddRequest struct {
	ArticleID string `json:"article_id" validate:"required"`
}

func (h *CartHandler) AddToCart(c echo.Context) error {
	userID, ok := c.Get("user_id").(uint)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ResponseError{Message: "unauthorized"})
	}

	var req CartAddRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validator.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if req.Qty == 0 {
		req.Qty = 1
	}

	if err := h.cartService.AddToCart(c.Request().Context(), userID, req.ArticleID, req.Qty); err != nil {
		logger.Error("failed to add to cart", "user_id", userID, "article_id", req.ArticleID, "error", err)
		return c.JSON(errorStatus(err), ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusCreated, fres.Response.StatusCreated("added to cart"))
}

func (h *CartHandler) GetCart(c echo.Context) error {
	userID, ok := c.Get("user_id").(uint)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ResponseError{Message: "unauthorized"})
	}

	items, err := h.cartService.GetCart(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(errorStatus(err), ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(items))
}

func (h *CartHandler) RemoveFromCart(c echo.Context) error {
	userID, ok := c.Get("user_id").(uint)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ResponseError{Message: "unauthorized"})
	}

	if err := h.cartService.RemoveFromCart(c.Request().Context(), userID, c.Param("article_id")); err != nil {
		return c.JSON(errorStatus(err), ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK("removed from cart"))
}

func (h *CartHandler) AddToWishlist(c echo.Context) error {
	userID, ok := c.Get("user_id").(uint)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ResponseError{Message: "unauthorized"})
	}

	var req WishlistAddRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	if err := h.validator.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	if err := h.cartService.AddToWishlist(c.Request().Context(), userID, req.ArticleID); err != nil {
		logger.Error("failed to add to wishlist", "user_id", userID, "article_id", req.ArticleID, "error", err)
		return c.JSON(errorStatus(err), ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusCreated, fres.Response.StatusCreated("added to wishlist"))
}

func (h *CartHandler) GetWishlist(c echo.Context) error {
	userID, ok := c.Get("user_id").(uint)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ResponseError{Message: "unauthorized"})
	}

	items, err := h.cartService.GetWishlist(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(errorStatus(err), ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(items))
}

func (h *CartHandler) RemoveFromWishlist(c echo.Context) error {
	userID, ok := c.Get("user_id").(uint)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ResponseError{Message: "unauthorized"})
	}

	if err := h.cartService.RemoveFromWishlist(c.Request().Context(), userID, c.Param("article_id")); err != nil {
		return c.JSON(errorStatus(err), ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK("removed from wishlist"))
}

package rest

import (
	"context"
	"fmt"
	"net/http"

	"modaMarket/domain"
	"modaMarket/pkg/logger"

	"github.com/AMFarhan21/fres"
	"github.com/labstack/echo/v4"
)

type OrdersService interface {
	Checkout(ctx context.Context, userID uint, clientOrderID string) (domain.Order, error)
	GetOrder(ctx context.Context, userID, orderID uint) (domain.Order, error)
	GetUserOrders(ctx context.Context, userID uint) ([]domain.Order, error)
}

type OrdersHandler struct {
	ordersService OrdersService
}

func NewOrdersHandler(ordersService OrdersService) *OrdersHandler {
	return &OrdersHandler{
		ordersService: ordersService,
	}
}

type CheckoutRequest struct {
	ClientOrderID string `json:"client_order_id,omitempty"`
}

func (h *OrdersHandler) Checkout(c echo.Context) error {
	userID, ok := c.Get("user_id").(uint)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ResponseError{Message: "unauthorized"})
	}

	var req CheckoutRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	order, err := h.ordersService.Checkout(c.Request().Context(), userID, req.ClientOrderID)
	if err != nil {
		logger.Error("checkout failed", "user_id", userID, "error", err)
		return c.JSON(errorStatus(err), ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusCreated, fres.Response.StatusCreated(order))
}

func (h *OrdersHandler) GetOrder(c echo.Context) error {
	userID, ok := c.Get("user_id").(uint)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ResponseError{Message: "unauthorized"})
	}

	var orderID uint
	if _, err := fmt.Sscan(c.Param("id"), &orderID); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: "invalid order id"})
	}

	order, err := h.ordersService.GetOrder(c.Request().Context(), userID, orderID)
	if err != nil {
		return c.JSON(errorStatus(err), ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(order))
}

func (h *OrdersHandler) GetUserOrders(c echo.Context) error {
	userID, ok := c.Get("user_id").(uint)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ResponseError{Message: "unauthorized"})
	}

	orders, err := h.ordersService.GetUserOrders(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(errorStatus(err), ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(orders))
}

package rest

import (
	"context"
	"net/http"

	"modaMarket/domain"

	"github.com/AMFarhan21/fres"
	"github.com/labstack/echo/v4"
)

type ProductService interface {
	GetAllProducts(ctx context.Context, limit, offset int) ([]domain.Product, error)
	GetProductByID(ctx context.Context, articleID string) (domain.Product, error)
}

type ProductHandler struct {
	productService ProductService
}

func NewProductHandler(productService ProductService) *ProductHandler {
	return &ProductHandler{
		productService: productService,
	}
}

type ProductListQuery struct {
	Limit  int `query:"limit"`
	Offset int `query:"offset"`
}

func (h *ProductHandler) GetAllProducts(c echo.Context) error {
	var q ProductListQuery
	if err := c.Bind(&q); err != nil {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	products, err := h.productService.GetAllProducts(c.Request().Context(), q.Limit, q.Offset)
	if err != nil {
		return c.JSON(errorStatus(err), ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(products))
}

func (h *ProductHandler) GetProductByID(c echo.Context) error {
	product, err := h.productService.GetProductByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return c.JSON(errorStatus(err), ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(product))
}

package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Esraa-27/flash-sale-api/internal/repository"
	"github.com/Esraa-27/flash-sale-api/internal/service"
)

// ProductHandler serves GET /api/products/{id} (spec §6).
type ProductHandler struct {
	products *repository.ProductRepo
	stock    *service.StockView
}

// NewProductHandler builds a ProductHandler.
func NewProductHandler(products *repository.ProductRepo, stock *service.StockView) *ProductHandler {
	return &ProductHandler{products: products, stock: stock}
}

// Show returns a product's catalog data plus its current available stock.
func (h *ProductHandler) Show(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return WriteError(c, service.BadRequest("invalid product id"))
	}

	product, err := h.products.GetByID(c.Request().Context(), id)
	if err != nil {
		if err == repository.ErrNotFound {
			return WriteError(c, service.NotFound("product not found"))
		}
		return WriteError(c, err)
	}

	available, err := h.stock.Available(c.Request().Context(), id)
	if err != nil {
		return WriteError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"id":              product.ID,
		"name":            product.Name,
		"price":           product.Price.String(),
		"total_stock":     product.Stock,
		"available_stock": available,
	})
}

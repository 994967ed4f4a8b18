package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"bizdesk-service/internal/model"
	"bizdesk-service/internal/schema"
	"bizdesk-service/internal/storage"
	"bizdesk-service/pkg/logger"
	"bizdesk-service/prometheus"
)

// ProductHandler serves /api/products, including the batch and low-stock
// routes.
type ProductHandler struct {
	resource[model.Product]
	store storage.ProductStore
}

func NewProductHandler(store storage.ProductStore, m *prometheus.Metrics) *ProductHandler {
	return &ProductHandler{
		resource: resource[model.Product]{
			entity:  "product",
			metrics: m,
			list:    store.ListProducts,
			get:     store.GetProduct,
			create:  store.CreateProduct,
			update:  store.UpdateProduct,
			remove:  store.DeleteProduct,
			insert:  schema.ProductInsert,
			patch:   schema.ProductPatch,
		},
		store: store,
	}
}

// Import creates every row of {products: [...]} or none of them.
func (h *ProductHandler) Import(c echo.Context) error {
	log := logger.FromEcho(c)

	raw, err := bindRaw(c)
	if err != nil {
		return respondError(c, err)
	}
	products, err := schema.ProductImport(raw)
	if err != nil {
		return respondError(c, err)
	}

	created, err := h.store.CreateProducts(c.Request().Context(), products)
	if err != nil {
		return respondError(c, err)
	}

	h.metrics.RecordEntityOperation("product", "import")
	log.Info("Products imported", zap.Int("count", len(created)))
	return c.JSON(http.StatusCreated, created)
}

// BatchUpdate applies {ids, updates} to every listed product.
func (h *ProductHandler) BatchUpdate(c echo.Context) error {
	raw, err := bindRaw(c)
	if err != nil {
		return respondError(c, err)
	}
	req, err := schema.ProductBatchUpdate(raw)
	if err != nil {
		return respondError(c, err)
	}

	rows, err := h.store.UpdateProducts(c.Request().Context(), req.IDs, req.Patch)
	if err != nil {
		return respondError(c, err)
	}

	h.metrics.RecordEntityOperation("product", "batch_update")
	logger.FromEcho(c).Info("Products updated", zap.Int("count", len(rows)))
	return c.JSON(http.StatusOK, rows)
}

// BatchDelete removes every product in {ids}.
func (h *ProductHandler) BatchDelete(c echo.Context) error {
	raw, err := bindRaw(c)
	if err != nil {
		return respondError(c, err)
	}
	ids, err := schema.IDList(raw)
	if err != nil {
		return respondError(c, err)
	}

	if err := h.store.DeleteProducts(c.Request().Context(), ids); err != nil {
		return respondError(c, err)
	}

	h.metrics.RecordEntityOperation("product", "batch_delete")
	logger.FromEcho(c).Info("Products deleted", zap.Int("count", len(ids)))
	return c.NoContent(http.StatusNoContent)
}

// LowStock lists products at or below their minimum stock level.
func (h *ProductHandler) LowStock(c echo.Context) error {
	rows, err := h.store.ListLowStockProducts(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	h.metrics.SetLowStock(len(rows))
	return c.JSON(http.StatusOK, rows)
}

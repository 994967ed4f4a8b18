package handler

import (
	"context"
	"net/http"
	"strconv"
	"testing"

	"github.com/labstack/echo/v4"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bizdesk-service/internal/model"
	"bizdesk-service/internal/storage"
	"bizdesk-service/prometheus"
)

func newProductAPI(t *testing.T) (*echo.Echo, storage.Store, *prometheus.Metrics) {
	t.Helper()
	s := newTestStore(t)
	m := prometheus.NewMetrics("test", prom.NewRegistry())
	h := NewProductHandler(s, m)

	e := echo.New()
	g := e.Group("/api/products")
	g.GET("", h.List)
	g.POST("", h.Create)
	g.GET("/low-stock", h.LowStock)
	g.POST("/import", h.Import)
	g.PATCH("/batch", h.BatchUpdate)
	g.DELETE("/batch", h.BatchDelete)
	g.GET("/:id", h.Get)
	g.PATCH("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
	return e, s, m
}

func createProduct(t *testing.T, e *echo.Echo, rateID uint, sku string) model.Product {
	t.Helper()
	rec := do(e, http.MethodPost, "/api/products",
		`{"name":"Item `+sku+`","sku":"`+sku+`","price":"1.00","vatRateId":`+strconv.Itoa(int(rateID))+`,"stockLevel":30,"minStockLevel":5}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeBody[model.Product](t, rec)
}

func TestCreateProductScenario(t *testing.T) {
	e, s, m := newProductAPI(t)
	rate := seedVatRate(t, s)
	require.Equal(t, uint(1), rate.ID)

	rec := do(e, http.MethodPost, "/api/products",
		`{"name":"Widget","sku":"W-1","price":"10.00","vatRateId":1,"stockLevel":5,"minStockLevel":10}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	created := decodeBody[map[string]any](t, rec)
	assert.NotZero(t, created["id"])
	assert.Equal(t, "Widget", created["name"])
	assert.Equal(t, "W-1", created["sku"])
	assert.Equal(t, "10.00", created["price"])
	assert.Equal(t, 1.0, created["vatRateId"])
	assert.Equal(t, 5.0, created["stockLevel"])
	assert.Equal(t, 10.0, created["minStockLevel"])
	assert.Equal(t, "pcs", created["unit"])
	assert.Equal(t, true, created["lowStock"])

	rec = do(e, http.MethodGet, "/api/products", "")
	require.Equal(t, http.StatusOK, rec.Code)
	all := decodeBody[[]model.Product](t, rec)
	require.Len(t, all, 1)
	assert.Equal(t, "W-1", all[0].SKU)
	assert.True(t, all[0].LowStock)

	rec = do(e, http.MethodGet, "/api/products/low-stock", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]model.Product](t, rec), 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LowStockGauge))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EntityOperationsCounter.WithLabelValues("product", "create")))
}

func TestCreateProductValidationAndConflict(t *testing.T) {
	e, s, _ := newProductAPI(t)
	seedVatRate(t, s)

	rec := do(e, http.MethodPost, "/api/products", `{"sku":"W-1","price":"abc","vatRateId":1}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody[map[string]any](t, rec)
	assert.Equal(t, "validation failed", body["message"])
	assert.Len(t, body["errors"], 2)

	createProduct(t, e, 1, "W-1")
	rec = do(e, http.MethodPost, "/api/products", `{"name":"Dup","sku":"W-1","price":"1","vatRateId":1}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.JSONEq(t, `{"message":"already exists"}`, rec.Body.String())

	rec = do(e, http.MethodPost, "/api/products", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProductUpdateAndDelete(t *testing.T) {
	e, s, _ := newProductAPI(t)
	seedVatRate(t, s)
	p := createProduct(t, e, 1, "W-1")
	path := "/api/products/" + strconv.Itoa(int(p.ID))

	rec := do(e, http.MethodPatch, path, `{"price":12.5,"id":99,"lowStock":true}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	got := decodeBody[model.Product](t, rec)
	assert.Equal(t, p.ID, got.ID)
	assert.Equal(t, "12.50", got.Price.String())
	assert.False(t, got.LowStock)

	assert.Equal(t, http.StatusNotFound, do(e, http.MethodPatch, "/api/products/999", `{"name":"ghost"}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(e, http.MethodGet, "/api/products/abc", "").Code)

	assert.Equal(t, http.StatusNoContent, do(e, http.MethodDelete, path, "").Code)
	rec = do(e, http.MethodDelete, path, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"message":"not found"}`, rec.Body.String())
	assert.Equal(t, http.StatusNotFound, do(e, http.MethodGet, path, "").Code)
}

func TestProductBatchUpdateScenario(t *testing.T) {
	e, s, _ := newProductAPI(t)
	seedVatRate(t, s)
	p1 := createProduct(t, e, 1, "P-1")
	p2 := createProduct(t, e, 1, "P-2")
	p3 := createProduct(t, e, 1, "P-3")

	rec := do(e, http.MethodPatch, "/api/products/batch",
		`{"ids":[`+strconv.Itoa(int(p1.ID))+`,`+strconv.Itoa(int(p2.ID))+`],"updates":{"minStockLevel":20}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rows := decodeBody[[]model.Product](t, rec)
	require.Len(t, rows, 2)

	for _, id := range []uint{p1.ID, p2.ID} {
		got, err := s.GetProduct(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, 20, got.MinStockLevel)
	}
	got, err := s.GetProduct(context.Background(), p3.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, got.MinStockLevel)

	assert.Equal(t, http.StatusBadRequest, do(e, http.MethodPatch, "/api/products/batch", `{"ids":[],"updates":{"minStockLevel":1}}`).Code)
	assert.Equal(t, http.StatusNotFound, do(e, http.MethodPatch, "/api/products/batch", `{"ids":[999],"updates":{"minStockLevel":1}}`).Code)
}

func TestProductBatchDeleteScenario(t *testing.T) {
	e, s, _ := newProductAPI(t)
	seedVatRate(t, s)
	p1 := createProduct(t, e, 1, "P-1")
	createProduct(t, e, 1, "P-2")

	rec := do(e, http.MethodDelete, "/api/products/batch", `{"ids":[]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	all, err := s.ListProducts(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 2)

	rec = do(e, http.MethodDelete, "/api/products/batch", `{"ids":[`+strconv.Itoa(int(p1.ID))+`,404]}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	all, err = s.ListProducts(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 2)

	rec = do(e, http.MethodDelete, "/api/products/batch", `{"ids":[`+strconv.Itoa(int(p1.ID))+`]}`)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	all, err = s.ListProducts(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestProductImport(t *testing.T) {
	e, s, _ := newProductAPI(t)
	seedVatRate(t, s)

	rec := do(e, http.MethodPost, "/api/products/import", `{"products":{"name":"x"}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(e, http.MethodPost, "/api/products/import", `{"products":[
		{"name":"A","sku":"A-1","price":"1","vatRateId":1},
		{"name":"B","price":"2","vatRateId":1},
		{"name":"C","sku":"C-1","price":"x","vatRateId":1}
	]}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody[struct {
		Message string `json:"message"`
		Rows    []struct {
			Index int `json:"index"`
		} `json:"rows"`
	}](t, rec)
	require.Len(t, body.Rows, 2)
	assert.Equal(t, 1, body.Rows[0].Index)
	assert.Equal(t, 2, body.Rows[1].Index)

	all, err := s.ListProducts(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)

	rec = do(e, http.MethodPost, "/api/products/import", `{"products":[
		{"name":"A","sku":"A-1","price":"1","vatRateId":1},
		{"name":"B","sku":"B-1","price":2.5,"vatRateId":1}
	]}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeBody[[]model.Product](t, rec)
	require.Len(t, created, 2)

	all, err = s.ListProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, created[0].ID, all[0].ID)
	assert.Equal(t, "2.50", all[1].Price.String())

	// a storage conflict rolls back the whole import
	rec = do(e, http.MethodPost, "/api/products/import", `{"products":[
		{"name":"D","sku":"D-1","price":"1","vatRateId":1},
		{"name":"A again","sku":"A-1","price":"1","vatRateId":1}
	]}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	all, err = s.ListProducts(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

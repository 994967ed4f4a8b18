package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"bizdesk-service/internal/model"
	"bizdesk-service/internal/session"
	"bizdesk-service/internal/storage"
	"bizdesk-service/pkg/config"
	"bizdesk-service/prometheus"
)

func newTestServer(t *testing.T, mutate func(*config.Config)) *echo.Echo {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared&_foreign_keys=on"), &gorm.Config{
		TranslateError:         true,
		SkipDefaultTransaction: true,
		Logger:                 gormlogger.Discard,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(model.All()...))

	cfg := &config.Config{
		ServiceName: "bizdesk-service",
		Server:      config.ServerConfig{AllowOrigins: []string{"http://app.test"}},
		Session:     config.SessionConfig{Secret: "test-secret", TTL: time.Hour, CookieName: "sid"},
		Auth:        config.AuthConfig{LoginRateLimit: 100, LoginBurst: 100},
	}
	if mutate != nil {
		mutate(cfg)
	}

	return New(Deps{
		Config:   cfg,
		Logger:   zap.NewNop(),
		Store:    storage.NewGormStore(db, zap.NewNop(), 5*time.Second),
		Sessions: session.NewDBStore(db, 5*time.Second),
		Metrics:  prometheus.NewMetrics("bizdesk_test", prometheus.NewRegistry()),
	})
}

func call(e *echo.Echo, method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func login(t *testing.T, e *echo.Echo) *http.Cookie {
	t.Helper()
	rec := call(e, http.MethodPost, "/api/auth/register", `{"username":"alice","password":"password123"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	for _, c := range rec.Result().Cookies() {
		if c.Name == "sid" {
			return c
		}
	}
	t.Fatal("no session cookie")
	return nil
}

func TestHealthAndMetrics(t *testing.T) {
	e := newTestServer(t, nil)

	for _, path := range []string{"/health", "/api/health", "/api/health?check=db"} {
		rec := call(e, http.MethodGet, path, "")
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
		assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
	}

	rec := call(e, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `bizdesk_test_http_requests_total{method="GET",path="/api/health",status="200"} 2`)
}

func TestProtectedRoutesRequireSession(t *testing.T) {
	e := newTestServer(t, nil)

	for _, path := range []string{"/api/products", "/api/contacts", "/api/orders", "/api/deliveries", "/api/vat-rates", "/api/vat-transactions", "/api/vat-report?period=2024-01", "/api/auth/me"} {
		rec := call(e, http.MethodGet, path, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
		assert.JSONEq(t, `{"message":"unauthorized"}`, rec.Body.String(), path)
	}

	forged := &http.Cookie{Name: "sid", Value: "eyJhbGciOiJIUzI1NiJ9.e30.c2lnbmF0dXJl"}
	assert.Equal(t, http.StatusUnauthorized, call(e, http.MethodGet, "/api/products", "", forged).Code)
}

func TestEndToEndProductFlow(t *testing.T) {
	e := newTestServer(t, nil)
	cookie := login(t, e)

	rec := call(e, http.MethodPost, "/api/vat-rates", `{"name":"Standard","rate":"23","validFrom":"2024-01-01"}`, cookie)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = call(e, http.MethodPost, "/api/products",
		`{"name":"Widget","sku":"W-1","price":"10.00","vatRateId":1,"stockLevel":5,"minStockLevel":10}`, cookie)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"lowStock":true`)

	rec = call(e, http.MethodGet, "/api/products/low-stock", "", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"sku":"W-1"`)

	rec = call(e, http.MethodDelete, "/api/products/batch", `{"ids":[]}`, cookie)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = call(e, http.MethodDelete, "/api/products/1", "", cookie)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = call(e, http.MethodDelete, "/api/products/1", "", cookie)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = call(e, http.MethodPost, "/api/auth/logout", "", cookie)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, http.StatusUnauthorized, call(e, http.MethodGet, "/api/products", "", cookie).Code)
}

func TestUnknownRouteAndMethod(t *testing.T) {
	e := newTestServer(t, nil)

	rec := call(e, http.MethodGet, "/nowhere", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"message":"not found"}`, rec.Body.String())

	rec = call(e, http.MethodPut, "/api/auth/login", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.JSONEq(t, `{"message":"method not allowed"}`, rec.Body.String())
}

func TestLoginIsRateLimited(t *testing.T) {
	e := newTestServer(t, func(cfg *config.Config) {
		cfg.Auth.LoginRateLimit = 0.001
		cfg.Auth.LoginBurst = 2
	})

	body := `{"username":"nobody","password":"password123"}`
	assert.Equal(t, http.StatusUnauthorized, call(e, http.MethodPost, "/api/auth/login", body).Code)
	assert.Equal(t, http.StatusUnauthorized, call(e, http.MethodPost, "/api/auth/login", body).Code)

	rec := call(e, http.MethodPost, "/api/auth/login", body)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.JSONEq(t, `{"message":"too many requests"}`, rec.Body.String())
}

func TestCORSPreflight(t *testing.T) {
	e := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/products", nil)
	req.Header.Set(echo.HeaderOrigin, "http://app.test")
	req.Header.Set(echo.HeaderAccessControlRequestMethod, http.MethodPatch)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://app.test", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
	assert.Equal(t, "true", rec.Header().Get(echo.HeaderAccessControlAllowCredentials))
}

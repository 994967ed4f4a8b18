package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"bizdesk-service/internal/model"
	"bizdesk-service/internal/server"
	"bizdesk-service/internal/session"
	"bizdesk-service/internal/storage"
	"bizdesk-service/pkg/config"
	"bizdesk-service/prometheus"
)

func newLiveClient(t *testing.T) *Client {
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

	e := server.New(server.Deps{
		Config: &config.Config{
			ServiceName: "bizdesk-service",
			Session:     config.SessionConfig{Secret: "client-secret", TTL: time.Hour, CookieName: "sid"},
			Auth:        config.AuthConfig{LoginRateLimit: 100, LoginBurst: 100},
		},
		Logger:   zap.NewNop(),
		Store:    storage.NewGormStore(db, zap.NewNop(), 5*time.Second),
		Sessions: session.NewDBStore(db, 5*time.Second),
		Metrics:  prometheus.NewMetrics("bizdesk_client_test", prometheus.NewRegistry()),
	})
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)

	c, err := New(srv.URL)
	require.NoError(t, err)
	return c
}

func TestClientAgainstServer(t *testing.T) {
	c := newLiveClient(t)
	ctx := context.Background()

	_, err := c.Products.List(ctx)
	assert.Equal(t, http.StatusUnauthorized, StatusOf(err))

	u, err := c.Register(ctx, "alice", "password123")
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)

	me, err := c.Me(ctx)
	require.NoError(t, err)
	assert.Equal(t, u.ID, me.ID)

	rate, err := c.VatRates.Create(ctx, map[string]any{"name": "Standard", "rate": "23", "validFrom": "2024-01-01"})
	require.NoError(t, err)

	p, err := c.Products.Create(ctx, map[string]any{
		"name": "Widget", "sku": "W-1", "price": 10, "vatRateId": rate.ID, "stockLevel": 5,
	})
	require.NoError(t, err)
	assert.Equal(t, "10.00", p.Price.String())

	rows, err := c.Products.List(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	_, err = c.Products.Update(ctx, p.ID, map[string]any{"stockLevel": 1, "minStockLevel": 2})
	require.NoError(t, err)
	low, err := c.LowStockProducts(ctx)
	require.NoError(t, err)
	require.Len(t, low, 1)
	assert.True(t, low[0].LowStock)

	customer, err := c.Contacts.Create(ctx, map[string]any{"name": "Jane", "type": "customer"})
	require.NoError(t, err)
	before, err := c.Contacts.Get(ctx, customer.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, before.TotalOrders)

	_, err = c.Orders.Create(ctx, map[string]any{
		"contactId": customer.ID,
		"status":    "completed",
		"netTotal":  "20", "vatTotal": "4.60", "grossTotal": "24.60",
		"items": []map[string]any{
			{"productId": p.ID, "quantity": 2, "price": "10", "vatRate": "23", "vatAmount": "4.60"},
		},
	})
	require.NoError(t, err)

	// the cached contact was dropped, so the recomputed aggregate is visible
	after, err := c.Contacts.Get(ctx, customer.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, after.TotalOrders)
	assert.Equal(t, "24.60", after.TotalSpent.String())

	_, err = c.ImportProducts(ctx, []any{map[string]any{"name": "Bad"}})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	require.Len(t, apiErr.Rows, 1)
	assert.Equal(t, 0, apiErr.Rows[0].Index)

	require.NoError(t, c.Logout(ctx))
	_, err = c.Me(ctx)
	assert.Equal(t, http.StatusUnauthorized, StatusOf(err))
}

package prometheus

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRecord(t *testing.T) {
	m := NewMetrics("bizdesk", NewRegistry())

	m.ObserveRequest("GET", "/api/products", "200", 10*time.Millisecond)
	m.ObserveRequest("GET", "/api/products", "200", 20*time.Millisecond)
	m.RecordEntityOperation("product", "create")
	m.SetLowStock(3)
	m.RecordAuthAttempt()
	m.RecordAuthSuccess()
	m.TrackDBOperation("query")(time.Now())

	assert.Equal(t, 2.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/api/products", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EntityOperationsCounter.WithLabelValues("product", "create")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.LowStockGauge))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AuthSuccessCounter))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.AuthErrorsCounter))
	assert.Equal(t, 1, testutil.CollectAndCount(m.DBOperationDuration))
}

func TestMetricsHandlerExposesPrefix(t *testing.T) {
	m := NewMetrics("bizdesk", NewRegistry())
	m.RecordEntityOperation("order", "delete")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `bizdesk_entity_operations_total{entity="order",operation="delete"} 1`)
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveRequest("GET", "/", "200", time.Second)
		m.RecordEntityOperation("product", "create")
		m.SetLowStock(1)
		m.RecordAuthAttempt()
		m.RecordAuthError()
		m.TrackDBOperation("query")(time.Now())
	})
}

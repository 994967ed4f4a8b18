package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"bizdesk-service/internal/model"
	"bizdesk-service/internal/schema"
	"bizdesk-service/internal/storage"
	"bizdesk-service/pkg/logger"
	"bizdesk-service/prometheus"
)

// VatRateHandler serves /api/vat-rates.
type VatRateHandler struct {
	resource[model.VatRate]
	store storage.VatRateStore
	now   func() time.Time
}

func NewVatRateHandler(store storage.VatRateStore, m *prometheus.Metrics) *VatRateHandler {
	return &VatRateHandler{
		resource: resource[model.VatRate]{
			entity:  "vat_rate",
			metrics: m,
			list:    store.ListVatRates,
			get:     store.GetVatRate,
			create:  store.CreateVatRate,
			update:  store.UpdateVatRate,
			remove:  store.DeleteVatRate,
			insert:  schema.VatRateInsert,
			patch:   schema.VatRatePatch,
		},
		store: store,
		now:   time.Now,
	}
}

// Active returns the rate in force on ?date=, today when omitted.
func (h *VatRateHandler) Active(c echo.Context) error {
	date, err := schema.Date("date", c.QueryParam("date"), h.now().UTC().Truncate(24*time.Hour))
	if err != nil {
		return respondError(c, err)
	}
	r, err := h.store.ActiveVatRate(c.Request().Context(), date)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, r)
}

// VatTransactionHandler serves /api/vat-transactions and the VAT report.
type VatTransactionHandler struct {
	resource[model.VatTransaction]
	store storage.VatTransactionStore
}

func NewVatTransactionHandler(store storage.VatTransactionStore, m *prometheus.Metrics) *VatTransactionHandler {
	return &VatTransactionHandler{
		resource: resource[model.VatTransaction]{
			entity:  "vat_transaction",
			metrics: m,
			get:     store.GetVatTransaction,
			create:  store.CreateVatTransaction,
			update:  store.UpdateVatTransaction,
			remove:  store.DeleteVatTransaction,
			insert:  schema.VatTransactionInsert,
			patch:   schema.VatTransactionPatch,
		},
		store: store,
	}
}

// List honours the optional ?period= and ?reported= filters.
func (h *VatTransactionHandler) List(c echo.Context) error {
	var filter storage.VatTransactionFilter
	if period := c.QueryParam("period"); period != "" {
		if err := schema.Period("period", period); err != nil {
			return respondError(c, err)
		}
		filter.Period = period
	}
	reported, err := schema.OptionalBool("reported", c.QueryParam("reported"))
	if err != nil {
		return respondError(c, err)
	}
	filter.Reported = reported

	rows, err := h.store.ListVatTransactions(c.Request().Context(), filter)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, rows)
}

// MarkReported flags every unreported transaction of {period}.
func (h *VatTransactionHandler) MarkReported(c echo.Context) error {
	raw, err := bindRaw(c)
	if err != nil {
		return respondError(c, err)
	}
	period, err := schema.ReportRequest(raw)
	if err != nil {
		return respondError(c, err)
	}

	n, err := h.store.MarkVatTransactionsReported(c.Request().Context(), period)
	if err != nil {
		return respondError(c, err)
	}

	h.metrics.RecordEntityOperation("vat_transaction", "report")
	logger.FromEcho(c).Info("VAT period reported", zap.String("period", period), zap.Int64("updated", n))
	return c.JSON(http.StatusOK, echo.Map{"period": period, "updated": n})
}

// Report summarises ?period= per VAT rate.
func (h *VatTransactionHandler) Report(c echo.Context) error {
	period := c.QueryParam("period")
	if err := schema.Period("period", period); err != nil {
		return respondError(c, err)
	}
	report, err := h.store.VatReport(c.Request().Context(), period)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, report)
}

package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"bizdesk-service/internal/model"
)

// Resource is the CRUD surface shared by every entity collection. Create
// and Update take any JSON-encodable value; the server validates it.
type Resource[T any] struct {
	c      *Client
	entity string
}

func (r Resource[T]) collection() string { return "/api/" + r.entity }

func (r Resource[T]) item(id uint) string {
	return fmt.Sprintf("/api/%s/%d", r.entity, id)
}

func (r Resource[T]) List(ctx context.Context) ([]T, error) {
	var rows []T
	if err := r.c.get(ctx, r.collection(), &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (r Resource[T]) Get(ctx context.Context, id uint) (*T, error) {
	var row T
	if err := r.c.get(ctx, r.item(id), &row); err != nil {
		return nil, err
	}
	return &row, nil
}

func (r Resource[T]) Create(ctx context.Context, in any) (*T, error) {
	var row T
	if err := r.c.mutate(ctx, r.entity, http.MethodPost, r.collection(), in, &row); err != nil {
		return nil, err
	}
	return &row, nil
}

func (r Resource[T]) Update(ctx context.Context, id uint, patch any) (*T, error) {
	var row T
	if err := r.c.mutate(ctx, r.entity, http.MethodPatch, r.item(id), patch, &row); err != nil {
		return nil, err
	}
	return &row, nil
}

func (r Resource[T]) Delete(ctx context.Context, id uint) error {
	return r.c.mutate(ctx, r.entity, http.MethodDelete, r.item(id), nil, nil)
}

// ImportProducts creates all rows or none.
func (c *Client) ImportProducts(ctx context.Context, rows []any) ([]model.Product, error) {
	var out []model.Product
	err := c.mutate(ctx, entityProducts, http.MethodPost, "/api/products/import", map[string]any{"products": rows}, &out)
	return out, err
}

// BatchUpdateProducts applies one patch to every listed product.
func (c *Client) BatchUpdateProducts(ctx context.Context, ids []uint, updates map[string]any) ([]model.Product, error) {
	var out []model.Product
	err := c.mutate(ctx, entityProducts, http.MethodPatch, "/api/products/batch", map[string]any{"ids": ids, "updates": updates}, &out)
	return out, err
}

func (c *Client) BatchDeleteProducts(ctx context.Context, ids []uint) error {
	return c.mutate(ctx, entityProducts, http.MethodDelete, "/api/products/batch", map[string]any{"ids": ids}, nil)
}

func (c *Client) LowStockProducts(ctx context.Context) ([]model.Product, error) {
	var out []model.Product
	if err := c.get(ctx, "/api/products/low-stock", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ActiveVatRate returns the rate in force on day. A zero day means today.
func (c *Client) ActiveVatRate(ctx context.Context, day time.Time) (*model.VatRate, error) {
	path := "/api/vat-rates/active"
	if !day.IsZero() {
		path += "?date=" + day.Format(time.DateOnly)
	}
	var out model.VatRate
	if err := c.get(ctx, path, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// VatTransactionQuery filters ListVatTransactions. Zero values match all.
type VatTransactionQuery struct {
	Period   string
	Reported *bool
}

func (c *Client) ListVatTransactions(ctx context.Context, q VatTransactionQuery) ([]model.VatTransaction, error) {
	values := url.Values{}
	if q.Period != "" {
		values.Set("period", q.Period)
	}
	if q.Reported != nil {
		values.Set("reported", strconv.FormatBool(*q.Reported))
	}
	path := "/api/vat-transactions"
	if len(values) > 0 {
		path += "?" + values.Encode()
	}

	var out []model.VatTransaction
	if err := c.get(ctx, path, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// MarkVatPeriodReported flags every transaction of period as reported and
// returns how many changed.
func (c *Client) MarkVatPeriodReported(ctx context.Context, period string) (int64, error) {
	var out struct {
		Updated int64 `json:"updated"`
	}
	err := c.mutate(ctx, entityVatTransactions, http.MethodPost, "/api/vat-transactions/report", map[string]string{"period": period}, &out)
	return out.Updated, err
}

func (c *Client) VatReport(ctx context.Context, period string) (*model.VatReport, error) {
	var out model.VatReport
	if err := c.get(ctx, "/api/vat-report?period="+url.QueryEscape(period), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

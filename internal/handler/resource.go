package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"bizdesk-service/internal/model"
	"bizdesk-service/pkg/logger"
	"bizdesk-service/prometheus"
)

// resource serves the five CRUD routes of one entity.
type resource[T any] struct {
	entity  string
	metrics *prometheus.Metrics

	list   func(ctx context.Context) ([]T, error)
	get    func(ctx context.Context, id uint) (*T, error)
	create func(ctx context.Context, v *T) error
	update func(ctx context.Context, id uint, patch model.Patch) (*T, error)
	remove func(ctx context.Context, id uint) error

	insert func(raw map[string]any) (T, error)
	patch  func(raw map[string]any) (model.Patch, error)
}

func (r *resource[T]) List(c echo.Context) error {
	rows, err := r.list(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	logger.FromEcho(c).Debug("Listed records", zap.String("entity", r.entity), zap.Int("count", len(rows)))
	return c.JSON(http.StatusOK, rows)
}

func (r *resource[T]) Get(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return message(c, http.StatusBadRequest, msgInvalidID)
	}
	v, err := r.get(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, v)
}

func (r *resource[T]) Create(c echo.Context) error {
	raw, err := bindRaw(c)
	if err != nil {
		return respondError(c, err)
	}
	v, err := r.insert(raw)
	if err != nil {
		return respondError(c, err)
	}
	if err := r.create(c.Request().Context(), &v); err != nil {
		return respondError(c, err)
	}

	r.metrics.RecordEntityOperation(r.entity, "create")
	logger.FromEcho(c).Info("Created record", zap.String("entity", r.entity))
	return c.JSON(http.StatusCreated, v)
}

func (r *resource[T]) Update(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return message(c, http.StatusBadRequest, msgInvalidID)
	}
	raw, err := bindRaw(c)
	if err != nil {
		return respondError(c, err)
	}
	patch, err := r.patch(raw)
	if err != nil {
		return respondError(c, err)
	}
	v, err := r.update(c.Request().Context(), id, patch)
	if err != nil {
		return respondError(c, err)
	}

	r.metrics.RecordEntityOperation(r.entity, "update")
	logger.FromEcho(c).Info("Updated record", zap.String("entity", r.entity), zap.Uint("id", id), zap.Int("fields", len(patch)))
	return c.JSON(http.StatusOK, v)
}

func (r *resource[T]) Delete(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return message(c, http.StatusBadRequest, msgInvalidID)
	}
	if err := r.remove(c.Request().Context(), id); err != nil {
		return respondError(c, err)
	}

	r.metrics.RecordEntityOperation(r.entity, "delete")
	logger.FromEcho(c).Info("Deleted record", zap.String("entity", r.entity), zap.Uint("id", id))
	return c.NoContent(http.StatusNoContent)
}

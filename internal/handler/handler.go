// Package handler adapts HTTP requests onto the schema and storage layers.
package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"bizdesk-service/internal/schema"
	"bizdesk-service/internal/storage"
	"bizdesk-service/pkg/logger"
)

// Response messages.
const (
	msgInvalidBody = "invalid JSON body"
	msgInvalidID   = "invalid id"
	msgValidation  = "validation failed"
	msgImport      = "one or more rows are invalid"
	msgNotFound    = "not found"
	msgConflict    = "conflict"
	msgOutOfRange  = "a value is out of range"
	msgUnavailable = "service unavailable"
	msgInternal    = "internal server error"
)

// errBadBody marks a request body that is not a JSON object.
var errBadBody = errors.New("request body must be a JSON object")

// bindRaw decodes the request body into an untyped object. Numbers are
// kept as json.Number so money fields never pass through float64.
func bindRaw(c echo.Context) (map[string]any, error) {
	dec := json.NewDecoder(c.Request().Body)
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return map[string]any{}, nil
		}
		return nil, errBadBody
	}
	if raw == nil {
		return nil, errBadBody
	}
	return raw, nil
}

func parseID(c echo.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func message(c echo.Context, status int, msg string) error {
	return c.JSON(status, echo.Map{"message": msg})
}

// respondError maps validation and storage failures onto status codes.
// Only safe text reaches the body.
func respondError(c echo.Context, err error) error {
	log := logger.FromEcho(c)

	var verr *schema.ValidationError
	var ierr *schema.ImportError
	var serr *storage.Error
	switch {
	case errors.Is(err, errBadBody):
		return message(c, http.StatusBadRequest, msgInvalidBody)
	case errors.As(err, &verr):
		log.Info("Validation failed", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"message": msgValidation, "errors": verr.Fields})
	case errors.As(err, &ierr):
		log.Info("Import rejected", zap.Int("rows", len(ierr.Rows)))
		return c.JSON(http.StatusBadRequest, echo.Map{"message": msgImport, "rows": ierr.Rows})
	case errors.Is(err, storage.ErrNotFound):
		return message(c, http.StatusNotFound, msgNotFound)
	case errors.Is(err, storage.ErrConflict):
		msg := msgConflict
		if errors.As(err, &serr) && serr.Detail != "" {
			msg = serr.Detail
		}
		return message(c, http.StatusConflict, msg)
	case errors.Is(err, storage.ErrInvalid):
		return message(c, http.StatusBadRequest, msgOutOfRange)
	case errors.Is(err, storage.ErrUnavailable):
		return message(c, http.StatusServiceUnavailable, msgUnavailable)
	default:
		log.Error("Unhandled request error", zap.Error(err))
		return message(c, http.StatusInternalServerError, msgInternal)
	}
}

package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"bizdesk-service/internal/session"
	"bizdesk-service/pkg/logger"
)

const (
	userIDKey       = "user_id"
	sessionTokenKey = "session_token"
)

// AuthMiddleware requires a signed session cookie that names a live
// server-held session.
func AuthMiddleware(store session.Store, signer *session.Signer, cookieName string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromEcho(c)

			cookie, err := c.Cookie(cookieName)
			if err != nil || cookie.Value == "" {
				log.Debug("Missing session cookie")
				return unauthorized(c)
			}

			token, userID, err := signer.Verify(cookie.Value)
			if err != nil {
				log.Warn("Invalid session cookie", zap.Error(err))
				return unauthorized(c)
			}

			sess, err := store.Get(c.Request().Context(), token)
			if errors.Is(err, session.ErrSessionNotFound) {
				log.Debug("Session not found or expired")
				return unauthorized(c)
			}
			if err != nil {
				log.Error("Failed to load session", zap.Error(err))
				return c.JSON(http.StatusServiceUnavailable, echo.Map{"message": "service unavailable"})
			}
			if sess.UserID != userID {
				log.Warn("Session user mismatch", zap.Uint("cookie_user_id", userID), zap.Uint("session_user_id", sess.UserID))
				return unauthorized(c)
			}

			c.Set(userIDKey, sess.UserID)
			c.Set(sessionTokenKey, sess.Token)
			return next(c)
		}
	}
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{"message": "unauthorized"})
}

// UserIDFromContext returns the authenticated user id.
func UserIDFromContext(c echo.Context) (uint, bool) {
	id, ok := c.Get(userIDKey).(uint)
	return id, ok
}

// SessionTokenFromContext returns the token of the current session.
func SessionTokenFromContext(c echo.Context) (string, bool) {
	token, ok := c.Get(sessionTokenKey).(string)
	return token, ok
}

package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	mid "bizdesk-service/internal/middleware"
	"bizdesk-service/internal/model"
	"bizdesk-service/internal/schema"
	"bizdesk-service/internal/session"
	"bizdesk-service/internal/storage"
	"bizdesk-service/pkg/logger"
	"bizdesk-service/prometheus"
)

const msgInvalidCredentials = "invalid credentials"

// AuthOptions configures the session cookie and login behaviour.
type AuthOptions struct {
	CookieName   string
	TTL          time.Duration
	SecureCookie bool
	// AutoRegister turns a login with an unknown username into a
	// registration.
	AutoRegister bool
}

// AuthHandler serves /api/auth.
type AuthHandler struct {
	users    storage.UserStore
	sessions session.Store
	signer   *session.Signer
	metrics  *prometheus.Metrics
	opts     AuthOptions
	cost     int
}

func NewAuthHandler(users storage.UserStore, sessions session.Store, signer *session.Signer, m *prometheus.Metrics, opts AuthOptions) *AuthHandler {
	return &AuthHandler{
		users:    users,
		sessions: sessions,
		signer:   signer,
		metrics:  m,
		opts:     opts,
		cost:     bcrypt.DefaultCost,
	}
}

func (h *AuthHandler) Register(c echo.Context) error {
	raw, err := bindRaw(c)
	if err != nil {
		return respondError(c, err)
	}
	creds, err := schema.Registration(raw)
	if err != nil {
		return respondError(c, err)
	}

	user, err := h.createUser(c, creds)
	if err != nil {
		return h.registrationFailed(c, err)
	}
	if err := h.startSession(c, user.ID); err != nil {
		return h.sessionFailed(c, err)
	}
	return c.JSON(http.StatusCreated, user)
}

// Login opens a session for valid credentials.
func (h *AuthHandler) Login(c echo.Context) error {
	log := logger.FromEcho(c)
	h.metrics.RecordAuthAttempt()

	raw, err := bindRaw(c)
	if err != nil {
		h.metrics.RecordAuthError()
		return respondError(c, err)
	}
	creds, err := schema.Login(raw)
	if err != nil {
		h.metrics.RecordAuthError()
		return respondError(c, err)
	}

	user, err := h.users.GetUserByUsername(c.Request().Context(), creds.Username)
	if errors.Is(err, storage.ErrNotFound) {
		if h.opts.AutoRegister {
			return h.autoRegister(c, raw)
		}
		log.Warn("User not found", zap.String("username", creds.Username))
		h.metrics.RecordAuthError()
		return message(c, http.StatusUnauthorized, msgInvalidCredentials)
	}
	if err != nil {
		h.metrics.RecordAuthError()
		return respondError(c, err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(creds.Password)); err != nil {
		log.Warn("Invalid password", zap.String("username", creds.Username))
		h.metrics.RecordAuthError()
		return message(c, http.StatusUnauthorized, msgInvalidCredentials)
	}

	if err := h.startSession(c, user.ID); err != nil {
		return h.sessionFailed(c, err)
	}
	h.metrics.RecordAuthSuccess()
	log.Info("User logged in", zap.Uint("user_id", user.ID))
	return c.JSON(http.StatusOK, user)
}

// autoRegister turns a login with an unknown username into a registration
// under the registration rules.
func (h *AuthHandler) autoRegister(c echo.Context, raw map[string]any) error {
	creds, err := schema.Registration(raw)
	if err != nil {
		h.metrics.RecordAuthError()
		return respondError(c, err)
	}
	logger.FromEcho(c).Info("Unknown username, registering", zap.String("username", creds.Username))

	user, err := h.createUser(c, creds)
	if err != nil {
		h.metrics.RecordAuthError()
		return h.registrationFailed(c, err)
	}
	if err := h.startSession(c, user.ID); err != nil {
		return h.sessionFailed(c, err)
	}
	h.metrics.RecordAuthSuccess()
	return c.JSON(http.StatusCreated, user)
}

func (h *AuthHandler) createUser(c echo.Context, creds schema.Credentials) (*model.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(creds.Password), h.cost)
	if err != nil {
		return nil, err
	}
	user := &model.User{Username: creds.Username, Password: string(hash)}
	if err := h.users.CreateUser(c.Request().Context(), user); err != nil {
		return nil, err
	}
	logger.FromEcho(c).Info("User registered", zap.Uint("user_id", user.ID), zap.String("username", user.Username))
	return user, nil
}

func (h *AuthHandler) registrationFailed(c echo.Context, err error) error {
	if errors.Is(err, storage.ErrConflict) {
		return message(c, http.StatusConflict, "username already taken")
	}
	return respondError(c, err)
}

func (h *AuthHandler) sessionFailed(c echo.Context, err error) error {
	logger.FromEcho(c).Error("Failed to start session", zap.Error(err))
	h.metrics.RecordAuthError()
	return message(c, http.StatusServiceUnavailable, msgUnavailable)
}

// Logout ends the session named by the cookie, if any, and clears it.
func (h *AuthHandler) Logout(c echo.Context) error {
	log := logger.FromEcho(c)

	if cookie, err := c.Cookie(h.opts.CookieName); err == nil && cookie.Value != "" {
		if token, _, err := h.signer.Verify(cookie.Value); err == nil {
			if err := h.sessions.Delete(c.Request().Context(), token); err != nil {
				log.Error("Failed to delete session", zap.Error(err))
				return message(c, http.StatusServiceUnavailable, msgUnavailable)
			}
			log.Info("User logged out")
		}
	}

	c.SetCookie(&http.Cookie{
		Name:     h.opts.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.opts.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	return c.NoContent(http.StatusNoContent)
}

// Me returns the authenticated user.
func (h *AuthHandler) Me(c echo.Context) error {
	userID, ok := mid.UserIDFromContext(c)
	if !ok {
		return message(c, http.StatusUnauthorized, "unauthorized")
	}
	user, err := h.users.GetUser(c.Request().Context(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, user)
}

// ChangePassword replaces the password after checking the current one.
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	log := logger.FromEcho(c)

	userID, ok := mid.UserIDFromContext(c)
	if !ok {
		return message(c, http.StatusUnauthorized, "unauthorized")
	}
	raw, err := bindRaw(c)
	if err != nil {
		return respondError(c, err)
	}
	current, next, err := schema.PasswordChange(raw)
	if err != nil {
		return respondError(c, err)
	}

	user, err := h.users.GetUser(c.Request().Context(), userID)
	if err != nil {
		return respondError(c, err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(current)); err != nil {
		log.Warn("Password change with wrong current password", zap.Uint("user_id", userID))
		return respondError(c, &schema.ValidationError{Fields: []schema.FieldError{{Field: "currentPassword", Message: "is incorrect"}}})
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(next), h.cost)
	if err != nil {
		log.Error("Failed to hash password", zap.Error(err))
		return message(c, http.StatusInternalServerError, msgInternal)
	}
	if err := h.users.UpdateUserPassword(c.Request().Context(), userID, string(hash)); err != nil {
		return respondError(c, err)
	}
	log.Info("Password changed", zap.Uint("user_id", userID))
	return c.NoContent(http.StatusNoContent)
}

// startSession creates a server-held session and sets its signed cookie.
func (h *AuthHandler) startSession(c echo.Context, userID uint) error {
	sess, err := h.sessions.Create(c.Request().Context(), userID, h.opts.TTL)
	if err != nil {
		return err
	}
	value, err := h.signer.Sign(sess)
	if err != nil {
		return err
	}

	c.SetCookie(&http.Cookie{
		Name:     h.opts.CookieName,
		Value:    value,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		Secure:   h.opts.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Package session keeps server-held login sessions and signs the cookie
// value that refers to them.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"bizdesk-service/internal/model"
)

// ErrSessionNotFound is returned for unknown, expired or deleted sessions.
var ErrSessionNotFound = errors.New("session not found")

// Store persists sessions. Every operation is atomic per token.
type Store interface {
	Create(ctx context.Context, userID uint, ttl time.Duration) (*model.Session, error)
	Get(ctx context.Context, token string) (*model.Session, error)
	Delete(ctx context.Context, token string) error
}

func newSession(userID uint, ttl time.Duration, now time.Time) *model.Session {
	return &model.Session{
		Token:     uuid.NewString(),
		UserID:    userID,
		ExpiresAt: now.Add(ttl).UTC(),
		CreatedAt: now.UTC(),
	}
}

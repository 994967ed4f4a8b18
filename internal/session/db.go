package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"bizdesk-service/internal/model"
)

// DBStore keeps sessions in the sessions table. Expired rows are purged
// lazily when new sessions are created.
type DBStore struct {
	db        *gorm.DB
	opTimeout time.Duration
	now       func() time.Time
}

func NewDBStore(db *gorm.DB, opTimeout time.Duration) *DBStore {
	return &DBStore{db: db, opTimeout: opTimeout, now: time.Now}
}

func (s *DBStore) ctx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), s.opTimeout)
}

func (s *DBStore) Create(ctx context.Context, userID uint, ttl time.Duration) (*model.Session, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	now := s.now()
	sess := newSession(userID, ttl, now)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("expires_at <= ?", now.UTC()).Delete(&model.Session{}).Error; err != nil {
			return err
		}
		return tx.Create(sess).Error
	})
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return sess, nil
}

func (s *DBStore) Get(ctx context.Context, token string) (*model.Session, error) {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	var sess model.Session
	err := s.db.WithContext(ctx).Where("token = ?", token).First(&sess).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if sess.Expired(s.now()) {
		if err := s.db.WithContext(ctx).Where("token = ?", token).Delete(&model.Session{}).Error; err != nil {
			return nil, fmt.Errorf("delete expired session: %w", err)
		}
		return nil, ErrSessionNotFound
	}
	return &sess, nil
}

func (s *DBStore) Delete(ctx context.Context, token string) error {
	ctx, cancel := s.ctx(ctx)
	defer cancel()

	if err := s.db.WithContext(ctx).Where("token = ?", token).Delete(&model.Session{}).Error; err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

package storage

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"bizdesk-service/internal/model"
	"bizdesk-service/prometheus"
)

// GormStore implements Store on top of a *gorm.DB.
type GormStore struct {
	db        *gorm.DB
	log       *zap.Logger
	opTimeout time.Duration
	metrics   *prometheus.Metrics
}

var _ Store = (*GormStore)(nil)

// Option customizes a GormStore.
type Option func(*GormStore)

// WithMetrics records the duration of every database operation.
func WithMetrics(m *prometheus.Metrics) Option {
	return func(s *GormStore) { s.metrics = m }
}

// NewGormStore wraps db. Every operation gets at most opTimeout to finish,
// including time spent waiting for a pooled connection; zero disables the
// limit.
func NewGormStore(db *gorm.DB, log *zap.Logger, opTimeout time.Duration, opts ...Option) *GormStore {
	if log == nil {
		log = zap.NewNop()
	}
	s := &GormStore{db: db, log: log, opTimeout: opTimeout}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// opContext detaches ctx from the caller's cancellation so a client
// disconnect does not abort work in flight, then applies the timeout.
func (s *GormStore) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx = context.WithoutCancel(ctx)
	if s.opTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.opTimeout)
}

// run executes fn against a context-bound handle and classifies its error.
func (s *GormStore) run(ctx context.Context, op, kind string, fn func(db *gorm.DB) error) error {
	ctx, cancel := s.opContext(ctx)
	defer cancel()
	defer s.metrics.TrackDBOperation(kind)(time.Now())

	return s.wrap(op, fn(s.db.WithContext(ctx)))
}

// transaction is run with fn inside a single transaction.
func (s *GormStore) transaction(ctx context.Context, op, kind string, fn func(tx *gorm.DB) error) error {
	return s.run(ctx, op, kind, func(db *gorm.DB) error {
		return db.Transaction(fn)
	})
}

func (s *GormStore) wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var serr *Error
	if errors.As(err, &serr) {
		return serr
	}

	kind := classify(err)
	switch kind {
	case ErrUnavailable:
		s.log.Error("Storage operation failed", zap.String("op", op), zap.Error(err))
	case ErrConflict:
		s.log.Info("Storage conflict", zap.String("op", op), zap.Error(err))
		return conflict(op, conflictDetail(err))
	case ErrInvalid:
		s.log.Warn("Storage rejected value", zap.String("op", op), zap.Error(err))
	}
	return &Error{Op: op, Kind: kind}
}

// Ping checks that the database answers.
func (s *GormStore) Ping(ctx context.Context) error {
	return s.run(ctx, "ping", "ping", func(db *gorm.DB) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(db.Statement.Context)
	})
}

func list[T any](ctx context.Context, s *GormStore, op string, scope func(*gorm.DB) *gorm.DB) ([]T, error) {
	out := []T{}
	err := s.run(ctx, op, "query", func(db *gorm.DB) error {
		if scope != nil {
			db = scope(db)
		}
		return db.Order("id").Find(&out).Error
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func get[T any](ctx context.Context, s *GormStore, op string, id uint) (*T, error) {
	var v T
	err := s.run(ctx, op, "query", func(db *gorm.DB) error {
		return db.First(&v, id).Error
	})
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func create[T any](ctx context.Context, s *GormStore, op string, v *T) error {
	return s.run(ctx, op, "insert", func(db *gorm.DB) error {
		return db.Create(v).Error
	})
}

// applyPatch updates the row with id and reloads it. tx must be a
// transaction or a plain handle.
func applyPatch[T any](tx *gorm.DB, id uint, patch model.Patch) (*T, error) {
	var cur T
	if err := tx.First(&cur, id).Error; err != nil {
		return nil, err
	}
	if len(patch) > 0 {
		if err := tx.Model(&cur).Updates(map[string]any(patch)).Error; err != nil {
			return nil, err
		}
	}
	var fresh T
	if err := tx.First(&fresh, id).Error; err != nil {
		return nil, err
	}
	return &fresh, nil
}

func update[T any](ctx context.Context, s *GormStore, op string, id uint, patch model.Patch) (*T, error) {
	var out *T
	err := s.transaction(ctx, op, "update", func(tx *gorm.DB) error {
		v, err := applyPatch[T](tx, id, patch)
		out = v
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func remove[T any](ctx context.Context, s *GormStore, op string, id uint) error {
	return s.run(ctx, op, "delete", func(db *gorm.DB) error {
		res := db.Delete(new(T), id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

package storage

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Error kinds callers can test with errors.Is.
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrInvalid     = errors.New("invalid value")
	ErrUnavailable = errors.New("storage unavailable")
)

// Error is what every store method returns on failure. It names the
// operation and the kind; driver text never reaches it.
type Error struct {
	Op     string
	Kind   error
	Detail string // safe, user-facing explanation; may be empty
}

func (e *Error) Error() string {
	msg := e.Op + ": " + e.Kind.Error()
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Kind }

func conflict(op, detail string) *Error {
	return &Error{Op: op, Kind: ErrConflict, Detail: detail}
}

func notFound(op string) *Error {
	return &Error{Op: op, Kind: ErrNotFound}
}

// Postgres SQLSTATE codes treated as conflicts.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"

	// class 22: data exceptions such as numeric overflow (22003)
	pgDataExceptionClass = "22"
)

// classify maps a raw driver or ORM error onto one of the error kinds.
func classify(err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey), errors.Is(err, gorm.ErrForeignKeyViolated),
		errors.Is(err, gorm.ErrCheckConstraintViolated):
		return ErrConflict
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return ErrUnavailable
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation, pgForeignKeyViolation, pgCheckViolation:
			return ErrConflict
		}
		if strings.HasPrefix(pgErr.Code, pgDataExceptionClass) {
			return ErrInvalid
		}
		return ErrUnavailable
	}

	// sqlite reports constraint failures as plain messages when the
	// dialect does not translate them.
	msg := err.Error()
	if strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "FOREIGN KEY constraint failed") {
		return ErrConflict
	}
	return ErrUnavailable
}

// conflictDetail describes a conflict for the caller without driver text.
func conflictDetail(err error) string {
	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return "already exists"
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return "referenced record missing or still in use"
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return "already exists"
		case pgForeignKeyViolation:
			return "referenced record missing or still in use"
		}
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return "already exists"
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return "referenced record missing or still in use"
	}
	return ""
}

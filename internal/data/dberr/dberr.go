package dberr

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/VitalPointAI/argus-sub001/internal/domain/reperr"
	"gorm.io/gorm"
)

// MapError maps infrastructure failures into reputation error codes so the
// layers above never see driver errors directly. Postgres SQLSTATEs cover
// the cases GORM does not translate itself.
func MapError(op string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := err.(*reperr.Error); ok {
		return err
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return reperr.Wrap(reperr.CodeNotFound, op, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return reperr.Wrap(reperr.CodeRetryable, op, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch strings.TrimSpace(pgErr.Code) {
		case "23505":
			return reperr.Wrap(reperr.CodeConflict, op, err) // unique_violation
		case "23503":
			return reperr.Wrap(reperr.CodePreconditionFailed, op, err) // foreign_key_violation
		case "40001", "40P01", "55P03":
			return reperr.Wrap(reperr.CodeRetryable, op, err) // serialization/deadlock/lock_not_available
		}
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "duplicate key"), strings.Contains(msg, "already exists"):
		return reperr.Wrap(reperr.CodeConflict, op, err)
	case strings.Contains(msg, "deadlock"),
		strings.Contains(msg, "serialization"),
		strings.Contains(msg, "timeout"),
		strings.Contains(msg, "temporar"):
		return reperr.Wrap(reperr.CodeRetryable, op, err)
	default:
		return reperr.Wrap(reperr.CodeInternal, op, err)
	}
}

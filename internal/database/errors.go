package database

import (
	"context"
	"errors"

	"go-pos-checkout/internal/apperr"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Classify maps a storage error onto the application taxonomy. Errors that
// already carry a kind pass through untouched.
func Classify(err error) error {
	if err == nil {
		return nil
	}

	var ae *apperr.Error
	if errors.As(err, &ae) {
		return err
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return apperr.Conflict(err, "operation timed out or was cancelled, nothing was saved")
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperr.Conflict(err, "a concurrent request already wrote this record")
	}
	if IsRetryable(err) {
		return apperr.Conflict(err, "concurrent update, please retry")
	}
	return apperr.Internal(err, "storage failure")
}

// IsRetryable reports lock contention the caller may retry: deadlocks, lock
// wait timeouts and serialization failures.
func IsRetryable(err error) bool {
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case 1205, 1213:
			return true
		}
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01", "55P03":
			return true
		}
	}
	return false
}

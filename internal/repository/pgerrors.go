package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func isInvalidUUID(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "22P02"
}

// isLockConflict reports whether err is a storage-level conflict that aborts
// the transaction without telling us anything about ticket availability:
// lock wait timeout (55P03), serialization failure (40001), deadlock (40P01)
// or an exceeded context deadline while queued on the row lock.
func isLockConflict(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case "55P03", "40001", "40P01":
		return true
	}
	return false
}

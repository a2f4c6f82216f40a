package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

const pgUniqueViolation = "23505"

// IsUniqueViolation reports whether err is a unique constraint
// violation, optionally restricted to the named constraint. The
// sqlite fallback exists for the in-memory test databases.
func IsUniqueViolation(err error, constraint string) bool {
	if err == nil {
		return false
	}

	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		if pgxErr.Code != pgUniqueViolation {
			return false
		}
		return constraint == "" || pgxErr.ConstraintName == constraint
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if string(pqErr.Code) != pgUniqueViolation {
			return false
		}
		return constraint == "" || pqErr.Constraint == constraint
	}

	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

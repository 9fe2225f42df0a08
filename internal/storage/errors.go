package storage

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Postgres error codes this service depends on.
const (
	pgUniqueViolation     = "23505"
	pgExclusionViolation  = "23P01"
	pgForeignKeyViolation = "23503"
)

func isPgCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == code
	}
	return false
}

// IsExclusionViolation reports whether err is the appointments range
// exclusion constraint firing.
func IsExclusionViolation(err error) bool {
	return isPgCode(err, pgExclusionViolation)
}

func IsUniqueViolation(err error) bool {
	return isPgCode(err, pgUniqueViolation)
}

// IsForeignKeyViolation reports whether err is a foreign key constraint
// firing. Entitlement writes reference doctor_profiles, so for them it means
// the doctor does not exist.
func IsForeignKeyViolation(err error) bool {
	return isPgCode(err, pgForeignKeyViolation)
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

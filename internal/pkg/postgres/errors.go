package postgres

import (
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

// IsUniqueViolation reports whether err is a unique constraint violation.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// IsUUID reports whether s parses as a UUID. Repositories use it to answer
// "not found" for malformed ids instead of letting the cast fail in SQL.
func IsUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

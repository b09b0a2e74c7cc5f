package storage

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const pgUniqueViolation = "23505"

// classifyUnique maps unique constraint violations on the users table to
// ErrDuplicateUsername or ErrDuplicateEmail. Other errors pass through.
func classifyUnique(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		if dup := duplicateFor(pgErr.ConstraintName + " " + pgErr.Detail); dup != nil {
			return dup
		}
		return err
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) && liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE {
		if dup := duplicateFor(liteErr.Error()); dup != nil {
			return dup
		}
	}
	return err
}

func duplicateFor(msg string) error {
	switch {
	case strings.Contains(msg, "username"):
		return ErrDuplicateUsername
	case strings.Contains(msg, "email"):
		return ErrDuplicateEmail
	}
	return nil
}

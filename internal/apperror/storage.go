// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package apperror

import (
	"database/sql"
	"errors"
	"log/slog"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// PostgreSQL SQLSTATE codes of the integrity constraint violation class.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
	pgIntegrityClass      = "23"
)

// UnknownField is the field label used when a violation names no constraint.
const UnknownField = "Unknown"

// constraintFields maps constraint names (PostgreSQL) and column keys
// (SQLite) to the user-facing field label.
var constraintFields = map[string]string{
	"users_display_name_key":           "Display Name",
	"users.display_name":               "Display Name",
	"users_email_key":                  "Email",
	"users.email":                      "Email",
	"links_slug_key":                   "Short URL",
	"links.slug":                       "Short URL",
	"links_user_id_fkey":               "Owner",
	"links_visits_check":               "Visits",
	"verification_tokens_user_id_fkey": "User",
}

// sqliteConstraintPattern extracts the constraint key SQLite reports after
// "UNIQUE constraint failed:" or "CHECK constraint failed:".
var sqliteConstraintPattern = regexp.MustCompile(`(?:UNIQUE|CHECK|NOT NULL|PRIMARY KEY) constraint failed: ([^()]+)`)

// FieldFor returns the field label for a constraint key.
func FieldFor(constraint string) string {
	if constraint == "" {
		return UnknownField
	}
	if field, ok := constraintFields[constraint]; ok {
		return field
	}
	return constraint
}

// FromStorage translates a storage error into an application error.
// Constraint violations become DuplicateValue, UnknownValue or InvalidValue
// with the field taken from the constraint table, sql.ErrNoRows becomes
// NotFound and everything else collapses to InternalError.
func FromStorage(err error) error {
	if err == nil {
		return nil
	}

	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}

	if kind, constraint, ok := classifyPostgres(err); ok {
		return &Error{Kind: kind, Field: FieldFor(constraint)}
	}
	if kind, constraint, ok := classifySQLite(err); ok {
		return &Error{Kind: kind, Field: FieldFor(constraint)}
	}

	slog.Error("storage_error", "error", err)
	return ErrInternal
}

func classifyPostgres(err error) (Kind, string, bool) {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return 0, "", false
	}

	switch pgErr.Code {
	case pgUniqueViolation:
		return KindDuplicateValue, pgErr.ConstraintName, true
	case pgForeignKeyViolation:
		return KindUnknownValue, pgErr.ConstraintName, true
	case pgCheckViolation:
		return KindInvalidValue, pgErr.ConstraintName, true
	}
	if strings.HasPrefix(pgErr.Code, pgIntegrityClass) {
		constraint := pgErr.ConstraintName
		if constraint == "" && pgErr.TableName != "" && pgErr.ColumnName != "" {
			constraint = pgErr.TableName + "." + pgErr.ColumnName
		}
		return KindInvalidValue, constraint, true
	}
	return 0, "", false
}

func classifySQLite(err error) (Kind, string, bool) {
	var liteErr *sqlite.Error
	if !errors.As(err, &liteErr) {
		return 0, "", false
	}

	switch liteErr.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return KindDuplicateValue, sqliteConstraintKey(liteErr.Error()), true
	case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
		// SQLite does not name the violated foreign key.
		return KindUnknownValue, "", true
	case sqlite3.SQLITE_CONSTRAINT_CHECK, sqlite3.SQLITE_CONSTRAINT_NOTNULL:
		return KindInvalidValue, sqliteConstraintKey(liteErr.Error()), true
	}
	return 0, "", false
}

// sqliteConstraintKey returns the first constraint key named in msg. For
// composite unique indexes SQLite lists all columns; only the first is used.
func sqliteConstraintKey(msg string) string {
	m := sqliteConstraintPattern.FindStringSubmatch(msg)
	if m == nil {
		return ""
	}
	key := strings.TrimSpace(m[1])
	if first, _, found := strings.Cut(key, ","); found {
		key = strings.TrimSpace(first)
	}
	return key
}

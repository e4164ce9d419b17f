package db

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	pkgerrors "github.com/vinco/vinco-backend/pkg/errors"
)

// SQLSTATE classes the repositories translate.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// IsUniqueViolation reports whether err is a unique constraint violation.
// A non-empty constraintName must match the violated constraint; sqlite
// only reports it inside the message.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	if pg, ok := pkgerrors.PostgresError(err); ok {
		return pg.Code == pgUniqueViolation && (constraintName == "" || pg.Constraint == constraintName)
	}
	msg := err.Error()
	if constraintName != "" {
		return strings.Contains(msg, constraintName)
	}
	return strings.Contains(msg, "duplicate key value") || strings.Contains(msg, "UNIQUE constraint failed")
}

func isForeignKeyViolation(err error) bool {
	if pg, ok := pkgerrors.PostgresError(err); ok {
		return pg.Code == pgForeignKeyViolation
	}
	return strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}

// checkViolation returns the violated CHECK constraint, if any.
func checkViolation(err error) (string, bool) {
	if pg, ok := pkgerrors.PostgresError(err); ok {
		return pg.Constraint, pg.Code == pgCheckViolation
	}
	msg := err.Error()
	if _, name, found := strings.Cut(msg, "CHECK constraint failed: "); found {
		return strings.TrimSpace(name), true
	}
	return "", false
}

// MapError converts a repository error into a typed error. Missing rows
// become NotFound, unique violations Conflict, rows still referenced by a
// foreign key Conflict, and CHECK violations (tank volume bounds, positive
// sizes) InvalidOperation. Anything else is a dependency failure; typed
// errors pass through untouched.
func MapError(err error, resource string) error {
	if err == nil {
		return nil
	}
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.NotFound(resource)
	}
	if IsUniqueViolation(err, "") {
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, resource+" already exists")
	}
	if isForeignKeyViolation(err) {
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, resource+" is still referenced")
	}
	if constraint, ok := checkViolation(err); ok {
		return pkgerrors.Wrap(pkgerrors.CodeInvalidOperation, err, resource+" violates a data constraint").
			WithDetails(map[string]any{"constraint": constraint})
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load "+resource)
}

// Package apperr provides the typed errors business operations return.
// Handlers map them to HTTP responses in one place instead of matching on
// message strings.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Machine-readable error codes
const (
	CodeValidation        = "VALIDATION_ERROR"
	CodeNotFound          = "NOT_FOUND"
	CodeConflict          = "CONFLICT"
	CodeInsufficientStock = "INSUFFICIENT_STOCK"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeForbidden         = "FORBIDDEN"
	CodePersistence       = "PERSISTENCE_ERROR"
)

// Error carries a code, a user-readable message and a suggested HTTP status.
type Error struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // underlying cause, not exposed in JSON
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// WithCause sets the underlying error
func (e *Error) WithCause(err error) *Error {
	e.Err = err
	return e
}

// --- Factory functions ---

func NewValidation(message string) *Error {
	return &Error{Code: CodeValidation, Message: message, HTTPStatus: http.StatusBadRequest}
}

func NewNotFound(entity string) *Error {
	return &Error{Code: CodeNotFound, Message: entity + " not found", HTTPStatus: http.StatusNotFound}
}

func NewConflict(message string) *Error {
	return &Error{Code: CodeConflict, Message: message, HTTPStatus: http.StatusConflict}
}

func NewInsufficientStock(message string) *Error {
	return &Error{Code: CodeInsufficientStock, Message: message, HTTPStatus: http.StatusUnprocessableEntity}
}

func NewUnauthorized(message string) *Error {
	return &Error{Code: CodeUnauthorized, Message: message, HTTPStatus: http.StatusUnauthorized}
}

func NewForbidden(message string) *Error {
	return &Error{Code: CodeForbidden, Message: message, HTTPStatus: http.StatusForbidden}
}

func NewPersistence(err error) *Error {
	return &Error{
		Code:       CodePersistence,
		Message:    "database operation failed",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// --- Inspection helpers ---

// As extracts an *Error from err, if any.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

func IsCode(err error, code string) bool {
	if appErr, ok := As(err); ok {
		return appErr.Code == code
	}
	return false
}

func IsNotFound(err error) bool { return IsCode(err, CodeNotFound) }
func IsConflict(err error) bool { return IsCode(err, CodeConflict) }

// ConstraintViolated reports whether err wraps a unique violation on a
// constraint whose name contains name. Lets callers react to one specific
// collision (a folio race) without string-matching messages.
func ConstraintViolated(err error, name string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) &&
		pgErr.Code == pgUniqueViolation &&
		strings.Contains(pgErr.ConstraintName, name)
}

// --- Database error translation ---

const pgUniqueViolation = "23505"

// FromDB translates persistence-layer failures into typed errors. Unique
// violations map to field-specific Conflict messages (material code, client
// email/document, folio), record-not-found to NotFound; everything else is a
// generic Persistence error.
func FromDB(err error, entity string) *Error {
	if err == nil {
		return nil
	}
	if appErr, ok := As(err); ok {
		return appErr
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return NewNotFound(entity)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return NewConflict(uniqueViolationMessage(pgErr.ConstraintName)).WithCause(err)
	}

	return NewPersistence(err)
}

func uniqueViolationMessage(constraint string) string {
	switch {
	case strings.Contains(constraint, "code"):
		return "material code already exists, use another code"
	case strings.Contains(constraint, "email"):
		return "email is already registered"
	case strings.Contains(constraint, "document"):
		return "client document is already registered"
	case strings.Contains(constraint, "folio"):
		return "transaction folio already exists"
	}
	return "a record with these unique values already exists"
}

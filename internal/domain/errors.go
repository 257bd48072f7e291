package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Kind standardizes repository failure semantics.
type Kind string

const (
	KindValidation Kind = "validation"
	KindNotFound   Kind = "not_found"
	KindConflict   Kind = "conflict"
	KindDatabase   Kind = "database"
)

// Error is the canonical repository error wrapper. Known kinds pass through
// repository boundaries unchanged; anything else is wrapped as KindDatabase
// so raw storage errors never leak past the data layer.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	op := strings.TrimSpace(e.Op)
	msg := strings.TrimSpace(e.Message)
	switch {
	case op != "" && msg != "":
		return fmt.Sprintf("%s: %s (%s)", op, msg, e.Kind)
	case op != "":
		return fmt.Sprintf("%s (%s)", op, e.Kind)
	case msg != "":
		return fmt.Sprintf("%s (%s)", msg, e.Kind)
	default:
		return string(e.Kind)
	}
}

func (e *Error) Unwrap() error { return e.Cause }

// NewError builds a repository error with explicit kind + operation.
func NewError(kind Kind, op, message string, cause error) error {
	return &Error{
		Kind:    kind,
		Op:      strings.TrimSpace(op),
		Message: strings.TrimSpace(message),
		Cause:   cause,
	}
}

func NewValidation(op, message string) error {
	return NewError(KindValidation, op, message, nil)
}

func NewNotFound(op, message string) error {
	return NewError(KindNotFound, op, message, nil)
}

func NewConflict(op, message string) error {
	return NewError(KindConflict, op, message, nil)
}

// IsKind checks whether err (or a wrapped err) carries the given kind.
func IsKind(err error, kind Kind) bool {
	var domErr *Error
	if !errors.As(err, &domErr) {
		return false
	}
	return domErr.Kind == kind
}

// KindOf extracts the error kind, defaulting to KindDatabase for unknown
// failures.
func KindOf(err error) Kind {
	var domErr *Error
	if errors.As(err, &domErr) {
		return domErr.Kind
	}
	return KindDatabase
}

// Translate maps storage-layer failures into repository error kinds. Known
// domain errors are returned as-is; gorm and Postgres failures are
// classified; everything else becomes a KindDatabase error carrying the
// original cause.
func Translate(op string, err error) error {
	if err == nil {
		return nil
	}
	var domErr *Error
	if errors.As(err, &domErr) {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return NewError(KindNotFound, op, "record not found", err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch strings.TrimSpace(pgErr.Code) {
		case "23505":
			return NewError(KindConflict, op, "duplicate key", err) // unique_violation
		case "23503":
			return NewError(KindNotFound, op, "referenced record missing", err) // foreign_key_violation
		case "23502", "23514":
			return NewError(KindValidation, op, "constraint violated", err) // not_null/check_violation
		}
	}

	return NewError(KindDatabase, op, err.Error(), err)
}

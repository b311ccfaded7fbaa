package history

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/runnerr0/chronicle-mcp/internal/snapshot"
	"github.com/runnerr0/chronicle-mcp/internal/storage"
	"github.com/runnerr0/chronicle-mcp/internal/validate"
)

// Kind names a class of service failure. Transports map kinds to status
// codes or messages; they never inspect lower-level errors.
type Kind string

const (
	KindValidation        Kind = "VALIDATION_ERROR"
	KindBrowserNotFound   Kind = "BROWSER_NOT_FOUND"
	KindPathNotFound      Kind = "PATH_NOT_FOUND"
	KindPermissionDenied  Kind = "PERMISSION_DENIED"
	KindDatabaseLocked    Kind = "DATABASE_LOCKED"
	KindDatabase          Kind = "DATABASE_ERROR"
	KindUnsupportedFormat Kind = "UNSUPPORTED_FORMAT"
	KindInvalidDateRange  Kind = "INVALID_DATE_RANGE"
	KindInvalidPattern    Kind = "INVALID_PATTERN"
)

// Error is the only error type returned by Service methods.
type Error struct {
	Kind    Kind
	Message string
	// Field is the offending request field for validation failures.
	Field string
	Err   error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the Kind of err, or "" if err is not a service Error.
func KindOf(err error) Kind {
	var he *Error
	if errors.As(err, &he) {
		return he.Kind
	}
	return ""
}

func notFound(what, browserName string) *Error {
	return &Error{
		Kind:    KindBrowserNotFound,
		Message: fmt.Sprintf("Could not find %s %s", browserName, what),
	}
}

// remap translates errors from the lower layers into service Errors.
// Errors it does not recognize are logged and reported as database errors.
func (s *Service) remap(op, browserName string, err error) error {
	if err == nil {
		return nil
	}

	var he *Error
	if errors.As(err, &he) {
		return he
	}

	var ve *validate.Error
	if errors.As(err, &ve) {
		return &Error{Kind: KindValidation, Message: ve.Message, Field: ve.Field, Err: err}
	}
	var de *validate.DateRangeError
	if errors.As(err, &de) {
		return &Error{Kind: KindInvalidDateRange, Message: de.Error(), Field: "date_range", Err: err}
	}
	if errors.Is(err, storage.ErrInvalidPattern) {
		return &Error{Kind: KindInvalidPattern, Message: err.Error(), Field: "query", Err: err}
	}

	var se *snapshot.Error
	if errors.As(err, &se) {
		switch se.Kind {
		case snapshot.KindBrowserNotFound:
			return &Error{Kind: KindBrowserNotFound, Message: se.Error(), Err: err}
		case snapshot.KindPathNotFound:
			return &Error{Kind: KindPathNotFound, Message: se.Error(), Err: err}
		case snapshot.KindPermissionDenied:
			return &Error{Kind: KindPermissionDenied, Message: se.Error(), Err: err}
		case snapshot.KindLocked:
			return &Error{Kind: KindDatabaseLocked, Message: se.Error(), Err: err}
		default:
			s.logger.Error("snapshot failed",
				zap.String("op", op), zap.String("browser", browserName), zap.Error(err))
			return &Error{
				Kind:    KindDatabase,
				Message: fmt.Sprintf("Failed to access %s history: %v", browserName, se.Err),
				Err:     err,
			}
		}
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindDatabase, Message: "Request cancelled: " + err.Error(), Err: err}
	}

	s.logger.Error("unexpected database error",
		zap.String("op", op), zap.String("browser", browserName), zap.Error(err))
	return &Error{Kind: KindDatabase, Message: "Database operation failed: " + err.Error(), Err: err}
}

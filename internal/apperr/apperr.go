// Package apperr carries the error kinds that cross the boundary between the
// checkout core and the HTTP layer.
package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"
)

type Kind string

const (
	KindValidation        Kind = "validation"
	KindNotFound          Kind = "not_found"
	KindInsufficientStock Kind = "insufficient_stock"
	KindConflict          Kind = "conflict"
	KindUnauthorized      Kind = "unauthorized"
	KindInternal          Kind = "internal"
)

// Error is a field-tagged failure. Details holds extra values shown to the
// caller (e.g. available vs requested stock).
type Error struct {
	Kind    Kind
	Field   string
	Message string
	Details map[string]any
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Field != "" {
		msg = e.Field + ": " + msg
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

func Validation(field, format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Field: field, Message: fmt.Sprintf(format, args...)}
}

func NotFound(field, format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Field: field, Message: fmt.Sprintf(format, args...)}
}

func Conflict(err error, format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...), Err: err}
}

func Unauthorized(format string, args ...any) *Error {
	return &Error{Kind: KindUnauthorized, Message: fmt.Sprintf(format, args...)}
}

func Internal(err error, format string, args ...any) *Error {
	return &Error{Kind: KindInternal, Message: fmt.Sprintf(format, args...), Err: err}
}

// InsufficientStock names the product and reports available vs requested.
func InsufficientStock(field, product string, available, requested int) *Error {
	return &Error{
		Kind:    KindInsufficientStock,
		Field:   field,
		Message: fmt.Sprintf("insufficient stock for %s: available %d, requested %d", product, available, requested),
		Details: map[string]any{
			"product":   product,
			"available": available,
			"requested": requested,
		},
	}
}

// Money rejects amounts the decimal(20,2) columns cannot store exactly:
// negatives and more than two decimal places.
func Money(field string, v decimal.Decimal) error {
	if v.IsNegative() {
		return Validation(field, "cannot be negative")
	}
	if !v.Equal(v.Round(2)) {
		return Validation(field, "at most 2 decimal places")
	}
	return nil
}

// WithField returns a copy of err tagged with field, keeping its kind.
func WithField(err error, field string) error {
	var ae *Error
	if !errors.As(err, &ae) {
		return err
	}
	cp := *ae
	cp.Field = field
	return &cp
}

// KindOf reports the kind of err. Untyped errors are internal.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

func HTTPStatus(kind Kind) int {
	switch kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindInsufficientStock, KindConflict:
		return http.StatusConflict
	case KindUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// Package faults defines the error taxonomy shared by the procurement bounded contexts.
package faults

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Kind classifies a failure so transports can map it to a stable code.
type Kind string

const (
	KindValidation        Kind = "validation"
	KindAuthorization     Kind = "authorization"
	KindAlreadyApproved   Kind = "already_approved"
	KindAlreadyRejected   Kind = "already_rejected"
	KindInsufficientStock Kind = "insufficient_stock"
	KindImmutableState    Kind = "immutable_state"
	KindNotFound          Kind = "not_found"
	KindConflict          Kind = "conflict"
)

// Error is a classified failure. Two errors match under errors.Is when their kinds match.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil && e.Message != "" {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return other.Message == "" && other.Err == nil && other.Kind == e.Kind
	}
	return false
}

// Sentinels for errors.Is checks.
var (
	ErrValidation        = &Error{Kind: KindValidation}
	ErrAuthorization     = &Error{Kind: KindAuthorization}
	ErrAlreadyApproved   = &Error{Kind: KindAlreadyApproved}
	ErrAlreadyRejected   = &Error{Kind: KindAlreadyRejected}
	ErrInsufficientStock = &Error{Kind: KindInsufficientStock}
	ErrImmutableState    = &Error{Kind: KindImmutableState}
	ErrNotFound          = &Error{Kind: KindNotFound}
	ErrConflict          = &Error{Kind: KindConflict}
)

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...any) error { return newError(KindValidation, format, args...) }

func Authorization(format string, args ...any) error {
	return newError(KindAuthorization, format, args...)
}

func AlreadyApproved(format string, args ...any) error {
	return newError(KindAlreadyApproved, format, args...)
}

func AlreadyRejected(format string, args ...any) error {
	return newError(KindAlreadyRejected, format, args...)
}

func ImmutableState(format string, args ...any) error {
	return newError(KindImmutableState, format, args...)
}

func NotFound(format string, args ...any) error { return newError(KindNotFound, format, args...) }

func Conflict(format string, args ...any) error { return newError(KindConflict, format, args...) }

// Wrap classifies an existing error under kind, preserving it for errors.Is/As.
func Wrap(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Err: err}
}

// KindOf returns the classification of err, or "" when err is unclassified.
func KindOf(err error) Kind {
	var insufficient *InsufficientStockError
	if errors.As(err, &insufficient) {
		return KindInsufficientStock
	}
	var classified *Error
	if errors.As(err, &classified) {
		return classified.Kind
	}
	return ""
}

// InsufficientStockError reports a deduction that would drive a balance below zero.
type InsufficientStockError struct {
	ProductID int64
	Requested decimal.Decimal
	Available decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d: requested %s, available %s, shortfall %s",
		e.ProductID, e.Requested.String(), e.Available.String(), e.Shortfall().String())
}

// Shortfall is the quantity missing to satisfy the request.
func (e *InsufficientStockError) Shortfall() decimal.Decimal {
	short := e.Requested.Sub(e.Available)
	if short.IsNegative() {
		return decimal.Zero
	}
	return short
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// Package apperr is the error factory for the marketplace core. Every
// storage or permission failure is wrapped into exactly one named kind at
// the boundary; transports translate kinds into wire payloads.
package apperr

import (
	"errors"
	"fmt"
)

// Kind identifies a failure class. The numeric value is the stable code
// exposed to clients and must never be reordered.
type Kind int

const (
	GenericUnexpected          Kind = 1000
	EntityNotFound             Kind = 1001
	EntityNotSaved             Kind = 1002
	EntityNotUpdated           Kind = 1003
	EntityNotDeleted           Kind = 1004
	ValidationMissingParameter Kind = 1005
	PositionIndexInvalid       Kind = 1006
	PositionIdInvalid          Kind = 1007
	PositionTypeInvalid        Kind = 1008
	NotEnoughFunds             Kind = 1009
	NotOwnWorktyUsed           Kind = 1010
	OperationForbidden         Kind = 1011
)

var kindNames = map[Kind]string{
	GenericUnexpected:          "generic_unexpected",
	EntityNotFound:             "entity_not_found",
	EntityNotSaved:             "entity_not_saved",
	EntityNotUpdated:           "entity_not_updated",
	EntityNotDeleted:           "entity_not_deleted",
	ValidationMissingParameter: "validation_missing_parameter",
	PositionIndexInvalid:       "position_index_invalid",
	PositionIdInvalid:          "position_id_invalid",
	PositionTypeInvalid:        "position_type_invalid",
	NotEnoughFunds:             "not_enough_funds",
	NotOwnWorktyUsed:           "not_own_workty_used",
	OperationForbidden:         "operation_forbidden",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Code returns the stable numeric code for the kind.
func (k Kind) Code() int { return int(k) }

// FieldError is a field-level validation message.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is a typed application error.
type Error struct {
	Kind    Kind
	Message string
	Fields  []FieldError
	cause   error
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.cause != nil {
		msg += ": " + e.cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.cause }

// New creates an error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf creates an error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and message to an underlying cause. If the cause is
// already a typed error its kind is preserved and only context is added.
func Wrap(kind Kind, message string, cause error) *Error {
	var typed *Error
	if errors.As(cause, &typed) {
		kind = typed.Kind
	}
	return &Error{Kind: kind, Message: message, cause: cause}
}

// MissingParameters builds a validation error naming every absent field.
func MissingParameters(fields ...string) *Error {
	e := &Error{Kind: ValidationMissingParameter, Message: "missing required parameters"}
	for _, f := range fields {
		e.Fields = append(e.Fields, FieldError{Field: f, Message: "required"})
	}
	return e
}

// KindOf extracts the kind from an error chain. Untyped errors report
// GenericUnexpected.
func KindOf(err error) Kind {
	var typed *Error
	if errors.As(err, &typed) {
		return typed.Kind
	}
	return GenericUnexpected
}

// Is reports whether the error chain carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

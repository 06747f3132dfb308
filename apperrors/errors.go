// Package apperrors provides the error taxonomy shared by the tree, ledger and settlement packages.
package apperrors

import "net/http"

// Code is a machine-readable error code.
type Code string

const (
	CodeUnknown Code = "UNKNOWN"

	// Ledger errors
	CodeInvalidAmount     Code = "INVALID_AMOUNT"
	CodeInsufficientFunds Code = "INSUFFICIENT_FUNDS"

	// Tree errors
	CodeSponsorNotFound Code = "SPONSOR_NOT_FOUND"
	CodeAlreadyPlaced   Code = "ALREADY_PLACED"
	CodeInvalidSide     Code = "INVALID_SIDE"

	// Directory errors
	CodeMemberNotFound  Code = "MEMBER_NOT_FOUND"
	CodeDuplicateMember Code = "DUPLICATE_MEMBER"

	// Settlement and plan errors
	CodeNoActivationOnRecord Code = "NO_ACTIVATION_ON_RECORD"
	CodePlanNotFound         Code = "PLAN_NOT_FOUND"
	CodePlanAlreadyActive    Code = "PLAN_ALREADY_ACTIVE"
)

// HTTPStatus maps domain codes to HTTP status codes.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeInvalidAmount, CodeInvalidSide:
		return http.StatusBadRequest
	case CodeSponsorNotFound, CodeMemberNotFound, CodePlanNotFound:
		return http.StatusNotFound
	case CodeAlreadyPlaced, CodeDuplicateMember, CodePlanAlreadyActive:
		return http.StatusConflict
	case CodeInsufficientFunds, CodeNoActivationOnRecord:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// Error is the domain error type with structured metadata.
type Error struct {
	Code     Code              // Machine-readable error code
	Message  string            // Internal message (for logs)
	Metadata map[string]string // Additional context
	Cause    error             // Wrapped underlying error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// New creates a simple domain error with a code and message.
func New(code Code, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// WithMetadata creates a domain error with metadata.
func WithMetadata(code Code, message string, metadata map[string]string) *Error {
	return &Error{
		Code:     code,
		Message:  message,
		Metadata: metadata,
	}
}

// Wrap creates a domain error that wraps an underlying cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Sentinels for errors.Is comparisons.
var (
	ErrInvalidAmount        = New(CodeInvalidAmount, "invalid amount")
	ErrInsufficientFunds    = New(CodeInsufficientFunds, "insufficient funds")
	ErrSponsorNotFound      = New(CodeSponsorNotFound, "sponsor not found")
	ErrAlreadyPlaced        = New(CodeAlreadyPlaced, "member already placed")
	ErrInvalidSide          = New(CodeInvalidSide, "side must be Left or Right")
	ErrMemberNotFound       = New(CodeMemberNotFound, "member not found")
	ErrDuplicateMember      = New(CodeDuplicateMember, "member already exists")
	ErrPlanNotFound         = New(CodePlanNotFound, "plan not found")
	ErrPlanAlreadyActive    = New(CodePlanAlreadyActive, "member already has an active plan")
)

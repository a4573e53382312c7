package apperrors

import (
	"errors"
	"fmt"
)

// RetryableError indicates an error that might be resolved by retrying.
type RetryableError struct {
	Err error
}

// Error implements the error interface.
func (e *RetryableError) Error() string {
	return fmt.Sprintf("retryable: %v", e.Err)
}

// Unwrap returns the wrapped error.
func (e *RetryableError) Unwrap() error {
	return e.Err
}

// NewRetryable wraps the given error as a RetryableError, adding a message.
func NewRetryable(err error, message string, args ...interface{}) error {
	format := message + ": %w"
	allArgs := append(args, err)
	return &RetryableError{Err: fmt.Errorf(format, allArgs...)}
}

// FatalError indicates an error that is unlikely to be resolved by retrying.
// All domain-rule violations are fatal: retrying them can never succeed.
type FatalError struct {
	Err error
}

// Error implements the error interface.
func (e *FatalError) Error() string {
	return fmt.Sprintf("fatal: %v", e.Err)
}

// Unwrap returns the wrapped error.
func (e *FatalError) Unwrap() error {
	return e.Err
}

// NewFatal wraps the given error as a FatalError, adding a message.
func NewFatal(err error, message string, args ...interface{}) error {
	format := message + ": %w"
	allArgs := append(args, err)
	return &FatalError{Err: fmt.Errorf(format, allArgs...)}
}

// --- Standard Error Definitions ---

// Sentinel errors for the domain failure taxonomy. They are checked with
// errors.Is and may be wrapped by RetryableError or FatalError depending on
// the context where they are handled.
var (
	// ErrNotFound indicates a referenced entity is absent.
	ErrNotFound = errors.New("resource not found")
	// ErrConsentViolation indicates an attempted outbound contact to an
	// opted-out recipient. Never retried, always surfaced to the caller.
	ErrConsentViolation = errors.New("consent violation: recipient opted out")
	// ErrInvalidState indicates an operation illegal for the entity's current
	// lifecycle stage (e.g. finalizing an already-finalized call).
	ErrInvalidState = errors.New("invalid state for operation")
	// ErrInsufficientBalance indicates a debit exceeding available funds with
	// auto-reload disabled or failed.
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrTenantMismatch indicates a cross-organization reference. Treated as a
	// programming/security error: logged and rejected.
	ErrTenantMismatch = errors.New("tenant mismatch")
	// ErrAlreadyClaimed indicates a scheduled job already taken by a worker.
	ErrAlreadyClaimed = errors.New("job already claimed")
	// ErrValidation indicates failure during data validation.
	ErrValidation = errors.New("validation failed")
	// ErrDatabase indicates a general database interaction error.
	ErrDatabase = errors.New("database error")
	// ErrDuplicate indicates a conflict due to duplicate data (e.g., unique constraint).
	ErrDuplicate = errors.New("duplicate resource")
	// ErrBadRequest indicates a malformed or invalid request from the caller.
	ErrBadRequest = errors.New("bad request")
	// ErrTimeout indicates an operation timed out.
	ErrTimeout = errors.New("operation timeout")
)

// --- Helper functions for checking ---

// IsRetryable checks if the error is a RetryableError or wraps one.
func IsRetryable(err error) bool {
	var target *RetryableError
	return errors.As(err, &target)
}

// IsFatal checks if the error is a FatalError or wraps one.
func IsFatal(err error) bool {
	var target *FatalError
	return errors.As(err, &target)
}

// IsNotFoundError checks if the error is or wraps ErrNotFound.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConsentViolationError checks if the error is or wraps ErrConsentViolation.
func IsConsentViolationError(err error) bool {
	return errors.Is(err, ErrConsentViolation)
}

// IsInvalidStateError checks if the error is or wraps ErrInvalidState.
func IsInvalidStateError(err error) bool {
	return errors.Is(err, ErrInvalidState)
}

// IsInsufficientBalanceError checks if the error is or wraps ErrInsufficientBalance.
func IsInsufficientBalanceError(err error) bool {
	return errors.Is(err, ErrInsufficientBalance)
}

// IsTenantMismatchError checks if the error is or wraps ErrTenantMismatch.
func IsTenantMismatchError(err error) bool {
	return errors.Is(err, ErrTenantMismatch)
}

// IsAlreadyClaimedError checks if the error is or wraps ErrAlreadyClaimed.
func IsAlreadyClaimedError(err error) bool {
	return errors.Is(err, ErrAlreadyClaimed)
}

// IsValidationError checks if the error is or wraps ErrValidation.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsDatabaseError checks if the error is or wraps ErrDatabase.
func IsDatabaseError(err error) bool {
	return errors.Is(err, ErrDatabase)
}

// IsDuplicateError checks if the error is or wraps ErrDuplicate.
func IsDuplicateError(err error) bool {
	return errors.Is(err, ErrDuplicate)
}

// IsBadRequestError checks if the error is or wraps ErrBadRequest.
func IsBadRequestError(err error) bool {
	return errors.Is(err, ErrBadRequest)
}

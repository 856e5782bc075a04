package service

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by the stock engine and the approval workflow.
// Handlers map these to HTTP statuses; the services never retry.
var (
	ErrProductNotFound   = errors.New("product not found")
	ErrWarehouseNotFound = errors.New("warehouse not found")
	ErrBatchNotFound     = errors.New("batch not found")
	ErrRequestNotFound   = errors.New("approval request not found")
	ErrEntityNotFound    = errors.New("staged entity not found")

	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrStateConflict is returned when a request or staging entity is not in
	// the state the transition requires.
	ErrStateConflict = errors.New("entity is not in the expected state")

	// ErrPendingRequestExists guards the one-PENDING-per-entity invariant.
	ErrPendingRequestExists = errors.New("a pending approval request already exists for this entity")

	// ErrPermissionDenied is returned when a cancel is attempted by someone
	// other than the original requester.
	ErrPermissionDenied = errors.New("not permitted to perform this action")
)

// ValidationError reports a rejected input before any write happens.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed [%s]: %s", e.Field, e.Message)
}

func newValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// IsValidationError reports whether err is (or wraps) a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// SerialResolutionError reports serial numbers that could not be resolved to
// IN_STOCK units in the requested warehouse/batch. The operation writes
// nothing when any serial fails to resolve.
type SerialResolutionError struct {
	Missing []string `json:"missing"`
}

func (e *SerialResolutionError) Error() string {
	return fmt.Sprintf("serials not available for issue: %v", e.Missing)
}

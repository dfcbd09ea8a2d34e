package carbonlock

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure scenarios.
var (
	// General errors
	ErrNotFound      = errors.New("carbonlock: not found")
	ErrAlreadyExists = errors.New("carbonlock: already exists")
	ErrInvalidInput  = errors.New("carbonlock: invalid input")
	ErrForbidden     = errors.New("carbonlock: forbidden")

	// Contract errors
	ErrContractNotFound  = errors.New("carbonlock: contract not found")
	ErrInvalidTransition = errors.New("carbonlock: invalid status transition")

	// Credit errors
	ErrCreditNotFound = errors.New("carbonlock: credit not found")

	// Settlement errors
	ErrTransactionNotFound = errors.New("carbonlock: transaction not found")
	ErrTransactionResolved = errors.New("carbonlock: transaction already resolved")
	ErrNotConfigured       = errors.New("carbonlock: settlement not configured")
	ErrSettlementFailed    = errors.New("carbonlock: settlement failed")

	// Store errors
	ErrStoreNotReady = errors.New("carbonlock: store not ready")
	ErrStoreClosed   = errors.New("carbonlock: store is closed")
)

// ValidationError represents a validation failure with details.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("carbonlock: validation failed for %s: %s", e.Field, e.Message)
}

// Unwrap lets errors.Is match ErrInvalidInput.
func (e ValidationError) Unwrap() error { return ErrInvalidInput }

// TransitionError reports a lifecycle operation attempted from a status
// that forbids it.
type TransitionError struct {
	ContractID uint64
	From       string
	To         string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("carbonlock: contract %d cannot move from %s to %s", e.ContractID, e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

// SettlementError is returned when the settlement network refuses a
// transfer. The transaction is recorded as failed under TxID.
type SettlementError struct {
	TxID   uint64
	Reason string
}

func (e *SettlementError) Error() string {
	return fmt.Sprintf("carbonlock: transfer %d failed: %s", e.TxID, e.Reason)
}

func (e *SettlementError) Unwrap() error { return ErrSettlementFailed }

// MultiError represents multiple errors that occurred.
type MultiError struct {
	Errors []error
}

func (e MultiError) Error() string {
	if len(e.Errors) == 0 {
		return "carbonlock: no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("carbonlock: %d errors occurred", len(e.Errors))
}

// Unwrap exposes every collected error to errors.Is and errors.As.
func (e MultiError) Unwrap() []error { return e.Errors }

// Add adds an error to the multi-error.
func (e *MultiError) Add(err error) {
	if err != nil {
		e.Errors = append(e.Errors, err)
	}
}

// HasErrors returns true if there are any errors.
func (e MultiError) HasErrors() bool {
	return len(e.Errors) > 0
}

// ErrOrNil returns e when it holds errors, nil otherwise.
func (e MultiError) ErrOrNil() error {
	if e.HasErrors() {
		return e
	}
	return nil
}

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrContractNotFound) ||
		errors.Is(err, ErrCreditNotFound) ||
		errors.Is(err, ErrTransactionNotFound)
}

// IsInvalidTransition returns true if the error rejects a lifecycle move.
func IsInvalidTransition(err error) bool {
	return errors.Is(err, ErrInvalidTransition)
}

// IsSettlementFailure returns true if a transfer reached a terminal failure.
func IsSettlementFailure(err error) bool {
	return errors.Is(err, ErrSettlementFailed)
}

// IsRetryable returns true if the error is temporary and the operation can be retried.
// A failed transfer is not retryable in place; resubmit it as a new transfer.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStoreNotReady)
}

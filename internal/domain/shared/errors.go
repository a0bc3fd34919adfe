// Package shared contains the domain errors and domain events used across all
// domain packages.
// This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")

	// Validation errors
	ErrInvalidInput    = errors.New("invalid input")
	ErrInvalidFormat   = errors.New("invalid format")
	ErrEmptyValue      = errors.New("value cannot be empty")
	ErrNegativeValue   = errors.New("value cannot be negative")
	ErrValueOutOfRange = errors.New("value out of range")

	// State errors
	ErrConflict = errors.New("conflict")

	// Resource errors
	ErrInsufficientFunds = errors.New("insufficient funds")

	// External service errors
	ErrExternalService    = errors.New("external service error")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrTimeout            = errors.New("operation timeout")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "streak", "tier", "wallet"
	Op      string // Operation that failed, e.g., "RequestFreeze"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Streak domain errors
var (
	ErrInvalidDate         = NewDomainError("streak", "ParseDay", ErrInvalidFormat, "invalid date")
	ErrInvalidUserID       = NewDomainError("streak", "Validate", ErrInvalidInput, "invalid user id")
	ErrInsufficientBalance = NewDomainError("streak", "RequestFreeze", ErrInsufficientFunds, "not enough LEARNY tokens")
	ErrFreezeArmed         = NewDomainError("streak", "RequestFreeze", ErrConflict, "streak freeze already active")
	ErrFutureDay           = NewDomainError("streak", "RecordActivity", ErrValueOutOfRange, "cannot record activity for a future day")
	ErrDayRecorded         = NewDomainError("streak", "RecordActivity", ErrConflict, "past days cannot be changed")
	ErrLearnerNotFound     = NewDomainError("streak", "Lookup", ErrNotFound, "learner not found")
)

// Tier domain errors
var (
	ErrInvalidLadder = NewDomainError("tier", "NewLadder", ErrInvalidInput, "invalid tier ladder")
)

// Ledger domain errors
var (
	ErrInvalidAmount = NewDomainError("ledger", "Validate", ErrNegativeValue, "amount must be positive")
)

// Wallet domain errors
var (
	ErrWalletUnavailable = NewDomainError("wallet", "Connect", ErrServiceUnavailable, "Failed to connect wallet. Please try again.")
	ErrUnknownWallet     = NewDomainError("wallet", "Validate", ErrInvalidInput, "unknown wallet kind")
	ErrWalletNotFound    = NewDomainError("wallet", "Disconnect", ErrNotFound, "wallet not connected")
)

// Market domain errors
var (
	ErrPriceUnavailable = NewDomainError("market", "FetchPrices", ErrServiceUnavailable, "price feed is unavailable")
)

// Staking domain errors
var (
	ErrStakeActive  = NewDomainError("staking", "Stake", ErrConflict, "a stake is already active")
	ErrNoStake      = NewDomainError("staking", "Unstake", ErrNotFound, "no active stake")
	ErrInvalidStake = NewDomainError("staking", "Stake", ErrInvalidInput, "stake amount and rate must be positive")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict checks if the error is a state conflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict) || errors.Is(err, ErrAlreadyExists)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrInvalidFormat) ||
		errors.Is(err, ErrEmptyValue) ||
		errors.Is(err, ErrNegativeValue) ||
		errors.Is(err, ErrValueOutOfRange)
}

// IsExternalService checks if the error is from an external service.
func IsExternalService(err error) bool {
	return errors.Is(err, ErrExternalService) ||
		errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout)
}

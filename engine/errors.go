/*
errors.go - Centralized error types for the sticker engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Callers (the HTTP layer) map these to status codes with the Is* helpers.

ERROR CATEGORIES:
  1. Validation errors  - bad client input, nothing persisted
  2. Not-found errors   - unknown shopper or reward code
  3. Balance errors     - redemption exceeding the shopper's balance
  4. Storage errors     - duplicate keys and transaction failures

Note that a duplicate transaction id is NOT surfaced to API callers as an
error: ingestion treats it as a replay and returns the stored result. The
sentinel exists so the storage layer can report the uniqueness violation
to the ingestion workflow.
*/
package engine

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrValidation is the root of all client-input validation failures.
	ErrValidation = errors.New("validation failed")

	// ErrShopperNotFound is returned when redemption or a detail lookup
	// references a shopper with no existing record. Ingestion never returns
	// this: it creates shoppers implicitly.
	ErrShopperNotFound = errors.New("shopper not found")

	// ErrRewardNotFound is returned for a reward code absent from the catalog.
	ErrRewardNotFound = errors.New("reward not found")

	// ErrInsufficientBalance is returned when a redemption would drive the
	// shopper's balance negative. Nothing is written.
	ErrInsufficientBalance = errors.New("insufficient sticker balance")

	// ErrDuplicateTransaction is returned by the storage layer when a
	// transaction id already exists. Ingestion converts it into a replay.
	ErrDuplicateTransaction = errors.New("duplicate transaction id")

	// ErrStorage is returned for transaction/connection failures. The whole
	// unit of work has been rolled back; the caller may safely retry.
	ErrStorage = errors.New("storage failure")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError reports a specific invalid input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// InsufficientBalanceError provides details about a balance shortage.
type InsufficientBalanceError struct {
	ShopperID ShopperID
	Balance   int64
	Cost      int64
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance for %s: have %d, need %d",
		e.ShopperID, e.Balance, e.Cost)
}

func (e *InsufficientBalanceError) Unwrap() error { return ErrInsufficientBalance }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound returns true if the error indicates a missing shopper or reward.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrShopperNotFound) || errors.Is(err, ErrRewardNotFound)
}

// IsClientError returns true if the error is due to invalid client input
// rather than a server-side fault.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInsufficientBalance) ||
		IsNotFound(err)
}

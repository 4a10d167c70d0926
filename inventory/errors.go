/*
errors.go - Centralized error types for the inventory engine

PURPOSE:
  All failure modes of the ledger and valuation engine in one place.
  Every anomaly is a real financial event: nothing is clamped, rounded
  away or silently corrected. Callers get a typed error and decide.

ERROR CATEGORIES:
  1. Validation errors - sign/type disagreement, missing unit cost
  2. Stock errors - insufficient balance, exhausted lots
  3. Replay errors - backdated insert would corrupt history
  4. Lookup errors - unknown or inactive items

USAGE:
  Sentinels work with errors.Is(); structured errors carry context and
  unwrap to their sentinel:

    if errors.Is(err, inventory.ErrInsufficientStock) { ... }

    var replayErr *inventory.ReplayFailureError
    if errors.As(err, &replayErr) {
        log.Warn().Time("at", replayErr.At).Msg("backdated insert rejected")
    }
*/
package inventory

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidTransactionSign is returned when a quantity sign contradicts
	// the transaction type (e.g. negative receipt). Rejected before any write.
	ErrInvalidTransactionSign = errors.New("quantity sign contradicts transaction type")

	// ErrInsufficientStock is returned when an issue would drive the balance
	// negative and the item's backorder policy disallows it.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrOverIssue is returned when an issue exhausts all open lots before
	// being satisfied (FIFO/LIFO) and backorder is disallowed.
	ErrOverIssue = errors.New("issue exceeds open lots")

	// ErrBackdatedReplayFailed is returned when inserting a backdated row
	// would force a negative balance somewhere in history. The ledger is
	// left untouched.
	ErrBackdatedReplayFailed = errors.New("backdated insert would corrupt history")

	// ErrMissingUnitCost is returned when a value-adding row (receipt,
	// return, opening, positive adjustment) arrives without a unit cost.
	ErrMissingUnitCost = errors.New("unit cost required for value-adding transaction")

	// ErrItemNotFound is returned when a referenced item doesn't exist.
	ErrItemNotFound = errors.New("item not found")

	// ErrItemInactive is returned on appends to a soft-deactivated item.
	ErrItemInactive = errors.New("item is deactivated")

	// ErrItemExists is returned when enrolling an item ID twice.
	ErrItemExists = errors.New("item already enrolled")

	// ErrInvalidMethod is returned for an unknown costing method.
	ErrInvalidMethod = errors.New("invalid costing method")

	// ErrInvalidTxType is returned for an unknown transaction type.
	ErrInvalidTxType = errors.New("invalid transaction type")

	// ErrInvalidItem is returned for malformed enrollment input.
	ErrInvalidItem = errors.New("invalid item")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InvalidSignError details a sign/type disagreement.
type InvalidSignError struct {
	ItemID   ItemID
	Type     TxType
	Quantity decimal.Decimal
}

func (e *InvalidSignError) Error() string {
	return fmt.Sprintf("invalid sign: %s of %s for item %s", e.Type, e.Quantity, e.ItemID)
}

func (e *InvalidSignError) Unwrap() error { return ErrInvalidTransactionSign }

// InsufficientStockError details a balance shortage.
type InsufficientStockError struct {
	ItemID    ItemID
	Available decimal.Decimal
	Requested decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for item %s: available %s, requested %s",
		e.ItemID, e.Available, e.Requested)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

func (e *InsufficientStockError) Shortfall() decimal.Decimal {
	return e.Requested.Sub(e.Available)
}

// OverIssueError details a lot exhaustion (FIFO/LIFO).
type OverIssueError struct {
	ItemID    ItemID
	OpenQty   decimal.Decimal // total quantity across open lots
	Requested decimal.Decimal
}

func (e *OverIssueError) Error() string {
	return fmt.Sprintf("over-issue for item %s: open lots hold %s, requested %s",
		e.ItemID, e.OpenQty, e.Requested)
}

func (e *OverIssueError) Unwrap() error { return ErrOverIssue }

// ReplayFailureError reports where a backdated insert would have forced
// a negative balance. Cause holds the underlying stock error at that point.
type ReplayFailureError struct {
	ItemID ItemID
	At     time.Time
	Cause  error
}

func (e *ReplayFailureError) Error() string {
	return fmt.Sprintf("backdated insert rejected for item %s: replay fails at %s: %v",
		e.ItemID, e.At.Format("2006-01-02"), e.Cause)
}

func (e *ReplayFailureError) Unwrap() error { return ErrBackdatedReplayFailed }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid caller input
// rather than an engine or storage fault.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidTransactionSign) ||
		errors.Is(err, ErrInsufficientStock) ||
		errors.Is(err, ErrOverIssue) ||
		errors.Is(err, ErrBackdatedReplayFailed) ||
		errors.Is(err, ErrMissingUnitCost) ||
		errors.Is(err, ErrItemInactive) ||
		errors.Is(err, ErrItemExists) ||
		errors.Is(err, ErrInvalidMethod) ||
		errors.Is(err, ErrInvalidTxType) ||
		errors.Is(err, ErrInvalidItem)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrItemNotFound)
}

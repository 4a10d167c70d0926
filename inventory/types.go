/*
Package inventory provides the core inventory valuation engine.

PURPOSE:
  This package contains the item ledger and costing-method logic for
  stock-tracked items. Every quantity and cost figure is derived from an
  append-only transaction log: balance, open lots, average cost and COGS
  are all reconstructible by replaying history.

KEY CONCEPTS IN THIS FILE (types.go):
  - Item: A stock-tracked catalog item with its costing method
  - Transaction: An immutable ledger row (receipt, issue, adjustment, ...)
  - Lot: The unconsumed quantity/cost remainder of a single receipt
  - SourceRef: The business document that caused a transaction

DESIGN PRINCIPLES:
  1. Immutability: Ledger rows are never edited; corrections are new rows
  2. Precision: Uses decimal.Decimal to avoid floating-point errors
  3. Replayability: Lot and average state is derived, never authoritative
  4. Auditability: Every row carries its source document reference

SEE ALSO:
  - valuation.go: FIFO/LIFO/weighted-average replay logic
  - ledger.go: Validated append path and queries
  - store.go: Persistence interface
*/
package inventory

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type ItemID string

// =============================================================================
// COSTING METHOD - Fixed per item at enrollment
// =============================================================================

// CostMethod selects how issue costs and stock value are derived for an item.
// The method is chosen when the item is enrolled and never changes mid-history;
// the only way to switch is an opening-balance reset, which starts a fresh
// ledger epoch.
type CostMethod string

const (
	MethodFIFO            CostMethod = "fifo"
	MethodLIFO            CostMethod = "lifo"
	MethodWeightedAverage CostMethod = "weighted_average"
)

func (m CostMethod) Valid() bool {
	switch m {
	case MethodFIFO, MethodLIFO, MethodWeightedAverage:
		return true
	}
	return false
}

// UsesLots reports whether the method tracks per-receipt lots.
func (m CostMethod) UsesLots() bool {
	return m == MethodFIFO || m == MethodLIFO
}

// =============================================================================
// TRANSACTION TYPES
// =============================================================================

type TxType string

const (
	// TxOpening seeds a ledger epoch with a starting balance.
	TxOpening TxType = "opening"

	// TxReceipt records stock entering at a known unit cost (purchase, production).
	TxReceipt TxType = "receipt"

	// TxIssue records stock leaving (sale, consumption in production).
	TxIssue TxType = "issue"

	// TxAdjustment records a manual correction. Sign decides whether it
	// behaves like a receipt (positive) or an issue (negative).
	TxAdjustment TxType = "adjustment"

	// TxTransfer records stock leaving for another location. The receiving
	// side books its own receipt.
	TxTransfer TxType = "transfer"

	// TxReturn records stock coming back in (customer return).
	TxReturn TxType = "return"
)

func (t TxType) Valid() bool {
	switch t {
	case TxOpening, TxReceipt, TxIssue, TxAdjustment, TxTransfer, TxReturn:
		return true
	}
	return false
}

// SignAllowed reports whether a quantity sign is legal for this type.
// Receipts, returns and openings add stock; issues and transfers remove it;
// adjustments go either way.
func (t TxType) SignAllowed(qty decimal.Decimal) bool {
	switch t {
	case TxOpening, TxReceipt, TxReturn:
		return !qty.IsNegative()
	case TxIssue, TxTransfer:
		return !qty.IsPositive()
	case TxAdjustment:
		return true
	}
	return false
}

// AddsValue reports whether a row of this type and quantity brings stock
// (and therefore cost) into the ledger. Value-adding rows require a unit
// cost from the caller; consuming rows have their cost derived by the
// valuation engine.
func (t TxType) AddsValue(qty decimal.Decimal) bool {
	switch t {
	case TxOpening, TxReceipt, TxReturn:
		return true
	case TxAdjustment:
		return qty.IsPositive()
	}
	return false
}

// =============================================================================
// SOURCE REFERENCE - The document behind a ledger row
// =============================================================================

// SourceRef points at the business document (invoice, GRN, delivery note...)
// that produced a transaction.
type SourceRef struct {
	DocType string
	DocID   string
}

// =============================================================================
// TRANSACTION - Immutable ledger row
// =============================================================================

// Transaction is one row of an item's append-only ledger.
//
// Rows for an item are totally ordered by (Date, Seq). Seq is the per-item
// insertion sequence assigned by the store, so two rows on the same date
// keep their insertion order.
//
// BalanceQty, UnitCost (for consuming rows) and TotalCost are DERIVED
// snapshots of the replay at the time the row was accepted. A backdated
// insert rewrites the snapshots of later rows; the facts (type, quantity,
// date, source) are never touched.
type Transaction struct {
	ID     string
	ItemID ItemID
	Epoch  int
	Type   TxType

	Date time.Time
	Seq  int64

	Quantity decimal.Decimal // signed
	UnitCost decimal.Decimal // given for value-adding rows, derived for issues
	TotalCost decimal.Decimal // always >= 0

	// Running balance after this row.
	BalanceQty decimal.Decimal

	Source    SourceRef
	CreatedAt time.Time
}

// Before reports whether the row sorts before other in ledger order.
func (tx Transaction) Before(other Transaction) bool {
	if tx.Date.Equal(other.Date) {
		return tx.Seq < other.Seq
	}
	return tx.Date.Before(other.Date)
}

// =============================================================================
// ITEM - Stock-tracked catalog item
// =============================================================================

// Item is the per-item configuration plus cached snapshot columns.
//
// QuantityOnHand, AverageCost and LastPurchasePrice are caches of the
// replay result, rebuilt on every accepted append. They are never read as
// a source of truth by the engine itself.
type Item struct {
	ID     ItemID
	Name   string
	Method CostMethod

	// Snapshot columns (derived).
	QuantityOnHand    decimal.Decimal
	AverageCost       decimal.Decimal
	LastPurchasePrice decimal.Decimal

	// Reorder thresholds for replenishment reporting.
	ReorderLevel decimal.Decimal
	ReorderQty   decimal.Decimal

	// AllowNegative is the backorder policy: when true, issues may drive
	// the balance below zero.
	AllowNegative bool

	// Active is false for soft-deactivated items. History stays queryable;
	// new appends are rejected.
	Active bool

	// Epoch increments on each opening-balance reset. Replay only considers
	// rows of the current epoch.
	Epoch int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// BelowReorder reports whether the on-hand snapshot has crossed the
// reorder threshold. Items without a threshold never report true.
func (it Item) BelowReorder() bool {
	if it.ReorderLevel.IsZero() {
		return false
	}
	return it.QuantityOnHand.LessThanOrEqual(it.ReorderLevel)
}

// =============================================================================
// LOT - Derived open-lot state (FIFO/LIFO only)
// =============================================================================

// Lot is the unconsumed remainder of a single value-adding row.
// Lots are disposable: they exist only inside a replay result.
type Lot struct {
	Qty      decimal.Decimal
	UnitCost decimal.Decimal
	Date     time.Time
	Seq      int64
}

// Value returns Qty x UnitCost.
func (l Lot) Value() decimal.Decimal {
	return l.Qty.Mul(l.UnitCost)
}

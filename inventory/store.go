/*
store.go - Persistence interface for items and ledger rows

PURPOSE:
  Defines the contract between the ledger engine and storage. The engine
  only requires ordered read/append on the transaction log plus item
  snapshot upserts - not a specific database.

APPEND-ONLY CONTRACT:
  There is no UpdateTransaction or DeleteTransaction. The single
  concession is BalanceCorrection: a backdated insert rewrites the
  DERIVED snapshot columns (balance, derived cost) of later rows, in the
  same atomic write as the insert. The recorded facts never change.

IMPLEMENTATIONS:
  - store/sqlite: production SQLite store (shared with costing)
  - inventory/store: in-memory store for tests
*/
package inventory

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// BalanceCorrection rewrites the derived snapshot columns of an existing
// row after a backdated insert shifted history beneath it.
type BalanceCorrection struct {
	TxID       string
	BalanceQty decimal.Decimal
	UnitCost   decimal.Decimal
	TotalCost  decimal.Decimal
}

// Store handles persistence of items and their transaction logs.
type Store interface {
	// SaveItem inserts or updates an item row.
	SaveItem(ctx context.Context, item Item) error

	// GetItem returns an item or ErrItemNotFound.
	GetItem(ctx context.Context, id ItemID) (Item, error)

	// ListItems returns all items, active and inactive.
	ListItems(ctx context.Context) ([]Item, error)

	// NextSeq returns the next insertion sequence for an item. Sequences
	// are strictly increasing per item.
	NextSeq(ctx context.Context, id ItemID) (int64, error)

	// AppendTransaction persists a row and applies the given snapshot
	// corrections atomically. Either everything lands or nothing does.
	AppendTransaction(ctx context.Context, tx Transaction, corrections []BalanceCorrection) error

	// Transactions returns all rows for an item ordered by (date, seq).
	Transactions(ctx context.Context, id ItemID) ([]Transaction, error)

	// TransactionsInRange returns rows with date in [from, to], ordered
	// by (date, seq).
	TransactionsInRange(ctx context.Context, id ItemID, from, to time.Time) ([]Transaction, error)
}

/*
valuation.go - Strategy-selected cost derivation (FIFO / LIFO / WAC)

PURPOSE:
  Derives unit cost, open lots, stock value and COGS for an item by
  replaying its ordered transaction log. Replay is a pure function: the
  same log always produces the same state, which is what makes backdated
  inserts safe to validate before anything is written.

STRATEGIES:
  WeightedAverage: each value-adding row re-blends the average;
                   issues consume at the current average.
  FIFO:            issues consume the oldest open lot first, splitting
                   a lot when it holds more than needed.
  LIFO:            identical mechanics, newest lot first.

  Adjustments participate exactly like receipts (positive) or issues
  (negative) for lot formation and consumption.

DERIVED, DISPOSABLE STATE:
  The State returned here is never persisted as truth. Item snapshot
  columns and per-row balance/cost snapshots are caches of this replay,
  rebuilt whenever history changes shape.

SEE ALSO:
  - ledger.go: calls Replay on every append
  - types.go: Lot, Transaction
*/
package inventory

import (
	"time"

	"github.com/shopspring/decimal"
)

// costScale is the rounding applied to derived unit costs and values.
// Four decimal places, matching the precision the ledger stores.
const costScale = 4

// =============================================================================
// STATE - Result of replaying an item's ledger
// =============================================================================

// State is the derived valuation state of an item after replaying its
// current-epoch log.
type State struct {
	Method CostMethod

	// Balance after the last row.
	Qty decimal.Decimal

	// Blended average cost. For lot methods this is value/qty when stock
	// is on hand (the "safe" unit cost), zero otherwise.
	AvgCost decimal.Decimal

	// Open lots in receipt order. Empty for WeightedAverage.
	Lots []Lot

	// Unit cost of the most recent value-adding row. Used as the fallback
	// cost basis when backorder drives lot methods negative.
	LastReceiptCost decimal.Decimal
}

// Value returns the current stock value: qty x average for WAC, sum of
// open lot values for FIFO/LIFO.
func (s *State) Value() decimal.Decimal {
	if s.Method.UsesLots() {
		total := decimal.Zero
		for _, l := range s.Lots {
			total = total.Add(l.Value())
		}
		return total
	}
	return s.Qty.Mul(s.AvgCost)
}

// RowOutcome is the derived snapshot for a single replayed row.
type RowOutcome struct {
	TxID       string
	Type       TxType
	Date       time.Time
	BalanceQty decimal.Decimal
	UnitCost   decimal.Decimal
	TotalCost  decimal.Decimal
}

// =============================================================================
// REPLAY - The single source of every derived number
// =============================================================================

// Replay folds the ordered rows into valuation state. It returns one
// outcome per input row, in the same order.
//
// Rows must already be sorted by (date, seq) and belong to one epoch.
// The first negative balance (or lot exhaustion) aborts the replay with
// an InsufficientStockError or OverIssueError pinned to the offending
// row's date, unless allowNegative is set.
func Replay(itemID ItemID, method CostMethod, rows []Transaction, allowNegative bool) (*State, []RowOutcome, error) {
	if !method.Valid() {
		return nil, nil, ErrInvalidMethod
	}

	st := &State{Method: method, Qty: decimal.Zero, AvgCost: decimal.Zero}
	outcomes := make([]RowOutcome, 0, len(rows))

	for _, row := range rows {
		out := RowOutcome{TxID: row.ID, Type: row.Type, Date: row.Date}

		if row.Quantity.IsZero() {
			// Zero-quantity rows move no stock and no cost.
			out.BalanceQty = st.Qty
			outcomes = append(outcomes, out)
			continue
		}

		if row.Type.AddsValue(row.Quantity) {
			applyInbound(st, row)
			out.UnitCost = row.UnitCost
			out.TotalCost = row.Quantity.Mul(row.UnitCost).Round(costScale)
		} else {
			unitCost, totalCost, err := applyOutbound(st, itemID, row, allowNegative)
			if err != nil {
				return nil, nil, err
			}
			out.UnitCost = unitCost
			out.TotalCost = totalCost
		}

		out.BalanceQty = st.Qty
		outcomes = append(outcomes, out)
	}

	if st.Method.UsesLots() {
		st.AvgCost = safeUnitCost(st.Value(), st.Qty)
	}
	return st, outcomes, nil
}

// applyInbound books a value-adding row: a new lot for FIFO/LIFO, a
// re-blended average for WAC.
func applyInbound(st *State, row Transaction) {
	qty := row.Quantity

	if st.Method.UsesLots() {
		st.Lots = append(st.Lots, Lot{
			Qty:      qty,
			UnitCost: row.UnitCost,
			Date:     row.Date,
			Seq:      row.Seq,
		})
	} else {
		// new_average = (old_qty*old_avg + qty*cost) / (old_qty + qty)
		newQty := st.Qty.Add(qty)
		switch {
		case !st.Qty.IsPositive():
			// Receipt while at or below zero restarts the average.
			st.AvgCost = row.UnitCost
		case newQty.IsPositive():
			blended := st.Qty.Mul(st.AvgCost).Add(qty.Mul(row.UnitCost))
			st.AvgCost = blended.Div(newQty).Round(costScale)
		}
	}

	st.Qty = st.Qty.Add(qty)
	st.LastReceiptCost = row.UnitCost
}

// applyOutbound consumes stock for a negative row and returns the derived
// (unitCost, totalCost) pair.
func applyOutbound(st *State, itemID ItemID, row Transaction, allowNegative bool) (decimal.Decimal, decimal.Decimal, error) {
	need := row.Quantity.Neg() // positive

	if !st.Method.UsesLots() {
		remaining := st.Qty.Sub(need)
		if remaining.IsNegative() && !allowNegative {
			return decimal.Zero, decimal.Zero, &InsufficientStockError{
				ItemID:    itemID,
				Available: st.Qty,
				Requested: need,
			}
		}
		st.Qty = remaining
		total := need.Mul(st.AvgCost).Round(costScale)
		return st.AvgCost, total, nil
	}

	// FIFO/LIFO: walk the lot queue.
	totalCost := decimal.Zero
	left := need

	for !left.IsZero() && len(st.Lots) > 0 {
		idx := 0
		if st.Method == MethodLIFO {
			idx = len(st.Lots) - 1
		}
		lot := &st.Lots[idx]

		take := lot.Qty
		if take.GreaterThan(left) {
			take = left
		}
		totalCost = totalCost.Add(take.Mul(lot.UnitCost))
		lot.Qty = lot.Qty.Sub(take)
		left = left.Sub(take)

		if lot.Qty.IsZero() {
			st.Lots = append(st.Lots[:idx], st.Lots[idx+1:]...)
		}
	}

	if !left.IsZero() {
		if !allowNegative {
			return decimal.Zero, decimal.Zero, &OverIssueError{
				ItemID:    itemID,
				OpenQty:   need.Sub(left),
				Requested: need,
			}
		}
		// Backorder: the uncovered remainder is costed at the most recent
		// receipt cost so the shortfall still carries a defensible basis.
		totalCost = totalCost.Add(left.Mul(st.LastReceiptCost))
	}

	st.Qty = st.Qty.Sub(need)
	totalCost = totalCost.Round(costScale)
	return safeUnitCost(totalCost, need), totalCost, nil
}

// safeUnitCost divides value by qty, returning zero instead of dividing
// by zero.
func safeUnitCost(value, qty decimal.Decimal) decimal.Decimal {
	if qty.IsZero() {
		return decimal.Zero
	}
	return value.Div(qty).Round(costScale)
}

// =============================================================================
// COGS - Cost of goods sold over a date range
// =============================================================================

// CostOfGoodsSold sums the issue-cost contributions of Issue rows dated
// in [from, to]. The whole epoch is replayed so the figure reflects the
// lots/averages that were actually consumed, not current prices.
func CostOfGoodsSold(itemID ItemID, method CostMethod, rows []Transaction, allowNegative bool, from, to time.Time) (decimal.Decimal, error) {
	_, outcomes, err := Replay(itemID, method, rows, allowNegative)
	if err != nil {
		return decimal.Zero, err
	}

	total := decimal.Zero
	for _, out := range outcomes {
		if out.Type != TxIssue {
			continue
		}
		if out.Date.Before(from) || out.Date.After(to) {
			continue
		}
		total = total.Add(out.TotalCost)
	}
	return total, nil
}

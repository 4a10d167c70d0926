package inventory_test

import (
	"context"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/costing-engine/inventory"
	invstore "github.com/warp/costing-engine/inventory/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestLedger() (*inventory.Ledger, *invstore.Memory) {
	mem := invstore.NewMemory()
	return inventory.NewLedger(mem, zerolog.Nop()), mem
}

func enroll(t *testing.T, l *inventory.Ledger, id string, method inventory.CostMethod) inventory.Item {
	t.Helper()
	item, err := l.EnrollItem(context.Background(), inventory.EnrollInput{
		ID:     inventory.ItemID(id),
		Name:   id,
		Method: method,
	})
	require.NoError(t, err)
	return item
}

func appendRow(t *testing.T, l *inventory.Ledger, id string, txType inventory.TxType, d int, qty string, unitCost string) inventory.Transaction {
	t.Helper()
	in := inventory.AppendInput{
		ItemID:   inventory.ItemID(id),
		Type:     txType,
		Quantity: dec(qty),
		Date:     day(d),
		Source:   inventory.SourceRef{DocType: "TEST", DocID: "t-1"},
	}
	if unitCost != "" {
		c := dec(unitCost)
		in.UnitCost = &c
	}
	tx, err := l.Append(context.Background(), in)
	require.NoError(t, err)
	return tx
}

// =============================================================================
// VALIDATION - Rejected before any write
// =============================================================================

func TestLedger_InvalidSign_RejectedPreWrite(t *testing.T) {
	// GIVEN: an enrolled item
	// WHEN: appending a negative receipt
	// THEN: InvalidTransactionSign and the ledger stays empty
	l, mem := newTestLedger()
	enroll(t, l, "thread-black", inventory.MethodFIFO)

	cost := dec("2")
	_, err := l.Append(context.Background(), inventory.AppendInput{
		ItemID:   "thread-black",
		Type:     inventory.TxReceipt,
		Quantity: dec("-5"),
		UnitCost: &cost,
		Date:     day(1),
	})
	assert.ErrorIs(t, err, inventory.ErrInvalidTransactionSign)

	rows, err := mem.Transactions(context.Background(), "thread-black")
	require.NoError(t, err)
	assert.Empty(t, rows, "no partial write on validation failure")
}

func TestLedger_PositiveIssue_Rejected(t *testing.T) {
	l, _ := newTestLedger()
	enroll(t, l, "thread-black", inventory.MethodFIFO)

	_, err := l.Append(context.Background(), inventory.AppendInput{
		ItemID:   "thread-black",
		Type:     inventory.TxIssue,
		Quantity: dec("5"),
		Date:     day(1),
	})
	assert.ErrorIs(t, err, inventory.ErrInvalidTransactionSign)
}

func TestLedger_ValueAddingWithoutCost_Rejected(t *testing.T) {
	// Receipts must carry a unit cost; issues must not need one.
	l, _ := newTestLedger()
	enroll(t, l, "zipper-9in", inventory.MethodWeightedAverage)

	_, err := l.Append(context.Background(), inventory.AppendInput{
		ItemID:   "zipper-9in",
		Type:     inventory.TxReceipt,
		Quantity: dec("10"),
		Date:     day(1),
	})
	assert.ErrorIs(t, err, inventory.ErrMissingUnitCost)
}

func TestLedger_AppendToInactiveItem_Rejected(t *testing.T) {
	l, _ := newTestLedger()
	enroll(t, l, "button-4h", inventory.MethodFIFO)
	require.NoError(t, l.Deactivate(context.Background(), "button-4h"))

	cost := dec("1")
	_, err := l.Append(context.Background(), inventory.AppendInput{
		ItemID:   "button-4h",
		Type:     inventory.TxReceipt,
		Quantity: dec("10"),
		UnitCost: &cost,
		Date:     day(1),
	})
	assert.ErrorIs(t, err, inventory.ErrItemInactive)
}

// =============================================================================
// SNAPSHOT MAINTENANCE
// =============================================================================

func TestLedger_AppendUpdatesItemSnapshot(t *testing.T) {
	// GIVEN: receipts at 5 and 7
	// THEN: quantity_on_hand, average_cost and last_purchase_price track
	l, _ := newTestLedger()
	enroll(t, l, "fabric-denim", inventory.MethodWeightedAverage)

	appendRow(t, l, "fabric-denim", inventory.TxReceipt, 1, "10", "5")
	appendRow(t, l, "fabric-denim", inventory.TxReceipt, 2, "10", "7")

	item, err := l.Item(context.Background(), "fabric-denim")
	require.NoError(t, err)
	assert.True(t, item.QuantityOnHand.Equal(dec("20")))
	assert.True(t, item.AverageCost.Equal(dec("6")))
	assert.True(t, item.LastPurchasePrice.Equal(dec("7")))

	appendRow(t, l, "fabric-denim", inventory.TxIssue, 3, "-5", "")
	item, err = l.Item(context.Background(), "fabric-denim")
	require.NoError(t, err)
	assert.True(t, item.QuantityOnHand.Equal(dec("15")))
	assert.True(t, item.LastPurchasePrice.Equal(dec("7")), "issues never touch last purchase price")
}

func TestLedger_QuantityOnHand_EqualsSignedSum(t *testing.T) {
	// INVARIANT: quantity_on_hand == sum of signed quantities, always.
	l, _ := newTestLedger()
	enroll(t, l, "fabric-denim", inventory.MethodFIFO)

	appendRow(t, l, "fabric-denim", inventory.TxOpening, 1, "100", "3")
	appendRow(t, l, "fabric-denim", inventory.TxIssue, 2, "-30", "")
	appendRow(t, l, "fabric-denim", inventory.TxAdjustment, 3, "5", "4")
	appendRow(t, l, "fabric-denim", inventory.TxReturn, 4, "2", "3")
	appendRow(t, l, "fabric-denim", inventory.TxTransfer, 5, "-10", "")

	rows, err := l.Transactions(context.Background(), "fabric-denim")
	require.NoError(t, err)

	sum := decimal.Zero
	for _, tx := range rows {
		sum = sum.Add(tx.Quantity)
	}

	item, err := l.Item(context.Background(), "fabric-denim")
	require.NoError(t, err)
	assert.True(t, item.QuantityOnHand.Equal(sum), "on hand %s != signed sum %s", item.QuantityOnHand, sum)
	assert.True(t, sum.Equal(dec("67")))

	// And every row's balance snapshot is the running sum.
	running := decimal.Zero
	for _, tx := range rows {
		running = running.Add(tx.Quantity)
		assert.True(t, tx.BalanceQty.Equal(running), "row %s balance %s != running %s", tx.ID, tx.BalanceQty, running)
	}
}

// =============================================================================
// FAILED APPENDS LEAVE THE LEDGER UNCHANGED
// =============================================================================

func TestLedger_OverIssue_LedgerUnchanged(t *testing.T) {
	// GIVEN: 5 on hand without backorder
	// WHEN: issuing 8
	// THEN: OverIssue, and the stored rows are identical before and after
	l, mem := newTestLedger()
	enroll(t, l, "fabric-denim", inventory.MethodFIFO)
	appendRow(t, l, "fabric-denim", inventory.TxReceipt, 1, "5", "10")

	before, err := mem.Transactions(context.Background(), "fabric-denim")
	require.NoError(t, err)

	_, err = l.Append(context.Background(), inventory.AppendInput{
		ItemID:   "fabric-denim",
		Type:     inventory.TxIssue,
		Quantity: dec("-8"),
		Date:     day(2),
	})
	assert.ErrorIs(t, err, inventory.ErrOverIssue)

	after, err := mem.Transactions(context.Background(), "fabric-denim")
	require.NoError(t, err)
	assert.Equal(t, before, after, "failed issue must not leave any trace")

	item, err := l.Item(context.Background(), "fabric-denim")
	require.NoError(t, err)
	assert.True(t, item.QuantityOnHand.Equal(dec("5")))
}

// =============================================================================
// BACKDATED INSERTS
// =============================================================================

func TestLedger_BackdatedReceipt_RepricesLaterIssues(t *testing.T) {
	// GIVEN: FIFO history receipt(day 5, 10 @ 12) -> issue(day 10, 4)
	// WHEN: a cheaper receipt is backdated to day 1
	// THEN: the issue is repriced against the day-1 lot and all balance
	//       snapshots are rewritten
	l, _ := newTestLedger()
	enroll(t, l, "fabric-denim", inventory.MethodFIFO)
	appendRow(t, l, "fabric-denim", inventory.TxReceipt, 5, "10", "12")
	appendRow(t, l, "fabric-denim", inventory.TxIssue, 10, "-4", "")

	appendRow(t, l, "fabric-denim", inventory.TxReceipt, 1, "6", "8")

	rows, err := l.Transactions(context.Background(), "fabric-denim")
	require.NoError(t, err)
	require.Len(t, rows, 3)

	// Chronological order now starts with the backdated receipt.
	assert.Equal(t, inventory.TxReceipt, rows[0].Type)
	assert.True(t, rows[0].Quantity.Equal(dec("6")))
	assert.True(t, rows[0].BalanceQty.Equal(dec("6")))
	assert.True(t, rows[1].BalanceQty.Equal(dec("16")))

	// The issue now consumes the day-1 lot at 8 instead of the day-5 lot at 12.
	assert.Equal(t, inventory.TxIssue, rows[2].Type)
	assert.True(t, rows[2].TotalCost.Equal(dec("32")), "repriced issue should cost 4*8, got %s", rows[2].TotalCost)
	assert.True(t, rows[2].BalanceQty.Equal(dec("12")))

	state, err := l.State(context.Background(), "fabric-denim")
	require.NoError(t, err)
	require.Len(t, state.Lots, 2)
	assert.True(t, state.Lots[0].Qty.Equal(dec("2")), "2 left of the backdated lot")
}

func TestLedger_BackdatedIssue_NegativeHistory_Rejected(t *testing.T) {
	// GIVEN: receipt(day 5, 10 @ 10) -> issue(day 10, 8)
	// WHEN: backdating an issue of 5 to day 2, before any stock existed
	// THEN: BackdatedInsertReplayFailure and every existing row is untouched
	l, mem := newTestLedger()
	enroll(t, l, "fabric-denim", inventory.MethodFIFO)
	appendRow(t, l, "fabric-denim", inventory.TxReceipt, 5, "10", "10")
	appendRow(t, l, "fabric-denim", inventory.TxIssue, 10, "-8", "")

	before, err := mem.Transactions(context.Background(), "fabric-denim")
	require.NoError(t, err)

	_, err = l.Append(context.Background(), inventory.AppendInput{
		ItemID:   "fabric-denim",
		Type:     inventory.TxIssue,
		Quantity: dec("-5"),
		Date:     day(2),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, inventory.ErrBackdatedReplayFailed)

	var replayErr *inventory.ReplayFailureError
	require.ErrorAs(t, err, &replayErr)
	assert.Equal(t, day(2), replayErr.At)

	after, err := mem.Transactions(context.Background(), "fabric-denim")
	require.NoError(t, err)
	assert.Equal(t, before, after, "rejected backdated insert must change nothing")
}

func TestLedger_BackdatedIssue_IntermediateShortfall_Rejected(t *testing.T) {
	// GIVEN: receipt(day 1, 10) -> issue(day 5, 8) leaving 2
	// WHEN: backdating an issue of 5 to day 3
	// THEN: replay hits -3 at day 5 and the insert is rejected
	l, _ := newTestLedger()
	enroll(t, l, "fabric-denim", inventory.MethodWeightedAverage)
	appendRow(t, l, "fabric-denim", inventory.TxReceipt, 1, "10", "5")
	appendRow(t, l, "fabric-denim", inventory.TxIssue, 5, "-8", "")

	_, err := l.Append(context.Background(), inventory.AppendInput{
		ItemID:   "fabric-denim",
		Type:     inventory.TxIssue,
		Quantity: dec("-5"),
		Date:     day(3),
	})
	assert.ErrorIs(t, err, inventory.ErrBackdatedReplayFailed)
}

// =============================================================================
// OPENING BALANCE RESET - Fresh epoch, only sanctioned method switch
// =============================================================================

func TestLedger_ResetOpeningBalance_StartsFreshEpoch(t *testing.T) {
	// GIVEN: a WAC item with history
	// WHEN: resetting the opening balance with a method switch to FIFO
	// THEN: valuation reflects only the new epoch; old rows stay on record
	l, _ := newTestLedger()
	enroll(t, l, "fabric-denim", inventory.MethodWeightedAverage)
	appendRow(t, l, "fabric-denim", inventory.TxReceipt, 1, "10", "5")
	appendRow(t, l, "fabric-denim", inventory.TxIssue, 2, "-4", "")

	_, err := l.ResetOpeningBalance(context.Background(), inventory.ResetInput{
		ItemID:   "fabric-denim",
		Quantity: dec("6"),
		UnitCost: dec("5.5"),
		Date:     day(10),
		Method:   inventory.MethodFIFO,
	})
	require.NoError(t, err)

	item, err := l.Item(context.Background(), "fabric-denim")
	require.NoError(t, err)
	assert.Equal(t, inventory.MethodFIFO, item.Method)
	assert.Equal(t, 2, item.Epoch)
	assert.True(t, item.QuantityOnHand.Equal(dec("6")))

	state, err := l.State(context.Background(), "fabric-denim")
	require.NoError(t, err)
	require.Len(t, state.Lots, 1, "only the opening lot participates")
	assert.True(t, state.Lots[0].Qty.Equal(dec("6")))
	assert.True(t, state.Value().Equal(dec("33")))

	// Full history is still queryable across epochs.
	rows, err := l.Transactions(context.Background(), "fabric-denim")
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

// =============================================================================
// QUERIES
// =============================================================================

func TestLedger_CurrentValue_And_COGS(t *testing.T) {
	l, _ := newTestLedger()
	enroll(t, l, "fabric-denim", inventory.MethodFIFO)
	appendRow(t, l, "fabric-denim", inventory.TxReceipt, 1, "5", "10")
	appendRow(t, l, "fabric-denim", inventory.TxReceipt, 2, "5", "12")
	appendRow(t, l, "fabric-denim", inventory.TxIssue, 3, "-7", "")

	value, err := l.CurrentValue(context.Background(), "fabric-denim")
	require.NoError(t, err)
	assert.True(t, value.Equal(dec("36")), "remaining lot (3 @ 12), got %s", value)

	cogs, err := l.CostOfGoodsSold(context.Background(), "fabric-denim", day(1), day(31))
	require.NoError(t, err)
	assert.True(t, cogs.Equal(dec("74")))
}

func TestLedger_TransactionsInRange(t *testing.T) {
	l, _ := newTestLedger()
	enroll(t, l, "fabric-denim", inventory.MethodFIFO)
	appendRow(t, l, "fabric-denim", inventory.TxReceipt, 1, "5", "10")
	appendRow(t, l, "fabric-denim", inventory.TxReceipt, 5, "5", "12")
	appendRow(t, l, "fabric-denim", inventory.TxIssue, 9, "-7", "")

	rows, err := l.TransactionsInRange(context.Background(), "fabric-denim", day(2), day(9))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, inventory.TxReceipt, rows[0].Type)
	assert.Equal(t, inventory.TxIssue, rows[1].Type)

	_, err = l.TransactionsInRange(context.Background(), "ghost", day(1), day(9))
	assert.ErrorIs(t, err, inventory.ErrItemNotFound)
}

func TestLedger_BelowReorderLevel(t *testing.T) {
	l, _ := newTestLedger()
	_, err := l.EnrollItem(context.Background(), inventory.EnrollInput{
		ID:           "thread-black",
		Name:         "thread-black",
		Method:       inventory.MethodWeightedAverage,
		ReorderLevel: dec("20"),
		ReorderQty:   dec("100"),
	})
	require.NoError(t, err)
	appendRow(t, l, "thread-black", inventory.TxReceipt, 1, "15", "1")

	low, err := l.BelowReorderLevel(context.Background())
	require.NoError(t, err)
	require.Len(t, low, 1)
	assert.Equal(t, inventory.ItemID("thread-black"), low[0].ID)
}

// =============================================================================
// CONCURRENCY - Per-item serialization
// =============================================================================

func TestLedger_ConcurrentAppends_DifferentItems(t *testing.T) {
	// Appends to independent items run concurrently and each item's
	// balance still equals its own signed sum.
	l, _ := newTestLedger()
	enroll(t, l, "item-a", inventory.MethodWeightedAverage)
	enroll(t, l, "item-b", inventory.MethodWeightedAverage)

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		id := []string{"item-a", "item-b"}[i]
		wg.Add(1)
		go func() {
			defer wg.Done()
			for d := 1; d <= 20; d++ {
				cost := dec("2")
				_, err := l.Append(context.Background(), inventory.AppendInput{
					ItemID:   inventory.ItemID(id),
					Type:     inventory.TxReceipt,
					Quantity: dec("1"),
					UnitCost: &cost,
					Date:     day(d%28 + 1),
				})
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()

	for _, id := range []string{"item-a", "item-b"} {
		item, err := l.Item(context.Background(), inventory.ItemID(id))
		require.NoError(t, err)
		assert.True(t, item.QuantityOnHand.Equal(dec("20")), "%s should hold 20, got %s", id, item.QuantityOnHand)
	}
}

func TestLedger_ConcurrentAppends_SameItem_Serialized(t *testing.T) {
	// 50 concurrent single-unit receipts on one item must all land:
	// no lost updates on the snapshot.
	l, _ := newTestLedger()
	enroll(t, l, "item-a", inventory.MethodWeightedAverage)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cost := dec("3")
			_, err := l.Append(context.Background(), inventory.AppendInput{
				ItemID:   "item-a",
				Type:     inventory.TxReceipt,
				Quantity: dec("1"),
				UnitCost: &cost,
				Date:     day(1),
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	item, err := l.Item(context.Background(), "item-a")
	require.NoError(t, err)
	assert.True(t, item.QuantityOnHand.Equal(dec("50")), "got %s", item.QuantityOnHand)
}

/*
ledger.go - Validated append path and queries for the item ledger

PURPOSE:
  The Ledger is the only write path into an item's transaction log.
  Every append runs the full read-balance -> validate -> replay -> write
  sequence under a per-item lock, so balance and lot state always reflect
  strict chronological replay.

APPEND FLOW:
  1. Lock the item (appends to other items proceed concurrently)
  2. Validate sign against type, unit cost presence
  3. Replay the log with the candidate row spliced in chronological place
  4. Reject on any negative balance / exhausted lots (typed errors)
  5. Persist the row; a backdated insert also rewrites the derived
     snapshots of every row after the splice point, atomically
  6. Refresh the item's snapshot columns

BACKDATED INSERTS:
  A row dated earlier than the latest existing row is the expensive path:
  the whole epoch is replayed with the row in place. If replay would force
  a negative balance at ANY point in history the insert is rejected with
  ReplayFailureError and nothing changes.

CORRECTIONS:
  Rows are never edited or deleted. A mistake is corrected by appending a
  compensating row (e.g. a negative adjustment against a fat-fingered
  receipt).

SEE ALSO:
  - valuation.go: Replay, CostOfGoodsSold
  - store.go: persistence contract
*/
package inventory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// =============================================================================
// LEDGER - Stateless service over an injected Store
// =============================================================================

// Ledger validates and appends transactions and answers valuation queries.
// It holds no domain state of its own; everything derives from the store.
type Ledger struct {
	store Store
	log   zerolog.Logger

	// Per-item serialization. Appends on different items are independent.
	mu    sync.Mutex
	locks map[ItemID]*sync.Mutex
}

func NewLedger(store Store, log zerolog.Logger) *Ledger {
	return &Ledger{
		store: store,
		log:   log.With().Str("component", "inventory.ledger").Logger(),
		locks: make(map[ItemID]*sync.Mutex),
	}
}

// lockItem returns the mutex guarding a single item's append path.
func (l *Ledger) lockItem(id ItemID) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.locks[id]
	if !ok {
		m = &sync.Mutex{}
		l.locks[id] = m
	}
	return m
}

// =============================================================================
// ITEM ENROLLMENT
// =============================================================================

// EnrollInput configures an item for stock tracking.
type EnrollInput struct {
	ID            ItemID
	Name          string
	Method        CostMethod
	ReorderLevel  decimal.Decimal
	ReorderQty    decimal.Decimal
	AllowNegative bool
}

// EnrollItem creates an item. The costing method is fixed here for the
// item's entire history; only ResetOpeningBalance may change it.
func (l *Ledger) EnrollItem(ctx context.Context, in EnrollInput) (Item, error) {
	if in.ID == "" {
		return Item{}, fmt.Errorf("%w: empty item id", ErrInvalidItem)
	}
	if !in.Method.Valid() {
		return Item{}, ErrInvalidMethod
	}
	if _, err := l.store.GetItem(ctx, in.ID); err == nil {
		return Item{}, ErrItemExists
	}

	now := time.Now().UTC()
	item := Item{
		ID:                in.ID,
		Name:              in.Name,
		Method:            in.Method,
		QuantityOnHand:    decimal.Zero,
		AverageCost:       decimal.Zero,
		LastPurchasePrice: decimal.Zero,
		ReorderLevel:      in.ReorderLevel,
		ReorderQty:        in.ReorderQty,
		AllowNegative:     in.AllowNegative,
		Active:            true,
		Epoch:             1,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := l.store.SaveItem(ctx, item); err != nil {
		return Item{}, err
	}

	l.log.Info().Str("item", string(in.ID)).Str("method", string(in.Method)).Msg("item enrolled")
	return item, nil
}

// Deactivate soft-deactivates an item. Its history remains queryable;
// further appends fail with ErrItemInactive. Items referenced by
// transactions are never deleted.
func (l *Ledger) Deactivate(ctx context.Context, id ItemID) error {
	lock := l.lockItem(id)
	lock.Lock()
	defer lock.Unlock()

	item, err := l.store.GetItem(ctx, id)
	if err != nil {
		return err
	}
	item.Active = false
	item.UpdatedAt = time.Now().UTC()
	return l.store.SaveItem(ctx, item)
}

// Item returns the item record, including its snapshot columns.
func (l *Ledger) Item(ctx context.Context, id ItemID) (Item, error) {
	return l.store.GetItem(ctx, id)
}

// Items returns all enrolled items.
func (l *Ledger) Items(ctx context.Context) ([]Item, error) {
	return l.store.ListItems(ctx)
}

// BelowReorderLevel returns active items whose on-hand snapshot has
// crossed their reorder threshold.
func (l *Ledger) BelowReorderLevel(ctx context.Context) ([]Item, error) {
	items, err := l.store.ListItems(ctx)
	if err != nil {
		return nil, err
	}
	var out []Item
	for _, it := range items {
		if it.Active && it.BelowReorder() {
			out = append(out, it)
		}
	}
	return out, nil
}

// =============================================================================
// APPEND - The single write path
// =============================================================================

// AppendInput is one external event entering the ledger.
type AppendInput struct {
	ItemID   ItemID
	Type     TxType
	Quantity decimal.Decimal // signed
	UnitCost *decimal.Decimal
	Date     time.Time
	Source   SourceRef
}

// Append validates and persists one transaction, updating the item
// snapshot on success. Returns the persisted row.
func (l *Ledger) Append(ctx context.Context, in AppendInput) (Transaction, error) {
	lock := l.lockItem(in.ItemID)
	lock.Lock()
	defer lock.Unlock()

	item, err := l.store.GetItem(ctx, in.ItemID)
	if err != nil {
		return Transaction{}, err
	}
	if !item.Active {
		return Transaction{}, ErrItemInactive
	}

	tx, err := l.buildRow(ctx, item, in)
	if err != nil {
		return Transaction{}, err
	}

	rows, err := l.epochRows(ctx, item)
	if err != nil {
		return Transaction{}, err
	}

	backdated := len(rows) > 0 && tx.Date.Before(rows[len(rows)-1].Date)
	candidate, at := splice(rows, tx)

	state, outcomes, err := Replay(item.ID, item.Method, candidate, item.AllowNegative)
	if err != nil {
		if backdated {
			return Transaction{}, &ReplayFailureError{ItemID: item.ID, At: tx.Date, Cause: err}
		}
		return Transaction{}, err
	}

	// Fill the derived snapshot of the new row, and collect corrections
	// for every row the splice shifted.
	tx.BalanceQty = outcomes[at].BalanceQty
	if !tx.Type.AddsValue(tx.Quantity) {
		tx.UnitCost = outcomes[at].UnitCost
	}
	tx.TotalCost = outcomes[at].TotalCost

	var corrections []BalanceCorrection
	for i := at + 1; i < len(outcomes); i++ {
		corrections = append(corrections, BalanceCorrection{
			TxID:       outcomes[i].TxID,
			BalanceQty: outcomes[i].BalanceQty,
			UnitCost:   outcomes[i].UnitCost,
			TotalCost:  outcomes[i].TotalCost,
		})
	}

	if err := l.store.AppendTransaction(ctx, tx, corrections); err != nil {
		return Transaction{}, err
	}

	l.refreshSnapshot(&item, tx, state)
	if err := l.store.SaveItem(ctx, item); err != nil {
		return Transaction{}, err
	}

	l.log.Info().
		Str("item", string(item.ID)).
		Str("type", string(tx.Type)).
		Str("qty", tx.Quantity.String()).
		Bool("backdated", backdated).
		Msg("transaction appended")
	return tx, nil
}

// buildRow validates input and shapes the candidate row. Nothing is
// written here.
func (l *Ledger) buildRow(ctx context.Context, item Item, in AppendInput) (Transaction, error) {
	if !in.Type.Valid() {
		return Transaction{}, ErrInvalidTxType
	}
	if !in.Type.SignAllowed(in.Quantity) {
		return Transaction{}, &InvalidSignError{ItemID: item.ID, Type: in.Type, Quantity: in.Quantity}
	}

	unitCost := decimal.Zero
	if in.Type.AddsValue(in.Quantity) {
		if in.UnitCost == nil || in.UnitCost.IsNegative() {
			return Transaction{}, ErrMissingUnitCost
		}
		unitCost = *in.UnitCost
	}

	seq, err := l.store.NextSeq(ctx, item.ID)
	if err != nil {
		return Transaction{}, err
	}

	date := in.Date
	if date.IsZero() {
		date = time.Now().UTC()
	}

	return Transaction{
		ID:        uuid.NewString(),
		ItemID:    item.ID,
		Epoch:     item.Epoch,
		Type:      in.Type,
		Date:      date.UTC(),
		Seq:       seq,
		Quantity:  in.Quantity,
		UnitCost:  unitCost,
		Source:    in.Source,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// refreshSnapshot rewrites the item's cached columns from the replay state.
func (l *Ledger) refreshSnapshot(item *Item, tx Transaction, state *State) {
	item.QuantityOnHand = state.Qty
	item.AverageCost = state.AvgCost
	if tx.Type == TxReceipt && tx.Quantity.IsPositive() {
		item.LastPurchasePrice = tx.UnitCost
	}
	item.UpdatedAt = time.Now().UTC()
}

// epochRows loads the item's current-epoch log in (date, seq) order.
func (l *Ledger) epochRows(ctx context.Context, item Item) ([]Transaction, error) {
	all, err := l.store.Transactions(ctx, item.ID)
	if err != nil {
		return nil, err
	}
	rows := all[:0:0]
	for _, tx := range all {
		if tx.Epoch == item.Epoch {
			rows = append(rows, tx)
		}
	}
	return rows, nil
}

// splice inserts tx into rows at its chronological position and returns
// the combined slice plus the insertion index.
func splice(rows []Transaction, tx Transaction) ([]Transaction, int) {
	at := len(rows)
	for i, existing := range rows {
		if tx.Before(existing) {
			at = i
			break
		}
	}
	out := make([]Transaction, 0, len(rows)+1)
	out = append(out, rows[:at]...)
	out = append(out, tx)
	out = append(out, rows[at:]...)
	return out, at
}

// =============================================================================
// OPENING BALANCE RESET - The only sanctioned method switch
// =============================================================================

// ResetInput starts a fresh ledger epoch with an opening balance.
type ResetInput struct {
	ItemID   ItemID
	Quantity decimal.Decimal
	UnitCost decimal.Decimal
	Date     time.Time
	Method   CostMethod // optional; empty keeps the current method
	Source   SourceRef
}

// ResetOpeningBalance closes the current epoch and opens a new one seeded
// with the given balance. Prior epochs remain on record but no longer
// participate in valuation. This is the only operation allowed to change
// an item's costing method.
func (l *Ledger) ResetOpeningBalance(ctx context.Context, in ResetInput) (Transaction, error) {
	lock := l.lockItem(in.ItemID)
	lock.Lock()
	defer lock.Unlock()

	item, err := l.store.GetItem(ctx, in.ItemID)
	if err != nil {
		return Transaction{}, err
	}
	if !item.Active {
		return Transaction{}, ErrItemInactive
	}
	if in.Quantity.IsNegative() {
		return Transaction{}, &InvalidSignError{ItemID: item.ID, Type: TxOpening, Quantity: in.Quantity}
	}
	if in.UnitCost.IsNegative() {
		return Transaction{}, ErrMissingUnitCost
	}
	if in.Method != "" && !in.Method.Valid() {
		return Transaction{}, ErrInvalidMethod
	}

	seq, err := l.store.NextSeq(ctx, item.ID)
	if err != nil {
		return Transaction{}, err
	}

	date := in.Date
	if date.IsZero() {
		date = time.Now().UTC()
	}

	item.Epoch++
	if in.Method != "" {
		item.Method = in.Method
	}

	tx := Transaction{
		ID:         uuid.NewString(),
		ItemID:     item.ID,
		Epoch:      item.Epoch,
		Type:       TxOpening,
		Date:       date.UTC(),
		Seq:        seq,
		Quantity:   in.Quantity,
		UnitCost:   in.UnitCost,
		TotalCost:  in.Quantity.Mul(in.UnitCost).Round(costScale),
		BalanceQty: in.Quantity,
		Source:     in.Source,
		CreatedAt:  time.Now().UTC(),
	}
	if err := l.store.AppendTransaction(ctx, tx, nil); err != nil {
		return Transaction{}, err
	}

	item.QuantityOnHand = in.Quantity
	item.AverageCost = in.UnitCost
	item.UpdatedAt = time.Now().UTC()
	if err := l.store.SaveItem(ctx, item); err != nil {
		return Transaction{}, err
	}

	l.log.Info().
		Str("item", string(item.ID)).
		Int("epoch", item.Epoch).
		Str("qty", in.Quantity.String()).
		Msg("opening balance reset")
	return tx, nil
}

// =============================================================================
// QUERIES - Everything downstream consumers read
// =============================================================================

// State replays the current epoch and returns the derived valuation state
// (open lots, average cost, balance).
func (l *Ledger) State(ctx context.Context, id ItemID) (*State, error) {
	item, err := l.store.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}
	rows, err := l.epochRows(ctx, item)
	if err != nil {
		return nil, err
	}
	state, _, err := Replay(item.ID, item.Method, rows, item.AllowNegative)
	return state, err
}

// CurrentValue returns the current stock value of an item.
func (l *Ledger) CurrentValue(ctx context.Context, id ItemID) (decimal.Decimal, error) {
	state, err := l.State(ctx, id)
	if err != nil {
		return decimal.Zero, err
	}
	return state.Value(), nil
}

// CostOfGoodsSold sums issue costs for Issue rows dated in [from, to].
func (l *Ledger) CostOfGoodsSold(ctx context.Context, id ItemID, from, to time.Time) (decimal.Decimal, error) {
	item, err := l.store.GetItem(ctx, id)
	if err != nil {
		return decimal.Zero, err
	}
	rows, err := l.epochRows(ctx, item)
	if err != nil {
		return decimal.Zero, err
	}
	return CostOfGoodsSold(item.ID, item.Method, rows, item.AllowNegative, from, to)
}

// Transactions returns the item's full log (all epochs), oldest first.
func (l *Ledger) Transactions(ctx context.Context, id ItemID) ([]Transaction, error) {
	if _, err := l.store.GetItem(ctx, id); err != nil {
		return nil, err
	}
	return l.store.Transactions(ctx, id)
}

// TransactionsInRange returns an item's history rows dated in [from, to],
// ordered by (date, seq). All epochs are included.
func (l *Ledger) TransactionsInRange(ctx context.Context, id ItemID, from, to time.Time) ([]Transaction, error) {
	if _, err := l.store.GetItem(ctx, id); err != nil {
		return nil, err
	}
	return l.store.TransactionsInRange(ctx, id, from, to)
}

// Package store provides an in-memory inventory.Store for tests and dev.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/warp/costing-engine/inventory"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu    sync.RWMutex
	items map[inventory.ItemID]inventory.Item
	txs   map[inventory.ItemID][]inventory.Transaction
	seqs  map[inventory.ItemID]int64
}

func NewMemory() *Memory {
	return &Memory{
		items: make(map[inventory.ItemID]inventory.Item),
		txs:   make(map[inventory.ItemID][]inventory.Transaction),
		seqs:  make(map[inventory.ItemID]int64),
	}
}

func (m *Memory) SaveItem(_ context.Context, item inventory.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[item.ID] = item
	return nil
}

func (m *Memory) GetItem(_ context.Context, id inventory.ItemID) (inventory.Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	item, ok := m.items[id]
	if !ok {
		return inventory.Item{}, inventory.ErrItemNotFound
	}
	return item, nil
}

func (m *Memory) ListItems(_ context.Context) ([]inventory.Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]inventory.Item, 0, len(m.items))
	for _, item := range m.items {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) NextSeq(_ context.Context, id inventory.ItemID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seqs[id]++
	return m.seqs[id], nil
}

// AppendTransaction inserts the row at its (date, seq) position and applies
// snapshot corrections in one critical section.
func (m *Memory) AppendTransaction(_ context.Context, tx inventory.Transaction, corrections []inventory.BalanceCorrection) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rows := m.txs[tx.ItemID]

	// Binary search for the chronological insertion point.
	i := sort.Search(len(rows), func(i int) bool {
		return tx.Before(rows[i])
	})
	rows = append(rows, inventory.Transaction{})
	copy(rows[i+1:], rows[i:])
	rows[i] = tx
	m.txs[tx.ItemID] = rows

	byID := make(map[string]*inventory.Transaction, len(rows))
	for idx := range rows {
		byID[rows[idx].ID] = &rows[idx]
	}
	for _, c := range corrections {
		row, ok := byID[c.TxID]
		if !ok {
			continue
		}
		row.BalanceQty = c.BalanceQty
		row.UnitCost = c.UnitCost
		row.TotalCost = c.TotalCost
	}
	return nil
}

func (m *Memory) Transactions(_ context.Context, id inventory.ItemID) ([]inventory.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]inventory.Transaction, len(m.txs[id]))
	copy(out, m.txs[id])
	return out, nil
}

func (m *Memory) TransactionsInRange(_ context.Context, id inventory.ItemID, from, to time.Time) ([]inventory.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []inventory.Transaction
	for _, tx := range m.txs[id] {
		if tx.Date.Before(from) || tx.Date.After(to) {
			continue
		}
		out = append(out, tx)
	}
	return out, nil
}

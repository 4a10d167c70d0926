/*
scheduler.go - Background reorder-level monitor

PURPOSE:
  Periodically scans the item catalog for active items at or below their
  reorder level and logs a replenishment warning for each. The API exposes
  the same list on demand via GET /api/items/reorder; the monitor exists
  so low stock shows up in the logs without anyone polling.

DESIGN:
  - Runs a background goroutine with a configurable check interval
  - Purely read-only: never writes to the ledger
  - An item is reported once per crossing; it goes quiet again only
    after stock is replenished above the threshold

CONFIGURATION:
  - CheckInterval: How often to scan (default: 15 minutes)

USAGE:
  monitor := NewReorderMonitor(ledger, logger)
  monitor.Start()
  // ... later
  monitor.Stop()

SEE ALSO:
  - handlers.go: ListReorderItems endpoint (on-demand view)
  - inventory/ledger.go: BelowReorderLevel
*/
package api

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/warp/costing-engine/inventory"
)

// ReorderMonitor periodically reports items below their reorder level.
type ReorderMonitor struct {
	ledger *inventory.Ledger
	log    zerolog.Logger

	// CheckInterval is how often the catalog is scanned.
	CheckInterval time.Duration

	mu       sync.Mutex
	reported map[inventory.ItemID]bool
	stop     chan struct{}
	done     chan struct{}
}

// NewReorderMonitor creates a monitor with the default interval.
func NewReorderMonitor(ledger *inventory.Ledger, log zerolog.Logger) *ReorderMonitor {
	return &ReorderMonitor{
		ledger:        ledger,
		log:           log.With().Str("component", "api.reorder-monitor").Logger(),
		CheckInterval: 15 * time.Minute,
		reported:      make(map[inventory.ItemID]bool),
	}
}

// Start launches the background scan loop. Safe to call once.
func (m *ReorderMonitor) Start() {
	m.stop = make(chan struct{})
	m.done = make(chan struct{})

	go func() {
		defer close(m.done)
		ticker := time.NewTicker(m.CheckInterval)
		defer ticker.Stop()

		m.scan()
		for {
			select {
			case <-ticker.C:
				m.scan()
			case <-m.stop:
				return
			}
		}
	}()

	m.log.Info().Dur("interval", m.CheckInterval).Msg("reorder monitor started")
}

// Stop shuts the loop down and waits for it to finish.
func (m *ReorderMonitor) Stop() {
	if m.stop == nil {
		return
	}
	close(m.stop)
	<-m.done
	m.log.Info().Msg("reorder monitor stopped")
}

// scan runs one pass over the catalog.
func (m *ReorderMonitor) scan() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	low, err := m.ledger.BelowReorderLevel(ctx)
	if err != nil {
		m.log.Error().Err(err).Msg("reorder scan failed")
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	seen := make(map[inventory.ItemID]bool, len(low))
	for _, item := range low {
		seen[item.ID] = true
		if m.reported[item.ID] {
			continue
		}
		m.reported[item.ID] = true
		m.log.Warn().
			Str("item", string(item.ID)).
			Str("on_hand", item.QuantityOnHand.String()).
			Str("reorder_level", item.ReorderLevel.String()).
			Str("reorder_qty", item.ReorderQty.String()).
			Msg("item below reorder level")
	}

	// Replenished items may warn again on their next crossing.
	for id := range m.reported {
		if !seen[id] {
			delete(m.reported, id)
		}
	}
}

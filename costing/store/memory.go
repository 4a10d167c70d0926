// Package store provides an in-memory costing.Store for tests and dev.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/costing-engine/costing"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu       sync.RWMutex
	sheets   map[costing.SheetID]costing.Sheet
	versions map[costing.VersionID]costing.Version
}

func NewMemory() *Memory {
	return &Memory{
		sheets:   make(map[costing.SheetID]costing.Sheet),
		versions: make(map[costing.VersionID]costing.Version),
	}
}

func (m *Memory) SaveSheet(_ context.Context, sheet costing.Sheet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sheets[sheet.ID] = sheet
	return nil
}

func (m *Memory) GetSheet(_ context.Context, id costing.SheetID) (costing.Sheet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sheet, ok := m.sheets[id]
	if !ok {
		return costing.Sheet{}, costing.ErrSheetNotFound
	}
	return sheet, nil
}

func (m *Memory) ListSheets(_ context.Context) ([]costing.Sheet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]costing.Sheet, 0, len(m.sheets))
	for _, s := range m.sheets {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) CreateVersion(_ context.Context, v costing.Version) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// (sheet, number) is the version's identity; a collision means another
	// writer claimed the number first.
	for _, existing := range m.versions {
		if existing.SheetID == v.SheetID && existing.Number == v.Number {
			return costing.ErrConcurrentModification
		}
	}

	v.Revision = 1
	m.versions[v.ID] = v
	return nil
}

func (m *Memory) SaveVersion(_ context.Context, v *costing.Version, expectedRevision int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.versions[v.ID]
	if !ok {
		return costing.ErrVersionNotFound
	}
	if stored.Revision != expectedRevision {
		return costing.ErrConcurrentModification
	}
	v.Revision = expectedRevision + 1
	m.versions[v.ID] = *v
	return nil
}

func (m *Memory) GetVersion(_ context.Context, id costing.VersionID) (costing.Version, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.versions[id]
	if !ok {
		return costing.Version{}, costing.ErrVersionNotFound
	}
	return v, nil
}

func (m *Memory) VersionsBySheet(_ context.Context, id costing.SheetID) ([]costing.Version, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []costing.Version
	for _, v := range m.versions {
		if v.SheetID == id {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

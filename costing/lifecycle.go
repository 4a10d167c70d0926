/*
lifecycle.go - Version state machine and edit operations

PURPOSE:
  Governs the Draft -> Approved / Rejected lifecycle and the Revise path.
  Every mutation is guarded two ways:

  1. Status guard: edits and transitions are legal only from Draft
     (Revise only from Approved). Violations return typed errors.
  2. Optimistic guard: callers pass the Revision they loaded; the store
     rejects the save if someone moved the version underneath them with
     ErrConcurrentModification. The engine never retries - the caller
     reloads and decides.

APPROVAL:
  Approve recomputes totals one last time, rejects an all-zero costing
  (EmptyCosting), then freezes the version. After that the numbers are
  historical record: pricing that quoted them must stay explainable.

REVISION:
  Revise copies an approved version - lines, costs, margin - into a new
  Draft numbered max(sheet)+1. The source stays immutable.
*/
package costing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// =============================================================================
// SERVICE - Stateless lifecycle over an injected Store
// =============================================================================

type Service struct {
	store Store
	log   zerolog.Logger
}

func NewService(store Store, log zerolog.Logger) *Service {
	return &Service{
		store: store,
		log:   log.With().Str("component", "costing.lifecycle").Logger(),
	}
}

// =============================================================================
// SHEET CREATION
// =============================================================================

// CreateSheet creates a sheet for a style together with its first Draft
// version (number 1).
func (s *Service) CreateSheet(ctx context.Context, style, description string) (Sheet, Version, error) {
	now := time.Now().UTC()
	sheet := Sheet{
		ID:          SheetID(uuid.NewString()),
		Style:       style,
		Description: description,
		CreatedAt:   now,
	}
	if err := s.store.SaveSheet(ctx, sheet); err != nil {
		return Sheet{}, Version{}, err
	}

	v := newDraft(sheet.ID, 1, now)
	if err := s.store.CreateVersion(ctx, v); err != nil {
		return Sheet{}, Version{}, err
	}

	s.log.Info().Str("sheet", string(sheet.ID)).Str("style", style).Msg("costing sheet created")
	return sheet, v, nil
}

func newDraft(sheetID SheetID, number int, now time.Time) Version {
	v := Version{
		ID:        VersionID(uuid.NewString()),
		SheetID:   sheetID,
		Number:    number,
		Status:    StatusDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}
	v.Totals = ComputeTotals(&v)
	return v
}

// Sheet returns a sheet by ID.
func (s *Service) Sheet(ctx context.Context, id SheetID) (Sheet, error) {
	return s.store.GetSheet(ctx, id)
}

// Sheets returns all sheets.
func (s *Service) Sheets(ctx context.Context) ([]Sheet, error) {
	return s.store.ListSheets(ctx)
}

// Version returns a version by ID.
func (s *Service) Version(ctx context.Context, id VersionID) (Version, error) {
	return s.store.GetVersion(ctx, id)
}

// Versions returns a sheet's versions ordered by number.
func (s *Service) Versions(ctx context.Context, id SheetID) ([]Version, error) {
	if _, err := s.store.GetSheet(ctx, id); err != nil {
		return nil, err
	}
	return s.store.VersionsBySheet(ctx, id)
}

// =============================================================================
// EDITS - Draft only
// =============================================================================

// LineInput is the caller-facing shape of a line item; Cost is derived
// and therefore absent.
type LineInput struct {
	Name           string
	Rate           decimal.Decimal
	Consumption    decimal.Decimal
	WastagePercent decimal.Decimal
}

// EditLineItems replaces one section's line items on a Draft version and
// recomputes totals. revision is the optimistic marker the caller loaded.
func (s *Service) EditLineItems(ctx context.Context, id VersionID, revision int64, section Section, lines []LineInput) (Version, error) {
	if !section.Valid() {
		return Version{}, ErrInvalidSection
	}
	for _, l := range lines {
		if l.Rate.IsNegative() || l.Consumption.IsNegative() || l.WastagePercent.IsNegative() {
			return Version{}, ErrInvalidLine
		}
	}

	v, err := s.editable(ctx, id)
	if err != nil {
		return Version{}, err
	}

	items := make([]LineItem, 0, len(lines))
	for _, l := range lines {
		items = append(items, LineItem{
			ID:             uuid.NewString(),
			Name:           l.Name,
			Rate:           l.Rate,
			Consumption:    l.Consumption,
			WastagePercent: l.WastagePercent,
		})
	}
	v.setLines(section, items)
	return s.save(ctx, v, revision)
}

// EditCosts replaces a Draft version's direct cost fields and margin and
// recomputes totals.
func (s *Service) EditCosts(ctx context.Context, id VersionID, revision int64, costs DirectCosts) (Version, error) {
	v, err := s.editable(ctx, id)
	if err != nil {
		return Version{}, err
	}
	v.Costs = costs
	return s.save(ctx, v, revision)
}

// editable loads a version and enforces the Draft-only guard.
func (s *Service) editable(ctx context.Context, id VersionID) (Version, error) {
	v, err := s.store.GetVersion(ctx, id)
	if err != nil {
		return Version{}, err
	}
	if !v.Editable() {
		return Version{}, &ImmutableVersionError{VersionID: v.ID, Number: v.Number, Status: v.Status}
	}
	return v, nil
}

func (s *Service) save(ctx context.Context, v Version, revision int64) (Version, error) {
	recompute(&v)
	v.UpdatedAt = time.Now().UTC()
	if err := s.store.SaveVersion(ctx, &v, revision); err != nil {
		return Version{}, err
	}
	return v, nil
}

// =============================================================================
// TRANSITIONS
// =============================================================================

// Approve locks a Draft version. Fails with ErrEmptyCosting when every
// component subtotal is zero - an empty costing prices nothing.
func (s *Service) Approve(ctx context.Context, id VersionID, revision int64, approver string) (Version, error) {
	v, err := s.store.GetVersion(ctx, id)
	if err != nil {
		return Version{}, err
	}
	if v.Status != StatusDraft {
		return Version{}, &ImmutableVersionError{VersionID: v.ID, Number: v.Number, Status: v.Status}
	}

	recompute(&v)
	if v.Totals.AllZero(v.Costs) {
		return Version{}, ErrEmptyCosting
	}

	now := time.Now().UTC()
	v.Status = StatusApproved
	v.ApprovedBy = approver
	v.ApprovedAt = &now
	v.UpdatedAt = now
	if err := s.store.SaveVersion(ctx, &v, revision); err != nil {
		return Version{}, err
	}

	s.log.Info().
		Str("sheet", string(v.SheetID)).
		Int("version", v.Number).
		Str("final_cost", v.Totals.FinalCostPerPiece.String()).
		Msg("costing version approved")
	return v, nil
}

// Reject marks a Draft version rejected. Terminal.
func (s *Service) Reject(ctx context.Context, id VersionID, revision int64, reason string) (Version, error) {
	v, err := s.store.GetVersion(ctx, id)
	if err != nil {
		return Version{}, err
	}
	if v.Status != StatusDraft {
		return Version{}, ErrNotDraft
	}

	v.Status = StatusRejected
	v.RejectedReason = reason
	v.UpdatedAt = time.Now().UTC()
	if err := s.store.SaveVersion(ctx, &v, revision); err != nil {
		return Version{}, err
	}

	s.log.Info().Str("sheet", string(v.SheetID)).Int("version", v.Number).Msg("costing version rejected")
	return v, nil
}

// Revise copies an Approved version into a new Draft numbered
// max(sheet)+1. The source is untouched. revision is the source
// version's optimistic marker; the new number is additionally protected
// by the store's (sheet, number) uniqueness, so two racing revisions
// cannot both land the same number.
func (s *Service) Revise(ctx context.Context, id VersionID, revision int64) (Version, error) {
	src, err := s.store.GetVersion(ctx, id)
	if err != nil {
		return Version{}, err
	}
	if src.Status != StatusApproved {
		return Version{}, ErrNotApproved
	}
	if src.Revision != revision {
		return Version{}, ErrConcurrentModification
	}

	siblings, err := s.store.VersionsBySheet(ctx, src.SheetID)
	if err != nil {
		return Version{}, err
	}
	next := 0
	for _, v := range siblings {
		if v.Number > next {
			next = v.Number
		}
	}
	next++

	now := time.Now().UTC()
	draft := Version{
		ID:        VersionID(uuid.NewString()),
		SheetID:   src.SheetID,
		Number:    next,
		Status:    StatusDraft,
		Fabrics:   copyLines(src.Fabrics),
		Trims:     copyLines(src.Trims),
		Packing:   copyLines(src.Packing),
		Costs:     src.Costs,
		CreatedAt: now,
		UpdatedAt: now,
	}
	recompute(&draft)
	if err := s.store.CreateVersion(ctx, draft); err != nil {
		return Version{}, err
	}

	s.log.Info().
		Str("sheet", string(src.SheetID)).
		Int("from", src.Number).
		Int("to", draft.Number).
		Msg("costing version revised")
	return draft, nil
}

// copyLines deep-copies line items with fresh IDs: a revision's lines are
// new rows, not shared ones.
func copyLines(lines []LineItem) []LineItem {
	out := make([]LineItem, len(lines))
	for i, l := range lines {
		out[i] = l
		out[i].ID = uuid.NewString()
	}
	return out
}

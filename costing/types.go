/*
Package costing provides the garment costing sheet engine.

PURPOSE:
  A costing sheet estimates what one piece of a manufactured style costs.
  Each sheet owns a series of numbered versions; a version aggregates
  fabric/trim/packing line items plus direct cost fields into roll-up
  totals and a final cost per piece.

LIFECYCLE:
  Draft -> Approved   (terminal except via Revise)
  Draft -> Rejected   (terminal)

  Line items and cost fields are edited freely while Draft. Approval
  freezes every numeric field; the only way forward is Revise, which
  copies the approved version into a new Draft with the next number.

KEY CONCEPTS IN THIS FILE (types.go):
  - Sheet: One per style; container for versions
  - Version: A revisable, approvable cost snapshot
  - LineItem: rate x consumption x (1 + wastage%) per piece
  - Section: Which component a line item belongs to

SEE ALSO:
  - builder.go: the pure roll-up computation
  - lifecycle.go: state machine and optimistic concurrency
*/
package costing

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type SheetID string
type VersionID string

// =============================================================================
// STATUS - Version state machine
// =============================================================================

type Status string

const (
	StatusDraft    Status = "draft"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// =============================================================================
// SECTIONS - Line-item components
// =============================================================================

type Section string

const (
	SectionFabric  Section = "fabric"
	SectionTrim    Section = "trim"
	SectionPacking Section = "packing"
)

func (s Section) Valid() bool {
	switch s {
	case SectionFabric, SectionTrim, SectionPacking:
		return true
	}
	return false
}

// =============================================================================
// SHEET - One per style
// =============================================================================

type Sheet struct {
	ID          SheetID
	Style       string
	Description string
	CreatedAt   time.Time
}

// =============================================================================
// LINE ITEM - One material line of a version
// =============================================================================

// LineItem is a fabric, trim or packing line. Cost is derived:
// rate x consumption x (1 + wastage/100), per piece.
type LineItem struct {
	ID             string
	Name           string
	Rate           decimal.Decimal // cost per unit of consumption
	Consumption    decimal.Decimal // units per piece
	WastagePercent decimal.Decimal
	Cost           decimal.Decimal // derived
}

// =============================================================================
// DIRECT COSTS - Per-piece cost fields entered directly
// =============================================================================

// DirectCosts are the version's non-line-item cost components, plus the
// profit margin percentage applied on top of the subtotal.
type DirectCosts struct {
	CMT        decimal.Decimal // cut-make-trim
	Overhead   decimal.Decimal
	Washing    decimal.Decimal
	Printing   decimal.Decimal
	Embroidery decimal.Decimal
	Testing    decimal.Decimal
	Freight    decimal.Decimal
	Commission decimal.Decimal

	ProfitMargin decimal.Decimal // percent
}

// =============================================================================
// TOTALS - The roll-up result
// =============================================================================

type Totals struct {
	TotalFabric  decimal.Decimal
	TotalTrim    decimal.Decimal
	TotalPacking decimal.Decimal

	Subtotal decimal.Decimal

	// TotalCost is the all-in cost per piece before margin.
	TotalCost decimal.Decimal

	// FinalCostPerPiece is TotalCost with the profit margin applied
	// (see ApplyProfitMargin in builder.go).
	FinalCostPerPiece decimal.Decimal
}

// AllZero reports whether every component subtotal and direct field is
// zero - the EmptyCosting condition on approval.
func (t Totals) AllZero(d DirectCosts) bool {
	for _, v := range []decimal.Decimal{
		t.TotalFabric, t.TotalTrim, t.TotalPacking,
		d.CMT, d.Overhead, d.Washing, d.Printing,
		d.Embroidery, d.Testing, d.Freight, d.Commission,
	} {
		if !v.IsZero() {
			return false
		}
	}
	return true
}

// =============================================================================
// VERSION - A revisable, approvable snapshot
// =============================================================================

// Version is one numbered snapshot of a sheet's costing. Numbers increase
// monotonically from 1 per sheet. Once Approved, every numeric field is
// immutable; Revise copies it forward into a new Draft.
type Version struct {
	ID      VersionID
	SheetID SheetID
	Number  int
	Status  Status

	Fabrics []LineItem
	Trims   []LineItem
	Packing []LineItem

	Costs  DirectCosts
	Totals Totals

	ApprovedBy     string
	ApprovedAt     *time.Time
	RejectedReason string

	// Revision is the optimistic-concurrency marker, bumped by the store
	// on every successful save.
	Revision int64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Lines returns the line items of one section.
func (v *Version) Lines(s Section) []LineItem {
	switch s {
	case SectionFabric:
		return v.Fabrics
	case SectionTrim:
		return v.Trims
	case SectionPacking:
		return v.Packing
	}
	return nil
}

// setLines replaces the line items of one section.
func (v *Version) setLines(s Section, lines []LineItem) {
	switch s {
	case SectionFabric:
		v.Fabrics = lines
	case SectionTrim:
		v.Trims = lines
	case SectionPacking:
		v.Packing = lines
	}
}

// Editable reports whether the version still accepts edits.
func (v *Version) Editable() bool {
	return v.Status == StatusDraft
}

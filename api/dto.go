/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

TYPES:
  Inventory:
    ItemDTO, EnrollItemRequest, AppendTransactionRequest,
    TransactionDTO, ValuationDTO, LotDTO, ResetRequest

  Costing:
    SheetDTO, VersionDTO, LineItemDTO,
    CreateSheetRequest, EditLinesRequest, EditCostsRequest,
    ApproveRequest, RejectRequest

DECIMALS:
  Quantities and costs travel as quoted decimal strings ("12.3400"),
  never as JSON floats. Clients doing money math must parse them with a
  decimal library.

VALIDATION:
  Validation is done in handlers and the domain, not in DTOs. DTOs are
  pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - server.go: Route definitions
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/costing-engine/costing"
	"github.com/warp/costing-engine/inventory"
)

// =============================================================================
// INVENTORY REQUEST/RESPONSE TYPES
// =============================================================================

// ItemDTO represents a stock-tracked item in API responses.
type ItemDTO struct {
	ID                string          `json:"id"`
	Name              string          `json:"name"`
	Method            string          `json:"method"`
	QuantityOnHand    decimal.Decimal `json:"quantity_on_hand"`
	AverageCost       decimal.Decimal `json:"average_cost"`
	LastPurchasePrice decimal.Decimal `json:"last_purchase_price"`
	ReorderLevel      decimal.Decimal `json:"reorder_level"`
	ReorderQty        decimal.Decimal `json:"reorder_qty"`
	AllowNegative     bool            `json:"allow_negative"`
	Active            bool            `json:"active"`
	BelowReorder      bool            `json:"below_reorder"`
	CreatedAt         string          `json:"created_at,omitempty"`
}

// EnrollItemRequest is the request to enroll an item for stock tracking.
type EnrollItemRequest struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Method        string          `json:"method"`
	ReorderLevel  decimal.Decimal `json:"reorder_level"`
	ReorderQty    decimal.Decimal `json:"reorder_qty"`
	AllowNegative bool            `json:"allow_negative"`
}

// AppendTransactionRequest is the request to append one ledger row.
// UnitCost is required for value-adding rows and forbidden meaning for
// consuming rows (the engine derives it).
type AppendTransactionRequest struct {
	Type          string           `json:"type"`
	Quantity      decimal.Decimal  `json:"quantity"`
	UnitCost      *decimal.Decimal `json:"unit_cost,omitempty"`
	Date          string           `json:"date"` // YYYY-MM-DD
	SourceDocType string           `json:"source_doc_type,omitempty"`
	SourceDocID   string           `json:"source_doc_id,omitempty"`
}

// ResetRequest is the request to reset an item's opening balance.
type ResetRequest struct {
	Quantity decimal.Decimal `json:"quantity"`
	UnitCost decimal.Decimal `json:"unit_cost"`
	Date     string          `json:"date"`             // YYYY-MM-DD
	Method   string          `json:"method,omitempty"` // empty keeps current
}

// TransactionDTO represents a ledger row.
type TransactionDTO struct {
	ID          string          `json:"id"`
	ItemID      string          `json:"item_id"`
	Type        string          `json:"type"`
	Date        string          `json:"date"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
	TotalCost   decimal.Decimal `json:"total_cost"`
	BalanceQty  decimal.Decimal `json:"balance_qty"`
	SourceDoc   string          `json:"source_doc,omitempty"`
	SourceDocID string          `json:"source_doc_id,omitempty"`
	CreatedAt   string          `json:"created_at,omitempty"`
}

// LotDTO represents one open lot in a valuation response.
type LotDTO struct {
	Qty      decimal.Decimal `json:"qty"`
	UnitCost decimal.Decimal `json:"unit_cost"`
	Date     string          `json:"date"`
}

// ValuationDTO is the derived valuation state of an item.
type ValuationDTO struct {
	ItemID      string          `json:"item_id"`
	Method      string          `json:"method"`
	Quantity    decimal.Decimal `json:"quantity"`
	AverageCost decimal.Decimal `json:"average_cost"`
	Value       decimal.Decimal `json:"value"`
	Lots        []LotDTO        `json:"lots,omitempty"`
}

// COGSDTO is the cost-of-goods-sold response for a date range.
type COGSDTO struct {
	ItemID string          `json:"item_id"`
	From   string          `json:"from"`
	To     string          `json:"to"`
	Cost   decimal.Decimal `json:"cost"`
}

// =============================================================================
// COSTING REQUEST/RESPONSE TYPES
// =============================================================================

// SheetDTO represents a costing sheet.
type SheetDTO struct {
	ID          string `json:"id"`
	Style       string `json:"style"`
	Description string `json:"description,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
}

// CreateSheetRequest is the request to create a costing sheet.
type CreateSheetRequest struct {
	Style       string `json:"style"`
	Description string `json:"description,omitempty"`
}

// LineItemDTO represents one fabric/trim/packing line.
type LineItemDTO struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Rate           decimal.Decimal `json:"rate"`
	Consumption    decimal.Decimal `json:"consumption"`
	WastagePercent decimal.Decimal `json:"wastage_percent"`
	Cost           decimal.Decimal `json:"cost"`
}

// LineInputDTO is the caller-facing shape of a line item.
type LineInputDTO struct {
	Name           string          `json:"name"`
	Rate           decimal.Decimal `json:"rate"`
	Consumption    decimal.Decimal `json:"consumption"`
	WastagePercent decimal.Decimal `json:"wastage_percent"`
}

// DirectCostsDTO carries the per-piece direct cost fields.
type DirectCostsDTO struct {
	CMT          decimal.Decimal `json:"cmt"`
	Overhead     decimal.Decimal `json:"overhead"`
	Washing      decimal.Decimal `json:"washing"`
	Printing     decimal.Decimal `json:"printing"`
	Embroidery   decimal.Decimal `json:"embroidery"`
	Testing      decimal.Decimal `json:"testing"`
	Freight      decimal.Decimal `json:"freight"`
	Commission   decimal.Decimal `json:"commission"`
	ProfitMargin decimal.Decimal `json:"profit_margin"`
}

// TotalsDTO is the roll-up result.
type TotalsDTO struct {
	TotalFabric       decimal.Decimal `json:"total_fabric"`
	TotalTrim         decimal.Decimal `json:"total_trim"`
	TotalPacking      decimal.Decimal `json:"total_packing"`
	Subtotal          decimal.Decimal `json:"subtotal"`
	TotalCost         decimal.Decimal `json:"total_cost"`
	FinalCostPerPiece decimal.Decimal `json:"final_cost_per_piece"`
}

// VersionDTO represents one numbered costing version.
type VersionDTO struct {
	ID             string         `json:"id"`
	SheetID        string         `json:"sheet_id"`
	Number         int            `json:"number"`
	Status         string         `json:"status"`
	Fabrics        []LineItemDTO  `json:"fabrics"`
	Trims          []LineItemDTO  `json:"trims"`
	Packing        []LineItemDTO  `json:"packing"`
	Costs          DirectCostsDTO `json:"costs"`
	Totals         TotalsDTO      `json:"totals"`
	ApprovedBy     string         `json:"approved_by,omitempty"`
	ApprovedAt     *string        `json:"approved_at,omitempty"`
	RejectedReason string         `json:"rejected_reason,omitempty"`
	Revision       int64          `json:"revision"`
	UpdatedAt      string         `json:"updated_at,omitempty"`
}

// EditLinesRequest replaces one section's line items.
type EditLinesRequest struct {
	Revision int64          `json:"revision"`
	Section  string         `json:"section"`
	Lines    []LineInputDTO `json:"lines"`
}

// EditCostsRequest replaces a version's direct cost fields.
type EditCostsRequest struct {
	Revision int64          `json:"revision"`
	Costs    DirectCostsDTO `json:"costs"`
}

// ApproveRequest locks a draft version.
type ApproveRequest struct {
	Revision   int64  `json:"revision"`
	ApprovedBy string `json:"approved_by"`
}

// RejectRequest marks a draft version rejected.
type RejectRequest struct {
	Revision int64  `json:"revision"`
	Reason   string `json:"reason"`
}

// ReviseRequest copies an approved version into the next draft.
type ReviseRequest struct {
	Revision int64 `json:"revision"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toItemDTO(it inventory.Item) ItemDTO {
	return ItemDTO{
		ID:                string(it.ID),
		Name:              it.Name,
		Method:            string(it.Method),
		QuantityOnHand:    it.QuantityOnHand,
		AverageCost:       it.AverageCost,
		LastPurchasePrice: it.LastPurchasePrice,
		ReorderLevel:      it.ReorderLevel,
		ReorderQty:        it.ReorderQty,
		AllowNegative:     it.AllowNegative,
		Active:            it.Active,
		BelowReorder:      it.BelowReorder(),
		CreatedAt:         it.CreatedAt.Format(time.RFC3339),
	}
}

func toTransactionDTO(tx inventory.Transaction) TransactionDTO {
	return TransactionDTO{
		ID:          tx.ID,
		ItemID:      string(tx.ItemID),
		Type:        string(tx.Type),
		Date:        tx.Date.Format("2006-01-02"),
		Quantity:    tx.Quantity,
		UnitCost:    tx.UnitCost,
		TotalCost:   tx.TotalCost,
		BalanceQty:  tx.BalanceQty,
		SourceDoc:   tx.Source.DocType,
		SourceDocID: tx.Source.DocID,
		CreatedAt:   tx.CreatedAt.Format(time.RFC3339),
	}
}

func toTransactionDTOs(txs []inventory.Transaction) []TransactionDTO {
	dtos := make([]TransactionDTO, len(txs))
	for i, tx := range txs {
		dtos[i] = toTransactionDTO(tx)
	}
	return dtos
}

func toSheetDTO(s costing.Sheet) SheetDTO {
	return SheetDTO{
		ID:          string(s.ID),
		Style:       s.Style,
		Description: s.Description,
		CreatedAt:   s.CreatedAt.Format(time.RFC3339),
	}
}

func toLineItemDTOs(lines []costing.LineItem) []LineItemDTO {
	dtos := make([]LineItemDTO, len(lines))
	for i, l := range lines {
		dtos[i] = LineItemDTO{
			ID:             l.ID,
			Name:           l.Name,
			Rate:           l.Rate,
			Consumption:    l.Consumption,
			WastagePercent: l.WastagePercent,
			Cost:           l.Cost,
		}
	}
	return dtos
}

func toVersionDTO(v costing.Version) VersionDTO {
	dto := VersionDTO{
		ID:      string(v.ID),
		SheetID: string(v.SheetID),
		Number:  v.Number,
		Status:  string(v.Status),
		Fabrics: toLineItemDTOs(v.Fabrics),
		Trims:   toLineItemDTOs(v.Trims),
		Packing: toLineItemDTOs(v.Packing),
		Costs: DirectCostsDTO{
			CMT:          v.Costs.CMT,
			Overhead:     v.Costs.Overhead,
			Washing:      v.Costs.Washing,
			Printing:     v.Costs.Printing,
			Embroidery:   v.Costs.Embroidery,
			Testing:      v.Costs.Testing,
			Freight:      v.Costs.Freight,
			Commission:   v.Costs.Commission,
			ProfitMargin: v.Costs.ProfitMargin,
		},
		Totals: TotalsDTO{
			TotalFabric:       v.Totals.TotalFabric,
			TotalTrim:         v.Totals.TotalTrim,
			TotalPacking:      v.Totals.TotalPacking,
			Subtotal:          v.Totals.Subtotal,
			TotalCost:         v.Totals.TotalCost,
			FinalCostPerPiece: v.Totals.FinalCostPerPiece,
		},
		ApprovedBy:     v.ApprovedBy,
		RejectedReason: v.RejectedReason,
		Revision:       v.Revision,
		UpdatedAt:      v.UpdatedAt.Format(time.RFC3339),
	}
	if v.ApprovedAt != nil {
		s := v.ApprovedAt.Format(time.RFC3339)
		dto.ApprovedAt = &s
	}
	return dto
}

func fromDirectCostsDTO(d DirectCostsDTO) costing.DirectCosts {
	return costing.DirectCosts{
		CMT:          d.CMT,
		Overhead:     d.Overhead,
		Washing:      d.Washing,
		Printing:     d.Printing,
		Embroidery:   d.Embroidery,
		Testing:      d.Testing,
		Freight:      d.Freight,
		Commission:   d.Commission,
		ProfitMargin: d.ProfitMargin,
	}
}

func fromLineInputDTOs(lines []LineInputDTO) []costing.LineInput {
	out := make([]costing.LineInput, len(lines))
	for i, l := range lines {
		out[i] = costing.LineInput{
			Name:           l.Name,
			Rate:           l.Rate,
			Consumption:    l.Consumption,
			WastagePercent: l.WastagePercent,
		}
	}
	return out
}

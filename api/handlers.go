/*
handlers.go - HTTP API handlers for the inventory and costing engine

PURPOSE:
  Exposes the valuation ledger and the costing sheet lifecycle via REST.
  Handles HTTP request/response, JSON serialization, and delegates to
  domain logic.

ENDPOINTS:
  Items:
    GET    /api/items                    List all items
    POST   /api/items                    Enroll an item
    GET    /api/items/reorder            Items at or below reorder level
    GET    /api/items/{id}               Get item details
    DELETE /api/items/{id}               Soft-deactivate an item
    GET    /api/items/{id}/transactions  Ledger history
    POST   /api/items/{id}/transactions  Append a transaction
    GET    /api/items/{id}/valuation     Derived state (lots, average, value)
    GET    /api/items/{id}/cogs          COGS for ?from=...&to=...
    POST   /api/items/{id}/reset         Opening-balance reset / method switch

  Costing:
    GET    /api/costings                 List sheets
    POST   /api/costings                 Create sheet (with draft v1)
    GET    /api/costings/{id}            Get sheet
    GET    /api/costings/{id}/versions   List versions
    GET    /api/versions/{id}            Get version
    PUT    /api/versions/{id}/lines      Replace one section's lines
    PUT    /api/versions/{id}/costs      Replace direct cost fields
    POST   /api/versions/{id}/approve    Draft -> Approved
    POST   /api/versions/{id}/reject     Draft -> Rejected
    POST   /api/versions/{id}/revise     Approved -> new Draft

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Resource not found
  - 409: Conflict (stale revision)
  - 422: Domain rejection (insufficient stock, replay failure, immutable
         version, empty costing)
  - 500: Internal errors

SECURITY NOTE:
  Currently NO authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/warp/costing-engine/costing"
	"github.com/warp/costing-engine/inventory"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Ledger  *inventory.Ledger
	Costing *costing.Service
}

// NewHandler creates a new handler over the two domain services.
func NewHandler(ledger *inventory.Ledger, sheets *costing.Service) *Handler {
	return &Handler{Ledger: ledger, Costing: sheets}
}

// =============================================================================
// ITEM HANDLERS
// =============================================================================

// ListItems returns all enrolled items.
func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.Ledger.Items(r.Context())
	if err != nil {
		writeDomainError(w, "Failed to list items", err)
		return
	}

	dtos := make([]ItemDTO, len(items))
	for i, it := range items {
		dtos[i] = toItemDTO(it)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetItem returns a single item with its snapshot columns.
func (h *Handler) GetItem(w http.ResponseWriter, r *http.Request) {
	item, err := h.Ledger.Item(r.Context(), inventory.ItemID(chi.URLParam(r, "id")))
	if err != nil {
		writeDomainError(w, "Failed to get item", err)
		return
	}
	writeJSON(w, http.StatusOK, toItemDTO(item))
}

// EnrollItem registers an item for stock tracking.
func (h *Handler) EnrollItem(w http.ResponseWriter, r *http.Request) {
	var req EnrollItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	item, err := h.Ledger.EnrollItem(r.Context(), inventory.EnrollInput{
		ID:            inventory.ItemID(req.ID),
		Name:          req.Name,
		Method:        inventory.CostMethod(req.Method),
		ReorderLevel:  req.ReorderLevel,
		ReorderQty:    req.ReorderQty,
		AllowNegative: req.AllowNegative,
	})
	if err != nil {
		writeDomainError(w, "Failed to enroll item", err)
		return
	}
	writeJSON(w, http.StatusCreated, toItemDTO(item))
}

// DeactivateItem soft-deactivates an item. History stays queryable.
func (h *Handler) DeactivateItem(w http.ResponseWriter, r *http.Request) {
	if err := h.Ledger.Deactivate(r.Context(), inventory.ItemID(chi.URLParam(r, "id"))); err != nil {
		writeDomainError(w, "Failed to deactivate item", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deactivated"})
}

// ListReorderItems returns active items at or below their reorder level.
func (h *Handler) ListReorderItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.Ledger.BelowReorderLevel(r.Context())
	if err != nil {
		writeDomainError(w, "Failed to list reorder items", err)
		return
	}

	dtos := make([]ItemDTO, len(items))
	for i, it := range items {
		dtos[i] = toItemDTO(it)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// LEDGER HANDLERS
// =============================================================================

// GetTransactions returns an item's full ledger history, oldest first.
func (h *Handler) GetTransactions(w http.ResponseWriter, r *http.Request) {
	id := inventory.ItemID(chi.URLParam(r, "id"))

	// Optional ?from=YYYY-MM-DD&to=YYYY-MM-DD window; full history otherwise.
	var (
		txs []inventory.Transaction
		err error
	)
	if r.URL.Query().Get("from") != "" || r.URL.Query().Get("to") != "" {
		from, perr := parseDate(r.URL.Query().Get("from"))
		if perr != nil {
			writeError(w, http.StatusBadRequest, "Invalid 'from' date (use YYYY-MM-DD)", perr)
			return
		}
		to, perr := parseDate(r.URL.Query().Get("to"))
		if perr != nil {
			writeError(w, http.StatusBadRequest, "Invalid 'to' date (use YYYY-MM-DD)", perr)
			return
		}
		txs, err = h.Ledger.TransactionsInRange(r.Context(), id, from, to)
	} else {
		txs, err = h.Ledger.Transactions(r.Context(), id)
	}
	if err != nil {
		writeDomainError(w, "Failed to get transactions", err)
		return
	}
	writeJSON(w, http.StatusOK, toTransactionDTOs(txs))
}

// AppendTransaction validates and appends one ledger row.
func (h *Handler) AppendTransaction(w http.ResponseWriter, r *http.Request) {
	var req AppendTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	// An omitted date means "now"; the ledger fills it in.
	var date time.Time
	if req.Date != "" {
		var err error
		date, err = parseDate(req.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
			return
		}
	}

	tx, err := h.Ledger.Append(r.Context(), inventory.AppendInput{
		ItemID:   inventory.ItemID(chi.URLParam(r, "id")),
		Type:     inventory.TxType(req.Type),
		Quantity: req.Quantity,
		UnitCost: req.UnitCost,
		Date:     date,
		Source:   inventory.SourceRef{DocType: req.SourceDocType, DocID: req.SourceDocID},
	})
	if err != nil {
		writeDomainError(w, "Failed to append transaction", err)
		return
	}
	writeJSON(w, http.StatusCreated, toTransactionDTO(tx))
}

// GetValuation returns the replay-derived state of an item.
func (h *Handler) GetValuation(w http.ResponseWriter, r *http.Request) {
	id := inventory.ItemID(chi.URLParam(r, "id"))

	item, err := h.Ledger.Item(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to get item", err)
		return
	}
	state, err := h.Ledger.State(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to derive valuation", err)
		return
	}

	dto := ValuationDTO{
		ItemID:      string(id),
		Method:      string(item.Method),
		Quantity:    state.Qty,
		AverageCost: state.AvgCost,
		Value:       state.Value(),
	}
	for _, lot := range state.Lots {
		dto.Lots = append(dto.Lots, LotDTO{
			Qty:      lot.Qty,
			UnitCost: lot.UnitCost,
			Date:     lot.Date.Format("2006-01-02"),
		})
	}
	writeJSON(w, http.StatusOK, dto)
}

// GetCOGS returns cost of goods sold for ?from=YYYY-MM-DD&to=YYYY-MM-DD.
func (h *Handler) GetCOGS(w http.ResponseWriter, r *http.Request) {
	from, err := parseDate(r.URL.Query().Get("from"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid 'from' date (use YYYY-MM-DD)", err)
		return
	}
	to, err := parseDate(r.URL.Query().Get("to"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid 'to' date (use YYYY-MM-DD)", err)
		return
	}

	id := inventory.ItemID(chi.URLParam(r, "id"))
	cost, err := h.Ledger.CostOfGoodsSold(r.Context(), id, from, to)
	if err != nil {
		writeDomainError(w, "Failed to compute COGS", err)
		return
	}

	writeJSON(w, http.StatusOK, COGSDTO{
		ItemID: string(id),
		From:   from.Format("2006-01-02"),
		To:     to.Format("2006-01-02"),
		Cost:   cost,
	})
}

// ResetOpeningBalance starts a fresh ledger epoch, optionally switching
// the costing method.
func (h *Handler) ResetOpeningBalance(w http.ResponseWriter, r *http.Request) {
	var req ResetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	date, err := parseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}

	tx, err := h.Ledger.ResetOpeningBalance(r.Context(), inventory.ResetInput{
		ItemID:   inventory.ItemID(chi.URLParam(r, "id")),
		Quantity: req.Quantity,
		UnitCost: req.UnitCost,
		Date:     date,
		Method:   inventory.CostMethod(req.Method),
	})
	if err != nil {
		writeDomainError(w, "Failed to reset opening balance", err)
		return
	}
	writeJSON(w, http.StatusCreated, toTransactionDTO(tx))
}

// =============================================================================
// COSTING SHEET HANDLERS
// =============================================================================

// ListSheets returns all costing sheets.
func (h *Handler) ListSheets(w http.ResponseWriter, r *http.Request) {
	sheets, err := h.Costing.Sheets(r.Context())
	if err != nil {
		writeDomainError(w, "Failed to list sheets", err)
		return
	}

	dtos := make([]SheetDTO, len(sheets))
	for i, s := range sheets {
		dtos[i] = toSheetDTO(s)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateSheet creates a sheet together with its first draft version.
func (h *Handler) CreateSheet(w http.ResponseWriter, r *http.Request) {
	var req CreateSheetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Style == "" {
		writeError(w, http.StatusBadRequest, "Style is required", nil)
		return
	}

	sheet, v, err := h.Costing.CreateSheet(r.Context(), req.Style, req.Description)
	if err != nil {
		writeDomainError(w, "Failed to create sheet", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"sheet":   toSheetDTO(sheet),
		"version": toVersionDTO(v),
	})
}

// GetSheet returns a single sheet.
func (h *Handler) GetSheet(w http.ResponseWriter, r *http.Request) {
	sheet, err := h.Costing.Sheet(r.Context(), costing.SheetID(chi.URLParam(r, "id")))
	if err != nil {
		writeDomainError(w, "Failed to get sheet", err)
		return
	}
	writeJSON(w, http.StatusOK, toSheetDTO(sheet))
}

// ListVersions returns a sheet's versions ordered by number.
func (h *Handler) ListVersions(w http.ResponseWriter, r *http.Request) {
	versions, err := h.Costing.Versions(r.Context(), costing.SheetID(chi.URLParam(r, "id")))
	if err != nil {
		writeDomainError(w, "Failed to list versions", err)
		return
	}

	dtos := make([]VersionDTO, len(versions))
	for i, v := range versions {
		dtos[i] = toVersionDTO(v)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetVersion returns a single version with its roll-up totals.
func (h *Handler) GetVersion(w http.ResponseWriter, r *http.Request) {
	v, err := h.Costing.Version(r.Context(), costing.VersionID(chi.URLParam(r, "id")))
	if err != nil {
		writeDomainError(w, "Failed to get version", err)
		return
	}
	writeJSON(w, http.StatusOK, toVersionDTO(v))
}

// EditLines replaces one section's line items on a draft version.
func (h *Handler) EditLines(w http.ResponseWriter, r *http.Request) {
	var req EditLinesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	v, err := h.Costing.EditLineItems(r.Context(),
		costing.VersionID(chi.URLParam(r, "id")),
		req.Revision,
		costing.Section(req.Section),
		fromLineInputDTOs(req.Lines),
	)
	if err != nil {
		writeDomainError(w, "Failed to edit line items", err)
		return
	}
	writeJSON(w, http.StatusOK, toVersionDTO(v))
}

// EditCosts replaces a draft version's direct cost fields.
func (h *Handler) EditCosts(w http.ResponseWriter, r *http.Request) {
	var req EditCostsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	v, err := h.Costing.EditCosts(r.Context(),
		costing.VersionID(chi.URLParam(r, "id")),
		req.Revision,
		fromDirectCostsDTO(req.Costs),
	)
	if err != nil {
		writeDomainError(w, "Failed to edit costs", err)
		return
	}
	writeJSON(w, http.StatusOK, toVersionDTO(v))
}

// ApproveVersion locks a draft version.
func (h *Handler) ApproveVersion(w http.ResponseWriter, r *http.Request) {
	var req ApproveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	v, err := h.Costing.Approve(r.Context(),
		costing.VersionID(chi.URLParam(r, "id")), req.Revision, req.ApprovedBy)
	if err != nil {
		writeDomainError(w, "Failed to approve version", err)
		return
	}
	writeJSON(w, http.StatusOK, toVersionDTO(v))
}

// RejectVersion marks a draft version rejected.
func (h *Handler) RejectVersion(w http.ResponseWriter, r *http.Request) {
	var req RejectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	v, err := h.Costing.Reject(r.Context(),
		costing.VersionID(chi.URLParam(r, "id")), req.Revision, req.Reason)
	if err != nil {
		writeDomainError(w, "Failed to reject version", err)
		return
	}
	writeJSON(w, http.StatusOK, toVersionDTO(v))
}

// ReviseVersion copies an approved version into the next draft.
func (h *Handler) ReviseVersion(w http.ResponseWriter, r *http.Request) {
	var req ReviseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	v, err := h.Costing.Revise(r.Context(),
		costing.VersionID(chi.URLParam(r, "id")), req.Revision)
	if err != nil {
		writeDomainError(w, "Failed to revise version", err)
		return
	}
	writeJSON(w, http.StatusCreated, toVersionDTO(v))
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps domain errors onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	writeError(w, statusFor(err), message, err)
}

func statusFor(err error) int {
	switch {
	case inventory.IsNotFound(err) || costing.IsNotFound(err):
		return http.StatusNotFound
	case costing.IsConflict(err):
		return http.StatusConflict
	case errors.Is(err, inventory.ErrInsufficientStock),
		errors.Is(err, inventory.ErrOverIssue),
		errors.Is(err, inventory.ErrBackdatedReplayFailed),
		errors.Is(err, costing.ErrImmutableVersion),
		errors.Is(err, costing.ErrEmptyCosting),
		errors.Is(err, costing.ErrNotDraft),
		errors.Is(err, costing.ErrNotApproved):
		return http.StatusUnprocessableEntity
	case inventory.IsClientError(err) || costing.IsClientError(err):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func parseDate(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}

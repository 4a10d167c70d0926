/*
handlers_test.go - HTTP-level tests for the API

Tests run against a router wired to the in-memory stores, exercising the
full request path: routing, JSON decoding, domain calls, error mapping.
*/
package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/costing-engine/api"
	"github.com/warp/costing-engine/costing"
	coststore "github.com/warp/costing-engine/costing/store"
	"github.com/warp/costing-engine/inventory"
	invstore "github.com/warp/costing-engine/inventory/store"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func newTestRouter() http.Handler {
	ledger := inventory.NewLedger(invstore.NewMemory(), zerolog.Nop())
	sheets := costing.NewService(coststore.NewMemory(), zerolog.Nop())
	return api.NewRouter(api.NewHandler(ledger, sheets))
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
}

// =============================================================================
// ITEMS AND LEDGER
// =============================================================================

func TestAPI_EnrollAndGetItem(t *testing.T) {
	r := newTestRouter()

	rec := doJSON(t, r, "POST", "/api/items", map[string]any{
		"id":     "fabric-denim",
		"name":   "Denim 12oz",
		"method": "fifo",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = doJSON(t, r, "GET", "/api/items/fabric-denim", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var item api.ItemDTO
	decode(t, rec, &item)
	assert.Equal(t, "Denim 12oz", item.Name)
	assert.Equal(t, "fifo", item.Method)
	assert.True(t, item.Active)
}

func TestAPI_EnrollItem_InvalidMethod(t *testing.T) {
	r := newTestRouter()
	rec := doJSON(t, r, "POST", "/api/items", map[string]any{
		"id": "x", "name": "x", "method": "standard_cost",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPI_GetItem_NotFound(t *testing.T) {
	r := newTestRouter()
	rec := doJSON(t, r, "GET", "/api/items/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAPI_AppendAndValuation(t *testing.T) {
	r := newTestRouter()
	doJSON(t, r, "POST", "/api/items", map[string]any{
		"id": "fabric-denim", "name": "Denim", "method": "fifo",
	})

	for _, body := range []map[string]any{
		{"type": "receipt", "quantity": "5", "unit_cost": "10", "date": "2025-03-01"},
		{"type": "receipt", "quantity": "5", "unit_cost": "12", "date": "2025-03-02"},
		{"type": "issue", "quantity": "-7", "date": "2025-03-03"},
	} {
		rec := doJSON(t, r, "POST", "/api/items/fabric-denim/transactions", body)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec := doJSON(t, r, "GET", "/api/items/fabric-denim/valuation", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var val api.ValuationDTO
	decode(t, rec, &val)
	assert.True(t, val.Quantity.Equal(dec("3")))
	assert.True(t, val.Value.Equal(dec("36")), "remaining lot 3 @ 12")
	require.Len(t, val.Lots, 1)
	assert.True(t, val.Lots[0].UnitCost.Equal(dec("12")))

	rec = doJSON(t, r, "GET", "/api/items/fabric-denim/cogs?from=2025-03-01&to=2025-03-31", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var cogs api.COGSDTO
	decode(t, rec, &cogs)
	assert.True(t, cogs.Cost.Equal(dec("74")))
}

func TestAPI_Append_OverIssue_Unprocessable(t *testing.T) {
	r := newTestRouter()
	doJSON(t, r, "POST", "/api/items", map[string]any{
		"id": "fabric-denim", "name": "Denim", "method": "fifo",
	})
	doJSON(t, r, "POST", "/api/items/fabric-denim/transactions", map[string]any{
		"type": "receipt", "quantity": "5", "unit_cost": "10", "date": "2025-03-01",
	})

	rec := doJSON(t, r, "POST", "/api/items/fabric-denim/transactions", map[string]any{
		"type": "issue", "quantity": "-8", "date": "2025-03-02",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var errResp api.ErrorResponse
	decode(t, rec, &errResp)
	assert.NotEmpty(t, errResp.Details)
}

func TestAPI_Append_WrongSign_BadRequest(t *testing.T) {
	r := newTestRouter()
	doJSON(t, r, "POST", "/api/items", map[string]any{
		"id": "fabric-denim", "name": "Denim", "method": "fifo",
	})

	rec := doJSON(t, r, "POST", "/api/items/fabric-denim/transactions", map[string]any{
		"type": "receipt", "quantity": "-5", "unit_cost": "10", "date": "2025-03-01",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPI_TransactionHistory(t *testing.T) {
	r := newTestRouter()
	doJSON(t, r, "POST", "/api/items", map[string]any{
		"id": "fabric-denim", "name": "Denim", "method": "weighted_average",
	})
	doJSON(t, r, "POST", "/api/items/fabric-denim/transactions", map[string]any{
		"type": "receipt", "quantity": "10", "unit_cost": "5", "date": "2025-03-01",
	})
	doJSON(t, r, "POST", "/api/items/fabric-denim/transactions", map[string]any{
		"type": "issue", "quantity": "-4", "date": "2025-03-02",
	})

	rec := doJSON(t, r, "GET", "/api/items/fabric-denim/transactions", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var txs []api.TransactionDTO
	decode(t, rec, &txs)
	require.Len(t, txs, 2)
	assert.Equal(t, "receipt", txs[0].Type)
	assert.True(t, txs[1].BalanceQty.Equal(dec("6")))

	// A from/to window narrows the history to matching dates.
	rec = doJSON(t, r, "GET", "/api/items/fabric-denim/transactions?from=2025-03-02&to=2025-03-31", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &txs)
	require.Len(t, txs, 1)
	assert.Equal(t, "issue", txs[0].Type)

	rec = doJSON(t, r, "GET", "/api/items/fabric-denim/transactions?from=bad&to=2025-03-31", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPI_ResetOpeningBalance(t *testing.T) {
	r := newTestRouter()
	doJSON(t, r, "POST", "/api/items", map[string]any{
		"id": "fabric-denim", "name": "Denim", "method": "weighted_average",
	})
	doJSON(t, r, "POST", "/api/items/fabric-denim/transactions", map[string]any{
		"type": "receipt", "quantity": "10", "unit_cost": "5", "date": "2025-03-01",
	})

	rec := doJSON(t, r, "POST", "/api/items/fabric-denim/reset", map[string]any{
		"quantity": "6", "unit_cost": "5.5", "date": "2025-03-10", "method": "fifo",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = doJSON(t, r, "GET", "/api/items/fabric-denim/valuation", nil)
	var val api.ValuationDTO
	decode(t, rec, &val)
	assert.Equal(t, "fifo", val.Method)
	assert.True(t, val.Quantity.Equal(dec("6")))
	assert.True(t, val.Value.Equal(dec("33")))
}

func TestAPI_DeactivateBlocksAppends(t *testing.T) {
	r := newTestRouter()
	doJSON(t, r, "POST", "/api/items", map[string]any{
		"id": "fabric-denim", "name": "Denim", "method": "fifo",
	})

	rec := doJSON(t, r, "DELETE", "/api/items/fabric-denim", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, r, "POST", "/api/items/fabric-denim/transactions", map[string]any{
		"type": "receipt", "quantity": "5", "unit_cost": "10", "date": "2025-03-01",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// COSTING SHEETS
// =============================================================================

func createDraft(t *testing.T, r http.Handler) (sheetID string, v api.VersionDTO) {
	t.Helper()
	rec := doJSON(t, r, "POST", "/api/costings", map[string]any{
		"style": "DNM-5021", "description": "5-pocket denim",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created struct {
		Sheet   api.SheetDTO   `json:"sheet"`
		Version api.VersionDTO `json:"version"`
	}
	decode(t, rec, &created)
	return created.Sheet.ID, created.Version
}

func TestAPI_CostingLifecycle(t *testing.T) {
	r := newTestRouter()
	sheetID, v := createDraft(t, r)
	assert.Equal(t, 1, v.Number)
	assert.Equal(t, "draft", v.Status)

	// Fill in a fabric line.
	rec := doJSON(t, r, "PUT", "/api/versions/"+v.ID+"/lines", map[string]any{
		"revision": v.Revision,
		"section":  "fabric",
		"lines": []map[string]any{
			{"name": "denim 12oz", "rate": "100", "consumption": "2.5", "wastage_percent": "10"},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decode(t, rec, &v)
	assert.True(t, v.Totals.TotalFabric.Equal(dec("275")))

	// Direct costs + margin.
	rec = doJSON(t, r, "PUT", "/api/versions/"+v.ID+"/costs", map[string]any{
		"revision": v.Revision,
		"costs":    map[string]any{"cmt": "45", "profit_margin": "20"},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decode(t, rec, &v)
	assert.True(t, v.Totals.Subtotal.Equal(dec("320")))
	assert.True(t, v.Totals.FinalCostPerPiece.Equal(dec("384")))

	// Approve.
	rec = doJSON(t, r, "POST", "/api/versions/"+v.ID+"/approve", map[string]any{
		"revision": v.Revision, "approved_by": "merchandiser.k",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	decode(t, rec, &v)
	assert.Equal(t, "approved", v.Status)
	assert.NotNil(t, v.ApprovedAt)

	// Editing the approved version is unprocessable.
	rec = doJSON(t, r, "PUT", "/api/versions/"+v.ID+"/costs", map[string]any{
		"revision": v.Revision,
		"costs":    map[string]any{"cmt": "60"},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	// Revise into v2.
	rec = doJSON(t, r, "POST", "/api/versions/"+v.ID+"/revise", map[string]any{"revision": v.Revision})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var draft api.VersionDTO
	decode(t, rec, &draft)
	assert.Equal(t, 2, draft.Number)
	assert.Equal(t, "draft", draft.Status)
	assert.True(t, draft.Totals.FinalCostPerPiece.Equal(v.Totals.FinalCostPerPiece))

	// Both versions listed under the sheet.
	rec = doJSON(t, r, "GET", fmt.Sprintf("/api/costings/%s/versions", sheetID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var versions []api.VersionDTO
	decode(t, rec, &versions)
	assert.Len(t, versions, 2)
}

func TestAPI_ApproveEmptyCosting_Unprocessable(t *testing.T) {
	r := newTestRouter()
	_, v := createDraft(t, r)

	rec := doJSON(t, r, "POST", "/api/versions/"+v.ID+"/approve", map[string]any{
		"revision": v.Revision, "approved_by": "merchandiser.k",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestAPI_StaleRevision_Conflict(t *testing.T) {
	r := newTestRouter()
	_, v := createDraft(t, r)

	rec := doJSON(t, r, "PUT", "/api/versions/"+v.ID+"/costs", map[string]any{
		"revision": v.Revision,
		"costs":    map[string]any{"cmt": "45"},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	// Replay the same revision: someone else already moved the version.
	rec = doJSON(t, r, "PUT", "/api/versions/"+v.ID+"/costs", map[string]any{
		"revision": v.Revision,
		"costs":    map[string]any{"cmt": "99"},
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestAPI_RejectVersion(t *testing.T) {
	r := newTestRouter()
	_, v := createDraft(t, r)

	rec := doJSON(t, r, "POST", "/api/versions/"+v.ID+"/reject", map[string]any{
		"revision": v.Revision, "reason": "target price missed",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var rejected api.VersionDTO
	decode(t, rec, &rejected)
	assert.Equal(t, "rejected", rejected.Status)
	assert.Equal(t, "target price missed", rejected.RejectedReason)
}

func TestAPI_Health(t *testing.T) {
	r := newTestRouter()
	rec := doJSON(t, r, "GET", "/api/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

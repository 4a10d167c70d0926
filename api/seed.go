/*
seed.go - Development dataset loader

PURPOSE:
  Seeds a small but realistic garment dataset so the API is explorable
  immediately after first start: a handful of stock items with mixed
  costing methods and some ledger history, plus one costing sheet taken
  through an approval.

  Intended for development and demos only; cmd/server enables it behind
  the -seed flag and it refuses to touch a store that already has items.
*/
package api

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/costing-engine/costing"
	"github.com/warp/costing-engine/inventory"
)

// Seed loads the demo dataset. No-op with an error if items already exist.
func Seed(ctx context.Context, ledger *inventory.Ledger, sheets *costing.Service) error {
	existing, err := ledger.Items(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return fmt.Errorf("refusing to seed: store already has %d items", len(existing))
	}

	if err := seedInventory(ctx, ledger); err != nil {
		return err
	}
	return seedCosting(ctx, sheets)
}

func seedInventory(ctx context.Context, ledger *inventory.Ledger) error {
	base := time.Now().UTC().AddDate(0, 0, -30)

	items := []inventory.EnrollInput{
		{ID: "fabric-denim-12oz", Name: "Denim 12oz indigo", Method: inventory.MethodFIFO, ReorderLevel: qty("200"), ReorderQty: qty("1000")},
		{ID: "fabric-pocketing", Name: "Pocketing twill", Method: inventory.MethodWeightedAverage, ReorderLevel: qty("100"), ReorderQty: qty("500")},
		{ID: "trim-zipper-ykk", Name: "YKK zipper 15cm", Method: inventory.MethodWeightedAverage, ReorderLevel: qty("500"), ReorderQty: qty("5000")},
		{ID: "trim-button-4h", Name: "4-hole shank button", Method: inventory.MethodLIFO},
	}
	for _, in := range items {
		if _, err := ledger.EnrollItem(ctx, in); err != nil {
			return err
		}
	}

	type row struct {
		item inventory.ItemID
		typ  inventory.TxType
		day  int
		q    string
		cost string
		doc  inventory.SourceRef
	}
	history := []row{
		{"fabric-denim-12oz", inventory.TxReceipt, 0, "800", "4.20", grn("GRN-1001")},
		{"fabric-denim-12oz", inventory.TxReceipt, 7, "600", "4.55", grn("GRN-1014")},
		{"fabric-denim-12oz", inventory.TxIssue, 10, "-950", "", issue("PRD-0451")},
		{"fabric-pocketing", inventory.TxReceipt, 1, "400", "1.10", grn("GRN-1002")},
		{"fabric-pocketing", inventory.TxIssue, 12, "-180", "", issue("PRD-0451")},
		{"trim-zipper-ykk", inventory.TxReceipt, 2, "6000", "0.38", grn("GRN-1003")},
		{"trim-zipper-ykk", inventory.TxIssue, 12, "-2400", "", issue("PRD-0451")},
		{"trim-button-4h", inventory.TxReceipt, 2, "10000", "0.04", grn("GRN-1003")},
		{"trim-button-4h", inventory.TxReceipt, 15, "5000", "0.05", grn("GRN-1022")},
		{"trim-button-4h", inventory.TxAdjustment, 20, "-120", "", count("CNT-007")},
	}
	for _, h := range history {
		in := inventory.AppendInput{
			ItemID:   h.item,
			Type:     h.typ,
			Quantity: qty(h.q),
			Date:     base.AddDate(0, 0, h.day),
			Source:   h.doc,
		}
		if h.cost != "" {
			c := qty(h.cost)
			in.UnitCost = &c
		}
		if _, err := ledger.Append(ctx, in); err != nil {
			return err
		}
	}
	return nil
}

func seedCosting(ctx context.Context, sheets *costing.Service) error {
	_, v, err := sheets.CreateSheet(ctx, "DNM-5021", "5-pocket denim, mid rise")
	if err != nil {
		return err
	}

	v, err = sheets.EditLineItems(ctx, v.ID, v.Revision, costing.SectionFabric, []costing.LineInput{
		{Name: "denim 12oz indigo", Rate: qty("4.55"), Consumption: qty("1.45"), WastagePercent: qty("8")},
		{Name: "pocketing twill", Rate: qty("1.10"), Consumption: qty("0.25"), WastagePercent: qty("5")},
	})
	if err != nil {
		return err
	}
	v, err = sheets.EditLineItems(ctx, v.ID, v.Revision, costing.SectionTrim, []costing.LineInput{
		{Name: "YKK zipper 15cm", Rate: qty("0.38"), Consumption: qty("1"), WastagePercent: qty("2")},
		{Name: "4-hole shank button", Rate: qty("0.05"), Consumption: qty("1"), WastagePercent: qty("2")},
		{Name: "rivets (set of 6)", Rate: qty("0.12"), Consumption: qty("1"), WastagePercent: qty("3")},
	})
	if err != nil {
		return err
	}
	v, err = sheets.EditLineItems(ctx, v.ID, v.Revision, costing.SectionPacking, []costing.LineInput{
		{Name: "polybag + hangtag", Rate: qty("0.18"), Consumption: qty("1"), WastagePercent: qty("0")},
	})
	if err != nil {
		return err
	}
	v, err = sheets.EditCosts(ctx, v.ID, v.Revision, costing.DirectCosts{
		CMT:          qty("2.10"),
		Overhead:     qty("0.45"),
		Washing:      qty("0.85"),
		Freight:      qty("0.20"),
		ProfitMargin: qty("18"),
	})
	if err != nil {
		return err
	}

	_, err = sheets.Approve(ctx, v.ID, v.Revision, "demo.merchandiser")
	return err
}

func qty(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func grn(id string) inventory.SourceRef {
	return inventory.SourceRef{DocType: "GRN", DocID: id}
}

func issue(id string) inventory.SourceRef {
	return inventory.SourceRef{DocType: "PRODUCTION", DocID: id}
}

func count(id string) inventory.SourceRef {
	return inventory.SourceRef{DocType: "STOCK_COUNT", DocID: id}
}

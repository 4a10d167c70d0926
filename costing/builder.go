/*
builder.go - The costing roll-up

PURPOSE:
  Computes a version's totals from its line items and direct cost fields.
  The builder is a pure function of its inputs: it returns the totals and
  touches nothing else; persisting them is the lifecycle's job.

FORMULAS:
  line cost   = rate x consumption x (1 + wastage% / 100)
  subtotal    = fabric + trim + packing + every direct cost field
  total cost  = subtotal
  final piece = ApplyProfitMargin(subtotal, margin%)

PROFIT MARGIN:
  The schema left the markup formula ambiguous (markup-on-cost vs
  margin-on-selling-price). This engine uses MARKUP-ON-COST:

      final = subtotal x (1 + margin/100)

  The choice is encoded once, in ProfitBasis and ApplyProfitMargin, and
  pinned by TestApplyProfitMargin_MarkupOnCost.
*/
package costing

import "github.com/shopspring/decimal"

// moneyScale is the rounding applied to derived cost figures.
const moneyScale = 2

// ProfitBasis names the margin formula this engine applies. Changing the
// formula means changing this constant, ApplyProfitMargin, and the test
// that pins them - deliberately noisy.
const ProfitBasis = "markup_on_cost"

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

// LineCost computes one line's per-piece cost:
// rate x consumption x (1 + wastage/100).
func LineCost(rate, consumption, wastagePercent decimal.Decimal) decimal.Decimal {
	factor := one.Add(wastagePercent.Div(hundred))
	return rate.Mul(consumption).Mul(factor).Round(moneyScale)
}

// ApplyProfitMargin applies the markup-on-cost formula:
// subtotal x (1 + margin/100). See ProfitBasis.
func ApplyProfitMargin(subtotal, marginPercent decimal.Decimal) decimal.Decimal {
	return subtotal.Mul(one.Add(marginPercent.Div(hundred))).Round(moneyScale)
}

// ComputeTotals rolls a version's components up into Totals. Line costs
// are recomputed from their inputs, so a caller-supplied Cost field is
// never trusted.
func ComputeTotals(v *Version) Totals {
	var t Totals
	t.TotalFabric = sumLines(v.Fabrics)
	t.TotalTrim = sumLines(v.Trims)
	t.TotalPacking = sumLines(v.Packing)

	d := v.Costs
	t.Subtotal = t.TotalFabric.
		Add(t.TotalTrim).
		Add(t.TotalPacking).
		Add(d.CMT).
		Add(d.Overhead).
		Add(d.Washing).
		Add(d.Printing).
		Add(d.Embroidery).
		Add(d.Testing).
		Add(d.Freight).
		Add(d.Commission).
		Round(moneyScale)

	t.TotalCost = t.Subtotal
	t.FinalCostPerPiece = ApplyProfitMargin(t.Subtotal, d.ProfitMargin)
	return t
}

func sumLines(lines []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(LineCost(l.Rate, l.Consumption, l.WastagePercent))
	}
	return total.Round(moneyScale)
}

// recompute refreshes every derived cost on the version in place.
func recompute(v *Version) {
	for i := range v.Fabrics {
		v.Fabrics[i].Cost = LineCost(v.Fabrics[i].Rate, v.Fabrics[i].Consumption, v.Fabrics[i].WastagePercent)
	}
	for i := range v.Trims {
		v.Trims[i].Cost = LineCost(v.Trims[i].Rate, v.Trims[i].Consumption, v.Trims[i].WastagePercent)
	}
	for i := range v.Packing {
		v.Packing[i].Cost = LineCost(v.Packing[i].Rate, v.Packing[i].Consumption, v.Packing[i].WastagePercent)
	}
	v.Totals = ComputeTotals(v)
}

package pos

import "github.com/shopspring/decimal"

// Totals is the full set of derived amounts for one tab. Every field
// is recomputed from the tab's raw state; nothing here is stored.
type Totals struct {
	ItemSubtotal     decimal.Decimal `json:"item_subtotal"`
	OtherChargeTotal decimal.Decimal `json:"other_charge_total"`
	GlobalDiscount   decimal.Decimal `json:"global_discount"`
	// RawPayable may go negative when discounts exceed the order;
	// Payable is the same value floored at zero for the payment step.
	RawPayable decimal.Decimal `json:"raw_payable"`
	Payable    decimal.Decimal `json:"payable"`
	TotalPaid  decimal.Decimal `json:"total_paid"`
	// Balance is overpayment when positive, shortfall when negative.
	Balance decimal.Decimal `json:"balance"`
}

// ComputeTotals derives the amounts for a new-order composition, where
// every payment row counts toward TotalPaid.
func ComputeTotals(t *Tab) Totals {
	out := Totals{
		GlobalDiscount: t.Details.GlobalDiscount,
	}
	out.ItemSubtotal = decimal.Zero
	for _, line := range t.Cart {
		out.ItemSubtotal = out.ItemSubtotal.Add(line.Amount())
	}
	out.OtherChargeTotal = decimal.Zero
	for _, c := range t.Details.OtherCharges {
		out.OtherChargeTotal = out.OtherChargeTotal.Add(c.Amount)
	}
	out.RawPayable = out.ItemSubtotal.Add(out.OtherChargeTotal).Sub(out.GlobalDiscount)
	out.Payable = out.RawPayable
	if out.Payable.IsNegative() {
		out.Payable = decimal.Zero
	}
	out.TotalPaid = SumPayments(t.Details.Payments)
	out.Balance = out.TotalPaid.Sub(out.Payable)
	return out
}

// SumPayments totals every allocation row regardless of status.
func SumPayments(rows []PaymentEntry) decimal.Decimal {
	total := decimal.Zero
	for _, p := range rows {
		total = total.Add(p.Amount)
	}
	return total
}

// SumCompletedPayments totals only rows already settled upstream.
func SumCompletedPayments(rows []PaymentEntry) decimal.Decimal {
	total := decimal.Zero
	for _, p := range rows {
		if p.Status.Completed() {
			total = total.Add(p.Amount)
		}
	}
	return total
}

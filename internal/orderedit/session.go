package orderedit

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tillworks/tillpoint-backend/internal/pos"
	"github.com/tillworks/tillpoint-backend/pkg/enums"
)

// Line is one product line on an order under edit. Unlike composition
// cart lines it carries its own discount.
type Line struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Qty       decimal.Decimal `json:"qty"`
	Discount  decimal.Decimal `json:"discount"`
}

// Amount returns the line total after its discount, floored at zero.
func (l Line) Amount() decimal.Decimal {
	gross := l.UnitPrice.Mul(l.Qty).Sub(l.Discount)
	if gross.IsNegative() {
		return decimal.Zero
	}
	return gross
}

// Order is the server-side order a session starts from.
type Order struct {
	ID             int64              `json:"id"`
	Status         enums.OrderStatus  `json:"status"`
	Lines          []Line             `json:"lines"`
	Charges        []pos.OtherCharge  `json:"charges"`
	Payments       []pos.PaymentEntry `json:"payments"`
	GlobalDiscount decimal.Decimal    `json:"global_discount"`
	CustomerID     *int64             `json:"customer_id,omitempty"`
	CarGateID      *int64             `json:"car_gate_id,omitempty"`
	Remark         string             `json:"remark,omitempty"`
}

// Session is one in-progress edit of a historical order. Payment rows
// are keyed by their opaque PaymentID: the same method can appear
// several times across an order's payment history.
type Session struct {
	ID    uuid.UUID `json:"id"`
	Order Order     `json:"order"`
}

// Totals derives the session's amounts. Collected counts only
// completed payments; Planned sums every row; Remaining is the payable
// not yet covered by any planned allocation, the figure the terminal
// warns on before a commit.
type Totals struct {
	ItemTotal        decimal.Decimal `json:"item_total"`
	OtherChargeTotal decimal.Decimal `json:"other_charge_total"`
	GlobalDiscount   decimal.Decimal `json:"global_discount"`
	Payable          decimal.Decimal `json:"payable"`
	Collected        decimal.Decimal `json:"collected"`
	Planned          decimal.Decimal `json:"planned"`
	Remaining        decimal.Decimal `json:"remaining"`
}

// TotalsView recomputes the derived totals for the working copy.
func (s *Session) TotalsView() Totals {
	out := Totals{GlobalDiscount: s.Order.GlobalDiscount}
	out.ItemTotal = decimal.Zero
	for _, l := range s.Order.Lines {
		out.ItemTotal = out.ItemTotal.Add(l.Amount())
	}
	out.OtherChargeTotal = decimal.Zero
	for _, c := range s.Order.Charges {
		out.OtherChargeTotal = out.OtherChargeTotal.Add(c.Amount)
	}
	out.Payable = out.ItemTotal.Add(out.OtherChargeTotal).Sub(out.GlobalDiscount)
	if out.Payable.IsNegative() {
		out.Payable = decimal.Zero
	}
	out.Collected = pos.SumCompletedPayments(s.Order.Payments)
	out.Planned = pos.SumPayments(s.Order.Payments)
	out.Remaining = out.Payable.Sub(out.Planned)
	return out
}

func (s *Session) clone() *Session {
	out := *s
	out.Order.Lines = append([]Line(nil), s.Order.Lines...)
	out.Order.Charges = append([]pos.OtherCharge(nil), s.Order.Charges...)
	out.Order.Payments = append([]pos.PaymentEntry(nil), s.Order.Payments...)
	if s.Order.CustomerID != nil {
		id := *s.Order.CustomerID
		out.Order.CustomerID = &id
	}
	if s.Order.CarGateID != nil {
		gate := *s.Order.CarGateID
		out.Order.CarGateID = &gate
	}
	return &out
}

func (s *Session) paymentIndex(paymentID string) int {
	for i, p := range s.Order.Payments {
		if p.PaymentID == paymentID {
			return i
		}
	}
	return -1
}

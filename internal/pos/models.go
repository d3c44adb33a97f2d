package pos

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tillworks/tillpoint-backend/pkg/enums"
)

// DefaultCashMethodID is the payment method synthesized when a
// rebalance needs a row and none is pending. By convention the remote
// service reserves id 1 for cash.
const (
	DefaultCashMethodID   int64 = 1
	DefaultCashMethodName       = "Cash"
)

// UnitConversion is an alternate sale unit carrying a multiplier
// applied to base-unit quantity and price.
type UnitConversion struct {
	ID             int64           `json:"id"`
	Name           string          `json:"name"`
	ConversionRate decimal.Decimal `json:"conversion_rate"`
}

// Product is the read-only catalog view the engine consumes.
type Product struct {
	ID                int64            `json:"id"`
	Name              string           `json:"name"`
	SKU               string           `json:"sku"`
	ImagePath         string           `json:"image_path,omitempty"`
	Price             decimal.Decimal  `json:"price"`
	TotalCurrentStock int              `json:"total_current_stock"`
	UnitConversions   []UnitConversion `json:"unit_conversions,omitempty"`
}

// CustomerRef identifies the customer attached to a tab.
type CustomerRef struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	CreditLimit decimal.Decimal `json:"credit_limit"`
	Debt        decimal.Decimal `json:"debt"`
}

// CartLine is one product line on a tab. The same product sold under
// two different units produces two lines; (ProductID, UnitName) is the
// uniqueness key. UnitPrice is the price of one sale unit, already
// converted (base price x QtyMultiplier); the multiplier is kept only
// to translate back to base units at submission time.
type CartLine struct {
	ProductID     int64           `json:"product_id"`
	Name          string          `json:"name"`
	SKU           string          `json:"sku"`
	ImagePath     string          `json:"image_path,omitempty"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	Qty           int             `json:"qty"`
	UnitName      string          `json:"unit_name,omitempty"`
	QtyMultiplier decimal.Decimal `json:"qty_multiplier"`
}

// Amount returns the converted unit price x qty.
func (l CartLine) Amount() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Qty)))
}

// matches reports whether the line carries the given uniqueness key.
func (l CartLine) matches(productID int64, unitName string) bool {
	return l.ProductID == productID && l.UnitName == unitName
}

// OtherCharge is a named non-product fee allocated to an order.
// ChargeID is the uniqueness key; one row per charge type.
type OtherCharge struct {
	ChargeID int64           `json:"charge_id"`
	Name     string          `json:"name"`
	Amount   decimal.Decimal `json:"amount"`
}

// PaymentEntry is one payment allocation row. During new-order
// composition MethodID is the uniqueness key; the order-edit flow
// relaxes that and distinguishes historical rows by PaymentID.
type PaymentEntry struct {
	PaymentID   string                   `json:"payment_id,omitempty"`
	MethodID    int64                    `json:"method_id"`
	Name        string                   `json:"name"`
	Amount      decimal.Decimal          `json:"amount"`
	ReferenceID string                   `json:"reference_id,omitempty"`
	QRPayload   string                   `json:"qr_payload,omitempty"`
	Role        enums.PaymentRole        `json:"role"`
	Status      enums.PaymentEntryStatus `json:"status,omitempty"`
}

// PaymentPatch carries a partial update for one payment row. Nil
// fields are left untouched.
type PaymentPatch struct {
	Amount      *decimal.Decimal
	ReferenceID *string
	QRPayload   *string
	Status      *enums.PaymentEntryStatus
}

// CheckoutDetails aggregates the non-cart state of one tab.
type CheckoutDetails struct {
	CarGateID      *int64          `json:"car_gate_id,omitempty"`
	OtherCharges   []OtherCharge   `json:"other_charges,omitempty"`
	Payments       []PaymentEntry  `json:"payments,omitempty"`
	Remark         string          `json:"remark,omitempty"`
	GlobalDiscount decimal.Decimal `json:"global_discount"`
}

// Tab is one independent in-progress order composition.
type Tab struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	Cart      []CartLine      `json:"cart"`
	Customer  *CustomerRef    `json:"customer,omitempty"`
	Details   CheckoutDetails `json:"details"`
	CreatedAt time.Time       `json:"created_at"`
}

// clone deep-copies the tab so callers can never alias store state.
func (t *Tab) clone() *Tab {
	if t == nil {
		return nil
	}
	out := *t
	out.Cart = append([]CartLine(nil), t.Cart...)
	out.Details.OtherCharges = append([]OtherCharge(nil), t.Details.OtherCharges...)
	out.Details.Payments = append([]PaymentEntry(nil), t.Details.Payments...)
	if t.Customer != nil {
		customer := *t.Customer
		out.Customer = &customer
	}
	if t.Details.CarGateID != nil {
		gate := *t.Details.CarGateID
		out.Details.CarGateID = &gate
	}
	return &out
}

// cleared returns the tab reset to an empty composition. Identity and
// name survive; only the contents are dropped.
func (t *Tab) cleared() *Tab {
	return &Tab{
		ID:        t.ID,
		Name:      t.Name,
		Cart:      nil,
		Customer:  nil,
		Details:   CheckoutDetails{GlobalDiscount: decimal.Zero},
		CreatedAt: t.CreatedAt,
	}
}

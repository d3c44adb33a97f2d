package pos

import (
	"github.com/shopspring/decimal"

	"github.com/tillworks/tillpoint-backend/pkg/enums"
	pkgerrors "github.com/tillworks/tillpoint-backend/pkg/errors"
)

// SetCustomer attaches a customer to the active tab; nil detaches.
func (s *Store) SetCustomer(sc enums.SaleContext, c *CustomerRef) error {
	return s.mutateActive(sc, func(t *Tab) (bool, error) {
		if c == nil {
			t.Customer = nil
			return true, nil
		}
		customer := *c
		t.Customer = &customer
		return true, nil
	})
}

// SetCarGate records the dispatch gate; nil clears it.
func (s *Store) SetCarGate(sc enums.SaleContext, gateID *int64) error {
	return s.mutateActive(sc, func(t *Tab) (bool, error) {
		if gateID == nil {
			t.Details.CarGateID = nil
			return true, nil
		}
		gate := *gateID
		t.Details.CarGateID = &gate
		return true, nil
	})
}

// SetRemark replaces the free-text remark.
func (s *Store) SetRemark(sc enums.SaleContext, remark string) error {
	return s.mutateActive(sc, func(t *Tab) (bool, error) {
		if t.Details.Remark == remark {
			return false, nil
		}
		t.Details.Remark = remark
		return true, nil
	})
}

// SetGlobalDiscount sets the order-level discount amount. Negative
// values are clamped to zero.
func (s *Store) SetGlobalDiscount(sc enums.SaleContext, amount decimal.Decimal) error {
	if amount.IsNegative() {
		amount = decimal.Zero
	}
	return s.mutateActive(sc, func(t *Tab) (bool, error) {
		if t.Details.GlobalDiscount.Equal(amount) {
			return false, nil
		}
		t.Details.GlobalDiscount = amount
		return true, nil
	})
}

// AddOtherCharge appends a charge row. A second row for the same
// charge type is rejected; amounts adjust through UpdateOtherCharge.
func (s *Store) AddOtherCharge(sc enums.SaleContext, charge OtherCharge) error {
	if charge.Amount.IsNegative() {
		charge.Amount = decimal.Zero
	}
	return s.mutateActive(sc, func(t *Tab) (bool, error) {
		for _, c := range t.Details.OtherCharges {
			if c.ChargeID == charge.ChargeID {
				return false, pkgerrors.New(pkgerrors.CodeConflict, "charge already added")
			}
		}
		t.Details.OtherCharges = append(t.Details.OtherCharges, charge)
		return true, nil
	})
}

// UpdateOtherCharge replaces a charge row's amount. Negative values
// are clamped to zero.
func (s *Store) UpdateOtherCharge(sc enums.SaleContext, chargeID int64, amount decimal.Decimal) error {
	if amount.IsNegative() {
		amount = decimal.Zero
	}
	return s.mutateActive(sc, func(t *Tab) (bool, error) {
		for i := range t.Details.OtherCharges {
			if t.Details.OtherCharges[i].ChargeID == chargeID {
				t.Details.OtherCharges[i].Amount = amount
				return true, nil
			}
		}
		return false, pkgerrors.New(pkgerrors.CodeNotFound, "charge not found")
	})
}

// RemoveOtherCharge drops a charge row.
func (s *Store) RemoveOtherCharge(sc enums.SaleContext, chargeID int64) error {
	return s.mutateActive(sc, func(t *Tab) (bool, error) {
		for i := range t.Details.OtherCharges {
			if t.Details.OtherCharges[i].ChargeID == chargeID {
				t.Details.OtherCharges = append(t.Details.OtherCharges[:i], t.Details.OtherCharges[i+1:]...)
				return true, nil
			}
		}
		return false, nil
	})
}

// AddPayment appends a payment allocation row. During composition one
// row per payment method: a duplicate method is rejected so amounts
// adjust through UpdatePayment instead of stacking rows.
func (s *Store) AddPayment(sc enums.SaleContext, entry PaymentEntry) error {
	if entry.Amount.IsNegative() {
		entry.Amount = decimal.Zero
	}
	if entry.Role == "" {
		entry.Role = enums.PaymentRoleStandard
	}
	return s.mutateActive(sc, func(t *Tab) (bool, error) {
		for _, p := range t.Details.Payments {
			if p.MethodID == entry.MethodID {
				return false, pkgerrors.New(pkgerrors.CodeConflict, "payment method already added")
			}
		}
		t.Details.Payments = append(t.Details.Payments, entry)
		return true, nil
	})
}

// UpdatePayment applies a partial update to the row for a method.
func (s *Store) UpdatePayment(sc enums.SaleContext, methodID int64, patch PaymentPatch) error {
	return s.mutateActive(sc, func(t *Tab) (bool, error) {
		for i := range t.Details.Payments {
			if t.Details.Payments[i].MethodID != methodID {
				continue
			}
			applyPaymentPatch(&t.Details.Payments[i], patch)
			return true, nil
		}
		return false, pkgerrors.New(pkgerrors.CodeNotFound, "payment row not found")
	})
}

// RemovePayment drops the row for a method.
func (s *Store) RemovePayment(sc enums.SaleContext, methodID int64) error {
	return s.mutateActive(sc, func(t *Tab) (bool, error) {
		for i := range t.Details.Payments {
			if t.Details.Payments[i].MethodID == methodID {
				t.Details.Payments = append(t.Details.Payments[:i], t.Details.Payments[i+1:]...)
				return true, nil
			}
		}
		return false, nil
	})
}

func applyPaymentPatch(row *PaymentEntry, patch PaymentPatch) {
	if patch.Amount != nil {
		amount := *patch.Amount
		if amount.IsNegative() {
			amount = decimal.Zero
		}
		row.Amount = amount
	}
	if patch.ReferenceID != nil {
		row.ReferenceID = *patch.ReferenceID
	}
	if patch.QRPayload != nil {
		row.QRPayload = *patch.QRPayload
	}
	if patch.Status != nil {
		row.Status = *patch.Status
	}
}

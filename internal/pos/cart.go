package pos

import (
	"github.com/shopspring/decimal"

	"github.com/tillworks/tillpoint-backend/pkg/enums"
)

// AddToCart adds one unit of the product under the given sale unit to
// the active tab. An existing (product, unit) line gains qty 1; a
// missing one is appended with qty 1 and a unit price derived from the
// base price and the unit's conversion rate.
func (s *Store) AddToCart(sc enums.SaleContext, p Product, unitName string, multiplier decimal.Decimal) error {
	if multiplier.LessThanOrEqual(decimal.Zero) {
		multiplier = decimal.NewFromInt(1)
	}
	return s.mutateActive(sc, func(t *Tab) (bool, error) {
		for i := range t.Cart {
			if t.Cart[i].matches(p.ID, unitName) {
				t.Cart[i].Qty++
				return true, nil
			}
		}
		t.Cart = append(t.Cart, CartLine{
			ProductID:     p.ID,
			Name:          p.Name,
			SKU:           p.SKU,
			ImagePath:     p.ImagePath,
			UnitPrice:     p.Price.Mul(multiplier),
			Qty:           1,
			UnitName:      unitName,
			QtyMultiplier: multiplier,
		})
		return true, nil
	})
}

// UpdateCartQty applies a signed delta to a line's quantity. A result
// at or below zero removes the line. Unknown lines are a no-op.
func (s *Store) UpdateCartQty(sc enums.SaleContext, productID int64, unitName string, delta int) error {
	return s.mutateActive(sc, func(t *Tab) (bool, error) {
		for i := range t.Cart {
			if !t.Cart[i].matches(productID, unitName) {
				continue
			}
			next := t.Cart[i].Qty + delta
			if next <= 0 {
				t.Cart = append(t.Cart[:i], t.Cart[i+1:]...)
			} else {
				t.Cart[i].Qty = next
			}
			return true, nil
		}
		return false, nil
	})
}

// SetCartItemQty sets a line's quantity outright. Values below one are
// clamped to one; removal goes through UpdateCartQty or RemoveFromCart.
func (s *Store) SetCartItemQty(sc enums.SaleContext, productID int64, unitName string, qty int) error {
	if qty < 1 {
		qty = 1
	}
	return s.mutateActive(sc, func(t *Tab) (bool, error) {
		for i := range t.Cart {
			if t.Cart[i].matches(productID, unitName) {
				if t.Cart[i].Qty == qty {
					return false, nil
				}
				t.Cart[i].Qty = qty
				return true, nil
			}
		}
		return false, nil
	})
}

// UpdateCartItemPrice overrides a line's unit price. Negative values
// are clamped to zero.
func (s *Store) UpdateCartItemPrice(sc enums.SaleContext, productID int64, unitName string, price decimal.Decimal) error {
	if price.IsNegative() {
		price = decimal.Zero
	}
	return s.mutateActive(sc, func(t *Tab) (bool, error) {
		for i := range t.Cart {
			if t.Cart[i].matches(productID, unitName) {
				if t.Cart[i].UnitPrice.Equal(price) {
					return false, nil
				}
				t.Cart[i].UnitPrice = price
				return true, nil
			}
		}
		return false, nil
	})
}

// RemoveFromCart drops a line regardless of quantity.
func (s *Store) RemoveFromCart(sc enums.SaleContext, productID int64, unitName string) error {
	return s.mutateActive(sc, func(t *Tab) (bool, error) {
		for i := range t.Cart {
			if t.Cart[i].matches(productID, unitName) {
				t.Cart = append(t.Cart[:i], t.Cart[i+1:]...)
				return true, nil
			}
		}
		return false, nil
	})
}

package enums

import "fmt"

// SaleContext separates the customer-facing register flow from the
// internal purchase-order flow. Each context owns its own set of tabs.
type SaleContext string

const (
	SaleContextRetail   SaleContext = "retail"
	SaleContextPurchase SaleContext = "purchase"
)

var validSaleContexts = []SaleContext{
	SaleContextRetail,
	SaleContextPurchase,
}

// String implements fmt.Stringer.
func (s SaleContext) String() string {
	return string(s)
}

// IsValid reports whether the value is a known SaleContext.
func (s SaleContext) IsValid() bool {
	for _, candidate := range validSaleContexts {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseSaleContext converts raw input into a SaleContext.
func ParseSaleContext(value string) (SaleContext, error) {
	for _, candidate := range validSaleContexts {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid sale context %q", value)
}

// SaleContexts returns every known context in declaration order.
func SaleContexts() []SaleContext {
	out := make([]SaleContext, len(validSaleContexts))
	copy(out, validSaleContexts)
	return out
}

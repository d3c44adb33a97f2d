package enums

import "fmt"

// PaymentRole marks what part a payment method plays during
// reconciliation. At most one configured method should carry
// PaymentRoleChangeAbsorber; it silently absorbs overpayment.
type PaymentRole string

const (
	PaymentRoleStandard       PaymentRole = "standard"
	PaymentRoleChangeAbsorber PaymentRole = "change_absorber"
)

var validPaymentRoles = []PaymentRole{
	PaymentRoleStandard,
	PaymentRoleChangeAbsorber,
}

// String implements fmt.Stringer.
func (p PaymentRole) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentRole.
func (p PaymentRole) IsValid() bool {
	for _, candidate := range validPaymentRoles {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePaymentRole converts raw input into a PaymentRole. Empty input
// maps to the standard role so catalog payloads may omit it.
func ParsePaymentRole(value string) (PaymentRole, error) {
	if value == "" {
		return PaymentRoleStandard, nil
	}
	for _, candidate := range validPaymentRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment role %q", value)
}

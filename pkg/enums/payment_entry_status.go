package enums

import "fmt"

// PaymentEntryStatus tracks whether a payment row on an order has
// settled. Completed rows are immutable during rebalancing.
type PaymentEntryStatus string

const (
	PaymentEntryStatusPending   PaymentEntryStatus = "pending"
	PaymentEntryStatusCompleted PaymentEntryStatus = "completed"
)

var validPaymentEntryStatuses = []PaymentEntryStatus{
	PaymentEntryStatusPending,
	PaymentEntryStatusCompleted,
}

// String implements fmt.Stringer.
func (p PaymentEntryStatus) String() string {
	return string(p)
}

// Completed reports whether the row has settled upstream.
func (p PaymentEntryStatus) Completed() bool {
	return p == PaymentEntryStatusCompleted
}

// IsValid reports whether the value is a known PaymentEntryStatus.
func (p PaymentEntryStatus) IsValid() bool {
	for _, candidate := range validPaymentEntryStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePaymentEntryStatus converts raw input into a PaymentEntryStatus.
func ParsePaymentEntryStatus(value string) (PaymentEntryStatus, error) {
	for _, candidate := range validPaymentEntryStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment entry status %q", value)
}

package enums

import "fmt"

// PaymentStatus tracks the lifecycle of an order's payment.
type PaymentStatus string

const (
	PaymentStatusLead           PaymentStatus = "lead"
	PaymentStatusPending        PaymentStatus = "pending"
	PaymentStatusPartiallyPaid  PaymentStatus = "partially_paid"
	PaymentStatusIntentVerified PaymentStatus = "intent_verified"
	PaymentStatusAuthorized     PaymentStatus = "authorized"
	PaymentStatusPaid           PaymentStatus = "paid"
	PaymentStatusFeeCharged     PaymentStatus = "fee_charged"
	PaymentStatusVoided         PaymentStatus = "voided"
	PaymentStatusRefunded       PaymentStatus = "refunded"
)

var validPaymentStatuses = []PaymentStatus{
	PaymentStatusLead,
	PaymentStatusPending,
	PaymentStatusPartiallyPaid,
	PaymentStatusIntentVerified,
	PaymentStatusAuthorized,
	PaymentStatusPaid,
	PaymentStatusFeeCharged,
	PaymentStatusVoided,
	PaymentStatusRefunded,
}

// precedenceRank orders statuses for reconciliation: when multiple records
// disagree about one order, the highest-ranked status wins regardless of
// fold order. Statuses outside this map never beat the representative.
var precedenceRank = map[PaymentStatus]int{
	PaymentStatusPaid:       1,
	PaymentStatusFeeCharged: 2,
	PaymentStatusRefunded:   3,
	PaymentStatusVoided:     4,
}

// String implements fmt.Stringer.
func (p PaymentStatus) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentStatus.
func (p PaymentStatus) IsValid() bool {
	for _, candidate := range validPaymentStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// PrecedenceRank returns the reconciliation rank; zero means the status
// carries no override weight.
func (p PaymentStatus) PrecedenceRank() int {
	return precedenceRank[p]
}

// IsTerminal reports whether the status ends the gateway-driven lifecycle.
func (p PaymentStatus) IsTerminal() bool {
	switch p {
	case PaymentStatusPaid, PaymentStatusRefunded, PaymentStatusVoided, PaymentStatusFeeCharged:
		return true
	default:
		return false
	}
}

// ParsePaymentStatus converts raw input into a PaymentStatus.
func ParsePaymentStatus(value string) (PaymentStatus, error) {
	for _, candidate := range validPaymentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment status %q", value)
}

package enums

import "fmt"

// PaymentMethod is the customer-facing payment method label. The secure
// charge-on-delivery method is the only one eligible for discounts.
type PaymentMethod string

const (
	PaymentMethodSecureCOD PaymentMethod = "Secure Charge on Delivery"
	PaymentMethodCOD       PaymentMethod = "Cash on Delivery"
	PaymentMethodPrepaid   PaymentMethod = "Prepaid"
)

var validPaymentMethods = []PaymentMethod{
	PaymentMethodSecureCOD,
	PaymentMethodCOD,
	PaymentMethodPrepaid,
}

// String implements fmt.Stringer.
func (p PaymentMethod) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentMethod.
func (p PaymentMethod) IsValid() bool {
	for _, candidate := range validPaymentMethods {
		if candidate == p {
			return true
		}
	}
	return false
}

// DiscountEligible reports whether discount rules may apply to this method.
func (p PaymentMethod) DiscountEligible() bool {
	return p == PaymentMethodSecureCOD
}

// ParsePaymentMethod converts raw input into a PaymentMethod.
func ParsePaymentMethod(value string) (PaymentMethod, error) {
	for _, candidate := range validPaymentMethods {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment method %q", value)
}

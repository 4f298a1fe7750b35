package payments

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/smartkartops/smartkart-backend/internal/records"
	"github.com/smartkartops/smartkart-backend/pkg/db/models"
	"github.com/smartkartops/smartkart-backend/pkg/enums"
)

// Action names a state machine transition an operator or customer can apply
// to an order.
type Action string

const (
	// ActionCapture completes an authorized hold after delivery.
	ActionCapture Action = "capture"
	// ActionCancel is a customer-initiated void of an authorized hold.
	ActionCancel Action = "cancel"
	// ActionVoid is an admin-assisted void, gated on the order's
	// cancellation code.
	ActionVoid Action = "void"
	// ActionChargeFee captures the hold and refunds everything but the fee.
	ActionChargeFee Action = "charge_fee"
	// ActionRefund returns money against the recorded hold.
	ActionRefund Action = "refund"
)

var validActions = []Action{
	ActionCapture,
	ActionCancel,
	ActionVoid,
	ActionChargeFee,
	ActionRefund,
}

// String implements fmt.Stringer.
func (a Action) String() string {
	return string(a)
}

// IsValid reports whether the value is a known Action.
func (a Action) IsValid() bool {
	for _, candidate := range validActions {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseAction converts raw input into an Action.
func ParseAction(value string) (Action, error) {
	for _, candidate := range validActions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid transition action %q", value)
}

// CheckoutInput carries one checkout attempt: the raw order details plus the
// gateway payment source the customer tokenized client-side.
type CheckoutInput struct {
	Record    records.RecordInput
	SourceID  string
	Signature string
}

// CheckoutResult reports the outcome of an intent verification.
type CheckoutResult struct {
	Record    *models.OrderRecord `json:"record"`
	PaymentID string              `json:"payment_id"`
	Status    enums.PaymentStatus `json:"status"`
}

// AuthorizeResult reports a successful full-amount hold.
type AuthorizeResult struct {
	Record        *models.OrderRecord          `json:"record"`
	Authorization *models.PaymentAuthorization `json:"authorization"`
	LoyaltyCard   *models.LoyaltyCard          `json:"loyalty_card,omitempty"`
}

// TransitionParams carries the action-specific inputs for a transition.
type TransitionParams struct {
	CancellationCode string
	Reason           string
	Fee              *decimal.Decimal
	Amount           *decimal.Decimal
}

// TransitionResult reports an applied transition.
type TransitionResult struct {
	BusinessOrderCode string              `json:"business_order_code"`
	Action            Action              `json:"action"`
	PreviousStatus    enums.PaymentStatus `json:"previous_status"`
	NewStatus         enums.PaymentStatus `json:"new_status"`
	RefundAmount      *decimal.Decimal    `json:"refund_amount,omitempty"`
	CancellationFee   *decimal.Decimal    `json:"cancellation_fee,omitempty"`
}

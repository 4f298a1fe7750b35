package cancellation

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/smartkartops/smartkart-backend/pkg/errors"
)

// DefaultSelfServiceWindow is how long after authorization a customer may
// cancel without presenting the cancellation code.
const DefaultSelfServiceWindow = 24 * time.Hour

// WithinSelfServiceWindow reports whether now is strictly inside the
// self-service cancellation window that opened at authorizedAt.
func WithinSelfServiceWindow(authorizedAt, now time.Time, window time.Duration) bool {
	if window <= 0 {
		window = DefaultSelfServiceWindow
	}
	return now.Sub(authorizedAt) < window
}

// ValidateCode checks the customer-supplied cancellation code against the
// canonical one. The code itself is the authorization token; possession is
// sufficient.
func ValidateCode(supplied, canonical string) error {
	supplied = strings.TrimSpace(supplied)
	if supplied == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "cancellation code required")
	}
	if supplied != strings.TrimSpace(canonical) {
		return pkgerrors.New(pkgerrors.CodeForbidden, "cancellation code does not match")
	}
	return nil
}

// FeeBreakdown validates a cancellation fee against the authorized total and
// returns the remainder to refund. The fee must be positive and strictly
// below the total; both legs round to two places.
func FeeBreakdown(total, fee decimal.Decimal) (decimal.Decimal, error) {
	total = total.Round(2)
	fee = fee.Round(2)

	if fee.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "cancellation fee must be greater than zero")
	}
	if fee.GreaterThanOrEqual(total) {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "cancellation fee must be less than the authorized amount")
	}
	return total.Sub(fee).Round(2), nil
}

package payments

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/smartkartops/smartkart-backend/internal/reconcile"
	"github.com/smartkartops/smartkart-backend/pkg/db/models"
)

// GatewayPayment is the gateway-agnostic shape of a payment reference.
type GatewayPayment struct {
	PaymentID      string
	GatewayOrderID string
	Status         string
}

// Gateway is the opaque payment collaborator. Implementations own auth,
// idempotency, retries, and error mapping; callers only see domain errors.
type Gateway interface {
	VerifyIntent(ctx context.Context, referenceID, sourceID string) (*GatewayPayment, error)
	Authorize(ctx context.Context, referenceID, sourceID string, amount decimal.Decimal) (*GatewayPayment, error)
	Capture(ctx context.Context, paymentID string) error
	Void(ctx context.Context, paymentID string) error
	Refund(ctx context.Context, paymentID string, amount decimal.Decimal, reason string) error
}

type locker interface {
	AcquireLock(ctx context.Context, scope, token string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, scope, token string) error
}

type canonicalReader interface {
	CanonicalByCode(ctx context.Context, businessOrderCode string) (*reconcile.CanonicalOrder, error)
}

type loyaltyIssuer interface {
	EnsureCard(ctx context.Context, phone string) (*models.LoyaltyCard, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

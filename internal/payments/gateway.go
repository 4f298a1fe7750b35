package payments

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	sq "github.com/square/square-go-sdk"

	"github.com/smartkartops/smartkart-backend/pkg/metrics"
	"github.com/smartkartops/smartkart-backend/pkg/square"
)

const defaultIntentAmountMinor = 100

// squareGateway adapts the Square wrapper to the domain Gateway surface,
// converting rupee decimals to paise and timing every call.
type squareGateway struct {
	client            *square.Client
	metrics           *metrics.EngineMetrics
	intentAmountMinor int64
}

// NewSquareGateway wires the Square-backed payment gateway.
func NewSquareGateway(client *square.Client, m *metrics.EngineMetrics, intentAmountMinor int64) (Gateway, error) {
	if client == nil {
		return nil, fmt.Errorf("square client required")
	}
	if intentAmountMinor <= 0 {
		intentAmountMinor = defaultIntentAmountMinor
	}
	return &squareGateway{client: client, metrics: m, intentAmountMinor: intentAmountMinor}, nil
}

// toMinorUnits converts a two-place decimal amount to integer minor units.
func toMinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

func (g *squareGateway) VerifyIntent(ctx context.Context, referenceID, sourceID string) (*GatewayPayment, error) {
	start := time.Now()
	payment, err := g.client.VerifyIntent(ctx, square.PaymentCreateParams{
		AmountCents: g.intentAmountMinor,
		SourceID:    sourceID,
		ReferenceID: referenceID,
		Note:        "payment intent verification",
	})
	g.metrics.ObserveGateway("verify_intent", time.Since(start))
	if err != nil {
		return nil, err
	}
	return fromSquarePayment(payment), nil
}

func (g *squareGateway) Authorize(ctx context.Context, referenceID, sourceID string, amount decimal.Decimal) (*GatewayPayment, error) {
	start := time.Now()
	payment, err := g.client.AuthorizePayment(ctx, square.PaymentCreateParams{
		AmountCents: toMinorUnits(amount),
		SourceID:    sourceID,
		ReferenceID: referenceID,
	})
	g.metrics.ObserveGateway("authorize", time.Since(start))
	if err != nil {
		return nil, err
	}
	return fromSquarePayment(payment), nil
}

func (g *squareGateway) Capture(ctx context.Context, paymentID string) error {
	start := time.Now()
	_, err := g.client.CapturePayment(ctx, paymentID)
	g.metrics.ObserveGateway("capture", time.Since(start))
	return err
}

func (g *squareGateway) Void(ctx context.Context, paymentID string) error {
	start := time.Now()
	_, err := g.client.VoidPayment(ctx, paymentID)
	g.metrics.ObserveGateway("void", time.Since(start))
	return err
}

func (g *squareGateway) Refund(ctx context.Context, paymentID string, amount decimal.Decimal, reason string) error {
	start := time.Now()
	_, err := g.client.RefundPayment(ctx, square.RefundCreateParams{
		PaymentID:   paymentID,
		AmountCents: toMinorUnits(amount),
		Reason:      reason,
	})
	g.metrics.ObserveGateway("refund", time.Since(start))
	return err
}

func fromSquarePayment(payment *sq.Payment) *GatewayPayment {
	if payment == nil {
		return &GatewayPayment{}
	}
	return &GatewayPayment{
		PaymentID:      deref(payment.GetID()),
		GatewayOrderID: deref(payment.GetOrderID()),
		Status:         deref(payment.GetStatus()),
	}
}

func deref(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return *ptr
}

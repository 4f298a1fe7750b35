package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/smartkartops/smartkart-backend/api/responses"
	"github.com/smartkartops/smartkart-backend/api/validators"
	"github.com/smartkartops/smartkart-backend/internal/discounts"
	"github.com/smartkartops/smartkart-backend/internal/payments"
	"github.com/smartkartops/smartkart-backend/internal/records"
	"github.com/smartkartops/smartkart-backend/pkg/logger"
)

// checkoutPayload is one checkout attempt: the raw order details, the
// tokenized payment source, and an optional link-embedded discount.
type checkoutPayload struct {
	recordPayload
	SourceID        string           `json:"source_id" validate:"required"`
	Signature       string           `json:"signature"`
	DiscountPercent *decimal.Decimal `json:"discount_percent"`
}

// quote applies the discount resolver to the unit price. Price on the wire is
// per unit; the stored record carries group totals.
func (p checkoutPayload) quote(r *http.Request, resolver discounts.Service, input *records.RecordInput) error {
	rule, err := resolver.Resolve(r.Context(), discounts.ResolveQuery{
		ProductID:      stringValue(p.ProductID),
		VendorName:     p.VendorName,
		CollectionName: p.CollectionName,
		LinkPercent:    p.DiscountPercent,
		PaymentMethod:  input.PaymentMethod,
	})
	if err != nil {
		return err
	}

	percent := decimal.Zero
	if rule != nil {
		percent = rule.Percent
	}
	quote := discounts.Quote(p.Price, p.Quantity, percent)
	input.Price = quote.TotalPrice
	input.OriginalPrice = quote.OriginalPrice
	input.DiscountPercentage = quote.Percent
	return nil
}

// VerifyIntent runs the minimal verification charge and records the lead.
func VerifyIntent(svc payments.Service, resolver discounts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var payload checkoutPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if err := payload.quote(r, resolver, &input); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := svc.VerifyIntent(ctx, payments.CheckoutInput{
			Record:    input,
			SourceID:  payload.SourceID,
			Signature: payload.Signature,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// Authorize places the full-amount hold and converts the lead.
func Authorize(svc payments.Service, resolver discounts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var payload checkoutPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if err := payload.quote(r, resolver, &input); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := svc.Authorize(ctx, payments.CheckoutInput{
			Record:    input,
			SourceID:  payload.SourceID,
			Signature: payload.Signature,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

func stringValue(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return *ptr
}

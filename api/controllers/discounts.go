package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/smartkartops/smartkart-backend/api/responses"
	"github.com/smartkartops/smartkart-backend/api/validators"
	"github.com/smartkartops/smartkart-backend/internal/discounts"
	"github.com/smartkartops/smartkart-backend/pkg/enums"
	pkgerrors "github.com/smartkartops/smartkart-backend/pkg/errors"
	"github.com/smartkartops/smartkart-backend/pkg/logger"
)

type resolveDiscountPayload struct {
	ProductID       string           `json:"product_id"`
	VendorName      string           `json:"vendor_name"`
	CollectionName  string           `json:"collection_name"`
	PaymentMethod   string           `json:"payment_method" validate:"required"`
	DiscountPercent *decimal.Decimal `json:"discount_percent"`
	UnitPrice       *decimal.Decimal `json:"unit_price"`
	Quantity        int              `json:"quantity" validate:"omitempty,min=1"`
}

type putDiscountPayload struct {
	Percent decimal.Decimal `json:"percent" validate:"required"`
}

// ResolveDiscount reports which rule applies to an order and, when a price is
// supplied, the resulting quote.
func ResolveDiscount(svc discounts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var payload resolveDiscountPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		method, err := enums.ParsePaymentMethod(payload.PaymentMethod)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method"))
			return
		}

		rule, err := svc.Resolve(ctx, discounts.ResolveQuery{
			ProductID:      payload.ProductID,
			VendorName:     payload.VendorName,
			CollectionName: payload.CollectionName,
			LinkPercent:    payload.DiscountPercent,
			PaymentMethod:  method,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		body := map[string]any{"rule": rule}
		if rule != nil && payload.UnitPrice != nil && payload.Quantity > 0 {
			body["quote"] = discounts.Quote(*payload.UnitPrice, payload.Quantity, rule.Percent)
		}
		responses.WriteSuccess(w, body)
	}
}

// ListDiscounts serves every stored discount rule.
func ListDiscounts(svc discounts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		rules, err := svc.ListRules(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, rules)
	}
}

// PutDiscount creates or replaces one scoped discount rule.
func PutDiscount(svc discounts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var payload putDiscountPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		rule, err := svc.PutRule(ctx, chi.URLParam(r, "ruleID"), payload.Percent)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, rule)
	}
}

package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/smartkartops/smartkart-backend/api/responses"
	"github.com/smartkartops/smartkart-backend/api/validators"
	"github.com/smartkartops/smartkart-backend/internal/payments"
	pkgerrors "github.com/smartkartops/smartkart-backend/pkg/errors"
	"github.com/smartkartops/smartkart-backend/pkg/logger"
)

type transitionPayload struct {
	Action           string           `json:"action" validate:"required"`
	CancellationCode string           `json:"cancellation_code"`
	Reason           string           `json:"reason"`
	Fee              *decimal.Decimal `json:"fee"`
	Amount           *decimal.Decimal `json:"amount"`
}

// Transition applies one state machine action to an order.
func Transition(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		code := chi.URLParam(r, "code")

		var payload transitionPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		action, err := payments.ParseAction(payload.Action)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid action"))
			return
		}

		result, err := svc.Transition(ctx, code, action, payments.TransitionParams{
			CancellationCode: payload.CancellationCode,
			Reason:           payload.Reason,
			Fee:              payload.Fee,
			Amount:           payload.Amount,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// GetAuthorization serves the recorded hold for an order.
func GetAuthorization(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		auth, err := svc.AuthorizationByCode(ctx, chi.URLParam(r, "code"))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, auth)
	}
}

package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/smartkartops/smartkart-backend/api/responses"
	"github.com/smartkartops/smartkart-backend/internal/rewards"
	"github.com/smartkartops/smartkart-backend/pkg/logger"
)

// GetLoyaltyCard serves the loyalty card matched by phone number suffix.
func GetLoyaltyCard(svc rewards.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		card, err := svc.FindCard(ctx, chi.URLParam(r, "phone"))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, card)
	}
}

package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/smartkartops/smartkart-backend/api/responses"
	"github.com/smartkartops/smartkart-backend/internal/reconcile"
	"github.com/smartkartops/smartkart-backend/pkg/logger"
)

// ListOrders serves the unified order view, filtered by source.
func ListOrders(svc reconcile.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		source := reconcile.ViewSource(strings.TrimSpace(r.URL.Query().Get("source")))
		if source == "" {
			source = reconcile.ViewSourceOrders
		}

		orders, err := svc.UnifiedOrders(ctx, source)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, orders)
	}
}

// GetOrder serves one canonical order by business order code.
func GetOrder(svc reconcile.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		code := chi.URLParam(r, "code")
		order, err := svc.CanonicalByCode(ctx, code)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

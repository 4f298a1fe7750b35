package controllers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/smartkartops/smartkart-backend/api/responses"
	"github.com/smartkartops/smartkart-backend/api/validators"
	"github.com/smartkartops/smartkart-backend/internal/records"
	"github.com/smartkartops/smartkart-backend/pkg/enums"
	pkgerrors "github.com/smartkartops/smartkart-backend/pkg/errors"
	"github.com/smartkartops/smartkart-backend/pkg/logger"
)

// recordPayload is the wire shape of one raw record write from any source.
type recordPayload struct {
	BusinessOrderCode  string          `json:"business_order_code" validate:"required"`
	Source             string          `json:"source" validate:"required"`
	CustomerName       string          `json:"customer_name" validate:"required"`
	CustomerEmail      string          `json:"customer_email" validate:"omitempty,email"`
	CustomerPhone      string          `json:"customer_phone" validate:"required"`
	CustomerAddress    string          `json:"customer_address"`
	CustomerPincode    string          `json:"customer_pincode"`
	ProductID          *string         `json:"product_id"`
	ProductDescription string          `json:"product_description"`
	VendorName         string          `json:"vendor_name"`
	CollectionName     string          `json:"collection_name"`
	Quantity           int             `json:"quantity" validate:"required,min=1"`
	Price              decimal.Decimal `json:"price"`
	OriginalPrice      decimal.Decimal `json:"original_price"`
	DiscountPercentage decimal.Decimal `json:"discount_percentage"`
	PaymentStatus      string          `json:"payment_status"`
	PaymentMethod      string          `json:"payment_method" validate:"required"`
	Date               *time.Time      `json:"date"`
	TrackingNumber     *string         `json:"tracking_number"`
	DeliveryStatus     *string         `json:"delivery_status"`
}

func (p recordPayload) toInput() (records.RecordInput, error) {
	source, err := enums.ParseRecordSource(p.Source)
	if err != nil {
		return records.RecordInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid record source")
	}
	method, err := enums.ParsePaymentMethod(p.PaymentMethod)
	if err != nil {
		return records.RecordInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method")
	}

	input := records.RecordInput{
		BusinessOrderCode:  p.BusinessOrderCode,
		Source:             source,
		CustomerName:       p.CustomerName,
		CustomerEmail:      p.CustomerEmail,
		CustomerPhone:      p.CustomerPhone,
		CustomerAddress:    p.CustomerAddress,
		CustomerPincode:    p.CustomerPincode,
		ProductID:          p.ProductID,
		ProductDescription: p.ProductDescription,
		VendorName:         p.VendorName,
		CollectionName:     p.CollectionName,
		Quantity:           p.Quantity,
		Price:              p.Price,
		OriginalPrice:      p.OriginalPrice,
		DiscountPercentage: p.DiscountPercentage,
		PaymentMethod:      method,
		TrackingNumber:     p.TrackingNumber,
		DeliveryStatus:     p.DeliveryStatus,
	}
	if p.PaymentStatus != "" {
		status, err := enums.ParsePaymentStatus(p.PaymentStatus)
		if err != nil {
			return records.RecordInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment status")
		}
		input.PaymentStatus = status
	}
	if p.Date != nil {
		input.PlacedAt = *p.Date
	}
	if p.OriginalPrice.IsZero() {
		input.OriginalPrice = p.Price
	}
	return input, nil
}

// IngestOrder accepts one raw order record.
func IngestOrder(svc records.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var payload recordPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		record, err := svc.PutRawOrder(ctx, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, record)
	}
}

// IngestLead accepts one raw lead record.
func IngestLead(svc records.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var payload recordPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		record, err := svc.PutRawLead(ctx, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, record)
	}
}

// PutOverride layers a partial correction onto one raw record.
func PutOverride(svc records.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		recordID, err := uuid.Parse(chi.URLParam(r, "recordID"))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "record id must be a uuid"))
			return
		}

		var patch map[string]any
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid override patch"))
			return
		}

		override, err := svc.PutOverride(ctx, recordID, patch)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, override)
	}
}

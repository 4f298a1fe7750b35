package square

import (
	"strings"

	sq "github.com/square/square-go-sdk"
)

// PaymentCreateParams encapsulates the inputs for a gateway payment.
type PaymentCreateParams struct {
	AmountCents    int64
	SourceID       string
	CustomerID     string
	ReferenceID    string
	Note           string
	IdempotencyKey string
	Autocomplete   bool
}

func (p PaymentCreateParams) toSquareRequest(idempotencyKey, locationID, currency string) *sq.CreatePaymentRequest {
	autocomplete := p.Autocomplete
	req := &sq.CreatePaymentRequest{
		IdempotencyKey: idempotencyKey,
		SourceID:       p.SourceID,
		LocationID:     ptrString(locationID),
		CustomerID:     ptrString(p.CustomerID),
		Autocomplete:   &autocomplete,
	}
	if p.AmountCents > 0 {
		req.AmountMoney = moneyPtr(p.AmountCents, currency)
	}
	if trimmed := strings.TrimSpace(p.Note); trimmed != "" {
		req.Note = ptrString(trimmed)
	}
	if trimmed := strings.TrimSpace(p.ReferenceID); trimmed != "" {
		req.ReferenceID = ptrString(trimmed)
	}
	return req
}

// RefundCreateParams groups the data for a full or partial refund.
type RefundCreateParams struct {
	PaymentID      string
	AmountCents    int64
	Reason         string
	IdempotencyKey string
}

func (p RefundCreateParams) toSquareRequest(idempotencyKey, currency string) *sq.RefundPaymentRequest {
	req := &sq.RefundPaymentRequest{
		IdempotencyKey: idempotencyKey,
		PaymentID:      ptrString(p.PaymentID),
	}
	if p.AmountCents > 0 {
		req.AmountMoney = moneyPtr(p.AmountCents, currency)
	}
	if trimmed := strings.TrimSpace(p.Reason); trimmed != "" {
		req.Reason = ptrString(trimmed)
	}
	return req
}

func ptrString(value string) *string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return &value
}

func int64Ptr(value int64) *int64 {
	return &value
}

func currencyPtr(code string) *sq.Currency {
	trimmed := strings.ToUpper(strings.TrimSpace(code))
	if trimmed == "" {
		trimmed = "INR"
	}
	c := sq.Currency(trimmed)
	return &c
}

func moneyPtr(amount int64, currency string) *sq.Money {
	if amount == 0 {
		return nil
	}
	return &sq.Money{
		Amount:   int64Ptr(amount),
		Currency: currencyPtr(currency),
	}
}

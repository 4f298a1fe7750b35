package records

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/smartkartops/smartkart-backend/pkg/db/models"
	"github.com/smartkartops/smartkart-backend/pkg/enums"
	pkgerrors "github.com/smartkartops/smartkart-backend/pkg/errors"
)

type stubRepo struct {
	records   map[uuid.UUID]*models.OrderRecord
	overrides map[uuid.UUID]*models.OrderOverride
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		records:   map[uuid.UUID]*models.OrderRecord{},
		overrides: map[uuid.UUID]*models.OrderOverride{},
	}
}

func (s *stubRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubRepo) CreateRecord(ctx context.Context, record *models.OrderRecord) (*models.OrderRecord, error) {
	s.records[record.ID] = record
	return record, nil
}

func (s *stubRepo) FindRecord(ctx context.Context, recordID uuid.UUID) (*models.OrderRecord, error) {
	record, ok := s.records[recordID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return record, nil
}

func (s *stubRepo) ListRecords(ctx context.Context, kind enums.RecordKind) ([]models.OrderRecord, error) {
	var out []models.OrderRecord
	for _, rec := range s.records {
		if rec.Kind == kind {
			out = append(out, *rec)
		}
	}
	return out, nil
}

func (s *stubRepo) ListGroup(ctx context.Context, businessOrderCode string) ([]models.OrderRecord, error) {
	var out []models.OrderRecord
	for _, rec := range s.records {
		if rec.BusinessOrderCode == businessOrderCode {
			out = append(out, *rec)
		}
	}
	return out, nil
}

func (s *stubRepo) MarkLeadsConverted(ctx context.Context, businessOrderCode string) error {
	for _, rec := range s.records {
		if rec.Kind == enums.RecordKindLead && rec.BusinessOrderCode == businessOrderCode {
			rec.Converted = true
		}
	}
	return nil
}

func (s *stubRepo) UpsertOverride(ctx context.Context, override *models.OrderOverride) error {
	s.overrides[override.RecordID] = override
	return nil
}

func (s *stubRepo) FindOverride(ctx context.Context, recordID uuid.UUID) (*models.OrderOverride, error) {
	override, ok := s.overrides[recordID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return override, nil
}

func (s *stubRepo) ListOverrides(ctx context.Context) (map[uuid.UUID]json.RawMessage, error) {
	out := map[uuid.UUID]json.RawMessage{}
	for id, override := range s.overrides {
		out[id] = override.Fields
	}
	return out, nil
}

type passthroughTx struct{}

func (passthroughTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error { return fn(nil) }

func validInput(code string) RecordInput {
	return RecordInput{
		BusinessOrderCode: code,
		Source:            enums.RecordSourceStorefront,
		CustomerName:      "Asha Rao",
		CustomerPhone:     "9876543210",
		Quantity:          2,
		Price:             decimal.NewFromInt(900),
		OriginalPrice:     decimal.NewFromInt(1000),
		PaymentMethod:     enums.PaymentMethodSecureCOD,
	}
}

func newRecordsService(t *testing.T) (Service, *stubRepo) {
	t.Helper()
	repo := newStubRepo()
	svc, err := NewService(repo, passthroughTx{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, repo
}

func TestPutRawOrderAppliesDefaults(t *testing.T) {
	svc, repo := newRecordsService(t)

	record, err := svc.PutRawOrder(context.Background(), validInput("SK-1001"))
	if err != nil {
		t.Fatalf("put raw order: %v", err)
	}
	if record.Kind != enums.RecordKindOrder {
		t.Fatalf("want order kind, got %s", record.Kind)
	}
	if record.PaymentStatus != enums.PaymentStatusPending {
		t.Fatalf("orders must default to pending, got %s", record.PaymentStatus)
	}
	if !record.DiscountAmount.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("discount amount must be original minus price, got %s", record.DiscountAmount)
	}
	if record.PlacedAt.IsZero() {
		t.Fatalf("placed at must default to now")
	}
	if record.CancellationStatus != enums.CancellationStatusNone || record.RefundStatus != enums.RefundStatusNone {
		t.Fatalf("fresh record must start with no cancellation or refund")
	}
	if len(repo.records) != 1 {
		t.Fatalf("record not persisted")
	}
}

func TestPutRawLeadDefaultsToLeadStatus(t *testing.T) {
	svc, _ := newRecordsService(t)

	record, err := svc.PutRawLead(context.Background(), validInput("SK-2002"))
	if err != nil {
		t.Fatalf("put raw lead: %v", err)
	}
	if record.Kind != enums.RecordKindLead {
		t.Fatalf("want lead kind, got %s", record.Kind)
	}
	if record.PaymentStatus != enums.PaymentStatusLead {
		t.Fatalf("leads must default to lead status, got %s", record.PaymentStatus)
	}
}

func TestPutRawKeepsExplicitStatus(t *testing.T) {
	svc, _ := newRecordsService(t)

	input := validInput("SK-2002")
	input.PaymentStatus = enums.PaymentStatusIntentVerified
	record, err := svc.PutRawLead(context.Background(), input)
	if err != nil {
		t.Fatalf("put raw lead: %v", err)
	}
	if record.PaymentStatus != enums.PaymentStatusIntentVerified {
		t.Fatalf("explicit status dropped, got %s", record.PaymentStatus)
	}
}

func TestPutRawPreservesPlacedAt(t *testing.T) {
	svc, _ := newRecordsService(t)

	placedAt := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	input := validInput("SK-1001")
	input.PlacedAt = placedAt
	record, err := svc.PutRawOrder(context.Background(), input)
	if err != nil {
		t.Fatalf("put raw order: %v", err)
	}
	if !record.PlacedAt.Equal(placedAt) {
		t.Fatalf("placed at rewritten: %s", record.PlacedAt)
	}
}

func TestPutRawValidation(t *testing.T) {
	svc, _ := newRecordsService(t)

	cases := []struct {
		name   string
		mutate func(input *RecordInput)
	}{
		{"missing code", func(input *RecordInput) { input.BusinessOrderCode = "  " }},
		{"unknown source", func(input *RecordInput) { input.Source = enums.RecordSource("fax") }},
		{"missing customer name", func(input *RecordInput) { input.CustomerName = "" }},
		{"missing phone", func(input *RecordInput) { input.CustomerPhone = "" }},
		{"zero quantity", func(input *RecordInput) { input.Quantity = 0 }},
		{"negative price", func(input *RecordInput) { input.Price = decimal.NewFromInt(-1) }},
		{"bogus status", func(input *RecordInput) { input.PaymentStatus = enums.PaymentStatus("maybe") }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := validInput("SK-1001")
			tc.mutate(&input)
			if _, err := svc.PutRawOrder(context.Background(), input); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestPutOverrideAccumulatesPatches(t *testing.T) {
	svc, repo := newRecordsService(t)

	record, err := svc.PutRawOrder(context.Background(), validInput("SK-1001"))
	if err != nil {
		t.Fatalf("put raw order: %v", err)
	}

	if _, err := svc.PutOverride(context.Background(), record.ID, map[string]any{"customer_address": "12 MG Road", "customer_pincode": "560001"}); err != nil {
		t.Fatalf("first override: %v", err)
	}
	if _, err := svc.PutOverride(context.Background(), record.ID, map[string]any{"customer_pincode": "560002"}); err != nil {
		t.Fatalf("second override: %v", err)
	}

	var merged map[string]any
	if err := json.Unmarshal(repo.overrides[record.ID].Fields, &merged); err != nil {
		t.Fatalf("decode stored override: %v", err)
	}
	if merged["customer_address"] != "12 MG Road" {
		t.Fatalf("earlier field lost: %+v", merged)
	}
	if merged["customer_pincode"] != "560002" {
		t.Fatalf("later write must win per field: %+v", merged)
	}
}

func TestPutOverrideUnknownRecord(t *testing.T) {
	svc, _ := newRecordsService(t)
	_, err := svc.PutOverride(context.Background(), uuid.New(), map[string]any{"customer_pincode": "560001"})
	if !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestPutOverrideRejectsEmptyPatch(t *testing.T) {
	svc, _ := newRecordsService(t)

	if _, err := svc.PutOverride(context.Background(), uuid.New(), nil); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("empty patch: expected validation error, got %v", err)
	}
	if _, err := svc.PutOverride(context.Background(), uuid.Nil, map[string]any{"x": 1}); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("nil record id: expected validation error, got %v", err)
	}
}

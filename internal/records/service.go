package records

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/smartkartops/smartkart-backend/pkg/db/models"
	"github.com/smartkartops/smartkart-backend/pkg/enums"
	pkgerrors "github.com/smartkartops/smartkart-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service is the ingestion surface collaborators write raw records through.
type Service interface {
	PutRawOrder(ctx context.Context, input RecordInput) (*models.OrderRecord, error)
	PutRawLead(ctx context.Context, input RecordInput) (*models.OrderRecord, error)
	PutOverride(ctx context.Context, recordID uuid.UUID, patch map[string]any) (*models.OrderOverride, error)
}

type service struct {
	repo Repository
	tx   txRunner
}

// RecordInput carries one raw write about one order.
type RecordInput struct {
	BusinessOrderCode  string
	Source             enums.RecordSource
	CustomerName       string
	CustomerEmail      string
	CustomerPhone      string
	CustomerAddress    string
	CustomerPincode    string
	ProductID          *string
	ProductDescription string
	VendorName         string
	CollectionName     string
	Quantity           int
	Price              decimal.Decimal
	OriginalPrice      decimal.Decimal
	DiscountPercentage decimal.Decimal
	PaymentStatus      enums.PaymentStatus
	PaymentMethod      enums.PaymentMethod
	PlacedAt           time.Time
	TrackingNumber     *string
	DeliveryStatus     *string
}

// NewService wires the record store service.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("records repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) PutRawOrder(ctx context.Context, input RecordInput) (*models.OrderRecord, error) {
	return s.putRecord(ctx, input, enums.RecordKindOrder)
}

func (s *service) PutRawLead(ctx context.Context, input RecordInput) (*models.OrderRecord, error) {
	return s.putRecord(ctx, input, enums.RecordKindLead)
}

func (s *service) putRecord(ctx context.Context, input RecordInput, kind enums.RecordKind) (*models.OrderRecord, error) {
	record, err := BuildRecord(input, kind)
	if err != nil {
		return nil, err
	}

	created, err := s.repo.CreateRecord(ctx, record)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist raw record")
	}
	return created, nil
}

// BuildRecord validates the input and materializes a raw record with the
// ingestion defaults applied. It does not persist anything.
func BuildRecord(input RecordInput, kind enums.RecordKind) (*models.OrderRecord, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	status := input.PaymentStatus
	if status == "" {
		if kind == enums.RecordKindLead {
			status = enums.PaymentStatusLead
		} else {
			status = enums.PaymentStatusPending
		}
	}
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid payment status %q", status))
	}

	placedAt := input.PlacedAt
	if placedAt.IsZero() {
		placedAt = time.Now().UTC()
	}

	record := &models.OrderRecord{
		ID:                 uuid.New(),
		BusinessOrderCode:  strings.TrimSpace(input.BusinessOrderCode),
		Kind:               kind,
		Source:             input.Source,
		CustomerName:       strings.TrimSpace(input.CustomerName),
		CustomerEmail:      strings.TrimSpace(input.CustomerEmail),
		CustomerPhone:      strings.TrimSpace(input.CustomerPhone),
		CustomerAddress:    strings.TrimSpace(input.CustomerAddress),
		CustomerPincode:    strings.TrimSpace(input.CustomerPincode),
		ProductID:          input.ProductID,
		ProductDescription: strings.TrimSpace(input.ProductDescription),
		VendorName:         strings.TrimSpace(input.VendorName),
		CollectionName:     strings.TrimSpace(input.CollectionName),
		Quantity:           input.Quantity,
		Price:              input.Price.Round(2),
		OriginalPrice:      input.OriginalPrice.Round(2),
		DiscountPercentage: input.DiscountPercentage,
		DiscountAmount:     input.OriginalPrice.Sub(input.Price).Round(2),
		PaymentStatus:      status,
		PaymentMethod:      input.PaymentMethod,
		PlacedAt:           placedAt,
		TrackingNumber:     input.TrackingNumber,
		DeliveryStatus:     input.DeliveryStatus,
		CancellationStatus: enums.CancellationStatusNone,
		RefundStatus:       enums.RefundStatusNone,
	}
	return record, nil
}

// PutOverride layers a partial correction on top of one raw record. Patches
// accumulate: later writes win per field, earlier fields survive untouched.
func (s *service) PutOverride(ctx context.Context, recordID uuid.UUID, patch map[string]any) (*models.OrderOverride, error) {
	if recordID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "record id required")
	}
	if len(patch) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "override patch must not be empty")
	}

	var result *models.OrderOverride
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		if _, err := repo.FindRecord(ctx, recordID); err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "record not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load record")
		}

		merged := map[string]any{}
		if existing, err := repo.FindOverride(ctx, recordID); err == nil {
			if err := json.Unmarshal(existing.Fields, &merged); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode stored override")
			}
		} else if err != gorm.ErrRecordNotFound {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load override")
		}

		for k, v := range patch {
			merged[k] = v
		}

		fields, err := json.Marshal(merged)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "encode override")
		}

		override := &models.OrderOverride{RecordID: recordID, Fields: fields}
		if err := repo.UpsertOverride(ctx, override); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist override")
		}
		result = override
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func validateInput(input RecordInput) error {
	if strings.TrimSpace(input.BusinessOrderCode) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "business order code required")
	}
	if !input.Source.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid record source %q", input.Source))
	}
	if strings.TrimSpace(input.CustomerName) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer name required")
	}
	if strings.TrimSpace(input.CustomerPhone) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer phone required")
	}
	if input.Quantity <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if input.Price.IsNegative() || input.OriginalPrice.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "price must not be negative")
	}
	return nil
}

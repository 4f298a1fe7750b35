package reconcile

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/smartkartops/smartkart-backend/pkg/db/models"
	"github.com/smartkartops/smartkart-backend/pkg/enums"
	pkgerrors "github.com/smartkartops/smartkart-backend/pkg/errors"
	"github.com/smartkartops/smartkart-backend/pkg/logger"
	"github.com/smartkartops/smartkart-backend/pkg/metrics"
)

// ViewSource selects which slice of the unified view a caller wants.
type ViewSource string

const (
	ViewSourceOrders ViewSource = "orders"
	ViewSourceLeads  ViewSource = "leads"
)

type recordReader interface {
	ListRecords(ctx context.Context, kind enums.RecordKind) ([]models.OrderRecord, error)
	ListGroup(ctx context.Context, businessOrderCode string) ([]models.OrderRecord, error)
	ListOverrides(ctx context.Context) (map[uuid.UUID]json.RawMessage, error)
}

// Service folds raw records into the unified order view every screen reads.
type Service interface {
	UnifiedOrders(ctx context.Context, source ViewSource) ([]CanonicalOrder, error)
	CanonicalByCode(ctx context.Context, businessOrderCode string) (*CanonicalOrder, error)
}

type service struct {
	records recordReader
	logger  *logger.Logger
	metrics *metrics.EngineMetrics
}

// NewService wires the reconciliation facade over the record store.
func NewService(records recordReader, logg *logger.Logger, m *metrics.EngineMetrics) (Service, error) {
	if records == nil {
		return nil, fmt.Errorf("record reader required")
	}
	return &service{records: records, logger: logg, metrics: m}, nil
}

func (s *service) UnifiedOrders(ctx context.Context, source ViewSource) ([]CanonicalOrder, error) {
	if source != ViewSourceOrders && source != ViewSourceLeads {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "source must be orders or leads")
	}

	orders, err := s.records.ListRecords(ctx, enums.RecordKindOrder)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list raw orders")
	}
	leads, err := s.records.ListRecords(ctx, enums.RecordKindLead)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list raw leads")
	}
	overrides, err := s.records.ListOverrides(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list overrides")
	}

	canonical, dropped := Reconcile(orders, leads, overrides)
	s.reportDropped(ctx, dropped)
	s.metrics.IncReconciliation()

	filtered := make([]CanonicalOrder, 0, len(canonical))
	for _, order := range canonical {
		if isLeadView(order) == (source == ViewSourceLeads) {
			filtered = append(filtered, order)
		}
	}
	return filtered, nil
}

func (s *service) CanonicalByCode(ctx context.Context, businessOrderCode string) (*CanonicalOrder, error) {
	if businessOrderCode == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "business order code required")
	}

	members, err := s.records.ListGroup(ctx, businessOrderCode)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list order group")
	}
	if len(members) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}

	overrides, err := s.records.ListOverrides(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list overrides")
	}

	canonical, dropped := Reconcile(members, nil, overrides)
	s.reportDropped(ctx, dropped)
	for i := range canonical {
		if canonical[i].BusinessOrderCode == businessOrderCode {
			return &canonical[i], nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
}

// isLeadView keeps intent-verified and pre-order records out of the main
// orders view; a converted group never reappears as a lead.
func isLeadView(order CanonicalOrder) bool {
	if order.Converted {
		return false
	}
	return order.PaymentStatus == enums.PaymentStatusIntentVerified ||
		order.PaymentStatus == enums.PaymentStatusLead
}

func (s *service) reportDropped(ctx context.Context, dropped error) {
	if dropped == nil {
		return
	}
	errs := multierr.Errors(dropped)
	s.metrics.AddMalformed(len(errs))
	if s.logger != nil {
		ctx = s.logger.WithField(ctx, "dropped_records", len(errs))
		s.logger.Warn(ctx, "reconciliation dropped malformed records")
	}
}

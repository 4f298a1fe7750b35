package payments

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/smartkartops/smartkart-backend/internal/cancellation"
	"github.com/smartkartops/smartkart-backend/internal/reconcile"
	"github.com/smartkartops/smartkart-backend/internal/records"
	"github.com/smartkartops/smartkart-backend/pkg/config"
	"github.com/smartkartops/smartkart-backend/pkg/db/models"
	"github.com/smartkartops/smartkart-backend/pkg/enums"
	pkgerrors "github.com/smartkartops/smartkart-backend/pkg/errors"
	"github.com/smartkartops/smartkart-backend/pkg/logger"
	"github.com/smartkartops/smartkart-backend/pkg/metrics"
)

const defaultLockTTL = 30 * time.Second

// Service drives the payment authorization state machine. Every mutation is
// serialized per business order code through a short-lived lease, and the
// lease is never held across a gateway call: after the call returns, state is
// re-validated before anything is written.
type Service interface {
	VerifyIntent(ctx context.Context, input CheckoutInput) (*CheckoutResult, error)
	Authorize(ctx context.Context, input CheckoutInput) (*AuthorizeResult, error)
	Transition(ctx context.Context, businessOrderCode string, action Action, params TransitionParams) (*TransitionResult, error)
	AuthorizationByCode(ctx context.Context, businessOrderCode string) (*models.PaymentAuthorization, error)
}

type service struct {
	gateway     Gateway
	locks       locker
	view        canonicalReader
	recordsSvc  records.Service
	recordsRepo records.Repository
	auths       Repository
	rewards     loyaltyIssuer
	tx          txRunner
	cfg         config.CancellationConfig
	logger      *logger.Logger
	metrics     *metrics.EngineMetrics
	now         func() time.Time
}

// Deps groups the service collaborators.
type Deps struct {
	Gateway     Gateway
	Locks       locker
	View        canonicalReader
	RecordsSvc  records.Service
	RecordsRepo records.Repository
	Auths       Repository
	Rewards     loyaltyIssuer
	Tx          txRunner
	Config      config.CancellationConfig
	Logger      *logger.Logger
	Metrics     *metrics.EngineMetrics
}

// NewService wires the payment authorization engine.
func NewService(deps Deps) (Service, error) {
	switch {
	case deps.Gateway == nil:
		return nil, fmt.Errorf("payment gateway required")
	case deps.Locks == nil:
		return nil, fmt.Errorf("lock provider required")
	case deps.View == nil:
		return nil, fmt.Errorf("canonical order reader required")
	case deps.RecordsSvc == nil:
		return nil, fmt.Errorf("records service required")
	case deps.RecordsRepo == nil:
		return nil, fmt.Errorf("records repository required")
	case deps.Auths == nil:
		return nil, fmt.Errorf("authorization repository required")
	case deps.Rewards == nil:
		return nil, fmt.Errorf("rewards issuer required")
	case deps.Tx == nil:
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{
		gateway:     deps.Gateway,
		locks:       deps.Locks,
		view:        deps.View,
		recordsSvc:  deps.RecordsSvc,
		recordsRepo: deps.RecordsRepo,
		auths:       deps.Auths,
		rewards:     deps.Rewards,
		tx:          deps.Tx,
		cfg:         deps.Config,
		logger:      deps.Logger,
		metrics:     deps.Metrics,
		now:         time.Now,
	}, nil
}

// VerifyIntent charges the minimal verification amount through the gateway
// and, on success, records an intent-verified lead.
func (s *service) VerifyIntent(ctx context.Context, input CheckoutInput) (*CheckoutResult, error) {
	if strings.TrimSpace(input.SourceID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment source required")
	}
	code := strings.TrimSpace(input.Record.BusinessOrderCode)
	if s.logger != nil {
		ctx = s.logger.WithOrderCode(ctx, code)
	}

	payment, err := s.gateway.VerifyIntent(ctx, code, input.SourceID)
	if err != nil {
		s.metrics.IncTransition("verify_intent", "gateway_error")
		return nil, err
	}

	input.Record.PaymentStatus = enums.PaymentStatusIntentVerified
	record, err := s.recordsSvc.PutRawLead(ctx, input.Record)
	if err != nil {
		return nil, err
	}

	s.metrics.IncTransition("verify_intent", "success")
	if s.logger != nil {
		s.logger.Info(ctx, "payment intent verified")
	}
	return &CheckoutResult{
		Record:    record,
		PaymentID: payment.PaymentID,
		Status:    enums.PaymentStatusIntentVerified,
	}, nil
}

// Authorize places a full-amount hold and records the authorization, the
// order record, and lead conversion in one transaction. Loyalty issuance is
// best effort and never fails the authorization.
func (s *service) Authorize(ctx context.Context, input CheckoutInput) (*AuthorizeResult, error) {
	if strings.TrimSpace(input.SourceID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment source required")
	}

	input.Record.PaymentStatus = enums.PaymentStatusAuthorized
	record, err := records.BuildRecord(input.Record, enums.RecordKindOrder)
	if err != nil {
		return nil, err
	}
	record.Converted = true
	code := record.BusinessOrderCode
	if s.logger != nil {
		ctx = s.logger.WithOrderCode(ctx, code)
	}

	token := uuid.NewString()
	if err := s.acquire(ctx, code, token); err != nil {
		s.metrics.IncTransition("authorize", "lease_conflict")
		return nil, err
	}
	if err := s.ensureNotAuthorized(ctx, code); err != nil {
		s.release(ctx, code, token)
		s.metrics.IncTransition("authorize", "rejected")
		return nil, err
	}

	// The lease never spans a gateway call.
	s.release(ctx, code, token)

	payment, err := s.gateway.Authorize(ctx, code, input.SourceID, record.Price)
	if err != nil {
		s.metrics.IncTransition("authorize", "gateway_error")
		return nil, err
	}

	if err := s.acquire(ctx, code, token); err != nil {
		s.metrics.IncTransition("authorize", "lease_conflict")
		return nil, err
	}
	defer s.release(ctx, code, token)

	if err := s.ensureNotAuthorized(ctx, code); err != nil {
		s.metrics.IncTransition("authorize", "conflict")
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order was authorized concurrently, hold not recorded")
	}

	auth := &models.PaymentAuthorization{
		BusinessOrderCode: code,
		PaymentID:         payment.PaymentID,
		GatewayOrderID:    payment.GatewayOrderID,
		Signature:         input.Signature,
		Amount:            record.Price,
		AuthorizedAt:      s.now().UTC(),
	}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.auths.WithTx(tx).Create(ctx, auth); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist authorization")
		}
		if _, err := s.recordsRepo.WithTx(tx).CreateRecord(ctx, record); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist order record")
		}
		if err := s.recordsRepo.WithTx(tx).MarkLeadsConverted(ctx, code); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark leads converted")
		}
		return nil
	})
	if err != nil {
		s.metrics.IncTransition("authorize", "error")
		return nil, err
	}

	card, err := s.rewards.EnsureCard(ctx, record.CustomerPhone)
	if err != nil {
		card = nil
		if s.logger != nil {
			s.logger.Warn(s.logger.WithField(ctx, "reason", err.Error()), "loyalty issuance skipped")
		}
	}

	s.metrics.IncTransition("authorize", "success")
	if s.logger != nil {
		s.logger.Info(ctx, "payment authorized")
	}
	return &AuthorizeResult{Record: record, Authorization: auth, LoyaltyCard: card}, nil
}

// Transition applies one state machine action to an order. The lease is
// released during the gateway call; if the canonical status moved while it
// was out, nothing is written and the caller gets a state conflict.
func (s *service) Transition(ctx context.Context, businessOrderCode string, action Action, params TransitionParams) (*TransitionResult, error) {
	code := strings.TrimSpace(businessOrderCode)
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "business order code required")
	}
	if !action.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid transition action %q", action))
	}
	if s.logger != nil {
		ctx = s.logger.WithAction(s.logger.WithOrderCode(ctx, code), action.String())
	}

	token := uuid.NewString()
	if err := s.acquire(ctx, code, token); err != nil {
		s.metrics.IncTransition(action.String(), "lease_conflict")
		return nil, err
	}

	canonical, err := s.view.CanonicalByCode(ctx, code)
	if err != nil {
		s.release(ctx, code, token)
		return nil, err
	}

	plan, err := s.plan(ctx, canonical, action, params)
	if err != nil {
		s.release(ctx, code, token)
		s.metrics.IncTransition(action.String(), "rejected")
		return nil, err
	}

	// Gateway calls run off-lease so a slow gateway cannot serialize every
	// other order mutation behind it.
	s.release(ctx, code, token)

	if err := plan.execute(ctx); err != nil {
		s.metrics.IncTransition(action.String(), "gateway_error")
		return nil, err
	}

	if err := s.acquire(ctx, code, token); err != nil {
		s.metrics.IncTransition(action.String(), "lease_conflict")
		return nil, err
	}
	defer s.release(ctx, code, token)

	current, err := s.view.CanonicalByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if current.PaymentStatus != canonical.PaymentStatus {
		s.metrics.IncTransition(action.String(), "state_conflict")
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order changed during the gateway call, no changes applied").
			WithDetails(map[string]any{
				"expected_status": canonical.PaymentStatus,
				"current_status":  current.PaymentStatus,
			})
	}

	if _, err := s.recordsSvc.PutOverride(ctx, current.RepresentativeRecordID, plan.patch); err != nil {
		return nil, err
	}

	s.metrics.IncTransition(action.String(), "success")
	if s.logger != nil {
		s.logger.Info(ctx, "transition applied")
	}
	return &TransitionResult{
		BusinessOrderCode: code,
		Action:            action,
		PreviousStatus:    canonical.PaymentStatus,
		NewStatus:         plan.newStatus,
		RefundAmount:      plan.refund,
		CancellationFee:   plan.fee,
	}, nil
}

// AuthorizationByCode returns the recorded hold for an order.
func (s *service) AuthorizationByCode(ctx context.Context, businessOrderCode string) (*models.PaymentAuthorization, error) {
	code := strings.TrimSpace(businessOrderCode)
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "business order code required")
	}
	return s.findAuthorization(ctx, code)
}

// transitionPlan is a validated transition: the gateway work to run and the
// override to write if the order is still in the expected state afterwards.
type transitionPlan struct {
	execute   func(ctx context.Context) error
	patch     map[string]any
	newStatus enums.PaymentStatus
	refund    *decimal.Decimal
	fee       *decimal.Decimal
}

func (s *service) plan(ctx context.Context, canonical *reconcile.CanonicalOrder, action Action, params TransitionParams) (*transitionPlan, error) {
	auth, err := s.findAuthorization(ctx, canonical.BusinessOrderCode)
	if err != nil {
		return nil, err
	}

	switch action {
	case ActionCapture:
		if err := requireStatus(canonical, enums.PaymentStatusAuthorized); err != nil {
			return nil, err
		}
		return &transitionPlan{
			execute:   func(ctx context.Context) error { return s.gateway.Capture(ctx, auth.PaymentID) },
			patch:     map[string]any{"payment_status": enums.PaymentStatusPaid},
			newStatus: enums.PaymentStatusPaid,
		}, nil

	case ActionCancel:
		if err := requireStatus(canonical, enums.PaymentStatusAuthorized); err != nil {
			return nil, err
		}
		if !cancellation.WithinSelfServiceWindow(auth.AuthorizedAt, s.now().UTC(), s.cfg.SelfServiceWindow) {
			if err := cancellation.ValidateCode(params.CancellationCode, canonical.CancellationID); err != nil {
				return nil, err
			}
		}
		return s.voidPlan(canonical, auth, params), nil

	case ActionVoid:
		if err := requireStatus(canonical, enums.PaymentStatusAuthorized); err != nil {
			return nil, err
		}
		if err := cancellation.ValidateCode(params.CancellationCode, canonical.CancellationID); err != nil {
			return nil, err
		}
		return s.voidPlan(canonical, auth, params), nil

	case ActionChargeFee:
		if err := requireStatus(canonical, enums.PaymentStatusAuthorized, enums.PaymentStatusVoided); err != nil {
			return nil, err
		}
		if params.Fee == nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "cancellation fee required")
		}
		fee := params.Fee.Round(2)
		remainder, err := cancellation.FeeBreakdown(auth.Amount, fee)
		if err != nil {
			return nil, err
		}
		return &transitionPlan{
			execute: func(ctx context.Context) error {
				if err := s.gateway.Capture(ctx, auth.PaymentID); err != nil {
					return err
				}
				return s.gateway.Refund(ctx, auth.PaymentID, remainder, params.Reason)
			},
			patch: map[string]any{
				"payment_status":      enums.PaymentStatusFeeCharged,
				"cancellation_status": enums.CancellationStatusProcessed,
				"cancellation_reason": params.Reason,
				"cancellation_fee":    fee.String(),
				"refund_amount":       remainder.String(),
				"refund_status":       enums.RefundStatusProcessed,
			},
			newStatus: enums.PaymentStatusFeeCharged,
			refund:    &remainder,
			fee:       &fee,
		}, nil

	case ActionRefund:
		if err := requireStatus(canonical,
			enums.PaymentStatusAuthorized,
			enums.PaymentStatusPaid,
			enums.PaymentStatusVoided,
			enums.PaymentStatusFeeCharged,
		); err != nil {
			return nil, err
		}
		amount := auth.Amount
		if params.Amount != nil {
			amount = params.Amount.Round(2)
		}
		if amount.LessThanOrEqual(decimal.Zero) || amount.GreaterThan(auth.Amount) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "refund amount must be positive and at most the authorized amount")
		}
		return &transitionPlan{
			execute: func(ctx context.Context) error {
				return s.gateway.Refund(ctx, auth.PaymentID, amount, params.Reason)
			},
			patch: map[string]any{
				"payment_status": enums.PaymentStatusRefunded,
				"refund_amount":  amount.String(),
				"refund_reason":  params.Reason,
				"refund_status":  enums.RefundStatusProcessed,
			},
			newStatus: enums.PaymentStatusRefunded,
			refund:    &amount,
		}, nil

	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid transition action %q", action))
	}
}

func (s *service) voidPlan(canonical *reconcile.CanonicalOrder, auth *models.PaymentAuthorization, params TransitionParams) *transitionPlan {
	return &transitionPlan{
		execute: func(ctx context.Context) error { return s.gateway.Void(ctx, auth.PaymentID) },
		patch: map[string]any{
			"payment_status":      enums.PaymentStatusVoided,
			"cancellation_status": enums.CancellationStatusProcessed,
			"cancellation_reason": params.Reason,
			"cancellation_id":     canonical.CancellationID,
		},
		newStatus: enums.PaymentStatusVoided,
	}
}

func requireStatus(canonical *reconcile.CanonicalOrder, allowed ...enums.PaymentStatus) error {
	for _, status := range allowed {
		if canonical.PaymentStatus == status {
			return nil
		}
	}
	return pkgerrors.New(pkgerrors.CodeStateConflict, "order is not in a state that permits this action").
		WithDetails(map[string]any{"current_status": canonical.PaymentStatus})
}

// findAuthorization resolves the hold for a code. Orders without a recorded
// hold predate the engine or came from an external channel; money movement
// for those requires manual processing.
func (s *service) findAuthorization(ctx context.Context, code string) (*models.PaymentAuthorization, error) {
	auth, err := s.auths.FindByCode(ctx, code)
	if err == gorm.ErrRecordNotFound {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no payment authorization on file, requires manual processing")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load authorization")
	}
	return auth, nil
}

func (s *service) ensureNotAuthorized(ctx context.Context, code string) error {
	_, err := s.auths.FindByCode(ctx, code)
	if err == nil {
		return pkgerrors.New(pkgerrors.CodeConflict, "order already authorized")
	}
	if err != gorm.ErrRecordNotFound {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check existing authorization")
	}

	canonical, err := s.view.CanonicalByCode(ctx, code)
	if err != nil {
		if pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
			return nil
		}
		return err
	}
	if canonical.PaymentStatus.IsTerminal() {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "order already reached a terminal payment state").
			WithDetails(map[string]any{"current_status": canonical.PaymentStatus})
	}
	return nil
}

func (s *service) acquire(ctx context.Context, code, token string) error {
	ttl := s.cfg.LockTTL
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	ok, err := s.locks.AcquireLock(ctx, code, token, ttl)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "acquire order lease")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeConflict, "order is being modified, retry shortly")
	}
	return nil
}

func (s *service) release(ctx context.Context, code, token string) {
	if err := s.locks.ReleaseLock(ctx, code, token); err != nil && s.logger != nil {
		s.logger.Warn(s.logger.WithField(ctx, "reason", err.Error()), "order lease release failed")
	}
}

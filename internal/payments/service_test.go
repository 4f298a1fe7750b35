package payments

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/smartkartops/smartkart-backend/internal/reconcile"
	"github.com/smartkartops/smartkart-backend/internal/records"
	"github.com/smartkartops/smartkart-backend/pkg/config"
	"github.com/smartkartops/smartkart-backend/pkg/db/models"
	"github.com/smartkartops/smartkart-backend/pkg/enums"
	pkgerrors "github.com/smartkartops/smartkart-backend/pkg/errors"
)

type stubGateway struct {
	verifyErr    error
	authorizeErr error
	captureErr   error
	voidErr      error
	refundErr    error

	captured []string
	voided   []string
	refunded []decimal.Decimal
}

func (s *stubGateway) VerifyIntent(ctx context.Context, referenceID, sourceID string) (*GatewayPayment, error) {
	if s.verifyErr != nil {
		return nil, s.verifyErr
	}
	return &GatewayPayment{PaymentID: "pay-intent", Status: "COMPLETED"}, nil
}

func (s *stubGateway) Authorize(ctx context.Context, referenceID, sourceID string, amount decimal.Decimal) (*GatewayPayment, error) {
	if s.authorizeErr != nil {
		return nil, s.authorizeErr
	}
	return &GatewayPayment{PaymentID: "pay-hold", GatewayOrderID: "gw-order", Status: "APPROVED"}, nil
}

func (s *stubGateway) Capture(ctx context.Context, paymentID string) error {
	if s.captureErr != nil {
		return s.captureErr
	}
	s.captured = append(s.captured, paymentID)
	return nil
}

func (s *stubGateway) Void(ctx context.Context, paymentID string) error {
	if s.voidErr != nil {
		return s.voidErr
	}
	s.voided = append(s.voided, paymentID)
	return nil
}

func (s *stubGateway) Refund(ctx context.Context, paymentID string, amount decimal.Decimal, reason string) error {
	if s.refundErr != nil {
		return s.refundErr
	}
	s.refunded = append(s.refunded, amount)
	return nil
}

type stubLocker struct {
	held map[string]string
}

func (s *stubLocker) AcquireLock(ctx context.Context, scope, token string, ttl time.Duration) (bool, error) {
	if s.held == nil {
		s.held = map[string]string{}
	}
	if _, ok := s.held[scope]; ok {
		return false, nil
	}
	s.held[scope] = token
	return true, nil
}

func (s *stubLocker) ReleaseLock(ctx context.Context, scope, token string) error {
	if s.held[scope] == token {
		delete(s.held, scope)
	}
	return nil
}

// stubView replays a fixed sequence of canonical snapshots, one per call.
type stubView struct {
	snapshots []*reconcile.CanonicalOrder
	calls     int
}

func (s *stubView) CanonicalByCode(ctx context.Context, code string) (*reconcile.CanonicalOrder, error) {
	if len(s.snapshots) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	idx := s.calls
	if idx >= len(s.snapshots) {
		idx = len(s.snapshots) - 1
	}
	s.calls++
	return s.snapshots[idx], nil
}

type stubRecordsSvc struct {
	overrides map[uuid.UUID]map[string]any
	leads     []records.RecordInput
}

func (s *stubRecordsSvc) PutRawOrder(ctx context.Context, input records.RecordInput) (*models.OrderRecord, error) {
	return records.BuildRecord(input, enums.RecordKindOrder)
}

func (s *stubRecordsSvc) PutRawLead(ctx context.Context, input records.RecordInput) (*models.OrderRecord, error) {
	s.leads = append(s.leads, input)
	return records.BuildRecord(input, enums.RecordKindLead)
}

func (s *stubRecordsSvc) PutOverride(ctx context.Context, recordID uuid.UUID, patch map[string]any) (*models.OrderOverride, error) {
	if s.overrides == nil {
		s.overrides = map[uuid.UUID]map[string]any{}
	}
	s.overrides[recordID] = patch
	fields, _ := json.Marshal(patch)
	return &models.OrderOverride{RecordID: recordID, Fields: fields}, nil
}

type stubRecordsRepo struct {
	created   []*models.OrderRecord
	converted []string
}

func (s *stubRecordsRepo) WithTx(tx *gorm.DB) records.Repository { return s }

func (s *stubRecordsRepo) CreateRecord(ctx context.Context, record *models.OrderRecord) (*models.OrderRecord, error) {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	s.created = append(s.created, record)
	return record, nil
}

func (s *stubRecordsRepo) FindRecord(ctx context.Context, recordID uuid.UUID) (*models.OrderRecord, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *stubRecordsRepo) ListRecords(ctx context.Context, kind enums.RecordKind) ([]models.OrderRecord, error) {
	return nil, nil
}

func (s *stubRecordsRepo) ListGroup(ctx context.Context, businessOrderCode string) ([]models.OrderRecord, error) {
	return nil, nil
}

func (s *stubRecordsRepo) MarkLeadsConverted(ctx context.Context, businessOrderCode string) error {
	s.converted = append(s.converted, businessOrderCode)
	return nil
}

func (s *stubRecordsRepo) UpsertOverride(ctx context.Context, override *models.OrderOverride) error {
	return nil
}

func (s *stubRecordsRepo) FindOverride(ctx context.Context, recordID uuid.UUID) (*models.OrderOverride, error) {
	return nil, gorm.ErrRecordNotFound
}

func (s *stubRecordsRepo) ListOverrides(ctx context.Context) (map[uuid.UUID]json.RawMessage, error) {
	return nil, nil
}

type stubAuthsRepo struct {
	auth    *models.PaymentAuthorization
	created *models.PaymentAuthorization
}

func (s *stubAuthsRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubAuthsRepo) Create(ctx context.Context, auth *models.PaymentAuthorization) error {
	s.created = auth
	return nil
}

func (s *stubAuthsRepo) FindByCode(ctx context.Context, businessOrderCode string) (*models.PaymentAuthorization, error) {
	if s.auth == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.auth, nil
}

type stubIssuer struct {
	phones []string
	err    error
}

func (s *stubIssuer) EnsureCard(ctx context.Context, phone string) (*models.LoyaltyCard, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.phones = append(s.phones, phone)
	return &models.LoyaltyCard{Phone: phone, Points: 100}, nil
}

type stubTx struct{}

func (stubTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error { return fn(nil) }

type fixture struct {
	gateway *stubGateway
	locks   *stubLocker
	view    *stubView
	recSvc  *stubRecordsSvc
	recRepo *stubRecordsRepo
	auths   *stubAuthsRepo
	issuer  *stubIssuer
	svc     Service
}

func newFixture(t *testing.T, view *stubView, auths *stubAuthsRepo) *fixture {
	t.Helper()
	f := &fixture{
		gateway: &stubGateway{},
		locks:   &stubLocker{},
		view:    view,
		recSvc:  &stubRecordsSvc{},
		recRepo: &stubRecordsRepo{},
		auths:   auths,
		issuer:  &stubIssuer{},
	}
	svc, err := NewService(Deps{
		Gateway:     f.gateway,
		Locks:       f.locks,
		View:        f.view,
		RecordsSvc:  f.recSvc,
		RecordsRepo: f.recRepo,
		Auths:       f.auths,
		Rewards:     f.issuer,
		Tx:          stubTx{},
		Config:      config.CancellationConfig{SelfServiceWindow: 24 * time.Hour, LockTTL: 30 * time.Second},
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	f.svc = svc
	return f
}

func canonicalOrder(code string, status enums.PaymentStatus) *reconcile.CanonicalOrder {
	return &reconcile.CanonicalOrder{
		BusinessOrderCode:      code,
		RepresentativeRecordID: uuid.New(),
		PaymentStatus:          status,
		CancellationID:         "CNCL-AB12CD34",
	}
}

func authorization(code string, amount int64, age time.Duration) *models.PaymentAuthorization {
	return &models.PaymentAuthorization{
		BusinessOrderCode: code,
		PaymentID:         "pay-hold",
		Amount:            decimal.NewFromInt(amount),
		AuthorizedAt:      time.Now().UTC().Add(-age),
	}
}

func checkoutInput(code string) CheckoutInput {
	return CheckoutInput{
		Record: records.RecordInput{
			BusinessOrderCode: code,
			Source:            enums.RecordSourceStorefront,
			CustomerName:      "Asha Rao",
			CustomerPhone:     "9876543210",
			Quantity:          1,
			Price:             decimal.NewFromInt(900),
			OriginalPrice:     decimal.NewFromInt(1000),
			PaymentMethod:     enums.PaymentMethodSecureCOD,
		},
		SourceID: "cnon:card-nonce",
	}
}

func TestSelfCancelWithinWindow(t *testing.T) {
	canonical := canonicalOrder("SK-1001", enums.PaymentStatusAuthorized)
	f := newFixture(t,
		&stubView{snapshots: []*reconcile.CanonicalOrder{canonical, canonical}},
		&stubAuthsRepo{auth: authorization("SK-1001", 900, 10*time.Hour)},
	)

	result, err := f.svc.Transition(context.Background(), "SK-1001", ActionCancel, TransitionParams{Reason: "changed my mind"})
	if err != nil {
		t.Fatalf("cancel within window: %v", err)
	}
	if result.NewStatus != enums.PaymentStatusVoided {
		t.Fatalf("want voided, got %s", result.NewStatus)
	}
	if len(f.gateway.voided) != 1 {
		t.Fatalf("expected one gateway void, got %d", len(f.gateway.voided))
	}
	patch := f.recSvc.overrides[canonical.RepresentativeRecordID]
	if patch["payment_status"] != enums.PaymentStatusVoided {
		t.Fatalf("override missing voided status: %+v", patch)
	}
	if len(f.locks.held) != 0 {
		t.Fatalf("lease not released")
	}
}

func TestSelfCancelOutsideWindowNeedsCode(t *testing.T) {
	canonical := canonicalOrder("SK-1001", enums.PaymentStatusAuthorized)
	auths := &stubAuthsRepo{auth: authorization("SK-1001", 900, 25*time.Hour)}

	f := newFixture(t, &stubView{snapshots: []*reconcile.CanonicalOrder{canonical, canonical}}, auths)
	_, err := f.svc.Transition(context.Background(), "SK-1001", ActionCancel, TransitionParams{})
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("missing code: expected validation error, got %v", err)
	}

	f = newFixture(t, &stubView{snapshots: []*reconcile.CanonicalOrder{canonical, canonical}}, auths)
	_, err = f.svc.Transition(context.Background(), "SK-1001", ActionCancel, TransitionParams{CancellationCode: "CNCL-WRONG"})
	if !pkgerrors.HasCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("wrong code: expected forbidden, got %v", err)
	}

	f = newFixture(t, &stubView{snapshots: []*reconcile.CanonicalOrder{canonical, canonical}}, auths)
	result, err := f.svc.Transition(context.Background(), "SK-1001", ActionCancel, TransitionParams{CancellationCode: "CNCL-AB12CD34"})
	if err != nil {
		t.Fatalf("correct code rejected: %v", err)
	}
	if result.NewStatus != enums.PaymentStatusVoided {
		t.Fatalf("want voided, got %s", result.NewStatus)
	}
}

func TestCaptureMovesToPaid(t *testing.T) {
	canonical := canonicalOrder("SK-1001", enums.PaymentStatusAuthorized)
	f := newFixture(t,
		&stubView{snapshots: []*reconcile.CanonicalOrder{canonical, canonical}},
		&stubAuthsRepo{auth: authorization("SK-1001", 900, time.Hour)},
	)

	result, err := f.svc.Transition(context.Background(), "SK-1001", ActionCapture, TransitionParams{})
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	if result.NewStatus != enums.PaymentStatusPaid {
		t.Fatalf("want paid, got %s", result.NewStatus)
	}
	if len(f.gateway.captured) != 1 {
		t.Fatalf("expected one gateway capture")
	}
}

func TestAdminVoidRequiresCancellationCode(t *testing.T) {
	canonical := canonicalOrder("SK-1001", enums.PaymentStatusAuthorized)
	auths := &stubAuthsRepo{auth: authorization("SK-1001", 900, time.Hour)}

	f := newFixture(t, &stubView{snapshots: []*reconcile.CanonicalOrder{canonical, canonical}}, auths)
	_, err := f.svc.Transition(context.Background(), "SK-1001", ActionVoid, TransitionParams{})
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("missing code: expected validation error, got %v", err)
	}

	f = newFixture(t, &stubView{snapshots: []*reconcile.CanonicalOrder{canonical, canonical}}, auths)
	result, err := f.svc.Transition(context.Background(), "SK-1001", ActionVoid, TransitionParams{CancellationCode: "CNCL-AB12CD34"})
	if err != nil {
		t.Fatalf("admin void with correct code: %v", err)
	}
	if result.NewStatus != enums.PaymentStatusVoided {
		t.Fatalf("want voided, got %s", result.NewStatus)
	}
}

func TestVoidOnVoidedOrderConflicts(t *testing.T) {
	canonical := canonicalOrder("SK-1001", enums.PaymentStatusVoided)
	f := newFixture(t,
		&stubView{snapshots: []*reconcile.CanonicalOrder{canonical}},
		&stubAuthsRepo{auth: authorization("SK-1001", 900, time.Hour)},
	)

	_, err := f.svc.Transition(context.Background(), "SK-1001", ActionVoid, TransitionParams{})
	if !pkgerrors.HasCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict, got %v", err)
	}
	if len(f.gateway.voided) != 0 {
		t.Fatalf("gateway must not be called for a rejected transition")
	}
	if len(f.locks.held) != 0 {
		t.Fatalf("lease not released after rejection")
	}
}

func TestChargeFeeCapturesAndRefundsRemainder(t *testing.T) {
	canonical := canonicalOrder("SK-1001", enums.PaymentStatusAuthorized)
	f := newFixture(t,
		&stubView{snapshots: []*reconcile.CanonicalOrder{canonical, canonical}},
		&stubAuthsRepo{auth: authorization("SK-1001", 900, time.Hour)},
	)

	fee := decimal.NewFromInt(150)
	result, err := f.svc.Transition(context.Background(), "SK-1001", ActionChargeFee, TransitionParams{Fee: &fee, Reason: "late cancellation"})
	if err != nil {
		t.Fatalf("charge fee: %v", err)
	}
	if result.NewStatus != enums.PaymentStatusFeeCharged {
		t.Fatalf("want fee_charged, got %s", result.NewStatus)
	}
	if result.RefundAmount == nil || !result.RefundAmount.Equal(decimal.NewFromInt(750)) {
		t.Fatalf("want refund 750, got %v", result.RefundAmount)
	}
	if len(f.gateway.captured) != 1 || len(f.gateway.refunded) != 1 {
		t.Fatalf("expected capture then refund, got %d captures / %d refunds", len(f.gateway.captured), len(f.gateway.refunded))
	}
	if !f.gateway.refunded[0].Equal(decimal.NewFromInt(750)) {
		t.Fatalf("gateway refunded %s, want 750", f.gateway.refunded[0])
	}
	patch := f.recSvc.overrides[canonical.RepresentativeRecordID]
	if patch["cancellation_fee"] != "150" {
		t.Fatalf("fee not recorded: %+v", patch)
	}
}

func TestChargeFeeAfterRecordedCancellation(t *testing.T) {
	canonical := canonicalOrder("SK-1001", enums.PaymentStatusVoided)
	f := newFixture(t,
		&stubView{snapshots: []*reconcile.CanonicalOrder{canonical, canonical}},
		&stubAuthsRepo{auth: authorization("SK-1001", 900, 30*time.Hour)},
	)

	fee := decimal.NewFromInt(150)
	result, err := f.svc.Transition(context.Background(), "SK-1001", ActionChargeFee, TransitionParams{Fee: &fee})
	if err != nil {
		t.Fatalf("charge fee on cancelled order: %v", err)
	}
	if result.NewStatus != enums.PaymentStatusFeeCharged {
		t.Fatalf("want fee_charged, got %s", result.NewStatus)
	}
}

func TestChargeFeeRefundFailureWritesNothing(t *testing.T) {
	canonical := canonicalOrder("SK-1001", enums.PaymentStatusAuthorized)
	f := newFixture(t,
		&stubView{snapshots: []*reconcile.CanonicalOrder{canonical, canonical}},
		&stubAuthsRepo{auth: authorization("SK-1001", 900, time.Hour)},
	)
	f.gateway.refundErr = pkgerrors.New(pkgerrors.CodeGateway, "gateway refund failed")

	fee := decimal.NewFromInt(150)
	_, err := f.svc.Transition(context.Background(), "SK-1001", ActionChargeFee, TransitionParams{Fee: &fee})
	if !pkgerrors.HasCode(err, pkgerrors.CodeGateway) {
		t.Fatalf("expected gateway error, got %v", err)
	}
	if len(f.recSvc.overrides) != 0 {
		t.Fatalf("failed transition must not write overrides: %+v", f.recSvc.overrides)
	}
}

func TestChargeFeeValidatesBounds(t *testing.T) {
	canonical := canonicalOrder("SK-1001", enums.PaymentStatusAuthorized)
	auths := &stubAuthsRepo{auth: authorization("SK-1001", 900, time.Hour)}

	f := newFixture(t, &stubView{snapshots: []*reconcile.CanonicalOrder{canonical}}, auths)
	fee := decimal.NewFromInt(900)
	_, err := f.svc.Transition(context.Background(), "SK-1001", ActionChargeFee, TransitionParams{Fee: &fee})
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("fee equal to total: expected validation error, got %v", err)
	}
	if len(f.gateway.captured) != 0 {
		t.Fatalf("gateway must not be touched for an invalid fee")
	}
}

func TestRefundWithoutAuthorizationRequiresManualProcessing(t *testing.T) {
	canonical := canonicalOrder("SK-1001", enums.PaymentStatusPaid)
	f := newFixture(t, &stubView{snapshots: []*reconcile.CanonicalOrder{canonical}}, &stubAuthsRepo{})

	_, err := f.svc.Transition(context.Background(), "SK-1001", ActionRefund, TransitionParams{})
	if !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRefundAfterCapture(t *testing.T) {
	canonical := canonicalOrder("SK-1001", enums.PaymentStatusPaid)
	f := newFixture(t,
		&stubView{snapshots: []*reconcile.CanonicalOrder{canonical, canonical}},
		&stubAuthsRepo{auth: authorization("SK-1001", 900, 48*time.Hour)},
	)

	result, err := f.svc.Transition(context.Background(), "SK-1001", ActionRefund, TransitionParams{Reason: "damaged item"})
	if err != nil {
		t.Fatalf("refund: %v", err)
	}
	if result.NewStatus != enums.PaymentStatusRefunded {
		t.Fatalf("want refunded, got %s", result.NewStatus)
	}
	if !f.gateway.refunded[0].Equal(decimal.NewFromInt(900)) {
		t.Fatalf("full refund must default to the authorized amount")
	}
}

func TestRefundOfUncapturedHold(t *testing.T) {
	canonical := canonicalOrder("SK-1001", enums.PaymentStatusAuthorized)
	f := newFixture(t,
		&stubView{snapshots: []*reconcile.CanonicalOrder{canonical, canonical}},
		&stubAuthsRepo{auth: authorization("SK-1001", 900, time.Hour)},
	)

	result, err := f.svc.Transition(context.Background(), "SK-1001", ActionRefund, TransitionParams{Reason: "order never shipped"})
	if err != nil {
		t.Fatalf("refund authorized order: %v", err)
	}
	if result.NewStatus != enums.PaymentStatusRefunded {
		t.Fatalf("want refunded, got %s", result.NewStatus)
	}
}

func TestTransitionDetectsConcurrentChange(t *testing.T) {
	before := canonicalOrder("SK-1001", enums.PaymentStatusAuthorized)
	after := canonicalOrder("SK-1001", enums.PaymentStatusVoided)
	f := newFixture(t,
		&stubView{snapshots: []*reconcile.CanonicalOrder{before, after}},
		&stubAuthsRepo{auth: authorization("SK-1001", 900, time.Hour)},
	)

	_, err := f.svc.Transition(context.Background(), "SK-1001", ActionCapture, TransitionParams{})
	if !pkgerrors.HasCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict, got %v", err)
	}
	if len(f.recSvc.overrides) != 0 {
		t.Fatalf("conflicted transition must not write overrides")
	}
}

func TestTransitionWhileLockedConflicts(t *testing.T) {
	canonical := canonicalOrder("SK-1001", enums.PaymentStatusAuthorized)
	f := newFixture(t,
		&stubView{snapshots: []*reconcile.CanonicalOrder{canonical}},
		&stubAuthsRepo{auth: authorization("SK-1001", 900, time.Hour)},
	)
	f.locks.held = map[string]string{"SK-1001": "someone-else"}

	_, err := f.svc.Transition(context.Background(), "SK-1001", ActionCapture, TransitionParams{})
	if !pkgerrors.HasCode(err, pkgerrors.CodeConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestAuthorizeRecordsHoldAndConvertsLeads(t *testing.T) {
	f := newFixture(t, &stubView{}, &stubAuthsRepo{})

	result, err := f.svc.Authorize(context.Background(), checkoutInput("SK-1001"))
	if err != nil {
		t.Fatalf("authorize: %v", err)
	}
	if f.auths.created == nil || f.auths.created.PaymentID != "pay-hold" {
		t.Fatalf("authorization row not recorded: %+v", f.auths.created)
	}
	if !f.auths.created.Amount.Equal(decimal.NewFromInt(900)) {
		t.Fatalf("hold amount must be the discounted total, got %s", f.auths.created.Amount)
	}
	if len(f.recRepo.created) != 1 || f.recRepo.created[0].PaymentStatus != enums.PaymentStatusAuthorized {
		t.Fatalf("order record not written as authorized")
	}
	if len(f.recRepo.converted) != 1 || f.recRepo.converted[0] != "SK-1001" {
		t.Fatalf("leads not marked converted")
	}
	if result.LoyaltyCard == nil || len(f.issuer.phones) != 1 {
		t.Fatalf("loyalty card not issued")
	}
	if len(f.locks.held) != 0 {
		t.Fatalf("lease not released")
	}
}

func TestAuthorizeTwiceConflicts(t *testing.T) {
	f := newFixture(t, &stubView{}, &stubAuthsRepo{auth: authorization("SK-1001", 900, time.Hour)})

	_, err := f.svc.Authorize(context.Background(), checkoutInput("SK-1001"))
	if !pkgerrors.HasCode(err, pkgerrors.CodeConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestAuthorizeSurvivesLoyaltyFailure(t *testing.T) {
	f := newFixture(t, &stubView{}, &stubAuthsRepo{})
	f.issuer.err = errors.New("loyalty store down")

	result, err := f.svc.Authorize(context.Background(), checkoutInput("SK-1001"))
	if err != nil {
		t.Fatalf("authorize must not fail on loyalty issuance: %v", err)
	}
	if result.LoyaltyCard != nil {
		t.Fatalf("expected no card on issuance failure")
	}
}

func TestVerifyIntentRecordsLead(t *testing.T) {
	f := newFixture(t, &stubView{}, &stubAuthsRepo{})

	result, err := f.svc.VerifyIntent(context.Background(), checkoutInput("SK-1001"))
	if err != nil {
		t.Fatalf("verify intent: %v", err)
	}
	if result.Status != enums.PaymentStatusIntentVerified {
		t.Fatalf("want intent_verified, got %s", result.Status)
	}
	if len(f.recSvc.leads) != 1 || f.recSvc.leads[0].PaymentStatus != enums.PaymentStatusIntentVerified {
		t.Fatalf("lead not recorded as intent verified")
	}
}

func TestVerifyIntentGatewayFailureWritesNothing(t *testing.T) {
	f := newFixture(t, &stubView{}, &stubAuthsRepo{})
	f.gateway.verifyErr = pkgerrors.New(pkgerrors.CodeGateway, "card declined")

	_, err := f.svc.VerifyIntent(context.Background(), checkoutInput("SK-1001"))
	if !pkgerrors.HasCode(err, pkgerrors.CodeGateway) {
		t.Fatalf("expected gateway error, got %v", err)
	}
	if len(f.recSvc.leads) != 0 {
		t.Fatalf("failed intent must not record a lead")
	}
}

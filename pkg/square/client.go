package square

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	sq "github.com/square/square-go-sdk"
	sqclient "github.com/square/square-go-sdk/client"
	sqcore "github.com/square/square-go-sdk/core"
	sqoption "github.com/square/square-go-sdk/option"

	"github.com/smartkartops/smartkart-backend/pkg/config"
	pkgerrors "github.com/smartkartops/smartkart-backend/pkg/errors"
	"github.com/smartkartops/smartkart-backend/pkg/logger"
)

const (
	sandboxEnv    = "sandbox"
	productionEnv = "production"

	defaultCallTimeout = 15 * time.Second
)

var (
	errAccessTokenRequired = errors.New("gateway access token is required")
	errInvalidGatewayEnv   = fmt.Errorf("gateway environment must be %q or %q", sandboxEnv, productionEnv)
	errLoggerRequired      = errors.New("gateway logger is required")
)

var baseURLs = map[string]string{
	sandboxEnv:    "https://connect.squareupsandbox.com",
	productionEnv: "https://connect.squareup.com",
}

// Client exposes the payment gateway primitives the authorization engine
// needs: intent verification, fund holds, capture, void, and refund. Auth,
// logging, idempotency, and error mapping are centralized here.
type Client struct {
	sdk         *sqclient.Client
	accessToken string
	environment string
	locationID  string
	currency    string
	baseURL     string
	timeout     time.Duration
	logger      *logger.Logger
}

// NewClient initializes the gateway wrapper and validates the credentials.
func NewClient(ctx context.Context, cfg config.GatewayConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	env, err := normalizeEnv(cfg.Environment())
	if err != nil {
		return nil, err
	}

	accessToken := strings.TrimSpace(cfg.AccessToken)
	if accessToken == "" {
		return nil, errAccessTokenRequired
	}

	baseURL := baseURLs[env]
	sdk := sqclient.NewClient(
		sqoption.WithBaseURL(baseURL),
		sqoption.WithToken(accessToken),
	)

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultCallTimeout
	}

	c := &Client{
		sdk:         sdk,
		accessToken: accessToken,
		environment: env,
		locationID:  strings.TrimSpace(cfg.LocationID),
		currency:    strings.TrimSpace(cfg.Currency),
		baseURL:     baseURL,
		timeout:     timeout,
		logger:      logg,
	}

	logg.Info(ctx, "gateway client initialized")
	return c, nil
}

// Environment reports the normalized gateway environment.
func (c *Client) Environment() string {
	if c == nil {
		return ""
	}
	return c.environment
}

// NewIdempotencyKey returns a unique key for gateway operations.
func (c *Client) NewIdempotencyKey(prefix string) string {
	key := strings.TrimSpace(prefix)
	if key == "" {
		key = "sk"
	}
	return fmt.Sprintf("%s-%s", key, uuid.NewString())
}

// VerifyIntent charges a minimal auto-completed amount proving the payment
// method is live. The charge is not a hold; it settles immediately.
func (c *Client) VerifyIntent(ctx context.Context, params PaymentCreateParams) (*sq.Payment, error) {
	params.Autocomplete = true
	return c.createPayment(ctx, "verify_intent", params)
}

// AuthorizePayment places a delayed-capture hold for the full amount.
func (c *Client) AuthorizePayment(ctx context.Context, params PaymentCreateParams) (*sq.Payment, error) {
	params.Autocomplete = false
	return c.createPayment(ctx, "authorize_payment", params)
}

// callContext bounds a single gateway call so a stalled upstream cannot hold
// the inbound request open indefinitely.
func (c *Client) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := c.timeout
	if timeout <= 0 {
		timeout = defaultCallTimeout
	}
	return context.WithTimeout(ctx, timeout)
}

func (c *Client) createPayment(ctx context.Context, op string, params PaymentCreateParams) (*sq.Payment, error) {
	ctx, cancel := c.callContext(ctx)
	defer cancel()

	req := params.toSquareRequest(c.ensureIdempotencyKey(op, params.IdempotencyKey), c.locationID, c.currency)
	c.log(ctx, "request", op, map[string]any{
		"reference_id": params.ReferenceID,
		"amount":       params.AmountCents,
		"autocomplete": params.Autocomplete,
	})

	resp, err := c.sdk.Payments.Create(ctx, req)
	if err != nil {
		c.log(ctx, "error", op, map[string]any{"error": err.Error()})
		return nil, c.mapGatewayError(err, op)
	}

	payment := resp.GetPayment()
	c.log(ctx, "response", op, map[string]any{
		"payment_id": stringValue(payment.GetID()),
		"status":     stringValue(payment.GetStatus()),
	})
	return payment, nil
}

// CapturePayment completes a previously authorized hold.
func (c *Client) CapturePayment(ctx context.Context, paymentID string) (*sq.Payment, error) {
	ctx, cancel := c.callContext(ctx)
	defer cancel()

	req := &sq.CompletePaymentRequest{PaymentID: paymentID}
	c.log(ctx, "request", "capture_payment", map[string]any{"payment_id": paymentID})

	resp, err := c.sdk.Payments.Complete(ctx, req)
	if err != nil {
		c.log(ctx, "error", "capture_payment", map[string]any{"error": err.Error()})
		return nil, c.mapGatewayError(err, "capture payment")
	}

	payment := resp.GetPayment()
	c.log(ctx, "response", "capture_payment", map[string]any{
		"payment_id": stringValue(payment.GetID()),
		"status":     stringValue(payment.GetStatus()),
	})
	return payment, nil
}

// VoidPayment cancels an authorized hold, releasing the funds.
func (c *Client) VoidPayment(ctx context.Context, paymentID string) (*sq.Payment, error) {
	ctx, cancel := c.callContext(ctx)
	defer cancel()

	req := &sq.CancelPaymentsRequest{PaymentID: paymentID}
	c.log(ctx, "request", "void_payment", map[string]any{"payment_id": paymentID})

	resp, err := c.sdk.Payments.Cancel(ctx, req)
	if err != nil {
		c.log(ctx, "error", "void_payment", map[string]any{"error": err.Error()})
		return nil, c.mapGatewayError(err, "void payment")
	}

	payment := resp.GetPayment()
	c.log(ctx, "response", "void_payment", map[string]any{
		"payment_id": stringValue(payment.GetID()),
		"status":     stringValue(payment.GetStatus()),
	})
	return payment, nil
}

// RefundPayment refunds part or all of a captured or held payment.
func (c *Client) RefundPayment(ctx context.Context, params RefundCreateParams) (*sq.PaymentRefund, error) {
	ctx, cancel := c.callContext(ctx)
	defer cancel()

	req := params.toSquareRequest(c.ensureIdempotencyKey("refund_payment", params.IdempotencyKey), c.currency)
	c.log(ctx, "request", "refund_payment", map[string]any{
		"payment_id": params.PaymentID,
		"amount":     params.AmountCents,
		"reason":     params.Reason,
	})

	resp, err := c.sdk.Refunds.RefundPayment(ctx, req)
	if err != nil {
		c.log(ctx, "error", "refund_payment", map[string]any{"error": err.Error()})
		return nil, c.mapGatewayError(err, "refund payment")
	}

	refund := resp.GetRefund()
	c.log(ctx, "response", "refund_payment", map[string]any{
		"refund_id": refund.GetID(),
		"status":    stringValue(refund.GetStatus()),
	})
	return refund, nil
}

func (c *Client) ensureIdempotencyKey(prefix, provided string) string {
	if strings.TrimSpace(provided) != "" {
		return provided
	}
	return c.NewIdempotencyKey(prefix)
}

func (c *Client) log(ctx context.Context, phase, op string, fields map[string]any) {
	if c == nil || c.logger == nil {
		return
	}
	logFields := map[string]any{
		"operation": op,
		"phase":     phase,
	}
	for k, v := range fields {
		logFields[k] = c.redact(k, v)
	}
	ctx = c.logger.WithFields(ctx, logFields)
	switch phase {
	case "error":
		c.logger.Error(ctx, fmt.Sprintf("gateway %s", op), errors.New(fmt.Sprint(fields["error"])))
	default:
		c.logger.Info(ctx, fmt.Sprintf("gateway %s", phase))
	}
}

func (c *Client) redact(key string, value any) any {
	lower := strings.ToLower(key)
	for _, sensitive := range []string{"card", "nonce", "token", "cvv", "cvc", "secret", "email", "phone"} {
		if strings.Contains(lower, sensitive) {
			return "[REDACTED]"
		}
	}
	return value
}

func (c *Client) mapGatewayError(err error, op string) error {
	if err == nil {
		return nil
	}
	var apiErr *sqcore.APIError
	if errors.As(err, &apiErr) {
		code := domainCodeForStatus(apiErr.StatusCode)
		for _, sqErr := range c.extractSquareErrors(apiErr) {
			if sqErr == nil {
				continue
			}
			if sqErr.Code == sq.ErrorCodeIdempotencyKeyReused {
				code = pkgerrors.CodeConflict
				break
			}
		}
		return pkgerrors.Wrap(code, err, fmt.Sprintf("gateway %s failed", op))
	}
	return pkgerrors.Wrap(pkgerrors.CodeGateway, err, fmt.Sprintf("gateway %s failed", op))
}

func (c *Client) extractSquareErrors(apiErr *sqcore.APIError) []*sq.Error {
	if apiErr == nil {
		return nil
	}
	inner := apiErr.Unwrap()
	if inner == nil {
		return nil
	}
	raw := strings.TrimSpace(inner.Error())
	if raw == "" {
		return nil
	}
	var payload struct {
		Errors []*sq.Error `json:"errors"`
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil
	}
	return payload.Errors
}

func domainCodeForStatus(status int) pkgerrors.Code {
	switch status {
	case http.StatusNotFound:
		return pkgerrors.CodeNotFound
	case http.StatusConflict:
		return pkgerrors.CodeConflict
	case http.StatusBadRequest:
		return pkgerrors.CodeValidation
	case http.StatusUnprocessableEntity:
		return pkgerrors.CodeStateConflict
	default:
		if status >= 400 && status < 500 {
			return pkgerrors.CodeValidation
		}
		return pkgerrors.CodeGateway
	}
}

func stringValue(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return *ptr
}

func normalizeEnv(raw string) (string, error) {
	env := strings.TrimSpace(strings.ToLower(raw))
	if env == "" {
		env = sandboxEnv
	}
	switch env {
	case sandboxEnv, productionEnv:
		return env, nil
	default:
		return "", errInvalidGatewayEnv
	}
}

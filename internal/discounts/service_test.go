package discounts

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/smartkartops/smartkart-backend/pkg/db/models"
	"github.com/smartkartops/smartkart-backend/pkg/enums"
	pkgerrors "github.com/smartkartops/smartkart-backend/pkg/errors"
)

type stubRulesRepo struct {
	rules    []models.DiscountRule
	upserted *models.DiscountRule
}

func (s *stubRulesRepo) List(ctx context.Context) ([]models.DiscountRule, error) {
	return s.rules, nil
}

func (s *stubRulesRepo) Upsert(ctx context.Context, rule *models.DiscountRule) error {
	s.upserted = rule
	return nil
}

func percent(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func newTestService(t *testing.T, rules ...models.DiscountRule) Service {
	t.Helper()
	svc, err := NewService(&stubRulesRepo{rules: rules})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestResolvePrecedence(t *testing.T) {
	rules := []models.DiscountRule{
		{ID: ProductRuleID("prod-1"), Percent: percent("15")},
		{ID: VendorRuleID("acme"), Percent: percent("10")},
		{ID: CollectionRuleID("summer"), Percent: percent("5")},
	}

	cases := []struct {
		name  string
		query ResolveQuery
		want  string
	}{
		{
			"product beats vendor and collection",
			ResolveQuery{ProductID: "prod-1", VendorName: "acme", CollectionName: "summer", PaymentMethod: enums.PaymentMethodSecureCOD},
			ProductRuleID("prod-1"),
		},
		{
			"vendor beats collection",
			ResolveQuery{VendorName: "acme", CollectionName: "summer", PaymentMethod: enums.PaymentMethodSecureCOD},
			VendorRuleID("acme"),
		},
		{
			"collection as last resort",
			ResolveQuery{CollectionName: "summer", PaymentMethod: enums.PaymentMethodSecureCOD},
			CollectionRuleID("summer"),
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := newTestService(t, rules...)
			rule, err := svc.Resolve(context.Background(), tc.query)
			if err != nil {
				t.Fatalf("resolve: %v", err)
			}
			if rule == nil || rule.ID != tc.want {
				t.Fatalf("want rule %q, got %+v", tc.want, rule)
			}
		})
	}
}

func TestResolveLinkPercentWins(t *testing.T) {
	svc := newTestService(t, models.DiscountRule{ID: ProductRuleID("prod-1"), Percent: percent("15")})

	link := percent("25")
	rule, err := svc.Resolve(context.Background(), ResolveQuery{
		ProductID:     "prod-1",
		LinkPercent:   &link,
		PaymentMethod: enums.PaymentMethodSecureCOD,
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if rule == nil || !rule.Percent.Equal(link) {
		t.Fatalf("link percent must win: %+v", rule)
	}
}

func TestResolveLinkPercentOutOfRange(t *testing.T) {
	svc := newTestService(t)

	link := percent("120")
	_, err := svc.Resolve(context.Background(), ResolveQuery{
		LinkPercent:   &link,
		PaymentMethod: enums.PaymentMethodSecureCOD,
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestResolveIneligibleMethodGetsNothing(t *testing.T) {
	svc := newTestService(t, models.DiscountRule{ID: ProductRuleID("prod-1"), Percent: percent("15")})

	link := percent("25")
	rule, err := svc.Resolve(context.Background(), ResolveQuery{
		ProductID:     "prod-1",
		LinkPercent:   &link,
		PaymentMethod: enums.PaymentMethodCOD,
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if rule != nil {
		t.Fatalf("plain cash on delivery must never get a discount: %+v", rule)
	}
}

func TestResolveNoMatch(t *testing.T) {
	svc := newTestService(t, models.DiscountRule{ID: VendorRuleID("acme"), Percent: percent("10")})

	rule, err := svc.Resolve(context.Background(), ResolveQuery{
		VendorName:    "other",
		PaymentMethod: enums.PaymentMethodSecureCOD,
	})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if rule != nil {
		t.Fatalf("expected no rule, got %+v", rule)
	}
}

func TestQuoteMath(t *testing.T) {
	quote := Quote(decimal.NewFromInt(500), 2, percent("10"))

	if !quote.OriginalPrice.Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("want original 1000, got %s", quote.OriginalPrice)
	}
	if !quote.DiscountAmount.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("want discount 100, got %s", quote.DiscountAmount)
	}
	if !quote.TotalPrice.Equal(decimal.NewFromInt(900)) {
		t.Fatalf("want total 900, got %s", quote.TotalPrice)
	}
}

func TestQuoteZeroPercent(t *testing.T) {
	quote := Quote(decimal.NewFromInt(500), 2, decimal.Zero)
	if !quote.TotalPrice.Equal(quote.OriginalPrice) {
		t.Fatalf("zero percent must leave the price untouched")
	}
	if !quote.DiscountAmount.IsZero() {
		t.Fatalf("zero percent must not discount anything")
	}
}

func TestPutRuleValidatesScope(t *testing.T) {
	svc := newTestService(t)

	if _, err := svc.PutRule(context.Background(), "global", percent("10")); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("unscoped rule id: expected validation error, got %v", err)
	}
	if _, err := svc.PutRule(context.Background(), VendorRuleID("acme"), percent("150")); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("percent above 100: expected validation error, got %v", err)
	}

	rule, err := svc.PutRule(context.Background(), VendorRuleID("acme"), percent("12.5"))
	if err != nil {
		t.Fatalf("valid rule rejected: %v", err)
	}
	if rule.ID != VendorRuleID("acme") || !rule.Percent.Equal(percent("12.5")) {
		t.Fatalf("unexpected stored rule: %+v", rule)
	}
}

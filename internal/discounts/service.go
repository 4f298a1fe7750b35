package discounts

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/smartkartops/smartkart-backend/pkg/db/models"
	"github.com/smartkartops/smartkart-backend/pkg/enums"
	pkgerrors "github.com/smartkartops/smartkart-backend/pkg/errors"
)

const (
	productScopePrefix    = "product_"
	vendorScopePrefix     = "vendor_"
	collectionScopePrefix = "collection_"
)

// linkRuleID marks a quote derived from a link-embedded discount parameter
// rather than a stored rule.
const linkRuleID = "link"

// Service resolves the single applicable discount for an order and computes
// the resulting price breakdown.
type Service interface {
	Resolve(ctx context.Context, query ResolveQuery) (*models.DiscountRule, error)
	ListRules(ctx context.Context) ([]models.DiscountRule, error)
	PutRule(ctx context.Context, id string, percent decimal.Decimal) (*models.DiscountRule, error)
}

type service struct {
	repo Repository
}

// ResolveQuery names the scopes an order may match, plus an optional
// link-embedded percentage that overrides every stored rule.
type ResolveQuery struct {
	ProductID      string
	VendorName     string
	CollectionName string
	LinkPercent    *decimal.Decimal
	PaymentMethod  enums.PaymentMethod
}

// PriceQuote is the audited price breakdown a resolved discount produces.
type PriceQuote struct {
	OriginalPrice  decimal.Decimal `json:"original_price"`
	TotalPrice     decimal.Decimal `json:"total_price"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	Percent        decimal.Decimal `json:"percent"`
}

// NewService wires the discount resolver.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("discounts repository required")
	}
	return &service{repo: repo}, nil
}

// ProductRuleID encodes a per-product rule identifier.
func ProductRuleID(productID string) string {
	return productScopePrefix + strings.TrimSpace(productID)
}

// VendorRuleID encodes a per-vendor rule identifier.
func VendorRuleID(vendor string) string {
	return vendorScopePrefix + strings.TrimSpace(vendor)
}

// CollectionRuleID encodes a per-collection rule identifier.
func CollectionRuleID(collection string) string {
	return collectionScopePrefix + strings.TrimSpace(collection)
}

// Resolve picks the single applicable rule. A link-embedded percentage wins
// unconditionally; otherwise product beats vendor beats collection. Only the
// secure charge-on-delivery method is eligible; plain cash on delivery never
// receives a discount. Returns nil when nothing applies.
func (s *service) Resolve(ctx context.Context, query ResolveQuery) (*models.DiscountRule, error) {
	if !query.PaymentMethod.DiscountEligible() {
		return nil, nil
	}

	if query.LinkPercent != nil {
		percent := query.LinkPercent.Round(2)
		if percent.LessThanOrEqual(decimal.Zero) || percent.GreaterThan(decimal.NewFromInt(100)) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "link discount must be between 0 and 100")
		}
		return &models.DiscountRule{ID: linkRuleID, Percent: percent}, nil
	}

	rules, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list discount rules")
	}

	byID := make(map[string]models.DiscountRule, len(rules))
	for _, rule := range rules {
		byID[rule.ID] = rule
	}

	candidates := []string{}
	if strings.TrimSpace(query.ProductID) != "" {
		candidates = append(candidates, ProductRuleID(query.ProductID))
	}
	if strings.TrimSpace(query.VendorName) != "" {
		candidates = append(candidates, VendorRuleID(query.VendorName))
	}
	if strings.TrimSpace(query.CollectionName) != "" {
		candidates = append(candidates, CollectionRuleID(query.CollectionName))
	}

	for _, id := range candidates {
		if rule, ok := byID[id]; ok {
			return &rule, nil
		}
	}
	return nil, nil
}

func (s *service) ListRules(ctx context.Context) ([]models.DiscountRule, error) {
	rules, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list discount rules")
	}
	return rules, nil
}

func (s *service) PutRule(ctx context.Context, id string, percent decimal.Decimal) (*models.DiscountRule, error) {
	id = strings.TrimSpace(id)
	if !strings.HasPrefix(id, productScopePrefix) &&
		!strings.HasPrefix(id, vendorScopePrefix) &&
		!strings.HasPrefix(id, collectionScopePrefix) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rule id must encode a product, vendor, or collection scope")
	}
	percent = percent.Round(2)
	if percent.LessThanOrEqual(decimal.Zero) || percent.GreaterThan(decimal.NewFromInt(100)) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "percent must be between 0 and 100")
	}

	rule := &models.DiscountRule{ID: id, Percent: percent}
	if err := s.repo.Upsert(ctx, rule); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist discount rule")
	}
	return rule, nil
}

// Quote applies a resolved percentage to unitPrice*quantity. The discount
// amount is persisted alongside both prices for audit.
func Quote(unitPrice decimal.Decimal, quantity int, percent decimal.Decimal) PriceQuote {
	original := unitPrice.Mul(decimal.NewFromInt(int64(quantity))).Round(2)
	discount := original.Mul(percent).Div(decimal.NewFromInt(100)).Round(2)
	total := original.Sub(discount).Round(2)
	return PriceQuote{
		OriginalPrice:  original,
		TotalPrice:     total,
		DiscountAmount: discount,
		Percent:        percent,
	}
}

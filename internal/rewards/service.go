package rewards

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/smartkartops/smartkart-backend/pkg/config"
	"github.com/smartkartops/smartkart-backend/pkg/db/models"
	pkgerrors "github.com/smartkartops/smartkart-backend/pkg/errors"
	"github.com/smartkartops/smartkart-backend/pkg/logger"
)

// phoneSuffixLen is how many trailing digits identify a customer. Country
// codes and formatting vary across sources; the national number does not.
const phoneSuffixLen = 10

// Service issues loyalty cards as a side effect of successful authorization.
type Service interface {
	EnsureCard(ctx context.Context, phone string) (*models.LoyaltyCard, error)
	FindCard(ctx context.Context, phone string) (*models.LoyaltyCard, error)
}

type service struct {
	repo   Repository
	cfg    config.RewardsConfig
	logger *logger.Logger
	now    func() time.Time
}

// NewService wires the reward issuance service.
func NewService(repo Repository, cfg config.RewardsConfig, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("rewards repository required")
	}
	return &service{repo: repo, cfg: cfg, logger: logg, now: time.Now}, nil
}

// SanitizePhone strips everything but digits.
func SanitizePhone(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// phoneSuffix returns the trailing digits used for identity matching.
func phoneSuffix(sanitized string) string {
	if len(sanitized) <= phoneSuffixLen {
		return sanitized
	}
	return sanitized[len(sanitized)-phoneSuffixLen:]
}

// EnsureCard creates a loyalty card for the phone number unless one already
// exists. Existing cards are returned untouched; issuance never resets
// accumulated points or cashback.
func (s *service) EnsureCard(ctx context.Context, phone string) (*models.LoyaltyCard, error) {
	sanitized := SanitizePhone(phone)
	if len(sanitized) < 7 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "phone number too short for loyalty issuance")
	}

	existing, err := s.repo.FindByPhoneSuffix(ctx, phoneSuffix(sanitized))
	if err == nil {
		return existing, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup loyalty card")
	}

	cashback, err := decimal.NewFromString(strings.TrimSpace(s.cfg.StartingCashback))
	if err != nil {
		cashback = decimal.Zero
	}

	validity := s.cfg.Validity
	if validity <= 0 {
		validity = 2 * 365 * 24 * time.Hour
	}

	issuedAt := s.now().UTC()
	card := &models.LoyaltyCard{
		Phone:         sanitized,
		Points:        s.cfg.StartingPoints,
		Cashback:      cashback.Round(2),
		ValidFrom:     issuedAt,
		ValidUntil:    issuedAt.Add(validity),
		IssuingSeller: s.cfg.IssuingSeller,
	}
	if err := s.repo.Create(ctx, card); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist loyalty card")
	}

	if s.logger != nil {
		ctx = s.logger.WithField(ctx, "phone_suffix", phoneSuffix(sanitized))
		s.logger.Info(ctx, "loyalty card issued")
	}
	return card, nil
}

func (s *service) FindCard(ctx context.Context, phone string) (*models.LoyaltyCard, error) {
	sanitized := SanitizePhone(phone)
	if sanitized == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "phone number required")
	}
	card, err := s.repo.FindByPhoneSuffix(ctx, phoneSuffix(sanitized))
	if err == gorm.ErrRecordNotFound {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "loyalty card not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup loyalty card")
	}
	return card, nil
}

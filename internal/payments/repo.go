package payments

import (
	"context"

	"gorm.io/gorm"

	"github.com/smartkartops/smartkart-backend/pkg/db/models"
)

// Repository is the persistence surface for payment authorizations.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, auth *models.PaymentAuthorization) error
	FindByCode(ctx context.Context, businessOrderCode string) (*models.PaymentAuthorization, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a payment authorization repository bound to the
// provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, auth *models.PaymentAuthorization) error {
	return r.db.WithContext(ctx).Create(auth).Error
}

func (r *repository) FindByCode(ctx context.Context, businessOrderCode string) (*models.PaymentAuthorization, error) {
	var auth models.PaymentAuthorization
	err := r.db.WithContext(ctx).
		Where("business_order_code = ?", businessOrderCode).
		First(&auth).Error
	if err != nil {
		return nil, err
	}
	return &auth, nil
}

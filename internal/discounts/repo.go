package discounts

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/smartkartops/smartkart-backend/pkg/db/models"
)

// Repository is the read/write surface for discount rules.
type Repository interface {
	List(ctx context.Context) ([]models.DiscountRule, error)
	Upsert(ctx context.Context, rule *models.DiscountRule) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a discount rules repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) List(ctx context.Context) ([]models.DiscountRule, error) {
	var rules []models.DiscountRule
	err := r.db.WithContext(ctx).
		Order("id ASC").
		Find(&rules).Error
	if err != nil {
		return nil, err
	}
	return rules, nil
}

func (r *repository) Upsert(ctx context.Context, rule *models.DiscountRule) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"percent", "updated_at"}),
		}).
		Create(rule).Error
}

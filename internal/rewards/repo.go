package rewards

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/smartkartops/smartkart-backend/pkg/db/models"
)

// Repository is the persistence surface for loyalty cards.
type Repository interface {
	FindByPhoneSuffix(ctx context.Context, suffix string) (*models.LoyaltyCard, error)
	Create(ctx context.Context, card *models.LoyaltyCard) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a loyalty card repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) FindByPhoneSuffix(ctx context.Context, suffix string) (*models.LoyaltyCard, error) {
	var card models.LoyaltyCard
	err := r.db.WithContext(ctx).
		Where("phone LIKE ?", "%"+suffix).
		Order("created_at ASC").
		First(&card).Error
	if err != nil {
		return nil, err
	}
	return &card, nil
}

func (r *repository) Create(ctx context.Context, card *models.LoyaltyCard) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "phone"}},
			DoNothing: true,
		}).
		Create(card).Error
}

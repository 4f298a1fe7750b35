package records

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/smartkartops/smartkart-backend/pkg/db/models"
	"github.com/smartkartops/smartkart-backend/pkg/enums"
)

// Repository is the persistence surface for raw records and override patches.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateRecord(ctx context.Context, record *models.OrderRecord) (*models.OrderRecord, error)
	FindRecord(ctx context.Context, recordID uuid.UUID) (*models.OrderRecord, error)
	ListRecords(ctx context.Context, kind enums.RecordKind) ([]models.OrderRecord, error)
	ListGroup(ctx context.Context, businessOrderCode string) ([]models.OrderRecord, error)
	MarkLeadsConverted(ctx context.Context, businessOrderCode string) error
	UpsertOverride(ctx context.Context, override *models.OrderOverride) error
	FindOverride(ctx context.Context, recordID uuid.UUID) (*models.OrderOverride, error)
	ListOverrides(ctx context.Context) (map[uuid.UUID]json.RawMessage, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a records repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateRecord(ctx context.Context, record *models.OrderRecord) (*models.OrderRecord, error) {
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return nil, err
	}
	return record, nil
}

func (r *repository) FindRecord(ctx context.Context, recordID uuid.UUID) (*models.OrderRecord, error) {
	var record models.OrderRecord
	err := r.db.WithContext(ctx).
		Where("id = ?", recordID).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *repository) ListRecords(ctx context.Context, kind enums.RecordKind) ([]models.OrderRecord, error) {
	var rows []models.OrderRecord
	err := r.db.WithContext(ctx).
		Where("kind = ?", kind).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) ListGroup(ctx context.Context, businessOrderCode string) ([]models.OrderRecord, error) {
	var rows []models.OrderRecord
	err := r.db.WithContext(ctx).
		Where("business_order_code = ?", businessOrderCode).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) MarkLeadsConverted(ctx context.Context, businessOrderCode string) error {
	return r.db.WithContext(ctx).
		Model(&models.OrderRecord{}).
		Where("business_order_code = ? AND kind = ?", businessOrderCode, enums.RecordKindLead).
		Update("converted", true).Error
}

func (r *repository) UpsertOverride(ctx context.Context, override *models.OrderOverride) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "record_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"fields", "updated_at"}),
		}).
		Create(override).Error
}

func (r *repository) FindOverride(ctx context.Context, recordID uuid.UUID) (*models.OrderOverride, error) {
	var override models.OrderOverride
	err := r.db.WithContext(ctx).
		Where("record_id = ?", recordID).
		First(&override).Error
	if err != nil {
		return nil, err
	}
	return &override, nil
}

func (r *repository) ListOverrides(ctx context.Context) (map[uuid.UUID]json.RawMessage, error) {
	var rows []models.OrderOverride
	if err := r.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]json.RawMessage, len(rows))
	for _, row := range rows {
		out[row.RecordID] = row.Fields
	}
	return out, nil
}

package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// OrderOverride layers admin edits on top of one raw record. Fields holds a
// partial record as JSON; later writes merge onto earlier ones per field.
type OrderOverride struct {
	RecordID  uuid.UUID       `gorm:"column:record_id;type:uuid;primaryKey" json:"record_id"`
	Fields    json.RawMessage `gorm:"column:fields;type:jsonb;not null" json:"fields"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// TableName matches the order-overrides collection.
func (OrderOverride) TableName() string {
	return "order_overrides"
}

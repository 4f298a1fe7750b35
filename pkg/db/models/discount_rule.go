package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// DiscountRule holds one scoped discount. The ID encodes the scope:
// product_<id>, vendor_<name>, or collection_<name>.
type DiscountRule struct {
	ID        string          `gorm:"column:id;primaryKey" json:"id"`
	Percent   decimal.Decimal `gorm:"column:percent;type:numeric(5,2);not null" json:"percent"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// TableName matches the discounts collection.
func (DiscountRule) TableName() string {
	return "discount_rules"
}

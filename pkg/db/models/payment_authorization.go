package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentAuthorization records a successful full-amount hold. One row per
// business order code, immutable once written.
type PaymentAuthorization struct {
	ID                uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	BusinessOrderCode string          `gorm:"column:business_order_code;not null;unique" json:"business_order_code"`
	PaymentID         string          `gorm:"column:payment_id;not null" json:"payment_id"`
	GatewayOrderID    string          `gorm:"column:gateway_order_id;not null" json:"gateway_order_id"`
	Signature         string          `gorm:"column:signature" json:"signature"`
	Amount            decimal.Decimal `gorm:"column:amount;type:numeric(12,2);not null" json:"amount"`
	AuthorizedAt      time.Time       `gorm:"column:authorized_at;not null" json:"authorized_at"`
	CreatedAt         time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

// TableName matches the payment-authorization collection.
func (PaymentAuthorization) TableName() string {
	return "payment_authorizations"
}

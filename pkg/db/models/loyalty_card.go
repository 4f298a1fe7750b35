package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LoyaltyCard is the reward record keyed by sanitized customer phone number.
// Created at most once per phone; future reward rules mutate points/cashback.
type LoyaltyCard struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Phone         string          `gorm:"column:phone;not null;unique" json:"phone"`
	Points        int             `gorm:"column:points;not null" json:"points"`
	Cashback      decimal.Decimal `gorm:"column:cashback;type:numeric(12,2);not null" json:"cashback"`
	ValidFrom     time.Time       `gorm:"column:valid_from;not null" json:"valid_from"`
	ValidUntil    time.Time       `gorm:"column:valid_until;not null" json:"valid_until"`
	IssuingSeller string          `gorm:"column:issuing_seller;not null" json:"issuing_seller"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// TableName matches the loyalty collection.
func (LoyaltyCard) TableName() string {
	return "loyalty_cards"
}

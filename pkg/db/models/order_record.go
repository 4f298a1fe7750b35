package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/smartkartops/smartkart-backend/pkg/enums"
)

// OrderRecord is one immutable write from one source about one logical order.
// Records sharing a BusinessOrderCode describe the same order; corrections are
// layered on via OrderOverride rows, never by mutating these in place.
type OrderRecord struct {
	ID                 uuid.UUID                `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"record_id"`
	BusinessOrderCode  string                   `gorm:"column:business_order_code;not null;index" json:"business_order_code"`
	Kind               enums.RecordKind         `gorm:"column:kind;type:record_kind;not null;default:'order'" json:"kind"`
	Source             enums.RecordSource       `gorm:"column:source;type:record_source;not null" json:"source"`
	CustomerName       string                   `gorm:"column:customer_name;not null" json:"customer_name"`
	CustomerEmail      string                   `gorm:"column:customer_email" json:"customer_email"`
	CustomerPhone      string                   `gorm:"column:customer_phone;not null" json:"customer_phone"`
	CustomerAddress    string                   `gorm:"column:customer_address" json:"customer_address"`
	CustomerPincode    string                   `gorm:"column:customer_pincode" json:"customer_pincode"`
	ProductID          *string                  `gorm:"column:product_id" json:"product_id,omitempty"`
	ProductDescription string                   `gorm:"column:product_description" json:"product_description"`
	VendorName         string                   `gorm:"column:vendor_name" json:"vendor_name"`
	CollectionName     string                   `gorm:"column:collection_name" json:"collection_name"`
	Quantity           int                      `gorm:"column:quantity;not null;default:1" json:"quantity"`
	Price              decimal.Decimal          `gorm:"column:price;type:numeric(12,2);not null" json:"price"`
	OriginalPrice      decimal.Decimal          `gorm:"column:original_price;type:numeric(12,2);not null" json:"original_price"`
	DiscountPercentage decimal.Decimal          `gorm:"column:discount_percentage;type:numeric(5,2)" json:"discount_percentage"`
	DiscountAmount     decimal.Decimal          `gorm:"column:discount_amount;type:numeric(12,2)" json:"discount_amount"`
	PaymentStatus      enums.PaymentStatus      `gorm:"column:payment_status;type:payment_status;not null;default:'pending'" json:"payment_status"`
	PaymentMethod      enums.PaymentMethod      `gorm:"column:payment_method;not null" json:"payment_method"`
	PlacedAt           time.Time                `gorm:"column:placed_at;not null" json:"date"`
	DeliveryStatus     *string                  `gorm:"column:delivery_status" json:"delivery_status,omitempty"`
	TrackingNumber     *string                  `gorm:"column:tracking_number" json:"tracking_number,omitempty"`
	CancellationID     *string                  `gorm:"column:cancellation_id" json:"cancellation_id,omitempty"`
	CancellationStatus enums.CancellationStatus `gorm:"column:cancellation_status;type:cancellation_status;not null;default:'none'" json:"cancellation_status"`
	CancellationReason *string                  `gorm:"column:cancellation_reason" json:"cancellation_reason,omitempty"`
	RefundAmount       *decimal.Decimal         `gorm:"column:refund_amount;type:numeric(12,2)" json:"refund_amount,omitempty"`
	RefundReason       *string                  `gorm:"column:refund_reason" json:"refund_reason,omitempty"`
	RefundStatus       enums.RefundStatus       `gorm:"column:refund_status;type:refund_status;not null;default:'none'" json:"refund_status"`
	CancellationFee    *decimal.Decimal         `gorm:"column:cancellation_fee;type:numeric(12,2)" json:"cancellation_fee,omitempty"`
	Converted          bool                     `gorm:"column:converted;not null;default:false" json:"converted"`
	CreatedAt          time.Time                `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time                `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

// TableName keeps orders and leads in one append-mostly collection.
func (OrderRecord) TableName() string {
	return "order_records"
}

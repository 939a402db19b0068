package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/vendora-hq/fulfillment-backend/pkg/enums"
)

// Order is the root aggregate produced at checkout. Overall status and kind are
// derived fields cached for fast reads; units remain the source of truth.
// Orders are never deleted, only cancelled.
type Order struct {
	ID                uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber       int64               `gorm:"column:order_number;not null;uniqueIndex"`
	CustomerID        uuid.UUID           `gorm:"column:customer_id;type:uuid;not null;index"`
	CustomerName      string              `gorm:"column:customer_name;not null"`
	CustomerEmail     string              `gorm:"column:customer_email;not null"`
	CustomerPhone     string              `gorm:"column:customer_phone"`
	CustomerAddress   string              `gorm:"column:customer_address;not null"`
	ShippingCents     int                 `gorm:"column:shipping_cents;not null;default:0"`
	PaymentProofRef   string              `gorm:"column:payment_proof_ref"`
	Kind              enums.OrderKind     `gorm:"column:kind;type:text;not null"`
	OverallStatus     enums.OverallStatus `gorm:"column:overall_status;type:text;not null;default:'placed'"`
	CustomerCancelled bool                `gorm:"column:customer_cancelled;not null;default:false"`
	Version           int64               `gorm:"column:version;not null;default:1"`
	Units             []FulfillmentUnit   `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Items             []OrderLineItem     `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt         time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// TotalCents is the customer-facing display total: unit subtotals plus shipping.
func (o Order) TotalCents() int {
	total := o.ShippingCents
	for _, unit := range o.Units {
		total += unit.SubtotalCents
	}
	return total
}

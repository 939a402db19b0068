package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderLineItem is the priced snapshot of one cart entry. VendorID mirrors the
// owning unit so per-owner partitions stay queryable without joins.
type OrderLineItem struct {
	ID             uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID        uuid.UUID  `gorm:"column:order_id;type:uuid;not null;index"`
	UnitID         uuid.UUID  `gorm:"column:unit_id;type:uuid;not null;index"`
	ProductRef     string     `gorm:"column:product_ref;not null"`
	VendorID       *uuid.UUID `gorm:"column:vendor_id;type:uuid"`
	Qty            int        `gorm:"column:qty;not null"`
	UnitPriceCents int        `gorm:"column:unit_price_cents;not null"`
	TotalCents     int        `gorm:"column:total_cents;not null"`
	Cancelled      bool       `gorm:"column:cancelled;not null;default:false"`
	CreatedAt      time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vendora-hq/fulfillment-backend/pkg/enums"
)

// CommissionRecord snapshots a vendor's commission liability for one order at
// forwarding time. Rows are immutable after insert except SettlementStatus;
// later corrections append adjustment records instead of editing in place, so
// historical commission reports never silently change.
type CommissionRecord struct {
	ID               uuid.UUID                  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID          uuid.UUID                  `gorm:"column:order_id;type:uuid;not null;index"`
	UnitID           uuid.UUID                  `gorm:"column:unit_id;type:uuid;not null;index"`
	VendorID         uuid.UUID                  `gorm:"column:vendor_id;type:uuid;not null;index"`
	SubtotalCents    int                        `gorm:"column:subtotal_cents;not null"`
	Rate             decimal.Decimal            `gorm:"column:rate;type:numeric(6,4);not null"`
	CommissionCents  int                        `gorm:"column:commission_cents;not null"`
	PayableCents     int                        `gorm:"column:payable_cents;not null"`
	Kind             enums.CommissionRecordKind `gorm:"column:kind;type:text;not null;default:'initial'"`
	SettlementStatus enums.SettlementStatus     `gorm:"column:settlement_status;type:text;not null;default:'unpaid'"`
	CreatedAt        time.Time                  `gorm:"column:created_at;autoCreateTime"`
}

package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/vendora-hq/fulfillment-backend/pkg/enums"
)

// FulfillmentUnit is the admin's or one vendor's partition of an order's line
// items, tracked through its own status lifecycle. VendorID is set iff the
// owner is a vendor; the pair {OrderID, OwnerType, VendorID} is unique.
type FulfillmentUnit struct {
	ID            uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID       uuid.UUID        `gorm:"column:order_id;type:uuid;not null;index"`
	OwnerType     enums.OwnerType  `gorm:"column:owner_type;type:text;not null"`
	VendorID      *uuid.UUID       `gorm:"column:vendor_id;type:uuid;index"`
	SubtotalCents int              `gorm:"column:subtotal_cents;not null"`
	Status        enums.UnitStatus `gorm:"column:status;type:text;not null;default:'placed'"`
	CancelledBy   *enums.ActorType `gorm:"column:cancelled_by;type:text"`
	Items         []OrderLineItem  `gorm:"foreignKey:UnitID;constraint:OnDelete:CASCADE"`
	History       []UnitStatusEvent `gorm:"foreignKey:UnitID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

// OwnedBy reports whether the unit belongs to the given vendor.
func (u FulfillmentUnit) OwnedBy(vendorID uuid.UUID) bool {
	return u.OwnerType == enums.OwnerTypeVendor && u.VendorID != nil && *u.VendorID == vendorID
}

// CancelledByCustomer reports whether this unit carries the customer veto flag.
func (u FulfillmentUnit) CancelledByCustomer() bool {
	return u.CancelledBy != nil && *u.CancelledBy == enums.ActorTypeCustomer
}

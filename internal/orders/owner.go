package orders

import (
	"strings"

	"github.com/google/uuid"

	"github.com/vendora-hq/fulfillment-backend/pkg/db/models"
	"github.com/vendora-hq/fulfillment-backend/pkg/enums"
	pkgerrors "github.com/vendora-hq/fulfillment-backend/pkg/errors"
)

// OwnerRef addresses one fulfillment unit inside an order: either the admin
// partition or exactly one vendor's partition. Modelled as a tagged value so
// call sites never branch on a bare nullable vendor id.
type OwnerRef struct {
	Type     enums.OwnerType
	VendorID uuid.UUID
}

// AdminOwner returns the reference for the admin partition.
func AdminOwner() OwnerRef {
	return OwnerRef{Type: enums.OwnerTypeAdmin}
}

// VendorOwner returns the reference for one vendor's partition.
func VendorOwner(vendorID uuid.UUID) OwnerRef {
	return OwnerRef{Type: enums.OwnerTypeVendor, VendorID: vendorID}
}

// ParseOwnerRef accepts the wire form of an owner: the literal "admin" or a
// vendor uuid.
func ParseOwnerRef(raw string) (OwnerRef, error) {
	trimmed := strings.TrimSpace(strings.ToLower(raw))
	if trimmed == string(enums.OwnerTypeAdmin) {
		return AdminOwner(), nil
	}
	vendorID, err := uuid.Parse(trimmed)
	if err != nil {
		return OwnerRef{}, pkgerrors.New(pkgerrors.CodeValidation, "owner must be 'admin' or a vendor id")
	}
	return VendorOwner(vendorID), nil
}

// String renders the wire form of the owner.
func (o OwnerRef) String() string {
	if o.Type == enums.OwnerTypeAdmin {
		return string(enums.OwnerTypeAdmin)
	}
	return o.VendorID.String()
}

// Matches reports whether the unit is the partition this reference addresses.
func (o OwnerRef) Matches(unit models.FulfillmentUnit) bool {
	if o.Type == enums.OwnerTypeAdmin {
		return unit.OwnerType == enums.OwnerTypeAdmin
	}
	return unit.OwnedBy(o.VendorID)
}

// FindUnit locates the addressed unit within the order's snapshot.
func (o OwnerRef) FindUnit(order *models.Order) *models.FulfillmentUnit {
	if order == nil {
		return nil
	}
	for i := range order.Units {
		if o.Matches(order.Units[i]) {
			return &order.Units[i]
		}
	}
	return nil
}

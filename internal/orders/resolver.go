package orders

import (
	"github.com/vendora-hq/fulfillment-backend/pkg/db/models"
	"github.com/vendora-hq/fulfillment-backend/pkg/enums"
)

// ResolveOverall folds the current unit snapshot into the customer-facing
// order status. It is a pure function recomputed and persisted inside the same
// transaction as every unit change; the stored overall_status is a cache of
// this fold, never an incrementally patched field.
//
// The customer veto is absolute: a single unit cancelled by the customer pins
// the order to cancelled_by_customer regardless of how far other units got.
func ResolveOverall(units []models.FulfillmentUnit) enums.OverallStatus {
	if len(units) == 0 {
		return enums.OverallStatusPlaced
	}

	allDelivered := true
	allCancelled := true
	anyShipped := false
	anyBehindProcessing := false
	anyLeftPlaced := false

	for _, unit := range units {
		if unit.CancelledByCustomer() {
			return enums.OverallStatusCancelledByCustomer
		}
		if unit.Status != enums.UnitStatusDelivered {
			allDelivered = false
		}
		if unit.Status != enums.UnitStatusCancelled {
			allCancelled = false
		}
		if unit.Status == enums.UnitStatusShipped {
			anyShipped = true
		}
		if unit.Status == enums.UnitStatusPlaced || unit.Status == enums.UnitStatusProcessing {
			anyBehindProcessing = true
		}
		if unit.Status != enums.UnitStatusPlaced {
			anyLeftPlaced = true
		}
	}

	switch {
	case allDelivered:
		return enums.OverallStatusDelivered
	case allCancelled:
		return enums.OverallStatusCancelled
	case anyShipped && !anyBehindProcessing:
		return enums.OverallStatusShipped
	case anyLeftPlaced:
		return enums.OverallStatusProcessing
	default:
		return enums.OverallStatusPlaced
	}
}

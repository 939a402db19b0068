package orders

import (
	"github.com/vendora-hq/fulfillment-backend/pkg/db/models"
	"github.com/vendora-hq/fulfillment-backend/pkg/enums"
)

// normalizeOrder maps legacy status vocabulary (capitalized spellings,
// Pending/Confirmed era values) found in pre-migration rows onto the canonical
// enum set. Runs once at the read boundary; the engine and every write path
// only ever see canonical values. Unknown values are left untouched so they
// surface loudly downstream instead of being silently coerced.
func normalizeOrder(order *models.Order) {
	if order == nil {
		return
	}
	for i := range order.Units {
		normalizeUnit(&order.Units[i])
	}
	if !order.OverallStatus.IsValid() {
		if mapped, err := enums.NormalizeUnitStatus(string(order.OverallStatus)); err == nil {
			order.OverallStatus = enums.OverallStatus(mapped)
		}
	}
}

func normalizeUnit(unit *models.FulfillmentUnit) {
	if unit == nil || unit.Status.IsValid() {
		return
	}
	if mapped, err := enums.NormalizeUnitStatus(string(unit.Status)); err == nil {
		unit.Status = mapped
	}
	for i := range unit.History {
		event := &unit.History[i]
		if !event.FromStatus.IsValid() {
			if mapped, err := enums.NormalizeUnitStatus(string(event.FromStatus)); err == nil {
				event.FromStatus = mapped
			}
		}
		if !event.ToStatus.IsValid() {
			if mapped, err := enums.NormalizeUnitStatus(string(event.ToStatus)); err == nil {
				event.ToStatus = mapped
			}
		}
	}
}

package orders

import (
	"github.com/vendora-hq/fulfillment-backend/pkg/enums"
)

// edge identifies one allowed transition in the unit lifecycle.
type edge struct {
	From enums.UnitStatus
	To   enums.UnitStatus
}

// transitionTable is the closed set of allowed unit transitions and the actor
// types permitted to drive each one. The happy path is linear with no skipping;
// cancellation is only reachable before shipment. Customers never cancel
// through the generic transition path: their cancellation is the whole-order
// veto handled by the cancellation coordinator.
var transitionTable = map[edge][]enums.ActorType{
	{From: enums.UnitStatusPlaced, To: enums.UnitStatusProcessing}: {
		enums.ActorTypeAdmin,
		enums.ActorTypeVendor,
	},
	{From: enums.UnitStatusProcessing, To: enums.UnitStatusShipped}: {
		enums.ActorTypeAdmin,
		enums.ActorTypeVendor,
	},
	{From: enums.UnitStatusShipped, To: enums.UnitStatusDelivered}: {
		enums.ActorTypeAdmin,
		enums.ActorTypeSystem,
	},
	{From: enums.UnitStatusPlaced, To: enums.UnitStatusCancelled}: {
		enums.ActorTypeAdmin,
		enums.ActorTypeVendor,
		enums.ActorTypeCustomer,
	},
	{From: enums.UnitStatusProcessing, To: enums.UnitStatusCancelled}: {
		enums.ActorTypeAdmin,
		enums.ActorTypeVendor,
	},
}

// EdgeAllowed reports whether the from→to pair is in the transition table.
func EdgeAllowed(from, to enums.UnitStatus) bool {
	_, ok := transitionTable[edge{From: from, To: to}]
	return ok
}

// ActorAllowed reports whether the actor type may drive an allowed edge.
// Callers must check EdgeAllowed first so invalid-edge and forbidden-actor
// failures stay distinguishable.
func ActorAllowed(from, to enums.UnitStatus, actor enums.ActorType) bool {
	allowed, ok := transitionTable[edge{From: from, To: to}]
	if !ok {
		return false
	}
	for _, candidate := range allowed {
		if candidate == actor {
			return true
		}
	}
	return false
}

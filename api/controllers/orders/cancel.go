package orders

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/vendora-hq/fulfillment-backend/api/responses"
	"github.com/vendora-hq/fulfillment-backend/api/validators"
	"github.com/vendora-hq/fulfillment-backend/internal/cancellation"
	"github.com/vendora-hq/fulfillment-backend/pkg/enums"
	pkgerrors "github.com/vendora-hq/fulfillment-backend/pkg/errors"
	"github.com/vendora-hq/fulfillment-backend/pkg/logger"
)

type cancelRequest struct {
	Reason *string `json:"reason,omitempty"`
}

type cancelItemsRequest struct {
	ItemIDs []string `json:"item_ids" validate:"required,min=1,dive,uuid4"`
	Reason  *string  `json:"reason,omitempty"`
}

// CustomerCancel is the whole-order veto. It only succeeds while every unit is
// still placed, and it locks the order against all later mutations.
func CustomerCancel(svc cancellation.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cancellation service unavailable"))
			return
		}

		actorID, actorType, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if actorType != enums.ActorTypeCustomer {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "customer veto is customer-only"))
			return
		}
		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.CancelByCustomer(r.Context(), cancellation.CustomerCancelInput{
			OrderID: orderID,
			ActorID: actorID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// CancelOrder is the admin whole-order cancellation of every still-open unit.
func CancelOrder(svc cancellation.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cancellation service unavailable"))
			return
		}

		actorID, actorType, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload cancelRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.CancelOrder(r.Context(), cancellation.OrderCancelInput{
			OrderID:   orderID,
			ActorType: actorType,
			ActorID:   actorID,
			Reason:    payload.Reason,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// CancelUnit cancels one fulfillment unit on behalf of admin or its vendor.
func CancelUnit(svc cancellation.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cancellation service unavailable"))
			return
		}

		actorID, actorType, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		owner, err := parseOwnerParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload cancelRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.CancelUnit(r.Context(), cancellation.UnitCancelInput{
			OrderID:   orderID,
			Owner:     owner,
			ActorType: actorType,
			ActorID:   actorID,
			Reason:    payload.Reason,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

// CancelLineItems cancels a subset of a unit's line items, recomputing the
// unit subtotal and the commission liability.
func CancelLineItems(svc cancellation.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "cancellation service unavailable"))
			return
		}

		actorID, actorType, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		owner, err := parseOwnerParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload cancelItemsRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		itemIDs := make([]uuid.UUID, 0, len(payload.ItemIDs))
		for _, raw := range payload.ItemIDs {
			itemID, err := uuid.Parse(strings.TrimSpace(raw))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid item id"))
				return
			}
			itemIDs = append(itemIDs, itemID)
		}

		order, err := svc.CancelLineItems(r.Context(), cancellation.LineItemCancelInput{
			OrderID:   orderID,
			Owner:     owner,
			ItemIDs:   itemIDs,
			ActorType: actorType,
			ActorID:   actorID,
			Reason:    payload.Reason,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

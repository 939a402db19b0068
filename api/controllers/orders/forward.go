package orders

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/vendora-hq/fulfillment-backend/api/responses"
	"github.com/vendora-hq/fulfillment-backend/api/validators"
	"github.com/vendora-hq/fulfillment-backend/internal/forwarding"
	pkgerrors "github.com/vendora-hq/fulfillment-backend/pkg/errors"
	"github.com/vendora-hq/fulfillment-backend/pkg/logger"
)

type forwardRequest struct {
	VendorIDs  []string `json:"vendor_ids,omitempty" validate:"omitempty,dive,uuid4"`
	AdminNotes *string  `json:"admin_notes,omitempty"`
}

// Forward moves the order's vendor units to processing and snapshots their
// commission. An empty vendor_ids list targets every vendor unit.
func Forward(svc forwarding.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "forwarding service unavailable"))
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

		var payload forwardRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		vendorIDs := make([]uuid.UUID, 0, len(payload.VendorIDs))
		for _, raw := range payload.VendorIDs {
			vendorID, err := uuid.Parse(strings.TrimSpace(raw))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid vendor id"))
				return
			}
			vendorIDs = append(vendorIDs, vendorID)
		}

		order, err := svc.Forward(r.Context(), forwarding.ForwardInput{
			OrderID:    orderID,
			VendorIDs:  vendorIDs,
			AdminNotes: payload.AdminNotes,
			ActorType:  actorType,
			ActorID:    actorID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

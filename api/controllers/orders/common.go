package orders

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/vendora-hq/fulfillment-backend/api/middleware"
	internalorders "github.com/vendora-hq/fulfillment-backend/internal/orders"
	"github.com/vendora-hq/fulfillment-backend/pkg/enums"
	pkgerrors "github.com/vendora-hq/fulfillment-backend/pkg/errors"
)

func actorFromContext(r *http.Request) (uuid.UUID, enums.ActorType, error) {
	rawID := middleware.ActorIDFromContext(r.Context())
	if rawID == "" {
		return uuid.Nil, "", pkgerrors.New(pkgerrors.CodeUnauthorized, "actor context missing")
	}
	actorID, err := uuid.Parse(rawID)
	if err != nil {
		return uuid.Nil, "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid actor id")
	}
	actorType, err := enums.ParseActorType(middleware.ActorTypeFromContext(r.Context()))
	if err != nil {
		return uuid.Nil, "", pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "unknown actor type")
	}
	return actorID, actorType, nil
}

func parseOrderID(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "orderId"))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	orderID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id")
	}
	return orderID, nil
}

// parseOwnerParam reads the {owner} URL segment: the literal "admin" or a
// vendor uuid.
func parseOwnerParam(r *http.Request) (internalorders.OwnerRef, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "owner"))
	if raw == "" {
		return internalorders.OwnerRef{}, pkgerrors.New(pkgerrors.CodeValidation, "unit owner is required")
	}
	return internalorders.ParseOwnerRef(raw)
}

package commissions

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/vendora-hq/fulfillment-backend/api/middleware"
	"github.com/vendora-hq/fulfillment-backend/api/responses"
	"github.com/vendora-hq/fulfillment-backend/api/validators"
	"github.com/vendora-hq/fulfillment-backend/internal/commission"
	"github.com/vendora-hq/fulfillment-backend/pkg/enums"
	pkgerrors "github.com/vendora-hq/fulfillment-backend/pkg/errors"
	"github.com/vendora-hq/fulfillment-backend/pkg/logger"
	"github.com/vendora-hq/fulfillment-backend/pkg/pagination"
)

// Report returns the actor-scoped commission ledger page. Vendors are pinned
// to their own records; admin may filter by vendor and date range.
func Report(svc commission.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "commission service unavailable"))
			return
		}

		actorID, actorType, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := commission.ReportInput{
			ActorType: actorType,
			ActorID:   actorID,
			Limit:     limit,
			Cursor:    strings.TrimSpace(r.URL.Query().Get("cursor")),
		}

		if raw := strings.TrimSpace(r.URL.Query().Get("vendor_id")); raw != "" {
			vendorID, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid vendor_id"))
				return
			}
			input.VendorID = &vendorID
		}
		input.From, err = parseDateParam(r, "from")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input.To, err = parseDateParam(r, "to")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.Report(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// Settle marks one commission record as paid out.
func Settle(svc commission.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "commission service unavailable"))
			return
		}

		actorID, actorType, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		raw := strings.TrimSpace(chi.URLParam(r, "recordId"))
		if raw == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "record id is required"))
			return
		}
		recordID, err := uuid.Parse(raw)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid record id"))
			return
		}

		if err := svc.MarkSettled(r.Context(), commission.SettleInput{
			RecordID:  recordID,
			ActorType: actorType,
			ActorID:   actorID,
		}); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, nil)
	}
}

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

func parseDateParam(r *http.Request, field string) (*time.Time, error) {
	value := strings.TrimSpace(r.URL.Query().Get(field))
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t, err = time.Parse("2006-01-02", value)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+field)
		}
	}
	return &t, nil
}

package orders

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/vendora-hq/fulfillment-backend/api/responses"
	"github.com/vendora-hq/fulfillment-backend/api/validators"
	"github.com/vendora-hq/fulfillment-backend/internal/checkout"
	internalorders "github.com/vendora-hq/fulfillment-backend/internal/orders"
	"github.com/vendora-hq/fulfillment-backend/pkg/enums"
	pkgerrors "github.com/vendora-hq/fulfillment-backend/pkg/errors"
	"github.com/vendora-hq/fulfillment-backend/pkg/logger"
)

type checkoutRequest struct {
	CustomerName    string                `json:"customer_name" validate:"required"`
	CustomerEmail   string                `json:"customer_email" validate:"required,email"`
	CustomerPhone   string                `json:"customer_phone"`
	CustomerAddress string                `json:"customer_address" validate:"required"`
	ShippingCents   int                   `json:"shipping_cents" validate:"min=0"`
	PaymentProofRef string                `json:"payment_proof_ref" validate:"required"`
	Items           []checkoutRequestItem `json:"items" validate:"required,min=1,dive"`
}

type checkoutRequestItem struct {
	ProductRef     string  `json:"product_ref" validate:"required"`
	VendorID       *string `json:"vendor_id,omitempty"`
	Qty            int     `json:"qty" validate:"required,min=1"`
	UnitPriceCents int     `json:"unit_price_cents" validate:"min=0"`
}

// Checkout creates an order from the customer's cart. Untagged items belong to
// the admin shop; vendor-tagged items carry the vendor's uuid.
func Checkout(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		actorID, actorType, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if actorType != enums.ActorTypeCustomer {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "checkout is customer-only"))
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items := make([]checkout.CartItem, 0, len(payload.Items))
		for i, item := range payload.Items {
			owner := internalorders.AdminOwner()
			if item.VendorID != nil && strings.TrimSpace(*item.VendorID) != "" {
				vendorID, err := uuid.Parse(strings.TrimSpace(*item.VendorID))
				if err != nil {
					responses.WriteError(r.Context(), logg, w,
						pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid vendor id").
							WithDetails(map[string]any{"item_index": i}))
					return
				}
				owner = internalorders.VendorOwner(vendorID)
			}
			items = append(items, checkout.CartItem{
				ProductRef:     item.ProductRef,
				Owner:          owner,
				Qty:            item.Qty,
				UnitPriceCents: item.UnitPriceCents,
			})
		}

		order, err := svc.CreateOrder(r.Context(), checkout.CreateOrderInput{
			CustomerID:      actorID,
			CustomerName:    payload.CustomerName,
			CustomerEmail:   payload.CustomerEmail,
			CustomerPhone:   payload.CustomerPhone,
			CustomerAddress: payload.CustomerAddress,
			ShippingCents:   payload.ShippingCents,
			PaymentProofRef: payload.PaymentProofRef,
			Items:           items,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

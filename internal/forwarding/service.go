package forwarding

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/vendora-hq/fulfillment-backend/internal/commission"
	"github.com/vendora-hq/fulfillment-backend/internal/orders"
	"github.com/vendora-hq/fulfillment-backend/pkg/db/models"
	"github.com/vendora-hq/fulfillment-backend/pkg/enums"
	pkgerrors "github.com/vendora-hq/fulfillment-backend/pkg/errors"
	"github.com/vendora-hq/fulfillment-backend/pkg/metrics"
	"github.com/vendora-hq/fulfillment-backend/pkg/outbox"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service assigns vendor units to processing and snapshots their commission.
type Service interface {
	Forward(ctx context.Context, input ForwardInput) (*models.Order, error)
}

type service struct {
	ordersRepo     orders.Repository
	commissionRepo commission.Repository
	tx             txRunner
	outbox         outboxPublisher
	cache          orders.OrderCache
	defaultRate    decimal.Decimal
	metrics        *metrics.OrderMetrics
}

// ForwardInput carries one forwarding request. An empty VendorIDs slice
// targets every vendor unit on the order.
type ForwardInput struct {
	OrderID    uuid.UUID
	VendorIDs  []uuid.UUID
	AdminNotes *string
	ActorType  enums.ActorType
	ActorID    uuid.UUID
}

// OrderForwardedEvent is emitted after forwarding commits. The external
// notification system consumes it to alert the targeted vendors.
type OrderForwardedEvent struct {
	OrderID        uuid.UUID           `json:"order_id"`
	ForwardedUnits []uuid.UUID         `json:"forwarded_units"`
	VendorIDs      []uuid.UUID         `json:"vendor_ids"`
	CommissionIDs  []uuid.UUID         `json:"commission_record_ids"`
	OverallStatus  enums.OverallStatus `json:"overall_status"`
	AlreadyHandled int                 `json:"already_handled"`
}

// NewService builds a forwarding service with the required dependencies.
func NewService(
	ordersRepo orders.Repository,
	commissionRepo commission.Repository,
	tx txRunner,
	outboxSvc outboxPublisher,
	cache orders.OrderCache,
	defaultRate decimal.Decimal,
	orderMetrics *metrics.OrderMetrics,
) (Service, error) {
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if commissionRepo == nil {
		return nil, fmt.Errorf("commission repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if cache == nil {
		return nil, fmt.Errorf("order cache required")
	}
	return &service{
		ordersRepo:     ordersRepo,
		commissionRepo: commissionRepo,
		tx:             tx,
		outbox:         outboxSvc,
		cache:          cache,
		defaultRate:    defaultRate,
		metrics:        orderMetrics,
	}, nil
}

func (s *service) Forward(ctx context.Context, input ForwardInput) (*models.Order, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.ActorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor identity missing")
	}
	if input.ActorType != enums.ActorTypeAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "forwarding restricted to admin")
	}

	var order *models.Order
	var forwarded int
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		ordersRepo := s.ordersRepo.WithTx(tx)
		commissionRepo := s.commissionRepo.WithTx(tx)

		loaded, err := ordersRepo.FindOrderForUpdate(ctx, input.OrderID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if loaded.CustomerCancelled {
			return pkgerrors.New(pkgerrors.CodeOrderLocked, "order locked by customer cancellation")
		}

		targets, err := selectTargets(loaded, input.VendorIDs)
		if err != nil {
			return err
		}

		event := OrderForwardedEvent{OrderID: loaded.ID}
		for _, unit := range targets {
			if unit.Status != enums.UnitStatusPlaced {
				if unit.Status == enums.UnitStatusCancelled {
					return pkgerrors.New(pkgerrors.CodeInvalidTransition, "cannot forward a cancelled unit").
						WithDetails(map[string]string{
							"from":  unit.Status.String(),
							"to":    enums.UnitStatusProcessing.String(),
							"owner": unit.VendorID.String(),
						})
				}
				// Already processing or beyond: idempotent no-op, and no
				// second commission record.
				event.AlreadyHandled++
				continue
			}

			if err := ordersRepo.UpdateUnit(ctx, unit.ID, map[string]any{
				"status": enums.UnitStatusProcessing,
			}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "forward unit")
			}
			history := models.UnitStatusEvent{
				UnitID:     unit.ID,
				FromStatus: enums.UnitStatusPlaced,
				ToStatus:   enums.UnitStatusProcessing,
				ActorType:  input.ActorType,
				ActorID:    input.ActorID,
				Note:       input.AdminNotes,
			}
			if err := ordersRepo.CreateStatusEvents(ctx, []models.UnitStatusEvent{history}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append forwarding history")
			}
			unit.Status = enums.UnitStatusProcessing

			record, err := s.ensureCommissionRecord(ctx, commissionRepo, loaded.ID, unit)
			if err != nil {
				return err
			}
			if record != nil {
				event.CommissionIDs = append(event.CommissionIDs, record.ID)
			}
			event.ForwardedUnits = append(event.ForwardedUnits, unit.ID)
			event.VendorIDs = append(event.VendorIDs, *unit.VendorID)
			forwarded++
		}

		overall := orders.ResolveOverall(loaded.Units)
		applied, err := ordersRepo.UpdateOrderVersioned(ctx, loaded.ID, loaded.Version, map[string]any{
			"overall_status": overall,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist overall status")
		}
		if !applied {
			return pkgerrors.New(pkgerrors.CodeConflict, "order was modified concurrently")
		}
		loaded.OverallStatus = overall
		loaded.Version++
		event.OverallStatus = overall

		order = loaded
		if len(event.ForwardedUnits) == 0 {
			// Fully idempotent call: nothing changed, nothing to announce.
			return nil
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderForwarded,
			AggregateType: enums.AggregateOrder,
			AggregateID:   loaded.ID,
			Version:       1,
			Actor: &outbox.ActorRef{
				ActorID:   input.ActorID,
				ActorType: input.ActorType,
			},
			Data: event,
		})
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			s.metrics.IncRejection(string(typed.Code()))
		}
		return nil, err
	}

	for i := 0; i < forwarded; i++ {
		s.metrics.IncTransition(enums.UnitStatusProcessing.String())
	}
	s.cache.InvalidateOrder(ctx, order)
	return order, nil
}

// selectTargets picks the vendor units addressed by the request. An empty
// vendor list auto-derives every vendor unit from the cart's tags.
func selectTargets(order *models.Order, vendorIDs []uuid.UUID) ([]*models.FulfillmentUnit, error) {
	var targets []*models.FulfillmentUnit
	if len(vendorIDs) == 0 {
		for i := range order.Units {
			if order.Units[i].OwnerType == enums.OwnerTypeVendor {
				targets = append(targets, &order.Units[i])
			}
		}
		if len(targets) == 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "order has no vendor units to forward")
		}
		return targets, nil
	}

	for _, vendorID := range vendorIDs {
		if vendorID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "vendor id required")
		}
		ref := orders.VendorOwner(vendorID)
		unit := ref.FindUnit(order)
		if unit == nil {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no fulfillment unit for vendor").
				WithDetails(map[string]string{"vendor_id": vendorID.String()})
		}
		targets = append(targets, unit)
	}
	return targets, nil
}

// ensureCommissionRecord writes the unit's initial commission snapshot exactly
// once. The rate is resolved now and frozen; later rate changes never touch it.
func (s *service) ensureCommissionRecord(ctx context.Context, repo commission.Repository, orderID uuid.UUID, unit *models.FulfillmentUnit) (*models.CommissionRecord, error) {
	existing, err := repo.FindInitialByUnit(ctx, unit.ID)
	if err == nil {
		return existing, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check existing commission record")
	}

	var override *decimal.Decimal
	vendor, err := repo.FindVendor(ctx, *unit.VendorID)
	if err == nil {
		override = vendor.CommissionRate
	} else if err != gorm.ErrRecordNotFound {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load vendor rate")
	}

	rate := commission.ResolveRate(override, s.defaultRate)
	amounts := commission.Compute(unit.SubtotalCents, rate)
	record := &models.CommissionRecord{
		OrderID:          orderID,
		UnitID:           unit.ID,
		VendorID:         *unit.VendorID,
		SubtotalCents:    unit.SubtotalCents,
		Rate:             rate,
		CommissionCents:  amounts.CommissionCents,
		PayableCents:     amounts.PayableCents,
		Kind:             enums.CommissionRecordKindInitial,
		SettlementStatus: enums.SettlementStatusUnpaid,
		CreatedAt:        time.Now(),
	}
	created, err := repo.Insert(ctx, record)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create commission record")
	}
	return created, nil
}

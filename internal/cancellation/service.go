package cancellation

import (
	"context"
	"fmt"

	"github.com/google/uuid"
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

// Service handles the three cancellation entry points. Every path reads the
// full sibling snapshot inside the transaction before committing: the global
// veto check and the "did processing already begin" check both need it.
type Service interface {
	CancelByCustomer(ctx context.Context, input CustomerCancelInput) (*models.Order, error)
	CancelOrder(ctx context.Context, input OrderCancelInput) (*models.Order, error)
	CancelUnit(ctx context.Context, input UnitCancelInput) (*models.Order, error)
	CancelLineItems(ctx context.Context, input LineItemCancelInput) (*models.Order, error)
}

type service struct {
	ordersRepo     orders.Repository
	commissionRepo commission.Repository
	tx             txRunner
	outbox         outboxPublisher
	cache          orders.OrderCache
	metrics        *metrics.OrderMetrics
}

// CustomerCancelInput is the whole-order veto request.
type CustomerCancelInput struct {
	OrderID uuid.UUID
	ActorID uuid.UUID
}

// OrderCancelInput is the admin whole-order cancellation.
type OrderCancelInput struct {
	OrderID   uuid.UUID
	ActorType enums.ActorType
	ActorID   uuid.UUID
	Reason    *string
}

// UnitCancelInput cancels one unit on behalf of admin or its owning vendor.
type UnitCancelInput struct {
	OrderID   uuid.UUID
	Owner     orders.OwnerRef
	ActorType enums.ActorType
	ActorID   uuid.UUID
	Reason    *string
}

// LineItemCancelInput cancels a subset of a still-open unit's line items.
type LineItemCancelInput struct {
	OrderID   uuid.UUID
	Owner     orders.OwnerRef
	ItemIDs   []uuid.UUID
	ActorType enums.ActorType
	ActorID   uuid.UUID
	Reason    *string
}

// OrderCancelledEvent is emitted when an entire order is cancelled.
type OrderCancelledEvent struct {
	OrderID       uuid.UUID           `json:"order_id"`
	CancelledBy   enums.ActorType     `json:"cancelled_by"`
	OverallStatus enums.OverallStatus `json:"overall_status"`
	UnitIDs       []uuid.UUID         `json:"unit_ids"`
}

// UnitCancelledEvent is emitted when one unit or part of it is cancelled.
type UnitCancelledEvent struct {
	OrderID          uuid.UUID           `json:"order_id"`
	UnitID           uuid.UUID           `json:"unit_id"`
	Owner            string              `json:"owner"`
	CancelledBy      enums.ActorType     `json:"cancelled_by"`
	CancelledItemIDs []uuid.UUID         `json:"cancelled_item_ids,omitempty"`
	UnitCancelled    bool                `json:"unit_cancelled"`
	OverallStatus    enums.OverallStatus `json:"overall_status"`
}

// NewService builds a cancellation service with the required dependencies.
func NewService(
	ordersRepo orders.Repository,
	commissionRepo commission.Repository,
	tx txRunner,
	outboxSvc outboxPublisher,
	cache orders.OrderCache,
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
		metrics:        orderMetrics,
	}, nil
}

func (s *service) CancelByCustomer(ctx context.Context, input CustomerCancelInput) (*models.Order, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.ActorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor identity missing")
	}

	var order *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.ordersRepo.WithTx(tx)
		loaded, err := s.loadOrder(ctx, repo, input.OrderID)
		if err != nil {
			return err
		}
		if loaded.CustomerID != input.ActorID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to customer")
		}
		if loaded.CustomerCancelled {
			order = loaded
			return nil
		}

		// The veto window closes the moment any sibling leaves placed.
		for _, unit := range loaded.Units {
			if unit.Status != enums.UnitStatusPlaced {
				return pkgerrors.New(pkgerrors.CodeConflict, "cancellation window closed: fulfillment already began").
					WithDetails(map[string]string{
						"unit_status": unit.Status.String(),
					})
			}
		}

		cancelledBy := enums.ActorTypeCustomer
		unitIDs := make([]uuid.UUID, 0, len(loaded.Units))
		for i := range loaded.Units {
			unit := &loaded.Units[i]
			if err := repo.UpdateUnit(ctx, unit.ID, map[string]any{
				"status":       enums.UnitStatusCancelled,
				"cancelled_by": cancelledBy,
			}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel unit")
			}
			history := models.UnitStatusEvent{
				UnitID:     unit.ID,
				FromStatus: unit.Status,
				ToStatus:   enums.UnitStatusCancelled,
				ActorType:  cancelledBy,
				ActorID:    input.ActorID,
			}
			if err := repo.CreateStatusEvents(ctx, []models.UnitStatusEvent{history}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append cancellation history")
			}
			unit.Status = enums.UnitStatusCancelled
			unit.CancelledBy = &cancelledBy
			unitIDs = append(unitIDs, unit.ID)
		}

		overall := orders.ResolveOverall(loaded.Units)
		applied, err := repo.UpdateOrderVersioned(ctx, loaded.ID, loaded.Version, map[string]any{
			"overall_status":     overall,
			"customer_cancelled": true,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist customer cancellation")
		}
		if !applied {
			return pkgerrors.New(pkgerrors.CodeConflict, "order was modified concurrently")
		}
		loaded.OverallStatus = overall
		loaded.CustomerCancelled = true
		loaded.Version++

		order = loaded
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCancelled,
			AggregateType: enums.AggregateOrder,
			AggregateID:   loaded.ID,
			Version:       1,
			Actor: &outbox.ActorRef{
				ActorID:   input.ActorID,
				ActorType: enums.ActorTypeCustomer,
			},
			Data: OrderCancelledEvent{
				OrderID:       loaded.ID,
				CancelledBy:   enums.ActorTypeCustomer,
				OverallStatus: overall,
				UnitIDs:       unitIDs,
			},
		})
	})
	if err != nil {
		s.countRejection(err)
		return nil, err
	}

	s.cache.InvalidateOrder(ctx, order)
	return order, nil
}

func (s *service) CancelOrder(ctx context.Context, input OrderCancelInput) (*models.Order, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.ActorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor identity missing")
	}
	if input.ActorType != enums.ActorTypeAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "whole-order cancellation restricted to admin")
	}

	var order *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.ordersRepo.WithTx(tx)
		loaded, err := s.loadOrder(ctx, repo, input.OrderID)
		if err != nil {
			return err
		}
		if loaded.CustomerCancelled {
			return pkgerrors.New(pkgerrors.CodeOrderLocked, "order locked by customer cancellation")
		}

		cancelledBy := enums.ActorTypeAdmin
		unitIDs := []uuid.UUID{}
		for i := range loaded.Units {
			unit := &loaded.Units[i]
			if !cancellable(unit.Status) {
				continue
			}
			if err := s.cancelUnitRow(ctx, repo, unit, cancelledBy, input.ActorID, input.Reason); err != nil {
				return err
			}
			unitIDs = append(unitIDs, unit.ID)
		}
		if len(unitIDs) == 0 {
			return pkgerrors.New(pkgerrors.CodeInvalidTransition, "no unit is eligible for cancellation")
		}

		overall := orders.ResolveOverall(loaded.Units)
		applied, err := repo.UpdateOrderVersioned(ctx, loaded.ID, loaded.Version, map[string]any{
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

		order = loaded
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCancelled,
			AggregateType: enums.AggregateOrder,
			AggregateID:   loaded.ID,
			Version:       1,
			Actor: &outbox.ActorRef{
				ActorID:   input.ActorID,
				ActorType: cancelledBy,
			},
			Data: OrderCancelledEvent{
				OrderID:       loaded.ID,
				CancelledBy:   cancelledBy,
				OverallStatus: overall,
				UnitIDs:       unitIDs,
			},
		})
	})
	if err != nil {
		s.countRejection(err)
		return nil, err
	}

	s.cache.InvalidateOrder(ctx, order)
	return order, nil
}

func (s *service) CancelUnit(ctx context.Context, input UnitCancelInput) (*models.Order, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.ActorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor identity missing")
	}
	if input.ActorType != enums.ActorTypeAdmin && input.ActorType != enums.ActorTypeVendor {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "unit cancellation restricted to admin and vendors")
	}

	var order *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.ordersRepo.WithTx(tx)
		loaded, err := s.loadOrder(ctx, repo, input.OrderID)
		if err != nil {
			return err
		}
		if loaded.CustomerCancelled {
			return pkgerrors.New(pkgerrors.CodeOrderLocked, "order locked by customer cancellation")
		}

		unit := input.Owner.FindUnit(loaded)
		if unit == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "fulfillment unit not found")
		}
		if input.ActorType == enums.ActorTypeVendor && !unit.OwnedBy(input.ActorID) {
			return pkgerrors.New(pkgerrors.CodeForbidden, "unit does not belong to vendor")
		}
		if !cancellable(unit.Status) {
			return pkgerrors.New(pkgerrors.CodeInvalidTransition, "unit is not cancellable").
				WithDetails(map[string]string{
					"from":  unit.Status.String(),
					"to":    enums.UnitStatusCancelled.String(),
					"owner": input.Owner.String(),
				})
		}

		if err := s.cancelUnitRow(ctx, repo, unit, input.ActorType, input.ActorID, input.Reason); err != nil {
			return err
		}

		overall := orders.ResolveOverall(loaded.Units)
		applied, err := repo.UpdateOrderVersioned(ctx, loaded.ID, loaded.Version, map[string]any{
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

		order = loaded
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventUnitCancelled,
			AggregateType: enums.AggregateOrder,
			AggregateID:   loaded.ID,
			Version:       1,
			Actor: &outbox.ActorRef{
				ActorID:   input.ActorID,
				ActorType: input.ActorType,
			},
			Data: UnitCancelledEvent{
				OrderID:       loaded.ID,
				UnitID:        unit.ID,
				Owner:         input.Owner.String(),
				CancelledBy:   input.ActorType,
				UnitCancelled: true,
				OverallStatus: overall,
			},
		})
	})
	if err != nil {
		s.countRejection(err)
		return nil, err
	}

	s.cache.InvalidateOrder(ctx, order)
	return order, nil
}

func (s *service) CancelLineItems(ctx context.Context, input LineItemCancelInput) (*models.Order, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if len(input.ItemIDs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item ids required")
	}
	if input.ActorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor identity missing")
	}
	if input.ActorType != enums.ActorTypeAdmin && input.ActorType != enums.ActorTypeVendor {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "item cancellation restricted to admin and vendors")
	}

	var order *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		ordersRepo := s.ordersRepo.WithTx(tx)
		loaded, err := s.loadOrder(ctx, ordersRepo, input.OrderID)
		if err != nil {
			return err
		}
		if loaded.CustomerCancelled {
			return pkgerrors.New(pkgerrors.CodeOrderLocked, "order locked by customer cancellation")
		}

		unit := input.Owner.FindUnit(loaded)
		if unit == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "fulfillment unit not found")
		}
		if input.ActorType == enums.ActorTypeVendor && !unit.OwnedBy(input.ActorID) {
			return pkgerrors.New(pkgerrors.CodeForbidden, "unit does not belong to vendor")
		}
		if !cancellable(unit.Status) {
			return pkgerrors.New(pkgerrors.CodeInvalidTransition, "unit is not open for item cancellation").
				WithDetails(map[string]string{
					"from":  unit.Status.String(),
					"to":    enums.UnitStatusCancelled.String(),
					"owner": input.Owner.String(),
				})
		}

		targets, removedCents, err := pickItems(unit, input.ItemIDs)
		if err != nil {
			return err
		}

		if err := ordersRepo.UpdateLineItems(ctx, input.ItemIDs, map[string]any{"cancelled": true}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel line items")
		}
		for _, item := range targets {
			item.Cancelled = true
		}

		newSubtotal := unit.SubtotalCents - removedCents
		unitFullyCancelled := newSubtotal == 0
		unitUpdates := map[string]any{"subtotal_cents": newSubtotal}
		if unitFullyCancelled {
			unitUpdates["status"] = enums.UnitStatusCancelled
			unitUpdates["cancelled_by"] = input.ActorType
		}
		if err := ordersRepo.UpdateUnit(ctx, unit.ID, unitUpdates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update unit subtotal")
		}
		if unitFullyCancelled {
			history := models.UnitStatusEvent{
				UnitID:     unit.ID,
				FromStatus: unit.Status,
				ToStatus:   enums.UnitStatusCancelled,
				ActorType:  input.ActorType,
				ActorID:    input.ActorID,
				Note:       input.Reason,
			}
			if err := ordersRepo.CreateStatusEvents(ctx, []models.UnitStatusEvent{history}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append cancellation history")
			}
			unit.Status = enums.UnitStatusCancelled
			cancelledBy := input.ActorType
			unit.CancelledBy = &cancelledBy
		}
		unit.SubtotalCents = newSubtotal

		if err := s.appendAdjustment(ctx, tx, loaded.ID, unit, removedCents); err != nil {
			return err
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

		itemIDs := make([]uuid.UUID, len(targets))
		for i, item := range targets {
			itemIDs[i] = item.ID
		}
		order = loaded
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventUnitCancelled,
			AggregateType: enums.AggregateOrder,
			AggregateID:   loaded.ID,
			Version:       1,
			Actor: &outbox.ActorRef{
				ActorID:   input.ActorID,
				ActorType: input.ActorType,
			},
			Data: UnitCancelledEvent{
				OrderID:          loaded.ID,
				UnitID:           unit.ID,
				Owner:            input.Owner.String(),
				CancelledBy:      input.ActorType,
				CancelledItemIDs: itemIDs,
				UnitCancelled:    unitFullyCancelled,
				OverallStatus:    overall,
			},
		})
	})
	if err != nil {
		s.countRejection(err)
		return nil, err
	}

	s.cache.InvalidateOrder(ctx, order)
	return order, nil
}

func (s *service) loadOrder(ctx context.Context, repo orders.Repository, orderID uuid.UUID) (*models.Order, error) {
	loaded, err := repo.FindOrderForUpdate(ctx, orderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return loaded, nil
}

func (s *service) cancelUnitRow(ctx context.Context, repo orders.Repository, unit *models.FulfillmentUnit, actorType enums.ActorType, actorID uuid.UUID, reason *string) error {
	if err := repo.UpdateUnit(ctx, unit.ID, map[string]any{
		"status":       enums.UnitStatusCancelled,
		"cancelled_by": actorType,
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel unit")
	}
	history := models.UnitStatusEvent{
		UnitID:     unit.ID,
		FromStatus: unit.Status,
		ToStatus:   enums.UnitStatusCancelled,
		ActorType:  actorType,
		ActorID:    actorID,
		Note:       reason,
	}
	if err := repo.CreateStatusEvents(ctx, []models.UnitStatusEvent{history}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append cancellation history")
	}
	unit.Status = enums.UnitStatusCancelled
	cancelledBy := actorType
	unit.CancelledBy = &cancelledBy
	return nil
}

// appendAdjustment writes a compensating commission record when the unit was
// already forwarded. The initial record stays untouched: reports reconstruct
// the current liability by summing initial plus adjustments.
func (s *service) appendAdjustment(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, unit *models.FulfillmentUnit, removedCents int) error {
	if unit.OwnerType != enums.OwnerTypeVendor || removedCents == 0 {
		return nil
	}
	repo := s.commissionRepo.WithTx(tx)
	initial, err := repo.FindInitialByUnit(ctx, unit.ID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load initial commission record")
	}

	amounts := commission.Compute(removedCents, initial.Rate)
	adjustment := &models.CommissionRecord{
		OrderID:          orderID,
		UnitID:           unit.ID,
		VendorID:         initial.VendorID,
		SubtotalCents:    -removedCents,
		Rate:             initial.Rate,
		CommissionCents:  -amounts.CommissionCents,
		PayableCents:     -amounts.PayableCents,
		Kind:             enums.CommissionRecordKindAdjustment,
		SettlementStatus: enums.SettlementStatusUnpaid,
	}
	if _, err := repo.Insert(ctx, adjustment); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append commission adjustment")
	}
	return nil
}

func (s *service) countRejection(err error) {
	if typed := pkgerrors.As(err); typed != nil {
		s.metrics.IncRejection(string(typed.Code()))
	}
}

func cancellable(status enums.UnitStatus) bool {
	return status == enums.UnitStatusPlaced || status == enums.UnitStatusProcessing
}

func pickItems(unit *models.FulfillmentUnit, itemIDs []uuid.UUID) ([]*models.OrderLineItem, int, error) {
	byID := make(map[uuid.UUID]*models.OrderLineItem, len(unit.Items))
	for i := range unit.Items {
		byID[unit.Items[i].ID] = &unit.Items[i]
	}

	targets := make([]*models.OrderLineItem, 0, len(itemIDs))
	removed := 0
	for _, id := range itemIDs {
		item, ok := byID[id]
		if !ok {
			return nil, 0, pkgerrors.New(pkgerrors.CodeNotFound, "line item not found in unit").
				WithDetails(map[string]string{"item_id": id.String()})
		}
		if item.Cancelled {
			return nil, 0, pkgerrors.New(pkgerrors.CodeConflict, "line item already cancelled").
				WithDetails(map[string]string{"item_id": id.String()})
		}
		targets = append(targets, item)
		removed += item.TotalCents
	}
	return targets, removed, nil
}

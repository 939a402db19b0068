package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vendora-hq/fulfillment-backend/pkg/db/models"
	"github.com/vendora-hq/fulfillment-backend/pkg/enums"
	pkgerrors "github.com/vendora-hq/fulfillment-backend/pkg/errors"
	"github.com/vendora-hq/fulfillment-backend/pkg/metrics"
	"github.com/vendora-hq/fulfillment-backend/pkg/outbox"
	"github.com/vendora-hq/fulfillment-backend/pkg/pagination"
)

const readRetryBackoff = 100 * time.Millisecond

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// OrderCache is the read-cache collaborator. Implementations must swallow
// their own failures: a cache outage never fails an order operation.
type OrderCache interface {
	GetOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, bool)
	SetOrder(ctx context.Context, order *models.Order)
	InvalidateOrder(ctx context.Context, order *models.Order)
}

// Service defines unit transition and order read operations.
type Service interface {
	TransitionUnit(ctx context.Context, input TransitionInput) (*models.Order, error)
	GetOrder(ctx context.Context, input GetOrderInput) (*models.Order, error)
	ListOrders(ctx context.Context, input ListInput) (*OrderList, error)
}

type service struct {
	repo    Repository
	tx      txRunner
	outbox  outboxPublisher
	cache   OrderCache
	metrics *metrics.OrderMetrics
}

// TransitionInput carries one unit status transition request.
type TransitionInput struct {
	OrderID   uuid.UUID
	Owner     OwnerRef
	To        enums.UnitStatus
	ActorType enums.ActorType
	ActorID   uuid.UUID
	Note      *string
}

// GetOrderInput scopes a single-order read to the requesting actor.
type GetOrderInput struct {
	OrderID   uuid.UUID
	ActorType enums.ActorType
	ActorID   uuid.UUID
}

// ListInput scopes an order listing to the requesting actor.
type ListInput struct {
	ActorType     enums.ActorType
	ActorID       uuid.UUID
	CustomerID    *uuid.UUID
	VendorID      *uuid.UUID
	OverallStatus *enums.OverallStatus
	Kind          *enums.OrderKind
	Limit         int
	Cursor        string
}

// UnitTransitionedEvent is emitted after a unit status change commits.
type UnitTransitionedEvent struct {
	OrderID       uuid.UUID           `json:"order_id"`
	UnitID        uuid.UUID           `json:"unit_id"`
	Owner         string              `json:"owner"`
	FromStatus    enums.UnitStatus    `json:"from_status"`
	ToStatus      enums.UnitStatus    `json:"to_status"`
	OverallStatus enums.OverallStatus `json:"overall_status"`
}

// NewService builds an orders service with the required dependencies.
func NewService(repo Repository, tx txRunner, outboxSvc outboxPublisher, cache OrderCache, orderMetrics *metrics.OrderMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
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
		repo:    repo,
		tx:      tx,
		outbox:  outboxSvc,
		cache:   cache,
		metrics: orderMetrics,
	}, nil
}

func (s *service) TransitionUnit(ctx context.Context, input TransitionInput) (*models.Order, error) {
	order, err := s.transitionUnit(ctx, input)
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			s.metrics.IncRejection(string(typed.Code()))
		}
		return nil, err
	}
	s.metrics.IncTransition(input.To.String())
	s.cache.InvalidateOrder(ctx, order)
	return order, nil
}

func (s *service) transitionUnit(ctx context.Context, input TransitionInput) (*models.Order, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.ActorID == uuid.Nil && input.ActorType != enums.ActorTypeSystem {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor identity missing")
	}
	if !input.To.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown target status")
	}
	if input.ActorType == enums.ActorTypeCustomer {
		// Customers drive cancellation through the whole-order veto path only.
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "customers cannot transition fulfillment units")
	}

	var order *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		loaded, err := repo.FindOrderForUpdate(ctx, input.OrderID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if loaded.CustomerCancelled {
			return lockedError(input.Owner)
		}

		unit := input.Owner.FindUnit(loaded)
		if unit == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "fulfillment unit not found")
		}
		if input.ActorType == enums.ActorTypeVendor && !unit.OwnedBy(input.ActorID) {
			return pkgerrors.New(pkgerrors.CodeForbidden, "unit does not belong to vendor")
		}

		from := unit.Status
		if !EdgeAllowed(from, input.To) {
			return transitionError(from, input.To, input.Owner)
		}
		if !ActorAllowed(from, input.To, input.ActorType) {
			return pkgerrors.New(pkgerrors.CodeForbidden, "actor not permitted for this transition")
		}

		updates := map[string]any{"status": input.To}
		if input.To == enums.UnitStatusCancelled {
			updates["cancelled_by"] = input.ActorType
			cancelledBy := input.ActorType
			unit.CancelledBy = &cancelledBy
		}
		if err := repo.UpdateUnit(ctx, unit.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update unit status")
		}
		unit.Status = input.To

		event := models.UnitStatusEvent{
			UnitID:     unit.ID,
			FromStatus: from,
			ToStatus:   input.To,
			ActorType:  input.ActorType,
			ActorID:    input.ActorID,
			Note:       input.Note,
		}
		if err := repo.CreateStatusEvents(ctx, []models.UnitStatusEvent{event}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append status history")
		}

		overall := ResolveOverall(loaded.Units)
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
			EventType:     enums.EventUnitTransitioned,
			AggregateType: enums.AggregateOrder,
			AggregateID:   loaded.ID,
			Version:       1,
			Actor: &outbox.ActorRef{
				ActorID:   input.ActorID,
				ActorType: input.ActorType,
			},
			Data: UnitTransitionedEvent{
				OrderID:       loaded.ID,
				UnitID:        unit.ID,
				Owner:         input.Owner.String(),
				FromStatus:    from,
				ToStatus:      input.To,
				OverallStatus: overall,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *service) GetOrder(ctx context.Context, input GetOrderInput) (*models.Order, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.ActorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor identity missing")
	}

	if cached, ok := s.cache.GetOrder(ctx, input.OrderID); ok {
		if err := scopeOrderRead(cached, input.ActorType, input.ActorID); err != nil {
			return nil, err
		}
		return cached, nil
	}

	order, err := s.repo.FindOrder(ctx, input.OrderID)
	if err != nil && err != gorm.ErrRecordNotFound {
		time.Sleep(readRetryBackoff)
		order, err = s.repo.FindOrder(ctx, input.OrderID)
	}
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if err := scopeOrderRead(order, input.ActorType, input.ActorID); err != nil {
		return nil, err
	}

	s.cache.SetOrder(ctx, order)
	return order, nil
}

func (s *service) ListOrders(ctx context.Context, input ListInput) (*OrderList, error) {
	if input.ActorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor identity missing")
	}

	filter := ListFilter{OverallStatus: input.OverallStatus, Kind: input.Kind}
	switch input.ActorType {
	case enums.ActorTypeAdmin:
		filter.CustomerID = input.CustomerID
		filter.VendorID = input.VendorID
	case enums.ActorTypeCustomer:
		customerID := input.ActorID
		filter.CustomerID = &customerID
	case enums.ActorTypeVendor:
		vendorID := input.ActorID
		filter.VendorID = &vendorID
	default:
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "actor cannot list orders")
	}

	params := pagination.Params{Limit: input.Limit, Cursor: input.Cursor}
	list, err := s.repo.List(ctx, filter, params)
	if err != nil {
		time.Sleep(readRetryBackoff)
		list, err = s.repo.List(ctx, filter, params)
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return list, nil
}

func scopeOrderRead(order *models.Order, actorType enums.ActorType, actorID uuid.UUID) error {
	switch actorType {
	case enums.ActorTypeAdmin, enums.ActorTypeSystem:
		return nil
	case enums.ActorTypeCustomer:
		if order.CustomerID == actorID {
			return nil
		}
	case enums.ActorTypeVendor:
		for _, unit := range order.Units {
			if unit.OwnedBy(actorID) {
				return nil
			}
		}
	}
	return pkgerrors.New(pkgerrors.CodeForbidden, "order not visible to actor")
}

func transitionError(from, to enums.UnitStatus, owner OwnerRef) error {
	return pkgerrors.New(pkgerrors.CodeInvalidTransition, "status transition disallowed").
		WithDetails(map[string]string{
			"from":  from.String(),
			"to":    to.String(),
			"owner": owner.String(),
		})
}

func lockedError(owner OwnerRef) error {
	return pkgerrors.New(pkgerrors.CodeOrderLocked, "order locked by customer cancellation").
		WithDetails(map[string]string{"owner": owner.String()})
}

package checkout

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vendora-hq/fulfillment-backend/internal/orders"
	"github.com/vendora-hq/fulfillment-backend/pkg/db/models"
	"github.com/vendora-hq/fulfillment-backend/pkg/enums"
	pkgerrors "github.com/vendora-hq/fulfillment-backend/pkg/errors"
	"github.com/vendora-hq/fulfillment-backend/pkg/outbox"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service creates orders from validated carts.
type Service interface {
	CreateOrder(ctx context.Context, input CreateOrderInput) (*models.Order, error)
}

type service struct {
	repo   orders.Repository
	tx     txRunner
	outbox outboxPublisher
	cache  orders.OrderCache
}

// CreateOrderInput is the checkout payload after auth and upload middleware
// ran: customer identity is asserted, payment proof is an opaque reference.
type CreateOrderInput struct {
	CustomerID      uuid.UUID
	CustomerName    string
	CustomerEmail   string
	CustomerPhone   string
	CustomerAddress string
	ShippingCents   int
	PaymentProofRef string
	Items           []CartItem
}

// OrderCreatedEvent is emitted when checkout persists a new order.
type OrderCreatedEvent struct {
	OrderID     uuid.UUID       `json:"order_id"`
	OrderNumber int64           `json:"order_number"`
	CustomerID  uuid.UUID       `json:"customer_id"`
	Kind        enums.OrderKind `json:"kind"`
	UnitCount   int             `json:"unit_count"`
	TotalCents  int             `json:"total_cents"`
}

// NewService builds a checkout service with the required dependencies.
func NewService(repo orders.Repository, tx txRunner, outboxSvc outboxPublisher, cache orders.OrderCache) (Service, error) {
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
	return &service{repo: repo, tx: tx, outbox: outboxSvc, cache: cache}, nil
}

func (s *service) CreateOrder(ctx context.Context, input CreateOrderInput) (*models.Order, error) {
	if input.CustomerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "customer identity missing")
	}
	if strings.TrimSpace(input.CustomerName) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer name required")
	}
	if strings.TrimSpace(input.CustomerEmail) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer email required")
	}
	if strings.TrimSpace(input.CustomerAddress) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer address required")
	}
	if input.ShippingCents < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipping cost cannot be negative")
	}

	split, err := SplitCart(input.Items)
	if err != nil {
		return nil, err
	}

	var order *models.Order
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		orderNumber, err := repo.NextOrderNumber(ctx)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "allocate order number")
		}

		built := buildOrder(orderNumber, input, split)
		created, err := repo.CreateOrder(ctx, built)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist order")
		}

		events := make([]models.UnitStatusEvent, len(created.Units))
		for i, unit := range created.Units {
			events[i] = models.UnitStatusEvent{
				UnitID:     unit.ID,
				FromStatus: enums.UnitStatusPlaced,
				ToStatus:   enums.UnitStatusPlaced,
				ActorType:  enums.ActorTypeCustomer,
				ActorID:    input.CustomerID,
			}
		}
		if err := repo.CreateStatusEvents(ctx, events); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record initial unit history")
		}

		order = created
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   created.ID,
			Version:       1,
			Actor: &outbox.ActorRef{
				ActorID:   input.CustomerID,
				ActorType: enums.ActorTypeCustomer,
			},
			Data: OrderCreatedEvent{
				OrderID:     created.ID,
				OrderNumber: created.OrderNumber,
				CustomerID:  created.CustomerID,
				Kind:        created.Kind,
				UnitCount:   len(created.Units),
				TotalCents:  created.TotalCents(),
			},
		})
	})
	if err != nil {
		return nil, err
	}

	s.cache.InvalidateOrder(ctx, order)
	return order, nil
}

// buildOrder materializes the split into the persisted aggregate. IDs are
// assigned up front so unit and line-item foreign keys are wired before the
// single cascading insert.
func buildOrder(orderNumber int64, input CreateOrderInput, split *Split) *models.Order {
	order := &models.Order{
		ID:              uuid.New(),
		OrderNumber:     orderNumber,
		CustomerID:      input.CustomerID,
		CustomerName:    strings.TrimSpace(input.CustomerName),
		CustomerEmail:   strings.TrimSpace(input.CustomerEmail),
		CustomerPhone:   strings.TrimSpace(input.CustomerPhone),
		CustomerAddress: strings.TrimSpace(input.CustomerAddress),
		ShippingCents:   input.ShippingCents,
		PaymentProofRef: strings.TrimSpace(input.PaymentProofRef),
		Kind:            split.Kind,
		OverallStatus:   enums.OverallStatusPlaced,
		Version:         1,
	}

	for _, bucket := range split.Buckets() {
		unit := models.FulfillmentUnit{
			ID:            uuid.New(),
			OrderID:       order.ID,
			OwnerType:     bucket.Owner.Type,
			SubtotalCents: bucket.SubtotalCents,
			Status:        enums.UnitStatusPlaced,
		}
		if bucket.Owner.Type == enums.OwnerTypeVendor {
			vendorID := bucket.Owner.VendorID
			unit.VendorID = &vendorID
		}
		// Line items hang off the unit association only; attaching them to
		// the order association as well would double-insert on the cascade.
		for _, item := range bucket.Items {
			unit.Items = append(unit.Items, models.OrderLineItem{
				ID:             uuid.New(),
				OrderID:        order.ID,
				UnitID:         unit.ID,
				ProductRef:     item.ProductRef,
				VendorID:       unit.VendorID,
				Qty:            item.Qty,
				UnitPriceCents: item.UnitPriceCents,
				TotalCents:     item.TotalCents(),
			})
		}
		order.Units = append(order.Units, unit)
	}
	return order
}

package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/vendora-hq/fulfillment-backend/pkg/db/models"
	"github.com/vendora-hq/fulfillment-backend/pkg/enums"
	"github.com/vendora-hq/fulfillment-backend/pkg/pagination"
)

// ListFilter narrows an order listing. Actor scoping is applied by the
// service; CustomerID/VendorID here are the resolved scope, not raw input.
type ListFilter struct {
	CustomerID    *uuid.UUID
	VendorID      *uuid.UUID
	OverallStatus *enums.OverallStatus
	Kind          *enums.OrderKind
}

// OrderList is one page of orders plus the cursor for the next.
type OrderList struct {
	Orders     []models.Order
	NextCursor *string
}

// Repository defines persistence operations for orders and their units.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error)
	CreateStatusEvents(ctx context.Context, events []models.UnitStatusEvent) error
	NextOrderNumber(ctx context.Context) (int64, error)
	FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	FindOrderForUpdate(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	UpdateUnit(ctx context.Context, unitID uuid.UUID, updates map[string]any) error
	UpdateLineItems(ctx context.Context, itemIDs []uuid.UUID, updates map[string]any) error
	UpdateOrderVersioned(ctx context.Context, orderID uuid.UUID, version int64, updates map[string]any) (bool, error)
	List(ctx context.Context, filter ListFilter, params pagination.Params) (*OrderList, error)
}

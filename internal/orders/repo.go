package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vendora-hq/fulfillment-backend/pkg/db/models"
	"github.com/vendora-hq/fulfillment-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func (r *repository) CreateStatusEvents(ctx context.Context, events []models.UnitStatusEvent) error {
	if len(events) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&events).Error
}

func (r *repository) NextOrderNumber(ctx context.Context) (int64, error) {
	var number int64
	err := r.db.WithContext(ctx).
		Raw("SELECT nextval('order_number_seq')").
		Scan(&number).Error
	return number, err
}

func (r *repository) FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	return r.findOrder(ctx, r.db.WithContext(ctx), orderID)
}

func (r *repository) FindOrderForUpdate(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	query := r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"})
	return r.findOrder(ctx, query, orderID)
}

func (r *repository) findOrder(ctx context.Context, query *gorm.DB, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := query.
		Preload("Units", func(db *gorm.DB) *gorm.DB {
			return db.Order("fulfillment_units.created_at ASC")
		}).
		Preload("Units.Items").
		Preload("Units.History", func(db *gorm.DB) *gorm.DB {
			return db.Order("unit_status_events.created_at ASC")
		}).
		Preload("Items").
		Where("id = ?", orderID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	normalizeOrder(&order)
	return &order, nil
}

func (r *repository) UpdateUnit(ctx context.Context, unitID uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).Model(&models.FulfillmentUnit{}).
		Where("id = ?", unitID).
		Updates(updates).Error
}

func (r *repository) UpdateLineItems(ctx context.Context, itemIDs []uuid.UUID, updates map[string]any) error {
	if len(itemIDs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&models.OrderLineItem{}).
		Where("id IN ?", itemIDs).
		Updates(updates).Error
}

// UpdateOrderVersioned applies updates only when the caller's version is still
// current, bumping the version in the same statement. Returns false when the
// row was modified concurrently.
func (r *repository) UpdateOrderVersioned(ctx context.Context, orderID uuid.UUID, version int64, updates map[string]any) (bool, error) {
	merged := map[string]any{"version": gorm.Expr("version + 1")}
	for k, v := range updates {
		merged[k] = v
	}
	result := r.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND version = ?", orderID, version).
		Updates(merged)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter, params pagination.Params) (*OrderList, error) {
	limit := pagination.NormalizeLimit(params.Limit)
	query := r.db.WithContext(ctx).Model(&models.Order{})
	if filter.CustomerID != nil {
		query = query.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.VendorID != nil {
		query = query.Where(
			"id IN (?)",
			r.db.Model(&models.FulfillmentUnit{}).
				Select("order_id").
				Where("vendor_id = ?", *filter.VendorID),
		)
	}
	if filter.OverallStatus != nil {
		query = query.Where("overall_status = ?", *filter.OverallStatus)
	}
	if filter.Kind != nil {
		query = query.Where("kind = ?", *filter.Kind)
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Order
	err = query.
		Preload("Units").
		Order("created_at DESC").
		Order("id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	list := &OrderList{Orders: rows}
	if len(rows) > limit {
		next := pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: rows[limit].CreatedAt,
			ID:        rows[limit].ID,
		})
		list.Orders = rows[:limit]
		list.NextCursor = &next
	}
	for i := range list.Orders {
		normalizeOrder(&list.Orders[i])
	}
	return list, nil
}

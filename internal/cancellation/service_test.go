package cancellation

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/vendora-hq/fulfillment-backend/internal/commission"
	"github.com/vendora-hq/fulfillment-backend/internal/orders"
	"github.com/vendora-hq/fulfillment-backend/pkg/db/models"
	"github.com/vendora-hq/fulfillment-backend/pkg/enums"
	pkgerrors "github.com/vendora-hq/fulfillment-backend/pkg/errors"
	"github.com/vendora-hq/fulfillment-backend/pkg/outbox"
	"github.com/vendora-hq/fulfillment-backend/pkg/pagination"
)

type stubOrdersRepo struct {
	order  *models.Order
	events []models.UnitStatusEvent
}

func (s *stubOrdersRepo) WithTx(tx *gorm.DB) orders.Repository { return s }

func (s *stubOrdersRepo) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	panic("not implemented")
}

func (s *stubOrdersRepo) CreateStatusEvents(ctx context.Context, events []models.UnitStatusEvent) error {
	s.events = append(s.events, events...)
	return nil
}

func (s *stubOrdersRepo) NextOrderNumber(ctx context.Context) (int64, error) {
	panic("not implemented")
}

func (s *stubOrdersRepo) FindOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	return s.FindOrderForUpdate(ctx, orderID)
}

func (s *stubOrdersRepo) FindOrderForUpdate(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	if s.order == nil || s.order.ID != orderID {
		return nil, gorm.ErrRecordNotFound
	}
	return s.order, nil
}

func (s *stubOrdersRepo) UpdateUnit(ctx context.Context, unitID uuid.UUID, updates map[string]any) error {
	return nil
}

func (s *stubOrdersRepo) UpdateLineItems(ctx context.Context, itemIDs []uuid.UUID, updates map[string]any) error {
	return nil
}

func (s *stubOrdersRepo) UpdateOrderVersioned(ctx context.Context, orderID uuid.UUID, version int64, updates map[string]any) (bool, error) {
	return true, nil
}

func (s *stubOrdersRepo) List(ctx context.Context, filter orders.ListFilter, params pagination.Params) (*orders.OrderList, error) {
	panic("not implemented")
}

type stubCommissionRepo struct {
	records []*models.CommissionRecord
}

func (s *stubCommissionRepo) WithTx(tx *gorm.DB) commission.Repository { return s }

func (s *stubCommissionRepo) Insert(ctx context.Context, record *models.CommissionRecord) (*models.CommissionRecord, error) {
	record.ID = uuid.New()
	s.records = append(s.records, record)
	return record, nil
}

func (s *stubCommissionRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.CommissionRecord, error) {
	panic("not implemented")
}

func (s *stubCommissionRepo) FindInitialByUnit(ctx context.Context, unitID uuid.UUID) (*models.CommissionRecord, error) {
	for _, record := range s.records {
		if record.UnitID == unitID && record.Kind == enums.CommissionRecordKindInitial {
			return record, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubCommissionRepo) List(ctx context.Context, filter commission.ReportFilter, params pagination.Params) (*commission.RecordList, error) {
	panic("not implemented")
}

func (s *stubCommissionRepo) UpdateSettlement(ctx context.Context, id uuid.UUID, status string) error {
	panic("not implemented")
}

func (s *stubCommissionRepo) FindVendor(ctx context.Context, vendorID uuid.UUID) (*models.Vendor, error) {
	panic("not implemented")
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(&gorm.DB{})
}

type stubOutbox struct {
	events []outbox.DomainEvent
}

func (s *stubOutbox) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	s.events = append(s.events, event)
	return nil
}

type stubCache struct{}

func (stubCache) GetOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, bool) {
	return nil, false
}
func (stubCache) SetOrder(ctx context.Context, order *models.Order)        {}
func (stubCache) InvalidateOrder(ctx context.Context, order *models.Order) {}

func mixedOrder(vendorID uuid.UUID) *models.Order {
	orderID := uuid.New()
	adminUnit := models.FulfillmentUnit{
		ID:            uuid.New(),
		OrderID:       orderID,
		OwnerType:     enums.OwnerTypeAdmin,
		SubtotalCents: 5000,
		Status:        enums.UnitStatusPlaced,
	}
	vendorUnit := models.FulfillmentUnit{
		ID:            uuid.New(),
		OrderID:       orderID,
		OwnerType:     enums.OwnerTypeVendor,
		VendorID:      &vendorID,
		SubtotalCents: 6000,
		Status:        enums.UnitStatusPlaced,
	}
	vendorUnit.Items = []models.OrderLineItem{
		{ID: uuid.New(), OrderID: orderID, UnitID: vendorUnit.ID, ProductRef: "sku-a", VendorID: &vendorID, Qty: 1, UnitPriceCents: 2000, TotalCents: 2000},
		{ID: uuid.New(), OrderID: orderID, UnitID: vendorUnit.ID, ProductRef: "sku-b", VendorID: &vendorID, Qty: 2, UnitPriceCents: 2000, TotalCents: 4000},
	}
	return &models.Order{
		ID:            orderID,
		CustomerID:    uuid.New(),
		Kind:          enums.OrderKindMixed,
		OverallStatus: enums.OverallStatusPlaced,
		Version:       1,
		Units:         []models.FulfillmentUnit{adminUnit, vendorUnit},
	}
}

func newCancellationService(t *testing.T, ordersRepo orders.Repository, commissionRepo commission.Repository, sink *stubOutbox) Service {
	t.Helper()
	svc, err := NewService(ordersRepo, commissionRepo, stubTxRunner{}, sink, stubCache{}, nil)
	require.NoError(t, err)
	return svc
}

func TestCancelByCustomerSetsVeto(t *testing.T) {
	vendorID := uuid.New()
	order := mixedOrder(vendorID)
	repo := &stubOrdersRepo{order: order}
	sink := &stubOutbox{}
	svc := newCancellationService(t, repo, &stubCommissionRepo{}, sink)

	updated, err := svc.CancelByCustomer(context.Background(), CustomerCancelInput{
		OrderID: order.ID,
		ActorID: order.CustomerID,
	})
	require.NoError(t, err)

	assert.True(t, updated.CustomerCancelled)
	assert.Equal(t, enums.OverallStatusCancelledByCustomer, updated.OverallStatus)
	for _, unit := range updated.Units {
		assert.Equal(t, enums.UnitStatusCancelled, unit.Status)
		require.NotNil(t, unit.CancelledBy)
		assert.Equal(t, enums.ActorTypeCustomer, *unit.CancelledBy)
	}
	assert.Len(t, repo.events, 2)
	require.Len(t, sink.events, 1)
	assert.Equal(t, enums.EventOrderCancelled, sink.events[0].EventType)
}

func TestCancelByCustomerWindowClosesOnProcessing(t *testing.T) {
	vendorID := uuid.New()
	order := mixedOrder(vendorID)
	order.Units[1].Status = enums.UnitStatusProcessing
	svc := newCancellationService(t, &stubOrdersRepo{order: order}, &stubCommissionRepo{}, &stubOutbox{})

	_, err := svc.CancelByCustomer(context.Background(), CustomerCancelInput{
		OrderID: order.ID,
		ActorID: order.CustomerID,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.As(err).Code())
	assert.False(t, order.CustomerCancelled)
}

func TestCancelByCustomerForeignOrderForbidden(t *testing.T) {
	vendorID := uuid.New()
	order := mixedOrder(vendorID)
	svc := newCancellationService(t, &stubOrdersRepo{order: order}, &stubCommissionRepo{}, &stubOutbox{})

	_, err := svc.CancelByCustomer(context.Background(), CustomerCancelInput{
		OrderID: order.ID,
		ActorID: uuid.New(),
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.As(err).Code())
}

func TestCancelByCustomerIdempotent(t *testing.T) {
	vendorID := uuid.New()
	order := mixedOrder(vendorID)
	sink := &stubOutbox{}
	svc := newCancellationService(t, &stubOrdersRepo{order: order}, &stubCommissionRepo{}, sink)

	_, err := svc.CancelByCustomer(context.Background(), CustomerCancelInput{OrderID: order.ID, ActorID: order.CustomerID})
	require.NoError(t, err)
	_, err = svc.CancelByCustomer(context.Background(), CustomerCancelInput{OrderID: order.ID, ActorID: order.CustomerID})
	require.NoError(t, err)
	assert.Len(t, sink.events, 1)
}

// Once the veto is set, no admin or vendor mutation gets through.
func TestVetoLocksAllSubsequentCancellations(t *testing.T) {
	vendorID := uuid.New()
	order := mixedOrder(vendorID)
	order.CustomerCancelled = true
	order.OverallStatus = enums.OverallStatusCancelledByCustomer
	svc := newCancellationService(t, &stubOrdersRepo{order: order}, &stubCommissionRepo{}, &stubOutbox{})

	_, err := svc.CancelUnit(context.Background(), UnitCancelInput{
		OrderID:   order.ID,
		Owner:     orders.AdminOwner(),
		ActorType: enums.ActorTypeAdmin,
		ActorID:   uuid.New(),
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeOrderLocked, pkgerrors.As(err).Code())

	_, err = svc.CancelOrder(context.Background(), OrderCancelInput{
		OrderID:   order.ID,
		ActorType: enums.ActorTypeAdmin,
		ActorID:   uuid.New(),
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeOrderLocked, pkgerrors.As(err).Code())

	_, err = svc.CancelLineItems(context.Background(), LineItemCancelInput{
		OrderID:   order.ID,
		Owner:     orders.VendorOwner(vendorID),
		ItemIDs:   []uuid.UUID{uuid.New()},
		ActorType: enums.ActorTypeVendor,
		ActorID:   vendorID,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeOrderLocked, pkgerrors.As(err).Code())
	assert.Equal(t, enums.OverallStatusCancelledByCustomer, order.OverallStatus)
}

func TestCancelUnitVendorOwnUnit(t *testing.T) {
	vendorID := uuid.New()
	order := mixedOrder(vendorID)
	order.Units[1].Status = enums.UnitStatusProcessing
	svc := newCancellationService(t, &stubOrdersRepo{order: order}, &stubCommissionRepo{}, &stubOutbox{})

	updated, err := svc.CancelUnit(context.Background(), UnitCancelInput{
		OrderID:   order.ID,
		Owner:     orders.VendorOwner(vendorID),
		ActorType: enums.ActorTypeVendor,
		ActorID:   vendorID,
	})
	require.NoError(t, err)
	assert.Equal(t, enums.UnitStatusCancelled, updated.Units[1].Status)
	require.NotNil(t, updated.Units[1].CancelledBy)
	assert.Equal(t, enums.ActorTypeVendor, *updated.Units[1].CancelledBy)
}

func TestCancelUnitCrossVendorForbidden(t *testing.T) {
	vendorID := uuid.New()
	order := mixedOrder(vendorID)
	svc := newCancellationService(t, &stubOrdersRepo{order: order}, &stubCommissionRepo{}, &stubOutbox{})

	_, err := svc.CancelUnit(context.Background(), UnitCancelInput{
		OrderID:   order.ID,
		Owner:     orders.VendorOwner(vendorID),
		ActorType: enums.ActorTypeVendor,
		ActorID:   uuid.New(),
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.As(err).Code())
}

func TestCancelUnitShippedIsInvalidTransition(t *testing.T) {
	vendorID := uuid.New()
	order := mixedOrder(vendorID)
	order.Units[1].Status = enums.UnitStatusShipped
	svc := newCancellationService(t, &stubOrdersRepo{order: order}, &stubCommissionRepo{}, &stubOutbox{})

	_, err := svc.CancelUnit(context.Background(), UnitCancelInput{
		OrderID:   order.ID,
		Owner:     orders.VendorOwner(vendorID),
		ActorType: enums.ActorTypeAdmin,
		ActorID:   uuid.New(),
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	assert.Equal(t, pkgerrors.CodeInvalidTransition, typed.Code())
	details, ok := typed.Details().(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "shipped", details["from"])
}

func TestCancelOrderSkipsShippedUnits(t *testing.T) {
	vendorID := uuid.New()
	order := mixedOrder(vendorID)
	order.Units[1].Status = enums.UnitStatusShipped
	svc := newCancellationService(t, &stubOrdersRepo{order: order}, &stubCommissionRepo{}, &stubOutbox{})

	updated, err := svc.CancelOrder(context.Background(), OrderCancelInput{
		OrderID:   order.ID,
		ActorType: enums.ActorTypeAdmin,
		ActorID:   uuid.New(),
	})
	require.NoError(t, err)
	assert.Equal(t, enums.UnitStatusCancelled, updated.Units[0].Status)
	assert.Equal(t, enums.UnitStatusShipped, updated.Units[1].Status)
}

func TestCancelOrderNoEligibleUnits(t *testing.T) {
	vendorID := uuid.New()
	order := mixedOrder(vendorID)
	order.Units[0].Status = enums.UnitStatusDelivered
	order.Units[1].Status = enums.UnitStatusShipped
	svc := newCancellationService(t, &stubOrdersRepo{order: order}, &stubCommissionRepo{}, &stubOutbox{})

	_, err := svc.CancelOrder(context.Background(), OrderCancelInput{
		OrderID:   order.ID,
		ActorType: enums.ActorTypeAdmin,
		ActorID:   uuid.New(),
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeInvalidTransition, pkgerrors.As(err).Code())
}

func TestCancelLineItemsAppendsAdjustment(t *testing.T) {
	vendorID := uuid.New()
	order := mixedOrder(vendorID)
	unit := &order.Units[1]
	unit.Status = enums.UnitStatusProcessing

	rate := decimal.RequireFromString("0.20")
	amounts := commission.Compute(unit.SubtotalCents, rate)
	commissionRepo := &stubCommissionRepo{
		records: []*models.CommissionRecord{{
			ID:              uuid.New(),
			OrderID:         order.ID,
			UnitID:          unit.ID,
			VendorID:        vendorID,
			SubtotalCents:   unit.SubtotalCents,
			Rate:            rate,
			CommissionCents: amounts.CommissionCents,
			PayableCents:    amounts.PayableCents,
			Kind:            enums.CommissionRecordKindInitial,
		}},
	}
	svc := newCancellationService(t, &stubOrdersRepo{order: order}, commissionRepo, &stubOutbox{})

	// Cancel the $20.00 item; the $40.00 item survives.
	updated, err := svc.CancelLineItems(context.Background(), LineItemCancelInput{
		OrderID:   order.ID,
		Owner:     orders.VendorOwner(vendorID),
		ItemIDs:   []uuid.UUID{unit.Items[0].ID},
		ActorType: enums.ActorTypeVendor,
		ActorID:   vendorID,
	})
	require.NoError(t, err)

	assert.Equal(t, 4000, updated.Units[1].SubtotalCents)
	assert.Equal(t, enums.UnitStatusProcessing, updated.Units[1].Status)
	assert.True(t, updated.Units[1].Items[0].Cancelled)

	// The initial record stays untouched; a negative adjustment lands next to it.
	require.Len(t, commissionRepo.records, 2)
	initial := commissionRepo.records[0]
	assert.Equal(t, enums.CommissionRecordKindInitial, initial.Kind)
	assert.Equal(t, 1200, initial.CommissionCents)
	adjustment := commissionRepo.records[1]
	assert.Equal(t, enums.CommissionRecordKindAdjustment, adjustment.Kind)
	assert.Equal(t, -2000, adjustment.SubtotalCents)
	assert.Equal(t, -400, adjustment.CommissionCents)
	assert.Equal(t, -1600, adjustment.PayableCents)
	assert.True(t, adjustment.Rate.Equal(rate))
}

func TestCancelLineItemsWithoutCommissionRecord(t *testing.T) {
	vendorID := uuid.New()
	order := mixedOrder(vendorID)
	unit := &order.Units[1]
	commissionRepo := &stubCommissionRepo{}
	svc := newCancellationService(t, &stubOrdersRepo{order: order}, commissionRepo, &stubOutbox{})

	_, err := svc.CancelLineItems(context.Background(), LineItemCancelInput{
		OrderID:   order.ID,
		Owner:     orders.VendorOwner(vendorID),
		ItemIDs:   []uuid.UUID{unit.Items[0].ID},
		ActorType: enums.ActorTypeAdmin,
		ActorID:   uuid.New(),
	})
	require.NoError(t, err)
	assert.Empty(t, commissionRepo.records)
}

func TestCancelLineItemsAllItemsCancelsUnit(t *testing.T) {
	vendorID := uuid.New()
	order := mixedOrder(vendorID)
	unit := &order.Units[1]
	svc := newCancellationService(t, &stubOrdersRepo{order: order}, &stubCommissionRepo{}, &stubOutbox{})

	updated, err := svc.CancelLineItems(context.Background(), LineItemCancelInput{
		OrderID:   order.ID,
		Owner:     orders.VendorOwner(vendorID),
		ItemIDs:   []uuid.UUID{unit.Items[0].ID, unit.Items[1].ID},
		ActorType: enums.ActorTypeVendor,
		ActorID:   vendorID,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, updated.Units[1].SubtotalCents)
	assert.Equal(t, enums.UnitStatusCancelled, updated.Units[1].Status)
}

func TestCancelLineItemsUnknownItem(t *testing.T) {
	vendorID := uuid.New()
	order := mixedOrder(vendorID)
	svc := newCancellationService(t, &stubOrdersRepo{order: order}, &stubCommissionRepo{}, &stubOutbox{})

	_, err := svc.CancelLineItems(context.Background(), LineItemCancelInput{
		OrderID:   order.ID,
		Owner:     orders.VendorOwner(vendorID),
		ItemIDs:   []uuid.UUID{uuid.New()},
		ActorType: enums.ActorTypeAdmin,
		ActorID:   uuid.New(),
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

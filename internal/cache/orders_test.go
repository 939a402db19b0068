package cache

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vendora-hq/fulfillment-backend/pkg/db/models"
	"github.com/vendora-hq/fulfillment-backend/pkg/enums"
	"github.com/vendora-hq/fulfillment-backend/pkg/logger"
)

type fakeStore struct {
	values   map[string]string
	deleted  []string
	patterns []string
	failAll  bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{values: map[string]string{}}
}

func (f *fakeStore) Get(ctx context.Context, key string) (string, error) {
	if f.failAll {
		return "", errors.New("redis down")
	}
	value, ok := f.values[key]
	if !ok {
		return "", errors.New("miss")
	}
	return value, nil
}

func (f *fakeStore) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	if f.failAll {
		return errors.New("redis down")
	}
	f.values[key] = string(value.([]byte))
	return nil
}

func (f *fakeStore) Del(ctx context.Context, keys ...string) error {
	if f.failAll {
		return errors.New("redis down")
	}
	for _, key := range keys {
		delete(f.values, key)
		f.deleted = append(f.deleted, key)
	}
	return nil
}

func (f *fakeStore) DelPattern(ctx context.Context, pattern string) error {
	if f.failAll {
		return errors.New("redis down")
	}
	f.patterns = append(f.patterns, pattern)
	return nil
}

func (f *fakeStore) OrderDetailKey(orderID string) string { return "vnd:order:" + orderID }
func (f *fakeStore) CustomerOrderListKey(customerID string) string {
	return "vnd:orders:customer:" + customerID
}
func (f *fakeStore) VendorOrderListKey(vendorID string) string {
	return "vnd:orders:vendor:" + vendorID
}

func testCache(store store) *OrderCache {
	return &OrderCache{
		store: store,
		logg:  logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		ttl:   5 * time.Minute,
	}
}

func cachedOrder() *models.Order {
	vendorID := uuid.New()
	return &models.Order{
		ID:            uuid.New(),
		CustomerID:    uuid.New(),
		OverallStatus: enums.OverallStatusPlaced,
		Version:       1,
		Units: []models.FulfillmentUnit{
			{ID: uuid.New(), OwnerType: enums.OwnerTypeAdmin, Status: enums.UnitStatusPlaced},
			{ID: uuid.New(), OwnerType: enums.OwnerTypeVendor, VendorID: &vendorID, Status: enums.UnitStatusPlaced},
		},
	}
}

func TestOrderCacheRoundtrip(t *testing.T) {
	store := newFakeStore()
	cache := testCache(store)
	order := cachedOrder()

	_, hit := cache.GetOrder(context.Background(), order.ID)
	assert.False(t, hit)

	cache.SetOrder(context.Background(), order)
	loaded, hit := cache.GetOrder(context.Background(), order.ID)
	require.True(t, hit)
	assert.Equal(t, order.ID, loaded.ID)
	assert.Equal(t, order.Version, loaded.Version)
	require.Len(t, loaded.Units, 2)
}

func TestOrderCacheCorruptEntryIsMiss(t *testing.T) {
	store := newFakeStore()
	cache := testCache(store)
	orderID := uuid.New()
	store.values[store.OrderDetailKey(orderID.String())] = "{not json"

	_, hit := cache.GetOrder(context.Background(), orderID)
	assert.False(t, hit)
}

func TestInvalidateOrderDropsDetailAndLists(t *testing.T) {
	store := newFakeStore()
	cache := testCache(store)
	order := cachedOrder()
	cache.SetOrder(context.Background(), order)

	cache.InvalidateOrder(context.Background(), order)

	_, hit := cache.GetOrder(context.Background(), order.ID)
	assert.False(t, hit)
	require.Len(t, store.patterns, 2)
	assert.Contains(t, store.patterns[0], order.CustomerID.String())
	assert.Contains(t, store.patterns[1], order.Units[1].VendorID.String())
}

func TestInvalidateOrderSwallowsFailures(t *testing.T) {
	store := newFakeStore()
	store.failAll = true
	cache := testCache(store)

	// Must not panic or surface anything.
	cache.InvalidateOrder(context.Background(), cachedOrder())
	cache.SetOrder(context.Background(), cachedOrder())
	_, hit := cache.GetOrder(context.Background(), uuid.New())
	assert.False(t, hit)
}

func TestSetOrderStoresJSON(t *testing.T) {
	store := newFakeStore()
	cache := testCache(store)
	order := cachedOrder()

	cache.SetOrder(context.Background(), order)
	raw := store.values[store.OrderDetailKey(order.ID.String())]
	var decoded models.Order
	require.NoError(t, json.Unmarshal([]byte(raw), &decoded))
	assert.Equal(t, order.CustomerID, decoded.CustomerID)
}

package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vendora-hq/fulfillment-backend/pkg/config"
	"github.com/vendora-hq/fulfillment-backend/pkg/db/models"
	"github.com/vendora-hq/fulfillment-backend/pkg/enums"
	"github.com/vendora-hq/fulfillment-backend/pkg/logger"
	"github.com/vendora-hq/fulfillment-backend/pkg/metrics"
	"github.com/vendora-hq/fulfillment-backend/pkg/redis"
)

type store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	DelPattern(ctx context.Context, pattern string) error
	OrderDetailKey(orderID string) string
	CustomerOrderListKey(customerID string) string
	VendorOrderListKey(vendorID string) string
}

// OrderCache is the Redis-backed read cache for order detail views. All
// failures degrade to a miss or a logged warning: the database stays the
// source of truth and callers never see a cache error.
type OrderCache struct {
	store   store
	logg    *logger.Logger
	metrics *metrics.OrderMetrics
	ttl     time.Duration
}

// NewOrderCache builds the order read cache.
func NewOrderCache(client *redis.Client, cfg config.CacheConfig, logg *logger.Logger, orderMetrics *metrics.OrderMetrics) (*OrderCache, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &OrderCache{
		store:   client,
		logg:    logg,
		metrics: orderMetrics,
		ttl:     cfg.OrderDetailTTL,
	}, nil
}

// GetOrder returns the cached detail view, or (nil, false) on any miss,
// decode failure, or Redis error.
func (c *OrderCache) GetOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, bool) {
	raw, err := c.store.Get(ctx, c.store.OrderDetailKey(orderID.String()))
	if err != nil {
		if !redis.IsMiss(err) {
			c.logg.Warn(c.logg.WithOrderID(ctx, orderID.String()), "order cache read failed")
		}
		return nil, false
	}

	var order models.Order
	if err := json.Unmarshal([]byte(raw), &order); err != nil {
		// A stale or corrupt entry behaves like a miss; the next write
		// replaces it.
		c.logg.Warn(c.logg.WithOrderID(ctx, orderID.String()), "order cache entry corrupt")
		return nil, false
	}
	return &order, true
}

// SetOrder stores the detail view with the configured TTL. Write failures
// are logged and dropped.
func (c *OrderCache) SetOrder(ctx context.Context, order *models.Order) {
	if order == nil {
		return
	}
	payload, err := json.Marshal(order)
	if err != nil {
		c.logg.Error(ctx, "marshal order for cache", err)
		return
	}
	if err := c.store.Set(ctx, c.store.OrderDetailKey(order.ID.String()), payload, c.ttl); err != nil {
		c.logg.Warn(c.logg.WithOrderID(ctx, order.ID.String()), "order cache write failed")
	}
}

// InvalidateOrder drops the detail key plus every list entry the order can
// appear in: the customer's lists and each owning vendor's lists. It runs
// after commit, so errors are counted but never surfaced.
func (c *OrderCache) InvalidateOrder(ctx context.Context, order *models.Order) {
	if order == nil {
		return
	}
	ctx = c.logg.WithOrderID(ctx, order.ID.String())

	var failed bool
	if err := c.store.Del(ctx, c.store.OrderDetailKey(order.ID.String())); err != nil {
		failed = true
	}
	if err := c.store.DelPattern(ctx, c.store.CustomerOrderListKey(order.CustomerID.String())+"*"); err != nil {
		failed = true
	}
	for _, unit := range order.Units {
		if unit.OwnerType != enums.OwnerTypeVendor || unit.VendorID == nil {
			continue
		}
		if err := c.store.DelPattern(ctx, c.store.VendorOrderListKey(unit.VendorID.String())+"*"); err != nil {
			failed = true
		}
	}
	if failed {
		c.metrics.IncInvalidationFailure()
		c.logg.Warn(ctx, "order cache invalidation failed")
	}
}

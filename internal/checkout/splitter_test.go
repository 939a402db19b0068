package checkout

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vendora-hq/fulfillment-backend/internal/orders"
	"github.com/vendora-hq/fulfillment-backend/pkg/enums"
	pkgerrors "github.com/vendora-hq/fulfillment-backend/pkg/errors"
)

func adminItem(ref string, qty, priceCents int) CartItem {
	return CartItem{ProductRef: ref, Owner: orders.AdminOwner(), Qty: qty, UnitPriceCents: priceCents}
}

func vendorItem(ref string, vendorID uuid.UUID, qty, priceCents int) CartItem {
	return CartItem{ProductRef: ref, Owner: orders.VendorOwner(vendorID), Qty: qty, UnitPriceCents: priceCents}
}

func TestSplitCartMixed(t *testing.T) {
	vendorA := uuid.New()
	vendorB := uuid.New()
	split, err := SplitCart([]CartItem{
		adminItem("sku-1", 1, 1000),
		vendorItem("sku-2", vendorA, 2, 500),
		adminItem("sku-3", 3, 200),
		vendorItem("sku-4", vendorB, 1, 700),
		vendorItem("sku-5", vendorA, 1, 300),
	})
	require.NoError(t, err)

	assert.Equal(t, enums.OrderKindMixed, split.Kind)
	require.NotNil(t, split.AdminBucket)
	assert.Equal(t, 1600, split.AdminBucket.SubtotalCents)
	require.Len(t, split.VendorBuckets, 2)
	assert.Equal(t, vendorA, split.VendorBuckets[0].Owner.VendorID)
	assert.Equal(t, 1300, split.VendorBuckets[0].SubtotalCents)
	assert.Equal(t, vendorB, split.VendorBuckets[1].Owner.VendorID)
	assert.Equal(t, 700, split.VendorBuckets[1].SubtotalCents)
}

// Bucket subtotals always sum to the cart subtotal exactly; integer cents
// leave no room for rounding drift.
func TestSplitCartSubtotalsSumToCart(t *testing.T) {
	vendorA := uuid.New()
	items := []CartItem{
		adminItem("sku-1", 3, 333),
		vendorItem("sku-2", vendorA, 7, 129),
		vendorItem("sku-3", uuid.New(), 1, 99999),
	}
	cartTotal := 0
	for _, item := range items {
		cartTotal += item.TotalCents()
	}

	split, err := SplitCart(items)
	require.NoError(t, err)
	assert.Equal(t, cartTotal, split.SubtotalCents())
}

func TestSplitCartAdminOnly(t *testing.T) {
	split, err := SplitCart([]CartItem{adminItem("sku-1", 1, 100)})
	require.NoError(t, err)
	assert.Equal(t, enums.OrderKindAdminOnly, split.Kind)
	assert.Empty(t, split.VendorBuckets)
}

func TestSplitCartVendorOnly(t *testing.T) {
	split, err := SplitCart([]CartItem{vendorItem("sku-1", uuid.New(), 1, 100)})
	require.NoError(t, err)
	assert.Equal(t, enums.OrderKindVendorOnly, split.Kind)
	assert.Nil(t, split.AdminBucket)
}

func TestSplitCartRejectsEmptyCart(t *testing.T) {
	_, err := SplitCart(nil)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestSplitCartRejectsBadItems(t *testing.T) {
	cases := []struct {
		name string
		item CartItem
	}{
		{"zero quantity", adminItem("sku-1", 0, 100)},
		{"negative price", adminItem("sku-1", 1, -5)},
		{"blank product ref", adminItem("  ", 1, 100)},
		{"nil vendor id", vendorItem("sku-1", uuid.Nil, 1, 100)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := SplitCart([]CartItem{tc.item})
			require.Error(t, err)
			assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
		})
	}
}

// Cart [admin $50 x1, vendorA $30 x2] with $5 shipping: admin bucket $50,
// vendorA bucket $60, displayed order total $115.
func TestSplitCartCheckoutScenario(t *testing.T) {
	vendorA := uuid.New()
	split, err := SplitCart([]CartItem{
		adminItem("sku-admin", 1, 5000),
		vendorItem("sku-vendor", vendorA, 2, 3000),
	})
	require.NoError(t, err)

	require.NotNil(t, split.AdminBucket)
	assert.Equal(t, 5000, split.AdminBucket.SubtotalCents)
	require.Len(t, split.VendorBuckets, 1)
	assert.Equal(t, 6000, split.VendorBuckets[0].SubtotalCents)

	shippingCents := 500
	assert.Equal(t, 11500, split.SubtotalCents()+shippingCents)
}

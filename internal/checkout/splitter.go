package checkout

import (
	"strings"

	"github.com/google/uuid"

	"github.com/vendora-hq/fulfillment-backend/internal/orders"
	"github.com/vendora-hq/fulfillment-backend/pkg/enums"
	pkgerrors "github.com/vendora-hq/fulfillment-backend/pkg/errors"
)

// CartItem is one priced cart entry tagged with its owning party.
type CartItem struct {
	ProductRef     string
	Owner          orders.OwnerRef
	Qty            int
	UnitPriceCents int
}

// TotalCents is the line total for this entry.
func (c CartItem) TotalCents() int {
	return c.Qty * c.UnitPriceCents
}

// Bucket is one owner's partition of the cart with its pre-shipping subtotal.
type Bucket struct {
	Owner         orders.OwnerRef
	Items         []CartItem
	SubtotalCents int
}

// Split is the result of partitioning a cart: at most one admin bucket and one
// bucket per distinct vendor, plus the derived order kind.
type Split struct {
	AdminBucket   *Bucket
	VendorBuckets []Bucket
	Kind          enums.OrderKind
}

// Buckets returns every bucket in creation order, admin first.
func (s Split) Buckets() []Bucket {
	buckets := make([]Bucket, 0, len(s.VendorBuckets)+1)
	if s.AdminBucket != nil {
		buckets = append(buckets, *s.AdminBucket)
	}
	return append(buckets, s.VendorBuckets...)
}

// SubtotalCents sums every bucket's subtotal; always equals the cart subtotal.
func (s Split) SubtotalCents() int {
	total := 0
	for _, bucket := range s.Buckets() {
		total += bucket.SubtotalCents
	}
	return total
}

// SplitCart partitions the cart into one admin bucket and one bucket per
// vendor. Items without a vendor tag land in the admin bucket; vendor-tagged
// items group by vendor id, preserving cart order within each bucket. Shipping
// is never part of any bucket subtotal: commission always works pre-shipping.
func SplitCart(items []CartItem) (*Split, error) {
	if len(items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	for i, item := range items {
		if strings.TrimSpace(item.ProductRef) == "" {
			return nil, itemError(i, "product reference required")
		}
		if item.Qty <= 0 {
			return nil, itemError(i, "quantity must be positive")
		}
		if item.UnitPriceCents < 0 {
			return nil, itemError(i, "unit price cannot be negative")
		}
		if item.Owner.Type == enums.OwnerTypeVendor && item.Owner.VendorID == uuid.Nil {
			return nil, itemError(i, "vendor reference malformed")
		}
	}

	split := &Split{}
	vendorIndex := map[uuid.UUID]int{}
	for _, item := range items {
		if item.Owner.Type == enums.OwnerTypeAdmin {
			if split.AdminBucket == nil {
				split.AdminBucket = &Bucket{Owner: orders.AdminOwner()}
			}
			split.AdminBucket.Items = append(split.AdminBucket.Items, item)
			split.AdminBucket.SubtotalCents += item.TotalCents()
			continue
		}
		idx, ok := vendorIndex[item.Owner.VendorID]
		if !ok {
			idx = len(split.VendorBuckets)
			vendorIndex[item.Owner.VendorID] = idx
			split.VendorBuckets = append(split.VendorBuckets, Bucket{
				Owner: orders.VendorOwner(item.Owner.VendorID),
			})
		}
		split.VendorBuckets[idx].Items = append(split.VendorBuckets[idx].Items, item)
		split.VendorBuckets[idx].SubtotalCents += item.TotalCents()
	}

	switch {
	case split.AdminBucket != nil && len(split.VendorBuckets) > 0:
		split.Kind = enums.OrderKindMixed
	case split.AdminBucket != nil:
		split.Kind = enums.OrderKindAdminOnly
	default:
		split.Kind = enums.OrderKindVendorOnly
	}
	return split, nil
}

func itemError(index int, message string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, message).
		WithDetails(map[string]int{"item_index": index})
}

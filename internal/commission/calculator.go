package commission

import (
	"github.com/shopspring/decimal"
)

// Amounts is the result of one commission computation.
type Amounts struct {
	CommissionCents int
	PayableCents    int
}

// Compute derives the platform commission and vendor payable for a subtotal.
// The rate is a decimal fraction (0.20 = 20%); the commission is rounded to the
// nearest cent, and the payable is always the exact remainder so the two sum to
// the subtotal.
func Compute(subtotalCents int, rate decimal.Decimal) Amounts {
	commission := decimal.NewFromInt(int64(subtotalCents)).
		Mul(rate).
		Round(0)
	commissionCents := int(commission.IntPart())
	return Amounts{
		CommissionCents: commissionCents,
		PayableCents:    subtotalCents - commissionCents,
	}
}

// ResolveRate picks the vendor's commission rate: the per-vendor override when
// present, otherwise the platform default. The resolved value is snapshotted
// into the commission record and never recomputed.
func ResolveRate(override *decimal.Decimal, platformDefault decimal.Decimal) decimal.Decimal {
	if override != nil {
		return *override
	}
	return platformDefault
}

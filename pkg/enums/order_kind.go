package enums

import "fmt"

// OrderKind classifies an order by the owners of its units. Derived once at
// split time and cached on the order for listing; always recomputable from units.
type OrderKind string

const (
	OrderKindAdminOnly  OrderKind = "admin_only"
	OrderKindVendorOnly OrderKind = "vendor_only"
	OrderKindMixed      OrderKind = "mixed"
)

var validOrderKinds = []OrderKind{
	OrderKindAdminOnly,
	OrderKindVendorOnly,
	OrderKindMixed,
}

// String implements fmt.Stringer.
func (o OrderKind) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OrderKind.
func (o OrderKind) IsValid() bool {
	for _, candidate := range validOrderKinds {
		if candidate == o {
			return true
		}
	}
	return false
}

// ParseOrderKind converts raw input into an OrderKind.
func ParseOrderKind(value string) (OrderKind, error) {
	for _, candidate := range validOrderKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order kind %q", value)
}

package enums

import "fmt"

// OwnerType identifies which party owns a fulfillment unit. A unit belongs to
// the platform admin or to exactly one vendor; there is no nullable middle ground.
type OwnerType string

const (
	OwnerTypeAdmin  OwnerType = "admin"
	OwnerTypeVendor OwnerType = "vendor"
)

var validOwnerTypes = []OwnerType{
	OwnerTypeAdmin,
	OwnerTypeVendor,
}

// String implements fmt.Stringer.
func (o OwnerType) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OwnerType.
func (o OwnerType) IsValid() bool {
	for _, candidate := range validOwnerTypes {
		if candidate == o {
			return true
		}
	}
	return false
}

// ParseOwnerType converts raw input into an OwnerType.
func ParseOwnerType(value string) (OwnerType, error) {
	for _, candidate := range validOwnerTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid owner type %q", value)
}

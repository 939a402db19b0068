package enums

import (
	"fmt"
	"strings"
)

// UnitStatus tracks the lifecycle of a single fulfillment unit.
type UnitStatus string

const (
	UnitStatusPlaced     UnitStatus = "placed"
	UnitStatusProcessing UnitStatus = "processing"
	UnitStatusShipped    UnitStatus = "shipped"
	UnitStatusDelivered  UnitStatus = "delivered"
	UnitStatusCancelled  UnitStatus = "cancelled"
)

var validUnitStatuses = []UnitStatus{
	UnitStatusPlaced,
	UnitStatusProcessing,
	UnitStatusShipped,
	UnitStatusDelivered,
	UnitStatusCancelled,
}

// legacyUnitStatuses maps the vocabulary found in pre-migration rows to the
// canonical set. Applied once at the read boundary, never propagated.
var legacyUnitStatuses = map[string]UnitStatus{
	"pending":   UnitStatusPlaced,
	"confirmed": UnitStatusProcessing,
	"canceled":  UnitStatusCancelled,
}

// String implements fmt.Stringer.
func (u UnitStatus) String() string {
	return string(u)
}

// IsValid reports whether the value is a known UnitStatus.
func (u UnitStatus) IsValid() bool {
	for _, candidate := range validUnitStatuses {
		if candidate == u {
			return true
		}
	}
	return false
}

// IsTerminal reports whether a unit can never leave this status.
func (u UnitStatus) IsTerminal() bool {
	return u == UnitStatusDelivered || u == UnitStatusCancelled
}

// ParseUnitStatus converts raw input into a UnitStatus.
func ParseUnitStatus(value string) (UnitStatus, error) {
	for _, candidate := range validUnitStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid unit status %q", value)
}

// NormalizeUnitStatus accepts canonical and legacy spellings (mixed case,
// Pending/Confirmed vocabulary) and returns the canonical status.
func NormalizeUnitStatus(value string) (UnitStatus, error) {
	lowered := strings.ToLower(strings.TrimSpace(value))
	if mapped, ok := legacyUnitStatuses[lowered]; ok {
		return mapped, nil
	}
	return ParseUnitStatus(lowered)
}

package enums

import "fmt"

// CommissionRecordKind distinguishes the record written at forwarding time from
// compensating adjustments appended after partial cancellations.
type CommissionRecordKind string

const (
	CommissionRecordKindInitial    CommissionRecordKind = "initial"
	CommissionRecordKindAdjustment CommissionRecordKind = "adjustment"
)

var validCommissionRecordKinds = []CommissionRecordKind{
	CommissionRecordKindInitial,
	CommissionRecordKindAdjustment,
}

// String implements fmt.Stringer.
func (c CommissionRecordKind) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CommissionRecordKind.
func (c CommissionRecordKind) IsValid() bool {
	for _, candidate := range validCommissionRecordKinds {
		if candidate == c {
			return true
		}
	}
	return false
}

// SettlementStatus tracks whether a commission liability has been paid out.
type SettlementStatus string

const (
	SettlementStatusUnpaid SettlementStatus = "unpaid"
	SettlementStatusPaid   SettlementStatus = "paid"
)

var validSettlementStatuses = []SettlementStatus{
	SettlementStatusUnpaid,
	SettlementStatusPaid,
}

// String implements fmt.Stringer.
func (s SettlementStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known SettlementStatus.
func (s SettlementStatus) IsValid() bool {
	for _, candidate := range validSettlementStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseSettlementStatus converts raw input into a SettlementStatus.
func ParseSettlementStatus(value string) (SettlementStatus, error) {
	for _, candidate := range validSettlementStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid settlement status %q", value)
}

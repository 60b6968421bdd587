package enums

import "fmt"

// CommissionKind discriminates the three commission stores.
type CommissionKind string

const (
	CommissionKindVendorType CommissionKind = "vendor_type"
	CommissionKindTimePeriod CommissionKind = "time_period"
	CommissionKindOfferType  CommissionKind = "offer_type"
)

var validCommissionKinds = []CommissionKind{
	CommissionKindVendorType,
	CommissionKindTimePeriod,
	CommissionKindOfferType,
}

// CommissionKinds returns the kinds in lookup order.
func CommissionKinds() []CommissionKind {
	out := make([]CommissionKind, len(validCommissionKinds))
	copy(out, validCommissionKinds)
	return out
}

// String implements fmt.Stringer.
func (k CommissionKind) String() string {
	return string(k)
}

// IsValid reports whether the value is a known CommissionKind.
func (k CommissionKind) IsValid() bool {
	for _, candidate := range validCommissionKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParseCommissionKind converts raw input into a CommissionKind.
func ParseCommissionKind(value string) (CommissionKind, error) {
	for _, candidate := range validCommissionKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid commission type %q", value)
}

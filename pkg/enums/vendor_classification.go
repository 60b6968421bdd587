package enums

import "fmt"

// VendorClassification is the tier a vendor is billed under.
type VendorClassification string

const (
	VendorClassificationBronze   VendorClassification = "bronze"
	VendorClassificationSilver   VendorClassification = "silver"
	VendorClassificationGold     VendorClassification = "gold"
	VendorClassificationPlatinum VendorClassification = "platinum"
	VendorClassificationSpecial  VendorClassification = "special"
)

var validVendorClassifications = []VendorClassification{
	VendorClassificationBronze,
	VendorClassificationSilver,
	VendorClassificationGold,
	VendorClassificationPlatinum,
	VendorClassificationSpecial,
}

// VendorClassifications returns every classification in tier order.
func VendorClassifications() []VendorClassification {
	out := make([]VendorClassification, len(validVendorClassifications))
	copy(out, validVendorClassifications)
	return out
}

// String implements fmt.Stringer.
func (c VendorClassification) String() string {
	return string(c)
}

// IsValid reports whether the value is a known VendorClassification.
func (c VendorClassification) IsValid() bool {
	for _, candidate := range validVendorClassifications {
		if candidate == c {
			return true
		}
	}
	return false
}

// IsStandard reports whether the classification is one of the four rated tiers.
func (c VendorClassification) IsStandard() bool {
	return c.IsValid() && c != VendorClassificationSpecial
}

// ParseVendorClassification converts raw input into a VendorClassification.
func ParseVendorClassification(value string) (VendorClassification, error) {
	for _, candidate := range validVendorClassifications {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid vendor classification %q", value)
}

package commissions

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/marketadmin-backend/pkg/enums"
)

// classificationRates are the default percentages for the standard vendor
// tiers. Special vendors have no default and are only rated by an explicit record.
var classificationRates = map[enums.VendorClassification]decimal.Decimal{
	enums.VendorClassificationBronze:   decimal.RequireFromString("20.00"),
	enums.VendorClassificationSilver:   decimal.RequireFromString("15.00"),
	enums.VendorClassificationGold:     decimal.RequireFromString("10.00"),
	enums.VendorClassificationPlatinum: decimal.RequireFromString("5.00"),
}

// Rate returns the default percentage for a classification. The second result
// is false for special and unknown classifications.
func Rate(classification enums.VendorClassification) (decimal.Decimal, bool) {
	rate, ok := classificationRates[classification]
	return rate, ok
}

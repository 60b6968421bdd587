package commissions

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/marketadmin-backend/pkg/db/models"
	"github.com/angelmondragon/marketadmin-backend/pkg/enums"
)

// Payload carries create/update input for every kind. Nil fields are left
// untouched on update; kind-specific fields are ignored by other kinds.
type Payload struct {
	Kind        enums.CommissionKind `json:"commission_type"`
	Name        *string              `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Description *string              `json:"description,omitempty"`
	Percentage  *decimal.Decimal     `json:"percentage,omitempty"`
	IsActive    *bool                `json:"is_active,omitempty"`

	VendorClassification *enums.VendorClassification `json:"vendor_classification,omitempty"`
	VendorID             *uuid.UUID                  `json:"vendor_id,omitempty"`
	ClearVendor          bool                        `json:"clear_vendor,omitempty"`

	StartDate *time.Time `json:"start_date,omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty"`

	CategoryID       *uuid.UUID `json:"category_id,omitempty"`
	SubCategoryID    *uuid.UUID `json:"subcategory_id,omitempty"`
	ClearSubCategory bool       `json:"clear_subcategory,omitempty"`
}

// Details is the kind-specific part of a Record.
type Details struct {
	VendorClassification *enums.VendorClassification `json:"vendor_classification,omitempty"`
	VendorID             *uuid.UUID                  `json:"vendor_id,omitempty"`
	StartDate            *time.Time                  `json:"start_date,omitempty"`
	EndDate              *time.Time                  `json:"end_date,omitempty"`
	CategoryID           *uuid.UUID                  `json:"category_id,omitempty"`
	CategoryName         string                      `json:"category_name,omitempty"`
	SubCategoryID        *uuid.UUID                  `json:"subcategory_id,omitempty"`
	SubCategoryName      string                      `json:"subcategory_name,omitempty"`
}

// Record is the uniform projection of a commission of any kind.
type Record struct {
	ID          uuid.UUID            `json:"id"`
	Kind        enums.CommissionKind `json:"commission_type"`
	Name        string               `json:"name"`
	Description *string              `json:"description,omitempty"`
	Percentage  decimal.Decimal      `json:"percentage"`
	IsActive    bool                 `json:"is_active"`
	CreatedByID *uuid.UUID           `json:"created_by,omitempty"`
	UpdatedByID *uuid.UUID           `json:"updated_by,omitempty"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
	Details     Details              `json:"details"`
}

// Page is one listing page; NextCursor is empty on the last page.
type Page struct {
	Items      []Record `json:"items"`
	NextCursor string   `json:"next_cursor,omitempty"`
}

// Summary counts active records per kind.
type Summary struct {
	VendorTypeCommissions int64 `json:"vendor_type_commissions"`
	TimePeriodCommissions int64 `json:"time_period_commissions"`
	OfferTypeCommissions  int64 `json:"offer_type_commissions"`
	TotalActive           int64 `json:"total_active_commissions"`
}

// VendorSummary is the vendor half of assign/special results.
type VendorSummary struct {
	ID             uuid.UUID                  `json:"id"`
	Username       string                     `json:"username"`
	BusinessName   string                     `json:"business_name"`
	Classification enums.VendorClassification `json:"classification"`
}

// Assignment is returned by AssignToVendor and CreateSpecial.
type Assignment struct {
	Vendor     VendorSummary `json:"vendor"`
	Commission Record        `json:"commission"`
}

// VendorCommission is one row of the vendor commission overview.
type VendorCommission struct {
	Vendor     VendorSummary `json:"vendor"`
	Resolution Resolution    `json:"commission"`
}

func baseRecord(kind enums.CommissionKind, base models.CommissionBase) Record {
	return Record{
		ID:          base.ID,
		Kind:        kind,
		Name:        base.Name,
		Description: base.Description,
		Percentage:  base.Percentage,
		IsActive:    base.IsActive,
		CreatedByID: base.CreatedByID,
		UpdatedByID: base.UpdatedByID,
		CreatedAt:   base.CreatedAt,
		UpdatedAt:   base.UpdatedAt,
	}
}

// FromVendorType projects a vendor-type model.
func FromVendorType(m models.VendorTypeCommission) Record {
	rec := baseRecord(m.Kind(), m.CommissionBase)
	classification := m.VendorClassification
	rec.Details.VendorClassification = &classification
	rec.Details.VendorID = m.VendorID
	return rec
}

// FromTimePeriod projects a time-period model.
func FromTimePeriod(m models.TimePeriodCommission) Record {
	rec := baseRecord(m.Kind(), m.CommissionBase)
	start, end := m.StartDate.UTC(), m.EndDate.UTC()
	rec.Details.StartDate = &start
	rec.Details.EndDate = &end
	return rec
}

// FromOfferType projects an offer-category model; the names come from the catalog.
func FromOfferType(m models.OfferTypeCommission, categoryName, subCategoryName string) Record {
	rec := baseRecord(m.Kind(), m.CommissionBase)
	categoryID := m.CategoryID
	rec.Details.CategoryID = &categoryID
	rec.Details.CategoryName = categoryName
	rec.Details.SubCategoryID = m.SubCategoryID
	rec.Details.SubCategoryName = subCategoryName
	return rec
}

func vendorSummary(user *models.User, profile *models.VendorProfile) VendorSummary {
	return VendorSummary{
		ID:             user.ID,
		Username:       user.Username,
		BusinessName:   profile.BusinessName,
		Classification: profile.Classification,
	}
}

package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/marketadmin-backend/pkg/enums"
)

// CommissionBase holds the columns shared by every commission table.
type CommissionBase struct {
	ID          uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name        string          `gorm:"column:name;not null"`
	Description *string         `gorm:"column:description"`
	Percentage  decimal.Decimal `gorm:"column:percentage;type:numeric(5,2);not null"`
	IsActive    bool            `gorm:"column:is_active;not null"`
	CreatedByID *uuid.UUID      `gorm:"column:created_by_id;type:uuid"`
	UpdatedByID *uuid.UUID      `gorm:"column:updated_by_id;type:uuid"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// VendorTypeCommission applies to every vendor of a classification. Special
// records may be linked to the one vendor they were negotiated for.
type VendorTypeCommission struct {
	CommissionBase       `gorm:"embedded"`
	VendorClassification enums.VendorClassification `gorm:"column:vendor_classification;type:vendor_classification;not null"`
	VendorID             *uuid.UUID                 `gorm:"column:vendor_id;type:uuid"`
}

func (VendorTypeCommission) TableName() string {
	return "vendor_type_commissions"
}

// Kind returns the store discriminator.
func (VendorTypeCommission) Kind() enums.CommissionKind {
	return enums.CommissionKindVendorType
}

// TimePeriodCommission applies inside the half-open window [StartDate, EndDate).
type TimePeriodCommission struct {
	CommissionBase `gorm:"embedded"`
	StartDate      time.Time `gorm:"column:start_date;not null"`
	EndDate        time.Time `gorm:"column:end_date;not null"`
}

func (TimePeriodCommission) TableName() string {
	return "time_period_commissions"
}

// Kind returns the store discriminator.
func (TimePeriodCommission) Kind() enums.CommissionKind {
	return enums.CommissionKindTimePeriod
}

// OfferTypeCommission applies to offers in a category, optionally narrowed to one subcategory.
type OfferTypeCommission struct {
	CommissionBase `gorm:"embedded"`
	CategoryID     uuid.UUID  `gorm:"column:category_id;type:uuid;not null"`
	SubCategoryID  *uuid.UUID `gorm:"column:subcategory_id;type:uuid"`
}

func (OfferTypeCommission) TableName() string {
	return "offer_type_commissions"
}

// Kind returns the store discriminator.
func (OfferTypeCommission) Kind() enums.CommissionKind {
	return enums.CommissionKindOfferType
}

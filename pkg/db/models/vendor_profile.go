package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/marketadmin-backend/pkg/enums"
)

// VendorProfile carries the business details and billing tier of a vendor user.
type VendorProfile struct {
	ID                         uuid.UUID                  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID                     uuid.UUID                  `gorm:"column:user_id;type:uuid;not null;uniqueIndex"`
	BusinessName               string                     `gorm:"column:business_name;not null"`
	BusinessRegistrationNumber string                     `gorm:"column:business_registration_number;not null"`
	Classification             enums.VendorClassification `gorm:"column:classification;type:vendor_classification;not null;default:'bronze'"`
	IsVerified                 bool                       `gorm:"column:is_verified;not null;default:false"`
	CreatedAt                  time.Time                  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt                  time.Time                  `gorm:"column:updated_at;autoUpdateTime"`
}

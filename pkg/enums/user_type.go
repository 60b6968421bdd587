package enums

import "fmt"

// UserType mirrors the user_type column on users.
type UserType string

const (
	UserTypeSuperAdmin UserType = "superadmin"
	UserTypeClient     UserType = "client"
	UserTypeVendor     UserType = "vendor"
	UserTypeFinancial  UserType = "financial"
	UserTypeTechnical  UserType = "technical"
)

var validUserTypes = []UserType{
	UserTypeSuperAdmin,
	UserTypeClient,
	UserTypeVendor,
	UserTypeFinancial,
	UserTypeTechnical,
}

// String implements fmt.Stringer.
func (u UserType) String() string {
	return string(u)
}

// IsValid reports whether the value is a known UserType.
func (u UserType) IsValid() bool {
	for _, candidate := range validUserTypes {
		if candidate == u {
			return true
		}
	}
	return false
}

// ParseUserType converts raw input into a UserType.
func ParseUserType(value string) (UserType, error) {
	for _, candidate := range validUserTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid user type %q", value)
}

// Capability is the administrative power a user type grants.
type Capability string

const (
	CapabilityNone              Capability = "none"
	CapabilityManageCommissions Capability = "manage_commissions"
)

// CapabilityFor maps a user type onto the capability it carries.
func CapabilityFor(userType UserType) Capability {
	switch userType {
	case UserTypeSuperAdmin, UserTypeFinancial:
		return CapabilityManageCommissions
	default:
		return CapabilityNone
	}
}
